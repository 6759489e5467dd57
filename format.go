package pcm2mp3

import "fmt"

// SampleFormat identifies the in-memory layout of a raw PCM sample. The
// string form matches the format names the conversion stage advertises.
type SampleFormat int

const (
	S16LE SampleFormat = iota
	S16BE
	S24LE
	S32LE
	F32LE
	U8
)

func NewSampleFormat(s string) (SampleFormat, error) {
	switch s {
	case "S16LE":
		return S16LE, nil
	case "S16BE":
		return S16BE, nil
	case "S24LE":
		return S24LE, nil
	case "S32LE":
		return S32LE, nil
	case "F32LE":
		return F32LE, nil
	case "U8":
		return U8, nil
	}
	return S16LE, fmt.Errorf("unknown sample format: %s", s)
}

func (f SampleFormat) String() string {
	switch f {
	case S16LE:
		return "S16LE"
	case S16BE:
		return "S16BE"
	case S24LE:
		return "S24LE"
	case S32LE:
		return "S32LE"
	case F32LE:
		return "F32LE"
	case U8:
		return "U8"
	}
	return "unknown"
}

// BitDepth returns the number of bits in a single-channel sample.
func (f SampleFormat) BitDepth() int {
	switch f {
	case U8:
		return 8
	case S16LE, S16BE:
		return 16
	case S24LE:
		return 24
	case S32LE, F32LE:
		return 32
	}
	return 0
}
