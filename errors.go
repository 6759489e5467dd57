package pcm2mp3

import "errors"

var (
	// ErrInvalidAlignment is returned by PushPCM when the chunk length is
	// not a multiple of the configured sample size.
	ErrInvalidAlignment = errors.New("pcm chunk not aligned to sample size")

	// ErrStartFailed is returned by Start when the pipeline graph refuses
	// the transition to playing. The instance stays usable and Start may
	// be retried.
	ErrStartFailed = errors.New("failed to start transcoding pipeline")

	// ErrIngestRejected is returned by PushPCM and PushSilence when the
	// graph cannot accept the buffer, either because it is not playing or
	// because a downstream stage signalled a flow failure.
	ErrIngestRejected = errors.New("pipeline rejected pcm buffer")

	// ErrDrained is returned by pushes after Drain has ended the stream.
	ErrDrained = errors.New("transcoder already drained")

	// ErrNotWAV is returned by NewWAVSource when the input is not a RIFF
	// wave file.
	ErrNotWAV = errors.New("not a valid wav file")

	// ErrUnsupportedWAV is returned by NewWAVSource for wave files whose
	// encoding the transcoder cannot ingest directly.
	ErrUnsupportedWAV = errors.New("unsupported wav encoding")
)
