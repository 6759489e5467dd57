package model

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// StreamInfo describes the state of the live MP3 stream as reported by the
// status endpoint.
type StreamInfo struct {
	Listeners     int    `json:"listeners"`
	PositionMs    int64  `json:"position_ms"`
	Frames        uint64 `json:"frames"`
	Bytes         uint64 `json:"bytes"`
	SampleRate    int    `json:"sample_rate"`
	Channels      int    `json:"channels"`
	BitrateKbps   int    `json:"bitrate_kbps"`
	ContentType   string `json:"content_type"`
	StreamPath    string `json:"stream_path"`
	ListenerLimit int    `json:"listener_limit,omitempty"`
}
