package transcription

// Request holds parameters for one transcription call.
type Request struct {
	// AudioPath is the path to the audio or video file to transcribe.
	AudioPath string `json:"audio_path"`
	// Language is an ISO code; empty asks the model to detect it.
	Language string `json:"language,omitempty"`
	// Model is the model variant, e.g. "large-v3". Empty uses the backend default.
	Model string `json:"model,omitempty"`
	// BeamSize is the decoding beam width.
	BeamSize int `json:"beam_size,omitempty"`
	// VADFilter drops non-speech regions before decoding.
	VADFilter bool `json:"vad_filter"`
	// WordTimestamps requests per-word timing.
	WordTimestamps bool `json:"word_timestamps"`
}

// Response holds the result of a transcription call.
type Response struct {
	// Segments are the time-aligned transcript pieces, in engine order.
	Segments []Segment `json:"segments"`
	// Duration is the audio duration in seconds, when the backend reports it.
	Duration float64 `json:"duration,omitempty"`
	// Language is the detected or requested language.
	Language string `json:"language,omitempty"`
}

// Segment represents a time-aligned portion of a transcript.
type Segment struct {
	// Start is the segment start time in seconds.
	Start float64 `json:"start"`
	// End is the segment end time in seconds.
	End float64 `json:"end"`
	// Text is the transcribed text for this segment.
	Text string `json:"text"`
}
