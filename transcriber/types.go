package transcriber

import (
	"context"

	"github.com/kbukum/video-transcribe-mcp/downloader"
	"github.com/kbukum/video-transcribe-mcp/transcript"
	"github.com/kbukum/video-transcribe-mcp/transcription"
)

// URLJob asks for a video URL to be downloaded and transcribed.
type URLJob struct {
	URL      string `json:"url" validate:"required"`
	Language string `json:"language,omitempty"`
}

// FileJob asks for a local audio or video file to be transcribed.
type FileJob struct {
	FilePath string `json:"file_path" validate:"required"`
	Language string `json:"language,omitempty"`
}

// URLResult is the success payload of a URL job.
type URLResult struct {
	Success       bool   `json:"success"`
	Platform      string `json:"platform"`
	Title         string `json:"title"`
	Duration      string `json:"duration"`
	Language      string `json:"language"`
	SegmentsCount int    `json:"segments_count"`
	SavedTo       string `json:"saved_to"`
	Transcript    string `json:"transcript"`
}

// FileResult is the success payload of a file job.
type FileResult struct {
	Success       bool   `json:"success"`
	File          string `json:"file"`
	Duration      string `json:"duration"`
	Language      string `json:"language"`
	SegmentsCount int    `json:"segments_count"`
	SavedTo       string `json:"saved_to"`
	Transcript    string `json:"transcript"`
}

// Downloader fetches metadata and audio for a URL.
type Downloader interface {
	Probe(ctx context.Context, url string) (downloader.Metadata, downloader.Outcome)
	Acquire(ctx context.Context, url, dest string) downloader.Outcome
}

// Engine turns an audio file into segments.
type Engine interface {
	Transcribe(ctx context.Context, audioPath, language string) ([]transcription.Segment, error)
}

// Store persists transcripts.
type Store interface {
	Save(ctx context.Context, rec transcript.Record) (string, error)
}
