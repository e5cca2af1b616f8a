package transcript

import (
	"fmt"
	"strings"
	"time"

	"github.com/kbukum/video-transcribe-mcp/transcription"
	"github.com/kbukum/video-transcribe-mcp/util"
)

const separator = "=================================================="

// Record is one persisted transcript.
type Record struct {
	// Source is the video URL, or file://<abs path> for local files.
	Source   string
	Platform string
	Title    string
	// CreatedAt is stamped by the store when zero.
	CreatedAt       time.Time
	DurationSeconds int
	Language        string
	Segments        []transcription.Segment
}

// FullText joins segment texts with single spaces.
func FullText(segments []transcription.Segment) string {
	parts := make([]string, len(segments))
	for i, s := range segments {
		parts[i] = s.Text
	}
	return strings.Join(parts, " ")
}

// Filename returns "{YYYY-MM-DD_HHMM}_{platform}_{title}.txt" with the
// title sanitized.
func Filename(rec Record) string {
	return fmt.Sprintf("%s_%s_%s.txt",
		rec.CreatedAt.Format("2006-01-02_1504"),
		rec.Platform,
		util.SanitizeFilename(rec.Title),
	)
}

// Render produces the file body: a header, timestamped segments and the
// plain text. Lines are joined by "\n" with no trailing newline.
func Render(rec Record) string {
	lines := []string{
		"Источник: " + rec.Source,
		"Платформа: " + rec.Platform,
		"Название: " + rec.Title,
		"Дата транскрипции: " + rec.CreatedAt.Format("2006-01-02 15:04"),
		"Длительность: " + util.FormatDuration(rec.DurationSeconds),
		"Язык: " + rec.Language,
		"",
		separator,
		"",
	}
	for _, s := range rec.Segments {
		lines = append(lines, util.FormatTimestamp(s.Start)+" "+s.Text)
	}
	lines = append(lines,
		"",
		separator,
		"ПОЛНЫЙ ТЕКСТ (без таймкодов):",
		separator,
		"",
		FullText(rec.Segments),
	)
	return strings.Join(lines, "\n")
}
