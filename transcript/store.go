// Package transcript renders transcripts to text files and lists them.
package transcript

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/kbukum/video-transcribe-mcp/component"
	"github.com/kbukum/video-transcribe-mcp/logger"
)

// Entry describes one saved transcript for list_transcripts.
type Entry struct {
	Filename string  `json:"filename"`
	Path     string  `json:"path"`
	SizeKB   float64 `json:"size_kb"`
	Modified string  `json:"modified"`
}

// Store writes transcripts into a flat directory. Files are created once
// and never updated or deleted; two saves in the same minute with the same
// platform and title overwrite each other.
type Store struct {
	fs  afero.Fs
	dir string
	now func() time.Time
	log *logger.Logger
}

var (
	_ component.Component   = (*Store)(nil)
	_ component.Describable = (*Store)(nil)
)

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a store rooted at dir on fs.
func NewStore(fs afero.Fs, dir string, opts ...Option) *Store {
	s := &Store{fs: fs, dir: dir, now: time.Now, log: logger.Get("store")}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the transcripts directory.
func (s *Store) Dir() string { return s.dir }

// Save writes rec and returns the file path. CreatedAt is set from the
// store clock when zero.
func (s *Store) Save(ctx context.Context, rec Record) (string, error) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create transcripts dir: %w", err)
	}
	path := filepath.Join(s.dir, Filename(rec))
	if err := afero.WriteFile(s.fs, path, []byte(Render(rec)), 0o644); err != nil {
		return "", fmt.Errorf("write transcript: %w", err)
	}
	s.log.WithContext(ctx).Info("transcript saved", logger.Fields(
		logger.FieldPath, path,
		logger.FieldSegments, len(rec.Segments),
	))
	return path, nil
}

// List returns up to limit transcripts, newest filename first.
func (s *Store) List(limit int) ([]Entry, error) {
	if limit <= 0 {
		return []Entry{}, nil
	}
	infos, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("read transcripts dir: %w", err)
	}

	files := make([]os.FileInfo, 0, len(infos))
	for _, fi := range infos {
		if !fi.IsDir() && strings.HasSuffix(fi.Name(), ".txt") {
			files = append(files, fi)
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name() > files[j].Name() })
	if len(files) > limit {
		files = files[:limit]
	}

	entries := make([]Entry, 0, len(files))
	for _, fi := range files {
		entries = append(entries, Entry{
			Filename: fi.Name(),
			Path:     filepath.Join(s.dir, fi.Name()),
			SizeKB:   math.Round(float64(fi.Size())/1024*10) / 10,
			Modified: fi.ModTime().Format("2006-01-02 15:04"),
		})
	}
	return entries, nil
}

// Name implements component.Component.
func (s *Store) Name() string { return "store" }

// Start creates the transcripts directory.
func (s *Store) Start(ctx context.Context) error {
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create transcripts dir %s: %w", s.dir, err)
	}
	return nil
}

// Stop implements component.Component.
func (s *Store) Stop(ctx context.Context) error { return nil }

// Health reports whether the transcripts directory exists.
func (s *Store) Health(ctx context.Context) component.Health {
	ok, err := afero.DirExists(s.fs, s.dir)
	if err != nil || !ok {
		return component.Health{Name: s.Name(), Status: component.StatusUnhealthy, Message: s.dir + " is missing"}
	}
	return component.Health{Name: s.Name(), Status: component.StatusHealthy, Message: s.dir}
}

// Describe implements component.Describable.
func (s *Store) Describe() component.Description {
	return component.Description{Name: "Transcript store", Type: "store", Details: s.dir}
}
