// Package transcriber runs transcription jobs: probe, download, transcribe,
// save and clean up for URLs; transcribe and save for local files.
package transcriber

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/kbukum/video-transcribe-mcp/component"
	apperrors "github.com/kbukum/video-transcribe-mcp/errors"
	"github.com/kbukum/video-transcribe-mcp/logger"
	"github.com/kbukum/video-transcribe-mcp/observability"
	"github.com/kbukum/video-transcribe-mcp/transcript"
	"github.com/kbukum/video-transcribe-mcp/util"
)

// Tool names used for job spans and metrics.
const (
	ToolTranscribeURL  = "transcribe_url"
	ToolTranscribeFile = "transcribe_file"
)

// Config configures the service.
type Config struct {
	// TempDir holds downloaded audio while a URL job runs.
	TempDir string
	// DefaultLanguage is used when a job leaves Language empty.
	DefaultLanguage string
}

// Service orchestrates jobs. It is not safe to run URL jobs concurrently
// within the same second; callers serialize jobs.
type Service struct {
	cfg     Config
	fs      afero.Fs
	dl      Downloader
	engine  Engine
	store   Store
	metrics *observability.Metrics
	now     func() time.Time
	newID   func() string
	log     *logger.Logger
}

var _ component.Component = (*Service)(nil)

// Option configures a Service.
type Option func(*Service)

// WithFs replaces the filesystem used for temp files and file checks.
func WithFs(fs afero.Fs) Option {
	return func(s *Service) { s.fs = fs }
}

// WithClock replaces time.Now for temp file stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithMetrics records job metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithIDGenerator replaces the job id generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// New creates a Service.
func New(cfg Config, dl Downloader, engine Engine, store Store, opts ...Option) *Service {
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = "ru"
	}
	s := &Service{
		cfg:    cfg,
		fs:     afero.NewOsFs(),
		dl:     dl,
		engine: engine,
		store:  store,
		now:    time.Now,
		newID:  uuid.NewString,
		log:    logger.Get("transcriber"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TranscribeURL downloads the audio of job.URL, transcribes it and saves
// the transcript. Downloaded files are removed on every exit path.
func (s *Service) TranscribeURL(ctx context.Context, job URLJob) (res *URLResult, err error) {
	ctx, j := s.startJob(ctx, ToolTranscribeURL)
	defer func() { s.endJob(ctx, j, err) }()

	language := util.Coalesce(job.Language, s.cfg.DefaultLanguage)
	platform := util.DetectPlatform(job.URL)
	observability.SetSpanAttribute(ctx, observability.AttrPlatform, platform)
	observability.SetSpanAttribute(ctx, observability.AttrLanguage, language)
	s.log.WithContext(ctx).Info("url job started", logger.Fields(
		logger.FieldURL, job.URL,
		logger.FieldPlatform, platform,
		logger.FieldLanguage, language,
	))

	stageCtx, done := j.Stage(ctx, observability.SpanProbe)
	meta, _ := s.dl.Probe(stageCtx, job.URL)
	done(nil)

	base := "audio_" + s.now().Format("20060102_150405")
	defer s.release(ctx, base)

	stageCtx, done = j.Stage(ctx, observability.SpanDownload)
	out := s.dl.Acquire(stageCtx, job.URL, filepath.Join(s.cfg.TempDir, base+".mp3"))
	if !out.OK() {
		err = apperrors.DownloadFailed(job.URL).WithCause(out.Err).WithDetails(map[string]any{
			"stderr":    out.Stderr,
			"exit_code": out.ExitCode,
			"timed_out": out.TimedOut,
		})
		done(err)
		return nil, err
	}
	artifact, err := s.locate(base)
	done(err)
	if err != nil {
		return nil, err
	}

	stageCtx, done = j.Stage(ctx, observability.SpanTranscribe)
	segments, err := s.engine.Transcribe(stageCtx, artifact, language)
	if err == nil && len(segments) == 0 {
		err = apperrors.NoSpeech("video")
	}
	done(err)
	if err != nil {
		return nil, err
	}
	observability.SetSpanAttribute(ctx, observability.AttrSegments, len(segments))

	stageCtx, done = j.Stage(ctx, observability.SpanSave)
	path, err := s.store.Save(stageCtx, transcript.Record{
		Source:          job.URL,
		Platform:        platform,
		Title:           meta.Title,
		DurationSeconds: meta.DurationSeconds,
		Language:        language,
		Segments:        segments,
	})
	done(err)
	if err != nil {
		return nil, err
	}

	return &URLResult{
		Success:       true,
		Platform:      platform,
		Title:         meta.Title,
		Duration:      util.FormatDuration(meta.DurationSeconds),
		Language:      language,
		SegmentsCount: len(segments),
		SavedTo:       path,
		Transcript:    transcript.FullText(segments),
	}, nil
}

// TranscribeFile transcribes a local file and saves the transcript. A
// missing path fails before the engine is touched.
func (s *Service) TranscribeFile(ctx context.Context, job FileJob) (res *FileResult, err error) {
	ctx, j := s.startJob(ctx, ToolTranscribeFile)
	defer func() { s.endJob(ctx, j, err) }()

	language := util.Coalesce(job.Language, s.cfg.DefaultLanguage)
	path := util.ExpandHome(job.FilePath)
	if abs, absErr := filepath.Abs(path); absErr == nil {
		path = abs
	}
	observability.SetSpanAttribute(ctx, observability.AttrLanguage, language)
	s.log.WithContext(ctx).Info("file job started", logger.Fields(
		logger.FieldPath, path,
		logger.FieldLanguage, language,
	))

	if ok, _ := afero.Exists(s.fs, path); !ok {
		return nil, apperrors.FileNotFound(job.FilePath)
	}

	stageCtx, done := j.Stage(ctx, observability.SpanTranscribe)
	segments, err := s.engine.Transcribe(stageCtx, path, language)
	if err == nil && len(segments) == 0 {
		err = apperrors.NoSpeech("file")
	}
	done(err)
	if err != nil {
		return nil, err
	}
	observability.SetSpanAttribute(ctx, observability.AttrSegments, len(segments))

	duration := int(segments[len(segments)-1].End)
	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	stageCtx, done = j.Stage(ctx, observability.SpanSave)
	saved, err := s.store.Save(stageCtx, transcript.Record{
		Source:          "file://" + path,
		Platform:        util.PlatformLocalFile,
		Title:           title,
		DurationSeconds: duration,
		Language:        language,
		Segments:        segments,
	})
	done(err)
	if err != nil {
		return nil, err
	}

	return &FileResult{
		Success:       true,
		File:          path,
		Duration:      util.FormatDuration(duration),
		Language:      language,
		SegmentsCount: len(segments),
		SavedTo:       saved,
		Transcript:    transcript.FullText(segments),
	}, nil
}

// artifacts lists the files in the temp directory whose names start with
// base, sorted by name.
func (s *Service) artifacts(base string) ([]string, error) {
	entries, err := afero.ReadDir(s.fs, s.cfg.TempDir)
	if err != nil {
		return nil, fmt.Errorf("read temp dir %s: %w", s.cfg.TempDir, err)
	}
	var paths []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), base) {
			paths = append(paths, filepath.Join(s.cfg.TempDir, e.Name()))
		}
	}
	return paths, nil
}

// locate finds the downloaded file. yt-dlp may rewrite the extension, so
// any file starting with base counts; the lexicographically smallest wins.
func (s *Service) locate(base string) (string, error) {
	paths, err := s.artifacts(base)
	if err != nil {
		return "", err
	}
	if len(paths) == 0 {
		return "", apperrors.ArtifactMissing()
	}
	return paths[0], nil
}

// release removes every file of this job. Failures are logged and ignored.
func (s *Service) release(ctx context.Context, base string) {
	paths, err := s.artifacts(base)
	if err != nil {
		s.log.WithContext(ctx).Warn("temp cleanup failed", logger.ErrorFields("cleanup", err))
		return
	}
	for _, p := range paths {
		if err := s.fs.Remove(p); err != nil {
			fields := logger.ErrorFields("cleanup", err)
			fields[logger.FieldPath] = p
			s.log.WithContext(ctx).Warn("temp file not removed", fields)
			continue
		}
		s.log.WithContext(ctx).Debug("temp file removed", logger.Fields(logger.FieldPath, p))
	}
}

func (s *Service) startJob(ctx context.Context, tool string) (context.Context, *observability.Job) {
	id := s.newID()
	ctx = logger.ContextWithJobID(ctx, id)
	ctx = logger.ContextWithTool(ctx, tool)
	return observability.StartJob(ctx, s.metrics, tool, id)
}

func (s *Service) endJob(ctx context.Context, j *observability.Job, err error) {
	fields := logger.DurationFields(j.Tool, j.Duration())
	fields["status"] = observability.Status(err)
	if err != nil {
		fields[logger.FieldError] = err.Error()
		if appErr, ok := apperrors.AsAppError(err); ok && len(appErr.Details) > 0 {
			fields["details"] = appErr.Details
		}
	}
	switch {
	case err == nil:
		s.log.WithContext(ctx).Info("job finished", fields)
	case apperrors.IsAppError(err):
		s.log.WithContext(ctx).Warn("job failed", fields)
	default:
		s.log.WithContext(ctx).Error("job failed", fields)
	}
	j.End(ctx, err)
}

// Name implements component.Component.
func (s *Service) Name() string { return "transcriber" }

// Start creates the temp directory.
func (s *Service) Start(ctx context.Context) error {
	if err := s.fs.MkdirAll(s.cfg.TempDir, 0o755); err != nil {
		return fmt.Errorf("create temp dir %s: %w", s.cfg.TempDir, err)
	}
	return nil
}

// Stop implements component.Component.
func (s *Service) Stop(ctx context.Context) error { return nil }

// Health reports whether the temp directory exists.
func (s *Service) Health(ctx context.Context) component.Health {
	if ok, _ := afero.DirExists(s.fs, s.cfg.TempDir); !ok {
		return component.Health{Name: s.Name(), Status: component.StatusUnhealthy, Message: s.cfg.TempDir + " is missing"}
	}
	return component.Health{Name: s.Name(), Status: component.StatusHealthy}
}
