// Command video-transcribe-mcp serves the transcription tools over MCP stdio
// or, with transport: http, over a small REST API.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"

	"github.com/kbukum/video-transcribe-mcp/bootstrap"
	"github.com/kbukum/video-transcribe-mcp/component"
	"github.com/kbukum/video-transcribe-mcp/config"
	"github.com/kbukum/video-transcribe-mcp/downloader"
	"github.com/kbukum/video-transcribe-mcp/logger"
	"github.com/kbukum/video-transcribe-mcp/mcp"
	"github.com/kbukum/video-transcribe-mcp/observability"
	"github.com/kbukum/video-transcribe-mcp/resilience"
	"github.com/kbukum/video-transcribe-mcp/server"
	"github.com/kbukum/video-transcribe-mcp/server/endpoint"
	"github.com/kbukum/video-transcribe-mcp/tools"
	"github.com/kbukum/video-transcribe-mcp/transcriber"
	"github.com/kbukum/video-transcribe-mcp/transcript"
	"github.com/kbukum/video-transcribe-mcp/transcription"
	"github.com/kbukum/video-transcribe-mcp/transcription/fasterwhisper"
	"github.com/kbukum/video-transcribe-mcp/transcription/whisper"
	"github.com/kbukum/video-transcribe-mcp/version"
)

func main() {
	var (
		configFile  = flag.String("config", "", "path to config.yml (default: search ./cmd/"+serviceName+", ., ~/.config/"+serviceName+")")
		envFile     = flag.String("env-file", "", "path to a .env file")
		transport   = flag.String("transport", "", "stdio or http; overrides the config file")
		showVersion = flag.Bool("version", false, "print version information and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Get().String())
		return
	}

	cfg, err := loadConfig(*configFile, *envFile, *transport)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
	if err := run(context.Background(), cfg, os.Stdin, os.Stdout); err != nil {
		logger.Error("exited with error", logger.Fields(logger.FieldError, err.Error()))
		os.Exit(1)
	}
}

func loadConfig(configFile, envFile, transport string) (*Config, error) {
	var opts []config.LoaderOption
	if configFile != "" {
		opts = append(opts, config.WithConfigFile(configFile))
	}
	if envFile != "" {
		opts = append(opts, config.WithEnvFile(envFile))
	}

	cfg := &Config{}
	if err := config.LoadConfig(serviceName, cfg, opts...); err != nil {
		return nil, err
	}
	if transport != "" {
		cfg.Transport = transport
	}
	if cfg.Version == "" {
		cfg.Version = version.Short()
	}
	return cfg, nil
}

// application is the wired process before a transport is chosen.
type application struct {
	app        *bootstrap.App[*Config]
	dispatcher *tools.Dispatcher
}

var componentLoggers = []string{
	"store", "downloader", "engine", "whisper", "faster-whisper", "transcriber", "tools", "mcp",
}

func newApplication(ctx context.Context, cfg *Config, opts ...bootstrap.Option) (*application, error) {
	app, err := bootstrap.NewApp(cfg, opts...)
	if err != nil {
		return nil, err
	}

	metrics, shutdownTelemetry, err := observability.Setup(ctx, cfg.Telemetry, observability.Resource{
		ServiceName:    cfg.Name,
		ServiceVersion: cfg.Version,
		Environment:    cfg.Environment,
	})
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	app.OnStop(shutdownTelemetry)

	logger.RegisterDefaults(app.Logger, componentLoggers...)

	backends := transcription.NewRegistry()
	backends.RegisterFactory(fasterwhisper.ProviderName, fasterwhisper.Factory())
	backends.RegisterFactory(whisper.ProviderName, whisper.Factory())

	engine := transcription.NewEngine(cfg.Whisper, backends, metrics)
	dl := downloader.New(cfg.Downloader)
	store := transcript.NewStore(afero.NewOsFs(), cfg.TranscriptsDir)
	svc := transcriber.New(transcriber.Config{
		TempDir:         cfg.TempDir,
		DefaultLanguage: cfg.DefaultLanguage,
	}, dl, engine, store, transcriber.WithMetrics(metrics))

	for _, c := range []component.Component{store, dl, engine, svc} {
		if err := app.RegisterComponent(c); err != nil {
			return nil, err
		}
	}

	return &application{
		app:        app,
		dispatcher: tools.NewDispatcher(svc, store, tools.WithMetrics(metrics)),
	}, nil
}

func run(ctx context.Context, cfg *Config, in io.Reader, out io.Writer) error {
	a, err := newApplication(ctx, cfg)
	if err != nil {
		return err
	}
	if cfg.Transport == TransportHTTP {
		return a.serveHTTP(ctx)
	}
	return a.serveStdio(ctx, in, out)
}

// serveStdio runs one MCP session; the process exits when the client
// closes stdin.
func (a *application) serveStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	session := mcp.NewServer(serviceName, a.app.Version, a.dispatcher)
	return a.app.RunTask(ctx, func(ctx context.Context) error {
		return session.Serve(ctx, in, out)
	})
}

func (a *application) serveHTTP(ctx context.Context) error {
	cfg := a.app.Cfg
	log := a.app.Logger

	var jobs *resilience.Bulkhead
	jobs = resilience.NewBulkhead(resilience.BulkheadConfig{
		Name:          "jobs",
		MaxConcurrent: 1,
		MaxWait:       cfg.Jobs.MaxWait,
		OnReject: func(name string, err error) {
			log.Warn("job rejected, another job is running", logger.Fields(
				"bulkhead", name,
				"in_use", jobs.InUse(),
				logger.FieldError, err.Error(),
			))
		},
	})

	srv := server.New(cfg.Server, log)
	srv.ApplyMiddleware()
	srv.RegisterRoutes(endpoint.Routes{
		Service:    cfg.Name,
		Dispatcher: a.dispatcher,
		Jobs:       jobs,
		Components: a.app.Components,
	})
	if err := a.app.RegisterComponent(server.NewComponent(srv)); err != nil {
		return err
	}
	return a.app.Run(ctx)
}
