package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/video-transcribe-mcp/logger"
)

type testWhisper struct {
	Model    string `mapstructure:"model"`
	BeamSize int    `mapstructure:"beam_size"`
}

type testDownloader struct {
	Binary       string        `mapstructure:"binary"`
	ProbeTimeout time.Duration `mapstructure:"probe_timeout"`
}

type testConfig struct {
	ServiceConfig   `mapstructure:",squash"`
	Whisper         testWhisper    `mapstructure:"whisper"`
	Downloader      testDownloader `mapstructure:"downloader"`
	DefaultLanguage string         `mapstructure:"default_language"`
	TempDir         string         `mapstructure:"temp_dir"`
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func loggerStdout() logger.Config {
	return logger.Config{Level: "info", Format: "json", Output: "stdout"}
}

func TestServiceConfigApplyDefaults(t *testing.T) {
	cfg := ServiceConfig{Name: "svc"}
	cfg.ApplyDefaults()
	if cfg.Environment != "production" {
		t.Errorf("expected 'production', got %q", cfg.Environment)
	}
	if cfg.Logging.Output != "stderr" {
		t.Errorf("expected logging to stderr, got %q", cfg.Logging.Output)
	}

	dbg := ServiceConfig{Name: "svc", Debug: true}
	dbg.ApplyDefaults()
	if dbg.Logging.Level != "debug" {
		t.Errorf("expected debug level when Debug is set, got %q", dbg.Logging.Level)
	}
}

func TestServiceConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		cfg    ServiceConfig
		stdio  bool
		errMsg string
	}{
		{"valid", ServiceConfig{Name: "svc", Environment: "production"}, true, ""},
		{"missing name", ServiceConfig{Environment: "production"}, true, "config.name is required"},
		{"invalid environment", ServiceConfig{Name: "svc", Environment: "qa"}, true, "config.environment must be one of"},
		{"stdout logs under stdio", ServiceConfig{Name: "svc", Environment: "production", Logging: loggerStdout()}, true, "config.logging"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.Logging.ApplyDefaults()
			err := tc.cfg.Validate(tc.stdio)
			if tc.errMsg == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.errMsg) {
				t.Errorf("expected error containing %q, got %v", tc.errMsg, err)
			}
		})
	}
}

func TestLoadConfigWithYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	writeFile(t, path, `
name: video-transcribe-mcp
environment: staging
whisper:
  model: small
  beam_size: 3
downloader:
  binary: /opt/yt-dlp
  probe_timeout: 45s
default_language: en
`)

	var cfg testConfig
	if err := LoadConfig("video-transcribe-mcp", &cfg, WithConfigFile(path), WithEnvFile(filepath.Join(dir, "none.env"))); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Name != "video-transcribe-mcp" || cfg.Environment != "staging" {
		t.Errorf("unexpected base config: %+v", cfg.ServiceConfig)
	}
	if cfg.Whisper.Model != "small" || cfg.Whisper.BeamSize != 3 {
		t.Errorf("unexpected whisper config: %+v", cfg.Whisper)
	}
	if cfg.Downloader.ProbeTimeout != 45*time.Second {
		t.Errorf("expected 45s probe timeout, got %v", cfg.Downloader.ProbeTimeout)
	}
	if cfg.DefaultLanguage != "en" {
		t.Errorf("expected default_language 'en', got %q", cfg.DefaultLanguage)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	writeFile(t, path, "whisper:\n  model: small\n")

	t.Setenv("WHISPER_MODEL", "medium")
	t.Setenv("TEMP_DIR", "/var/tmp/vtm")
	t.Setenv("DOWNLOADER_PROBE_TIMEOUT", "10s")

	var cfg testConfig
	if err := LoadConfig("svc", &cfg, WithConfigFile(path), WithEnvFile(filepath.Join(dir, "none.env"))); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Whisper.Model != "medium" {
		t.Errorf("env should override file, got %q", cfg.Whisper.Model)
	}
	if cfg.TempDir != "/var/tmp/vtm" {
		t.Errorf("expected TEMP_DIR override, got %q", cfg.TempDir)
	}
	if cfg.Downloader.ProbeTimeout != 10*time.Second {
		t.Errorf("expected 10s, got %v", cfg.Downloader.ProbeTimeout)
	}
}

func TestLoadConfigDotEnv(t *testing.T) {
	if _, set := os.LookupEnv("DEFAULT_LANGUAGE"); set {
		t.Skip("DEFAULT_LANGUAGE already set in the environment")
	}
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	writeFile(t, envPath, "DEFAULT_LANGUAGE=auto\n")
	t.Cleanup(func() { os.Unsetenv("DEFAULT_LANGUAGE") })

	var cfg testConfig
	if err := LoadConfig("svc", &cfg, WithConfigFile(filepath.Join(dir, "missing.yml")), WithEnvFile(envPath)); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.DefaultLanguage != "auto" {
		t.Errorf("expected .env value 'auto', got %q", cfg.DefaultLanguage)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	var cfg testConfig
	err := LoadConfig("nonexistent-service", &cfg, WithConfigFile("/nonexistent/path.yml"), WithEnvFile("/nonexistent/.env"))
	if err != nil {
		t.Fatalf("expected LoadConfig to succeed with missing file, got %v", err)
	}
}

func TestLoadConfigMalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	writeFile(t, path, "whisper: [unclosed\n")

	var cfg testConfig
	if err := LoadConfig("svc", &cfg, WithConfigFile(path)); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}

type mockFS struct {
	files map[string]bool
	home  string
}

func (m *mockFS) Exists(path string) bool { return m.files[path] }
func (m *mockFS) LoadEnv(string) error { return nil }
func (m *mockFS) UserHome() (string, error) { return m.home, nil }

func TestResolverSearchOrder(t *testing.T) {
	tests := []struct {
		name       string
		files      map[string]bool
		wantConfig string
		wantEnv    string
	}{
		{
			"cmd dir wins",
			map[string]bool{"./cmd/my-svc/config.yml": true, "./config.yml": true, "./.env": true},
			"./cmd/my-svc/config.yml", "./.env",
		},
		{
			"root fallback",
			map[string]bool{"./config.yml": true},
			"./config.yml", "",
		},
		{
			"home config",
			map[string]bool{"/home/u/.config/my-svc/config.yml": true, "./.env.my-svc": true},
			"/home/u/.config/my-svc/config.yml", "./.env.my-svc",
		},
		{"nothing found", map[string]bool{}, "", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := &Resolver{FileSystem: &mockFS{files: tc.files, home: "/home/u"}}
			got := r.ResolveFiles("my-svc", LoaderConfig{})
			if got.ConfigFile != tc.wantConfig {
				t.Errorf("config: got %q, want %q", got.ConfigFile, tc.wantConfig)
			}
			if got.EnvFile != tc.wantEnv {
				t.Errorf("env: got %q, want %q", got.EnvFile, tc.wantEnv)
			}
		})
	}
}

func TestResolverExplicitPaths(t *testing.T) {
	r := &Resolver{FileSystem: &mockFS{files: map[string]bool{"./config.yml": true}}}
	got := r.ResolveFiles("svc", LoaderConfig{ConfigFile: "/etc/vtm.yml", EnvFile: "/etc/vtm.env"})
	if got.ConfigFile != "/etc/vtm.yml" || got.EnvFile != "/etc/vtm.env" {
		t.Errorf("explicit paths should win, got %+v", got)
	}
}

func TestEnvKeyVariants(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"TRANSPORT", []string{"transport"}},
		{"WHISPER_MODEL", []string{"whisper_model", "whisper.model"}},
		{"DOWNLOADER_PROBE_TIMEOUT", []string{
			"downloader_probe_timeout", "downloader.probe_timeout",
			"downloader.probe.timeout", "downloader_probe.timeout",
		}},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got := envKeyVariants(tc.in)
			if !slices.Equal(got, tc.want) {
				t.Errorf("envKeyVariants(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestLoaderOptions(t *testing.T) {
	var lc LoaderConfig
	fs := &mockFS{}
	WithFileSystem(fs)(&lc)
	WithConfigFile("/path/to/config.yml")(&lc)
	WithEnvFile("/path/to/.env")(&lc)
	if lc.FileSystem == nil || lc.ConfigFile != "/path/to/config.yml" || lc.EnvFile != "/path/to/.env" {
		t.Errorf("options not applied: %+v", lc)
	}
}
