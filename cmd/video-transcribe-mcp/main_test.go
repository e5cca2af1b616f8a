package main

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	return &Config{
		TranscriptsDir: filepath.Join(dir, "transcripts"),
		TempDir:        filepath.Join(dir, "temp"),
	}
}

func TestConfigDefaults(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.Name != serviceName || cfg.Transport != TransportStdio || cfg.DefaultLanguage != "ru" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.TranscriptsDir != "/home/tester/Documents/Transcripts" {
		t.Errorf("expected expanded transcripts dir, got %q", cfg.TranscriptsDir)
	}
	if cfg.TempDir != filepath.Join(os.TempDir(), serviceName) || cfg.Whisper.Model != "large-v3" || cfg.Downloader.Binary != "yt-dlp" {
		t.Errorf("unexpected section defaults %+v", cfg)
	}
	if cfg.Logging.Output != "stderr" {
		t.Errorf("logs must default to stderr, got %q", cfg.Logging.Output)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestConfigDefaults_RelativeDirs(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name                      string
		temp, transcripts         string
		wantTemp, wantTranscripts string
	}{
		{"relative temp", "./temp", "/srv/transcripts", filepath.Join(wd, "temp"), "/srv/transcripts"},
		{"relative transcripts", "/var/tmp/vtm", "out", "/var/tmp/vtm", filepath.Join(wd, "out")},
		{"home temp", "~/vtm-temp", "/srv/transcripts", "/home/tester/vtm-temp", "/srv/transcripts"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{TempDir: tt.temp, TranscriptsDir: tt.transcripts}
			cfg.ApplyDefaults()
			if cfg.TempDir != tt.wantTemp {
				t.Errorf("TempDir = %q, want %q", cfg.TempDir, tt.wantTemp)
			}
			if cfg.TranscriptsDir != tt.wantTranscripts {
				t.Errorf("TranscriptsDir = %q, want %q", cfg.TranscriptsDir, tt.wantTranscripts)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"unknown transport", func(c *Config) { c.Transport = "grpc" }, "transport"},
		{"stdout logs under stdio", func(c *Config) { c.Logging.Output = "stdout" }, "config.logging"},
		{"stdout logs under http", func(c *Config) { c.Transport = TransportHTTP; c.Logging.Output = "stdout" }, ""},
		{"negative wait", func(c *Config) { c.Jobs.MaxWait = -time.Second }, "jobs.max_wait"},
		{"unknown backend", func(c *Config) { c.Whisper.Backend = "openai" }, "whisper.backend"},
		{"bad port", func(c *Config) { c.Server.Port = 99999 }, "server.port"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.ApplyDefaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("expected error containing %q, got %v", tt.errMsg, err)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	content := "transport: http\nwhisper:\n  model: small\njobs:\n  max_wait: 2s\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(path, filepath.Join(dir, "none.env"), "")
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Transport != TransportHTTP || cfg.Whisper.Model != "small" || cfg.Jobs.MaxWait != 2*time.Second {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.Version == "" {
		t.Error("expected version to default to the build version")
	}

	cfg, err = loadConfig(path, filepath.Join(dir, "none.env"), TransportStdio)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Transport != TransportStdio {
		t.Errorf("flag should override the file, got %q", cfg.Transport)
	}
}

func TestNewApplication_RegistersComponents(t *testing.T) {
	a, err := newApplication(context.Background(), testConfig(t))
	if err != nil {
		t.Fatalf("newApplication failed: %v", err)
	}
	var names []string
	for _, c := range a.app.Components.All() {
		names = append(names, c.Name())
	}
	if got := strings.Join(names, ","); got != "store,downloader,engine,transcriber" {
		t.Errorf("unexpected components %s", got)
	}
	for _, name := range []string{"transcribe_url", "transcribe_file", "list_transcripts"} {
		if !a.dispatcher.Has(name) {
			t.Errorf("dispatcher is missing %s", name)
		}
	}
}

func TestNewApplication_InvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Transport = "carrier-pigeon"
	if _, err := newApplication(context.Background(), cfg); err == nil {
		t.Error("expected config validation error")
	}
}

func TestRun_StdioSession(t *testing.T) {
	cfg := testConfig(t)
	if err := os.MkdirAll(cfg.TranscriptsDir, 0o755); err != nil {
		t.Fatal(err)
	}
	saved := filepath.Join(cfg.TranscriptsDir, "2024-05-01_09-30_Talk.txt")
	if err := os.WriteFile(saved, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	in := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test","version":"0"}}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"list_transcripts","arguments":{}}}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"transcribe_file","arguments":{"file_path":"` + filepath.Join(cfg.TempDir, "missing.mp3") + `"}}}`,
	}, "\n") + "\n"

	var out strings.Builder
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := run(ctx, cfg, strings.NewReader(in), &out); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if _, err := os.Stat(cfg.TempDir); err != nil {
		t.Errorf("temp dir should be created on start: %v", err)
	}

	var texts []string
	sc := bufio.NewScanner(strings.NewReader(out.String()))
	for sc.Scan() {
		var resp struct {
			ID     int `json:"id"`
			Result struct {
				ServerInfo struct {
					Name string `json:"name"`
				} `json:"serverInfo"`
				Content []struct {
					Text string `json:"text"`
				} `json:"content"`
			} `json:"result"`
		}
		if err := json.Unmarshal(sc.Bytes(), &resp); err != nil {
			t.Fatalf("bad line %q: %v", sc.Text(), err)
		}
		if resp.ID == 1 && resp.Result.ServerInfo.Name != serviceName {
			t.Errorf("unexpected server name %q", resp.Result.ServerInfo.Name)
		}
		if len(resp.Result.Content) == 1 {
			texts = append(texts, resp.Result.Content[0].Text)
		}
	}
	if len(texts) != 2 {
		t.Fatalf("expected two tool results, got %d:\n%s", len(texts), out.String())
	}

	var list struct {
		TranscriptsDir string `json:"transcripts_dir"`
		Count          int    `json:"count"`
		Files          []struct {
			Filename string `json:"filename"`
		} `json:"files"`
	}
	if err := json.Unmarshal([]byte(texts[0]), &list); err != nil {
		t.Fatal(err)
	}
	if list.TranscriptsDir != cfg.TranscriptsDir || list.Count != 1 || list.Files[0].Filename != "2024-05-01_09-30_Talk.txt" {
		t.Errorf("unexpected list result %s", texts[0])
	}
	if !strings.Contains(texts[1], `"error": "File not found: `) {
		t.Errorf("unexpected transcribe_file result %s", texts[1])
	}
}
