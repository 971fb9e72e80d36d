package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeYAML(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	return path
}

// inTempDir runs the test from an empty directory so neither
// ./config.yaml nor ./.env is picked up.
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	return dir
}

const validYAML = `
server:
  host: "127.0.0.1"
  port: 29634
  shutdown_grace: "250ms"

overlay:
  port: 29635

dictionary:
  base_url: "http://localhost:8766/"
  max_entries: 5
  timeout: "3s"

mpv:
  pipe: "/tmp/mpv-socket"
  selection_message: "custom-selection"

parent:
  pid: 4242
  poll_interval: "500ms"

selection:
  debounce: "50ms"

reading:
  disable_fallback: true

log:
  level: "debug"
  format: "json"
  file: "relay.log"
`

// validConfig returns a Config with every default applied.
func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:          "127.0.0.1",
			Port:          19634,
			ShutdownGrace: 100 * time.Millisecond,
		},
		Overlay: OverlayConfig{Host: "127.0.0.1", Port: 19635},
		Dictionary: DictionaryConfig{
			BaseURL:      "http://127.0.0.1:19633",
			PrimaryPath:  "/ankiFields",
			FallbackPath: "/api/ankiFields",
			MaxEntries:   10,
			Timeout:      10 * time.Second,
		},
		MPV: MPVConfig{
			SelectionMessage:   "yomipv-sync-selection",
			DictionaryMessage:  "yomipv-dictionary-selected",
			ActiveEntryMessage: "yomipv-active-entry",
		},
		Parent:    ParentConfig{PollInterval: 2 * time.Second},
		Selection: SelectionConfig{Debounce: 150 * time.Millisecond},
		Log:       LogConfig{Level: "info", Format: "text"},
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	dir := inTempDir(t)
	t.Setenv("CONFIG_PATH", writeYAML(t, dir, validYAML))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 29634 {
		t.Errorf("server.port = %d, want 29634", cfg.Server.Port)
	}
	if cfg.Server.ShutdownGrace != 250*time.Millisecond {
		t.Errorf("server.shutdown_grace = %v, want 250ms", cfg.Server.ShutdownGrace)
	}
	if cfg.Overlay.Port != 29635 {
		t.Errorf("overlay.port = %d, want 29635", cfg.Overlay.Port)
	}
	if cfg.Dictionary.MaxEntries != 5 {
		t.Errorf("dictionary.max_entries = %d, want 5", cfg.Dictionary.MaxEntries)
	}
	if cfg.Dictionary.PrimaryPath != "/ankiFields" {
		t.Errorf("dictionary.primary_path = %q, want default /ankiFields", cfg.Dictionary.PrimaryPath)
	}
	if cfg.MPV.Pipe != "/tmp/mpv-socket" {
		t.Errorf("mpv.pipe = %q, want /tmp/mpv-socket", cfg.MPV.Pipe)
	}
	if cfg.MPV.SelectionMessage != "custom-selection" {
		t.Errorf("mpv.selection_message = %q, want custom-selection", cfg.MPV.SelectionMessage)
	}
	if cfg.MPV.DictionaryMessage != "yomipv-dictionary-selected" {
		t.Errorf("mpv.dictionary_message = %q, want default", cfg.MPV.DictionaryMessage)
	}
	if cfg.Parent.PID != 4242 {
		t.Errorf("parent.pid = %d, want 4242", cfg.Parent.PID)
	}
	if cfg.Selection.Debounce != 50*time.Millisecond {
		t.Errorf("selection.debounce = %v, want 50ms", cfg.Selection.Debounce)
	}
	if !cfg.Reading.DisableFallback {
		t.Error("reading.disable_fallback = false, want true")
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" || cfg.Log.File != "relay.log" {
		t.Errorf("log = %+v, want debug/json/relay.log", cfg.Log)
	}
	if cfg.Log.MaxSizeMB != 5 {
		t.Errorf("log.max_size_mb = %d, want default 5", cfg.Log.MaxSizeMB)
	}
}

func TestLoad_ENVOverridesYAML(t *testing.T) {
	dir := inTempDir(t)
	t.Setenv("CONFIG_PATH", writeYAML(t, dir, validYAML))
	t.Setenv("YOMIPV_SERVER_PORT", "3000")
	t.Setenv("YOMIPV_LOG_LEVEL", "warn")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 3000 {
		t.Errorf("server.port = %d, want 3000 (ENV override)", cfg.Server.Port)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("log.level = %q, want %q (ENV override)", cfg.Log.Level, "warn")
	}
}

func TestLoad_NoFile_Defaults(t *testing.T) {
	inTempDir(t)
	t.Setenv("CONFIG_PATH", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := validConfig()
	if cfg.Server.Port != want.Server.Port {
		t.Errorf("server.port = %d, want %d (default)", cfg.Server.Port, want.Server.Port)
	}
	if cfg.Server.ShutdownGrace != want.Server.ShutdownGrace {
		t.Errorf("server.shutdown_grace = %v, want %v", cfg.Server.ShutdownGrace, want.Server.ShutdownGrace)
	}
	if cfg.Overlay != want.Overlay {
		t.Errorf("overlay = %+v, want %+v", cfg.Overlay, want.Overlay)
	}
	if cfg.Dictionary != want.Dictionary {
		t.Errorf("dictionary = %+v, want %+v", cfg.Dictionary, want.Dictionary)
	}
	if cfg.MPV != want.MPV {
		t.Errorf("mpv = %+v, want %+v", cfg.MPV, want.MPV)
	}
	if cfg.Parent != want.Parent {
		t.Errorf("parent = %+v, want %+v", cfg.Parent, want.Parent)
	}
	if cfg.Selection != want.Selection {
		t.Errorf("selection = %+v, want %+v", cfg.Selection, want.Selection)
	}
	if cfg.Reading.DisableFallback {
		t.Error("reading.disable_fallback = true, want false")
	}
	if cfg.Log.Format != "text" || cfg.Log.File != "" || cfg.Log.MaxBackups != 3 || cfg.Log.MaxAgeDays != 14 {
		t.Errorf("log = %+v, want defaults", cfg.Log)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := inTempDir(t)
	t.Setenv("CONFIG_PATH", "")
	t.Cleanup(func() { _ = os.Unsetenv("YOMIPV_SELECTION_DEBOUNCE") })

	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("YOMIPV_SELECTION_DEBOUNCE=75ms\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Selection.Debounce != 75*time.Millisecond {
		t.Errorf("selection.debounce = %v, want 75ms from .env", cfg.Selection.Debounce)
	}
}

func TestLoad_ExplicitPathNotFound(t *testing.T) {
	inTempDir(t)
	t.Setenv("CONFIG_PATH", "/nonexistent/config.yaml")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing explicit config path")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := inTempDir(t)
	t.Setenv("CONFIG_PATH", writeYAML(t, dir, `{{{invalid yaml`))

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	dir := inTempDir(t)
	t.Setenv("CONFIG_PATH", writeYAML(t, dir, "dictionary:\n  max_entries: -1\n"))

	_, err := Load()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "config: validate: dictionary: max_entries") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "port zero", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: "server.port"},
		{name: "port too large", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: "server.port"},
		{name: "negative grace", mutate: func(c *Config) { c.Server.ShutdownGrace = -time.Millisecond }, wantErr: "shutdown_grace"},
		{name: "overlay port", mutate: func(c *Config) { c.Overlay.Port = -1 }, wantErr: "overlay.port"},
		{name: "same ports", mutate: func(c *Config) { c.Overlay.Port = c.Server.Port }, wantErr: "must differ"},
		{name: "overlay disabled ignores port", mutate: func(c *Config) {
			c.Overlay.Disabled = true
			c.Overlay.Port = c.Server.Port
		}},
		{name: "base url scheme", mutate: func(c *Config) { c.Dictionary.BaseURL = "ftp://127.0.0.1" }, wantErr: "http or https"},
		{name: "base url host", mutate: func(c *Config) { c.Dictionary.BaseURL = "http://" }, wantErr: "host"},
		{name: "primary path", mutate: func(c *Config) { c.Dictionary.PrimaryPath = "" }, wantErr: "primary_path"},
		{name: "max entries", mutate: func(c *Config) { c.Dictionary.MaxEntries = 0 }, wantErr: "max_entries"},
		{name: "timeout", mutate: func(c *Config) { c.Dictionary.Timeout = 0 }, wantErr: "timeout"},
		{name: "message name", mutate: func(c *Config) { c.MPV.ActiveEntryMessage = "" }, wantErr: "active_entry_message"},
		{name: "negative pid", mutate: func(c *Config) { c.Parent.PID = -5 }, wantErr: "parent.pid"},
		{name: "poll interval", mutate: func(c *Config) { c.Parent.PollInterval = 10 * time.Millisecond }, wantErr: "poll_interval"},
		{name: "debounce", mutate: func(c *Config) { c.Selection.Debounce = -time.Second }, wantErr: "debounce"},
		{name: "zero debounce", mutate: func(c *Config) { c.Selection.Debounce = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestApply(t *testing.T) {
	cfg := validConfig()

	if err := cfg.Apply(Overrides{ParentPID: 99, Pipe: `\\.\pipe\mpvsocket`, Port: 20000}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Parent.PID != 99 || cfg.MPV.Pipe != `\\.\pipe\mpvsocket` || cfg.Server.Port != 20000 {
		t.Errorf("overrides not applied: %+v %+v %+v", cfg.Parent, cfg.MPV, cfg.Server)
	}

	if err := cfg.Apply(Overrides{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Parent.PID != 99 {
		t.Errorf("zero override changed parent.pid to %d", cfg.Parent.PID)
	}

	if err := cfg.Apply(Overrides{Port: 19635}); err == nil {
		t.Error("expected error when the port collides with the overlay port")
	}
}

func TestDictionaryConfig_Endpoints(t *testing.T) {
	tests := []struct {
		name string
		cfg  DictionaryConfig
		want []string
	}{
		{
			name: "both",
			cfg:  DictionaryConfig{BaseURL: "http://127.0.0.1:19633/", PrimaryPath: "/ankiFields", FallbackPath: "/api/ankiFields"},
			want: []string{"http://127.0.0.1:19633/ankiFields", "http://127.0.0.1:19633/api/ankiFields"},
		},
		{
			name: "no fallback",
			cfg:  DictionaryConfig{BaseURL: "http://h", PrimaryPath: "/a"},
			want: []string{"http://h/a"},
		},
		{
			name: "same path",
			cfg:  DictionaryConfig{BaseURL: "http://h", PrimaryPath: "/a", FallbackPath: "/a"},
			want: []string{"http://h/a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.cfg.Endpoints()
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("Endpoints() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestServerConfig_Addr(t *testing.T) {
	if got := (ServerConfig{Host: "127.0.0.1", Port: 19634}).Addr(); got != "127.0.0.1:19634" {
		t.Errorf("Addr() = %q", got)
	}
	if got := (OverlayConfig{Host: "::1", Port: 1}).Addr(); got != "[::1]:1" {
		t.Errorf("Addr() = %q", got)
	}
}
