package config

import (
	"net"
	"strconv"
	"strings"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Overlay    OverlayConfig    `yaml:"overlay"`
	Dictionary DictionaryConfig `yaml:"dictionary"`
	MPV        MPVConfig        `yaml:"mpv"`
	Parent     ParentConfig     `yaml:"parent"`
	Selection  SelectionConfig  `yaml:"selection"`
	Reading    ReadingConfig    `yaml:"reading"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig holds the control listener settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"YOMIPV_SERVER_HOST"             env-default:"127.0.0.1"`
	Port            int           `yaml:"port"             env:"YOMIPV_SERVER_PORT"             env-default:"19634"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"YOMIPV_SERVER_READ_TIMEOUT"     env-default:"5s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"YOMIPV_SERVER_WRITE_TIMEOUT"    env-default:"10s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"YOMIPV_SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownGrace   time.Duration `yaml:"shutdown_grace"   env:"YOMIPV_SERVER_SHUTDOWN_GRACE"   env-default:"100ms"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"YOMIPV_SERVER_SHUTDOWN_TIMEOUT" env-default:"2s"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// OverlayConfig holds the popup page server settings.
//
// Booleans default to false: cleanenv applies env-default to any zero
// field, so a default of true could never be switched off from YAML.
type OverlayConfig struct {
	Disabled bool   `yaml:"disabled" env:"YOMIPV_OVERLAY_DISABLED"`
	Host     string `yaml:"host"     env:"YOMIPV_OVERLAY_HOST"     env-default:"127.0.0.1"`
	Port     int    `yaml:"port"     env:"YOMIPV_OVERLAY_PORT"     env-default:"19635"`
}

// Addr returns the listen address.
func (o OverlayConfig) Addr() string {
	return net.JoinHostPort(o.Host, strconv.Itoa(o.Port))
}

// DictionaryConfig holds the Yomitan API settings.
type DictionaryConfig struct {
	BaseURL      string        `yaml:"base_url"      env:"YOMIPV_DICTIONARY_BASE_URL"      env-default:"http://127.0.0.1:19633"`
	PrimaryPath  string        `yaml:"primary_path"  env:"YOMIPV_DICTIONARY_PRIMARY_PATH"  env-default:"/ankiFields"`
	FallbackPath string        `yaml:"fallback_path" env:"YOMIPV_DICTIONARY_FALLBACK_PATH" env-default:"/api/ankiFields"`
	MaxEntries   int           `yaml:"max_entries"   env:"YOMIPV_DICTIONARY_MAX_ENTRIES"   env-default:"10"`
	Timeout      time.Duration `yaml:"timeout"       env:"YOMIPV_DICTIONARY_TIMEOUT"       env-default:"10s"`
}

// Endpoints returns the primary and fallback lookup URLs, in order.
func (d DictionaryConfig) Endpoints() []string {
	base := strings.TrimRight(d.BaseURL, "/")
	endpoints := []string{base + d.PrimaryPath}
	if d.FallbackPath != "" && d.FallbackPath != d.PrimaryPath {
		endpoints = append(endpoints, base+d.FallbackPath)
	}
	return endpoints
}

// MPVConfig holds the outbound pipe settings. An empty Pipe means no
// outbound connection; forwards are then dropped.
type MPVConfig struct {
	Pipe               string `yaml:"pipe"                 env:"YOMIPV_MPV_PIPE"`
	SelectionMessage   string `yaml:"selection_message"    env:"YOMIPV_MPV_SELECTION_MESSAGE"    env-default:"yomipv-sync-selection"`
	DictionaryMessage  string `yaml:"dictionary_message"   env:"YOMIPV_MPV_DICTIONARY_MESSAGE"   env-default:"yomipv-dictionary-selected"`
	ActiveEntryMessage string `yaml:"active_entry_message" env:"YOMIPV_MPV_ACTIVE_ENTRY_MESSAGE" env-default:"yomipv-active-entry"`
}

// ParentConfig holds the parent watchdog settings. PID 0 disables it.
type ParentConfig struct {
	PID          int           `yaml:"pid"           env:"YOMIPV_PARENT_PID"           env-default:"0"`
	PollInterval time.Duration `yaml:"poll_interval" env:"YOMIPV_PARENT_POLL_INTERVAL" env-default:"2s"`
}

// SelectionConfig holds the selection relay settings.
type SelectionConfig struct {
	Debounce time.Duration `yaml:"debounce" env:"YOMIPV_SELECTION_DEBOUNCE" env-default:"150ms"`
}

// ReadingConfig holds the morphological reading fallback settings.
type ReadingConfig struct {
	DisableFallback bool `yaml:"disable_fallback" env:"YOMIPV_READING_DISABLE_FALLBACK"`
}

// LogConfig holds logging settings. An empty File logs to stderr.
type LogConfig struct {
	Level      string `yaml:"level"        env:"YOMIPV_LOG_LEVEL"        env-default:"info"`
	Format     string `yaml:"format"       env:"YOMIPV_LOG_FORMAT"       env-default:"text"`
	File       string `yaml:"file"         env:"YOMIPV_LOG_FILE"`
	MaxSizeMB  int    `yaml:"max_size_mb"  env:"YOMIPV_LOG_MAX_SIZE_MB"  env-default:"5"`
	MaxBackups int    `yaml:"max_backups"  env:"YOMIPV_LOG_MAX_BACKUPS"  env-default:"3"`
	MaxAgeDays int    `yaml:"max_age_days" env:"YOMIPV_LOG_MAX_AGE_DAYS" env-default:"14"`
}

// Overrides are command-line values that take precedence over every
// other source. Zero values leave the loaded configuration untouched.
type Overrides struct {
	ParentPID int
	Pipe      string
	Port      int
}

// Apply merges o into c and validates the result.
func (c *Config) Apply(o Overrides) error {
	if o.ParentPID != 0 {
		c.Parent.PID = o.ParentPID
	}
	if o.Pipe != "" {
		c.MPV.Pipe = o.Pipe
	}
	if o.Port != 0 {
		c.Server.Port = o.Port
	}
	return c.Validate()
}
