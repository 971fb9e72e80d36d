package config

import (
	"fmt"
	"net/url"
	"time"
)

const minPollInterval = 100 * time.Millisecond

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if err := validPort(c.Server.Port); err != nil {
		return fmt.Errorf("server.port: %w", err)
	}
	if c.Server.ShutdownGrace < 0 {
		return fmt.Errorf("server.shutdown_grace must be >= 0 (got %v)", c.Server.ShutdownGrace)
	}

	if !c.Overlay.Disabled {
		if err := validPort(c.Overlay.Port); err != nil {
			return fmt.Errorf("overlay.port: %w", err)
		}
		if c.Overlay.Port == c.Server.Port {
			return fmt.Errorf("overlay.port must differ from server.port (both %d)", c.Server.Port)
		}
	}

	if err := c.Dictionary.validate(); err != nil {
		return fmt.Errorf("dictionary: %w", err)
	}
	if err := c.MPV.validate(); err != nil {
		return fmt.Errorf("mpv: %w", err)
	}

	if c.Parent.PID < 0 {
		return fmt.Errorf("parent.pid must be >= 0 (got %d)", c.Parent.PID)
	}
	if c.Parent.PollInterval < minPollInterval {
		return fmt.Errorf("parent.poll_interval must be >= %v (got %v)", minPollInterval, c.Parent.PollInterval)
	}
	if c.Selection.Debounce < 0 {
		return fmt.Errorf("selection.debounce must be >= 0 (got %v)", c.Selection.Debounce)
	}

	return nil
}

func validPort(p int) error {
	if p < 1 || p > 65535 {
		return fmt.Errorf("must be in 1..65535 (got %d)", p)
	}
	return nil
}

func (d DictionaryConfig) validate() error {
	u, err := url.Parse(d.BaseURL)
	if err != nil {
		return fmt.Errorf("base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base_url must use http or https (got %q)", d.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("base_url must include a host (got %q)", d.BaseURL)
	}
	if d.PrimaryPath == "" {
		return fmt.Errorf("primary_path is required")
	}
	if d.MaxEntries < 1 {
		return fmt.Errorf("max_entries must be >= 1 (got %d)", d.MaxEntries)
	}
	if d.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0 (got %v)", d.Timeout)
	}
	return nil
}

func (m MPVConfig) validate() error {
	for name, v := range map[string]string{
		"selection_message":    m.SelectionMessage,
		"dictionary_message":   m.DictionaryMessage,
		"active_entry_message": m.ActiveEntryMessage,
	} {
		if v == "" {
			return fmt.Errorf("%s is required", name)
		}
	}
	return nil
}
