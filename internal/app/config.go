package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Config controls runtime behavior for the TUI app. Fields map to
// STEPDOJO_* environment variables; flags override both.
type Config struct {
	CatalogDir  string `env:"STEPDOJO_CATALOG"`
	DataDir     string `env:"STEPDOJO_DATA_DIR"`
	LogPath     string `env:"STEPDOJO_LOG"`
	Domain      string `env:"STEPDOJO_DOMAIN"`
	Seed        int64  `env:"STEPDOJO_SEED"`
	ASCIIOnly   bool   `env:"STEPDOJO_ASCII"`
	DebugLayout bool   `env:"STEPDOJO_DEBUG"`
	UI          UIConfig
}

type UIConfig struct {
	Theme       string `env:"STEPDOJO_THEME"`
	MotionLevel string `env:"STEPDOJO_MOTION"`
}

func DefaultConfig() Config {
	return Config{
		CatalogDir: "catalog",
		UI: UIConfig{
			Theme:       "boardroom",
			MotionLevel: "full",
		},
	}
}

func (c *Config) Validate() error {
	if c.CatalogDir == "" {
		c.CatalogDir = "catalog"
	}
	switch c.UI.Theme {
	case "", "boardroom", "paper", "terminal_green":
	default:
		return fmt.Errorf("invalid ui theme %q", c.UI.Theme)
	}
	if c.UI.Theme == "" {
		c.UI.Theme = "boardroom"
	}
	switch c.UI.MotionLevel {
	case "", "off", "reduced", "full":
	default:
		return fmt.Errorf("invalid ui motion level %q", c.UI.MotionLevel)
	}
	if c.UI.MotionLevel == "" {
		c.UI.MotionLevel = "full"
	}

	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return errors.New("cannot resolve user home directory")
		}
		c.DataDir = filepath.Join(home, ".local", "share", "stepdojo")
	}

	return nil
}
