// Package config loads panegrid settings from a TOML file.
//
// The default location is $XDG_CONFIG_HOME/panegrid/config.toml, falling
// back to ~/.config/panegrid/config.toml. A missing file is not an error:
// [Load] returns [Default]. Keys the file sets but panegrid does not know
// are rejected so typos surface early.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	perrors "github.com/matzehuels/panegrid/pkg/errors"
	"github.com/matzehuels/panegrid/pkg/placement"
	"github.com/matzehuels/panegrid/pkg/store"
)

// Config is the full panegrid configuration.
type Config struct {
	Grid     placement.Grid `toml:"grid"`
	Viewport Viewport       `toml:"viewport"`
	Store    store.Config   `toml:"store"`
	Server   Server         `toml:"server"`
}

// Viewport is the pixel area the grid is drawn into.
type Viewport struct {
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
}

// Server holds HTTP API settings.
type Server struct {
	Addr string `toml:"addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Grid:     placement.DefaultGrid(),
		Viewport: Viewport{Width: 1000, Height: 800},
		Store:    store.DefaultConfig(),
		Server:   Server{Addr: ":8080"},
	}
}

// DefaultPath returns the default config file path.
func DefaultPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "panegrid", "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".config", "panegrid", "config.toml"), nil
}

// Load reads the config at path over the defaults. An empty path means
// [DefaultPath]; a missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return cfg, err
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, perrors.Wrap(perrors.ErrCodeInvalidConfig, err, "read %s", path)
	}

	cfg, err = Parse(data)
	if err != nil {
		return cfg, perrors.Wrap(perrors.ErrCodeInvalidConfig, err, "%s", path)
	}
	return cfg, nil
}

// Parse decodes TOML data over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return cfg, perrors.Wrap(perrors.ErrCodeInvalidConfig, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, perrors.New(perrors.ErrCodeInvalidConfig, "unknown config keys: %s", strings.Join(keys, ", "))
	}
	return cfg, cfg.Validate()
}

// Validate checks the grid, viewport and store settings.
func (c Config) Validate() error {
	if err := c.Grid.Validate(); err != nil {
		return perrors.Wrap(perrors.ErrCodeInvalidConfig, err, "[grid]")
	}
	if _, err := c.Geometry(); err != nil {
		return perrors.Wrap(perrors.ErrCodeInvalidConfig, err, "[viewport]")
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if c.Server.Addr == "" {
		return perrors.New(perrors.ErrCodeInvalidConfig, "[server] addr cannot be empty")
	}
	return nil
}

// Geometry returns the grid mapped onto the viewport.
func (c Config) Geometry() (placement.Geometry, error) {
	return placement.NewGeometry(c.Grid, c.Viewport.Width, c.Viewport.Height)
}

// Encode writes c as TOML.
func (c Config) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
