// Copyright 2024 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.


// Package config resolves the wrapper configuration from three layers:
// built-in defaults overridden by environment variables, then an optional
// TOML file. Command line flags are applied last by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	DefaultAppDir   = "/var/lib/gramine-sgx-otk"
	DefaultTemplate = "/usr/share/gramine-sgx-otk/gramine-sgx-otk.manifest.jinja"

	// quoteStoreName is relative to the XDG config directory.
	quoteStoreName = "gramine/otk-quotes"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the wrapper settings.
type Config struct {
	AppDir       string   `toml:"appdir"`        // Directory of the signing enclave
	Template     string   `toml:"template"`      // Manifest template used by init
	QuoteStore   string   `toml:"quote_store"`   // File of saved quotes
	CheckISVSVN  bool     `toml:"check_isvsvn"`  // Refuse SIGSTRUCTs with ISVSVN != 0xffff
	ManifestArgs []string `toml:"manifest_args"` // Extra gramine-manifest arguments for init
}

// Default returns the built-in defaults, overridden by the environment.
func Default() *Config {
	return &Config{
		AppDir:     getEnvOrDefault("GRAMINE_SGX_OTK_APPDIR", DefaultAppDir),
		Template:   getEnvOrDefault("GRAMINE_SGX_OTK_TEMPLATE", DefaultTemplate),
		QuoteStore: filepath.Join(configHome(), quoteStoreName),
	}
}

// configHome follows the XDG base directory convention.
func configHome() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config"
	}
	return filepath.Join(home, ".config")
}

// getEnvOrDefault retrieves an environment variable or returns a default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// LoadFile overlays the settings present in a TOML file. Unknown keys are
// rejected so typos do not silently fall back to defaults.
func (c *Config) LoadFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("%w: %s: unknown keys %s", ErrInvalidConfig, path, strings.Join(keys, ", "))
	}
	return nil
}

// Load returns the defaults with the optional file applied on top.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	if err := c.LoadFile(path); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks that every path is set.
func (c *Config) Validate() error {
	switch {
	case c.AppDir == "":
		return fmt.Errorf("%w: empty appdir", ErrInvalidConfig)
	case c.Template == "":
		return fmt.Errorf("%w: empty template", ErrInvalidConfig)
	case c.QuoteStore == "":
		return fmt.Errorf("%w: empty quote store path", ErrInvalidConfig)
	case c.AppDir == "/":
		return fmt.Errorf("%w: appdir must not be the root directory", ErrInvalidConfig)
	}
	return nil
}
