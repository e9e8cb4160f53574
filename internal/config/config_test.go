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


package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	t.Setenv("GRAMINE_SGX_OTK_APPDIR", "")
	t.Setenv("GRAMINE_SGX_OTK_TEMPLATE", "")
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")

	c := Default()
	require.Equal(t, DefaultAppDir, c.AppDir)
	require.Equal(t, DefaultTemplate, c.Template)
	require.Equal(t, "/tmp/xdg/gramine/otk-quotes", c.QuoteStore)
	require.False(t, c.CheckISVSVN)
	require.NoError(t, c.Validate())
}

func TestDefaultFromEnvironment(t *testing.T) {
	t.Setenv("GRAMINE_SGX_OTK_APPDIR", "/opt/otk")
	t.Setenv("GRAMINE_SGX_OTK_TEMPLATE", "/opt/otk.manifest.jinja")
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", "/home/signer")

	c := Default()
	require.Equal(t, "/opt/otk", c.AppDir)
	require.Equal(t, "/opt/otk.manifest.jinja", c.Template)
	require.Equal(t, "/home/signer/.config/gramine/otk-quotes", c.QuoteStore)
}

func TestLoadFile(t *testing.T) {
	t.Setenv("GRAMINE_SGX_OTK_APPDIR", "/from/env")
	t.Setenv("GRAMINE_SGX_OTK_TEMPLATE", "")

	path := filepath.Join(t.TempDir(), "otk.toml")
	content := `
appdir = "/from/file"
check_isvsvn = true
manifest_args = ["-Dlog_level=error"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/from/file", c.AppDir)
	require.Equal(t, DefaultTemplate, c.Template)
	require.True(t, c.CheckISVSVN)
	require.Equal(t, []string{"-Dlog_level=error"}, c.ManifestArgs)
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()

	unknown := filepath.Join(dir, "unknown.toml")
	require.NoError(t, os.WriteFile(unknown, []byte("app_dir = \"/x\"\n"), 0o644))
	_, err := Load(unknown)
	require.ErrorIs(t, err, ErrInvalidConfig)
	require.ErrorContains(t, err, "app_dir")

	broken := filepath.Join(dir, "broken.toml")
	require.NoError(t, os.WriteFile(broken, []byte("appdir = \n"), 0o644))
	_, err = Load(broken)
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = Load(filepath.Join(dir, "missing.toml"))
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"empty appdir", func(c *Config) { c.AppDir = "" }},
		{"root appdir", func(c *Config) { c.AppDir = "/" }},
		{"empty template", func(c *Config) { c.Template = "" }},
		{"empty store", func(c *Config) { c.QuoteStore = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{AppDir: "/a", Template: "/t", QuoteStore: "/q"}
			tt.modify(c)
			require.ErrorIs(t, c.Validate(), ErrInvalidConfig)
		})
	}
}
