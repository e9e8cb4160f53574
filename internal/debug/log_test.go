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


package debug

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestNewLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, log.LevelWarn, false)

	logger.Info("hidden message")
	logger.Warn("Returning sentinel quote", "err", "no device")

	out := buf.String()
	require.NotContains(t, out, "hidden message")
	require.Contains(t, out, "Returning sentinel quote")
	require.Contains(t, out, "err=\"no device\"")
	require.False(t, strings.Contains(out, "\x1b["), "unexpected color escapes")
}

func newContext(t *testing.T, args ...string) *cli.Context {
	t.Helper()
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range Flags {
		require.NoError(t, f.Apply(set))
	}
	require.NoError(t, set.Parse(args))
	return cli.NewContext(cli.NewApp(), set, nil)
}

func TestSetupFromFlags(t *testing.T) {
	defer log.SetDefault(log.Root())

	Setup(newContext(t, "--verbosity", "4", "--log.nocolor"))
	require.True(t, log.Root().Enabled(context.Background(), log.LevelDebug))
	require.False(t, log.Root().Enabled(context.Background(), log.LevelTrace))
}

func TestSetupLogFile(t *testing.T) {
	defer log.SetDefault(log.Root())

	path := filepath.Join(t.TempDir(), "otk.log")
	Setup(newContext(t, "--log.file", path))
	log.Info("Signed SIGSTRUCT", "mrsigner", "abcd")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "Signed SIGSTRUCT")
	require.Contains(t, string(data), "mrsigner=abcd")
}
