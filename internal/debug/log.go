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


// Package debug wires the process-wide logger.
package debug

import (
	"io"
	"log/slog"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	VerbosityFlag = &cli.IntFlag{
		Name:    "verbosity",
		Usage:   "Logging verbosity: 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=detail",
		Value:   3,
		EnvVars: []string{"GRAMINE_SGX_OTK_VERBOSITY"},
	}
	LogNoColorFlag = &cli.BoolFlag{
		Name:  "log.nocolor",
		Usage: "Disable terminal colors in log output",
	}
	LogFileFlag = &cli.StringFlag{
		Name:  "log.file",
		Usage: "Write logs to a file instead of stderr, rotating it at 100 MB",
	}
)

// Flags holds all command-line flags required for logging.
var Flags = []cli.Flag{
	VerbosityFlag,
	LogNoColorFlag,
	LogFileFlag,
}

// Setup initializes logging based on the CLI flags.
func Setup(ctx *cli.Context) {
	lvl := log.FromLegacyLevel(ctx.Int(VerbosityFlag.Name))
	if file := ctx.String(LogFileFlag.Name); file != "" {
		log.SetDefault(NewLogger(newRotatingFile(file), lvl, false))
		return
	}
	SetupStderr(lvl, !ctx.Bool(LogNoColorFlag.Name))
}

func newRotatingFile(path string) io.Writer {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    100,
		MaxBackups: 10,
	}
}

// SetupStderr installs a terminal logger on stderr. Colors are used only if
// allowed and stderr is a terminal.
func SetupStderr(lvl slog.Level, allowColor bool) {
	fd := os.Stderr.Fd()
	useColor := allowColor && (isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)) && os.Getenv("TERM") != "dumb"

	output := io.Writer(os.Stderr)
	if useColor {
		output = colorable.NewColorableStderr()
	}
	log.SetDefault(NewLogger(output, lvl, useColor))
}

// NewLogger returns a terminal-format logger writing to w.
func NewLogger(w io.Writer, lvl slog.Level, useColor bool) log.Logger {
	return log.NewLogger(log.NewTerminalHandlerWithLevel(w, lvl, useColor))
}
