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


package otk

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/ethereum/go-ethereum/log"
	"github.com/mccoysc/gramine-sgx-otk/internal/sgx"
)

// AppName is the name of the signing enclave inside its directory.
const AppName = "gramine-sgx-otk"

var ErrAppFailed = errors.New("signing application failed")

// Command describes one external program invocation.
type Command struct {
	Name   string
	Args   []string
	Dir    string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func (c *Command) String() string {
	return fmt.Sprintf("%s %v", c.Name, c.Args)
}

// Runner executes external programs.
type Runner interface {
	Run(ctx context.Context, cmd *Command) error
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, c *Command) error {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.Stdin = c.Stdin
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr
	return cmd.Run()
}

// Measurement identifies the signing application as built.
type Measurement struct {
	MREnclave   [32]byte
	Attestation sgx.AttestationType
}

// App drives the signing enclave installed in Dir.
type App struct {
	Dir    string
	Runner Runner
	Stderr io.Writer // receives the enclave's diagnostics
}

func NewApp(dir string) *App {
	return &App{Dir: dir, Runner: ExecRunner{}, Stderr: os.Stderr}
}

func (a *App) path(suffix string) string {
	return filepath.Join(a.Dir, AppName+suffix)
}

func (a *App) ManifestPath() string    { return a.path(".manifest") }
func (a *App) SGXManifestPath() string { return a.path(".manifest.sgx") }
func (a *App) SigstructPath() string   { return a.path(".sig") }
func (a *App) TokenPath() string       { return a.path(".token") }

func (a *App) run(ctx context.Context, cmd *Command) error {
	if cmd.Stderr == nil {
		cmd.Stderr = a.Stderr
	}
	log.Debug("Running command", "cmd", cmd)
	if err := a.Runner.Run(ctx, cmd); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrAppFailed, cmd.Name, err)
	}
	return nil
}

// Init recreates the application directory, renders the manifest from
// template and measures the result. Anything previously in Dir is removed.
func (a *App) Init(ctx context.Context, template string, manifestArgs []string) error {
	if a.Dir == "" || filepath.Clean(a.Dir) == "/" {
		return fmt.Errorf("refusing to initialise application in %q", a.Dir)
	}
	if err := os.RemoveAll(a.Dir); err != nil {
		return fmt.Errorf("failed to remove %s: %w", a.Dir, err)
	}
	if err := os.MkdirAll(a.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", a.Dir, err)
	}

	args := append(append([]string(nil), manifestArgs...), template, a.ManifestPath())
	if err := a.run(ctx, &Command{Name: "gramine-manifest", Args: args}); err != nil {
		return err
	}
	log.Info("Rendered signing application manifest", "template", template, "manifest", a.ManifestPath())
	return a.UpdateMeasurement(ctx)
}

// UpdateMeasurement re-signs the manifest with a throwaway key so that
// gramine-sgx can launch the enclave. The manifest itself is not re-rendered.
func (a *App) UpdateMeasurement(ctx context.Context) error {
	tmp, err := os.CreateTemp("", AppName+"-key-*.pem")
	if err != nil {
		return fmt.Errorf("failed to create temporary key file: %w", err)
	}
	keyPath := tmp.Name()
	tmp.Close()
	defer os.Remove(keyPath)

	if err := a.run(ctx, &Command{Name: "gramine-sgx-gen-private-key", Args: []string{"-f", keyPath}}); err != nil {
		return err
	}
	err = a.run(ctx, &Command{
		Name: "gramine-sgx-sign",
		Args: []string{"--key", keyPath, "--manifest", a.ManifestPath(), "--output", a.SGXManifestPath()},
	})
	if err != nil {
		return err
	}

	// gramine-sgx does not check whether an existing EPID token is still valid
	if err := os.Remove(a.TokenPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove launch token: %w", err)
	}

	m, err := a.Measurement()
	if err != nil {
		log.Warn("Failed to read signing application measurement", "err", err)
		return nil
	}
	log.Info("Updated signing application measurement", "mrenclave", hex.EncodeToString(m.MREnclave[:]), "attestation", m.Attestation)
	if !m.Attestation.Enabled() {
		log.Warn("Remote attestation is disabled in the manifest, signatures will carry no quote")
	}
	return nil
}

// Measurement reads MRENCLAVE from the application's SIGSTRUCT and the
// attestation type from its manifest.
func (a *App) Measurement() (*Measurement, error) {
	sigstruct, err := sgx.ReadSigstructFile(a.SigstructPath())
	if err != nil {
		return nil, err
	}
	manifest, err := sgx.ParseManifestFile(a.SGXManifestPath())
	if err != nil {
		return nil, err
	}
	return &Measurement{
		MREnclave:   sigstruct.MREnclave(),
		Attestation: manifest.SGX.RemoteAttest,
	}, nil
}

// Sign runs the enclave on payload and returns its output.
func (a *App) Sign(ctx context.Context, payload []byte) (*sgx.Bundle, error) {
	if len(payload) != sgx.PayloadSize {
		return nil, fmt.Errorf("%w: payload must be %d bytes, got %d", sgx.ErrInput, sgx.PayloadSize, len(payload))
	}
	if !sgx.IsSGXAvailable() {
		log.Warn("SGX devices not found, the signing application will probably fail to start")
	}

	var stdout bytes.Buffer
	err := a.run(ctx, &Command{
		Name:   "gramine-sgx",
		Args:   []string{AppName},
		Dir:    a.Dir,
		Stdin:  bytes.NewReader(payload),
		Stdout: &stdout,
	})
	if err != nil {
		return nil, err
	}
	bundle, err := sgx.ParseBundle(stdout.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAppFailed, err)
	}
	return bundle, nil
}
