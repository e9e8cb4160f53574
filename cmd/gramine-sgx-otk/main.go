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


// gramine-sgx-otk signs SGX enclaves with one-time keys generated inside a
// Gramine signing enclave, and keeps the quotes proving it.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/mccoysc/gramine-sgx-otk/internal/config"
	"github.com/mccoysc/gramine-sgx-otk/internal/debug"
	"github.com/mccoysc/gramine-sgx-otk/internal/otk"
	"github.com/mccoysc/gramine-sgx-otk/internal/sgx"
	"github.com/urfave/cli/v2"
)

var (
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
	quoteStoreFlag = &cli.StringFlag{
		Name:  "quote-store",
		Usage: "Path to the quote store (default $XDG_CONFIG_HOME/gramine/otk-quotes)",
	}

	appDirFlag = &cli.StringFlag{
		Name:  "appdir",
		Usage: "Path to signing application, where gramine manifest is stored",
	}
	templateFlag = &cli.StringFlag{
		Name:  "template",
		Usage: "Path to manifest template",
	}
	checkISVSVNFlag = &cli.BoolFlag{
		Name:  "check-isvsvn",
		Usage: "Check if ISVSVN is at maximum value (0xFFFF)",
	}
	showQuoteFlag = &cli.BoolFlag{
		Name:  "show-quote",
		Usage: "Show the modulus and the quote on stderr",
	}
	outputFlag = &cli.StringFlag{
		Name:  "output",
		Usage: "Where to write the signed SIGSTRUCT",
	}
	inplaceFlag = &cli.BoolFlag{
		Name:  "inplace",
		Usage: "Overwrite the SIGSTRUCT in place",
	}

	sigstructFlag = &cli.StringFlag{
		Name:  "sigstruct",
		Usage: "Read SIGSTRUCT from file, extract modulus and calculate MRSIGNER",
	}
	modulusBEFlag = &cli.StringFlag{
		Name:  "modulus-be",
		Usage: "Calculate MRSIGNER based on given modulus (big endian, hex)",
	}
	modulusLEFlag = &cli.StringFlag{
		Name:  "modulus-le",
		Usage: "Calculate MRSIGNER based on given modulus (little endian like in the SIGSTRUCT, hex)",
	}
	mrsignerFlag = &cli.StringFlag{
		Name:  "mrsigner",
		Usage: "Query for given MRSIGNER (hex)",
	}
)

func main() {
	app := newApp(otk.ExecRunner{}, os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}
		os.Exit(1)
	}
}

func newApp(runner otk.Runner, stdout, stderr io.Writer) *cli.App {
	app := &cli.App{
		Name:      "gramine-sgx-otk",
		Usage:     "Sign SGX enclaves with one-time keys",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags:     append([]cli.Flag{configFlag, quoteStoreFlag}, debug.Flags...),
		Before: func(ctx *cli.Context) error {
			debug.Setup(ctx)
			return nil
		},
		// main reports errors and picks the exit code
		ExitErrHandler: func(*cli.Context, error) {},
		Commands: []*cli.Command{
			{
				Name:      "sign",
				Usage:     "Sign an existing SIGSTRUCT",
				ArgsUsage: "PATH",
				Description: "The SIGSTRUCT should be created elsewhere, possibly by gramine-sgx-sign.\n" +
					"The quote for the one-time key is saved in the quote store.",
				Flags: []cli.Flag{appDirFlag, checkISVSVNFlag, showQuoteFlag, outputFlag, inplaceFlag},
				Action: func(ctx *cli.Context) error {
					return signAction(ctx, runner)
				},
			},
			{
				Name:      "get-quote",
				Usage:     "Get quote for a signing key",
				ArgsUsage: "[PATH]",
				Description: "The key is selected with exactly one of --sigstruct, --modulus-be,\n" +
					"--modulus-le and --mrsigner. The quote is written to PATH or stdout.",
				Flags:  []cli.Flag{sigstructFlag, modulusBEFlag, modulusLEFlag, mrsignerFlag},
				Action: getQuoteAction,
			},
			{
				Name:      "init",
				Usage:     "Initialise the signing application",
				ArgsUsage: "[ARGS...]",
				Description: "ARGS are passed directly to gramine-manifest, and this is where you\n" +
					"configure your application (debug mode, EPID credentials, ...).",
				Flags: []cli.Flag{appDirFlag, templateFlag},
				Action: func(ctx *cli.Context) error {
					return initAction(ctx, runner)
				},
			},
			{
				Name:  "update-measurement",
				Usage: "Update measurement of the signing application",
				Description: "This is needed in case some dependencies of the application\n" +
					"(like openssl) were changed.",
				Flags: []cli.Flag{appDirFlag},
				Action: func(ctx *cli.Context) error {
					cfg, err := loadConfig(ctx)
					if err != nil {
						return err
					}
					return newOTKApp(ctx, cfg, runner).UpdateMeasurement(ctx.Context)
				},
			},
		},
	}
	return app
}

// loadConfig layers the command line over the configuration file.
func loadConfig(ctx *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(ctx.String(configFlag.Name))
	if err != nil {
		return nil, err
	}
	if ctx.IsSet(appDirFlag.Name) {
		cfg.AppDir = ctx.String(appDirFlag.Name)
	}
	if ctx.IsSet(templateFlag.Name) {
		cfg.Template = ctx.String(templateFlag.Name)
	}
	if ctx.IsSet(quoteStoreFlag.Name) {
		cfg.QuoteStore = ctx.String(quoteStoreFlag.Name)
	}
	if ctx.IsSet(checkISVSVNFlag.Name) {
		cfg.CheckISVSVN = ctx.Bool(checkISVSVNFlag.Name)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newOTKApp(ctx *cli.Context, cfg *config.Config, runner otk.Runner) *otk.App {
	return &otk.App{Dir: cfg.AppDir, Runner: runner, Stderr: ctx.App.ErrWriter}
}

func signAction(ctx *cli.Context, runner otk.Runner) error {
	if ctx.NArg() != 1 {
		return cli.Exit("expected exactly one SIGSTRUCT path", 2)
	}
	path := ctx.Args().First()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	sigstruct, err := sgx.ReadSigstructFile(path)
	if err != nil {
		return err
	}

	signer := &otk.Signer{
		App:         newOTKApp(ctx, cfg, runner),
		Store:       otk.NewQuoteStore(cfg.QuoteStore),
		CheckISVSVN: cfg.CheckISVSVN,
	}
	if ctx.Bool(showQuoteFlag.Name) {
		signer.QuoteCallback = otk.ShowQuote(ctx.App.ErrWriter)
	}
	signed, err := signer.Sign(ctx.Context, sigstruct)
	if err != nil {
		return err
	}

	output, inplace := ctx.String(outputFlag.Name), ctx.Bool(inplaceFlag.Name)
	if output == "" && !inplace {
		log.Warn("Neither --output nor --inplace given, discarding signed SIGSTRUCT")
	}
	if output != "" {
		if err := os.WriteFile(output, signed.Bytes(), 0o644); err != nil {
			return err
		}
	}
	if inplace {
		if err := os.WriteFile(path, signed.Bytes(), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func getQuoteAction(ctx *cli.Context) error {
	selectors := 0
	for _, f := range []*cli.StringFlag{sigstructFlag, modulusBEFlag, modulusLEFlag, mrsignerFlag} {
		if ctx.IsSet(f.Name) {
			selectors++
		}
	}
	if selectors != 1 {
		return cli.Exit("specify exactly one of: --sigstruct --modulus-be --modulus-le --mrsigner", 2)
	}
	if ctx.NArg() > 1 {
		return cli.Exit("expected at most one output path", 2)
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	store := otk.NewQuoteStore(cfg.QuoteStore)

	var (
		quote     []byte
		lookupErr error
	)
	switch {
	case ctx.IsSet(sigstructFlag.Name):
		sigstruct, err := sgx.ReadSigstructFile(ctx.String(sigstructFlag.Name))
		if err != nil {
			return err
		}
		quote, lookupErr = store.LookupSigstruct(sigstruct)
	case ctx.IsSet(modulusBEFlag.Name):
		modulus, err := decodeHexFlag(ctx, modulusBEFlag, sgx.RSAKeySize)
		if err != nil {
			return err
		}
		quote, lookupErr = store.LookupModulus(modulus)
	case ctx.IsSet(modulusLEFlag.Name):
		modulus, err := decodeHexFlag(ctx, modulusLEFlag, sgx.RSAKeySize)
		if err != nil {
			return err
		}
		quote, lookupErr = store.LookupModulusLE(modulus)
	default:
		raw, err := decodeHexFlag(ctx, mrsignerFlag, sgx.MRSignerSize)
		if err != nil {
			return err
		}
		quote, lookupErr = store.LookupMRSigner([sgx.MRSignerSize]byte(raw))
	}
	if errors.Is(lookupErr, otk.ErrQuoteNotFound) {
		return cli.Exit(lookupErr.Error(), 1)
	}
	if lookupErr != nil {
		return lookupErr
	}

	if path := ctx.Args().First(); path != "" && path != "-" {
		return os.WriteFile(path, quote, 0o644)
	}
	_, err = ctx.App.Writer.Write(quote)
	return err
}

// decodeHexFlag decodes a hex flag value of the given size, with or without
// the 0x prefix.
func decodeHexFlag(ctx *cli.Context, flag *cli.StringFlag, size int) ([]byte, error) {
	value := ctx.String(flag.Name)
	if !strings.HasPrefix(value, "0x") && !strings.HasPrefix(value, "0X") {
		value = "0x" + value
	}
	data, err := hexutil.Decode(value)
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("invalid --%s: %v", flag.Name, err), 2)
	}
	if len(data) != size {
		return nil, cli.Exit(fmt.Sprintf("invalid --%s: expected %d bytes, got %d", flag.Name, size, len(data)), 2)
	}
	return data, nil
}

func initAction(ctx *cli.Context, runner otk.Runner) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if _, err := os.Stat(cfg.Template); err != nil {
		return fmt.Errorf("manifest template: %w", err)
	}
	args := append(append([]string(nil), cfg.ManifestArgs...), ctx.Args().Slice()...)
	return newOTKApp(ctx, cfg, runner).Init(ctx.Context, cfg.Template, args)
}
