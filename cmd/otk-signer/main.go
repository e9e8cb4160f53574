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


// otk-signer runs inside the Gramine enclave. It reads 256 bytes of SIGSTRUCT
// signing data from stdin, signs them with a freshly generated key and writes
// modulus ‖ signature ‖ quote to stdout. The key never leaves the process.
package main

import (
	"io"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/mccoysc/gramine-sgx-otk/internal/debug"
	"github.com/mccoysc/gramine-sgx-otk/internal/sgx"
)

func main() {
	debug.SetupStderr(log.LevelInfo, true)

	if err := run(os.Stdin, os.Stdout, sgx.NewGramineDevice(sgx.DefaultAttestationDir)); err != nil {
		log.Crit("Signing failed", "err", err)
	}
}

// run performs one signing. Nothing is written to stdout unless every step
// succeeded.
func run(stdin io.Reader, stdout io.Writer, qp sgx.QuoteProvider) error {
	payload, err := sgx.ReadPayload(stdin)
	if err != nil {
		return err
	}
	bundle, err := sgx.SignWithOneTimeKey(payload, qp)
	if err != nil {
		return err
	}
	_, err = bundle.WriteTo(stdout)
	return err
}
