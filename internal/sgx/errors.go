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


package sgx

import "errors"

// Signer errors. Everything except ErrAttestationWrite aborts the signing run.
var (
	ErrInput            = errors.New("failed to read signing data")
	ErrKeyGen           = errors.New("failed to generate RSA private key")
	ErrSign             = errors.New("failed to sign data")
	ErrEncoding         = errors.New("modulus does not fit into 384 bytes")
	ErrAttestationWrite = errors.New("failed to write user_report_data")
	ErrAttestationRead  = errors.New("failed to read quote")
	ErrOutput           = errors.New("failed to write signing bundle")
)

// Structure errors.
var (
	ErrInvalidSigstruct = errors.New("invalid SIGSTRUCT")
	ErrInvalidQuote     = errors.New("invalid quote")
	ErrInvalidBundle    = errors.New("invalid signing bundle")
	ErrInvalidManifest  = errors.New("invalid manifest")
)
