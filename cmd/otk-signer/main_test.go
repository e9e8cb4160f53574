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


package main

import (
	"bytes"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/mccoysc/gramine-sgx-otk/internal/sgx"
	"github.com/stretchr/testify/require"
)

func verifyOutput(t *testing.T, payload, out []byte) *sgx.Bundle {
	t.Helper()
	bundle, err := sgx.ParseBundle(out)
	require.NoError(t, err)

	n := new(big.Int).SetBytes(bundle.Modulus[:])
	require.Equal(t, sgx.RSAKeyBits, n.BitLen())

	digest := sha256.Sum256(payload)
	pub := &rsa.PublicKey{N: n, E: sgx.RSAExponent}
	require.NoError(t, rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest[:], bundle.Signature[:]))
	return bundle
}

func TestRunDegraded(t *testing.T) {
	qp := sgx.NewMockQuoteProvider()
	qp.PutErr = errors.New("no such file or directory")

	payload := make([]byte, sgx.PayloadSize)
	var stdout bytes.Buffer
	require.NoError(t, run(bytes.NewReader(payload), &stdout, qp))

	require.Equal(t, 769, stdout.Len())
	require.Equal(t, byte(0x00), stdout.Bytes()[768])
	verifyOutput(t, payload, stdout.Bytes())
}

func TestRunWithQuote(t *testing.T) {
	quote := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10}
	qp := sgx.NewMockQuoteProvider()
	qp.Quote = quote

	payload := bytes.Repeat([]byte{0x7f}, sgx.PayloadSize)
	var stdout bytes.Buffer
	require.NoError(t, run(bytes.NewReader(payload), &stdout, qp))

	require.Equal(t, 784, stdout.Len())
	require.Equal(t, quote, stdout.Bytes()[768:])
	bundle := verifyOutput(t, payload, stdout.Bytes())

	// The report data written before the quote binds the emitted key.
	mrsigner := sgx.MRSignerForModulus(bundle.Modulus[:])
	require.Equal(t, mrsigner[:], qp.ReportData[:32])
	require.Equal(t, make([]byte, 32), qp.ReportData[32:])
}

func TestRunQuoteReadFailure(t *testing.T) {
	qp := sgx.NewMockQuoteProvider()
	qp.GetErr = errors.New("input/output error")

	var stdout bytes.Buffer
	err := run(bytes.NewReader(make([]byte, sgx.PayloadSize)), &stdout, qp)
	require.ErrorIs(t, err, sgx.ErrAttestationRead)
	require.Zero(t, stdout.Len())
}

func TestRunShortInput(t *testing.T) {
	for _, input := range []string{"", strings.Repeat("x", sgx.PayloadSize-1)} {
		qp := sgx.NewMockQuoteProvider()
		var stdout bytes.Buffer
		err := run(strings.NewReader(input), &stdout, qp)
		require.ErrorIs(t, err, sgx.ErrInput)
		require.Zero(t, stdout.Len())
		require.Zero(t, qp.Puts)
	}
}

func TestRunFreshKeys(t *testing.T) {
	payload := make([]byte, sgx.PayloadSize)

	var first, second bytes.Buffer
	require.NoError(t, run(bytes.NewReader(payload), &first, sgx.NewMockQuoteProvider()))
	require.NoError(t, run(bytes.NewReader(payload), &second, sgx.NewMockQuoteProvider()))
	require.NotEqual(t, first.Bytes()[:sgx.RSAKeySize], second.Bytes()[:sgx.RSAKeySize])
}

func TestRunGramineDevice(t *testing.T) {
	// A missing /dev/attestation degrades to the sentinel quote.
	dev := sgx.NewGramineDevice(t.TempDir())
	var stdout bytes.Buffer
	require.NoError(t, run(bytes.NewReader(make([]byte, sgx.PayloadSize)), &stdout, dev))
	require.Equal(t, sgx.MinBundleSize, stdout.Len())
}
