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

import (
	"fmt"
	"io"
)

// Bundle is the signer's output: the big-endian modulus, the signature and
// the quote, written back to back with no framing.
type Bundle struct {
	Modulus   [RSAKeySize]byte
	Signature [RSAKeySize]byte
	Quote     []byte
}

// MinBundleSize is the size of a bundle carrying the sentinel quote.
const MinBundleSize = 2*RSAKeySize + 1

// ReadPayload reads exactly PayloadSize bytes of signing data from r.
func ReadPayload(r io.Reader) ([]byte, error) {
	payload := make([]byte, PayloadSize)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInput, err)
	}
	return payload, nil
}

// Bytes returns the wire encoding of the bundle.
func (b *Bundle) Bytes() []byte {
	out := make([]byte, 0, 2*RSAKeySize+len(b.Quote))
	out = append(out, b.Modulus[:]...)
	out = append(out, b.Signature[:]...)
	return append(out, b.Quote...)
}

// WriteTo writes the bundle to w in a single write.
func (b *Bundle) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(b.Bytes())
	if err != nil {
		return int64(n), fmt.Errorf("%w: %w", ErrOutput, err)
	}
	return int64(n), nil
}

// MRSigner returns the MRSIGNER of the bundle's key.
func (b *Bundle) MRSigner() [MRSignerSize]byte {
	return MRSignerForModulus(b.Modulus[:])
}

// ParseBundle splits signer output into its fields.
func ParseBundle(data []byte) (*Bundle, error) {
	if len(data) < MinBundleSize {
		return nil, fmt.Errorf("%w: got %d bytes, need at least %d", ErrInvalidBundle, len(data), MinBundleSize)
	}
	b := new(Bundle)
	copy(b.Modulus[:], data[:RSAKeySize])
	copy(b.Signature[:], data[RSAKeySize:2*RSAKeySize])
	b.Quote = append([]byte(nil), data[2*RSAKeySize:]...)
	return b, nil
}
