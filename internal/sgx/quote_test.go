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
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func TestRequestQuote(t *testing.T) {
	fixed := make([]byte, 16)
	for i := range fixed {
		fixed[i] = byte(i + 1)
	}

	tests := []struct {
		name    string
		putErr  error
		getErr  error
		quote   []byte
		want    []byte
		wantErr error
	}{
		{
			name:   "write fails",
			putErr: errors.New("no such file or directory"),
			want:   []byte{0x00},
		},
		{
			name:    "read fails",
			getErr:  errors.New("input/output error"),
			wantErr: ErrAttestationRead,
		},
		{
			name:    "empty quote",
			quote:   []byte{},
			wantErr: ErrAttestationRead,
		},
		{
			name:  "fixed quote",
			quote: fixed,
			want:  fixed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qp := NewMockQuoteProvider()
			qp.PutErr, qp.GetErr, qp.Quote = tt.putErr, tt.getErr, tt.quote

			var rd [ReportDataSize]byte
			rd[0] = 0xaa
			quote, err := RequestQuote(qp, rd)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Expected %v, got %v", tt.wantErr, err)
				}
				if quote != nil {
					t.Errorf("Expected no quote on error, got %x", quote)
				}
				return
			}
			if err != nil {
				t.Fatalf("RequestQuote failed: %v", err)
			}
			if !bytes.Equal(quote, tt.want) {
				t.Errorf("Wrong quote: got %x, want %x", quote, tt.want)
			}
		})
	}
}

func TestParseQuote(t *testing.T) {
	var rd [ReportDataSize]byte
	copy(rd[:], "report data")

	qp := NewMockQuoteProvider()
	quote, err := RequestQuote(qp, rd)
	if err != nil {
		t.Fatalf("RequestQuote failed: %v", err)
	}
	quote = append(quote, 0xde, 0xad)

	q, err := ParseQuote(quote)
	if err != nil {
		t.Fatalf("ParseQuote failed: %v", err)
	}
	if q.Version != 3 {
		t.Errorf("Wrong version: %d", q.Version)
	}
	if q.AttestationKeyType != 2 {
		t.Errorf("Wrong attestation key type: %d", q.AttestationKeyType)
	}
	if q.MRENCLAVE != qp.MREnclave {
		t.Errorf("MRENCLAVE mismatch: got %x, want %x", q.MRENCLAVE, qp.MREnclave)
	}
	if q.MRSIGNER != qp.MRSigner {
		t.Errorf("MRSIGNER mismatch: got %x, want %x", q.MRSIGNER, qp.MRSigner)
	}
	if q.ISVSVN != 1 {
		t.Errorf("Wrong ISVSVN: %d", q.ISVSVN)
	}
	if q.ReportData != rd {
		t.Errorf("Report data mismatch: got %x", q.ReportData)
	}
	if !bytes.Equal(q.Signature, []byte{0xde, 0xad}) {
		t.Errorf("Wrong trailing data: %x", q.Signature)
	}
}

func TestParseQuoteOffsets(t *testing.T) {
	quote := make([]byte, quoteBodyEnd)
	binary.LittleEndian.PutUint16(quote[quoteISVProdIDOffset:], 0x1234)
	binary.LittleEndian.PutUint16(quote[quoteISVSVNOffset:], 0xffff)
	quote[quoteMREnclaveOffset] = 0x11
	quote[quoteMRSignerOffset+31] = 0x22
	quote[quoteBodyEnd-1] = 0x33

	q, err := ParseQuote(quote)
	if err != nil {
		t.Fatalf("ParseQuote failed: %v", err)
	}
	if q.ISVProdID != 0x1234 || q.ISVSVN != 0xffff {
		t.Errorf("Wrong ISV fields: prodid=%#x svn=%#x", q.ISVProdID, q.ISVSVN)
	}
	if q.MRENCLAVE[0] != 0x11 || q.MRSIGNER[31] != 0x22 || q.ReportData[63] != 0x33 {
		t.Error("Measurements read from wrong offsets")
	}
	if q.Signature != nil {
		t.Errorf("Expected no trailing data, got %d bytes", len(q.Signature))
	}
}

func TestParseQuoteTooShort(t *testing.T) {
	for _, quote := range [][]byte{nil, SentinelQuote(), make([]byte, quoteBodyEnd-1)} {
		if _, err := ParseQuote(quote); !errors.Is(err, ErrInvalidQuote) {
			t.Errorf("%d-byte quote: expected ErrInvalidQuote, got %v", len(quote), err)
		}
	}
}

func TestSentinelQuote(t *testing.T) {
	if !IsSentinelQuote(SentinelQuote()) {
		t.Error("SentinelQuote is not recognised")
	}
	for _, quote := range [][]byte{nil, {0x01}, {0x00, 0x00}} {
		if IsSentinelQuote(quote) {
			t.Errorf("%x misdetected as sentinel", quote)
		}
	}
}

func TestVerifyReportData(t *testing.T) {
	modulus := bytes.Repeat([]byte{0xc3}, RSAKeySize)
	other := bytes.Repeat([]byte{0x3c}, RSAKeySize)

	qp := NewMockQuoteProvider()
	quote, err := RequestQuote(qp, NewReportData(MRSignerForModulus(modulus)))
	if err != nil {
		t.Fatalf("RequestQuote failed: %v", err)
	}
	q, err := ParseQuote(quote)
	if err != nil {
		t.Fatalf("ParseQuote failed: %v", err)
	}

	if err := q.VerifyReportData(modulus); err != nil {
		t.Errorf("Matching modulus rejected: %v", err)
	}
	if err := q.VerifyReportData(other); !errors.Is(err, ErrInvalidQuote) {
		t.Errorf("Expected ErrInvalidQuote for foreign modulus, got %v", err)
	}
}
