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
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/log"
)

// Offsets into an SGX quote (48-byte header followed by the 384-byte report
// body). EPID and DCAP quotes share this prefix.
const (
	quoteMREnclaveOffset  = 112
	quoteMRSignerOffset   = 176
	quoteISVProdIDOffset  = 304
	quoteISVSVNOffset     = 306
	quoteReportDataOffset = 368
	quoteBodyEnd          = quoteReportDataOffset + ReportDataSize
)

// SGXQuote represents the SGX Quote data structure.
type SGXQuote struct {
	Version            uint16   // Quote version
	AttestationKeyType uint16   // Attestation key type (2=ECDSA-P256, 3=ECDSA-P384)
	MRENCLAVE          [32]byte // Enclave code measurement
	MRSIGNER           [32]byte // Signer measurement
	ISVProdID          uint16   // Product ID
	ISVSVN             uint16   // Security version number
	ReportData         [64]byte // User-defined data
	Signature          []byte   // Everything after the report body
}

// SentinelQuote returns the one-byte quote emitted when the platform has no
// attestation support. It can never be mistaken for a real quote.
func SentinelQuote() []byte {
	return []byte{0x00}
}

// IsSentinelQuote reports whether quote is the no-attestation sentinel.
func IsSentinelQuote(quote []byte) bool {
	return len(quote) == 1 && quote[0] == 0x00
}

// RequestQuote writes reportData to the provider and reads back the quote.
//
// A failed write means the platform cannot attest; it is logged and the
// sentinel quote is returned instead. A failed read after a successful write
// is a malfunction and returned as ErrAttestationRead.
func RequestQuote(qp QuoteProvider, reportData [ReportDataSize]byte) ([]byte, error) {
	if err := qp.PutReportData(reportData[:]); err != nil {
		log.Warn("Returning sentinel quote", "err", fmt.Errorf("%w: %w", ErrAttestationWrite, err))
		return SentinelQuote(), nil
	}
	quote, err := qp.GetQuote()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAttestationRead, err)
	}
	if len(quote) == 0 {
		return nil, fmt.Errorf("%w: quote is empty", ErrAttestationRead)
	}
	log.Debug("Received quote", "size", len(quote))
	return quote, nil
}

// ParseQuote parses an SGX Quote from raw bytes.
func ParseQuote(quote []byte) (*SGXQuote, error) {
	if len(quote) < quoteBodyEnd {
		return nil, fmt.Errorf("%w: %d bytes, minimum %d bytes required", ErrInvalidQuote, len(quote), quoteBodyEnd)
	}

	q := &SGXQuote{}
	q.Version = binary.LittleEndian.Uint16(quote[0:2])
	q.AttestationKeyType = binary.LittleEndian.Uint16(quote[2:4])
	copy(q.MRENCLAVE[:], quote[quoteMREnclaveOffset:])
	copy(q.MRSIGNER[:], quote[quoteMRSignerOffset:])
	q.ISVProdID = binary.LittleEndian.Uint16(quote[quoteISVProdIDOffset:])
	q.ISVSVN = binary.LittleEndian.Uint16(quote[quoteISVSVNOffset:])
	copy(q.ReportData[:], quote[quoteReportDataOffset:quoteBodyEnd])

	if len(quote) > quoteBodyEnd {
		q.Signature = make([]byte, len(quote)-quoteBodyEnd)
		copy(q.Signature, quote[quoteBodyEnd:])
	}
	return q, nil
}

// ReportDataMRSigner returns the MRSIGNER the one-time signer placed in the
// first half of the report data.
func (q *SGXQuote) ReportDataMRSigner() [MRSignerSize]byte {
	var mrsigner [MRSignerSize]byte
	copy(mrsigner[:], q.ReportData[:MRSignerSize])
	return mrsigner
}

// VerifyReportData checks that the quote binds the MRSIGNER of modulusBE.
func (q *SGXQuote) VerifyReportData(modulusBE []byte) error {
	want := MRSignerForModulus(modulusBE)
	got := q.ReportDataMRSigner()
	if !ConstantTimeCompare(got[:], want[:]) {
		return fmt.Errorf("%w: MRSIGNER in the quote (%x) does not match the intended modulus (%x)", ErrInvalidQuote, got, want)
	}
	return nil
}
