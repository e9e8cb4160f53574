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
	"errors"
)

var _ QuoteProvider = (*MockQuoteProvider)(nil)

// MockQuoteProvider is an in-memory QuoteProvider for testing in non-SGX
// environments. It records the report data it was given.
type MockQuoteProvider struct {
	// PutErr and GetErr, when set, are returned by the respective calls.
	PutErr error
	GetErr error

	// Quote, when set, is returned verbatim. Otherwise a minimal DCAP-shaped
	// quote embedding the written report data is generated.
	Quote []byte

	MREnclave [32]byte
	MRSigner  [32]byte

	// ReportData is the last successfully written report data.
	ReportData []byte
	Puts, Gets int
}

// NewMockQuoteProvider creates a mock provider with deterministic enclave
// measurements.
func NewMockQuoteProvider() *MockQuoteProvider {
	m := new(MockQuoteProvider)
	for i := range m.MREnclave {
		m.MREnclave[i] = byte(i)
	}
	for i := range m.MRSigner {
		m.MRSigner[i] = byte(i + 32)
	}
	return m
}

func (m *MockQuoteProvider) PutReportData(reportData []byte) error {
	m.Puts++
	if m.PutErr != nil {
		return m.PutErr
	}
	m.ReportData = append([]byte(nil), reportData...)
	return nil
}

func (m *MockQuoteProvider) GetQuote() ([]byte, error) {
	m.Gets++
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	if m.ReportData == nil {
		return nil, errors.New("no report data written")
	}
	if m.Quote != nil {
		return append([]byte(nil), m.Quote...), nil
	}
	return m.generateQuote(), nil
}

// generateQuote lays out the fields ParseQuote reads.
func (m *MockQuoteProvider) generateQuote() []byte {
	quote := make([]byte, quoteBodyEnd)

	binary.LittleEndian.PutUint16(quote[0:2], 3) // version
	binary.LittleEndian.PutUint16(quote[2:4], 2) // ECDSA-P256

	copy(quote[quoteMREnclaveOffset:], m.MREnclave[:])
	copy(quote[quoteMRSignerOffset:], m.MRSigner[:])
	binary.LittleEndian.PutUint16(quote[quoteISVSVNOffset:], 1)
	copy(quote[quoteReportDataOffset:quoteBodyEnd], m.ReportData)

	return quote
}
