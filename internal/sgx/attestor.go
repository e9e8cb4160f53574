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


// Package sgx implements the in-enclave half of one-time-key SGX signing:
// key generation, SIGSTRUCT signing, MRSIGNER derivation and quote retrieval
// through Gramine's /dev/attestation interface.
package sgx

// QuoteProvider is the attestation capability the signer needs.
// Writing report data is the request; reading the quote is the response.
// The platform guarantees the quote read after a successful write binds
// exactly that report data.
type QuoteProvider interface {
	// PutReportData sets the 64-byte user report data for the next quote.
	PutReportData(reportData []byte) error

	// GetQuote returns the quote for the report data written last.
	GetQuote() ([]byte, error)
}
