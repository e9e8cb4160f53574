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

import "crypto/sha256"

const (
	// MRSignerSize is the size of an MRSIGNER value.
	MRSignerSize = sha256.Size
	// ReportDataSize is the size of the user report data embedded in a quote.
	ReportDataSize = 64
)

// MRSignerForModulus computes MRSIGNER for a big-endian modulus.
func MRSignerForModulus(modulusBE []byte) [MRSignerSize]byte {
	return MRSignerForModulusLE(reverseBytes(modulusBE))
}

// MRSignerForModulusLE computes MRSIGNER for a little-endian modulus, the
// byte order used inside SIGSTRUCT.
func MRSignerForModulusLE(modulusLE []byte) [MRSignerSize]byte {
	return sha256.Sum256(modulusLE)
}

// NewReportData places mrsigner in the first half of a zeroed report data
// buffer.
func NewReportData(mrsigner [MRSignerSize]byte) [ReportDataSize]byte {
	var reportData [ReportDataSize]byte
	copy(reportData[:MRSignerSize], mrsigner[:])
	return reportData
}

// reverseBytes reverses a byte slice (for little-endian to big-endian conversion)
func reverseBytes(b []byte) []byte {
	result := make([]byte, len(b))
	for i := range b {
		result[i] = b[len(b)-1-i]
	}
	return result
}
