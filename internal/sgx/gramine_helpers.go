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
	"os"
	"path/filepath"
)

const (
	// DefaultAttestationDir is where Gramine mounts its attestation pseudo-files.
	DefaultAttestationDir = "/dev/attestation"

	userReportDataFile = "user_report_data"
	quoteFile          = "quote"
)

var _ QuoteProvider = (*GramineDevice)(nil)

// GramineDevice implements QuoteProvider on top of Gramine's /dev/attestation
// pseudo-filesystem.
type GramineDevice struct {
	dir string
}

// NewGramineDevice returns a provider for the attestation files under dir.
func NewGramineDevice(dir string) *GramineDevice {
	return &GramineDevice{dir: dir}
}

// PutReportData writes /dev/attestation/user_report_data. The file is never
// created: outside an enclave the write fails and the caller falls back to a
// sentinel quote.
func (d *GramineDevice) PutReportData(reportData []byte) error {
	if len(reportData) != ReportDataSize {
		return fmt.Errorf("reportData must be exactly %d bytes, got %d", ReportDataSize, len(reportData))
	}

	path := filepath.Join(d.dir, userReportDataFile)
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	if _, err := f.Write(reportData); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

// GetQuote reads the quote Gramine generated for the last written report data.
func (d *GramineDevice) GetQuote() ([]byte, error) {
	path := filepath.Join(d.dir, quoteFile)
	quote, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return quote, nil
}
