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


package otk

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/log"
	"github.com/gofrs/flock"
	"github.com/mccoysc/gramine-sgx-otk/internal/sgx"
)

// ErrQuoteNotFound is returned when the store holds no quote for a key.
var ErrQuoteNotFound = errors.New("no matching quote found")

// maxQuoteLine bounds a single hex-encoded quote, certification data
// included.
const maxQuoteLine = 1 << 20

// QuoteStore is an append-only file of hex-encoded quotes, one per line.
// Quotes are looked up by the MRSIGNER bound in their report data. Writers
// serialise on a lock file next to the store.
type QuoteStore struct {
	path string
}

func NewQuoteStore(path string) *QuoteStore {
	return &QuoteStore{path: path}
}

func (s *QuoteStore) Path() string {
	return s.path
}

// Save appends quote to the store after checking that it binds modulusBE.
func (s *QuoteStore) Save(modulusBE, quote []byte) error {
	q, err := sgx.ParseQuote(quote)
	if err != nil {
		return err
	}
	if err := q.VerifyReportData(modulusBE); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create quote store directory: %w", err)
	}
	lock := flock.New(s.path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock quote store: %w", err)
	}
	defer lock.Unlock()

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open quote store: %w", err)
	}
	if _, err := fmt.Fprintln(f, hex.EncodeToString(quote)); err != nil {
		f.Close()
		return fmt.Errorf("failed to write quote store: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write quote store: %w", err)
	}
	log.Debug("Saved quote", "path", s.path, "mrsigner", hex.EncodeToString(q.ReportData[:sgx.MRSignerSize]))
	return nil
}

// LookupMRSigner returns the first stored quote whose report data carries
// mrsigner.
func (s *QuoteStore) LookupMRSigner(mrsigner [sgx.MRSignerSize]byte) ([]byte, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrQuoteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open quote store: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxQuoteLine)
	for lineno := 1; scanner.Scan(); lineno++ {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		quote := make([]byte, hex.DecodedLen(len(line)))
		if _, err := hex.Decode(quote, line); err != nil {
			log.Warn("Skipping malformed quote store entry", "path", s.path, "line", lineno, "err", err)
			continue
		}
		q, err := sgx.ParseQuote(quote)
		if err != nil {
			log.Warn("Skipping malformed quote store entry", "path", s.path, "line", lineno, "err", err)
			continue
		}
		if q.ReportDataMRSigner() == mrsigner {
			return quote, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read quote store: %w", err)
	}
	return nil, ErrQuoteNotFound
}

// LookupModulus looks up the quote for a big-endian modulus.
func (s *QuoteStore) LookupModulus(modulusBE []byte) ([]byte, error) {
	return s.LookupMRSigner(sgx.MRSignerForModulus(modulusBE))
}

// LookupModulusLE looks up the quote for a little-endian modulus, the byte
// order used inside SIGSTRUCT.
func (s *QuoteStore) LookupModulusLE(modulusLE []byte) ([]byte, error) {
	return s.LookupMRSigner(sgx.MRSignerForModulusLE(modulusLE))
}

// LookupSigstruct looks up the quote for the key that signed sigstruct.
func (s *QuoteStore) LookupSigstruct(sigstruct *sgx.Sigstruct) ([]byte, error) {
	return s.LookupMRSigner(sigstruct.MRSigner())
}
