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


// Package otk signs SGX enclaves with one-time keys. The key is generated
// inside the signing enclave and never leaves it; what remains is a quote
// proving that the enclave created it.
package otk

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/log"
	"github.com/mccoysc/gramine-sgx-otk/internal/sgx"
)

var ErrMeasurementMismatch = errors.New("quote does not come from the signing application")

// QuoteCallback observes the modulus (big-endian) and quote of every signature.
type QuoteCallback func(modulusBE, quote []byte)

// Signer completes SIGSTRUCTs using the signing application.
type Signer struct {
	App   *App
	Store *QuoteStore // nil disables saving quotes

	// CheckISVSVN refuses SIGSTRUCTs whose ISVSVN is not MaxISVSVN.
	CheckISVSVN   bool
	QuoteCallback QuoteCallback
}

// Sign returns a copy of sigstruct signed with a fresh one-time key.
func (s *Signer) Sign(ctx context.Context, sigstruct *sgx.Sigstruct) (*sgx.Sigstruct, error) {
	if s.CheckISVSVN {
		if svn := sigstruct.ISVSVN(); svn != sgx.MaxISVSVN {
			return nil, fmt.Errorf("%w: expected ISVSVN %#06x, found %#06x", sgx.ErrInvalidSigstruct, sgx.MaxISVSVN, svn)
		}
	}

	bundle, err := s.App.Sign(ctx, sigstruct.SigningData())
	if err != nil {
		return nil, err
	}
	if s.QuoteCallback != nil {
		s.QuoteCallback(bundle.Modulus[:], bundle.Quote)
	}
	if err := s.checkQuote(bundle); err != nil {
		return nil, err
	}

	signed := *sigstruct
	if err := signed.SetSignature(sgx.RSAExponent, bundle.Modulus[:], bundle.Signature[:]); err != nil {
		return nil, err
	}
	if err := signed.Verify(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAppFailed, err)
	}

	mrenclave, mrsigner := signed.MREnclave(), signed.MRSigner()
	log.Info("Signed SIGSTRUCT", "mrenclave", hex.EncodeToString(mrenclave[:]), "mrsigner", hex.EncodeToString(mrsigner[:]))
	return &signed, nil
}

func (s *Signer) checkQuote(bundle *sgx.Bundle) error {
	if sgx.IsSentinelQuote(bundle.Quote) {
		log.Warn("Signing application produced no quote, the key cannot be proven one-time")
		return nil
	}

	quote, err := sgx.ParseQuote(bundle.Quote)
	if err != nil {
		return err
	}
	if err := quote.VerifyReportData(bundle.Modulus[:]); err != nil {
		return err
	}

	if m, err := s.App.Measurement(); err != nil {
		log.Debug("Signing application measurement unknown, not checking quote MRENCLAVE", "err", err)
	} else if quote.MRENCLAVE != m.MREnclave {
		return fmt.Errorf("%w: MRENCLAVE %x, expected %x", ErrMeasurementMismatch, quote.MRENCLAVE, m.MREnclave)
	}

	if s.Store == nil {
		return nil
	}
	return s.Store.Save(bundle.Modulus[:], bundle.Quote)
}
