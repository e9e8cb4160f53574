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
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/log"
)

const (
	// RSAKeyBits is the modulus size SGX accepts for SIGSTRUCT keys.
	RSAKeyBits = 3072
	// RSAKeySize is the modulus size in bytes (SE_KEY_SIZE).
	RSAKeySize = RSAKeyBits / 8
	// RSAExponent is the public exponent SGX requires. Keys with any other
	// exponent are rejected by EINIT.
	RSAExponent = 3

	// PayloadSize is the length of the SIGSTRUCT signing data.
	PayloadSize = 256
)

var bigOne = big.NewInt(1)

// KeyPair is a one-time RSA signing key. It only ever lives in memory.
type KeyPair struct {
	priv *rsa.PrivateKey
}

// Modulus holds the public modulus in both byte orders. BE is the canonical
// form; LE is what SGX hashes into MRSIGNER.
type Modulus struct {
	BE [RSAKeySize]byte
	LE [RSAKeySize]byte
}

// GenerateKey generates a fresh RSA-3072 key with public exponent 3.
func GenerateKey() (*KeyPair, error) {
	priv, err := generateKey(rand.Reader, RSAKeyBits, RSAExponent)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyGen, err)
	}
	return &KeyPair{priv: priv}, nil
}

// generateKey builds a two-prime RSA key with a caller chosen public exponent.
// crypto/rsa.GenerateKey always uses 65537.
func generateKey(random io.Reader, bits, exponent int) (*rsa.PrivateKey, error) {
	e := big.NewInt(int64(exponent))
	for {
		p, err := generatePrime(random, bits-bits/2, e)
		if err != nil {
			return nil, err
		}
		q, err := generatePrime(random, bits/2, e)
		if err != nil {
			return nil, err
		}
		if p.Cmp(q) == 0 {
			continue
		}
		n := new(big.Int).Mul(p, q)
		if n.BitLen() != bits {
			continue
		}
		phi := new(big.Int).Mul(new(big.Int).Sub(p, bigOne), new(big.Int).Sub(q, bigOne))
		d := new(big.Int).ModInverse(e, phi)
		if d == nil {
			continue
		}
		priv := &rsa.PrivateKey{
			PublicKey: rsa.PublicKey{N: n, E: exponent},
			D:         d,
			Primes:    []*big.Int{p, q},
		}
		priv.Precompute()
		if err := priv.Validate(); err != nil {
			return nil, err
		}
		return priv, nil
	}
}

// generatePrime returns a prime p of the given size for which e is
// invertible modulo p-1.
func generatePrime(random io.Reader, bits int, e *big.Int) (*big.Int, error) {
	gcd := new(big.Int)
	for {
		p, err := rand.Prime(random, bits)
		if err != nil {
			return nil, err
		}
		if gcd.GCD(nil, nil, e, new(big.Int).Sub(p, bigOne)).Cmp(bigOne) == 0 {
			return p, nil
		}
	}
}

// PublicKey returns the public half of the key.
func (k *KeyPair) PublicKey() *rsa.PublicKey {
	return &k.priv.PublicKey
}

// Modulus exports the public modulus, left-padded to RSAKeySize bytes.
func (k *KeyPair) Modulus() (*Modulus, error) {
	return NewModulus(k.priv.N)
}

// NewModulus encodes n in both byte orders.
func NewModulus(n *big.Int) (*Modulus, error) {
	if size := (n.BitLen() + 7) / 8; size > RSAKeySize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrEncoding, size)
	}
	m := new(Modulus)
	n.FillBytes(m.BE[:])
	copy(m.LE[:], reverseBytes(m.BE[:]))
	return m, nil
}

// Sign computes the RSASSA-PKCS1-v1.5 SHA-256 signature over data.
func (k *KeyPair) Sign(data []byte) ([]byte, error) {
	digest := sha256.Sum256(data)
	sig, err := rsa.SignPKCS1v15(rand.Reader, k.priv, crypto.SHA256, digest[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSign, err)
	}
	if len(sig) != RSAKeySize {
		return nil, fmt.Errorf("%w: signature is %d bytes", ErrSign, len(sig))
	}
	return sig, nil
}

// SignWithOneTimeKey generates a one-time key, signs data with it and asks
// the attestation provider for a quote over the key's MRSIGNER. The key is
// dropped when the function returns.
func SignWithOneTimeKey(data []byte, qp QuoteProvider) (*Bundle, error) {
	key, err := GenerateKey()
	if err != nil {
		return nil, err
	}
	modulus, err := key.Modulus()
	if err != nil {
		return nil, err
	}
	signature, err := key.Sign(data)
	if err != nil {
		return nil, err
	}

	mrsigner := MRSignerForModulusLE(modulus.LE[:])
	log.Debug("Generated one-time signing key", "mrsigner", hex.EncodeToString(mrsigner[:]))

	quote, err := RequestQuote(qp, NewReportData(mrsigner))
	if err != nil {
		return nil, err
	}

	bundle := &Bundle{
		Modulus: modulus.BE,
		Quote:   quote,
	}
	copy(bundle.Signature[:], signature)
	return bundle, nil
}
