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
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"math/big"
	"os"
	"time"
)

// SIGSTRUCT offsets based on Gramine's sgx_arch.h
// typedef struct {
//     uint8_t header[16];                  // offset 0
//     uint32_t vendor;                     // offset 16
//     uint32_t date;                       // offset 20
//     uint8_t header2[16];                 // offset 24
//     uint32_t swdefined;                  // offset 40
//     uint8_t reserved1[84];               // offset 44
//     uint8_t modulus[384];                // offset 128 ← RSA-N (SE_KEY_SIZE)
//     uint8_t exponent[4];                 // offset 512 ← RSA-e (SE_EXPONENT_SIZE)
//     uint8_t signature[384];              // offset 516 ← RSA-S (SE_KEY_SIZE)
//     sgx_misc_select_t misc_select;       // offset 900 (4 bytes)
//     ...
//     sgx_measurement_t enclave_hash;      // offset 960 ← MRENCLAVE (32 bytes)
//     ...
//     sgx_prod_id_t isv_prod_id;           // offset 1024 (2 bytes)
//     sgx_isv_svn_t isv_svn;               // offset 1026 (2 bytes)
//     uint8_t reserved4[12];               // offset 1028
//     uint8_t q1[384];                     // offset 1040 (SE_KEY_SIZE)
//     uint8_t q2[384];                     // offset 1424 (SE_KEY_SIZE)
// } sgx_sigstruct_t;  // Total: 1808 bytes
const (
	SigstructSize = 1808

	sigstructDateOffset       = 20
	sigstructModulusOffset    = 128
	sigstructExponentOffset   = 512
	sigstructSignatureOffset  = 516
	sigstructMiscSelectOffset = 900
	sigstructMREnclaveOffset  = 960
	sigstructISVProdIDOffset  = 1024
	sigstructISVSVNOffset     = 1026
	sigstructQ1Offset         = 1040
	sigstructQ2Offset         = 1424

	// signing data is header[0:128] ‖ body[900:1028]
	sigstructHeaderLen = 128

	// MaxISVSVN is the highest ISVSVN. Enclaves signed by a one-time key are
	// expected to carry it, since the key can never sign an upgrade.
	MaxISVSVN = 0xffff
)

var (
	sigstructHeader  = []byte{0x06, 0x00, 0x00, 0x00, 0xe1, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00}
	sigstructHeader2 = []byte{0x01, 0x01, 0x00, 0x00, 0x60, 0x00, 0x00, 0x00, 0x60, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00}
)

// Sigstruct is an Intel SGX SIGSTRUCT (SDM vol. 3D, table 38-19).
type Sigstruct [SigstructSize]byte

// NewSigstruct copies data into a Sigstruct after checking its length and
// both header constants.
func NewSigstruct(data []byte) (*Sigstruct, error) {
	if len(data) != SigstructSize {
		return nil, fmt.Errorf("%w: wrong length: expected %d, got %d", ErrInvalidSigstruct, SigstructSize, len(data))
	}
	s := new(Sigstruct)
	copy(s[:], data)

	if !bytes.Equal(s[0:16], sigstructHeader) {
		return nil, fmt.Errorf("%w: wrong HEADER", ErrInvalidSigstruct)
	}
	if !bytes.Equal(s[24:40], sigstructHeader2) {
		return nil, fmt.Errorf("%w: wrong HEADER2", ErrInvalidSigstruct)
	}
	return s, nil
}

// BlankSigstruct returns a SIGSTRUCT with only the fixed headers set.
func BlankSigstruct() *Sigstruct {
	s := new(Sigstruct)
	copy(s[0:16], sigstructHeader)
	copy(s[24:40], sigstructHeader2)
	return s
}

// ReadSigstruct reads a SIGSTRUCT from r. Trailing data is an error.
func ReadSigstruct(r io.Reader) (*Sigstruct, error) {
	data, err := io.ReadAll(io.LimitReader(r, SigstructSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read SIGSTRUCT: %w", err)
	}
	return NewSigstruct(data)
}

// ReadSigstructFile reads a SIGSTRUCT (.sig) file.
func ReadSigstructFile(path string) (*Sigstruct, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadSigstruct(f)
}

// Bytes returns a copy of the raw structure.
func (s *Sigstruct) Bytes() []byte {
	return append([]byte(nil), s[:]...)
}

// SigningData returns the 256 bytes covered by the SIGSTRUCT signature.
func (s *Sigstruct) SigningData() []byte {
	data := make([]byte, 0, PayloadSize)
	data = append(data, s[:sigstructHeaderLen]...)
	return append(data, s[sigstructMiscSelectOffset:sigstructMiscSelectOffset+sigstructHeaderLen]...)
}

// Modulus returns the big-endian modulus.
func (s *Sigstruct) Modulus() []byte {
	return reverseBytes(s[sigstructModulusOffset : sigstructModulusOffset+RSAKeySize])
}

// Signature returns the big-endian signature.
func (s *Sigstruct) Signature() []byte {
	return reverseBytes(s[sigstructSignatureOffset : sigstructSignatureOffset+RSAKeySize])
}

func (s *Sigstruct) Exponent() uint32 {
	return binary.LittleEndian.Uint32(s[sigstructExponentOffset:])
}

func (s *Sigstruct) MREnclave() [32]byte {
	var mrenclave [32]byte
	copy(mrenclave[:], s[sigstructMREnclaveOffset:])
	return mrenclave
}

func (s *Sigstruct) ISVProdID() uint16 {
	return binary.LittleEndian.Uint16(s[sigstructISVProdIDOffset:])
}

func (s *Sigstruct) ISVSVN() uint16 {
	return binary.LittleEndian.Uint16(s[sigstructISVSVNOffset:])
}

func (s *Sigstruct) SetISVSVN(svn uint16) {
	binary.LittleEndian.PutUint16(s[sigstructISVSVNOffset:], svn)
}

// MRSigner computes MRSIGNER from the modulus field.
func (s *Sigstruct) MRSigner() [MRSignerSize]byte {
	return MRSignerForModulusLE(s[sigstructModulusOffset : sigstructModulusOffset+RSAKeySize])
}

// Date decodes the BCD build date (day, month, two-byte year).
func (s *Sigstruct) Date() (time.Time, error) {
	day := bcdDecode(uint64(s[sigstructDateOffset]))
	month := bcdDecode(uint64(s[sigstructDateOffset+1]))
	year := bcdDecode(uint64(binary.LittleEndian.Uint16(s[sigstructDateOffset+2:])))
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("%w: invalid date %04d-%02d-%02d", ErrInvalidSigstruct, year, month, day)
	}
	return time.Date(int(year), time.Month(month), int(day), 0, 0, 0, 0, time.UTC), nil
}

// SetDate stores the date of t in BCD.
func (s *Sigstruct) SetDate(t time.Time) {
	s[sigstructDateOffset] = byte(bcdEncode(uint64(t.Day())))
	s[sigstructDateOffset+1] = byte(bcdEncode(uint64(t.Month())))
	binary.LittleEndian.PutUint16(s[sigstructDateOffset+2:], uint16(bcdEncode(uint64(t.Year()))))
}

// SetSignature stores the key and signature and the q1/q2 helpers EINIT uses
// to verify the signature without a division:
//
//	q1 = floor(S^2 / N)
//	q2 = floor((S^2 - q1*N) * S / N)
//
// See https://eprint.iacr.org/2016/086.pdf, 6.5.2.
func (s *Sigstruct) SetSignature(exponent uint32, modulusBE, signatureBE []byte) error {
	if len(modulusBE) != RSAKeySize || len(signatureBE) != RSAKeySize {
		return fmt.Errorf("%w: modulus and signature must be %d bytes", ErrInvalidSigstruct, RSAKeySize)
	}
	n := new(big.Int).SetBytes(modulusBE)
	sig := new(big.Int).SetBytes(signatureBE)
	if n.Sign() == 0 {
		return fmt.Errorf("%w: zero modulus", ErrInvalidSigstruct)
	}

	q1, w := new(big.Int).DivMod(new(big.Int).Mul(sig, sig), n, new(big.Int))
	q2 := new(big.Int).Div(new(big.Int).Mul(w, sig), n)

	binary.LittleEndian.PutUint32(s[sigstructExponentOffset:], exponent)
	copy(s[sigstructModulusOffset:], reverseBytes(modulusBE))
	copy(s[sigstructSignatureOffset:], reverseBytes(signatureBE))
	if err := s.putLE(sigstructQ1Offset, q1); err != nil {
		return err
	}
	return s.putLE(sigstructQ2Offset, q2)
}

func (s *Sigstruct) putLE(offset int, x *big.Int) error {
	if (x.BitLen()+7)/8 > RSAKeySize {
		return fmt.Errorf("%w: value at offset %d exceeds %d bytes", ErrInvalidSigstruct, offset, RSAKeySize)
	}
	var buf [RSAKeySize]byte
	x.FillBytes(buf[:])
	copy(s[offset:], reverseBytes(buf[:]))
	return nil
}

// Verify checks the exponent, the modulus size, the signature over the
// signing data and the q1/q2 helpers.
func (s *Sigstruct) Verify() error {
	if e := s.Exponent(); e != RSAExponent {
		return fmt.Errorf("%w: invalid RSA exponent: %d (expected %d)", ErrInvalidSigstruct, e, RSAExponent)
	}
	n := new(big.Int).SetBytes(s.Modulus())
	if n.BitLen() != RSAKeyBits {
		return fmt.Errorf("%w: invalid modulus size: %d bits (expected %d)", ErrInvalidSigstruct, n.BitLen(), RSAKeyBits)
	}

	digest := sha256.Sum256(s.SigningData())
	pub := &rsa.PublicKey{N: n, E: RSAExponent}
	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest[:], s.Signature()); err != nil {
		return fmt.Errorf("%w: signature verification failed: %w", ErrInvalidSigstruct, err)
	}

	var want Sigstruct
	if err := want.SetSignature(RSAExponent, s.Modulus(), s.Signature()); err != nil {
		return err
	}
	if !bytes.Equal(s[sigstructQ1Offset:], want[sigstructQ1Offset:]) {
		return fmt.Errorf("%w: q1/q2 do not match the signature", ErrInvalidSigstruct)
	}
	return nil
}

// bcdDecode interprets the hex digits of v as decimal digits.
func bcdDecode(v uint64) uint64 {
	return convertBase(v, 16, 10)
}

// bcdEncode writes the decimal digits of v as hex digits.
func bcdEncode(v uint64) uint64 {
	return convertBase(v, 10, 16)
}

func convertBase(v, in, out uint64) uint64 {
	var ret, shift uint64 = 0, 1
	for v > 0 {
		ret += (v % in) * shift
		v /= in
		shift *= out
	}
	return ret
}
