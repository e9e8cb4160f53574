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

	"github.com/BurntSushi/toml"
)

// AttestationType is the value of sgx.remote_attestation in a Gramine
// manifest.
type AttestationType string

const (
	AttestationNone AttestationType = "none"
	AttestationEPID AttestationType = "epid"
	AttestationDCAP AttestationType = "dcap"

	// attestationLegacy is what Gramine < 1.4 manifests mean by
	// `sgx.remote_attestation = true`.
	attestationLegacy AttestationType = "legacy"
)

var _ toml.Unmarshaler = (*AttestationType)(nil)

// UnmarshalTOML accepts both the string form and the legacy boolean form.
func (a *AttestationType) UnmarshalTOML(v any) error {
	switch v := v.(type) {
	case string:
		*a = AttestationType(v)
	case bool:
		if v {
			*a = attestationLegacy
		} else {
			*a = AttestationNone
		}
	default:
		return fmt.Errorf("%w: sgx.remote_attestation has unsupported type %T", ErrInvalidManifest, v)
	}
	return nil
}

// Enabled reports whether the enclave can produce quotes.
func (a AttestationType) Enabled() bool {
	return a != "" && a != AttestationNone
}

// ManifestConfig represents the parts of a Gramine manifest the signer
// cares about.
type ManifestConfig struct {
	LibOS struct {
		Entrypoint string `toml:"entrypoint"`
	} `toml:"libos"`

	SGX struct {
		Debug        bool            `toml:"debug"`
		EnclaveSize  string          `toml:"enclave_size"`
		ISVProdID    int             `toml:"isvprodid"`
		ISVSVN       int             `toml:"isvsvn"`
		RemoteAttest AttestationType `toml:"remote_attestation"`
	} `toml:"sgx"`
}

// ParseManifestTOML parses the TOML content of a manifest.
func ParseManifestTOML(tomlData []byte) (*ManifestConfig, error) {
	var config ManifestConfig

	if err := toml.Unmarshal(tomlData, &config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse manifest TOML: %w", ErrInvalidManifest, err)
	}
	return &config, nil
}

// ParseManifestFile reads and parses a manifest or manifest.sgx file.
func ParseManifestFile(manifestPath string) (*ManifestConfig, error) {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}
	return ParseManifestTOML(data)
}
