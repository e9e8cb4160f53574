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

// hostDevices are the kernel devices gramine-sgx needs to launch an enclave
// and obtain a DCAP quote.
var hostDevices = []string{
	"/dev/sgx_enclave",
	"/dev/sgx_provision",
}

// CheckHardware checks that the SGX devices exist under root ("/" on a real
// host). A missing device is not fatal to signing: the enclave either fails
// to start or degrades to the sentinel quote.
func CheckHardware(root string) error {
	for _, dev := range hostDevices {
		path := filepath.Join(root, dev)
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("SGX device not available (%s): %w", path, err)
		}
	}
	return nil
}

// IsSGXAvailable checks if SGX is available on this host.
func IsSGXAvailable() bool {
	return CheckHardware("/") == nil
}
