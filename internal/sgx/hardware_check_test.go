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
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestCheckHardware(t *testing.T) {
	root := t.TempDir()
	if err := CheckHardware(root); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Expected ErrNotExist on empty root, got %v", err)
	}

	if err := os.MkdirAll(filepath.Join(root, "dev"), 0o755); err != nil {
		t.Fatal(err)
	}
	for _, dev := range hostDevices {
		if err := os.WriteFile(filepath.Join(root, dev), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := CheckHardware(root); err != nil {
		t.Errorf("CheckHardware failed with all devices present: %v", err)
	}
}
