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
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mccoysc/gramine-sgx-otk/internal/sgx"
)

// hexdumpWidth is the number of hex digits per line.
const hexdumpWidth = 64

var labelColor = color.New(color.FgCyan, color.Bold)

// Hexdump splits the hex encoding of data into lines of width digits.
func Hexdump(data []byte, width int) []string {
	encoded := fmt.Sprintf("%x", data)
	lines := make([]string, 0, (len(encoded)+width-1)/width)
	for len(encoded) > width {
		lines = append(lines, encoded[:width])
		encoded = encoded[width:]
	}
	if len(encoded) > 0 {
		lines = append(lines, encoded)
	}
	return lines
}

// ShowQuote returns a QuoteCallback that prints the modulus, its MRSIGNER
// and the quote to w.
func ShowQuote(w io.Writer) QuoteCallback {
	return func(modulusBE, quote []byte) {
		mrsigner := sgx.MRSignerForModulus(modulusBE)
		printHexdump(w, "modulus", modulusBE)
		printHexdump(w, "mrsigner", mrsigner[:])
		printHexdump(w, "quote", quote)
	}
}

func printHexdump(w io.Writer, label string, data []byte) {
	labelColor.Fprintf(w, "%s:\n", label)
	var b strings.Builder
	for _, line := range Hexdump(data, hexdumpWidth) {
		b.WriteString("    ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	io.WriteString(w, b.String())
}
