// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package gen embeds the contract ABIs of the built-in contracts.
package gen

import (
	"embed"

	"github.com/pacoca/pacoca/abi"
)

//go:embed compiled
var fs embed.FS

func MustABI(name string) []byte {
	data, err := fs.ReadFile("compiled/" + name + ".abi")
	if err != nil {
		panic(err)
	}
	return data
}

// MustLoadABI parses the embedded ABI of the named contract.
func MustLoadABI(name string) *abi.ABI {
	return abi.MustNew(MustABI(name))
}
