// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package datagen

import (
	"crypto/rand"

	"github.com/holiman/uint256"

	"github.com/pacoca/pacoca/pacoca"
)

func RandomHash() pacoca.Bytes32 {
	var b32 pacoca.Bytes32

	rand.Read(b32[:])
	return b32
}

func RandAddress() pacoca.Address {
	var addr pacoca.Address

	rand.Read(addr[:])
	return addr
}

func RandAddresses(n int) []pacoca.Address {
	addrs := make([]pacoca.Address, 0, n)
	for range n {
		addrs = append(addrs, RandAddress())
	}
	return addrs
}

// RandAmount returns a random amount in [1, maxTokens] whole tokens.
func RandAmount(maxTokens uint64) *uint256.Int {
	return pacoca.Tokens(uint64(RandIntN(int(maxTokens))) + 1)
}
