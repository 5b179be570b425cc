// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pacoca

import (
	"github.com/holiman/uint256"
)

// Constants of the execution environment.
const (
	BlockInterval uint64 = 3 // seconds between two consecutive blocks.

	// BasisPoints is the denominator of every bps-expressed ratio.
	BasisPoints uint64 = 10000

	Decimals = 18
)

var (
	// Precision is the fixed point scale of accumulated reward per share.
	Precision = uint256.NewInt(1e18)

	// MaxUint256 all bits set.
	MaxUint256 = new(uint256.Int).SetAllOne()
)

// Tokens returns n whole tokens expressed in the smallest unit.
func Tokens(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), Precision)
}

// ParseAmount parses a decimal or 0x-prefixed hex amount.
func ParseAmount(s string) (*uint256.Int, error) {
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		return uint256.FromHex(s)
	}
	return uint256.FromDecimal(s)
}
