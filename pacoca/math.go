// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pacoca

import "github.com/holiman/uint256"

// MulDiv computes x*y/d with a 512-bit intermediate, truncating toward zero.
// The bool reports whether the result overflows 256 bits or d is zero.
func MulDiv(x, y, d *uint256.Int) (*uint256.Int, bool) {
	if d.IsZero() {
		return new(uint256.Int), true
	}
	return new(uint256.Int).MulDivOverflow(x, y, d)
}

// Bps returns amount*bps/10000.
func Bps(amount *uint256.Int, bps uint64) *uint256.Int {
	z, _ := MulDiv(amount, uint256.NewInt(bps), uint256.NewInt(BasisPoints))
	return z
}

// Min returns a copy of the smaller of a and b.
func Min(a, b *uint256.Int) *uint256.Int {
	if a.Lt(b) {
		return new(uint256.Int).Set(a)
	}
	return new(uint256.Int).Set(b)
}
