// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package allocation

import "github.com/pacoca/pacoca/pacoca"

// ReleaseCurve maps the share of the farm emission minted so far to the share of an
// allocation released, both in basis points.
type ReleaseCurve interface {
	Released(mintedBps uint64) uint64
}

// Step releases Released once Threshold has been minted.
type Step struct {
	Threshold uint64
	Released  uint64
}

// StepCurve releases in steps. Steps need not be sorted.
type StepCurve []Step

// DefaultCurve releases a quarter at 25% minted and the rest at 75%.
var DefaultCurve = StepCurve{
	{Threshold: 2500, Released: 2500},
	{Threshold: 7500, Released: pacoca.BasisPoints},
}

func (c StepCurve) Released(mintedBps uint64) uint64 {
	var released uint64
	for _, s := range c {
		if mintedBps >= s.Threshold && s.Released > released {
			released = s.Released
		}
	}
	return min(released, pacoca.BasisPoints)
}

// LinearCurve releases in proportion to what has been minted.
type LinearCurve struct{}

func (LinearCurve) Released(mintedBps uint64) uint64 {
	return min(mintedBps, pacoca.BasisPoints)
}
