// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package strategy

import (
	"github.com/holiman/uint256"

	"github.com/pacoca/pacoca/pacoca"
)

// Router swaps tokens along a path, the way an AMM router does.
type Router interface {
	// SwapExactTokensForTokens pulls amountIn of path[0] from caller, which must have
	// approved the router, and sends at least amountOutMin of the last token of path to to.
	SwapExactTokensForTokens(caller pacoca.Address, amountIn, amountOutMin *uint256.Int, path []pacoca.Address, to pacoca.Address) (*uint256.Int, error)
}

// Route returns the swap path from one token to another. Pairs are assumed to exist
// against WBNB, so anything that is not WBNB itself hops through it.
func Route(from, to pacoca.Address) []pacoca.Address {
	if from == to {
		return []pacoca.Address{}
	}
	if from == WBNB || to == WBNB {
		return []pacoca.Address{from, to}
	}
	return []pacoca.Address{from, WBNB, to}
}
