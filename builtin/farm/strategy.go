// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package farm

import (
	"github.com/holiman/uint256"

	"github.com/pacoca/pacoca/pacoca"
)

// Strategy is what the farm needs from the strategy of a pool.
// Position amounts are strategy shares.
type Strategy interface {
	Address() pacoca.Address
	Want() (pacoca.Address, error)
	// Deposit pulls amount of want from caller, which must have approved it,
	// and returns the shares credited.
	Deposit(caller pacoca.Address, amount *uint256.Int) (*uint256.Int, error)
	// Withdraw burns shares and sends the want they are worth, less fees, to caller.
	// It returns the amount sent.
	Withdraw(caller pacoca.Address, shares *uint256.Int) (*uint256.Int, error)
	WantLockedTotal() (*uint256.Int, error)
}

// StrategyResolver binds strategy contracts by address.
type StrategyResolver interface {
	Strategy(addr pacoca.Address) (Strategy, error)
}
