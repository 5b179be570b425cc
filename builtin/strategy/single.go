// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package strategy

import (
	"github.com/holiman/uint256"

	"github.com/pacoca/pacoca/pacoca"
	"github.com/pacoca/pacoca/xenv"
)

// Single holds the want tokens staked through it.
type Single struct {
	*vault
}

func NewSingle(addr pacoca.Address, env *xenv.Environment) *Single {
	return &Single{newVault(addr, env)}
}

// Init deploys the strategy. owner is the farm, gov the address allowed to tune fees.
func (s *Single) Init(want, owner, gov pacoca.Address) error {
	return s.init(KindSingle, want, owner, gov, DefaultSettings())
}

// Deposit pulls amount of want from the farm and returns the shares credited.
func (s *Single) Deposit(caller pacoca.Address, amount *uint256.Int) (*uint256.Int, error) {
	if err := s.onlyOwner(caller); err != nil {
		return nil, err
	}
	if err := s.pull(caller, amount); err != nil {
		return nil, err
	}
	shares, err := s.mint(amount)
	if err != nil {
		return nil, err
	}
	if err := s.wantLockedTotal.Add(amount); err != nil {
		return nil, err
	}
	return shares, nil
}

// Withdraw burns shares and sends their want to the farm.
func (s *Single) Withdraw(caller pacoca.Address, shares *uint256.Int) (*uint256.Int, error) {
	if err := s.onlyOwner(caller); err != nil {
		return nil, err
	}
	amount, err := s.burn(shares)
	if err != nil {
		return nil, err
	}
	return s.payout(caller, amount)
}
