// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package strategy

import (
	"github.com/holiman/uint256"

	"github.com/pacoca/pacoca/builtin/farm"
	"github.com/pacoca/pacoca/builtin/farm/pool"
	"github.com/pacoca/pacoca/builtin/token"
	"github.com/pacoca/pacoca/pacoca"
	"github.com/pacoca/pacoca/xenv"
)

// Venue is an external masterchef a compounding strategy stakes into.
// Withdrawing, including a zero amount, pays the pending reward to caller.
type Venue interface {
	Deposit(caller pacoca.Address, amount *uint256.Int) error
	Withdraw(caller pacoca.Address, amount *uint256.Int) error
	Staked(caller pacoca.Address) (*uint256.Int, error)
}

// FarmVenue stakes into a pool of another farm. The pool must credit shares one
// to one with want, as a Single strategy with default settings does.
type FarmVenue struct {
	farm *farm.Farm
	pid  pool.ID
	env  *xenv.Environment
}

func NewFarmVenue(f *farm.Farm, pid pool.ID, env *xenv.Environment) *FarmVenue {
	return &FarmVenue{farm: f, pid: pid, env: env}
}

func (v *FarmVenue) Deposit(caller pacoca.Address, amount *uint256.Int) error {
	p, err := v.farm.PoolInfo(v.pid)
	if err != nil {
		return err
	}
	want := token.New(p.StakedAsset, v.env)
	if err := want.IncreaseAllowance(caller, v.farm.Address(), amount); err != nil {
		return err
	}
	return v.farm.Deposit(caller, v.pid, amount)
}

func (v *FarmVenue) Withdraw(caller pacoca.Address, amount *uint256.Int) error {
	return v.farm.Withdraw(caller, v.pid, amount)
}

func (v *FarmVenue) Staked(caller pacoca.Address) (*uint256.Int, error) {
	return v.farm.StakedWantTokens(v.pid, caller)
}
