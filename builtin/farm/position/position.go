// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package position

import (
	"github.com/holiman/uint256"

	"github.com/pacoca/pacoca/builtin/reverts"
	"github.com/pacoca/pacoca/pacoca"
)

// Position is the stake of one user in one pool.
type Position struct {
	Amount     *uint256.Int
	RewardDebt *uint256.Int
}

func newPosition() *Position {
	return &Position{Amount: new(uint256.Int), RewardDebt: new(uint256.Int)}
}

// IsEmpty reports whether nothing is staked.
func (p *Position) IsEmpty() bool {
	return p.Amount.IsZero()
}

func accrued(amount, acc *uint256.Int) (*uint256.Int, error) {
	v, overflow := pacoca.MulDiv(amount, acc, pacoca.Precision)
	if overflow {
		return nil, reverts.New(reverts.Invalid, "reward overflow")
	}
	return v, nil
}

// Pending returns amount*acc/1e18 - rewardDebt.
func (p *Position) Pending(acc *uint256.Int) (*uint256.Int, error) {
	total, err := accrued(p.Amount, acc)
	if err != nil {
		return nil, err
	}
	// acc never decreases, so the debt recorded against an older acc cannot exceed this
	if total.Lt(p.RewardDebt) {
		return new(uint256.Int), nil
	}
	return total.Sub(total, p.RewardDebt), nil
}

// Sync recomputes the reward debt against acc.
func (p *Position) Sync(acc *uint256.Int) error {
	debt, err := accrued(p.Amount, acc)
	if err != nil {
		return err
	}
	p.RewardDebt = debt
	return nil
}

// Add increases the staked amount.
func (p *Position) Add(amount *uint256.Int) error {
	sum, overflow := new(uint256.Int).AddOverflow(p.Amount, amount)
	if overflow {
		return reverts.New(reverts.Invalid, "stake overflow")
	}
	p.Amount = sum
	return nil
}

// Sub decreases the staked amount, reverting when it exceeds the stake.
func (p *Position) Sub(amount *uint256.Int) error {
	if amount.Gt(p.Amount) {
		return reverts.New(reverts.InsufficientStake, "withdraw: not good")
	}
	p.Amount = new(uint256.Int).Sub(p.Amount, amount)
	return nil
}
