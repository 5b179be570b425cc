// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"github.com/holiman/uint256"

	"github.com/pacoca/pacoca/builtin/reverts"
	"github.com/pacoca/pacoca/pacoca"
)

// Pool is a registered staked asset with its reward accumulator.
type Pool struct {
	StakedAsset pacoca.Address
	Weight      uint64
	Strategy    pacoca.Address
	// AccRewardPerShare is scaled by pacoca.Precision.
	AccRewardPerShare *uint256.Int
	LastRewardBlock   uint32
	// TotalStaked is the sum of all position amounts.
	TotalStaked *uint256.Int
}

func newPool(weight uint64, asset, strategy pacoca.Address, block uint32) *Pool {
	return &Pool{
		StakedAsset:       asset,
		Weight:            weight,
		Strategy:          strategy,
		AccRewardPerShare: new(uint256.Int),
		LastRewardBlock:   block,
		TotalStaked:       new(uint256.Int),
	}
}

// Multiplier returns the number of blocks elapsed since the last accrual.
func (p *Pool) Multiplier(block uint32) uint64 {
	if block <= p.LastRewardBlock {
		return 0
	}
	return uint64(block - p.LastRewardBlock)
}

// Emission parameters shared by every pool of a farm.
type Emission struct {
	RewardPerBlock *uint256.Int
	TotalWeight    uint64
	// Remaining is the amount that may still be minted, nil when unbounded.
	Remaining *uint256.Int
}

// Accrue computes the accumulator as of block without mutating the pool.
// It returns the new accumulated reward per share and the reward to mint.
// Settling and projecting pending rewards both go through here so they agree bit for bit.
func (p *Pool) Accrue(block uint32, em *Emission) (acc *uint256.Int, reward *uint256.Int, err error) {
	acc = new(uint256.Int).Set(p.AccRewardPerShare)
	reward = new(uint256.Int)

	elapsed := p.Multiplier(block)
	if elapsed == 0 || p.TotalStaked.IsZero() || p.Weight == 0 || em.TotalWeight == 0 {
		return acc, reward, nil
	}

	emitted, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(elapsed), em.RewardPerBlock)
	if overflow {
		return nil, nil, reverts.New(reverts.Invalid, "reward overflow")
	}
	reward, overflow = pacoca.MulDiv(emitted, uint256.NewInt(p.Weight), uint256.NewInt(em.TotalWeight))
	if overflow {
		return nil, nil, reverts.New(reverts.Invalid, "reward overflow")
	}
	if em.Remaining != nil {
		reward = pacoca.Min(reward, em.Remaining)
	}
	if reward.IsZero() {
		return acc, reward, nil
	}

	perShare, overflow := pacoca.MulDiv(reward, pacoca.Precision, p.TotalStaked)
	if overflow {
		return nil, nil, reverts.New(reverts.Invalid, "reward per share overflow")
	}
	if _, overflow := acc.AddOverflow(acc, perShare); overflow {
		return nil, nil, reverts.New(reverts.Invalid, "accumulator overflow")
	}
	return acc, reward, nil
}

// Settle brings the accumulator up to block and returns the reward to mint.
// With nobody staked the block still advances and nothing accrues.
func (p *Pool) Settle(block uint32, em *Emission) (*uint256.Int, error) {
	if block <= p.LastRewardBlock {
		return new(uint256.Int), nil
	}
	acc, reward, err := p.Accrue(block, em)
	if err != nil {
		return nil, err
	}
	p.AccRewardPerShare = acc
	p.LastRewardBlock = block
	return reward, nil
}
