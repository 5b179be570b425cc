// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package farm

import (
	"github.com/holiman/uint256"

	"github.com/pacoca/pacoca/builtin/farm/pool"
	"github.com/pacoca/pacoca/builtin/strategy"
	"github.com/pacoca/pacoca/pacoca"
)

// Amounts are decimal strings of wei.

type Farm struct {
	Address        pacoca.Address `json:"address"`
	Owner          pacoca.Address `json:"owner"`
	RewardToken    pacoca.Address `json:"rewardToken"`
	RewardPerBlock string         `json:"rewardPerBlock"`
	StartBlock     uint32         `json:"startBlock"`
	MaxSupply      string         `json:"maxSupply"`
	TotalSupply    string         `json:"totalSupply"`
	TotalWeight    uint64         `json:"totalWeight"`
	PoolLength     uint64         `json:"poolLength"`
}

type Settings struct {
	EntranceFeeFactor uint64 `json:"entranceFeeFactor"`
	WithdrawFeeFactor uint64 `json:"withdrawFeeFactor"`
	ControllerFee     uint64 `json:"controllerFee"`
	BuyBackRate       uint64 `json:"buyBackRate"`
}

type Strategy struct {
	Address         pacoca.Address `json:"address"`
	Kind            string         `json:"kind"`
	Gov             pacoca.Address `json:"gov"`
	SharesTotal     string         `json:"sharesTotal"`
	WantLockedTotal string         `json:"wantLockedTotal"`
	Settings        Settings       `json:"settings"`
}

type Pool struct {
	Pid               uint64         `json:"pid"`
	StakedAsset       pacoca.Address `json:"stakedAsset"`
	Symbol            string         `json:"symbol"`
	Weight            uint64         `json:"weight"`
	AccRewardPerShare string         `json:"accRewardPerShare"`
	LastRewardBlock   uint32         `json:"lastRewardBlock"`
	TotalStaked       string         `json:"totalStaked"`
	Strategy          Strategy       `json:"strategy"`
}

type Position struct {
	Pid              uint64         `json:"pid"`
	User             pacoca.Address `json:"user"`
	Amount           string         `json:"amount"`
	RewardDebt       string         `json:"rewardDebt"`
	Pending          string         `json:"pending"`
	StakedWantTokens string         `json:"stakedWantTokens"`
}

func dec(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}

func convertSettings(s strategy.Settings) Settings {
	return Settings{
		EntranceFeeFactor: s.EntranceFeeFactor,
		WithdrawFeeFactor: s.WithdrawFeeFactor,
		ControllerFee:     s.ControllerFee,
		BuyBackRate:       s.BuyBackRate,
	}
}

func convertPool(pid pool.ID, p *pool.Pool, symbol string, strat Strategy) *Pool {
	return &Pool{
		Pid:               uint64(pid),
		StakedAsset:       p.StakedAsset,
		Symbol:            symbol,
		Weight:            p.Weight,
		AccRewardPerShare: dec(p.AccRewardPerShare),
		LastRewardBlock:   p.LastRewardBlock,
		TotalStaked:       dec(p.TotalStaked),
		Strategy:          strat,
	}
}
