// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package strategy

import (
	"github.com/pkg/errors"

	"github.com/pacoca/pacoca/pacoca"
)

// Well known BSC addresses.
var (
	WBNB = pacoca.MustParseAddress("0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c")
	Burn = pacoca.MustParseAddress("0x000000000000000000000000000000000000dead")
)

// Platform is an external farming platform a compounding strategy can stake into.
type Platform struct {
	Name       string
	Earned     pacoca.Address
	Masterchef pacoca.Address
	Router     pacoca.Address
}

var (
	CafeSwap = &Platform{
		Name:       "CAFE_SWAP",
		Earned:     pacoca.MustParseAddress("0x790be81c3ca0e53974be2688cdb954732c9862e1"),
		Masterchef: pacoca.MustParseAddress("0xc772955c33088a97D56d0BBf473d05267bC4feBB"),
		Router:     pacoca.MustParseAddress("0x933DAea3a5995Fb94b14A7696a5F3ffD7B1E385A"),
	}
	PancakeSwap = &Platform{
		Name:       "PANCAKE_SWAP",
		Earned:     pacoca.MustParseAddress("0x0e09fabb73bd3ade0a17ecc321fd13a19e81ce82"),
		Masterchef: pacoca.MustParseAddress("0x73feaa1ee314f8c655e354234017be2193c9e24e"),
		Router:     pacoca.MustParseAddress("0x10ED43C718714eb63d5aA57B78B54704E256024E"),
	}

	// Platforms by name.
	Platforms = map[string]*Platform{
		CafeSwap.Name:    CafeSwap,
		PancakeSwap.Name: PancakeSwap,
	}
)

// PlatformByName looks a platform up.
func PlatformByName(name string) (*Platform, error) {
	p, ok := Platforms[name]
	if !ok {
		return nil, errors.Errorf("unknown platform %q", name)
	}
	return p, nil
}

// SetupParams describe a compounding strategy to deploy.
type SetupParams struct {
	Platform    string
	Farm        pacoca.Address
	Pacoca      pacoca.Address
	Want        pacoca.Address
	Token0      pacoca.Address
	Token1      pacoca.Address
	CAKEStaking bool
	Controller  pacoca.Address
	Rewards     pacoca.Address
}

// Bundle is the full address set and swap paths of a compounding strategy.
type Bundle struct {
	WBNB       pacoca.Address
	Controller pacoca.Address
	Farm       pacoca.Address
	Pacoca     pacoca.Address
	Want       pacoca.Address
	Token0     pacoca.Address
	Token1     pacoca.Address
	Earned     pacoca.Address
	Masterchef pacoca.Address
	Router     pacoca.Address
	Rewards    pacoca.Address
	Burn       pacoca.Address

	EarnedToPacocaPath []pacoca.Address
	// The pair paths are printed for operators. Compound.Earn swaps earned
	// straight to want and never adds liquidity.
	EarnedToToken0Path []pacoca.Address
	EarnedToToken1Path []pacoca.Address
	Token0ToEarnedPath []pacoca.Address
	Token1ToEarnedPath []pacoca.Address
}

// Addresses returns the address set in deployment order.
func (b *Bundle) Addresses() []pacoca.Address {
	return []pacoca.Address{
		b.WBNB, b.Controller, b.Farm, b.Pacoca,
		b.Want, b.Token0, b.Token1, b.Earned,
		b.Masterchef, b.Router, b.Rewards, b.Burn,
	}
}

// Setup resolves the platform and computes every swap path of the strategy.
// CAKE staking strategies stake the earned token itself and never swap into the pair.
func Setup(p *SetupParams) (*Bundle, error) {
	platform, err := PlatformByName(p.Platform)
	if err != nil {
		return nil, errors.WithMessage(err, "platform must be specified")
	}
	b := &Bundle{
		WBNB:       WBNB,
		Controller: p.Controller,
		Farm:       p.Farm,
		Pacoca:     p.Pacoca,
		Want:       p.Want,
		Token0:     p.Token0,
		Token1:     p.Token1,
		Earned:     platform.Earned,
		Masterchef: platform.Masterchef,
		Router:     platform.Router,
		Rewards:    p.Rewards,
		Burn:       Burn,

		EarnedToPacocaPath: []pacoca.Address{platform.Earned, WBNB, p.Pacoca},
	}
	if p.CAKEStaking {
		b.EarnedToToken0Path = []pacoca.Address{}
		b.EarnedToToken1Path = []pacoca.Address{}
		b.Token0ToEarnedPath = []pacoca.Address{}
		b.Token1ToEarnedPath = []pacoca.Address{}
		return b, nil
	}
	b.EarnedToToken0Path = Route(platform.Earned, p.Token0)
	b.EarnedToToken1Path = Route(platform.Earned, p.Token1)
	b.Token0ToEarnedPath = Route(p.Token0, platform.Earned)
	b.Token1ToEarnedPath = Route(p.Token1, platform.Earned)
	return b, nil
}
