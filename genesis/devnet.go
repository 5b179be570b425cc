// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"crypto/ecdsa"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/pacoca/pacoca/builtin/timelock"
	"github.com/pacoca/pacoca/pacoca"
)

// DevAccount account for development.
type DevAccount struct {
	Address    pacoca.Address
	PrivateKey *ecdsa.PrivateKey
}

// DevAccounts returns the accounts funded by the dev config.
// The first one deploys and owns everything.
var DevAccounts = sync.OnceValue(func() []DevAccount {
	privKeys := []string{
		"dce1443bd2ef0c2631adc1c67e5c93f13dc23a41c18b536effbbdcbcdb96fb65",
		"321d6443bc6177273b5abf54210fe806d451d6b7973bccc2384ef78bbcd0bf51",
		"2d7c882bad2a01105e36dda3646693bc1aaaa45b0ed63fb0ce23c060294f3af2",
		"593537225b037191d322c3b1df585fb1e5100811b71a6f7fc7e29cca1333483e",
		"ca7b25fc980c759df5f3ce17a3d881d6e19a38e651fc4315fc08917edab41058",
	}
	accs := make([]DevAccount, 0, len(privKeys))
	for _, str := range privKeys {
		pk, err := crypto.HexToECDSA(str)
		if err != nil {
			panic(err)
		}
		accs = append(accs, DevAccount{pacoca.Address(crypto.PubkeyToAddress(pk.PublicKey)), pk})
	}
	return accs
})

// DevConfig deploys the reward token farmed in a plain pool, a second token
// auto-compounded in a mock external farm, the allocation ledger and a timelock.
func DevConfig() *Config {
	accs := DevAccounts()
	cfg := &Config{
		LaunchTime: uint64(time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC).Unix()),
		Owner:      accs[0].Address,
		Token:      TokenConfig{Name: "Pacoca", Symbol: "PACOCA"},
		Farm: FarmConfig{
			RewardPerBlock: NewAmount(pacoca.Tokens(2)),
			MaxSupply:      NewAmount(pacoca.Tokens(100_000_000)),
		},
		Allocation: &AllocationConfig{Curve: "step"},
		Timelocks: []TimelockConfig{{
			Beneficiary: accs[1].Address,
			Lock:        timelock.DefaultLock,
			Amount:      NewAmount(pacoca.Tokens(1000)),
		}},
		Tokens: []TokenConfig{{Name: "PancakeSwap Token", Symbol: "CAKE"}},
		Venues: []VenueConfig{{
			Name:           "pancake",
			RewardToken:    "CAKE",
			RewardPerBlock: NewAmount(pacoca.Tokens(1)),
			Pools:          []VenuePool{{Asset: "CAKE", Weight: 1000}},
		}},
		Pools: []PoolConfig{
			{Asset: "PACOCA", Weight: 1000, Strategy: StrategySingle},
			{Asset: "CAKE", Weight: 500, Strategy: StrategyCompound, Venue: "pancake", Settings: &SettingsConfig{
				EntranceFeeFactor: 9990,
				WithdrawFeeFactor: 10000,
				ControllerFee:     150,
			}},
		},
	}
	for _, acc := range accs {
		cfg.Balances = append(cfg.Balances,
			BalanceConfig{Address: acc.Address, Amount: NewAmount(pacoca.Tokens(1000))},
			BalanceConfig{Address: acc.Address, Token: "CAKE", Amount: NewAmount(pacoca.Tokens(1000))},
		)
	}
	return cfg
}
