// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pacoca/pacoca/builtin/allocation"
	"github.com/pacoca/pacoca/builtin/strategy"
	"github.com/pacoca/pacoca/genesis"
	"github.com/pacoca/pacoca/lvldb"
	"github.com/pacoca/pacoca/pacoca"
	"github.com/pacoca/pacoca/runtime"
	"github.com/pacoca/pacoca/state"
)

func newRuntime(t *testing.T) *runtime.Runtime {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	return runtime.New(state.NewStater(db))
}

func buildDev(t *testing.T) (*runtime.Runtime, *genesis.Deployment) {
	rt := newRuntime(t)
	gen, err := genesis.New(genesis.DevConfig())
	require.NoError(t, err)
	d, err := gen.Build(rt)
	require.NoError(t, err)
	return rt, d
}

func TestDevDeployment(t *testing.T) {
	rt, d := buildDev(t)
	accs := genesis.DevAccounts()
	cfg := genesis.DevConfig()

	head, err := rt.Block()
	require.NoError(t, err)
	assert.Equal(t, cfg.LaunchTime+uint64(head.Number)*pacoca.BlockInterval, head.Time)

	again, err := genesis.New(cfg)
	require.NoError(t, err)
	assert.Equal(t, d, again.Deployment(), "addresses are deterministic")

	require.NoError(t, rt.Call(func(ctx *runtime.Context) error {
		f := ctx.Farm(d.Farm)
		n, err := f.PoolLength()
		require.NoError(t, err)
		assert.Equal(t, uint64(2), n)

		total, err := f.TotalWeight()
		require.NoError(t, err)
		assert.Equal(t, uint64(1500), total)

		p, err := f.PoolInfo(1)
		require.NoError(t, err)
		assert.Equal(t, d.Tokens["CAKE"], p.StakedAsset)
		assert.Equal(t, d.Pools[1].Strategy, p.Strategy)

		kind, err := strategy.KindOf(d.Pools[1].Strategy, ctx.Env())
		require.NoError(t, err)
		assert.Equal(t, strategy.KindCompound, kind)

		owner, err := ctx.Token(d.Token).Owner()
		require.NoError(t, err)
		assert.Equal(t, d.Farm, owner)
		owner, err = ctx.Token(d.Tokens["CAKE"]).Owner()
		require.NoError(t, err)
		assert.Equal(t, d.Venues["pancake"], owner)

		bal, err := ctx.Token(d.Token).BalanceOf(*d.Ledger)
		require.NoError(t, err)
		assert.Equal(t, allocation.Total, bal)
		bal, err = ctx.Token(d.Tokens["CAKE"]).BalanceOf(accs[3].Address)
		require.NoError(t, err)
		assert.Equal(t, pacoca.Tokens(1000), bal)

		minted, err := ctx.Ledger(*d.Ledger).PercentageMintedByChef()
		require.NoError(t, err)
		assert.Equal(t, uint64(1), minted)

		beneficiary, err := ctx.Timelock(d.Timelocks[0]).Owner()
		require.NoError(t, err)
		assert.Equal(t, accs[1].Address, beneficiary)
		return nil
	}))
}

func TestCompoundPool(t *testing.T) {
	rt, d := buildDev(t)
	accs := genesis.DevAccounts()
	bob := accs[2].Address
	cake := d.Tokens["CAKE"]

	_, err := rt.Exec(bob, "token.approve", func(ctx *runtime.Context) error {
		return ctx.Token(cake).Approve(bob, d.Farm, pacoca.MaxUint256)
	})
	require.NoError(t, err)
	_, err = rt.Exec(bob, "farm.deposit", func(ctx *runtime.Context) error {
		return ctx.Farm(d.Farm).Deposit(bob, 1, pacoca.Tokens(100))
	})
	require.NoError(t, err)

	_, err = rt.Mine(10)
	require.NoError(t, err)
	_, err = rt.Exec(d.Gov, "strategy.earn", func(ctx *runtime.Context) error {
		c, err := ctx.Strategies().Compound(d.Pools[1].Strategy)
		if err != nil {
			return err
		}
		return c.Earn(d.Gov)
	})
	require.NoError(t, err)

	require.NoError(t, rt.Call(func(ctx *runtime.Context) error {
		staked, err := ctx.Farm(d.Farm).StakedWantTokens(1, bob)
		require.NoError(t, err)
		// 11 blocks of venue rewards less the 1.5% controller fee
		want := new(uint256.Int).Add(pacoca.Tokens(100), pacoca.Bps(pacoca.Tokens(11), 9850))
		assert.Equal(t, want, staked)

		fee, err := ctx.Token(cake).BalanceOf(d.Owner)
		require.NoError(t, err)
		assert.Equal(t, new(uint256.Int).Add(pacoca.Tokens(1000), pacoca.Bps(pacoca.Tokens(11), 150)), fee)
		return nil
	}))
}

func TestBuildTwice(t *testing.T) {
	rt, _ := buildDev(t)
	gen, err := genesis.New(genesis.DevConfig())
	require.NoError(t, err)
	_, err = gen.Build(rt)
	assert.ErrorContains(t, err, "state not empty")
}

const configYAML = `
launchTime: 1622505600
owner: "0x7567d83b7b8d80addcb281a71d54fc7b3364ffed"
token:
  name: Pacoca
  symbol: PACOCA
  maxSupply: 100000000 tokens
farm:
  rewardPerBlock: 2 tokens
  startBlock: 10
allocation:
  curve: linear
timelocks:
  - beneficiary: "0xd3ae78222beadb038203be21ed5ce7c9b1bff602"
    lock: 720h
    amount: "0x3635c9adc5dea00000"
pools:
  - asset: PACOCA
    weight: 10
balances:
  - address: "0xd3ae78222beadb038203be21ed5ce7c9b1bff602"
    amount: "10000000000000000000"
`

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genesis.yaml")
	require.NoError(t, os.WriteFile(path, []byte(configYAML), 0o600))

	cfg, err := genesis.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(1622505600), cfg.LaunchTime)
	assert.Equal(t, pacoca.Tokens(100_000_000), cfg.Token.MaxSupply.Int)
	assert.Equal(t, pacoca.Tokens(2), cfg.Farm.RewardPerBlock.Int)
	assert.Equal(t, uint32(10), cfg.Farm.StartBlock)
	assert.Equal(t, 720*time.Hour, cfg.Timelocks[0].Lock)
	assert.Equal(t, pacoca.Tokens(1000), cfg.Timelocks[0].Amount.Int)
	assert.Equal(t, pacoca.Tokens(10), cfg.Balances[0].Amount.Int)

	rt := newRuntime(t)
	gen, err := genesis.New(cfg)
	require.NoError(t, err)
	d, err := gen.Build(rt)
	require.NoError(t, err)
	assert.Equal(t, "linear", d.Curve)
	assert.IsType(t, allocation.LinearCurve{}, d.ReleaseCurve())

	saved := filepath.Join(t.TempDir(), "deployment.yaml")
	require.NoError(t, d.Save(saved))
	loaded, err := genesis.LoadDeployment(saved)
	require.NoError(t, err)
	assert.Equal(t, d.Farm, loaded.Farm)
	assert.Equal(t, *d.Ledger, *loaded.Ledger)
	assert.Equal(t, d.Pools, loaded.Pools)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(cfg *genesis.Config)
		err    string
	}{
		{"no owner", func(cfg *genesis.Config) { cfg.Owner = pacoca.Address{} }, "owner required"},
		{"unknown asset", func(cfg *genesis.Config) { cfg.Pools[0].Asset = "BREW" }, "pools[0]: unknown asset BREW"},
		{"duplicate asset", func(cfg *genesis.Config) { cfg.Pools[1] = cfg.Pools[0] }, "pools[1]: duplicate asset PACOCA"},
		{"unknown venue", func(cfg *genesis.Config) { cfg.Pools[1].Venue = "cafe" }, "pools[1]: unknown venue cafe"},
		{"venue pid", func(cfg *genesis.Config) { cfg.Pools[1].VenuePid = 3 }, "pools[1]: venue pancake has no pool 3"},
		{"fees", func(cfg *genesis.Config) { cfg.Pools[1].Settings.ControllerFee = 301 }, "pools[1]: _controllerFee too high"},
		{"shared minter", func(cfg *genesis.Config) { cfg.Venues[0].RewardToken = "PACOCA" }, "venue pancake: reward token PACOCA already minted by another farm"},
		{"curve", func(cfg *genesis.Config) { cfg.Allocation.Curve = "cliff" }, `allocation: unknown curve "cliff"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := genesis.DevConfig()
			tt.modify(cfg)
			assert.EqualError(t, cfg.Validate(), tt.err)
		})
	}
}
