// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package allocation

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pacoca/pacoca/builtin/reverts"
	"github.com/pacoca/pacoca/builtin/token"
	"github.com/pacoca/pacoca/lvldb"
	"github.com/pacoca/pacoca/pacoca"
	"github.com/pacoca/pacoca/state"
	"github.com/pacoca/pacoca/test/datagen"
	"github.com/pacoca/pacoca/xenv"
)

type fixture struct {
	t      *testing.T
	owner  pacoca.Address
	bob    pacoca.Address
	pacoca *token.Token
	ledger *Ledger
}

// newFixture deploys the token and a funded ledger, both owned by the same address.
func newFixture(t *testing.T, curve ReleaseCurve) *fixture {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	f := &fixture{t: t, owner: datagen.RandAddress(), bob: datagen.RandAddress()}
	env := xenv.New(state.New(db), &xenv.BlockContext{}, f.owner)

	f.pacoca = token.New(datagen.RandAddress(), env)
	require.NoError(t, f.pacoca.Init("Pacoca", "PACOCA", nil, f.owner))
	f.ledger = New(datagen.RandAddress(), env, curve)
	require.NoError(t, f.ledger.Init(f.owner, f.pacoca.Address()))
	f.mint(f.ledger.Address(), 60_000_000)
	return f
}

func (f *fixture) mint(to pacoca.Address, tokens uint64) {
	capability, err := f.pacoca.Authorize(f.owner)
	require.NoError(f.t, err)
	require.NoError(f.t, f.pacoca.Mint(capability, to, pacoca.Tokens(tokens)))
}

func (f *fixture) balance(addr pacoca.Address) *uint256.Int {
	bal, err := f.pacoca.BalanceOf(addr)
	require.NoError(f.t, err)
	return bal
}

func (f *fixture) claim() {
	capability, err := f.ledger.Authorize(f.owner)
	require.NoError(f.t, err)
	require.NoError(f.t, f.ledger.ClaimDevFunds(capability))
}

func TestDeployment(t *testing.T) {
	f := newFixture(t, nil)

	owner, err := f.ledger.Owner()
	require.NoError(t, err)
	assert.Equal(t, f.owner, owner)
	owner, err = f.pacoca.Owner()
	require.NoError(t, err)
	assert.Equal(t, f.owner, owner)
}

func TestAllocations(t *testing.T) {
	f := newFixture(t, nil)

	all, err := f.ledger.Allocations()
	require.NoError(t, err)
	require.Len(t, all, 6)

	want := []uint64{20_000_000, 15_000_000, 10_000_000, 8_000_000, 5_000_000, 2_000_000}
	sum := new(uint256.Int)
	for i, a := range all {
		assert.Equal(t, pacoca.Tokens(want[i]), a.Total)
		assert.True(t, a.Claimed.IsZero())
		assert.Equal(t, ID(i).String(), a.Name)
		sum.Add(sum, a.Total)
	}
	assert.Equal(t, Total, sum)

	dev, err := f.ledger.Allocation(Dev)
	require.NoError(t, err)
	assert.Equal(t, "Dev", dev.Name)

	_, err = f.ledger.Allocation(ID(6))
	assert.True(t, reverts.Is(err, reverts.Invalid))
}

func TestPercentageMintedByChef(t *testing.T) {
	f := newFixture(t, nil)

	bps, err := f.ledger.PercentageMintedByChef()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), bps)

	f.mint(f.bob, 30_000_000)
	bps, err = f.ledger.PercentageMintedByChef()
	require.NoError(t, err)
	assert.Equal(t, uint64(7500), bps)

	f.mint(f.bob, 20_000_000)
	bps, err = f.ledger.PercentageMintedByChef()
	require.NoError(t, err)
	assert.Equal(t, uint64(10000), bps, "capped")
}

func TestClaimDevFunds(t *testing.T) {
	f := newFixture(t, nil)
	assert.True(t, f.balance(f.owner).IsZero())

	// nothing released yet
	f.claim()
	assert.True(t, f.balance(f.owner).IsZero())

	f.mint(f.bob, 10_000_000)
	f.claim()
	assert.Equal(t, pacoca.Tokens(15_000_000/4), f.balance(f.owner))

	// claiming again at the same level is a no-op
	f.claim()
	assert.Equal(t, pacoca.Tokens(15_000_000/4), f.balance(f.owner))

	f.mint(f.bob, 30_000_000)
	f.claim()
	assert.Equal(t, pacoca.Tokens(15_000_000), f.balance(f.owner))

	dev, err := f.ledger.Allocation(Dev)
	require.NoError(t, err)
	assert.Equal(t, dev.Total, dev.Claimed)
}

func TestClaimDevFundsNotOwner(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.ledger.Authorize(f.bob)
	assert.True(t, reverts.Is(err, reverts.NotAuthorized))

	// a capability of another contract is rejected
	capability, err := f.pacoca.Authorize(f.owner)
	require.NoError(t, err)
	assert.True(t, reverts.Is(f.ledger.ClaimDevFunds(capability), reverts.NotAuthorized))
	assert.True(t, reverts.Is(f.ledger.ClaimDevFunds(nil), reverts.NotAuthorized))
}

func TestLinearCurve(t *testing.T) {
	f := newFixture(t, LinearCurve{})

	f.mint(f.bob, 4_000_000)
	f.claim()
	assert.Equal(t, pacoca.Tokens(1_500_000), f.balance(f.owner))
}

func TestSendPartnerFarmingFunds(t *testing.T) {
	f := newFixture(t, nil)
	capability, err := f.ledger.Authorize(f.owner)
	require.NoError(t, err)

	require.NoError(t, f.ledger.SendPartnerFarmingFunds(capability, f.bob, pacoca.Tokens(4_000_000)))
	assert.Equal(t, pacoca.Tokens(4_000_000), f.balance(f.bob))

	err = f.ledger.SendPartnerFarmingFunds(capability, f.bob, pacoca.Tokens(6_000_001))
	assert.True(t, reverts.Is(err, reverts.InsufficientAllocation))
	partner, err := f.ledger.Allocation(PartnerFarming)
	require.NoError(t, err)
	assert.Equal(t, pacoca.Tokens(4_000_000), partner.Claimed, "unchanged")

	require.NoError(t, f.ledger.SendPartnerFarmingFunds(capability, f.bob, pacoca.Tokens(6_000_000)))
	partner, err = f.ledger.Allocation(PartnerFarming)
	require.NoError(t, err)
	assert.Equal(t, partner.Total, partner.Claimed)
	assert.True(t, partner.Remaining().IsZero())

	other, err := f.pacoca.Authorize(f.owner)
	require.NoError(t, err)
	err = f.ledger.SendPartnerFarmingFunds(other, f.bob, new(uint256.Int))
	assert.True(t, reverts.Is(err, reverts.NotAuthorized))
}

func TestUnfundedLedger(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	owner := datagen.RandAddress()
	env := xenv.New(state.New(db), &xenv.BlockContext{}, owner)
	tok := token.New(datagen.RandAddress(), env)
	require.NoError(t, tok.Init("Pacoca", "PACOCA", nil, owner))
	ledger := New(datagen.RandAddress(), env, nil)
	require.NoError(t, ledger.Init(owner, tok.Address()))

	capability, err := ledger.Authorize(owner)
	require.NoError(t, err)
	err = ledger.SendPartnerFarmingFunds(capability, owner, pacoca.Tokens(1))
	assert.True(t, reverts.Is(err, reverts.TransferFailure))
}

func TestStepCurve(t *testing.T) {
	tests := []struct {
		minted, released uint64
	}{
		{0, 0},
		{2499, 0},
		{2500, 2500},
		{7499, 2500},
		{7500, 10000},
		{10000, 10000},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.released, DefaultCurve.Released(tt.minted), "minted %d", tt.minted)
	}
	assert.Equal(t, uint64(10000), LinearCurve{}.Released(12000))
}
