// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package token

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pacoca/pacoca/builtin/reverts"
	"github.com/pacoca/pacoca/lvldb"
	"github.com/pacoca/pacoca/pacoca"
	"github.com/pacoca/pacoca/state"
	"github.com/pacoca/pacoca/test/datagen"
	"github.com/pacoca/pacoca/xenv"
)

func newToken(t *testing.T, owner pacoca.Address, cap *uint256.Int) *Token {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	env := xenv.New(state.New(db), &xenv.BlockContext{}, owner)
	tok := New(datagen.RandAddress(), env)
	require.NoError(t, tok.Init("Pacoca", "PACOCA", cap, owner))
	return tok
}

func mint(t *testing.T, tok *Token, owner, to pacoca.Address, amount *uint256.Int) {
	capability, err := tok.Authorize(owner)
	require.NoError(t, err)
	require.NoError(t, tok.Mint(capability, to, amount))
}

func balance(t *testing.T, tok *Token, addr pacoca.Address) *uint256.Int {
	bal, err := tok.BalanceOf(addr)
	require.NoError(t, err)
	return bal
}

func TestDeployment(t *testing.T) {
	owner := datagen.RandAddress()
	tok := newToken(t, owner, nil)

	got, err := tok.Owner()
	require.NoError(t, err)
	assert.Equal(t, owner, got)

	name, _ := tok.Name()
	symbol, _ := tok.Symbol()
	assert.Equal(t, "Pacoca", name)
	assert.Equal(t, "PACOCA", symbol)

	supply, err := tok.TotalSupply()
	require.NoError(t, err)
	assert.True(t, supply.IsZero())
}

func TestMint(t *testing.T) {
	owner, bob := datagen.RandAddress(), datagen.RandAddress()
	tok := newToken(t, owner, pacoca.Tokens(100))

	mint(t, tok, owner, bob, pacoca.Tokens(60))
	assert.Equal(t, pacoca.Tokens(60), balance(t, tok, bob))

	capability, _ := tok.Authorize(owner)
	err := tok.Mint(capability, bob, pacoca.Tokens(41))
	assert.EqualError(t, err, "ERC20Capped: cap exceeded")

	_, err = tok.Authorize(bob)
	assert.True(t, reverts.Is(err, reverts.NotAuthorized))

	supply, _ := tok.TotalSupply()
	assert.Equal(t, pacoca.Tokens(60), supply)
}

func TestTransfer(t *testing.T) {
	owner, dev, timelock := datagen.RandAddress(), datagen.RandAddress(), datagen.RandAddress()
	tok := newToken(t, owner, nil)
	mint(t, tok, owner, dev, uint256.NewInt(100000))

	require.NoError(t, tok.Transfer(dev, timelock, uint256.NewInt(50000)))
	assert.Equal(t, uint256.NewInt(50000), balance(t, tok, dev))
	assert.Equal(t, uint256.NewInt(50000), balance(t, tok, timelock))

	err := tok.Transfer(dev, timelock, uint256.NewInt(50001))
	assert.True(t, reverts.Is(err, reverts.TransferFailure))
	assert.EqualError(t, err, "ERC20: transfer amount exceeds balance")

	err = tok.Transfer(dev, pacoca.Address{}, uint256.NewInt(1))
	assert.True(t, reverts.Is(err, reverts.TransferFailure))
}

func TestTransferFrom(t *testing.T) {
	owner, bob, farm := datagen.RandAddress(), datagen.RandAddress(), datagen.RandAddress()
	tok := newToken(t, owner, nil)
	mint(t, tok, owner, bob, pacoca.Tokens(10))

	err := tok.TransferFrom(farm, bob, farm, pacoca.Tokens(1))
	assert.EqualError(t, err, "ERC20: transfer amount exceeds allowance")

	require.NoError(t, tok.IncreaseAllowance(bob, farm, pacoca.Tokens(999999)))
	require.NoError(t, tok.TransferFrom(farm, bob, farm, pacoca.Tokens(1)))

	allowance, err := tok.Allowance(bob, farm)
	require.NoError(t, err)
	assert.Equal(t, pacoca.Tokens(999998), allowance)
	assert.Equal(t, pacoca.Tokens(9), balance(t, tok, bob))
	assert.Equal(t, pacoca.Tokens(1), balance(t, tok, farm))

	// infinite approval stays infinite
	require.NoError(t, tok.Approve(bob, farm, pacoca.MaxUint256))
	require.NoError(t, tok.TransferFrom(farm, bob, farm, pacoca.Tokens(1)))
	allowance, _ = tok.Allowance(bob, farm)
	assert.Equal(t, pacoca.MaxUint256, allowance)

	require.NoError(t, tok.IncreaseAllowance(bob, farm, uint256.NewInt(1)))
	allowance, _ = tok.Allowance(bob, farm)
	assert.Equal(t, pacoca.MaxUint256, allowance, "saturates")
}

func TestTransferOwnership(t *testing.T) {
	owner, farm := datagen.RandAddress(), datagen.RandAddress()
	tok := newToken(t, owner, nil)

	capability, err := tok.Authorize(owner)
	require.NoError(t, err)
	require.NoError(t, tok.TransferOwnership(capability, farm))

	got, _ := tok.Owner()
	assert.Equal(t, farm, got)
	assert.True(t, reverts.Is(tok.Mint(capability, owner, uint256.NewInt(1)), reverts.NotAuthorized))
}

func TestEvents(t *testing.T) {
	owner, bob := datagen.RandAddress(), datagen.RandAddress()
	tok := newToken(t, owner, nil)
	mint(t, tok, owner, bob, uint256.NewInt(7))

	events := tok.env.Events()
	require.Len(t, events, 2)
	assert.Equal(t, eventOwnership.ID(), events[0].Topics[0])

	transfer := events[1]
	assert.Equal(t, tok.Address(), transfer.Address)
	assert.Equal(t, eventTransfer.ID(), transfer.Topics[0])
	assert.Equal(t, xenv.AddressTopic(pacoca.Address{}), transfer.Topics[1])
	assert.Equal(t, xenv.AddressTopic(bob), transfer.Topics[2])
}
