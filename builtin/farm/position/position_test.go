// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package position

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pacoca/pacoca/builtin/reverts"
	"github.com/pacoca/pacoca/builtin/solidity"
	"github.com/pacoca/pacoca/lvldb"
	"github.com/pacoca/pacoca/pacoca"
	"github.com/pacoca/pacoca/state"
	"github.com/pacoca/pacoca/test/datagen"
)

func newSvc(t *testing.T) *Service {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	return New(solidity.NewContext(datagen.RandAddress(), state.New(db)))
}

func TestPending(t *testing.T) {
	p := newPosition()
	require.NoError(t, p.Add(pacoca.Tokens(1)))
	require.NoError(t, p.Sync(pacoca.Tokens(22)))
	assert.Equal(t, pacoca.Tokens(22), p.RewardDebt)

	pending, err := p.Pending(pacoca.Tokens(23))
	require.NoError(t, err)
	assert.Equal(t, pacoca.Tokens(1), pending)

	pending, err = p.Pending(pacoca.Tokens(22))
	require.NoError(t, err)
	assert.True(t, pending.IsZero())
}

func TestPendingTruncates(t *testing.T) {
	p := newPosition()
	require.NoError(t, p.Add(uint256.NewInt(3)))

	// 3 * 0.5e18 / 1e18 = 1.5, truncated
	pending, err := p.Pending(uint256.NewInt(5e17))
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(1), pending)
}

func TestSub(t *testing.T) {
	p := newPosition()
	require.NoError(t, p.Add(pacoca.Tokens(2)))

	err := p.Sub(pacoca.Tokens(3))
	assert.True(t, reverts.Is(err, reverts.InsufficientStake))
	assert.Equal(t, pacoca.Tokens(2), p.Amount)

	require.NoError(t, p.Sub(pacoca.Tokens(2)))
	assert.True(t, p.IsEmpty())
}

func TestService(t *testing.T) {
	svc := newSvc(t)
	user := datagen.RandAddress()

	p, err := svc.Get(0, user)
	require.NoError(t, err)
	assert.True(t, p.IsEmpty())
	assert.True(t, p.RewardDebt.IsZero())

	require.NoError(t, p.Add(pacoca.Tokens(5)))
	require.NoError(t, p.Sync(pacoca.Tokens(2)))
	require.NoError(t, svc.Set(0, user, p))

	got, err := svc.Get(0, user)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	other, err := svc.Get(1, user)
	require.NoError(t, err)
	assert.True(t, other.IsEmpty(), "positions are per pool")
}
