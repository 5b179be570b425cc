// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pacoca/pacoca/pacoca"
	"github.com/pacoca/pacoca/test/datagen"
	"github.com/pacoca/pacoca/tx"
)

var (
	farmAddr  = pacoca.BytesToAddress([]byte("farm"))
	tokenAddr = pacoca.BytesToAddress([]byte("token"))
	deposit   = pacoca.Keccak256([]byte("Deposit(address,uint256,uint256)"))
	transfer  = pacoca.Keccak256([]byte("Transfer(address,address,uint256)"))
)

func newReceipt(number uint32, caller pacoca.Address) *tx.Receipt {
	user := pacoca.BytesToBytes32(caller.Bytes())
	return &tx.Receipt{
		Method:      "farm.deposit",
		Caller:      caller,
		BlockNumber: number,
		BlockTime:   uint64(number) * pacoca.BlockInterval,
		Events: tx.Events{
			{Address: tokenAddr, Topics: []pacoca.Bytes32{transfer, user, pacoca.BytesToBytes32(farmAddr.Bytes())}, Data: []byte{1}},
			{Address: farmAddr, Topics: []pacoca.Bytes32{deposit, user, {}}, Data: []byte{2}},
		},
	}
}

func newDB(t *testing.T) *LogDB {
	db, err := NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func write(t *testing.T, db *LogDB, receipts ...*tx.Receipt) {
	w := db.NewWriter()
	require.NoError(t, w.Write(receipts))
	require.NoError(t, w.Commit())
}

func TestWriteAndFilter(t *testing.T) {
	db := newDB(t)
	bob, alice := datagen.RandAddress(), datagen.RandAddress()

	var receipts tx.Receipts
	for i := uint32(1); i <= 10; i++ {
		caller := bob
		if i%2 == 0 {
			caller = alice
		}
		receipts = append(receipts, newReceipt(i, caller))
	}
	reverted := newReceipt(11, bob)
	reverted.Reverted = true
	receipts = append(receipts, reverted)

	w := db.NewWriter()
	require.NoError(t, w.Write(receipts))
	assert.Equal(t, 20, w.UncommittedCount())
	require.NoError(t, w.Commit())
	assert.Equal(t, 0, w.UncommittedCount())

	// the reverted receipt of block 11 is skipped entirely
	newest, err := db.NewestBlock()
	require.NoError(t, err)
	assert.Equal(t, uint32(10), newest)

	ctx := context.Background()

	all, err := db.FilterEvents(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 20)
	assert.Equal(t, uint32(1), all[0].BlockNumber)
	assert.Equal(t, uint32(0), all[0].Index)
	assert.Equal(t, uint32(1), all[1].Index)
	assert.Equal(t, tokenAddr, all[0].Address)
	assert.Equal(t, receipts[0].ID(), all[0].ReceiptID)
	assert.Equal(t, "farm.deposit", all[0].Method)
	assert.Equal(t, bob, all[0].Caller)
	assert.Equal(t, transfer, *all[0].Topics[0])
	assert.Nil(t, all[0].Topics[3])
	assert.Equal(t, []byte{1}, all[0].Data)

	events, err := db.FilterEvents(ctx, &EventFilter{
		CriteriaSet: []*EventCriteria{{Address: &farmAddr}},
	})
	require.NoError(t, err)
	assert.Len(t, events, 10)
	for _, ev := range events {
		assert.Equal(t, farmAddr, ev.Address)
	}

	aliceTopic := pacoca.BytesToBytes32(alice.Bytes())
	events, err = db.FilterEvents(ctx, &EventFilter{
		CriteriaSet: []*EventCriteria{{Address: &farmAddr, Topics: [MaxTopics]*pacoca.Bytes32{&deposit, &aliceTopic}}},
		Order:       DESC,
	})
	require.NoError(t, err)
	require.Len(t, events, 5)
	assert.Equal(t, uint32(10), events[0].BlockNumber)
	assert.Equal(t, uint32(2), events[4].BlockNumber)

	events, err = db.FilterEvents(ctx, &EventFilter{
		CriteriaSet: []*EventCriteria{{Caller: &bob, Address: &tokenAddr}, {Caller: &alice, Address: &farmAddr}},
	})
	require.NoError(t, err)
	require.Len(t, events, 10)
	for _, ev := range events {
		if ev.Caller == bob {
			assert.Equal(t, tokenAddr, ev.Address)
		} else {
			assert.Equal(t, farmAddr, ev.Address)
		}
	}

	events, err = db.FilterEvents(ctx, &EventFilter{
		Range:   &Range{Unit: Block, From: 3, To: 5},
		Options: &Options{Offset: 1, Limit: 3},
	})
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, uint32(3), events[0].BlockNumber)
	assert.Equal(t, uint32(1), events[0].Index)
	assert.Equal(t, uint32(4), events[2].BlockNumber)

	events, err = db.FilterEvents(ctx, &EventFilter{
		Range: &Range{Unit: Time, From: 27, To: 30},
	})
	require.NoError(t, err)
	require.Len(t, events, 4)
	assert.Equal(t, uint32(9), events[0].BlockNumber)

	events, err = db.FilterEvents(ctx, &EventFilter{
		Range: &Range{Unit: Block, From: 8, To: 2},
	})
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestTruncate(t *testing.T) {
	db := newDB(t)
	bob := datagen.RandAddress()
	write(t, db, newReceipt(1, bob), newReceipt(2, bob), newReceipt(3, bob))

	w := db.NewWriter()
	require.NoError(t, w.Truncate(2))
	require.NoError(t, w.Commit())

	events, err := db.FilterEvents(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, events, 2)

	newest, err := db.NewestBlock()
	require.NoError(t, err)
	assert.Equal(t, uint32(1), newest)
}

func TestRollback(t *testing.T) {
	db := newDB(t)
	w := db.NewWriter()
	require.NoError(t, w.Write(tx.Receipts{newReceipt(1, datagen.RandAddress())}))
	require.NoError(t, w.Rollback())

	events, err := db.FilterEvents(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, events)

	newest, err := db.NewestBlock()
	require.NoError(t, err)
	assert.Zero(t, newest)
}

func TestPersistent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs.db")
	db, err := New(path)
	require.NoError(t, err)
	write(t, db, newReceipt(7, datagen.RandAddress()))
	require.NoError(t, db.Close())

	db, err = New(path)
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, path, db.Path())

	newest, err := db.NewestBlock()
	require.NoError(t, err)
	assert.Equal(t, uint32(7), newest)
}
