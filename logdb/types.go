// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"github.com/pacoca/pacoca/pacoca"
	"github.com/pacoca/pacoca/tx"
)

// MaxTopics is the number of topics indexed per event: the event id plus three indexed arguments.
const MaxTopics = 4

// Event represents tx.Event that can be stored in db.
type Event struct {
	BlockNumber uint32
	Index       uint32
	BlockTime   uint64
	ReceiptID   pacoca.Bytes32
	Method      string
	Caller      pacoca.Address
	Address     pacoca.Address // contract that emitted the event
	Topics      [MaxTopics]*pacoca.Bytes32
	Data        []byte
}

func newEvent(receipt *tx.Receipt, receiptID pacoca.Bytes32, index uint32, txEvent *tx.Event) *Event {
	ev := &Event{
		BlockNumber: receipt.BlockNumber,
		Index:       index,
		BlockTime:   receipt.BlockTime,
		ReceiptID:   receiptID,
		Method:      receipt.Method,
		Caller:      receipt.Caller,
		Address:     txEvent.Address,
		Data:        txEvent.Data,
	}
	for i := 0; i < len(txEvent.Topics) && i < len(ev.Topics); i++ {
		topic := txEvent.Topics[i]
		ev.Topics[i] = &topic
	}
	return ev
}

type RangeType string

const (
	Block RangeType = "block"
	Time  RangeType = "time"
)

type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

// Range is inclusive on both ends.
type Range struct {
	Unit RangeType
	From uint64
	To   uint64
}

type Options struct {
	Offset uint64
	Limit  uint64
}

// EventCriteria fields are combined with AND; nil fields match anything.
type EventCriteria struct {
	Address *pacoca.Address
	Caller  *pacoca.Address
	Topics  [MaxTopics]*pacoca.Bytes32
}

// EventFilter matches events satisfying any of CriteriaSet within Range.
type EventFilter struct {
	CriteriaSet []*EventCriteria
	Range       *Range
	Options     *Options
	Order       Order // default asc
}
