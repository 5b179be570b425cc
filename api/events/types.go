// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"fmt"
	"math"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/pacoca/pacoca/abi"
	"github.com/pacoca/pacoca/builtin/allocation"
	"github.com/pacoca/pacoca/builtin/farm"
	"github.com/pacoca/pacoca/builtin/strategy"
	"github.com/pacoca/pacoca/builtin/timelock"
	"github.com/pacoca/pacoca/builtin/token"
	"github.com/pacoca/pacoca/logdb"
	"github.com/pacoca/pacoca/pacoca"
)

type EventCriteria struct {
	Address *pacoca.Address `json:"address"`
	Caller  *pacoca.Address `json:"caller"`
	Topic0  *pacoca.Bytes32 `json:"topic0"`
	Topic1  *pacoca.Bytes32 `json:"topic1"`
	Topic2  *pacoca.Bytes32 `json:"topic2"`
	Topic3  *pacoca.Bytes32 `json:"topic3"`
}

type Range struct {
	Unit string  `json:"unit"`
	From *uint64 `json:"from,omitempty"`
	To   *uint64 `json:"to,omitempty"`
}

type Options struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

type EventFilter struct {
	CriteriaSet []*EventCriteria `json:"criteriaSet"`
	Range       *Range           `json:"range"`
	Options     *Options         `json:"options"`
	Order       logdb.Order      `json:"order"`
}

type LogMeta struct {
	BlockNumber    uint32         `json:"blockNumber"`
	BlockTimestamp uint64         `json:"blockTimestamp"`
	ReceiptID      pacoca.Bytes32 `json:"receiptID"`
	Method         string         `json:"method"`
	Caller         pacoca.Address `json:"caller"`
	Index          uint32         `json:"index"`
}

type FilteredEvent struct {
	Address pacoca.Address    `json:"address"`
	Topics  []*pacoca.Bytes32 `json:"topics"`
	Data    string            `json:"data"`
	// Name and Args are set when the event is declared by one of the contracts.
	Name string         `json:"name,omitempty"`
	Args map[string]any `json:"args,omitempty"`
	Meta LogMeta        `json:"meta"`
}

// known lists the ABIs events are decoded with. Events shared by several contracts,
// such as OwnershipTransferred, have the same id in each.
var known = []*abi.ABI{farm.ABI, token.ABI, allocation.ABI, strategy.ABI, timelock.ABI}

func lookupEvent(id pacoca.Bytes32) (*abi.Event, bool) {
	for _, a := range known {
		if ev, ok := a.EventByID(id); ok {
			return ev, true
		}
	}
	return nil, false
}

func convertRange(r *Range) (*logdb.Range, error) {
	if r == nil {
		return nil, nil
	}
	res := &logdb.Range{Unit: logdb.RangeType(r.Unit), To: math.MaxUint64}
	switch res.Unit {
	case "":
		res.Unit = logdb.Block
	case logdb.Block, logdb.Time:
	default:
		return nil, fmt.Errorf("unit: unsupported %q", r.Unit)
	}
	if r.From != nil {
		res.From = *r.From
	}
	if r.To != nil {
		res.To = *r.To
	}
	if res.From > res.To {
		return nil, fmt.Errorf("to must be greater than or equal to from")
	}
	return res, nil
}

func convertEventFilter(ef *EventFilter) (*logdb.EventFilter, error) {
	rng, err := convertRange(ef.Range)
	if err != nil {
		return nil, err
	}
	f := &logdb.EventFilter{Range: rng, Order: ef.Order}
	if ef.Options != nil {
		f.Options = &logdb.Options{Offset: ef.Options.Offset, Limit: ef.Options.Limit}
	}
	for i, c := range ef.CriteriaSet {
		if c == nil {
			return nil, fmt.Errorf("criteriaSet[%d]: null not allowed", i)
		}
		f.CriteriaSet = append(f.CriteriaSet, &logdb.EventCriteria{
			Address: c.Address,
			Caller:  c.Caller,
			Topics:  [logdb.MaxTopics]*pacoca.Bytes32{c.Topic0, c.Topic1, c.Topic2, c.Topic3},
		})
	}
	return f, nil
}

// ConvertEvent renders a stored event, decoding it when one of the contracts declares it.
func ConvertEvent(e *logdb.Event) *FilteredEvent {
	fe := &FilteredEvent{
		Address: e.Address,
		Data:    hexutil.Encode(e.Data),
		Meta: LogMeta{
			BlockNumber:    e.BlockNumber,
			BlockTimestamp: e.BlockTime,
			ReceiptID:      e.ReceiptID,
			Method:         e.Method,
			Caller:         e.Caller,
			Index:          e.Index,
		},
	}
	for _, topic := range e.Topics {
		if topic != nil {
			fe.Topics = append(fe.Topics, topic)
		}
	}
	if len(fe.Topics) > 0 {
		if ev, ok := lookupEvent(*fe.Topics[0]); ok {
			fe.Name = ev.Name()
			if args, err := ev.Decode(e.Data); err == nil && len(args) > 0 {
				fe.Args = args
			}
		}
	}
	return fe
}
