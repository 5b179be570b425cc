// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"context"

	"github.com/pacoca/pacoca/api/events"
	"github.com/pacoca/pacoca/logdb"
	"github.com/pacoca/pacoca/pacoca"
)

type eventReader struct {
	db       logdb.Reader
	criteria *logdb.EventCriteria
	// logs of blocks up to position were sent
	position uint32
}

func newEventReader(db logdb.Reader, position uint32, filter *EventFilter) *eventReader {
	return &eventReader{
		db: db,
		criteria: &logdb.EventCriteria{
			Address: filter.Address,
			Caller:  filter.Caller,
			Topics:  [logdb.MaxTopics]*pacoca.Bytes32{filter.Topic0, filter.Topic1, filter.Topic2, filter.Topic3},
		},
		position: position,
	}
}

// Read returns the events committed since the last read.
func (er *eventReader) Read(ctx context.Context) ([]any, error) {
	newest, err := er.db.NewestBlock()
	if err != nil {
		return nil, err
	}
	if newest <= er.position {
		return nil, nil
	}
	evs, err := er.db.FilterEvents(ctx, &logdb.EventFilter{
		CriteriaSet: []*logdb.EventCriteria{er.criteria},
		Range: &logdb.Range{
			Unit: logdb.Block,
			From: uint64(er.position) + 1,
			To:   uint64(newest),
		},
		Order: logdb.ASC,
	})
	if err != nil {
		return nil, err
	}
	er.position = newest

	msgs := make([]any, 0, len(evs))
	for _, ev := range evs {
		msgs = append(msgs, events.ConvertEvent(ev))
	}
	return msgs, nil
}
