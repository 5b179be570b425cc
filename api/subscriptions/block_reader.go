// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"context"

	"github.com/pacoca/pacoca/runtime"
)

type blockReader struct {
	rt *runtime.Runtime
	// number of the last head sent
	last uint32
}

func newBlockReader(rt *runtime.Runtime, position uint32) *blockReader {
	return &blockReader{rt: rt, last: position}
}

// Read returns the head once it moved past the last one sent. Empty blocks
// mined in a batch collapse into a single message.
func (br *blockReader) Read(_ context.Context) ([]any, error) {
	head, err := br.rt.Block()
	if err != nil {
		return nil, err
	}
	if head.Number <= br.last {
		return nil, nil
	}
	br.last = head.Number
	return []any{&BlockMessage{
		Number:    head.Number,
		Timestamp: head.Time,
		Pending:   head.Number + 1,
	}}, nil
}
