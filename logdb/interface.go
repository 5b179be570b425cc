// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"context"

	"github.com/pacoca/pacoca/tx"
)

// Reader is the query side of the event log.
type Reader interface {
	// FilterEvents filters events based on the given criteria.
	FilterEvents(ctx context.Context, filter *EventFilter) ([]*Event, error)

	// NewestBlock returns the highest block with written logs.
	NewestBlock() (uint32, error)
}

// Writer defines the interface for transactional log writing operations.
type Writer interface {
	// Write writes the events of the given receipts. Reverted receipts are skipped
	// and do not move the newest block.
	Write(receipts tx.Receipts) error

	// Commit commits accumulated logs.
	Commit() error

	// Rollback rollbacks all uncommitted logs.
	Rollback() error

	// Truncate deletes logs from blockNum (included) onwards.
	Truncate(blockNum uint32) error

	// UncommittedCount returns the count of uncommitted logs.
	UncommittedCount() int
}
