// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package logdb stores the events of executed calls in sqlite for filtered queries.
package logdb

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/pacoca/pacoca/log"
	"github.com/pacoca/pacoca/pacoca"
	"github.com/pacoca/pacoca/tx"
)

var logger = log.WithContext("pkg", "logdb")

type LogDB struct {
	path          string
	db            *sql.DB
	driverVersion string
	stmtCache     *stmtCache
}

// New create or open log db at given path.
func New(path string) (logDB *LogDB, err error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	defer func() {
		if logDB == nil {
			db.Close()
		}
	}()

	// sqlite handles one writer at a time
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(configTableSchema + eventTableSchema); err != nil {
		return nil, errors.Wrap(err, "create schema")
	}

	driverVer, _, _ := sqlite3.Version()
	logger.Debug("log db opened", "path", path, "sqlite", driverVer)
	return &LogDB{
		path:          path,
		db:            db,
		driverVersion: driverVer,
		stmtCache:     newStmtCache(db),
	}, nil
}

// NewMem create a log db in ram.
func NewMem() (*LogDB, error) {
	return New(":memory:")
}

// Close close the log db.
func (db *LogDB) Close() error {
	db.stmtCache.Clear()
	return db.db.Close()
}

func (db *LogDB) Path() string {
	return db.path
}

func (db *LogDB) FilterEvents(ctx context.Context, filter *EventFilter) ([]*Event, error) {
	if filter == nil {
		return db.queryEvents(ctx, "SELECT * FROM event ORDER BY seq ASC")
	}
	metricsHandleEventsFilter(filter)

	var (
		args []any
		stmt strings.Builder
	)
	stmt.WriteString("SELECT * FROM event WHERE 1")

	if r := filter.Range; r != nil {
		if r.Unit == Time {
			stmt.WriteString(" AND blockTime >= ? AND blockTime <= ?")
			args = append(args, clampInt64(r.From), clampInt64(r.To))
		} else {
			from, to := blockRange(r)
			if from > to {
				return nil, nil
			}
			stmt.WriteString(" AND seq >= ? AND seq <= ?")
			args = append(args, int64(newSequence(from, 0)), int64(newSequence(to, math.MaxInt32)))
		}
	}

	if len(filter.CriteriaSet) > 0 {
		stmt.WriteString(" AND (")
		for i, criteria := range filter.CriteriaSet {
			if i > 0 {
				stmt.WriteString(" OR ")
			}
			stmt.WriteString("(1")
			if criteria.Address != nil {
				stmt.WriteString(" AND address = ?")
				args = append(args, criteria.Address.Bytes())
			}
			if criteria.Caller != nil {
				stmt.WriteString(" AND caller = ?")
				args = append(args, criteria.Caller.Bytes())
			}
			for j, topic := range criteria.Topics {
				if topic != nil {
					fmt.Fprintf(&stmt, " AND topic%d = ?", j)
					args = append(args, topic.Bytes())
				}
			}
			stmt.WriteString(")")
		}
		stmt.WriteString(")")
	}

	if filter.Order == DESC {
		stmt.WriteString(" ORDER BY seq DESC")
	} else {
		stmt.WriteString(" ORDER BY seq ASC")
	}

	if filter.Options != nil {
		stmt.WriteString(" LIMIT ?, ?")
		args = append(args, clampInt64(filter.Options.Offset), clampInt64(filter.Options.Limit))
	}
	return db.queryEvents(ctx, stmt.String(), args...)
}

// clampInt64 caps v for sqlite, which has no unsigned 64-bit integers.
func clampInt64(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}

func blockRange(r *Range) (uint32, uint32) {
	from, to := r.From, r.To
	if from > math.MaxUint32 {
		return 1, 0
	}
	if to > math.MaxUint32 {
		to = math.MaxUint32
	}
	return uint32(from), uint32(to)
}

func (db *LogDB) queryEvents(ctx context.Context, query string, args ...any) ([]*Event, error) {
	stmt, err := db.stmtCache.Prepare(query)
	if err != nil {
		return nil, err
	}
	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var (
			seq       sequence
			blockTime uint64
			receiptID []byte
			method    string
			caller    []byte
			address   []byte
			topics    [MaxTopics][]byte
			data      []byte
		)
		if err := rows.Scan(
			&seq,
			&blockTime,
			&receiptID,
			&method,
			&caller,
			&address,
			&topics[0],
			&topics[1],
			&topics[2],
			&topics[3],
			&data,
		); err != nil {
			return nil, err
		}
		event := &Event{
			BlockNumber: seq.BlockNumber(),
			Index:       seq.Index(),
			BlockTime:   blockTime,
			ReceiptID:   pacoca.BytesToBytes32(receiptID),
			Method:      method,
			Caller:      pacoca.BytesToAddress(caller),
			Address:     pacoca.BytesToAddress(address),
			Data:        data,
		}
		for i, topic := range topics {
			if len(topic) > 0 {
				h := pacoca.BytesToBytes32(topic)
				event.Topics[i] = &h
			}
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// NewestBlock returns the highest block with written logs.
func (db *LogDB) NewestBlock() (uint32, error) {
	var data []byte
	row := db.stmtCache.MustPrepare("SELECT value FROM config WHERE key = ?").QueryRow(configNewestBlockKey)
	if err := row.Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, err
	}
	if len(data) != 4 {
		return 0, errors.New("corrupted newest block")
	}
	return binary.BigEndian.Uint32(data), nil
}

// NewWriter creates a log writer.
func (db *LogDB) NewWriter() Writer {
	return &writer{db: db.db}
}

type writer struct {
	db     *sql.DB
	tx     *sql.Tx
	len    int
	newest uint32
}

func topicValue(topic *pacoca.Bytes32) []byte {
	if topic == nil {
		return nil
	}
	return topic.Bytes()
}

func (w *writer) exec(query string, args ...any) error {
	if w.tx == nil {
		tx, err := w.db.Begin()
		if err != nil {
			return err
		}
		w.tx = tx
	}
	_, err := w.tx.Exec(query, args...)
	return err
}

func (w *writer) Write(receipts tx.Receipts) error {
	indexes := make(map[uint32]uint32)
	for _, receipt := range receipts {
		if receipt.Reverted {
			continue
		}
		id := receipt.ID()
		for _, txEvent := range receipt.Events {
			index := indexes[receipt.BlockNumber]
			indexes[receipt.BlockNumber]++
			ev := newEvent(receipt, id, index, txEvent)
			if err := w.exec(
				"INSERT OR REPLACE INTO event(seq, blockTime, receiptID, method, caller, address, topic0, topic1, topic2, topic3, data) VALUES(?,?,?,?,?,?,?,?,?,?,?)",
				int64(newSequence(ev.BlockNumber, ev.Index)),
				ev.BlockTime,
				ev.ReceiptID.Bytes(),
				ev.Method,
				ev.Caller.Bytes(),
				ev.Address.Bytes(),
				topicValue(ev.Topics[0]),
				topicValue(ev.Topics[1]),
				topicValue(ev.Topics[2]),
				topicValue(ev.Topics[3]),
				ev.Data,
			); err != nil {
				return errors.Wrap(err, "insert event")
			}
			w.len++
		}
		if receipt.BlockNumber > w.newest {
			w.newest = receipt.BlockNumber
		}
	}
	if w.newest > 0 {
		var buf [4]byte
		binary.BigEndian.PutUint32(buf[:], w.newest)
		if err := w.exec("INSERT OR REPLACE INTO config(key, value) VALUES(?,?)", configNewestBlockKey, buf[:]); err != nil {
			return errors.Wrap(err, "update newest block")
		}
	}
	return nil
}

func (w *writer) Commit() error {
	if w.tx == nil {
		return nil
	}
	err := w.tx.Commit()
	w.tx, w.len = nil, 0
	return err
}

func (w *writer) Rollback() error {
	if w.tx == nil {
		return nil
	}
	err := w.tx.Rollback()
	w.tx, w.len, w.newest = nil, 0, 0
	return err
}

func (w *writer) Truncate(blockNum uint32) error {
	if err := w.exec("DELETE FROM event WHERE seq >= ?", int64(newSequence(blockNum, 0))); err != nil {
		return err
	}
	if blockNum > 0 {
		blockNum--
	}
	w.newest = blockNum
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], blockNum)
	return w.exec("INSERT OR REPLACE INTO config(key, value) VALUES(?,?)", configNewestBlockKey, buf[:])
}

func (w *writer) UncommittedCount() int {
	return w.len
}
