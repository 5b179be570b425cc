// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"io"
	"sort"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/pacoca/pacoca/cache"
	"github.com/pacoca/pacoca/kv"
	"github.com/pacoca/pacoca/pacoca"
)

// Stage abstracts changes on contract storage.
type Stage struct {
	changes map[storageKey]rlp.RawValue
	cache   *cache.LRU
}

// Len returns the number of changed slots.
func (s *Stage) Len() int {
	return len(s.changes)
}

func (s *Stage) sortedKeys() []storageKey {
	keys := make([]storageKey, 0, len(s.changes))
	for k := range s.changes {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i].dbKey(), keys[j].dbKey()) < 0
	})
	return keys
}

// Hash computes the digest of the staged changes, ordered by key.
func (s *Stage) Hash() pacoca.Bytes32 {
	keys := s.sortedKeys()
	return pacoca.Blake2bFn(func(w io.Writer) {
		for _, k := range keys {
			w.Write(k.dbKey())
			w.Write(s.changes[k])
		}
	})
}

// Commit writes staged changes into the store in one batch. Empty values delete the slot.
func (s *Stage) Commit(store kv.Store) error {
	batch := StorageBucket.NewBatch(store.NewBatch())
	keys := s.sortedKeys()
	for _, k := range keys {
		v := s.changes[k]
		var err error
		if len(v) == 0 {
			err = batch.Delete(k.dbKey())
		} else {
			err = batch.Put(k.dbKey(), v)
		}
		if err != nil {
			return errors.Wrap(err, "stage storage")
		}
	}
	if err := batch.Write(); err != nil {
		return errors.Wrap(err, "commit storage")
	}
	for _, k := range keys {
		s.cache.Add(k, s.changes[k])
	}
	return nil
}
