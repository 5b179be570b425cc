// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/pacoca/pacoca/cache"
	"github.com/pacoca/pacoca/kv"
)

// Stater is the state creator.
// States created by the same stater share one read cache, which committed stages keep current.
type Stater struct {
	store kv.Store
	cache *cache.LRU
}

// NewStater create a new stater.
func NewStater(store kv.Store) *Stater {
	lru, _ := cache.NewLRU(cacheSize)
	return &Stater{store, lru}
}

// NewState create a new state object.
func (s *Stater) NewState() *State {
	return newState(s.store, s.cache)
}

// Store returns the backing store.
func (s *Stater) Store() kv.Store {
	return s.store
}
