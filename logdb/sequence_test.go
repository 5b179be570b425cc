// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequence(t *testing.T) {
	tests := []struct {
		name     string
		blockNum uint32
		index    uint32
	}{
		{"regular", 1, 2},
		{"max bn", math.MaxUint32, 1},
		{"max index", 5, math.MaxInt32},
		{"both max", math.MaxUint32, math.MaxInt32},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newSequence(tt.blockNum, tt.index)
			assert.Equal(t, tt.blockNum, got.BlockNumber())
			assert.Equal(t, tt.index, got.Index())
			assert.True(t, got >= 0)
		})
	}

	assert.Less(t, newSequence(1, math.MaxInt32), newSequence(2, 0))
	assert.Panics(t, func() { newSequence(1, math.MaxInt32+1) })
}
