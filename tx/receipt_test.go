// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pacoca/pacoca/pacoca"
)

func TestReceiptRLP(t *testing.T) {
	r := &Receipt{
		Method:      "farm.deposit",
		Caller:      pacoca.Address{1},
		BlockNumber: 10,
		BlockTime:   30,
		Events: Events{
			{Address: pacoca.Address{2}, Topics: []pacoca.Bytes32{{3}}, Data: []byte{4}},
		},
	}

	data, err := rlp.EncodeToBytes(r)
	require.NoError(t, err)

	var decoded Receipt
	require.NoError(t, rlp.DecodeBytes(data, &decoded))
	assert.Equal(t, r, &decoded)
	assert.Equal(t, r.ID(), decoded.ID())

	decoded.Reverted = true
	assert.NotEqual(t, r.ID(), decoded.ID())
}
