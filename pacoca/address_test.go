// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pacoca

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	lower, err := ParseAddress("0xbb4cdb9cbd36b01bd1cbaebf2de08d9173bc095c")
	require.NoError(t, err)
	mixed, err := ParseAddress("0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c")
	require.NoError(t, err)
	assert.Equal(t, lower, mixed)

	noPrefix, err := ParseAddress("bb4cdb9cbd36b01bd1cbaebf2de08d9173bc095c")
	require.NoError(t, err)
	assert.Equal(t, lower, noPrefix)

	_, err = ParseAddress("0x1234")
	assert.EqualError(t, err, "invalid length")

	_, err = ParseAddress("1xbb4cdb9cbd36b01bd1cbaebf2de08d9173bc095c")
	assert.EqualError(t, err, "invalid prefix")
}

func TestAddressJSON(t *testing.T) {
	addr := BytesToAddress([]byte("farm"))
	data, err := json.Marshal(&addr)
	require.NoError(t, err)
	assert.Equal(t, `"`+addr.String()+`"`, string(data))

	var decoded Address
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, addr, decoded)
}

func TestCreateContractAddress(t *testing.T) {
	deployer := BytesToAddress([]byte("dev"))
	a0 := CreateContractAddress(deployer, 0)
	a1 := CreateContractAddress(deployer, 1)
	assert.NotEqual(t, a0, a1)
	assert.Equal(t, a0, CreateContractAddress(deployer, 0))
	assert.False(t, a0.IsZero())
}

func TestParseAmount(t *testing.T) {
	v, err := ParseAmount("1000000000000000000")
	require.NoError(t, err)
	assert.Equal(t, Tokens(1), v)

	v, err = ParseAmount("0xde0b6b3a7640000")
	require.NoError(t, err)
	assert.Equal(t, Tokens(1), v)

	_, err = ParseAmount("one")
	assert.Error(t, err)
}
