// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"io"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/pacoca/pacoca/pacoca"
)

// Receipt represents the result of one executed call.
type Receipt struct {
	// the call, e.g. "farm.deposit"
	Method      string
	Caller      pacoca.Address
	BlockNumber uint32
	BlockTime   uint64
	// Reverted is set when the call failed and all of its effects were discarded.
	Reverted bool
	Reason   string
	Events   Events
}

// ID identifies the receipt by its content.
func (r *Receipt) ID() pacoca.Bytes32 {
	return pacoca.Blake2bFn(func(w io.Writer) {
		rlp.Encode(w, r)
	})
}

// Receipts slice of receipts.
type Receipts []*Receipt
