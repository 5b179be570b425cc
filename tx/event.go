// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"github.com/pacoca/pacoca/pacoca"
)

// Event represents a contract event log.
type Event struct {
	// address of the contract that generates the event
	Address pacoca.Address
	// list of topics provided by the contract.
	Topics []pacoca.Bytes32
	// supplied by the contract, usually ABI-encoded
	Data []byte
}

// Events slice of event logs.
type Events []*Event
