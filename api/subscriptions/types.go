// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"github.com/pacoca/pacoca/api/events"
	"github.com/pacoca/pacoca/pacoca"
)

// BlockMessage is sent each time the head moves.
type BlockMessage struct {
	Number    uint32 `json:"number"`
	Timestamp uint64 `json:"timestamp"`
	// Pending is the block the next call executes in.
	Pending uint32 `json:"pending"`
}

// EventMessage is a committed event matching the subscription filter.
type EventMessage = events.FilteredEvent

// EventFilter is parsed from the query of an event subscription.
type EventFilter struct {
	Address *pacoca.Address
	Caller  *pacoca.Address
	Topic0  *pacoca.Bytes32
	Topic1  *pacoca.Bytes32
	Topic2  *pacoca.Bytes32
	Topic3  *pacoca.Bytes32
}
