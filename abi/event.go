// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package abi

import (
	ethabi "github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/pacoca/pacoca/pacoca"
)

// Event see abi.Event in go-ethereum.
type Event struct {
	id                 pacoca.Bytes32
	event              *ethabi.Event
	argsWithoutIndexed ethabi.Arguments
}

func newEvent(event *ethabi.Event) *Event {
	var argsWithoutIndexed ethabi.Arguments
	for _, arg := range event.Inputs {
		if !arg.Indexed {
			argsWithoutIndexed = append(argsWithoutIndexed, arg)
		}
	}
	return &Event{
		pacoca.Bytes32(event.ID),
		event,
		argsWithoutIndexed,
	}
}

// ID returns event id.
func (e *Event) ID() pacoca.Bytes32 {
	return e.id
}

// Name returns event name.
func (e *Event) Name() string {
	return e.event.Name
}

// Signature returns the canonical signature, e.g. Transfer(address,address,uint256).
func (e *Event) Signature() string {
	return e.event.Sig
}

// Indexed returns the number of indexed arguments, which are carried as topics.
func (e *Event) Indexed() int {
	return len(e.event.Inputs) - len(e.argsWithoutIndexed)
}

// Encode encodes args to data.
func (e *Event) Encode(args ...any) ([]byte, error) {
	return e.argsWithoutIndexed.Pack(args...)
}

// Decode decodes event data into a map keyed by argument name.
func (e *Event) Decode(data []byte) (map[string]any, error) {
	out := make(map[string]any)
	if err := e.argsWithoutIndexed.UnpackIntoMap(out, data); err != nil {
		return nil, err
	}
	return out, nil
}
