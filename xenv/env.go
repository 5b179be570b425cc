// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package xenv

import (
	"github.com/pkg/errors"

	"github.com/pacoca/pacoca/abi"
	"github.com/pacoca/pacoca/pacoca"
	"github.com/pacoca/pacoca/state"
	"github.com/pacoca/pacoca/tx"
)

// BlockContext block context.
type BlockContext struct {
	Number uint32
	Time   uint64
}

// Environment an env to execute built-in contract methods.
type Environment struct {
	state    *state.State
	blockCtx *BlockContext
	caller   pacoca.Address
	events   tx.Events
}

// New create a new env.
func New(state *state.State, blockCtx *BlockContext, caller pacoca.Address) *Environment {
	return &Environment{
		state:    state,
		blockCtx: blockCtx,
		caller:   caller,
	}
}

func (env *Environment) State() *state.State        { return env.state }
func (env *Environment) BlockContext() *BlockContext { return env.blockCtx }
func (env *Environment) Caller() pacoca.Address      { return env.caller }
func (env *Environment) Events() tx.Events           { return env.events }

// Log records an event emitted by the contract at address.
// topics are the indexed arguments, args the remaining ones in declaration order.
func (env *Environment) Log(event *abi.Event, address pacoca.Address, topics []pacoca.Bytes32, args ...any) error {
	if len(topics) != event.Indexed() {
		return errors.Errorf("event %s: want %d topics, got %d", event.Name(), event.Indexed(), len(topics))
	}
	data, err := event.Encode(args...)
	if err != nil {
		return errors.WithMessage(err, "encode event")
	}
	all := make([]pacoca.Bytes32, 0, len(topics)+1)
	all = append(all, event.ID())
	all = append(all, topics...)

	env.events = append(env.events, &tx.Event{
		Address: address,
		Topics:  all,
		Data:    data,
	})
	return nil
}

// AddressTopic pads an address into a topic.
func AddressTopic(addr pacoca.Address) pacoca.Bytes32 {
	return pacoca.BytesToBytes32(addr.Bytes())
}

// Uint64Topic encodes n as a topic.
func Uint64Topic(n uint64) pacoca.Bytes32 {
	return pacoca.BytesToBytes32(pacoca.Uint64Bytes(n))
}
