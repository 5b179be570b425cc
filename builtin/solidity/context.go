// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"github.com/pacoca/pacoca/pacoca"
	"github.com/pacoca/pacoca/state"
)

// Context binds storage variables to one contract account.
type Context struct {
	address pacoca.Address
	state   *state.State
}

func NewContext(address pacoca.Address, state *state.State) *Context {
	return &Context{
		address: address,
		state:   state,
	}
}

func (c *Context) Address() pacoca.Address {
	return c.address
}

func (c *Context) State() *state.State {
	return c.state
}
