// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package ownable implements single-owner administration for built-in contracts.
// Privileged operations do not take a raw caller address. They take a *Capability,
// which can only be obtained from Ownable.Authorize by the current owner.
package ownable

import (
	"github.com/pkg/errors"

	"github.com/pacoca/pacoca/builtin/reverts"
	"github.com/pacoca/pacoca/builtin/solidity"
	"github.com/pacoca/pacoca/pacoca"
)

var slotOwner = pacoca.BytesToBytes32([]byte("owner"))

const reasonNotOwner = "Ownable: caller is not the owner"

// Ownable stores the owner of one contract.
type Ownable struct {
	contract pacoca.Address
	owner    *solidity.Address
}

func New(sctx *solidity.Context) *Ownable {
	return &Ownable{
		contract: sctx.Address(),
		owner:    solidity.NewAddress(sctx, slotOwner),
	}
}

func (o *Ownable) Owner() (pacoca.Address, error) {
	owner, err := o.owner.Get()
	if err != nil {
		return pacoca.Address{}, errors.Wrap(err, "failed to get owner")
	}
	return owner, nil
}

// Init sets the first owner. It is a no-op when an owner is already set.
func (o *Ownable) Init(owner pacoca.Address) error {
	current, err := o.Owner()
	if err != nil {
		return err
	}
	if current.IsZero() {
		o.owner.Set(&owner)
	}
	return nil
}

// Authorize grants a capability to caller if it is the owner.
func (o *Ownable) Authorize(caller pacoca.Address) (*Capability, error) {
	owner, err := o.Owner()
	if err != nil {
		return nil, err
	}
	if owner.IsZero() || owner != caller {
		return nil, reverts.New(reverts.NotAuthorized, reasonNotOwner)
	}
	return &Capability{contract: o.contract, holder: caller}, nil
}

// Check verifies that capability was granted by this contract to its current owner.
func (o *Ownable) Check(capability *Capability) error {
	if capability == nil || capability.contract != o.contract {
		return reverts.New(reverts.NotAuthorized, reasonNotOwner)
	}
	owner, err := o.Owner()
	if err != nil {
		return err
	}
	if owner != capability.holder {
		return reverts.New(reverts.NotAuthorized, reasonNotOwner)
	}
	return nil
}

// TransferOwnership hands the contract to newOwner. The capability is spent.
func (o *Ownable) TransferOwnership(capability *Capability, newOwner pacoca.Address) error {
	if err := o.Check(capability); err != nil {
		return err
	}
	if newOwner.IsZero() {
		return reverts.New(reverts.Invalid, "Ownable: new owner is the zero address")
	}
	o.owner.Set(&newOwner)
	return nil
}

// Capability is proof of administrative authority over one contract.
type Capability struct {
	contract pacoca.Address
	holder   pacoca.Address
}

// Contract returns the contract the capability was granted for.
func (c *Capability) Contract() pacoca.Address { return c.contract }

// Holder returns the owner the capability was granted to.
func (c *Capability) Holder() pacoca.Address { return c.holder }
