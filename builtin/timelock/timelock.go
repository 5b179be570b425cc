// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package timelock implements time-locked custody of tokens for a single beneficiary.
package timelock

import (
	"time"

	"github.com/holiman/uint256"

	"github.com/pacoca/pacoca/builtin/gen"
	"github.com/pacoca/pacoca/builtin/ownable"
	"github.com/pacoca/pacoca/builtin/reverts"
	"github.com/pacoca/pacoca/builtin/solidity"
	"github.com/pacoca/pacoca/builtin/token"
	"github.com/pacoca/pacoca/log"
	"github.com/pacoca/pacoca/pacoca"
	"github.com/pacoca/pacoca/xenv"
)

// DefaultLock is how long tokens stay locked after deployment.
const DefaultLock = 30 * 24 * time.Hour

var (
	slotReleaseTime = pacoca.BytesToBytes32([]byte("release-time"))

	ABI = gen.MustLoadABI("TokenTimelock")

	eventWithdrawn = ABI.MustEventByName("Withdrawn")
	eventOwnership = ABI.MustEventByName("OwnershipTransferred")

	logger = log.WithContext("pkg", "timelock")
)

// Timelock binds the storage of one timelock contract.
type Timelock struct {
	addr        pacoca.Address
	env         *xenv.Environment
	ownable     *ownable.Ownable
	releaseTime *solidity.Raw[uint64]
}

func New(addr pacoca.Address, env *xenv.Environment) *Timelock {
	sctx := solidity.NewContext(addr, env.State())
	return &Timelock{
		addr:        addr,
		env:         env,
		ownable:     ownable.New(sctx),
		releaseTime: solidity.NewRaw[uint64](sctx, slotReleaseTime),
	}
}

// Init deploys the timelock for beneficiary, locked for lock from the current block time.
func (tl *Timelock) Init(beneficiary pacoca.Address, lock time.Duration) error {
	if lock < 0 {
		return reverts.New(reverts.Invalid, "negative lock")
	}
	release := tl.env.BlockContext().Time + uint64(lock/time.Second)
	if err := tl.releaseTime.Upsert(release); err != nil {
		return err
	}
	if err := tl.ownable.Init(beneficiary); err != nil {
		return err
	}
	return tl.env.Log(eventOwnership, tl.addr, []pacoca.Bytes32{xenv.AddressTopic(pacoca.Address{}), xenv.AddressTopic(beneficiary)})
}

func (tl *Timelock) Address() pacoca.Address { return tl.addr }

func (tl *Timelock) Owner() (pacoca.Address, error) { return tl.ownable.Owner() }

func (tl *Timelock) Authorize(caller pacoca.Address) (*ownable.Capability, error) {
	return tl.ownable.Authorize(caller)
}

// ReleaseTime returns the unix time from which tokens may be withdrawn.
func (tl *Timelock) ReleaseTime() (uint64, error) {
	return tl.releaseTime.Get()
}

// Withdraw sends amount of tok to the beneficiary once the lock has expired.
func (tl *Timelock) Withdraw(capability *ownable.Capability, tok pacoca.Address, amount *uint256.Int) error {
	if err := tl.ownable.Check(capability); err != nil {
		return err
	}
	release, err := tl.releaseTime.Get()
	if err != nil {
		return err
	}
	if tl.env.BlockContext().Time < release {
		return reverts.New(reverts.Invalid, "too early")
	}
	to := capability.Holder()
	if err := token.New(tok, tl.env).Transfer(tl.addr, to, amount); err != nil {
		return err
	}
	logger.Debug("withdrawn", "token", tok, "to", to, "amount", amount)
	return tl.env.Log(eventWithdrawn, tl.addr, []pacoca.Bytes32{xenv.AddressTopic(tok), xenv.AddressTopic(to)}, amount.ToBig())
}
