// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package allocation implements the token allocation ledger: the six fixed allocations
// of the reward token supply minted outside the farm, the vesting of the dev
// allocation against the farm emission, and the partner farming funds.
package allocation

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/pacoca/pacoca/builtin/gen"
	"github.com/pacoca/pacoca/builtin/ownable"
	"github.com/pacoca/pacoca/builtin/reverts"
	"github.com/pacoca/pacoca/builtin/solidity"
	"github.com/pacoca/pacoca/builtin/token"
	"github.com/pacoca/pacoca/log"
	"github.com/pacoca/pacoca/pacoca"
	"github.com/pacoca/pacoca/xenv"
)

// ID identifies an allocation.
type ID uint8

const (
	Farming ID = iota
	Dev
	PartnerFarming
	Marketing
	Liquidity
	Airdrop

	count
)

func (id ID) String() string {
	switch id {
	case Farming:
		return "Farming"
	case Dev:
		return "Dev"
	case PartnerFarming:
		return "PartnerFarming"
	case Marketing:
		return "Marketing"
	case Liquidity:
		return "Liquidity"
	case Airdrop:
		return "Airdrop"
	default:
		return "Unknown"
	}
}

func (id ID) Bytes() []byte {
	return []byte{byte(id)}
}

// IDs lists every allocation in order.
func IDs() []ID {
	ids := make([]ID, 0, count)
	for id := range count {
		ids = append(ids, id)
	}
	return ids
}

var (
	// totals in whole tokens, indexed by ID
	totals = [count]uint64{
		Farming:        20_000_000,
		Dev:            15_000_000,
		PartnerFarming: 10_000_000,
		Marketing:      8_000_000,
		Liquidity:      5_000_000,
		Airdrop:        2_000_000,
	}

	// Total is the supply minted into the ledger.
	Total = pacoca.Tokens(60_000_000)
	// ChefCap is the supply the farm may mint on top of the allocations.
	ChefCap = pacoca.Tokens(40_000_000)
)

var (
	slotToken       = pacoca.BytesToBytes32([]byte("token"))
	slotAllocations = pacoca.BytesToBytes32([]byte("allocations"))

	ABI = gen.MustLoadABI("TokenAllocation")

	eventDevFundsClaimed         = ABI.MustEventByName("DevFundsClaimed")
	eventPartnerFarmingFundsSent = ABI.MustEventByName("PartnerFarmingFundsSent")
	eventOwnership               = ABI.MustEventByName("OwnershipTransferred")

	logger = log.WithContext("pkg", "allocation")
)

// Allocation is a fixed share of the supply and how much of it has left the ledger.
type Allocation struct {
	Name    string
	Total   *uint256.Int
	Claimed *uint256.Int
}

// Remaining returns what is left to claim.
func (a *Allocation) Remaining() *uint256.Int {
	if a.Claimed.Gt(a.Total) {
		return new(uint256.Int)
	}
	return new(uint256.Int).Sub(a.Total, a.Claimed)
}

// Ledger binds the storage of one allocation contract.
type Ledger struct {
	addr        pacoca.Address
	env         *xenv.Environment
	curve       ReleaseCurve
	ownable     *ownable.Ownable
	token       *solidity.Address
	allocations *solidity.Mapping[ID, *Allocation]
}

// New binds the ledger at addr. A nil curve selects DefaultCurve.
func New(addr pacoca.Address, env *xenv.Environment, curve ReleaseCurve) *Ledger {
	if curve == nil {
		curve = DefaultCurve
	}
	sctx := solidity.NewContext(addr, env.State())
	return &Ledger{
		addr:        addr,
		env:         env,
		curve:       curve,
		ownable:     ownable.New(sctx),
		token:       solidity.NewAddress(sctx, slotToken),
		allocations: solidity.NewMapping[ID, *Allocation](sctx, slotAllocations),
	}
}

// Init deploys the ledger for tok. The allocated supply is minted to the ledger separately.
func (l *Ledger) Init(owner, tok pacoca.Address) error {
	l.token.Set(&tok)
	for _, id := range IDs() {
		a := &Allocation{
			Name:    id.String(),
			Total:   pacoca.Tokens(totals[id]),
			Claimed: new(uint256.Int),
		}
		if err := l.allocations.Insert(id, a); err != nil {
			return errors.Wrapf(err, "init allocation %v", id)
		}
	}
	if err := l.ownable.Init(owner); err != nil {
		return err
	}
	return l.env.Log(eventOwnership, l.addr, []pacoca.Bytes32{xenv.AddressTopic(pacoca.Address{}), xenv.AddressTopic(owner)})
}

func (l *Ledger) Address() pacoca.Address { return l.addr }

func (l *Ledger) Owner() (pacoca.Address, error) { return l.ownable.Owner() }

func (l *Ledger) Authorize(caller pacoca.Address) (*ownable.Capability, error) {
	return l.ownable.Authorize(caller)
}

func (l *Ledger) TransferOwnership(capability *ownable.Capability, newOwner pacoca.Address) error {
	if err := l.ownable.TransferOwnership(capability, newOwner); err != nil {
		return err
	}
	return l.env.Log(eventOwnership, l.addr, []pacoca.Bytes32{xenv.AddressTopic(capability.Holder()), xenv.AddressTopic(newOwner)})
}

func (l *Ledger) tokenContract() (*token.Token, error) {
	addr, err := l.token.Get()
	if err != nil {
		return nil, err
	}
	return token.New(addr, l.env), nil
}

// Allocation returns one allocation.
func (l *Ledger) Allocation(id ID) (*Allocation, error) {
	if id >= count {
		return nil, reverts.Newf(reverts.Invalid, "allocation %d does not exist", id)
	}
	a, err := l.allocations.Get(id)
	if err != nil {
		return nil, errors.Wrapf(err, "get allocation %v", id)
	}
	if a == nil {
		return nil, reverts.New(reverts.Invalid, "allocation ledger not deployed")
	}
	return a, nil
}

// Allocations returns every allocation in ID order.
func (l *Ledger) Allocations() ([]*Allocation, error) {
	all := make([]*Allocation, 0, count)
	for _, id := range IDs() {
		a, err := l.Allocation(id)
		if err != nil {
			return nil, err
		}
		all = append(all, a)
	}
	return all, nil
}

// PercentageMintedByChef returns how much of ChefCap has been minted, in basis points.
// Everything above the allocated supply is taken to come from the farm.
func (l *Ledger) PercentageMintedByChef() (uint64, error) {
	tok, err := l.tokenContract()
	if err != nil {
		return 0, err
	}
	supply, err := tok.TotalSupply()
	if err != nil {
		return 0, err
	}
	if !supply.Gt(Total) {
		return 0, nil
	}
	minted := new(uint256.Int).Sub(supply, Total)
	bps, _ := pacoca.MulDiv(minted, uint256.NewInt(pacoca.BasisPoints), ChefCap)
	if !bps.IsUint64() || bps.Uint64() > pacoca.BasisPoints {
		return pacoca.BasisPoints, nil
	}
	return bps.Uint64(), nil
}

// DevReleasable returns the part of the dev allocation that can be claimed now.
func (l *Ledger) DevReleasable() (*uint256.Int, error) {
	a, err := l.Allocation(Dev)
	if err != nil {
		return nil, err
	}
	minted, err := l.PercentageMintedByChef()
	if err != nil {
		return nil, err
	}
	released := pacoca.Bps(a.Total, l.curve.Released(minted))
	if !released.Gt(a.Claimed) {
		return new(uint256.Int), nil
	}
	return released.Sub(released, a.Claimed), nil
}

// ClaimDevFunds sends the releasable dev funds to the owner. Nothing releasable is not an error.
func (l *Ledger) ClaimDevFunds(capability *ownable.Capability) error {
	if err := l.ownable.Check(capability); err != nil {
		return err
	}
	amount, err := l.DevReleasable()
	if err != nil {
		return err
	}
	if amount.IsZero() {
		return nil
	}
	to := capability.Holder()
	if err := l.release(Dev, to, amount); err != nil {
		return err
	}
	logger.Debug("dev funds claimed", "to", to, "amount", amount)
	return l.env.Log(eventDevFundsClaimed, l.addr, []pacoca.Bytes32{xenv.AddressTopic(to)}, amount.ToBig())
}

// SendPartnerFarmingFunds sends amount of the partner farming allocation to to.
func (l *Ledger) SendPartnerFarmingFunds(capability *ownable.Capability, to pacoca.Address, amount *uint256.Int) error {
	if err := l.ownable.Check(capability); err != nil {
		return err
	}
	a, err := l.Allocation(PartnerFarming)
	if err != nil {
		return err
	}
	if amount.Gt(a.Remaining()) {
		return reverts.New(reverts.InsufficientAllocation, "amount exceeds partner farming allocation")
	}
	if err := l.release(PartnerFarming, to, amount); err != nil {
		return err
	}
	logger.Debug("partner farming funds sent", "to", to, "amount", amount)
	return l.env.Log(eventPartnerFarmingFundsSent, l.addr, []pacoca.Bytes32{xenv.AddressTopic(to)}, amount.ToBig())
}

// release records amount as claimed from allocation id and transfers it.
func (l *Ledger) release(id ID, to pacoca.Address, amount *uint256.Int) error {
	a, err := l.Allocation(id)
	if err != nil {
		return err
	}
	claimed, overflow := new(uint256.Int).AddOverflow(a.Claimed, amount)
	if overflow || claimed.Gt(a.Total) {
		return reverts.Newf(reverts.InsufficientAllocation, "amount exceeds %v allocation", id)
	}
	a.Claimed = claimed
	if err := l.allocations.Update(id, a); err != nil {
		return errors.Wrapf(err, "update allocation %v", id)
	}
	tok, err := l.tokenContract()
	if err != nil {
		return err
	}
	return tok.Transfer(l.addr, to, amount)
}
