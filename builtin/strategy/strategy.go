// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package strategy implements the strategies farm pools stake through.
//
// Every strategy keeps a share ledger over the want tokens it holds: shares are what
// the farm credits to positions, want is what the strategy custodies. A Single
// strategy holds want itself. A Compound strategy stakes want into an external venue
// and reinvests what the venue pays out.
package strategy

import (
	"github.com/holiman/uint256"

	"github.com/pacoca/pacoca/builtin/farm"
	"github.com/pacoca/pacoca/builtin/gen"
	"github.com/pacoca/pacoca/builtin/ownable"
	"github.com/pacoca/pacoca/builtin/reverts"
	"github.com/pacoca/pacoca/builtin/solidity"
	"github.com/pacoca/pacoca/builtin/token"
	"github.com/pacoca/pacoca/log"
	"github.com/pacoca/pacoca/pacoca"
	"github.com/pacoca/pacoca/xenv"
)

// Kind tags the implementation a strategy contract was deployed with.
type Kind uint8

const (
	KindSingle Kind = iota + 1
	KindCompound
)

func (k Kind) String() string {
	switch k {
	case KindSingle:
		return "single"
	case KindCompound:
		return "compound"
	default:
		return "unknown"
	}
}

// Fee factor bounds, in basis points.
const (
	EntranceFeeFactorLL = 9950
	WithdrawFeeFactorLL = 9950
	ControllerFeeUL     = 300
	BuyBackRateUL       = 800
)

const reasonNotGov = "!gov"

var (
	slotKind            = pacoca.BytesToBytes32([]byte("kind"))
	slotWant            = pacoca.BytesToBytes32([]byte("want"))
	slotGov             = pacoca.BytesToBytes32([]byte("gov"))
	slotSharesTotal     = pacoca.BytesToBytes32([]byte("shares-total"))
	slotWantLockedTotal = pacoca.BytesToBytes32([]byte("want-locked-total"))
	slotSettings        = pacoca.BytesToBytes32([]byte("settings"))

	ABI = gen.MustLoadABI("Strategy")

	eventSetSettings = ABI.MustEventByName("SetSettings")
	eventSetGov      = ABI.MustEventByName("SetGov")
	eventEarn        = ABI.MustEventByName("Earn")
	eventOwnership   = ABI.MustEventByName("OwnershipTransferred")

	logger = log.WithContext("pkg", "strategy")
)

var (
	_ farm.Strategy         = (*Single)(nil)
	_ farm.Strategy         = (*Compound)(nil)
	_ farm.StrategyResolver = (*Resolver)(nil)
)

// Settings are the fee parameters of a strategy, in basis points.
type Settings struct {
	// EntranceFeeFactor is the share of a deposit credited to the depositor.
	EntranceFeeFactor uint64
	// WithdrawFeeFactor is the share of a withdrawal paid out. The rest stays with the remaining holders.
	WithdrawFeeFactor uint64
	// ControllerFee is taken from harvested rewards for the rewards address.
	ControllerFee uint64
	// BuyBackRate is taken from harvested rewards, converted to the buy-back token and burnt.
	BuyBackRate uint64
}

// DefaultSettings charges no fee.
func DefaultSettings() Settings {
	return Settings{
		EntranceFeeFactor: pacoca.BasisPoints,
		WithdrawFeeFactor: pacoca.BasisPoints,
	}
}

// Validate checks the factor bounds.
func (s Settings) Validate() error {
	switch {
	case s.EntranceFeeFactor < EntranceFeeFactorLL || s.EntranceFeeFactor > pacoca.BasisPoints:
		return reverts.New(reverts.Invalid, "_entranceFeeFactor too low")
	case s.WithdrawFeeFactor < WithdrawFeeFactorLL || s.WithdrawFeeFactor > pacoca.BasisPoints:
		return reverts.New(reverts.Invalid, "_withdrawFeeFactor too low")
	case s.ControllerFee > ControllerFeeUL:
		return reverts.New(reverts.Invalid, "_controllerFee too high")
	case s.BuyBackRate > BuyBackRateUL:
		return reverts.New(reverts.Invalid, "_buyBackRate too high")
	}
	return nil
}

// vault is the share ledger every strategy kind is built on.
type vault struct {
	addr            pacoca.Address
	env             *xenv.Environment
	ownable         *ownable.Ownable
	kind            *solidity.Raw[Kind]
	want            *solidity.Address
	gov             *solidity.Address
	sharesTotal     *solidity.Uint256
	wantLockedTotal *solidity.Uint256
	settings        *solidity.Raw[Settings]
}

func newVault(addr pacoca.Address, env *xenv.Environment) *vault {
	sctx := solidity.NewContext(addr, env.State())
	return &vault{
		addr:            addr,
		env:             env,
		ownable:         ownable.New(sctx),
		kind:            solidity.NewRaw[Kind](sctx, slotKind),
		want:            solidity.NewAddress(sctx, slotWant),
		gov:             solidity.NewAddress(sctx, slotGov),
		sharesTotal:     solidity.NewUint256(sctx, slotSharesTotal),
		wantLockedTotal: solidity.NewUint256(sctx, slotWantLockedTotal),
		settings:        solidity.NewRaw[Settings](sctx, slotSettings),
	}
}

func (v *vault) init(kind Kind, want, owner, gov pacoca.Address, settings Settings) error {
	current, err := v.kind.Get()
	if err != nil {
		return err
	}
	if current != 0 {
		return reverts.Newf(reverts.Invalid, "strategy %v already deployed", v.addr)
	}
	if want.IsZero() {
		return reverts.New(reverts.Invalid, "strategy: zero want")
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	if err := v.kind.Upsert(kind); err != nil {
		return err
	}
	v.want.Set(&want)
	v.gov.Set(&gov)
	if err := v.settings.Upsert(settings); err != nil {
		return err
	}
	if err := v.ownable.Init(owner); err != nil {
		return err
	}
	return v.env.Log(eventOwnership, v.addr, []pacoca.Bytes32{xenv.AddressTopic(pacoca.Address{}), xenv.AddressTopic(owner)})
}

func (v *vault) Address() pacoca.Address { return v.addr }

func (v *vault) Want() (pacoca.Address, error) { return v.want.Get() }

// Gov returns the governance address, which tunes the fee settings.
func (v *vault) Gov() (pacoca.Address, error) { return v.gov.Get() }

func (v *vault) SharesTotal() (*uint256.Int, error) { return v.sharesTotal.Get() }

func (v *vault) WantLockedTotal() (*uint256.Int, error) { return v.wantLockedTotal.Get() }

func (v *vault) Settings() (Settings, error) {
	s, err := v.settings.Get()
	if err != nil {
		return Settings{}, err
	}
	return s, nil
}

func (v *vault) Owner() (pacoca.Address, error) { return v.ownable.Owner() }

func (v *vault) Authorize(caller pacoca.Address) (*ownable.Capability, error) {
	return v.ownable.Authorize(caller)
}

func (v *vault) TransferOwnership(capability *ownable.Capability, newOwner pacoca.Address) error {
	if err := v.ownable.TransferOwnership(capability, newOwner); err != nil {
		return err
	}
	return v.env.Log(eventOwnership, v.addr, []pacoca.Bytes32{xenv.AddressTopic(capability.Holder()), xenv.AddressTopic(newOwner)})
}

func (v *vault) wantToken() (*token.Token, error) {
	want, err := v.want.Get()
	if err != nil {
		return nil, err
	}
	return token.New(want, v.env), nil
}

func (v *vault) onlyGov(caller pacoca.Address) error {
	gov, err := v.gov.Get()
	if err != nil {
		return err
	}
	if gov != caller {
		return reverts.New(reverts.NotAuthorized, reasonNotGov)
	}
	return nil
}

// SetGov hands governance to newGov.
func (v *vault) SetGov(caller, newGov pacoca.Address) error {
	if err := v.onlyGov(caller); err != nil {
		return err
	}
	v.gov.Set(&newGov)
	return v.env.Log(eventSetGov, v.addr, []pacoca.Bytes32{xenv.AddressTopic(newGov)})
}

// SetSettings updates the entrance and withdraw fee factors.
func (v *vault) SetSettings(caller pacoca.Address, entranceFeeFactor, withdrawFeeFactor uint64) error {
	s, err := v.Settings()
	if err != nil {
		return err
	}
	s.EntranceFeeFactor = entranceFeeFactor
	s.WithdrawFeeFactor = withdrawFeeFactor
	return v.setSettings(caller, s)
}

func (v *vault) setSettings(caller pacoca.Address, s Settings) error {
	if err := v.onlyGov(caller); err != nil {
		return err
	}
	if err := s.Validate(); err != nil {
		return err
	}
	if err := v.settings.Upsert(s); err != nil {
		return err
	}
	return v.env.Log(eventSetSettings, v.addr, nil,
		new(uint256.Int).SetUint64(s.EntranceFeeFactor).ToBig(),
		new(uint256.Int).SetUint64(s.WithdrawFeeFactor).ToBig(),
		new(uint256.Int).SetUint64(s.ControllerFee).ToBig(),
		new(uint256.Int).SetUint64(s.BuyBackRate).ToBig(),
	)
}

// onlyOwner checks the caller is the farm the strategy serves.
func (v *vault) onlyOwner(caller pacoca.Address) error {
	_, err := v.ownable.Authorize(caller)
	return err
}

// pull takes amount of want from caller, which must have approved the strategy.
func (v *vault) pull(caller pacoca.Address, amount *uint256.Int) error {
	want, err := v.wantToken()
	if err != nil {
		return err
	}
	return want.TransferFrom(v.addr, caller, v.addr, amount)
}

// mint credits shares for a deposit of amount, before amount is added to the locked total.
func (v *vault) mint(amount *uint256.Int) (*uint256.Int, error) {
	total, err := v.sharesTotal.Get()
	if err != nil {
		return nil, err
	}
	locked, err := v.wantLockedTotal.Get()
	if err != nil {
		return nil, err
	}
	s, err := v.Settings()
	if err != nil {
		return nil, err
	}

	shares := new(uint256.Int).Set(amount)
	if !locked.IsZero() && !total.IsZero() {
		scaled, overflow := pacoca.MulDiv(amount, total, locked)
		if overflow {
			return nil, reverts.New(reverts.Invalid, "shares overflow")
		}
		shares = pacoca.Bps(scaled, s.EntranceFeeFactor)
	}
	if err := v.sharesTotal.Add(shares); err != nil {
		return nil, err
	}
	return shares, nil
}

// burn removes shares and returns the want they are worth after the withdraw fee.
func (v *vault) burn(shares *uint256.Int) (*uint256.Int, error) {
	if shares.IsZero() {
		return nil, reverts.New(reverts.Invalid, "_wantAmt <= 0")
	}
	total, err := v.sharesTotal.Get()
	if err != nil {
		return nil, err
	}
	if shares.Gt(total) {
		return nil, reverts.New(reverts.InsufficientStake, "strategy: not enough shares")
	}
	locked, err := v.wantLockedTotal.Get()
	if err != nil {
		return nil, err
	}
	s, err := v.Settings()
	if err != nil {
		return nil, err
	}

	amount, overflow := pacoca.MulDiv(shares, locked, total)
	if overflow {
		return nil, reverts.New(reverts.Invalid, "want overflow")
	}
	if err := v.sharesTotal.Sub(shares); err != nil {
		return nil, err
	}
	return pacoca.Bps(amount, s.WithdrawFeeFactor), nil
}

// payout sends amount of want held by the strategy to caller, bounded by the
// balance and the locked total.
func (v *vault) payout(caller pacoca.Address, amount *uint256.Int) (*uint256.Int, error) {
	want, err := v.wantToken()
	if err != nil {
		return nil, err
	}
	balance, err := want.BalanceOf(v.addr)
	if err != nil {
		return nil, err
	}
	locked, err := v.wantLockedTotal.Get()
	if err != nil {
		return nil, err
	}
	amount = pacoca.Min(pacoca.Min(amount, balance), locked)
	if err := v.wantLockedTotal.Sub(amount); err != nil {
		return nil, err
	}
	if err := want.Transfer(v.addr, caller, amount); err != nil {
		return nil, err
	}
	return amount, nil
}

// KindOf returns the kind of the strategy deployed at addr, zero if none.
func KindOf(addr pacoca.Address, env *xenv.Environment) (Kind, error) {
	return solidity.NewRaw[Kind](solidity.NewContext(addr, env.State()), slotKind).Get()
}
