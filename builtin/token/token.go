// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package token implements ERC20 tokens as built-in contracts: the reward token,
// staked (want) tokens and the tokens of external platforms.
package token

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/pacoca/pacoca/builtin/gen"
	"github.com/pacoca/pacoca/builtin/ownable"
	"github.com/pacoca/pacoca/builtin/reverts"
	"github.com/pacoca/pacoca/builtin/solidity"
	"github.com/pacoca/pacoca/pacoca"
	"github.com/pacoca/pacoca/xenv"
)

var (
	slotName        = pacoca.BytesToBytes32([]byte("name"))
	slotSymbol      = pacoca.BytesToBytes32([]byte("symbol"))
	slotTotalSupply = pacoca.BytesToBytes32([]byte("total-supply"))
	slotCap         = pacoca.BytesToBytes32([]byte("cap"))
	slotBalances    = pacoca.BytesToBytes32([]byte("balances"))
	slotAllowances  = pacoca.BytesToBytes32([]byte("allowances"))

	ABI = gen.MustLoadABI("Token")

	eventTransfer  = ABI.MustEventByName("Transfer")
	eventApproval  = ABI.MustEventByName("Approval")
	eventOwnership = ABI.MustEventByName("OwnershipTransferred")
)

type allowanceKey struct {
	owner, spender pacoca.Address
}

func (k allowanceKey) Bytes() []byte {
	return append(k.owner.Bytes(), k.spender.Bytes()...)
}

// Token binds the storage of one token contract.
type Token struct {
	addr        pacoca.Address
	env         *xenv.Environment
	ownable     *ownable.Ownable
	name        *solidity.Raw[string]
	symbol      *solidity.Raw[string]
	totalSupply *solidity.Uint256
	cap         *solidity.Uint256
	balances    *solidity.Mapping[pacoca.Address, *uint256.Int]
	allowances  *solidity.Mapping[allowanceKey, *uint256.Int]
}

func New(addr pacoca.Address, env *xenv.Environment) *Token {
	sctx := solidity.NewContext(addr, env.State())
	return &Token{
		addr:        addr,
		env:         env,
		ownable:     ownable.New(sctx),
		name:        solidity.NewRaw[string](sctx, slotName),
		symbol:      solidity.NewRaw[string](sctx, slotSymbol),
		totalSupply: solidity.NewUint256(sctx, slotTotalSupply),
		cap:         solidity.NewUint256(sctx, slotCap),
		balances:    solidity.NewMapping[pacoca.Address, *uint256.Int](sctx, slotBalances),
		allowances:  solidity.NewMapping[allowanceKey, *uint256.Int](sctx, slotAllowances),
	}
}

// Init deploys the token. A zero cap leaves the supply unbounded.
func (t *Token) Init(name, symbol string, maxSupply *uint256.Int, owner pacoca.Address) error {
	if err := t.name.Upsert(name); err != nil {
		return err
	}
	if err := t.symbol.Upsert(symbol); err != nil {
		return err
	}
	if maxSupply != nil {
		t.cap.Set(maxSupply)
	}
	if err := t.ownable.Init(owner); err != nil {
		return err
	}
	return t.env.Log(eventOwnership, t.addr, []pacoca.Bytes32{xenv.AddressTopic(pacoca.Address{}), xenv.AddressTopic(owner)})
}

func (t *Token) Address() pacoca.Address { return t.addr }

func (t *Token) Name() (string, error) { return t.name.Get() }

func (t *Token) Symbol() (string, error) { return t.symbol.Get() }

func (t *Token) TotalSupply() (*uint256.Int, error) { return t.totalSupply.Get() }

// Cap returns the maximum supply, zero when unbounded.
func (t *Token) Cap() (*uint256.Int, error) { return t.cap.Get() }

func (t *Token) BalanceOf(addr pacoca.Address) (*uint256.Int, error) {
	return getAmount(t.balances, addr)
}

func (t *Token) Allowance(owner, spender pacoca.Address) (*uint256.Int, error) {
	return getAmount(t.allowances, allowanceKey{owner, spender})
}

// getAmount returns a non-nil amount, zero for absent keys.
func getAmount[K solidity.Key](m *solidity.Mapping[K, *uint256.Int], key K) (*uint256.Int, error) {
	v, err := m.Get(key)
	if err != nil {
		return nil, errors.Wrap(err, "token storage")
	}
	if v == nil {
		return new(uint256.Int), nil
	}
	return v, nil
}

// Transfer moves amount from from to to.
func (t *Token) Transfer(from, to pacoca.Address, amount *uint256.Int) error {
	if to.IsZero() {
		return reverts.New(reverts.TransferFailure, "ERC20: transfer to the zero address")
	}
	bal, err := t.BalanceOf(from)
	if err != nil {
		return err
	}
	if bal.Lt(amount) {
		return reverts.New(reverts.TransferFailure, "ERC20: transfer amount exceeds balance")
	}
	if err := t.balances.Upsert(from, new(uint256.Int).Sub(bal, amount)); err != nil {
		return err
	}
	if err := t.credit(to, amount); err != nil {
		return err
	}
	return t.logTransfer(from, to, amount)
}

// TransferFrom moves amount on behalf of from, spending the allowance of spender.
func (t *Token) TransferFrom(spender, from, to pacoca.Address, amount *uint256.Int) error {
	allowance, err := t.Allowance(from, spender)
	if err != nil {
		return err
	}
	if allowance.Lt(amount) {
		return reverts.New(reverts.TransferFailure, "ERC20: transfer amount exceeds allowance")
	}
	if err := t.Transfer(from, to, amount); err != nil {
		return err
	}
	// infinite approvals are never decreased
	if allowance.Eq(pacoca.MaxUint256) {
		return nil
	}
	return t.approve(from, spender, new(uint256.Int).Sub(allowance, amount))
}

func (t *Token) Approve(owner, spender pacoca.Address, amount *uint256.Int) error {
	return t.approve(owner, spender, amount)
}

func (t *Token) IncreaseAllowance(owner, spender pacoca.Address, added *uint256.Int) error {
	allowance, err := t.Allowance(owner, spender)
	if err != nil {
		return err
	}
	sum, overflow := new(uint256.Int).AddOverflow(allowance, added)
	if overflow {
		sum = new(uint256.Int).Set(pacoca.MaxUint256)
	}
	return t.approve(owner, spender, sum)
}

func (t *Token) approve(owner, spender pacoca.Address, amount *uint256.Int) error {
	if spender.IsZero() {
		return reverts.New(reverts.Invalid, "ERC20: approve to the zero address")
	}
	if err := t.allowances.Upsert(allowanceKey{owner, spender}, amount); err != nil {
		return err
	}
	return t.env.Log(eventApproval, t.addr,
		[]pacoca.Bytes32{xenv.AddressTopic(owner), xenv.AddressTopic(spender)},
		amount.ToBig())
}

// Mint creates amount tokens for to. Only the owner may mint.
func (t *Token) Mint(capability *ownable.Capability, to pacoca.Address, amount *uint256.Int) error {
	if err := t.ownable.Check(capability); err != nil {
		return err
	}
	if to.IsZero() {
		return reverts.New(reverts.Invalid, "ERC20: mint to the zero address")
	}
	supply, err := t.totalSupply.Get()
	if err != nil {
		return err
	}
	newSupply, overflow := new(uint256.Int).AddOverflow(supply, amount)
	if overflow {
		return reverts.New(reverts.Invalid, "ERC20: supply overflow")
	}
	maxSupply, err := t.cap.Get()
	if err != nil {
		return err
	}
	if !maxSupply.IsZero() && newSupply.Gt(maxSupply) {
		return reverts.New(reverts.Invalid, "ERC20Capped: cap exceeded")
	}
	t.totalSupply.Set(newSupply)
	if err := t.credit(to, amount); err != nil {
		return err
	}
	return t.logTransfer(pacoca.Address{}, to, amount)
}

func (t *Token) credit(to pacoca.Address, amount *uint256.Int) error {
	bal, err := t.BalanceOf(to)
	if err != nil {
		return err
	}
	sum, overflow := new(uint256.Int).AddOverflow(bal, amount)
	if overflow {
		return reverts.New(reverts.TransferFailure, "ERC20: balance overflow")
	}
	return t.balances.Upsert(to, sum)
}

func (t *Token) logTransfer(from, to pacoca.Address, amount *uint256.Int) error {
	return t.env.Log(eventTransfer, t.addr,
		[]pacoca.Bytes32{xenv.AddressTopic(from), xenv.AddressTopic(to)},
		amount.ToBig())
}

func (t *Token) Owner() (pacoca.Address, error) { return t.ownable.Owner() }

// Authorize grants the owner capability to caller.
func (t *Token) Authorize(caller pacoca.Address) (*ownable.Capability, error) {
	return t.ownable.Authorize(caller)
}

func (t *Token) TransferOwnership(capability *ownable.Capability, newOwner pacoca.Address) error {
	if err := t.ownable.TransferOwnership(capability, newOwner); err != nil {
		return err
	}
	return t.env.Log(eventOwnership, t.addr, []pacoca.Bytes32{xenv.AddressTopic(capability.Holder()), xenv.AddressTopic(newOwner)})
}
