// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package farm implements the staking farm: a registry of pools, each accruing a
// share of the per-block reward emission, and the positions users hold in them.
package farm

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/pacoca/pacoca/builtin/farm/pool"
	"github.com/pacoca/pacoca/builtin/farm/position"
	"github.com/pacoca/pacoca/builtin/gen"
	"github.com/pacoca/pacoca/builtin/ownable"
	"github.com/pacoca/pacoca/builtin/reverts"
	"github.com/pacoca/pacoca/builtin/solidity"
	"github.com/pacoca/pacoca/builtin/token"
	"github.com/pacoca/pacoca/log"
	"github.com/pacoca/pacoca/pacoca"
	"github.com/pacoca/pacoca/xenv"
)

var (
	slotRewardToken    = pacoca.BytesToBytes32([]byte("reward-token"))
	slotRewardPerBlock = pacoca.BytesToBytes32([]byte("reward-per-block"))
	slotStartBlock     = pacoca.BytesToBytes32([]byte("start-block"))
	slotMaxSupply      = pacoca.BytesToBytes32([]byte("max-supply"))

	ABI = gen.MustLoadABI("Farm")

	eventDeposit           = ABI.MustEventByName("Deposit")
	eventWithdraw          = ABI.MustEventByName("Withdraw")
	eventEmergencyWithdraw = ABI.MustEventByName("EmergencyWithdraw")
	eventRewardPaid        = ABI.MustEventByName("RewardPaid")
	eventAddPool           = ABI.MustEventByName("AddPool")
	eventSetPool           = ABI.MustEventByName("SetPool")
	eventOwnership         = ABI.MustEventByName("OwnershipTransferred")

	logger = log.WithContext("pkg", "farm")
)

// Config holds the emission parameters fixed at deployment.
type Config struct {
	RewardToken    pacoca.Address
	RewardPerBlock *uint256.Int
	StartBlock     uint32
	// MaxSupply stops emission once the reward token supply reaches it. Zero for unbounded.
	MaxSupply *uint256.Int
}

// Farm binds the storage of one farm contract.
type Farm struct {
	addr       pacoca.Address
	env        *xenv.Environment
	strategies StrategyResolver

	ownable        *ownable.Ownable
	pools          *pool.Service
	positions      *position.Service
	rewardToken    *solidity.Address
	rewardPerBlock *solidity.Uint256
	startBlock     *solidity.Raw[uint32]
	maxSupply      *solidity.Uint256
}

func New(addr pacoca.Address, env *xenv.Environment, strategies StrategyResolver) *Farm {
	sctx := solidity.NewContext(addr, env.State())
	return &Farm{
		addr:           addr,
		env:            env,
		strategies:     strategies,
		ownable:        ownable.New(sctx),
		pools:          pool.New(sctx),
		positions:      position.New(sctx),
		rewardToken:    solidity.NewAddress(sctx, slotRewardToken),
		rewardPerBlock: solidity.NewUint256(sctx, slotRewardPerBlock),
		startBlock:     solidity.NewRaw[uint32](sctx, slotStartBlock),
		maxSupply:      solidity.NewUint256(sctx, slotMaxSupply),
	}
}

// Init deploys the farm.
func (f *Farm) Init(owner pacoca.Address, cfg *Config) error {
	if cfg.RewardToken.IsZero() || cfg.RewardPerBlock == nil {
		return reverts.New(reverts.Invalid, "farm: invalid config")
	}
	f.rewardToken.Set(&cfg.RewardToken)
	f.rewardPerBlock.Set(cfg.RewardPerBlock)
	if err := f.startBlock.Upsert(cfg.StartBlock); err != nil {
		return err
	}
	if cfg.MaxSupply != nil {
		f.maxSupply.Set(cfg.MaxSupply)
	}
	if err := f.ownable.Init(owner); err != nil {
		return err
	}
	return f.env.Log(eventOwnership, f.addr, []pacoca.Bytes32{xenv.AddressTopic(pacoca.Address{}), xenv.AddressTopic(owner)})
}

func (f *Farm) Address() pacoca.Address { return f.addr }

// Config returns the emission parameters.
func (f *Farm) Config() (*Config, error) {
	var (
		cfg Config
		err error
	)
	if cfg.RewardToken, err = f.rewardToken.Get(); err != nil {
		return nil, err
	}
	if cfg.RewardPerBlock, err = f.rewardPerBlock.Get(); err != nil {
		return nil, err
	}
	if cfg.StartBlock, err = f.startBlock.Get(); err != nil {
		return nil, err
	}
	if cfg.MaxSupply, err = f.maxSupply.Get(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (f *Farm) Owner() (pacoca.Address, error) { return f.ownable.Owner() }

// Authorize grants the administrator capability to caller.
func (f *Farm) Authorize(caller pacoca.Address) (*ownable.Capability, error) {
	return f.ownable.Authorize(caller)
}

func (f *Farm) TransferOwnership(capability *ownable.Capability, newOwner pacoca.Address) error {
	if err := f.ownable.TransferOwnership(capability, newOwner); err != nil {
		return err
	}
	return f.env.Log(eventOwnership, f.addr, []pacoca.Bytes32{xenv.AddressTopic(capability.Holder()), xenv.AddressTopic(newOwner)})
}

func (f *Farm) block() uint32 {
	return f.env.BlockContext().Number
}

func (f *Farm) rewardTokenContract() (*token.Token, error) {
	addr, err := f.rewardToken.Get()
	if err != nil {
		return nil, err
	}
	return token.New(addr, f.env), nil
}

// emission reads the parameters shared by all pools at the current block.
func (f *Farm) emission() (*pool.Emission, error) {
	perBlock, err := f.rewardPerBlock.Get()
	if err != nil {
		return nil, err
	}
	total, err := f.pools.TotalWeight()
	if err != nil {
		return nil, err
	}
	em := &pool.Emission{RewardPerBlock: perBlock, TotalWeight: total}

	maxSupply, err := f.maxSupply.Get()
	if err != nil {
		return nil, err
	}
	if !maxSupply.IsZero() {
		reward, err := f.rewardTokenContract()
		if err != nil {
			return nil, err
		}
		supply, err := reward.TotalSupply()
		if err != nil {
			return nil, err
		}
		em.Remaining = new(uint256.Int)
		if supply.Lt(maxSupply) {
			em.Remaining.Sub(maxSupply, supply)
		}
	}
	return em, nil
}

// PoolLength returns the number of pools.
func (f *Farm) PoolLength() (uint64, error) {
	return f.pools.Len()
}

// PoolInfo returns the pool as stored, not settled to the current block.
func (f *Farm) PoolInfo(pid pool.ID) (*pool.Pool, error) {
	return f.pools.Get(pid)
}

// PidOf returns the pool of a staked asset.
func (f *Farm) PidOf(asset pacoca.Address) (pool.ID, bool, error) {
	return f.pools.PidOf(asset)
}

// TotalWeight returns the sum of all pool weights.
func (f *Farm) TotalWeight() (uint64, error) {
	return f.pools.TotalWeight()
}

// UserInfo returns the position of user in pool pid.
func (f *Farm) UserInfo(pid pool.ID, user pacoca.Address) (*position.Position, error) {
	if _, err := f.pools.Get(pid); err != nil {
		return nil, err
	}
	return f.positions.Get(uint64(pid), user)
}

// AddPool registers a pool for asset staked through strategy.
// All pools are settled first so they observe the old total weight up to this block.
func (f *Farm) AddPool(capability *ownable.Capability, weight uint64, asset, strategy pacoca.Address) (pool.ID, error) {
	if err := f.ownable.Check(capability); err != nil {
		return 0, err
	}
	if _, exists, err := f.pools.PidOf(asset); err != nil {
		return 0, err
	} else if exists {
		return 0, reverts.New(reverts.DuplicateAsset, "Can't add another pool of same asset")
	}
	// the strategy must be deployed, its want token is not required to match asset
	if _, err := f.strategies.Strategy(strategy); err != nil {
		return 0, err
	}
	if err := f.MassUpdatePools(); err != nil {
		return 0, err
	}
	start, err := f.startBlock.Get()
	if err != nil {
		return 0, err
	}
	lastRewardBlock := max(f.block(), start)

	pid, err := f.pools.Add(weight, asset, strategy, lastRewardBlock)
	if err != nil {
		return 0, err
	}
	logger.Debug("pool added", "pid", pid, "asset", asset, "strategy", strategy, "weight", weight)
	return pid, f.env.Log(eventAddPool, f.addr,
		[]pacoca.Bytes32{xenv.Uint64Topic(uint64(pid)), xenv.AddressTopic(asset)},
		strategy, new(uint256.Int).SetUint64(weight).ToBig())
}

// SetWeight updates the reward weight of a pool. Zero stops its emission.
func (f *Farm) SetWeight(capability *ownable.Capability, pid pool.ID, weight uint64) error {
	if err := f.ownable.Check(capability); err != nil {
		return err
	}
	if _, err := f.pools.Get(pid); err != nil {
		return err
	}
	if err := f.MassUpdatePools(); err != nil {
		return err
	}
	if err := f.pools.SetWeight(pid, weight); err != nil {
		return err
	}
	logger.Debug("pool weight set", "pid", pid, "weight", weight)
	return f.env.Log(eventSetPool, f.addr,
		[]pacoca.Bytes32{xenv.Uint64Topic(uint64(pid))},
		new(uint256.Int).SetUint64(weight).ToBig())
}

// MassUpdatePools settles every pool.
func (f *Farm) MassUpdatePools() error {
	n, err := f.pools.Len()
	if err != nil {
		return err
	}
	for pid := range pool.ID(n) {
		if _, err := f.settle(pid); err != nil {
			return err
		}
	}
	return nil
}

// UpdatePool settles one pool.
func (f *Farm) UpdatePool(pid pool.ID) error {
	_, err := f.settle(pid)
	return err
}

// settle brings the accumulator of pid up to the current block and mints the
// reward into the farm.
func (f *Farm) settle(pid pool.ID) (*pool.Pool, error) {
	p, err := f.pools.Get(pid)
	if err != nil {
		return nil, err
	}
	if f.block() <= p.LastRewardBlock {
		return p, nil
	}
	em, err := f.emission()
	if err != nil {
		return nil, err
	}
	reward, err := p.Settle(f.block(), em)
	if err != nil {
		return nil, err
	}
	if !reward.IsZero() {
		rt, err := f.rewardTokenContract()
		if err != nil {
			return nil, err
		}
		capability, err := rt.Authorize(f.addr)
		if err != nil {
			return nil, errors.WithMessage(err, "farm must own the reward token")
		}
		if err := rt.Mint(capability, f.addr, reward); err != nil {
			return nil, err
		}
	}
	if err := f.pools.Update(pid, p); err != nil {
		return nil, err
	}
	return p, nil
}

// PendingReward projects the reward of user in pool pid as of the current block
// without mutating state.
func (f *Farm) PendingReward(pid pool.ID, user pacoca.Address) (*uint256.Int, error) {
	p, err := f.pools.Get(pid)
	if err != nil {
		return nil, err
	}
	pos, err := f.positions.Get(uint64(pid), user)
	if err != nil {
		return nil, err
	}
	em, err := f.emission()
	if err != nil {
		return nil, err
	}
	acc, _, err := p.Accrue(f.block(), em)
	if err != nil {
		return nil, err
	}
	return pos.Pending(acc)
}

// StakedWantTokens returns the want tokens backing the shares of user.
func (f *Farm) StakedWantTokens(pid pool.ID, user pacoca.Address) (*uint256.Int, error) {
	p, err := f.pools.Get(pid)
	if err != nil {
		return nil, err
	}
	pos, err := f.positions.Get(uint64(pid), user)
	if err != nil {
		return nil, err
	}
	if p.TotalStaked.IsZero() {
		return new(uint256.Int), nil
	}
	strat, err := f.strategies.Strategy(p.Strategy)
	if err != nil {
		return nil, err
	}
	locked, err := strat.WantLockedTotal()
	if err != nil {
		return nil, err
	}
	staked, overflow := pacoca.MulDiv(pos.Amount, locked, p.TotalStaked)
	if overflow {
		return nil, reverts.New(reverts.Invalid, "staked want overflow")
	}
	return staked, nil
}

// harvest pays out the pending reward of pos against the settled pool.
func (f *Farm) harvest(pid pool.ID, p *pool.Pool, user pacoca.Address, pos *position.Position) error {
	if pos.IsEmpty() {
		return nil
	}
	pending, err := pos.Pending(p.AccRewardPerShare)
	if err != nil {
		return err
	}
	if pending.IsZero() {
		return nil
	}
	rt, err := f.rewardTokenContract()
	if err != nil {
		return err
	}
	if err := rt.Transfer(f.addr, user, pending); err != nil {
		if reverts.IsRevertErr(err) {
			return reverts.New(reverts.TransferFailure, "farm: reward payout failed: "+err.Error())
		}
		return err
	}
	return f.env.Log(eventRewardPaid, f.addr,
		[]pacoca.Bytes32{xenv.AddressTopic(user), xenv.Uint64Topic(uint64(pid))},
		pending.ToBig())
}

// Deposit stakes amount of the pool asset for caller. The pending reward is paid out first.
// A zero amount only harvests.
func (f *Farm) Deposit(caller pacoca.Address, pid pool.ID, amount *uint256.Int) error {
	p, err := f.settle(pid)
	if err != nil {
		return err
	}
	pos, err := f.positions.Get(uint64(pid), caller)
	if err != nil {
		return err
	}
	if err := f.harvest(pid, p, caller, pos); err != nil {
		return err
	}

	if !amount.IsZero() {
		strat, err := f.strategies.Strategy(p.Strategy)
		if err != nil {
			return err
		}
		want := token.New(p.StakedAsset, f.env)
		if err := want.TransferFrom(f.addr, caller, f.addr, amount); err != nil {
			return err
		}
		if err := want.IncreaseAllowance(f.addr, strat.Address(), amount); err != nil {
			return err
		}
		shares, err := strat.Deposit(f.addr, amount)
		if err != nil {
			return err
		}
		if err := pos.Add(shares); err != nil {
			return err
		}
		p.TotalStaked = new(uint256.Int).Add(p.TotalStaked, shares)
	}

	if err := f.commit(pid, p, caller, pos); err != nil {
		return err
	}
	logger.Debug("deposit", "pid", pid, "user", caller, "amount", amount)
	return f.env.Log(eventDeposit, f.addr,
		[]pacoca.Bytes32{xenv.AddressTopic(caller), xenv.Uint64Topic(uint64(pid))},
		amount.ToBig())
}

// Withdraw unstakes amount of shares for caller. The pending reward is paid out first.
// A zero amount only harvests.
func (f *Farm) Withdraw(caller pacoca.Address, pid pool.ID, amount *uint256.Int) error {
	p, err := f.settle(pid)
	if err != nil {
		return err
	}
	pos, err := f.positions.Get(uint64(pid), caller)
	if err != nil {
		return err
	}
	if amount.Gt(pos.Amount) {
		return reverts.New(reverts.InsufficientStake, "withdraw: not good")
	}
	if err := f.harvest(pid, p, caller, pos); err != nil {
		return err
	}

	returned := new(uint256.Int)
	if !amount.IsZero() {
		if err := pos.Sub(amount); err != nil {
			return err
		}
		p.TotalStaked = new(uint256.Int).Sub(p.TotalStaked, amount)
		if returned, err = f.unstake(p, caller, amount); err != nil {
			return err
		}
	}

	if err := f.commit(pid, p, caller, pos); err != nil {
		return err
	}
	logger.Debug("withdraw", "pid", pid, "user", caller, "shares", amount, "returned", returned)
	return f.env.Log(eventWithdraw, f.addr,
		[]pacoca.Bytes32{xenv.AddressTopic(caller), xenv.Uint64Topic(uint64(pid))},
		returned.ToBig())
}

// WithdrawAll withdraws the whole position of caller.
func (f *Farm) WithdrawAll(caller pacoca.Address, pid pool.ID) error {
	pos, err := f.UserInfo(pid, caller)
	if err != nil {
		return err
	}
	return f.Withdraw(caller, pid, pos.Amount)
}

// EmergencyWithdraw returns the principal of caller and forfeits the pending reward.
func (f *Farm) EmergencyWithdraw(caller pacoca.Address, pid pool.ID) error {
	p, err := f.settle(pid)
	if err != nil {
		return err
	}
	pos, err := f.positions.Get(uint64(pid), caller)
	if err != nil {
		return err
	}
	shares := pos.Amount
	returned := new(uint256.Int)
	if !shares.IsZero() {
		p.TotalStaked = new(uint256.Int).Sub(p.TotalStaked, shares)
		if returned, err = f.unstake(p, caller, shares); err != nil {
			return err
		}
	}
	pos.Amount = new(uint256.Int)
	pos.RewardDebt = new(uint256.Int)
	if err := f.positions.Set(uint64(pid), caller, pos); err != nil {
		return err
	}
	if err := f.pools.Update(pid, p); err != nil {
		return err
	}
	logger.Debug("emergency withdraw", "pid", pid, "user", caller, "returned", returned)
	return f.env.Log(eventEmergencyWithdraw, f.addr,
		[]pacoca.Bytes32{xenv.AddressTopic(caller), xenv.Uint64Topic(uint64(pid))},
		returned.ToBig())
}

// unstake redeems shares from the pool strategy and forwards the want to user.
func (f *Farm) unstake(p *pool.Pool, user pacoca.Address, shares *uint256.Int) (*uint256.Int, error) {
	strat, err := f.strategies.Strategy(p.Strategy)
	if err != nil {
		return nil, err
	}
	returned, err := strat.Withdraw(f.addr, shares)
	if err != nil {
		return nil, err
	}
	if !returned.IsZero() {
		want := token.New(p.StakedAsset, f.env)
		if err := want.Transfer(f.addr, user, returned); err != nil {
			return nil, err
		}
	}
	return returned, nil
}

// commit recomputes the reward debt and stores the position and the pool.
func (f *Farm) commit(pid pool.ID, p *pool.Pool, user pacoca.Address, pos *position.Position) error {
	if err := pos.Sync(p.AccRewardPerShare); err != nil {
		return err
	}
	if err := f.positions.Set(uint64(pid), user, pos); err != nil {
		return err
	}
	return f.pools.Update(pid, p)
}
