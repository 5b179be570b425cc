// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package strategy

import (
	"github.com/holiman/uint256"

	"github.com/pacoca/pacoca/builtin/farm/pool"
	"github.com/pacoca/pacoca/builtin/reverts"
	"github.com/pacoca/pacoca/builtin/solidity"
	"github.com/pacoca/pacoca/builtin/token"
	"github.com/pacoca/pacoca/pacoca"
	"github.com/pacoca/pacoca/xenv"
)

var (
	slotEarned        = pacoca.BytesToBytes32([]byte("earned"))
	slotVenue         = pacoca.BytesToBytes32([]byte("venue"))
	slotVenuePid      = pacoca.BytesToBytes32([]byte("venue-pid"))
	slotRouter        = pacoca.BytesToBytes32([]byte("router"))
	slotBuyBackToken  = pacoca.BytesToBytes32([]byte("buy-back-token"))
	slotRewards       = pacoca.BytesToBytes32([]byte("rewards"))
	slotLastEarnBlock = pacoca.BytesToBytes32([]byte("last-earn-block"))
)

// CompoundConfig describes a compounding strategy.
type CompoundConfig struct {
	Want   pacoca.Address
	Earned pacoca.Address
	// Venue is the farm want is staked into, VenuePid its pool.
	Venue    pacoca.Address
	VenuePid uint64
	// Router converts earned tokens. It may be zero when earned is want and no buy-back is configured.
	Router pacoca.Address
	// BuyBackToken is bought with BuyBackRate of the harvest and burnt. Zero disables the buy-back.
	BuyBackToken pacoca.Address
	// Rewards receives the controller fee.
	Rewards  pacoca.Address
	Settings Settings
}

// Compound stakes want into a venue and reinvests the venue reward on Earn.
type Compound struct {
	*vault
	resolver      *Resolver
	earned        *solidity.Address
	venue         *solidity.Address
	venuePid      *solidity.Raw[uint64]
	router        *solidity.Address
	buyBackToken  *solidity.Address
	rewards       *solidity.Address
	lastEarnBlock *solidity.Raw[uint32]
}

func NewCompound(addr pacoca.Address, env *xenv.Environment, resolver *Resolver) *Compound {
	sctx := solidity.NewContext(addr, env.State())
	return &Compound{
		vault:         newVault(addr, env),
		resolver:      resolver,
		earned:        solidity.NewAddress(sctx, slotEarned),
		venue:         solidity.NewAddress(sctx, slotVenue),
		venuePid:      solidity.NewRaw[uint64](sctx, slotVenuePid),
		router:        solidity.NewAddress(sctx, slotRouter),
		buyBackToken:  solidity.NewAddress(sctx, slotBuyBackToken),
		rewards:       solidity.NewAddress(sctx, slotRewards),
		lastEarnBlock: solidity.NewRaw[uint32](sctx, slotLastEarnBlock),
	}
}

// Init deploys the strategy. owner is the farm, gov the address allowed to tune fees and earn.
func (c *Compound) Init(cfg *CompoundConfig, owner, gov pacoca.Address) error {
	if cfg.Earned.IsZero() || cfg.Venue.IsZero() {
		return reverts.New(reverts.Invalid, "strategy: invalid config")
	}
	if err := c.init(KindCompound, cfg.Want, owner, gov, cfg.Settings); err != nil {
		return err
	}
	c.earned.Set(&cfg.Earned)
	c.venue.Set(&cfg.Venue)
	c.router.Set(&cfg.Router)
	c.buyBackToken.Set(&cfg.BuyBackToken)
	c.rewards.Set(&cfg.Rewards)
	return c.venuePid.Upsert(cfg.VenuePid)
}

// Config returns the deployment parameters with the current settings.
func (c *Compound) Config() (*CompoundConfig, error) {
	var (
		cfg CompoundConfig
		err error
	)
	if cfg.Want, err = c.want.Get(); err != nil {
		return nil, err
	}
	if cfg.Earned, err = c.earned.Get(); err != nil {
		return nil, err
	}
	if cfg.Venue, err = c.venue.Get(); err != nil {
		return nil, err
	}
	if cfg.VenuePid, err = c.venuePid.Get(); err != nil {
		return nil, err
	}
	if cfg.Router, err = c.router.Get(); err != nil {
		return nil, err
	}
	if cfg.BuyBackToken, err = c.buyBackToken.Get(); err != nil {
		return nil, err
	}
	if cfg.Rewards, err = c.rewards.Get(); err != nil {
		return nil, err
	}
	if cfg.Settings, err = c.Settings(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsCAKEStaking reports whether the strategy stakes the token it earns.
func (c *Compound) IsCAKEStaking() (bool, error) {
	want, err := c.want.Get()
	if err != nil {
		return false, err
	}
	earned, err := c.earned.Get()
	if err != nil {
		return false, err
	}
	return want == earned, nil
}

// LastEarnBlock returns the block of the last compounding.
func (c *Compound) LastEarnBlock() (uint32, error) {
	return c.lastEarnBlock.Get()
}

// SetFees updates the harvest fees.
func (c *Compound) SetFees(caller pacoca.Address, controllerFee, buyBackRate uint64) error {
	s, err := c.Settings()
	if err != nil {
		return err
	}
	s.ControllerFee = controllerFee
	s.BuyBackRate = buyBackRate
	return c.setSettings(caller, s)
}

func (c *Compound) venueOf() (Venue, error) {
	addr, err := c.venue.Get()
	if err != nil {
		return nil, err
	}
	pid, err := c.venuePid.Get()
	if err != nil {
		return nil, err
	}
	return NewFarmVenue(c.resolver.Farm(addr), pool.ID(pid), c.env), nil
}

// Deposit pulls amount of want from the farm, stakes it into the venue and returns the shares credited.
func (c *Compound) Deposit(caller pacoca.Address, amount *uint256.Int) (*uint256.Int, error) {
	if err := c.onlyOwner(caller); err != nil {
		return nil, err
	}
	if err := c.pull(caller, amount); err != nil {
		return nil, err
	}
	shares, err := c.mint(amount)
	if err != nil {
		return nil, err
	}
	if err := c.stake(); err != nil {
		return nil, err
	}
	return shares, nil
}

// Withdraw burns shares, unstakes their want from the venue and sends it to the farm.
func (c *Compound) Withdraw(caller pacoca.Address, shares *uint256.Int) (*uint256.Int, error) {
	if err := c.onlyOwner(caller); err != nil {
		return nil, err
	}
	amount, err := c.burn(shares)
	if err != nil {
		return nil, err
	}
	if !amount.IsZero() {
		venue, err := c.venueOf()
		if err != nil {
			return nil, err
		}
		if err := venue.Withdraw(c.addr, amount); err != nil {
			return nil, err
		}
	}
	return c.payout(caller, amount)
}

// stake moves the whole want balance into the venue.
func (c *Compound) stake() error {
	want, err := c.wantToken()
	if err != nil {
		return err
	}
	balance, err := want.BalanceOf(c.addr)
	if err != nil {
		return err
	}
	if balance.IsZero() {
		return nil
	}
	venue, err := c.venueOf()
	if err != nil {
		return err
	}
	if err := venue.Deposit(c.addr, balance); err != nil {
		return err
	}
	return c.wantLockedTotal.Add(balance)
}

// Earn harvests the venue, takes the fees, converts what is left into want and stakes it.
// Want is either the earned token itself or reachable from it by swaps: LP wants are not supported.
func (c *Compound) Earn(caller pacoca.Address) error {
	if err := c.onlyGov(caller); err != nil {
		return err
	}
	venue, err := c.venueOf()
	if err != nil {
		return err
	}
	if err := venue.Withdraw(c.addr, new(uint256.Int)); err != nil {
		return err
	}

	earnedAddr, err := c.earned.Get()
	if err != nil {
		return err
	}
	earned := token.New(earnedAddr, c.env)
	amount, err := earned.BalanceOf(c.addr)
	if err != nil {
		return err
	}
	if amount.IsZero() {
		return nil
	}
	if amount, err = c.distributeFees(earned, amount); err != nil {
		return err
	}
	if amount, err = c.buyBack(earned, amount); err != nil {
		return err
	}

	wantAddr, err := c.want.Get()
	if err != nil {
		return err
	}
	if earnedAddr != wantAddr && !amount.IsZero() {
		if _, err := c.swap(earned, amount, Route(earnedAddr, wantAddr), c.addr); err != nil {
			return err
		}
	}

	if err := c.lastEarnBlock.Upsert(c.env.BlockContext().Number); err != nil {
		return err
	}
	if err := c.stake(); err != nil {
		return err
	}
	locked, err := c.wantLockedTotal.Get()
	if err != nil {
		return err
	}
	logger.Debug("earn", "strategy", c.addr, "earned", amount, "locked", locked)
	return c.env.Log(eventEarn, c.addr, nil, amount.ToBig(), locked.ToBig())
}

func (c *Compound) distributeFees(earned *token.Token, amount *uint256.Int) (*uint256.Int, error) {
	s, err := c.Settings()
	if err != nil {
		return nil, err
	}
	fee := pacoca.Bps(amount, s.ControllerFee)
	if fee.IsZero() {
		return amount, nil
	}
	rewards, err := c.rewards.Get()
	if err != nil {
		return nil, err
	}
	if err := earned.Transfer(c.addr, rewards, fee); err != nil {
		return nil, err
	}
	return new(uint256.Int).Sub(amount, fee), nil
}

func (c *Compound) buyBack(earned *token.Token, amount *uint256.Int) (*uint256.Int, error) {
	s, err := c.Settings()
	if err != nil {
		return nil, err
	}
	target, err := c.buyBackToken.Get()
	if err != nil {
		return nil, err
	}
	buy := pacoca.Bps(amount, s.BuyBackRate)
	if buy.IsZero() || target.IsZero() {
		return amount, nil
	}
	if earned.Address() == target {
		if err := earned.Transfer(c.addr, Burn, buy); err != nil {
			return nil, err
		}
	} else if _, err := c.swap(earned, buy, Route(earned.Address(), target), Burn); err != nil {
		return nil, err
	}
	return new(uint256.Int).Sub(amount, buy), nil
}

func (c *Compound) swap(from *token.Token, amount *uint256.Int, path []pacoca.Address, to pacoca.Address) (*uint256.Int, error) {
	routerAddr, err := c.router.Get()
	if err != nil {
		return nil, err
	}
	router, err := c.resolver.Router(routerAddr)
	if err != nil {
		return nil, err
	}
	if err := from.IncreaseAllowance(c.addr, routerAddr, amount); err != nil {
		return nil, err
	}
	return router.SwapExactTokensForTokens(c.addr, amount, new(uint256.Int), path, to)
}
