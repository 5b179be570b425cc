// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package genesis deploys the contracts described by a Config onto an empty runtime.
package genesis

import (
	"os"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/pacoca/pacoca/builtin/allocation"
	"github.com/pacoca/pacoca/builtin/farm"
	"github.com/pacoca/pacoca/builtin/farm/pool"
	"github.com/pacoca/pacoca/builtin/strategy"
	"github.com/pacoca/pacoca/builtin/token"
	"github.com/pacoca/pacoca/pacoca"
	"github.com/pacoca/pacoca/runtime"
)

// Deployment records where everything was deployed.
type Deployment struct {
	Owner     pacoca.Address            `yaml:"owner"`
	Gov       pacoca.Address            `yaml:"gov"`
	Token     pacoca.Address            `yaml:"token"`
	Farm      pacoca.Address            `yaml:"farm"`
	Ledger    *pacoca.Address           `yaml:"ledger,omitempty"`
	Curve     string                    `yaml:"curve,omitempty"`
	Timelocks []pacoca.Address          `yaml:"timelocks,omitempty"`
	Tokens    map[string]pacoca.Address `yaml:"tokens"`
	Venues    map[string]pacoca.Address `yaml:"venues,omitempty"`
	Pools     []PoolDeployment          `yaml:"pools,omitempty"`
}

type PoolDeployment struct {
	Pid      pool.ID        `yaml:"pid"`
	Asset    string         `yaml:"asset"`
	Strategy pacoca.Address `yaml:"strategy"`
	Kind     string         `yaml:"kind"`
}

// ReleaseCurve returns the dev fund release curve of the ledger.
func (d *Deployment) ReleaseCurve() allocation.ReleaseCurve {
	if d.Curve == "linear" {
		return allocation.LinearCurve{}
	}
	return allocation.DefaultCurve
}

// Save writes the deployment as YAML.
func (d *Deployment) Save(path string) error {
	data, err := yaml.Marshal(d)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadDeployment reads a deployment saved by Save.
func LoadDeployment(path string) (*Deployment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var d Deployment
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, errors.Wrap(err, "decode deployment")
	}
	return &d, nil
}

// Genesis is a planned deployment.
type Genesis struct {
	builder    *Builder
	deployment *Deployment
}

// Deployment returns the addresses the build will deploy to.
func (g *Genesis) Deployment() *Deployment { return g.deployment }

// Build deploys onto rt, which must be empty.
func (g *Genesis) Build(rt *runtime.Runtime) (*Deployment, error) {
	rt.SetReleaseCurve(g.deployment.ReleaseCurve())
	if err := g.builder.Build(rt); err != nil {
		return nil, err
	}
	return g.deployment, nil
}

// New plans the deployment of cfg. Contract addresses derive from the owner and a
// deployment counter, so the same config always yields the same addresses.
func New(cfg *Config) (*Genesis, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var nonce uint64
	next := func() pacoca.Address {
		addr := pacoca.CreateContractAddress(cfg.Owner, nonce)
		nonce++
		return addr
	}

	owner := cfg.Owner
	d := &Deployment{
		Owner:  owner,
		Gov:    owner,
		Tokens: make(map[string]pacoca.Address),
		Venues: make(map[string]pacoca.Address),
	}
	if cfg.Gov != nil {
		d.Gov = *cfg.Gov
	}
	rewards := owner
	if cfg.Rewards != nil {
		rewards = *cfg.Rewards
	}

	builder := new(Builder).Timestamp(cfg.LaunchTime)

	// tokens
	d.Token = next()
	d.Tokens[cfg.Token.Symbol] = d.Token
	tokens := append([]TokenConfig{cfg.Token}, cfg.Tokens...)
	for _, t := range cfg.Tokens {
		d.Tokens[t.Symbol] = next()
	}
	builder.Call(owner, "token.deploy", func(ctx *runtime.Context) error {
		for _, t := range tokens {
			if err := ctx.Token(d.Tokens[t.Symbol]).Init(t.Name, t.Symbol, t.MaxSupply.value(), owner); err != nil {
				return errors.WithMessage(err, t.Symbol)
			}
		}
		return nil
	})

	// venues, with one plain strategy per venue pool
	venueStrategies := make(map[string][]pacoca.Address)
	for _, v := range cfg.Venues {
		d.Venues[v.Name] = next()
		for range v.Pools {
			venueStrategies[v.Name] = append(venueStrategies[v.Name], next())
		}
	}
	for _, v := range cfg.Venues {
		builder.Call(owner, "venue.deploy", func(ctx *runtime.Context) error {
			venue := ctx.Farm(d.Venues[v.Name])
			if err := venue.Init(owner, &farm.Config{
				RewardToken:    d.Tokens[v.RewardToken],
				RewardPerBlock: v.RewardPerBlock.value(),
			}); err != nil {
				return errors.WithMessage(err, v.Name)
			}
			capability, err := venue.Authorize(owner)
			if err != nil {
				return err
			}
			for i, p := range v.Pools {
				strat := strategy.NewSingle(venueStrategies[v.Name][i], ctx.Env())
				if err := strat.Init(d.Tokens[p.Asset], venue.Address(), owner); err != nil {
					return err
				}
				if _, err := venue.AddPool(capability, p.Weight, d.Tokens[p.Asset], strat.Address()); err != nil {
					return errors.WithMessagef(err, "%s pool %s", v.Name, p.Asset)
				}
			}
			return nil
		})
	}

	// farm
	d.Farm = next()
	builder.Call(owner, "farm.deploy", func(ctx *runtime.Context) error {
		return ctx.Farm(d.Farm).Init(owner, &farm.Config{
			RewardToken:    d.Token,
			RewardPerBlock: cfg.Farm.RewardPerBlock.value(),
			StartBlock:     cfg.Farm.StartBlock,
			MaxSupply:      cfg.Farm.MaxSupply.value(),
		})
	})

	for i, p := range cfg.Pools {
		kind := p.Strategy
		if kind == "" {
			kind = StrategySingle
		}
		pd := PoolDeployment{Pid: pool.ID(i), Asset: p.Asset, Strategy: next(), Kind: kind}
		d.Pools = append(d.Pools, pd)

		builder.Call(owner, "farm.addPool", func(ctx *runtime.Context) error {
			asset := d.Tokens[p.Asset]
			settings := p.Settings.settings()
			switch kind {
			case StrategyCompound:
				var buyBack pacoca.Address
				if settings.BuyBackRate > 0 {
					buyBack = d.Token
				}
				venue := cfg.venue(p.Venue)
				if err := strategy.NewCompound(pd.Strategy, ctx.Env(), ctx.Strategies()).Init(&strategy.CompoundConfig{
					Want:         asset,
					Earned:       d.Tokens[venue.RewardToken],
					Venue:        d.Venues[p.Venue],
					VenuePid:     p.VenuePid,
					BuyBackToken: buyBack,
					Rewards:      rewards,
					Settings:     settings,
				}, d.Farm, d.Gov); err != nil {
					return err
				}
			default:
				strat := strategy.NewSingle(pd.Strategy, ctx.Env())
				if err := strat.Init(asset, d.Farm, d.Gov); err != nil {
					return err
				}
				if settings != strategy.DefaultSettings() {
					if err := strat.SetSettings(d.Gov, settings.EntranceFeeFactor, settings.WithdrawFeeFactor); err != nil {
						return err
					}
				}
			}

			f := ctx.Farm(d.Farm)
			capability, err := f.Authorize(owner)
			if err != nil {
				return err
			}
			pid, err := f.AddPool(capability, p.Weight, asset, pd.Strategy)
			if err != nil {
				return errors.WithMessage(err, p.Asset)
			}
			if pid != pd.Pid {
				return errors.Errorf("pool %s: got pid %d, want %d", p.Asset, pid, pd.Pid)
			}
			return nil
		})
	}

	// supply outside the farm, minted before the farm takes the token over
	if cfg.Allocation != nil {
		ledger := next()
		d.Ledger = &ledger
		d.Curve = cfg.Allocation.Curve
		builder.Call(owner, "allocation.deploy", func(ctx *runtime.Context) error {
			if err := ctx.Ledger(ledger).Init(owner, d.Token); err != nil {
				return err
			}
			return mint(ctx.Token(d.Token), owner, ledger, allocation.Total)
		})
	}
	for _, tl := range cfg.Timelocks {
		addr := next()
		d.Timelocks = append(d.Timelocks, addr)
		builder.Call(owner, "timelock.deploy", func(ctx *runtime.Context) error {
			if err := ctx.Timelock(addr).Init(tl.Beneficiary, tl.Lock); err != nil {
				return err
			}
			return mint(ctx.Token(d.Token), owner, addr, tl.Amount.value())
		})
	}
	if len(cfg.Balances) > 0 {
		builder.Call(owner, "token.mint", func(ctx *runtime.Context) error {
			for _, b := range cfg.Balances {
				tok := d.Token
				if b.Token != "" {
					tok = d.Tokens[b.Token]
				}
				if err := mint(ctx.Token(tok), owner, b.Address, b.Amount.value()); err != nil {
					return err
				}
			}
			return nil
		})
	}

	// hand minting over to the farms
	builder.Call(owner, "token.transferOwnership", func(ctx *runtime.Context) error {
		type minter struct{ token, farm pacoca.Address }
		minters := []minter{{d.Token, d.Farm}}
		for _, v := range cfg.Venues {
			minters = append(minters, minter{d.Tokens[v.RewardToken], d.Venues[v.Name]})
		}
		for _, m := range minters {
			t := ctx.Token(m.token)
			capability, err := t.Authorize(owner)
			if err != nil {
				return err
			}
			if err := t.TransferOwnership(capability, m.farm); err != nil {
				return err
			}
		}
		return nil
	})

	return &Genesis{builder: builder, deployment: d}, nil
}

func (c *Config) venue(name string) *VenueConfig {
	for i := range c.Venues {
		if c.Venues[i].Name == name {
			return &c.Venues[i]
		}
	}
	return nil
}

func mint(tok *token.Token, owner, to pacoca.Address, amount *uint256.Int) error {
	capability, err := tok.Authorize(owner)
	if err != nil {
		return err
	}
	return tok.Mint(capability, to, amount)
}
