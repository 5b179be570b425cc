// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"
	"gopkg.in/yaml.v3"

	"github.com/pacoca/pacoca/builtin/farm/pool"
	"github.com/pacoca/pacoca/builtin/strategy"
	"github.com/pacoca/pacoca/genesis"
	"github.com/pacoca/pacoca/pacoca"
	"github.com/pacoca/pacoca/runtime"
	"github.com/pacoca/pacoca/state"
)

func initAction(ctx *cli.Context) error {
	initLogger(ctx)
	dataDir, err := makeDataDir(ctx)
	if err != nil {
		return err
	}
	cfg, err := loadGenesisConfig(ctx)
	if err != nil {
		return err
	}
	d, err := initDataDir(dataDir, cfg)
	if err != nil {
		return err
	}
	fmt.Printf("deployed farm %v with %d pools into %s\n", d.Farm, len(d.Pools), dataDir)
	return nil
}

// initDataDir deploys cfg into an empty data dir.
func initDataDir(dataDir string, cfg *genesis.Config) (*genesis.Deployment, error) {
	path := filepath.Join(dataDir, deploymentName)
	if _, err := os.Stat(path); err == nil {
		return nil, errors.Errorf("%s already initialized", dataDir)
	}
	gen, err := genesis.New(cfg)
	if err != nil {
		return nil, err
	}
	mainDB, logDB, err := openDBs(dataDir)
	if err != nil {
		return nil, err
	}
	defer mainDB.Close()
	defer logDB.Close()

	rt := runtime.New(state.NewStater(mainDB)).SetLogDB(logDB)
	if err := syncLogDB(rt, logDB); err != nil {
		return nil, err
	}
	d, err := gen.Build(rt)
	if err != nil {
		return nil, err
	}
	hash, err := rt.Commit()
	if err != nil {
		return nil, err
	}
	logger.Info("genesis committed", "changes", hash)
	if err := d.Save(path); err != nil {
		return nil, errors.Wrap(err, "save deployment")
	}
	return d, nil
}

// withSession opens the data dir for the duration of fn.
func withSession(fn func(ctx *cli.Context, s *session) error) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		s, err := openSessionFromContext(ctx)
		if err != nil {
			return err
		}
		defer s.Close()
		return fn(ctx, s)
	}
}

var mineAction = withSession(func(ctx *cli.Context, s *session) error {
	if err := requireArgs(ctx, 1, 1); err != nil {
		return err
	}
	n, err := strconv.ParseUint(ctx.Args().Get(0), 10, 32)
	if err != nil {
		return errors.WithMessage(err, "count")
	}
	head, err := s.rt.Mine(uint32(n))
	if err != nil {
		return err
	}
	if _, err := s.rt.Commit(); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "head: block %d, time %d\n", head.Number, head.Time)
	return nil
})

var addPoolAction = withSession(func(ctx *cli.Context, s *session) error {
	if err := requireArgs(ctx, 3, 3); err != nil {
		return err
	}
	asset, err := resolveToken(s.deployment, ctx.Args().Get(0))
	if err != nil {
		return err
	}
	weight, err := strconv.ParseUint(ctx.Args().Get(1), 10, 64)
	if err != nil {
		return errors.WithMessage(err, "weight")
	}
	strat, err := parseAddress("strategy", ctx.Args().Get(2))
	if err != nil {
		return err
	}
	caller, err := s.caller(ctx)
	if err != nil {
		return err
	}
	return s.exec(caller, "farm.addPool", func(c *runtime.Context) error {
		f := c.Farm(s.deployment.Farm)
		capability, err := f.Authorize(caller)
		if err != nil {
			return err
		}
		pid, err := f.AddPool(capability, weight, asset, strat)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "pid: %d\n", pid)
		return nil
	})
})

var setPoolAction = withSession(func(ctx *cli.Context, s *session) error {
	if err := requireArgs(ctx, 2, 2); err != nil {
		return err
	}
	pid, err := parsePid(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	weight, err := strconv.ParseUint(ctx.Args().Get(1), 10, 64)
	if err != nil {
		return errors.WithMessage(err, "weight")
	}
	caller, err := s.caller(ctx)
	if err != nil {
		return err
	}
	return s.exec(caller, "farm.setPool", func(c *runtime.Context) error {
		f := c.Farm(s.deployment.Farm)
		capability, err := f.Authorize(caller)
		if err != nil {
			return err
		}
		return f.SetWeight(capability, pid, weight)
	})
})

var approveAction = withSession(func(ctx *cli.Context, s *session) error {
	if err := requireArgs(ctx, 3, 3); err != nil {
		return err
	}
	tok, err := resolveToken(s.deployment, ctx.Args().Get(0))
	if err != nil {
		return err
	}
	spender, err := parseAddress("spender", ctx.Args().Get(1))
	if err != nil {
		return err
	}
	amount, err := parseAmount(ctx.Args().Get(2))
	if err != nil {
		return err
	}
	caller, err := s.caller(ctx)
	if err != nil {
		return err
	}
	return s.exec(caller, "token.approve", func(c *runtime.Context) error {
		return c.Token(tok).Approve(caller, spender, amount)
	})
})

var mintAction = withSession(func(ctx *cli.Context, s *session) error {
	if err := requireArgs(ctx, 3, 3); err != nil {
		return err
	}
	tok, err := resolveToken(s.deployment, ctx.Args().Get(0))
	if err != nil {
		return err
	}
	to, err := parseAddress("to", ctx.Args().Get(1))
	if err != nil {
		return err
	}
	amount, err := parseAmount(ctx.Args().Get(2))
	if err != nil {
		return err
	}
	caller, err := s.caller(ctx)
	if err != nil {
		return err
	}
	return s.exec(caller, "token.mint", func(c *runtime.Context) error {
		t := c.Token(tok)
		capability, err := t.Authorize(caller)
		if err != nil {
			return err
		}
		return t.Mint(capability, to, amount)
	})
})

// stakeArgs parses <pid> <amount>.
func stakeArgs(ctx *cli.Context) (pool.ID, *uint256.Int, error) {
	if err := requireArgs(ctx, 2, 2); err != nil {
		return 0, nil, err
	}
	pid, err := parsePid(ctx.Args().Get(0))
	if err != nil {
		return 0, nil, err
	}
	amount, err := parseAmount(ctx.Args().Get(1))
	if err != nil {
		return 0, nil, err
	}
	return pid, amount, nil
}

var depositAction = withSession(func(ctx *cli.Context, s *session) error {
	pid, amount, err := stakeArgs(ctx)
	if err != nil {
		return err
	}
	caller, err := s.caller(ctx)
	if err != nil {
		return err
	}
	return s.exec(caller, "farm.deposit", func(c *runtime.Context) error {
		return c.Farm(s.deployment.Farm).Deposit(caller, pid, amount)
	})
})

var withdrawAction = withSession(func(ctx *cli.Context, s *session) error {
	pid, amount, err := stakeArgs(ctx)
	if err != nil {
		return err
	}
	caller, err := s.caller(ctx)
	if err != nil {
		return err
	}
	return s.exec(caller, "farm.withdraw", func(c *runtime.Context) error {
		return c.Farm(s.deployment.Farm).Withdraw(caller, pid, amount)
	})
})

var emergencyWithdrawAction = withSession(func(ctx *cli.Context, s *session) error {
	if err := requireArgs(ctx, 1, 1); err != nil {
		return err
	}
	pid, err := parsePid(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	caller, err := s.caller(ctx)
	if err != nil {
		return err
	}
	return s.exec(caller, "farm.emergencyWithdraw", func(c *runtime.Context) error {
		return c.Farm(s.deployment.Farm).EmergencyWithdraw(caller, pid)
	})
})

var pendingAction = withSession(func(ctx *cli.Context, s *session) error {
	if err := requireArgs(ctx, 1, 2); err != nil {
		return err
	}
	pid, err := parsePid(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	user, err := s.caller(ctx)
	if err != nil {
		return err
	}
	if len(ctx.Args()) == 2 {
		if user, err = parseAddress("user", ctx.Args().Get(1)); err != nil {
			return err
		}
	}
	return s.rt.Call(func(c *runtime.Context) error {
		f := c.Farm(s.deployment.Farm)
		pos, err := f.UserInfo(pid, user)
		if err != nil {
			return err
		}
		pending, err := f.PendingReward(pid, user)
		if err != nil {
			return err
		}
		staked, err := f.StakedWantTokens(pid, user)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "shares:     %v\nrewardDebt: %v\nstaked:     %v\npending:    %v\n",
			pos.Amount.Dec(), pos.RewardDebt.Dec(), staked.Dec(), pending.Dec())
		return nil
	})
})

var earnAction = withSession(func(ctx *cli.Context, s *session) error {
	if err := requireArgs(ctx, 1, 1); err != nil {
		return err
	}
	pid, err := parsePid(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	caller, err := s.caller(ctx)
	if err != nil {
		return err
	}
	return s.exec(caller, "strategy.earn", func(c *runtime.Context) error {
		p, err := c.Farm(s.deployment.Farm).PoolInfo(pid)
		if err != nil {
			return err
		}
		strat, err := c.Strategies().Compound(p.Strategy)
		if err != nil {
			return err
		}
		return strat.Earn(caller)
	})
})

// ledger returns the allocation ledger address.
func (s *session) ledger() (pacoca.Address, error) {
	if s.deployment.Ledger == nil {
		return pacoca.Address{}, errors.New("no allocation ledger deployed")
	}
	return *s.deployment.Ledger, nil
}

var claimDevAction = withSession(func(ctx *cli.Context, s *session) error {
	addr, err := s.ledger()
	if err != nil {
		return err
	}
	caller, err := s.caller(ctx)
	if err != nil {
		return err
	}
	return s.exec(caller, "allocation.claimDevFunds", func(c *runtime.Context) error {
		l := c.Ledger(addr)
		capability, err := l.Authorize(caller)
		if err != nil {
			return err
		}
		return l.ClaimDevFunds(capability)
	})
})

var sendPartnerAction = withSession(func(ctx *cli.Context, s *session) error {
	if err := requireArgs(ctx, 2, 2); err != nil {
		return err
	}
	addr, err := s.ledger()
	if err != nil {
		return err
	}
	to, err := parseAddress("to", ctx.Args().Get(0))
	if err != nil {
		return err
	}
	amount, err := parseAmount(ctx.Args().Get(1))
	if err != nil {
		return err
	}
	caller, err := s.caller(ctx)
	if err != nil {
		return err
	}
	return s.exec(caller, "allocation.sendPartnerFarmingFunds", func(c *runtime.Context) error {
		l := c.Ledger(addr)
		capability, err := l.Authorize(caller)
		if err != nil {
			return err
		}
		return l.SendPartnerFarmingFunds(capability, to, amount)
	})
})

var releaseAction = withSession(func(ctx *cli.Context, s *session) error {
	if err := requireArgs(ctx, 2, 2); err != nil {
		return err
	}
	i, err := strconv.Atoi(ctx.Args().Get(0))
	if err != nil || i < 0 || i >= len(s.deployment.Timelocks) {
		return errors.Errorf("timelock index: expected 0 to %d", len(s.deployment.Timelocks)-1)
	}
	amount, err := parseAmount(ctx.Args().Get(1))
	if err != nil {
		return err
	}
	caller, err := s.caller(ctx)
	if err != nil {
		return err
	}
	return s.exec(caller, "timelock.withdraw", func(c *runtime.Context) error {
		tl := c.Timelock(s.deployment.Timelocks[i])
		capability, err := tl.Authorize(caller)
		if err != nil {
			return err
		}
		return tl.Withdraw(capability, s.deployment.Token, amount)
	})
})

var cakeStakingFlag = cli.BoolFlag{
	Name:  "cake-staking",
	Usage: "stake the earned token itself instead of a pair",
}

// routeAction prints the address bundle and swap paths of a compounding strategy
// for the deployed farm.
func routeAction(ctx *cli.Context) error {
	if err := requireArgs(ctx, 2, 4); err != nil {
		return err
	}
	dataDir, err := makeDataDir(ctx)
	if err != nil {
		return err
	}
	d, err := genesis.LoadDeployment(filepath.Join(dataDir, deploymentName))
	if err != nil {
		return err
	}
	rewards, err := envAddress(envRewards)
	if err != nil {
		return err
	}
	params := &strategy.SetupParams{
		Platform:    ctx.Args().Get(0),
		Farm:        d.Farm,
		Pacoca:      d.Token,
		CAKEStaking: ctx.Bool(cakeStakingFlag.Name),
		Controller:  d.Gov,
		Rewards:     d.Owner,
	}
	if rewards != nil {
		params.Rewards = *rewards
	}
	tokens := make([]pacoca.Address, 0, 3)
	for _, arg := range ctx.Args()[1:] {
		addr, err := resolveToken(d, arg)
		if err != nil {
			return err
		}
		tokens = append(tokens, addr)
	}
	params.Want = tokens[0]
	if len(tokens) > 1 {
		params.Token0 = tokens[1]
	}
	if len(tokens) > 2 {
		params.Token1 = tokens[2]
	}
	bundle, err := strategy.Setup(params)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(os.Stdout)
	defer enc.Close()
	return enc.Encode(bundle)
}
