// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package farm

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/pacoca/pacoca/api/utils"
	"github.com/pacoca/pacoca/builtin/farm/pool"
	"github.com/pacoca/pacoca/builtin/strategy"
	"github.com/pacoca/pacoca/pacoca"
	"github.com/pacoca/pacoca/runtime"
)

// vault is implemented by every strategy kind.
type vault interface {
	Gov() (pacoca.Address, error)
	SharesTotal() (*uint256.Int, error)
	WantLockedTotal() (*uint256.Int, error)
	Settings() (strategy.Settings, error)
}

// Farms serves the state of one farm. Views run against the pending block, so
// pending rewards are what a harvest sent now would pay.
type Farms struct {
	rt   *runtime.Runtime
	addr pacoca.Address
}

func New(rt *runtime.Runtime, addr pacoca.Address) *Farms {
	return &Farms{rt, addr}
}

func (f *Farms) getFarm(ctx *runtime.Context) (*Farm, error) {
	fm := ctx.Farm(f.addr)
	cfg, err := fm.Config()
	if err != nil {
		return nil, err
	}
	owner, err := fm.Owner()
	if err != nil {
		return nil, err
	}
	supply, err := ctx.Token(cfg.RewardToken).TotalSupply()
	if err != nil {
		return nil, err
	}
	weight, err := fm.TotalWeight()
	if err != nil {
		return nil, err
	}
	n, err := fm.PoolLength()
	if err != nil {
		return nil, err
	}
	return &Farm{
		Address:        f.addr,
		Owner:          owner,
		RewardToken:    cfg.RewardToken,
		RewardPerBlock: dec(cfg.RewardPerBlock),
		StartBlock:     cfg.StartBlock,
		MaxSupply:      dec(cfg.MaxSupply),
		TotalSupply:    dec(supply),
		TotalWeight:    weight,
		PoolLength:     n,
	}, nil
}

func (f *Farms) getStrategy(ctx *runtime.Context, addr pacoca.Address) (Strategy, error) {
	kind, err := strategy.KindOf(addr, ctx.Env())
	if err != nil {
		return Strategy{}, err
	}
	strat, err := ctx.Strategies().Strategy(addr)
	if err != nil {
		return Strategy{}, err
	}
	v, ok := strat.(vault)
	if !ok {
		return Strategy{}, errors.Errorf("strategy %v: unexpected type %T", addr, strat)
	}
	res := Strategy{Address: addr, Kind: kind.String()}
	if res.Gov, err = v.Gov(); err != nil {
		return Strategy{}, err
	}
	shares, err := v.SharesTotal()
	if err != nil {
		return Strategy{}, err
	}
	locked, err := v.WantLockedTotal()
	if err != nil {
		return Strategy{}, err
	}
	settings, err := v.Settings()
	if err != nil {
		return Strategy{}, err
	}
	res.SharesTotal, res.WantLockedTotal, res.Settings = dec(shares), dec(locked), convertSettings(settings)
	return res, nil
}

func (f *Farms) getPool(ctx *runtime.Context, pid pool.ID) (*Pool, error) {
	p, err := ctx.Farm(f.addr).PoolInfo(pid)
	if err != nil {
		return nil, err
	}
	symbol, err := ctx.Token(p.StakedAsset).Symbol()
	if err != nil {
		return nil, err
	}
	strat, err := f.getStrategy(ctx, p.Strategy)
	if err != nil {
		return nil, err
	}
	return convertPool(pid, p, symbol, strat), nil
}

func (f *Farms) getPosition(ctx *runtime.Context, pid pool.ID, user pacoca.Address) (*Position, error) {
	fm := ctx.Farm(f.addr)
	pos, err := fm.UserInfo(pid, user)
	if err != nil {
		return nil, err
	}
	pending, err := fm.PendingReward(pid, user)
	if err != nil {
		return nil, err
	}
	staked, err := fm.StakedWantTokens(pid, user)
	if err != nil {
		return nil, err
	}
	return &Position{
		Pid:              uint64(pid),
		User:             user,
		Amount:           dec(pos.Amount),
		RewardDebt:       dec(pos.RewardDebt),
		Pending:          dec(pending),
		StakedWantTokens: dec(staked),
	}, nil
}

func parsePid(req *http.Request) (pool.ID, error) {
	n, err := utils.ParseUint64("pid", mux.Vars(req)["pid"])
	if err != nil {
		return 0, err
	}
	return pool.ID(n), nil
}

func (f *Farms) handleGetFarm(w http.ResponseWriter, _ *http.Request) error {
	var res *Farm
	if err := f.rt.Call(func(ctx *runtime.Context) (err error) {
		res, err = f.getFarm(ctx)
		return
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, res)
}

func (f *Farms) handleGetPools(w http.ResponseWriter, _ *http.Request) error {
	var pools []*Pool
	if err := f.rt.Call(func(ctx *runtime.Context) error {
		n, err := ctx.Farm(f.addr).PoolLength()
		if err != nil {
			return err
		}
		pools = make([]*Pool, 0, n)
		for pid := range pool.ID(n) {
			p, err := f.getPool(ctx, pid)
			if err != nil {
				return err
			}
			pools = append(pools, p)
		}
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, pools)
}

func (f *Farms) handleGetPool(w http.ResponseWriter, req *http.Request) error {
	pid, err := parsePid(req)
	if err != nil {
		return err
	}
	var res *Pool
	if err := f.rt.Call(func(ctx *runtime.Context) (err error) {
		res, err = f.getPool(ctx, pid)
		return
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, res)
}

func (f *Farms) handleGetPosition(w http.ResponseWriter, req *http.Request) error {
	pid, err := parsePid(req)
	if err != nil {
		return err
	}
	user, err := utils.ParseAddress("address", mux.Vars(req)["address"])
	if err != nil {
		return err
	}
	var res *Position
	if err := f.rt.Call(func(ctx *runtime.Context) (err error) {
		res, err = f.getPosition(ctx, pid, user)
		return
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, res)
}

func (f *Farms) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("farm_get_farm").
		HandlerFunc(utils.WrapHandlerFunc(f.handleGetFarm))
	sub.Path("/pools").
		Methods(http.MethodGet).
		Name("farm_get_pools").
		HandlerFunc(utils.WrapHandlerFunc(f.handleGetPools))
	sub.Path("/pools/{pid}").
		Methods(http.MethodGet).
		Name("farm_get_pool").
		HandlerFunc(utils.WrapHandlerFunc(f.handleGetPool))
	sub.Path("/pools/{pid}/users/{address}").
		Methods(http.MethodGet).
		Name("farm_get_position").
		HandlerFunc(utils.WrapHandlerFunc(f.handleGetPosition))
}
