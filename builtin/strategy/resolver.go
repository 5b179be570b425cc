// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package strategy

import (
	"github.com/pacoca/pacoca/builtin/farm"
	"github.com/pacoca/pacoca/builtin/reverts"
	"github.com/pacoca/pacoca/pacoca"
	"github.com/pacoca/pacoca/xenv"
)

// Resolver binds the strategies deployed in the state of an environment,
// dispatching on the kind each was deployed with.
type Resolver struct {
	env     *xenv.Environment
	routers map[pacoca.Address]Router
}

// NewResolver creates a resolver. routers are the swap routers reachable by address.
func NewResolver(env *xenv.Environment, routers map[pacoca.Address]Router) *Resolver {
	return &Resolver{env: env, routers: routers}
}

// Strategy implements farm.StrategyResolver.
func (r *Resolver) Strategy(addr pacoca.Address) (farm.Strategy, error) {
	kind, err := KindOf(addr, r.env)
	if err != nil {
		return nil, err
	}
	switch kind {
	case KindSingle:
		return NewSingle(addr, r.env), nil
	case KindCompound:
		return NewCompound(addr, r.env, r), nil
	default:
		return nil, reverts.Newf(reverts.Invalid, "%v is not a strategy", addr)
	}
}

// Single binds a single asset strategy.
func (r *Resolver) Single(addr pacoca.Address) (*Single, error) {
	if err := r.expect(addr, KindSingle); err != nil {
		return nil, err
	}
	return NewSingle(addr, r.env), nil
}

// Compound binds a compounding strategy.
func (r *Resolver) Compound(addr pacoca.Address) (*Compound, error) {
	if err := r.expect(addr, KindCompound); err != nil {
		return nil, err
	}
	return NewCompound(addr, r.env, r), nil
}

func (r *Resolver) expect(addr pacoca.Address, want Kind) error {
	kind, err := KindOf(addr, r.env)
	if err != nil {
		return err
	}
	if kind != want {
		return reverts.Newf(reverts.Invalid, "%v is not a %v strategy", addr, want)
	}
	return nil
}

// Farm binds a farm whose pools resolve strategies through r.
func (r *Resolver) Farm(addr pacoca.Address) *farm.Farm {
	return farm.New(addr, r.env, r)
}

// Router returns the router deployed at addr.
func (r *Resolver) Router(addr pacoca.Address) (Router, error) {
	router, ok := r.routers[addr]
	if !ok || addr.IsZero() {
		return nil, reverts.Newf(reverts.Invalid, "strategy: no router at %v", addr)
	}
	return router, nil
}
