// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package allocations

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/pacoca/pacoca/api/utils"
	"github.com/pacoca/pacoca/pacoca"
	"github.com/pacoca/pacoca/runtime"
)

type Allocation struct {
	ID        uint8  `json:"id"`
	Name      string `json:"name"`
	Total     string `json:"total"`
	Claimed   string `json:"claimed"`
	Remaining string `json:"remaining"`
}

type Ledger struct {
	Address pacoca.Address `json:"address"`
	Owner   pacoca.Address `json:"owner"`
	// PercentageMintedByChef is in basis points.
	PercentageMintedByChef uint64        `json:"percentageMintedByChef"`
	DevReleasable          string        `json:"devReleasable"`
	Allocations            []*Allocation `json:"allocations"`
}

type Allocations struct {
	rt     *runtime.Runtime
	ledger *pacoca.Address
}

// New serves the ledger at addr. A nil addr answers not found.
func New(rt *runtime.Runtime, ledger *pacoca.Address) *Allocations {
	return &Allocations{rt, ledger}
}

func (a *Allocations) handleGetLedger(w http.ResponseWriter, _ *http.Request) error {
	if a.ledger == nil {
		return utils.NotFound(errors.New("no allocation ledger deployed"))
	}
	res := &Ledger{Address: *a.ledger}
	if err := a.rt.Call(func(ctx *runtime.Context) error {
		l := ctx.Ledger(*a.ledger)
		var err error
		if res.Owner, err = l.Owner(); err != nil {
			return err
		}
		if res.PercentageMintedByChef, err = l.PercentageMintedByChef(); err != nil {
			return err
		}
		releasable, err := l.DevReleasable()
		if err != nil {
			return err
		}
		res.DevReleasable = releasable.Dec()

		all, err := l.Allocations()
		if err != nil {
			return err
		}
		for i, alloc := range all {
			res.Allocations = append(res.Allocations, &Allocation{
				ID:        uint8(i),
				Name:      alloc.Name,
				Total:     alloc.Total.Dec(),
				Claimed:   alloc.Claimed.Dec(),
				Remaining: alloc.Remaining().Dec(),
			})
		}
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, res)
}

func (a *Allocations) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("allocations_get_ledger").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetLedger))
}
