// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"github.com/pkg/errors"

	"github.com/pacoca/pacoca/builtin/reverts"
	"github.com/pacoca/pacoca/builtin/solidity"
	"github.com/pacoca/pacoca/pacoca"
)

var (
	slotPools       = pacoca.BytesToBytes32([]byte("pools"))
	slotPoolsCount  = pacoca.BytesToBytes32([]byte("pools-count"))
	slotPidByAsset  = pacoca.BytesToBytes32([]byte("pid-by-asset"))
	slotTotalWeight = pacoca.BytesToBytes32([]byte("total-weight"))
)

// ID identifies a pool, in order of registration.
type ID uint64

func (id ID) Bytes() []byte {
	return pacoca.Uint64Bytes(uint64(id))
}

// Service is the pool registry.
type Service struct {
	pools       *solidity.Mapping[ID, *Pool]
	count       *solidity.Raw[uint64]
	pidByAsset  *solidity.Mapping[pacoca.Address, uint64] // pid+1, zero when absent
	totalWeight *solidity.Raw[uint64]
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		pools:       solidity.NewMapping[ID, *Pool](sctx, slotPools),
		count:       solidity.NewRaw[uint64](sctx, slotPoolsCount),
		pidByAsset:  solidity.NewMapping[pacoca.Address, uint64](sctx, slotPidByAsset),
		totalWeight: solidity.NewRaw[uint64](sctx, slotTotalWeight),
	}
}

// Len returns the number of registered pools.
func (s *Service) Len() (uint64, error) {
	return s.count.Get()
}

// TotalWeight returns the sum of all pool weights.
func (s *Service) TotalWeight() (uint64, error) {
	return s.totalWeight.Get()
}

// PidOf looks up the pool registered for asset.
func (s *Service) PidOf(asset pacoca.Address) (ID, bool, error) {
	v, err := s.pidByAsset.Get(asset)
	if err != nil {
		return 0, false, errors.Wrap(err, "failed to get pool id")
	}
	if v == 0 {
		return 0, false, nil
	}
	return ID(v - 1), true, nil
}

// Get returns the pool, reverting when pid is unknown.
func (s *Service) Get(pid ID) (*Pool, error) {
	n, err := s.Len()
	if err != nil {
		return nil, err
	}
	if uint64(pid) >= n {
		return nil, reverts.Newf(reverts.Invalid, "pool %d does not exist", pid)
	}
	p, err := s.pools.Get(pid)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get pool")
	}
	return p, nil
}

// Update writes back a pool read with Get.
func (s *Service) Update(pid ID, p *Pool) error {
	if err := s.pools.Update(pid, p); err != nil {
		return errors.Wrap(err, "failed to update pool")
	}
	return nil
}

// Add registers a pool for asset. It reverts if the asset already has one.
func (s *Service) Add(weight uint64, asset, strategy pacoca.Address, block uint32) (ID, error) {
	_, exists, err := s.PidOf(asset)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, reverts.New(reverts.DuplicateAsset, "Can't add another pool of same asset")
	}
	n, err := s.Len()
	if err != nil {
		return 0, err
	}
	total, err := s.TotalWeight()
	if err != nil {
		return 0, err
	}
	if total+weight < total {
		return 0, reverts.New(reverts.Invalid, "total weight overflow")
	}

	pid := ID(n)
	if err := s.pools.Insert(pid, newPool(weight, asset, strategy, block)); err != nil {
		return 0, errors.Wrap(err, "failed to insert pool")
	}
	if err := s.pidByAsset.Upsert(asset, n+1); err != nil {
		return 0, err
	}
	if err := s.count.Upsert(n + 1); err != nil {
		return 0, err
	}
	if err := s.totalWeight.Upsert(total + weight); err != nil {
		return 0, err
	}
	return pid, nil
}

// SetWeight changes the weight of a pool and the total accordingly.
func (s *Service) SetWeight(pid ID, weight uint64) error {
	p, err := s.Get(pid)
	if err != nil {
		return err
	}
	total, err := s.TotalWeight()
	if err != nil {
		return err
	}
	rest := total - p.Weight
	if rest+weight < rest {
		return reverts.New(reverts.Invalid, "total weight overflow")
	}
	total = rest + weight
	p.Weight = weight
	if err := s.Update(pid, p); err != nil {
		return err
	}
	return s.totalWeight.Upsert(total)
}
