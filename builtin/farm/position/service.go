// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package position

import (
	"github.com/pkg/errors"

	"github.com/pacoca/pacoca/builtin/solidity"
	"github.com/pacoca/pacoca/pacoca"
)

var slotPositions = pacoca.BytesToBytes32([]byte("positions"))

type key struct {
	pid  uint64
	user pacoca.Address
}

func (k key) Bytes() []byte {
	return append(pacoca.Uint64Bytes(k.pid), k.user.Bytes()...)
}

// Service is the position ledger.
type Service struct {
	positions *solidity.Mapping[key, *Position]
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		positions: solidity.NewMapping[key, *Position](sctx, slotPositions),
	}
}

// Get returns the position of user in pool pid. Unknown positions are empty.
func (s *Service) Get(pid uint64, user pacoca.Address) (*Position, error) {
	p, err := s.positions.Get(key{pid, user})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get position")
	}
	if p == nil {
		return newPosition(), nil
	}
	return p, nil
}

// Set stores the position. Records persist once created, even when emptied.
func (s *Service) Set(pid uint64, user pacoca.Address, p *Position) error {
	if err := s.positions.Upsert(key{pid, user}, p); err != nil {
		return errors.Wrap(err, "failed to set position")
	}
	return nil
}
