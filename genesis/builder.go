// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"time"

	"github.com/pkg/errors"

	"github.com/pacoca/pacoca/pacoca"
	"github.com/pacoca/pacoca/runtime"
)

// Builder helper to build the genesis state.
type Builder struct {
	timestamp uint64
	calls     []call
}

type call struct {
	caller pacoca.Address
	method string
	fn     func(ctx *runtime.Context) error
}

// Timestamp set the time of the block before the first call.
func (b *Builder) Timestamp(t uint64) *Builder {
	b.timestamp = t
	return b
}

// Call add a contract call. Each call is mined in its own block.
func (b *Builder) Call(caller pacoca.Address, method string, fn func(ctx *runtime.Context) error) *Builder {
	b.calls = append(b.calls, call{caller, method, fn})
	return b
}

// Build runs the calls on rt, which must be empty.
func (b *Builder) Build(rt *runtime.Runtime) error {
	head, err := rt.Block()
	if err != nil {
		return err
	}
	if head.Number != 0 {
		return errors.Errorf("state not empty: block %d", head.Number)
	}
	if b.timestamp > head.Time {
		if _, err := rt.IncreaseTime(time.Duration(b.timestamp-head.Time) * time.Second); err != nil {
			return err
		}
	}
	for _, c := range b.calls {
		if _, err := rt.Exec(c.caller, c.method, c.fn); err != nil {
			return errors.WithMessage(err, "genesis "+c.method)
		}
	}
	return nil
}
