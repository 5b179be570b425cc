// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package runtime executes calls against the contracts atomically, one block per call.
package runtime

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/pacoca/pacoca/builtin/allocation"
	"github.com/pacoca/pacoca/builtin/farm"
	"github.com/pacoca/pacoca/builtin/reverts"
	"github.com/pacoca/pacoca/builtin/solidity"
	"github.com/pacoca/pacoca/builtin/strategy"
	"github.com/pacoca/pacoca/builtin/timelock"
	"github.com/pacoca/pacoca/builtin/token"
	"github.com/pacoca/pacoca/log"
	"github.com/pacoca/pacoca/logdb"
	"github.com/pacoca/pacoca/metrics"
	"github.com/pacoca/pacoca/pacoca"
	"github.com/pacoca/pacoca/state"
	"github.com/pacoca/pacoca/tx"
	"github.com/pacoca/pacoca/xenv"
)

var (
	// MetaAddress holds runtime bookkeeping in state.
	MetaAddress = pacoca.BytesToAddress([]byte("runtime"))
	slotHead    = pacoca.BytesToBytes32([]byte("head"))

	logger = log.WithContext("pkg", "runtime")

	metricExecCount    = metrics.LazyLoadCounterVec("runtime_exec_count", []string{"method", "status"})
	metricExecDuration = metrics.LazyLoadHistogram("runtime_exec_duration_ms", metrics.BucketExec)
	metricBlockNumber  = metrics.LazyLoadGauge("runtime_block_number")
)

// Head is the latest mined block.
type Head struct {
	Number uint32
	Time   uint64
}

func (h Head) next() Head {
	return Head{Number: h.Number + 1, Time: h.Time + pacoca.BlockInterval}
}

// Runtime is to support call execution.
type Runtime struct {
	mu      sync.Mutex
	stater  *state.Stater
	state   *state.State
	routers map[pacoca.Address]strategy.Router
	curve   allocation.ReleaseCurve
	logDB   *logdb.LogDB

	// receipts not yet committed
	receipts tx.Receipts
	// closed and replaced whenever the head moves or changes are committed
	changed chan struct{}
}

// New create a Runtime object over the state of the given stater.
func New(stater *state.Stater) *Runtime {
	return &Runtime{
		stater:  stater,
		state:   stater.NewState(),
		routers: make(map[pacoca.Address]strategy.Router),
		changed: make(chan struct{}),
	}
}

// SetLogDB sets the event log written on Commit.
// Returns this runtime.
func (rt *Runtime) SetLogDB(db *logdb.LogDB) *Runtime {
	rt.logDB = db
	return rt
}

// SetRouter registers the swap router deployed at addr.
// Returns this runtime.
func (rt *Runtime) SetRouter(addr pacoca.Address, router strategy.Router) *Runtime {
	rt.routers[addr] = router
	return rt
}

// SetReleaseCurve sets the dev fund release curve of allocation ledgers.
// Returns this runtime.
func (rt *Runtime) SetReleaseCurve(curve allocation.ReleaseCurve) *Runtime {
	rt.curve = curve
	return rt
}

func (rt *Runtime) headSlot() *solidity.Raw[Head] {
	return solidity.NewRaw[Head](solidity.NewContext(MetaAddress, rt.state), slotHead)
}

// Block returns the latest mined block.
func (rt *Runtime) Block() (Head, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.headSlot().Get()
}

// Changed returns a channel closed on the next head move or commit.
func (rt *Runtime) Changed() <-chan struct{} {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.changed
}

// notify wakes the waiters of Changed. Must be called with mu held.
func (rt *Runtime) notify() {
	close(rt.changed)
	rt.changed = make(chan struct{})
}

// Exec runs fn as one call of caller, mined in its own block.
// Any error reverts every change fn made. Revert errors come back together with a
// receipt marked as reverted.
func (rt *Runtime) Exec(caller pacoca.Address, method string, fn func(ctx *Context) error) (*tx.Receipt, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	start := time.Now()
	head, err := rt.headSlot().Get()
	if err != nil {
		return nil, err
	}
	next := head.next()

	checkpoint := rt.state.NewCheckpoint()
	ctx := rt.newContext(caller, next)
	err = fn(ctx)
	if err == nil {
		err = rt.headSlot().Upsert(next)
	}
	if err != nil {
		rt.state.RevertTo(checkpoint)
		if !reverts.IsRevertErr(err) {
			metricExecCount().AddWithLabel(1, map[string]string{"method": method, "status": "error"})
			return nil, errors.WithMessage(err, method)
		}
		metricExecCount().AddWithLabel(1, map[string]string{"method": method, "status": "reverted"})
		logger.Debug("call reverted", "method", method, "caller", caller, "reason", err)
		return &tx.Receipt{
			Method:      method,
			Caller:      caller,
			BlockNumber: next.Number,
			BlockTime:   next.Time,
			Reverted:    true,
			Reason:      err.Error(),
		}, err
	}

	receipt := &tx.Receipt{
		Method:      method,
		Caller:      caller,
		BlockNumber: next.Number,
		BlockTime:   next.Time,
		Events:      ctx.env.Events(),
	}
	rt.receipts = append(rt.receipts, receipt)
	rt.notify()

	metricExecCount().AddWithLabel(1, map[string]string{"method": method, "status": "ok"})
	metricExecDuration().Observe(time.Since(start).Milliseconds())
	metricBlockNumber().Set(int64(next.Number))
	logger.Trace("call executed", "method", method, "caller", caller, "block", next.Number, "events", len(receipt.Events))
	return receipt, nil
}

// Call runs fn against the pending block and discards whatever it writes.
func (rt *Runtime) Call(fn func(ctx *Context) error) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	head, err := rt.headSlot().Get()
	if err != nil {
		return err
	}
	checkpoint := rt.state.NewCheckpoint()
	defer rt.state.RevertTo(checkpoint)

	return fn(rt.newContext(pacoca.Address{}, head.next()))
}

// Mine advances the chain by n empty blocks.
func (rt *Runtime) Mine(n uint32) (Head, error) {
	return rt.updateHead(func(h *Head) {
		h.Number += n
		h.Time += uint64(n) * pacoca.BlockInterval
	})
}

// IncreaseTime moves the clock forward without mining.
func (rt *Runtime) IncreaseTime(d time.Duration) (Head, error) {
	return rt.updateHead(func(h *Head) {
		h.Time += uint64(d / time.Second)
	})
}

func (rt *Runtime) updateHead(fn func(h *Head)) (Head, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	slot := rt.headSlot()
	head, err := slot.Get()
	if err != nil {
		return Head{}, err
	}
	fn(&head)
	if err := slot.Upsert(head); err != nil {
		return Head{}, err
	}
	metricBlockNumber().Set(int64(head.Number))
	rt.notify()
	return head, nil
}

// Commit writes all changes since the last commit into the store, and the events
// of the executed calls into the log db if one is set.
// It returns the hash of the committed changes.
func (rt *Runtime) Commit() (pacoca.Bytes32, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	stage := rt.state.Stage()
	hash := stage.Hash()
	if err := stage.Commit(rt.stater.Store()); err != nil {
		return pacoca.Bytes32{}, err
	}
	rt.state = rt.stater.NewState()

	if rt.logDB != nil && len(rt.receipts) > 0 {
		w := rt.logDB.NewWriter()
		if err := w.Write(rt.receipts); err != nil {
			_ = w.Rollback()
			return pacoca.Bytes32{}, errors.Wrap(err, "write logs")
		}
		if err := w.Commit(); err != nil {
			return pacoca.Bytes32{}, errors.Wrap(err, "commit logs")
		}
	}
	logger.Debug("committed", "changes", stage.Len(), "receipts", len(rt.receipts))
	rt.receipts = nil
	rt.notify()
	return hash, nil
}

// StageHash returns the hash of all uncommitted changes.
func (rt *Runtime) StageHash() pacoca.Bytes32 {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.state.Stage().Hash()
}

func (rt *Runtime) newContext(caller pacoca.Address, head Head) *Context {
	env := xenv.New(rt.state, &xenv.BlockContext{Number: head.Number, Time: head.Time}, caller)
	return &Context{
		env:      env,
		resolver: strategy.NewResolver(env, rt.routers),
		curve:    rt.curve,
	}
}

// Context gives a call access to the contracts.
type Context struct {
	env      *xenv.Environment
	resolver *strategy.Resolver
	curve    allocation.ReleaseCurve
}

func (c *Context) Env() *xenv.Environment        { return c.env }
func (c *Context) Caller() pacoca.Address        { return c.env.Caller() }
func (c *Context) BlockNumber() uint32           { return c.env.BlockContext().Number }
func (c *Context) Strategies() *strategy.Resolver { return c.resolver }

func (c *Context) Token(addr pacoca.Address) *token.Token { return token.New(addr, c.env) }

func (c *Context) Farm(addr pacoca.Address) *farm.Farm { return c.resolver.Farm(addr) }

func (c *Context) Ledger(addr pacoca.Address) *allocation.Ledger {
	return allocation.New(addr, c.env, c.curve)
}

func (c *Context) Timelock(addr pacoca.Address) *timelock.Timelock { return timelock.New(addr, c.env) }
