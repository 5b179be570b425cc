// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/pacoca/pacoca/genesis"
	"github.com/pacoca/pacoca/logdb"
	"github.com/pacoca/pacoca/lvldb"
	"github.com/pacoca/pacoca/pacoca"
	"github.com/pacoca/pacoca/runtime"
	"github.com/pacoca/pacoca/state"
)

// session is an open data dir.
type session struct {
	dataDir    string
	mainDB     *lvldb.LevelDB
	logDB      *logdb.LogDB
	rt         *runtime.Runtime
	deployment *genesis.Deployment
	out        io.Writer
}

func openDBs(dataDir string) (*lvldb.LevelDB, *logdb.LogDB, error) {
	mainDB, err := lvldb.New(filepath.Join(dataDir, mainDBName), lvldb.Options{
		CacheSize:              128,
		OpenFilesCacheCapacity: 64,
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "open main database")
	}
	logDB, err := logdb.New(filepath.Join(dataDir, logDBName))
	if err != nil {
		mainDB.Close()
		return nil, nil, errors.Wrap(err, "open log database")
	}
	return mainDB, logDB, nil
}

// openSession opens a data dir initialized by init.
func openSession(dataDir string) (*session, error) {
	d, err := genesis.LoadDeployment(filepath.Join(dataDir, deploymentName))
	if err != nil {
		if os.IsNotExist(errors.Cause(err)) {
			return nil, errors.Errorf("%s is not initialized, run init first", dataDir)
		}
		return nil, err
	}
	mainDB, logDB, err := openDBs(dataDir)
	if err != nil {
		return nil, err
	}
	rt := runtime.New(state.NewStater(mainDB)).
		SetLogDB(logDB).
		SetReleaseCurve(d.ReleaseCurve())
	if err := syncLogDB(rt, logDB); err != nil {
		mainDB.Close()
		logDB.Close()
		return nil, err
	}
	return &session{
		dataDir:    dataDir,
		mainDB:     mainDB,
		logDB:      logDB,
		rt:         rt,
		deployment: d,
		out:        os.Stdout,
	}, nil
}

// syncLogDB drops logs of blocks the committed state has not reached, as left behind
// by a data dir that was re-initialized or restored from an older state.
func syncLogDB(rt *runtime.Runtime, logDB *logdb.LogDB) error {
	head, err := rt.Block()
	if err != nil {
		return err
	}
	newest, err := logDB.NewestBlock()
	if err != nil {
		return errors.Wrap(err, "newest logged block")
	}
	if newest <= head.Number {
		return nil
	}
	logger.Warn("log db ahead of state, truncating", "head", head.Number, "newest", newest)
	w := logDB.NewWriter()
	if err := w.Truncate(head.Number + 1); err != nil {
		_ = w.Rollback()
		return errors.Wrap(err, "truncate log db")
	}
	return w.Commit()
}

func openSessionFromContext(ctx *cli.Context) (*session, error) {
	initLogger(ctx)
	dataDir, err := makeDataDir(ctx)
	if err != nil {
		return nil, err
	}
	return openSession(dataDir)
}

func (s *session) Close() {
	if err := s.logDB.Close(); err != nil {
		logger.Warn("failed to close log database", "err", err)
	}
	if err := s.mainDB.Close(); err != nil {
		logger.Warn("failed to close main database", "err", err)
	}
}

// caller returns the from flag, or the deployment owner.
func (s *session) caller(ctx *cli.Context) (pacoca.Address, error) {
	if from := ctx.String(fromFlag.Name); from != "" {
		return parseAddress("from", from)
	}
	return s.deployment.Owner, nil
}

// exec runs fn as one call, then commits it.
func (s *session) exec(caller pacoca.Address, method string, fn func(*runtime.Context) error) error {
	receipt, err := s.rt.Exec(caller, method, fn)
	if err != nil {
		return err
	}
	if _, err := s.rt.Commit(); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%s: block %d, %d events, receipt %v\n",
		method, receipt.BlockNumber, len(receipt.Events), receipt.ID())
	return nil
}
