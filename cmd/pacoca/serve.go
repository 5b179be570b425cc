// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/pacoca/pacoca/api"
	"github.com/pacoca/pacoca/metrics"
	"github.com/pacoca/pacoca/runtime"
)

func serveAction(ctx *cli.Context) error {
	s, err := openSessionFromContext(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}

	enableReqLogger := &atomic.Bool{}
	enableReqLogger.Store(ctx.Bool(enableAPILogsFlag.Name))
	handler, closeSubs := api.New(s.rt, s.logDB, s.deployment, api.Options{
		AllowedOrigins:       ctx.String(apiCorsFlag.Name),
		PprofOn:              ctx.Bool(pprofFlag.Name),
		EnableReqLogger:      enableReqLogger,
		SlowQueriesThreshold: ctx.Duration(apiSlowQueriesThresholdFlag.Name),
		Log5xxErrors:         ctx.Bool(apiLog5xxErrorsFlag.Name),
		EnableMetrics:        ctx.Bool(enableMetricsFlag.Name),
		LogsLimit:            ctx.Uint64(apiLogsLimitFlag.Name),
		BacktraceLimit:       uint32(ctx.Uint(apiBacktraceLimitFlag.Name)),
	})

	addr := ctx.String(apiAddrFlag.Name)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "listen API addr [%v]", addr)
	}
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: time.Second, ReadTimeout: 5 * time.Second}

	printStartupMessage(s.deployment, s.dataDir, "http://"+listener.Addr().String()+"/")

	exitCtx := handleExitSignal()
	g, gctx := errgroup.WithContext(exitCtx)
	g.Go(func() error {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return produceBlocks(gctx, s.rt, ctx.Duration(blockIntervalFlag.Name))
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		defer closeSubs()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// produceBlocks mines and commits an empty block every interval, so that
// rewards keep accruing while nobody sends calls.
func produceBlocks(ctx context.Context, rt *runtime.Runtime, interval time.Duration) error {
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			head, err := rt.Mine(1)
			if err != nil {
				return errors.Wrap(err, "mine")
			}
			if _, err := rt.Commit(); err != nil {
				return errors.Wrap(err, "commit")
			}
			logger.Debug("mined block", "number", head.Number, "time", head.Time)
		}
	}
}
