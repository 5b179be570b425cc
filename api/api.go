// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"net/http/pprof"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/pacoca/pacoca/api/allocations"
	"github.com/pacoca/pacoca/api/blocks"
	"github.com/pacoca/pacoca/api/events"
	"github.com/pacoca/pacoca/api/farm"
	"github.com/pacoca/pacoca/api/middleware"
	"github.com/pacoca/pacoca/api/subscriptions"
	"github.com/pacoca/pacoca/genesis"
	"github.com/pacoca/pacoca/log"
	"github.com/pacoca/pacoca/logdb"
	"github.com/pacoca/pacoca/metrics"
	"github.com/pacoca/pacoca/runtime"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins       string
	PprofOn              bool
	EnableReqLogger      *atomic.Bool
	SlowQueriesThreshold time.Duration
	Log5xxErrors         bool
	EnableMetrics        bool
	LogsLimit            uint64
	BacktraceLimit       uint32
}

// New return api router and a func closing the open subscriptions. logDB may be
// nil, in which case the log endpoints are not served.
func New(rt *runtime.Runtime, logDB logdb.Reader, deployment *genesis.Deployment, opts Options) (http.HandlerFunc, func()) {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	blocks.New(rt).
		Mount(router, "/blocks")
	farm.New(rt, deployment.Farm).
		Mount(router, "/farm")
	allocations.New(rt, deployment.Ledger).
		Mount(router, "/allocations")
	if logDB != nil {
		events.New(logDB, opts.LogsLimit).
			Mount(router, "/logs/event")
	}
	subs := subscriptions.New(rt, logDB, origins, opts.BacktraceLimit)
	subs.Mount(router, "/subscriptions")

	if opts.PprofOn {
		router.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		router.HandleFunc("/debug/pprof/profile", pprof.Profile)
		router.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		router.HandleFunc("/debug/pprof/trace", pprof.Trace)
		router.PathPrefix("/debug/pprof/").HandlerFunc(pprof.Index)
	}

	if opts.EnableMetrics {
		router.PathPrefix("/metrics").Handler(metrics.HTTPHandler())
		router.Use(metricsMiddleware)
	}

	enabled := opts.EnableReqLogger
	if enabled == nil {
		enabled = &atomic.Bool{}
	}
	router.Use(middleware.RequestLoggerMiddleware(logger, enabled, opts.SlowQueriesThreshold, opts.Log5xxErrors))

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(handler)

	return handler.ServeHTTP, subs.Close // hijacked conns are not closed by the server
}
