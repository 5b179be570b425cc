// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger records the context of Info and Warn calls.
type mockLogger struct {
	loggedData []any
}

func (m *mockLogger) With(_ ...any) log.Logger                     { return m }
func (m *mockLogger) New(_ ...any) log.Logger                      { return m }
func (m *mockLogger) Log(_ slog.Level, _ string, _ ...any)          {}
func (m *mockLogger) Write(_ slog.Level, _ string, _ ...any)        {}
func (m *mockLogger) Enabled(_ context.Context, _ slog.Level) bool { return true }
func (m *mockLogger) Handler() slog.Handler                        { return nil }
func (m *mockLogger) Trace(_ string, _ ...any)                      {}
func (m *mockLogger) Debug(_ string, _ ...any)                      {}
func (m *mockLogger) Error(_ string, _ ...any)                      {}
func (m *mockLogger) Crit(_ string, _ ...any)                       {}

func (m *mockLogger) Info(_ string, ctx ...any) {
	m.loggedData = append(m.loggedData, ctx...)
}

func (m *mockLogger) Warn(_ string, ctx ...any) {
	m.loggedData = append(m.loggedData, ctx...)
}

func respond(status int, delay time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(delay)
		w.WriteHeader(status)
	}
}

func TestRequestLoggerMiddleware(t *testing.T) {
	tests := []struct {
		name      string
		handler   http.HandlerFunc
		enabled   bool
		threshold time.Duration
		log5xx    bool
		shouldLog bool
	}{
		{"enabled", respond(http.StatusOK, 0), true, 0, false, true},
		{"disabled", respond(http.StatusOK, 0), false, 0, false, false},
		{"slow", respond(http.StatusOK, 15*time.Millisecond), false, 10 * time.Millisecond, false, true},
		{"fast", respond(http.StatusOK, 0), false, time.Second, false, false},
		{"5xx", respond(http.StatusInternalServerError, 0), false, 0, true, true},
		{"5xx not logged", respond(http.StatusInternalServerError, 0), false, 0, false, false},
		{"4xx", respond(http.StatusBadRequest, 0), false, 0, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := &mockLogger{}
			var enabled atomic.Bool
			enabled.Store(tt.enabled)

			h := RequestLoggerMiddleware(logger, &enabled, tt.threshold, tt.log5xx)(tt.handler)
			req := httptest.NewRequest(http.MethodPost, "http://example.com/logs/event", strings.NewReader(`{"order":"desc"}`))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if !tt.shouldLog {
				assert.Empty(t, logger.loggedData)
				return
			}
			assert.Contains(t, logger.loggedData, "http://example.com/logs/event")
			assert.Contains(t, logger.loggedData, http.MethodPost)
			assert.Contains(t, logger.loggedData, `{"order":"desc"}`)
			assert.Contains(t, logger.loggedData, rec.Code)
		})
	}
}

func TestRequestLoggerKeepsBody(t *testing.T) {
	var enabled atomic.Bool
	enabled.Store(true)

	var got string
	h := RequestLoggerMiddleware(&mockLogger{}, &enabled, 0, false)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		buf := new(strings.Builder)
		_, _ = io.Copy(buf, r.Body)
		got = buf.String()
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader("body")))
	assert.Equal(t, "body", got)
}

func TestRequestLoggerHijack(t *testing.T) {
	var enabled atomic.Bool
	enabled.Store(true)
	logger := &mockLogger{}

	hijacked := make(chan error, 1)
	h := RequestLoggerMiddleware(logger, &enabled, 0, false)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hj, ok := w.(http.Hijacker)
		if !ok {
			hijacked <- errors.New("not a hijacker")
			return
		}
		conn, _, err := hj.Hijack()
		if err == nil {
			conn.Close()
		}
		hijacked <- err
	}))
	served := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer close(served)
		h.ServeHTTP(w, r)
	}))
	defer ts.Close()

	conn, err := net.Dial("tcp", ts.Listener.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.Write([]byte("GET / HTTP/1.1\r\nHost: localhost\r\n\r\n"))
	require.NoError(t, err)

	assert.NoError(t, <-hijacked)
	<-served
	assert.Contains(t, logger.loggedData, http.StatusSwitchingProtocols)

	// a writer without hijacking support reports it
	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder()}
	_, _, err = rec.Hijack()
	assert.Error(t, err)
}
