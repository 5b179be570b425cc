// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package utils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pacoca/pacoca/builtin/reverts"
)

func TestWrapHandlerFunc(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		body string
	}{
		{"ok", nil, http.StatusOK, ""},
		{"bad request", BadRequest(errors.New("pid: invalid")), http.StatusBadRequest, "pid: invalid\n"},
		{"not found", NotFound(errors.New("no ledger")), http.StatusNotFound, "no ledger\n"},
		{"no cause", &httpError{status: http.StatusForbidden}, http.StatusForbidden, ""},
		{"revert", errors.WithMessage(reverts.New(reverts.Invalid, "pool 9 does not exist"), "call"), http.StatusBadRequest, "call: pool 9 does not exist\n"},
		{"internal", errors.New("disk"), http.StatusInternalServerError, "disk\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := WrapHandlerFunc(func(http.ResponseWriter, *http.Request) error { return tt.err })
			rec := httptest.NewRecorder()
			h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, tt.body, rec.Body.String())
		})
	}
}

func TestParseJSON(t *testing.T) {
	var v struct {
		Limit uint64 `json:"limit"`
	}
	require.NoError(t, ParseJSON(strings.NewReader(`{"limit":3}`), &v))
	assert.Equal(t, uint64(3), v.Limit)

	assert.Error(t, ParseJSON(strings.NewReader(`{"limit":3,"extra":1}`), &v), "unknown fields are rejected")
}

func TestParseValues(t *testing.T) {
	_, err := ParseAddress("address", "0x12")
	assert.ErrorContains(t, err, "address")

	addr, err := ParseAddress("address", "0x0000000000000000000000000000000000000001")
	require.NoError(t, err)
	assert.False(t, addr.IsZero())

	n, err := ParseUint64("pid", "0x10")
	require.NoError(t, err)
	assert.Equal(t, uint64(16), n)

	_, err = ParseUint64("pid", "-1")
	assert.ErrorContains(t, err, "pid")
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WriteJSON(rec, M{"number": 1}))
	assert.Equal(t, JSONContentType, rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"number":1}`, rec.Body.String())
}
