// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"bytes"
	"log/slog"
	"testing"

	ethlog "github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
)

func TestWithContextFollowsRoot(t *testing.T) {
	logger := WithContext("pkg", "test")

	prev := ethlog.Root()
	defer ethlog.SetDefault(prev)

	var buf bytes.Buffer
	ethlog.SetDefault(ethlog.NewLogger(ethlog.JSONHandlerWithLevel(&buf, slog.LevelInfo)))

	logger.With("pid", 1).Info("deposit", "amount", "10")
	logger.Debug("hidden")

	out := buf.String()
	assert.Contains(t, out, `"pkg":"test"`)
	assert.Contains(t, out, `"pid":1`)
	assert.Contains(t, out, `"msg":"deposit"`)
	assert.NotContains(t, out, "hidden")
	assert.False(t, logger.Enabled(t.Context(), slog.LevelDebug))
}
