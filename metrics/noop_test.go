// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNoopMetrics(t *testing.T) {
	metrics = defaultNoopMetrics()
	require.True(t, NoOp())

	server := httptest.NewServer(HTTPHandler())
	t.Cleanup(server.Close)

	Counter("deposits").Add(1)
	CounterVec("reverts", []string{"kind"}).AddWithLabel(1, map[string]string{"kind": "nonsense"})
	Gauge("block").Set(10)
	GaugeVec("tvl", []string{"pid"}).SetWithLabel(1, map[string]string{"pid": "0"})
	Histogram("exec", nil).Observe(3)
	HistogramVec("exec_vec", []string{"op"}, nil).ObserveWithLabels(3, map[string]string{"op": "deposit"})

	resp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
