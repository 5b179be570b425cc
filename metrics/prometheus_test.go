// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"strconv"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	dto "github.com/prometheus/client_model/go"
)

func gather(t *testing.T) map[string]*dto.MetricFamily {
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	out := make(map[string]*dto.MetricFamily)
	for _, mf := range families {
		out[mf.GetName()] = mf
	}
	return out
}

func TestPromMetrics(t *testing.T) {
	InitializePrometheusMetrics()
	require.False(t, NoOp())

	count := Counter("count1")
	countVec := CounterVec("countVec1", []string{"zeroOrOne"})
	gauge := Gauge("gauge1")
	gaugeVec := GaugeVec("gaugeVec1", []string{"zeroOrOne"})
	hist := Histogram("hist1", BucketExec)

	total := 0
	for i := range 10 {
		labels := map[string]string{"zeroOrOne": strconv.Itoa(i % 2)}
		count.Add(1)
		countVec.AddWithLabel(int64(i), labels)
		gauge.Add(int64(i))
		gaugeVec.AddWithLabel(int64(i), labels)
		hist.Observe(int64(i))
		total += i
	}
	// same name returns the same meter
	Counter("count1").Add(5)

	m := gather(t)
	require.Equal(t, float64(15), m["pacoca_count1"].Metric[0].GetCounter().GetValue())
	require.Equal(t, float64(total), m["pacoca_gauge1"].Metric[0].GetGauge().GetValue())
	require.Equal(t, float64(total), m["pacoca_hist1"].Metric[0].GetHistogram().GetSampleSum())

	sum := m["pacoca_countVec1"].Metric[0].GetCounter().GetValue() +
		m["pacoca_countVec1"].Metric[1].GetCounter().GetValue()
	require.Equal(t, float64(total), sum)

	gaugeVec.SetWithLabel(7, map[string]string{"zeroOrOne": "0"})
	m = gather(t)
	for _, metric := range m["pacoca_gaugeVec1"].Metric {
		if metric.GetLabel()[0].GetValue() == "0" {
			require.Equal(t, float64(7), metric.GetGauge().GetValue())
		}
	}
}

func TestLazyLoading(t *testing.T) {
	metrics = defaultNoopMetrics()

	require.IsType(t, &noopMeters{}, Counter("noopCounter"))
	require.IsType(t, &noopMeters{}, GaugeVec("noopGaugeVec", nil))

	lazyGauge := LazyLoadGauge("lazyGauge")
	lazyGaugeVec := LazyLoadGaugeVec("lazyGaugeVec", nil)
	lazyCounter := LazyLoadCounter("lazyCounter")
	lazyCounterVec := LazyLoadCounterVec("lazyCounterVec", nil)
	lazyHistogram := LazyLoadHistogram("lazyHistogram", nil)
	lazyHistogramVec := LazyLoadHistogramVec("lazyHistogramVec", nil, nil)

	InitializePrometheusMetrics()

	require.IsType(t, &promGaugeMeter{}, lazyGauge())
	require.IsType(t, &promGaugeVecMeter{}, lazyGaugeVec())
	require.IsType(t, &promCountMeter{}, lazyCounter())
	require.IsType(t, &promCountVecMeter{}, lazyCounterVec())
	require.IsType(t, &promHistogramMeter{}, lazyHistogram())
	require.IsType(t, &promHistogramVecMeter{}, lazyHistogramVec())
}
