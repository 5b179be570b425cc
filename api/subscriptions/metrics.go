// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import "github.com/pacoca/pacoca/metrics"

var metricActiveSubscriptions = metrics.LazyLoadGaugeVec("api_active_websocket_count", []string{"subject"})
