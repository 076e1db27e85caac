// Copyright 2026 The CurveFS Client Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics exposes the client's Prometheus instrumentation: counters
// for operation invocations and errors by kind, a histogram for write/read
// pipeline latency, and gauges for cache and buffer-pool occupancy.
// Registration happens once against a private registry so importing this
// package twice in tests never panics on duplicate registration.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the private registry every collector below is registered
// against. Nothing in this module serves it over HTTP; callers gather from
// it directly.
var Registry = prometheus.NewRegistry()

var (
	OpsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cfsclient",
		Name:      "ops_total",
		Help:      "Count of operation-handler calls by operation name and result kind.",
	}, []string{"op", "kind"})

	PipelineLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cfsclient",
		Name:      "pipeline_latency_seconds",
		Help:      "Latency of the write/read pipeline end to end.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"pipeline"})

	DentryCacheSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "cfsclient",
		Name:      "dentry_cache_entries",
		Help:      "Number of dentries currently cached.",
	})

	InodeCacheSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "cfsclient",
		Name:      "inode_cache_entries",
		Help:      "Number of inodes currently cached.",
	})

	ListingBuffersInUse = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "cfsclient",
		Name:      "listing_buffers_in_use",
		Help:      "Number of directory-listing buffers currently checked out of the pool.",
	})
)

func init() {
	Registry.MustRegister(OpsTotal, PipelineLatencySeconds, DentryCacheSize, InodeCacheSize, ListingBuffersInUse)
}

// ObserveOp records one operation-handler invocation and its outcome kind.
func ObserveOp(op, kind string) {
	OpsTotal.WithLabelValues(op, kind).Inc()
}

// Timer returns a function that, when called, records the elapsed time
// since Timer was called under the given pipeline label.
func Timer(pipeline string) func() {
	start := time.Now()
	return func() {
		PipelineLatencySeconds.WithLabelValues(pipeline).Observe(time.Since(start).Seconds())
	}
}
