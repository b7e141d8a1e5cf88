// Package metrics exposes Leonard's tick loop to Prometheus. Grounded on
// aistore's stats package use of github.com/prometheus/client_golang — the
// pack's only metrics library, and the one every aistore node binary
// registers its collectors against.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the collectors Leonard updates once per tick (§4.4, §7
// "WorkerTimeout"); the worker pool updates none of them.
type Metrics struct {
	TickDuration  prometheus.Histogram
	IslandCount   prometheus.Gauge
	QueueDepth    *prometheus.GaugeVec
	WorkerTimeout prometheus.Counter
	BodyCount     prometheus.Gauge
}

// New constructs and registers the collectors against reg. Passing a fresh
// registry (rather than prometheus.DefaultRegisterer) keeps repeated test
// construction from panicking on duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "azrael",
			Subsystem: "leonard",
			Name:      "tick_duration_seconds",
			Help:      "Wall-clock duration of one Leonard tick.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		IslandCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "azrael",
			Subsystem: "leonard",
			Name:      "islands",
			Help:      "Number of collision islands in the most recent tick.",
		}),
		QueueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "azrael",
			Subsystem: "leonard",
			Name:      "queue_depth",
			Help:      "Entries drained from a command queue on the most recent tick.",
		}, []string{"queue"}),
		WorkerTimeout: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "azrael",
			Subsystem: "worker",
			Name:      "timeouts_total",
			Help:      "Work packages whose result arrived after the per-tick deadline.",
		}),
		BodyCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "azrael",
			Subsystem: "leonard",
			Name:      "bodies",
			Help:      "Live bodies in Leonard's in-memory mirror.",
		}),
	}
	reg.MustRegister(m.TickDuration, m.IslandCount, m.QueueDepth, m.WorkerTimeout, m.BodyCount)
	return m
}
