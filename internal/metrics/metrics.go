// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package metrics provides shared Prometheus registration helpers, following
// the teacher's metrics/metric.go Averager pattern: every subsystem asks for
// a named counter/gauge against one process-wide Registerer instead of
// rolling its own.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry wraps a prometheus.Registerer with subsystem-prefixed helpers.
type Registry struct {
	reg       prometheus.Registerer
	namespace string
}

// NewRegistry returns a Registry that prefixes every metric name with
// namespace (e.g. "nodekernel").
func NewRegistry(reg prometheus.Registerer, namespace string) *Registry {
	return &Registry{reg: reg, namespace: namespace}
}

// Counter registers (or looks up, if already registered) a named counter
// under the given subsystem.
func (r *Registry) Counter(subsystem, name, help string) prometheus.Counter {
	c := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	})
	if err := r.reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(prometheus.Counter)
		}
		panic(fmt.Sprintf("metrics: register counter %s_%s: %v", subsystem, name, err))
	}
	return c
}

// CounterVec registers (or looks up) a named counter vector.
func (r *Registry) CounterVec(subsystem, name, help string, labels []string) *prometheus.CounterVec {
	c := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	}, labels)
	if err := r.reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(*prometheus.CounterVec)
		}
		panic(fmt.Sprintf("metrics: register counter_vec %s_%s: %v", subsystem, name, err))
	}
	return c
}

// Gauge registers (or looks up) a named gauge.
func (r *Registry) Gauge(subsystem, name, help string) prometheus.Gauge {
	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: r.namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	})
	if err := r.reg.Register(g); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(prometheus.Gauge)
		}
		panic(fmt.Sprintf("metrics: register gauge %s_%s: %v", subsystem, name, err))
	}
	return g
}

// Averager tracks a running average via a count/sum pair of Prometheus
// metrics, adapted directly from the teacher's metrics.Averager.
type Averager interface {
	Observe(value float64)
	Read() float64
}

type averager struct {
	count prometheus.Counter
	sum   prometheus.Gauge
	acc   float64
	n     float64
}

// NewAverager registers count/sum metrics for a running average.
func (r *Registry) NewAverager(subsystem, name, help string) Averager {
	return &averager{
		count: r.Counter(subsystem, name+"_count", "count of "+help),
		sum:   r.Gauge(subsystem, name+"_sum", "sum of "+help),
	}
}

func (a *averager) Observe(value float64) {
	a.count.Inc()
	a.acc += value
	a.n++
	a.sum.Set(a.acc)
}

func (a *averager) Read() float64 {
	if a.n == 0 {
		return 0
	}
	return a.acc / a.n
}
