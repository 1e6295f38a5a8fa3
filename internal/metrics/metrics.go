// Copyright (c) 2025, 8cht and the zwart contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Collector aggregates the relay's upstream-facing counters. All methods are
// nil-safe so callers can run without metrics enabled.
type Collector struct {
	registry *prometheus.Registry

	upstreamRequests *prometheus.CounterVec
	relogins         prometheus.Counter
}

func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zwart_upstream_requests_total",
			Help: "Requests relayed to the qBittorrent daemon, by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		relogins: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "zwart_upstream_relogins_total",
			Help: "Re-authentication attempts triggered by a rejected session.",
		}),
	}

	registry.MustRegister(
		c.upstreamRequests,
		c.relogins,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

func (c *Collector) ObserveUpstreamRequest(endpoint, outcome string) {
	if c == nil {
		return
	}
	c.upstreamRequests.WithLabelValues(endpoint, outcome).Inc()
}

func (c *Collector) ObserveRelogin() {
	if c == nil {
		return
	}
	c.relogins.Inc()
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// NewServer builds the standalone metrics listener. It runs on its own port,
// separate from the main API.
func NewServer(collector *Collector, host string, port int) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	addr := fmt.Sprintf("%s:%d", host, port)
	log.Info().Str("addr", addr).Msg("Starting metrics server")

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 15 * time.Second,
	}
}
