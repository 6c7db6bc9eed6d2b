// Copyright (C) 2025 flashchat.io <dev@flashchat.io>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package realtime

import "github.com/prometheus/client_golang/prometheus"

type hubMetrics struct {
	connections prometheus.Gauge
	dispatched  *prometheus.CounterVec
	dropped     prometheus.Counter
}

func newHubMetrics(reg prometheus.Registerer) *hubMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &hubMetrics{
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "flashchat_ws_connections_active",
			Help: "Current number of registered websocket connections.",
		}),
		dispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flashchat_events_dispatched_total",
			Help: "Events pushed to connected clients, by event name.",
		}, []string{"event"}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flashchat_events_dropped_total",
			Help: "Frames dropped because a client send buffer was full.",
		}),
	}
	reg.MustRegister(m.connections, m.dispatched, m.dropped)
	return m
}
