/*
Package monitoring provides metrics collection for the terminal host.

# Overview

Prometheus metrics for terminal session lifecycle, PTY traffic, plugin hook
latency, HTTP requests and WebSocket connections. Metrics are registered on an
injectable registerer so tests can use a private registry.

# Usage

	metrics := monitoring.NewMetrics(prometheus.DefaultRegisterer)
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	timer := monitoring.NewTimer(metrics, "on_output")
	// ... run hook ...
	timer.Stop()

A nil *Metrics is valid and records nothing.
*/
package monitoring
