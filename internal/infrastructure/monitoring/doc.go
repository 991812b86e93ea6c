/*
Package monitoring provides Prometheus metrics for the exchange subsystem.

# Overview

This package implements Prometheus-based metrics collection for broadcast
channels, tracking chunk and byte throughput on both sides, finish
transition outcomes, registration rendezvous latency, and queue depth.

# Usage

	// Create metrics collector
	metrics := monitoring.NewMetrics()

	// Record channel activity
	metrics.RecordSend("1_0", rows, bytes, elapsed)
	metrics.RecordRecv("1_0", bytes, elapsed)
	metrics.RecordFinish("all_senders_done", true)

# Metrics Endpoint

Expose metrics via the standard Prometheus endpoint:

	import "github.com/prometheus/client_golang/prometheus/promhttp"
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
*/
package monitoring
