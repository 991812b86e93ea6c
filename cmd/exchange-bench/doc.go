// Package main is the exchange-bench soak tool for the broadcast
// data-exchange channel.
//
// It wires one producer and one consumer stage through a local channel,
// rendezvousing via the sender registry exactly as a query pipeline
// would, and drives a configurable number of chunks through it.
//
// The tool exposes:
//   - Prometheus metrics on /metrics
//   - A JSON channel snapshot on /stats
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//
// Usage:
//
//	# push one million 4 KiB chunks as fast as possible
//	./exchange-bench -chunks 1000000
//
//	# rate-limited run with colored debug logs
//	./exchange-bench -dev -rate 1000
//
// Signals:
//   - SIGINT, SIGTERM: hard-close the channel and exit
package main
