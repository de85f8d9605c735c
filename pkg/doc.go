// Package pingsweep provides a programmatic API for running two-peer
// ping-pong sweeps.
//
// One process runs the ponger role and answers every exchange; the
// other runs the pinger role, times the sweep and derives the latency,
// bandwidth and buffer-threshold estimates. Callers stream per-size
// rows through a StatsFunc or read them from the returned Results.
package pingsweep
