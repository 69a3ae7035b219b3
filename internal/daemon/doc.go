// Package daemon coordinates the long-running reelscan process.
//
// It ties configuration, the queue store, and the workflow manager into a
// single lifecycle with flock-based locking so only one daemon consumes a
// queue database. An optional HTTP listener serves Prometheus metrics, a
// health probe, and read-only views of the queue and stored edit maps.
//
// Keep orchestration here. Analysis belongs in pipeline, job execution in
// workflow.
package daemon
