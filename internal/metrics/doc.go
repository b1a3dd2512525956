// Package metrics provides lock-free in-process counters for engine
// operations. Export to external systems is deliberately left to the host
// application via snapshots.
package metrics
