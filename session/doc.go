// Package session defines the session cache contract and its two
// implementations: a sharded in-process map for single-instance
// deployments and a Redis-backed cache for horizontally scaled ones.
// Both are selected by configuration, not build tags.
package session
