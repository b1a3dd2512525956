// Package audit implements the internal audit event model and the buffered
// dispatcher that feeds pluggable sinks. The root package re-exports the
// public pieces (Event, Sink, the sink implementations).
package audit
