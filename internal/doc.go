// Package internal holds non-exported helpers shared by the root guardkit
// package: session token generation and the audit/metrics sub-systems.
// Nothing in here is part of the public API.
package internal
