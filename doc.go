// Package guardkit is an authentication and session-state core for
// request-driven servers. It verifies identity claims, manages login
// session lifecycle, and resolves each request's opaque session token into
// one of four guard states (anonymous, authenticated-unverified,
// authenticated-user, authenticated-admin) that callers gate routes on.
//
// # Architecture boundaries
//
// guardkit is the public surface: [Engine], [Builder], [Config], the
// [CredentialStore] integration interface, and the [GuardState] resolver.
// Password hashing lives in package password, the session cache contract
// and its in-process/Redis implementations in package session, and store
// implementations in mongostore and memstore. Internal coordination
// (token generation, audit dispatch, metrics) lives under internal/.
//
// # What this package must NOT do
//
//   - Carry or encode session tokens for transport. The host layer owns
//     cookies, headers, signing, and encryption; the engine only exchanges
//     opaque strings.
//   - Send email or implement verification/reset delivery. Verification
//     status is an externally settable flag ([Engine.SetVerified]).
//   - Turn infrastructure failures into authentication decisions. Store
//     and cache outages surface as retryable errors; ambiguity always
//     resolves to the more restrictive state.
//
// Engine methods are safe to call from multiple goroutines after
// [Builder.Build]. [Engine.Resolve] is the hot path: one cache read plus
// one store read per request, no writes except dangling-session cleanup.
package guardkit
