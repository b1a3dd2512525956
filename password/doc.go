// Package password implements one-way credential hashing with Argon2id.
//
// Hashes are encoded as PHC strings carrying the algorithm version, cost
// parameters, and salt, so parameter upgrades never invalidate stored
// credentials. Comparison is constant time.
package password
