// Package secret persists credential records behind a small store
// interface.
//
// The credential lifecycle manager reads and writes opaque records here;
// encryption at rest is the store implementation's concern, not the
// caller's. The package ships an in-memory store for tests and short-lived
// processes, plus a Registry so applications can plug in vault- or
// keychain-backed stores by name.
package secret
