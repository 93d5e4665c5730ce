// Package project defines the project aggregate: identity, status,
// progress, and the owned artifact store and message log.
//
// A Project is created once per submission and mutated only by the engine
// through the registry's atomic read-modify-write. External callers always
// observe deep-copied snapshots, so the aggregate itself carries no locks.
//
// # State Machine
//
// A [Project] moves through these states:
//
//	initializing → running → completed
//	initializing → running → errored
//
// Both completed and errored are terminal; no stage executes and the
// engine appends nothing further after either is reached.
//
// # Key Types
//
//   - [Project] — the aggregate record
//   - [Status] — initializing, running, completed, or errored
//   - [Artifact] — named, immutable stage output (first writer wins)
//   - [Message] — append-only log entry, read by cursor
package project
