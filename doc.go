// Package atelier provides a library-first engine that drives a software
// project through an ordered pipeline of development stages. Each stage
// transforms the accumulated project context into named artifacts and
// status messages; the engine merges results into a concurrency-safe
// registry that external callers poll at any time.
//
// Atelier is designed as a library, not a service. Import it, configure a
// registry and a pipeline, and start projects as background tasks.
//
// # Quick Start
//
//	a, err := atelier.New(
//	    atelier.WithRegistry(registry.New()),
//	    atelier.WithStageTimeout(2 * time.Minute),
//	)
//
// # Architecture
//
// The root package defines the coordinator, configuration, and sentinel
// errors. Subsystems live in their own packages: project (the aggregate),
// registry (the shared store), stage (units of pipeline work), engine
// (the orchestrator), ext (lifecycle hooks), stream (real-time fan-out),
// api (HTTP boundary), and client.
//
// Project IDs use TypeID — type-prefixed, K-sortable, UUIDv7-based
// identifiers in the form "proj_…".
package atelier
