// Package project implements the faceted project: the in-memory facet,
// runtime and fixed-facet state of one project directory, the single entry
// point that mutates it, and the listener bus that announces changes.
//
// # Concurrency
//
// Readers copy immutable state under a short read lock and never wait for a
// mutation. Mutators (Modify, Apply and the runtime/fixed-facet setters)
// take a one-slot modification semaphore for their whole run, so mutations
// of one project are totally ordered. Mutations of different projects never
// block each other.
//
// The context passed to a mutator identifies the logical caller. Delegates
// and event handlers receive a context marked with the project; a mutator
// called with that context fails with ErrConcurrentModification instead of
// deadlocking. Callers with any other context wait for the slot or for
// their context to be cancelled.
//
// # Failure semantics
//
// Validation runs before any side effect. Once actions start executing each
// one is applied and persisted on its own: a failing delegate or handler
// stops the batch but keeps the actions that already ran. A failing save
// leaves the in-memory state ahead of the file until the next successful
// save or Refresh.
package project
