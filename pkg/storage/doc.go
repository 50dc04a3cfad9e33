/*
Package storage provides persistent state management for Foreman using BoltDB.

The storage package defines the Store interface, a narrow typed facade the
rest of the service talks to, and its BoltDB implementation. Plans and specs
persist across restarts in a single database file under the configured data
directory.

# Layout

	┌──────────────────── STORAGE LAYOUT ───────────────────┐
	│                                                        │
	│  bucket "plans"                                        │
	│    <plan_id>           → Plan record (JSON)            │
	│                                                        │
	│  bucket "specs"                                        │
	│    <plan_id>/000000    → Spec record (JSON)            │
	│    <plan_id>/000001    → Spec record (JSON)            │
	│    ...                                                 │
	│                                                        │
	└────────────────────────────────────────────────────────┘

Spec keys carry a zero-padded index so a prefix cursor scan yields specs in
index order without sorting.

# Transactions

All mutations after plan creation go through RunTransaction, which opens a
single BoltDB read-write transaction. BoltDB serializes writers, so two
concurrent status events for the same plan never interleave: the second
transaction observes the state the first committed. Transaction bodies must
not perform external side effects; the execution trigger fires only after
commit.

CreatePlanAtomic is the one conditional write outside RunTransaction: it
creates the plan record and every spec record together, keyed on the plan ID
not existing.

Lookup misses are reported as ErrNotFound values rather than wrapped
failures, so callers can branch on them without string matching.
*/
package storage
