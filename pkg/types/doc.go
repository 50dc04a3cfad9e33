/*
Package types defines the core data model shared across all Foreman packages.

Two persistent entities exist: the Plan record (one per plan, keyed by plan
ID) and the Spec record (one per spec, keyed by plan ID plus zero-based spec
index). Specs are created together with their plan and are content-immutable
thereafter; only status, stage, timestamps and the append-only history change.

# Spec Lifecycle

	        created                created
	         (i=0)                  (i>0)
	           │                      │
	           ▼                      ▼
	        running ─────────────► blocked
	           │  (never directly; only
	           │   via predecessor's finished)
	  stage/intermediate
	           │
	           ├──► finished  (terminal)
	           └──► failed    (terminal)

Terminal statuses are one-way: a spec in finished or failed never leaves that
state, and neither does a plan.

# Invariants

After every committed store transaction:

  - CompletedSpecs equals the number of specs with status finished
  - While the plan is running, exactly one spec is running, every lower index
    is finished and every higher index is blocked
  - A finished plan has every spec finished and no current spec
  - A failed plan has one failed spec, finished specs before it and blocked
    specs after it
  - History is append-only and a message ID appears at most once per spec
*/
package types
