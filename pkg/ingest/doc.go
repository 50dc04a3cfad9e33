/*
Package ingest implements idempotent plan ingestion.

A plan creation request is validated, canonicalized and written atomically:
the plan record plus every spec record in one store transaction, keyed on the
plan ID not existing. Spec 0 starts running and all later specs start
blocked.

Re-submission is content-addressed. The SHA-256 digest of the canonical
payload is stored on the plan; a retry with the same body (in any key order)
matches it and succeeds idempotently, while a different body for the same
plan ID is a conflict.
*/
package ingest
