/*
Package canonical produces deterministic byte representations of JSON
payloads and their SHA-256 digests.

Plan ingestion is idempotent across client retries: the digest of the
canonicalized creation payload is stored on the plan record, and a repeated
POST with the same body (in any key order) matches it, while any difference
in value, array order or membership produces a different digest and a
conflict. Canonicalization is stable: re-canonicalizing canonical bytes
yields the same bytes.
*/
package canonical
