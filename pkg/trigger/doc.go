/*
Package trigger notifies the execution fleet when a spec becomes runnable.

The notifier posts the spec contents to the configured execution endpoint.
Delivery is fire-and-forget with a bounded timeout: it happens after the
kernel's transaction has committed, failures are logged at warn level and
counted, and nothing is ever rolled back. Kernel retries can re-fire the
same signal, so receivers must treat (plan_id, spec_index) idempotently.

With execution disabled, or without an endpoint, the trigger degrades to a
structured log line carrying the same context.
*/
package trigger
