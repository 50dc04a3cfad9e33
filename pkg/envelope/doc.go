/*
Package envelope decodes inbound push envelopes into validated status events.

The execution fleet reports progress through a Pub/Sub-style push
subscription: an outer JSON envelope whose message.data field holds the
base64-encoded inner payload. Decoding is strict at every layer (envelope
shape, base64 with padding, UTF-8, inner JSON object, status schema) and any
failure maps to a 400 at the HTTP surface.

The decoded event carries the envelope's messageId for deduplication and a
snippet of the inner payload, truncated to 1000 bytes, that the kernel
records in spec history.
*/
package envelope
