/*
Package events provides the operational event feed for Foreman.

Every significant scheduling outcome (plan created, duplicate delivery,
out-of-order terminal event, plan finished, ...) is published to an
in-process broker with a tag from a closed event_type set. Subscribers
receive events on buffered channels; the metrics layer counts them and the
HTTP layer logs them. Distribution is best-effort and never blocks the
request path.
*/
package events
