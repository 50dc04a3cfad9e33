/*
Package metrics exposes Prometheus collectors for Foreman.

Collectors are registered once at package init and cover the HTTP surface
(request counts and latencies), plan ingestion outcomes, kernel status-event
outcomes and execution trigger results. The Handler function serves the
standard /metrics endpoint.
*/
package metrics
