/*
Package auth implements the edge authentication predicate for the status
webhook.

Three modes exist: shared token (constant-time comparison against the
x-goog-pubsub-verification-token header), identity token (bearer token
checked for audience, issuer and service account through an injected
verifier) and none. Handlers consume only the boolean outcome; no token
material ever reaches logs or responses.
*/
package auth
