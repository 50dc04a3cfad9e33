/*
Package config loads and validates the Foreman service configuration.

Configuration is layered: built-in defaults, then an optional YAML file, then
FOREMAN_* environment variable overrides. Validation rejects inconsistent
combinations, such as token-mode webhook authentication without a
verification token.
*/
package config
