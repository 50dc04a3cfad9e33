// Package projection computes the external status view of a plan from its
// stored records. Counters are derived from the spec list itself as a guard
// against any drift in the plan record.
package projection
