// Package metrics provides per-run scalar summaries that observe every
// simulation step. Each type satisfies sim.Metric.
package metrics
