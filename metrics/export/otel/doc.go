// Package otel bridges engine counters into an OpenTelemetry meter as
// observable counters. Registration is pull-based: values are read from a
// metrics snapshot at collection time, so the engine's hot path stays
// allocation-free.
package otel
