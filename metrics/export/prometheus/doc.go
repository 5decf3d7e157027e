// Package prometheus renders engine counters in Prometheus text exposition
// format, without pulling in the Prometheus client library. Mount
// [PrometheusExporter.Handler] on a scrape endpoint.
package prometheus
