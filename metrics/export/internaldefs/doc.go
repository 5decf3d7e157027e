// Package internaldefs holds the shared metric definitions consumed by the
// exporter packages. It exists so the Prometheus and OpenTelemetry exporters
// agree on names and help texts without duplicating them.
package internaldefs
