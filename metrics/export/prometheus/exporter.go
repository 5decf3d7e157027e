package prometheus

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/cwhitmore/jwtguard"
	"github.com/cwhitmore/jwtguard/metrics/export/internaldefs"
)

type metricsSource interface {
	MetricsSnapshot() jwtguard.MetricsSnapshot
	AuditDropped() uint64
}

// PrometheusExporter renders engine metrics in Prometheus text exposition
// format.
type PrometheusExporter struct {
	source metricsSource
}

// NewPrometheusExporter creates an exporter reading from engine.
func NewPrometheusExporter(engine *jwtguard.Engine) *PrometheusExporter {
	return &PrometheusExporter{source: engine}
}

// NewPrometheusExporterFromSource creates an exporter from a custom source.
func NewPrometheusExporterFromSource(source metricsSource) *PrometheusExporter {
	return &PrometheusExporter{source: source}
}

// Handler returns an http.Handler serving the current metrics.
func (p *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(p.Render()))
	})
}

// Render returns the current metrics in text exposition format. It returns
// an empty string when the exporter has no source or metrics are disabled.
func (p *PrometheusExporter) Render() string {
	if p == nil || p.source == nil {
		return ""
	}

	snapshot := p.source.MetricsSnapshot()
	dropped := p.source.AuditDropped()
	if len(snapshot) == 0 && dropped == 0 {
		return ""
	}

	var b strings.Builder
	b.Grow(2048)

	for _, def := range internaldefs.CounterDefs {
		writeCounter(&b, def.Name, def.Help, snapshot[def.ID])
	}
	writeCounter(&b, internaldefs.AuditDroppedName, internaldefs.AuditDroppedHelp, dropped)

	return b.String()
}

func writeCounter(b *strings.Builder, name, help string, value uint64) {
	b.WriteString("# HELP ")
	b.WriteString(name)
	b.WriteString(" ")
	b.WriteString(help)
	b.WriteString("\n# TYPE ")
	b.WriteString(name)
	b.WriteString(" counter\n")
	b.WriteString(name)
	b.WriteString(" ")
	b.WriteString(strconv.FormatUint(value, 10))
	b.WriteString("\n")
}
