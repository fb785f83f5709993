package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"asistencia/internal/models"
)

// Report request outcome constants
const (
	OutcomeOK           = "ok"
	OutcomeInvalid      = "invalid"
	OutcomeNotFound     = "not_found"
	OutcomeMalformed    = "malformed"
	OutcomeError        = "error"
	OutcomeExported     = "exported"
	OutcomeExportFailed = "export_failed"
)

var (
	studentsAtRiskDesc = prometheus.NewDesc(
		"asistencia_students_at_risk",
		"Students at risk of dropout per ficha and criterion, as of the last scan",
		[]string{"ficha", "criterion"},
		nil,
	)
	lastScanDesc = prometheus.NewDesc(
		"asistencia_last_scan_timestamp_seconds",
		"Unix time of the last completed alert scan",
		nil,
		nil,
	)

	reportRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asistencia_alert_reports_total",
			Help: "Alert report requests by outcome",
		},
		[]string{"outcome"},
	)
	scanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "asistencia_alert_scan_duration_seconds",
			Help:    "Duration of background alert scans",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
	)
	scanFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "asistencia_alert_scan_ficha_failures_total",
			Help: "Fichas whose report could not be built during a scan",
		},
	)
)

// FichaRisk is the number of students at risk in one ficha.
type FichaRisk struct {
	Ficha       string
	Consecutive int
	Monthly     int
	Both        int
}

// RiskCollector is a custom Prometheus collector that exposes the snapshot of
// the last alert scan on each scrape.
type RiskCollector struct {
	mu        sync.RWMutex
	snapshot  []FichaRisk
	scannedAt time.Time
}

// NewRiskCollector creates an empty collector.
func NewRiskCollector() *RiskCollector {
	return &RiskCollector{}
}

// Publish replaces the snapshot.
func (c *RiskCollector) Publish(snapshot []FichaRisk, at time.Time) {
	cp := append([]FichaRisk(nil), snapshot...)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = cp
	c.scannedAt = at
}

// Describe sends the metric descriptors to the channel.
func (c *RiskCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- studentsAtRiskDesc
	ch <- lastScanDesc
}

// Collect emits one gauge per ficha and criterion from the current snapshot.
func (c *RiskCollector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.scannedAt.IsZero() {
		return
	}
	ch <- prometheus.MustNewConstMetric(lastScanDesc, prometheus.GaugeValue, float64(c.scannedAt.Unix()))

	for _, r := range c.snapshot {
		for criterion, n := range map[models.Criterion]int{
			models.CriterionConsecutive: r.Consecutive,
			models.CriterionMonthly:     r.Monthly,
			models.CriterionBoth:        r.Both,
		} {
			ch <- prometheus.MustNewConstMetric(
				studentsAtRiskDesc,
				prometheus.GaugeValue,
				float64(n),
				r.Ficha,
				string(criterion),
			)
		}
	}
}

var (
	collector = NewRiskCollector()
	initOnce  sync.Once
)

// Init registers all collectors with the default registry.
// Must be called once at startup.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(collector, reportRequests, scanDuration, scanFailures)
	})
}

// RecordReport counts an alert report request by outcome.
func RecordReport(outcome string) {
	reportRequests.WithLabelValues(outcome).Inc()
}

// RecordScan publishes the result of a background scan.
func RecordScan(snapshot []FichaRisk, failures int, took time.Duration) {
	collector.Publish(snapshot, time.Now())
	scanDuration.Observe(took.Seconds())
	scanFailures.Add(float64(failures))
}

// Summarize counts the alerts of a report by criterion.
func Summarize(report *models.AlertReport) FichaRisk {
	r := FichaRisk{Ficha: report.NumeroFicha}
	for _, a := range report.Alertas {
		switch a.Criterion {
		case models.CriterionConsecutive:
			r.Consecutive++
		case models.CriterionMonthly:
			r.Monthly++
		case models.CriterionBoth:
			r.Both++
		}
	}
	return r
}
