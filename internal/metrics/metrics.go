package metrics

import (
	"net/http"
	"time"

	"aquastream/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "aquastream"

// Metrics records control-loop measurements on its own registry.
// It implements automation.Observer.
type Metrics struct {
	registry *prometheus.Registry

	polls        *prometheus.CounterVec
	pollDuration prometheus.Histogram
	lastPoll     prometheus.Gauge
	ticksSkipped prometheus.Counter
	water        *prometheus.GaugeVec
	events       *prometheus.CounterVec
	dispatches   *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_total",
			Help:      "Device status polls by result.",
		}, []string{"result"}),
		pollDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_duration_seconds",
			Help:      "Duration of device status polls.",
			Buckets:   prometheus.DefBuckets,
		}),
		lastPoll: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_successful_poll_timestamp_seconds",
			Help:      "Unix time of the last successful poll.",
		}),
		ticksSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_skipped_total",
			Help:      "Ticks skipped because a previous tick was still in flight.",
		}),
		water: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "water_parameter",
			Help:      "Latest non-zero water parameter reading (temp in C, ph, tds in ppm).",
		}, []string{"metric"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_events_total",
			Help:      "History events recorded by type.",
		}, []string{"type"}),
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatches_total",
			Help:      "Actuator writes by command, requested state and result.",
		}, []string{"command", "state", "result"}),
	}

	m.registry.MustRegister(
		m.polls,
		m.pollDuration,
		m.lastPoll,
		m.ticksSkipped,
		m.water,
		m.events,
		m.dispatches,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObservePoll(err error, took time.Duration) {
	if err != nil {
		m.polls.WithLabelValues("error").Inc()
		return
	}
	m.polls.WithLabelValues("ok").Inc()
	m.pollDuration.Observe(took.Seconds())
	m.lastPoll.SetToCurrentTime()
}

func (m *Metrics) ObserveTickSkipped() {
	m.ticksSkipped.Inc()
}

// ObserveReading leaves a gauge untouched for metrics reporting 0 (no data).
func (m *Metrics) ObserveReading(r models.SensorReading) {
	set := func(metric models.Metric, v float64) {
		if v != 0 {
			m.water.WithLabelValues(string(metric)).Set(v)
		}
	}
	set(models.MetricTemp, r.Temperature)
	set(models.MetricPH, r.PH)
	set(models.MetricTDS, r.TDS)
}

func (m *Metrics) ObserveEvent(t models.EventType) {
	m.events.WithLabelValues(string(t)).Inc()
}

func (m *Metrics) ObserveDispatch(cmd models.Command, on bool, err error) {
	state := "off"
	if on {
		state = "on"
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.dispatches.WithLabelValues(string(cmd), state, result).Inc()
}
