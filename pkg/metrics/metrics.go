package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "townrec"

// Registry is shared by the API handlers and the background task router.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		RecommendationTotal,
		UpstreamDuration,
		ParseAmbiguityTotal,
		CacheLookupTotal,
		SummarizationFailTotal,
		PersistenceFailTotal,
	)
}

var RecommendationTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "recommendation_total",
		Help:      "Recommendation requests by outcome.",
	},
	[]string{"outcome"}, // ok | cached | error
)

var UpstreamDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upstream_duration_seconds",
		Help:      "Latency of calls to upstream services.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"service", "status"}, // completion | vision | places ; ok | error
)

var ParseAmbiguityTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "parse_ambiguity_total",
		Help:      "Completions that yielded neither keywords nor recommendations.",
	},
	[]string{"mode"},
)

var CacheLookupTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_lookup_total",
		Help:      "Response cache lookups by result.",
	},
	[]string{"result"}, // hit | miss | error
)

var SummarizationFailTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "summarization_fail_total",
		Help:      "Memory appends abandoned because summarization failed.",
	},
)

var PersistenceFailTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "persistence_fail_total",
		Help:      "Recommendation records that could not be published or stored.",
	},
	[]string{"stage"}, // publish | store
)

// ObserveUpstream records the duration of an upstream call started at start.
func ObserveUpstream(service string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	UpstreamDuration.WithLabelValues(service, status).Observe(time.Since(start).Seconds())
}

func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
