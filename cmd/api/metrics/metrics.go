// Package metrics records HTTP, cache and formatter observations for the API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CacheOutcome is what the HTTP cache middleware did with a response.
type CacheOutcome string

const (
	CacheNotModified CacheOutcome = "not_modified"
	CacheSent        CacheOutcome = "sent"
	CacheBypass      CacheOutcome = "bypass"
	CacheStale       CacheOutcome = "stale"
)

// Recorder is injected into the router, the cache middleware and the SEO service.
type Recorder interface {
	ObserveRequest(route, method string, status int, d time.Duration)
	IncCacheOutcome(class string, outcome CacheOutcome)
	ObserveFormatter(name string, d time.Duration, ok bool)
}

// NoopRecorder is used when metrics.enabled is false.
type NoopRecorder struct{}

func (NoopRecorder) ObserveRequest(string, string, int, time.Duration) {}
func (NoopRecorder) IncCacheOutcome(string, CacheOutcome)              {}
func (NoopRecorder) ObserveFormatter(string, time.Duration, bool)      {}

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg             *prom.Registry
	requestDuration *prom.HistogramVec
	requests        *prom.CounterVec
	cacheOutcomes   *prom.CounterVec
	formatDuration  *prom.HistogramVec
}

// NewPrometheusRecorder registers the API metrics on reg, or on a fresh registry when reg is nil.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		reg: reg,
		requestDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "sitecms",
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests by route",
			Buckets:   prom.DefBuckets,
		}, []string{"route", "method"}),
		requests: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitecms",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status",
		}, []string{"route", "method", "status"}),
		cacheOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitecms",
			Name:      "http_cache_outcomes_total",
			Help:      "Cache middleware outcomes by route class",
		}, []string{"class", "outcome"}),
		formatDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "sitecms",
			Name:      "formatter_duration_seconds",
			Help:      "Duration of feed, sitemap and schema generation",
			Buckets:   prom.DefBuckets,
		}, []string{"formatter", "result"}),
	}
	reg.MustRegister(pr.requestDuration, pr.requests, pr.cacheOutcomes, pr.formatDuration)
	return pr
}

func (p *PrometheusRecorder) ObserveRequest(route, method string, status int, d time.Duration) {
	if p == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	p.requestDuration.WithLabelValues(route, method).Observe(d.Seconds())
	p.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
}

func (p *PrometheusRecorder) IncCacheOutcome(class string, outcome CacheOutcome) {
	if p == nil {
		return
	}
	p.cacheOutcomes.WithLabelValues(class, string(outcome)).Inc()
}

func (p *PrometheusRecorder) ObserveFormatter(name string, d time.Duration, ok bool) {
	if p == nil {
		return
	}
	res := "failed"
	if ok {
		res = "success"
	}
	p.formatDuration.WithLabelValues(name, res).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
