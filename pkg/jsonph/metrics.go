package jsonph

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metadataStartTime = "start_time"

// MetricsCollector records Prometheus metrics for pipeline calls. A nil
// collector records nothing. It is safe for concurrent use.
type MetricsCollector struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	cacheLookups    *prometheus.CounterVec
}

// NewMetricsCollector registers the collector's metrics on registerer. A nil
// registerer uses prometheus.DefaultRegisterer.
func NewMetricsCollector(registerer prometheus.Registerer) *MetricsCollector {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registerer)

	return &MetricsCollector{
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jsonph_requests_total",
				Help: "Total number of pipeline calls by outcome",
			},
			[]string{"method", "status", "origin"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "jsonph_request_duration_seconds",
				Help:    "Duration of pipeline calls in seconds, retries included",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		cacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jsonph_cache_lookups_total",
				Help: "Cache lookups by result",
			},
			[]string{"result"},
		),
	}
}

// RecordRequest counts a finished call. status is the HTTP status, or 0 when
// no response was received.
func (mc *MetricsCollector) RecordRequest(method string, status int, origin Origin, duration time.Duration) {
	if mc == nil {
		return
	}

	if origin == "" {
		origin = "none"
	}

	mc.requestsTotal.WithLabelValues(method, strconv.Itoa(status), string(origin)).Inc()
	mc.requestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

func (mc *MetricsCollector) recordCacheLookup(hit bool) {
	if mc == nil {
		return
	}

	result := "miss"
	if hit {
		result = "hit"
	}

	mc.cacheLookups.WithLabelValues(result).Inc()
}

// MetricsRequestInterceptor stamps the start time on a copy of the request.
func MetricsRequestInterceptor(mc *MetricsCollector) RequestInterceptor {
	return func(ctx context.Context, req *Request) (*Request, *Response, error) {
		stamped := req.Clone()
		if stamped.Metadata == nil {
			stamped.Metadata = make(map[string]interface{})
		}

		stamped.Metadata[metadataStartTime] = time.Now()

		return stamped, nil, nil
	}
}

// MetricsResponseInterceptor records the outcome of the call after error
// normalisation.
func MetricsResponseInterceptor(mc *MetricsCollector) ResponseInterceptor {
	return func(ctx context.Context, req *Request, resp *Response, err error) (*Response, error) {
		var duration time.Duration
		if start, ok := req.Metadata[metadataStartTime].(time.Time); ok {
			duration = time.Since(start)
		}

		var (
			status int
			origin Origin
		)

		switch {
		case resp != nil:
			status = resp.StatusCode
			origin = resp.Origin
		case StatusCode(err) != 0:
			status = StatusCode(err)
			origin = OriginNetwork
		}

		mc.RecordRequest(req.Method, status, origin, duration)

		return resp, err
	}
}
