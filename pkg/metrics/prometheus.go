package metrics

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var HistogramBuckets = []float64{
	// fast responses (0 - 500ms)
	25, 50, 75, 100, 150, 200, 300, 400, 500,
	// medium (500ms - 2s)
	750, 1000, 1250, 1500, 1750, 2000,
	// slow (2s - 15s)
	2500, 3000, 4000, 5000, 7500, 10000, 15000,
	// long tail, mostly gateway timeouts
	20000, 30000, 60000,
}

// Prometheus exposes HTTP request metrics on a dedicated listener so the
// metrics port is never reachable through the public API address.
type Prometheus struct {
	reqCount    *prometheus.CounterVec
	reqDuration *prometheus.HistogramVec
	reqSize     prometheus.Summary
	respSize    prometheus.Summary

	listenAddress string
	urlLabelFn    func(c *gin.Context) string
	log           *zap.SugaredLogger
}

type NewPrometheusOptions struct {
	// ReqCntURLLabelMappingFn maps a request to its url label, typically the
	// route template rather than the raw path to bound cardinality.
	ReqCntURLLabelMappingFn func(c *gin.Context) string
	Logger                  *zap.SugaredLogger
}

func NewPrometheus(opts NewPrometheusOptions) *Prometheus {
	p := &Prometheus{
		urlLabelFn: opts.ReqCntURLLabelMappingFn,
		log:        opts.Logger,
		reqCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Subsystem: "billing",
			Name:      "requests_total",
			Help:      "How many HTTP requests processed, partitioned by status code, method and url.",
		}, []string{"code", "method", "url"}),
		reqDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Subsystem: "billing",
			Name:      "request_duration_ms",
			Help:      "The HTTP request latency in milliseconds.",
			Buckets:   HistogramBuckets,
		}, []string{"code", "method", "url"}),
		reqSize: prometheus.NewSummary(prometheus.SummaryOpts{
			Subsystem: "billing",
			Name:      "request_size_bytes",
			Help:      "The HTTP request size in bytes.",
		}),
		respSize: prometheus.NewSummary(prometheus.SummaryOpts{
			Subsystem: "billing",
			Name:      "response_size_bytes",
			Help:      "The HTTP response size in bytes.",
		}),
	}
	if p.urlLabelFn == nil {
		p.urlLabelFn = func(c *gin.Context) string { return c.Request.URL.Path }
	}
	prometheus.MustRegister(p.reqCount, p.reqDuration, p.reqSize, p.respSize)
	return p
}

func (p *Prometheus) SetListenAddress(addr string) {
	p.listenAddress = addr
}

// Use attaches the middleware to the engine and starts the metrics listener.
func (p *Prometheus) Use(e *gin.Engine) {
	e.Use(p.handlerFunc())
	if p.listenAddress == "" {
		return
	}
	go func() {
		srv := &http.Server{
			Addr:              p.listenAddress,
			Handler:           promhttp.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		if err := srv.ListenAndServe(); err != nil && p.log != nil {
			p.log.Errorf("metrics listener error: %v", err)
		}
	}()
}

func (p *Prometheus) handlerFunc() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqSize := computeApproximateRequestSize(c.Request)

		c.Next()

		status := http.StatusText(c.Writer.Status())
		elapsed := float64(time.Since(start)) / float64(time.Millisecond)
		url := p.urlLabelFn(c)

		p.reqDuration.WithLabelValues(status, c.Request.Method, url).Observe(elapsed)
		p.reqCount.WithLabelValues(status, c.Request.Method, url).Inc()
		p.reqSize.Observe(float64(reqSize))
		p.respSize.Observe(float64(c.Writer.Size()))
	}
}

func computeApproximateRequestSize(r *http.Request) int {
	s := len(r.URL.Path)
	s += len(r.Method)
	s += len(r.Proto)
	for name, values := range r.Header {
		s += len(name)
		for _, value := range values {
			s += len(value)
		}
	}
	s += len(r.Host)
	if r.ContentLength != -1 {
		s += int(r.ContentLength)
	}
	return s
}
