package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMiddleware HTTP-метрики служебного API:
//   - zone_api_request_duration_seconds{method,path,status}
//   - zone_api_requests_inflight
type PrometheusMiddleware struct {
	reqDuration *prometheus.HistogramVec
	reqInflight prometheus.Gauge
}

// NewPrometheusMiddleware регистрирует метрики в reg (обычно metrics.Registry.Registerer())
func NewPrometheusMiddleware(reg prometheus.Registerer) *PrometheusMiddleware {
	pm := &PrometheusMiddleware{
		reqDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "zone_api",
			Name:      "request_duration_seconds",
			Help:      "Длительность HTTP-запросов служебного API.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"method", "path", "status"}),
		reqInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "zone_api",
			Name:      "requests_inflight",
			Help:      "Обрабатываемые HTTP-запросы.",
		}),
	}
	reg.MustRegister(pm.reqDuration, pm.reqInflight)
	return pm
}

func (pm *PrometheusMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		pm.reqInflight.Inc()
		c.Next()
		pm.reqInflight.Dec()

		path := c.FullPath()
		if path == "" {
			// не совпавшие маршруты в одну метку, иначе кардинальность не ограничена
			path = "unmatched"
		}
		pm.reqDuration.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
