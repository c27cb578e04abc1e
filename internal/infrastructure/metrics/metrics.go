// Package metrics expone las métricas del cierre de venta en Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/pdv-cierre/internal/application/sale"
)

// Closing métricas del cierre registradas en un registry propio.
type Closing struct {
	registry *prometheus.Registry

	mClosings *prometheus.CounterVec
	mRetries  prometheus.Counter
	mStep     *prometheus.HistogramVec
}

// NewClosing crea y registra las métricas. Con withRuntime también se registran
// los collectors de proceso y del runtime de Go.
func NewClosing(withRuntime bool) *Closing {
	c := &Closing{
		registry: prometheus.NewRegistry(),
		mClosings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pdv_closings_total",
			Help: "Cierres de venta terminados por resultado.",
		}, []string{"result"}),
		mRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pdv_closing_retries_total",
			Help: "Reintentos del protocolo aceptados por el operador.",
		}),
		mStep: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pdv_ecf_step_seconds",
			Help:    "Duración de cada orden enviada al ECF.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"step"}),
	}
	c.registry.MustRegister(c.mClosings, c.mRetries, c.mStep)
	if withRuntime {
		c.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return c
}

func (c *Closing) ClosingFinished(result string) {
	c.mClosings.WithLabelValues(result).Inc()
}

func (c *Closing) RetryRequested() {
	c.mRetries.Inc()
}

func (c *Closing) StepObserved(step string, elapsed time.Duration) {
	c.mStep.WithLabelValues(step).Observe(elapsed.Seconds())
}

// Gatherer registry con las métricas del PDV.
func (c *Closing) Gatherer() prometheus.Gatherer { return c.registry }

// Handler handler HTTP de /metrics.
func (c *Closing) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}

var _ sale.Metrics = (*Closing)(nil)
