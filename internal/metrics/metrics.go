// Package metrics exposes the eNodeB's Prometheus gauges and its
// /metrics + /health HTTP server. Grounded on common/metrics/metrics.go
// and common/metrics/amf.go's per-component gauge set, using chi for
// the HTTP mux.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// eNodeB process health and scheduler metrics.
var (
	ENBUp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "enb_up",
			Help: "Whether the eNodeB process is up (1 = up, 0 = down)",
		},
	)

	DLPRBUtilization = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "enb_mac_dl_prb_utilization_ratio",
			Help: "Fraction of available downlink PRBs scheduled in the most recent subframe",
		},
	)

	ULPRBUtilization = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "enb_mac_ul_prb_utilization_ratio",
			Help: "Fraction of available uplink PRBs scheduled in the most recent subframe",
		},
	)

	QueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "enb_mac_queue_depth",
			Help: "Number of entries waiting in a MAC scheduling queue",
		},
		[]string{"queue"},
	)

	CRNTIPoolOccupied = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "enb_registry_crnti_occupied",
			Help: "Number of C-RNTIs currently allocated out of the configured pool",
		},
	)

	RadioOverrunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "enb_radio_overruns_total",
			Help: "Total number of radio sample-clock overrun recoveries",
		},
	)

	RARResponsesExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "enb_mac_rar_expired_total",
			Help: "Total number of random access responses dropped past their response window",
		},
	)

	SchedulingErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enb_mac_scheduling_errors_total",
			Help: "Total number of scheduler operations that returned an error",
		},
		[]string{"queue"},
	)
)

// Server is the eNodeB's Prometheus + health HTTP endpoint.
type Server struct {
	port   int
	router *chi.Mux
	server *http.Server
	logger *zap.Logger
}

// NewServer builds a metrics server bound to port.
func NewServer(port int, logger *zap.Logger) *Server {
	s := &Server{port: port, router: chi.NewRouter(), logger: logger}
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(10 * time.Second))
	s.router.Handle("/metrics", promhttp.Handler())
	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	return s
}

// Start runs the HTTP server; blocks until Stop is called or the server
// fails.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	s.logger.Info("starting metrics server", zap.Int("port", s.port))
	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// SetENBUp sets the process-level health gauge.
func SetENBUp(up bool) {
	if up {
		ENBUp.Set(1)
	} else {
		ENBUp.Set(0)
	}
}

// SetQueueDepth records the current length of a named MAC queue.
func SetQueueDepth(queue string, n int) {
	QueueDepth.WithLabelValues(queue).Set(float64(n))
}

// RecordSchedulingError increments the per-queue scheduling error counter.
func RecordSchedulingError(queue string) {
	SchedulingErrorsTotal.WithLabelValues(queue).Inc()
}
