package metrics

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry is the dedicated Prometheus registry for the process.
	Registry = prometheus.NewRegistry()

	// RemindersGenerated counts reminders created, by source and category.
	RemindersGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "reminders_generated_total", Help: "Reminders created by source and category."},
		[]string{"source", "category"},
	)
	// RemindersDeduped counts reminders removed by the dedup step, by outcome.
	RemindersDeduped = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "reminders_deduped_total", Help: "Stale reminders removed before regeneration."},
		[]string{"category", "status"},
	)
	// ReminderTransitions counts lifecycle transitions by target status.
	ReminderTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "reminder_transitions_total", Help: "Reminder lifecycle transitions."},
		[]string{"to", "status"},
	)
	// SideEffects counts dispatched side effects by kind and outcome.
	SideEffects = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "reminder_side_effects_total", Help: "Fire-and-forget side effects by kind and outcome."},
		[]string{"kind", "status"},
	)
	// EnrichmentLatency tracks enrichment collaborator latency in milliseconds.
	EnrichmentLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "reminder_enrichment_latency_ms", Help: "Enrichment call latency in ms.", Buckets: []float64{10, 50, 100, 200, 500, 1000, 2000, 5000}},
		[]string{"status"},
	)
)

// RegisterDefault registers collectors on Registry once.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(RemindersGenerated)
		Registry.MustRegister(RemindersDeduped)
		Registry.MustRegister(ReminderTransitions)
		Registry.MustRegister(SideEffects)
		Registry.MustRegister(EnrichmentLatency)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once

// Handler exposes Registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Serve starts the /metrics endpoint on addr in the background.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Printf("[info] metrics listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server: %v", err)
		}
	}()
	return srv
}
