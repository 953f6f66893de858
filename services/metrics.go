package services

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service counters. A nil *Metrics is valid and records
// nothing, which keeps tests free of registry setup.
type Metrics struct {
	registry       *prometheus.Registry
	outcomes       *prometheus.CounterVec
	retrievedDocs  prometheus.Histogram
	retrievalErrs  prometheus.Counter
	ingestedChunks *prometheus.CounterVec
	speech         *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "simplybot",
			Name:      "conversations_total",
			Help:      "Conversations handled, by outcome.",
		}, []string{"outcome"}),
		retrievedDocs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "simplybot",
			Name:      "retrieved_documents",
			Help:      "Documents returned per retrieval.",
			Buckets:   []float64{0, 1, 2, 3, 4, 5, 10},
		}),
		retrievalErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "simplybot",
			Name:      "retrieval_errors_total",
			Help:      "Retrievals that failed and returned no documents.",
		}),
		ingestedChunks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "simplybot",
			Name:      "ingested_chunks_total",
			Help:      "Chunks written to the vector store, by content type.",
		}, []string{"content_type"}),
		speech: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "simplybot",
			Name:      "speech_synthesis_total",
			Help:      "Speech synthesis attempts, by result.",
		}, []string{"result"}),
	}
	m.registry.MustRegister(m.outcomes, m.retrievedDocs, m.retrievalErrs, m.ingestedChunks, m.speech)
	return m
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) observeOutcome(outcome string) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeRetrieval(n int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.retrievalErrs.Inc()
		return
	}
	m.retrievedDocs.Observe(float64(n))
}

func (m *Metrics) observeIngested(contentType string, n int) {
	if m == nil {
		return
	}
	m.ingestedChunks.WithLabelValues(contentType).Add(float64(n))
}

func (m *Metrics) observeSpeech(result string) {
	if m == nil {
		return
	}
	m.speech.WithLabelValues(result).Inc()
}
