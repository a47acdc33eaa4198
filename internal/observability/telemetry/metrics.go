package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Conversation metrics
	TurnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "concierge_turns_total",
		Help: "Conversational turns handled, by resolved intent and outcome",
	}, []string{"intent", "status"})

	TurnLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "concierge_turn_latency_seconds",
		Help:    "End-to-end latency of one conversational turn",
		Buckets: prometheus.DefBuckets,
	})

	LanguageSelectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "concierge_language_selections_total",
		Help: "Language selection requests, by language and outcome",
	}, []string{"language", "status"})

	// Capability metrics
	CapabilityLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "concierge_capability_latency_seconds",
		Help:    "Latency of external capability calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"capability"})

	ClassificationFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "concierge_classification_failures_total",
		Help: "Classifier failures absorbed by the help fallback",
	})

	TranslationFallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "concierge_translation_fallbacks_total",
		Help: "Translator failures answered with untranslated text",
	}, []string{"language"})

	TranslationCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "concierge_translation_cache_hits_total",
		Help: "Translations served from cache",
	})

	// Session store metrics
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "concierge_active_sessions",
		Help: "Conversation contexts held by the in-memory session store",
	})

	SessionEvictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "concierge_session_evictions_total",
		Help: "Expired contexts and language preferences removed by the sweeper",
	})

	SessionConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "concierge_session_conflicts_total",
		Help: "Optimistic transaction conflicts on the Redis session store",
	})

	// Event metrics
	EventPublishFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "concierge_event_publish_failures_total",
		Help: "Turn events that could not be published",
	})

	// Resilience metrics
	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "concierge_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
	}, []string{"name"})

	TranscriptsRecordedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "concierge_transcripts_recorded_total",
		Help: "Turn events persisted by the transcript recorder",
	}, []string{"status"})
)
