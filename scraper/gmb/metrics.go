package gmb

import (
	"github.com/prometheus/client_golang/prometheus"

	"gmb-scraper/models"
)

// Metrics bundles Prometheus collectors for a run.
type Metrics struct {
	Registry        *prometheus.Registry
	KeywordsTotal   *prometheus.CounterVec
	PagesTotal      prometheus.Counter
	ListingsTotal   prometheus.Counter
	DiscardedTotal  prometheus.Counter
	CaptchasTotal   *prometheus.CounterVec
	KeywordDuration prometheus.Histogram
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	keywords := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gmb_keywords_total",
			Help: "Keywords concluded, by outcome.",
		},
		[]string{"outcome"},
	)
	pages := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gmb_pages_total",
		Help: "Result pages scraped.",
	})
	listings := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gmb_listings_total",
		Help: "Named listings added to the result set.",
	})
	discarded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gmb_listings_discarded_total",
		Help: "Parsed listings dropped for lacking a name.",
	})
	captchas := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gmb_captchas_total",
			Help: "CAPTCHA occurrences, by final state.",
		},
		[]string{"state"},
	)
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "gmb_keyword_duration_seconds",
		Help:    "Wall time spent on one keyword.",
		Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1200},
	})

	registry.MustRegister(keywords, pages, listings, discarded, captchas, duration)

	return &Metrics{
		Registry:        registry,
		KeywordsTotal:   keywords,
		PagesTotal:      pages,
		ListingsTotal:   listings,
		DiscardedTotal:  discarded,
		CaptchasTotal:   captchas,
		KeywordDuration: duration,
	}
}

func (m *Metrics) IncKeyword(o models.Outcome) {
	if m == nil {
		return
	}
	m.KeywordsTotal.WithLabelValues(o.String()).Inc()
}

func (m *Metrics) IncPage() {
	if m == nil {
		return
	}
	m.PagesTotal.Inc()
}

func (m *Metrics) AddListings(kept, discarded int) {
	if m == nil {
		return
	}
	m.ListingsTotal.Add(float64(kept))
	m.DiscardedTotal.Add(float64(discarded))
}

func (m *Metrics) IncCaptcha(s CaptchaState) {
	if m == nil {
		return
	}
	m.CaptchasTotal.WithLabelValues(s.String()).Inc()
}

func (m *Metrics) ObserveKeyword(seconds float64) {
	if m == nil {
		return
	}
	m.KeywordDuration.Observe(seconds)
}
