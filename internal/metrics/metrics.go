// Package metrics provides Prometheus metrics for the piano loop.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tecla"

// Metrics holds all Prometheus metrics. Each instance owns its registry,
// so tests can create as many as they like.
type Metrics struct {
	Registry *prometheus.Registry

	// Loop metrics
	Frames        prometheus.Counter
	FramesIdle    prometheus.Counter
	FrameDuration prometheus.Histogram
	HandsVisible  prometheus.Gauge

	// Note metrics
	NotesPlayed *prometheus.CounterVec

	// Error metrics
	DetectErrors prometheus.Counter
	SoundErrors  prometheus.Counter

	EditorOpen prometheus.Gauge
}

// New creates and registers all metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		Frames: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Total number of camera frames processed",
		}),
		FramesIdle: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_idle_total",
			Help:      "Frames that skipped hand detection because the scene was still",
		}),
		FrameDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "frame_duration_seconds",
			Help:      "Time spent processing one frame",
			Buckets:   []float64{0.005, 0.01, 0.02, 0.033, 0.05, 0.1, 0.25, 0.5},
		}),
		HandsVisible: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "hands_visible",
			Help:      "Number of hands detected in the last frame",
		}),

		NotesPlayed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notes_played_total",
			Help:      "Total number of notes triggered",
		}, []string{"key", "side"}),

		DetectErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detect_errors_total",
			Help:      "Total number of hand detection failures",
		}),
		SoundErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sound_errors_total",
			Help:      "Total number of sounds that failed to play",
		}),

		EditorOpen: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "editor_open",
			Help:      "1 while the configuration editor is open",
		}),
	}
}

// RecordNote counts a triggered note.
func (m *Metrics) RecordNote(key, side string) {
	m.NotesPlayed.WithLabelValues(key, side).Inc()
}

// SetEditorOpen updates the editor gauge.
func (m *Metrics) SetEditorOpen(open bool) {
	if open {
		m.EditorOpen.Set(1)
		return
	}
	m.EditorOpen.Set(0)
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
