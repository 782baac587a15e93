// Package metrics exposes the TV snapshot as Prometheus gauges.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tvremote/internal/reconciler"
)

// Collector translates snapshots into gauge values. It uses its own
// registry so multiple instances can coexist in tests.
type Collector struct {
	registry *prometheus.Registry

	powerStatus *prometheus.GaugeVec
	volume      prometheus.Gauge
	muted       prometheus.Gauge
	nowPlaying  *prometheus.GaugeVec

	mu            sync.Mutex
	lastPower     string
	lastTitle     string
	havePrevious  bool
}

// NewCollector creates and registers the TV gauges.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		powerStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tv_power_status",
				Help: "TV power state (1=active, 0.5=standby, 0=off/unknown)",
			},
			[]string{"state"},
		),
		volume: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tv_volume",
			Help: "Current TV volume level",
		}),
		muted: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tv_muted",
			Help: "Whether TV is muted (1=muted, 0=unmuted)",
		}),
		nowPlaying: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tv_now_playing",
				Help: "Current TV channel or app, value is its fixed content ID",
			},
			[]string{"title"},
		),
	}

	c.registry.MustRegister(c.powerStatus, c.volume, c.muted, c.nowPlaying)
	return c
}

// Handler returns the /metrics HTTP handler for this collector.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Observe updates the gauges from a snapshot. Labelled series for the
// previous power state and title are removed so each metric exposes a
// single current series.
func (c *Collector) Observe(s reconciler.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.havePrevious {
		if c.lastPower != s.Power {
			c.powerStatus.DeleteLabelValues(c.lastPower)
		}
		if c.lastTitle != s.Title {
			c.nowPlaying.DeleteLabelValues(c.lastTitle)
		}
	}

	var powerValue float64
	switch s.Power {
	case reconciler.PowerActive:
		powerValue = 1
	case reconciler.PowerStandby:
		powerValue = 0.5
	}
	c.powerStatus.WithLabelValues(s.Power).Set(powerValue)

	c.volume.Set(float64(s.Volume))
	if s.Muted {
		c.muted.Set(1)
	} else {
		c.muted.Set(0)
	}

	c.nowPlaying.WithLabelValues(s.Title).Set(float64(s.NowPlayingID))

	c.lastPower = s.Power
	c.lastTitle = s.Title
	c.havePrevious = true
}
