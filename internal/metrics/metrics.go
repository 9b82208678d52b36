package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	changeChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "festsync_change_checks_total",
		Help: "Change-check attempts by outcome",
	}, []string{"outcome"}) // outcome=changed|unchanged|error|skipped_in_flight|skipped_min_interval

	scheduleRefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "festsync_schedule_refresh_total",
		Help: "Schedule refresh attempts by outcome",
	}, []string{"outcome"}) // outcome=success|failure|offline

	cachedEvents = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "festsync_cached_events",
		Help: "Number of schedule events currently held",
	})

	online = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "festsync_online",
		Help: "Whether the device is considered online (1) or offline (0)",
	})

	favoritesTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "festsync_favorites",
		Help: "Number of favorited events after the last favorites mutation",
	})
)

func RecordChangeCheck(outcome string) {
	changeChecksTotal.WithLabelValues(outcome).Inc()
}

func RecordScheduleRefresh(outcome string) {
	scheduleRefreshTotal.WithLabelValues(outcome).Inc()
}

func SetCachedEvents(n int) {
	cachedEvents.Set(float64(n))
}

func SetOnline(isOnline bool) {
	if isOnline {
		online.Set(1)
		return
	}
	online.Set(0)
}

func SetFavorites(n int) {
	favoritesTotal.Set(float64(n))
}
