package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hotdice"

// ErrNilRegisterer is returned when no registerer is given
var ErrNilRegisterer = errors.New("registerer cannot be nil")

// Metrics holds the collectors for sync and game actions. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	syncEvents    *prometheus.CounterVec
	fallbacks     prometheus.Counter
	pollErrors    prometheus.Counter
	subscriptions *prometheus.GaugeVec
	actions       *prometheus.CounterVec
	conflicts     prometheus.Counter
	resyncs       prometheus.Counter
}

// New creates the collectors and registers them on reg
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		return nil, ErrNilRegisterer
	}

	m := &Metrics{
		syncEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sync_events_total",
				Help:      "Change events delivered to subscribers",
			},
			[]string{"kind", "mode"},
		),
		fallbacks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sync_fallbacks_total",
				Help:      "Lobbies switched from push to polling",
			},
		),
		pollErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sync_poll_errors_total",
				Help:      "Failed snapshot polls",
			},
		),
		subscriptions: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sync_subscriptions",
				Help:      "Active lobby subscriptions by mode",
			},
			[]string{"mode"},
		),
		actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "game_actions_total",
				Help:      "Game actions by action and result",
			},
			[]string{"action", "result"},
		),
		conflicts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "game_conflicts_total",
				Help:      "Store revision conflicts seen while applying actions",
			},
		),
		resyncs: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reconcile_resyncs_total",
				Help:      "Optimistic actions discarded after the confirm timeout",
			},
		),
	}

	for _, c := range []prometheus.Collector{
		m.syncEvents, m.fallbacks, m.pollErrors, m.subscriptions,
		m.actions, m.conflicts, m.resyncs,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// SyncEvent counts one delivered event
func (m *Metrics) SyncEvent(kind, mode string) {
	if m == nil {
		return
	}
	m.syncEvents.WithLabelValues(kind, mode).Inc()
}

func (m *Metrics) Fallback() {
	if m == nil {
		return
	}
	m.fallbacks.Inc()
}

func (m *Metrics) PollError() {
	if m == nil {
		return
	}
	m.pollErrors.Inc()
}

// SubscriptionMoved adjusts the per-mode gauge. An empty mode on either side
// means the subscription is starting or ending.
func (m *Metrics) SubscriptionMoved(from, to string) {
	if m == nil {
		return
	}
	if from != "" {
		m.subscriptions.WithLabelValues(from).Dec()
	}
	if to != "" {
		m.subscriptions.WithLabelValues(to).Inc()
	}
}

// Action counts a finished game action by result: ok, rejected, conflict or error
func (m *Metrics) Action(action, result string) {
	if m == nil {
		return
	}
	m.actions.WithLabelValues(action, result).Inc()
}

func (m *Metrics) Conflict() {
	if m == nil {
		return
	}
	m.conflicts.Inc()
}

func (m *Metrics) Resync() {
	if m == nil {
		return
	}
	m.resyncs.Inc()
}
