package reconcile

import (
	"go.uber.org/zap"

	"github.com/parleyhq/parley"
)

// Option configures a [Reconciler] at construction.
type Option func(*Reconciler)

// WithListeners attaches realtime push feeds. Each listener is
// subscribed on Start and closed on Close.
func WithListeners(ls ...parley.Listener) Option {
	return func(r *Reconciler) {
		r.listeners = append(r.listeners, ls...)
	}
}

// WithHistory attaches an initial-load source consulted once on Start.
func WithHistory(h parley.HistoryFetcher) Option {
	return func(r *Reconciler) { r.history = h }
}

// WithPreferences attaches a persisted model-selection store. The
// persisted value, if any, becomes the initial current model, and
// SetCurrentModel writes through.
func WithPreferences(p parley.PreferenceStore) Option {
	return func(r *Reconciler) { r.prefs = p }
}

// WithModel sets the initial model selection. A persisted preference
// takes precedence.
func WithModel(model string) Option {
	return func(r *Reconciler) { r.model = model }
}

// WithAgentType sets the agent_type forwarded on text dispatches.
func WithAgentType(agent string) Option {
	return func(r *Reconciler) { r.agentType = agent }
}

// WithEventHandler sets a callback that receives each state-change
// event. If nil or not set, events are silently discarded. The handler
// is invoked on the goroutine that caused the change and must not block.
func WithEventHandler(h func(parley.Event)) Option {
	return func(r *Reconciler) { r.onEvent = h }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Reconciler) { r.logger = l }
}
