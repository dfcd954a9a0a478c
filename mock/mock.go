// Package mock provides test doubles for parley interfaces using
// function fields.
package mock

import (
	"context"

	"github.com/parleyhq/parley"
)

// Interface compliance checks.
var (
	_ parley.Dispatcher      = (*Dispatcher)(nil)
	_ parley.Listener        = (*Listener)(nil)
	_ parley.HistoryFetcher  = (*HistoryFetcher)(nil)
	_ parley.PreferenceStore = (*PreferenceStore)(nil)
)

// Dispatcher is a test double for parley.Dispatcher.
// Set the function fields for the methods you need.
type Dispatcher struct {
	SendTextFn func(ctx context.Context, req parley.TextRequest) (parley.Result, error)
	SendFileFn func(ctx context.Context, req parley.FileRequest) (parley.Result, error)
}

// SendText delegates to SendTextFn.
func (d *Dispatcher) SendText(ctx context.Context, req parley.TextRequest) (parley.Result, error) {
	return d.SendTextFn(ctx, req)
}

// SendFile delegates to SendFileFn.
func (d *Dispatcher) SendFile(ctx context.Context, req parley.FileRequest) (parley.Result, error) {
	return d.SendFileFn(ctx, req)
}

// Listener is a test double for parley.Listener. SubscribeFn panics
// when nil to catch missing setup. CloseFn is nil-safe (no-op) because
// test code commonly calls defer listener.Close().
type Listener struct {
	SubscribeFn func(ctx context.Context, owner string, sink func(parley.Message)) error
	CloseFn     func() error
}

// Subscribe delegates to SubscribeFn.
func (l *Listener) Subscribe(ctx context.Context, owner string, sink func(parley.Message)) error {
	return l.SubscribeFn(ctx, owner, sink)
}

// Close delegates to CloseFn. Returns nil when CloseFn is not set.
func (l *Listener) Close() error {
	if l.CloseFn == nil {
		return nil
	}
	return l.CloseFn()
}

// HistoryFetcher is a test double for parley.HistoryFetcher.
type HistoryFetcher struct {
	HistoryFn func(ctx context.Context, owner string) ([]parley.Message, error)
}

// History delegates to HistoryFn.
func (h *HistoryFetcher) History(ctx context.Context, owner string) ([]parley.Message, error) {
	return h.HistoryFn(ctx, owner)
}

// PreferenceStore is an in-memory test double for
// parley.PreferenceStore. The zero value is an empty store.
type PreferenceStore struct {
	Model  string
	HasSet bool

	// SetErr, when non-nil, is returned by SetModelPreference.
	SetErr error
}

// ModelPreference returns the stored model, if any.
func (p *PreferenceStore) ModelPreference() (string, bool) {
	return p.Model, p.HasSet
}

// SetModelPreference stores the model, or returns SetErr when set.
func (p *PreferenceStore) SetModelPreference(model string) error {
	if p.SetErr != nil {
		return p.SetErr
	}
	p.Model = model
	p.HasSet = true
	return nil
}
