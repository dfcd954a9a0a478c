// Package reconcile maintains one coherent, displayable message list
// per session under concurrent optimistic, synchronous and asynchronous
// writers.
//
// The Reconciler owns the message store exclusively. Optimistic local
// inserts, dispatch results and realtime push events all funnel through
// the same idempotent, timestamp-ordered merge, which is what makes the
// three origins safe to interleave without duplicates or out-of-order
// entries.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/parleyhq/parley"
)

const (
	defaultModel     = "gpt4"
	defaultAgentType = "auditor"

	processingNotice = "Procesando tu documento…"
)

// Reconciler combines optimistic local inserts, synchronous dispatch
// results and asynchronous push events into one consistent,
// duplicate-free, chronologically ordered list, while tracking the
// loading and error state a UI needs.
type Reconciler struct {
	owner      string
	dispatcher parley.Dispatcher
	listeners  []parley.Listener
	history    parley.HistoryFetcher
	prefs      parley.PreferenceStore
	onEvent    func(parley.Event)
	logger     *zap.Logger
	agentType  string

	mu       sync.Mutex
	store    *parley.Store
	session  parley.Session
	model    string
	loading  bool
	lastErr  error
	degraded bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Reconciler for the authenticated owner. The owner id
// comes from the external auth session; an empty owner causes every
// send to be rejected locally with [parley.ErrUnauthenticated].
func New(owner string, dispatcher parley.Dispatcher, opts ...Option) *Reconciler {
	r := &Reconciler{
		owner:      owner,
		dispatcher: dispatcher,
		model:      defaultModel,
		agentType:  defaultAgentType,
		logger:     zap.NewNop(),
		store:      parley.NewStore(),
		session:    parley.NewSession(owner),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.prefs != nil {
		if m, ok := r.prefs.ModelPreference(); ok {
			r.model = m
		}
	}
	return r
}

// Start loads history and subscribes the attached listeners. A missing
// message relation on either path flips the session-long degrade flag
// instead of failing: the conversation continues memory-only.
func (r *Reconciler) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	if r.history != nil {
		msgs, err := r.history.History(ctx, r.owner)
		switch {
		case errors.Is(err, parley.ErrRelationMissing):
			r.degrade(err)
		case err != nil:
			r.logger.Warn("history load failed", zap.Error(err))
		default:
			for _, m := range msgs {
				r.Merge(m)
			}
		}
	}

	for _, l := range r.listeners {
		if r.isDegraded() {
			break
		}
		r.wg.Add(1)
		go func(l parley.Listener) {
			defer r.wg.Done()
			err := l.Subscribe(ctx, r.owner, r.Merge)
			switch {
			case err == nil, errors.Is(err, context.Canceled), errors.Is(err, parley.ErrListenerClosed):
			case errors.Is(err, parley.ErrRelationMissing):
				r.degrade(err)
			default:
				r.logger.Warn("listener terminated", zap.Error(err))
			}
		}(l)
	}
}

// Close tears down subscriptions and releases listener connections.
// Safe to call more than once.
func (r *Reconciler) Close() error {
	if r.cancel != nil {
		r.cancel()
	}
	var errs []error
	for _, l := range r.listeners {
		if err := l.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.wg.Wait()
	return errors.Join(errs...)
}

// SendMessage is the single entry point for user-initiated actions.
// Text and/or a file may be provided; model selects the backend model
// for this action, defaulting to the current selection when empty.
//
// The optimistic client echo is merged before any network round-trip.
// Failures of any kind resolve to a visible assistant-role message and
// never propagate as a fault; the returned error is non-nil only for
// locally rejected actions (unauthenticated, validation).
func (r *Reconciler) SendMessage(ctx context.Context, text, model string, file *parley.Upload) (err error) {
	if err := parley.ValidateSend(text, file); err != nil {
		r.setErr(err)
		return err
	}
	if r.owner == "" {
		r.setErr(parley.ErrUnauthenticated)
		return parley.ErrUnauthenticated
	}
	if model == "" {
		model = r.CurrentModel()
	}

	r.setLoading(true)
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("send panicked", zap.Any("panic", rec))
			cause := fmt.Errorf("internal error: %v", rec)
			r.setErr(cause)
			r.Merge(parley.ErrorMessage{
				MsgID:  uuid.NewString(),
				Owner:  r.owner,
				Body:   fmt.Sprintf("Lo siento, ha ocurrido un error inesperado: %v", rec),
				Cause:  cause.Error(),
				SentAt: time.Now(),
			})
		}
		// The input gate is released on every path, panic included.
		r.setLoading(false)
	}()

	if file != nil {
		r.sendFile(ctx, text, model, file)
	} else {
		r.sendText(ctx, text, model)
	}
	return nil
}

// sendText handles the plain text path: optimistic echo, one dispatch,
// resolve.
func (r *Reconciler) sendText(ctx context.Context, text, model string) {
	r.Merge(parley.TextMessage{
		MsgID:  uuid.NewString(),
		Owner:  r.owner,
		From:   parley.RoleClient,
		Body:   text,
		SentAt: time.Now(),
	})

	res, err := r.dispatcher.SendText(ctx, parley.TextRequest{
		Body:      text,
		Owner:     r.owner,
		SessionID: r.SessionID(),
		Model:     model,
		AgentType: r.agentType,
	})
	r.resolve(res, err)
}

// sendFile handles the attachment path: optimistic echo, interim
// marker, upload dispatch, then a follow-up text dispatch reusing the
// session adopted from the upload when a body accompanied the file.
func (r *Reconciler) sendFile(ctx context.Context, text, model string, file *parley.Upload) {
	r.Merge(parley.FileMessage{
		MsgID: uuid.NewString(),
		Owner: r.owner,
		From:  parley.RoleClient,
		Body:  text,
		File: parley.Attachment{
			FileName: file.Name,
			FileType: file.ContentType,
		},
		SentAt: time.Now(),
	})

	notice := parley.Notice{
		MsgID:  uuid.NewString(),
		Owner:  r.owner,
		Body:   processingNotice,
		SentAt: time.Now(),
	}
	r.Merge(notice)

	res, err := r.dispatcher.SendFile(ctx, parley.FileRequest{
		File:      *file,
		Owner:     r.owner,
		SessionID: r.SessionID(),
		Model:     model,
	})

	// The marker is retired no matter how the upload resolved; it is
	// replaced by the real reply or by the error explanation.
	r.remove(notice.MsgID)
	failed := r.resolve(res, err)

	if text != "" && !failed {
		res, err = r.dispatcher.SendText(ctx, parley.TextRequest{
			Body:      text,
			Owner:     r.owner,
			SessionID: r.SessionID(),
			Model:     model,
			AgentType: r.agentType,
		})
		r.resolve(res, err)
	}
}

// resolve converts one dispatch outcome into exactly one merged
// message, adopting the server-assigned session id when present. It
// reports whether the outcome was a failure.
func (r *Reconciler) resolve(res parley.Result, err error) bool {
	if err != nil {
		// Dispatcher implementations with a fallback policy never take
		// this path; it guards test doubles and future transports.
		r.setErr(err)
		r.Merge(parley.ErrorMessage{
			MsgID:  uuid.NewString(),
			Owner:  r.owner,
			Body:   fmt.Sprintf("Lo siento, ha ocurrido un error al procesar tu solicitud: %v", err),
			Cause:  err.Error(),
			SentAt: time.Now(),
		})
		return true
	}

	r.adoptSession(res.SessionID)

	if res.ModelUsed == parley.ModelErrorFallback {
		r.setErr(errors.New("backend unavailable, degraded reply shown"))
		r.Merge(parley.ErrorMessage{
			MsgID:  uuid.NewString(),
			Owner:  r.owner,
			Body:   res.Text,
			Cause:  res.Text,
			SentAt: time.Now(),
		})
		return true
	}

	r.Merge(parley.TextMessage{
		MsgID:  uuid.NewString(),
		Owner:  r.owner,
		From:   parley.RoleAssistant,
		Body:   res.Text,
		Model:  res.ModelUsed,
		SentAt: time.Now(),
	})
	return false
}

// Merge inserts a candidate message from any origin. Already-present
// ids leave the list unchanged. Listeners hand their events here; they
// never mutate the store directly.
func (r *Reconciler) Merge(msg parley.Message) {
	r.mu.Lock()
	merged := r.store.Merge(msg)
	r.mu.Unlock()
	if merged {
		r.emit(parley.EventMerged{Message: msg})
	}
}

// Messages returns the current ordered list for rendering.
func (r *Reconciler) Messages() []parley.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.Messages()
}

// IsLoading reports whether a send is in flight. A UI gates its input
// control on this flag.
func (r *Reconciler) IsLoading() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loading
}

// Err returns the last transient error, for banner display. The message
// list itself already carries the durable explanation.
func (r *Reconciler) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

// CurrentModel returns the active backend model selection.
func (r *Reconciler) CurrentModel() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.model
}

// SetCurrentModel changes the active model and writes through to the
// preference store when one is attached.
func (r *Reconciler) SetCurrentModel(model string) {
	r.mu.Lock()
	r.model = model
	r.mu.Unlock()
	if r.prefs != nil {
		if err := r.prefs.SetModelPreference(model); err != nil {
			r.logger.Warn("persisting model preference failed", zap.Error(err))
		}
	}
}

// SessionID returns the current conversation's session id.
func (r *Reconciler) SessionID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session.ID
}

// Degraded reports whether backend history/realtime integration was
// disabled for this session.
func (r *Reconciler) Degraded() bool {
	return r.isDegraded()
}

// Reset discards the conversation and starts a fresh session id. The
// old session is never explicitly closed server-side.
func (r *Reconciler) Reset() {
	r.mu.Lock()
	r.store.Clear()
	r.session = parley.NewSession(r.owner)
	r.lastErr = nil
	r.mu.Unlock()
	r.emit(parley.EventSessionAdopted{SessionID: r.SessionID()})
}

func (r *Reconciler) adoptSession(id string) {
	if id == "" {
		return
	}
	r.mu.Lock()
	changed := r.session.ID != id
	r.session.ID = id
	r.mu.Unlock()
	if changed {
		r.emit(parley.EventSessionAdopted{SessionID: id})
	}
}

func (r *Reconciler) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store.Remove(id)
}

func (r *Reconciler) setLoading(v bool) {
	r.mu.Lock()
	changed := r.loading != v
	r.loading = v
	if v {
		r.lastErr = nil
	}
	r.mu.Unlock()
	if changed {
		r.emit(parley.EventLoading{Active: v})
	}
}

func (r *Reconciler) setErr(err error) {
	r.mu.Lock()
	r.lastErr = err
	r.mu.Unlock()
	r.emit(parley.EventError{Err: err})
}

func (r *Reconciler) degrade(cause error) {
	r.mu.Lock()
	already := r.degraded
	r.degraded = true
	r.mu.Unlock()
	if !already {
		r.logger.Info("backend schema missing, continuing memory-only", zap.Error(cause))
		r.emit(parley.EventDegraded{Reason: cause})
	}
}

func (r *Reconciler) isDegraded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.degraded
}

func (r *Reconciler) emit(ev parley.Event) {
	if r.onEvent != nil {
		r.onEvent(ev)
	}
}
