package mutation

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dafibh/domo/domo-client/internal/cache"
	"github.com/dafibh/domo/domo-client/internal/gateway"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrInvalidMutation = errors.New("invalid mutation")
	ErrEngineClosed    = errors.New("mutation engine closed")
	ErrUndeclaredKey   = errors.New("prediction wrote an undeclared key")
)

// DefaultHistorySize is how many settled mutations Lookup remembers
const DefaultHistorySize = 256

// Values are the predicted next values of touched keys
type Values map[cache.Key]any

// Mutation is a Spec bound to its payload
type Mutation struct {
	Name        string
	Touches     []cache.Key
	Predict     func(view cache.Getter) (Values, error)
	Submit      func(ctx context.Context, gw gateway.Gateway) ([]byte, error)
	Retry       RetryPolicy
	Invalidates []cache.Key // defaults to Touches
}

// Spec declares a named mutation over payloads of type P.
// Predict must be pure: it reads the view, returns fresh values for the keys
// it changes and never modifies what it read. A Predict error is a
// validation failure and stops the dispatch.
type Spec[P any] struct {
	Name        string
	Touches     []cache.Key
	Predict     func(view cache.Getter, payload P) (Values, error)
	Submit      func(ctx context.Context, gw gateway.Gateway, payload P) ([]byte, error)
	Retry       RetryPolicy
	Invalidates []cache.Key
}

// Bind fixes the payload of a spec
func (s Spec[P]) Bind(payload P) Mutation {
	m := Mutation{
		Name:        s.Name,
		Touches:     s.Touches,
		Retry:       s.Retry,
		Invalidates: s.Invalidates,
	}
	if s.Predict != nil {
		m.Predict = func(view cache.Getter) (Values, error) {
			return s.Predict(view, payload)
		}
	}
	if s.Submit != nil {
		m.Submit = func(ctx context.Context, gw gateway.Gateway) ([]byte, error) {
			return s.Submit(ctx, gw, payload)
		}
	}
	return m
}

// Dispatch binds payload to spec and executes it on e
func Dispatch[P any](ctx context.Context, e *Engine, spec Spec[P], payload P) (*Handle, error) {
	return e.Execute(ctx, spec.Bind(payload))
}

// Connectivity tells the engine when calls can be made
type Connectivity interface {
	Online() bool
	WaitOnline(ctx context.Context) error
}

type offlineReporter interface {
	ReportOffline()
}

// Options configures an Engine. Zero fields take defaults.
type Options struct {
	Retry        RetryPolicy
	Connectivity Connectivity // nil means always online
	Notifier     Notifier
	Sleep        SleepFunc
	HistorySize  int
}

type op struct {
	handle  *Handle
	m       Mutation
	token   cache.Token
	settled bool
}

// Engine executes mutations optimistically against a cache.Store.
// Dispatch and settlement are serialised, so optimistic writes land in
// dispatch order whatever order the responses arrive in.
type Engine struct {
	store       *cache.Store
	gw          gateway.Gateway
	conn        Connectivity
	notifier    Notifier
	retry       RetryPolicy
	sleep       SleepFunc
	historySize int
	logger      zerolog.Logger

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu      sync.Mutex
	journal []*op // dispatch order, from the oldest unsettled mutation
	handles map[uuid.UUID]*Handle
	history []uuid.UUID
	closed  bool
}

// NewEngine creates an Engine
func NewEngine(store *cache.Store, gw gateway.Gateway, logger zerolog.Logger, opts Options) *Engine {
	if opts.Retry.IsZero() {
		opts.Retry = DefaultRetryPolicy()
	}
	if opts.Notifier == nil {
		opts.Notifier = noopNotifier{}
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	if opts.HistorySize <= 0 {
		opts.HistorySize = DefaultHistorySize
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		store:       store,
		gw:          gw,
		conn:        opts.Connectivity,
		notifier:    opts.Notifier,
		retry:       opts.Retry.normalize(),
		sleep:       opts.Sleep,
		historySize: opts.HistorySize,
		logger:      logger.With().Str("component", "mutation_engine").Logger(),
		baseCtx:     ctx,
		cancel:      cancel,
		handles:     make(map[uuid.UUID]*Handle),
	}
}

// Execute snapshots the touched keys, writes the prediction into the store
// and submits the mutation in the background. The optimistic write is visible
// when Execute returns. ctx only carries values: the mutation outlives it and
// is cancelled by Close.
func (e *Engine) Execute(ctx context.Context, m Mutation) (*Handle, error) {
	if m.Name == "" || m.Submit == nil {
		return nil, fmt.Errorf("%w: name and submit are required", ErrInvalidMutation)
	}
	if m.Invalidates == nil {
		m.Invalidates = m.Touches
	}
	if m.Retry.IsZero() {
		m.Retry = e.retry
	}
	m.Retry = m.Retry.normalize()

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrEngineClosed
	}

	h := newHandle(m.Name)
	e.move(h, StatePredicting)

	token := e.store.Snapshot(m.Touches...)
	values, err := e.predict(m)
	if err != nil {
		e.mu.Unlock()
		e.logger.Debug().Err(err).Str("mutation", m.Name).Msg("Prediction rejected, not dispatching")
		return nil, err
	}
	e.apply(m.Touches, values)
	for _, k := range m.Touches {
		e.store.Pin(k)
	}

	o := &op{handle: h, m: m, token: token}
	e.journal = append(e.journal, o)
	e.handles[h.ID] = h
	e.wg.Add(1)
	e.mu.Unlock()

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stop := context.AfterFunc(e.baseCtx, cancel)

	go func() {
		defer e.wg.Done()
		defer cancel()
		defer stop()
		e.run(runCtx, o)
	}()

	e.logger.Debug().
		Str("mutation", m.Name).
		Str("id", h.ID.String()).
		Msg("Mutation dispatched")

	return h, nil
}

func (e *Engine) predict(m Mutation) (Values, error) {
	if m.Predict == nil {
		return nil, nil
	}
	values, err := m.Predict(e.store)
	if err != nil {
		return nil, err
	}
	for k := range values {
		if !slices.Contains(m.Touches, k) {
			return nil, fmt.Errorf("%w: %s writes %s", ErrUndeclaredKey, m.Name, k)
		}
	}
	return values, nil
}

func (e *Engine) apply(touches []cache.Key, values Values) {
	for _, k := range touches {
		if v, ok := values[k]; ok {
			e.store.Set(k, v)
		}
	}
}

func (e *Engine) move(h *Handle, to State) {
	if err := h.transition(to); err != nil {
		e.logger.Error().Err(err).Str("id", h.ID.String()).Msg("Mutation state")
	}
}

func (e *Engine) online() bool {
	return e.conn == nil || e.conn.Online()
}

// run submits until the mutation settles
func (e *Engine) run(ctx context.Context, o *op) {
	h := o.handle
	policy := o.m.Retry
	attempt := 0

	for {
		if !e.online() {
			if err := e.hold(ctx, h, 0); err != nil {
				e.fail(o, err)
				return
			}
		}

		e.move(h, StateSubmitting)
		attempt++
		h.setAttempts(attempt)

		body, err := o.m.Submit(ctx, e.gw)
		if err == nil {
			e.succeed(o, body)
			return
		}
		if ctx.Err() != nil {
			e.fail(o, err)
			return
		}

		// No connectivity is not a failed attempt
		if r, ok := e.conn.(offlineReporter); ok && gateway.IsOffline(err) {
			attempt--
			h.setAttempts(attempt)
			r.ReportOffline()
			if err := e.hold(ctx, h, policy.Delay); err != nil {
				e.fail(o, err)
				return
			}
			continue
		}

		if !gateway.IsRetryable(err) || attempt >= policy.MaxAttempts {
			e.fail(o, err)
			return
		}

		delay := policy.DelayFor(attempt)
		e.move(h, StateRetrying)
		e.logger.Debug().
			Err(err).
			Str("mutation", o.m.Name).
			Int("attempt", attempt).
			Dur("delay", delay).
			Msg("Retrying mutation")

		if err := e.sleep(ctx, delay); err != nil {
			e.fail(o, err)
			return
		}
	}
}

// hold parks the mutation until connectivity returns. pause is waited after
// coming back online.
func (e *Engine) hold(ctx context.Context, h *Handle, pause time.Duration) error {
	e.move(h, StateHeld)
	e.logger.Info().
		Str("mutation", h.Name).
		Str("id", h.ID.String()).
		Msg("Holding mutation until online")

	if e.conn != nil {
		if err := e.conn.WaitOnline(ctx); err != nil {
			return err
		}
	}
	if pause > 0 {
		return e.sleep(ctx, pause)
	}
	return ctx.Err()
}

func (e *Engine) succeed(o *op, body []byte) {
	e.mu.Lock()
	o.settled = true
	e.unpin(o)
	e.trim()
	e.store.Invalidate(o.m.Invalidates...)
	e.mu.Unlock()

	e.finish(o, StateSucceeded, body, nil)
}

func (e *Engine) fail(o *op, cause error) {
	e.mu.Lock()
	affected := e.rollback(o)
	o.settled = true
	e.unpin(o)
	e.trim()
	e.store.Invalidate(union(o.m.Invalidates, affected)...)
	e.mu.Unlock()

	e.finish(o, StateFailed, nil, cause)
}

// rollback removes the effect of a failed mutation. Its snapshot is written
// back and every later mutation sharing keys with it (transitively) is
// predicted again on top, so newer optimistic writes survive. Without such
// later mutations this is a verbatim restore. Caller holds e.mu.
func (e *Engine) rollback(failed *op) []cache.Key {
	idx := slices.Index(e.journal, failed)
	if idx < 0 {
		e.store.Restore(failed.token)
		return failed.m.Touches
	}

	replay := []*op{failed}
	affected := slices.Clone(failed.m.Touches)
	for _, later := range e.journal[idx+1:] {
		if !overlaps(later.m.Touches, affected) {
			continue
		}
		replay = append(replay, later)
		affected = union(affected, later.m.Touches)
	}

	// The first capture of each key in the replay set predates every
	// replayed write to it.
	base := cache.Token{}
	seen := make(map[cache.Key]bool)
	for _, x := range replay {
		for _, k := range x.m.Touches {
			if seen[k] {
				continue
			}
			seen[k] = true
			v, present, _ := x.token.Value(k)
			base = base.With(k, v, present)
		}
	}
	e.store.Restore(base)

	for _, x := range replay[1:] {
		x.token = e.store.Snapshot(x.m.Touches...)
		values, err := e.predict(x.m)
		if err != nil {
			e.logger.Warn().
				Err(err).
				Str("mutation", x.m.Name).
				Msg("Prediction no longer applies after rollback")
			continue
		}
		e.apply(x.m.Touches, values)
	}

	e.journal = slices.Delete(e.journal, idx, idx+1)

	if len(replay) > 1 {
		e.logger.Debug().
			Str("mutation", failed.m.Name).
			Int("replayed", len(replay)-1).
			Msg("Rebased later mutations after rollback")
	}
	return affected
}

// unpin releases the pins of o. Caller holds e.mu.
func (e *Engine) unpin(o *op) {
	for _, k := range o.m.Touches {
		e.store.Unpin(k)
	}
}

// trim drops settled mutations no earlier mutation can still need for a
// replay. Caller holds e.mu.
func (e *Engine) trim() {
	n := 0
	for n < len(e.journal) && e.journal[n].settled {
		n++
	}
	e.journal = slices.Delete(e.journal, 0, n)
}

// finish records and announces the outcome, then releases waiters
func (e *Engine) finish(o *op, state State, body []byte, cause error) {
	h := o.handle
	e.remember(h)

	notice := Notice{
		MutationID: h.ID,
		Name:       h.Name,
		Attempts:   h.Attempts(),
		At:         time.Now(),
	}
	if state == StateSucceeded {
		notice.Outcome = OutcomeSucceeded
		notice.Message = "Changes saved"
		e.logger.Info().
			Str("mutation", h.Name).
			Int("attempts", notice.Attempts).
			Msg("Mutation succeeded")
	} else {
		notice.Outcome = OutcomeFailed
		notice.Message = failureMessage(cause)
		notice.Status = gateway.StatusOf(cause)
		e.logger.Warn().
			Err(cause).
			Str("mutation", h.Name).
			Int("attempts", notice.Attempts).
			Msg("Mutation failed, rolled back")
	}
	e.notifier.Notify(notice)

	if err := h.settle(state, body, cause); err != nil {
		e.logger.Error().Err(err).Str("id", h.ID.String()).Msg("Mutation state")
	}
}

func failureMessage(err error) string {
	if reason := gateway.ReasonOf(err); reason != "" {
		return reason
	}
	return GenericFailureMessage
}

func (e *Engine) remember(h *Handle) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.history = append(e.history, h.ID)
	for len(e.history) > e.historySize {
		delete(e.handles, e.history[0])
		e.history = e.history[1:]
	}
}

// Lookup returns an in-flight or recently settled mutation
func (e *Engine) Lookup(id uuid.UUID) (*Handle, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	h, ok := e.handles[id]
	return h, ok
}

// Pending returns the number of unsettled mutations
func (e *Engine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := 0
	for _, o := range e.journal {
		if !o.settled {
			n++
		}
	}
	return n
}

// Close stops accepting mutations, cancels in-flight ones (which roll back)
// and waits for them to settle
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	e.cancel()
	e.wg.Wait()
}

func overlaps(a, b []cache.Key) bool {
	for _, k := range a {
		if slices.Contains(b, k) {
			return true
		}
	}
	return false
}

func union(a, b []cache.Key) []cache.Key {
	out := slices.Clone(a)
	for _, k := range b {
		if !slices.Contains(out, k) {
			out = append(out, k)
		}
	}
	return out
}
