// Package engine implements the typing session state machine.
//
// The engine is single-threaded and event-driven: the surrounding
// shell feeds it discrete events (keystrokes, one-second ticks, focus
// changes, collaborator results) and runs the effects it returns.
// Collaborator calls are never made by the engine itself, so at most
// one lifecycle transition is in flight at a time and input is gated
// purely by state.
package engine

import (
	"context"
	"time"

	"github.com/typerally/typerally/internal/metrics"
	"github.com/typerally/typerally/internal/model"
)

// State identifies the lifecycle phase of the engine.
type State int

// Engine states.
const (
	StateIdle State = iota
	StateStarting
	StateRunning
	StateAdvancing
	StateFinishing
	StateError
)

// Effect tells the shell which collaborator call to run next.
type Effect int

// Effects returned by engine transitions.
const (
	EffectNone Effect = iota
	EffectStart
	EffectAdvance
	EffectFinish
)

// SessionService is the external collaborator driving session
// lifecycle. Implementations must be safe to call from a goroutine.
type SessionService interface {
	StartSession(ctx context.Context, contestID, user string) (*model.Session, error)
	NextPrompt(ctx context.Context, sessionID string) (model.Prompt, int, error)
	FinishSession(ctx context.Context, sessionID, contestID string, req model.FinishRequest) (*model.SessionResult, error)
}

// LeaderboardService provides the polled ranking view.
type LeaderboardService interface {
	Leaderboard(ctx context.Context, contestID, user string) (model.LeaderboardPage, error)
}

// Engine orchestrates one typing session at a time under a contest's
// rules.
type Engine struct {
	contest model.Contest
	user    string
	now     func() time.Time

	state      State
	session    *model.Session
	prompt     *model.Prompt
	orderIndex int
	target     []rune

	cursor    int
	correct   int
	errors    int
	keylog    []model.KeyLogEntry
	intervals []float64
	hasError  bool

	startedAt time.Time
	lastKeyAt time.Time

	countdown    Countdown
	defocus      int
	focusWarning bool
	finished     bool
	autoNext     bool

	pendingReq    model.FinishRequest
	pendingResult model.SessionResult
	lastResult    *model.SessionResult
	errMsg        string
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithAutoNext controls whether a finished session loops straight into
// a new one.
func WithAutoNext(auto bool) Option {
	return func(e *Engine) { e.autoNext = auto }
}

// New returns an idle engine for the given contest and user.
func New(contest model.Contest, user string, opts ...Option) *Engine {
	e := &Engine{
		contest:  contest,
		user:     user,
		now:      time.Now,
		autoNext: true,
	}
	e.countdown.Reset("", contest.TimeLimitSec)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// BeginStart gates a start request. It reports false while another
// lifecycle transition is outstanding or a session is already running.
func (e *Engine) BeginStart() bool {
	switch e.state {
	case StateIdle, StateError:
	default:
		return false
	}
	e.errMsg = ""
	e.state = StateStarting
	return true
}

// ApplyStart consumes the result of the start collaborator call.
func (e *Engine) ApplyStart(sess *model.Session, err error) {
	if e.state != StateStarting {
		return
	}
	if err != nil {
		e.state = StateError
		e.errMsg = "could not start the session; try again"
		return
	}
	e.session = sess
	e.prompt = &sess.Prompt
	e.orderIndex = sess.OrderIndex
	e.target = []rune(sess.Prompt.TypingTarget)
	e.cursor = 0
	e.correct = 0
	e.errors = 0
	e.keylog = nil
	e.intervals = nil
	e.hasError = false
	e.defocus = 0
	e.focusWarning = false
	e.finished = false
	e.errMsg = ""
	e.lastKeyAt = time.Time{}
	e.startedAt = e.now()
	e.countdown.Reset(sess.ID, e.contest.TimeLimitSec)
	e.state = StateRunning
}

// Tick advances the countdown by one second. On expiry the session
// moves to finishing and the finish effect is returned, exactly once.
func (e *Engine) Tick() Effect {
	if e.state != StateRunning {
		return EffectNone
	}
	if e.countdown.Tick() {
		return e.beginFinish()
	}
	return EffectNone
}

func (e *Engine) beginAdvance() Effect {
	if e.session == nil || e.finished {
		return EffectNone
	}
	// Reset optimistically so stale input never matches the old target
	// while the next prompt loads.
	e.state = StateAdvancing
	e.cursor = 0
	e.hasError = false
	e.prompt = nil
	e.target = nil
	e.lastKeyAt = time.Time{}
	return EffectAdvance
}

// ApplyAdvance consumes the result of the next-prompt collaborator
// call. A failure degrades to finishing so the collected result is
// never lost.
func (e *Engine) ApplyAdvance(p model.Prompt, orderIndex int, err error) Effect {
	if e.state != StateAdvancing {
		return EffectNone
	}
	if err != nil {
		e.errMsg = "could not fetch the next prompt; saving result"
		return e.beginFinish()
	}
	e.prompt = &p
	e.orderIndex = orderIndex
	e.target = []rune(p.TypingTarget)
	e.state = StateRunning
	return EffectNone
}

func (e *Engine) beginFinish() Effect {
	if e.session == nil || e.finished {
		return EffectNone
	}
	e.finished = true
	e.state = StateFinishing

	limit := float64(e.contest.TimeLimitSec)
	elapsed := e.now().Sub(e.startedAt).Seconds()
	if elapsed > limit {
		elapsed = limit
	}
	if elapsed < 1 {
		elapsed = 1
	}

	total := e.correct + e.errors
	acc := metrics.Accuracy(e.correct, total)
	cpm := metrics.CPM(e.correct, elapsed)
	e.pendingReq = model.FinishRequest{
		CPM:      cpm,
		WPM:      metrics.WPM(cpm),
		Accuracy: acc,
		Score:    metrics.Score(cpm, acc),
		Errors:   e.errors,
		Keylog:   append([]model.KeyLogEntry(nil), e.keylog...),
		Flags: model.ClientFlags{
			Defocus:      e.defocus,
			PasteBlocked: true,
			AnomalyScore: metrics.AnomalyScore(e.intervals),
		},
	}
	e.pendingResult = model.SessionResult{
		SessionID:   e.session.ID,
		ContestID:   e.session.ContestID,
		User:        e.user,
		CPM:         e.pendingReq.CPM,
		WPM:         e.pendingReq.WPM,
		Accuracy:    e.pendingReq.Accuracy,
		Score:       e.pendingReq.Score,
		Errors:      e.pendingReq.Errors,
		Keylog:      e.pendingReq.Keylog,
		Flags:       e.pendingReq.Flags,
		CompletedAt: e.now(),
	}
	return EffectFinish
}

// RetryFinish re-arms the finish submission after a failed attempt.
func (e *Engine) RetryFinish() Effect {
	if e.state != StateFinishing || e.finished {
		return EffectNone
	}
	return e.beginFinish()
}

// FinishPayload returns the request built by the latest finish
// transition.
func (e *Engine) FinishPayload() model.FinishRequest {
	return e.pendingReq
}

// ApplyFinish consumes the result of the finish collaborator call. The
// server result wins when present; otherwise the locally computed one
// stands. A failure releases the idempotency guard so the submission
// can be retried without losing the session's data.
func (e *Engine) ApplyFinish(res *model.SessionResult, err error) Effect {
	if e.state != StateFinishing {
		return EffectNone
	}
	if err != nil {
		e.finished = false
		e.errMsg = "could not submit the result; check the connection and retry"
		return EffectNone
	}
	final := e.pendingResult
	if res != nil && res.SessionID != "" {
		final = *res
	}
	e.lastResult = &final
	e.errMsg = ""
	if e.autoNext {
		e.state = StateStarting
		return EffectStart
	}
	e.session = nil
	e.prompt = nil
	e.orderIndex = 0
	e.state = StateIdle
	return EffectNone
}

// Defocus records a loss of input focus or visibility.
func (e *Engine) Defocus() {
	if e.session == nil || e.state != StateRunning {
		return
	}
	e.defocus++
	e.focusWarning = true
}

// Refocus clears the focus warning.
func (e *Engine) Refocus() {
	e.focusWarning = false
}

// SetAutoNext toggles looping into a new session after finish.
func (e *Engine) SetAutoNext(auto bool) {
	e.autoNext = auto
}

// AutoNext reports whether finished sessions loop into new ones.
func (e *Engine) AutoNext() bool {
	return e.autoNext
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	return e.state
}

// Session returns the active session, or nil.
func (e *Engine) Session() *model.Session {
	return e.session
}

// Prompt returns the current prompt, or nil while one is loading.
func (e *Engine) Prompt() *model.Prompt {
	return e.prompt
}

// OrderIndex returns the current prompt's position in the rotation.
func (e *Engine) OrderIndex() int {
	return e.orderIndex
}

// Target returns the canonical character sequence being typed.
func (e *Engine) Target() []rune {
	return e.target
}

// Cursor returns the index of the next expected character.
func (e *Engine) Cursor() int {
	return e.cursor
}

// Correct returns the count of accepted keystrokes.
func (e *Engine) Correct() int {
	return e.correct
}

// Errors returns the count of rejected keystrokes.
func (e *Engine) Errors() int {
	return e.errors
}

// KeylogLen returns the number of logged keystrokes.
func (e *Engine) KeylogLen() int {
	return len(e.keylog)
}

// Remaining returns the seconds left on the countdown.
func (e *Engine) Remaining() int {
	return e.countdown.Remaining()
}

// Accuracy returns the live accuracy for display.
func (e *Engine) Accuracy() float64 {
	return metrics.Accuracy(e.correct, e.correct+e.errors)
}

// CPM returns the live speed for display, derived from the countdown
// so the figure matches the rendered clock.
func (e *Engine) CPM() int {
	elapsed := e.contest.TimeLimitSec - e.countdown.Remaining()
	if elapsed < 1 {
		elapsed = 1
	}
	return metrics.CPM(e.correct, float64(elapsed))
}

// WPM returns the live speed in words per minute.
func (e *Engine) WPM() int {
	return metrics.WPM(e.CPM())
}

// HasError reports whether the current character should flash as an
// error.
func (e *Engine) HasError() bool {
	return e.hasError
}

// FocusWarning reports whether the focus-lost warning is raised.
func (e *Engine) FocusWarning() bool {
	return e.focusWarning
}

// DefocusCount returns the number of focus losses this session.
func (e *Engine) DefocusCount() int {
	return e.defocus
}

// LastResult returns the most recent finalized result, or nil.
func (e *Engine) LastResult() *model.SessionResult {
	return e.lastResult
}

// ErrMsg returns the user-facing message for the latest failure, or
// an empty string.
func (e *Engine) ErrMsg() string {
	return e.errMsg
}
