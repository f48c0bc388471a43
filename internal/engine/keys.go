package engine

import (
	"time"

	"github.com/typerally/typerally/internal/model"
)

// KeyKind classifies a physical key-down event.
type KeyKind int

// Key kinds consumed by the validator.
const (
	KeyRune KeyKind = iota
	KeyBackspace
	KeyTab
	KeyOther
)

// Key is one keyboard event fed into the engine.
type Key struct {
	Kind      KeyKind
	Rune      rune
	Modified  bool
	Composing bool
}

// HandleKey validates one keystroke against the current target and
// updates counters and the keylog. It returns the effect the shell
// must run, which is EffectNone for everything except the keystroke
// that exhausts the prompt.
func (e *Engine) HandleKey(k Key) Effect {
	if e.session == nil || e.state != StateRunning {
		return EffectNone
	}
	if k.Composing || k.Modified {
		return EffectNone
	}

	switch k.Kind {
	case KeyTab:
		// Tab is a focus-loss proxy.
		e.defocus++
		e.focusWarning = true
		return EffectNone
	case KeyBackspace:
		if !e.contest.AllowBackspace {
			e.hasError = true
			e.errors++
			return EffectNone
		}
		if e.cursor > 0 {
			e.cursor--
			if e.correct > 0 {
				e.correct--
			}
		}
		return EffectNone
	case KeyRune:
		return e.handleRune(k.Rune)
	default:
		return EffectNone
	}
}

func (e *Engine) handleRune(r rune) Effect {
	if e.cursor >= len(e.target) {
		return EffectNone
	}

	now := e.now()
	if !e.lastKeyAt.IsZero() {
		e.intervals = append(e.intervals, float64(now.Sub(e.lastKeyAt))/float64(time.Millisecond))
	}
	e.lastKeyAt = now

	ok := r == e.target[e.cursor]
	e.keylog = append(e.keylog, model.KeyLogEntry{
		T:  now.Sub(e.startedAt).Milliseconds(),
		K:  string(r),
		OK: ok,
	})

	if ok {
		e.cursor++
		e.correct++
		e.hasError = false
	} else {
		e.errors++
		e.hasError = true
	}

	if e.cursor < len(e.target) {
		return EffectNone
	}
	if e.countdown.Remaining() > 0 {
		return e.beginAdvance()
	}
	return e.beginFinish()
}
