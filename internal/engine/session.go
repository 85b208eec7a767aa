package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	apperrors "github.com/agbru/qarithcheck/internal/errors"
	"github.com/agbru/qarithcheck/internal/logging"
)

// Session owns an Evaluator. It serializes Rounds, so a single engine state
// never hosts two checks at once, and names registers from a counter that is
// never reused for the lifetime of the Session.
type Session struct {
	mu     sync.Mutex
	eval   Evaluator
	logger logging.Logger
	next   uint64
	rounds uint64
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLogger sets the logger used for round diagnostics.
func WithLogger(l logging.Logger) SessionOption {
	return func(s *Session) { s.logger = l }
}

// NewSession wraps e in a Session.
func NewSession(e Evaluator, opts ...SessionOption) *Session {
	s := &Session{eval: e, logger: logging.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Evaluator returns the underlying evaluator.
func (s *Session) Evaluator() Evaluator { return s.eval }

// Rounds returns the number of rounds started so far.
func (s *Session) Rounds() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rounds
}

// Round runs fn with exclusive use of the engine. When fn returns, on every
// path including a panic, the engine is reset if the evaluator implements
// Resetter. A reset failure is reported only if fn itself succeeded.
func (s *Session) Round(ctx context.Context, fn func(ctx context.Context, r *Round) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rounds++

	r := &Round{session: s}
	defer func() {
		if rerr := s.release(ctx); rerr != nil {
			s.logger.Error("engine reset failed", rerr, logging.Uint64("round", s.rounds))
			if err == nil {
				err = rerr
			}
		}
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx, r)
}

func (s *Session) release(ctx context.Context) error {
	resetter, ok := s.eval.(Resetter)
	if !ok {
		return nil
	}
	// The round may end because ctx was canceled; the reset must still run.
	if err := resetter.Reset(context.WithoutCancel(ctx)); err != nil {
		return apperrors.EvaluatorError{Operation: "reset", Cause: err}
	}
	return nil
}

// Round is the scope of one check. It is only valid inside the function
// passed to Session.Round.
type Round struct {
	session *Session
}

// Register returns a register of the given width with a name unique within
// the session.
func (r *Round) Register(width int) Register {
	name := fmt.Sprintf("q%d", r.session.next)
	r.session.next++
	return Register{Name: name, Width: width}
}

// Evaluate runs p on the session's engine. Engine failures are wrapped in an
// EvaluatorError; context errors are returned unwrapped.
func (r *Round) Evaluate(ctx context.Context, p Program) (Result, error) {
	res, err := r.session.eval.Evaluate(ctx, p)
	if err != nil {
		return Result{}, wrapEngineError("evaluate", err)
	}
	return res, nil
}

// DumpState reads the engine state.
func (r *Round) DumpState(ctx context.Context) (StateDump, error) {
	d, err := r.session.eval.DumpState(ctx)
	if err != nil {
		return StateDump{}, wrapEngineError("dump", err)
	}
	return d, nil
}

func wrapEngineError(op string, err error) error {
	var evalErr apperrors.EvaluatorError
	if apperrors.IsContextError(err) || errors.As(err, &evalErr) {
		return err
	}
	return apperrors.EvaluatorError{Operation: op, Cause: err}
}
