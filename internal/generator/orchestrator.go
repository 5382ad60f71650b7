package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bodul/autocross/internal/crossword"
	"github.com/bodul/autocross/internal/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/bodul/autocross/internal/generator")

// State is a step of the generation state machine:
//
//	EXTRACTING -> LAYOUT_ATTEMPT(1..MaxRetries) -> SUCCESS | EXHAUSTED
//
// FAILED is entered when extraction fails or the caller cancels.
type State int

const (
	StateExtracting State = iota + 1
	StateLayoutAttempt
	StateSuccess
	StateExhausted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateExtracting:
		return "extracting"
	case StateLayoutAttempt:
		return "layout_attempt"
	case StateSuccess:
		return "success"
	case StateExhausted:
		return "exhausted"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Event reports one state transition. Attempt is the layout attempt being
// entered (or the last one run, for terminal states). Err is the failure
// that caused the transition.
type Event struct {
	State       State
	Attempt     int
	MaxAttempts int
	Terms       int
	Err         error
}

// Options tunes the orchestrator. Zero fields take the defaults.
type Options struct {
	MaxRetries     int
	AttemptTimeout time.Duration
	Backoff        time.Duration
	ContentLimit   int
	ExtraTerms     int

	// OnTransition is called synchronously on every state change.
	OnTransition func(Event)
}

// DefaultOptions returns the production tuning.
func DefaultOptions() Options {
	return Options{
		MaxRetries:     3,
		AttemptTimeout: 120 * time.Second,
		Backoff:        1500 * time.Millisecond,
		ContentLimit:   30000,
		ExtraTerms:     5,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.MaxRetries <= 0 {
		o.MaxRetries = def.MaxRetries
	}
	if o.AttemptTimeout <= 0 {
		o.AttemptTimeout = def.AttemptTimeout
	}
	if o.Backoff < 0 {
		o.Backoff = 0
	}
	if o.ContentLimit <= 0 {
		o.ContentLimit = def.ContentLimit
	}
	if o.ExtraTerms < 0 {
		o.ExtraTerms = 0
	}
	return o
}

// CountError reports a layout with fewer words than requested.
type CountError struct {
	Got, Want int
}

func (e *CountError) Error() string {
	return fmt.Sprintf("returned %d words but exactly %d are required", e.Got, e.Want)
}

// Orchestrator runs generations against one model. It is safe for
// concurrent use; all per-generation state lives in the run.
type Orchestrator struct {
	model Model
	opts  Options
	log   *logger.Logger
}

// New returns an orchestrator over model.
func New(model Model, opts Options) *Orchestrator {
	return &Orchestrator{
		model: model,
		opts:  opts.withDefaults(),
		log:   logger.Named("generator"),
	}
}

// Options returns the effective options.
func (o *Orchestrator) Options() Options { return o.opts }

// Generate extracts terms from the request's material, then asks the model
// for a layout up to MaxRetries times, feeding each validator failure back
// into the next prompt. It returns a validated result holding exactly
// req.Count words, an error wrapping ErrExtraction, an *ExhaustedError, or
// the context's error.
func (o *Orchestrator) Generate(ctx context.Context, req Request) (Result, error) {
	if err := req.validate(); err != nil {
		return Result{}, err
	}

	ctx, span := tracer.Start(ctx, "generator.Generate", trace.WithAttributes(
		attribute.Int("crossword.count", req.Count),
		attribute.Bool("crossword.attachment", req.Attachment != nil),
		attribute.Int("generator.max_retries", o.opts.MaxRetries),
	))
	defer span.End()

	start := time.Now()
	r := &run{o: o, req: req, log: o.log.With().Str("request_id", logger.RequestID(ctx)).Logger()}
	res, err := r.loop(ctx)
	runDuration.Observe(time.Since(start).Seconds())

	result := "success"
	var exhausted *ExhaustedError
	switch {
	case err == nil:
	case errors.As(err, &exhausted):
		result = "exhausted"
	case errors.Is(err, ErrExtraction):
		result = "extraction_failed"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		result = "canceled"
	default:
		result = "error"
	}
	runsTotal.WithLabelValues(result).Inc()
	span.SetAttributes(attribute.String("generator.result", result), attribute.Int("generator.attempts", r.attempt))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, result)
		return Result{}, err
	}
	span.SetStatus(codes.Ok, "")
	return res, nil
}

type run struct {
	o   *Orchestrator
	req Request
	log logger.Logger

	terms    []Term
	attempt  int
	feedback string
	lastErr  error
	result   Result
}

func (r *run) loop(ctx context.Context) (Result, error) {
	state := StateExtracting
	r.emit(state, nil)
	for {
		var cause error
		switch state {
		case StateExtracting:
			state, cause = r.extract(ctx)
		case StateLayoutAttempt:
			state, cause = r.layout(ctx)
		}

		switch state {
		case StateSuccess:
			r.emit(state, nil)
			return r.result, nil
		case StateExhausted:
			err := &ExhaustedError{Attempts: r.attempt, Last: r.lastErr}
			r.emit(state, err)
			return Result{}, err
		case StateFailed:
			r.emit(state, cause)
			return Result{}, cause
		default:
			r.emit(state, cause)
		}
	}
}

func (r *run) emit(s State, err error) {
	attempt := r.attempt
	if s == StateLayoutAttempt {
		attempt++
	}
	r.log.Debug().Str("state", s.String()).Int("attempt", attempt).Err(err).Msg("generator transition")
	if r.o.opts.OnTransition != nil {
		r.o.opts.OnTransition(Event{
			State:       s,
			Attempt:     attempt,
			MaxAttempts: r.o.opts.MaxRetries,
			Terms:       len(r.terms),
			Err:         err,
		})
	}
}

// extract runs once. Any failure here is fatal.
func (r *run) extract(ctx context.Context) (State, error) {
	ctx, span := tracer.Start(ctx, "generator.extract")
	defer span.End()

	want := r.req.Count + r.o.opts.ExtraTerms
	raw, err := r.o.call(ctx, Call{
		Stage:      StageExtract,
		Prompt:     extractPrompt(r.req, want, r.o.opts.ContentLimit),
		Attachment: r.req.Attachment,
	})
	if err == nil {
		r.terms, err = parseTerms(raw)
	}
	if err == nil && len(r.terms) < r.req.Count {
		err = fmt.Errorf("only %d usable terms found, %d words requested", len(r.terms), r.req.Count)
	}
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrExtraction, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "extraction failed")
		r.log.Warn().Err(err).Msg("term extraction failed")
		return StateFailed, err
	}

	span.SetAttributes(attribute.Int("generator.terms", len(r.terms)))
	r.log.Info().Int("terms", len(r.terms)).Msg("terms extracted")
	return StateLayoutAttempt, nil
}

func (r *run) layout(ctx context.Context) (State, error) {
	r.attempt++
	actx, span := tracer.Start(ctx, "generator.layout_attempt", trace.WithAttributes(
		attribute.Int("generator.attempt", r.attempt),
		attribute.Bool("generator.has_feedback", r.feedback != ""),
	))
	res, err := r.tryLayout(actx)
	outcome := outcomeOf(err)
	attemptsTotal.WithLabelValues(outcome).Inc()
	span.SetAttributes(attribute.String("generator.outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	span.End()

	if err == nil {
		r.result = res
		r.log.Info().Int("attempt", r.attempt).Int("words", len(res.Questions)).Msg("crossword generated")
		return StateSuccess, nil
	}

	r.lastErr = err
	if cerr := ctx.Err(); cerr != nil {
		return StateFailed, cerr
	}
	r.log.Warn().Int("attempt", r.attempt).Str("outcome", outcome).Err(err).Msg("layout attempt failed")
	if r.attempt >= r.o.opts.MaxRetries {
		return StateExhausted, err
	}
	if serr := sleep(ctx, r.o.opts.Backoff); serr != nil {
		return StateFailed, serr
	}
	return StateLayoutAttempt, err
}

// tryLayout runs one layout attempt and records the feedback for the next.
func (r *run) tryLayout(ctx context.Context) (Result, error) {
	raw, err := r.o.call(ctx, Call{
		Stage:  StageLayout,
		Prompt: layoutPrompt(r.req, r.terms, r.feedback),
	})
	if err != nil {
		return Result{}, err
	}

	res, err := parseLayout(raw)
	if err != nil {
		if ve, ok := crossword.AsValidation(err); ok {
			r.feedback = ve.Error()
			return Result{}, ve
		}
		r.feedback = invalidJSONFeedback
		return Result{}, err
	}

	if err := crossword.Validate(res); err != nil {
		r.feedback = err.Error()
		return Result{}, err
	}

	if n := len(res.Questions); n < r.req.Count {
		cerr := &CountError{Got: n, Want: r.req.Count}
		r.feedback = cerr.Error()
		return Result{}, cerr
	}

	if len(res.Questions) > r.req.Count {
		res = res.Truncate(r.req.Count)
		if err := crossword.Validate(res); err != nil {
			r.feedback = fmt.Sprintf("%s (after keeping only the first %d words; list exactly %d words)", err.Error(), r.req.Count, r.req.Count)
			return Result{}, err
		}
	}
	return res, nil
}

// call races one model call against the attempt timeout. A reply that
// arrives after the timeout is dropped.
func (o *Orchestrator) call(ctx context.Context, c Call) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.opts.AttemptTimeout)
	defer cancel()

	type reply struct {
		text string
		err  error
	}
	done := make(chan reply, 1)
	start := time.Now()
	go func() {
		text, err := o.model.Generate(callCtx, c)
		done <- reply{text, err}
	}()

	timedOut := func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fmt.Errorf("%w after %s", ErrTimeout, o.opts.AttemptTimeout)
	}

	select {
	case rep := <-done:
		modelCallDuration.WithLabelValues(c.Stage.String()).Observe(time.Since(start).Seconds())
		if rep.err != nil {
			if callCtx.Err() != nil {
				return "", timedOut()
			}
			return "", rep.err
		}
		if strings.TrimSpace(rep.text) == "" {
			return "", fmt.Errorf("%w: empty response", ErrNoCandidate)
		}
		return rep.text, nil
	case <-callCtx.Done():
		return "", timedOut()
	}
}

func outcomeOf(err error) string {
	if err == nil {
		return "success"
	}
	if ve, ok := crossword.AsValidation(err); ok {
		return ve.Kind.String()
	}
	var ce *CountError
	switch {
	case errors.As(err, &ce):
		return "count"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrNoCandidate):
		return "no_candidate"
	case errors.Is(err, ErrInvalidJSON):
		return "invalid_json"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
