package rewrite

import (
	"fmt"
	"io"
	"log/slog"
)

// ---------- Defaults ----------

const (
	// DefaultMaxDepth bounds live evaluation frames, counted across nested
	// evaluations started by built-ins and rule conditions.
	DefaultMaxDepth = 10000

	// DefaultMaxIterations bounds rewrite steps of one top-level evaluation.
	DefaultMaxIterations = 1 << 20

	// probeInterval is how many back edges pass between abort probes.
	probeInterval = 256
)

// Options holds the evaluation policy of a System.
type Options struct {
	MaxDepth      int
	MaxIterations int
	Logger        *slog.Logger
	// AbortProbe, when set, is polled at evaluator and matcher back edges;
	// returning true aborts the evaluation with ErrAborted.
	AbortProbe func() bool
	// FailedTerms turns structural and domain failures of built-ins into
	// in-band Failed[message, Hold[term]] results.
	FailedTerms bool
}

// Option configures a System.
type Option func(*Options)

func defaultOptions() Options {
	return Options{
		MaxDepth:      DefaultMaxDepth,
		MaxIterations: DefaultMaxIterations,
	}
}

func gatherOptions(opts []Option) Options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}

// WithMaxDepth sets the frame budget. It panics if n <= 0.
func WithMaxDepth(n int) Option {
	if n <= 0 {
		panic(fmt.Sprintf("rewrite: WithMaxDepth(%d): must be > 0", n))
	}
	return func(o *Options) { o.MaxDepth = n }
}

// WithMaxIterations sets the rewrite-step budget. It panics if n <= 0.
func WithMaxIterations(n int) Option {
	if n <= 0 {
		panic(fmt.Sprintf("rewrite: WithMaxIterations(%d): must be > 0", n))
	}
	return func(o *Options) { o.MaxIterations = n }
}

// WithLogger routes diagnostics to l.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithAbortProbe installs a cooperative cancellation predicate.
func WithAbortProbe(probe func() bool) Option {
	return func(o *Options) { o.AbortProbe = probe }
}

// WithFailedTerms enables in-band Failed results.
func WithFailedTerms(enabled bool) Option {
	return func(o *Options) { o.FailedTerms = enabled }
}
