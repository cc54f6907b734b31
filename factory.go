// Copyright 2025 The zuspec authors
// Licensed under the MIT license. See license text in the LICENSE file.

package trace

import (
	"io"
	"log/slog"

	"github.com/pkg/errors"
)

// An Option configures a Factory.
//
type Option func(*Factory)

// WithTimebase sets the output timebase. By default the model reports
// time in the trace's native timescale.
//
func WithTimebase(ts Timescale) Option {
	return func(f *Factory) { f.tb = ts }
}

// WithBindMode sets the binding mode. The default is BindPartial.
//
func WithBindMode(m BindMode) Option {
	return func(f *Factory) { f.mode = m }
}

// WithHistory enables bounded per-cell history: each bound cell retains
// its last depth samples. It panics if depth is negative.
//
func WithHistory(depth int) Option {
	if depth < 0 {
		panic(errors.Errorf("invalid history depth %d", depth))
	}
	return func(f *Factory) { f.hist = depth }
}

// WithLogger sets the logger used for construction and replay
// diagnostics. The default discards everything.
//
func WithLogger(l *slog.Logger) Option {
	return func(f *Factory) {
		if l != nil {
			f.log = l
		}
	}
}

// Factory builds replayable models from a schema and a trace source.
// It is an explicit value: two factories share no state, and nothing is
// registered globally. The zero-configured factory binds partially,
// keeps the trace's native timebase and retains no history.
//
type Factory struct {
	tb   Timescale
	mode BindMode
	hist int
	log  *slog.Logger
}

// NewFactory returns a factory configured by opts.
//
func NewFactory(opts ...Option) *Factory {
	f := &Factory{log: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Construct builds the model for schema from src and the scheduler that
// replays it, in that order: validate the timebase against the trace's
// native timescale, locate the target scope and bind, build the object
// graph, then attach the scheduler to the event sequence. The first
// failing step's error is returned and no partial model escapes.
//
// The returned scheduler owns the source; releasing the trace resource
// is its Close.
//
func (f *Factory) Construct(schema *Schema, src Source) (*Model, *Scheduler, error) {
	native := src.Timescale()
	out := f.tb
	if out.IsZero() {
		out = native
	}
	sc, err := newScaler(native, out)
	if err != nil {
		return nil, nil, err
	}
	binding, err := Bind(schema, src.Scope(), f.mode)
	if err != nil {
		return nil, nil, err
	}
	m := buildModel(binding, f.hist)
	events, err := src.Events()
	if err != nil {
		return nil, nil, errors.Wrap(err, "open event sequence")
	}
	f.log.Debug("model constructed",
		slog.String("extern", schema.Extern),
		slog.String("mode", f.mode.String()),
		slog.String("timebase", out.String()),
		slog.Int("cells", len(m.cells)),
		slog.Int("unbound", len(m.UnboundPaths())))
	return m, newScheduler(m, src, events, sc, f.log), nil
}

// Construct is shorthand for NewFactory(opts...).Construct(schema, src).
//
func Construct(schema *Schema, src Source, opts ...Option) (*Model, *Scheduler, error) {
	return NewFactory(opts...).Construct(schema, src)
}
