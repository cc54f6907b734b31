// Copyright 2025 The zuspec authors
// Licensed under the MIT license. See license text in the LICENSE file.

package trace

import (
	"io"
	"log/slog"
)

// Scheduler drives replay: it pulls value change events from the trace,
// converts their native timestamps to the output timebase, and applies
// them to the model in non-decreasing time order.
//
// Events sharing one converted timestamp form a batch. A batch is applied
// atomically: every cell update completes before any observer callback
// fires, so observers never see the model mid-update for one instant of
// simulated time. Per cell, the callbacks fire once per batch, in
// subscription order; across cells, in batch arrival order.
//
// The scheduler is single threaded and cooperative. Callers drive it
// explicitly; no background goroutine advances time. Stepping from inside
// an observer callback panics.
//
type Scheduler struct {
	model  *Model
	src    Source
	events EventReader
	sc     scaler
	log    *slog.Logger

	cur      Time // current output time
	applied  Time // converted time of the last applied batch, -1 before any
	peek     *Event
	nextErr  error // deferred lookahead error, returned by the next pull
	eof      bool
	stepping bool
}

func newScheduler(m *Model, src Source, events EventReader, sc scaler, log *slog.Logger) *Scheduler {
	return &Scheduler{
		model:   m,
		src:     src,
		events:  events,
		sc:      sc,
		log:     log,
		applied: -1,
	}
}

// CurrentTime returns the scheduler's position in output time: the time
// of the last applied batch, or the last StepToTime target when that is
// later. It starts at 0.
//
func (s *Scheduler) CurrentTime() Time { return s.cur }

// AtEnd reports whether the event sequence is exhausted. A sequence
// ending in a decode error does not count as exhausted until a step has
// returned the error.
//
func (s *Scheduler) AtEnd() bool {
	if s.nextErr != nil {
		return false
	}
	if !s.eof && s.peek == nil {
		_ = s.pull()
	}
	return s.eof && s.peek == nil
}

// Close releases the underlying trace resource. The model stays readable
// at its last state; further stepping is undefined.
//
func (s *Scheduler) Close() error {
	if s.src == nil {
		return nil
	}
	return s.src.Close()
}

// StepEvent applies the next batch of same-timestamp events and returns
// the new current time. At the end of the trace it is a no-op returning
// the current time.
//
// A *SequenceError reports a batch whose converted time precedes the last
// applied time: the batch is discarded without touching the model, and
// the next step proceeds past it. A decoder error or *TimebaseError also
// leaves the model untouched; an event whose timestamp cannot be
// converted is dropped.
//
func (s *Scheduler) StepEvent() (Time, error) {
	s.enter()
	defer s.leave()
	_, err := s.stepBatch()
	return s.cur, err
}

// StepToTime applies every pending batch with converted time <= t, then
// sets the current time to exactly t, even when events remain beyond it.
// Stepping to the current time or earlier is a no-op returning the
// current time, so repeated calls with one target are idempotent. On
// error the current time stays at the last applied batch.
//
func (s *Scheduler) StepToTime(t Time) (Time, error) {
	s.enter()
	defer s.leave()
	for {
		bt, ok, err := s.nextTime()
		if err != nil {
			return s.cur, err
		}
		if !ok || bt > t {
			break
		}
		if _, err := s.stepBatch(); err != nil {
			return s.cur, err
		}
	}
	if t > s.cur {
		s.cur = t
	}
	return s.cur, nil
}

// RunToEnd drains the whole event sequence and returns the final time.
// It stops at the first error; calling it again resumes past a batch
// discarded by a *SequenceError.
//
func (s *Scheduler) RunToEnd() (Time, error) {
	s.enter()
	defer s.leave()
	for {
		advanced, err := s.stepBatch()
		if err != nil || !advanced {
			return s.cur, err
		}
	}
}

func (s *Scheduler) enter() {
	if s.stepping {
		panic("trace: reentrant scheduler step")
	}
	s.stepping = true
	s.model.stepping = true
}

func (s *Scheduler) leave() {
	s.stepping = false
	s.model.stepping = false
}

// pull fills the one-event lookahead buffer.
func (s *Scheduler) pull() error {
	if s.nextErr != nil {
		err := s.nextErr
		s.nextErr = nil
		return err
	}
	if s.peek != nil || s.eof {
		return nil
	}
	ev, err := s.events.Next()
	if err == io.EOF {
		s.eof = true
		return nil
	}
	if err != nil {
		return err
	}
	s.peek = &ev
	return nil
}

// nextTime returns the converted time of the next pending event without
// consuming it. ok is false at the end of the sequence. An event whose
// time cannot be converted is dropped.
func (s *Scheduler) nextTime() (Time, bool, error) {
	if err := s.pull(); err != nil {
		return 0, false, err
	}
	if s.peek == nil {
		return 0, false, nil
	}
	t, err := s.sc.convert(s.peek.Time)
	if err != nil {
		s.peek = nil
		return 0, false, err
	}
	return t, true, nil
}

// nextBatch consumes and returns the next group of events sharing one
// converted timestamp. A nil batch means the sequence is exhausted.
func (s *Scheduler) nextBatch() ([]Event, Time, error) {
	t, ok, err := s.nextTime()
	if err != nil || !ok {
		return nil, 0, err
	}
	var batch []Event
	for {
		batch = append(batch, *s.peek)
		s.peek = nil
		pt, ok, err := s.nextTime()
		if err != nil {
			// the assembled batch is still good; the error surfaces on
			// the next step
			s.nextErr = err
			break
		}
		if !ok || pt != t {
			break
		}
	}
	return batch, t, nil
}

// stepBatch applies the next batch. advanced is false at the end of the
// sequence.
func (s *Scheduler) stepBatch() (advanced bool, err error) {
	batch, t, err := s.nextBatch()
	if err != nil || batch == nil {
		return false, err
	}
	if s.applied >= 0 && t < s.applied {
		s.log.Warn("discarding out-of-order batch",
			slog.Int64("applied", int64(s.applied)),
			slog.Int64("batch", int64(t)),
			slog.Int("events", len(batch)))
		return false, &SequenceError{Applied: s.applied, Next: t}
	}

	// Reconcile every value against its declared width before touching
	// any cell, so a shape fault cannot split the batch.
	type update struct {
		cell *Cell
		val  Value
	}
	resolved := make([]update, 0, len(batch))
	for _, ev := range batch {
		for _, c := range s.model.byID[ev.ID] {
			v, err := c.reconcile(ev.Value)
			if err != nil {
				return false, err
			}
			resolved = append(resolved, update{c, v})
		}
	}

	touched := make([]*Cell, 0, len(resolved))
	old := make(map[*Cell]Value, len(resolved))
	for _, u := range resolved {
		if _, seen := old[u.cell]; !seen {
			old[u.cell] = u.cell.val
			touched = append(touched, u.cell)
		}
		u.cell.store(t, u.val)
	}

	s.applied = t
	if t > s.cur {
		s.cur = t
	}

	for _, c := range touched {
		c.record(Sample{Time: t, Value: c.val})
		if len(c.subs) == 0 {
			continue
		}
		ch := Change{Path: c.path, Time: t, Old: old[c], New: c.val}
		for _, sub := range c.subs {
			sub.fn(ch)
		}
	}
	return true, nil
}
