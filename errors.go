package trace

import "fmt"

// FormatError reports a malformed or unsupported trace file. It is fatal
// at construction time.
//
type FormatError struct {
	File   string // file name, may be empty for non-file sources
	Line   int    // 1-based line in the input, 0 if unknown
	Reason string
}

func (e *FormatError) Error() string {
	switch {
	case e.File != "" && e.Line > 0:
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Reason)
	case e.Line > 0:
		return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
	case e.File != "":
		return fmt.Sprintf("%s: %s", e.File, e.Reason)
	}
	return e.Reason
}

// BindingError reports that the target scope could not be uniquely
// located, or, in strict mode, that a declared schema element has no
// match in the trace. It is fatal at construction time.
//
type BindingError struct {
	Path   string // schema path of the failing element, or the extern designation
	Reason string
}

func (e *BindingError) Error() string {
	if e.Path == "" {
		return "bind: " + e.Reason
	}
	return "bind " + e.Path + ": " + e.Reason
}

// AmbiguousBindingError reports multiple equally valid scope or signal
// matches for one schema element. It is fatal in both binding modes;
// ambiguity is never silently resolved.
//
type AmbiguousBindingError struct {
	Path    string // schema path of the ambiguous element
	Name    string // the trace-side name that matched more than once
	Matches int
}

func (e *AmbiguousBindingError) Error() string {
	return fmt.Sprintf("bind %s: %d candidates named %q", e.Path, e.Matches, e.Name)
}

// TimebaseError reports an output timebase that cannot be reconciled with
// the trace's native timescale, or a conversion whose result does not fit
// the time representation.
//
type TimebaseError struct {
	Native Timescale
	Output Timescale
	Reason string
}

func (e *TimebaseError) Error() string {
	return fmt.Sprintf("timebase %s (trace native %s): %s", e.Output, e.Native, e.Reason)
}

// SequenceError reports an event batch whose converted timestamp precedes
// the last applied time. The offending batch is discarded, the model
// remains at its last consistent state, and subsequent step calls resume
// after it.
//
type SequenceError struct {
	Applied Time // last successfully applied batch time
	Next    Time // converted time of the offending batch
}

func (e *SequenceError) Error() string {
	return fmt.Sprintf("event time %d precedes applied time %d", e.Next, e.Applied)
}

// ValueShapeError reports a decoded value wider than the declared width of
// the signal it is bound to. It indicates a decoder or binding defect and
// is fatal.
//
type ValueShapeError struct {
	Path     string // model path of the affected cell
	Declared int
	Got      int
}

func (e *ValueShapeError) Error() string {
	return fmt.Sprintf("%s: value width %d exceeds declared width %d", e.Path, e.Got, e.Declared)
}
