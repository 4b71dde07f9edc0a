// Package diagnostics carries the user-visible error/warning shape
// described in spec.md §6-7: every memoized function that can fail returns
// a result-shaped value wrapping either a payload or a list of
// Diagnostics, rather than aborting the whole compilation.
//
// Adapted from the teacher's graphql/errors.go SafeError/SanitizedError
// split: a Diagnostic always carries a safe, user-facing message, and
// optionally a precise source Location plus secondary locations.
package diagnostics

import "fmt"

// Severity distinguishes diagnostics that fail a compilation (Error) from
// ones that are merely surfaced (Warning), per the on_invalid_id_type
// option (spec.md §6).
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Location pinpoints a diagnostic within a source file: a relative path
// plus a byte span [Start, End).
type Location struct {
	RelativePath string
	Start        int
	End          int
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d-%d", l.RelativePath, l.Start, l.End)
}

// Diagnostic is the single user-visible error/warning shape spec.md §6
// requires: a message, an optional primary location, and optional
// secondary locations (e.g. the first definition in a duplicate-name
// diagnostic).
type Diagnostic struct {
	Message    string
	Severity   Severity
	Location   *Location
	Secondary  []Location
}

func (d Diagnostic) Error() string {
	if d.Location != nil {
		return fmt.Sprintf("%s: %s", d.Location, d.Message)
	}
	return d.Message
}

// New creates an error-severity Diagnostic with no location.
func New(format string, args ...interface{}) Diagnostic {
	return Diagnostic{Message: fmt.Sprintf(format, args...), Severity: SeverityError}
}

// At creates an error-severity Diagnostic located at loc.
func At(loc Location, format string, args ...interface{}) Diagnostic {
	l := loc
	return Diagnostic{Message: fmt.Sprintf(format, args...), Severity: SeverityError, Location: &l}
}

// Warnf creates a warning-severity Diagnostic located at loc.
func Warnf(loc Location, format string, args ...interface{}) Diagnostic {
	l := loc
	return Diagnostic{Message: fmt.Sprintf(format, args...), Severity: SeverityWarning, Location: &l}
}

// WithSecondary attaches secondary locations (e.g. "first defined here") to
// a Diagnostic and returns the modified copy.
func (d Diagnostic) WithSecondary(locs ...Location) Diagnostic {
	d.Secondary = append(append([]Location{}, d.Secondary...), locs...)
	return d
}

// List accumulates Diagnostics produced by a single memoized function, per
// spec.md §4.7 ("errors are collected, not thrown").
type List struct {
	items []Diagnostic
}

// Add appends one diagnostic.
func (l *List) Add(d Diagnostic) { l.items = append(l.items, d) }

// Addf is a convenience wrapper around Add(New(...)).
func (l *List) Addf(format string, args ...interface{}) { l.Add(New(format, args...)) }

// Items returns the accumulated diagnostics, in the order they were added.
func (l *List) Items() []Diagnostic { return l.items }

// HasErrors reports whether any accumulated diagnostic is of severity
// Error, which is what decides the CLI's non-zero exit per spec.md §7.
func (l *List) HasErrors() bool {
	for _, d := range l.items {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Extend appends every diagnostic from other into l.
func (l *List) Extend(other List) { l.items = append(l.items, other.items...) }

// Equal implements the engine's optional value-equality interface so that
// backdating treats two structurally-equal diagnostic lists as unchanged
// even if built by a fresh slice allocation.
func (l List) Equal(other interface{}) bool {
	o, ok := other.(List)
	if !ok {
		return false
	}
	if len(l.items) != len(o.items) {
		return false
	}
	for i := range l.items {
		a, b := l.items[i], o.items[i]
		if a.Message != b.Message || a.Severity != b.Severity {
			return false
		}
		if (a.Location == nil) != (b.Location == nil) {
			return false
		}
		if a.Location != nil && *a.Location != *b.Location {
			return false
		}
	}
	return true
}
