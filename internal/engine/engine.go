// Package engine implements the demand-driven memoization graph described
// in spec.md §4.2: source nodes, derived nodes, epochs, and the algorithm
// deciding whether a memoized result can be reused, must be recomputed, or
// is already up to date.
//
// The engine is single-threaded cooperative (spec.md §5): one outer call
// runs at a time, and within that call sub-calls execute synchronously on
// the same goroutine. Callers that need concurrent requests (an LSP front
// end serving multiple buffers) must queue them onto one Engine, the way
// the teacher's reactive.rerunner serializes recomputation per Rerunner.
package engine

import (
	"fmt"
	"reflect"
)

// Epoch is a monotonically increasing, non-zero revision counter minted by
// the Engine.
type Epoch uint64

// SourceKey identifies a source node. Any comparable value works; the
// source registry package uses its own comparable struct keys, distinct
// per source class (file path, buffer path, config), so that those classes
// never collide.
type SourceKey interface{}

// DerivedID identifies a memoized invocation: a function identifier plus
// its parameter key. Two calls sharing a DerivedID denote the same
// memoized invocation and share a cache slot.
type DerivedID struct {
	Fn     string
	Params string
}

func (d DerivedID) String() string { return d.Fn + "(" + d.Params + ")" }

// target is either a SourceKey or a DerivedID, recorded by a dependency.
type target struct {
	source SourceKey
	derived DerivedID
	isDerived bool
}

func sourceTarget(k SourceKey) target  { return target{source: k} }
func derivedTarget(id DerivedID) target { return target{derived: id, isDerived: true} }

// dependency is one edge recorded while executing a memoized function.
type dependency struct {
	target target
	epoch  Epoch // epoch_verified_or_updated at the time this edge was recorded
}

type sourceNode struct {
	value          interface{}
	epochLastUpdated Epoch
}

type derivedNode struct {
	fn             Fn
	lastValue      interface{}
	epochVerified  Epoch
	epochUpdated   Epoch
	dependencies   []dependency
}

// Fn is a memoized function body. It receives only the Engine (so it can
// call ReadSource / Call recursively); parameters reach it through the
// closure, and the DerivedID's Params string is the cache key for them.
type Fn func(e *Engine) (interface{}, error)

// frame is one entry in the dependency stack: the derived call currently
// executing and the dependencies it has recorded so far, in read order.
type frame struct {
	owner     DerivedID
	collected []dependency
}

// Engine owns every source node, derived node, and the dependency stack
// for the call currently executing. It is not safe for concurrent use from
// multiple goroutines; callers serialize outer calls themselves (spec.md
// §5).
type Engine struct {
	currentEpoch Epoch
	sources      map[SourceKey]*sourceNode
	derived      map[DerivedID]*derivedNode
	stack        []frame
	topLevel     []DerivedID
}

// New creates an Engine with current_epoch starting at 1, per spec.md
// §4.2.1.
func New() *Engine {
	return &Engine{
		currentEpoch: 1,
		sources:      make(map[SourceKey]*sourceNode),
		derived:      make(map[DerivedID]*derivedNode),
	}
}

// CurrentEpoch returns the engine's current epoch. Exposed for tests
// asserting epoch monotonicity (spec.md §8 property 3).
func (e *Engine) CurrentEpoch() Epoch { return e.currentEpoch }

// SetSource stores value under key. If the key is absent, or its stored
// value differs (by reflect.DeepEqual, or by a custom Equal method when the
// value implements one) from the new value, the epoch is bumped and the
// source's epoch_last_updated is set to the new epoch. Setting an
// identical value is a no-op on the epoch, per spec.md §4.2.2.
func (e *Engine) SetSource(key SourceKey, value interface{}) {
	existing, ok := e.sources[key]
	if ok && valuesEqual(existing.value, value) {
		return
	}
	e.currentEpoch++
	if ok {
		existing.value = value
		existing.epochLastUpdated = e.currentEpoch
		return
	}
	e.sources[key] = &sourceNode{value: value, epochLastUpdated: e.currentEpoch}
}

// ReadSource returns the value stored at key, recording a dependency on it
// in the innermost stack frame (if any memoized call is currently
// executing). Reading a key that was never set returns (nil, false).
func (e *Engine) ReadSource(key SourceKey) (interface{}, bool) {
	n, ok := e.sources[key]
	if !ok {
		return nil, false
	}
	e.recordDependency(sourceTarget(key), n.epochLastUpdated)
	return n.value, true
}

func (e *Engine) recordDependency(t target, epoch Epoch) {
	if len(e.stack) == 0 {
		return
	}
	top := &e.stack[len(e.stack)-1]
	top.collected = append(top.collected, dependency{target: t, epoch: epoch})
}

// Call executes (or reuses) the memoized invocation identified by id,
// implementing the §4.2.3 core algorithm. outer indicates this is a
// top-level call registered for garbage collection roots (spec.md §4.2.5);
// nested calls made from within fn should pass outer=false.
func (e *Engine) Call(id DerivedID, fn Fn, outer bool) (interface{}, error) {
	if outer {
		e.topLevel = append(e.topLevel, id)
	}
	wrapped := e.ensureUpToDate(id, fn)
	e.registerInParent(id)
	return Unwrap(wrapped)
}

// ensureUpToDate runs steps 1-2 of §4.2.3 for id without registering id as
// a dependency of any enclosing frame: that registration belongs solely to
// the frame that is actually reading id's value (Call), not to the
// re-verification walk that anyDependencyChanged performs over id's own
// dependencies.
func (e *Engine) ensureUpToDate(id DerivedID, fn Fn) interface{} {
	n, exists := e.derived[id]
	if !exists {
		e.runFresh(id, fn)
		return e.derived[id].lastValue
	}

	if n.epochVerified == e.currentEpoch {
		return n.lastValue
	}

	if e.anyDependencyChanged(n) {
		e.recompute(id, n, fn)
	} else {
		n.epochVerified = e.currentEpoch
	}
	return n.lastValue
}

// runFresh executes fn for the first time for id, pushing/popping a stack
// frame to capture its dependencies.
func (e *Engine) runFresh(id DerivedID, fn Fn) interface{} {
	e.stack = append(e.stack, frame{owner: id})
	value, err := fn(e)
	f := e.stack[len(e.stack)-1]
	e.stack = e.stack[:len(e.stack)-1]

	epochUpdated := e.currentEpoch
	if len(f.collected) > 0 {
		epochUpdated = 0
		for _, d := range f.collected {
			if d.epoch > epochUpdated {
				epochUpdated = d.epoch
			}
		}
	}

	e.derived[id] = &derivedNode{
		fn:            fn,
		lastValue:     wrapResult(value, err),
		epochVerified: e.currentEpoch,
		epochUpdated:  epochUpdated,
		dependencies:  f.collected,
	}
	return wrapResult(value, err)
}

// anyDependencyChanged scans n's recorded dependencies (§4.2.3 step 2),
// recursively re-verifying derived dependencies as needed.
func (e *Engine) anyDependencyChanged(n *derivedNode) bool {
	for i := range n.dependencies {
		dep := n.dependencies[i]
		if dep.epoch == e.currentEpoch {
			continue
		}
		if !dep.target.isDerived {
			src, ok := e.sources[dep.target.source]
			if !ok || src.epochLastUpdated > dep.epoch {
				return true
			}
			continue
		}
		depNode, ok := e.derived[dep.target.derived]
		if !ok {
			return true
		}
		e.ensureUpToDate(dep.target.derived, depNode.fn)
		refreshed := e.derived[dep.target.derived]
		if refreshed.epochUpdated > dep.epoch {
			return true
		}
	}
	return false
}

// recompute re-invokes fn for id and applies the backdating rule from
// spec.md §4.2.3 step 2.
func (e *Engine) recompute(id DerivedID, n *derivedNode, fn Fn) {
	e.stack = append(e.stack, frame{owner: id})
	value, err := fn(e)
	f := e.stack[len(e.stack)-1]
	e.stack = e.stack[:len(e.stack)-1]

	newValue := wrapResult(value, err)
	n.dependencies = f.collected
	n.epochVerified = e.currentEpoch

	if valuesEqual(n.lastValue, newValue) {
		// Backdate: keep the old epoch_updated, the value did not change.
		n.lastValue = newValue
		return
	}
	n.lastValue = newValue
	n.epochUpdated = e.currentEpoch
}

func (e *Engine) registerInParent(id DerivedID) {
	if len(e.stack) == 0 {
		return
	}
	e.recordDependency(derivedTarget(id), e.currentEpoch)
}

// EpochUpdated returns the epoch_updated recorded for id, and whether id
// has ever been computed. Exposed for tests asserting backdating (spec.md
// §8 property 4, scenario S2/S3).
func (e *Engine) EpochUpdated(id DerivedID) (Epoch, bool) {
	n, ok := e.derived[id]
	if !ok {
		return 0, false
	}
	return n.epochUpdated, true
}

// EpochVerified mirrors EpochUpdated for epoch_verified.
func (e *Engine) EpochVerified(id DerivedID) (Epoch, bool) {
	n, ok := e.derived[id]
	if !ok {
		return 0, false
	}
	return n.epochVerified, true
}

// EvictUnreachable drops derived nodes not reachable from the registered
// top-level calls, per the LRU-ish policy sketched in spec.md §4.2.5.
// Eviction never changes results; it only forces recomputation on next
// use. Call this between outer calls, never from within one.
func (e *Engine) EvictUnreachable() {
	reachable := make(map[DerivedID]bool)
	var walk func(id DerivedID)
	walk = func(id DerivedID) {
		if reachable[id] {
			return
		}
		n, ok := e.derived[id]
		if !ok {
			return
		}
		reachable[id] = true
		for _, d := range n.dependencies {
			if d.target.isDerived {
				walk(d.target.derived)
			}
		}
	}
	for _, id := range e.topLevel {
		walk(id)
	}
	for id := range e.derived {
		if !reachable[id] {
			delete(e.derived, id)
		}
	}
	e.topLevel = nil
}

// result wraps a memoized function's (value, error) pair so that failure
// results are hashed, compared, and cached exactly like ordinary values
// (spec.md §4.2.4).
type result struct {
	value interface{}
	err   error
}

func wrapResult(value interface{}, err error) interface{} {
	return result{value: value, err: err}
}

// Unwrap extracts the (value, error) pair from what Call returned.
func Unwrap(wrapped interface{}) (interface{}, error) {
	r, ok := wrapped.(result)
	if !ok {
		return wrapped, nil
	}
	return r.value, r.err
}

// equaler lets a memoized value supply its own equality, e.g. a value
// containing function pointers or other reflect.DeepEqual-hostile fields.
// When absent, reflect.DeepEqual is used.
type equaler interface {
	Equal(other interface{}) bool
}

func valuesEqual(a, b interface{}) bool {
	if ra, ok := a.(result); ok {
		rb, ok := b.(result)
		if !ok {
			return false
		}
		if (ra.err == nil) != (rb.err == nil) {
			return false
		}
		if ra.err != nil {
			return ra.err.Error() == rb.err.Error()
		}
		return valuesEqual(ra.value, rb.value)
	}
	if eq, ok := a.(equaler); ok {
		return eq.Equal(b)
	}
	return reflect.DeepEqual(a, b)
}

// DerivedIDOf builds a DerivedID from a function name and a pre-serialized
// parameter key, the convention every memoized query in the packages above
// engine follows (mirrors how the teacher's reactive cache keys
// computations by an arbitrary comparable interface{} in
// reactive/rerunner.go).
func DerivedIDOf(fn string, paramsKey fmt.Stringer) DerivedID {
	return DerivedID{Fn: fn, Params: paramsKey.String()}
}
