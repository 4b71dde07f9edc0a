package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func id(name string, params string) DerivedID { return DerivedID{Fn: name, Params: params} }

// squareFn reads source "x" and returns its square, counting invocations.
func squareFn(calls *int) Fn {
	return func(e *Engine) (interface{}, error) {
		*calls++
		v, _ := e.ReadSource("x")
		n := v.(int)
		return n * n, nil
	}
}

func TestMemoizedCallReusesWithoutReread(t *testing.T) {
	e := New()
	e.SetSource("x", 3)

	calls := 0
	fn := squareFn(&calls)
	v1, err := e.Call(id("square", ""), fn, true)
	require.NoError(t, err)
	assert.Equal(t, 9, v1)
	assert.Equal(t, 1, calls)

	// Same epoch, no source change: a second outer call within the same
	// epoch reuses immediately without invoking fn again.
	v2, err := e.Call(id("square", ""), fn, true)
	require.NoError(t, err)
	assert.Equal(t, 9, v2)
	assert.Equal(t, 1, calls, "second call in same epoch must not re-invoke fn")
}

func TestSetSourceIdenticalValueDoesNotBumpEpoch(t *testing.T) {
	e := New()
	e.SetSource("x", 3)
	epoch := e.CurrentEpoch()
	e.SetSource("x", 3)
	assert.Equal(t, epoch, e.CurrentEpoch(), "setting an identical value must not bump the epoch")
}

func TestRecomputeOnSourceChange(t *testing.T) {
	e := New()
	e.SetSource("x", 3)
	calls := 0
	fn := squareFn(&calls)

	_, _ = e.Call(id("square", ""), fn, true)
	assert.Equal(t, 1, calls)

	e.SetSource("x", 4)
	v, err := e.Call(id("square", ""), fn, true)
	require.NoError(t, err)
	assert.Equal(t, 16, v)
	assert.Equal(t, 2, calls, "changed dependency must trigger recomputation")
}

// TestBackdating verifies spec.md §4.2.3 / §8 property 4: if f depends on
// g, and g's new value equals its old value after recomputation, f itself
// must not be re-invoked on the next outer call.
func TestBackdating(t *testing.T) {
	e := New()
	e.SetSource("raw", 5)

	gCalls, fCalls := 0, 0
	gFn := func(e *Engine) (interface{}, error) {
		gCalls++
		v, _ := e.ReadSource("raw")
		n := v.(int)
		if n < 0 {
			n = -n
		}
		return n, nil // abs: -5 and 5 both produce 5
	}
	fFn := func(e *Engine) (interface{}, error) {
		fCalls++
		v, err := e.Call(id("g", ""), gFn, false)
		return v, err
	}

	v1, err := e.Call(id("f", ""), fFn, true)
	require.NoError(t, err)
	assert.Equal(t, 5, v1)
	assert.Equal(t, 1, gCalls)
	assert.Equal(t, 1, fCalls)

	fUpdatedBefore, _ := e.EpochUpdated(id("f", ""))

	// Change raw from 5 to -5: g is re-invoked (dependency changed) but
	// returns an equal value (abs(-5) == abs(5)), so g backdates and f
	// must not be re-invoked.
	e.SetSource("raw", -5)
	v2, err := e.Call(id("f", ""), fFn, true)
	require.NoError(t, err)
	assert.Equal(t, 5, v2)
	assert.Equal(t, 2, gCalls, "g must be re-invoked since its dependency changed")
	assert.Equal(t, 1, fCalls, "f must NOT be re-invoked: g's value did not change (backdated)")

	fUpdatedAfter, _ := e.EpochUpdated(id("f", ""))
	assert.Equal(t, fUpdatedBefore, fUpdatedAfter, "f's epoch_updated must not advance when its dependency backdates")
}

func TestDependencyCompletenessRereadRequired(t *testing.T) {
	e := New()
	e.SetSource("x", 1)
	calls := 0
	fn := squareFn(&calls)

	_, _ = e.Call(id("square", ""), fn, true)
	e.SetSource("x", 2)
	// Changing the source is not enough by itself: only a later outer
	// call that actually reads the dependency chain re-invokes fn.
	assert.Equal(t, 1, calls)
	_, _ = e.Call(id("square", ""), fn, true)
	assert.Equal(t, 2, calls)
}

func TestEpochMonotonicity(t *testing.T) {
	e := New()
	last := e.CurrentEpoch()
	for i := 0; i < 5; i++ {
		e.SetSource(fmt.Sprintf("k%d", i), i)
		next := e.CurrentEpoch()
		assert.GreaterOrEqual(t, next, last)
		last = next
	}
}

func TestFailingMemoizedFunctionIsCachedLikeAnyValue(t *testing.T) {
	e := New()
	e.SetSource("x", 1)
	calls := 0
	fn := func(e *Engine) (interface{}, error) {
		calls++
		return nil, fmt.Errorf("boom")
	}
	_, err1 := e.Call(id("failing", ""), fn, true)
	require.Error(t, err1)
	_, err2 := e.Call(id("failing", ""), fn, true)
	require.Error(t, err2)
	assert.Equal(t, 1, calls, "an unchanged dependency set must reuse a failed result too")
}

func TestEvictUnreachableForcesRecompute(t *testing.T) {
	e := New()
	e.SetSource("x", 1)
	calls := 0
	fn := squareFn(&calls)
	// Called as a non-root, so nothing keeps it reachable at eviction time.
	_, _ = e.Call(id("square", ""), fn, false)
	assert.Equal(t, 1, calls)

	e.EvictUnreachable()
	_, _ = e.Call(id("square", ""), fn, true)
	assert.Equal(t, 2, calls, "eviction must force recomputation on next use")
}

func TestDiamondDependencyMergeIdempotence(t *testing.T) {
	// a <- b, a <- c, d <- b, d <- c: reading d twice in the same epoch
	// must not re-invoke b or c a second time.
	e := New()
	e.SetSource("a", 2)
	bCalls, cCalls := 0, 0
	bFn := func(e *Engine) (interface{}, error) {
		bCalls++
		v, _ := e.ReadSource("a")
		return v.(int) + 1, nil
	}
	cFn := func(e *Engine) (interface{}, error) {
		cCalls++
		v, _ := e.ReadSource("a")
		return v.(int) * 10, nil
	}
	dFn := func(e *Engine) (interface{}, error) {
		b, _ := e.Call(id("b", ""), bFn, false)
		c, _ := e.Call(id("c", ""), cFn, false)
		return b.(int) + c.(int), nil
	}

	v, _ := e.Call(id("d", ""), dFn, true)
	assert.Equal(t, 23, v)
	v2, _ := e.Call(id("d", ""), dFn, true)
	assert.Equal(t, 23, v2)
	assert.Equal(t, 1, bCalls)
	assert.Equal(t, 1, cCalls)
}
