package reactive

import (
	"testing"
)

func TestContextDefault(t *testing.T) {
	rt := newTestRuntime()
	theme := NewContext(rt, "light")

	if got := theme.Use(); got != "light" {
		t.Errorf("expected default outside Provide, got %q", got)
	}
	if theme.Default() != "light" {
		t.Errorf("Default() = %q", theme.Default())
	}
}

func TestContextProvide(t *testing.T) {
	rt := newTestRuntime()
	theme := NewContext(rt, "light")

	var inside string
	theme.Provide("dark", func() {
		inside = theme.Use()
	})

	if inside != "dark" {
		t.Errorf("expected provided value inside, got %q", inside)
	}
	if got := theme.Use(); got != "light" {
		t.Errorf("expected default after Provide returned, got %q", got)
	}
}

func TestContextNestedOverride(t *testing.T) {
	rt := newTestRuntime()
	depth := NewContext(rt, 0)

	var outer, inner, after int
	depth.Provide(1, func() {
		outer = depth.Use()
		depth.Provide(2, func() {
			inner = depth.Use()
		})
		after = depth.Use()
	})

	if outer != 1 || inner != 2 || after != 1 {
		t.Errorf("got outer=%d inner=%d after=%d", outer, inner, after)
	}
}

func TestContextDistinctKeys(t *testing.T) {
	rt := newTestRuntime()
	a := NewContext(rt, "a")
	b := NewContext(rt, "b")

	a.Provide("A", func() {
		if a.Use() != "A" {
			t.Errorf("a.Use() = %q", a.Use())
		}
		if b.Use() != "b" {
			t.Errorf("override of one context leaked into another: %q", b.Use())
		}
	})
}

func TestContextCapturedByEffect(t *testing.T) {
	rt := newTestRuntime()
	theme := NewContext(rt, "light")
	x := NewSignal(rt, 0)

	var seen []string
	_, dispose := CreateRoot(rt, func(func()) any {
		theme.Provide("dark", func() {
			rt.CreateEffect(func() Cleanup {
				_ = x.Get()
				seen = append(seen, theme.Use())
				return nil
			})
		})
		return nil
	})
	defer dispose()

	// Provide has returned; the value must still resolve on re-runs
	// because the effect runs under its creation-time scope.
	x.Set(1)

	if len(seen) != 2 || seen[0] != "dark" || seen[1] != "dark" {
		t.Errorf("expected [dark dark], got %v", seen)
	}
}

func TestContextCapturedByMemo(t *testing.T) {
	rt := newTestRuntime()
	factor := NewContext(rt, 1)
	x := NewSignal(rt, 10)

	var scaled *Memo[int]
	factor.Provide(3, func() {
		scaled = NewMemo(rt, func() int {
			return x.Get() * factor.Use()
		})
	})

	if got := scaled.Get(); got != 30 {
		t.Errorf("expected 30, got %d", got)
	}
	x.Set(20)
	if got := scaled.Get(); got != 60 {
		t.Errorf("recomputation should resolve the creation-time value, got %d", got)
	}
}
