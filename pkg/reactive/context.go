package reactive

// Context is a scoped implicit value binding. A Provide call makes a value
// visible to every computation created within its dynamic extent; Use
// resolves the nearest enclosing override or falls back to the default.
//
// Overrides are resolved through the owner tree, and computations capture
// their creation-time owner, so an effect created inside Provide keeps
// seeing the provided value on every re-run, even after Provide returned.
//
// Example:
//
//	theme := reactive.NewContext(rt, "light")
//	theme.Provide("dark", func() {
//	    rt.CreateEffect(func() reactive.Cleanup {
//	        render(theme.Use()) // "dark", now and on every re-run
//	        return nil
//	    })
//	})
type Context[T any] struct {
	rt *Runtime

	// key is this context's identity in owner value maps. The wrapper
	// type keeps keys from distinct contexts distinct even for equal
	// defaults.
	key any

	defaultValue T
}

// contextKey makes each Context's lookup key unique.
type contextKey[T any] struct {
	ctx *Context[T]
}

// NewContext creates a context with the given default value.
func NewContext[T any](rt *Runtime, defaultValue T) *Context[T] {
	c := &Context[T]{
		rt:           rt,
		defaultValue: defaultValue,
	}
	c.key = contextKey[T]{ctx: c}
	return c
}

// Provide binds value for the duration of fn. The binding lives in a child
// owner scope, so primitives created inside fn are disposed with the
// enclosing scope and resolve this context to value for their whole
// lifetime. The previous owner is restored when fn returns.
func (c *Context[T]) Provide(value T, fn func()) {
	o := newOwner(c.rt, c.rt.owner)
	o.setValue(c.key, value)
	prev := c.rt.setOwner(o)
	defer c.rt.setOwner(prev)
	fn()
}

// Use returns the nearest enclosing override, or the default when no
// Provide is in scope. Resolution walks the current owner's ancestry.
func (c *Context[T]) Use() T {
	if o := c.rt.owner; o != nil {
		if v, ok := o.lookup(c.key); ok {
			if typed, ok := v.(T); ok {
				return typed
			}
		}
	}
	return c.defaultValue
}

// Default returns the context's default value.
func (c *Context[T]) Default() T {
	return c.defaultValue
}
