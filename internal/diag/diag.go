// Package diag is the registry of structured engine diagnostics. Each code
// carries a short message, a longer explanation, and a suggestion, so error
// output and inspector tooling describe failures consistently.
package diag

import (
	"fmt"
	"strings"
)

// Category classifies a diagnostic.
type Category string

const (
	CategoryGraph     Category = "graph"
	CategoryScheduler Category = "scheduler"
	CategoryLifecycle Category = "lifecycle"
)

// Code identifies a registered diagnostic.
type Code string

const (
	// CodeCycle: a derived value or reaction read itself during its own
	// computation.
	CodeCycle Code = "L001"

	// CodeDivergence: a flush exhausted its re-entrant pass bound.
	CodeDivergence Code = "L002"

	// CodeReaction: a reaction body panicked during a flush.
	CodeReaction Code = "L003"

	// CodeCleanup: a cleanup callback panicked during disposal.
	CodeCleanup Code = "L004"
)

// Template describes a registered diagnostic.
type Template struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
	DocURL     string
}

// registry maps codes to their templates.
var registry = map[Code]Template{
	CodeCycle: {
		Category:   CategoryGraph,
		Message:    "cyclic dependency",
		Detail:     "A derived value or reaction transitively read its own value while it was being computed.",
		Suggestion: "Break the cycle by reading the previous value with Peek or inside Untracked.",
		DocURL:     "https://lumen.dev/docs/errors/L001",
	},
	CodeDivergence: {
		Category:   CategoryScheduler,
		Message:    "flush failed to converge",
		Detail:     "Reactions kept writing cells that re-trigger other reactions, so propagation never settled.",
		Suggestion: "Look for a pair of effects that write each other's dependencies; guard one of the writes or move it out of the effect.",
		DocURL:     "https://lumen.dev/docs/errors/L002",
	},
	CodeReaction: {
		Category:   CategoryScheduler,
		Message:    "reaction failed",
		Detail:     "A reaction body panicked while the flush was running. Independent reactions in the same flush were not affected.",
		Suggestion: "Handle the failure inside the effect, or attach an OnError handler to the effect.",
		DocURL:     "https://lumen.dev/docs/errors/L003",
	},
	CodeCleanup: {
		Category:   CategoryLifecycle,
		Message:    "cleanup failed",
		Detail:     "A cleanup callback panicked during disposal. Sibling cleanups still ran.",
		Suggestion: "Cleanups should not fail; wrap fallible teardown in its own recover.",
		DocURL:     "https://lumen.dev/docs/errors/L004",
	},
}

// Lookup returns the template for a code, and whether it is registered.
func Lookup(code Code) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}

// Describe returns the canonical "[CODE] message" line for a code.
// Unregistered codes fall back to the code alone.
func Describe(code Code) string {
	t, ok := registry[code]
	if !ok {
		return fmt.Sprintf("[%s] unknown diagnostic", code)
	}
	return fmt.Sprintf("[%s] %s", code, t.Message)
}

// Explain renders the full multi-line diagnostic for a code: message,
// detail, suggestion, and documentation link.
func Explain(code Code) string {
	t, ok := registry[code]
	if !ok {
		return Describe(code)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s\n", code, t.Message)
	if t.Detail != "" {
		fmt.Fprintf(&b, "\n  %s\n", t.Detail)
	}
	if t.Suggestion != "" {
		fmt.Fprintf(&b, "\n  Suggestion: %s\n", t.Suggestion)
	}
	if t.DocURL != "" {
		fmt.Fprintf(&b, "\n  Docs: %s\n", t.DocURL)
	}
	return b.String()
}

// Codes returns all registered codes, for tooling that lists diagnostics.
func Codes() []Code {
	codes := make([]Code, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}
