// Package reactivetest provides test helpers for code built on reactive
// runtimes: a silent runtime constructor, a recorder that captures every
// value an effect observes, and assertion helpers in the usual
// t.Helper() style.
package reactivetest
