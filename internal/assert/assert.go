package assert

import (
	"fmt"
)

// That panics with the formatted message if cond does not hold. Use it for
// lifecycle violations only, never for conditions the host can trigger
// through unreliable event delivery.
//
// The arguments are boxed even if cond holds. On hot paths test the
// condition first and call Fail.
func That(cond bool, format string, args ...any) {
	if !cond {
		Fail(format, args...)
	}
}

// Fail panics with the formatted message.
func Fail(format string, args ...any) {
	panic(fmt.Sprintf(format, args...))
}

func Positive(value int, what string) {
	if value <= 0 {
		panic(fmt.Sprintf("expected positive %s, got %d", what, value))
	}
}
