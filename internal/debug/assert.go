package debug

import (
	"fmt"
	"runtime"
)

// Assert panics when truth is false. It guards invariants whose violation means
// a bug in this module, never bad input: malformed input always surfaces as an
// error return.
func Assert(truth bool, msg ...string) {
	if len(msg) > 1 {
		panic("invalid assert args")
	}
	if !truth {
		fail(fmt.Sprintf("assertion failed(%s)", msg))
	}
}

func fail(msg string) {
	// the caller of Assert is two frames up
	if _, file, line, ok := runtime.Caller(2); ok {
		msg = fmt.Sprintf("%s:%d: %s", file, line, msg)
	}
	panic(msg)
}
