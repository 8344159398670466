// Package invariant provides contract assertions for ZekaEngine.
//
// Compile-time cryptographic preconditions (non-prime modulus, sampler
// exhaustion) are programming/authoring errors, not ordinary user errors,
// so they panic rather than returning an error up a call chain that was
// never designed to recover from them. A Lagrange mod_inv failure is the
// exception: lagrange.Interpolate returns it as an error, and the compiler
// aborts on it.
package invariant

import (
	"fmt"
	"runtime"
)

// Precondition panics with a PRECONDITION VIOLATION if condition is false.
func Precondition(condition bool, format string, args ...interface{}) {
	if !condition {
		fail("PRECONDITION", format, args...)
	}
}

// Invariant panics with an INVARIANT VIOLATION if condition is false.
//
// Use for internal consistency checks: unique-x precondition before
// Lagrange interpolation, linked-list termination, global point uniqueness.
func Invariant(condition bool, format string, args ...interface{}) {
	if !condition {
		fail("INVARIANT", format, args...)
	}
}

// ExpectNoError panics if err is not nil. Used for operations this module treats
// fatal: Cantor pairing while walking a DFA, packing a var_1 record.
func ExpectNoError(err error, msg string) {
	if err != nil {
		fail("FATAL", "%s must not fail: %v", msg, err)
	}
}

func fail(kind, format string, args ...interface{}) {
	pc := make([]uintptr, 10)
	n := runtime.Callers(3, pc)
	frames := runtime.CallersFrames(pc[:n])

	msg := fmt.Sprintf("%s VIOLATION: "+format, append([]interface{}{kind}, args...)...)
	if frame, ok := frames.Next(); ok {
		msg += fmt.Sprintf("\n  at %s:%d", frame.File, frame.Line)
	}
	panic(msg)
}
