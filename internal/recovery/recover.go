// Package recovery provides panic recovery for user-provided callbacks.
// Ensures a misbehaving trace sink or logger cannot take a scan down.
package recovery

import (
	"log/slog"
	"runtime/debug"
)

// Recover wraps a void function with panic recovery.
// Logs the panic but doesn't return an error.
// Use for callbacks whose failure must not affect the caller.
func Recover(logger *slog.Logger, operation string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()

			logger.Error("Panic recovered in callback",
				"operation", operation,
				"panic", r,
				"stack", string(stack),
			)
		}
	}()

	fn()
}
