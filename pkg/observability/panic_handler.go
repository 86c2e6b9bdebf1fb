package observability

import (
	"fmt"
	"runtime/debug"
)

// RecoverPanic recovers from a panic in a background goroutine and logs it
// with the stack trace. Must be called directly in a defer statement:
//
//	go func() {
//	    defer observability.RecoverPanic(logger, "theme watcher")
//	    ...
//	}()
//
// The panic is not re-raised.
func RecoverPanic(logger *Logger, where string) {
	if r := recover(); r != nil {
		logPanic(logger, where, r)
	}
}

func logPanic(logger *Logger, where string, r interface{}) {
	logger.WithFields(map[string]interface{}{
		"panic":   fmt.Sprint(r),
		"stack":   string(debug.Stack()),
		"context": where,
	}).Error("PANIC recovered")
}
