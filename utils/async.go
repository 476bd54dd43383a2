package utils

import (
	"fmt"
	"log/slog"
	"runtime/debug"
)

// SafeGo launches fn in a goroutine with panic recovery. A panicking
// background task is logged with its stack instead of crashing the process.
func SafeGo(name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("goroutine panicked",
					"goroutine", name,
					"panic", fmt.Sprintf("%v", r),
					"stack", string(debug.Stack()),
				)
			}
		}()
		fn()
	}()
}
