package infra

import (
	"fmt"
	"runtime"
	"strings"

	log "github.com/sirupsen/logrus"
)

// GoRecoverable runs f and restarts it on a fresh goroutine after a
// panic. restarts is the restart budget: negative means restart
// forever, zero makes the first panic fatal.
func GoRecoverable(restarts int, name string, f func()) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		entry := log.WithFields(log.Fields{"job": name, "origin": panicOrigin()})
		if restarts == 0 {
			entry.Fatalf("panic: %v, restart budget exhausted", r)
		}
		if restarts > 0 {
			restarts--
		}
		entry.Errorf("panic: %v, restarting", r)
		go GoRecoverable(restarts, name, f)
	}()
	f()
}

// panicOrigin walks the stack past the runtime frames to the frame
// that actually panicked.
func panicOrigin() string {
	pc := make([]uintptr, 16)
	n := runtime.Callers(3, pc)
	frames := runtime.CallersFrames(pc[:n])
	for {
		frame, more := frames.Next()
		if frame.Function != "" && !strings.HasPrefix(frame.Function, "runtime.") {
			return fmt.Sprintf("%s:%d", frame.Function, frame.Line)
		}
		if !more {
			return "unknown"
		}
	}
}
