package utils

import (
	"fmt"
	"log/slog"
	"runtime/debug"
)

// PanicError is a panic recovered from one task of a concurrent fan-out.
type PanicError struct {
	Task  int
	Value any
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task %d panicked: %v", e.Task, e.Value)
}

// RecoverTask must be deferred directly. It turns a panic in task into a
// *PanicError handed to onPanic, so one bad worker fails its own slot
// instead of the process.
func RecoverTask(task int, onPanic func(error)) {
	r := recover()
	if r == nil {
		return
	}
	err := &PanicError{Task: task, Value: r, Stack: string(debug.Stack())}
	slog.Default().Error("Recovered from panic", "task", task, "panic", r)
	if onPanic != nil {
		onPanic(err)
	}
}
