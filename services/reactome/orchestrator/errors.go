// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package orchestrator

import (
	"errors"
	"fmt"
)

var (
	// ErrNilContext indicates a nil context was passed to Run.
	ErrNilContext = errors.New("context must not be nil")

	// ErrNilTask indicates a task entry without a function.
	ErrNilTask = errors.New("task must not be nil")

	// ErrWorkerPanic indicates a worker crashed.
	ErrWorkerPanic = errors.New("worker panicked")

	// ErrWorkerTimeout indicates a worker exceeded its deadline.
	ErrWorkerTimeout = errors.New("worker timed out")
)

// WorkerFailure reports why one named task failed.
type WorkerFailure struct {
	// Name is the task name.
	Name string

	// Err is the cause. Wraps ErrWorkerPanic or ErrWorkerTimeout for
	// crashes and deadline overruns.
	Err error

	// Stack is the goroutine stack captured on panic. Empty otherwise.
	Stack string
}

// Error implements the error interface.
func (f *WorkerFailure) Error() string {
	return fmt.Sprintf("worker %q failed: %v", f.Name, f.Err)
}

// Unwrap returns the underlying cause.
func (f *WorkerFailure) Unwrap() error {
	return f.Err
}
