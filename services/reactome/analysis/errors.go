// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package analysis

import (
	"errors"
	"fmt"
)

var (
	// ErrNilGraph indicates New was called without a graph.
	ErrNilGraph = errors.New("graph must not be nil")

	// ErrNilContext indicates a nil context was passed.
	ErrNilContext = errors.New("context must not be nil")

	// ErrUnknownMeasure is the sentinel matched by UnknownMeasureError.
	ErrUnknownMeasure = errors.New("unknown measure")
)

// UnknownMeasureError reports a measure name outside the supported set.
// It is returned before any worker is started.
type UnknownMeasureError struct {
	// Family is "centrality" or "connectivity".
	Family string

	// Name is the rejected measure name.
	Name string

	// Supported lists the names accepted for Family.
	Supported []string
}

func (e *UnknownMeasureError) Error() string {
	return fmt.Sprintf("unknown %s measure %q (supported: %v)", e.Family, e.Name, e.Supported)
}

// Unwrap returns ErrUnknownMeasure.
func (e *UnknownMeasureError) Unwrap() error {
	return ErrUnknownMeasure
}
