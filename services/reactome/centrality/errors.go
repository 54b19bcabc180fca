// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package centrality

import "errors"

var (
	// ErrNilGraph indicates an analyzer was created without a graph.
	ErrNilGraph = errors.New("graph must not be nil")

	// ErrGraphNotFrozen indicates the graph is still being built.
	ErrGraphNotFrozen = errors.New("graph must be frozen")

	// ErrGraphTooLarge indicates a dense measure was refused for size.
	ErrGraphTooLarge = errors.New("graph too large for dense measure")

	// ErrSingularMatrix indicates L + J could not be inverted.
	ErrSingularMatrix = errors.New("laplacian-derived matrix is singular")
)
