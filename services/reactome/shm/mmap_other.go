// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

//go:build !unix

package shm

// heapRegion backs buffers with ordinary memory. Sealing is advisory only.
type heapRegion struct {
	data []float64
}

func mapRegion(n int) (region, error) {
	return &heapRegion{data: make([]float64, n)}, nil
}

func (r *heapRegion) floats() []float64 { return r.data }

func (r *heapRegion) protectReadOnly() error { return nil }

func (r *heapRegion) unmap() error {
	r.data = nil
	return nil
}
