// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package shm provides shared numeric buffers with an explicit lifecycle.
//
// # Description
//
// A Buffer is a rows x cols float64 matrix backed by an anonymous shared
// memory mapping on unix and by the heap elsewhere. Buffers follow a
// single-writer-then-multi-reader protocol:
//
//	allocate -> write (workers, disjoint rows) -> barrier -> Seal -> read -> Release
//
// Seal flips the mapping to read-only, so a late write after the barrier
// faults instead of silently corrupting readers.
//
// # Thread Safety
//
// Concurrent writers must touch disjoint cells. Lifecycle methods (Seal,
// Release) are safe to call from any goroutine and are idempotent.
package shm

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrInvalidShape indicates a non-positive buffer dimension.
	ErrInvalidShape = errors.New("invalid buffer shape")

	// ErrReleased indicates use of a buffer after Release.
	ErrReleased = errors.New("buffer released")
)

// live counts buffers that have been allocated and not yet released.
var live atomic.Int64

// Live returns the number of buffers currently allocated.
func Live() int64 { return live.Load() }

// Buffer is a dense row-major float64 matrix in shared memory.
type Buffer struct {
	rows, cols int

	mu       sync.Mutex
	region   region
	data     []float64
	sealed   bool
	released bool
}

// region abstracts the backing memory so the platform files only provide
// map, protect and unmap.
type region interface {
	floats() []float64
	protectReadOnly() error
	unmap() error
}

// Allocate maps a zeroed rows x cols buffer.
//
// Inputs:
//
//	rows, cols - Buffer shape. Both must be positive.
//
// Outputs:
//
//	*Buffer - The buffer. Caller must call Release.
//	error - ErrInvalidShape or a mapping failure.
func Allocate(rows, cols int) (*Buffer, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidShape, rows, cols)
	}
	r, err := mapRegion(rows * cols)
	if err != nil {
		return nil, fmt.Errorf("map %dx%d buffer: %w", rows, cols, err)
	}
	live.Add(1)
	return &Buffer{rows: rows, cols: cols, region: r, data: r.floats()}, nil
}

// With allocates a buffer, runs fn, and releases the buffer on every exit
// path including a panic in fn.
func With(rows, cols int, fn func(*Buffer) error) error {
	b, err := Allocate(rows, cols)
	if err != nil {
		return err
	}
	defer b.Release()
	return fn(b)
}

// Dims returns the buffer shape.
func (b *Buffer) Dims() (rows, cols int) { return b.rows, b.cols }

// Data returns the raw row-major backing slice.
//
// The slice is valid until Release. Writes after Seal fault on unix.
func (b *Buffer) Data() []float64 { return b.data }

// At returns cell (i, j).
func (b *Buffer) At(i, j int) float64 { return b.data[i*b.cols+j] }

// Set writes cell (i, j).
func (b *Buffer) Set(i, j int, v float64) { b.data[i*b.cols+j] = v }

// Row returns row i as a slice sharing the backing memory.
func (b *Buffer) Row(i int) []float64 {
	return b.data[i*b.cols : (i+1)*b.cols : (i+1)*b.cols]
}

// Dense returns a gonum view over the buffer without copying.
//
// The view aliases the shared memory; it must not outlive Release.
func (b *Buffer) Dense() (*mat.Dense, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return nil, ErrReleased
	}
	return mat.NewDense(b.rows, b.cols, b.data), nil
}

// Seal marks the end of the writing phase. Subsequent writes fault on
// platforms that support page protection.
func (b *Buffer) Seal() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return ErrReleased
	}
	if b.sealed {
		return nil
	}
	if err := b.region.protectReadOnly(); err != nil {
		return fmt.Errorf("seal buffer: %w", err)
	}
	b.sealed = true
	return nil
}

// Sealed reports whether Seal has completed.
func (b *Buffer) Sealed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sealed
}

// Release unmaps the buffer. Safe to call multiple times.
func (b *Buffer) Release() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return nil
	}
	b.released = true
	b.data = nil
	live.Add(-1)
	if err := b.region.unmap(); err != nil {
		return fmt.Errorf("release buffer: %w", err)
	}
	return nil
}
