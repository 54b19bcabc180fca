// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package shm

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocate_InvalidShape(t *testing.T) {
	tests := []struct {
		name       string
		rows, cols int
	}{
		{"zero rows", 0, 3},
		{"zero cols", 3, 0},
		{"negative", -1, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Allocate(tt.rows, tt.cols)
			assert.ErrorIs(t, err, ErrInvalidShape)
			assert.Nil(t, b)
		})
	}
}

func TestBuffer_ReadWrite(t *testing.T) {
	before := Live()
	b, err := Allocate(3, 4)
	require.NoError(t, err)
	assert.Equal(t, before+1, Live())

	rows, cols := b.Dims()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 4, cols)
	assert.Len(t, b.Data(), 12)

	for _, v := range b.Data() {
		assert.Zero(t, v, "fresh mapping is zeroed")
	}

	b.Set(1, 2, 7.5)
	assert.Equal(t, 7.5, b.At(1, 2))
	assert.Equal(t, 7.5, b.Row(1)[2])
	assert.Equal(t, 7.5, b.Data()[1*4+2])

	row := b.Row(2)
	row[0] = -1
	assert.Equal(t, -1.0, b.At(2, 0))
	assert.Len(t, row, 4)
	assert.Equal(t, 4, cap(row))

	d, err := b.Dense()
	require.NoError(t, err)
	assert.Equal(t, 7.5, d.At(1, 2))
	d.Set(0, 0, 3)
	assert.Equal(t, 3.0, b.At(0, 0), "dense view aliases the buffer")

	require.NoError(t, b.Release())
	assert.Equal(t, before, Live())
}

func TestBuffer_SealAndRelease(t *testing.T) {
	b, err := Allocate(2, 2)
	require.NoError(t, err)

	b.Set(0, 1, 4)
	require.NoError(t, b.Seal())
	assert.True(t, b.Sealed())
	require.NoError(t, b.Seal(), "seal is idempotent")
	assert.Equal(t, 4.0, b.At(0, 1), "sealed buffer stays readable")

	require.NoError(t, b.Release())
	require.NoError(t, b.Release(), "release is idempotent")

	assert.ErrorIs(t, b.Seal(), ErrReleased)
	_, err = b.Dense()
	assert.ErrorIs(t, err, ErrReleased)
	assert.Nil(t, b.Data())
}

func TestWith_ReleasesOnError(t *testing.T) {
	before := Live()
	boom := errors.New("boom")

	err := With(2, 2, func(b *Buffer) error {
		assert.Equal(t, before+1, Live())
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, before, Live())
}

func TestWith_ReleasesOnPanic(t *testing.T) {
	before := Live()

	assert.Panics(t, func() {
		_ = With(2, 2, func(b *Buffer) error {
			panic("worker crashed")
		})
	})
	assert.Equal(t, before, Live())
}

func TestBuffer_DisjointConcurrentWriters(t *testing.T) {
	const n = 64
	err := With(n, n, func(b *Buffer) error {
		var wg sync.WaitGroup
		for w := 0; w < 4; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				for i := w; i < n; i += 4 {
					row := b.Row(i)
					for j := range row {
						row[j] = float64(i*n + j)
					}
				}
			}(w)
		}
		wg.Wait()

		if err := b.Seal(); err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				if b.At(i, j) != float64(i*n+j) {
					t.Fatalf("cell (%d,%d) = %v", i, j, b.At(i, j))
				}
			}
		}
		return nil
	})
	require.NoError(t, err)
}
