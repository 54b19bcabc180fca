// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

//go:build unix

package shm

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

const float64Size = int(unsafe.Sizeof(float64(0)))

// mmapRegion is an anonymous MAP_SHARED mapping.
type mmapRegion struct {
	mem []byte
}

func mapRegion(n int) (region, error) {
	mem, err := unix.Mmap(-1, 0, n*float64Size,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_ANON)
	if err != nil {
		return nil, err
	}
	return &mmapRegion{mem: mem}, nil
}

func (r *mmapRegion) floats() []float64 {
	// mmap returns page-aligned memory, so the float64 view is aligned.
	return unsafe.Slice((*float64)(unsafe.Pointer(&r.mem[0])), len(r.mem)/float64Size)
}

func (r *mmapRegion) protectReadOnly() error {
	return unix.Mprotect(r.mem, unix.PROT_READ)
}

func (r *mmapRegion) unmap() error {
	mem := r.mem
	r.mem = nil
	return unix.Munmap(mem)
}
