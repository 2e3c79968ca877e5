// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

// IDAllocator hands out chat message ids for one client process,
// starting at 1 and never repeating. It is owned by the State it is
// injected into and is not safe for concurrent use.
type IDAllocator struct {
	last uint64
}

// NewIDAllocator returns an allocator whose first id is 1.
func NewIDAllocator() *IDAllocator {
	return &IDAllocator{}
}

// Next returns the next id.
func (allocator *IDAllocator) Next() uint64 {
	allocator.last++
	return allocator.last
}
