// Copyright 2026 The CurveFS Client Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package extent is the pure, stateless computation over a file inode's
// volume-extent list: planning allocations for a write, merging allocator
// results back into the list, dividing a byte range into physical extents
// for I/O, and marking ranges written after a successful device write.
//
// Every function here is a plain value transformation. None of them touch
// the network or the block device; that is the write/read pipeline's job
// (see package ops).
package extent

import (
	"fmt"

	cerrors "github.com/curvefs-client/cfsclient/internal/errors"
	"github.com/curvefs-client/cfsclient/internal/inode"
)

const (
	// MinAllocSize is the allocator grain: every allocation request is
	// rounded up to a multiple of this size.
	MinAllocSize uint64 = 4 * 1024
	// BigFileThreshold is the length, in bytes, at or above which a write
	// uses the BIG allocation category instead of SMALL.
	BigFileThreshold uint64 = 1 * 1024 * 1024
)

// Category picks the allocation category a write should request, per the
// write pipeline's rule: BIG if either the current inode length or the
// write size has crossed BigFileThreshold.
func Category(inodeLength, writeSize uint64) inode.AllocCategory {
	if inodeLength >= BigFileThreshold || writeSize >= BigFileThreshold {
		return inode.BIG
	}
	return inode.SMALL
}

func roundUp(n, grain uint64) uint64 {
	if grain == 0 {
		return n
	}
	return (n + grain - 1) / grain * grain
}

// GetToAllocExtents scans [off, off+size) against list and returns one
// AllocInfo per maximal sub-range not already covered. Lengths are rounded
// up to MinAllocSize. HintPrevPhysical is the physical end of the extent
// immediately preceding the gap when it abuts the gap's start, else 0.
func GetToAllocExtents(list []inode.VolumeExtent, off, size uint64) []inode.AllocInfo {
	if size == 0 {
		return nil
	}
	end := off + size

	var out []inode.AllocInfo
	cursor := off

	var lastLogicalEnd, lastPhysicalEnd uint64
	haveLast := false

	emitGapIfAny := func(gapEnd uint64) {
		if gapEnd <= cursor {
			return
		}
		hint := uint64(0)
		if haveLast && lastLogicalEnd == cursor {
			hint = lastPhysicalEnd
		}
		out = append(out, inode.AllocInfo{
			LogicalOffset:    cursor,
			HintPrevPhysical: hint,
			Length:           roundUp(gapEnd-cursor, MinAllocSize),
		})
	}

	for _, e := range list {
		if e.FsOffset >= end {
			break
		}
		if e.End() <= off {
			lastLogicalEnd, lastPhysicalEnd, haveLast = e.End(), e.VolumeOffset+e.Length, true
			continue
		}

		emitGapIfAny(e.FsOffset)
		if e.FsOffset > cursor {
			cursor = e.FsOffset
		}

		covEnd := min(e.End(), end)
		if covEnd > cursor {
			cursor = covEnd
		}
		lastLogicalEnd, lastPhysicalEnd, haveLast = e.End(), e.VolumeOffset+e.Length, true
	}

	emitGapIfAny(end)
	return out
}

// MergeAllocedExtents zips toAlloc with allocated, inserting
// (logicalOffset, allocated.offset, allocated.length, isWritten=false) into
// list for each pair. Returns the new list, leaving the original untouched.
// Fails with Internal ("Mismatch") if the counts or per-plan lengths
// disagree; the caller must then return allocated to the space allocator.
func MergeAllocedExtents(toAlloc []inode.AllocInfo, allocated []inode.Extent, list []inode.VolumeExtent) ([]inode.VolumeExtent, error) {
	if len(toAlloc) != len(allocated) {
		return nil, cerrors.Wrap("extent.MergeAllocedExtents", cerrors.Internal,
			fmt.Errorf("plan/allocation count mismatch: %d plans, %d allocations", len(toAlloc), len(allocated)))
	}

	out := make([]inode.VolumeExtent, len(list))
	copy(out, list)

	for i, plan := range toAlloc {
		alloc := allocated[i]
		if alloc.Length != plan.Length {
			return nil, cerrors.Wrap("extent.MergeAllocedExtents", cerrors.Internal,
				fmt.Errorf("length mismatch at plan %d: planned %d, allocated %d", i, plan.Length, alloc.Length))
		}
		out = insertSorted(out, inode.VolumeExtent{
			FsOffset:     plan.LogicalOffset,
			VolumeOffset: alloc.Offset,
			Length:       alloc.Length,
			IsWritten:    false,
		})
	}

	return coalesce(out), nil
}

// insertSorted inserts e into list, which must already be sorted ascending
// and disjoint from e, preserving that ordering.
func insertSorted(list []inode.VolumeExtent, e inode.VolumeExtent) []inode.VolumeExtent {
	i := 0
	for i < len(list) && list[i].FsOffset < e.FsOffset {
		i++
	}
	out := make([]inode.VolumeExtent, 0, len(list)+1)
	out = append(out, list[:i]...)
	out = append(out, e)
	out = append(out, list[i:]...)
	return out
}

// coalesce merges adjacent entries that share IsWritten and are contiguous
// on both the logical and physical axes. Coalescing is optional per the
// data-model invariant but keeps lists from growing without bound across
// many small writes.
func coalesce(list []inode.VolumeExtent) []inode.VolumeExtent {
	if len(list) == 0 {
		return list
	}
	out := make([]inode.VolumeExtent, 0, len(list))
	out = append(out, list[0])
	for _, e := range list[1:] {
		last := &out[len(out)-1]
		if last.IsWritten == e.IsWritten &&
			last.End() == e.FsOffset &&
			last.VolumeOffset+last.Length == e.VolumeOffset {
			last.Length += e.Length
			continue
		}
		out = append(out, e)
	}
	return out
}

// DivideExtents walks list against [off, off+size) and emits one PExtent per
// covered sub-range or hole, in logical order. The sum of emitted lengths
// always equals size.
func DivideExtents(list []inode.VolumeExtent, off, size uint64) []inode.PExtent {
	if size == 0 {
		return nil
	}
	end := off + size
	cursor := off
	var out []inode.PExtent

	for _, e := range list {
		if e.FsOffset >= end {
			break
		}
		if e.End() <= cursor {
			continue
		}
		if e.FsOffset > cursor {
			out = append(out, inode.PExtent{Length: e.FsOffset - cursor, UnWritten: true})
			cursor = e.FsOffset
		}

		covEnd := min(e.End(), end)
		segLen := covEnd - cursor
		pOff := e.VolumeOffset + (cursor - e.FsOffset)
		out = append(out, inode.PExtent{POffset: pOff, Length: segLen, UnWritten: !e.IsWritten})
		cursor = covEnd
	}

	if cursor < end {
		out = append(out, inode.PExtent{Length: end - cursor, UnWritten: true})
	}
	return out
}

// MarkExtentsWritten splits boundary entries as needed so [off, off+size)
// aligns exactly with entry boundaries, then sets IsWritten=true on every
// entry within that range. Returns the new list.
func MarkExtentsWritten(list []inode.VolumeExtent, off, size uint64) []inode.VolumeExtent {
	if size == 0 {
		return list
	}
	end := off + size
	out := make([]inode.VolumeExtent, 0, len(list)+2)

	for _, e := range list {
		if e.End() <= off || e.FsOffset >= end {
			out = append(out, e)
			continue
		}

		if e.FsOffset < off {
			out = append(out, inode.VolumeExtent{
				FsOffset: e.FsOffset, VolumeOffset: e.VolumeOffset,
				Length: off - e.FsOffset, IsWritten: e.IsWritten,
			})
		}

		coveredStart := max(e.FsOffset, off)
		coveredEnd := min(e.End(), end)
		out = append(out, inode.VolumeExtent{
			FsOffset:     coveredStart,
			VolumeOffset: e.VolumeOffset + (coveredStart - e.FsOffset),
			Length:       coveredEnd - coveredStart,
			IsWritten:    true,
		})

		if e.End() > end {
			out = append(out, inode.VolumeExtent{
				FsOffset:     end,
				VolumeOffset: e.VolumeOffset + (end - e.FsOffset),
				Length:       e.End() - end,
				IsWritten:    e.IsWritten,
			})
		}
	}

	return coalesce(out)
}

// CheckInvariants reports a non-nil error if list violates the disjoint,
// ascending, non-zero-length invariants required of every volume-extent
// list. Used by tests and by callers that want to assert after a mutation.
func CheckInvariants(list []inode.VolumeExtent) error {
	for i, e := range list {
		if e.Length == 0 {
			return cerrors.New("extent.CheckInvariants", cerrors.Internal)
		}
		if i > 0 && list[i-1].End() > e.FsOffset {
			return cerrors.New("extent.CheckInvariants", cerrors.Internal)
		}
	}
	return nil
}
