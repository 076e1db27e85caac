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

package extent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curvefs-client/cfsclient/internal/inode"
)

func sumPExtentLengths(pexts []inode.PExtent) uint64 {
	var total uint64
	for _, p := range pexts {
		total += p.Length
	}
	return total
}

func TestGetToAllocExtentsOnEmptyList(t *testing.T) {
	plan := GetToAllocExtents(nil, 0, 10)
	require.Len(t, plan, 1)
	assert.Equal(t, uint64(0), plan[0].LogicalOffset)
	assert.Equal(t, uint64(0), plan[0].HintPrevPhysical)
	assert.Equal(t, MinAllocSize, plan[0].Length)
}

func TestGetToAllocExtentsFullyCovered(t *testing.T) {
	list := []inode.VolumeExtent{
		{FsOffset: 0, VolumeOffset: 1000, Length: 100, IsWritten: true},
	}
	plan := GetToAllocExtents(list, 0, 100)
	assert.Empty(t, plan)
}

func TestGetToAllocExtentsHintPrevPhysicalOnlyWhenAbutting(t *testing.T) {
	list := []inode.VolumeExtent{
		{FsOffset: 0, VolumeOffset: 2000, Length: 100, IsWritten: true},
	}
	// Gap starts exactly where the previous extent ends: hint should be set.
	plan := GetToAllocExtents(list, 100, 50)
	require.Len(t, plan, 1)
	assert.Equal(t, uint64(2100), plan[0].HintPrevPhysical)

	// Gap starts after a break in the logical range: no hint.
	plan2 := GetToAllocExtents(list, 200, 50)
	require.Len(t, plan2, 1)
	assert.Equal(t, uint64(0), plan2[0].HintPrevPhysical)
}

func TestGetToAllocExtentsPartialOverlap(t *testing.T) {
	list := []inode.VolumeExtent{
		{FsOffset: 100, VolumeOffset: 5000, Length: 100, IsWritten: true},
	}
	// Window straddles the existing extent on both sides.
	plan := GetToAllocExtents(list, 0, 300)
	require.Len(t, plan, 2)
	assert.Equal(t, uint64(0), plan[0].LogicalOffset)
	assert.Equal(t, uint64(200), plan[1].LogicalOffset)
}

func TestMergeAllocedExtentsMismatchedCounts(t *testing.T) {
	plan := []inode.AllocInfo{{LogicalOffset: 0, Length: MinAllocSize}}
	_, err := MergeAllocedExtents(plan, nil, nil)
	require.Error(t, err)
}

func TestMergeAllocedExtentsMismatchedLength(t *testing.T) {
	plan := []inode.AllocInfo{{LogicalOffset: 0, Length: MinAllocSize}}
	allocated := []inode.Extent{{Offset: 9000, Length: MinAllocSize * 2}}
	_, err := MergeAllocedExtents(plan, allocated, nil)
	require.Error(t, err)
}

func TestMergeAllocedExtentsDoesNotMutateInput(t *testing.T) {
	original := []inode.VolumeExtent{
		{FsOffset: 0, VolumeOffset: 1000, Length: MinAllocSize, IsWritten: true},
	}
	plan := []inode.AllocInfo{{LogicalOffset: MinAllocSize, Length: MinAllocSize}}
	allocated := []inode.Extent{{Offset: 2000, Length: MinAllocSize}}

	merged, err := MergeAllocedExtents(plan, allocated, original)
	require.NoError(t, err)
	require.Len(t, original, 1, "input list must be left untouched")
	assert.NoError(t, CheckInvariants(merged))
}

func TestMergeAllocedExtentsCoalescesContiguousPhysical(t *testing.T) {
	original := []inode.VolumeExtent{
		{FsOffset: 0, VolumeOffset: 1000, Length: MinAllocSize, IsWritten: false},
	}
	plan := []inode.AllocInfo{{LogicalOffset: MinAllocSize, Length: MinAllocSize}}
	// Physically contiguous with the existing extent and logically adjacent.
	allocated := []inode.Extent{{Offset: 1000 + MinAllocSize, Length: MinAllocSize}}

	merged, err := MergeAllocedExtents(plan, allocated, original)
	require.NoError(t, err)
	require.Len(t, merged, 1)
	assert.Equal(t, MinAllocSize*2, merged[0].Length)
}

func TestDivideExtentsSumsToRequestedSize(t *testing.T) {
	list := []inode.VolumeExtent{
		{FsOffset: 0, VolumeOffset: 1000, Length: 50, IsWritten: true},
		{FsOffset: 100, VolumeOffset: 5000, Length: 50, IsWritten: false},
	}
	pexts := DivideExtents(list, 0, 200)
	assert.Equal(t, uint64(200), sumPExtentLengths(pexts))
}

func TestDivideExtentsUnwrittenRangesAreHoles(t *testing.T) {
	pexts := DivideExtents(nil, 0, 100)
	require.Len(t, pexts, 1)
	assert.True(t, pexts[0].UnWritten)
	assert.Equal(t, uint64(100), pexts[0].Length)
}

func TestDivideExtentsMarksDeviceHolesFromIsWritten(t *testing.T) {
	list := []inode.VolumeExtent{
		{FsOffset: 0, VolumeOffset: 1000, Length: 100, IsWritten: false},
	}
	pexts := DivideExtents(list, 0, 100)
	require.Len(t, pexts, 1)
	assert.True(t, pexts[0].UnWritten, "allocated-but-unwritten ranges still read as zero")
	assert.Equal(t, uint64(1000), pexts[0].POffset)
}

func TestMarkExtentsWrittenSplitsBoundaries(t *testing.T) {
	list := []inode.VolumeExtent{
		{FsOffset: 0, VolumeOffset: 1000, Length: 300, IsWritten: false},
	}
	marked := MarkExtentsWritten(list, 100, 100)
	require.NoError(t, CheckInvariants(marked))

	pexts := DivideExtents(marked, 0, 300)
	require.Len(t, pexts, 3)
	assert.True(t, pexts[0].UnWritten)
	assert.Equal(t, uint64(100), pexts[0].Length)
	assert.False(t, pexts[1].UnWritten)
	assert.Equal(t, uint64(100), pexts[1].Length)
	assert.True(t, pexts[2].UnWritten)
}

func TestMarkExtentsWrittenFullRangeThenRereadIsNotAHole(t *testing.T) {
	list := []inode.VolumeExtent{
		{FsOffset: 0, VolumeOffset: 1000, Length: 100, IsWritten: false},
	}
	marked := MarkExtentsWritten(list, 0, 100)
	pexts := DivideExtents(marked, 0, 100)
	require.Len(t, pexts, 1)
	assert.False(t, pexts[0].UnWritten)
}

func TestCheckInvariantsCatchesOverlap(t *testing.T) {
	list := []inode.VolumeExtent{
		{FsOffset: 0, VolumeOffset: 1000, Length: 100, IsWritten: true},
		{FsOffset: 50, VolumeOffset: 2000, Length: 100, IsWritten: true},
	}
	assert.Error(t, CheckInvariants(list))
}

func TestCheckInvariantsCatchesZeroLength(t *testing.T) {
	list := []inode.VolumeExtent{{FsOffset: 0, VolumeOffset: 1000, Length: 0, IsWritten: true}}
	assert.Error(t, CheckInvariants(list))
}

func TestCategoryThreshold(t *testing.T) {
	assert.Equal(t, inode.SMALL, Category(0, 100))
	assert.Equal(t, inode.BIG, Category(BigFileThreshold, 100))
	assert.Equal(t, inode.BIG, Category(0, BigFileThreshold))
}
