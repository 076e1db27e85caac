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

// Package inode holds the data model shared by every component of the
// client: inodes, dentries, volume extents and the derived physical
// extents that the I/O pipeline walks. None of the types here perform I/O;
// they are plain value types manipulated by the caches and the extent
// manager.
package inode

// Type distinguishes a FILE inode, which carries a volume-extent list, from
// a DIRECTORY inode, which does not.
type Type int

const (
	FILE Type = iota
	DIRECTORY
)

func (t Type) String() string {
	if t == DIRECTORY {
		return "directory"
	}
	return "file"
}

// VolumeExtent is one entry of a file inode's logical-to-physical map.
//
// INVARIANT: Length > 0
// INVARIANT: FsOffset and VolumeOffset are aligned to the allocator grain.
type VolumeExtent struct {
	FsOffset     uint64
	VolumeOffset uint64
	Length       uint64
	IsWritten    bool
}

// End returns the exclusive logical end of the extent.
func (e VolumeExtent) End() uint64 { return e.FsOffset + e.Length }

// PExtent is a physical extent derived from dividing a byte range against a
// volume-extent list. It is never stored; it exists only as the I/O
// pipeline's unit of work.
type PExtent struct {
	POffset   uint64
	Length    uint64
	UnWritten bool
}

// AllocInfo describes one gap in a volume-extent list that needs a physical
// allocation, along with a contiguity hint for the allocator.
type AllocInfo struct {
	LogicalOffset    uint64
	HintPrevPhysical uint64
	Length           uint64
}

// Extent is an allocator-returned physical range, zipped against the
// AllocInfo slice that requested it by MergeAllocedExtents.
type Extent struct {
	Offset uint64
	Length uint64
}

// AllocCategory selects the allocator's sizing class for a request.
type AllocCategory int

const (
	SMALL AllocCategory = iota
	BIG
)

// Inode is the metadata record for a file or directory.
//
// INVARIANT: Length >= 0
// INVARIANT: for FILE inodes, Extents is disjoint and sorted ascending by
// FsOffset.
type Inode struct {
	ID     uint64
	Fsid   uint32
	Mode   uint32
	Uid    uint32
	Gid    uint32
	Nlink  uint32
	Length uint64
	Atime  int64 // milliseconds since epoch
	Mtime  int64
	Ctime  int64
	Type   Type

	// Extents is only meaningful for Type == FILE. Directories carry a nil
	// slice.
	Extents []VolumeExtent
}

// Clone returns a deep copy safe to mutate without affecting the original,
// used by the inode cache to hand out or store independent snapshots.
func (i Inode) Clone() Inode {
	out := i
	if i.Extents != nil {
		out.Extents = make([]VolumeExtent, len(i.Extents))
		copy(out.Extents, i.Extents)
	}
	return out
}

// InodeParam carries the attributes needed to create a new inode remotely.
type InodeParam struct {
	Fsid uint32
	Mode uint32
	Uid  uint32
	Gid  uint32
	Type Type
}

// Dentry is a directed edge (Fsid, Parent, Name) -> ChildInodeID.
//
// INVARIANT: Name is non-empty.
type Dentry struct {
	Fsid    uint32
	Parent  uint64
	Name    string
	InodeID uint64
}
