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

package ops

import (
	"context"

	cerrors "github.com/curvefs-client/cfsclient/internal/errors"
	"github.com/curvefs-client/cfsclient/internal/extent"
	"github.com/curvefs-client/cfsclient/internal/logger"
	"github.com/curvefs-client/cfsclient/internal/metrics"
	"github.com/curvefs-client/cfsclient/internal/trace"
)

// Write implements the write pipeline: allocate whatever logical ranges in
// [off, off+len(buf)) are not yet backed by a volume extent, merge the
// allocation into the inode's extent map, divide the write window into
// physical segments and stream buf to the block device in order, then mark
// the window written and push the (possibly extended) inode back through
// the metadata service. The whole sequence runs under the inode's per-inode
// lock, so concurrent writers to the same inode serialize while writers to
// distinct inodes do not.
func (h *Handler) Write(ctx context.Context, id uint64, off uint64, buf []byte) (int, error) {
	defer metrics.Timer("write")()
	cid := trace.NewID()
	logger.Tracef("write: cid=%s inode=%d off=%d len=%d", cid, id, off, len(buf))

	h.inodes.Lock(id)
	defer h.inodes.Unlock(id)

	in, err := h.inodes.Get(ctx, id)
	if err != nil {
		metrics.ObserveOp("write", cerrors.KindOf(err).String())
		return 0, err
	}

	size := uint64(len(buf))
	if size == 0 {
		metrics.ObserveOp("write", cerrors.OK.String())
		return 0, nil
	}

	plan := extent.GetToAllocExtents(in.Extents, off, size)
	if len(plan) > 0 {
		category := extent.Category(in.Length, size)
		allocated, err := h.space.AllocExtents(ctx, in.Fsid, plan, category)
		if err != nil {
			metrics.ObserveOp("write", cerrors.KindOf(err).String())
			return 0, err
		}

		merged, mergeErr := extent.MergeAllocedExtents(plan, allocated, in.Extents)
		if mergeErr != nil {
			// The allocator already committed these extents; give them back
			// before surfacing the error so space is not leaked.
			if deallocErr := h.space.DeAllocExtents(ctx, in.Fsid, allocated); deallocErr != nil {
				return 0, cerrors.Wrap("Write", cerrors.Inconsistent, deallocErr)
			}
			metrics.ObserveOp("write", cerrors.KindOf(mergeErr).String())
			return 0, mergeErr
		}
		in.Extents = merged
	}

	pexts := extent.DivideExtents(in.Extents, off, size)
	cursor := uint64(0)
	for _, pe := range pexts {
		if err := h.bdev.Write(ctx, buf[cursor:cursor+pe.Length], pe.POffset, pe.Length); err != nil {
			metrics.ObserveOp("write", cerrors.KindOf(err).String())
			return int(cursor), cerrors.Wrap("Write", cerrors.Remote, err)
		}
		cursor += pe.Length
	}

	in.Extents = extent.MarkExtentsWritten(in.Extents, off, size)
	if off+size > in.Length {
		in.Length = off + size
	}
	now := h.nowMillis()
	in.Mtime, in.Ctime = now, now

	if err := h.inodes.Update(ctx, in); err != nil {
		// Data already landed on the block device; the inode update is
		// what makes it visible, so a failure here is an inconsistency
		// rather than a clean remote error.
		metrics.ObserveOp("write", cerrors.Inconsistent.String())
		return int(size), cerrors.Wrap("Write", cerrors.Inconsistent, err)
	}

	metrics.ObserveOp("write", cerrors.OK.String())
	return int(size), nil
}

// Read implements the read pipeline: clamp the requested window to the
// inode's length, divide it into physical segments, zero-fill unwritten
// (hole) segments and pull written segments from the block device. It runs
// under the same per-inode lock as Write.
func (h *Handler) Read(ctx context.Context, id uint64, off uint64, size int) ([]byte, error) {
	defer metrics.Timer("read")()
	cid := trace.NewID()
	logger.Tracef("read: cid=%s inode=%d off=%d size=%d", cid, id, off, size)

	h.inodes.Lock(id)
	defer h.inodes.Unlock(id)

	in, err := h.inodes.Get(ctx, id)
	if err != nil {
		metrics.ObserveOp("read", cerrors.KindOf(err).String())
		return nil, err
	}

	if off >= in.Length || size <= 0 {
		metrics.ObserveOp("read", cerrors.OK.String())
		return nil, nil
	}

	clamped := uint64(size)
	if off+clamped > in.Length {
		clamped = in.Length - off
	}

	out := make([]byte, clamped)
	pexts := extent.DivideExtents(in.Extents, off, clamped)
	cursor := uint64(0)
	for _, pe := range pexts {
		if pe.UnWritten {
			// out is already zero-valued; nothing to read for a hole.
			cursor += pe.Length
			continue
		}
		if err := h.bdev.Read(ctx, out[cursor:cursor+pe.Length], pe.POffset, pe.Length); err != nil {
			metrics.ObserveOp("read", cerrors.KindOf(err).String())
			return nil, cerrors.Wrap("Read", cerrors.Remote, err)
		}
		cursor += pe.Length
	}

	metrics.ObserveOp("read", cerrors.OK.String())
	return out, nil
}
