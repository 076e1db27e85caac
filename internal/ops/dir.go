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
	"encoding/binary"

	cerrors "github.com/curvefs-client/cfsclient/internal/errors"
	"github.com/curvefs-client/cfsclient/internal/logger"
	"github.com/curvefs-client/cfsclient/internal/metrics"
)

// dirEntryOverhead is the fixed-size prefix of each serialized directory
// entry: a uint32 record length followed by a uint64 inode id, ahead of
// the variable-length name.
const dirEntryOverhead = 4 + 8

// OpenDir checks that parent exists (through the inode cache) and reserves
// a listing-buffer handle for it. The inode's type is not checked. The buffer is populated lazily on the first ReadDir call.
func (h *Handler) OpenDir(ctx context.Context, parent uint64) (uint32, error) {
	if _, err := h.inodes.Get(ctx, parent); err != nil {
		metrics.ObserveOp("opendir", cerrors.KindOf(err).String())
		return 0, err
	}
	handle := h.dirs.New()
	metrics.ObserveOp("opendir", cerrors.OK.String())
	return handle, nil
}

// fillBuffer serializes every dentry under parent into the buffer owned by
// handle, each entry as [uint32 recordLen][uint64 inodeID][name bytes].
func (h *Handler) fillBuffer(ctx context.Context, handle uint32, parent uint64) error {
	entries, err := h.dentries.List(ctx, parent, 0)
	if err != nil {
		return err
	}

	ids := make([]uint64, len(entries))
	raw := make([]byte, 0, 256)
	for i, d := range entries {
		ids[i] = d.InodeID
		recLen := dirEntryOverhead + len(d.Name)
		rec := make([]byte, recLen)
		binary.LittleEndian.PutUint32(rec[0:4], uint32(recLen))
		binary.LittleEndian.PutUint64(rec[4:12], d.InodeID)
		copy(rec[12:], d.Name)
		raw = append(raw, rec...)
	}

	// Best-effort: warm the inode cache for every entry in this page so a
	// kernel-side getattr immediately following readdir hits cache. A
	// failure here (e.g. one entry raced a concurrent unlink) must not
	// fail the listing itself.
	if len(ids) > 0 {
		if _, err := h.inodes.GetMany(ctx, ids); err != nil {
			logger.Debugf("fillBuffer: attribute prefetch for parent %d incomplete: %v", parent, err)
		}
	}

	buf := h.dirs.Get(handle)
	if buf == nil {
		return cerrors.New("fillBuffer", cerrors.Internal)
	}
	buf.Raw = raw
	buf.Size = len(raw)
	buf.WasRead = true
	return nil
}

// ReadDir returns the [off, off+size) byte window of handle's serialized
// directory listing, populating the buffer from the metadata service on
// the first call.
func (h *Handler) ReadDir(ctx context.Context, handle uint32, parent uint64, off, size int) ([]byte, error) {
	buf := h.dirs.Get(handle)
	if buf == nil {
		metrics.ObserveOp("readdir", cerrors.Internal.String())
		return nil, cerrors.New("ReadDir", cerrors.Internal)
	}

	if !buf.WasRead {
		if err := h.fillBuffer(ctx, handle, parent); err != nil {
			metrics.ObserveOp("readdir", cerrors.KindOf(err).String())
			return nil, err
		}
		buf = h.dirs.Get(handle)
	}

	if off >= buf.Size || size <= 0 {
		metrics.ObserveOp("readdir", cerrors.OK.String())
		return nil, nil
	}
	end := off + size
	if end > buf.Size {
		end = buf.Size
	}

	metrics.ObserveOp("readdir", cerrors.OK.String())
	return buf.Raw[off:end], nil
}

// ReleaseDir recycles handle's listing buffer.
func (h *Handler) ReleaseDir(handle uint32) {
	h.dirs.Release(handle)
	metrics.ObserveOp("releasedir", cerrors.OK.String())
}
