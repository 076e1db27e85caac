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

// Package ops is the operation handler: the one component every kernel
// filesystem callback ultimately calls into. It orchestrates the dentry
// cache, inode cache, extent manager, directory-listing buffer pool and the
// space/block-device RPC clients to implement lookup, getattr/setattr,
// mk/unlink, open/read/write and opendir/readdir/releasedir.
//
// A Handler is constructed once per mount and handed to the (out-of-scope)
// kernel-callback layer as a single shared, read-only reference — there is
// no package-level mutable global standing in for it.
package ops

import (
	"context"

	"github.com/curvefs-client/cfsclient/clock"
	"github.com/curvefs-client/cfsclient/internal/client"
	"github.com/curvefs-client/cfsclient/internal/dentrycache"
	"github.com/curvefs-client/cfsclient/internal/dirbuffer"
	cerrors "github.com/curvefs-client/cfsclient/internal/errors"
	"github.com/curvefs-client/cfsclient/internal/inode"
	"github.com/curvefs-client/cfsclient/internal/inodecache"
	"github.com/curvefs-client/cfsclient/internal/logger"
	"github.com/curvefs-client/cfsclient/internal/metrics"
	"github.com/curvefs-client/cfsclient/internal/session"
)

// EntryTimeoutSeconds is the cache-validity hint returned alongside every
// lookup/getattr response, matching the reference client's fixed 1.0s
// dentry/attribute timeout.
const EntryTimeoutSeconds = 1.0

// Handler is the shared collaborator graph the whole client runs on top of.
// Every field is set once at construction and never reassigned.
type Handler struct {
	sess     *session.Session
	dentries *dentrycache.Cache
	inodes   *inodecache.Cache
	space    client.SpaceClient
	bdev     client.BlockDeviceClient
	dirs     *dirbuffer.Pool
	clk      clock.Clock

	// CompensateOrphans enables a best-effort DeleteInode when CreateDentry
	// fails after CreateInode has already succeeded. This is a deviation
	// from the reference design (see DESIGN.md) and defaults to false.
	CompensateOrphans bool
}

// New builds a Handler bound to sess's fsid, using meta for the dentry and
// inode caches.
func New(sess *session.Session, meta client.MetaServerClient, space client.SpaceClient, bdev client.BlockDeviceClient, clk clock.Clock) *Handler {
	fsid := sess.Info().Fsid
	return &Handler{
		sess:     sess,
		dentries: dentrycache.New(meta, fsid),
		inodes:   inodecache.New(meta, fsid),
		space:    space,
		bdev:     bdev,
		dirs:     dirbuffer.New(),
		clk:      clk,
	}
}

// Fsid is the filesystem this handler is bound to.
func (h *Handler) Fsid() uint32 { return h.sess.Info().Fsid }

func (h *Handler) nowMillis() int64 { return h.clk.Now().UnixMilli() }

// LookupResult is what Lookup and the create family return to the
// kernel-callback layer: the resolved inode plus its cache-validity
// timeout.
type LookupResult struct {
	Inode          inode.Inode
	TimeoutSeconds float64
}

// Lookup resolves name within parent, per the dentry-then-inode chain: a
// miss on either surfaces as NotExist.
func (h *Handler) Lookup(ctx context.Context, parent uint64, name string) (LookupResult, error) {
	d, err := h.dentries.Get(ctx, parent, name)
	if err != nil {
		metrics.ObserveOp("lookup", cerrors.KindOf(err).String())
		return LookupResult{}, err
	}

	in, err := h.inodes.Get(ctx, d.InodeID)
	if err != nil {
		metrics.ObserveOp("lookup", cerrors.KindOf(err).String())
		return LookupResult{}, err
	}

	metrics.ObserveOp("lookup", cerrors.OK.String())
	return LookupResult{Inode: in, TimeoutSeconds: EntryTimeoutSeconds}, nil
}

// GetAttr returns up-to-date attributes for id.
func (h *Handler) GetAttr(ctx context.Context, id uint64) (inode.Inode, error) {
	in, err := h.inodes.Get(ctx, id)
	metrics.ObserveOp("getattr", cerrors.KindOf(err).String())
	return in, err
}

// SetAttr applies req's masked fields to id and writes the result through
// to the metadata service. SIZE changes only adjust the length field; the
// extent map and device contents are untouched, so a subsequent read of a
// newly-exposed range sees zeros from the existing hole-handling path.
func (h *Handler) SetAttr(ctx context.Context, id uint64, req SetAttrRequest) (inode.Inode, error) {
	h.inodes.Lock(id)
	defer h.inodes.Unlock(id)

	in, err := h.inodes.Get(ctx, id)
	if err != nil {
		metrics.ObserveOp("setattr", cerrors.KindOf(err).String())
		return inode.Inode{}, err
	}

	if req.Mask.has(SetAttrMode) {
		in.Mode = req.Mode
	}
	if req.Mask.has(SetAttrUid) {
		in.Uid = req.Uid
	}
	if req.Mask.has(SetAttrGid) {
		in.Gid = req.Gid
	}
	if req.Mask.has(SetAttrSize) {
		in.Length = req.Size
	}

	switch {
	case req.Mask.has(SetAttrAtimeNow):
		in.Atime = h.nowMillis()
	case req.Mask.has(SetAttrAtime):
		in.Atime = req.Atime
	}
	switch {
	case req.Mask.has(SetAttrMtimeNow):
		in.Mtime = h.nowMillis()
	case req.Mask.has(SetAttrMtime):
		in.Mtime = req.Mtime
	}
	if req.Mask.has(SetAttrCtime) {
		in.Ctime = req.Ctime
	}

	if err := h.inodes.Update(ctx, in); err != nil {
		metrics.ObserveOp("setattr", cerrors.KindOf(err).String())
		return inode.Inode{}, err
	}

	metrics.ObserveOp("setattr", cerrors.OK.String())
	return in, nil
}

// createInodeAndDentry implements the shared shape of mknod/create/mkdir:
// create the inode remotely, write its creation timestamps through, then
// create the dentry referencing it. If the dentry create fails the inode is
// orphaned on the server; this core does not compensate unless
// CompensateOrphans is set (see DESIGN.md).
func (h *Handler) createInodeAndDentry(ctx context.Context, parent uint64, name string, typ inode.Type, mode, uid, gid uint32) (inode.Inode, error) {
	param := inode.InodeParam{Fsid: h.Fsid(), Mode: mode, Uid: uid, Gid: gid, Type: typ}
	in, err := h.inodes.Create(ctx, param)
	if err != nil {
		return inode.Inode{}, err
	}

	now := h.nowMillis()
	in.Atime, in.Mtime, in.Ctime = now, now, now
	if err := h.inodes.Update(ctx, in); err != nil {
		return inode.Inode{}, err
	}

	d := inode.Dentry{Fsid: h.Fsid(), Parent: parent, Name: name, InodeID: in.ID}
	if err := h.dentries.Create(ctx, d); err != nil {
		if h.CompensateOrphans {
			// Deviation from the reference design: best-effort cleanup of
			// the orphaned inode. Errors here are logged, not propagated —
			// the caller already has the dentry-create failure to report.
			if delErr := h.inodes.Delete(ctx, in.ID); delErr != nil {
				logger.Warnf("createInodeAndDentry: compensating delete of orphaned inode %d failed: %v", in.ID, delErr)
			}
		}
		return inode.Inode{}, err
	}
	return in, nil
}

// Mknod creates a file inode and dentry for a general device/regular node.
func (h *Handler) Mknod(ctx context.Context, parent uint64, name string, mode, uid, gid uint32) (inode.Inode, error) {
	in, err := h.createInodeAndDentry(ctx, parent, name, inode.FILE, mode, uid, gid)
	metrics.ObserveOp("mknod", cerrors.KindOf(err).String())
	return in, err
}

// Create is Mknod followed by an implicit open in the reference design;
// this core has no file-handle state of its own, so it is identical to
// Mknod from the operation handler's point of view.
func (h *Handler) Create(ctx context.Context, parent uint64, name string, mode, uid, gid uint32) (inode.Inode, error) {
	in, err := h.createInodeAndDentry(ctx, parent, name, inode.FILE, mode, uid, gid)
	metrics.ObserveOp("create", cerrors.KindOf(err).String())
	return in, err
}

// Mkdir creates a directory inode and dentry.
func (h *Handler) Mkdir(ctx context.Context, parent uint64, name string, mode, uid, gid uint32) (inode.Inode, error) {
	in, err := h.createInodeAndDentry(ctx, parent, name, inode.DIRECTORY, mode, uid, gid)
	metrics.ObserveOp("mkdir", cerrors.KindOf(err).String())
	return in, err
}

// unlinkCommon implements the shared lookup -> delete dentry -> delete
// inode sequence unlink and rmdir both follow. rmdir does not verify
// emptiness here; that belongs to the metadata service contract.
func (h *Handler) unlinkCommon(ctx context.Context, op string, parent uint64, name string) error {
	d, err := h.dentries.Get(ctx, parent, name)
	if err != nil {
		metrics.ObserveOp(op, cerrors.KindOf(err).String())
		return err
	}
	if err := h.dentries.Delete(ctx, parent, name); err != nil {
		metrics.ObserveOp(op, cerrors.KindOf(err).String())
		return err
	}
	if err := h.inodes.Delete(ctx, d.InodeID); err != nil {
		metrics.ObserveOp(op, cerrors.KindOf(err).String())
		return err
	}
	metrics.ObserveOp(op, cerrors.OK.String())
	return nil
}

// Unlink removes a file dentry and its inode.
func (h *Handler) Unlink(ctx context.Context, parent uint64, name string) error {
	return h.unlinkCommon(ctx, "unlink", parent, name)
}

// Rmdir removes a directory dentry and its inode, without checking that
// the directory is empty.
func (h *Handler) Rmdir(ctx context.Context, parent uint64, name string) error {
	return h.unlinkCommon(ctx, "rmdir", parent, name)
}

// Open validates that id exists and returns its current inode for the
// kernel-callback layer to stash in its per-open file-handle slot. This
// core holds no file-handle state of its own for regular files; the
// write/read pipeline re-reads the inode from the cache on every call.
func (h *Handler) Open(ctx context.Context, id uint64) (inode.Inode, error) {
	in, err := h.inodes.Get(ctx, id)
	metrics.ObserveOp("open", cerrors.KindOf(err).String())
	return in, err
}
