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

// Package client declares the three RPC contracts and the block-device
// contract this core sits on top of: the metadata directory service, the
// per-inode metadata service, the space allocator, and the raw volume. Each
// is a trait-like interface; the in-memory fakes in fake.go are the only
// implementations in this package.
package client

import (
	"context"

	"github.com/curvefs-client/cfsclient/internal/inode"
)

// FsInfo is the per-mount snapshot returned by Mount/GetFsInfo.
type FsInfo struct {
	Fsid      uint32
	Fsname    string
	BlockSize uint32
	Volume    string
}

// MdsClient is the metadata directory service contract: filesystem
// lifecycle (create, mount, unmount) keyed by fsname.
type MdsClient interface {
	GetFsInfo(ctx context.Context, name string) (FsInfo, error)
	CreateFs(ctx context.Context, name string, blockSize uint32, volume string) error
	MountFs(ctx context.Context, name, mountPoint string) (FsInfo, error)
	UmountFs(ctx context.Context, name, mountPoint string) error
}

// MetaServerClient is the per-inode metadata service contract: inode and
// dentry CRUD plus paginated directory listing.
type MetaServerClient interface {
	GetInode(ctx context.Context, fsid uint32, id uint64) (inode.Inode, error)
	CreateInode(ctx context.Context, param inode.InodeParam) (inode.Inode, error)
	UpdateInode(ctx context.Context, in inode.Inode) error
	DeleteInode(ctx context.Context, fsid uint32, id uint64) error

	GetDentry(ctx context.Context, fsid uint32, parent uint64, name string) (inode.Dentry, error)
	CreateDentry(ctx context.Context, d inode.Dentry) error
	DeleteDentry(ctx context.Context, fsid uint32, parent uint64, name string) error
	ListDentry(ctx context.Context, fsid uint32, parent uint64, lastName string, limit int) ([]inode.Dentry, error)
}

// SpaceClient is the block-space allocator contract.
type SpaceClient interface {
	AllocExtents(ctx context.Context, fsid uint32, hints []inode.AllocInfo, category inode.AllocCategory) ([]inode.Extent, error)
	DeAllocExtents(ctx context.Context, fsid uint32, extents []inode.Extent) error
}

// BlockDeviceClient is the raw, byte-addressable volume contract. Offsets
// are within the volume, not within any file.
type BlockDeviceClient interface {
	Write(ctx context.Context, buf []byte, offset, length uint64) error
	Read(ctx context.Context, buf []byte, offset, length uint64) error
}
