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

package client

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	cerrors "github.com/curvefs-client/cfsclient/internal/errors"
	"github.com/curvefs-client/cfsclient/internal/inode"
)

// FakeMdsClient is an in-memory MdsClient used by the handler's own tests
// and by downstream integration tests that want a full end-to-end scenario
// without a real metadata directory service.
type FakeMdsClient struct {
	mu        sync.Mutex
	fs        map[string]FsInfo
	nextFsid  uint32
	blockSize uint32
}

// NewFakeMdsClient returns an empty registry; blockSize is applied to every
// filesystem created through it.
func NewFakeMdsClient(blockSize uint32) *FakeMdsClient {
	return &FakeMdsClient{fs: make(map[string]FsInfo), nextFsid: 100, blockSize: blockSize}
}

func (c *FakeMdsClient) GetFsInfo(_ context.Context, name string) (FsInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	info, ok := c.fs[name]
	if !ok {
		return FsInfo{}, cerrors.New("FakeMdsClient.GetFsInfo", cerrors.NotExist)
	}
	return info, nil
}

func (c *FakeMdsClient) CreateFs(_ context.Context, name string, blockSize uint32, volume string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.fs[name]; ok {
		return cerrors.New("FakeMdsClient.CreateFs", cerrors.AlreadyExist)
	}
	fsid := c.nextFsid
	c.nextFsid++
	if blockSize == 0 {
		blockSize = c.blockSize
	}
	c.fs[name] = FsInfo{Fsid: fsid, Fsname: name, BlockSize: blockSize, Volume: volume}
	return nil
}

func (c *FakeMdsClient) MountFs(_ context.Context, name, _ string) (FsInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	info, ok := c.fs[name]
	if !ok {
		return FsInfo{}, cerrors.New("FakeMdsClient.MountFs", cerrors.NotExist)
	}
	return info, nil
}

func (c *FakeMdsClient) UmountFs(_ context.Context, name, _ string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.fs[name]; !ok {
		return cerrors.New("FakeMdsClient.UmountFs", cerrors.NotExist)
	}
	return nil
}

// FakeMetaServerClient is an in-memory MetaServerClient: inodes and
// dentries live in plain maps guarded by one mutex. Good enough to drive
// every scenario in the write/read pipeline and the operation handler
// without a real per-inode metadata service.
type FakeMetaServerClient struct {
	mu     sync.Mutex
	inodes map[uint64]inode.Inode
	dentry map[uint64]map[string]inode.Dentry
	nextID atomic.Uint64
}

// NewFakeMetaServerClient seeds a root directory inode (id 1) as CurveFS
// convention dictates, matching the mds handshake's assumed root.
func NewFakeMetaServerClient() *FakeMetaServerClient {
	c := &FakeMetaServerClient{
		inodes: make(map[uint64]inode.Inode),
		dentry: make(map[uint64]map[string]inode.Dentry),
	}
	c.nextID.Store(1)
	c.inodes[1] = inode.Inode{ID: 1, Type: inode.DIRECTORY, Nlink: 2}
	return c
}

func (c *FakeMetaServerClient) GetInode(_ context.Context, _ uint32, id uint64) (inode.Inode, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	in, ok := c.inodes[id]
	if !ok {
		return inode.Inode{}, cerrors.New("FakeMetaServerClient.GetInode", cerrors.NotExist)
	}
	return in.Clone(), nil
}

func (c *FakeMetaServerClient) CreateInode(_ context.Context, param inode.InodeParam) (inode.Inode, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID.Add(1)
	nlink := uint32(1)
	if param.Type == inode.DIRECTORY {
		nlink = 2
	}
	in := inode.Inode{
		ID: id, Fsid: param.Fsid, Mode: param.Mode, Uid: param.Uid, Gid: param.Gid,
		Nlink: nlink, Type: param.Type,
	}
	c.inodes[id] = in
	return in.Clone(), nil
}

func (c *FakeMetaServerClient) UpdateInode(_ context.Context, in inode.Inode) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.inodes[in.ID]; !ok {
		return cerrors.New("FakeMetaServerClient.UpdateInode", cerrors.NotExist)
	}
	c.inodes[in.ID] = in.Clone()
	return nil
}

func (c *FakeMetaServerClient) DeleteInode(_ context.Context, _ uint32, id uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.inodes[id]; !ok {
		return cerrors.New("FakeMetaServerClient.DeleteInode", cerrors.NotExist)
	}
	delete(c.inodes, id)
	return nil
}

func (c *FakeMetaServerClient) GetDentry(_ context.Context, _ uint32, parent uint64, name string) (inode.Dentry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	bucket, ok := c.dentry[parent]
	if !ok {
		return inode.Dentry{}, cerrors.New("FakeMetaServerClient.GetDentry", cerrors.NotExist)
	}
	d, ok := bucket[name]
	if !ok {
		return inode.Dentry{}, cerrors.New("FakeMetaServerClient.GetDentry", cerrors.NotExist)
	}
	return d, nil
}

func (c *FakeMetaServerClient) CreateDentry(_ context.Context, d inode.Dentry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	bucket, ok := c.dentry[d.Parent]
	if !ok {
		bucket = make(map[string]inode.Dentry)
		c.dentry[d.Parent] = bucket
	}
	if _, exists := bucket[d.Name]; exists {
		return cerrors.New("FakeMetaServerClient.CreateDentry", cerrors.AlreadyExist)
	}
	bucket[d.Name] = d
	return nil
}

func (c *FakeMetaServerClient) DeleteDentry(_ context.Context, _ uint32, parent uint64, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	bucket, ok := c.dentry[parent]
	if !ok {
		return cerrors.New("FakeMetaServerClient.DeleteDentry", cerrors.NotExist)
	}
	if _, exists := bucket[name]; !exists {
		return cerrors.New("FakeMetaServerClient.DeleteDentry", cerrors.NotExist)
	}
	delete(bucket, name)
	if len(bucket) == 0 {
		delete(c.dentry, parent)
	}
	return nil
}

func (c *FakeMetaServerClient) ListDentry(_ context.Context, _ uint32, parent uint64, lastName string, limit int) ([]inode.Dentry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	bucket := c.dentry[parent]
	names := make([]string, 0, len(bucket))
	for n := range bucket {
		names = append(names, n)
	}
	sort.Strings(names)

	start := 0
	if lastName != "" {
		start = sort.SearchStrings(names, lastName)
		if start < len(names) && names[start] == lastName {
			start++
		}
	}
	end := start + limit
	if end > len(names) {
		end = len(names)
	}

	out := make([]inode.Dentry, 0, end-start)
	for _, n := range names[start:end] {
		out = append(out, bucket[n])
	}
	return out, nil
}

// FakeSpaceClient is an in-memory SpaceClient. It hands out monotonically
// increasing volume offsets and tracks which extents have been allocated so
// DeAllocExtents can be asserted against in tests.
type FakeSpaceClient struct {
	mu        sync.Mutex
	next      uint64
	allocated map[uint64]uint64 // offset -> length, for tests that want to assert on leaks
}

func NewFakeSpaceClient() *FakeSpaceClient {
	return &FakeSpaceClient{allocated: make(map[uint64]uint64)}
}

func (c *FakeSpaceClient) AllocExtents(_ context.Context, _ uint32, hints []inode.AllocInfo, _ inode.AllocCategory) ([]inode.Extent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]inode.Extent, len(hints))
	for i, h := range hints {
		out[i] = inode.Extent{Offset: c.next, Length: h.Length}
		c.allocated[c.next] = h.Length
		c.next += h.Length
	}
	return out, nil
}

func (c *FakeSpaceClient) DeAllocExtents(_ context.Context, _ uint32, extents []inode.Extent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range extents {
		delete(c.allocated, e.Offset)
	}
	return nil
}

// Outstanding reports the number of extents handed out that have not been
// deallocated, for tests asserting the compensating-deallocation path.
func (c *FakeSpaceClient) Outstanding() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.allocated)
}

// FakeBlockDeviceClient is an in-memory BlockDeviceClient backed by a
// growable byte slice, standing in for the raw volume.
type FakeBlockDeviceClient struct {
	mu  sync.Mutex
	vol []byte
}

func NewFakeBlockDeviceClient() *FakeBlockDeviceClient {
	return &FakeBlockDeviceClient{}
}

func (c *FakeBlockDeviceClient) ensure(n uint64) {
	if uint64(len(c.vol)) >= n {
		return
	}
	grown := make([]byte, n)
	copy(grown, c.vol)
	c.vol = grown
}

func (c *FakeBlockDeviceClient) Write(_ context.Context, buf []byte, offset, length uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if uint64(len(buf)) < length {
		return cerrors.Wrap("FakeBlockDeviceClient.Write", cerrors.Internal,
			fmt.Errorf("buffer too short: have %d, need %d", len(buf), length))
	}
	c.ensure(offset + length)
	copy(c.vol[offset:offset+length], buf[:length])
	return nil
}

func (c *FakeBlockDeviceClient) Read(_ context.Context, buf []byte, offset, length uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if uint64(len(buf)) < length {
		return cerrors.Wrap("FakeBlockDeviceClient.Read", cerrors.Internal,
			fmt.Errorf("buffer too short: have %d, need %d", len(buf), length))
	}
	c.ensure(offset + length)
	copy(buf[:length], c.vol[offset:offset+length])
	return nil
}
