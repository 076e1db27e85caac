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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curvefs-client/cfsclient/clock"
	"github.com/curvefs-client/cfsclient/internal/client"
	cerrors "github.com/curvefs-client/cfsclient/internal/errors"
	"github.com/curvefs-client/cfsclient/internal/inode"
	"github.com/curvefs-client/cfsclient/internal/session"
)

// testHandler wires a fresh Handler against in-memory fakes for a newly
// mounted filesystem, mirroring "mount a brand new filesystem" from the
// end-to-end scenarios.
func testHandler(t *testing.T) (*Handler, *client.FakeSpaceClient) {
	t.Helper()
	ctx := context.Background()

	mds := client.NewFakeMdsClient(4096)
	meta := client.NewFakeMetaServerClient()
	space := client.NewFakeSpaceClient()
	bdev := client.NewFakeBlockDeviceClient()

	sess, err := session.Mount(ctx, mds, session.MountOption{Volume: "testfs", MountPoint: "host:/mnt"}, 4096)
	require.NoError(t, err)
	assert.Equal(t, uint32(100), sess.Info().Fsid, "first filesystem created gets the fake mds's starting fsid")

	h := New(sess, meta, space, bdev, clock.RealClock{})
	return h, space
}

// testHandlerWithClock is testHandler but with a caller-supplied clock, for
// tests that need to assert on exactly which timestamp an operation stamps.
func testHandlerWithClock(t *testing.T, clk clock.Clock) *Handler {
	t.Helper()
	ctx := context.Background()

	mds := client.NewFakeMdsClient(4096)
	meta := client.NewFakeMetaServerClient()
	space := client.NewFakeSpaceClient()
	bdev := client.NewFakeBlockDeviceClient()

	sess, err := session.Mount(ctx, mds, session.MountOption{Volume: "testfs", MountPoint: "host:/mnt"}, 4096)
	require.NoError(t, err)

	return New(sess, meta, space, bdev, clk)
}

func TestMountCreatesNewFilesystem(t *testing.T) {
	h, _ := testHandler(t)
	assert.Equal(t, uint32(100), h.Fsid())
}

func TestLookupRootMiss(t *testing.T) {
	h, _ := testHandler(t)
	_, err := h.Lookup(context.Background(), 1, "nope")
	require.Error(t, err)
	assert.Equal(t, cerrors.NotExist, cerrors.KindOf(err))
}

func TestCreateThenLookup(t *testing.T) {
	h, _ := testHandler(t)
	ctx := context.Background()

	created, err := h.Create(ctx, 1, "hello.txt", 0644, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, inode.FILE, created.Type)

	res, err := h.Lookup(ctx, 1, "hello.txt")
	require.NoError(t, err)
	assert.Equal(t, created.ID, res.Inode.ID)
	assert.Equal(t, EntryTimeoutSeconds, res.TimeoutSeconds)
}

func TestSmallWriteThenRead(t *testing.T) {
	h, space := testHandler(t)
	ctx := context.Background()

	f, err := h.Create(ctx, 1, "small.bin", 0644, 0, 0)
	require.NoError(t, err)

	payload := []byte("curvefs-client")
	n, err := h.Write(ctx, f.ID, 0, payload)
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)
	assert.Equal(t, 1, space.Outstanding(), "one allocation for the single write")

	got, err := h.Read(ctx, f.ID, 0, len(payload))
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	in, err := h.GetAttr(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(len(payload)), in.Length)
}

func TestReadPartiallyWrittenFileZerosTheHole(t *testing.T) {
	h, _ := testHandler(t)
	ctx := context.Background()

	f, err := h.Create(ctx, 1, "sparse.bin", 0644, 0, 0)
	require.NoError(t, err)

	// Write only the tail of a larger logical range via SetAttr extending
	// length, then writing a small window near the end.
	_, err = h.SetAttr(ctx, f.ID, SetAttrRequest{Mask: SetAttrSize, Size: 8192})
	require.NoError(t, err)

	payload := []byte("tail-data")
	off := uint64(8192 - len(payload))
	_, err = h.Write(ctx, f.ID, off, payload)
	require.NoError(t, err)

	got, err := h.Read(ctx, f.ID, 0, 8192)
	require.NoError(t, err)
	require.Len(t, got, 8192)
	for i := 0; i < int(off); i++ {
		assert.Equalf(t, byte(0), got[i], "byte %d should be a zero-filled hole", i)
	}
	assert.Equal(t, payload, got[off:])
}

// shortAllocSpaceClient wraps a FakeSpaceClient but always hands back one
// byte less than requested, forcing MergeAllocedExtents to reject the
// allocation so the compensating DeAllocExtents path can be exercised.
type shortAllocSpaceClient struct {
	*client.FakeSpaceClient
}

func (s *shortAllocSpaceClient) AllocExtents(ctx context.Context, fsid uint32, hints []inode.AllocInfo, category inode.AllocCategory) ([]inode.Extent, error) {
	out, err := s.FakeSpaceClient.AllocExtents(ctx, fsid, hints, category)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Length--
	}
	return out, nil
}

func TestWriteDeallocatesOnMergeFailure(t *testing.T) {
	ctx := context.Background()
	mds := client.NewFakeMdsClient(4096)
	meta := client.NewFakeMetaServerClient()
	space := &shortAllocSpaceClient{client.NewFakeSpaceClient()}
	bdev := client.NewFakeBlockDeviceClient()

	sess, err := session.Mount(ctx, mds, session.MountOption{Volume: "testfs", MountPoint: "host:/mnt"}, 4096)
	require.NoError(t, err)
	h := New(sess, meta, space, bdev, clock.RealClock{})

	f, err := h.Create(ctx, 1, "racy.bin", 0644, 0, 0)
	require.NoError(t, err)

	_, err = h.Write(ctx, f.ID, 0, []byte("abc"))
	require.Error(t, err)
	assert.Equal(t, 0, space.Outstanding(), "the mismatched allocation must be handed back, not leaked")
}

func TestUnlinkRemovesDentryAndInode(t *testing.T) {
	h, _ := testHandler(t)
	ctx := context.Background()

	f, err := h.Create(ctx, 1, "doomed.txt", 0644, 0, 0)
	require.NoError(t, err)

	require.NoError(t, h.Unlink(ctx, 1, "doomed.txt"))

	_, err = h.Lookup(ctx, 1, "doomed.txt")
	require.Error(t, err)
	assert.Equal(t, cerrors.NotExist, cerrors.KindOf(err))

	_, err = h.GetAttr(ctx, f.ID)
	require.Error(t, err)
	assert.Equal(t, cerrors.NotExist, cerrors.KindOf(err))
}

func TestReaddirAfterOpendirListsCreatedEntries(t *testing.T) {
	h, _ := testHandler(t)
	ctx := context.Background()

	names := []string{"a", "b", "c"}
	for _, n := range names {
		_, err := h.Create(ctx, 1, n, 0644, 0, 0)
		require.NoError(t, err)
	}

	handle, err := h.OpenDir(ctx, 1)
	require.NoError(t, err)
	defer h.ReleaseDir(handle)

	buf, err := h.ReadDir(ctx, handle, 1, 0, 4096)
	require.NoError(t, err)

	var got []string
	cursor := 0
	for cursor < len(buf) {
		recLen := binary.LittleEndian.Uint32(buf[cursor : cursor+4])
		name := string(buf[cursor+12 : cursor+int(recLen)])
		got = append(got, name)
		cursor += int(recLen)
	}
	assert.ElementsMatch(t, names, got)
}

func TestReaddirPaginatesByByteWindow(t *testing.T) {
	h, _ := testHandler(t)
	ctx := context.Background()
	_, err := h.Create(ctx, 1, "onlyentry", 0644, 0, 0)
	require.NoError(t, err)

	handle, err := h.OpenDir(ctx, 1)
	require.NoError(t, err)
	defer h.ReleaseDir(handle)

	full, err := h.ReadDir(ctx, handle, 1, 0, 4096)
	require.NoError(t, err)
	require.NotEmpty(t, full)

	empty, err := h.ReadDir(ctx, handle, 1, len(full), 4096)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMkdirAndRmdir(t *testing.T) {
	h, _ := testHandler(t)
	ctx := context.Background()

	d, err := h.Mkdir(ctx, 1, "subdir", 0755, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, inode.DIRECTORY, d.Type)

	require.NoError(t, h.Rmdir(ctx, 1, "subdir"))
	_, err = h.Lookup(ctx, 1, "subdir")
	assert.Equal(t, cerrors.NotExist, cerrors.KindOf(err))
}

func TestSetAttrMode(t *testing.T) {
	h, _ := testHandler(t)
	ctx := context.Background()

	f, err := h.Create(ctx, 1, "perms.txt", 0644, 0, 0)
	require.NoError(t, err)

	updated, err := h.SetAttr(ctx, f.ID, SetAttrRequest{Mask: SetAttrMode, Mode: 0600})
	require.NoError(t, err)
	assert.Equal(t, uint32(0600), updated.Mode)
}

func TestWriteStampsMtimeAndCtimeFromClock(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clk := clock.NewFakeClock(created)
	h := testHandlerWithClock(t, clk)
	ctx := context.Background()

	f, err := h.Create(ctx, 1, "stamped.txt", 0644, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, created.UnixMilli(), f.Mtime)
	assert.Equal(t, created.UnixMilli(), f.Ctime)

	written := created.Add(5 * time.Minute)
	clk.SetTime(written)

	n, err := h.Write(ctx, f.ID, 0, []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	updated, err := h.GetAttr(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, written.UnixMilli(), updated.Mtime)
	assert.Equal(t, written.UnixMilli(), updated.Ctime)
	assert.Equal(t, created.UnixMilli(), updated.Atime, "write does not touch atime")
}
