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

package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curvefs-client/cfsclient/internal/client"
)

func TestParseMountPoint(t *testing.T) {
	host, path := ParseMountPoint("host1:/mnt/cfs")
	assert.Equal(t, "host1", host)
	assert.Equal(t, "/mnt/cfs", path)

	host2, path2 := ParseMountPoint("/mnt/cfs")
	assert.Equal(t, "unknownhost", host2)
	assert.Equal(t, "/mnt/cfs", path2)
}

func TestMountCreatesFilesystemWhenAbsent(t *testing.T) {
	mds := client.NewFakeMdsClient(4096)
	sess, err := Mount(context.Background(), mds, MountOption{Volume: "vol1", MountPoint: "host:/mnt"}, 4096)
	require.NoError(t, err)
	assert.Equal(t, "vol1", sess.Info().Fsname)
	assert.Equal(t, uint32(4096), sess.Info().BlockSize)
}

func TestMountReusesExistingFilesystem(t *testing.T) {
	mds := client.NewFakeMdsClient(4096)
	ctx := context.Background()
	require.NoError(t, mds.CreateFs(ctx, "vol1", 4096, "vol1"))

	sess, err := Mount(ctx, mds, MountOption{Volume: "vol1", MountPoint: "host:/mnt"}, 4096)
	require.NoError(t, err)
	assert.Equal(t, "vol1", sess.Info().Fsname)
}

func TestUmountDelegatesToMds(t *testing.T) {
	mds := client.NewFakeMdsClient(4096)
	ctx := context.Background()
	sess, err := Mount(ctx, mds, MountOption{Volume: "vol1", MountPoint: "host:/mnt"}, 4096)
	require.NoError(t, err)

	require.NoError(t, sess.Umount(ctx, "host:/mnt"))
}

func TestStringIncludesFsidAndVolume(t *testing.T) {
	mds := client.NewFakeMdsClient(4096)
	sess, err := Mount(context.Background(), mds, MountOption{Volume: "vol1", MountPoint: "host:/mnt"}, 4096)
	require.NoError(t, err)
	assert.Contains(t, sess.String(), "vol1")
}
