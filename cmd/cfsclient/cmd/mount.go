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

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/curvefs-client/cfsclient/clock"
	"github.com/curvefs-client/cfsclient/internal/client"
	"github.com/curvefs-client/cfsclient/internal/logger"
	"github.com/curvefs-client/cfsclient/internal/ops"
	"github.com/curvefs-client/cfsclient/internal/session"
)

var mountCmd = &cobra.Command{
	Use:   "mount <volume> <mount-point>",
	Short: "Attach a volume to a local mount point",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile == "" {
			return fmt.Errorf("mount: --config is required")
		}
		if err := logger.Init(logger.Config{Level: "info"}); err != nil {
			return fmt.Errorf("mount: configuring logging: %w", err)
		}

		volume, mountPoint := args[0], args[1]

		blockSize := loadedCfg.Bdev.BlockSizeBytes
		logger.Infof(
			"mount: configured mds=%s metaserver=%s spaceserver=%s bdev=%s blocksize=%d",
			loadedCfg.Mds.MdsAddr, loadedCfg.MetaServer.MsAddr, loadedCfg.SpaceServer.SpaceAddr,
			loadedCfg.Bdev.ConfPath, blockSize,
		)

		// The gRPC stubs for the metadata directory service, the per-inode
		// metadata service and the space allocator are an external contract
		// this client sits on top of; wiring the concrete grpc.ClientConn
		// dials against the addresses just logged above belongs to those
		// stub packages, not to this core. Until that wiring lands, mount
		// runs against the in-memory fakes so the handler is independently
		// runnable end to end, but still sized from the loaded config.
		mds := client.NewFakeMdsClient(blockSize)
		meta := client.NewFakeMetaServerClient()
		space := client.NewFakeSpaceClient()
		bdev := client.NewFakeBlockDeviceClient()

		ctx, cancel := context.WithTimeout(context.Background(), loadedCfg.MdsTimeout())
		defer cancel()

		sess, err := session.Mount(ctx, mds, session.MountOption{Volume: volume, MountPoint: mountPoint}, blockSize)
		if err != nil {
			return fmt.Errorf("mount: %w", err)
		}

		h := ops.New(sess, meta, space, bdev, clock.RealClock{})
		logger.Infof("mounted fsid=%d at %s", h.Fsid(), mountPoint)

		// Handing h to the kernel-callback layer (out of scope for this
		// core) is the next step; this command exists so the handler can be
		// exercised end to end without that layer present.
		return nil
	},
}

var umountCmd = &cobra.Command{
	Use:   "umount <volume> <mount-point>",
	Short: "Detach a previously mounted volume",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return fmt.Errorf("umount: not yet wired to a running mount session")
	},
}
