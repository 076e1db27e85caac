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

// Package session owns the mount/unmount handshake with the metadata
// directory service and the FsInfo snapshot it produces. FsInfo is
// immutable for the lifetime of the mount; it is created in Mount and
// discarded in Umount.
package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/curvefs-client/cfsclient/internal/client"
	cerrors "github.com/curvefs-client/cfsclient/internal/errors"
	"github.com/curvefs-client/cfsclient/internal/logger"
)

// MountOption is the record a caller supplies to Mount: which volume
// (doubling as the fsname) to attach, and where.
type MountOption struct {
	Volume     string
	MountPoint string
}

// Session pins a mounted filesystem's FsInfo for the lifetime of the
// mount and is shared read-only by the operation handler built on it.
type Session struct {
	mds  client.MdsClient
	info client.FsInfo
}

// ParseMountPoint splits a colon-delimited "host:path" mount point string.
// If no colon is present, host defaults to "unknownhost".
func ParseMountPoint(raw string) (host, path string) {
	if idx := strings.IndexByte(raw, ':'); idx >= 0 {
		return raw[:idx], raw[idx+1:]
	}
	return "unknownhost", raw
}

// Mount attaches to opt.Volume, creating the filesystem on the metadata
// directory service first if it does not yet exist, then issuing the mount
// call itself. Returns a Session pinning the resulting FsInfo.
func Mount(ctx context.Context, mds client.MdsClient, opt MountOption, blockSize uint32) (*Session, error) {
	_, err := mds.GetFsInfo(ctx, opt.Volume)
	if err != nil {
		if cerrors.KindOf(err) != cerrors.NotExist {
			return nil, cerrors.Wrap("session.Mount", cerrors.Remote, err)
		}
		logger.Infof("fs %q not found, creating it", opt.Volume)
		if err := mds.CreateFs(ctx, opt.Volume, blockSize, opt.Volume); err != nil {
			return nil, cerrors.Wrap("session.Mount", cerrors.Remote, err)
		}
	}

	info, err := mds.MountFs(ctx, opt.Volume, opt.MountPoint)
	if err != nil {
		return nil, cerrors.Wrap("session.Mount", cerrors.Remote, err)
	}

	logger.Infof("mounted fs %q (fsid=%d) at %s", info.Fsname, info.Fsid, opt.MountPoint)
	return &Session{mds: mds, info: info}, nil
}

// Umount tears down the mount. The Session must not be used afterward.
func (s *Session) Umount(ctx context.Context, mountPoint string) error {
	if err := s.mds.UmountFs(ctx, s.info.Fsname, mountPoint); err != nil {
		return cerrors.Wrap("session.Umount", cerrors.Remote, err)
	}
	return nil
}

// Info returns the pinned FsInfo for this mount.
func (s *Session) Info() client.FsInfo { return s.info }

// String is used for log correlation.
func (s *Session) String() string {
	return fmt.Sprintf("fs=%s fsid=%d volume=%s", s.info.Fsname, s.info.Fsid, s.info.Volume)
}
