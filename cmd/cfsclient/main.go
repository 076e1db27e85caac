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

// Command cfsclient mounts a filesystem volume and builds the operation
// handler in package ops on top of it. The mount subcommand runs against
// in-memory fakes of the metadata directory service, the per-inode
// metadata service, the space allocator and the block device, and does not
// serve kernel-facing filesystem callbacks.
package main

import (
	"fmt"
	"os"

	"github.com/curvefs-client/cfsclient/cmd/cfsclient/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
