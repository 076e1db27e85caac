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
	"github.com/spf13/cobra"

	"github.com/curvefs-client/cfsclient/cfg"
)

var (
	cfgFile    string
	loadedCfg  cfg.Config
	cfgLoadErr error
)

var rootCmd = &cobra.Command{
	Use:   "cfsclient",
	Short: "A client for attaching a host directory tree to a CurveFS-style volume",
	Long: `cfsclient translates directory and file operations against a local
mount point into RPCs against a metadata directory service, a per-inode
metadata service and a block-space allocator, streaming file contents to a
raw block device.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile == "" {
			return nil
		}
		loadedCfg, cfgLoadErr = cfg.Load(cfgFile)
		return cfgLoadErr
	},
}

// Execute runs the root command, dispatching to whichever subcommand the
// caller invoked.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to the client configuration file")
	rootCmd.AddCommand(mountCmd)
	rootCmd.AddCommand(umountCmd)
}
