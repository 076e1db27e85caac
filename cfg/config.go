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

// Package cfg loads the client's key-value configuration file. Keys are
// flat and dot-delimited (mds.mdsaddr, metaserver.rpcTimeoutMs, ...);
// viper's native dotted-key binding reads them directly into the nested
// Config struct below via mapstructure tags. A missing or malformed
// required key is fatal at startup, per the external-interfaces contract.
package cfg

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Addr is a "host:port" RPC endpoint. It is its own type, rather than a
// plain string, so the decode hook below can validate it shape on load
// instead of failing later at dial time.
type Addr string

func (a Addr) String() string { return string(a) }

type MdsConfig struct {
	MdsAddr      Addr `mapstructure:"mdsaddr"`
	RpcTimeoutMs int  `mapstructure:"rpcTimeoutMs"`
}

type MetaServerConfig struct {
	MsAddr       Addr `mapstructure:"msaddr"`
	RpcTimeoutMs int  `mapstructure:"rpcTimeoutMs"`
}

type SpaceServerConfig struct {
	SpaceAddr    Addr `mapstructure:"spaceaddr"`
	RpcTimeoutMs int  `mapstructure:"rpcTimeoutMs"`
}

type BdevConfig struct {
	ConfPath       string `mapstructure:"confpath"`
	BlockSizeBytes uint32 `mapstructure:"blocksizebytes"`
}

// DeferCloseConfig is the nested "defer.close" section.
type DeferCloseConfig struct {
	Second int `mapstructure:"second"`
}

// DeferConfig is the nested "defer" section.
type DeferConfig struct {
	Close DeferCloseConfig `mapstructure:"close"`
}

type Config struct {
	Mds         MdsConfig         `mapstructure:"mds"`
	MetaServer  MetaServerConfig  `mapstructure:"metaserver"`
	SpaceServer SpaceServerConfig `mapstructure:"spaceserver"`
	Bdev        BdevConfig        `mapstructure:"bdev"`

	// Defer.Close.Second is "defer.close.second": seconds to wait before
	// actually closing a file handle after the kernel releases it.
	Defer DeferConfig `mapstructure:"defer"`
}

// requiredKeys is checked against viper's resolved settings before
// unmarshaling; a key present in a config file but empty still counts as
// missing, matching "malformed keys are fatal at startup".
var requiredKeys = []string{
	"mds.mdsaddr",
	"mds.rpcTimeoutMs",
	"metaserver.msaddr",
	"metaserver.rpcTimeoutMs",
	"spaceserver.spaceaddr",
	"spaceserver.rpcTimeoutMs",
	"bdev.confpath",
	"bdev.blocksizebytes",
	"defer.close.second",
}

// addrDecodeHook rejects an Addr value that doesn't look like "host:port"
// at load time rather than at first dial.
func addrDecodeHook() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf(Addr("")) {
			return data, nil
		}
		s := data.(string)
		if !strings.Contains(s, ":") {
			return nil, fmt.Errorf("cfg: address %q must be of the form host:port", s)
		}
		return Addr(s), nil
	}
}

// Load reads path (viper picks the format from the file extension, e.g.
// .yaml, .toml or .ini; a path without a recognised extension is rejected)
// and returns the resolved Config. Returns an error naming every missing or empty required key
// rather than failing on the first one, so an operator fixing a config
// file sees the whole list at once.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("cfg: reading %s: %w", path, err)
	}

	var missing []string
	for _, k := range requiredKeys {
		if !v.IsSet(k) || v.GetString(k) == "" || v.Get(k) == nil {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("cfg: missing or malformed required keys: %v", missing)
	}

	var c Config
	decodeHook := mapstructure.ComposeDecodeHookFunc(
		addrDecodeHook(),
		mapstructure.StringToTimeDurationHookFunc(),
	)
	if err := v.Unmarshal(&c, viper.DecodeHook(decodeHook)); err != nil {
		return Config{}, fmt.Errorf("cfg: decoding %s: %w", path, err)
	}
	return c, nil
}

// MdsTimeout is the mds.rpcTimeoutMs key as a time.Duration.
func (c Config) MdsTimeout() time.Duration {
	return time.Duration(c.Mds.RpcTimeoutMs) * time.Millisecond
}

// MetaServerTimeout is the metaserver.rpcTimeoutMs key as a time.Duration.
func (c Config) MetaServerTimeout() time.Duration {
	return time.Duration(c.MetaServer.RpcTimeoutMs) * time.Millisecond
}

// SpaceServerTimeout is the spaceserver.rpcTimeoutMs key as a time.Duration.
func (c Config) SpaceServerTimeout() time.Duration {
	return time.Duration(c.SpaceServer.RpcTimeoutMs) * time.Millisecond
}

// DeferClose is the defer.close.second key as a time.Duration.
func (c Config) DeferClose() time.Duration {
	return time.Duration(c.Defer.Close.Second) * time.Second
}
