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

// Package dentrycache is a write-through cache of (parent, name) -> Dentry,
// backed by the per-inode metadata service. It never claims success the
// remote rejected: every mutation hits the remote first, and the local map
// is only touched once that call has succeeded. There is no negative
// caching — a miss always means asking the remote.
package dentrycache

import (
	"context"
	"sync"

	"github.com/curvefs-client/cfsclient/internal/client"
	cerrors "github.com/curvefs-client/cfsclient/internal/errors"
	"github.com/curvefs-client/cfsclient/internal/inode"
	"github.com/curvefs-client/cfsclient/internal/metrics"
)

// DefaultMaxListCount is the page size used by List when the caller does
// not override it.
const DefaultMaxListCount = 10

// Cache is a two-level parent-inode-id -> name -> Dentry map guarded by a
// single mutex. The mutex is only ever held across local map mutation; it
// is never held while a remote call is in flight.
type Cache struct {
	meta client.MetaServerClient
	fsid uint32

	mu      sync.Mutex
	entries map[uint64]map[string]inode.Dentry
}

func New(meta client.MetaServerClient, fsid uint32) *Cache {
	return &Cache{meta: meta, fsid: fsid, entries: make(map[uint64]map[string]inode.Dentry)}
}

func (c *Cache) lookupLocal(parent uint64, name string) (inode.Dentry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	bucket, ok := c.entries[parent]
	if !ok {
		return inode.Dentry{}, false
	}
	d, ok := bucket[name]
	return d, ok
}

func (c *Cache) store(d inode.Dentry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	bucket, ok := c.entries[d.Parent]
	if !ok {
		bucket = make(map[string]inode.Dentry)
		c.entries[d.Parent] = bucket
	}
	if _, existed := bucket[d.Name]; !existed {
		metrics.DentryCacheSize.Inc()
	}
	bucket[d.Name] = d
}

func (c *Cache) evict(parent uint64, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	bucket, ok := c.entries[parent]
	if !ok {
		return
	}
	if _, existed := bucket[name]; !existed {
		return
	}
	delete(bucket, name)
	metrics.DentryCacheSize.Dec()
	if len(bucket) == 0 {
		delete(c.entries, parent)
	}
}

// Get returns the cached dentry if present, otherwise queries the metadata
// service, caches on success, and returns it. Fails with NotExist when the
// remote reports absence, Remote on transport failure.
func (c *Cache) Get(ctx context.Context, parent uint64, name string) (inode.Dentry, error) {
	if d, ok := c.lookupLocal(parent, name); ok {
		return d, nil
	}

	d, err := c.meta.GetDentry(ctx, c.fsid, parent, name)
	if err != nil {
		if cerrors.KindOf(err) == cerrors.NotExist {
			return inode.Dentry{}, cerrors.Wrap("dentrycache.Get", cerrors.NotExist, err)
		}
		return inode.Dentry{}, cerrors.Wrap("dentrycache.Get", cerrors.Remote, err)
	}

	c.store(d)
	return d, nil
}

// Create pushes d to the metadata service first; only on success is it
// inserted into the cache. Fails with AlreadyExist if the remote rejects
// the create; the cache is left untouched on any failure.
func (c *Cache) Create(ctx context.Context, d inode.Dentry) error {
	if err := c.meta.CreateDentry(ctx, d); err != nil {
		if cerrors.KindOf(err) == cerrors.AlreadyExist {
			return cerrors.Wrap("dentrycache.Create", cerrors.AlreadyExist, err)
		}
		return cerrors.Wrap("dentrycache.Create", cerrors.Remote, err)
	}
	c.store(d)
	return nil
}

// Delete issues the remote delete first; only on success is the local entry
// (and its now-possibly-empty parent bucket) removed.
func (c *Cache) Delete(ctx context.Context, parent uint64, name string) error {
	if err := c.meta.DeleteDentry(ctx, c.fsid, parent, name); err != nil {
		if cerrors.KindOf(err) == cerrors.NotExist {
			return cerrors.Wrap("dentrycache.Delete", cerrors.NotExist, err)
		}
		return cerrors.Wrap("dentrycache.Delete", cerrors.Remote, err)
	}
	c.evict(parent, name)
	return nil
}

// List performs a paged remote scan of parent's children with page size
// maxListCount, looping until a page comes back short. It is never served
// from cache: callers always see current remote state.
func (c *Cache) List(ctx context.Context, parent uint64, maxListCount int) ([]inode.Dentry, error) {
	if maxListCount <= 0 {
		maxListCount = DefaultMaxListCount
	}

	var all []inode.Dentry
	lastName := ""
	for {
		page, err := c.meta.ListDentry(ctx, c.fsid, parent, lastName, maxListCount)
		if err != nil {
			return nil, cerrors.Wrap("dentrycache.List", cerrors.Remote, err)
		}
		all = append(all, page...)
		if len(page) < maxListCount {
			break
		}
		lastName = page[len(page)-1].Name
	}
	return all, nil
}
