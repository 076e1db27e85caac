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

// Package dirbuffer is the directory-listing buffer pool: opaque,
// 32-bit-handle-addressed listing buffers created by opendir, filled on the
// first readdir, and destroyed in releasedir with their handle recycled for
// reuse.
//
// Two locks guard the pool's state: bufferMtx (a reader-writer lock over
// the index->Buffer map) and indexMtx (a plain mutex over the counter and
// recycle queue). The single global order is bufferMtx before indexMtx;
// every exported method acquires them in that order, never the reverse, to
// avoid deadlock between concurrent New and Release calls.
package dirbuffer

import (
	"sync"

	"github.com/curvefs-client/cfsclient/internal/metrics"
)

// Buffer is the opaque listing buffer a handle refers to.
type Buffer struct {
	Raw     []byte
	Size    int
	WasRead bool
}

// Pool owns every outstanding listing buffer for a mount.
type Pool struct {
	bufferMtx sync.RWMutex
	buffers   map[uint32]*Buffer

	indexMtx sync.Mutex
	next     uint32
	recycled []uint32
}

func New() *Pool {
	return &Pool{buffers: make(map[uint32]*Buffer)}
}

// New allocates a fresh, empty buffer and returns the handle referring to
// it: a recycled index if one is available, else the next unused index.
func (p *Pool) New() uint32 {
	p.bufferMtx.Lock()
	defer p.bufferMtx.Unlock()

	p.indexMtx.Lock()
	var idx uint32
	if n := len(p.recycled); n > 0 {
		idx = p.recycled[n-1]
		p.recycled = p.recycled[:n-1]
	} else {
		idx = p.next
		p.next++
	}
	p.indexMtx.Unlock()

	p.buffers[idx] = &Buffer{}
	metrics.ListingBuffersInUse.Inc()
	return idx
}

// Get returns the buffer for idx, or nil if idx is not currently owned by
// this pool.
func (p *Pool) Get(idx uint32) *Buffer {
	p.bufferMtx.RLock()
	defer p.bufferMtx.RUnlock()
	return p.buffers[idx]
}

// Release destroys the buffer contents for idx and pushes idx onto the
// recycle queue. The queue is FIFO: of several released indices, New hands
// back the one released longest ago first.
func (p *Pool) Release(idx uint32) {
	p.bufferMtx.Lock()
	defer p.bufferMtx.Unlock()

	if _, ok := p.buffers[idx]; !ok {
		return
	}
	delete(p.buffers, idx)
	metrics.ListingBuffersInUse.Dec()

	p.indexMtx.Lock()
	p.recycled = append([]uint32{idx}, p.recycled...)
	p.indexMtx.Unlock()
}

// FreeAll destroys every outstanding buffer and resets the pool to its
// initial empty state, including the recycle queue and the counter.
func (p *Pool) FreeAll() {
	p.bufferMtx.Lock()
	defer p.bufferMtx.Unlock()

	metrics.ListingBuffersInUse.Sub(float64(len(p.buffers)))
	p.buffers = make(map[uint32]*Buffer)

	p.indexMtx.Lock()
	p.next = 0
	p.recycled = nil
	p.indexMtx.Unlock()
}
