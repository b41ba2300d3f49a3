// Copyright 2025 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package fetch

import (
	"context"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/sunyihoo/evm-codec/step"
)

// Cached keeps responses of another fetcher in a GC friendly memory cache.
// A cache must only be shared by fetchers reading the same block.
// Cached 使用对垃圾回收友好的内存缓存保存另一个 fetcher 的响应。
type Cached struct {
	next  Fetcher
	cache *fastcache.Cache
}

// NewCached wraps next with a cache of at most size bytes.
func NewCached(next Fetcher, size int) *Cached {
	return &Cached{next: next, cache: fastcache.New(size)}
}

// Fetch implements Fetcher.
func (c *Cached) Fetch(ctx context.Context, req *step.Request) ([]byte, error) {
	key := requestKey(req)
	if blob, found := c.cache.HasGet(nil, key); found {
		cacheHitMeter.Mark(1)
		return blob, nil
	}
	cacheMissMeter.Mark(1)
	blob, err := c.next.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, blob)
	return blob, nil
}

// Reset drops all cached responses, e.g. when moving to another block.
func (c *Cached) Reset() {
	c.cache.Reset()
}

// requestKey is kind || address || slot.
func requestKey(req *step.Request) []byte {
	key := make([]byte, 0, 1+len(req.Address)+len(req.Slot))
	key = append(key, byte(req.Kind))
	key = append(key, req.Address[:]...)
	return append(key, req.Slot[:]...)
}
