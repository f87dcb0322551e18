package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// RenderCache holds fragments cached directly under a remote identifier,
// outside the query cache. Invalidating the identifier drops its entry.
type RenderCache struct {
	lru *lru.Cache[string, []byte]
}

func NewRenderCache(size int) (*RenderCache, error) {
	c, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}
	return &RenderCache{lru: c}, nil
}

func MustNewRenderCache(size int) *RenderCache {
	c, err := NewRenderCache(size)
	if err != nil {
		panic(err)
	}
	return c
}

func (r *RenderCache) Get(id string) ([]byte, bool) {
	return r.lru.Get(id)
}

func (r *RenderCache) Set(id string, value []byte) {
	r.lru.Add(id, value)
}

func (r *RenderCache) Remove(ids ...string) {
	for _, id := range ids {
		r.lru.Remove(id)
	}
}

func (r *RenderCache) Purge() {
	r.lru.Purge()
}

func (r *RenderCache) Len() int {
	return r.lru.Len()
}
