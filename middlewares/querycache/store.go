package querycache

import (
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/patrickmn/go-cache"
)

// LRUStore 容量固定的缓存，适合热点查询集合有限的场景
type LRUStore struct {
	c *lru.Cache
}

func NewLRUStore(size int) (*LRUStore, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &LRUStore{c: c}, nil
}

func (s *LRUStore) Get(key string) (any, bool) {
	return s.c.Get(key)
}

func (s *LRUStore) Set(key string, val any) {
	s.c.Add(key, val)
}

// TTLStore 带过期时间的缓存，适合能容忍有界陈旧度的读
type TTLStore struct {
	c   *cache.Cache
	ttl time.Duration
}

func NewTTLStore(ttl, cleanup time.Duration) *TTLStore {
	return &TTLStore{
		c:   cache.New(ttl, cleanup),
		ttl: ttl,
	}
}

func (s *TTLStore) Get(key string) (any, bool) {
	return s.c.Get(key)
}

func (s *TTLStore) Set(key string, val any) {
	s.c.Set(key, val, s.ttl)
}
