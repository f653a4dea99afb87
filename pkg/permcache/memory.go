package permcache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryBackend keeps one expiring LRU per region inside the process
type MemoryBackend struct {
	regions map[Region]*lru.LRU[string, []byte]
}

// NewMemoryBackend creates LRUs holding up to size entries per region for ttl
func NewMemoryBackend(size int, ttl time.Duration) *MemoryBackend {
	if size <= 0 {
		size = 1024
	}
	regions := make(map[Region]*lru.LRU[string, []byte], len(Regions))
	for _, region := range Regions {
		regions[region] = lru.NewLRU[string, []byte](size, nil, ttl)
	}
	return &MemoryBackend{regions: regions}
}

func (m *MemoryBackend) Get(ctx context.Context, region Region, key string) ([]byte, bool, error) {
	cache, ok := m.regions[region]
	if !ok {
		return nil, false, ErrUnknownRegion
	}
	value, ok := cache.Get(key)
	return value, ok, nil
}

func (m *MemoryBackend) Set(ctx context.Context, region Region, key string, value []byte) error {
	cache, ok := m.regions[region]
	if !ok {
		return ErrUnknownRegion
	}
	cache.Add(key, value)
	return nil
}

func (m *MemoryBackend) InvalidateRegion(ctx context.Context, region Region) error {
	cache, ok := m.regions[region]
	if !ok {
		return ErrUnknownRegion
	}
	cache.Purge()
	return nil
}

// Len reports the number of live entries in a region
func (m *MemoryBackend) Len(region Region) int {
	if cache, ok := m.regions[region]; ok {
		return cache.Len()
	}
	return 0
}
