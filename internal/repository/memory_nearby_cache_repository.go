package repository

import (
	"context"
	"fmt"
	"sync"

	"Pincode-App/internal/domain/model"
	"Pincode-App/internal/domain/repository"
)

// MemoryNearbyCacheRepository メモリ上の近隣キャッシュ
type MemoryNearbyCacheRepository struct {
	mu      sync.RWMutex
	entries map[string]model.NearbyPincodesCache
}

func NewMemoryNearbyCacheRepository() repository.NearbyPincodesCacheRepository {
	return &MemoryNearbyCacheRepository{
		entries: make(map[string]model.NearbyPincodesCache),
	}
}

func (r *MemoryNearbyCacheRepository) Get(ctx context.Context, basePincode string) (*model.NearbyPincodesCache, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[basePincode]
	if !ok {
		return nil, fmt.Errorf("ピンコード %s: %w", basePincode, model.ErrCacheMiss)
	}
	entry.Nearby = append([]model.NearbyPincode(nil), entry.Nearby...)
	return &entry, nil
}

func (r *MemoryNearbyCacheRepository) Upsert(ctx context.Context, entry *model.NearbyPincodesCache) error {
	stored := *entry
	stored.Nearby = append([]model.NearbyPincode(nil), entry.Nearby...)

	r.mu.Lock()
	r.entries[entry.BasePincode] = stored
	r.mu.Unlock()
	return nil
}
