package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Pincode-App/internal/domain/model"
	"Pincode-App/internal/domain/service"
	repoimpl "Pincode-App/internal/repository"
)

func TestNearbyPrecomputer_Run(t *testing.T) {
	ctx := context.Background()
	pincodes := append(scenarioPincodes(), model.Pincode{Code: "D", StateName: "Maharashtra"})
	svc := newTestService(pincodes...)
	cache := repoimpl.NewMemoryNearbyCacheRepository()

	precomputer := service.NewNearbyPrecomputer(svc, cache, 4, 0)
	report, err := precomputer.Run(ctx, []string{"A", "B", "C", "D", "NOPE"})
	require.NoError(t, err)

	assert.Equal(t, 5, report.Total)
	assert.Equal(t, 3, report.Computed)
	assert.Equal(t, 1, report.MissingCoordinates)
	assert.Equal(t, 1, report.Failed)

	entry, err := cache.Get(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultRadiusKm, entry.RadiusKm)
	assert.Equal(t, model.DefaultLimit, entry.Limit)
	require.Len(t, entry.Nearby, 1)
	assert.Equal(t, "B", entry.Nearby[0].Code)

	entry, err = cache.Get(ctx, "C")
	require.NoError(t, err)
	assert.Empty(t, entry.Nearby)

	_, err = cache.Get(ctx, "D")
	assert.ErrorIs(t, err, model.ErrCacheMiss)
}

func TestNearbyPrecomputer_RateLimited(t *testing.T) {
	svc := newTestService(scenarioPincodes()...)
	cache := repoimpl.NewMemoryNearbyCacheRepository()

	precomputer := service.NewNearbyPrecomputer(svc, cache, 2, 1000)
	report, err := precomputer.Run(context.Background(), []string{"A", "B", "C"})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Computed)
}

func TestNearbyPrecomputer_Cancelled(t *testing.T) {
	svc := newTestService(scenarioPincodes()...)
	cache := repoimpl.NewMemoryNearbyCacheRepository()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	precomputer := service.NewNearbyPrecomputer(svc, cache, 2, 0)
	_, err := precomputer.Run(ctx, []string{"A", "B", "C"})
	assert.ErrorIs(t, err, context.Canceled)
}

type flakyCacheRepository struct {
	mu      sync.Mutex
	upserts int
}

func (r *flakyCacheRepository) Get(ctx context.Context, basePincode string) (*model.NearbyPincodesCache, error) {
	return nil, model.ErrCacheMiss
}

func (r *flakyCacheRepository) Upsert(ctx context.Context, entry *model.NearbyPincodesCache) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserts++
	return errors.New("write failed")
}

func TestNearbyPrecomputer_CacheWriteFailure(t *testing.T) {
	svc := newTestService(scenarioPincodes()...)
	cache := &flakyCacheRepository{}

	precomputer := service.NewNearbyPrecomputer(svc, cache, 2, 0)
	report, err := precomputer.Run(context.Background(), []string{"A", "B", "C"})
	require.NoError(t, err)
	assert.Equal(t, 0, report.Computed)
	assert.Equal(t, 3, report.Failed)
	assert.Equal(t, 3, cache.upserts)
}
