package container

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Pincode-App/internal/config"
)

func memoryConfig(cacheBackend string) *config.Config {
	return &config.Config{
		StoreBackend: config.StoreBackendMemory,
		CacheBackend: cacheBackend,
	}
}

func TestBuildStore(t *testing.T) {
	c, err := BuildStore(context.Background(), memoryConfig(config.CacheBackendMemory))
	require.NoError(t, err)
	defer c.Close()

	assert.NotNil(t, c.PincodeRepo)
	assert.NotNil(t, c.NearbyService)
	assert.Nil(t, c.CacheRepo, "キャッシュは組み立てない")
}

func TestBuild(t *testing.T) {
	t.Run("インメモリキャッシュ", func(t *testing.T) {
		c, err := Build(context.Background(), memoryConfig(config.CacheBackendMemory))
		require.NoError(t, err)
		defer c.Close()

		assert.NotNil(t, c.PincodeRepo)
		assert.NotNil(t, c.CacheRepo)
	})

	t.Run("キャッシュ無効", func(t *testing.T) {
		c, err := Build(context.Background(), memoryConfig(config.CacheBackendNone))
		require.NoError(t, err)
		defer c.Close()

		assert.Nil(t, c.CacheRepo)
	})

	t.Run("不明なバックエンド", func(t *testing.T) {
		_, err := Build(context.Background(), memoryConfig("redis"))
		assert.Error(t, err)

		_, err = Build(context.Background(), &config.Config{StoreBackend: "mysql"})
		assert.Error(t, err)
	})
}

func TestContainer_CloseRunsInReverseOrder(t *testing.T) {
	var order []int
	c := &Container{}
	c.closers = append(c.closers, func() { order = append(order, 1) }, func() { order = append(order, 2) })

	c.Close()
	c.Close()

	assert.Equal(t, []int{2, 1}, order)
}
