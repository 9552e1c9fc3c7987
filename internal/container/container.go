package container

import (
	"context"
	"fmt"
	"log"
	"time"

	"Pincode-App/internal/config"
	"Pincode-App/internal/domain/model"
	"Pincode-App/internal/domain/repository"
	"Pincode-App/internal/domain/service"
	"Pincode-App/internal/infrastructure/database"
	"Pincode-App/internal/infrastructure/firestore"
	repoimpl "Pincode-App/internal/repository"
)

// Container 設定に応じて組み立てた依存関係
type Container struct {
	PincodeRepo   repository.PincodesRepository
	CacheRepo     repository.NearbyPincodesCacheRepository
	NearbyService service.NearbyPincodeService

	postgresClient *database.PostgreSQLClient
	closers        []func()
}

// Build 設定からストア・キャッシュ・サービスを組み立てる
func Build(ctx context.Context, cfg *config.Config) (*Container, error) {
	c, err := BuildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := c.buildCache(ctx, cfg); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// BuildStore ピンコードストアと検索サービスだけを組み立てる（キャッシュは接続しない）
func BuildStore(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{}

	// ピンコードストア
	switch cfg.StoreBackend {
	case config.StoreBackendPostgres:
		client, err := c.postgres(cfg)
		if err != nil {
			c.Close()
			return nil, err
		}
		if err := repoimpl.EnsurePincodesSchema(ctx, client); err != nil {
			c.Close()
			return nil, err
		}
		c.PincodeRepo = repoimpl.NewPostgresPincodesRepository(client)
	case config.StoreBackendPgx:
		client, err := database.NewPgxClient(ctx, cfg.DatabaseURL)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.closers = append(c.closers, client.Close)
		repo, err := repoimpl.NewPgxPincodesRepository(ctx, client)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.PincodeRepo = repo
	case config.StoreBackendSupabase:
		client, err := database.NewSupabaseClient(cfg.SupabaseURL, cfg.SupabaseAnonKey)
		if err != nil {
			c.Close()
			return nil, err
		}
		if err := client.HealthCheck(); err != nil {
			log.Printf("⚠️ Supabaseヘルスチェック失敗: %v", err)
		}
		c.PincodeRepo = repoimpl.NewSupabasePincodesRepository(client)
	case config.StoreBackendMemory:
		log.Println("⚠️ インメモリストアを使用します（再起動でデータは消えます）")
		c.PincodeRepo = repoimpl.NewMemoryPincodesRepository()
	default:
		return nil, fmt.Errorf("不明な STORE_BACKEND: %q", cfg.StoreBackend)
	}
	log.Printf("✅ ピンコードストア初期化完了 (%s)", cfg.StoreBackend)

	c.NearbyService = service.NewNearbyPincodeService(c.PincodeRepo, model.DefaultAdjacencyTable())
	return c, nil
}

// buildCache 近隣キャッシュを組み立てる
func (c *Container) buildCache(ctx context.Context, cfg *config.Config) error {
	switch cfg.CacheBackend {
	case config.CacheBackendFirestore:
		client, err := firestore.NewFirestoreClient(ctx, cfg.FirestoreProjectID)
		if err != nil {
			return err
		}
		c.closers = append(c.closers, func() { client.Close() })
		c.CacheRepo = repoimpl.NewFirestoreNearbyCacheRepository(client.GetClient(), cfg.CacheTTL)
	case config.CacheBackendPostgres:
		client, err := c.postgres(cfg)
		if err != nil {
			return err
		}
		repo, err := repoimpl.NewPostgresNearbyCacheRepository(ctx, client)
		if err != nil {
			return err
		}
		c.CacheRepo = repo
	case config.CacheBackendMemory:
		c.CacheRepo = repoimpl.NewMemoryNearbyCacheRepository()
	case config.CacheBackendNone:
		log.Println("⚠️ 近隣キャッシュは無効です")
	default:
		return fmt.Errorf("不明な CACHE_BACKEND: %q", cfg.CacheBackend)
	}
	return nil
}

// postgres ストアとキャッシュで共有するPostgreSQLクライアントを返す
func (c *Container) postgres(cfg *config.Config) (*database.PostgreSQLClient, error) {
	if c.postgresClient != nil {
		return c.postgresClient, nil
	}
	client, err := database.NewPostgreSQLClientWithRetry(cfg.DatabaseURL, 5, 2*time.Second)
	if err != nil {
		return nil, err
	}
	c.postgresClient = client
	c.closers = append(c.closers, func() { client.Close() })
	return client, nil
}

// Close 接続をすべて閉じる
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}
