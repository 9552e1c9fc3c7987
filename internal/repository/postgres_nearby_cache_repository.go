package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"Pincode-App/internal/domain/model"
	"Pincode-App/internal/domain/repository"
	"Pincode-App/internal/infrastructure/database"
)

const createNearbyPincodesTable = `CREATE TABLE IF NOT EXISTS nearby_pincodes(
	base_pincode varchar(10) primary key,
	radius_km double precision not null,
	result_limit integer not null,
	nearby jsonb not null,
	computed_at timestamptz not null
);`

// PostgresNearbyCacheRepository PostgreSQLを使用した近隣キャッシュリポジトリ
type PostgresNearbyCacheRepository struct {
	client *database.PostgreSQLClient
}

func NewPostgresNearbyCacheRepository(ctx context.Context, client *database.PostgreSQLClient) (repository.NearbyPincodesCacheRepository, error) {
	if _, err := client.DB.ExecContext(ctx, createNearbyPincodesTable); err != nil {
		return nil, fmt.Errorf("nearby_pincodesテーブルの作成失敗: %w", err)
	}
	return &PostgresNearbyCacheRepository{client: client}, nil
}

func (r *PostgresNearbyCacheRepository) Get(ctx context.Context, basePincode string) (*model.NearbyPincodesCache, error) {
	query := `SELECT base_pincode, radius_km, result_limit, nearby, computed_at FROM nearby_pincodes WHERE base_pincode = $1`

	var entry model.NearbyPincodesCache
	var nearbyJSON []byte
	err := r.client.DB.QueryRowContext(ctx, query, basePincode).
		Scan(&entry.BasePincode, &entry.RadiusKm, &entry.Limit, &nearbyJSON, &entry.ComputedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("ピンコード %s: %w", basePincode, model.ErrCacheMiss)
		}
		return nil, fmt.Errorf("近隣キャッシュの取得失敗: %w", err)
	}

	if err := json.Unmarshal(nearbyJSON, &entry.Nearby); err != nil {
		return nil, fmt.Errorf("近隣キャッシュのJSONBパースエラー: %w", err)
	}

	return &entry, nil
}

func (r *PostgresNearbyCacheRepository) Upsert(ctx context.Context, entry *model.NearbyPincodesCache) error {
	nearby := entry.Nearby
	if nearby == nil {
		nearby = []model.NearbyPincode{}
	}
	nearbyJSON, err := json.Marshal(nearby)
	if err != nil {
		return fmt.Errorf("近隣キャッシュのJSONマーシャルエラー: %w", err)
	}

	query := `INSERT INTO nearby_pincodes(base_pincode, radius_km, result_limit, nearby, computed_at)
		VALUES($1, $2, $3, $4, $5)
		ON CONFLICT (base_pincode) DO UPDATE SET
			radius_km = EXCLUDED.radius_km,
			result_limit = EXCLUDED.result_limit,
			nearby = EXCLUDED.nearby,
			computed_at = EXCLUDED.computed_at`

	if _, err := r.client.DB.ExecContext(ctx, query,
		entry.BasePincode, entry.RadiusKm, entry.Limit, string(nearbyJSON), entry.ComputedAt); err != nil {
		return fmt.Errorf("近隣キャッシュの保存失敗: %w", err)
	}

	return nil
}
