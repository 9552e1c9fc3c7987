package repository

import (
	"context"

	"Pincode-App/internal/domain/model"
)

// NearbyPincodesCacheRepository は計算済み近隣ピンコードのキャッシュを扱う
type NearbyPincodesCacheRepository interface {
	Get(ctx context.Context, basePincode string) (*model.NearbyPincodesCache, error)
	// Upsert は同じ基準ピンコードのエントリを上書きする（後勝ち）
	Upsert(ctx context.Context, entry *model.NearbyPincodesCache) error
}
