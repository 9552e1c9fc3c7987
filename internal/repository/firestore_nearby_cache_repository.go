package repository

import (
	"context"
	"fmt"
	"log"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"Pincode-App/internal/domain/model"
	"Pincode-App/internal/domain/repository"
)

const nearbyPincodesCollection = "nearbyPincodes"

// FirestoreNearbyCacheRepository Firestoreを使用した近隣ピンコードキャッシュリポジトリ
// expireAtフィールドにFirestoreのTTLポリシーを設定して期限切れドキュメントを削除する
type FirestoreNearbyCacheRepository struct {
	client *firestore.Client
	ttl    time.Duration
}

// NewFirestoreNearbyCacheRepository 新しいFirestoreNearbyCacheRepositoryインスタンスを作成
func NewFirestoreNearbyCacheRepository(client *firestore.Client, ttl time.Duration) repository.NearbyPincodesCacheRepository {
	return &FirestoreNearbyCacheRepository{
		client: client,
		ttl:    ttl,
	}
}

// Get は基準ピンコードのキャッシュをFirestoreから取得する
func (r *FirestoreNearbyCacheRepository) Get(ctx context.Context, basePincode string) (*model.NearbyPincodesCache, error) {
	doc, err := r.client.Collection(nearbyPincodesCollection).Doc(basePincode).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("ピンコード %s: %w", basePincode, model.ErrCacheMiss)
		}
		return nil, fmt.Errorf("近隣キャッシュの取得に失敗しました: %w", err)
	}

	var data model.FirestoreNearbyPincodesCache
	if err := doc.DataTo(&data); err != nil {
		return nil, fmt.Errorf("データの変換に失敗しました: %w", err)
	}

	// TTLによる削除は即時ではないため期限切れはミス扱いにする
	if !data.ExpireAt.IsZero() && time.Now().After(data.ExpireAt) {
		return nil, fmt.Errorf("ピンコード %s (有効期限切れ): %w", basePincode, model.ErrCacheMiss)
	}

	return data.ToNearbyPincodesCache(basePincode), nil
}

// Upsert はドキュメントIDを基準ピンコードとして上書き保存する
func (r *FirestoreNearbyCacheRepository) Upsert(ctx context.Context, entry *model.NearbyPincodesCache) error {
	data := entry.ToFirestoreNearbyPincodesCache(r.ttl)
	if data.Nearby == nil {
		data.Nearby = []model.NearbyPincode{}
	}

	if _, err := r.client.Collection(nearbyPincodesCollection).Doc(entry.BasePincode).Set(ctx, data); err != nil {
		log.Printf("❌ Failed to save nearby cache %s: %v", entry.BasePincode, err)
		return fmt.Errorf("近隣キャッシュの保存に失敗しました: %w", err)
	}

	return nil
}
