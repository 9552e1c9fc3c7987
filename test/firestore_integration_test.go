package test

import (
	"context"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Pincode-App/internal/domain/model"
	"Pincode-App/internal/infrastructure/firestore"
	"Pincode-App/internal/repository"
)

func TestFirestoreNearbyCacheRepository(t *testing.T) {
	env := requireEnv(t, "FIRESTORE_PROJECT_ID")
	log.Printf("🔧 テスト設定: FIRESTORE_PROJECT_ID=%s", env["FIRESTORE_PROJECT_ID"])

	ctx := context.Background()
	client, err := firestore.NewFirestoreClient(ctx, env["FIRESTORE_PROJECT_ID"])
	require.NoError(t, err, "Firestoreクライアントの初期化に失敗")
	defer client.Close()

	repo := repository.NewFirestoreNearbyCacheRepository(client.GetClient(), time.Hour)
	code := testPincodeCode("F", 1)
	t.Cleanup(func() {
		_, _ = client.GetClient().Collection("nearbyPincodes").Doc(code).Delete(ctx)
	})

	_, err = repo.Get(ctx, code)
	assert.ErrorIs(t, err, model.ErrCacheMiss)

	entry := &model.NearbyPincodesCache{
		BasePincode: code,
		RadiusKm:    10,
		Limit:       10,
		Nearby:      []model.NearbyPincode{{Code: "400703", DistanceKm: 2.3}},
		ComputedAt:  time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, repo.Upsert(ctx, entry))

	got, err := repo.Get(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, entry.Nearby, got.Nearby)
	assert.True(t, entry.ComputedAt.Equal(got.ComputedAt))

	log.Println("✅ FirestoreNearbyCacheRepositoryテスト完了")
}
