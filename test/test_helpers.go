package test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"

	"Pincode-App/internal/domain/model"
	"Pincode-App/internal/infrastructure/database"
)

// setupTestEnvironment は統一されたテスト環境のセットアップを行う
func setupTestEnvironment() {
	// CI環境等では.envが存在しない場合があるため無視する
	_ = godotenv.Load("../.env")
}

// requireEnv は必要な環境変数が未設定ならテストをスキップする
func requireEnv(t *testing.T, keys ...string) map[string]string {
	t.Helper()
	setupTestEnvironment()

	values := make(map[string]string, len(keys))
	for _, key := range keys {
		v := os.Getenv(key)
		if v == "" {
			t.Skipf("%s が設定されていません。統合テストをスキップします。", key)
		}
		values[key] = v
	}
	return values
}

// setupTestPostgres はリトライ付きでPostgreSQLへ接続する
func setupTestPostgres(t *testing.T) *database.PostgreSQLClient {
	t.Helper()
	env := requireEnv(t, "DATABASE_URL")

	// 接続テストでは短いリトライ間隔を使用
	client, err := database.NewPostgreSQLClientWithRetry(env["DATABASE_URL"], 5, 1*time.Second)
	if err != nil {
		t.Fatalf("PostgreSQLへの接続に失敗: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

// testPincodeCode はテスト実行ごとに衝突しないピンコードを作る
func testPincodeCode(prefix string, i int) string {
	return fmt.Sprintf("%s%05d%d", prefix, time.Now().UnixNano()%100000, i)
}

// deleteTestPincodes はテストで登録したレコードを削除する
func deleteTestPincodes(ctx context.Context, client *database.PostgreSQLClient, pincodes []model.Pincode) {
	for _, p := range pincodes {
		_, _ = client.DB.ExecContext(ctx, `DELETE FROM pincodes WHERE pincode = $1`, p.Code)
		_, _ = client.DB.ExecContext(ctx, `DELETE FROM nearby_pincodes WHERE base_pincode = $1`, p.Code)
	}
}
