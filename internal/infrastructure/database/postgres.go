package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"
)

// PostgreSQLClient PostgreSQL直接接続クライアント（database/sql + lib/pq）
type PostgreSQLClient struct {
	DB *sql.DB
}

// NewPostgreSQLClient 新しいPostgreSQLクライアントを作成
func NewPostgreSQLClient(dsn string) (*PostgreSQLClient, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_URL環境変数が設定されていません")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("PostgreSQL接続の初期化に失敗: %w", err)
	}

	// 接続テスト
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("PostgreSQLへの接続に失敗: %w", err)
	}

	return &PostgreSQLClient{
		DB: db,
	}, nil
}

// NewPostgreSQLClientWithRetry 接続できるまでリトライしてPostgreSQLクライアントを作成
func NewPostgreSQLClientWithRetry(dsn string, maxAttempts int, interval time.Duration) (*PostgreSQLClient, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		client, err := NewPostgreSQLClient(dsn)
		if err == nil {
			if attempt > 1 {
				log.Printf("✅ PostgreSQL接続成功 (%d回目)", attempt)
			}
			return client, nil
		}
		lastErr = err
		log.Printf("⚠️ PostgreSQL接続失敗 (%d/%d): %v", attempt, maxAttempts, err)
		if attempt < maxAttempts {
			time.Sleep(interval)
		}
	}
	return nil, fmt.Errorf("PostgreSQLへの接続リトライ上限に到達: %w", lastErr)
}

// Close データベース接続を閉じる
func (pc *PostgreSQLClient) Close() error {
	if pc.DB != nil {
		return pc.DB.Close()
	}
	return nil
}

// HealthCheck データベース接続のヘルスチェック
func (pc *PostgreSQLClient) HealthCheck(ctx context.Context) error {
	if pc.DB == nil {
		return fmt.Errorf("PostgreSQLクライアントが初期化されていません")
	}
	return pc.DB.PingContext(ctx)
}
