package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxClient pgxpoolによるPostgreSQL接続クライアント
type PgxClient struct {
	Pool *pgxpool.Pool
}

// NewPgxClient 新しいPgxClientを作成
func NewPgxClient(ctx context.Context, dsn string) (*PgxClient, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_URL環境変数が設定されていません")
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpoolの初期化に失敗: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("PostgreSQLへの接続に失敗: %w", err)
	}

	return &PgxClient{Pool: pool}, nil
}

// Close コネクションプールを閉じる
func (pc *PgxClient) Close() {
	if pc.Pool != nil {
		pc.Pool.Close()
	}
}
