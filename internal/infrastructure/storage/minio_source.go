package storage

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectSource S3互換ストレージ（MinIO等）上のインポート元ファイルを読み出す
type ObjectSource struct {
	client *minio.Client
}

// NewObjectSource 新しいObjectSourceを作成
func NewObjectSource(endpoint, accessKey, secretKey string, useSSL bool) (*ObjectSource, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("MINIO_ENDPOINT環境変数が設定されていません")
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("MinIOクライアントの初期化に失敗: %w", err)
	}

	return &ObjectSource{client: client}, nil
}

// Open はバケット内のオブジェクトを開く（呼び出し側でCloseすること）
func (s *ObjectSource) Open(ctx context.Context, bucket, object string) (io.ReadCloser, error) {
	if _, err := s.client.StatObject(ctx, bucket, object, minio.StatObjectOptions{}); err != nil {
		return nil, fmt.Errorf("オブジェクト %s/%s が見つかりません: %w", bucket, object, err)
	}

	obj, err := s.client.GetObject(ctx, bucket, object, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("オブジェクト %s/%s の取得に失敗: %w", bucket, object, err)
	}

	log.Printf("📦 インポート元オブジェクト: s3://%s/%s", bucket, object)
	return obj, nil
}
