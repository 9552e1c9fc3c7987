package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"Pincode-App/internal/domain/model"
)

// ストアのバックエンド
const (
	StoreBackendPostgres = "postgres"
	StoreBackendPgx      = "pgx"
	StoreBackendSupabase = "supabase"
	StoreBackendMemory   = "memory"
)

// キャッシュのバックエンド
const (
	CacheBackendFirestore = "firestore"
	CacheBackendPostgres  = "postgres"
	CacheBackendMemory    = "memory"
	CacheBackendNone      = "none"
)

// Config アプリケーション設定
type Config struct {
	Port    string
	GinMode string

	StoreBackend    string
	DatabaseURL     string
	SupabaseURL     string
	SupabaseAnonKey string

	CacheBackend       string
	FirestoreProjectID string
	CacheTTL           time.Duration

	DefaultPincode string
	DefaultOptions model.NearbyOptions
	LocatorEnabled bool

	PrecomputeWorkers      int
	PrecomputeWritesPerSec float64

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioUseSSL    bool
}

// Load .envと環境変数から設定を読み込む
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ .env file not found, using system environment variables")
	}
	return FromEnv(os.Getenv)
}

// FromEnv 環境変数の取得関数から設定を組み立てる
func FromEnv(getenv func(string) string) (*Config, error) {
	r := &envReader{getenv: getenv}

	cfg := &Config{
		Port:               r.str("PORT", "8080"),
		GinMode:            r.str("GIN_MODE", ""),
		StoreBackend:       strings.ToLower(r.str("STORE_BACKEND", StoreBackendPostgres)),
		DatabaseURL:        r.str("DATABASE_URL", ""),
		SupabaseURL:        r.str("SUPABASE_URL", ""),
		SupabaseAnonKey:    r.str("SUPABASE_ANON_KEY", ""),
		CacheBackend:       strings.ToLower(r.str("CACHE_BACKEND", CacheBackendNone)),
		FirestoreProjectID: r.str("FIRESTORE_PROJECT_ID", ""),
		CacheTTL:           time.Duration(r.integer("CACHE_TTL_HOURS", 24*7)) * time.Hour,
		DefaultPincode:     r.str("DEFAULT_PINCODE", "400706"),
		DefaultOptions: model.NearbyOptions{
			RadiusKm: r.float("DEFAULT_RADIUS_KM", model.DefaultRadiusKm),
			Limit:    r.integer("DEFAULT_LIMIT", model.DefaultLimit),
		},
		LocatorEnabled:         r.boolean("LOCATOR_ENABLED", true),
		PrecomputeWorkers:      r.integer("PRECOMPUTE_WORKERS", 8),
		PrecomputeWritesPerSec: r.float("PRECOMPUTE_WRITES_PER_SEC", 50),
		MinioEndpoint:          r.str("MINIO_ENDPOINT", ""),
		MinioAccessKey:         r.str("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:         r.str("MINIO_SECRET_KEY", ""),
		MinioUseSSL:            r.boolean("MINIO_USE_SSL", true),
	}
	if r.err != nil {
		return nil, r.err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate バックエンドごとに必要な設定が揃っているかをチェック
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreBackendPostgres, StoreBackendPgx:
		if c.DatabaseURL == "" {
			return fmt.Errorf("STORE_BACKEND=%s には DATABASE_URL が必要です", c.StoreBackend)
		}
	case StoreBackendSupabase:
		if c.SupabaseURL == "" || c.SupabaseAnonKey == "" {
			return fmt.Errorf("STORE_BACKEND=supabase には SUPABASE_URL と SUPABASE_ANON_KEY が必要です")
		}
	case StoreBackendMemory:
	default:
		return fmt.Errorf("不明な STORE_BACKEND: %q", c.StoreBackend)
	}

	switch c.CacheBackend {
	case CacheBackendFirestore:
		if c.FirestoreProjectID == "" {
			return fmt.Errorf("CACHE_BACKEND=firestore には FIRESTORE_PROJECT_ID が必要です")
		}
	case CacheBackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("CACHE_BACKEND=postgres には DATABASE_URL が必要です")
		}
	case CacheBackendMemory, CacheBackendNone:
	default:
		return fmt.Errorf("不明な CACHE_BACKEND: %q", c.CacheBackend)
	}

	if !(c.DefaultOptions.RadiusKm > 0 && c.DefaultOptions.RadiusKm <= model.MaxRadiusKm) {
		return fmt.Errorf("DEFAULT_RADIUS_KM は0より大きく%.0f以下で指定してください", model.MaxRadiusKm)
	}
	if c.DefaultOptions.Limit <= 0 || c.DefaultOptions.Limit > model.MaxLimit {
		return fmt.Errorf("DEFAULT_LIMIT は1から%dの範囲で指定してください", model.MaxLimit)
	}
	if c.PrecomputeWorkers <= 0 {
		return fmt.Errorf("PRECOMPUTE_WORKERS は1以上で指定してください")
	}
	return nil
}

// envReader 最初のパースエラーを保持しながら環境変数を読む
type envReader struct {
	getenv func(string) string
	err    error
}

func (r *envReader) str(key, def string) string {
	if v := strings.TrimSpace(r.getenv(key)); v != "" {
		return v
	}
	return def
}

func (r *envReader) integer(key string, def int) int {
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return n
}

func (r *envReader) float(key string, def float64) float64 {
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return f
}

func (r *envReader) boolean(key string, def bool) bool {
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return b
}

func (r *envReader) fail(key, value string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("環境変数 %s の値が不正です (%q): %w", key, value, err)
	}
}
