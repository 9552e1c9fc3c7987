package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"Pincode-App/internal/domain/model"
	"Pincode-App/internal/domain/repository"
	"Pincode-App/internal/infrastructure/database"
)

const (
	createPincodesTable = `CREATE TABLE IF NOT EXISTS pincodes(
		pincode varchar(10) primary key,
		latitude double precision,
		longitude double precision,
		state_name varchar(100) not null default ''
	);`

	createPincodesStateIndex = `CREATE INDEX IF NOT EXISTS idx_pincodes_state_name ON pincodes(state_name);`
)

type PostgresPincodesRepository struct {
	client *database.PostgreSQLClient
}

func NewPostgresPincodesRepository(client *database.PostgreSQLClient) repository.PincodesRepository {
	return &PostgresPincodesRepository{
		client: client,
	}
}

// EnsurePincodesSchema pincodesテーブルとインデックスがなければ作成する
func EnsurePincodesSchema(ctx context.Context, client *database.PostgreSQLClient) error {
	if _, err := client.DB.ExecContext(ctx, createPincodesTable); err != nil {
		return fmt.Errorf("pincodesテーブルの作成失敗: %w", err)
	}
	if _, err := client.DB.ExecContext(ctx, createPincodesStateIndex); err != nil {
		return fmt.Errorf("state_nameインデックスの作成失敗: %w", err)
	}
	return nil
}

func (r *PostgresPincodesRepository) GetByCode(ctx context.Context, code string) (*model.Pincode, error) {
	query := `SELECT pincode, latitude, longitude, state_name FROM pincodes WHERE pincode = $1`

	var row PincodeRow
	err := r.client.DB.QueryRowContext(ctx, query, code).
		Scan(&row.Code, &row.Latitude, &row.Longitude, &row.StateName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("ピンコード %s が見つかりません: %w", code, model.ErrPincodeNotFound)
		}
		return nil, fmt.Errorf("ピンコードデータの取得失敗: %w", err)
	}

	pincode := row.ToPincode()
	return &pincode, nil
}

func (r *PostgresPincodesRepository) GetByStates(ctx context.Context, states []string) ([]model.Pincode, error) {
	states = uniqueStates(states)
	if len(states) == 0 {
		return []model.Pincode{}, nil
	}

	query := `SELECT pincode, latitude, longitude, state_name FROM pincodes WHERE state_name = ANY($1)`

	rows, err := r.client.DB.QueryContext(ctx, query, pq.Array(states))
	if err != nil {
		return nil, fmt.Errorf("州別ピンコード検索失敗: %w", err)
	}
	defer rows.Close()

	pincodes := make([]model.Pincode, 0)
	for rows.Next() {
		var row PincodeRow
		if err := rows.Scan(&row.Code, &row.Latitude, &row.Longitude, &row.StateName); err != nil {
			return nil, fmt.Errorf("ピンコードデータスキャンエラー: %w", err)
		}
		pincodes = append(pincodes, row.ToPincode())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("行イテレーション中のエラー: %w", err)
	}

	return pincodes, nil
}

func (r *PostgresPincodesRepository) ListCodes(ctx context.Context) ([]string, error) {
	rows, err := r.client.DB.QueryContext(ctx, `SELECT pincode FROM pincodes ORDER BY pincode`)
	if err != nil {
		return nil, fmt.Errorf("ピンコード一覧の取得失敗: %w", err)
	}
	defer rows.Close()

	codes := make([]string, 0)
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("ピンコードスキャンエラー: %w", err)
		}
		codes = append(codes, code)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("行イテレーション中のエラー: %w", err)
	}

	return codes, nil
}

func (r *PostgresPincodesRepository) ListWithCoordinates(ctx context.Context) ([]model.Pincode, error) {
	query := `SELECT pincode, latitude, longitude, state_name FROM pincodes
		WHERE latitude IS NOT NULL AND longitude IS NOT NULL ORDER BY pincode`

	rows, err := r.client.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("座標付きピンコードの取得失敗: %w", err)
	}
	defer rows.Close()

	pincodes := make([]model.Pincode, 0)
	for rows.Next() {
		var row PincodeRow
		if err := rows.Scan(&row.Code, &row.Latitude, &row.Longitude, &row.StateName); err != nil {
			return nil, fmt.Errorf("ピンコードデータスキャンエラー: %w", err)
		}
		pincodes = append(pincodes, row.ToPincode())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("行イテレーション中のエラー: %w", err)
	}

	return pincodes, nil
}

func (r *PostgresPincodesRepository) Create(ctx context.Context, pincode *model.Pincode) error {
	query := `INSERT INTO pincodes(pincode, latitude, longitude, state_name) VALUES($1, $2, $3, $4)
		ON CONFLICT (pincode) DO NOTHING`

	result, err := r.client.DB.ExecContext(ctx, query,
		pincode.Code, ptrToNullFloat(pincode.Latitude), ptrToNullFloat(pincode.Longitude), pincode.StateName)
	if err != nil {
		return fmt.Errorf("ピンコードデータの作成失敗: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ピンコードデータの作成結果の取得失敗: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("ピンコード %s: %w", pincode.Code, model.ErrPincodeAlreadyExists)
	}

	return nil
}
