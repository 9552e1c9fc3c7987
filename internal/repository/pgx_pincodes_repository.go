package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"Pincode-App/internal/domain/model"
	"Pincode-App/internal/domain/repository"
	"Pincode-App/internal/infrastructure/database"
)

// PgxPincodesRepository pgxpoolを使用したピンコードリポジトリ
type PgxPincodesRepository struct {
	client *database.PgxClient
}

func NewPgxPincodesRepository(ctx context.Context, client *database.PgxClient) (repository.PincodesRepository, error) {
	if _, err := client.Pool.Exec(ctx, createPincodesTable); err != nil {
		return nil, fmt.Errorf("pincodesテーブルの作成失敗: %w", err)
	}
	if _, err := client.Pool.Exec(ctx, createPincodesStateIndex); err != nil {
		return nil, fmt.Errorf("state_nameインデックスの作成失敗: %w", err)
	}

	return &PgxPincodesRepository{client: client}, nil
}

func (r *PgxPincodesRepository) GetByCode(ctx context.Context, code string) (*model.Pincode, error) {
	row := r.client.Pool.QueryRow(ctx, "SELECT pincode, latitude, longitude, state_name FROM pincodes WHERE pincode = $1", code)

	var p model.Pincode
	if err := row.Scan(&p.Code, &p.Latitude, &p.Longitude, &p.StateName); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("ピンコード %s が見つかりません: %w", code, model.ErrPincodeNotFound)
		}
		return nil, fmt.Errorf("ピンコードデータの取得失敗: %w", err)
	}

	return &p, nil
}

func (r *PgxPincodesRepository) GetByStates(ctx context.Context, states []string) ([]model.Pincode, error) {
	states = uniqueStates(states)
	if len(states) == 0 {
		return []model.Pincode{}, nil
	}

	rows, err := r.client.Pool.Query(ctx, "SELECT pincode, latitude, longitude, state_name FROM pincodes WHERE state_name = ANY($1)", states)
	if err != nil {
		return nil, fmt.Errorf("州別ピンコード検索失敗: %w", err)
	}
	defer rows.Close()

	pincodes := make([]model.Pincode, 0)
	for rows.Next() {
		var p model.Pincode
		if err := rows.Scan(&p.Code, &p.Latitude, &p.Longitude, &p.StateName); err != nil {
			return nil, fmt.Errorf("ピンコードデータスキャンエラー: %w", err)
		}
		pincodes = append(pincodes, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("行イテレーション中のエラー: %w", err)
	}

	return pincodes, nil
}

func (r *PgxPincodesRepository) ListCodes(ctx context.Context) ([]string, error) {
	rows, err := r.client.Pool.Query(ctx, "SELECT pincode FROM pincodes ORDER BY pincode")
	if err != nil {
		return nil, fmt.Errorf("ピンコード一覧の取得失敗: %w", err)
	}

	codes, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("ピンコード一覧のスキャン失敗: %w", err)
	}

	return codes, nil
}

func (r *PgxPincodesRepository) ListWithCoordinates(ctx context.Context) ([]model.Pincode, error) {
	rows, err := r.client.Pool.Query(ctx,
		"SELECT pincode, latitude, longitude, state_name FROM pincodes WHERE latitude IS NOT NULL AND longitude IS NOT NULL ORDER BY pincode")
	if err != nil {
		return nil, fmt.Errorf("座標付きピンコードの取得失敗: %w", err)
	}

	pincodes, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Pincode, error) {
		var p model.Pincode
		err := row.Scan(&p.Code, &p.Latitude, &p.Longitude, &p.StateName)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("座標付きピンコードのスキャン失敗: %w", err)
	}

	return pincodes, nil
}

func (r *PgxPincodesRepository) Create(ctx context.Context, pincode *model.Pincode) error {
	tag, err := r.client.Pool.Exec(ctx,
		"INSERT INTO pincodes(pincode, latitude, longitude, state_name) VALUES($1, $2, $3, $4) ON CONFLICT (pincode) DO NOTHING",
		pincode.Code, pincode.Latitude, pincode.Longitude, pincode.StateName)
	if err != nil {
		return fmt.Errorf("ピンコードデータの作成失敗: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ピンコード %s: %w", pincode.Code, model.ErrPincodeAlreadyExists)
	}

	return nil
}
