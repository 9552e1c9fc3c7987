package repository

import (
	"context"

	"Pincode-App/internal/domain/model"
)

type PincodesRepository interface {
	// GetByCode はピンコードでレコードを取得する（存在しない場合はmodel.ErrPincodeNotFound）
	GetByCode(ctx context.Context, code string) (*model.Pincode, error)
	// GetByStates は指定した州のいずれかに属するレコードをすべて取得する
	GetByStates(ctx context.Context, states []string) ([]model.Pincode, error)
	// ListCodes は登録済みピンコードをソートして返す
	ListCodes(ctx context.Context) ([]string, error)
	// ListWithCoordinates は緯度・経度が設定されたレコードをすべて返す
	ListWithCoordinates(ctx context.Context) ([]model.Pincode, error)
	// Create は新規登録する（重複時はmodel.ErrPincodeAlreadyExistsを返し既存レコードは変更しない）
	Create(ctx context.Context, pincode *model.Pincode) error
}
