package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"Pincode-App/internal/domain/model"
	"Pincode-App/internal/domain/repository"
	"Pincode-App/internal/infrastructure/database"
)

// PostgRESTの1リクエストあたりの最大取得件数
const supabasePageSize = 1000

type SupabasePincodesRepository struct {
	client *database.SupabaseClient
}

func NewSupabasePincodesRepository(client *database.SupabaseClient) repository.PincodesRepository {
	return &SupabasePincodesRepository{
		client: client,
	}
}

func (r *SupabasePincodesRepository) GetByCode(ctx context.Context, code string) (*model.Pincode, error) {
	var pincodes []model.Pincode
	data, _, err := r.client.GetClient().From("pincodes").Select("*", "", false).Eq("pincode", code).Execute()
	if err != nil {
		return nil, fmt.Errorf("ピンコードデータの取得失敗: %w", err)
	}

	if err := json.Unmarshal(data, &pincodes); err != nil {
		return nil, fmt.Errorf("ピンコードデータのJSONアンマーシャル失敗: %w", err)
	}

	if len(pincodes) == 0 {
		return nil, fmt.Errorf("ピンコード %s が見つかりません: %w", code, model.ErrPincodeNotFound)
	}

	return &pincodes[0], nil
}

func (r *SupabasePincodesRepository) GetByStates(ctx context.Context, states []string) ([]model.Pincode, error) {
	states = uniqueStates(states)
	result := make([]model.Pincode, 0)
	if len(states) == 0 {
		return result, nil
	}

	for from := 0; ; from += supabasePageSize {
		var page []model.Pincode
		data, _, err := r.client.GetClient().From("pincodes").
			Select("*", "", false).
			In("state_name", states).
			Range(from, from+supabasePageSize-1, "").
			Execute()
		if err != nil {
			return nil, fmt.Errorf("州別ピンコードデータの取得失敗: %w", err)
		}

		if err := json.Unmarshal(data, &page); err != nil {
			return nil, fmt.Errorf("ピンコードデータのJSONアンマーシャル失敗: %w", err)
		}

		result = append(result, page...)
		if len(page) < supabasePageSize {
			break
		}
	}

	return result, nil
}

func (r *SupabasePincodesRepository) ListCodes(ctx context.Context) ([]string, error) {
	type codeOnly struct {
		Code string `json:"pincode"`
	}

	codes := make([]string, 0)
	for from := 0; ; from += supabasePageSize {
		var page []codeOnly
		data, _, err := r.client.GetClient().From("pincodes").
			Select("pincode", "", false).
			Range(from, from+supabasePageSize-1, "").
			Execute()
		if err != nil {
			return nil, fmt.Errorf("ピンコード一覧の取得失敗: %w", err)
		}

		if err := json.Unmarshal(data, &page); err != nil {
			return nil, fmt.Errorf("ピンコード一覧のJSONアンマーシャル失敗: %w", err)
		}

		for _, c := range page {
			codes = append(codes, c.Code)
		}
		if len(page) < supabasePageSize {
			break
		}
	}

	sort.Strings(codes)
	return codes, nil
}

func (r *SupabasePincodesRepository) ListWithCoordinates(ctx context.Context) ([]model.Pincode, error) {
	result := make([]model.Pincode, 0)
	for from := 0; ; from += supabasePageSize {
		var page []model.Pincode
		data, _, err := r.client.GetClient().From("pincodes").
			Select("*", "", false).
			Not("latitude", "is", "null").
			Not("longitude", "is", "null").
			Range(from, from+supabasePageSize-1, "").
			Execute()
		if err != nil {
			return nil, fmt.Errorf("座標付きピンコードの取得失敗: %w", err)
		}

		if err := json.Unmarshal(data, &page); err != nil {
			return nil, fmt.Errorf("ピンコードデータのJSONアンマーシャル失敗: %w", err)
		}

		result = append(result, page...)
		if len(page) < supabasePageSize {
			break
		}
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

func (r *SupabasePincodesRepository) Create(ctx context.Context, pincode *model.Pincode) error {
	// 先に登録済みかを確認する（既存レコードは上書きしない）
	if _, err := r.GetByCode(ctx, pincode.Code); err == nil {
		return fmt.Errorf("ピンコード %s: %w", pincode.Code, model.ErrPincodeAlreadyExists)
	} else if !errors.Is(err, model.ErrPincodeNotFound) {
		return err
	}

	data, err := json.Marshal(pincode)
	if err != nil {
		return fmt.Errorf("ピンコードデータのJSONマーシャル失敗: %w", err)
	}

	_, _, err = r.client.GetClient().From("pincodes").Insert(string(data), false, "", "", "").Execute()
	if err != nil {
		return fmt.Errorf("ピンコードデータの作成失敗: %w", err)
	}

	return nil
}
