package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"Pincode-App/internal/domain/helper"
	"Pincode-App/internal/domain/model"
	"Pincode-App/internal/domain/repository"
)

// NearbyPincodeService は指定ピンコード周辺のピンコードを検索するサービス
type NearbyPincodeService interface {
	// FindNearby は半径内のピンコードを距離の昇順で最大limit件返す
	FindNearby(ctx context.Context, code string, opts model.NearbyOptions) ([]model.NearbyPincode, error)
	// Lookup はFindNearbyと同じ検索を行い、基準ピンコードのレコードも返す
	Lookup(ctx context.Context, code string, opts model.NearbyOptions) (*model.Pincode, []model.NearbyPincode, error)
	// Candidates は同じ州と隣接州に属するピンコードをすべて返す（基準ピンコード自身も含む）
	Candidates(ctx context.Context, state string) ([]model.Pincode, error)
	// NeighborStates は隣接州の一覧を返す
	NeighborStates(state string) []string
}

type nearbyPincodeServiceImpl struct {
	pincodeRepo repository.PincodesRepository
	adjacency   *model.AdjacencyTable
}

// NewNearbyPincodeService は新しいNearbyPincodeServiceインスタンスを作成
func NewNearbyPincodeService(pincodeRepo repository.PincodesRepository, adjacency *model.AdjacencyTable) NearbyPincodeService {
	return &nearbyPincodeServiceImpl{
		pincodeRepo: pincodeRepo,
		adjacency:   adjacency,
	}
}

func (s *nearbyPincodeServiceImpl) NeighborStates(state string) []string {
	return s.adjacency.NeighborStates(state)
}

func (s *nearbyPincodeServiceImpl) Candidates(ctx context.Context, state string) ([]model.Pincode, error) {
	candidates, err := s.pincodeRepo.GetByStates(ctx, s.adjacency.SearchStates(state))
	if err != nil {
		return nil, fmt.Errorf("候補ピンコードの取得失敗 (state: %s): %w", state, err)
	}
	return candidates, nil
}

func (s *nearbyPincodeServiceImpl) FindNearby(ctx context.Context, code string, opts model.NearbyOptions) ([]model.NearbyPincode, error) {
	_, nearby, err := s.Lookup(ctx, code, opts)
	return nearby, err
}

func (s *nearbyPincodeServiceImpl) Lookup(ctx context.Context, code string, opts model.NearbyOptions) (*model.Pincode, []model.NearbyPincode, error) {
	code = strings.TrimSpace(code)
	opts = opts.WithDefaults()
	if err := ValidateNearbyRequest(code, opts); err != nil {
		return nil, nil, err
	}

	base, err := s.pincodeRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, nil, fmt.Errorf("基準ピンコード %s の取得失敗: %w", code, err)
	}
	if !base.HasCoordinates() {
		return nil, nil, fmt.Errorf("基準ピンコード %s: %w", code, model.ErrMissingCoordinates)
	}

	candidates, err := s.Candidates(ctx, base.StateName)
	if err != nil {
		return nil, nil, err
	}

	nearby := make([]model.NearbyPincode, 0)
	for i := range candidates {
		candidate := &candidates[i]
		// 座標ではなくコードで自分自身を除外する（同じ座標の別ピンコードがありうる）
		if candidate.Code == base.Code {
			continue
		}
		distance, ok := helper.DistanceBetween(base, candidate)
		if !ok || distance > opts.RadiusKm {
			continue
		}
		nearby = append(nearby, model.NearbyPincode{Code: candidate.Code, DistanceKm: distance})
	}

	SortNearby(nearby)
	if len(nearby) > opts.Limit {
		nearby = nearby[:opts.Limit]
	}
	return base, nearby, nil
}

// SortNearby は距離の昇順、同距離ならピンコードの昇順に並べる
func SortNearby(nearby []model.NearbyPincode) {
	sort.SliceStable(nearby, func(i, j int) bool {
		if nearby[i].DistanceKm != nearby[j].DistanceKm {
			return nearby[i].DistanceKm < nearby[j].DistanceKm
		}
		return nearby[i].Code < nearby[j].Code
	})
}

// ValidateNearbyRequest は検索条件のバリデーションを行う（optsはデフォルト適用後の値）
func ValidateNearbyRequest(code string, opts model.NearbyOptions) error {
	if err := ValidatePincode(code); err != nil {
		return err
	}
	// NaNも弾くため否定形で判定する
	if !(opts.RadiusKm > 0 && opts.RadiusKm <= model.MaxRadiusKm) {
		return &model.ValidationError{Field: "radius_km", Message: fmt.Sprintf("radius must be greater than 0 and at most %.0f km", model.MaxRadiusKm)}
	}
	if opts.Limit <= 0 || opts.Limit > model.MaxLimit {
		return &model.ValidationError{Field: "limit", Message: fmt.Sprintf("limit must be between 1 and %d", model.MaxLimit)}
	}
	return nil
}

// ValidatePincode はピンコードの形式をチェック
func ValidatePincode(code string) error {
	if code == "" {
		return &model.ValidationError{Field: "pincode", Message: "pincode is required"}
	}
	if len(code) > model.MaxCodeLength {
		return &model.ValidationError{Field: "pincode", Message: fmt.Sprintf("pincode must be at most %d characters", model.MaxCodeLength)}
	}
	for _, r := range code {
		if r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return &model.ValidationError{Field: "pincode", Message: "pincode must be alphanumeric"}
		}
	}
	return nil
}
