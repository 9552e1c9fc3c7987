package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"Pincode-App/internal/domain/model"
	"Pincode-App/internal/domain/repository"
	"Pincode-App/internal/domain/service"
)

type NearbyPincodeUseCase interface {
	// FindNearby は近隣ピンコードを計算し、結果をキャッシュへ書き込んでから返す
	FindNearby(ctx context.Context, code string, opts model.NearbyOptions) (*model.NearbyPincodesResponse, error)

	// GetPincode はピンコードのレコードを取得する
	GetPincode(ctx context.Context, code string) (*model.Pincode, error)

	// GetCachedNearby はキャッシュ済みの近隣一覧を取得する
	GetCachedNearby(ctx context.Context, code string) (*model.NearbyPincodesCache, error)

	// NeighborStates は州の隣接州一覧を返す
	NeighborStates(state string) *model.NeighborStatesResponse
}

// nearbyPincodeUseCaseImpl はNearbyPincodeUseCaseの実装
type nearbyPincodeUseCaseImpl struct {
	nearbyService service.NearbyPincodeService
	pincodeRepo   repository.PincodesRepository
	cacheRepo     repository.NearbyPincodesCacheRepository
	now           func() time.Time
}

// NewNearbyPincodeUseCase は新しいNearbyPincodeUseCaseインスタンスを作成
// cacheRepoがnilの場合はキャッシュへの書き込みを行わない
func NewNearbyPincodeUseCase(
	nearbyService service.NearbyPincodeService,
	pincodeRepo repository.PincodesRepository,
	cacheRepo repository.NearbyPincodesCacheRepository,
) NearbyPincodeUseCase {
	return &nearbyPincodeUseCaseImpl{
		nearbyService: nearbyService,
		pincodeRepo:   pincodeRepo,
		cacheRepo:     cacheRepo,
		now:           time.Now,
	}
}

func (u *nearbyPincodeUseCaseImpl) FindNearby(ctx context.Context, code string, opts model.NearbyOptions) (*model.NearbyPincodesResponse, error) {
	code = strings.TrimSpace(code)
	opts = opts.WithDefaults()

	base, nearby, err := u.nearbyService.Lookup(ctx, code, opts)
	if err != nil {
		return nil, fmt.Errorf("近隣ピンコード検索に失敗: %w", err)
	}

	u.writeThrough(ctx, &model.NearbyPincodesCache{
		BasePincode: code,
		RadiusKm:    opts.RadiusKm,
		Limit:       opts.Limit,
		Nearby:      nearby,
		ComputedAt:  u.now().UTC(),
	})

	return model.NewNearbyPincodesResponse(base, opts, nearby), nil
}

// writeThrough はキャッシュへ書き込む（失敗してもログのみで検索結果には影響させない）
func (u *nearbyPincodeUseCaseImpl) writeThrough(ctx context.Context, entry *model.NearbyPincodesCache) {
	if u.cacheRepo == nil {
		return
	}
	if err := u.cacheRepo.Upsert(ctx, entry); err != nil {
		log.Printf("⚠️ 近隣キャッシュの保存に失敗 (pincode: %s): %v", entry.BasePincode, err)
		return
	}
	log.Printf("💾 近隣キャッシュ保存: %s (%d件)", entry.BasePincode, len(entry.Nearby))
}

func (u *nearbyPincodeUseCaseImpl) GetPincode(ctx context.Context, code string) (*model.Pincode, error) {
	code = strings.TrimSpace(code)
	if err := service.ValidatePincode(code); err != nil {
		return nil, err
	}
	pincode, err := u.pincodeRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("ピンコードの取得に失敗: %w", err)
	}
	return pincode, nil
}

func (u *nearbyPincodeUseCaseImpl) GetCachedNearby(ctx context.Context, code string) (*model.NearbyPincodesCache, error) {
	code = strings.TrimSpace(code)
	if err := service.ValidatePincode(code); err != nil {
		return nil, err
	}
	if u.cacheRepo == nil {
		return nil, fmt.Errorf("キャッシュが無効です: %w", model.ErrCacheMiss)
	}
	entry, err := u.cacheRepo.Get(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("近隣キャッシュの取得に失敗: %w", err)
	}
	return entry, nil
}

func (u *nearbyPincodeUseCaseImpl) NeighborStates(state string) *model.NeighborStatesResponse {
	return &model.NeighborStatesResponse{
		State:     state,
		Neighbors: u.nearbyService.NeighborStates(state),
	}
}
