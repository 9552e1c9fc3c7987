package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"Pincode-App/internal/domain/model"
	"Pincode-App/internal/domain/repository"
)

// NearbyPrecomputer は全ピンコードの近隣一覧を並行計算してキャッシュへ書き込む
type NearbyPrecomputer struct {
	nearbyService NearbyPincodeService
	cacheRepo     repository.NearbyPincodesCacheRepository
	limiter       *rate.Limiter
	workers       int
}

// NewNearbyPrecomputer は新しいNearbyPrecomputerを作成
// writesPerSec <= 0 の場合はキャッシュ書き込みを制限しない
func NewNearbyPrecomputer(nearbyService NearbyPincodeService, cacheRepo repository.NearbyPincodesCacheRepository, workers int, writesPerSec float64) *NearbyPrecomputer {
	if workers <= 0 {
		workers = 1
	}
	limit := rate.Inf
	burst := 1
	if writesPerSec > 0 {
		limit = rate.Limit(writesPerSec)
		burst = int(writesPerSec)
		if burst < 1 {
			burst = 1
		}
	}
	return &NearbyPrecomputer{
		nearbyService: nearbyService,
		cacheRepo:     cacheRepo,
		limiter:       rate.NewLimiter(limit, burst),
		workers:       workers,
	}
}

// Run は指定されたピンコードすべてについてデフォルト条件で近隣を計算し、キャッシュを更新する
func (p *NearbyPrecomputer) Run(ctx context.Context, codes []string) (*model.PrecomputeReport, error) {
	log.Printf("🚀 近隣キャッシュ事前計算開始: %d件 (workers: %d)", len(codes), p.workers)
	start := time.Now()

	report := &model.PrecomputeReport{Total: len(codes)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for _, code := range codes {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			opts := model.NearbyOptions{}.WithDefaults()
			nearby, err := p.nearbyService.FindNearby(gctx, code, opts)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				mu.Lock()
				defer mu.Unlock()
				if errors.Is(err, model.ErrMissingCoordinates) {
					report.MissingCoordinates++
				} else {
					report.Failed++
					log.Printf("⚠️ ピンコード %s の近隣計算に失敗: %v", code, err)
				}
				return nil
			}

			if err := p.limiter.Wait(gctx); err != nil {
				return err
			}
			entry := &model.NearbyPincodesCache{
				BasePincode: code,
				RadiusKm:    opts.RadiusKm,
				Limit:       opts.Limit,
				Nearby:      nearby,
				ComputedAt:  time.Now().UTC(),
			}
			if err := p.cacheRepo.Upsert(gctx, entry); err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				mu.Lock()
				report.Failed++
				mu.Unlock()
				log.Printf("⚠️ ピンコード %s のキャッシュ保存に失敗: %v", code, err)
				return nil
			}

			mu.Lock()
			report.Computed++
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return report, fmt.Errorf("事前計算が中断されました: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("事前計算が中断されました: %w", err)
	}

	log.Printf("✅ 近隣キャッシュ事前計算完了: %v (計算:%d, 座標なし:%d, 失敗:%d)",
		time.Since(start), report.Computed, report.MissingCoordinates, report.Failed)
	return report, nil
}
