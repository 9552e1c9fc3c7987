package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"Pincode-App/internal/config"
	"Pincode-App/internal/container"
	"Pincode-App/internal/domain/service"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("❌ 事前計算失敗: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("設定の読み込み失敗: %w", err)
	}
	if cfg.CacheBackend == config.CacheBackendNone {
		return errors.New("CACHE_BACKEND=none では事前計算できません")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := container.Build(ctx, cfg)
	if err != nil {
		return fmt.Errorf("依存関係の初期化失敗: %w", err)
	}
	defer deps.Close()

	codes, err := deps.PincodeRepo.ListCodes(ctx)
	if err != nil {
		return fmt.Errorf("ピンコード一覧の取得失敗: %w", err)
	}

	precomputer := service.NewNearbyPrecomputer(deps.NearbyService, deps.CacheRepo, cfg.PrecomputeWorkers, cfg.PrecomputeWritesPerSec)
	report, err := precomputer.Run(ctx, codes)
	if err != nil {
		return fmt.Errorf("事前計算が中断されました: %w", err)
	}

	log.Printf("✅ 事前計算完了: total=%d computed=%d missing_coordinates=%d failed=%d",
		report.Total, report.Computed, report.MissingCoordinates, report.Failed)
	return nil
}
