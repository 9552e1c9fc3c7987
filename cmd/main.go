package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"Pincode-App/internal/config"
	"Pincode-App/internal/container"
	"Pincode-App/internal/domain/service"
	"Pincode-App/internal/handler"
	"Pincode-App/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ 設定の読み込み失敗: %v", err)
	}
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Println("Initializing dependencies...")
	deps, err := container.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("❌ 依存関係の初期化失敗: %v", err)
	}
	defer deps.Close()

	// 座標→最寄りピンコードのインデックス（起動時に一度だけ構築）
	var locator *service.PincodeLocator
	if cfg.LocatorEnabled {
		pincodes, err := deps.PincodeRepo.ListWithCoordinates(ctx)
		if err != nil {
			log.Printf("⚠️ ロケーター構築用データの取得に失敗しました。/locate は無効になります: %v", err)
		} else {
			locator = service.NewPincodeLocator(pincodes)
		}
	}

	nearbyUseCase := usecase.NewNearbyPincodeUseCase(deps.NearbyService, deps.PincodeRepo, deps.CacheRepo)
	pincodeHandler := handler.NewPincodeHandler(nearbyUseCase, locator, cfg.DefaultOptions)
	router := handler.NewRouter(pincodeHandler, cfg.DefaultPincode)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("🚀 Pincode-App server starting on :%s...", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ サーバー起動失敗: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️ サーバー停止時のエラー: %v", err)
	}
	log.Println("✅ Server stopped")
}
