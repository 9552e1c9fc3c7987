package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"Pincode-App/internal/application"
	"Pincode-App/internal/config"
	"Pincode-App/internal/container"
	"Pincode-App/internal/domain/model"
	"Pincode-App/internal/infrastructure/storage"
)

func main() {
	file := flag.String("file", "", "インポートするファイル (.csv, .csv.gz, .dbf)")
	bucket := flag.String("bucket", "", "S3互換ストレージのバケット名")
	object := flag.String("object", "", "バケット内のオブジェクト名 (.csv, .csv.gz)")
	format := flag.String("format", "", "csv または dbf（省略時は拡張子から判定）")
	flag.Parse()

	if err := run(*file, *bucket, *object, *format); err != nil {
		log.Fatalf("❌ インポート失敗: %v", err)
	}
}

func run(file, bucket, object, format string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("設定の読み込み失敗: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// インポートはストアだけを使う
	deps, err := container.BuildStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("依存関係の初期化失敗: %w", err)
	}
	defer deps.Close()

	importService := application.NewPincodeImportService(deps.PincodeRepo)

	report, err := importFrom(ctx, cfg, importService, file, bucket, object, format)
	if err != nil {
		return err
	}

	fmt.Printf("import_id=%s imported=%d duplicates=%d skipped=%d failed=%d\n",
		report.ImportID, report.Imported, report.Duplicates, report.Skipped, report.Failed)
	return nil
}

func importFrom(ctx context.Context, cfg *config.Config, importService application.PincodeImportService, file, bucket, object, format string) (*model.ImportReport, error) {
	switch {
	case bucket != "" || object != "":
		if bucket == "" || object == "" {
			return nil, fmt.Errorf("-bucket と -object は両方指定してください")
		}
		if detectFormat(object, format) == "dbf" {
			return nil, fmt.Errorf("DBFはローカルファイルのみ対応しています: %s", object)
		}

		source, err := storage.NewObjectSource(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioUseSSL)
		if err != nil {
			return nil, err
		}
		body, err := source.Open(ctx, bucket, object)
		if err != nil {
			return nil, err
		}
		defer body.Close()

		return importCSV(ctx, importService, body, object, bucket+"/"+object)

	case file != "":
		if detectFormat(file, format) == "dbf" {
			return importService.ImportDBF(ctx, file)
		}

		f, err := os.Open(file)
		if err != nil {
			return nil, fmt.Errorf("ファイルを開けません: %w", err)
		}
		defer f.Close()

		return importCSV(ctx, importService, f, file, file)

	default:
		return nil, fmt.Errorf("-file または -bucket/-object を指定してください")
	}
}

func importCSV(ctx context.Context, importService application.PincodeImportService, r io.Reader, name, source string) (*model.ImportReport, error) {
	reader, err := application.OpenDecompressed(r, name)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	return importService.ImportCSV(ctx, reader, source)
}

func detectFormat(name, format string) string {
	if format != "" {
		return strings.ToLower(format)
	}
	if strings.EqualFold(filepath.Ext(name), ".dbf") {
		return "dbf"
	}
	return "csv"
}
