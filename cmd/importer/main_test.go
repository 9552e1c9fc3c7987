package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Pincode-App/internal/application"
	"Pincode-App/internal/config"
	repoimpl "Pincode-App/internal/repository"
)

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, "dbf", detectFormat("PINCODES.DBF", ""))
	assert.Equal(t, "csv", detectFormat("pincodes.csv.gz", ""))
	assert.Equal(t, "dbf", detectFormat("pincodes.bin", "DBF"))
}

func TestImportFrom(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{StoreBackend: config.StoreBackendMemory}
	importService := application.NewPincodeImportService(repoimpl.NewMemoryPincodesRepository())

	t.Run("ローカルのCSVファイル", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "pincodes.csv")
		require.NoError(t, os.WriteFile(path, []byte("pincode,lat,lon,state\n560001,12.97,77.59,Karnataka\n"), 0o600))

		report, err := importFrom(ctx, cfg, importService, path, "", "", "")
		require.NoError(t, err)
		assert.Equal(t, 1, report.Imported)
		assert.Equal(t, path, report.Source)
	})

	t.Run("入力元の指定が不正", func(t *testing.T) {
		_, err := importFrom(ctx, cfg, importService, "", "", "", "")
		assert.Error(t, err)

		_, err = importFrom(ctx, cfg, importService, "", "bucket", "", "")
		assert.Error(t, err)

		_, err = importFrom(ctx, cfg, importService, "", "bucket", "pincodes.dbf", "")
		assert.Error(t, err)

		_, err = importFrom(ctx, cfg, importService, filepath.Join(t.TempDir(), "missing.csv"), "", "", "")
		assert.Error(t, err)
	})
}
