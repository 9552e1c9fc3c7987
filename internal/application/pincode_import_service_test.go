package application

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Valentin-Kaiser/go-dbase/dbase"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"Pincode-App/internal/domain/model"
	"Pincode-App/internal/domain/repository"
	repoimpl "Pincode-App/internal/repository"
)

func TestPincodeImportService_ImportCSV(t *testing.T) {
	ctx := context.Background()
	repo := repoimpl.NewMemoryPincodesRepository()
	svc := NewPincodeImportService(repo)

	csvData := strings.Join([]string{
		"Pin Code,Lat,Long,StateName",
		"400706.0,19.033,73.0297,Maharashtra",
		"400703,19.0771,72.9986,Maharashtra",
		"400703,1.0,1.0,Goa",
		",19.0,72.0,Maharashtra",
		"400099,,,Maharashtra",
		"400098,NaN,NaN,Maharashtra",
		"400097,abc,72.8,Maharashtra",
		"400096,95,72.8,Maharashtra",
		"400095,19.1,,Maharashtra",
	}, "\n")

	report, err := svc.ImportCSV(ctx, strings.NewReader(csvData), "test.csv")
	require.NoError(t, err)

	assert.NotEmpty(t, report.ImportID)
	assert.Equal(t, "test.csv", report.Source)
	assert.Equal(t, 3, report.Imported)
	assert.Equal(t, 1, report.Duplicates)
	assert.Equal(t, 3, report.Skipped)
	assert.Equal(t, 2, report.Failed)

	t.Run("末尾の.0を取り除く", func(t *testing.T) {
		p, err := repo.GetByCode(ctx, "400706")
		require.NoError(t, err)
		assert.Equal(t, "Maharashtra", p.StateName)
		assert.InDelta(t, 19.033, *p.Latitude, 1e-9)
	})

	t.Run("重複は最初の行を採用", func(t *testing.T) {
		p, err := repo.GetByCode(ctx, "400703")
		require.NoError(t, err)
		assert.Equal(t, "Maharashtra", p.StateName)
	})

	t.Run("片方だけの座標は保存して検索時に座標なし扱い", func(t *testing.T) {
		p, err := repo.GetByCode(ctx, "400095")
		require.NoError(t, err)
		assert.False(t, p.HasCoordinates())
	})

	t.Run("既に登録済みのピンコードは重複として数える", func(t *testing.T) {
		again, err := svc.ImportCSV(ctx, strings.NewReader("pincode,latitude,longitude\n400706,0,0\n"), "again.csv")
		require.NoError(t, err)
		assert.Equal(t, 0, again.Imported)
		assert.Equal(t, 1, again.Duplicates)
		assert.NotEqual(t, report.ImportID, again.ImportID)
	})
}

func TestPincodeImportService_ImportCSV_MissingColumns(t *testing.T) {
	svc := NewPincodeImportService(repoimpl.NewMemoryPincodesRepository())

	cases := []struct {
		name string
		data string
	}{
		{"ピンコード列なし", "lat,long\n19.0,72.8\n"},
		{"座標列なし", "pincode,statename\n400706,Maharashtra\n"},
		{"空ファイル", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			report, err := svc.ImportCSV(context.Background(), strings.NewReader(tc.data), "bad.csv")
			assert.Error(t, err)
			assert.Nil(t, report)
		})
	}
}

func TestPincodeImportService_ImportCSV_HeaderAliases(t *testing.T) {
	ctx := context.Background()
	repo := repoimpl.NewMemoryPincodesRepository()
	svc := NewPincodeImportService(repo)

	data := "\ufeff Postal Code , LATITUDE, lng ,State\n682001,9.97,76.28,Kerala\n"
	report, err := svc.ImportCSV(ctx, strings.NewReader(data), "aliases.csv")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Imported)

	p, err := repo.GetByCode(ctx, "682001")
	require.NoError(t, err)
	assert.Equal(t, "Kerala", p.StateName)
	assert.InDelta(t, 76.28, *p.Longitude, 1e-9)
}

// flakyPincodesRepository 指定したコードの初回Createだけ失敗させるストア
type flakyPincodesRepository struct {
	repository.PincodesRepository
	failOnce map[string]bool
}

func (r *flakyPincodesRepository) Create(ctx context.Context, p *model.Pincode) error {
	if r.failOnce[p.Code] {
		r.failOnce[p.Code] = false
		return errors.New("connection reset by peer")
	}
	return r.PincodesRepository.Create(ctx, p)
}

func TestPincodeImportService_ImportCSV_RetriesAfterStoreFailure(t *testing.T) {
	ctx := context.Background()
	repo := &flakyPincodesRepository{
		PincodesRepository: repoimpl.NewMemoryPincodesRepository(),
		failOnce:           map[string]bool{"400001": true},
	}
	svc := NewPincodeImportService(repo)

	data := "pincode,lat,lon,state\n400001,18.9388,72.8354,Maharashtra\n400001,18.94,72.84,Maharashtra\n"
	report, err := svc.ImportCSV(ctx, strings.NewReader(data), "flaky.csv")
	require.NoError(t, err)

	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Imported)
	assert.Equal(t, 0, report.Duplicates)

	p, err := repo.GetByCode(ctx, "400001")
	require.NoError(t, err)
	assert.InDelta(t, 18.94, *p.Latitude, 1e-9)
}

// writePincodeDBF テスト用のDBFファイルを作成してパスを返す
func writePincodeDBF(t *testing.T, rows []dbfFixtureRow) string {
	t.Helper()

	// go-dbaseは作成時にファイル名を大文字にするため、作業ディレクトリ内に相対パスで作る
	dir := t.TempDir()
	t.Chdir(dir)

	newColumn := func(name string, dataType dbase.DataType, length, decimals uint8) *dbase.Column {
		column, err := dbase.NewColumn(name, dataType, length, decimals, false)
		require.NoError(t, err)
		return column
	}

	table, err := dbase.NewTable(
		dbase.FoxPro,
		&dbase.Config{
			Filename:   "PINCODES.DBF",
			Converter:  dbase.NewDefaultConverter(charmap.Windows1252),
			TrimSpaces: true,
		},
		[]*dbase.Column{
			newColumn("PIN", dbase.Numeric, 6, 0),
			newColumn("LAT", dbase.Numeric, 10, 4),
			newColumn("LON", dbase.Numeric, 10, 4),
			newColumn("STATE", dbase.Character, 40, 0),
		},
		0,
		nil,
	)
	require.NoError(t, err)

	for _, r := range rows {
		// 列名は空白で埋められて保存されるため位置で指定する
		row := table.NewRow()
		require.NoError(t, row.Field(0).SetValue(r.pin))
		if r.lat != nil {
			require.NoError(t, row.Field(1).SetValue(*r.lat))
		}
		if r.lon != nil {
			require.NoError(t, row.Field(2).SetValue(*r.lon))
		}
		require.NoError(t, row.Field(3).SetValue(r.state))
		row.Deleted = r.deleted
		require.NoError(t, row.Add())
	}
	require.NoError(t, table.Close())

	return filepath.Join(dir, "PINCODES.DBF")
}

type dbfFixtureRow struct {
	pin      int64
	lat, lon *float64
	state    string
	deleted  bool
}

func TestPincodeImportService_ImportDBF(t *testing.T) {
	ctx := context.Background()
	coord := func(v float64) *float64 { return &v }

	path := writePincodeDBF(t, []dbfFixtureRow{
		{pin: 400001, lat: coord(18.9388), lon: coord(72.8354), state: "Maharashtra"},
		{pin: 400002, lat: coord(18.95), lon: coord(72.83), state: "Maharashtra", deleted: true},
		{pin: 400003, state: "Maharashtra"},
		{pin: 400001, lat: coord(19.5), lon: coord(73.5), state: "Goa"},
		{pin: 110001, lat: coord(28.6328), lon: coord(77.2197), state: "Delhi"},
	})

	repo := repoimpl.NewMemoryPincodesRepository()
	report, err := NewPincodeImportService(repo).ImportDBF(ctx, path)
	require.NoError(t, err)

	assert.NotEmpty(t, report.ImportID)
	assert.Equal(t, path, report.Source)
	assert.Equal(t, 2, report.Imported)
	assert.Equal(t, 1, report.Duplicates)
	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, 0, report.Failed)

	t.Run("数値のPIN列を文字列のピンコードとして保存", func(t *testing.T) {
		p, err := repo.GetByCode(ctx, "400001")
		require.NoError(t, err)
		assert.Equal(t, "Maharashtra", p.StateName)
		assert.InDelta(t, 18.9388, *p.Latitude, 1e-9)
		assert.InDelta(t, 72.8354, *p.Longitude, 1e-9)
	})

	t.Run("削除済みと座標なしの行は登録しない", func(t *testing.T) {
		_, err := repo.GetByCode(ctx, "400002")
		assert.ErrorIs(t, err, model.ErrPincodeNotFound)

		_, err = repo.GetByCode(ctx, "400003")
		assert.ErrorIs(t, err, model.ErrPincodeNotFound)
	})

	t.Run("存在しないファイル", func(t *testing.T) {
		_, err := NewPincodeImportService(repo).ImportDBF(ctx, filepath.Join(t.TempDir(), "MISSING.DBF"))
		assert.Error(t, err)
	})
}

func TestOpenDecompressed(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte("pincode,lat,lon\n560001,12.97,77.59\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	r, err := OpenDecompressed(&buf, "pincodes.csv.gz")
	require.NoError(t, err)
	defer r.Close()

	repo := repoimpl.NewMemoryPincodesRepository()
	report, err := NewPincodeImportService(repo).ImportCSV(context.Background(), r, "pincodes.csv.gz")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Imported)

	plain, err := OpenDecompressed(strings.NewReader("x"), "pincodes.csv")
	require.NoError(t, err)
	data, err := io.ReadAll(plain)
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))

	_, err = OpenDecompressed(strings.NewReader("not gzip"), "broken.gz")
	assert.Error(t, err)
}

func TestNormalizePincode(t *testing.T) {
	assert.Equal(t, "400706", NormalizePincode(" 400706.0 "))
	assert.Equal(t, "400706", NormalizePincode("400706"))
	assert.Equal(t, "AB.0", NormalizePincode("AB.0"))
	assert.Equal(t, "", NormalizePincode("  "))
}

func TestParseCoordinate(t *testing.T) {
	v, err := ParseCoordinate(" 19.5 ", 90)
	require.NoError(t, err)
	assert.Equal(t, 19.5, *v)

	for _, raw := range []string{"", "NaN", "nan", "null"} {
		v, err := ParseCoordinate(raw, 90)
		assert.NoError(t, err)
		assert.Nil(t, v)
	}

	_, err = ParseCoordinate("north", 90)
	assert.Error(t, err)
	_, err = ParseCoordinate("181", 180)
	assert.Error(t, err)
	_, err = ParseCoordinate("Inf", 90)
	assert.Error(t, err)
}

func TestResolveColumns_StateIsOptional(t *testing.T) {
	columns, err := resolveColumns([]string{"pin", "lat", "lon"})
	require.NoError(t, err)
	assert.Equal(t, 0, columns.code)
	assert.Equal(t, -1, columns.state)
}
