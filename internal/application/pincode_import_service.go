package application

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"strconv"
	"strings"

	"github.com/Valentin-Kaiser/go-dbase/dbase"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"

	"Pincode-App/internal/domain/model"
	"Pincode-App/internal/domain/repository"
	"Pincode-App/internal/domain/service"
)

// PincodeImportService 表形式データからピンコードを一括登録するサービス
type PincodeImportService interface {
	// ImportCSV CSVを読み込んでピンコードを登録
	ImportCSV(ctx context.Context, r io.Reader, source string) (*model.ImportReport, error)

	// ImportDBF dBASE(.dbf)ファイルを読み込んでピンコードを登録
	ImportDBF(ctx context.Context, path string) (*model.ImportReport, error)
}

// 列名の候補（小文字・前後空白除去後に比較）
var (
	codeColumnAliases      = []string{"pin code", "pincode", "pin", "postal code", "pin_code"}
	latitudeColumnAliases  = []string{"lat", "latitude"}
	longitudeColumnAliases = []string{"long", "lon", "lng", "longitude"}
	stateColumnAliases     = []string{"state", "statename", "state_name", "state name"}
)

// importColumns 各項目の列位置（-1は列なし）
type importColumns struct {
	code      int
	latitude  int
	longitude int
	state     int
}

// pincodeImportServiceImpl PincodeImportServiceの実装
type pincodeImportServiceImpl struct {
	pincodeRepo repository.PincodesRepository
}

// NewPincodeImportService PincodeImportServiceの新しいインスタンスを作成
func NewPincodeImportService(pincodeRepo repository.PincodesRepository) PincodeImportService {
	return &pincodeImportServiceImpl{
		pincodeRepo: pincodeRepo,
	}
}

// ImportCSV CSVを読み込んでピンコードを登録
func (s *pincodeImportServiceImpl) ImportCSV(ctx context.Context, r io.Reader, source string) (*model.ImportReport, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	// 1行目はヘッダー
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("ヘッダー行の読み込み失敗: %w", err)
	}

	columns, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	report := newImportReport(source)
	seen := make(map[string]struct{})
	line := 1

	for {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("インポートが中断されました: %w", err)
		}

		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++

		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			log.Printf("⚠️ %d行目の読み込みエラー: %v", line, err)
			report.Failed++
			continue
		} else if err != nil {
			return report, fmt.Errorf("CSVの読み込み失敗: %w", err)
		}

		s.importRow(ctx, report, seen, line,
			columnValue(fields, columns.code),
			columnValue(fields, columns.latitude),
			columnValue(fields, columns.longitude),
			columnValue(fields, columns.state),
		)
	}

	logImportReport(report)
	return report, nil
}

// ImportDBF dBASE(.dbf)ファイルを読み込んでピンコードを登録
func (s *pincodeImportServiceImpl) ImportDBF(ctx context.Context, path string) (*model.ImportReport, error) {
	table, err := dbase.OpenTable(&dbase.Config{
		Filename:   path,
		TrimSpaces: true,
	})
	if err != nil {
		return nil, fmt.Errorf("DBFファイル %s を開けません: %w", path, err)
	}
	defer table.Close()

	names := make([]string, 0)
	for _, column := range table.Columns() {
		names = append(names, column.Name())
	}

	columns, err := resolveColumns(names)
	if err != nil {
		return nil, err
	}

	report := newImportReport(path)
	seen := make(map[string]struct{})
	line := 0

	for !table.EOF() {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("インポートが中断されました: %w", err)
		}

		row, err := table.Next()
		if err != nil {
			return report, fmt.Errorf("DBFレコードの読み込み失敗: %w", err)
		}
		line++

		if row.Deleted {
			report.Skipped++
			continue
		}

		lat := dbfValue(row, columns.latitude)
		lng := dbfValue(row, columns.longitude)
		// 空の数値列は0として読まれるため、(0, 0)は座標なしとして扱う
		if isZeroCoordinate(lat) && isZeroCoordinate(lng) {
			lat, lng = "", ""
		}

		s.importRow(ctx, report, seen, line,
			dbfValue(row, columns.code),
			lat,
			lng,
			dbfValue(row, columns.state),
		)
	}

	logImportReport(report)
	return report, nil
}

// importRow 1行分のデータを検証して登録し、結果をreportに集計する
func (s *pincodeImportServiceImpl) importRow(ctx context.Context, report *model.ImportReport, seen map[string]struct{}, line int, rawCode, rawLat, rawLng, state string) {
	code := NormalizePincode(rawCode)
	lat, latErr := ParseCoordinate(rawLat, 90)
	lng, lngErr := ParseCoordinate(rawLng, 180)

	switch {
	case code == "":
		log.Printf("Skipping row %d due to missing pincode", line)
		report.Skipped++
		return
	case latErr != nil || lngErr != nil:
		log.Printf("⚠️ %d行目 (pincode: %s) の座標が不正です: %v", line, code, errors.Join(latErr, lngErr))
		report.Failed++
		return
	case lat == nil && lng == nil:
		log.Printf("Skipping row %d due to missing coordinates (pincode: %s)", line, code)
		report.Skipped++
		return
	}

	if err := service.ValidatePincode(code); err != nil {
		log.Printf("⚠️ %d行目のピンコードが不正です: %v", line, err)
		report.Failed++
		return
	}

	if _, dup := seen[code]; dup {
		report.Duplicates++
		return
	}

	pincode := &model.Pincode{
		Code:      code,
		Latitude:  lat,
		Longitude: lng,
		StateName: strings.TrimSpace(state),
	}
	if err := s.pincodeRepo.Create(ctx, pincode); err != nil {
		if errors.Is(err, model.ErrPincodeAlreadyExists) {
			seen[code] = struct{}{}
			report.Duplicates++
			return
		}
		// 登録に失敗したコードは後続の行で再度登録を試みる
		log.Printf("❌ Error importing pincode %s: %v", code, err)
		report.Failed++
		return
	}
	seen[code] = struct{}{}
	report.Imported++
}

// resolveColumns ヘッダーから各項目の列位置を決定する
func resolveColumns(header []string) (*importColumns, error) {
	columns := &importColumns{
		code:      findColumn(header, codeColumnAliases),
		latitude:  findColumn(header, latitudeColumnAliases),
		longitude: findColumn(header, longitudeColumnAliases),
		state:     findColumn(header, stateColumnAliases),
	}
	if columns.code < 0 {
		return nil, fmt.Errorf("ピンコード列が見つかりません (header: %v)", header)
	}
	if columns.latitude < 0 && columns.longitude < 0 {
		return nil, fmt.Errorf("緯度・経度の列が見つかりません (header: %v)", header)
	}
	return columns, nil
}

func findColumn(header []string, aliases []string) int {
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		for _, alias := range aliases {
			if name == alias {
				return i
			}
		}
	}
	return -1
}

func columnValue(fields []string, idx int) string {
	if idx < 0 || idx >= len(fields) {
		return ""
	}
	return fields[idx]
}

// dbfValue DBFレコードの列位置の値を文字列として取り出す
func dbfValue(row *dbase.Row, idx int) string {
	field := row.Field(idx)
	if field == nil {
		return ""
	}

	switch v := field.GetValue().(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int64:
		return strconv.FormatInt(v, 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int:
		return strconv.Itoa(v)
	default:
		return fmt.Sprint(v)
	}
}

func isZeroCoordinate(raw string) bool {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	return err == nil && v == 0
}

// NormalizePincode 前後の空白と、数値として読み込まれた場合の末尾".0"を取り除く
func NormalizePincode(raw string) string {
	code := strings.TrimSpace(raw)
	if digits, ok := strings.CutSuffix(code, ".0"); ok && digits != "" && isDigits(digits) {
		return digits
	}
	return code
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ParseCoordinate 座標文字列を解析する（空・NaN・nullは値なしとしてnilを返す）
func ParseCoordinate(raw string, limit float64) (*float64, error) {
	raw = strings.TrimSpace(raw)
	switch strings.ToLower(raw) {
	case "", "nan", "null", "none", "na":
		return nil, nil
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("数値に変換できません: %q", raw)
	}
	if math.IsNaN(v) {
		return nil, nil
	}
	if math.IsInf(v, 0) || v < -limit || v > limit {
		return nil, fmt.Errorf("範囲外の値です: %v", v)
	}
	return &v, nil
}

// OpenDecompressed ファイル名が.gzで終わる場合はgzipを展開するReaderを返す
func OpenDecompressed(r io.Reader, name string) (io.ReadCloser, error) {
	if !strings.HasSuffix(strings.ToLower(name), ".gz") {
		return io.NopCloser(r), nil
	}
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("gzipの展開に失敗: %w", err)
	}
	return zr, nil
}

func newImportReport(source string) *model.ImportReport {
	return &model.ImportReport{
		ImportID: uuid.New().String(),
		Source:   source,
	}
}

func logImportReport(report *model.ImportReport) {
	log.Printf("✅ Import complete! [%s] source=%s imported=%d duplicates=%d skipped=%d failed=%d",
		report.ImportID, report.Source, report.Imported, report.Duplicates, report.Skipped, report.Failed)
}
