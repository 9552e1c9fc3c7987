package model

import (
	"time"

	"github.com/paulmach/orb"
)

// Pincode 郵便番号（ピンコード）1件分のレコード
type Pincode struct {
	Code      string   `json:"pincode" db:"pincode"`               // ユニークなピンコード
	Latitude  *float64 `json:"latitude,omitempty" db:"latitude"`   // 緯度（NULLABLE）
	Longitude *float64 `json:"longitude,omitempty" db:"longitude"` // 経度（NULLABLE）
	StateName string   `json:"state_name" db:"state_name"`         // 州・連邦直轄領の名前
}

// NewPincode 座標付きのPincodeを作成
func NewPincode(code string, lat, lng float64, stateName string) Pincode {
	return Pincode{
		Code:      code,
		Latitude:  &lat,
		Longitude: &lng,
		StateName: stateName,
	}
}

// HasCoordinates 緯度・経度の両方が設定されているかチェック
func (p *Pincode) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// Point 座標をorb.Pointに変換（座標がない場合はfalse）
func (p *Pincode) Point() (orb.Point, bool) {
	if !p.HasCoordinates() {
		return orb.Point{}, false
	}
	return orb.Point{*p.Longitude, *p.Latitude}, true
}

// NearbyPincode 基準ピンコードからの距離付きの近隣ピンコード
type NearbyPincode struct {
	Code       string  `json:"pincode" firestore:"pincode"`
	DistanceKm float64 `json:"distance_km" firestore:"distance_km"`
}

// NearbyOptions 近隣検索の条件（ゼロ値はデフォルト値を意味する）
type NearbyOptions struct {
	RadiusKm float64
	Limit    int
}

const (
	DefaultRadiusKm = 10.0
	DefaultLimit    = 10
	MaxRadiusKm     = 100.0
	MaxLimit        = 100
	MaxCodeLength   = 10
)

// WithDefaults ゼロ値の項目をデフォルト値で埋めたコピーを返す
func (o NearbyOptions) WithDefaults() NearbyOptions {
	if o.RadiusKm == 0 {
		o.RadiusKm = DefaultRadiusKm
	}
	if o.Limit == 0 {
		o.Limit = DefaultLimit
	}
	return o
}

// NearbyPincodesCache 計算済みの近隣ピンコード一覧（基準ピンコードごとに1件）
type NearbyPincodesCache struct {
	BasePincode string          `json:"base_pincode"`
	RadiusKm    float64         `json:"radius_km"`
	Limit       int             `json:"limit"`
	Nearby      []NearbyPincode `json:"nearby_pincodes"`
	ComputedAt  time.Time       `json:"computed_at"`
}

// FirestoreNearbyPincodesCache Firestore保存用の構造体
type FirestoreNearbyPincodesCache struct {
	RadiusKm   float64         `firestore:"radius_km"`
	Limit      int             `firestore:"limit"`
	Nearby     []NearbyPincode `firestore:"nearby_pincodes"`
	ComputedAt time.Time       `firestore:"computed_at"`
	ExpireAt   time.Time       `firestore:"expireAt"`
}

func (c *NearbyPincodesCache) ToFirestoreNearbyPincodesCache(ttl time.Duration) *FirestoreNearbyPincodesCache {
	return &FirestoreNearbyPincodesCache{
		RadiusKm:   c.RadiusKm,
		Limit:      c.Limit,
		Nearby:     c.Nearby,
		ComputedAt: c.ComputedAt,
		ExpireAt:   c.ComputedAt.Add(ttl),
	}
}

func (f *FirestoreNearbyPincodesCache) ToNearbyPincodesCache(basePincode string) *NearbyPincodesCache {
	return &NearbyPincodesCache{
		BasePincode: basePincode,
		RadiusKm:    f.RadiusKm,
		Limit:       f.Limit,
		Nearby:      f.Nearby,
		ComputedAt:  f.ComputedAt,
	}
}

// ImportReport 一括インポートの結果
type ImportReport struct {
	ImportID   string `json:"import_id"`
	Source     string `json:"source"`
	Imported   int    `json:"imported"`
	Duplicates int    `json:"duplicates"`
	Skipped    int    `json:"skipped"`
	Failed     int    `json:"failed"`
}

// PrecomputeReport 近隣キャッシュ事前計算の結果
type PrecomputeReport struct {
	Total              int `json:"total"`
	Computed           int `json:"computed"`
	MissingCoordinates int `json:"missing_coordinates"`
	Failed             int `json:"failed"`
}
