package helper

import (
	"github.com/paulmach/orb"
	"github.com/umahmood/haversine"

	"Pincode-App/internal/domain/model"
)

// EarthRadiusKm 距離計算に使う地球半径（haversineパッケージと同じ値）
const EarthRadiusKm = 6371.0

// Distance は2点間の大円距離をkm単位で返す（haversine公式、地球半径6371km）
func Distance(a, b orb.Point) float64 {
	_, km := haversine.Distance(
		haversine.Coord{Lat: a.Lat(), Lon: a.Lon()},
		haversine.Coord{Lat: b.Lat(), Lon: b.Lon()},
	)
	return km
}

// DistanceBetween は2つのピンコード間の距離を返す（どちらかに座標がなければfalse）
func DistanceBetween(p, q *model.Pincode) (float64, bool) {
	a, ok := p.Point()
	if !ok {
		return 0, false
	}
	b, ok := q.Point()
	if !ok {
		return 0, false
	}
	return Distance(a, b), true
}

// ValidCoordinates は緯度経度が有効範囲内かチェック
func ValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
