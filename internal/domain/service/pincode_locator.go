package service

import (
	"fmt"
	"log"
	"math"
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"

	"Pincode-App/internal/domain/helper"
	"Pincode-App/internal/domain/model"
)

// 度数空間での近傍候補数（haversineで再ランキングする）
const locatorCandidates = 8

// pincodeItem R-treeに格納するピンコード
type pincodeItem struct {
	code  string
	point orb.Point
	rect  rtreego.Rect
}

func (p *pincodeItem) Bounds() rtreego.Rect {
	return p.rect
}

// PincodeLocator は座標から最寄りのピンコードを探すインメモリ空間インデックス
type PincodeLocator struct {
	tree *rtreego.Rtree
}

// NewPincodeLocator は座標を持つピンコードからR-treeを構築する
func NewPincodeLocator(pincodes []model.Pincode) *PincodeLocator {
	// dim = 2 (経度, 緯度), min = 25, max = 50
	tree := rtreego.NewTree(2, 25, 50)
	skipped := 0
	for i := range pincodes {
		point, ok := pincodes[i].Point()
		if !ok {
			skipped++
			continue
		}
		// 点として格納するため辺の長さはごく小さくする
		rect, err := rtreego.NewRect(rtreego.Point{point.Lon(), point.Lat()}, []float64{1e-9, 1e-9})
		if err != nil {
			skipped++
			continue
		}
		tree.Insert(&pincodeItem{
			code:  pincodes[i].Code,
			point: point,
			rect:  rect,
		})
	}
	log.Printf("🗺️ PincodeLocator構築完了: %d件 (座標なし %d件をスキップ)", tree.Size(), skipped)
	return &PincodeLocator{tree: tree}
}

// Size はインデックス内のピンコード数を返す
func (l *PincodeLocator) Size() int {
	return l.tree.Size()
}

// Nearest は指定座標に最も近いピンコードを返す
func (l *PincodeLocator) Nearest(lat, lng float64) (*model.NearbyPincode, error) {
	if math.IsNaN(lat) || math.IsNaN(lng) || !helper.ValidCoordinates(lat, lng) {
		return nil, &model.ValidationError{Field: "lat,lon", Message: "latitude must be within [-90, 90] and longitude within [-180, 180]"}
	}
	if l.tree.Size() == 0 {
		return nil, fmt.Errorf("ロケーターが空です: %w", model.ErrPincodeNotFound)
	}

	target := orb.Point{lng, lat}
	results := rankByDistance(target, l.tree.NearestNeighbors(locatorCandidates, rtreego.Point{lng, lat}))
	if len(results) == 0 {
		return nil, fmt.Errorf("最寄りピンコードが見つかりません: %w", model.ErrPincodeNotFound)
	}

	// 度数空間の近傍はkmの近傍と一致しないため、暫定の最短距離を含む範囲で検索し直す
	if bounds, err := searchBounds(lat, lng, results[0].DistanceKm); err == nil {
		if found := rankByDistance(target, l.tree.SearchIntersect(bounds)); len(found) > 0 {
			results = found
		}
	}
	return &results[0], nil
}

// rankByDistance R-treeの検索結果を大円距離→コードの順に並べる
func rankByDistance(target orb.Point, spatials []rtreego.Spatial) []model.NearbyPincode {
	results := make([]model.NearbyPincode, 0, len(spatials))
	for _, s := range spatials {
		item, ok := s.(*pincodeItem)
		if !ok || item == nil {
			continue
		}
		results = append(results, model.NearbyPincode{
			Code:       item.code,
			DistanceKm: helper.Distance(target, item.point),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].DistanceKm != results[j].DistanceKm {
			return results[i].DistanceKm < results[j].DistanceKm
		}
		return results[i].Code < results[j].Code
	})
	return results
}

// searchBounds 中心からkm以内の地点をすべて含む経度・緯度の矩形を返す
// 極や日付変更線をまたぐ場合は経度全体を対象にする
func searchBounds(lat, lng, km float64) (rtreego.Rect, error) {
	// 浮動小数点の誤差分だけ広げる
	angular := km/helper.EarthRadiusKm*(1+1e-6) + 1e-9

	latRad := lat * math.Pi / 180
	minLat, maxLat := latRad-angular, latRad+angular
	minLng, maxLng := -math.Pi, math.Pi

	if minLat > -math.Pi/2 && maxLat < math.Pi/2 {
		if ratio := math.Sin(angular) / math.Cos(latRad); ratio < 1 {
			dLng := math.Asin(ratio)
			lngRad := lng * math.Pi / 180
			if lngRad-dLng >= -math.Pi && lngRad+dLng <= math.Pi {
				minLng, maxLng = lngRad-dLng, lngRad+dLng
			}
		}
	}
	minLat = math.Max(minLat, -math.Pi/2)
	maxLat = math.Min(maxLat, math.Pi/2)

	toDeg := func(rad float64) float64 { return rad * 180 / math.Pi }
	return rtreego.NewRect(
		rtreego.Point{toDeg(minLng), toDeg(minLat)},
		[]float64{toDeg(maxLng - minLng), toDeg(maxLat - minLat)},
	)
}
