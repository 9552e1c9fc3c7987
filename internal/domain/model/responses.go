package model

import "math"

// NearbyPincodesResponse GET /pincodes/:pincode/nearby のレスポンス
type NearbyPincodesResponse struct {
	BasePincode    string              `json:"base_pincode"`
	StateName      string              `json:"state_name"`
	RadiusKm       float64             `json:"radius_km"`
	Limit          int                 `json:"limit"`
	Count          int                 `json:"count"`
	NearbyPincodes []NearbyPincodeItem `json:"nearby_pincodes"`
}

// NearbyPincodeItem レスポンス用の近隣ピンコード（距離は小数第2位で丸める）
type NearbyPincodeItem struct {
	Pincode  string  `json:"pincode"`
	Distance float64 `json:"distance"`
}

// NewNearbyPincodesResponse 検索結果からレスポンスを作成
func NewNearbyPincodesResponse(base *Pincode, opts NearbyOptions, nearby []NearbyPincode) *NearbyPincodesResponse {
	items := make([]NearbyPincodeItem, len(nearby))
	for i, n := range nearby {
		items[i] = NearbyPincodeItem{
			Pincode:  n.Code,
			Distance: RoundDistance(n.DistanceKm),
		}
	}
	return &NearbyPincodesResponse{
		BasePincode:    base.Code,
		StateName:      base.StateName,
		RadiusKm:       opts.RadiusKm,
		Limit:          opts.Limit,
		Count:          len(items),
		NearbyPincodes: items,
	}
}

// RoundDistance 距離を小数第2位に丸める
func RoundDistance(km float64) float64 {
	return math.Round(km*100) / 100
}

// NeighborStatesResponse GET /states/:state/neighbors のレスポンス
type NeighborStatesResponse struct {
	State     string   `json:"state"`
	Neighbors []string `json:"neighbors"`
}

// LocateResponse GET /locate のレスポンス
type LocateResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Pincode   string  `json:"pincode"`
	Distance  float64 `json:"distance"`
}
