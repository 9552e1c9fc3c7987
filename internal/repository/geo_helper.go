package repository

import (
	"database/sql"
	"sort"

	"Pincode-App/internal/domain/model"
)

// PincodeRow SQLの結果を受け取るための構造体（緯度経度はNULLABLE）
type PincodeRow struct {
	Code      string
	Latitude  sql.NullFloat64
	Longitude sql.NullFloat64
	StateName string
}

// ToPincode PincodeRowをmodel.Pincodeに変換
func (r *PincodeRow) ToPincode() model.Pincode {
	return model.Pincode{
		Code:      r.Code,
		Latitude:  nullFloatToPtr(r.Latitude),
		Longitude: nullFloatToPtr(r.Longitude),
		StateName: r.StateName,
	}
}

// nullFloatToPtr sql.NullFloat64を*float64に変換
func nullFloatToPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

// ptrToNullFloat *float64をsql.NullFloat64に変換
func ptrToNullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

// uniqueStates 州名の重複を取り除いてソートする
func uniqueStates(states []string) []string {
	seen := make(map[string]struct{}, len(states))
	result := make([]string, 0, len(states))
	for _, s := range states {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		result = append(result, s)
	}
	sort.Strings(result)
	return result
}
