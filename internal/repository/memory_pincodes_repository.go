package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"Pincode-App/internal/domain/model"
	"Pincode-App/internal/domain/repository"
)

// MemoryPincodesRepository メモリ上のピンコードリポジトリ（開発・テスト用）
type MemoryPincodesRepository struct {
	mu      sync.RWMutex
	byCode  map[string]model.Pincode
	byState map[string][]string
}

func NewMemoryPincodesRepository(pincodes ...model.Pincode) repository.PincodesRepository {
	r := &MemoryPincodesRepository{
		byCode:  make(map[string]model.Pincode),
		byState: make(map[string][]string),
	}
	for i := range pincodes {
		_ = r.Create(context.Background(), &pincodes[i])
	}
	return r
}

func (r *MemoryPincodesRepository) GetByCode(ctx context.Context, code string) (*model.Pincode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byCode[code]
	if !ok {
		return nil, fmt.Errorf("ピンコード %s が見つかりません: %w", code, model.ErrPincodeNotFound)
	}
	return &p, nil
}

func (r *MemoryPincodesRepository) GetByStates(ctx context.Context, states []string) ([]model.Pincode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]model.Pincode, 0)
	for _, state := range uniqueStates(states) {
		for _, code := range r.byState[state] {
			result = append(result, r.byCode[code])
		}
	}
	return result, nil
}

func (r *MemoryPincodesRepository) ListCodes(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	codes := make([]string, 0, len(r.byCode))
	for code := range r.byCode {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes, nil
}

func (r *MemoryPincodesRepository) ListWithCoordinates(ctx context.Context) ([]model.Pincode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]model.Pincode, 0, len(r.byCode))
	for _, p := range r.byCode {
		if p.HasCoordinates() {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

func (r *MemoryPincodesRepository) Create(ctx context.Context, pincode *model.Pincode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byCode[pincode.Code]; exists {
		return fmt.Errorf("ピンコード %s: %w", pincode.Code, model.ErrPincodeAlreadyExists)
	}

	// 呼び出し側のポインタを共有しないようにコピーする
	stored := model.Pincode{Code: pincode.Code, StateName: pincode.StateName}
	if pincode.Latitude != nil {
		lat := *pincode.Latitude
		stored.Latitude = &lat
	}
	if pincode.Longitude != nil {
		lng := *pincode.Longitude
		stored.Longitude = &lng
	}

	r.byCode[stored.Code] = stored
	r.byState[stored.StateName] = append(r.byState[stored.StateName], stored.Code)
	return nil
}
