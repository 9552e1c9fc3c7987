package model

import "errors"

var (
	// ErrPincodeNotFound 指定したピンコードが存在しない
	ErrPincodeNotFound = errors.New("pincode not found")
	// ErrMissingCoordinates ピンコードは存在するが緯度・経度が未設定
	ErrMissingCoordinates = errors.New("pincode has no coordinates")
	// ErrInvalidInput 入力値が不正
	ErrInvalidInput = errors.New("invalid input")
	// ErrPincodeAlreadyExists 同じピンコードが既に登録済み
	ErrPincodeAlreadyExists = errors.New("pincode already exists")
	// ErrCacheMiss 近隣キャッシュが存在しない
	ErrCacheMiss = errors.New("nearby cache entry not found")
)

// ValidationError はバリデーションエラーを表す
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Is errors.Is(err, ErrInvalidInput) で判定できるようにする
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}
