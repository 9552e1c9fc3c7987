package model

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNearbyOptions_WithDefaults(t *testing.T) {
	opts := NearbyOptions{}.WithDefaults()
	assert.Equal(t, DefaultRadiusKm, opts.RadiusKm)
	assert.Equal(t, DefaultLimit, opts.Limit)

	opts = NearbyOptions{RadiusKm: 5, Limit: 3}.WithDefaults()
	assert.Equal(t, 5.0, opts.RadiusKm)
	assert.Equal(t, 3, opts.Limit)
}

func TestPincode_Point(t *testing.T) {
	p := NewPincode("400706", 19.03, 73.01, "Maharashtra")
	point, ok := p.Point()
	assert.True(t, ok)
	assert.Equal(t, 73.01, point.Lon())
	assert.Equal(t, 19.03, point.Lat())

	lat := 19.0
	partial := Pincode{Code: "400001", Latitude: &lat}
	_, ok = partial.Point()
	assert.False(t, ok)
	assert.False(t, partial.HasCoordinates())
}

func TestValidationError_IsInvalidInput(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &ValidationError{Field: "pincode", Message: "pincode is required"})

	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.False(t, errors.Is(err, ErrPincodeNotFound))

	var validationErr *ValidationError
	assert.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "pincode", validationErr.Field)
	assert.Equal(t, "pincode: pincode is required", validationErr.Error())
}

func TestNewNearbyPincodesResponse(t *testing.T) {
	base := NewPincode("A", 19.0, 72.8, "Maharashtra")
	nearby := []NearbyPincode{
		{Code: "B", DistanceKm: 1.530274},
		{Code: "C", DistanceKm: 2.006},
	}

	res := NewNearbyPincodesResponse(&base, NearbyOptions{RadiusKm: 10, Limit: 10}, nearby)

	assert.Equal(t, "A", res.BasePincode)
	assert.Equal(t, "Maharashtra", res.StateName)
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, "B", res.NearbyPincodes[0].Pincode)
	assert.Equal(t, 1.53, res.NearbyPincodes[0].Distance)
	assert.Equal(t, 2.01, res.NearbyPincodes[1].Distance)

	empty := NewNearbyPincodesResponse(&base, NearbyOptions{RadiusKm: 10, Limit: 10}, nil)
	assert.NotNil(t, empty.NearbyPincodes)
	assert.Equal(t, 0, empty.Count)
}

func TestFirestoreNearbyPincodesCache_ExpireAt(t *testing.T) {
	computedAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	entry := &NearbyPincodesCache{
		BasePincode: "400706",
		RadiusKm:    10,
		Limit:       10,
		Nearby:      []NearbyPincode{{Code: "400703", DistanceKm: 2.1}},
		ComputedAt:  computedAt,
	}

	doc := entry.ToFirestoreNearbyPincodesCache(24 * time.Hour)
	assert.Equal(t, computedAt.Add(24*time.Hour), doc.ExpireAt)

	back := doc.ToNearbyPincodesCache("400706")
	assert.Equal(t, entry, back)
}
