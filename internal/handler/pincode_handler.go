package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"Pincode-App/internal/domain/model"
	"Pincode-App/internal/domain/service"
	"Pincode-App/internal/usecase"

	"github.com/gin-gonic/gin"
)

// PincodeHandler ピンコード検索APIのハンドラー
type PincodeHandler struct {
	nearbyUseCase  usecase.NearbyPincodeUseCase
	locator        *service.PincodeLocator
	defaultOptions model.NearbyOptions
}

// NewPincodeHandler 新しいPincodeHandlerインスタンスを作成
// locatorがnilの場合 /locate は404を返す
func NewPincodeHandler(nearbyUseCase usecase.NearbyPincodeUseCase, locator *service.PincodeLocator, defaultOptions model.NearbyOptions) *PincodeHandler {
	return &PincodeHandler{
		nearbyUseCase:  nearbyUseCase,
		locator:        locator,
		defaultOptions: defaultOptions.WithDefaults(),
	}
}

// GetNearbyPincodes 周辺ピンコードを検索する
// GET /pincodes/:pincode/nearby?radius_km=&limit=
func (h *PincodeHandler) GetNearbyPincodes(c *gin.Context) {
	opts, err := h.parseNearbyOptions(c)
	if err != nil {
		respondError(c, err)
		return
	}

	response, err := h.nearbyUseCase.FindNearby(c.Request.Context(), c.Param("pincode"), opts)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetPincode ピンコードのレコードを返す
// GET /pincodes/:pincode
func (h *PincodeHandler) GetPincode(c *gin.Context) {
	pincode, err := h.nearbyUseCase.GetPincode(c.Request.Context(), c.Param("pincode"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pincode)
}

// GetCachedNearbyPincodes キャッシュ済みの周辺ピンコードを返す
// GET /pincodes/:pincode/nearby/cache
func (h *PincodeHandler) GetCachedNearbyPincodes(c *gin.Context) {
	entry, err := h.nearbyUseCase.GetCachedNearby(c.Request.Context(), c.Param("pincode"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// GetNeighborStates 隣接州の一覧を返す
// GET /states/:state/neighbors
func (h *PincodeHandler) GetNeighborStates(c *gin.Context) {
	c.JSON(http.StatusOK, h.nearbyUseCase.NeighborStates(c.Param("state")))
}

// Locate 座標に最も近いピンコードを返す
// GET /locate?lat=&lon=
func (h *PincodeHandler) Locate(c *gin.Context) {
	if h.locator == nil {
		respondError(c, fmt.Errorf("locator is disabled: %w", model.ErrPincodeNotFound))
		return
	}

	lat, err := parseFloatQuery(c, "lat")
	if err != nil {
		respondError(c, err)
		return
	}
	lng, err := parseFloatQuery(c, "lon")
	if err != nil {
		respondError(c, err)
		return
	}

	nearest, err := h.locator.Nearest(lat, lng)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, &model.LocateResponse{
		Latitude:  lat,
		Longitude: lng,
		Pincode:   nearest.Code,
		Distance:  model.RoundDistance(nearest.DistanceKm),
	})
}

// parseNearbyOptions クエリパラメータから検索条件を組み立てる
func (h *PincodeHandler) parseNearbyOptions(c *gin.Context) (model.NearbyOptions, error) {
	opts := h.defaultOptions

	// 0はデフォルト扱いになるため、明示指定された0はここで弾く
	if raw := strings.TrimSpace(c.Query("radius_km")); raw != "" {
		radius, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return opts, &model.ValidationError{Field: "radius_km", Message: "radius_km must be a number"}
		}
		if radius == 0 {
			return opts, &model.ValidationError{Field: "radius_km", Message: "radius must be greater than 0"}
		}
		opts.RadiusKm = radius
	}

	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return opts, &model.ValidationError{Field: "limit", Message: "limit must be an integer"}
		}
		if limit == 0 {
			return opts, &model.ValidationError{Field: "limit", Message: "limit must be between 1 and 100"}
		}
		opts.Limit = limit
	}

	return opts, nil
}

func parseFloatQuery(c *gin.Context, name string) (float64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, &model.ValidationError{Field: name, Message: name + " parameter is required"}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &model.ValidationError{Field: name, Message: name + " must be a number"}
	}
	return v, nil
}

// respondError エラーの種類に応じたステータスコードでJSONを返す
func respondError(c *gin.Context, err error) {
	status, code := errorStatus(err)

	message := err.Error()
	var validationErr *model.ValidationError
	if errors.As(err, &validationErr) {
		message = validationErr.Error()
	}

	c.JSON(status, gin.H{
		"error":   code,
		"message": message,
	})
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, model.ErrPincodeNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, model.ErrCacheMiss):
		return http.StatusNotFound, "cache_miss"
	case errors.Is(err, model.ErrMissingCoordinates):
		return http.StatusUnprocessableEntity, "missing_coordinates"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
