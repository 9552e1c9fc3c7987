package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
)

// NewRouter ルーティングを設定したgin.Engineを作成
func NewRouter(pincodeHandler *PincodeHandler, defaultPincode string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	// ヘルスチェック
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "Pincode-App",
		})
	})

	// トップページはデフォルトピンコードの検索結果へリダイレクト
	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/pincodes/"+url.PathEscape(defaultPincode)+"/nearby")
	})

	// ピンコードAPI
	pincodes := router.Group("/pincodes")
	{
		pincodes.GET("/:pincode", pincodeHandler.GetPincode)
		pincodes.GET("/:pincode/nearby", pincodeHandler.GetNearbyPincodes)
		pincodes.GET("/:pincode/nearby/cache", pincodeHandler.GetCachedNearbyPincodes)
	}

	// 旧エンドポイント
	router.GET("/find-nearby-pincodes/:pincode", pincodeHandler.GetNearbyPincodes)

	router.GET("/states/:state/neighbors", pincodeHandler.GetNeighborStates)
	router.GET("/locate", pincodeHandler.Locate)

	return router
}
