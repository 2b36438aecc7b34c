package routers

import (
	"PromoVideo-server/routers/api"

	"github.com/gin-gonic/gin"
)

func InitRouter() *gin.Engine {
	r := gin.Default()
	v1 := r.Group("/v1/api")
	{
		v1.POST("/batches", api.CreateBatch)
		v1.GET("/batches/:batch_id", api.GetBatch)
		v1.POST("/batches/:batch_id/generate", api.GenerateBatch)
		v1.GET("/batches/:batch_id/items", api.GetBatchItems)
		v1.GET("/items/:item_id", api.GetItemDetail)
		v1.GET("/scenes/:scene_id", api.GetSceneDetail)
		v1.POST("/scenes/:scene_id/versions/:version_id/activate", api.ActivateVersion)
	}
	r.GET("/batches/:batch_id/progress/ws", api.BatchProgressWebSocket)
	return r
}
