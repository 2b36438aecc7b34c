package api

import (
	"net/http"

	"PromoVideo-server/models"

	"github.com/gin-gonic/gin"
)

// 查询分镜详情（含完整版本历史）
func GetSceneDetail(c *gin.Context) {
	sceneID := c.Param("scene_id")
	scene, err := models.GetSceneByID(models.DB, sceneID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "scene not found: " + err.Error()})
		return
	}
	imageVersions, err := models.GetImageVersions(models.DB, sceneID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	animationVersions, err := models.GetAnimationVersions(models.DB, sceneID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"scene":              scene,
		"image_versions":     imageVersions,
		"animation_versions": animationVersions,
	})
}

// 激活指定版本（回滚/人工选版），kind 取 image 或 animation
func ActivateVersion(c *gin.Context) {
	sceneID := c.Param("scene_id")
	versionID := c.Param("version_id")
	kind := c.DefaultQuery("kind", models.VersionKindImage)

	if err := models.ActivateVersion(models.DB, sceneID, kind, versionID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "激活版本失败: " + err.Error()})
		return
	}
	scene, err := models.GetSceneByID(models.DB, sceneID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"scene": scene})
}
