package api

import (
	"log"
	"net/http"
	"time"

	"PromoVideo-server/models"
	"PromoVideo-server/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// 批次创建请求：项目级默认值 + 表格输入的行
type createBatchRequest struct {
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Style            string   `json:"style"`
	PresetID         string   `json:"preset_id"`
	ColorHex         string   `json:"color_hex"`
	SceneCount       int      `json:"scene_count"`
	SceneDurationSec int      `json:"scene_duration_sec"`
	Provider         string   `json:"provider"`
	OutputFormats    []string `json:"output_formats"`
	AnimationMode    string   `json:"animation_mode"`
	TemplateID       string   `json:"template_id"`
	CameraFixed      bool     `json:"camera_fixed"`
	ReuseEndFrame    bool     `json:"reuse_end_frame"`
	AspectRatio      string   `json:"aspect_ratio"`
	Rows             []struct {
		Text           string               `json:"text"`
		ReferenceImage string               `json:"reference_image"`
		Settings       *models.ItemSettings `json:"settings"`
	} `json:"rows"`
}

// 创建批次：写入 batch 行和每行输入对应的 pending 条目
func CreateBatch(c *gin.Context) {
	var req createBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Rows) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rows 不能为空"})
		return
	}
	if req.SceneCount <= 0 {
		req.SceneCount = 3
	}
	if req.SceneDurationSec <= 0 {
		req.SceneDurationSec = 5
	}

	batch := models.Batch{
		ID:               uuid.NewString(),
		Title:            req.Title,
		Description:      req.Description,
		Style:            req.Style,
		PresetID:         req.PresetID,
		ColorHex:         req.ColorHex,
		Status:           models.BatchStatusCreated,
		SceneCount:       req.SceneCount,
		SceneDurationSec: req.SceneDurationSec,
		Provider:         req.Provider,
		OutputFormats:    req.OutputFormats,
		AnimationMode:    req.AnimationMode,
		TemplateID:       req.TemplateID,
		CameraFixed:      req.CameraFixed,
		ReuseEndFrame:    req.ReuseEndFrame,
		AspectRatio:      req.AspectRatio,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
	if err := models.DB.Create(&batch).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "创建批次失败: " + err.Error()})
		return
	}

	items := make([]models.WorkItem, 0, len(req.Rows))
	for i, row := range req.Rows {
		item := models.WorkItem{
			ID:             uuid.NewString(),
			BatchID:        batch.ID,
			Ordinal:        i,
			SourceText:     row.Text,
			ReferenceImage: row.ReferenceImage,
			Status:         models.ItemStatusPending,
			CreatedAt:      time.Now(),
			UpdatedAt:      time.Now(),
		}
		if row.Settings != nil {
			item.Settings = *row.Settings
		}
		items = append(items, item)
	}
	if err := models.BatchCreateItems(models.DB, items); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "创建条目失败: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"batch": batch, "item_count": len(items)})
}

// 查询批次
func GetBatch(c *gin.Context) {
	batchID := c.Param("batch_id")
	batch, err := models.GetBatchByID(models.DB, batchID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "batch not found: " + err.Error()})
		return
	}
	items, err := models.GetItemsByBatchID(models.DB, batchID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"batch": batch, "items": items})
}

// 触发批次生成：入队后立即返回，进度走 ws 或轮询
func GenerateBatch(c *gin.Context) {
	batchID := c.Param("batch_id")
	if _, err := models.GetBatchByID(models.DB, batchID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "batch not found: " + err.Error()})
		return
	}
	if err := service.EnqueueGenerateBatch(batchID); err != nil {
		log.Printf("批次任务入队失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "入队失败: " + err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"batch_id": batchID, "status": "enqueued"})
}

// 查询批次条目列表
func GetBatchItems(c *gin.Context) {
	batchID := c.Param("batch_id")
	items, err := models.GetItemsByBatchID(models.DB, batchID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// 查询条目详情（含分镜）
func GetItemDetail(c *gin.Context) {
	itemID := c.Param("item_id")
	item, err := models.GetItemByID(models.DB, itemID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found: " + err.Error()})
		return
	}
	scenes, err := models.GetScenesByItemID(models.DB, itemID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item, "scenes": scenes})
}
