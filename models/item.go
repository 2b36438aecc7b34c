package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// 条目状态（批次中的一行输入）
const (
	ItemStatusPending    = "pending"
	ItemStatusProcessing = "processing"
	ItemStatusCompleted  = "completed"
	ItemStatusFailed     = "failed"
)

// 动画提示词生成模式
const (
	AnimationModeAI       = "ai"
	AnimationModeTemplate = "template"
)

// ItemSettings 条目级覆盖设置，nil 字段回落到批次默认值
type ItemSettings struct {
	OutputFormats    []string `json:"output_formats,omitempty"`
	SceneCount       *int     `json:"scene_count,omitempty"`
	SceneDurationSec *int     `json:"scene_duration_sec,omitempty"`
	Provider         *string  `json:"provider,omitempty"`
	CameraFixed      *bool    `json:"camera_fixed,omitempty"`
	ReuseEndFrame    *bool    `json:"reuse_end_frame,omitempty"`
	AnimationMode    *string  `json:"animation_mode,omitempty"`
	TemplateID       *string  `json:"template_id,omitempty"`
}

// 实现 driver.Valuer 接口: Go Struct -> JSON String (存入数据库)
func (s ItemSettings) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// 实现 sql.Scanner 接口: JSON String -> Go Struct (从数据库读取)
func (s *ItemSettings) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New(fmt.Sprint("Failed to unmarshal JSONB value:", value))
	}
	return json.Unmarshal(bytes, s)
}

// WorkItem 批次输入中的一行（一个产品/文案），由 pipeline 驱动状态
type WorkItem struct {
	ID             string       `gorm:"primaryKey;type:varchar(64)" json:"id"`
	BatchID        string       `gorm:"index" json:"batchId"`
	Ordinal        int          `json:"ordinal"`
	SourceText     string       `gorm:"type:text" json:"sourceText"`
	ReferenceImage string       `json:"referenceImage"` // 参考图 URL，可为空
	Settings       ItemSettings `gorm:"type:json" json:"settings"`
	Status         string       `json:"status"`
	Error          string       `json:"error"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

func (WorkItem) TableName() string {
	return "work_item"
}

func GetItemByID(db *gorm.DB, itemID string) (*WorkItem, error) {
	var item WorkItem
	if err := db.First(&item, "id = ?", itemID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// GetPendingItems 按 ordinal 取出批次内仍为 pending 的条目（重入时只会拿到未处理的）
func GetPendingItems(db *gorm.DB, batchID string) ([]WorkItem, error) {
	var items []WorkItem
	err := db.Where("batch_id = ? AND status = ?", batchID, ItemStatusPending).
		Order("ordinal ASC").Find(&items).Error
	return items, err
}

func GetItemsByBatchID(db *gorm.DB, batchID string) ([]WorkItem, error) {
	var items []WorkItem
	err := db.Where("batch_id = ?", batchID).Order("ordinal ASC").Find(&items).Error
	return items, err
}

func BatchCreateItems(db *gorm.DB, items []WorkItem) error {
	if len(items) == 0 {
		return nil
	}
	return db.Create(&items).Error
}

func (i *WorkItem) UpdateStatus(db *gorm.DB, status, errMsg string) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if errMsg != "" {
		updates["error"] = errMsg
	}
	return db.Model(i).Updates(updates).Error
}

// DeriveItemStatus 由子分镜状态推导条目状态（纯函数）。
// 只要有一个分镜失败，条目就是 failed，绝不因部分成功标记 completed。
func DeriveItemStatus(scenes []Scene) (status, errMsg string) {
	total := len(scenes)
	completed := 0
	for _, s := range scenes {
		if s.Status == SceneStatusCompleted {
			completed++
		}
	}
	switch {
	case total > 0 && completed == total:
		return ItemStatusCompleted, ""
	case completed == 0:
		return ItemStatusFailed, "all scenes failed"
	default:
		return ItemStatusFailed, fmt.Sprintf("%d of %d scenes failed", total-completed, total)
	}
}
