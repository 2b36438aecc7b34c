package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// 批次状态
const (
	BatchStatusCreated    = "created"
	BatchStatusProcessing = "processing"
	BatchStatusFinished   = "finished"
)

// 保留的极简风格预设 id
const PresetMinimal = "minimal"

// StringList JSON 列（输出格式列表等）
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	return json.Marshal(l)
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New(fmt.Sprint("Failed to unmarshal JSONB value:", value))
	}
	return json.Unmarshal(bytes, l)
}

// Batch 一次批量生成的项目级配置，条目未覆盖的字段以此为默认值
type Batch struct {
	ID          string `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Style       string `json:"style"`
	PresetID    string `json:"presetId"`
	ColorHex    string `json:"colorHex"` // 项目色彩要求，例如 "#2ECC40"
	Status      string `json:"status"`

	// 条目默认设置
	SceneCount       int        `json:"sceneCount"`
	SceneDurationSec int        `json:"sceneDurationSec"`
	Provider         string     `json:"provider"`
	OutputFormats    StringList `gorm:"type:json" json:"outputFormats"`
	AnimationMode    string     `json:"animationMode"` // ai | template
	TemplateID       string     `json:"templateId"`
	CameraFixed      bool       `json:"cameraFixed"`
	ReuseEndFrame    bool       `json:"reuseEndFrame"`
	AspectRatio      string     `json:"aspectRatio"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Batch) TableName() string {
	return "batch"
}

func GetBatchByID(db *gorm.DB, batchID string) (*Batch, error) {
	var b Batch
	if err := db.First(&b, "id = ?", batchID).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (b *Batch) UpdateStatus(db *gorm.DB, status string) error {
	return db.Model(b).Updates(map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}).Error
}
