package models

import (
	"time"

	"gorm.io/gorm"
)

// 分镜状态
const (
	SceneStatusPending    = "pending"
	SceneStatusGenerating = "generating"
	SceneStatusCompleted  = "completed"
	SceneStatusFailed     = "failed"
)

// Scene 条目的一个分镜：一张关键帧图 + 一段动画。
// Image*/Animation* 指针字段始终指向当前激活的版本。
type Scene struct {
	ID     string `gorm:"primaryKey;type:varchar(64)" json:"id"`
	ItemID string `gorm:"index" json:"itemId"`
	Order  int    `json:"order"`
	Prompt string `gorm:"type:text" json:"prompt"`
	Status string `json:"status"`
	Error  string `json:"error"`

	ImageURL          string `json:"imageUrl"`
	ImagePrompt       string `gorm:"type:text" json:"imagePrompt"`
	AnimationURL      string `json:"animationUrl"`
	AnimationPrompt   string `gorm:"type:text" json:"animationPrompt"`
	AnimationProvider string `json:"animationProvider"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Scene) TableName() string {
	return "scene"
}

func GetSceneByID(db *gorm.DB, sceneID string) (*Scene, error) {
	var scene Scene
	if err := db.First(&scene, "id = ?", sceneID).Error; err != nil {
		return nil, err
	}
	return &scene, nil
}

func GetScenesByItemID(db *gorm.DB, itemID string) ([]Scene, error) {
	var scenes []Scene
	err := db.Where("item_id = ?", itemID).Order("`order` ASC").Find(&scenes).Error
	return scenes, err
}

func BatchCreateScenes(db *gorm.DB, scenes []Scene) error {
	if len(scenes) == 0 {
		return nil
	}
	return db.Create(&scenes).Error
}

func (s *Scene) UpdateStatus(db *gorm.DB, status, errMsg string) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if errMsg != "" {
		updates["error"] = errMsg
	}
	return db.Model(s).Updates(updates).Error
}

func (s *Scene) UpdatePrompt(db *gorm.DB, prompt string) error {
	return db.Model(s).Updates(map[string]interface{}{
		"prompt":     prompt,
		"updated_at": time.Now(),
	}).Error
}
