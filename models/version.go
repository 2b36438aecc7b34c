package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 版本种类
const (
	VersionKindImage     = "image"
	VersionKindAnimation = "animation"
)

// ImageVersion 分镜图片的一个不可变版本，append-only
type ImageVersion struct {
	ID           string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	SceneID      string    `gorm:"index" json:"sceneId"`
	Version      int       `json:"version"`
	Prompt       string    `gorm:"type:text" json:"prompt"`
	URL          string    `json:"url"`
	QualityScore *float64  `json:"qualityScore,omitempty"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (ImageVersion) TableName() string {
	return "image_version"
}

// AnimationVersion 分镜动画的一个不可变版本，append-only
type AnimationVersion struct {
	ID          string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	SceneID     string    `gorm:"index" json:"sceneId"`
	Version     int       `json:"version"`
	Prompt      string    `gorm:"type:text" json:"prompt"`
	URL         string    `json:"url"`
	Provider    string    `json:"provider"`
	DurationSec int       `json:"durationSec"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (AnimationVersion) TableName() string {
	return "animation_version"
}

// NextVersionNumber 已有版本号 -> 下一个版本号（从 1 开始，严格递增）
func NextVersionNumber(existing []int) int {
	max := 0
	for _, v := range existing {
		if v > max {
			max = v
		}
	}
	return max + 1
}

func nextVersionInTx(tx *gorm.DB, table, sceneID string) (int, error) {
	var versions []int
	err := tx.Table(table).Where("scene_id = ?", sceneID).Pluck("version", &versions).Error
	if err != nil {
		return 0, err
	}
	return NextVersionNumber(versions), nil
}

// AddImageVersion 追加一个新图片版本并将其设为唯一激活版本。
// 同一事务内完成：计算 max+1、全部去激活、插入激活版本、回写 Scene 当前指针。
func AddImageVersion(db *gorm.DB, sceneID, prompt, url string, score *float64) (*ImageVersion, error) {
	v := &ImageVersion{
		ID:           uuid.NewString(),
		SceneID:      sceneID,
		Prompt:       prompt,
		URL:          url,
		QualityScore: score,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		next, err := nextVersionInTx(tx, "image_version", sceneID)
		if err != nil {
			return err
		}
		v.Version = next
		if err := tx.Model(&ImageVersion{}).Where("scene_id = ?", sceneID).
			Update("is_active", false).Error; err != nil {
			return err
		}
		if err := tx.Create(v).Error; err != nil {
			return err
		}
		return tx.Model(&Scene{}).Where("id = ?", sceneID).Updates(map[string]interface{}{
			"image_url":    url,
			"image_prompt": prompt,
			"updated_at":   time.Now(),
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// AddAnimationVersion 追加一个新动画版本并将其设为唯一激活版本
func AddAnimationVersion(db *gorm.DB, sceneID, prompt, url, provider string, durationSec int) (*AnimationVersion, error) {
	v := &AnimationVersion{
		ID:          uuid.NewString(),
		SceneID:     sceneID,
		Prompt:      prompt,
		URL:         url,
		Provider:    provider,
		DurationSec: durationSec,
		IsActive:    true,
		CreatedAt:   time.Now(),
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		next, err := nextVersionInTx(tx, "animation_version", sceneID)
		if err != nil {
			return err
		}
		v.Version = next
		if err := tx.Model(&AnimationVersion{}).Where("scene_id = ?", sceneID).
			Update("is_active", false).Error; err != nil {
			return err
		}
		if err := tx.Create(v).Error; err != nil {
			return err
		}
		return tx.Model(&Scene{}).Where("id = ?", sceneID).Updates(map[string]interface{}{
			"animation_url":      url,
			"animation_prompt":   prompt,
			"animation_provider": provider,
			"updated_at":         time.Now(),
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// ActivateVersion 外部触发的版本回滚/选择，保持同样的单激活原子性
func ActivateVersion(db *gorm.DB, sceneID, kind, versionID string) error {
	switch kind {
	case VersionKindImage:
		return db.Transaction(func(tx *gorm.DB) error {
			var v ImageVersion
			if err := tx.First(&v, "id = ? AND scene_id = ?", versionID, sceneID).Error; err != nil {
				return err
			}
			if err := tx.Model(&ImageVersion{}).Where("scene_id = ?", sceneID).
				Update("is_active", false).Error; err != nil {
				return err
			}
			if err := tx.Model(&ImageVersion{}).Where("id = ?", versionID).
				Update("is_active", true).Error; err != nil {
				return err
			}
			return tx.Model(&Scene{}).Where("id = ?", sceneID).Updates(map[string]interface{}{
				"image_url":    v.URL,
				"image_prompt": v.Prompt,
				"updated_at":   time.Now(),
			}).Error
		})
	case VersionKindAnimation:
		return db.Transaction(func(tx *gorm.DB) error {
			var v AnimationVersion
			if err := tx.First(&v, "id = ? AND scene_id = ?", versionID, sceneID).Error; err != nil {
				return err
			}
			if err := tx.Model(&AnimationVersion{}).Where("scene_id = ?", sceneID).
				Update("is_active", false).Error; err != nil {
				return err
			}
			if err := tx.Model(&AnimationVersion{}).Where("id = ?", versionID).
				Update("is_active", true).Error; err != nil {
				return err
			}
			return tx.Model(&Scene{}).Where("id = ?", sceneID).Updates(map[string]interface{}{
				"animation_url":      v.URL,
				"animation_prompt":   v.Prompt,
				"animation_provider": v.Provider,
				"updated_at":         time.Now(),
			}).Error
		})
	default:
		return fmt.Errorf("unknown version kind: %s", kind)
	}
}

func GetImageVersions(db *gorm.DB, sceneID string) ([]ImageVersion, error) {
	var versions []ImageVersion
	err := db.Where("scene_id = ?", sceneID).Order("version ASC").Find(&versions).Error
	return versions, err
}

func GetAnimationVersions(db *gorm.DB, sceneID string) ([]AnimationVersion, error) {
	var versions []AnimationVersion
	err := db.Where("scene_id = ?", sceneID).Order("version ASC").Find(&versions).Error
	return versions, err
}
