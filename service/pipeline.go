package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"PromoVideo-server/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EffectiveSettings 条目级覆盖与批次默认值逐字段合并后的生效设置
type EffectiveSettings struct {
	SceneCount       int
	SceneDurationSec int
	Provider         string
	OutputFormats    []string
	CameraFixed      bool
	ReuseEndFrame    bool
	AnimationMode    string
	TemplateID       string
	AspectRatio      string
}

// ResolveSettings 逐字段取条目覆盖值，缺省回落到批次默认
func ResolveSettings(item *models.WorkItem, batch *models.Batch) EffectiveSettings {
	eff := EffectiveSettings{
		SceneCount:       batch.SceneCount,
		SceneDurationSec: batch.SceneDurationSec,
		Provider:         batch.Provider,
		OutputFormats:    batch.OutputFormats,
		CameraFixed:      batch.CameraFixed,
		ReuseEndFrame:    batch.ReuseEndFrame,
		AnimationMode:    batch.AnimationMode,
		TemplateID:       batch.TemplateID,
		AspectRatio:      batch.AspectRatio,
	}
	s := item.Settings
	if len(s.OutputFormats) > 0 {
		eff.OutputFormats = s.OutputFormats
	}
	if s.SceneCount != nil {
		eff.SceneCount = *s.SceneCount
	}
	if s.SceneDurationSec != nil {
		eff.SceneDurationSec = *s.SceneDurationSec
	}
	if s.Provider != nil {
		eff.Provider = *s.Provider
	}
	if s.CameraFixed != nil {
		eff.CameraFixed = *s.CameraFixed
	}
	if s.ReuseEndFrame != nil {
		eff.ReuseEndFrame = *s.ReuseEndFrame
	}
	if s.AnimationMode != nil {
		eff.AnimationMode = *s.AnimationMode
	}
	if s.TemplateID != nil {
		eff.TemplateID = *s.TemplateID
	}
	if eff.SceneCount <= 0 {
		eff.SceneCount = 3
	}
	if eff.SceneDurationSec <= 0 {
		eff.SceneDurationSec = 5
	}
	if eff.Provider == "" {
		eff.Provider = ProviderKling
	}
	if eff.AnimationMode == "" {
		eff.AnimationMode = models.AnimationModeAI
	}
	if eff.AspectRatio == "" {
		eff.AspectRatio = "16:9"
	}
	return eff
}

// Pipeline 单条目流水线：逐分镜串行执行 提示词 -> 生图质量闭环 ->
// 视觉描述 -> 动画提示词 -> 动画生成 -> 版本落库
type Pipeline struct {
	DB          *gorm.DB
	Vision      VisionAnalyzer
	Images      ImageGenerator
	Text        TextCompleter
	Animator    *AnimationAdapter
	Prompts     *PromptBuilder
	AnimPrompts *AnimationPromptGenerator
	MaxAttempts int
}

// Process 处理一个条目的全部分镜并推导条目终态。
// 单个分镜失败不会中止后续分镜；条目状态由分镜状态纯函数推导。
func (p *Pipeline) Process(ctx context.Context, item *models.WorkItem, batch *models.Batch) error {
	if err := item.UpdateStatus(p.DB, models.ItemStatusProcessing, ""); err != nil {
		return fmt.Errorf("mark item processing failed: %w", err)
	}

	eff := ResolveSettings(item, batch)

	scenes := make([]models.Scene, 0, eff.SceneCount)
	for i := 0; i < eff.SceneCount; i++ {
		scenes = append(scenes, models.Scene{
			ID:        uuid.NewString(),
			ItemID:    item.ID,
			Order:     i,
			Status:    models.SceneStatusPending,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		})
	}
	if err := models.BatchCreateScenes(p.DB, scenes); err != nil {
		return fmt.Errorf("create scenes failed: %w", err)
	}

	// 分镜严格串行：质量闭环的反馈依赖上一次尝试，串行也便于控制成本
	for i := range scenes {
		scene := &scenes[i]
		if err := p.processScene(ctx, scene, item, batch, eff); err != nil {
			log.Printf("[pipeline] 分镜 %s 失败: %v", scene.ID, err)
			if uerr := scene.UpdateStatus(p.DB, models.SceneStatusFailed, err.Error()); uerr != nil {
				log.Printf("[pipeline] 记录分镜失败状态出错: %v", uerr)
			}
			scene.Status = models.SceneStatusFailed
			continue
		}
		scene.Status = models.SceneStatusCompleted
	}

	status, errMsg := models.DeriveItemStatus(scenes)
	if err := item.UpdateStatus(p.DB, status, errMsg); err != nil {
		return fmt.Errorf("persist item status failed: %w", err)
	}
	item.Status = status
	item.Error = errMsg
	return nil
}

func (p *Pipeline) processScene(ctx context.Context, scene *models.Scene, item *models.WorkItem, batch *models.Batch, eff EffectiveSettings) error {
	if err := scene.UpdateStatus(p.DB, models.SceneStatusGenerating, ""); err != nil {
		return err
	}

	minimal := IsMinimalStyle(batch.PresetID, batch.Style)

	// 1. 构建图像提示词
	prompt := p.Prompts.BuildImagePrompt(ctx, PromptInput{
		SourceText:   item.SourceText,
		HasReference: item.ReferenceImage != "",
		Style:        batch.Style,
		PresetID:     batch.PresetID,
		SceneIndex:   scene.Order,
		SceneCount:   eff.SceneCount,
		ProjectName:  batch.Title,
		ProjectDesc:  batch.Description,
		ColorHex:     batch.ColorHex,
	})
	if err := scene.UpdatePrompt(p.DB, prompt); err != nil {
		return err
	}

	// 2. 生图 + 质量闭环，每次生成都会落一个新的激活版本
	gate := &QualityGate{
		Generator:   p.Images,
		Analyzer:    p.Vision,
		Text:        p.Text,
		MaxAttempts: p.MaxAttempts,
		Persist: func(vPrompt, imageURL string, score *float64) error {
			_, err := models.AddImageVersion(p.DB, scene.ID, vPrompt, imageURL, score)
			return err
		},
	}
	accepted, err := gate.Run(ctx, prompt, eff.AspectRatio)
	if err != nil {
		return err
	}

	// 3. 视觉描述（失败不致命，动画提示词会退回模板分支）
	visionDesc := ""
	if eff.AnimationMode == models.AnimationModeAI && !minimal {
		visionDesc, err = p.Vision.Describe(ctx, accepted.ImageURL)
		if err != nil {
			log.Printf("[pipeline] 视觉描述失败，动画提示词将走兜底: %v", err)
			visionDesc = ""
		}
	}

	// 4. 动画提示词
	animPrompt := p.AnimPrompts.Build(ctx, AnimationPromptInput{
		Minimal:        minimal,
		Mode:           eff.AnimationMode,
		TemplateID:     eff.TemplateID,
		VisionDesc:     visionDesc,
		SourceText:     item.SourceText,
		Style:          batch.Style,
		ProductFocused: item.ReferenceImage != "",
	})

	// 5. 动画生成
	opts := AnimationOptions{
		DurationSec: eff.SceneDurationSec,
		Resolution:  "1280x720",
		CameraFixed: eff.CameraFixed,
	}
	if eff.ReuseEndFrame {
		// 首尾同帧，动画可无缝循环
		opts.EndImageURL = accepted.ImageURL
	}
	animation, err := p.Animator.Generate(ctx, accepted.ImageURL, animPrompt, eff.Provider, opts)
	if err != nil {
		return err
	}

	// 6. 动画转存 + 版本落库
	objectName := fmt.Sprintf("scenes/%s/animation_%d.mp4", scene.ID, time.Now().Unix())
	videoURL, err := DownloadToStorage(ctx, animation.VideoURL, objectName)
	if err != nil {
		return fmt.Errorf("处理视频资源失败: %v", err)
	}
	if _, err := models.AddAnimationVersion(p.DB, scene.ID, animPrompt, videoURL, eff.Provider, eff.SceneDurationSec); err != nil {
		return err
	}

	return scene.UpdateStatus(p.DB, models.SceneStatusCompleted, "")
}
