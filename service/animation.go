package service

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
)

// MinimalMotionPrompts 极简风格的固定机位运动集：镜头静止、
// 总摆动不超过 30 度，绝不走 AI 分支。
var MinimalMotionPrompts = []string{
	"camera locked on tripod, product slowly sways left and right within 15 degrees total, soft even light",
	"static camera, product gently rotates 20 degrees clockwise and back, clean background unchanged",
	"fixed frontal camera, subtle 10 degree tilt sway of the product, minimal shadow movement",
	"camera completely stationary, product rocks softly side to side no more than 25 degrees total",
}

// 模板模式下按模板 id 选取的固定运动描述
var templateMotionPrompts = map[string]string{
	"orbit_slow":  "camera orbits slowly a few degrees around the product, product stays front-facing",
	"push_in":     "slow cinematic push-in toward the product, focus locked on the front face",
	"rise_reveal": "camera rises gently revealing the product from a low angle, front kept in view",
	"light_sweep": "camera static, a soft light sweep travels across the front of the product",
	"parallax_bg": "product steady and front-facing, background drifts slowly for a parallax feel",
}

// AI 不可用时按 (极简 × 产品特写) 组合选取的兜底模板
var fallbackMotionPrompts = map[[2]bool]string{
	{true, true}:   "static camera, product front and center, barely perceptible 10 degree sway",
	{true, false}:  "static camera, composition breathes with a slow 15 degree sway, nothing else moves",
	{false, true}:  "slow push-in on the product, gentle 15 degree rotation, product remains front-facing",
	{false, false}: "smooth cinematic drift around the scene, product front-facing, rotations within 20 degrees",
}

// 风格族 -> 镜头语言偏好
var styleFamilyGuidance = map[string]string{
	"minimalist": "restrained motion, static or near-static camera, emphasis on stillness and negative space",
	"luxury":     "slow elegant camera moves, glossy highlights traveling across surfaces, unhurried pacing",
	"dynamic":    "energetic but controlled moves, quick push-ins, motion accents around the product",
	"lifestyle":  "handheld-feeling natural drift, warm ambient movement, people-adjacent framing",
	"tech":       "precise linear camera glides, cool rim lighting shifts, clean mechanical pacing",
	"vintage":    "gentle film-like sway, slight flicker of warm light, nostalgic slow pacing",
}

func styleFamily(style string) string {
	lower := strings.ToLower(style)
	for family := range styleFamilyGuidance {
		if strings.Contains(lower, family) {
			return family
		}
	}
	switch {
	case strings.Contains(lower, "minimal"):
		return "minimalist"
	case strings.Contains(lower, "premium") || strings.Contains(lower, "elegant"):
		return "luxury"
	case strings.Contains(lower, "sport") || strings.Contains(lower, "energetic"):
		return "dynamic"
	case strings.Contains(lower, "retro") || strings.Contains(lower, "classic"):
		return "vintage"
	}
	return "lifestyle"
}

// AnimationPromptInput 动画提示词生成输入
type AnimationPromptInput struct {
	Minimal        bool
	Mode           string // ai | template
	TemplateID     string
	VisionDesc     string // 已接受图像的结构化描述
	SourceText     string
	Style          string
	ProductFocused bool // 有参考图、以产品特写为主
}

// AnimationPromptGenerator 动画提示词生成器。rng 可在测试中替换为固定种子，
// 被多个条目协程共享，访问必须持锁。
type AnimationPromptGenerator struct {
	Text TextCompleter
	mu   sync.Mutex
	rng  *rand.Rand
}

func NewAnimationPromptGenerator(text TextCompleter) *AnimationPromptGenerator {
	return &AnimationPromptGenerator{
		Text: text,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Build 生成运动描述。极简风格只从固定集合均匀抽取；模板模式按 id 查表；
// AI 模式带视觉描述与风格族引导，且始终附加旋转与正面朝向硬约束。
func (g *AnimationPromptGenerator) Build(ctx context.Context, in AnimationPromptInput) string {
	if in.Minimal {
		g.mu.Lock()
		pick := g.rng.Intn(len(MinimalMotionPrompts))
		g.mu.Unlock()
		return MinimalMotionPrompts[pick]
	}

	if in.Mode == "template" {
		if p, ok := templateMotionPrompts[in.TemplateID]; ok {
			return p
		}
		// 未知模板 id：退回兜底集合
		return fallbackMotionPrompts[[2]bool{false, in.ProductFocused}]
	}

	if in.VisionDesc != "" {
		prompt := TryWithFallback(ctx, "animation-prompt", g.aiFunc(in), func() string {
			return fallbackMotionPrompts[[2]bool{false, in.ProductFocused}]
		})
		return prompt
	}
	return fallbackMotionPrompts[[2]bool{in.Minimal, in.ProductFocused}]
}

func (g *AnimationPromptGenerator) aiFunc(in AnimationPromptInput) func(ctx context.Context) (string, error) {
	if g.Text == nil {
		return nil
	}
	return func(ctx context.Context) (string, error) {
		family := styleFamily(in.Style)
		instruction := fmt.Sprintf(
			"Write a short camera motion description for animating this product image.\n"+
				"Image: %s\nProduct: %s\nStyle direction: %s\n"+
				"Hard constraints: all rotations stay between 10 and 20 degrees, the product must remain front-facing at all times, never show the back or profile of the product.\n"+
				"Reply with the motion description only.",
			in.VisionDesc, in.SourceText, styleFamilyGuidance[family])
		return g.Text.Complete(ctx, instruction)
	}
}
