package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"PromoVideo-server/models"
)

// 非极简风格的分镜类型模板（按 sceneIndex 取模轮换）
var sceneTemplatesFull = []string{
	"wide establishing shot placing the product in a fitting environment",
	"close-up detail shot highlighting material texture and craftsmanship",
	"lifestyle scene showing the product in natural everyday use",
	"dramatic hero shot, product centered with strong directional key light",
	"benefit-focused composition demonstrating the product's main advantage",
}

// 极简风格的分镜类型模板（更短的列表，背景/构图变体）
var sceneTemplatesMinimal = []string{
	"product perfectly centered on a clean seamless background",
	"product slightly off-center on a plain background with generous negative space",
}

const (
	clauseUnbranded = "unbranded product, no logos, no brand names, no visible text"
	clauseGeneric   = "generic category representation, no identifiable brand design"
)

var minimalStyleRe = regexp.MustCompile(`(?i)\b(minimal|minimalist|minimalism)\b`)

// IsMinimalStyle 极简风格判定：保留的预设 id 或风格文本命中极简关键词
func IsMinimalStyle(presetID, style string) bool {
	if presetID == models.PresetMinimal {
		return true
	}
	return minimalStyleRe.MatchString(style)
}

var hexColorRe = regexp.MustCompile(`#?\b[0-9a-fA-F]{6}\b`)

// ColorDescription 把数字色码转成可读的颜色描述。
// 提示词中绝不允许出现原始色码，生成模型对它们基本无感。
func ColorDescription(hex string) string {
	h := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(h) != 6 {
		return ""
	}
	r, err1 := strconv.ParseUint(h[0:2], 16, 8)
	g, err2 := strconv.ParseUint(h[2:4], 16, 8)
	b, err3 := strconv.ParseUint(h[4:6], 16, 8)
	if err1 != nil || err2 != nil || err3 != nil {
		return ""
	}

	max := r
	if g > max {
		max = g
	}
	if b > max {
		max = b
	}
	min := r
	if g < min {
		min = g
	}
	if b < min {
		min = b
	}

	// 低饱和度：灰阶
	if max-min < 30 {
		switch {
		case max > 220:
			return "clean white"
		case max > 140:
			return "neutral gray"
		case max > 60:
			return "charcoal gray"
		default:
			return "deep black"
		}
	}

	tone := "vibrant"
	if max < 128 {
		tone = "deep"
	} else if min > 160 {
		tone = "soft pastel"
	}

	switch {
	case r >= g && r >= b:
		if g > b && g > r/2 {
			return tone + " orange"
		}
		if b > g && b > r/2 {
			return tone + " magenta"
		}
		return tone + " red"
	case g >= r && g >= b:
		if b > r && b > g/2 {
			return tone + " teal"
		}
		if r > b && r > g/2 {
			return tone + " yellow-green"
		}
		return tone + " green"
	default:
		if r > g && r > b/2 {
			return tone + " purple"
		}
		return tone + " blue"
	}
}

// sanitizeColorCodes 把文本里出现的任何色码替换成颜色描述。
// 不带 # 又不含数字的六字母单词（facade、decade 等）是普通英文词，原样保留。
func sanitizeColorCodes(s string) string {
	return hexColorRe.ReplaceAllStringFunc(s, func(code string) string {
		if !strings.HasPrefix(code, "#") && !strings.ContainsAny(code, "0123456789") {
			return code
		}
		if desc := ColorDescription(code); desc != "" {
			return desc
		}
		return "brand color"
	})
}

// extractProductName 从原始文案里截取产品名片段（极简风格只保留这个）
func extractProductName(text string) string {
	cut := strings.IndexAny(text, ",.;:\n-")
	if cut > 0 {
		text = text[:cut]
	}
	words := strings.Fields(text)
	if len(words) > 6 {
		words = words[:6]
	}
	return strings.Join(words, " ")
}

// PromptInput 单个分镜的提示词构建输入
type PromptInput struct {
	SourceText   string
	HasReference bool
	Style        string
	PresetID     string
	SceneIndex   int
	SceneCount   int
	ProjectName  string
	ProjectDesc  string
	ColorHex     string
}

// PromptBuilder 图像提示词构建器。Text 可为 nil，此时全部走确定性拼接。
type PromptBuilder struct {
	Text     TextCompleter
	MaxChars int
}

// BuildImagePrompt 组装加权上下文 + 分镜类型 + 风格，AI 润色后追加
// 无品牌约束，最后做色码清洗与长度压缩。
func (b *PromptBuilder) BuildImagePrompt(ctx context.Context, in PromptInput) string {
	minimal := IsMinimalStyle(in.PresetID, in.Style)

	var parts []string
	if minimal {
		// 极简风格：上下文压缩成产品名本身
		parts = append(parts, extractProductName(in.SourceText))
	} else {
		parts = append(parts, in.SourceText)
		if in.ProjectName != "" {
			parts = append(parts, in.ProjectName)
		}
		if in.ProjectDesc != "" {
			parts = append(parts, in.ProjectDesc)
		}
		if in.HasReference {
			parts = append(parts, "product photography focused")
		}
	}
	if in.ColorHex != "" {
		if desc := ColorDescription(in.ColorHex); desc != "" {
			parts = append(parts, "dominant color "+desc)
		}
	}
	contextStr := strings.Join(parts, ", ")

	templates := sceneTemplatesFull
	if minimal {
		templates = sceneTemplatesMinimal
	}
	sceneType := templates[in.SceneIndex%len(templates)]

	core := contextStr + ", " + sceneType
	if in.Style != "" {
		core += ", " + in.Style + " style"
	}

	elaborated := TryWithFallback(ctx, "prompt-enhance", b.enhanceFunc(core), func() string {
		return core
	})

	// 无品牌约束始终追加；无参考图时强化为"品类泛指"措辞
	constraints := clauseUnbranded
	if !in.HasReference {
		constraints += ", " + clauseGeneric
	}
	prompt := sanitizeColorCodes(elaborated + ", " + constraints)

	max := b.MaxChars
	if max <= 0 {
		max = 1500
	}
	return b.OptimizePromptLength(ctx, prompt, max)
}

func (b *PromptBuilder) enhanceFunc(core string) func(ctx context.Context) (string, error) {
	if b.Text == nil {
		return nil
	}
	return func(ctx context.Context) (string, error) {
		instruction := "Rewrite the following as a single natural-language photography prompt for an image generation model. " +
			"Keep every stated subject, color and composition requirement. Reply with the prompt only.\n\n" + core
		return b.Text.Complete(ctx, instruction)
	}
}

// OptimizePromptLength 保证提示词不超过 max 字符：先尝试 AI 摘要，
// 失败或仍超限时按词边界截断。对任意输入、任意 max >= 4 都返回 <= max。
func (b *PromptBuilder) OptimizePromptLength(ctx context.Context, p string, max int) string {
	if len([]rune(p)) <= max {
		return p
	}

	shortened := TryWithFallback(ctx, "prompt-shorten", b.shortenFunc(p, max), func() string {
		return truncatePrompt(p, max)
	})
	if len([]rune(shortened)) > max {
		// AI 没守住预算，强制截断
		shortened = truncatePrompt(shortened, max)
	}
	return shortened
}

func (b *PromptBuilder) shortenFunc(p string, max int) func(ctx context.Context) (string, error) {
	if b.Text == nil {
		return nil
	}
	return func(ctx context.Context) (string, error) {
		instruction := fmt.Sprintf("Condense the following image prompt to under %d characters without dropping any constraint:\n\n%s", max, p)
		return b.Text.Complete(ctx, instruction)
	}
}

// truncatePrompt 确定性截断：优先落在词边界，结尾补省略号
func truncatePrompt(p string, max int) string {
	runes := []rune(p)
	if len(runes) <= max {
		return p
	}
	cut := max - 3
	head := string(runes[:cut])
	if idx := strings.LastIndexAny(head, " ,;"); idx > cut/2 {
		head = head[:idx]
	}
	return head + "..."
}
