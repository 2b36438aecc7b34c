package service

import (
	"context"
	"strings"
	"testing"
)

func TestIsMinimalStyle(t *testing.T) {
	tests := []struct {
		presetID string
		style    string
		want     bool
	}{
		{"minimal", "", true},
		{"minimal", "luxury", true},
		{"", "minimalist studio", true},
		{"", "scandinavian minimalism", true},
		{"", "japanese Minimal aesthetic", true},
		{"", "luxury gold", false},
		{"premium", "dynamic", false},
	}
	for _, tt := range tests {
		if got := IsMinimalStyle(tt.presetID, tt.style); got != tt.want {
			t.Errorf("IsMinimalStyle(%q, %q) = %v, want %v", tt.presetID, tt.style, got, tt.want)
		}
	}
}

func TestColorDescription(t *testing.T) {
	tests := []struct {
		hex  string
		want string // 描述中必须包含的词
	}{
		{"#2ECC40", "green"},
		{"2ECC40", "green"},
		{"#FF0000", "red"},
		{"#0000AA", "blue"},
		{"#FFFFFF", "white"},
		{"#111111", "black"},
		{"#808080", "gray"},
	}
	for _, tt := range tests {
		got := ColorDescription(tt.hex)
		if !strings.Contains(got, tt.want) {
			t.Errorf("ColorDescription(%q) = %q, want it to contain %q", tt.hex, got, tt.want)
		}
		if strings.Contains(got, strings.TrimPrefix(tt.hex, "#")) {
			t.Errorf("ColorDescription(%q) = %q still contains the raw code", tt.hex, got)
		}
	}
	if got := ColorDescription("not-a-color"); got != "" {
		t.Errorf("ColorDescription on garbage = %q, want empty", got)
	}
}

// 色码清洗只改真正的色码，不碰恰好由十六进制字母拼成的英文单词
func TestSanitizeColorCodes(t *testing.T) {
	tests := []struct {
		in       string
		wantSame bool
		mustLose string // 清洗后不得再出现的片段
		mustKeep string
	}{
		{"background in #2ECC40 tones", false, "2ECC40", ""},
		{"use 2ECC40 as the accent", false, "2ECC40", ""},
		{"art deco facade with warm light", true, "", "facade"},
		{"a decade of craftsmanship", true, "", "decade"},
		{"beaded fabric texture", true, "", "beaded"},
	}
	for _, tt := range tests {
		got := sanitizeColorCodes(tt.in)
		if tt.wantSame && got != tt.in {
			t.Errorf("sanitizeColorCodes(%q) = %q, want unchanged", tt.in, got)
		}
		if tt.mustLose != "" && strings.Contains(got, tt.mustLose) {
			t.Errorf("sanitizeColorCodes(%q) = %q, raw code survived", tt.in, got)
		}
		if tt.mustKeep != "" && !strings.Contains(got, tt.mustKeep) {
			t.Errorf("sanitizeColorCodes(%q) = %q, plain word rewritten", tt.in, got)
		}
	}
}

// 极简风格 + 有参考图：提示词要包含产品名和无品牌约束，
// 不出现"品类泛指"措辞，色码只能以颜色描述出现
func TestBuildImagePrompt_MinimalWithReference(t *testing.T) {
	b := &PromptBuilder{MaxChars: 1500}
	prompt := b.BuildImagePrompt(context.Background(), PromptInput{
		SourceText:   "Premium Toaster, brushed steel, two slots",
		HasReference: true,
		PresetID:     "minimal",
		SceneIndex:   0,
		SceneCount:   3,
		ProjectName:  "Kitchen Line",
		ProjectDesc:  "brand color #2ECC40 must dominate",
		ColorHex:     "#2ECC40",
	})

	if !strings.Contains(prompt, "Premium Toaster") {
		t.Errorf("prompt must name the product: %q", prompt)
	}
	if !strings.Contains(prompt, "no logos") {
		t.Errorf("prompt must carry the unbranded clause: %q", prompt)
	}
	if strings.Contains(prompt, "generic category") {
		t.Errorf("generic category clause must be omitted when a reference image exists: %q", prompt)
	}
	if strings.Contains(prompt, "2ECC40") {
		t.Errorf("raw color code leaked into prompt: %q", prompt)
	}
	if !strings.Contains(prompt, "green") {
		t.Errorf("color requirement should appear as a descriptive name: %q", prompt)
	}
	// 极简风格不携带项目名上下文
	if strings.Contains(prompt, "Kitchen Line") {
		t.Errorf("minimal style must drop project context: %q", prompt)
	}
}

// 非极简 + 无参考图：无品牌约束和品类泛指措辞都必须在
func TestBuildImagePrompt_GenericWithoutReference(t *testing.T) {
	b := &PromptBuilder{MaxChars: 1500}
	prompt := b.BuildImagePrompt(context.Background(), PromptInput{
		SourceText:   "Electronics",
		HasReference: false,
		SceneIndex:   1,
		SceneCount:   3,
	})

	if !strings.Contains(prompt, "no logos") {
		t.Errorf("prompt must carry the unbranded clause: %q", prompt)
	}
	if !strings.Contains(prompt, "generic category") {
		t.Errorf("prompt must carry the generic category clause: %q", prompt)
	}
}

// 分镜类型按 sceneIndex 取模轮换，不同 index 得到不同模板
func TestBuildImagePrompt_SceneTypeRotation(t *testing.T) {
	b := &PromptBuilder{MaxChars: 1500}
	seen := make(map[string]bool)
	for i := 0; i < len(sceneTemplatesFull); i++ {
		prompt := b.BuildImagePrompt(context.Background(), PromptInput{
			SourceText: "Desk Lamp",
			SceneIndex: i,
			SceneCount: len(sceneTemplatesFull),
		})
		for _, tmpl := range sceneTemplatesFull {
			if strings.Contains(prompt, tmpl) {
				seen[tmpl] = true
			}
		}
	}
	if len(seen) != len(sceneTemplatesFull) {
		t.Errorf("expected all %d scene templates to rotate in, saw %d", len(sceneTemplatesFull), len(seen))
	}
}

type fixedCompleter struct {
	out string
	err error
}

func (f *fixedCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	return f.out, f.err
}

func TestOptimizePromptLength(t *testing.T) {
	long := strings.Repeat("premium toaster with brushed steel finish ", 50)
	tests := []struct {
		name  string
		text  TextCompleter
		input string
		max   int
	}{
		{"under budget untouched", nil, "short prompt", 100},
		{"no ai truncates", nil, long, 100},
		{"tiny budget", nil, long, 4},
		{"ai result over budget still clamped", &fixedCompleter{out: long}, long, 80},
		{"ai failure falls back", &fixedCompleter{err: context.DeadlineExceeded}, long, 60},
	}
	for _, tt := range tests {
		b := &PromptBuilder{Text: tt.text}
		got := b.OptimizePromptLength(context.Background(), tt.input, tt.max)
		if n := len([]rune(got)); n > tt.max {
			t.Errorf("%s: result length %d exceeds max %d", tt.name, n, tt.max)
		}
		if got == "" {
			t.Errorf("%s: result must not be empty", tt.name)
		}
	}

	// 预算内的输入必须原样返回
	b := &PromptBuilder{}
	if got := b.OptimizePromptLength(context.Background(), "keep me", 100); got != "keep me" {
		t.Errorf("short input modified: %q", got)
	}
}
