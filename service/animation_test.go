package service

import (
	"context"
	"sync"
	"testing"
)

// 极简风格只能从固定的低幅度运动集合里选，绝不进 AI 分支
func TestAnimationPrompt_MinimalAlwaysFromFixedSet(t *testing.T) {
	fixed := make(map[string]bool, len(MinimalMotionPrompts))
	for _, p := range MinimalMotionPrompts {
		fixed[p] = true
	}

	// 即便注入了 AI 能力也不该被调用
	g := NewAnimationPromptGenerator(&fixedCompleter{out: "wild 360 degree spin"})
	for i := 0; i < 50; i++ {
		got := g.Build(context.Background(), AnimationPromptInput{
			Minimal:    true,
			Mode:       "ai",
			VisionDesc: "a toaster on a counter",
		})
		if !fixed[got] {
			t.Fatalf("minimal prompt %q not in the fixed set", got)
		}
	}
}

// 一个生成器被批次内多个条目协程共享，极简抽取必须可并发调用
func TestAnimationPrompt_ConcurrentMinimalBuilds(t *testing.T) {
	g := NewAnimationPromptGenerator(nil)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				got := g.Build(context.Background(), AnimationPromptInput{Minimal: true})
				if got == "" {
					t.Error("empty minimal motion prompt")
				}
			}
		}()
	}
	wg.Wait()
}

func TestAnimationPrompt_TemplateMode(t *testing.T) {
	g := NewAnimationPromptGenerator(nil)

	got := g.Build(context.Background(), AnimationPromptInput{
		Mode:       "template",
		TemplateID: "push_in",
	})
	if got != templateMotionPrompts["push_in"] {
		t.Errorf("template lookup failed: %q", got)
	}

	// 未知模板 id 走兜底集合
	got = g.Build(context.Background(), AnimationPromptInput{
		Mode:           "template",
		TemplateID:     "no_such_template",
		ProductFocused: true,
	})
	if got != fallbackMotionPrompts[[2]bool{false, true}] {
		t.Errorf("unknown template must fall back: %q", got)
	}
}

func TestAnimationPrompt_AIModeUsesCompleter(t *testing.T) {
	g := NewAnimationPromptGenerator(&fixedCompleter{out: "slow 15 degree sway, front-facing"})
	got := g.Build(context.Background(), AnimationPromptInput{
		Mode:       "ai",
		VisionDesc: "a green toaster, studio light",
		SourceText: "Premium Toaster",
		Style:      "luxury",
	})
	if got != "slow 15 degree sway, front-facing" {
		t.Errorf("ai mode should use the completer output, got %q", got)
	}
}

// AI 不可用时按 (极简 × 产品特写) 落到兜底模板
func TestAnimationPrompt_FallbackBuckets(t *testing.T) {
	g := NewAnimationPromptGenerator(nil)

	tests := []struct {
		productFocused bool
	}{{true}, {false}}
	for _, tt := range tests {
		got := g.Build(context.Background(), AnimationPromptInput{
			Mode:           "ai",
			VisionDesc:     "a product",
			ProductFocused: tt.productFocused,
		})
		want := fallbackMotionPrompts[[2]bool{false, tt.productFocused}]
		if got != want {
			t.Errorf("fallback(product=%v) = %q, want %q", tt.productFocused, got, want)
		}
	}

	// 没有视觉描述时同样走兜底
	got := g.Build(context.Background(), AnimationPromptInput{Mode: "ai"})
	if got != fallbackMotionPrompts[[2]bool{false, false}] {
		t.Errorf("missing vision description must fall back: %q", got)
	}
}

func TestStyleFamily(t *testing.T) {
	tests := []struct {
		style string
		want  string
	}{
		{"minimalist nordic", "minimalist"},
		{"luxury gold", "luxury"},
		{"dynamic sport", "dynamic"},
		{"tech futuristic", "tech"},
		{"vintage film", "vintage"},
		{"premium elegant", "luxury"},
		{"retro diner", "vintage"},
		{"something else", "lifestyle"},
	}
	for _, tt := range tests {
		if got := styleFamily(tt.style); got != tt.want {
			t.Errorf("styleFamily(%q) = %q, want %q", tt.style, got, tt.want)
		}
	}
}
