package service

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// GateDecision 质量闭环每一轮评估后的转移结果
type GateDecision int

const (
	DecisionAccept GateDecision = iota
	DecisionRegenerate
	DecisionForceAccept
	DecisionFail
)

func (d GateDecision) String() string {
	switch d {
	case DecisionAccept:
		return "accept"
	case DecisionRegenerate:
		return "regenerate"
	case DecisionForceAccept:
		return "force_accept"
	case DecisionFail:
		return "fail"
	default:
		return "unknown"
	}
}

// 分数阈值：>=8 直接通过；>=7 且只有轻微色彩偏差也通过；
// 尝试耗尽后 <5 或存在严重色彩偏差判失败，其余强制接受。
const (
	acceptScore      = 8.0
	acceptMinorScore = 7.0
	failScore        = 5.0
)

// NextGateDecision 纯转移函数 (attempt, analysis) -> decision，attempt 从 1 计
func NextGateDecision(attempt, maxAttempts int, a *ImageAnalysis) GateDecision {
	minorMismatch := a.ColorMismatch != nil && a.ColorMismatch.Severity == MismatchMinor
	criticalMismatch := a.ColorMismatch != nil && a.ColorMismatch.Severity == MismatchCritical

	if a.Score >= acceptScore {
		return DecisionAccept
	}
	if a.Score >= acceptMinorScore && minorMismatch {
		return DecisionAccept
	}
	if attempt < maxAttempts {
		return DecisionRegenerate
	}
	if a.Score < failScore || criticalMismatch {
		return DecisionFail
	}
	return DecisionForceAccept
}

// GateResult 质量闭环的终局
type GateResult struct {
	ImageURL string
	Prompt   string
	Score    float64
	Forced   bool // 尝试耗尽、带瑕疵接受
	Attempts int
}

// QualityGate 生成-评估-重生成闭环。Generator/Analyzer/Text 全部可注入，
// Persist 在每次生成后落一个新版本（保持版本历史完整）。
type QualityGate struct {
	Generator   ImageGenerator
	Analyzer    VisionAnalyzer
	Text        TextCompleter
	MaxAttempts int
	Persist     func(prompt, imageURL string, score *float64) error
}

// Run 执行闭环直到 Accept/ForceAccept/Fail。
// 严格串行：每一轮改写的提示词依赖上一轮的评估反馈，不允许并行。
func (g *QualityGate) Run(ctx context.Context, prompt, aspectRatio string) (*GateResult, error) {
	maxAttempts := g.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}

	currentPrompt := prompt
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		imageURL, err := g.Generator.Generate(ctx, currentPrompt, aspectRatio)
		if err != nil {
			return nil, err
		}

		// 评估始终对照最初的提示词，而不是改写后的
		analysis, err := g.Analyzer.Analyze(ctx, imageURL, prompt)
		if err != nil {
			// 评估能力不可用：降级为直接接受本次结果
			log.Printf("[quality] 评估失败，降级接受当前图像: %v", err)
			if g.Persist != nil {
				if perr := g.Persist(currentPrompt, imageURL, nil); perr != nil {
					return nil, perr
				}
			}
			return &GateResult{ImageURL: imageURL, Prompt: currentPrompt, Attempts: attempt}, nil
		}

		if g.Persist != nil {
			score := analysis.Score
			if perr := g.Persist(currentPrompt, imageURL, &score); perr != nil {
				return nil, perr
			}
		}

		decision := NextGateDecision(attempt, maxAttempts, analysis)
		log.Printf("[quality] attempt %d/%d score=%.1f decision=%s", attempt, maxAttempts, analysis.Score, decision)

		switch decision {
		case DecisionAccept:
			return &GateResult{ImageURL: imageURL, Prompt: currentPrompt, Score: analysis.Score, Attempts: attempt}, nil
		case DecisionForceAccept:
			return &GateResult{ImageURL: imageURL, Prompt: currentPrompt, Score: analysis.Score, Forced: true, Attempts: attempt}, nil
		case DecisionFail:
			return nil, fmt.Errorf("image rejected after %d attempts: score %.1f, issues: %s",
				attempt, analysis.Score, strings.Join(analysis.Issues, "; "))
		case DecisionRegenerate:
			currentPrompt = g.rewritePrompt(ctx, currentPrompt, analysis)
		}
	}
	// 循环逻辑保证在耗尽前已经返回
	return nil, fmt.Errorf("quality gate exhausted %d attempts", maxAttempts)
}

// rewritePrompt 依据评估反馈改写提示词，AI 不可用时走启发式兜底
func (g *QualityGate) rewritePrompt(ctx context.Context, prompt string, a *ImageAnalysis) string {
	return TryWithFallback(ctx, "prompt-rewrite", g.rewriteFunc(prompt, a), func() string {
		return heuristicRewrite(prompt, a)
	})
}

func (g *QualityGate) rewriteFunc(prompt string, a *ImageAnalysis) func(ctx context.Context) (string, error) {
	if g.Text == nil {
		return nil
	}
	return func(ctx context.Context) (string, error) {
		var sb strings.Builder
		sb.WriteString("Improve this image generation prompt so the listed problems do not recur. Reply with the prompt only.\n")
		sb.WriteString("Prompt: " + prompt + "\n")
		if len(a.Issues) > 0 {
			sb.WriteString("Problems: " + strings.Join(a.Issues, "; ") + "\n")
		}
		if len(a.Suggestions) > 0 {
			sb.WriteString("Suggestions: " + strings.Join(a.Suggestions, "; ") + "\n")
		}
		if a.ColorMismatch != nil {
			sb.WriteString(fmt.Sprintf("Color mismatch: expected %s, got %s (%s)\n",
				a.ColorMismatch.Expected, a.ColorMismatch.Found, a.ColorMismatch.Severity))
		}
		return g.Text.Complete(ctx, sb.String())
	}
}

// heuristicRewrite 确定性改写：按问题类别追加固定补救措辞。
// 严重色彩偏差的补救放在最前面，权重最高。
func heuristicRewrite(prompt string, a *ImageAnalysis) string {
	var additions []string
	for _, issue := range a.Issues {
		lower := strings.ToLower(issue)
		switch {
		case strings.Contains(lower, "missing") || strings.Contains(lower, "incomplete") || strings.Contains(lower, "cut off"):
			additions = append(additions, "complete product fully visible in frame, nothing cropped")
		case strings.Contains(lower, "blur") || strings.Contains(lower, "focus") || strings.Contains(lower, "lighting") || strings.Contains(lower, "dark"):
			additions = append(additions, "sharp focus, even studio lighting")
		}
	}
	additions = append(additions, a.Suggestions...)

	result := prompt
	if len(additions) > 0 {
		result = result + ", " + strings.Join(dedupStrings(additions), ", ")
	}
	if a.ColorMismatch != nil && a.ColorMismatch.Severity == MismatchCritical {
		result = fmt.Sprintf("strictly %s colored product, ", a.ColorMismatch.Expected) + result
	}
	return result
}

func dedupStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
