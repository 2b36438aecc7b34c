package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

func TestNextGateDecision(t *testing.T) {
	minor := &ColorMismatch{Expected: "green", Found: "teal", Severity: MismatchMinor}
	critical := &ColorMismatch{Expected: "green", Found: "red", Severity: MismatchCritical}

	tests := []struct {
		name     string
		attempt  int
		analysis ImageAnalysis
		want     GateDecision
	}{
		{"high score accepts", 1, ImageAnalysis{Score: 8.5}, DecisionAccept},
		{"exactly 8 accepts", 1, ImageAnalysis{Score: 8}, DecisionAccept},
		{"7 with minor mismatch accepts", 1, ImageAnalysis{Score: 7.2, ColorMismatch: minor}, DecisionAccept},
		{"7 without mismatch regenerates", 1, ImageAnalysis{Score: 7.2}, DecisionRegenerate},
		{"7 with critical mismatch regenerates", 1, ImageAnalysis{Score: 7.2, ColorMismatch: critical}, DecisionRegenerate},
		{"low score mid-run regenerates", 3, ImageAnalysis{Score: 2}, DecisionRegenerate},
		{"exhausted low score fails", 5, ImageAnalysis{Score: 4.9}, DecisionFail},
		{"exhausted critical mismatch fails", 5, ImageAnalysis{Score: 6.5, ColorMismatch: critical}, DecisionFail},
		{"exhausted mediocre force-accepts", 5, ImageAnalysis{Score: 6.5}, DecisionForceAccept},
		{"exhausted 5.0 force-accepts", 5, ImageAnalysis{Score: 5.0}, DecisionForceAccept},
	}
	for _, tt := range tests {
		a := tt.analysis
		if got := NextGateDecision(tt.attempt, 5, &a); got != tt.want {
			t.Errorf("%s: NextGateDecision = %v, want %v", tt.name, got, tt.want)
		}
	}
}

type scriptedGenerator struct {
	calls int
}

func (g *scriptedGenerator) Generate(ctx context.Context, prompt, aspectRatio string) (string, error) {
	g.calls++
	return fmt.Sprintf("http://storage/img-%d.png", g.calls), nil
}

type scriptedAnalyzer struct {
	analyses []ImageAnalysis
	i        int
}

func (a *scriptedAnalyzer) Analyze(ctx context.Context, imageURL, referencePrompt string) (*ImageAnalysis, error) {
	if a.i >= len(a.analyses) {
		a.i = len(a.analyses) - 1
	}
	out := a.analyses[a.i]
	a.i++
	return &out, nil
}

func (a *scriptedAnalyzer) Describe(ctx context.Context, imageURL string) (string, error) {
	return "a product on a table", nil
}

// 分数持续偏低时，生成次数不得超过上限
func TestQualityGate_BoundedAttempts(t *testing.T) {
	gen := &scriptedGenerator{}
	gate := &QualityGate{
		Generator:   gen,
		Analyzer:    &scriptedAnalyzer{analyses: []ImageAnalysis{{Score: 2, Issues: []string{"blurry"}}}},
		MaxAttempts: 5,
	}
	_, err := gate.Run(context.Background(), "a toaster", "16:9")
	if err == nil {
		t.Fatal("persistently low score must fail")
	}
	if gen.calls != 5 {
		t.Errorf("generator called %d times, want exactly 5", gen.calls)
	}
}

func TestQualityGate_AcceptsOnGoodScore(t *testing.T) {
	gen := &scriptedGenerator{}
	gate := &QualityGate{
		Generator:   gen,
		Analyzer:    &scriptedAnalyzer{analyses: []ImageAnalysis{{Score: 4}, {Score: 9}}},
		MaxAttempts: 5,
	}
	res, err := gate.Run(context.Background(), "a toaster", "16:9")
	if err != nil {
		t.Fatal(err)
	}
	if res.Score != 9 || res.Forced {
		t.Errorf("got score=%.1f forced=%v, want clean accept at 9", res.Score, res.Forced)
	}
	if gen.calls != 2 {
		t.Errorf("generator called %d times, want 2", gen.calls)
	}
}

func TestQualityGate_ForceAcceptOnExhaustion(t *testing.T) {
	gate := &QualityGate{
		Generator:   &scriptedGenerator{},
		Analyzer:    &scriptedAnalyzer{analyses: []ImageAnalysis{{Score: 6}}},
		MaxAttempts: 3,
	}
	res, err := gate.Run(context.Background(), "a toaster", "16:9")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Forced {
		t.Error("mediocre score on exhaustion must force-accept")
	}
	if res.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", res.Attempts)
	}
}

// 每次生成都要落一个版本
func TestQualityGate_PersistsEveryAttempt(t *testing.T) {
	persisted := 0
	gate := &QualityGate{
		Generator:   &scriptedGenerator{},
		Analyzer:    &scriptedAnalyzer{analyses: []ImageAnalysis{{Score: 3}, {Score: 3}, {Score: 8.5}}},
		MaxAttempts: 5,
		Persist: func(prompt, imageURL string, score *float64) error {
			persisted++
			return nil
		},
	}
	if _, err := gate.Run(context.Background(), "a toaster", "16:9"); err != nil {
		t.Fatal(err)
	}
	if persisted != 3 {
		t.Errorf("persisted %d versions, want 3", persisted)
	}
}

func TestHeuristicRewrite(t *testing.T) {
	a := &ImageAnalysis{
		Score:       3,
		Issues:      []string{"handle is missing", "image looks blurry"},
		Suggestions: []string{"frame the whole product"},
		ColorMismatch: &ColorMismatch{
			Expected: "vibrant green", Found: "gray", Severity: MismatchCritical,
		},
	}
	out := heuristicRewrite("a toaster on a table", a)

	if !strings.HasPrefix(out, "strictly vibrant green colored product") {
		t.Errorf("critical color fix must come first: %q", out)
	}
	if !strings.Contains(out, "nothing cropped") {
		t.Errorf("missing-part issue must add an integrity phrase: %q", out)
	}
	if !strings.Contains(out, "sharp focus") {
		t.Errorf("blur issue must add a focus/lighting phrase: %q", out)
	}
	if !strings.Contains(out, "frame the whole product") {
		t.Errorf("suggestions must be carried over: %q", out)
	}
}
