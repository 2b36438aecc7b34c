package service

import (
	"testing"

	"PromoVideo-server/models"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }
func boolPtr(v bool) *bool    { return &v }

func TestResolveSettings(t *testing.T) {
	batch := &models.Batch{
		SceneCount:       4,
		SceneDurationSec: 6,
		Provider:         ProviderVeo,
		OutputFormats:    models.StringList{"16:9", "9:16"},
		AnimationMode:    models.AnimationModeTemplate,
		TemplateID:       "push_in",
		CameraFixed:      true,
		AspectRatio:      "4:3",
	}

	// 无覆盖：全部取批次默认
	eff := ResolveSettings(&models.WorkItem{}, batch)
	if eff.SceneCount != 4 || eff.SceneDurationSec != 6 || eff.Provider != ProviderVeo {
		t.Errorf("defaults not applied: %+v", eff)
	}
	if !eff.CameraFixed || eff.AnimationMode != models.AnimationModeTemplate {
		t.Errorf("defaults not applied: %+v", eff)
	}

	// 逐字段覆盖
	item := &models.WorkItem{Settings: models.ItemSettings{
		SceneCount:       intPtr(2),
		SceneDurationSec: intPtr(10),
		Provider:         strPtr(ProviderKling),
		CameraFixed:      boolPtr(false),
		AnimationMode:    strPtr(models.AnimationModeAI),
		OutputFormats:    []string{"1:1"},
	}}
	eff = ResolveSettings(item, batch)
	if eff.SceneCount != 2 || eff.SceneDurationSec != 10 || eff.Provider != ProviderKling {
		t.Errorf("overrides not applied: %+v", eff)
	}
	if eff.CameraFixed || eff.AnimationMode != models.AnimationModeAI {
		t.Errorf("overrides not applied: %+v", eff)
	}
	if len(eff.OutputFormats) != 1 || eff.OutputFormats[0] != "1:1" {
		t.Errorf("output formats override not applied: %+v", eff.OutputFormats)
	}
	// 未覆盖的字段仍取默认
	if eff.TemplateID != "push_in" || eff.AspectRatio != "4:3" {
		t.Errorf("untouched fields lost defaults: %+v", eff)
	}

	// 空批次：兜底默认值
	eff = ResolveSettings(&models.WorkItem{}, &models.Batch{})
	if eff.SceneCount != 3 || eff.SceneDurationSec != 5 {
		t.Errorf("zero-value batch fallbacks wrong: %+v", eff)
	}
	if eff.Provider != ProviderKling || eff.AnimationMode != models.AnimationModeAI {
		t.Errorf("zero-value batch fallbacks wrong: %+v", eff)
	}
}
