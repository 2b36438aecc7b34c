package models

import "testing"

func TestDeriveItemStatus(t *testing.T) {
	tests := []struct {
		name       string
		statuses   []string
		wantStatus string
		wantErrMsg string
	}{
		{"all completed", []string{SceneStatusCompleted, SceneStatusCompleted, SceneStatusCompleted}, ItemStatusCompleted, ""},
		{"none completed", []string{SceneStatusFailed, SceneStatusFailed, SceneStatusFailed}, ItemStatusFailed, "all scenes failed"},
		{"partial", []string{SceneStatusCompleted, SceneStatusCompleted, SceneStatusFailed}, ItemStatusFailed, "1 of 3 scenes failed"},
		{"single failed", []string{SceneStatusFailed}, ItemStatusFailed, "all scenes failed"},
		{"no scenes", nil, ItemStatusFailed, "all scenes failed"},
	}

	for _, tt := range tests {
		scenes := make([]Scene, len(tt.statuses))
		for i, s := range tt.statuses {
			scenes[i] = Scene{Status: s}
		}
		status, errMsg := DeriveItemStatus(scenes)
		if status != tt.wantStatus || errMsg != tt.wantErrMsg {
			t.Errorf("%s: DeriveItemStatus = (%q, %q), want (%q, %q)",
				tt.name, status, errMsg, tt.wantStatus, tt.wantErrMsg)
		}
	}
}

// 部分成功绝不能标记 completed
func TestDeriveItemStatus_NeverCompletedOnPartial(t *testing.T) {
	for failed := 1; failed <= 5; failed++ {
		scenes := []Scene{{Status: SceneStatusCompleted}}
		for i := 0; i < failed; i++ {
			scenes = append(scenes, Scene{Status: SceneStatusFailed})
		}
		status, _ := DeriveItemStatus(scenes)
		if status == ItemStatusCompleted {
			t.Fatalf("item completed with %d failed scenes", failed)
		}
	}
}

func TestNextVersionNumber(t *testing.T) {
	tests := []struct {
		existing []int
		want     int
	}{
		{nil, 1},
		{[]int{1}, 2},
		{[]int{1, 2, 3}, 4},
		{[]int{3, 1, 2}, 4},
		{[]int{5}, 6}, // 外部写入造成的空洞不回填
	}
	for _, tt := range tests {
		if got := NextVersionNumber(tt.existing); got != tt.want {
			t.Errorf("NextVersionNumber(%v) = %d, want %d", tt.existing, got, tt.want)
		}
	}
}
