package service

import (
	"context"
	"log"
	"strings"
)

// TryWithFallback 统一的 "AI 主策略 + 确定性兜底" 组合器。
// 提示词增强、提示词压缩、动画提示词生成都走这里：primary 为 nil、报错
// 或返回空串时退回 fallback，绝不让 AI 不可用拖垮流水线。
func TryWithFallback(ctx context.Context, label string, primary func(ctx context.Context) (string, error), fallback func() string) string {
	if primary != nil {
		out, err := primary(ctx)
		if err == nil && strings.TrimSpace(out) != "" {
			return strings.TrimSpace(out)
		}
		if err != nil {
			log.Printf("[%s] AI 调用失败，使用兜底策略: %v", label, err)
		}
	}
	return fallback()
}
