package service

import (
	"context"
	"fmt"
	"sync"
)

// 动画提供方 id
const (
	ProviderKling = "kling" // 快速、低成本
	ProviderVeo   = "veo"   // 电影感
)

// AnimationOptions 动画生成参数
type AnimationOptions struct {
	DurationSec int
	Resolution  string
	CameraFixed bool
	EndImageURL string // 可选：结尾帧
}

// AnimationResult 统一的动画生成结果
type AnimationResult struct {
	VideoURL string
	Cost     float64
	Metadata map[string]interface{}
}

// AnimationProvider 可互换的外部动画能力。新增提供方只需注册一个实现，
// 编排代码不感知具体分支。
type AnimationProvider interface {
	Name() string
	Generate(ctx context.Context, imageURL, prompt string, opts AnimationOptions) (*AnimationResult, error)
}

// ProviderRegistry 提供方注册表
type ProviderRegistry struct {
	mu sync.RWMutex
	m  map[string]AnimationProvider
}

func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{m: make(map[string]AnimationProvider)}
}

func (r *ProviderRegistry) Register(p AnimationProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[p.Name()] = p
}

func (r *ProviderRegistry) Get(name string) (AnimationProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.m[name]
	if !ok {
		return nil, fmt.Errorf("unknown animation provider: %s", name)
	}
	return p, nil
}

// klingProvider 快速/低成本的图生视频 worker
type klingProvider struct {
	endpoint string
}

func NewKlingProvider(endpoint string) AnimationProvider {
	return &klingProvider{endpoint: endpoint}
}

func (p *klingProvider) Name() string { return ProviderKling }

func (p *klingProvider) Generate(ctx context.Context, imageURL, prompt string, opts AnimationOptions) (*AnimationResult, error) {
	payload := map[string]interface{}{
		"type":         "image_to_video",
		"image_url":    imageURL,
		"prompt":       prompt,
		"duration":     opts.DurationSec,
		"resolution":   opts.Resolution,
		"camera_fixed": opts.CameraFixed,
		"mode":         "std",
	}
	if opts.EndImageURL != "" {
		payload["image_tail_url"] = opts.EndImageURL
	}
	return generateAnimationJob(ctx, p.endpoint, p.Name(), payload)
}

// veoProvider 电影感的图生视频 worker
type veoProvider struct {
	endpoint string
}

func NewVeoProvider(endpoint string) AnimationProvider {
	return &veoProvider{endpoint: endpoint}
}

func (p *veoProvider) Name() string { return ProviderVeo }

func (p *veoProvider) Generate(ctx context.Context, imageURL, prompt string, opts AnimationOptions) (*AnimationResult, error) {
	payload := map[string]interface{}{
		"type":             "image_to_video",
		"image_url":        imageURL,
		"prompt":           prompt,
		"duration_seconds": opts.DurationSec,
		"resolution":       opts.Resolution,
		"motion_style":     "cinematic",
		"lock_camera":      opts.CameraFixed,
	}
	if opts.EndImageURL != "" {
		payload["last_frame_url"] = opts.EndImageURL
	}
	return generateAnimationJob(ctx, p.endpoint, p.Name(), payload)
}

// generateAnimationJob 两个提供方共用的 dispatch + poll 流程
func generateAnimationJob(ctx context.Context, endpoint, provider string, payload map[string]interface{}) (*AnimationResult, error) {
	jobID, err := dispatchWorkerJob(ctx, endpoint, payload)
	if err != nil {
		return nil, fmt.Errorf("%s worker request failed: %w", provider, err)
	}
	resourceURL, err := pollWorkerJob(ctx, endpoint, jobID)
	if err != nil {
		return nil, err
	}
	if resourceURL == "" {
		return nil, &GenerationError{Stage: "animation", Message: "no video url returned"}
	}
	return &AnimationResult{
		VideoURL: resourceURL,
		Metadata: map[string]interface{}{"job_id": jobID, "provider": provider},
	}, nil
}

// AnimationAdapter 把存储 URL 解析成临时可访问 URL 后调用选定的提供方。
// 本层不做跨提供方兜底：哪个提供方失败，哪个分镜就失败。
type AnimationAdapter struct {
	Registry *ProviderRegistry
}

func (a *AnimationAdapter) Generate(ctx context.Context, imageURL, prompt, provider string, opts AnimationOptions) (*AnimationResult, error) {
	p, err := a.Registry.Get(provider)
	if err != nil {
		return nil, err
	}
	// 签名失败时 ResolveTemporaryURL 会退回原始 URL，不中断
	resolved := ResolveTemporaryURL(imageURL)
	if opts.EndImageURL != "" {
		opts.EndImageURL = ResolveTemporaryURL(opts.EndImageURL)
	}
	return p.Generate(ctx, resolved, prompt, opts)
}
