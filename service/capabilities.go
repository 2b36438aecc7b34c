package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"PromoVideo-server/config"
)

// 色彩偏差严重程度
const (
	MismatchMinor    = "minor"
	MismatchCritical = "critical"
)

// ColorMismatch 生成图与项目色彩要求的偏差
type ColorMismatch struct {
	Expected string `json:"expected"`
	Found    string `json:"found"`
	Severity string `json:"severity"` // minor | critical
}

// ImageAnalysis 质量评估结果，0~10 分
type ImageAnalysis struct {
	Score         float64        `json:"score"`
	Issues        []string       `json:"issues"`
	Suggestions   []string       `json:"suggestions"`
	ColorMismatch *ColorMismatch `json:"color_mismatch,omitempty"`
}

// GenerationError 外部能力没有返回任何产物
type GenerationError struct {
	Stage   string
	Message string
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed at %s: %s", e.Stage, e.Message)
}

// TextCompleter 文本补全能力。所有调用点都必须有非 AI 的确定性兜底。
type TextCompleter interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ImageGenerator 图像合成能力
type ImageGenerator interface {
	Generate(ctx context.Context, prompt, aspectRatio string) (string, error)
}

// VisionAnalyzer 图像质量评估 + 结构化描述能力
type VisionAnalyzer interface {
	Analyze(ctx context.Context, imageURL, referencePrompt string) (*ImageAnalysis, error)
	Describe(ctx context.Context, imageURL string) (string, error)
}

// ============================================================================
// 通信层：worker 的请求分发与轮询
// ============================================================================

// workerJob worker 返回的任务状态
type workerJob struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error"`
	Result struct {
		ResourceUrl string `json:"resource_url"`
	} `json:"result"`
}

// dispatchWorkerJob 发送 POST 请求到 worker，返回 job_id
func dispatchWorkerJob(ctx context.Context, endpoint string, payload map[string]interface{}) (string, error) {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request failed: %v", err)
	}
	fullURL := endpoint + "/v1/generate"
	log.Printf("POST %s", fullURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusAccepted {
		return "", fmt.Errorf("worker status code: %d", resp.StatusCode)
	}

	var respData map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&respData); err != nil {
		return "", fmt.Errorf("decode response failed: %v", err)
	}

	// 优先返回根节点的 id
	if id, ok := respData["id"].(string); ok {
		return id, nil
	}
	if jobID, ok := respData["job_id"].(string); ok {
		return jobID, nil
	}
	return "", fmt.Errorf("response missing 'id'")
}

// pollWorkerJob 轮询 GET /v1/jobs/{job_id} 直到完成，返回资源 URL
func pollWorkerJob(ctx context.Context, endpoint, jobID string) (string, error) {
	jobURL := fmt.Sprintf("%s/v1/jobs/%s", endpoint, jobID)

	timeout := time.After(config.AppConfig.CallTimeout())
	ticker := time.NewTicker(config.AppConfig.PollInterval())
	defer ticker.Stop()

	httpClient := &http.Client{Timeout: 30 * time.Second}

	for {
		select {
		case <-timeout:
			return "", fmt.Errorf("polling timeout")
		case <-ctx.Done():
			return "", fmt.Errorf("polling canceled: %v", ctx.Err())
		case <-ticker.C:
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, jobURL, nil)
			if err != nil {
				log.Printf("创建请求失败: %v", err)
				continue
			}
			resp, err := httpClient.Do(req)
			if err != nil {
				log.Printf("轮询网络错误(重试中): %v", err)
				continue
			}

			var job workerJob
			if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
				resp.Body.Close()
				log.Printf("解析响应失败: %v", err)
				continue
			}
			resp.Body.Close()

			switch job.Status {
			case "finished", "success", "completed", "succeeded":
				return job.Result.ResourceUrl, nil
			case "failed", "error":
				return "", fmt.Errorf("worker reported failure: %s", job.Error)
			}
			// 其他状态继续轮询
		}
	}
}

// ============================================================================
// HTTP 实现
// ============================================================================

// HTTPTextClient 同步文本补全 worker
type HTTPTextClient struct {
	Endpoint string
}

func (c *HTTPTextClient) Complete(ctx context.Context, prompt string) (string, error) {
	body, _ := json.Marshal(map[string]string{"prompt": prompt})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint+"/v1/complete", bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 2 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("text worker status code: %d", resp.StatusCode)
	}
	var respData struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&respData); err != nil {
		return "", fmt.Errorf("decode response failed: %v", err)
	}
	return respData.Text, nil
}

// HTTPImageClient 文生图 worker（dispatch + poll），结果转存 MinIO 后返回存储 URL
type HTTPImageClient struct {
	Endpoint string
}

func (c *HTTPImageClient) Generate(ctx context.Context, prompt, aspectRatio string) (string, error) {
	jobID, err := dispatchWorkerJob(ctx, c.Endpoint, map[string]interface{}{
		"type":         "generate_image",
		"prompt":       prompt,
		"aspect_ratio": aspectRatio,
	})
	if err != nil {
		return "", fmt.Errorf("image worker request failed: %w", err)
	}

	resourceURL, err := pollWorkerJob(ctx, c.Endpoint, jobID)
	if err != nil {
		return "", err
	}
	if resourceURL == "" {
		// 本层不重试，重试策略属于质量闭环
		return "", &GenerationError{Stage: "image", Message: "no artifact url returned"}
	}

	objectName := fmt.Sprintf("images/%s/image.png", jobID)
	storageURL, err := DownloadToStorage(ctx, resourceURL, objectName)
	if err != nil {
		return "", fmt.Errorf("处理图片资源失败: %v", err)
	}
	return storageURL, nil
}

// HTTPVisionClient 图像质量评估 / 描述 worker（同步接口）
type HTTPVisionClient struct {
	Endpoint string
}

func (c *HTTPVisionClient) post(ctx context.Context, path string, payload map[string]string, out interface{}) error {
	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint+path, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 2 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("vision worker status code: %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *HTTPVisionClient) Analyze(ctx context.Context, imageURL, referencePrompt string) (*ImageAnalysis, error) {
	var analysis ImageAnalysis
	err := c.post(ctx, "/v1/analyze", map[string]string{
		"image_url": ResolveTemporaryURL(imageURL),
		"prompt":    referencePrompt,
	}, &analysis)
	if err != nil {
		return nil, fmt.Errorf("analyze failed: %w", err)
	}
	return &analysis, nil
}

func (c *HTTPVisionClient) Describe(ctx context.Context, imageURL string) (string, error) {
	var respData struct {
		Description string `json:"description"`
	}
	err := c.post(ctx, "/v1/describe", map[string]string{
		"image_url": ResolveTemporaryURL(imageURL),
	}, &respData)
	if err != nil {
		return "", fmt.Errorf("describe failed: %w", err)
	}
	return respData.Description, nil
}
