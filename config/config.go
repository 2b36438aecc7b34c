package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	MySQL struct {
		DSN string `yaml:"dsn"`
	} `yaml:"mysql"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
	} `yaml:"redis"`
	MinIO struct {
		Endpoint  string `yaml:"endpoint"`
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
		Bucket    string `yaml:"bucket"`
		UseSSL    bool   `yaml:"use_ssl"`
		Domain    string `yaml:"domain"`
	} `yaml:"minio"`

	// AI 能力端点（均为 dispatch/poll 风格的 worker 服务）
	AI struct {
		TextAPI   string `yaml:"text_api"`   // 文本补全
		ImageAPI  string `yaml:"image_api"`  // 文生图
		VisionAPI string `yaml:"vision_api"` // 图像质量分析 / 描述
		Animation struct {
			KlingAPI string `yaml:"kling_api"` // 快速/低成本
			VeoAPI   string `yaml:"veo_api"`   // 电影感
		} `yaml:"animation"`
	} `yaml:"ai"`

	// 下游渲染：只投递队列消息，不等待结果
	Renderer struct {
		Queue string `yaml:"queue"`
	} `yaml:"renderer"`

	Pipeline struct {
		BatchConcurrency  int `yaml:"batch_concurrency"`   // 同时处理的条目数，默认 3
		QualityMaxRetries int `yaml:"quality_max_retries"` // 质量闭环最大生成次数，默认 5
		PromptMaxChars    int `yaml:"prompt_max_chars"`    // 提示词硬上限，默认 1500
		PollIntervalSec   int `yaml:"poll_interval_sec"`   // 轮询 worker 间隔，默认 3 秒
		CallTimeoutMin    int `yaml:"call_timeout_min"`    // 单次外部调用超时，默认 10 分钟
	} `yaml:"pipeline"`
}

var AppConfig *Config

func InitConfig() {
	f, err := os.Open("config/config.yaml")
	if err != nil {
		log.Fatalf("配置文件读取失败: %v", err)
	}
	defer f.Close()
	decoder := yaml.NewDecoder(f)
	AppConfig = &Config{}
	if err := decoder.Decode(AppConfig); err != nil {
		log.Fatalf("配置文件解析失败: %v", err)
	}
	applyDefaults(AppConfig)
}

func applyDefaults(c *Config) {
	if c.Pipeline.BatchConcurrency <= 0 {
		c.Pipeline.BatchConcurrency = 3
	}
	if c.Pipeline.QualityMaxRetries <= 0 {
		c.Pipeline.QualityMaxRetries = 5
	}
	if c.Pipeline.PromptMaxChars <= 0 {
		c.Pipeline.PromptMaxChars = 1500
	}
	if c.Pipeline.PollIntervalSec <= 0 {
		c.Pipeline.PollIntervalSec = 3
	}
	if c.Pipeline.CallTimeoutMin <= 0 {
		c.Pipeline.CallTimeoutMin = 10
	}
	if c.Renderer.Queue == "" {
		c.Renderer.Queue = "render"
	}
}

// CallTimeout 单次外部调用的超时时长
func (c *Config) CallTimeout() time.Duration {
	return time.Duration(c.Pipeline.CallTimeoutMin) * time.Minute
}

// PollInterval 轮询 worker 的间隔
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Pipeline.PollIntervalSec) * time.Second
}
