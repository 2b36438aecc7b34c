package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"PromoVideo-server/config"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

// Processor 消费队列中的批次生成任务，组装好全部依赖后交给编排器
type Processor struct {
	DB           *gorm.DB
	orchestrator *Orchestrator
}

func NewProcessor(db *gorm.DB) *Processor {
	cfg := config.AppConfig

	registry := NewProviderRegistry()
	registry.Register(NewKlingProvider(cfg.AI.Animation.KlingAPI))
	registry.Register(NewVeoProvider(cfg.AI.Animation.VeoAPI))

	text := &HTTPTextClient{Endpoint: cfg.AI.TextAPI}
	vision := &HTTPVisionClient{Endpoint: cfg.AI.VisionAPI}

	pipeline := &Pipeline{
		DB:          db,
		Vision:      vision,
		Images:      &HTTPImageClient{Endpoint: cfg.AI.ImageAPI},
		Text:        text,
		Animator:    &AnimationAdapter{Registry: registry},
		Prompts:     &PromptBuilder{Text: text, MaxChars: cfg.Pipeline.PromptMaxChars},
		AnimPrompts: NewAnimationPromptGenerator(text),
		MaxAttempts: cfg.Pipeline.QualityMaxRetries,
	}

	return &Processor{
		DB: db,
		orchestrator: &Orchestrator{
			DB:            db,
			Processor:     pipeline,
			Status:        ProgressStore,
			Concurrency:   cfg.Pipeline.BatchConcurrency,
			EnqueueRender: EnqueueRenderItem,
		},
	}
}

// StartProcessor 启动任务消费者
func (p *Processor) StartProcessor(concurrency int) {
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     config.AppConfig.Redis.Addr,
			Password: config.AppConfig.Redis.Password,
		},
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeGenerateBatch, p.HandleGenerateBatch)

	log.Printf("Starting Batch Processor with concurrency %d...", concurrency)
	go func() {
		if err := srv.Run(mux); err != nil {
			log.Fatalf("could not run server: %v", err)
		}
	}()
}

// HandleGenerateBatch 核心处理入口
func (p *Processor) HandleGenerateBatch(ctx context.Context, t *asynq.Task) error {
	var payload BatchPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("json.Unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}

	log.Printf("Processing Batch: %s", payload.BatchID)
	if err := p.orchestrator.Run(ctx, payload.BatchID); err != nil {
		log.Printf("批次处理失败: %v", err)
		return err
	}
	log.Printf("Batch %s run finished", payload.BatchID)
	return nil
}
