package service

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"PromoVideo-server/config"

	"github.com/hibiken/asynq"
)

const (
	TypeGenerateBatch = "batch:generate"
	TypeRenderItem    = "render:item"
)

type BatchPayload struct {
	BatchID string `json:"batch_id"`
}

type RenderPayload struct {
	ItemID string `json:"item_id"`
}

var QueueClient *asynq.Client

// InitQueue 初始化
func InitQueue() {
	QueueClient = asynq.NewClient(asynq.RedisClientOpt{
		Addr:     config.AppConfig.Redis.Addr,
		Password: config.AppConfig.Redis.Password,
	})
}

// EnqueueGenerateBatch 批次生成任务入队
func EnqueueGenerateBatch(batchID string) error {
	payload, err := json.Marshal(BatchPayload{BatchID: batchID})
	if err != nil {
		return fmt.Errorf("marshal payload failed: %w", err)
	}

	task := asynq.NewTask(TypeGenerateBatch, payload,
		asynq.MaxRetry(0),             // 批次级不自动重试，重入由 API 再次触发
		asynq.Timeout(6*time.Hour),    // 整批生成可能很慢
		asynq.Retention(24*time.Hour), // 任务结果在 Redis 保留时间
	)

	info, err := QueueClient.Enqueue(task)
	if err != nil {
		return fmt.Errorf("enqueue failed: %w", err)
	}

	log.Printf("[Queue] Batch Enqueued: BatchID=%s, ID=%s", batchID, info.ID)
	return nil
}

// EnqueueRenderItem 下游渲染任务入队：投递到渲染队列即返回，
// 渲染服务自行消费，本服务不关心结果
func EnqueueRenderItem(itemID string) error {
	payload, err := json.Marshal(RenderPayload{ItemID: itemID})
	if err != nil {
		return fmt.Errorf("marshal payload failed: %w", err)
	}

	task := asynq.NewTask(TypeRenderItem, payload,
		asynq.Queue(config.AppConfig.Renderer.Queue),
		asynq.MaxRetry(3),
		asynq.Retention(24*time.Hour),
	)

	info, err := QueueClient.Enqueue(task)
	if err != nil {
		return fmt.Errorf("enqueue failed: %w", err)
	}

	log.Printf("[Queue] Render Enqueued: ItemID=%s, ID=%s", itemID, info.ID)
	return nil
}
