package service

import (
	"context"
	"fmt"
	"log"
	"sync"

	"PromoVideo-server/models"

	"gorm.io/gorm"
)

// ItemProcessor 单条目流水线的注入点，测试中可替换
type ItemProcessor interface {
	Process(ctx context.Context, item *models.WorkItem, batch *models.Batch) error
}

// Orchestrator 批次编排器：把 pending 条目按固定大小分组并发处理，
// 单条目失败只记录在该条目上，不影响同组其他条目。
type Orchestrator struct {
	DB            *gorm.DB
	Processor     ItemProcessor
	Status        StatusStore
	Concurrency   int
	OnProgress    func(batchID string, snap ProgressSnapshot)
	EnqueueRender func(itemID string) error
}

// Run 处理批次中所有 pending 条目。可重入：再次调用只会取到仍为
// pending 的条目，每个条目每轮恰好离开 pending 一次。
func (o *Orchestrator) Run(ctx context.Context, batchID string) error {
	batch, err := models.GetBatchByID(o.DB, batchID)
	if err != nil {
		return fmt.Errorf("batch not found: %w", err)
	}
	items, err := models.GetPendingItems(o.DB, batchID)
	if err != nil {
		return fmt.Errorf("load pending items failed: %w", err)
	}
	if len(items) == 0 {
		log.Printf("[orchestrator] 批次 %s 没有待处理条目", batchID)
		return nil
	}
	if err := batch.UpdateStatus(o.DB, models.BatchStatusProcessing); err != nil {
		log.Printf("[orchestrator] 更新批次状态失败: %v", err)
	}

	// 进度记录被多个并发流水线更新，统一走这把锁
	var mu sync.Mutex
	snap := ProgressSnapshot{Total: len(items)}
	o.report(batchID, snap)

	concurrency := o.Concurrency
	if concurrency <= 0 {
		concurrency = 3
	}

	RunInGroups(ctx, len(items), concurrency, func(ctx context.Context, i int) {
		item := &items[i]

		mu.Lock()
		snap.Current = item.ID
		o.report(batchID, snap)
		mu.Unlock()

		if err := o.Processor.Process(ctx, item, batch); err != nil {
			// 单条目失败：记录并继续，不影响兄弟条目
			log.Printf("[orchestrator] 条目 %s 处理失败: %v", item.ID, err)
			if uerr := item.UpdateStatus(o.DB, models.ItemStatusFailed, err.Error()); uerr != nil {
				log.Printf("[orchestrator] 记录条目失败状态出错: %v", uerr)
			}
			item.Status = models.ItemStatusFailed
		}

		mu.Lock()
		if item.Status == models.ItemStatusCompleted {
			snap.Completed++
		} else {
			snap.Failed++
		}
		o.report(batchID, snap)
		mu.Unlock()
	})

	snap.Done = true
	snap.Current = ""
	o.report(batchID, snap)

	if err := batch.UpdateStatus(o.DB, models.BatchStatusFinished); err != nil {
		log.Printf("[orchestrator] 更新批次状态失败: %v", err)
	}

	o.maybeDispatchRender(batchID)
	return nil
}

// maybeDispatchRender 批次内所有条目都 completed（且至少一条）时，
// 为每个条目投递一个下游渲染任务；只投递，不等待结果。
// 任何一个条目失败都不自动触发渲染。
func (o *Orchestrator) maybeDispatchRender(batchID string) {
	if o.EnqueueRender == nil {
		return
	}
	all, err := models.GetItemsByBatchID(o.DB, batchID)
	if err != nil {
		log.Printf("[orchestrator] 读取批次条目失败: %v", err)
		return
	}
	if len(all) == 0 {
		return
	}
	for i := range all {
		if all[i].Status != models.ItemStatusCompleted {
			return
		}
	}
	for i := range all {
		if err := o.EnqueueRender(all[i].ID); err != nil {
			log.Printf("[orchestrator] 渲染任务投递失败 item=%s: %v", all[i].ID, err)
		}
	}
	log.Printf("[orchestrator] 批次 %s 全部完成，已投递 %d 个渲染任务", batchID, len(all))
}

func (o *Orchestrator) report(batchID string, snap ProgressSnapshot) {
	if o.Status != nil {
		o.Status.Set(batchID, snap)
	}
	if o.OnProgress != nil {
		o.OnProgress(batchID, snap)
	}
}

// RunInGroups 把 n 个任务按 groupSize 分组执行：组内全部并发，
// 整组等待完成后才开始下一组。ctx 取消后不再启动新的组。
func RunInGroups(ctx context.Context, n, groupSize int, fn func(ctx context.Context, i int)) {
	for start := 0; start < n; start += groupSize {
		if ctx.Err() != nil {
			return
		}
		end := start + groupSize
		if end > n {
			end = n
		}
		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				fn(ctx, idx)
			}(i)
		}
		wg.Wait()
	}
}
