package service

import (
	"context"
	"sync"
	"time"
)

// ProgressSnapshot 批次进度快照，在每个条目落定后更新
type ProgressSnapshot struct {
	Total     int       `json:"total"`
	Completed int       `json:"completed"`
	Failed    int       `json:"failed"`
	Current   string    `json:"current"` // 最近落定/正在处理的条目 id
	Done      bool      `json:"done"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// StatusStore 批次进度存储。注入编排器而不是进程级全局状态，
// 便于替换成外部 KV 实现。
type StatusStore interface {
	Set(batchID string, snap ProgressSnapshot)
	Get(batchID string) (ProgressSnapshot, bool)
	Delete(batchID string)
}

type statusEntry struct {
	snap      ProgressSnapshot
	updatedAt time.Time
}

// MemoryStatusStore 互斥锁保护的内存实现，带 TTL 周期清理
type MemoryStatusStore struct {
	mu  sync.RWMutex
	m   map[string]statusEntry
	ttl time.Duration
	now func() time.Time
}

func NewMemoryStatusStore(ttl time.Duration) *MemoryStatusStore {
	return &MemoryStatusStore{
		m:   make(map[string]statusEntry),
		ttl: ttl,
		now: time.Now,
	}
}

func (s *MemoryStatusStore) Set(batchID string, snap ProgressSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap.UpdatedAt = s.now()
	s.m[batchID] = statusEntry{snap: snap, updatedAt: snap.UpdatedAt}
}

func (s *MemoryStatusStore) Get(batchID string) (ProgressSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.m[batchID]
	return e.snap, ok
}

func (s *MemoryStatusStore) Delete(batchID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, batchID)
}

// Sweep 清理超过 TTL 未更新的条目，返回清理数量
func (s *MemoryStatusStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-s.ttl)
	removed := 0
	for id, e := range s.m {
		if e.updatedAt.Before(cutoff) {
			delete(s.m, id)
			removed++
		}
	}
	return removed
}

// StartSweeper 启动周期清理协程，ctx 取消时退出
func (s *MemoryStatusStore) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}

// ProgressStore 服务内默认的进度存储，路由层与编排器共用
var ProgressStore = NewMemoryStatusStore(30 * time.Minute)
