package inbox

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CountSource 未读数量来源
type CountSource interface {
	UnreadCount(ctx context.Context) (int64, error)
}

// Tracker 未读消息计数追踪器
// 进程内唯一的共享计数：页头角标和标签页角标读同一个实例
// 刷新时机：启动时、固定轮询间隔、以及每次变更操作之后
// 两次刷新之间显示值最多落后一个轮询间隔，属于可接受窗口
type Tracker struct {
	source   CountSource
	interval time.Duration
	log      *zap.Logger

	mu    sync.RWMutex
	count int64
}

// NewTracker 创建Tracker实例
func NewTracker(source CountSource, interval time.Duration, log *zap.Logger) *Tracker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tracker{
		source:   source,
		interval: interval,
		log:      log,
	}
}

// Count 读取当前计数（最后一次成功刷新的值）
func (t *Tracker) Count() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.count
}

// Refresh 立即向数据源拉取一次最新计数
// 失败时保留旧值，最后一次成功的拉取为准
func (t *Tracker) Refresh(ctx context.Context) error {
	count, err := t.source.UnreadCount(ctx)
	if err != nil {
		t.log.Warn("刷新未读计数失败", zap.Error(err))
		return err
	}

	t.mu.Lock()
	t.count = count
	t.mu.Unlock()
	return nil
}

// Start 启动轮询刷新，ctx取消后停止
// 启动时立即刷新一次
func (t *Tracker) Start(ctx context.Context) {
	go func() {
		_ = t.Refresh(ctx)

		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_ = t.Refresh(ctx)
			}
		}
	}()
}
