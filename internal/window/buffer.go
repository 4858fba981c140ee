package window

import (
	"context"
	"sync"

	"biowatch-collector/internal/models"
)

// Buffer 采集与处理两条活动之间唯一共享的可变资源
// 容量为 1 的最新值槽：新完成的窗口会顶掉尚未被消费的旧窗口
// （freshness over completeness）。Put/Take 各自是有界临界区，
// 双方互不长时间阻塞。存活窗口保持组装时的时间顺序交付。
type Buffer struct {
	mu      sync.Mutex
	ch      chan *models.Window
	evicted int
}

// NewBuffer 创建窗口缓冲
func NewBuffer() *Buffer {
	return &Buffer{ch: make(chan *models.Window, 1)}
}

// Put 放入新窗口，必要时顶掉未消费的旧窗口
// 返回是否发生了顶替。
func (b *Buffer) Put(w *models.Window) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case b.ch <- w:
		return false
	default:
	}
	// 槽被占用：丢弃旧窗口再放入
	select {
	case <-b.ch:
		b.evicted++
	default:
	}
	b.ch <- w
	return true
}

// Take 取出下一个窗口，没有就绪窗口时阻塞到上下文取消
func (b *Buffer) Take(ctx context.Context) (*models.Window, error) {
	select {
	case w := <-b.ch:
		return w, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// TryTake 非阻塞取出（最终冲刷后排空用）
func (b *Buffer) TryTake() (*models.Window, bool) {
	select {
	case w := <-b.ch:
		return w, true
	default:
		return nil, false
	}
}

// Evicted 被顶替丢弃的窗口数
func (b *Buffer) Evicted() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.evicted
}
