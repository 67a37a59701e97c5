package summarize

import (
	"sort"
	"sync"
	"time"
)

// SummaryRecord 一次摘要调用的审计记录
type SummaryRecord struct {
	SummaryID        string    `json:"summary_id"`
	Length           string    `json:"length"`
	Tone             string    `json:"tone"`
	BulletPoints     bool      `json:"bullet_points"`
	IncludeTitle     bool      `json:"include_title"`
	DocChars         int       `json:"doc_chars"`
	Model            string    `json:"model"`
	Summary          string    `json:"summary"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	TotalTokens      int       `json:"total_tokens"`
	LatencyMS        int64     `json:"latency_ms"`
	CreatedAt        time.Time `json:"created_at"`
}

// HistoryStore 摘要历史存储接口。
// 只做事后审计，摘要流程从不在调用 LLM 之前读取它。
type HistoryStore interface {
	Get(summaryID string) (*SummaryRecord, error)
	Save(rec *SummaryRecord) error
	List(limit int) ([]*SummaryRecord, error)
	Delete(summaryID string) error
	Cleanup(maxAge time.Duration) error
	Close() error // 关闭存储，释放资源
}

const defaultListLimit = 20

// MemoryHistoryStore 内存历史存储
type MemoryHistoryStore struct {
	mu     sync.RWMutex
	store  map[string]*SummaryRecord
	stopCh chan struct{}
}

// NewMemoryHistoryStore 创建内存历史存储
func NewMemoryHistoryStore() *MemoryHistoryStore {
	store := &MemoryHistoryStore{
		store:  make(map[string]*SummaryRecord),
		stopCh: make(chan struct{}),
	}
	// 启动后台清理任务
	go store.startCleanupTask()
	return store
}

// Get 获取记录
func (m *MemoryHistoryStore) Get(summaryID string) (*SummaryRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.store[summaryID]
	if !ok {
		return nil, ErrSummaryNotFound
	}
	return rec, nil
}

// Save 保存记录
func (m *MemoryHistoryStore) Save(rec *SummaryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[rec.SummaryID] = rec
	return nil
}

// List 按时间倒序列出最近的记录
func (m *MemoryHistoryStore) List(limit int) ([]*SummaryRecord, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	m.mu.RLock()
	recs := make([]*SummaryRecord, 0, len(m.store))
	for _, rec := range m.store {
		recs = append(recs, rec)
	}
	m.mu.RUnlock()

	sort.Slice(recs, func(i, j int) bool {
		return recs[i].CreatedAt.After(recs[j].CreatedAt)
	})
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

// Delete 删除记录
func (m *MemoryHistoryStore) Delete(summaryID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, summaryID)
	return nil
}

// Cleanup 清理过期记录
func (m *MemoryHistoryStore) Cleanup(maxAge time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for id, rec := range m.store {
		if now.Sub(rec.CreatedAt) > maxAge {
			delete(m.store, id)
		}
	}
	return nil
}

// startCleanupTask 启动清理任务
func (m *MemoryHistoryStore) startCleanupTask() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			_ = m.Cleanup(24 * time.Hour) // 清理24小时前的记录
		}
	}
}

// Close 关闭存储，停止清理任务
func (m *MemoryHistoryStore) Close() error {
	close(m.stopCh)
	return nil
}
