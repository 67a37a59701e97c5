package summarize

import (
	"database/sql"
	"errors"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const (
	sqliteCleanupInterval = 1 * time.Hour
	sqliteMaxAge          = 24 * time.Hour
)

// SQLiteHistoryStore SQLite 持久化历史存储
type SQLiteHistoryStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	stopCh chan struct{}
}

// NewSQLiteHistoryStore 创建 SQLite 历史存储
func NewSQLiteHistoryStore(dsn string) (*SQLiteHistoryStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// 配置连接池
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	store := &SQLiteHistoryStore{
		db:     db,
		stopCh: make(chan struct{}),
	}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	go store.startCleanupTask()
	return store, nil
}

// initSchema 初始化数据库表
func (s *SQLiteHistoryStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS summaries (
			id TEXT PRIMARY KEY,
			length TEXT,
			tone TEXT,
			bullet_points INTEGER NOT NULL DEFAULT 0,
			include_title INTEGER NOT NULL DEFAULT 0,
			doc_chars INTEGER NOT NULL DEFAULT 0,
			model TEXT,
			summary TEXT NOT NULL,
			prompt_tokens INTEGER NOT NULL DEFAULT 0,
			completion_tokens INTEGER NOT NULL DEFAULT 0,
			total_tokens INTEGER NOT NULL DEFAULT 0,
			latency_ms INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_summaries_created ON summaries(created_at);
	`)
	return err
}

// Get 获取记录
func (s *SQLiteHistoryStore) Get(summaryID string) (*SummaryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec := SummaryRecord{SummaryID: summaryID}
	err := s.db.QueryRow(`
		SELECT length, tone, bullet_points, include_title, doc_chars, model, summary,
		       prompt_tokens, completion_tokens, total_tokens, latency_ms, created_at
		FROM summaries WHERE id = ?
	`, summaryID).Scan(
		&rec.Length, &rec.Tone, &rec.BulletPoints, &rec.IncludeTitle, &rec.DocChars,
		&rec.Model, &rec.Summary,
		&rec.PromptTokens, &rec.CompletionTokens, &rec.TotalTokens,
		&rec.LatencyMS, &rec.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSummaryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Save 保存记录
func (s *SQLiteHistoryStore) Save(rec *SummaryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO summaries
			(id, length, tone, bullet_points, include_title, doc_chars, model, summary,
			 prompt_tokens, completion_tokens, total_tokens, latency_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.SummaryID, rec.Length, rec.Tone, rec.BulletPoints, rec.IncludeTitle,
		rec.DocChars, rec.Model, rec.Summary,
		rec.PromptTokens, rec.CompletionTokens, rec.TotalTokens,
		rec.LatencyMS, rec.CreatedAt,
	)
	return err
}

// List 按时间倒序列出最近的记录
func (s *SQLiteHistoryStore) List(limit int) ([]*SummaryRecord, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, length, tone, bullet_points, include_title, doc_chars, model, summary,
		       prompt_tokens, completion_tokens, total_tokens, latency_ms, created_at
		FROM summaries ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*SummaryRecord
	for rows.Next() {
		var rec SummaryRecord
		if err := rows.Scan(
			&rec.SummaryID, &rec.Length, &rec.Tone, &rec.BulletPoints, &rec.IncludeTitle,
			&rec.DocChars, &rec.Model, &rec.Summary,
			&rec.PromptTokens, &rec.CompletionTokens, &rec.TotalTokens,
			&rec.LatencyMS, &rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		recs = append(recs, &rec)
	}
	return recs, rows.Err()
}

// Delete 删除记录
func (s *SQLiteHistoryStore) Delete(summaryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`DELETE FROM summaries WHERE id = ?`, summaryID)
	return err
}

// Cleanup 清理过期记录
func (s *SQLiteHistoryStore) Cleanup(maxAge time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`DELETE FROM summaries WHERE created_at < ?`, time.Now().Add(-maxAge))
	return err
}

// startCleanupTask 启动清理任务
func (s *SQLiteHistoryStore) startCleanupTask() {
	ticker := time.NewTicker(sqliteCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			_ = s.Cleanup(sqliteMaxAge)
		}
	}
}

// Close 关闭存储，停止清理任务
func (s *SQLiteHistoryStore) Close() error {
	close(s.stopCh)
	return s.db.Close()
}
