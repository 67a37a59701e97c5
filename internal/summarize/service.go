package summarize

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"docsum/internal/llm"
	"docsum/internal/logger"
)

// systemInstruction 固定的 system 消息，user 消息由 BuildPrompt 生成
const systemInstruction = "You are a world-class summarization assistant."

// defaultTemperature 摘要任务要求稳定输出，温度固定取低值
const defaultTemperature = 0.2

// lengthMaxTokens 目标长度到生成 token 预算的映射
var lengthMaxTokens = map[string]int{
	LengthShort:    256,
	LengthMedium:   512,
	LengthDetailed: 896,
}

const defaultMaxTokens = 512

// Service 摘要核心服务。构造后配置不可变，
// 每次 Summarize 发起且只发起一次同步 LLM 调用，失败不重试。
type Service struct {
	llm     llm.Provider
	history HistoryStore
}

// NewService 创建摘要服务
func NewService(provider llm.Provider, history HistoryStore) *Service {
	if history == nil {
		history = NewMemoryHistoryStore()
	}
	return &Service{
		llm:     provider,
		history: history,
	}
}

// SummarizeRequest 摘要请求
type SummarizeRequest struct {
	Text         string `json:"text" validate:"required"`
	Length       string `json:"length,omitempty" validate:"omitempty,oneof=short medium detailed"`
	Tone         string `json:"tone,omitempty" validate:"omitempty,oneof=neutral professional casual"`
	BulletPoints *bool  `json:"bullet_points,omitempty"` // 省略时默认 true
	IncludeTitle *bool  `json:"include_title,omitempty"` // 省略时默认 true
	MaxChars     int    `json:"max_chars,omitempty" validate:"omitempty,min=1"`
}

// SummarizeResponse 摘要响应
type SummarizeResponse struct {
	SummaryID string     `json:"summary_id"`
	Summary   string     `json:"summary"`
	Model     string     `json:"model"`
	Usage     *llm.Usage `json:"usage,omitempty"`
}

// Summarize 根据文档和格式选项生成摘要
func (s *Service) Summarize(ctx context.Context, req *SummarizeRequest) (*SummarizeResponse, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: text 不能为空", ErrEmptyDocument)
	}

	opts := PromptOptions{
		Length:       req.Length,
		Tone:         req.Tone,
		BulletPoints: boolOr(req.BulletPoints, true),
		IncludeTitle: boolOr(req.IncludeTitle, true),
		MaxChars:     req.MaxChars,
	}
	prompt := BuildPrompt(text, opts)

	maxTokens, ok := lengthMaxTokens[req.Length]
	if !ok {
		maxTokens = defaultMaxTokens
	}

	start := time.Now()
	resp, err := s.llm.Complete(ctx, &llm.CompleteRequest{
		Messages: []llm.Message{
			{Role: "system", Content: systemInstruction},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: defaultTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: llm complete: %w", ErrLLMError, err)
	}

	summaryID := generateSummaryID()
	s.saveRecord(summaryID, text, opts, resp, time.Since(start))

	return &SummarizeResponse{
		SummaryID: summaryID,
		Summary:   strings.TrimSpace(resp.Content),
		Model:     resp.Model,
		Usage:     resp.Usage,
	}, nil
}

// GetSummary 按 ID 查询历史记录
func (s *Service) GetSummary(summaryID string) (*SummaryRecord, error) {
	return s.history.Get(summaryID)
}

// ListSummaries 按时间倒序列出最近的历史记录
func (s *Service) ListSummaries(limit int) ([]*SummaryRecord, error) {
	return s.history.List(limit)
}

// saveRecord 写入审计记录。只追加、从不回读参与生成，
// 写入失败不影响本次摘要结果。
func (s *Service) saveRecord(summaryID, text string, opts PromptOptions, resp *llm.CompleteResponse, latency time.Duration) {
	rec := &SummaryRecord{
		SummaryID:    summaryID,
		Length:       opts.Length,
		Tone:         opts.Tone,
		BulletPoints: opts.BulletPoints,
		IncludeTitle: opts.IncludeTitle,
		DocChars:     len([]rune(text)),
		Model:        resp.Model,
		Summary:      strings.TrimSpace(resp.Content),
		LatencyMS:    latency.Milliseconds(),
		CreatedAt:    time.Now(),
	}
	if resp.Usage != nil {
		rec.PromptTokens = resp.Usage.PromptTokens
		rec.CompletionTokens = resp.Usage.CompletionTokens
		rec.TotalTokens = resp.Usage.TotalTokens
	}

	if err := s.history.Save(rec); err != nil {
		logger.Error("保存摘要记录失败",
			"summary_id", summaryID,
			"error", err)
	}
}

// generateSummaryID 生成摘要记录 ID
func generateSummaryID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		// 随机数生成失败时退化为时间戳
		b = []byte(fmt.Sprintf("%d", time.Now().UnixNano()))
		if len(b) > 16 {
			b = b[:16]
		}
	}
	return "sum_" + base64.URLEncoding.EncodeToString(b)[:22]
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
