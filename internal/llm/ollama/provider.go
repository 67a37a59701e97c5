package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"docsum/internal/llm"
)

const name = "ollama"
const defaultBaseURL = "http://localhost:11434"
const defaultTimeout = 60 * time.Second

// Config Ollama 配置，本地调试用的备选后端
type Config struct {
	BaseURL    string `yaml:"base_url"`    // 默认 http://localhost:11434
	Model      string `yaml:"model"`       // 如 qwen2.5:7b
	TimeoutSec int    `yaml:"timeout_sec"` // 默认 60
}

// Provider Ollama 实现
type Provider struct {
	client  *http.Client
	baseURL string
	model   string
}

// New 创建 Ollama Provider
func New(cfg *Config) (*Provider, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("%w: base_url 必须是 http(s) URL: %q", llm.ErrConfig, baseURL)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: model 不能为空", llm.ErrConfig)
	}
	timeout := defaultTimeout
	if cfg.TimeoutSec > 0 {
		timeout = time.Duration(cfg.TimeoutSec) * time.Second
	}
	return &Provider{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   cfg.Model,
	}, nil
}

// Name 返回 provider 名称
func (p *Provider) Name() string {
	return name
}

// ollamaRequest Ollama API 请求体
type ollamaRequest struct {
	Model       string        `json:"model"`
	Messages    []llm.Message `json:"messages"`
	Stream      bool          `json:"stream"`
	Options     options       `json:"options,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type options struct {
	NumPredict int `json:"num_predict,omitempty"`
}

// ollamaResponse Ollama API 响应体
type ollamaResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Model     string `json:"model"`
	EvalCount int    `json:"eval_count,omitempty"`
}

// Complete 调用 Ollama /api/chat，错误分类与 nvidia provider 一致
func (p *Provider) Complete(ctx context.Context, req *llm.CompleteRequest) (*llm.CompleteResponse, error) {
	body := ollamaRequest{
		Model:    p.model,
		Messages: req.Messages,
		Stream:   false,
		Options:  options{NumPredict: req.MaxTokens},
	}
	if t := req.Temperature; t > 0 {
		body.Temperature = &t
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("ollama: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("ollama: new request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama: %w: %w", llm.ErrNetwork, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ollama: %w: read body: %w", llm.ErrNetwork, err)
	}

	if resp.StatusCode != http.StatusOK {
		var detail any
		if err := json.Unmarshal(raw, &detail); err != nil {
			detail = string(raw)
		}
		return nil, &llm.HTTPError{StatusCode: resp.StatusCode, Body: detail}
	}

	var out ollamaResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("ollama: %w: %w", llm.ErrParse, err)
	}

	content := strings.TrimSpace(out.Message.Content)
	if content == "" {
		var decoded any
		_ = json.Unmarshal(raw, &decoded)
		return nil, &llm.ShapeError{Body: decoded}
	}

	model := out.Model
	if model == "" {
		model = p.model
	}
	usage := &llm.Usage{
		CompletionTokens: out.EvalCount,
		TotalTokens:      out.EvalCount, // Ollama 不返回 prompt tokens，简化处理
	}

	return &llm.CompleteResponse{
		Content: content,
		Model:   model,
		Usage:   usage,
	}, nil
}
