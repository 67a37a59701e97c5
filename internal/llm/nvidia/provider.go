package nvidia

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"docsum/internal/llm"
)

const name = "nvidia"
const defaultBaseURL = "https://integrate.api.nvidia.com/v1"
const defaultTimeout = 60 * time.Second

// Config NVIDIA NIM 配置（OpenAI 兼容 API，也适用于其他兼容部署）
type Config struct {
	APIKey     string `yaml:"api_key"`     // 必填
	BaseURL    string `yaml:"base_url"`    // 默认 https://integrate.api.nvidia.com/v1
	Model      string `yaml:"model"`       // 必填，如 meta/llama-3.1-8b-instruct
	TimeoutSec int    `yaml:"timeout_sec"` // 默认 60
}

// Provider NVIDIA NIM 实现
type Provider struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

// New 创建 NVIDIA Provider。配置在此处一次性校验，之后不再变更；
// 构造不发起任何网络请求。
func New(cfg *Config) (*Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nvidia 配置为空", llm.ErrConfig)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: api_key 不能为空", llm.ErrConfig)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: model 不能为空", llm.ErrConfig)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("%w: base_url 必须是 http(s) URL: %q", llm.ErrConfig, baseURL)
	}

	timeout := defaultTimeout
	if cfg.TimeoutSec > 0 {
		timeout = time.Duration(cfg.TimeoutSec) * time.Second
	}

	return &Provider{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}, nil
}

// Name 返回 provider 名称
func (p *Provider) Name() string {
	return name
}

// chatRequest chat completions 请求。stream 固定为 false，
// temperature/max_tokens 始终写入请求体。
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []llm.Message `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Stream      bool          `json:"stream"`
}

// Complete 调用 /chat/completions，单次同步请求，失败不重试。
// 错误按传输失败、非 2xx、JSON 解析失败、形状不识别依次分类，
// 见 llm 包的错误定义。
func (p *Provider) Complete(ctx context.Context, req *llm.CompleteRequest) (*llm.CompleteResponse, error) {
	body := chatRequest{
		Model:       p.model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      false,
	}
	if body.MaxTokens <= 0 {
		body.MaxTokens = 512
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("nvidia: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("nvidia: new request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("nvidia: %w: %w", llm.ErrNetwork, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("nvidia: %w: read body: %w", llm.ErrNetwork, err)
	}

	if resp.StatusCode != http.StatusOK {
		// 尽量透出服务端给的错误详情
		var detail any
		if err := json.Unmarshal(raw, &detail); err != nil {
			detail = string(raw)
		}
		return nil, &llm.HTTPError{StatusCode: resp.StatusCode, Body: detail}
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("nvidia: %w: %w", llm.ErrParse, err)
	}

	content, ok := extractContent(decoded)
	if !ok {
		return nil, &llm.ShapeError{Body: decoded}
	}

	return &llm.CompleteResponse{
		Content: content,
		Model:   modelFrom(decoded, p.model),
		Usage:   usageFrom(decoded),
	}, nil
}
