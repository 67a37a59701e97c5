package llmfactory

import (
	"fmt"
	"os"

	"docsum/internal/llm"
	"docsum/internal/llm/nvidia"
	"docsum/internal/llm/ollama"
)

// ProviderConfig 各 provider 的配置（从 YAML 解析）
type ProviderConfig struct {
	Provider string         `yaml:"provider"`
	NVIDIA   *nvidia.Config `yaml:"nvidia,omitempty"`
	Ollama   *ollama.Config `yaml:"ollama,omitempty"`
}

// NewProviderFromConfig 根据配置创建 Provider。
// 配置链在这一层收口：YAML 值优先，NVIDIA_* 环境变量兜底，
// provider 构造函数只接收最终解析好的值。
func NewProviderFromConfig(cfg *ProviderConfig) (llm.Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("llm config is nil")
	}
	name := cfg.Provider
	if name == "" {
		name = "nvidia"
	}

	switch name {
	case "nvidia":
		var c nvidia.Config
		if cfg.NVIDIA != nil {
			c = *cfg.NVIDIA
		}
		if c.APIKey == "" {
			c.APIKey = os.Getenv("NVIDIA_API_KEY")
		}
		if c.BaseURL == "" {
			c.BaseURL = os.Getenv("NVIDIA_API_BASE")
		}
		if c.Model == "" {
			c.Model = os.Getenv("NVIDIA_MODEL")
		}
		return nvidia.New(&c)
	case "ollama":
		var c ollama.Config
		if cfg.Ollama != nil {
			c = *cfg.Ollama
		}
		return ollama.New(&c)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", name)
	}
}
