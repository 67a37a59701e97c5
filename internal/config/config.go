package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"docsum/internal/llmfactory"
)

// Config 应用配置
type Config struct {
	Server       ServerConfig              `yaml:"server"`
	APIKey       string                    `yaml:"api_key"`
	APIKeys      []string                  `yaml:"api_keys"`
	HistoryStore string                    `yaml:"history_store"` // memory | sqlite，默认 memory
	Database     DatabaseConfig            `yaml:"database"`
	LLM          llmfactory.ProviderConfig `yaml:"llm"`
}

// ServerConfig 服务配置
type ServerConfig struct {
	Port int `yaml:"port"`
}

// DatabaseConfig 历史存储数据库配置
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// Load 加载配置文件
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// 展开环境变量（配置文件里支持写 ${NVIDIA_API_KEY} 这类引用）
	cfg.APIKey = os.ExpandEnv(cfg.APIKey)
	for i := range cfg.APIKeys {
		cfg.APIKeys[i] = os.ExpandEnv(cfg.APIKeys[i])
	}
	if cfg.LLM.NVIDIA != nil {
		cfg.LLM.NVIDIA.APIKey = os.ExpandEnv(cfg.LLM.NVIDIA.APIKey)
		cfg.LLM.NVIDIA.BaseURL = os.ExpandEnv(cfg.LLM.NVIDIA.BaseURL)
		cfg.LLM.NVIDIA.Model = os.ExpandEnv(cfg.LLM.NVIDIA.Model)
	}
	if cfg.LLM.Ollama != nil {
		cfg.LLM.Ollama.BaseURL = os.ExpandEnv(cfg.LLM.Ollama.BaseURL)
		cfg.LLM.Ollama.Model = os.ExpandEnv(cfg.LLM.Ollama.Model)
	}

	// 环境变量覆盖
	if k := os.Getenv("API_KEY"); k != "" {
		cfg.APIKey = k
	}

	// 默认值（NVIDIA_* 的兜底在 llmfactory 里做）
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.HistoryStore == "" {
		cfg.HistoryStore = "memory"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" && cfg.Database.Driver == "sqlite" {
		cfg.Database.DSN = "./data/docsum.db"
	}

	return &cfg, nil
}

// LoadFromEnv 从环境变量指定的路径或默认路径加载。
// 先尝试加载 .env，本地开发用，文件不存在时忽略。
func LoadFromEnv() (*Config, error) {
	_ = godotenv.Load()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	if !filepath.IsAbs(path) {
		if cwd, err := os.Getwd(); err == nil {
			path = filepath.Join(cwd, path)
		}
	}
	return Load(path)
}

// Keys 返回合并后的服务端 API Key 列表
func (c *Config) Keys() []string {
	keys := make([]string, 0, len(c.APIKeys)+1)
	if c.APIKey != "" {
		keys = append(keys, c.APIKey)
	}
	for _, k := range c.APIKeys {
		if k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port 非法: %d", c.Server.Port)
	}
	if len(c.Keys()) == 0 {
		return fmt.Errorf("api_key 未配置，请设置 config.api_key / config.api_keys 或环境变量 API_KEY")
	}
	switch c.LLM.Provider {
	case "", "nvidia", "ollama":
	default:
		return fmt.Errorf("不支持的 llm provider: %s", c.LLM.Provider)
	}
	switch c.HistoryStore {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("不支持的 history_store: %s", c.HistoryStore)
	}
	return nil
}
