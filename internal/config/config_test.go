package config

import (
	"os"
	"path/filepath"
	"testing"

	"docsum/internal/llmfactory"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name: "valid config with api_key",
			config: Config{
				APIKey:       "test-key",
				Server:       ServerConfig{Port: 8080},
				LLM:          llmfactory.ProviderConfig{Provider: "nvidia"},
				HistoryStore: "memory",
			},
			wantErr: false,
		},
		{
			name: "valid config with api_keys",
			config: Config{
				APIKeys:      []string{"key1", "key2"},
				Server:       ServerConfig{Port: 8080},
				LLM:          llmfactory.ProviderConfig{Provider: "ollama"},
				HistoryStore: "sqlite",
			},
			wantErr: false,
		},
		{
			name: "missing api_key",
			config: Config{
				Server:       ServerConfig{Port: 8080},
				LLM:          llmfactory.ProviderConfig{Provider: "nvidia"},
				HistoryStore: "memory",
			},
			wantErr: true,
		},
		{
			name: "invalid port",
			config: Config{
				APIKey:       "test-key",
				Server:       ServerConfig{Port: 0},
				LLM:          llmfactory.ProviderConfig{Provider: "nvidia"},
				HistoryStore: "memory",
			},
			wantErr: true,
		},
		{
			name: "invalid provider",
			config: Config{
				APIKey:       "test-key",
				Server:       ServerConfig{Port: 8080},
				LLM:          llmfactory.ProviderConfig{Provider: "invalid"},
				HistoryStore: "memory",
			},
			wantErr: true,
		},
		{
			name: "invalid history store",
			config: Config{
				APIKey:       "test-key",
				Server:       ServerConfig{Port: 8080},
				LLM:          llmfactory.ProviderConfig{Provider: "nvidia"},
				HistoryStore: "redis",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_ExpandsEnvAndDefaults(t *testing.T) {
	t.Setenv("NVIDIA_API_KEY", "nvapi-from-env")

	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
api_key: server-key
llm:
  provider: nvidia
  nvidia:
    api_key: ${NVIDIA_API_KEY}
    model: meta/llama-3.1-8b-instruct
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.LLM.NVIDIA == nil || cfg.LLM.NVIDIA.APIKey != "nvapi-from-env" {
		t.Errorf("expected ${NVIDIA_API_KEY} to expand, got %+v", cfg.LLM.NVIDIA)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.HistoryStore != "memory" {
		t.Errorf("expected default history_store memory, got %q", cfg.HistoryStore)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}

func TestLoad_EnvOverridesAPIKey(t *testing.T) {
	t.Setenv("API_KEY", "override-key")

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("api_key: file-key\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.APIKey != "override-key" {
		t.Errorf("expected env to override file value, got %q", cfg.APIKey)
	}
}
