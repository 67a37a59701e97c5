package nvidia

import (
	"strings"

	"docsum/internal/llm"
)

// 不同后端部署在同一 API 表面下会把补全文本放在不同的嵌套位置，
// 这里按固定顺序逐个尝试已知路径，取第一个非空命中。
// 每个路径在类型不匹配、键缺失或下标越界时安全返回未命中，绝不 panic。
type contentPath func(body any) (string, bool)

var contentPaths = []contentPath{
	fromChoiceMessageContent, // choices[0].message.content
	fromChoiceText,           // choices[0].text
	topLevelString("output_text"),
	topLevelString("text"),
}

// extractContent 运行有序路径匹配，返回去除首尾空白后的补全文本。
func extractContent(body any) (string, bool) {
	for _, path := range contentPaths {
		s, ok := path(body)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s != "" {
			return s, true
		}
	}
	return "", false
}

func fromChoiceMessageContent(body any) (string, bool) {
	choice, ok := firstChoice(body)
	if !ok {
		return "", false
	}
	msg, ok := choice["message"].(map[string]any)
	if !ok {
		return "", false
	}
	s, ok := msg["content"].(string)
	return s, ok
}

func fromChoiceText(body any) (string, bool) {
	choice, ok := firstChoice(body)
	if !ok {
		return "", false
	}
	s, ok := choice["text"].(string)
	return s, ok
}

func topLevelString(key string) contentPath {
	return func(body any) (string, bool) {
		m, ok := body.(map[string]any)
		if !ok {
			return "", false
		}
		s, ok := m[key].(string)
		return s, ok
	}
}

func firstChoice(body any) (map[string]any, bool) {
	m, ok := body.(map[string]any)
	if !ok {
		return nil, false
	}
	choices, ok := m["choices"].([]any)
	if !ok || len(choices) == 0 {
		return nil, false
	}
	choice, ok := choices[0].(map[string]any)
	return choice, ok
}

// usageFrom 提取 token 用量，缺失或类型不符时返回 nil。
func usageFrom(body any) *llm.Usage {
	m, ok := body.(map[string]any)
	if !ok {
		return nil
	}
	u, ok := m["usage"].(map[string]any)
	if !ok {
		return nil
	}
	return &llm.Usage{
		PromptTokens:     intField(u, "prompt_tokens"),
		CompletionTokens: intField(u, "completion_tokens"),
		TotalTokens:      intField(u, "total_tokens"),
	}
}

// modelFrom 返回响应中声明的模型名，缺失时回退到请求模型。
func modelFrom(body any, fallback string) string {
	if m, ok := body.(map[string]any); ok {
		if s, ok := m["model"].(string); ok && s != "" {
			return s
		}
	}
	return fallback
}

func intField(m map[string]any, key string) int {
	// encoding/json 把 JSON 数字解码为 float64
	if f, ok := m[key].(float64); ok {
		return int(f)
	}
	return 0
}
