package summarize

import (
	"fmt"
	"strings"
)

// 目标长度选项
const (
	LengthShort    = "short"
	LengthMedium   = "medium"
	LengthDetailed = "detailed"
)

// 语气选项
const (
	ToneNeutral      = "neutral"
	ToneProfessional = "professional"
	ToneCasual       = "casual"
)

// DefaultMaxChars 文档字符数上限，超出部分硬截断。
// 只是为了控制演示请求的成本，不做句子边界处理。
const DefaultMaxChars = 12000

// truncationMarker 截断标记，追加在被截断的文档末尾，
// 同时告知模型和阅读者内容被裁剪过。
const truncationMarker = "\n\n[...truncated for demo...]"

// lengthGuidance 长度枚举到指令文本的固定映射，未知值回退到默认
var lengthGuidance = map[string]string{
	LengthShort:    "≈120–150 words",
	LengthMedium:   "≈200–300 words",
	LengthDetailed: "≈400–600 words",
}

const defaultLengthGuidance = "≈150 words"

// toneGuidance 语气枚举到风格描述的固定映射，未知值回退到 neutral
var toneGuidance = map[string]string{
	ToneNeutral:      "neutral, objective",
	ToneProfessional: "concise, business-professional",
	ToneCasual:       "friendly, plain-language",
}

// PromptOptions 摘要格式选项
type PromptOptions struct {
	Length       string // short | medium | detailed
	Tone         string // neutral | professional | casual
	BulletPoints bool   // 关键要点使用列表
	IncludeTitle bool   // 以单行标题开头
	MaxChars     int    // 文档字符数上限，<=0 时取 DefaultMaxChars
}

// BuildPrompt 把文档和格式选项组装成一条摘要指令。
// 纯函数：无 I/O、无状态，对任何输入（包括空文档）都不会失败。
func BuildPrompt(docText string, opts PromptOptions) string {
	text := strings.TrimSpace(docText)

	maxChars := opts.MaxChars
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	// 按 rune 计数截断，避免把多字节字符切碎
	if runes := []rune(text); len(runes) > maxChars {
		text = string(runes[:maxChars]) + truncationMarker
	}

	length, ok := lengthGuidance[opts.Length]
	if !ok {
		length = defaultLengthGuidance
	}
	tone, ok := toneGuidance[opts.Tone]
	if !ok {
		tone = toneGuidance[ToneNeutral]
	}

	var instructions []string
	if opts.IncludeTitle {
		instructions = append(instructions, "Start with a single-line **Title** that captures the main topic.")
	}
	if opts.BulletPoints {
		instructions = append(instructions, "Use bullet points for key takeaways.")
	}
	instructions = append(instructions,
		"Avoid speculation. Preserve the original meaning.",
		"If the input is not summarizable, say so briefly.",
	)

	prompt := fmt.Sprintf(`You are a helpful assistant that produces accurate, faithful summaries.

**Goal**: Summarize the user's document.
**Target length**: %s
**Tone**: %s
**Formatting**:
- %s

**Document**:
%s`, length, tone, strings.Join(instructions, " "), text)

	return strings.TrimSpace(prompt)
}
