package llm

import (
	"errors"
	"fmt"
)

// 错误分类是封闭集合，每次调用最多产生其中一种，均不在内部重试：
//   - ErrConfig    构造期配置非法，未发起任何网络请求
//   - ErrNetwork   传输层失败（连接拒绝、超时、DNS、TLS）
//   - *HTTPError   上游返回非 2xx，携带状态码和响应体
//   - ErrParse     2xx 但响应体不是合法 JSON
//   - *ShapeError  JSON 合法但不含任何已知的补全文本路径
var (
	ErrConfig  = errors.New("INVALID_LLM_CONFIG")
	ErrNetwork = errors.New("LLM_NETWORK_ERROR")
	ErrParse   = errors.New("LLM_PARSE_ERROR")
)

// HTTPError 上游非 2xx 响应。Body 为解析后的 JSON（any），
// 解析失败时为原始文本（string）。
type HTTPError struct {
	StatusCode int
	Body       any
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("llm: upstream returned %d: %v", e.StatusCode, e.Body)
}

// ShapeError 响应 JSON 合法但形状不符合任何已知路径，
// 携带完整解码结果供诊断。
type ShapeError struct {
	Body any
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("llm: unexpected response shape: %v", e.Body)
}
