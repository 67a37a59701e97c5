package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"docsum/internal/extract"
	"docsum/internal/llm"
	"docsum/internal/summarize"
)

// Handler API 处理器
type Handler struct {
	svc         *summarize.Service
	apiKeys     map[string]bool
	validate    *validator.Validate
	rateLimiter *RateLimiter
}

const maxRequestBodyBytes int64 = 1 << 20 // JSON 请求体上限 1MB
const maxUploadBytes int64 = 10 << 20     // 上传文件上限 10MB
const maxSummaryListLimit = 100

// NewHandler 创建 Handler
func NewHandler(svc *summarize.Service, apiKeys []string) *Handler {
	keyMap := make(map[string]bool)
	for _, key := range apiKeys {
		keyMap[key] = true
	}
	return &Handler{
		svc:         svc,
		apiKeys:     keyMap,
		validate:    validator.New(),
		rateLimiter: NewRateLimiter(10, time.Minute), // 每分钟10个请求
	}
}

// Routes 注册路由
func (h *Handler) Routes(r chi.Router) {
	r.Get("/api/v1/health", h.Health)
	r.Group(func(r chi.Router) {
		r.Use(h.authMiddleware, h.rateLimitMiddleware)
		r.Post("/api/v1/summarize", h.Summarize)
		r.Post("/api/v1/summarize/file", h.SummarizeFile)
		r.Get("/api/v1/summaries", h.ListSummaries)
		r.Get("/api/v1/summaries/{id}", h.GetSummary)
	})
}

// authMiddleware API Key 认证
func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := extractAPIKey(r)
		if key == "" {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "缺少 API Key")
			return
		}
		if !h.apiKeys[key] {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "API Key 无效")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func extractAPIKey(r *http.Request) string {
	if k := r.Header.Get("Authorization"); k != "" {
		if strings.HasPrefix(k, "Bearer ") {
			return strings.TrimPrefix(k, "Bearer ")
		}
	}
	return r.Header.Get("X-API-Key")
}

// Health 健康检查
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks": map[string]interface{}{
			"service": map[string]string{
				"status": "ok",
			},
		},
	}
	json.NewEncoder(w).Encode(health)
}

// Summarize 生成文档摘要（JSON 请求）
func (h *Handler) Summarize(w http.ResponseWriter, r *http.Request) {
	if !strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Content-Type 必须为 application/json")
		return
	}

	var req summarize.SummarizeRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "INVALID_REQUEST", "请求体过大")
			return
		}
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "请求体解析失败: "+err.Error())
		return
	}

	h.runSummarize(w, r, &req)
}

// SummarizeFile 生成文档摘要（multipart 文件上传）。
// 表单字段：file 必填，length/tone/bullet_points/include_title/max_chars 可选。
func (h *Handler) SummarizeFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "multipart 解析失败: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "缺少 file 字段")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "读取上传文件失败: "+err.Error())
		return
	}

	text, err := extract.FromUpload(header.Filename, data)
	if err != nil {
		if errors.Is(err, extract.ErrUnsupportedType) {
			writeError(w, http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE", err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "文件解析失败: "+err.Error())
		return
	}

	req := summarize.SummarizeRequest{
		Text:   text,
		Length: r.FormValue("length"),
		Tone:   r.FormValue("tone"),
	}
	if v := r.FormValue("bullet_points"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "bullet_points 取值非法")
			return
		}
		req.BulletPoints = &b
	}
	if v := r.FormValue("include_title"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "include_title 取值非法")
			return
		}
		req.IncludeTitle = &b
	}
	if v := r.FormValue("max_chars"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "max_chars 取值非法")
			return
		}
		req.MaxChars = n
	}

	h.runSummarize(w, r, &req)
}

// runSummarize 校验请求并执行摘要，统一错误映射
func (h *Handler) runSummarize(w http.ResponseWriter, r *http.Request, req *summarize.SummarizeRequest) {
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "EMPTY_DOCUMENT", "text 不能为空")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok {
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "参数校验失败: "+ve.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "参数校验失败")
		return
	}

	resp, err := h.svc.Summarize(r.Context(), req)
	if err != nil {
		if errors.Is(err, summarize.ErrEmptyDocument) {
			writeError(w, http.StatusBadRequest, "EMPTY_DOCUMENT", err.Error())
			return
		}
		// 上游故障统一 502，非 2xx 时在 code 里透出上游状态码
		if errors.Is(err, summarize.ErrLLMError) {
			code := "LLM_ERROR"
			var httpErr *llm.HTTPError
			if errors.As(err, &httpErr) {
				code = "LLM_UPSTREAM_" + strconv.Itoa(httpErr.StatusCode)
			}
			writeError(w, http.StatusBadGateway, code, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

// ListSummaries 列出最近的摘要记录
func (h *Handler) ListSummaries(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxSummaryListLimit {
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "limit 取值非法")
			return
		}
		limit = n
	}

	recs, err := h.svc.ListSummaries(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	if recs == nil {
		recs = []*summarize.SummaryRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{"summaries": recs})
}

// GetSummary 按 ID 查询摘要记录
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := h.svc.GetSummary(id)
	if err != nil {
		if errors.Is(err, summarize.ErrSummaryNotFound) {
			writeError(w, http.StatusNotFound, "SUMMARY_NOT_FOUND", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(rec)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Code: code, Message: message})
}
