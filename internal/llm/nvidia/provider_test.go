package nvidia

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"docsum/internal/llm"
)

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(&Config{Model: "meta/llama-3.1-8b-instruct"})
	if !errors.Is(err, llm.ErrConfig) {
		t.Fatalf("expected ErrConfig for empty api key, got %v", err)
	}
}

func TestNew_RequiresModel(t *testing.T) {
	_, err := New(&Config{APIKey: "nvapi-test"})
	if !errors.Is(err, llm.ErrConfig) {
		t.Fatalf("expected ErrConfig for empty model, got %v", err)
	}
}

func TestNew_RejectsNonHTTPBaseURL(t *testing.T) {
	for _, base := range []string{"integrate.api.nvidia.com/v1", "ftp://example.com/v1"} {
		_, err := New(&Config{APIKey: "nvapi-test", Model: "m", BaseURL: base})
		if !errors.Is(err, llm.ErrConfig) {
			t.Errorf("base_url %q: expected ErrConfig, got %v", base, err)
		}
	}
}

func TestNew_DefaultBaseURL(t *testing.T) {
	p, err := New(&Config{APIKey: "nvapi-test", Model: "m"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if p.baseURL != defaultBaseURL {
		t.Errorf("expected default base url %q, got %q", defaultBaseURL, p.baseURL)
	}
}

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	p, err := New(&Config{APIKey: "nvapi-test", Model: "meta/llama-3.1-8b-instruct", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return p
}

func TestComplete_RequestWire(t *testing.T) {
	var got chatRequest
	var auth, contentType, path string
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		auth = r.Header.Get("Authorization")
		contentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	})

	_, err := p.Complete(context.Background(), &llm.CompleteRequest{
		Messages: []llm.Message{
			{Role: "system", Content: "You are a world-class summarization assistant."},
			{Role: "user", Content: "prompt"},
		},
		Temperature: 0.2,
		MaxTokens:   256,
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if path != "/chat/completions" {
		t.Errorf("expected POST /chat/completions, got %s", path)
	}
	if auth != "Bearer nvapi-test" {
		t.Errorf("unexpected Authorization header: %q", auth)
	}
	if contentType != "application/json" {
		t.Errorf("unexpected Content-Type: %q", contentType)
	}
	if got.Stream {
		t.Error("stream must be fixed to false")
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Role != "user" {
		t.Errorf("expected exactly system+user messages, got %+v", got.Messages)
	}
	if got.MaxTokens != 256 || got.Temperature != 0.2 {
		t.Errorf("unexpected sampling params: %+v", got)
	}
	if got.Model != "meta/llama-3.1-8b-instruct" {
		t.Errorf("unexpected model: %q", got.Model)
	}
}

func TestComplete_NormalizesKnownShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"choices message content", `{"choices":[{"message":{"content":"  X  "}}]}`, "X"},
		{"choices text", `{"choices":[{"text":"legacy completion"}]}`, "legacy completion"},
		{"top-level output_text", `{"output_text":"flat output"}`, "flat output"},
		{"top-level text", `{"text":"plain text"}`, "plain text"},
		{"empty first path falls through", `{"choices":[{"message":{"content":""},"text":"fallback"}]}`, "fallback"},
		{"usage present", `{"choices":[{"message":{"content":"X"}}],"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`, "X"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})
			resp, err := p.Complete(context.Background(), &llm.CompleteRequest{
				Messages: []llm.Message{{Role: "user", Content: "prompt"}},
			})
			if err != nil {
				t.Fatalf("Complete failed: %v", err)
			}
			if resp.Content != tt.want {
				t.Errorf("expected content %q, got %q", tt.want, resp.Content)
			}
		})
	}
}

func TestComplete_Usage(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":"X"}}],"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`))
	})
	resp, err := p.Complete(context.Background(), &llm.CompleteRequest{
		Messages: []llm.Message{{Role: "user", Content: "prompt"}},
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if resp.Usage == nil || resp.Usage.TotalTokens != 15 || resp.Usage.PromptTokens != 10 {
		t.Errorf("unexpected usage: %+v", resp.Usage)
	}
}

func TestComplete_UnexpectedShape(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"cmpl-1","object":"chat.completion"}`))
	})
	_, err := p.Complete(context.Background(), &llm.CompleteRequest{
		Messages: []llm.Message{{Role: "user", Content: "prompt"}},
	})
	var shapeErr *llm.ShapeError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("expected ShapeError, got %v", err)
	}
	body, ok := shapeErr.Body.(map[string]any)
	if !ok || body["id"] != "cmpl-1" {
		t.Errorf("ShapeError should carry the decoded body, got %v", shapeErr.Body)
	}
}

func TestComplete_HTTPError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":{"message":"overloaded"}}`))
	})
	_, err := p.Complete(context.Background(), &llm.CompleteRequest{
		Messages: []llm.Message{{Role: "user", Content: "prompt"}},
	})
	var httpErr *llm.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if httpErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", httpErr.StatusCode)
	}
	if _, ok := httpErr.Body.(map[string]any); !ok {
		t.Errorf("expected parsed JSON body, got %T", httpErr.Body)
	}
}

func TestComplete_HTTPErrorRawBody(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	})
	_, err := p.Complete(context.Background(), &llm.CompleteRequest{
		Messages: []llm.Message{{Role: "user", Content: "prompt"}},
	})
	var httpErr *llm.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if httpErr.Body != "upstream exploded" {
		t.Errorf("expected raw text body, got %v", httpErr.Body)
	}
}

func TestComplete_ParseError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": [`))
	})
	_, err := p.Complete(context.Background(), &llm.CompleteRequest{
		Messages: []llm.Message{{Role: "user", Content: "prompt"}},
	})
	if !errors.Is(err, llm.ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestComplete_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	p, err := New(&Config{APIKey: "nvapi-test", Model: "m", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	srv.Close()

	_, err = p.Complete(context.Background(), &llm.CompleteRequest{
		Messages: []llm.Message{{Role: "user", Content: "prompt"}},
	})
	if !errors.Is(err, llm.ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
}

func TestExtractContent_FailsSafely(t *testing.T) {
	bodies := []string{
		`{"choices":"not a list"}`,
		`{"choices":[]}`,
		`{"choices":[{"message":"not a map"}]}`,
		`{"choices":[{"message":{"content":42}}]}`,
		`{"text":123}`,
		`[1,2,3]`,
		`"just a string"`,
	}
	for _, raw := range bodies {
		var decoded any
		if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
			t.Fatalf("bad fixture %q: %v", raw, err)
		}
		if s, ok := extractContent(decoded); ok {
			t.Errorf("body %s: expected no match, got %q", raw, s)
		}
	}
}
