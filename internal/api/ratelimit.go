package api

import (
	"net/http"
	"sync"
	"time"
)

// RateLimiter 固定时间窗口限流，按客户端维度计数。
// 保护的是本服务的入口，不限制对上游 LLM 的调用节奏。
type RateLimiter struct {
	mu       sync.Mutex
	requests map[string]*clientWindow
	limit    int
	window   time.Duration
}

type clientWindow struct {
	count     int
	expiresAt time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		requests: make(map[string]*clientWindow),
		limit:    limit,
		window:   window,
	}
	go rl.cleanupExpired()
	return rl
}

func (rl *RateLimiter) Allow(clientID string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	win, exists := rl.requests[clientID]

	if !exists || now.After(win.expiresAt) {
		rl.requests[clientID] = &clientWindow{
			count:     1,
			expiresAt: now.Add(rl.window),
		}
		return true
	}

	if win.count >= rl.limit {
		return false
	}

	win.count++
	return true
}

func (rl *RateLimiter) cleanupExpired() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()
		for id, win := range rl.requests {
			if now.After(win.expiresAt) {
				delete(rl.requests, id)
			}
		}
		rl.mu.Unlock()
	}
}

func (h *Handler) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := r.Header.Get("X-Forwarded-For")
		if clientID == "" {
			clientID = r.RemoteAddr
		}

		if !h.rateLimiter.Allow(clientID) {
			writeError(w, http.StatusTooManyRequests, "RATE_LIMIT", "请求过于频繁，请稍后再试")
			return
		}

		next.ServeHTTP(w, r)
	})
}
