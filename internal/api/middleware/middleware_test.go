package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/timmy/memeforge/internal/logger"
)

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/ping", func(c *gin.Context) {
		id, _ := logger.FromContext(c.Request.Context()).Data[logger.FieldRequestID].(string)
		c.String(http.StatusOK, id)
	})
	return r
}

func TestIsOriginAllowed(t *testing.T) {
	tests := []struct {
		name   string
		origin string
		config CORSConfig
		want   bool
	}{
		{"allow all", "https://a.example", CORSConfig{AllowAllOrigins: true}, true},
		{"listed", "https://a.example", CORSConfig{AllowedOrigins: []string{"https://a.example"}}, true},
		{"case insensitive", "https://A.example", CORSConfig{AllowedOrigins: []string{"https://a.example"}}, true},
		{"wildcard entry", "https://b.example", CORSConfig{AllowedOrigins: []string{"*"}}, true},
		{"not listed", "https://b.example", CORSConfig{AllowedOrigins: []string{"https://a.example"}}, false},
		{"empty list", "https://b.example", CORSConfig{}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsOriginAllowed(tc.origin, tc.config); got != tc.want {
				t.Errorf("IsOriginAllowed = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name        string
		config      CORSConfig
		origin      string
		method      string
		wantStatus  int
		wantAllowed string
	}{
		{"no origin passes through", CORSConfig{AllowAllOrigins: true}, "", http.MethodGet, http.StatusOK, ""},
		{"allow all uses star", CORSConfig{AllowAllOrigins: true}, "https://a.example", http.MethodGet, http.StatusOK, "*"},
		{"listed origin echoed", CORSConfig{AllowedOrigins: []string{"https://a.example"}}, "https://a.example", http.MethodGet, http.StatusOK, "https://a.example"},
		{"unlisted origin gets no headers", CORSConfig{AllowedOrigins: []string{"https://a.example"}}, "https://b.example", http.MethodGet, http.StatusOK, ""},
		{"preflight", CORSConfig{AllowAllOrigins: true}, "https://a.example", http.MethodOptions, http.StatusNoContent, "*"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := newEngine(CORS(tc.config))
			req := httptest.NewRequest(tc.method, "/ping", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tc.wantStatus)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tc.wantAllowed {
				t.Errorf("Allow-Origin = %q, want %q", got, tc.wantAllowed)
			}
		})
	}
}

func TestLoggerMiddleware_RequestID(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&logger.Config{Level: "info", Format: "json", Output: &buf, ServiceName: "test"})
	r := newEngine(LoggerMiddleware(log))

	inbound := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, inbound)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Header().Get(RequestIDHeader) != inbound || w.Body.String() != inbound {
		t.Errorf("inbound request id not reused: header %q body %q", w.Header().Get(RequestIDHeader), w.Body.String())
	}
	if !strings.Contains(buf.String(), inbound) {
		t.Error("completion log line lacks the request id")
	}

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	got := w.Header().Get(RequestIDHeader)
	if got == "not-a-uuid" {
		t.Error("invalid inbound request id was reused")
	}
	if _, err := uuid.Parse(got); err != nil {
		t.Errorf("generated request id %q is not a uuid", got)
	}
}
