package middlewares_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/geocoder89/todohub/internal/actorctx"
	"github.com/geocoder89/todohub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(middlewares.RequestID())
	r.GET("/", func(c *gin.Context) {
		v, _ := c.Get(middlewares.CtxRequestID)
		// the request context carries the same id for context-only code
		if fromCtx, _ := actorctx.RequestIDFrom(c.Request.Context()); fromCtx != v {
			c.String(http.StatusInternalServerError, "context id %q != %q", fromCtx, v)
			return
		}
		c.String(http.StatusOK, v.(string))
	})

	t.Run("generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		id := w.Header().Get("X-Request-Id")
		if id == "" || id != w.Body.String() {
			t.Fatalf("header %q body %q", id, w.Body.String())
		}
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-Id", "abc-123")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if got := w.Header().Get("X-Request-Id"); got != "abc-123" {
			t.Fatalf("X-Request-Id = %q", got)
		}
	})
}

func TestRequireJSON(t *testing.T) {
	r := gin.New()
	r.Use(middlewares.RequireJSON())
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.PATCH("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		name   string
		method string
		ct     string
		body   string
		want   int
	}{
		{name: "json", method: http.MethodPost, ct: "application/json", body: `{}`, want: http.StatusOK},
		{name: "json_charset", method: http.MethodPatch, ct: "application/json; charset=utf-8", body: `{}`, want: http.StatusOK},
		{name: "form", method: http.MethodPost, ct: "application/x-www-form-urlencoded", body: "a=b", want: http.StatusUnsupportedMediaType},
		{name: "missing_ct", method: http.MethodPost, ct: "", body: `{}`, want: http.StatusUnsupportedMediaType},
		{name: "no_body", method: http.MethodPost, ct: "", body: "", want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/x", bytes.NewBufferString(tt.body))
			if tt.ct != "" {
				req.Header.Set("Content-Type", tt.ct)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Fatalf("got %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(middlewares.CORSMiddleware([]string{"http://app.test"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://app.test")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://app.test" {
		t.Fatalf("allow-origin = %q", got)
	}
	if !strings.Contains(w.Header().Get("Access-Control-Allow-Methods"), "PATCH") {
		t.Fatalf("PATCH must be allowed")
	}

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://evil.test")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unexpected allow-origin %q for unknown origin", got)
	}

	req = httptest.NewRequest(http.MethodOptions, "/x", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight got %d, want 204", w.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(middlewares.SecurityHeaders())
	r.GET("/todos", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/docs", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/todos", nil))
	if got := w.Header().Get("Content-Security-Policy"); got != "default-src 'none'" {
		t.Fatalf("csp = %q", got)
	}
	if got := w.Header().Get("Cache-Control"); got != "no-store" {
		t.Fatalf("cache-control = %q", got)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/docs", nil))
	if !strings.Contains(w.Header().Get("Content-Security-Policy"), "unpkg.com") {
		t.Fatalf("docs csp should allow swagger assets")
	}
}

func TestMaxBodyBytes(t *testing.T) {
	r := gin.New()
	r.Use(middlewares.MaxBodyBytes(8))
	r.POST("/x", func(c *gin.Context) {
		var v map[string]any
		if err := c.ShouldBindJSON(&v); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/x", bytes.NewBufferString(`{"name":"far too long"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400 for oversized body", w.Code)
	}
}
