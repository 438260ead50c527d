package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Afonso-Front-End/torre-de-controle/internal/auth"
	"github.com/Afonso-Front-End/torre-de-controle/pkg/constants"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user":  UserID(c),
			"table": GetTableID(c),
		})
	})
	r.Any("/x", handlers...)
	return r
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	r := newRouter(RequestID())

	w := serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Header().Get(HeaderRequestID) == "" {
		t.Fatalf("expected a generated request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderRequestID, "abc")
	if got := serve(r, req).Header().Get(HeaderRequestID); got != "abc" {
		t.Fatalf("expected the caller's id to be echoed, got %q", got)
	}
}

func TestSecurityHeadersAndCORS(t *testing.T) {
	r := newRouter(SecurityHeaders(), CORS([]string{"http://localhost:5173"}))

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := serve(r, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected preflight 204, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" || w.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Fatalf("unexpected CORS headers %v", w.Header())
	}
	if w.Header().Get("X-Frame-Options") != "DENY" || w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("missing security headers %v", w.Header())
	}

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = serve(r, req)
	if w.Code != http.StatusOK || w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("unknown origin must not be allowed, got %d %v", w.Code, w.Header())
	}
}

type fakeTokens struct{}

func (fakeTokens) ParseAccessToken(token string) (auth.AccessClaims, error) {
	if token != "good" {
		return auth.AccessClaims{}, errors.New("bad token")
	}
	claims := auth.AccessClaims{Nome: "ana"}
	claims.Subject = "u1"
	return claims, nil
}

func TestAuth(t *testing.T) {
	r := newRouter(Auth(fakeTokens{}))
	cases := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"missing", "", http.StatusUnauthorized, constants.ErrTokenMissing},
		{"wrong scheme", "Basic good", http.StatusUnauthorized, constants.ErrTokenMissing},
		{"invalid", "Bearer nope", http.StatusUnauthorized, constants.ErrTokenInvalid},
		{"valid", "bearer good", http.StatusOK, `"user":"u1"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := serve(r, req)
			if w.Code != tc.status || !strings.Contains(w.Body.String(), tc.body) {
				t.Fatalf("got %d %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestAuthWithRealTokens(t *testing.T) {
	tokens := auth.NewTokenManager("secret", time.Minute)
	token, _, err := tokens.IssueAccessToken("u42", "ana")
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := serve(newRouter(Auth(tokens)), req)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"user":"u42"`) {
		t.Fatalf("got %d %s", w.Code, w.Body.String())
	}
}

func TestTableID(t *testing.T) {
	r := newRouter(TableID())
	cases := []struct {
		header string
		status int
		body   string
	}{
		{"", http.StatusBadRequest, constants.ErrTableIDRequired},
		{"abc", http.StatusBadRequest, constants.ErrTableIDNotNumber},
		{"0", http.StatusBadRequest, constants.ErrTableIDOutOfRange},
		{"21", http.StatusBadRequest, constants.ErrTableIDOutOfRange},
		{" 20 ", http.StatusOK, `"table":20`},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		if tc.header != "" {
			req.Header.Set(HeaderTableID, tc.header)
		}
		w := serve(r, req)
		if w.Code != tc.status || !strings.Contains(w.Body.String(), tc.body) {
			t.Errorf("X-Table-Id %q: got %d %s", tc.header, w.Code, w.Body.String())
		}
	}
}

func TestRateLimitInMemory(t *testing.T) {
	rl := NewRateLimiter(nil)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	r := newRouter(rl.Limit("login", 2, time.Minute))

	get := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.RemoteAddr = ip + ":1234"
		return serve(r, req).Code
	}
	if get("10.0.0.1") != http.StatusOK || get("10.0.0.1") != http.StatusOK {
		t.Fatalf("first two requests must pass")
	}
	if code := get("10.0.0.1"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", code)
	}
	if get("10.0.0.2") != http.StatusOK {
		t.Fatalf("other clients must not share the window")
	}

	now = now.Add(time.Minute)
	if get("10.0.0.1") != http.StatusOK {
		t.Fatalf("window should have reset")
	}
}

func TestUploadLimit(t *testing.T) {
	r := newRouter(UploadLimit(1))
	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("small"))
	if w := serve(r, req); w.Code != http.StatusOK {
		t.Fatalf("small body rejected: %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(strings.Repeat("a", 2*1024*1024)))
	w := serve(r, req)
	if w.Code != http.StatusRequestEntityTooLarge || !strings.Contains(w.Body.String(), "Limite: 1 MB.") {
		t.Fatalf("expected 413, got %d %s", w.Code, w.Body.String())
	}
}
