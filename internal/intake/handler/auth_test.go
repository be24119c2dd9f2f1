package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/project-guardian/guardian/internal/intake/handler"
)

func authRouter(keys []string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(handler.APIKeyAuth(keys))
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"pong": true})
	})
	return r
}

func ping(router *gin.Engine, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAPIKeyAuth(t *testing.T) {
	router := authRouter([]string{"key-one", "key-two"})

	cases := []struct {
		name string
		key  string
		want int
	}{
		{"first configured key", "key-one", http.StatusOK},
		{"second configured key", "key-two", http.StatusOK},
		{"unknown key", "key-three", http.StatusUnauthorized},
		{"missing key", "", http.StatusUnauthorized},
		{"prefix of a valid key", "key-on", http.StatusUnauthorized},
		{"valid key with suffix", "key-one-extra", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if w := ping(router, tc.key); w.Code != tc.want {
				t.Errorf("got %d, want %d", w.Code, tc.want)
			}
		})
	}
}

func TestAPIKeyAuth_uniformRejectionBody(t *testing.T) {
	router := authRouter([]string{"key-one"})

	missing := ping(router, "")
	wrong := ping(router, "nope")
	if missing.Body.String() != wrong.Body.String() {
		t.Errorf("rejection bodies differ: %q vs %q", missing.Body.String(), wrong.Body.String())
	}
}

func TestAPIKeyAuth_emptyConfiguredKeyNeverMatches(t *testing.T) {
	// An operator leaving a blank entry in the key list must not open the
	// endpoint to requests without a key.
	router := authRouter([]string{""})

	if w := ping(router, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("empty configured key matched empty header: %d", w.Code)
	}
}
