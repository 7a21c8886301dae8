package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestAdminToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name       string
		configured string
		header     string
		want       int
		code       string
	}{
		{"disabled", "", "anything", http.StatusForbidden, "forbidden"},
		{"missing", "s3cret", "", http.StatusUnauthorized, "unauthorized"},
		{"wrong", "s3cret", "nope", http.StatusForbidden, "forbidden"},
		{"ok", "s3cret", "s3cret", http.StatusOK, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.Use(AdminToken(tc.configured))
			r.GET("/admin/poems", func(c *gin.Context) { c.Status(http.StatusOK) })

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/admin/poems", nil)
			if tc.header != "" {
				req.Header.Set(HeaderAdminToken, tc.header)
			}
			r.ServeHTTP(w, req)

			if w.Code != tc.want {
				t.Fatalf("status = %d, want %d", w.Code, tc.want)
			}
			if tc.code == "" {
				return
			}
			var body map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body["code"] != tc.code {
				t.Fatalf("code = %q, want %q", body["code"], tc.code)
			}
		})
	}
}
