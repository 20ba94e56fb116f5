package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/maravian/sync-server/pkg/hashutil"
)

func newRouter(password, passwordHash string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/auth/teacher", NewHandler(password, passwordHash, zap.NewNop()).Login)
	return router
}

func login(t *testing.T, router *gin.Engine, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/auth/teacher", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestLoginCorrectPassword(t *testing.T) {
	router := newRouter("open-sesame", "")
	w := login(t, router, gin.H{"password": "open-sesame"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", w.Code, w.Body.String())
	}
	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Admin bool `json:"admin"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || !resp.Data.Admin {
		t.Errorf("response = %+v", resp)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	router := newRouter("open-sesame", "")
	if w := login(t, router, gin.H{"password": "guess"}); w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestLoginMissingPassword(t *testing.T) {
	router := newRouter("open-sesame", "")
	if w := login(t, router, gin.H{}); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestLoginHashedPasswordTakesPrecedence(t *testing.T) {
	hash, err := hashutil.HashPassword("hashed-secret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	router := newRouter("plain-secret", hash)

	if w := login(t, router, gin.H{"password": "hashed-secret"}); w.Code != http.StatusOK {
		t.Errorf("hashed secret rejected: status = %d", w.Code)
	}
	if w := login(t, router, gin.H{"password": "plain-secret"}); w.Code != http.StatusUnauthorized {
		t.Errorf("plain secret accepted despite hash: status = %d", w.Code)
	}
}
