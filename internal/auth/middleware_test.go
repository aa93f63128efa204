package auth

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestMain(m *testing.M) {
	os.Setenv("APP_SECRET", "test-secret-key-for-testing")
	gin.SetMode(gin.TestMode)

	code := m.Run()

	os.Unsetenv("APP_SECRET")
	os.Exit(code)
}

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateToken("user123", "testuser")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if token == "" {
		t.Fatal("Expected non-empty token")
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims["user_id"] != "user123" {
		t.Errorf("Expected user_id 'user123', got %v", claims["user_id"])
	}
	if claims["username"] != "testuser" {
		t.Errorf("Expected username 'testuser', got %v", claims["username"])
	}
}

func TestValidateToken_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-token"},
		{name: "empty", token: ""},
		{name: "tampered", token: "eyJhbGciOiJIUzI1NiJ9.eyJmYWtlIjoidG9rZW4ifQ.invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ValidateToken(tt.token); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestRequireAuth(t *testing.T) {
	am := NewAuthMiddleware()
	router := gin.New()
	router.GET("/protected", am.RequireAuth(), func(c *gin.Context) {
		userID, _ := c.Get("user_id")
		c.String(http.StatusOK, userID.(string))
	})

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/protected", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401, got %d", w.Code)
		}
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Bearer bogus")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401, got %d", w.Code)
		}
	})

	t.Run("valid bearer token", func(t *testing.T) {
		token, err := GenerateToken("user123", "testuser")
		if err != nil {
			t.Fatalf("GenerateToken failed: %v", err)
		}

		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d", w.Code)
		}
		if w.Body.String() != "user123" {
			t.Errorf("Expected body 'user123', got %q", w.Body.String())
		}
	})

	t.Run("token via query parameter", func(t *testing.T) {
		token, err := GenerateToken("user456", "wsuser")
		if err != nil {
			t.Fatalf("GenerateToken failed: %v", err)
		}

		req := httptest.NewRequest("GET", "/protected?token="+token, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d", w.Code)
		}
	})
}
