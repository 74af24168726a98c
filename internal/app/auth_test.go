package app

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "kennel-secret"

func signToken(t *testing.T, secret string, method jwt.SigningMethod, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestAuthMiddleware(t *testing.T) {
	router := gin.New()
	router.GET("/staff", AuthMiddleware(testSecret, []string{" static-1 ", ""}), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("staff_subject"))
	})

	valid := signToken(t, testSecret, jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "breeder@goldenpaws.test",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	expired := signToken(t, testSecret, jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "breeder@goldenpaws.test",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	wrongKey := signToken(t, "other-secret", jwt.SigningMethodHS256, jwt.MapClaims{"sub": "intruder"})

	tests := []struct {
		name    string
		header  string
		want    int
		subject string
	}{
		{"missing header", "", http.StatusUnauthorized, ""},
		{"basic scheme", "Basic abc", http.StatusUnauthorized, ""},
		{"valid jwt", "Bearer " + valid, http.StatusOK, "breeder@goldenpaws.test"},
		{"lowercase scheme", "bearer " + valid, http.StatusOK, "breeder@goldenpaws.test"},
		{"expired jwt", "Bearer " + expired, http.StatusUnauthorized, ""},
		{"wrong key", "Bearer " + wrongKey, http.StatusUnauthorized, ""},
		{"static token trimmed", "Bearer static-1", http.StatusOK, ""},
		{"unknown token", "Bearer static-2", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/staff", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusOK && rec.Body.String() != tt.subject {
				t.Errorf("subject = %q, want %q", rec.Body.String(), tt.subject)
			}
		})
	}
}

func TestAuthMiddleware_NoCredentialsRejectsAll(t *testing.T) {
	router := gin.New()
	router.GET("/staff", AuthMiddleware("", nil), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/staff", nil)
	req.Header.Set("Authorization", "Bearer anything")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d", rec.Code)
	}
}
