package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, claims *Claims, secret []byte) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func sessionClaims(ttl time.Duration) *Claims {
	return &Claims{
		UserID:   "user-1",
		TenantID: "tenant-1",
		Role:     "editor",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
}

// jwtRouter echoes the identity the middleware bound so tests can assert
// tenant and actor made it into the request context.
func jwtRouter(secret []byte) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(JWTAuthMiddleware(secret))
	r.GET("/ok", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("tenant_id")+":"+c.GetString("user_id"))
	})
	return r
}

func TestServiceAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ServiceAuthMiddleware("token123"))
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	// Missing header
	w := httptest.NewRecorder()
	req, _ := http.NewRequestWithContext(context.Background(), "GET", "/ok", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}

	// Wrong token
	w = httptest.NewRecorder()
	req, _ = http.NewRequestWithContext(context.Background(), "GET", "/ok", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}

	// Valid token
	w = httptest.NewRecorder()
	req, _ = http.NewRequestWithContext(context.Background(), "GET", "/ok", nil)
	req.Header.Set("Authorization", "Bearer token123")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestJWTAuthMiddleware_BindsIdentity(t *testing.T) {
	secret := []byte("secret")
	r := jwtRouter(secret)

	w := httptest.NewRecorder()
	req, _ := http.NewRequestWithContext(context.Background(), "GET", "/ok", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, sessionClaims(15*time.Minute), secret))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Body.String() != "tenant-1:user-1" {
		t.Fatalf("expected bound identity tenant-1:user-1, got %q", w.Body.String())
	}
}

func TestJWTAuthMiddleware_Rejects(t *testing.T) {
	secret := []byte("secret")
	r := jwtRouter(secret)

	cases := map[string]string{
		"missing header": "",
		"garbage token":  "Bearer not-a-jwt",
		"expired token":  "Bearer " + signToken(t, sessionClaims(-time.Minute), secret),
		"wrong secret":   "Bearer " + signToken(t, sessionClaims(15*time.Minute), []byte("other")),
		"no tenant": "Bearer " + signToken(t, &Claims{
			UserID: "user-1",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * time.Minute)),
			},
		}, secret),
	}

	for name, header := range cases {
		w := httptest.NewRecorder()
		req, _ := http.NewRequestWithContext(context.Background(), "GET", "/ok", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", name, w.Code)
		}
	}
}

func TestJWTAuthMiddleware_CookieFallback(t *testing.T) {
	secret := []byte("secret")
	r := jwtRouter(secret)

	w := httptest.NewRecorder()
	req, _ := http.NewRequestWithContext(context.Background(), "GET", "/ok", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: signToken(t, sessionClaims(15*time.Minute), secret)})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 via cookie, got %d", w.Code)
	}
	if w.Body.String() != "tenant-1:user-1" {
		t.Fatalf("expected bound identity, got %q", w.Body.String())
	}
}

func TestValidateServiceToken(t *testing.T) {
	if err := ValidateServiceToken("", "expected"); !errors.Is(err, ErrMissingServiceToken) {
		t.Fatalf("expected ErrMissingServiceToken, got %v", err)
	}
	if err := ValidateServiceToken("wrong", "expected"); !errors.Is(err, ErrInvalidServiceToken) {
		t.Fatalf("expected ErrInvalidServiceToken, got %v", err)
	}
	// An unconfigured expected token must never authenticate anything.
	if err := ValidateServiceToken("anything", ""); !errors.Is(err, ErrInvalidServiceToken) {
		t.Fatalf("expected ErrInvalidServiceToken for empty expected token, got %v", err)
	}
	if err := ValidateServiceToken("expected", "expected"); err != nil {
		t.Fatalf("expected nil for matching token, got %v", err)
	}
}
