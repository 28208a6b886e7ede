package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ashtraymarket/internal/app/market/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// Хелпер для создания тестового middleware
func newTestAuthMiddleware() (*AuthMiddleware, *util.JWTManager) {
	jwtManager := util.NewJWTManager("test-secret-key", 15*time.Minute, 24*time.Hour)
	middleware := NewAuthMiddleware(jwtManager)
	return middleware, jwtManager
}

// ==================== Authenticate Tests ====================

func TestAuthMiddleware_Authenticate_Success(t *testing.T) {
	// Arrange
	middleware, jwtManager := newTestAuthMiddleware()

	userID := uuid.New()
	accessToken, _ := jwtManager.GenerateAccessToken(userID, "test@example.com", false, false)

	router := gin.New()
	router.GET("/protected", middleware.Authenticate(), func(c *gin.Context) {
		gotUserID, _ := c.Get(ctxUserID)
		assert.Equal(t, userID, gotUserID)
		c.String(http.StatusOK, "OK")
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestAuthMiddleware_Authenticate_NoAuthHeader(t *testing.T) {
	// Arrange
	middleware, _ := newTestAuthMiddleware()

	router := gin.New()
	router.GET("/protected", middleware.Authenticate(), func(c *gin.Context) {
		t.Error("Handler should not be called")
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var response map[string]string
	json.Unmarshal(rec.Body.Bytes(), &response)
	assert.Equal(t, "Authorization header required", response["message"])
}

func TestAuthMiddleware_Authenticate_InvalidFormat(t *testing.T) {
	// Arrange
	middleware, _ := newTestAuthMiddleware()

	testCases := []struct {
		name       string
		authHeader string
	}{
		{"No Bearer prefix", "token-without-bearer"},
		{"Wrong prefix", "Basic token"},
		{"Only Bearer", "Bearer"},
		{"Extra parts", "Bearer token extra"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/protected", middleware.Authenticate(), func(c *gin.Context) {
				t.Error("Handler should not be called")
			})

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set("Authorization", tc.authHeader)
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestAuthMiddleware_Authenticate_InvalidToken(t *testing.T) {
	// Arrange
	middleware, _ := newTestAuthMiddleware()

	router := gin.New()
	router.GET("/protected", middleware.Authenticate(), func(c *gin.Context) {
		t.Error("Handler should not be called")
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer invalid-token")
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var response map[string]string
	json.Unmarshal(rec.Body.Bytes(), &response)
	assert.Equal(t, "Invalid token", response["message"])
}

func TestAuthMiddleware_Authenticate_ExpiredToken(t *testing.T) {
	// Arrange
	middleware, _ := newTestAuthMiddleware()

	// JWT manager с уже истекшим временем жизни access токена
	expiredJWTManager := util.NewJWTManager("test-secret-key", -1*time.Minute, 24*time.Hour)
	accessToken, _ := expiredJWTManager.GenerateAccessToken(uuid.New(), "test@example.com", false, false)

	router := gin.New()
	router.GET("/protected", middleware.Authenticate(), func(c *gin.Context) {
		t.Error("Handler should not be called")
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var response map[string]string
	json.Unmarshal(rec.Body.Bytes(), &response)
	assert.Equal(t, "Token has expired", response["message"])
}

func TestAuthMiddleware_Authenticate_WrongSecret(t *testing.T) {
	// Arrange
	middleware, _ := newTestAuthMiddleware()

	foreignJWTManager := util.NewJWTManager("another-secret", 15*time.Minute, 24*time.Hour)
	accessToken, _ := foreignJWTManager.GenerateAccessToken(uuid.New(), "test@example.com", false, false)

	router := gin.New()
	router.GET("/protected", middleware.Authenticate(), func(c *gin.Context) {
		t.Error("Handler should not be called")
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware_Authenticate_ContextValues(t *testing.T) {
	// Arrange
	middleware, jwtManager := newTestAuthMiddleware()

	userID := uuid.New()
	email := "staff@example.com"
	accessToken, _ := jwtManager.GenerateAccessToken(userID, email, true, true)

	router := gin.New()
	router.GET("/protected", middleware.Authenticate(), func(c *gin.Context) {
		gotUserID, _ := c.Get(ctxUserID)
		gotEmail, _ := c.Get(ctxEmail)
		gotIsStaff, _ := c.Get(ctxIsStaff)
		gotShopOwner, _ := c.Get(ctxShopOwner)

		assert.Equal(t, userID, gotUserID)
		assert.Equal(t, email, gotEmail)
		assert.Equal(t, true, gotIsStaff)
		assert.Equal(t, true, gotShopOwner)

		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusOK, rec.Code)
}

// ==================== RequireStaff Tests ====================

func TestAuthMiddleware_RequireStaff_Success(t *testing.T) {
	// Arrange
	middleware, _ := newTestAuthMiddleware()

	router := gin.New()
	router.GET("/admin", func(c *gin.Context) {
		c.Set(ctxIsStaff, true)
		c.Next()
	}, middleware.RequireStaff(), func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddleware_RequireStaff_Forbidden(t *testing.T) {
	// Arrange
	middleware, _ := newTestAuthMiddleware()

	router := gin.New()
	router.GET("/admin", func(c *gin.Context) {
		c.Set(ctxIsStaff, false)
		c.Next()
	}, middleware.RequireStaff(), func(c *gin.Context) {
		t.Error("Handler should not be called")
	})

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusForbidden, rec.Code)

	var response map[string]string
	json.Unmarshal(rec.Body.Bytes(), &response)
	assert.Equal(t, "Staff access required", response["message"])
}

func TestAuthMiddleware_RequireStaff_NoContext(t *testing.T) {
	// Arrange
	middleware, _ := newTestAuthMiddleware()

	router := gin.New()
	router.GET("/admin", middleware.RequireStaff(), func(c *gin.Context) {
		t.Error("Handler should not be called")
	})

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// ==================== Integration Tests (Chained Middleware) ====================

func TestAuthMiddleware_ChainedMiddlewares(t *testing.T) {
	// Тест полной цепочки: Authenticate -> RequireStaff -> Handler

	middleware, jwtManager := newTestAuthMiddleware()

	accessToken, _ := jwtManager.GenerateAccessToken(uuid.New(), "staff@example.com", true, false)

	router := gin.New()
	router.POST("/admin/users",
		middleware.Authenticate(),
		middleware.RequireStaff(),
		func(c *gin.Context) {
			c.String(http.StatusOK, "Success")
		},
	)

	req := httptest.NewRequest(http.MethodPost, "/admin/users", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Success", rec.Body.String())
}

func TestAuthMiddleware_ChainedMiddlewares_FailsAtStaffCheck(t *testing.T) {
	// Тест: аутентификация проходит, но пользователь не персонал

	middleware, jwtManager := newTestAuthMiddleware()

	accessToken, _ := jwtManager.GenerateAccessToken(uuid.New(), "user@example.com", false, false)

	router := gin.New()
	router.POST("/admin/users",
		middleware.Authenticate(),
		middleware.RequireStaff(),
		func(c *gin.Context) {
			t.Error("Handler should not be called")
		},
	)

	req := httptest.NewRequest(http.MethodPost, "/admin/users", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
