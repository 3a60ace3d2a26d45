package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/edutrack/adminportal/internal/app/models/dto"
	"github.com/edutrack/adminportal/internal/pkg/apperrors"
	"github.com/edutrack/adminportal/internal/pkg/auth"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret     = "middleware-secret"
	testSuperAdmin = "root@edutrack.lk"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newJWT(ttl time.Duration) *auth.JWTService {
	return auth.NewJWTService(auth.JWTConfig{
		SecretKey:      testSecret,
		AccessTokenExp: ttl,
		TokenIssuer:    "edutrack.test",
	})
}

func protectedRouter() *gin.Engine {
	m := NewAuthMiddleware(newJWT(time.Hour), testSuperAdmin)
	router := gin.New()
	router.GET("/admin", m.JWTAuth(), m.SuperAdminRequired(), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextKeyEmail))
	})
	return router
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorDetail {
	t.Helper()
	var body dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	assert.False(t, body.Success)
	return *body.Error
}

func mintToken(t *testing.T, svc *auth.JWTService, email, role string) string {
	t.Helper()
	token, _, err := svc.GenerateToken(email, role)
	require.NoError(t, err)
	return token
}

func TestAuth_SuperAdminAccepted(t *testing.T) {
	router := protectedRouter()
	token := mintToken(t, newJWT(time.Hour), "Root@EduTrack.lk", auth.RoleSuperAdmin)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Root@EduTrack.lk", w.Body.String())
}

func TestAuth_Rejections(t *testing.T) {
	valid := newJWT(time.Hour)
	otherSecret := auth.NewJWTService(auth.JWTConfig{SecretKey: "other", AccessTokenExp: time.Hour, TokenIssuer: "edutrack.test"})

	tests := []struct {
		name   string
		header string
		status int
		code   dto.ErrorCode
	}{
		{"missing header", "", http.StatusUnauthorized, dto.ErrorCodeUnauthorized},
		{"empty bearer", "Bearer", http.StatusUnauthorized, dto.ErrorCodeUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized, dto.ErrorCodeInvalidToken},
		{"wrong signature", "Bearer " + mintToken(t, otherSecret, testSuperAdmin, auth.RoleSuperAdmin), http.StatusUnauthorized, dto.ErrorCodeInvalidToken},
		{"expired", "Bearer " + mintToken(t, newJWT(-time.Minute), testSuperAdmin, auth.RoleSuperAdmin), http.StatusUnauthorized, dto.ErrorCodeExpiredToken},
		{"other email", "Bearer " + mintToken(t, valid, "tenant@academy.lk", auth.RoleSuperAdmin), http.StatusForbidden, dto.ErrorCodeForbidden},
		{"other role", "Bearer " + mintToken(t, valid, testSuperAdmin, "ADMIN"), http.StatusForbidden, dto.ErrorCodeForbidden},
	}

	router := protectedRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decodeError(t, w).Code)
		})
	}
}

func TestErrorResponse_Mapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   dto.ErrorCode
	}{
		{apperrors.NewValidationError([]string{"Name is required"}), http.StatusBadRequest, dto.ErrorCodeValidationFailed},
		{apperrors.NewStructuralInputError([]string{"input is empty"}), http.StatusBadRequest, dto.ErrorCodeImportUnparseable},
		{apperrors.NewBadRequestError("bad"), http.StatusBadRequest, dto.ErrorCodeInvalidRequest},
		{fmt.Errorf("lookup: %w", apperrors.ErrTenantNotFound), http.StatusNotFound, dto.ErrorCodeResourceNotFound},
		{apperrors.ErrStudentNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
		{apperrors.ErrTenantEmailExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
		{apperrors.ErrIndexNumberExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
		{apperrors.ErrPermissionDenied, http.StatusForbidden, dto.ErrorCodeForbidden},
		{apperrors.ErrTokenExpired, http.StatusUnauthorized, dto.ErrorCodeExpiredToken},
		{errors.New("connection reset"), http.StatusInternalServerError, dto.ErrorCodeInternalServer},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			status, detail := errorResponse(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, detail.Code)
		})
	}
}

func TestHandleAPIError_ValidationDetails(t *testing.T) {
	router := gin.New()
	router.GET("/fail", func(c *gin.Context) {
		HandleAPIError(c, apperrors.NewValidationError([]string{"Name is required", "Class is required"}))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	detail := decodeError(t, w)
	assert.Equal(t, dto.ErrorCodeValidationFailed, detail.Code)
	assert.Contains(t, fmt.Sprint(detail.Details), "Class is required")
}

type bindTarget struct {
	Email string `json:"email" validate:"required,email"`
}

func bindRouter(limit int64) *gin.Engine {
	router := gin.New()
	router.POST("/bind", func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		var target bindTarget
		if !BindJSON(c, &target) {
			return
		}
		c.String(http.StatusOK, target.Email)
	})
	return router
}

func TestBindJSON(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		limit  int64
		status int
		code   dto.ErrorCode
	}{
		{"malformed", `{"email":`, 1024, http.StatusBadRequest, dto.ErrorCodeInvalidRequest},
		{"invalid email", `{"email":"nope"}`, 1024, http.StatusBadRequest, dto.ErrorCodeValidationFailed},
		{"too large", `{"email":"` + strings.Repeat("a", 64) + `@x.lk"}`, 16, http.StatusRequestEntityTooLarge, dto.ErrorCodeImportTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/bind", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			bindRouter(tt.limit).ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decodeError(t, w).Code)
		})
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/bind", strings.NewReader(`{"email":"ok@edutrack.lk"}`))
	req.Header.Set("Content-Type", "application/json")
	bindRouter(1024).ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok@edutrack.lk", w.Body.String())
}

func TestRequestLogger_SetsRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestLogger())
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderRequestID, "req-42")
	router.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Header().Get(HeaderRequestID))
}
