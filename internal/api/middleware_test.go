package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "github.com/Corphon/SceneBoard/internal/errors"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterWindow(t *testing.T) {
	rl := NewRateLimiter(time.Hour)
	defer rl.Stop()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		allowed, visitor := rl.Allow("10.0.0.1", 2, time.Minute)
		require.True(t, allowed)
		assert.Equal(t, 1-i, visitor.Remaining)
	}
	allowed, visitor := rl.Allow("10.0.0.1", 2, time.Minute)
	assert.False(t, allowed)
	assert.Equal(t, now.Add(time.Minute), visitor.Reset)

	// 其他客户端不受影响
	allowed, _ = rl.Allow("10.0.0.2", 2, time.Minute)
	assert.True(t, allowed)

	now = now.Add(61 * time.Second)
	allowed, _ = rl.Allow("10.0.0.1", 2, time.Minute)
	assert.True(t, allowed)

	rl.cleanup()
	rl.mu.Lock()
	assert.Len(t, rl.visitors, 1)
	rl.mu.Unlock()
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl := NewRateLimiter(time.Hour)
	defer rl.Stop()

	r := gin.New()
	r.Use(requestIDMiddleware())
	r.GET("/limited", rl.Middleware(1, time.Minute, NewResponseHelper()), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/limited", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/limited", nil))
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, ErrorRateLimited, decode[any](t, w).Error.Code)
}

func TestRequestIDPropagates(t *testing.T) {
	r := gin.New()
	r.Use(requestIDMiddleware())
	r.GET("/", func(c *gin.Context) { NewResponseHelper().Success(c, nil) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
	assert.Equal(t, "req-42", decode[any](t, w).RequestID)
}

func TestFromErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		details bool
	}{
		{"validation", apperrors.NewValidationError("bad", errors.New("field")), http.StatusBadRequest, ErrorBadRequest, true},
		{"not found", apperrors.NewNotFoundError("missing", nil), http.StatusNotFound, ErrorNotFound, false},
		{"conflict", apperrors.NewConflictError("busy", nil), http.StatusConflict, ErrorConflict, false},
		{"slot full", fmt.Errorf("activate: %w", apperrors.ErrSlotFull), http.StatusConflict, ErrorSlotFull, false},
		{"external", apperrors.NewExternalError("upstream", errors.New("boom")), http.StatusBadGateway, ErrorGenerationFailed, false},
		{"timeout", apperrors.NewAppError(apperrors.ErrorTypeTimeout, "slow", nil), http.StatusGatewayTimeout, ErrorGenerationTimeout, false},
		{"empty export", apperrors.ErrEmptyExport, http.StatusBadRequest, ErrorExportDataEmpty, false},
		{"invalid file", apperrors.NewValidationError("not an image", apperrors.ErrFileInvalid), http.StatusBadRequest, ErrorFileInvalid, true},
		{"saved file missing", apperrors.NewNotFoundError("gone", apperrors.ErrFileNotFound), http.StatusNotFound, ErrorFileNotFound, true},
		{"io", apperrors.NewIOError("disk", errors.New("full")), http.StatusInternalServerError, ErrorStorageError, false},
		{"plain", errors.New("unexpected"), http.StatusInternalServerError, ErrorInternalError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/", func(c *gin.Context) { NewResponseHelper().FromError(c, tt.err) })

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

			require.Equal(t, tt.status, w.Code)
			resp := decode[any](t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Equal(t, tt.details, resp.Error.Details != "")
		})
	}
}

func TestErrorMessagesAreSanitized(t *testing.T) {
	r := gin.New()
	r.GET("/", func(c *gin.Context) {
		NewResponseHelper().BadRequest(c, "invalid API_KEY abc", "token=xyz")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	resp := decode[any](t, w)
	assert.Equal(t, "An internal error occurred", resp.Error.Message)
	assert.Equal(t, "An internal error occurred", resp.Error.Details)
	assert.NotContains(t, w.Body.String(), "xyz")
}
