// internal/api/response_helpers.go
package api

import (
	"errors"
	"mime"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/Corphon/SceneBoard/internal/errors"
	"github.com/Corphon/SceneBoard/internal/utils"
	"github.com/gin-gonic/gin"
)

// APIResponse 标准API响应格式
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Message   string      `json:"message,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"` // 用于调试和追踪
}

// APIError 标准错误格式
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ResponseHelper 响应助手
type ResponseHelper struct {
	logger *utils.Logger
}

// NewResponseHelper 创建响应助手
func NewResponseHelper() *ResponseHelper {
	return &ResponseHelper{logger: utils.GetLogger()}
}

// Success 成功响应
func (rh *ResponseHelper) Success(c *gin.Context, data interface{}, message ...string) {
	rh.write(c, http.StatusOK, data, message...)
}

// Created 创建成功响应
func (rh *ResponseHelper) Created(c *gin.Context, data interface{}, message ...string) {
	if len(message) == 0 {
		message = []string{"资源创建成功"}
	}
	rh.write(c, http.StatusCreated, data, message...)
}

func (rh *ResponseHelper) write(c *gin.Context, status int, data interface{}, message ...string) {
	response := &APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
		RequestID: rh.getRequestID(c),
	}
	if len(message) > 0 {
		response.Message = message[0]
	}
	c.JSON(status, response)
}

// sanitizeErrorMessage 含有密钥字样的信息整体替换
func sanitizeErrorMessage(message string) string {
	lower := strings.ToLower(message)
	for _, pattern := range []string{"api_key", "apikey", "secret", "token"} {
		if strings.Contains(lower, pattern) {
			return "An internal error occurred"
		}
	}
	return message
}

// Error 错误响应
func (rh *ResponseHelper) Error(c *gin.Context, statusCode int, errorCode, message string, details ...string) {
	apiError := &APIError{
		Code:    errorCode,
		Message: sanitizeErrorMessage(message),
	}
	if len(details) > 0 && details[0] != "" {
		apiError.Details = sanitizeErrorMessage(details[0])
	}

	c.AbortWithStatusJSON(statusCode, &APIResponse{
		Success:   false,
		Error:     apiError,
		Timestamp: time.Now(),
		RequestID: rh.getRequestID(c),
	})
}

// BadRequest 400错误响应
func (rh *ResponseHelper) BadRequest(c *gin.Context, message string, details ...string) {
	rh.Error(c, http.StatusBadRequest, ErrorBadRequest, message, details...)
}

// NotFound 404错误响应
func (rh *ResponseHelper) NotFound(c *gin.Context, message string, details ...string) {
	rh.Error(c, http.StatusNotFound, ErrorNotFound, message, details...)
}

// Conflict 409错误响应
func (rh *ResponseHelper) Conflict(c *gin.Context, message string, details ...string) {
	rh.Error(c, http.StatusConflict, ErrorConflict, message, details...)
}

// InternalError 500错误响应
func (rh *ResponseHelper) InternalError(c *gin.Context, message string, details ...string) {
	rh.Error(c, http.StatusInternalServerError, ErrorInternalError, message, details...)
}

// FromError 按错误类型选择状态码和错误代码
func (rh *ResponseHelper) FromError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		c.Set(errorTypeKey, string(apperrors.ErrorTypeError))
		rh.logger.Error("❌ 未分类的错误", map[string]interface{}{"path": c.FullPath(), "error": err})
		rh.InternalError(c, "服务器内部错误", err.Error())
		return
	}

	c.Set(errorTypeKey, string(appErr.Type))

	status, code := http.StatusInternalServerError, ErrorInternalError
	switch appErr.Type {
	case apperrors.ErrorTypeValidation:
		status, code = http.StatusBadRequest, ErrorBadRequest
		switch {
		case errors.Is(err, apperrors.ErrEmptyExport):
			code = ErrorExportDataEmpty
		case errors.Is(err, apperrors.ErrFileInvalid):
			code = ErrorFileInvalid
		}
	case apperrors.ErrorTypeNotFound:
		status, code = http.StatusNotFound, ErrorNotFound
		if errors.Is(err, apperrors.ErrFileNotFound) {
			code = ErrorFileNotFound
		}
	case apperrors.ErrorTypeConflict:
		status, code = http.StatusConflict, ErrorConflict
		if errors.Is(err, apperrors.ErrSlotFull) {
			code = ErrorSlotFull
		}
	case apperrors.ErrorTypeExternal:
		status, code = http.StatusBadGateway, ErrorGenerationFailed
	case apperrors.ErrorTypeTimeout:
		status, code = http.StatusGatewayTimeout, ErrorGenerationTimeout
	case apperrors.ErrorTypeIO:
		status, code = http.StatusInternalServerError, ErrorStorageError
	}

	if status >= http.StatusInternalServerError {
		rh.logger.Error("❌ 请求处理失败", map[string]interface{}{"path": c.FullPath(), "type": string(appErr.Type), "error": err})
	}

	details := ""
	if appErr.Err != nil && status < http.StatusInternalServerError {
		details = appErr.Err.Error()
	}
	rh.Error(c, status, code, appErr.Message, details)
}

// Download 以附件形式返回二进制内容
func (rh *ResponseHelper) Download(c *gin.Context, filename, contentType string, content []byte) {
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": filename})
	c.Header("Content-Disposition", disposition)
	c.Data(http.StatusOK, contentType, content)
}

// getRequestID 获取请求ID
func (rh *ResponseHelper) getRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
