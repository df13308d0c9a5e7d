// internal/api/error_codes.go
package api

// API错误代码常量
const (
	// 通用错误
	ErrorBadRequest    = "BAD_REQUEST"
	ErrorNotFound      = "NOT_FOUND"
	ErrorInternalError = "INTERNAL_ERROR"
	ErrorConflict      = "CONFLICT"
	ErrorRateLimited   = "RATE_LIMIT_EXCEEDED"

	// 工作区相关错误
	ErrorWorkspaceNotFound = "WORKSPACE_NOT_FOUND"
	ErrorConfirmRequired   = "CONFIRM_REQUIRED"
	ErrorSlotFull          = "SLOT_FULL"

	// 生成服务相关错误
	ErrorGenerationFailed  = "GENERATION_FAILED"
	ErrorGenerationTimeout = "GENERATION_TIMEOUT"

	// 文件相关错误
	ErrorFileInvalid  = "FILE_INVALID"
	ErrorFileNotFound = "FILE_NOT_FOUND"
	ErrorStorageError = "STORAGE_ERROR"

	// 导出相关错误
	ErrorExportDataEmpty = "EXPORT_DATA_EMPTY"
)
