// internal/errors/errors_test.go
package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorCodes(t *testing.T) {
	cases := []struct {
		err  *AppError
		code string
	}{
		{NewValidationError("x", nil), "VALIDATION_ERROR"},
		{NewNotFoundError("x", nil), "NOT_FOUND"},
		{NewConflictError("x", nil), "CONFLICT"},
		{NewExternalError("x", nil), "EXTERNAL_SERVICE_ERROR"},
		{NewIOError("x", nil), "IO_ERROR"},
		{NewProcessingError("x", nil), "PROCESSING_ERROR"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.code, tc.err.Code)
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	root := errors.New("disk gone")
	err := NewIOError("读取文件失败", root)

	assert.ErrorIs(t, err, root)
	assert.Equal(t, "读取文件失败: disk gone", err.Error())

	wrapped := fmt.Errorf("上传: %w", err)
	assert.Equal(t, ErrorTypeIO, TypeOf(wrapped))
}

func TestWrapErrorKeepsType(t *testing.T) {
	inner := NewNotFoundError("章节不存在", nil)
	err := WrapError(inner, "删除章节", ErrorTypeError)

	assert.True(t, IsNotFoundError(err))
	assert.Contains(t, err.Error(), "删除章节")

	plain := WrapError(errors.New("boom"), "生成失败", ErrorTypeExternal)
	assert.True(t, IsExternalError(plain))

	assert.Nil(t, WrapError(nil, "noop", ErrorTypeError))
}

func TestTypeOfPlainError(t *testing.T) {
	assert.Equal(t, ErrorTypeError, TypeOf(errors.New("plain")))
	assert.False(t, IsValidationError(nil))
	assert.True(t, IsConflictError(ErrSlotFull))
}
