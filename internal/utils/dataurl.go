// internal/utils/dataurl.go
package utils

import (
	"encoding/base64"
	"strings"

	apperrors "github.com/Corphon/SceneBoard/internal/errors"
	"github.com/Corphon/SceneBoard/internal/models"
)

// ParseDataURL 解析 data:<mime>;base64,<data> 形式的图像
func ParseDataURL(dataURL string) (models.ImageData, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(dataURL), "data:")
	if !ok {
		return models.ImageData{}, apperrors.NewValidationError("不是 data URL", nil)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return models.ImageData{}, apperrors.NewValidationError("data URL 缺少数据部分", nil)
	}
	mimeType, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return models.ImageData{}, apperrors.NewValidationError("data URL 必须是 base64 编码", nil)
	}
	if mimeType == "" {
		return models.ImageData{}, apperrors.NewValidationError("data URL 缺少 MIME 类型", nil)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return models.ImageData{}, apperrors.NewValidationError("data URL base64 解码失败", err)
	}
	if len(data) == 0 {
		return models.ImageData{}, apperrors.NewValidationError("data URL 数据为空", nil)
	}
	return models.ImageData{MIMEType: mimeType, Data: data}, nil
}
