// internal/services/upload_service.go
package services

import (
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	apperrors "github.com/Corphon/SceneBoard/internal/errors"
	"github.com/Corphon/SceneBoard/internal/models"
	"github.com/Corphon/SceneBoard/internal/utils"
	"github.com/gabriel-vasile/mimetype"
)

// dataURLOverhead data URL 前缀和 JSON 包装的余量
const dataURLOverhead = 1 << 10

// UploadService 把上传的文件或 data URL 转为图像数据
type UploadService struct {
	maxBytes int64
}

// NewUploadService maxBytes 为单个文件的大小上限
func NewUploadService(maxBytes int64) *UploadService {
	if maxBytes <= 0 {
		maxBytes = 20 << 20
	}
	return &UploadService{maxBytes: maxBytes}
}

// MaxBytes 大小上限
func (s *UploadService) MaxBytes() int64 {
	return s.maxBytes
}

// ImageFromUpload 读取 multipart 文件
func (s *UploadService) ImageFromUpload(header *multipart.FileHeader) (models.ImageData, error) {
	if header.Size > s.maxBytes {
		return models.ImageData{}, s.TooLargeError()
	}
	file, err := header.Open()
	if err != nil {
		return models.ImageData{}, apperrors.NewIOError("파일을 이미지로 변환하는 데 실패했습니다.", err)
	}
	defer file.Close()
	return s.ImageFromReader(file)
}

// ImageFromReader 读取全部内容并按实际内容判断类型
func (s *UploadService) ImageFromReader(r io.Reader) (models.ImageData, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return models.ImageData{}, apperrors.NewIOError("파일을 이미지로 변환하는 데 실패했습니다.", err)
	}
	if int64(len(data)) > s.maxBytes {
		return models.ImageData{}, s.TooLargeError()
	}
	return s.detect(data)
}

// ImageFromDataURL 解析 data URL，声明的类型以实际内容为准
func (s *UploadService) ImageFromDataURL(dataURL string) (models.ImageData, error) {
	image, err := utils.ParseDataURL(dataURL)
	if err != nil {
		return models.ImageData{}, err
	}
	if int64(len(image.Data)) > s.maxBytes {
		return models.ImageData{}, s.TooLargeError()
	}
	return s.detect(image.Data)
}

func (s *UploadService) detect(data []byte) (models.ImageData, error) {
	if len(data) == 0 {
		return models.ImageData{}, apperrors.NewValidationError("文件为空", apperrors.ErrFileInvalid)
	}
	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") {
		return models.ImageData{}, apperrors.NewValidationError("不是图像文件: "+mime.String(), apperrors.ErrFileInvalid)
	}
	// 去掉 charset 之类的参数
	mimeType, _, _ := strings.Cut(mime.String(), ";")
	return models.ImageData{MIMEType: mimeType, Data: data}, nil
}

// MaxDataURLBytes 以 base64 data URL 提交时请求体允许的大小
func (s *UploadService) MaxDataURLBytes() int64 {
	return (s.maxBytes+2)/3*4 + dataURLOverhead
}

// TooLargeError 超过大小限制时返回给用户的错误
func (s *UploadService) TooLargeError() error {
	return apperrors.NewValidationError(fmt.Sprintf("文件超过大小限制 (%d 字节)", s.maxBytes), apperrors.ErrFileInvalid)
}
