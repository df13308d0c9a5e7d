// internal/services/export_service.go
package services

import (
	"archive/zip"
	"bytes"
	"compress/flate"
	"fmt"
	"io"
	"strings"
	"time"

	apperrors "github.com/Corphon/SceneBoard/internal/errors"
	"github.com/Corphon/SceneBoard/internal/models"
	"github.com/Corphon/SceneBoard/internal/storage"
	"github.com/Corphon/SceneBoard/internal/utils"
)

const (
	// ItemsArchiveName 未归档列表导出的文件名
	ItemsArchiveName = "ai-illustrations.zip"
	// ExportDir 保存导出文件的子目录
	ExportDir = "exports"
	// SourceItemStore 导出结果中未归档列表的来源标识
	SourceItemStore = "item-store"
)

// ExportService 把条目打包为 ZIP
type ExportService struct {
	workspaces *WorkspaceService
	storage    *storage.FileStorage
	metrics    *utils.APIMetrics
	now        func() time.Time
}

// NewExportService storage 为 nil 时不支持保存
func NewExportService(workspaces *WorkspaceService, fs *storage.FileStorage, metrics *utils.APIMetrics) *ExportService {
	return &ExportService{workspaces: workspaces, storage: fs, metrics: metrics, now: time.Now}
}

// EntryName 压缩包内的文件名：image-<ID前8位>.<扩展名>
func EntryName(a *models.Artifact) string {
	id := a.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return "image-" + id + "." + a.Image.Extension()
}

// BuildArchive 按顺序写入所有条目，最高压缩级别
func BuildArchive(items []*models.Artifact, modified time.Time) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})

	used := make(map[string]int, len(items))
	for _, item := range items {
		name := EntryName(item)
		// ID 前缀相同时追加序号，避免重名条目互相覆盖
		if n := used[name]; n > 0 {
			base, ext, _ := strings.Cut(name, ".")
			name = fmt.Sprintf("%s-%d.%s", base, n+1, ext)
		}
		used[EntryName(item)]++

		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return nil, apperrors.NewProcessingError("创建压缩条目失败", err)
		}
		if _, err := w.Write(item.Image.Data); err != nil {
			return nil, apperrors.NewProcessingError("写入压缩条目失败", err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, apperrors.NewProcessingError("生成压缩包失败", err)
	}
	return buf.Bytes(), nil
}

// ExportItems 导出未归档列表
func (s *ExportService) ExportItems(workspaceID string, save bool) (*models.ExportResult, error) {
	ws, err := s.workspaces.Get(workspaceID)
	if err != nil {
		return nil, err
	}
	return s.export(workspaceID, SourceItemStore, ItemsArchiveName, ws.Items(), save)
}

// ExportChapter 导出单个章节，文件名为章节名
func (s *ExportService) ExportChapter(workspaceID, chapterID string, save bool) (*models.ExportResult, error) {
	ws, err := s.workspaces.Get(workspaceID)
	if err != nil {
		return nil, err
	}
	ch, ok := ws.Chapter(chapterID)
	if !ok {
		return nil, apperrors.NewNotFoundError("章节不存在: "+chapterID, nil)
	}
	return s.export(workspaceID, ch.ID, ch.Name+".zip", ch.Items, save)
}

func (s *ExportService) export(workspaceID, source, fileName string, items []*models.Artifact, save bool) (*models.ExportResult, error) {
	if len(items) == 0 {
		return nil, apperrors.ErrEmptyExport
	}

	now := s.now()
	content, err := BuildArchive(items, now)
	if err != nil {
		return nil, err
	}

	result := &models.ExportResult{
		WorkspaceID: workspaceID,
		Source:      source,
		FileName:    fileName,
		ItemCount:   len(items),
		Content:     content,
		FileSize:    int64(len(content)),
		GeneratedAt: now,
	}

	if save {
		if s.storage == nil {
			return nil, apperrors.NewProcessingError("未配置导出存储", nil)
		}
		path, err := s.storage.SaveFile(ExportDir, savedName(fileName, now), content)
		if err != nil {
			return nil, err
		}
		result.FilePath = path
	}

	if s.metrics != nil {
		kind := "chapter"
		if source == SourceItemStore {
			kind = "items"
		}
		s.metrics.RecordExport(kind, len(items), len(content))
	}
	return result, nil
}

// savedName 保存到磁盘的文件名，加时间前缀并替换路径字符
func savedName(fileName string, now time.Time) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", "..", "_")
	name := replacer.Replace(strings.TrimSpace(fileName))
	return now.Format("20060102-150405") + "-" + name
}

// ListSaved 已保存的导出文件
func (s *ExportService) ListSaved() ([]models.SavedExport, error) {
	if s.storage == nil {
		return []models.SavedExport{}, nil
	}
	files, err := s.storage.ListFiles(ExportDir)
	if err != nil {
		return nil, err
	}
	out := make([]models.SavedExport, 0, len(files))
	for _, f := range files {
		out = append(out, models.SavedExport{Name: f.Name, Size: f.Size, UpdatedAt: f.UpdatedAt})
	}
	return out, nil
}

// LoadSaved 读取已保存的导出文件
func (s *ExportService) LoadSaved(name string) ([]byte, error) {
	if s.storage == nil {
		return nil, apperrors.NewNotFoundError("导出文件不存在: "+name, apperrors.ErrFileNotFound)
	}
	data, err := s.storage.LoadFile(ExportDir, name)
	if apperrors.IsNotFoundError(err) {
		return nil, apperrors.NewNotFoundError("导出文件不存在: "+name, apperrors.ErrFileNotFound)
	}
	return data, err
}
