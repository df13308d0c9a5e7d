// internal/api/export_handlers.go
package api

import (
	"github.com/Corphon/SceneBoard/internal/models"
	"github.com/gin-gonic/gin"
)

const zipContentType = "application/zip"

// ExportItems 下载未归档列表的 ZIP；save=true 时保存到数据目录并返回结果信息
func (h *Handler) ExportItems(c *gin.Context) {
	result, err := h.Exports.ExportItems(c.Param("wid"), c.Query("save") == "true")
	h.writeExport(c, result, err)
}

// ExportChapter 下载章节的 ZIP，文件名为章节名
func (h *Handler) ExportChapter(c *gin.Context) {
	result, err := h.Exports.ExportChapter(c.Param("wid"), c.Param("chapter_id"), c.Query("save") == "true")
	h.writeExport(c, result, err)
}

func (h *Handler) writeExport(c *gin.Context, result *models.ExportResult, err error) {
	if err != nil {
		h.Response.FromError(c, err)
		return
	}
	h.logger.Info("📦 导出完成", map[string]interface{}{
		"workspace_id": result.WorkspaceID,
		"file":         result.FileName,
		"items":        result.ItemCount,
		"bytes":        result.FileSize,
	})
	if result.FilePath != "" {
		h.Response.Created(c, result, "导出文件已保存")
		return
	}
	h.Response.Download(c, result.FileName, zipContentType, result.Content)
}

// ListExports 已保存的导出文件
func (h *Handler) ListExports(c *gin.Context) {
	files, err := h.Exports.ListSaved()
	if err != nil {
		h.Response.FromError(c, err)
		return
	}
	h.Response.Success(c, files)
}

// DownloadExport 下载已保存的导出文件
func (h *Handler) DownloadExport(c *gin.Context) {
	name := c.Param("name")
	content, err := h.Exports.LoadSaved(name)
	if err != nil {
		h.Response.FromError(c, err)
		return
	}
	h.Response.Download(c, name, zipContentType, content)
}
