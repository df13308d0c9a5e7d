// internal/api/library_handlers.go
package api

import (
	"errors"
	"net/http"
	"strings"

	apperrors "github.com/Corphon/SceneBoard/internal/errors"
	"github.com/Corphon/SceneBoard/internal/models"
	"github.com/gin-gonic/gin"
)

// ImageRequest JSON 客户端以 data URL 上传图像
type ImageRequest struct {
	Image string `json:"image" binding:"required"`
}

// FilterIntensityRequest 滤镜强度
type FilterIntensityRequest struct {
	Intensity int `json:"intensity"`
}

// readImage 从 multipart 的 file 字段或 JSON 的 data URL 读取图像
func (h *Handler) readImage(c *gin.Context) (models.ImageData, error) {
	var maxErr *http.MaxBytesError

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		// 预留 1MB 给表单字段
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.Uploads.MaxBytes()+1<<20)
		header, err := c.FormFile("file")
		if errors.As(err, &maxErr) {
			return models.ImageData{}, h.Uploads.TooLargeError()
		}
		if err != nil {
			return models.ImageData{}, apperrors.NewValidationError("缺少上传文件", err)
		}
		return h.Uploads.ImageFromUpload(header)
	}

	// base64 比原始数据大 4/3
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.Uploads.MaxDataURLBytes())
	var req ImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if errors.As(err, &maxErr) {
			return models.ImageData{}, h.Uploads.TooLargeError()
		}
		return models.ImageData{}, apperrors.NewValidationError("无效的请求格式", err)
	}
	return h.Uploads.ImageFromDataURL(req.Image)
}

// ========================================
// 角色库
// ========================================

// SetCharacterImage 上传角色参考图
func (h *Handler) SetCharacterImage(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	slot, ok := h.slotParam(c)
	if !ok {
		return
	}
	image, err := h.readImage(c)
	if err != nil {
		h.Response.FromError(c, err)
		return
	}
	ch, err := ws.SetCharacterImage(slot, image)
	if err != nil {
		h.Response.FromError(c, err)
		return
	}
	h.Response.Success(c, ch, "角色图像已更新")
}

// DeleteCharacter 清空角色库槽位
func (h *Handler) DeleteCharacter(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok || !h.requireConfirm(c) {
		return
	}
	slot, ok := h.slotParam(c)
	if !ok {
		return
	}
	deleted, err := ws.DeleteCharacter(slot)
	if err != nil {
		h.Response.FromError(c, err)
		return
	}
	h.Response.Success(c, gin.H{"deleted": deleted})
}

// ActivateCharacter 加入激活列表；空槽位或已激活时 activated=false
func (h *Handler) ActivateCharacter(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	slot, ok := h.slotParam(c)
	if !ok {
		return
	}
	activated, err := ws.ActivateCharacter(slot)
	if err != nil {
		h.Response.FromError(c, err)
		return
	}
	h.Response.Success(c, gin.H{"activated": activated, "active_characters": ws.ActiveCharacters()})
}

// DeactivateCharacter 移出激活列表
func (h *Handler) DeactivateCharacter(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	slot, ok := h.slotParam(c)
	if !ok {
		return
	}
	removed, err := ws.DeactivateCharacter(slot)
	if err != nil {
		h.Response.FromError(c, err)
		return
	}
	h.Response.Success(c, gin.H{"deactivated": removed, "active_characters": ws.ActiveCharacters()})
}

// UpdateCharacterSheet 修改角色卡
func (h *Handler) UpdateCharacterSheet(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	var sheet models.CharacterSheet
	if !h.bindJSON(c, &sheet) {
		return
	}
	ch, err := ws.UpdateCharacterSheet(c.Param("character_id"), sheet)
	if err != nil {
		h.Response.FromError(c, err)
		return
	}
	h.Response.Success(c, ch, "角色卡已保存")
}

// ========================================
// 背景库
// ========================================

// SetBackground 上传背景图
func (h *Handler) SetBackground(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	slot, ok := h.slotParam(c)
	if !ok {
		return
	}
	image, err := h.readImage(c)
	if err != nil {
		h.Response.FromError(c, err)
		return
	}
	bg, err := ws.SetBackground(slot, image)
	if err != nil {
		h.Response.FromError(c, err)
		return
	}
	h.Response.Success(c, bg, "背景图像已更新")
}

// DeleteBackground 清空背景库槽位
func (h *Handler) DeleteBackground(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok || !h.requireConfirm(c) {
		return
	}
	slot, ok := h.slotParam(c)
	if !ok {
		return
	}
	deleted, err := ws.DeleteBackground(slot)
	if err != nil {
		h.Response.FromError(c, err)
		return
	}
	h.Response.Success(c, gin.H{"deleted": deleted})
}

// ActivateBackground 设置当前背景
func (h *Handler) ActivateBackground(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	slot, ok := h.slotParam(c)
	if !ok {
		return
	}
	activated, err := ws.ActivateBackground(slot)
	if err != nil {
		h.Response.FromError(c, err)
		return
	}
	bg, _ := ws.ActiveBackground()
	h.Response.Success(c, gin.H{"activated": activated, "active_background": bg})
}

// DeactivateBackground 取消当前背景
func (h *Handler) DeactivateBackground(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	h.Response.Success(c, gin.H{"deactivated": ws.DeactivateBackground()})
}

// ========================================
// 滤镜
// ========================================

// ToggleFilter 启用或取消滤镜，返回切换后是否启用（已满 3 个时保持未启用）
func (h *Handler) ToggleFilter(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	active, err := ws.ToggleFilter(c.Param("title"))
	if err != nil {
		h.Response.FromError(c, err)
		return
	}
	h.Response.Success(c, gin.H{"active": active, "filters": ws.Filters()})
}

// SetFilterIntensity 调整强度，超出 0-100 时截断
func (h *Handler) SetFilterIntensity(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	var req FilterIntensityRequest
	if !h.bindJSON(c, &req) {
		return
	}
	intensity, err := ws.SetFilterIntensity(c.Param("title"), req.Intensity)
	if err != nil {
		h.Response.FromError(c, err)
		return
	}
	h.Response.Success(c, gin.H{"intensity": intensity, "filters": ws.Filters()})
}

// RemoveFilter 取消滤镜
func (h *Handler) RemoveFilter(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	removed := ws.RemoveFilter(c.Param("title"))
	h.Response.Success(c, gin.H{"removed": removed, "filters": ws.Filters()})
}

// ========================================
// 选择模式
// ========================================

// ToggleSelectionMode 切换选择模式，同时清空已选
func (h *Handler) ToggleSelectionMode(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	h.Response.Success(c, gin.H{"selection_mode": ws.ToggleSelectionMode()})
}

// ToggleSelected 选中或取消选中未归档条目
func (h *Handler) ToggleSelected(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	selected, err := ws.ToggleSelected(c.Param("item_id"))
	if err != nil {
		h.Response.FromError(c, err)
		return
	}
	h.Response.Success(c, gin.H{"item_id": c.Param("item_id"), "selected": selected})
}

// ConfirmSelection 已选条目转入角色库
func (h *Handler) ConfirmSelection(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	characters, err := ws.ConfirmSelection()
	if err != nil {
		h.Response.FromError(c, err)
		return
	}
	h.Response.Success(c, characters, "已添加到角色库")
}
