// internal/api/handlers.go
package api

import (
	"net/http"
	"strconv"

	"github.com/Corphon/SceneBoard/internal/models"
	"github.com/Corphon/SceneBoard/internal/services"
	"github.com/Corphon/SceneBoard/internal/utils"
	"github.com/Corphon/SceneBoard/internal/workspace"
	"github.com/gin-gonic/gin"
)

// Handler 处理API请求
type Handler struct {
	Workspaces *services.WorkspaceService  // 工作区注册表
	Generation *services.GenerationService // 图像生成
	Progress   *services.ProgressService   // 生成进度
	Uploads    *services.UploadService     // 上传图像
	Exports    *services.ExportService     // ZIP 导出
	Hub        *EventHub                   // WebSocket 事件推送
	Metrics    *utils.APIMetrics
	Response   *ResponseHelper
	logger     *utils.Logger
}

// NewHandler 创建API处理器
func NewHandler(
	workspaces *services.WorkspaceService,
	generation *services.GenerationService,
	progress *services.ProgressService,
	uploads *services.UploadService,
	exports *services.ExportService,
	hub *EventHub,
	metrics *utils.APIMetrics,
) *Handler {
	return &Handler{
		Workspaces: workspaces,
		Generation: generation,
		Progress:   progress,
		Uploads:    uploads,
		Exports:    exports,
		Hub:        hub,
		Metrics:    metrics,
		Response:   NewResponseHelper(),
		logger:     utils.GetLogger(),
	}
}

// TransferRequest 开始拖拽
type TransferRequest struct {
	ArtifactID string              `json:"artifact_id"`
	Source     models.ContainerRef `json:"source"`
}

// DropRequest 放置到目标容器，TargetID 为空时追加到末尾
type DropRequest struct {
	Destination models.ContainerRef `json:"destination"`
	TargetID    string              `json:"target_id"`
}

// MoveRequest 一次性完成的移动，不经过待定状态
type MoveRequest struct {
	ArtifactID  string              `json:"artifact_id"`
	Source      models.ContainerRef `json:"source"`
	Destination models.ContainerRef `json:"destination"`
	TargetID    string              `json:"target_id"`
}

// RenameChapterRequest 章节重命名
type RenameChapterRequest struct {
	Name string `json:"name"`
}

// ========================================
// 公共辅助
// ========================================

// workspace 按路径参数取工作区，失败时已写入响应
func (h *Handler) workspace(c *gin.Context) (*workspace.Workspace, bool) {
	ws, err := h.Workspaces.Get(c.Param("wid"))
	if err != nil {
		h.Response.Error(c, http.StatusNotFound, ErrorWorkspaceNotFound, "工作区不存在", c.Param("wid"))
		return nil, false
	}
	return ws, true
}

// requireConfirm 删除类操作需要 confirm=true
func (h *Handler) requireConfirm(c *gin.Context) bool {
	if c.Query("confirm") != "true" {
		h.Response.Error(c, http.StatusBadRequest, ErrorConfirmRequired, "删除操作需要确认 (confirm=true)")
		return false
	}
	return true
}

// slotParam 解析槽位参数
func (h *Handler) slotParam(c *gin.Context) (int, bool) {
	slot, err := strconv.Atoi(c.Param("slot"))
	if err != nil {
		h.Response.BadRequest(c, "无效的槽位", c.Param("slot"))
		return 0, false
	}
	return slot, true
}

// bindJSON 解析请求体，失败时已写入响应
func (h *Handler) bindJSON(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		h.Response.BadRequest(c, "无效的请求格式", err.Error())
		return false
	}
	return true
}

// ========================================
// 工作区
// ========================================

// CreateWorkspace 新建工作区
func (h *Handler) CreateWorkspace(c *gin.Context) {
	ws := h.Workspaces.Create()
	h.Response.Created(c, ws.Snapshot(), "工作区已创建")
}

// GetWorkspace 工作区完整快照
func (h *Handler) GetWorkspace(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	h.Response.Success(c, ws.Snapshot())
}

// DeleteWorkspace 删除工作区
func (h *Handler) DeleteWorkspace(c *gin.Context) {
	if !h.Workspaces.Delete(c.Param("wid")) {
		h.Response.Error(c, http.StatusNotFound, ErrorWorkspaceNotFound, "工作区不存在", c.Param("wid"))
		return
	}
	h.Response.Success(c, gin.H{"deleted": true}, "工作区已删除")
}

// ========================================
// 未归档列表
// ========================================

// DeleteItem 删除未归档条目
func (h *Handler) DeleteItem(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok || !h.requireConfirm(c) {
		return
	}
	itemID := c.Param("item_id")
	if !ws.RemoveItem(itemID) {
		h.Response.NotFound(c, "条目不存在", itemID)
		return
	}
	h.Response.Success(c, gin.H{"deleted": itemID}, "条目已删除")
}

// ========================================
// 章节
// ========================================

// CreateChapter 新建章节
func (h *Handler) CreateChapter(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	h.Response.Created(c, ws.CreateChapter(), "章节已创建")
}

// RenameChapter 重命名章节，空名称保持原名
func (h *Handler) RenameChapter(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	var req RenameChapterRequest
	if !h.bindJSON(c, &req) {
		return
	}

	chapterID := c.Param("chapter_id")
	renamed, err := ws.RenameChapter(chapterID, req.Name)
	if err != nil {
		h.Response.FromError(c, err)
		return
	}
	ch, _ := ws.Chapter(chapterID)
	h.Response.Success(c, gin.H{"renamed": renamed, "chapter": ch})
}

// DeleteChapter 删除章节，条目回到未归档列表最前
func (h *Handler) DeleteChapter(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok || !h.requireConfirm(c) {
		return
	}
	moved, err := ws.DeleteChapter(c.Param("chapter_id"))
	if err != nil {
		h.Response.FromError(c, err)
		return
	}
	h.Response.Success(c, gin.H{"moved": moved, "items": ws.Items()}, "章节已删除")
}

// UnfileItem 章节条目移回未归档列表
func (h *Handler) UnfileItem(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	applied, err := ws.UnfileItem(c.Param("chapter_id"), c.Param("item_id"))
	if err != nil {
		h.Response.FromError(c, err)
		return
	}
	h.Response.Success(c, gin.H{"applied": applied})
}

// ========================================
// 拖拽
// ========================================

// BeginTransfer 记录待定移动
func (h *Handler) BeginTransfer(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	var req TransferRequest
	if !h.bindJSON(c, &req) {
		return
	}
	desc := models.TransferDescriptor{ArtifactID: req.ArtifactID, Source: req.Source}
	if err := ws.BeginTransfer(desc); err != nil {
		h.Response.FromError(c, err)
		return
	}
	h.Response.Success(c, desc)
}

// DropTransfer 放置待定移动，未生效时 applied=false 并说明原因
func (h *Handler) DropTransfer(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	var req DropRequest
	if !h.bindJSON(c, &req) {
		return
	}
	h.Response.Success(c, ws.Drop(req.Destination, req.TargetID))
}

// MoveItem 一次性移动
func (h *Handler) MoveItem(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	var req MoveRequest
	if !h.bindJSON(c, &req) {
		return
	}
	desc := models.TransferDescriptor{ArtifactID: req.ArtifactID, Source: req.Source}
	h.Response.Success(c, ws.Move(desc, req.Destination, req.TargetID))
}

// CancelTransfer 放弃待定移动
func (h *Handler) CancelTransfer(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	h.Response.Success(c, gin.H{"cancelled": ws.CancelTransfer()})
}
