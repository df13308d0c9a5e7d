// internal/api/generation_handlers.go
package api

import (
	"github.com/Corphon/SceneBoard/internal/services"
	"github.com/gin-gonic/gin"
)

// EditItemRequest 图像修改请求
type EditItemRequest struct {
	Modification string `json:"modification" binding:"required"`
}

// GenerateScene 按场景描述生成图像，全部成功才写入未归档列表
func (h *Handler) GenerateScene(c *gin.Context) {
	var req services.SceneRequest
	if !h.bindJSON(c, &req) {
		return
	}
	items, err := h.Generation.GenerateScene(c.Request.Context(), c.Param("wid"), req)
	if err != nil {
		h.Response.FromError(c, err)
		return
	}
	h.Response.Created(c, items, "图像生成完成")
}

// GenerateCharacter 按角色描述生成肖像
func (h *Handler) GenerateCharacter(c *gin.Context) {
	var req services.CharacterRequest
	if !h.bindJSON(c, &req) {
		return
	}
	items, err := h.Generation.CreateCharacter(c.Request.Context(), c.Param("wid"), req)
	if err != nil {
		h.Response.FromError(c, err)
		return
	}
	h.Response.Created(c, items, "角色生成完成")
}

// ListGenerations 工作区正在进行和刚结束的生成任务
func (h *Handler) ListGenerations(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	h.Response.Success(c, h.Progress.List(ws.ID()))
}

// EditItem 修改条目图像，条目位置不变
func (h *Handler) EditItem(c *gin.Context) {
	var req EditItemRequest
	if !h.bindJSON(c, &req) {
		return
	}
	item, err := h.Generation.EditArtifact(c.Request.Context(), c.Param("wid"), c.Param("item_id"), req.Modification)
	if err != nil {
		h.Response.FromError(c, err)
		return
	}
	h.Response.Success(c, item, "图像已修改")
}
