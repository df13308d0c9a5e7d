// internal/api/system_handlers.go
package api

import (
	"errors"
	"time"

	"github.com/Corphon/SceneBoard/internal/config"
	"github.com/Corphon/SceneBoard/internal/llm"
	"github.com/Corphon/SceneBoard/internal/models"
	"github.com/Corphon/SceneBoard/internal/services"
	"github.com/Corphon/SceneBoard/internal/workspace"
	"github.com/gin-gonic/gin"
)

// UpdateModelsRequest 模型设置，空字段保持不变
type UpdateModelsRequest struct {
	SceneModel    string `json:"scene_model"`
	PortraitModel string `json:"portrait_model"`
	ExtractModel  string `json:"extract_model"`
}

// Health 健康检查
func (h *Handler) Health(c *gin.Context) {
	h.Response.Success(c, gin.H{
		"status":              "ok",
		"workspaces":          h.Workspaces.Count(),
		"provider_configured": h.Generation.Provider() != nil,
		"websocket":           h.Hub.GetStatus(),
		"time":                time.Now().Format(time.RFC3339),
	})
}

// GetLooks 电影质感滤镜目录和可选机位
func (h *Handler) GetLooks(c *gin.Context) {
	h.Response.Success(c, gin.H{
		"looks":        models.CinematicLooks,
		"max_active":   workspace.MaxActiveFilters,
		"camera_shots": services.CameraShots,
	})
}

// GetMetrics 运行指标
func (h *Handler) GetMetrics(c *gin.Context) {
	h.Response.Success(c, h.Metrics.Collector().GetMetrics())
}

// GetSettings 当前配置，不含密钥
func (h *Handler) GetSettings(c *gin.Context) {
	cfg := config.GetCurrentConfig()
	h.Response.Success(c, gin.H{
		"config":             cfg,
		"api_key_configured": cfg.APIKey != "",
		"providers":          llm.ListProviders(),
	})
}

// UpdateModels 修改模型设置并重建生成后端
func (h *Handler) UpdateModels(c *gin.Context) {
	var req UpdateModelsRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if err := config.UpdateModels(req.SceneModel, req.PortraitModel, req.ExtractModel); err != nil {
		h.Response.InternalError(c, "保存配置失败", err.Error())
		return
	}

	cfg := config.GetCurrentConfig()
	provider, err := services.BuildProvider(c.Request.Context(), cfg)
	switch {
	case errors.Is(err, llm.ErrMissingAPIKey):
		h.Response.Success(c, cfg, "配置已保存，未设置 API 密钥")
		return
	case err != nil:
		h.Response.InternalError(c, "创建图像生成服务失败", err.Error())
		return
	}
	h.Generation.SetProvider(provider)
	h.logger.Info("🔧 模型设置已更新", map[string]interface{}{
		"scene_model":    cfg.SceneModel,
		"portrait_model": cfg.PortraitModel,
		"extract_model":  cfg.ExtractModel,
	})
	h.Response.Success(c, cfg, "配置已保存")
}

// GetWebSocketStatus WebSocket 连接状态
func (h *Handler) GetWebSocketStatus(c *gin.Context) {
	h.Response.Success(c, h.Hub.GetStatus())
}
