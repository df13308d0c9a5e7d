// internal/api/router.go
package api

import (
	"fmt"
	"os"
	"time"

	"github.com/Corphon/SceneBoard/internal/config"
	"github.com/Corphon/SceneBoard/internal/di"
	"github.com/Corphon/SceneBoard/internal/services"
	"github.com/Corphon/SceneBoard/internal/utils"
	"github.com/gin-gonic/gin"
)

// Router HTTP 路由及其需要关闭的资源
type Router struct {
	Engine  *gin.Engine
	Handler *Handler
	limiter *RateLimiter
}

// Close 停止限流器的清理协程
func (r *Router) Close() {
	r.limiter.Stop()
}

// SetupRouter 从容器取出服务并配置路由
func SetupRouter(container *di.Container) (*Router, error) {
	cfg := config.GetCurrentConfig()

	workspaces, err := di.Resolve[*services.WorkspaceService](container, di.WorkspaceService)
	if err != nil {
		return nil, fmt.Errorf("工作区服务未正确初始化: %w", err)
	}
	generation, err := di.Resolve[*services.GenerationService](container, di.GenerationService)
	if err != nil {
		return nil, fmt.Errorf("生成服务未正确初始化: %w", err)
	}
	progress, err := di.Resolve[*services.ProgressService](container, di.ProgressService)
	if err != nil {
		return nil, fmt.Errorf("进度服务未正确初始化: %w", err)
	}
	uploads, err := di.Resolve[*services.UploadService](container, di.UploadService)
	if err != nil {
		return nil, fmt.Errorf("上传服务未正确初始化: %w", err)
	}
	exports, err := di.Resolve[*services.ExportService](container, di.ExportService)
	if err != nil {
		return nil, fmt.Errorf("导出服务未正确初始化: %w", err)
	}
	hub, err := di.Resolve[*EventHub](container, di.EventHubService)
	if err != nil {
		return nil, fmt.Errorf("WebSocket 管理器未正确初始化: %w", err)
	}
	metrics, err := di.Resolve[*utils.APIMetrics](container, di.MetricsService)
	if err != nil {
		return nil, fmt.Errorf("指标服务未正确初始化: %w", err)
	}

	handler := NewHandler(workspaces, generation, progress, uploads, exports, hub, metrics)
	limiter := NewRateLimiter(time.Hour)

	if !cfg.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestIDMiddleware())
	r.Use(requestMetricsMiddleware(metrics))
	r.Use(corsMiddleware())

	// 前端静态文件（可选）
	if info, err := os.Stat(cfg.StaticDir); err == nil && info.IsDir() {
		r.Static("/static", cfg.StaticDir)
	}

	r.GET("/health", handler.Health)
	r.GET("/ws/workspaces/:wid", handler.WorkspaceWebSocket)

	rateLimit := cfg.GenerationRateLimit
	if rateLimit <= 0 {
		rateLimit = 10
	}
	generationLimit := limiter.Middleware(rateLimit, time.Minute, handler.Response)

	api := r.Group("/api")
	{
		api.GET("/looks", handler.GetLooks)
		api.GET("/metrics", handler.GetMetrics)
		api.GET("/ws/status", handler.GetWebSocketStatus)

		// ===============================
		// 设置
		// ===============================
		settingsGroup := api.Group("/settings")
		{
			settingsGroup.GET("", handler.GetSettings)
			settingsGroup.PUT("/models", handler.UpdateModels)
		}

		// ===============================
		// 已保存的导出文件
		// ===============================
		exportsGroup := api.Group("/exports")
		{
			exportsGroup.GET("", handler.ListExports)
			exportsGroup.GET("/:name", handler.DownloadExport)
		}

		api.POST("/workspaces", handler.CreateWorkspace)

		wsGroup := api.Group("/workspaces/:wid")
		{
			wsGroup.GET("", handler.GetWorkspace)
			wsGroup.DELETE("", handler.DeleteWorkspace)
			wsGroup.GET("/export", handler.ExportItems)

			// 未归档列表
			wsGroup.DELETE("/items/:item_id", handler.DeleteItem)
			wsGroup.POST("/items/:item_id/edit", generationLimit, handler.EditItem)

			// 章节
			chaptersGroup := wsGroup.Group("/chapters")
			{
				chaptersGroup.POST("", handler.CreateChapter)
				chaptersGroup.PUT("/:chapter_id", handler.RenameChapter)
				chaptersGroup.DELETE("/:chapter_id", handler.DeleteChapter)
				chaptersGroup.POST("/:chapter_id/items/:item_id/unfile", handler.UnfileItem)
				chaptersGroup.GET("/:chapter_id/export", handler.ExportChapter)
			}

			// 拖拽
			transferGroup := wsGroup.Group("/transfer")
			{
				transferGroup.POST("", handler.BeginTransfer)
				transferGroup.DELETE("", handler.CancelTransfer)
				transferGroup.POST("/drop", handler.DropTransfer)
				transferGroup.POST("/move", handler.MoveItem)
			}

			// 角色库
			charactersGroup := wsGroup.Group("/characters")
			{
				charactersGroup.POST("/generate", generationLimit, handler.GenerateCharacter)
				charactersGroup.PUT("/slots/:slot", handler.SetCharacterImage)
				charactersGroup.DELETE("/slots/:slot", handler.DeleteCharacter)
				charactersGroup.POST("/slots/:slot/activate", handler.ActivateCharacter)
				charactersGroup.DELETE("/active/:slot", handler.DeactivateCharacter)
				charactersGroup.PUT("/:character_id", handler.UpdateCharacterSheet)
			}

			// 背景库
			backgroundsGroup := wsGroup.Group("/backgrounds")
			{
				backgroundsGroup.PUT("/slots/:slot", handler.SetBackground)
				backgroundsGroup.DELETE("/slots/:slot", handler.DeleteBackground)
				backgroundsGroup.POST("/slots/:slot/activate", handler.ActivateBackground)
				backgroundsGroup.DELETE("/active", handler.DeactivateBackground)
			}

			// 滤镜
			filtersGroup := wsGroup.Group("/filters")
			{
				filtersGroup.POST("/:title/toggle", handler.ToggleFilter)
				filtersGroup.PUT("/:title", handler.SetFilterIntensity)
				filtersGroup.DELETE("/:title", handler.RemoveFilter)
			}

			// 选择模式
			selectionGroup := wsGroup.Group("/selection")
			{
				selectionGroup.POST("/mode", handler.ToggleSelectionMode)
				selectionGroup.POST("/items/:item_id", handler.ToggleSelected)
				selectionGroup.POST("/confirm", handler.ConfirmSelection)
			}

			wsGroup.POST("/generate", generationLimit, handler.GenerateScene)
			wsGroup.GET("/generations", handler.ListGenerations)
		}
	}

	return &Router{Engine: r, Handler: handler, limiter: limiter}, nil
}
