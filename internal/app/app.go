// internal/app/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/Corphon/SceneBoard/internal/api"
	"github.com/Corphon/SceneBoard/internal/config"
	"github.com/Corphon/SceneBoard/internal/di"
	"github.com/Corphon/SceneBoard/internal/llm"
	"github.com/Corphon/SceneBoard/internal/services"
	"github.com/Corphon/SceneBoard/internal/storage"
	"github.com/Corphon/SceneBoard/internal/utils"

	// 注册图像生成提供者
	_ "github.com/Corphon/SceneBoard/internal/llm/providers/google"
)

const (
	shutdownTimeout = 30 * time.Second
	metricsInterval = 5 * time.Minute
)

// server 可优雅关闭的 HTTP 服务器
type server interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// App 应用实例
type App struct {
	config    *config.AppConfig
	router    http.Handler
	apiRouter *api.Router
	server    server
	stopChan  chan os.Signal
}

var (
	instance   *App
	instanceMu sync.Mutex
)

// GetApp 获取应用单例
func GetApp() *App {
	instanceMu.Lock()
	defer instanceMu.Unlock()

	if instance == nil {
		instance = &App{stopChan: make(chan os.Signal, 1)}
	}
	return instance
}

// GetDIContainer 全局依赖注入容器
func GetDIContainer() *di.Container {
	return di.GetContainer()
}

// GetConfig 应用配置
func (a *App) GetConfig() *config.AppConfig {
	return a.config
}

// IsDebugMode 是否处于调试模式
func IsDebugMode() bool {
	instanceMu.Lock()
	defer instanceMu.Unlock()
	return instance != nil && instance.config != nil && instance.config.DebugMode
}

// initLogger 日志文件按天命名
func initLogger(logDir string) error {
	logFile := filepath.Join(logDir, fmt.Sprintf("sceneboard_%s.log", time.Now().Format("20060102")))
	return utils.InitLogger(logFile)
}

// Initialize 加载配置、初始化日志和服务并创建 HTTP 服务器
func Initialize(dataDir string) error {
	if err := config.InitConfig(dataDir); err != nil {
		return fmt.Errorf("初始化配置失败: %w", err)
	}
	cfg := config.GetCurrentConfig()

	if err := initLogger(cfg.LogDir); err != nil {
		return fmt.Errorf("初始化日志系统失败: %w", err)
	}
	if cfg.DebugMode {
		utils.GetLogger().SetLogLevel(utils.DEBUG)
	}

	if err := InitServices(); err != nil {
		return fmt.Errorf("初始化服务失败: %w", err)
	}

	router, err := api.SetupRouter(GetDIContainer())
	if err != nil {
		return fmt.Errorf("设置路由失败: %w", err)
	}

	app := GetApp()
	app.config = cfg
	app.apiRouter = router
	app.router = router.Engine
	app.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return nil
}

// InitServices 按依赖顺序创建服务并注册到容器
func InitServices() error {
	container := GetDIContainer()
	cfg := config.GetCurrentConfig()
	logger := utils.GetLogger()

	container.Register(di.ConfigService, cfg)

	metrics := utils.NewAPIMetrics()
	container.Register(di.MetricsService, metrics)

	hub := api.NewEventHub()
	container.Register(di.EventHubService, hub)

	workspaces := services.NewWorkspaceService(cfg.WorkspaceTTL, hub)
	container.Register(di.WorkspaceService, workspaces)

	provider, err := services.BuildProvider(context.Background(), cfg)
	switch {
	case errors.Is(err, llm.ErrMissingAPIKey):
		logger.Warn("⚠️ 未配置 API 密钥，图像生成暂不可用", nil)
	case err != nil:
		return fmt.Errorf("创建图像生成服务失败: %w", err)
	default:
		container.Register(di.ProviderService, provider)
		logger.Info("✅ 图像生成服务已就绪", map[string]interface{}{
			"provider":    provider.Name(),
			"scene_model": cfg.SceneModel,
		})
	}

	progress := services.NewProgressService(hub)
	container.Register(di.ProgressService, progress)

	generation := services.NewGenerationService(provider, workspaces, metrics, cfg.GenerationTimeout)
	generation.SetProgress(progress)
	container.Register(di.GenerationService, generation)

	container.Register(di.UploadService, services.NewUploadService(cfg.MaxUploadBytes))

	fs, err := storage.NewFileStorage(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("创建文件存储失败: %w", err)
	}
	container.Register(di.StorageService, fs)
	container.Register(di.ExportService, services.NewExportService(workspaces, fs, metrics))

	logger.Info("✅ 服务初始化完成", map[string]interface{}{"services": container.GetNames()})
	return nil
}

// Run 启动 HTTP 服务器，收到退出信号后优雅关闭
func Run() error {
	app := GetApp()
	if app.server == nil {
		return fmt.Errorf("应用未初始化")
	}
	logger := utils.GetLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if metrics, err := di.Resolve[*utils.APIMetrics](GetDIContainer(), di.MetricsService); err == nil {
		metrics.StartMetricsCollection(ctx, metricsInterval)
	}

	errChan := make(chan error, 1)
	go func() {
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()
	if app.config != nil {
		logger.Info("🌐 服务器已启动", map[string]interface{}{"addr": "http://localhost:" + app.config.Port})
	}

	signal.Notify(app.stopChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(app.stopChan)

	var runErr error
	select {
	case sig := <-app.stopChan:
		logger.Info("🛑 收到退出信号，正在关闭服务器", map[string]interface{}{"signal": sig.String()})
	case err := <-errChan:
		runErr = fmt.Errorf("服务器运行失败: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := app.server.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("服务器关闭失败: %w", err)
	}

	app.cleanup()
	logger.Info("✅ 服务器已关闭", nil)
	return runErr
}

// cleanup 停止后台协程并刷新日志
func (a *App) cleanup() {
	container := GetDIContainer()

	if a.apiRouter != nil {
		a.apiRouter.Close()
	}
	if hub, err := di.Resolve[*api.EventHub](container, di.EventHubService); err == nil {
		hub.Close()
	}
	if workspaces, err := di.Resolve[*services.WorkspaceService](container, di.WorkspaceService); err == nil {
		workspaces.Close()
	}
	if fs, err := di.Resolve[*storage.FileStorage](container, di.StorageService); err == nil {
		fs.Close()
	}
	_ = utils.GetLogger().Sync()
}
