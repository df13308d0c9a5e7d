package app

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/Corphon/SceneBoard/internal/config"
	"github.com/Corphon/SceneBoard/internal/di"
	"github.com/Corphon/SceneBoard/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 测试前重置全局实例和容器
func resetApp(t *testing.T) {
	t.Helper()
	instanceMu.Lock()
	instance = nil
	instanceMu.Unlock()
	di.GetContainer().Clear()

	t.Cleanup(func() {
		instanceMu.Lock()
		instance = nil
		instanceMu.Unlock()
		di.GetContainer().Clear()
	})
}

// mockServer 立即返回的服务器
type mockServer struct {
	shutdownCalled atomic.Bool
}

func (m *mockServer) ListenAndServe() error {
	return nil
}

func (m *mockServer) Shutdown(ctx context.Context) error {
	m.shutdownCalled.Store(true)
	return nil
}

func TestGetApp(t *testing.T) {
	resetApp(t)

	app1 := GetApp()
	require.NotNil(t, app1)
	assert.Same(t, app1, GetApp())
	assert.NotNil(t, app1.stopChan)
}

func TestIsDebugMode(t *testing.T) {
	resetApp(t)
	assert.False(t, IsDebugMode())

	app := GetApp()
	assert.False(t, IsDebugMode())

	app.config = &config.AppConfig{DebugMode: true}
	assert.True(t, IsDebugMode())
	assert.Same(t, app.config, app.GetConfig())

	app.config.DebugMode = false
	assert.False(t, IsDebugMode())
}

func TestRunWithoutInitialize(t *testing.T) {
	resetApp(t)
	assert.Error(t, Run())
}

func TestRunShutsDownOnSignal(t *testing.T) {
	resetApp(t)

	srv := &mockServer{}
	app := GetApp()
	app.config = &config.AppConfig{Port: "8081"}
	app.server = srv

	go func() {
		time.Sleep(100 * time.Millisecond)
		app.stopChan <- syscall.SIGTERM
	}()

	require.NoError(t, Run())
	assert.True(t, srv.shutdownCalled.Load())
}

func TestInitialize(t *testing.T) {
	resetApp(t)

	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")
	logDir := filepath.Join(dir, "logs")
	t.Setenv("DATA_DIR", dataDir)
	t.Setenv("LOG_DIR", logDir)
	t.Setenv("STATIC_DIR", filepath.Join(dir, "static"))
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "")
	t.Setenv("DEBUG_MODE", "false")

	require.NoError(t, Initialize(dataDir))
	app := GetApp()
	t.Cleanup(func() {
		app.cleanup()
		_ = utils.GetLogger().Close()
	})

	assert.NotNil(t, app.router)
	assert.NotNil(t, app.server)
	assert.False(t, IsDebugMode())

	container := GetDIContainer()
	for _, name := range []string{
		di.ConfigService,
		di.MetricsService,
		di.EventHubService,
		di.WorkspaceService,
		di.GenerationService,
		di.ProgressService,
		di.UploadService,
		di.StorageService,
		di.ExportService,
	} {
		assert.True(t, container.Has(name), name)
	}
	// 没有密钥时不注册生成后端
	assert.False(t, container.Has(di.ProviderService))

	_, err := os.Stat(filepath.Join(dataDir, "config.json"))
	assert.NoError(t, err)

	files, err := os.ReadDir(logDir)
	require.NoError(t, err)
	assert.NotEmpty(t, files)
}
