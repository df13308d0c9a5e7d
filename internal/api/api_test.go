package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Corphon/SceneBoard/internal/config"
	"github.com/Corphon/SceneBoard/internal/di"
	"github.com/Corphon/SceneBoard/internal/llm"
	"github.com/Corphon/SceneBoard/internal/models"
	"github.com/Corphon/SceneBoard/internal/services"
	"github.com/Corphon/SceneBoard/internal/storage"
	"github.com/Corphon/SceneBoard/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	goleak.VerifyTestMain(m)
}

// 最小的 PNG 文件头
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func pngDataURL() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngHeader)
}

// stubProvider 返回固定图像，fail 置位后所有调用失败
type stubProvider struct {
	fail  atomic.Bool
	calls atomic.Int32
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) result() (*models.ImageData, error) {
	p.calls.Add(1)
	if p.fail.Load() {
		return nil, &llm.GenerationError{Op: llm.OpSceneGeneration, Err: errors.New("upstream unavailable")}
	}
	return &models.ImageData{MIMEType: "image/png", Data: pngHeader}, nil
}

func (p *stubProvider) GenerateSceneImage(context.Context, llm.SceneImageRequest) (*models.ImageData, error) {
	return p.result()
}

func (p *stubProvider) GeneratePortrait(context.Context, string, models.AspectRatio) (*models.ImageData, error) {
	return p.result()
}

func (p *stubProvider) EditImage(context.Context, models.ImageData, string) (*models.ImageData, error) {
	return p.result()
}

func (p *stubProvider) ExtractCharacter(context.Context, string) (*llm.CharacterExtraction, error) {
	return &llm.CharacterExtraction{Name: "민지", Age: "20", EnglishDescription: "a young woman with short black hair"}, nil
}

type testEnv struct {
	router     *Router
	provider   *stubProvider
	workspaces *services.WorkspaceService
	hub        *EventHub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DATA_DIR", dir+"/data")
	t.Setenv("LOG_DIR", dir+"/logs")
	t.Setenv("STATIC_DIR", dir+"/static")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "")
	t.Setenv("GENERATION_RATE_LIMIT", "100")
	require.NoError(t, config.InitConfig(dir+"/data"))

	hub := NewEventHub()
	workspaces := services.NewWorkspaceService(time.Hour, hub)
	metrics := utils.NewAPIMetrics()
	provider := &stubProvider{}
	fs, err := storage.NewFileStorage(dir + "/data")
	require.NoError(t, err)

	container := di.NewContainer()
	container.Register(di.EventHubService, hub)
	container.Register(di.WorkspaceService, workspaces)
	container.Register(di.MetricsService, metrics)
	progress := services.NewProgressService(hub)
	generation := services.NewGenerationService(provider, workspaces, metrics, 5*time.Second)
	generation.SetProgress(progress)
	container.Register(di.ProgressService, progress)
	container.Register(di.GenerationService, generation)
	container.Register(di.UploadService, services.NewUploadService(1<<20))
	container.Register(di.ExportService, services.NewExportService(workspaces, fs, metrics))

	router, err := SetupRouter(container)
	require.NoError(t, err)

	t.Cleanup(func() {
		router.Close()
		workspaces.Close()
		hub.Close()
		fs.Close()
	})
	return &testEnv{router: router, provider: provider, workspaces: workspaces, hub: hub}
}

// do 发送请求，body 非 nil 时编码为 JSON
func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.Engine.ServeHTTP(w, req)
	return w
}

// envelope 响应外层结构，Data 按调用方的类型解析
type envelope[T any] struct {
	Success   bool      `json:"success"`
	Data      T         `json:"data"`
	Error     *APIError `json:"error"`
	Message   string    `json:"message"`
	RequestID string    `json:"request_id"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var out envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// createWorkspace 新建工作区并返回 ID
func (e *testEnv) createWorkspace(t *testing.T) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/workspaces", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	return decode[models.WorkspaceSnapshot](t, w).Data.ID
}

// seedItems 直接向工作区写入 n 个条目，返回按列表顺序的 ID
func (e *testEnv) seedItems(t *testing.T, wid string, n int) []string {
	t.Helper()
	ws, err := e.workspaces.Get(wid)
	require.NoError(t, err)

	batch := make([]*models.Artifact, n)
	ids := make([]string, n)
	for i := range batch {
		ids[i] = ws.NewID()
		batch[i] = &models.Artifact{
			ID:          ids[i],
			Image:       models.ImageData{MIMEType: "image/png", Data: pngHeader},
			Prompt:      "scene",
			AspectRatio: models.AspectLandscape,
		}
	}
	ws.InsertNew(batch)
	return ids
}

func itemIDs(items []*models.Artifact) []string {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return ids
}
