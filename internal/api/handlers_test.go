package api

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/Corphon/SceneBoard/internal/models"
	"github.com/Corphon/SceneBoard/internal/services"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkspaceLifecycle(t *testing.T) {
	env := newTestEnv(t)
	wid := env.createWorkspace(t)

	w := env.do(t, http.MethodGet, "/api/workspaces/"+wid, nil)
	require.Equal(t, http.StatusOK, w.Code)
	snap := decode[models.WorkspaceSnapshot](t, w)
	assert.True(t, snap.Success)
	assert.Equal(t, wid, snap.Data.ID)
	assert.Empty(t, snap.Data.Items)
	assert.Len(t, snap.Data.CharacterLibrary, 5)
	assert.NotEmpty(t, snap.RequestID)

	w = env.do(t, http.MethodDelete, "/api/workspaces/"+wid, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/workspaces/"+wid, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, ErrorWorkspaceNotFound, decode[any](t, w).Error.Code)

	w = env.do(t, http.MethodDelete, "/api/workspaces/"+wid, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteItemRequiresConfirm(t *testing.T) {
	env := newTestEnv(t)
	wid := env.createWorkspace(t)
	ids := env.seedItems(t, wid, 2)

	w := env.do(t, http.MethodDelete, "/api/workspaces/"+wid+"/items/"+ids[0], nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, ErrorConfirmRequired, decode[any](t, w).Error.Code)

	w = env.do(t, http.MethodDelete, "/api/workspaces/"+wid+"/items/"+ids[0]+"?confirm=true", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodDelete, "/api/workspaces/"+wid+"/items/"+ids[0]+"?confirm=true", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	ws, err := env.workspaces.Get(wid)
	require.NoError(t, err)
	assert.Equal(t, ids[1:], itemIDs(ws.Items()))
}

func TestChapterEndpoints(t *testing.T) {
	env := newTestEnv(t)
	wid := env.createWorkspace(t)
	base := "/api/workspaces/" + wid + "/chapters"

	w := env.do(t, http.MethodPost, base, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	ch := decode[models.Chapter](t, w).Data
	assert.Equal(t, "챕터 1", ch.Name)

	type renameResult struct {
		Renamed bool           `json:"renamed"`
		Chapter models.Chapter `json:"chapter"`
	}

	// 分解形式的韩文加首尾空白
	w = env.do(t, http.MethodPut, base+"/"+ch.ID, RenameChapterRequest{Name: "  \u1112\u1161\u11ab  "})
	require.Equal(t, http.StatusOK, w.Code)
	renamed := decode[renameResult](t, w).Data
	assert.True(t, renamed.Renamed)
	assert.Equal(t, "\ud55c", renamed.Chapter.Name)

	w = env.do(t, http.MethodPut, base+"/"+ch.ID, RenameChapterRequest{Name: "   "})
	require.Equal(t, http.StatusOK, w.Code)
	renamed = decode[renameResult](t, w).Data
	assert.False(t, renamed.Renamed)
	assert.Equal(t, "\ud55c", renamed.Chapter.Name)

	w = env.do(t, http.MethodPut, base+"/missing", RenameChapterRequest{Name: "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// 章节中放一个条目后删除
	ids := env.seedItems(t, wid, 2)
	w = env.do(t, http.MethodPost, "/api/workspaces/"+wid+"/transfer/move", MoveRequest{
		ArtifactID:  ids[1],
		Source:      models.ItemStoreRef(),
		Destination: models.ChapterRef(ch.ID),
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, decode[models.DropResult](t, w).Data.Applied)

	w = env.do(t, http.MethodDelete, base+"/"+ch.ID, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodDelete, base+"/"+ch.ID+"?confirm=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	deleted := decode[struct {
		Moved int                `json:"moved"`
		Items []*models.Artifact `json:"items"`
	}](t, w).Data
	assert.Equal(t, 1, deleted.Moved)
	assert.Equal(t, []string{ids[1], ids[0]}, itemIDs(deleted.Items))
}

func TestTransferEndpoints(t *testing.T) {
	env := newTestEnv(t)
	wid := env.createWorkspace(t)
	ids := env.seedItems(t, wid, 3)
	base := "/api/workspaces/" + wid

	w := env.do(t, http.MethodPost, base+"/chapters", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	chapterID := decode[models.Chapter](t, w).Data.ID

	w = env.do(t, http.MethodPost, base+"/transfer", TransferRequest{ArtifactID: ids[0], Source: models.ItemStoreRef()})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, base+"/transfer/drop", DropRequest{Destination: models.ChapterRef(chapterID)})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.DropResult{Applied: true}, decode[models.DropResult](t, w).Data)

	// 待定状态已被消费
	w = env.do(t, http.MethodPost, base+"/transfer/drop", DropRequest{Destination: models.ChapterRef(chapterID)})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.DropResult{Reason: models.DropNoPending}, decode[models.DropResult](t, w).Data)

	w = env.do(t, http.MethodPost, base+"/transfer/move", MoveRequest{
		ArtifactID:  ids[2],
		Source:      models.ItemStoreRef(),
		Destination: models.ItemStoreRef(),
		TargetID:    ids[1],
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[models.DropResult](t, w).Data.Applied)

	w = env.do(t, http.MethodPost, base+"/transfer/move", MoveRequest{
		ArtifactID:  ids[1],
		Source:      models.ContainerRef{Kind: "shelf"},
		Destination: models.ItemStoreRef(),
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.DropMalformed, decode[models.DropResult](t, w).Data.Reason)

	w = env.do(t, http.MethodGet, base, nil)
	snap := decode[models.WorkspaceSnapshot](t, w).Data
	assert.Equal(t, []string{ids[2], ids[1]}, itemIDs(snap.Items))
	require.Len(t, snap.Chapters, 1)
	assert.Equal(t, []string{ids[0]}, itemIDs(snap.Chapters[0].Items))

	w = env.do(t, http.MethodPost, base+"/chapters/"+chapterID+"/items/"+ids[0]+"/unfile", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]bool{"applied": true}, decode[map[string]bool](t, w).Data)

	w = env.do(t, http.MethodPost, base+"/chapters/"+chapterID+"/items/"+ids[0]+"/unfile", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]bool{"applied": false}, decode[map[string]bool](t, w).Data)

	w = env.do(t, http.MethodPost, base+"/transfer", TransferRequest{ArtifactID: ids[0]})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodDelete, base+"/transfer", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]bool{"cancelled": false}, decode[map[string]bool](t, w).Data)
}

func TestMalformedJSON(t *testing.T) {
	env := newTestEnv(t)
	wid := env.createWorkspace(t)

	req := httptest.NewRequest(http.MethodPost, "/api/workspaces/"+wid+"/transfer", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.router.Engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, ErrorBadRequest, decode[any](t, w).Error.Code)
}

func TestCharacterLibraryEndpoints(t *testing.T) {
	env := newTestEnv(t)
	wid := env.createWorkspace(t)
	base := "/api/workspaces/" + wid + "/characters"

	w := env.do(t, http.MethodPut, base+"/slots/0", ImageRequest{Image: pngDataURL()})
	require.Equal(t, http.StatusOK, w.Code)
	ch := decode[models.Character](t, w).Data
	assert.Equal(t, "캐릭터 1", ch.Name)
	assert.Equal(t, "image/png", ch.Image.MIMEType)

	type activation struct {
		Activated        bool                `json:"activated"`
		ActiveCharacters []*models.Character `json:"active_characters"`
	}
	w = env.do(t, http.MethodPost, base+"/slots/0/activate", nil)
	require.Equal(t, http.StatusOK, w.Code)
	first := decode[activation](t, w).Data
	assert.True(t, first.Activated)
	require.Len(t, first.ActiveCharacters, 1)

	w = env.do(t, http.MethodPost, base+"/slots/0/activate", nil)
	require.Equal(t, http.StatusOK, w.Code)
	second := decode[activation](t, w).Data
	assert.False(t, second.Activated)
	assert.Len(t, second.ActiveCharacters, 1)

	w = env.do(t, http.MethodPut, base+"/"+ch.ID, models.CharacterSheet{Name: "민지", Age: "20", Outfit: "coat"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "민지", decode[models.Character](t, w).Data.Name)

	ws, err := env.workspaces.Get(wid)
	require.NoError(t, err)
	assert.Equal(t, "coat", ws.ActiveCharacters()[0].Outfit)

	w = env.do(t, http.MethodPut, base+"/slots/x", ImageRequest{Image: pngDataURL()})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPut, base+"/slots/9", ImageRequest{Image: pngDataURL()})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPut, base+"/slots/1", ImageRequest{Image: "data:text/plain;base64,aGVsbG8="})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodDelete, base+"/slots/0?confirm=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	// 激活副本保留
	assert.Len(t, ws.ActiveCharacters(), 1)

	w = env.do(t, http.MethodDelete, base+"/active/0", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, ws.ActiveCharacters())
}

func TestBackgroundUploadMultipart(t *testing.T) {
	env := newTestEnv(t)
	wid := env.createWorkspace(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "street.png")
	require.NoError(t, err)
	_, err = part.Write(pngHeader)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPut, "/api/workspaces/"+wid+"/backgrounds/slots/2", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	env.router.Engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	bg := decode[models.Background](t, w).Data
	assert.Equal(t, "배경 3", bg.Name)
	assert.Equal(t, pngHeader, bg.Image.Data)

	w = env.do(t, http.MethodPost, "/api/workspaces/"+wid+"/backgrounds/slots/2/activate", nil)
	require.Equal(t, http.StatusOK, w.Code)
	activated := decode[struct {
		Activated        bool               `json:"activated"`
		ActiveBackground *models.Background `json:"active_background"`
	}](t, w).Data
	assert.True(t, activated.Activated)
	require.NotNil(t, activated.ActiveBackground)
	assert.Equal(t, bg.ID, activated.ActiveBackground.ID)

	w = env.do(t, http.MethodDelete, "/api/workspaces/"+wid+"/backgrounds/slots/2?confirm=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	ws, err := env.workspaces.Get(wid)
	require.NoError(t, err)
	_, ok := ws.ActiveBackground()
	assert.False(t, ok)
}

// paddedPNGDataURL PNG 文件头后补零到 n 字节
func paddedPNGDataURL(n int) string {
	data := make([]byte, n)
	copy(data, pngHeader)
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)
}

func TestImageUploadSizeLimit(t *testing.T) {
	env := newTestEnv(t)
	wid := env.createWorkspace(t)
	path := "/api/workspaces/" + wid + "/characters/slots/0"

	// 恰好到上限的图像以 data URL 提交时请求体超过原始大小
	w := env.do(t, http.MethodPut, path, ImageRequest{Image: paddedPNGDataURL(1 << 20)})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	for name, size := range map[string]int{
		"just over":  1<<20 + 1,
		"far beyond": 3 << 20,
	} {
		t.Run(name, func(t *testing.T) {
			w := env.do(t, http.MethodPut, path, ImageRequest{Image: paddedPNGDataURL(size)})
			require.Equal(t, http.StatusBadRequest, w.Code)
			resp := decode[any](t, w)
			assert.Equal(t, ErrorFileInvalid, resp.Error.Code)
			assert.Contains(t, resp.Error.Message, "大小限制")
		})
	}
}

func TestFilterEndpoints(t *testing.T) {
	env := newTestEnv(t)
	wid := env.createWorkspace(t)
	filterPath := func(title string) string {
		return "/api/workspaces/" + wid + "/filters/" + url.PathEscape(title)
	}

	type toggleResult struct {
		Active  bool                  `json:"active"`
		Filters []models.ActiveFilter `json:"filters"`
	}
	for _, look := range models.CinematicLooks[:3] {
		w := env.do(t, http.MethodPost, filterPath(look.Title)+"/toggle", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, decode[toggleResult](t, w).Data.Active)
	}

	// 第四个不生效
	w := env.do(t, http.MethodPost, filterPath(models.CinematicLooks[3].Title)+"/toggle", nil)
	require.Equal(t, http.StatusOK, w.Code)
	fourth := decode[toggleResult](t, w).Data
	assert.False(t, fourth.Active)
	assert.Len(t, fourth.Filters, 3)

	w = env.do(t, http.MethodPut, filterPath(models.CinematicLooks[0].Title), FilterIntensityRequest{Intensity: 150})
	require.Equal(t, http.StatusOK, w.Code)
	intensity := decode[struct {
		Intensity int                   `json:"intensity"`
		Filters   []models.ActiveFilter `json:"filters"`
	}](t, w).Data
	assert.Equal(t, 100, intensity.Intensity)

	w = env.do(t, http.MethodPut, filterPath(models.CinematicLooks[1].Title), FilterIntensityRequest{Intensity: 40})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPut, filterPath(models.CinematicLooks[5].Title), FilterIntensityRequest{Intensity: 40})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, filterPath("없는 필터")+"/toggle", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodDelete, filterPath(models.CinematicLooks[2].Title), nil)
	require.Equal(t, http.StatusOK, w.Code)
	removed := decode[struct {
		Removed bool                  `json:"removed"`
		Filters []models.ActiveFilter `json:"filters"`
	}](t, w).Data
	assert.True(t, removed.Removed)

	want := []models.ActiveFilter{
		{Title: models.CinematicLooks[0].Title, Intensity: 100},
		{Title: models.CinematicLooks[1].Title, Intensity: 40},
	}
	if diff := cmp.Diff(want, removed.Filters); diff != "" {
		t.Errorf("filters mismatch (-want +got):\n%s", diff)
	}
}

func TestSelectionEndpoints(t *testing.T) {
	env := newTestEnv(t)
	wid := env.createWorkspace(t)
	ids := env.seedItems(t, wid, 2)
	base := "/api/workspaces/" + wid + "/selection"

	w := env.do(t, http.MethodPost, base+"/items/"+ids[0], nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, base+"/mode", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]bool{"selection_mode": true}, decode[map[string]bool](t, w).Data)

	w = env.do(t, http.MethodPost, base+"/items/"+ids[1], nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, base+"/items/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, base+"/confirm", nil)
	require.Equal(t, http.StatusOK, w.Code)
	created := decode[[]*models.Character](t, w).Data
	require.Len(t, created, 1)
	assert.Equal(t, "캐릭터 1", created[0].Name)

	w = env.do(t, http.MethodGet, "/api/workspaces/"+wid, nil)
	snap := decode[models.WorkspaceSnapshot](t, w).Data
	assert.Equal(t, []string{ids[0]}, itemIDs(snap.Items))
	assert.False(t, snap.SelectionMode)
	require.NotNil(t, snap.CharacterLibrary[0])
	assert.Equal(t, created[0].ID, snap.CharacterLibrary[0].ID)
}

func TestGenerationEndpoints(t *testing.T) {
	env := newTestEnv(t)
	wid := env.createWorkspace(t)
	base := "/api/workspaces/" + wid

	// 没有激活角色
	w := env.do(t, http.MethodPost, base+"/generate", map[string]interface{}{"scene": "비 오는 골목", "count": 2})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, env.provider.calls.Load())

	w = env.do(t, http.MethodPut, base+"/characters/slots/0", ImageRequest{Image: pngDataURL()})
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodPost, base+"/characters/slots/0/activate", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, base+"/generate", map[string]interface{}{"scene": "비 오는 골목", "count": 2})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	scenes := decode[[]*models.Artifact](t, w).Data
	require.Len(t, scenes, 2)
	assert.Equal(t, models.AspectLandscape, scenes[0].AspectRatio)
	assert.Equal(t, "100", w.Header().Get("X-RateLimit-Limit"))

	w = env.do(t, http.MethodPost, base+"/characters/generate", map[string]interface{}{
		"description":  "짧은 검은 머리의 대학생",
		"aspect_ratio": "9:16",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	portraits := decode[[]*models.Artifact](t, w).Data
	require.Len(t, portraits, 1)
	require.NotNil(t, portraits[0].Character)
	assert.Equal(t, "민지", portraits[0].Character.Name)

	w = env.do(t, http.MethodPost, base+"/items/"+scenes[1].ID+"/edit", EditItemRequest{Modification: "make it night"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	edited := decode[models.Artifact](t, w).Data
	assert.Equal(t, scenes[1].ID, edited.ID)

	w = env.do(t, http.MethodGet, base+"/generations", nil)
	require.Equal(t, http.StatusOK, w.Code)
	tasks := decode[[]services.ProgressUpdate](t, w).Data
	require.Len(t, tasks, 3)
	for _, task := range tasks {
		assert.Equal(t, services.TaskCompleted, task.Status)
		assert.Equal(t, 100, task.Progress)
	}

	ws, err := env.workspaces.Get(wid)
	require.NoError(t, err)
	before := itemIDs(ws.Items())

	env.provider.fail.Store(true)
	w = env.do(t, http.MethodPost, base+"/generate", map[string]interface{}{"scene": "비 오는 골목", "count": 3})
	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, ErrorGenerationFailed, decode[any](t, w).Error.Code)
	assert.Equal(t, before, itemIDs(ws.Items()))

	w = env.do(t, http.MethodPost, base+"/items/missing/edit", EditItemRequest{Modification: "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, "/api/workspaces/missing/generate", map[string]interface{}{"scene": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportEndpoints(t *testing.T) {
	env := newTestEnv(t)
	wid := env.createWorkspace(t)
	base := "/api/workspaces/" + wid

	w := env.do(t, http.MethodGet, base+"/export", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, ErrorExportDataEmpty, decode[any](t, w).Error.Code)

	ids := env.seedItems(t, wid, 2)
	w = env.do(t, http.MethodGet, base+"/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, zipContentType, w.Header().Get("Content-Type"))
	_, params, err := mime.ParseMediaType(w.Header().Get("Content-Disposition"))
	require.NoError(t, err)
	assert.Equal(t, "ai-illustrations.zip", params["filename"])

	archive, err := zip.NewReader(bytes.NewReader(w.Body.Bytes()), int64(w.Body.Len()))
	require.NoError(t, err)
	assert.Len(t, archive.File, 2)

	w = env.do(t, http.MethodPost, base+"/chapters", nil)
	chapterID := decode[models.Chapter](t, w).Data.ID
	w = env.do(t, http.MethodPost, base+"/transfer/move", MoveRequest{
		ArtifactID:  ids[0],
		Source:      models.ItemStoreRef(),
		Destination: models.ChapterRef(chapterID),
	})
	require.True(t, decode[models.DropResult](t, w).Data.Applied)

	w = env.do(t, http.MethodGet, base+"/chapters/"+chapterID+"/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, params, err = mime.ParseMediaType(w.Header().Get("Content-Disposition"))
	require.NoError(t, err)
	assert.Equal(t, "챕터 1.zip", params["filename"])

	w = env.do(t, http.MethodGet, base+"/chapters/missing/export", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, base+"/chapters/"+chapterID+"/export?save=true", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	saved := decode[models.ExportResult](t, w).Data
	assert.Equal(t, chapterID, saved.Source)
	assert.Equal(t, 1, saved.ItemCount)
	assert.NotEmpty(t, saved.FilePath)

	w = env.do(t, http.MethodGet, "/api/exports", nil)
	require.Equal(t, http.StatusOK, w.Code)
	files := decode[[]models.SavedExport](t, w).Data
	require.Len(t, files, 1)
	assert.Equal(t, saved.FileSize, files[0].Size)

	w = env.do(t, http.MethodGet, "/api/exports/"+url.PathEscape(files[0].Name), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int(saved.FileSize), w.Body.Len())

	w = env.do(t, http.MethodGet, "/api/exports/nothing.zip", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, ErrorFileNotFound, decode[any](t, w).Error.Code)
}

func TestSystemEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.createWorkspace(t)

	w := env.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	health := decode[map[string]interface{}](t, w).Data
	assert.Equal(t, "ok", health["status"])
	assert.EqualValues(t, 1, health["workspaces"])
	assert.Equal(t, true, health["provider_configured"])

	w = env.do(t, http.MethodGet, "/api/looks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	looks := decode[struct {
		Looks       []models.CinematicLook `json:"looks"`
		MaxActive   int                    `json:"max_active"`
		CameraShots []string               `json:"camera_shots"`
	}](t, w).Data
	assert.Len(t, looks.Looks, len(models.CinematicLooks))
	assert.Equal(t, 3, looks.MaxActive)
	assert.NotEmpty(t, looks.CameraShots)

	w = env.do(t, http.MethodGet, "/api/settings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	settings := decode[map[string]interface{}](t, w).Data
	assert.Equal(t, false, settings["api_key_configured"])
	assert.NotContains(t, w.Body.String(), "APIKey")

	// 未配置密钥时保存成功但不替换生成后端
	w = env.do(t, http.MethodPut, "/api/settings/models", UpdateModelsRequest{SceneModel: "scene-test"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "scene-test", decode[map[string]interface{}](t, w).Data["scene_model"])
	assert.Same(t, env.provider, env.router.Handler.Generation.Provider())

	w = env.do(t, http.MethodGet, "/api/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/ws/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, decode[map[string]interface{}](t, w).Data["total_connections"])
}
