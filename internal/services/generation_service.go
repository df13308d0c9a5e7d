// internal/services/generation_service.go
package services

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	apperrors "github.com/Corphon/SceneBoard/internal/errors"
	"github.com/Corphon/SceneBoard/internal/llm"
	"github.com/Corphon/SceneBoard/internal/models"
	"github.com/Corphon/SceneBoard/internal/utils"
	"golang.org/x/sync/errgroup"
)

// MaxImagesPerRequest 单次生成的最大数量
const MaxImagesPerRequest = 5

// SceneRequest 场景生成请求
type SceneRequest struct {
	Scene       string             `json:"scene"`
	Camera      string             `json:"camera"`
	Count       int                `json:"count"`
	AspectRatio models.AspectRatio `json:"aspect_ratio"`
}

// CharacterRequest 从文字描述生成角色
type CharacterRequest struct {
	Description string             `json:"description"`
	Count       int                `json:"count"`
	AspectRatio models.AspectRatio `json:"aspect_ratio"`
}

// GenerationService 调用图像生成接口并把结果写入工作区
type GenerationService struct {
	providerMu sync.RWMutex
	provider   llm.ImageProvider

	workspaces *WorkspaceService
	progress   *ProgressService
	metrics    *utils.APIMetrics
	logger     *utils.Logger
	timeout    time.Duration

	// 正在编辑的条目 workspaceID/itemID
	editing sync.Map

	pickStyle func() string
	now       func() time.Time
}

// NewGenerationService 创建生成服务，timeout 为单次请求（含全部并发调用）的上限
func NewGenerationService(provider llm.ImageProvider, workspaces *WorkspaceService, metrics *utils.APIMetrics, timeout time.Duration) *GenerationService {
	return &GenerationService{
		provider:   provider,
		workspaces: workspaces,
		metrics:    metrics,
		logger:     utils.GetLogger(),
		timeout:    timeout,
		pickStyle: func() string {
			return PhotorealisticStyles[rand.IntN(len(PhotorealisticStyles))]
		},
		now: time.Now,
	}
}

// Provider 当前使用的图像生成后端
func (s *GenerationService) Provider() llm.ImageProvider {
	s.providerMu.RLock()
	defer s.providerMu.RUnlock()
	return s.provider
}

// SetProvider 切换后端（模型设置修改后），进行中的请求继续使用旧实例
func (s *GenerationService) SetProvider(provider llm.ImageProvider) {
	s.providerMu.Lock()
	defer s.providerMu.Unlock()
	s.provider = provider
}

// SetProgress 设置进度服务，未设置时不上报进度
func (s *GenerationService) SetProgress(progress *ProgressService) {
	s.progress = progress
}

func (s *GenerationService) requireProvider() (llm.ImageProvider, error) {
	provider := s.Provider()
	if provider == nil {
		return nil, apperrors.NewExternalError("未配置图像生成服务，请设置 GEMINI_API_KEY", llm.ErrMissingAPIKey)
	}
	return provider, nil
}

func (s *GenerationService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func normalizeCount(count int) (int, error) {
	if count == 0 {
		return 1, nil
	}
	if count < 1 || count > MaxImagesPerRequest {
		return 0, apperrors.NewValidationError("生成数量必须在 1-5 之间", nil)
	}
	return count, nil
}

func normalizeAspect(aspect models.AspectRatio) (models.AspectRatio, error) {
	if aspect == "" {
		return models.AspectLandscape, nil
	}
	if !aspect.Valid() {
		return "", apperrors.NewValidationError("不支持的画面比例: "+string(aspect), nil)
	}
	return aspect, nil
}

func (s *GenerationService) record(provider llm.ImageProvider, kind string, images int, started time.Time, err error) {
	if s.metrics != nil {
		s.metrics.RecordGeneration(kind, provider.Name(), images, time.Since(started), err)
	}
}

// GenerateScene 并发生成 N 张场景图，任意一张失败则整批失败，不写入任何条目
func (s *GenerationService) GenerateScene(ctx context.Context, workspaceID string, req SceneRequest) ([]*models.Artifact, error) {
	ws, err := s.workspaces.Get(workspaceID)
	if err != nil {
		return nil, err
	}
	count, err := normalizeCount(req.Count)
	if err != nil {
		return nil, err
	}
	aspect, err := normalizeAspect(req.AspectRatio)
	if err != nil {
		return nil, err
	}
	scene := strings.TrimSpace(req.Scene)
	if scene == "" {
		return nil, apperrors.NewValidationError("场景描述不能为空", nil)
	}
	characters := ws.ActiveCharacters()
	if len(characters) == 0 {
		return nil, apperrors.NewValidationError("至少需要激活一个角色", nil)
	}

	prompt := BuildScenePrompt(characters, scene, req.Camera, ws.Filters())
	base := llm.SceneImageRequest{}
	if bg, ok := ws.ActiveBackground(); ok {
		image := bg.Image
		base.Background = &image
	}
	for _, c := range characters {
		base.Characters = append(base.Characters, c.Image)
	}

	provider, err := s.requireProvider()
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	started := time.Now()
	tracker := s.progress.Start(workspaceID, "scene", count)
	images := make([]*models.ImageData, count)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < count; i++ {
		req := base
		req.Prompt = SceneInstruction(prompt, aspect, s.pickStyle(), i > 0)
		g.Go(func() error {
			image, err := provider.GenerateSceneImage(gctx, req)
			if err != nil {
				return err
			}
			images[i] = image
			tracker.Step()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.record(provider, "scene", 0, started, err)
		appErr := externalError("", err)
		tracker.Fail(appErr.Error())
		return nil, appErr
	}
	s.record(provider, "scene", count, started, nil)
	tracker.Complete()

	artifacts := s.newArtifacts(ws.NewID, images, prompt, aspect, nil)
	ws.InsertNew(artifacts)

	s.logger.Info("🎬 场景生成完成", map[string]interface{}{
		"workspace_id": workspaceID,
		"count":        count,
		"characters":   len(characters),
		"duration_ms":  time.Since(started).Milliseconds(),
	})
	return cloneArtifacts(artifacts), nil
}

// CreateCharacter 分析角色描述后生成 N 张肖像，结果带角色信息放入未归档列表
func (s *GenerationService) CreateCharacter(ctx context.Context, workspaceID string, req CharacterRequest) ([]*models.Artifact, error) {
	ws, err := s.workspaces.Get(workspaceID)
	if err != nil {
		return nil, err
	}
	count, err := normalizeCount(req.Count)
	if err != nil {
		return nil, err
	}
	aspect, err := normalizeAspect(req.AspectRatio)
	if err != nil {
		return nil, err
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return nil, apperrors.NewValidationError("角色描述不能为空", nil)
	}

	provider, err := s.requireProvider()
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	started := time.Now()
	tracker := s.progress.Start(workspaceID, "character", count)
	extraction, err := provider.ExtractCharacter(ctx, ExtractionPrompt(description))
	if err == nil && strings.TrimSpace(extraction.EnglishDescription) == "" {
		err = &llm.GenerationError{
			Op:     llm.OpCharacterExtraction,
			Reason: "AI could not generate an English appearance description. Please be more specific in the character details.",
		}
	}
	s.record(provider, "extract", 0, started, err)
	if err != nil {
		appErr := externalError("", err)
		tracker.Fail(appErr.Error())
		return nil, appErr
	}

	started = time.Now()
	instruction := PortraitInstruction(extraction.EnglishDescription)
	images := make([]*models.ImageData, count)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < count; i++ {
		g.Go(func() error {
			image, err := provider.GeneratePortrait(gctx, instruction, aspect)
			if err != nil {
				return err
			}
			images[i] = image
			tracker.Step()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.record(provider, "portrait", 0, started, err)
		appErr := externalError("", err)
		tracker.Fail(appErr.Error())
		return nil, appErr
	}
	s.record(provider, "portrait", count, started, nil)
	tracker.Complete()

	name := extraction.Name
	if name == "" {
		name = UnnamedCharacter
	}
	data := &models.CharacterData{
		Name:        name,
		Age:         extraction.Age,
		Personality: extraction.Personality,
		Outfit:      extraction.Outfit,
	}
	artifacts := s.newArtifacts(ws.NewID, images, CharacterPromptPrefix+description, aspect, data)
	ws.InsertNew(artifacts)

	s.logger.Info("🧑 角色生成完成", map[string]interface{}{
		"workspace_id": workspaceID,
		"name":         name,
		"count":        count,
	})
	return cloneArtifacts(artifacts), nil
}

// EditArtifact 按指令修改条目图像，条目保持原有位置和ID。
// 同一条目同时只允许一个修改请求。
func (s *GenerationService) EditArtifact(ctx context.Context, workspaceID, itemID, modification string) (*models.Artifact, error) {
	ws, err := s.workspaces.Get(workspaceID)
	if err != nil {
		return nil, err
	}
	modification = strings.TrimSpace(modification)
	if modification == "" {
		return nil, apperrors.NewValidationError("修改内容不能为空", nil)
	}
	item, ok := ws.FindArtifact(itemID)
	if !ok {
		return nil, apperrors.NewNotFoundError("수정할 원본 이미지를 찾을 수 없습니다.", nil)
	}

	key := workspaceID + "/" + itemID
	if _, busy := s.editing.LoadOrStore(key, struct{}{}); busy {
		return nil, apperrors.NewConflictError("该条目正在修改中", nil)
	}
	defer s.editing.Delete(key)

	provider, err := s.requireProvider()
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	started := time.Now()
	tracker := s.progress.Start(workspaceID, "edit", 1)
	image, err := provider.EditImage(ctx, item.Image, EditInstruction(modification))
	if err != nil {
		s.record(provider, "edit", 0, started, err)
		appErr := externalError(editFailurePrefix, err)
		tracker.Fail(appErr.Error())
		return nil, appErr
	}
	s.record(provider, "edit", 1, started, nil)
	tracker.Complete()

	// 以当前状态为准，期间可能被拖动过
	current, ok := ws.FindArtifact(itemID)
	if !ok {
		return nil, apperrors.NewNotFoundError("条目已被删除: "+itemID, nil)
	}
	current.Image = *image
	current.Prompt = EditedPrompt(current.Prompt, modification)
	current.UpdatedAt = s.now()
	if !ws.ReplaceArtifact(current) {
		return nil, apperrors.NewNotFoundError("条目已被删除: "+itemID, nil)
	}
	return current.Clone(), nil
}

func (s *GenerationService) newArtifacts(newID func() string, images []*models.ImageData, prompt string, aspect models.AspectRatio, data *models.CharacterData) []*models.Artifact {
	now := s.now()
	out := make([]*models.Artifact, len(images))
	for i, image := range images {
		a := &models.Artifact{
			ID:          newID(),
			Image:       *image,
			Prompt:      prompt,
			AspectRatio: aspect,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if data != nil {
			cp := *data
			a.Character = &cp
		}
		out[i] = a
	}
	return out
}

func cloneArtifacts(items []*models.Artifact) []*models.Artifact {
	out := make([]*models.Artifact, len(items))
	for i, item := range items {
		out[i] = item.Clone()
	}
	return out
}
