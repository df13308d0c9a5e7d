// internal/llm/interface.go
package llm

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Corphon/SceneBoard/internal/models"
)

// 错误定义
var (
	ErrUnknownProvider = errors.New("未知的图像生成提供者")
	ErrMissingAPIKey   = errors.New("未配置 API 密钥")
)

// 失败操作名称，同时作为错误信息前缀
const (
	OpSceneGeneration     = "Image generation failed"
	OpImageEdit           = "Image editing failed"
	OpCharacterExtraction = "Character data extraction failed"
	OpCharacterGeneration = "Character generation failed"
)

// BlockedPrefix 提示词被安全策略拦截时的错误前缀
const BlockedPrefix = "PROMPT_BLOCKED:"

// GenerationError 生成接口调用失败，Reason 为模型返回的文本或底层错误描述
type GenerationError struct {
	Op     string
	Reason string
	Err    error
}

func (e *GenerationError) Error() string {
	if e.Reason == "" && e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// BlockedError 提示词被拦截
type BlockedError struct {
	Reason string
}

func (e *BlockedError) Error() string {
	return BlockedPrefix + " " + e.Reason
}

// IsBlocked 判断错误链中是否有拦截错误
func IsBlocked(err error) (*BlockedError, bool) {
	var blocked *BlockedError
	if errors.As(err, &blocked) {
		return blocked, true
	}
	if err != nil && strings.HasPrefix(err.Error(), BlockedPrefix) {
		return &BlockedError{Reason: strings.TrimSpace(strings.TrimPrefix(err.Error(), BlockedPrefix))}, true
	}
	return nil, false
}

// SceneImageRequest 一张场景图的生成请求。
// 参考图顺序固定：背景（如有）在前，角色在后。
type SceneImageRequest struct {
	Prompt     string
	Background *models.ImageData
	Characters []models.ImageData
}

// References 按发送顺序排列的参考图
func (r SceneImageRequest) References() []models.ImageData {
	refs := make([]models.ImageData, 0, len(r.Characters)+1)
	if r.Background != nil {
		refs = append(refs, *r.Background)
	}
	return append(refs, r.Characters...)
}

// CharacterExtraction 从角色描述中提取的结构化信息
type CharacterExtraction struct {
	Name               string `json:"name"`
	Age                string `json:"age"`
	Personality        string `json:"personality"`
	Outfit             string `json:"outfit"`
	EnglishDescription string `json:"englishDescription"`
}

// ImageProvider 图像生成后端
type ImageProvider interface {
	// 提供者名称
	Name() string

	// 参考图 + 指令生成一张场景图
	GenerateSceneImage(ctx context.Context, req SceneImageRequest) (*models.ImageData, error)

	// 按提示词生成一张角色肖像
	GeneratePortrait(ctx context.Context, prompt string, aspect models.AspectRatio) (*models.ImageData, error)

	// 在原图基础上按指令修改
	EditImage(ctx context.Context, base models.ImageData, prompt string) (*models.ImageData, error)

	// 分析角色描述
	ExtractCharacter(ctx context.Context, prompt string) (*CharacterExtraction, error)
}

// ProviderConfig 创建提供者所需的配置
type ProviderConfig struct {
	APIKey        string
	SceneModel    string
	PortraitModel string
	ExtractModel  string
}

// ProviderFactory 提供者工厂
type ProviderFactory func(ctx context.Context, cfg ProviderConfig) (ImageProvider, error)

var (
	providersMu sync.RWMutex
	providers   = make(map[string]ProviderFactory)
)

// Register 注册提供者工厂，通常在提供者包的 init 中调用
func Register(name string, factory ProviderFactory) {
	providersMu.Lock()
	defer providersMu.Unlock()
	providers[name] = factory
}

// GetProvider 创建指定名称的提供者实例
func GetProvider(ctx context.Context, name string, cfg ProviderConfig) (ImageProvider, error) {
	providersMu.RLock()
	factory, exists := providers[name]
	providersMu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	return factory(ctx, cfg)
}

// ListProviders 已注册的提供者名称
func ListProviders() []string {
	providersMu.RLock()
	defer providersMu.RUnlock()

	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
