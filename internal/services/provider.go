// internal/services/provider.go
package services

import (
	"context"

	"github.com/Corphon/SceneBoard/internal/config"
	"github.com/Corphon/SceneBoard/internal/llm"
)

// BuildProvider 按当前配置创建图像生成后端，未配置密钥时返回 llm.ErrMissingAPIKey
func BuildProvider(ctx context.Context, cfg *config.AppConfig) (llm.ImageProvider, error) {
	if cfg.APIKey == "" {
		return nil, llm.ErrMissingAPIKey
	}
	return llm.GetProvider(ctx, cfg.ImageProvider, llm.ProviderConfig{
		APIKey:        cfg.APIKey,
		SceneModel:    cfg.SceneModel,
		PortraitModel: cfg.PortraitModel,
		ExtractModel:  cfg.ExtractModel,
	})
}
