// internal/llm/providers/google/google.go
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Corphon/SceneBoard/internal/llm"
	"github.com/Corphon/SceneBoard/internal/models"
	"google.golang.org/genai"
)

// 默认模型
const (
	DefaultSceneModel    = "gemini-2.5-flash-image"
	DefaultPortraitModel = "imagen-4.0-generate-001"
	DefaultExtractModel  = "gemini-2.5-flash"
)

func init() {
	llm.Register("google", func(ctx context.Context, cfg llm.ProviderConfig) (llm.ImageProvider, error) {
		return New(ctx, cfg)
	})
}

// modelsAPI genai.Models 中用到的方法
type modelsAPI interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateImages(ctx context.Context, model, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

// Provider 基于 Gemini / Imagen 的图像生成
type Provider struct {
	models        modelsAPI
	sceneModel    string
	portraitModel string
	extractModel  string
}

// New 创建 Gemini API 客户端
func New(ctx context.Context, cfg llm.ProviderConfig) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, llm.ErrMissingAPIKey
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 genai 客户端失败: %w", err)
	}
	return newWithModels(client.Models, cfg), nil
}

func newWithModels(api modelsAPI, cfg llm.ProviderConfig) *Provider {
	p := &Provider{
		models:        api,
		sceneModel:    cfg.SceneModel,
		portraitModel: cfg.PortraitModel,
		extractModel:  cfg.ExtractModel,
	}
	if p.sceneModel == "" {
		p.sceneModel = DefaultSceneModel
	}
	if p.portraitModel == "" {
		p.portraitModel = DefaultPortraitModel
	}
	if p.extractModel == "" {
		p.extractModel = DefaultExtractModel
	}
	return p
}

func (p *Provider) Name() string {
	return "google"
}

// GenerateSceneImage 背景在前、角色在后附上参考图，最后是指令文本
func (p *Provider) GenerateSceneImage(ctx context.Context, req llm.SceneImageRequest) (*models.ImageData, error) {
	return p.generateWithReferences(ctx, llm.OpSceneGeneration, req.References(), req.Prompt,
		"AI failed to return an image for this scene.")
}

// EditImage 原图 + 修改指令
func (p *Provider) EditImage(ctx context.Context, base models.ImageData, prompt string) (*models.ImageData, error) {
	return p.generateWithReferences(ctx, llm.OpImageEdit, []models.ImageData{base}, prompt,
		"AI failed to return an edited image.")
}

func (p *Provider) generateWithReferences(ctx context.Context, op string, refs []models.ImageData, prompt, fallback string) (*models.ImageData, error) {
	parts := make([]*genai.Part, 0, len(refs)+1)
	for _, ref := range refs {
		parts = append(parts, genai.NewPartFromBytes(ref.Data, ref.MIMEType))
	}
	parts = append(parts, genai.NewPartFromText(prompt))

	resp, err := p.models.GenerateContent(ctx, p.sceneModel,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
		&genai.GenerateContentConfig{
			ResponseModalities: []string{"IMAGE", "TEXT"},
		})
	if err != nil {
		return nil, &llm.GenerationError{Op: op, Err: err}
	}
	if blocked := blockReason(resp); blocked != "" {
		return nil, &llm.BlockedError{Reason: blocked}
	}

	image, text := firstImage(resp)
	if image != nil {
		return image, nil
	}
	if text == "" {
		text = fallback
	}
	return nil, &llm.GenerationError{Op: op, Reason: text}
}

// GeneratePortrait Imagen 生成一张 JPEG 肖像
func (p *Provider) GeneratePortrait(ctx context.Context, prompt string, aspect models.AspectRatio) (*models.ImageData, error) {
	resp, err := p.models.GenerateImages(ctx, p.portraitModel, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		OutputMIMEType: "image/jpeg",
		AspectRatio:    string(aspect),
	})
	if err != nil {
		return nil, &llm.GenerationError{Op: llm.OpCharacterGeneration, Err: err}
	}
	if resp == nil || len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
		return nil, &llm.GenerationError{
			Op:     llm.OpCharacterGeneration,
			Reason: "AI did not return any images. This could be due to a safety policy violation or a temporary service issue.",
		}
	}

	img := resp.GeneratedImages[0]
	if len(img.Image.ImageBytes) == 0 {
		reason := img.RAIFilteredReason
		if reason == "" {
			reason = "empty image returned"
		}
		return nil, &llm.GenerationError{Op: llm.OpCharacterGeneration, Reason: reason}
	}
	return &models.ImageData{MIMEType: "image/jpeg", Data: img.Image.ImageBytes}, nil
}

// extractionSchema 角色分析的 JSON 输出结构
var extractionSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"name":        {Type: genai.TypeString, Description: "The character's name."},
		"age":         {Type: genai.TypeString, Description: "The character's age range (e.g., '20s', 'teenager')."},
		"personality": {Type: genai.TypeString, Description: "A brief description of the character's personality."},
		"outfit":      {Type: genai.TypeString, Description: "A description of the character's typical outfit."},
		"englishDescription": {
			Type:        genai.TypeString,
			Description: "A detailed English translation of the character's physical appearance, suitable for an image generation model.",
		},
	},
	Required: []string{"name", "age", "personality", "outfit", "englishDescription"},
}

// ExtractCharacter 让文本模型以 JSON 返回角色信息
func (p *Provider) ExtractCharacter(ctx context.Context, prompt string) (*llm.CharacterExtraction, error) {
	resp, err := p.models.GenerateContent(ctx, p.extractModel,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   extractionSchema,
		})
	if err != nil {
		return nil, &llm.GenerationError{Op: llm.OpCharacterExtraction, Err: err}
	}
	if blocked := blockReason(resp); blocked != "" {
		return nil, &llm.BlockedError{Reason: blocked}
	}

	var out llm.CharacterExtraction
	if err := json.Unmarshal([]byte(resp.Text()), &out); err != nil {
		return nil, &llm.GenerationError{Op: llm.OpCharacterExtraction, Reason: "invalid JSON response", Err: err}
	}
	if strings.TrimSpace(out.EnglishDescription) == "" {
		return nil, &llm.GenerationError{Op: llm.OpCharacterExtraction, Reason: "English description was not generated."}
	}
	return &out, nil
}

func blockReason(resp *genai.GenerateContentResponse) string {
	if resp == nil || resp.PromptFeedback == nil {
		return ""
	}
	return string(resp.PromptFeedback.BlockReason)
}

// firstImage 返回第一个内联图像，没有图像时返回第一段文本
func firstImage(resp *genai.GenerateContentResponse) (*models.ImageData, string) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, ""
	}

	text := ""
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil {
			continue
		}
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return &models.ImageData{MIMEType: part.InlineData.MIMEType, Data: part.InlineData.Data}, ""
		}
		if text == "" && part.Text != "" {
			text = part.Text
		}
	}
	return nil, text
}
