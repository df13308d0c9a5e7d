// internal/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Corphon/SceneBoard/internal/utils"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// 当前配置的单例实例
var (
	currentConfig *AppConfig
	configMutex   sync.RWMutex
	configFile    string
)

// Config 从环境变量读取的配置
type Config struct {
	Port      string `env:"PORT"       envDefault:"8080"`
	DataDir   string `env:"DATA_DIR"   envDefault:"data"`
	StaticDir string `env:"STATIC_DIR" envDefault:"static"`
	LogDir    string `env:"LOG_DIR"    envDefault:"logs"`
	DebugMode bool   `env:"DEBUG_MODE" envDefault:"true"`

	// 图像生成
	GeminiAPIKey  string `env:"GEMINI_API_KEY"`
	APIKey        string `env:"API_KEY"`
	ImageProvider string `env:"IMAGE_PROVIDER" envDefault:"google"`
	SceneModel    string `env:"SCENE_MODEL"    envDefault:"gemini-2.5-flash-image"`
	PortraitModel string `env:"PORTRAIT_MODEL" envDefault:"imagen-4.0-generate-001"`
	ExtractModel  string `env:"EXTRACT_MODEL"  envDefault:"gemini-2.5-flash"`

	// 限制
	MaxUploadBytes      int64         `env:"MAX_UPLOAD_BYTES"      envDefault:"20971520"`
	GenerationTimeout   time.Duration `env:"GENERATION_TIMEOUT"    envDefault:"2m"`
	GenerationRateLimit int           `env:"GENERATION_RATE_LIMIT" envDefault:"10"`
	WorkspaceTTL        time.Duration `env:"WORKSPACE_TTL"         envDefault:"2h"`
}

// AppConfig 运行时配置，图像生成相关设置会持久化到 config.json
type AppConfig struct {
	Port      string `json:"port"`
	DataDir   string `json:"data_dir"`
	StaticDir string `json:"static_dir"`
	LogDir    string `json:"log_dir"`
	DebugMode bool   `json:"debug_mode"`

	// 密钥只来自环境变量，不写入文件
	APIKey        string `json:"-"`
	ImageProvider string `json:"image_provider"`
	SceneModel    string `json:"scene_model"`
	PortraitModel string `json:"portrait_model"`
	ExtractModel  string `json:"extract_model"`

	MaxUploadBytes      int64         `json:"max_upload_bytes"`
	GenerationTimeout   time.Duration `json:"generation_timeout"`
	GenerationRateLimit int           `json:"generation_rate_limit"`
	WorkspaceTTL        time.Duration `json:"workspace_ttl"`
}

// Load 读取 .env（可选）后解析环境变量
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("解析环境变量失败: %w", err)
	}
	if cfg.GeminiAPIKey == "" {
		cfg.GeminiAPIKey = cfg.APIKey
	}

	for _, dir := range []string{cfg.DataDir, cfg.LogDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			utils.GetLogger().Warn("创建目录失败", map[string]interface{}{"dir": dir, "error": err})
		}
	}

	if cfg.GeminiAPIKey == "" {
		utils.GetLogger().Warn("未设置 GEMINI_API_KEY，图像生成接口将不可用", nil)
	}
	return cfg, nil
}

func fromBase(base *Config) *AppConfig {
	return &AppConfig{
		Port:                base.Port,
		DataDir:             base.DataDir,
		StaticDir:           base.StaticDir,
		LogDir:              base.LogDir,
		DebugMode:           base.DebugMode,
		APIKey:              base.GeminiAPIKey,
		ImageProvider:       base.ImageProvider,
		SceneModel:          base.SceneModel,
		PortraitModel:       base.PortraitModel,
		ExtractModel:        base.ExtractModel,
		MaxUploadBytes:      base.MaxUploadBytes,
		GenerationTimeout:   base.GenerationTimeout,
		GenerationRateLimit: base.GenerationRateLimit,
		WorkspaceTTL:        base.WorkspaceTTL,
	}
}

// InitConfig 加载环境配置并合并 dataDir/config.json 中保存的设置
func InitConfig(dataDir string) error {
	base, err := Load()
	if err != nil {
		return err
	}

	configMutex.Lock()
	defer configMutex.Unlock()

	configFile = filepath.Join(dataDir, "config.json")
	currentConfig = fromBase(base)

	if data, err := os.ReadFile(configFile); err == nil {
		var saved AppConfig
		if err := json.Unmarshal(data, &saved); err != nil {
			utils.GetLogger().Warn("config.json 格式错误，忽略", map[string]interface{}{"error": err})
		} else {
			mergeSaved(currentConfig, &saved)
		}
	}

	return saveLocked()
}

// mergeSaved 文件中的生成设置覆盖默认值，端口和目录始终以环境变量为准
func mergeSaved(dst, saved *AppConfig) {
	if saved.ImageProvider != "" {
		dst.ImageProvider = saved.ImageProvider
	}
	if saved.SceneModel != "" {
		dst.SceneModel = saved.SceneModel
	}
	if saved.PortraitModel != "" {
		dst.PortraitModel = saved.PortraitModel
	}
	if saved.ExtractModel != "" {
		dst.ExtractModel = saved.ExtractModel
	}
	if saved.MaxUploadBytes > 0 {
		dst.MaxUploadBytes = saved.MaxUploadBytes
	}
	if saved.GenerationTimeout > 0 {
		dst.GenerationTimeout = saved.GenerationTimeout
	}
	if saved.GenerationRateLimit > 0 {
		dst.GenerationRateLimit = saved.GenerationRateLimit
	}
	if saved.WorkspaceTTL > 0 {
		dst.WorkspaceTTL = saved.WorkspaceTTL
	}
}

// GetCurrentConfig 返回当前配置的副本
func GetCurrentConfig() *AppConfig {
	configMutex.RLock()
	defer configMutex.RUnlock()

	if currentConfig == nil {
		base, err := Load()
		if err != nil {
			base = &Config{Port: "8080", DataDir: "data", StaticDir: "static", LogDir: "logs"}
		}
		return fromBase(base)
	}

	cp := *currentConfig
	return &cp
}

// UpdateModels 修改模型设置并保存
func UpdateModels(sceneModel, portraitModel, extractModel string) error {
	configMutex.Lock()
	defer configMutex.Unlock()

	if currentConfig == nil {
		return fmt.Errorf("配置系统未初始化")
	}
	if sceneModel != "" {
		currentConfig.SceneModel = sceneModel
	}
	if portraitModel != "" {
		currentConfig.PortraitModel = portraitModel
	}
	if extractModel != "" {
		currentConfig.ExtractModel = extractModel
	}
	return saveLocked()
}

// SaveConfig 保存当前配置到文件
func SaveConfig() error {
	configMutex.Lock()
	defer configMutex.Unlock()
	return saveLocked()
}

func saveLocked() error {
	if currentConfig == nil {
		return fmt.Errorf("没有配置可保存")
	}
	if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
		return fmt.Errorf("创建配置目录失败: %w", err)
	}

	data, err := json.MarshalIndent(currentConfig, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}
	return os.WriteFile(configFile, data, 0644)
}

// reset 清空单例（测试用）
func reset() {
	configMutex.Lock()
	defer configMutex.Unlock()
	currentConfig = nil
	configFile = ""
}
