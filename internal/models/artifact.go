// internal/models/artifact.go
package models

import (
	"strings"
	"time"
)

// AspectRatio 生成图像的画面比例
type AspectRatio string

const (
	AspectLandscape AspectRatio = "16:9"
	AspectPortrait  AspectRatio = "9:16"
)

// Valid 检查画面比例是否为支持的两种之一
func (a AspectRatio) Valid() bool {
	return a == AspectLandscape || a == AspectPortrait
}

// ImageData 图像二进制数据及其 MIME 类型
type ImageData struct {
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"data"` // JSON 中以 base64 编码
}

// Extension 根据 MIME 子类型推导文件扩展名，无法识别时回退为 png
func (d ImageData) Extension() string {
	_, sub, ok := strings.Cut(d.MIMEType, "/")
	if !ok || sub == "" {
		return "png"
	}
	// image/svg+xml 之类的类型只取加号前的部分
	if base, _, found := strings.Cut(sub, "+"); found {
		return base
	}
	return sub
}

// CharacterData 由角色生成流程附带的角色信息
type CharacterData struct {
	Name        string `json:"name"`
	Age         string `json:"age"`
	Personality string `json:"personality"`
	Outfit      string `json:"outfit"`
}

// Artifact 一张生成或上传的图像及其元数据。
// 任意时刻只归属于未归档列表或某一个章节。
type Artifact struct {
	ID          string         `json:"id"`
	Image       ImageData      `json:"image"`
	Prompt      string         `json:"prompt"`
	AspectRatio AspectRatio    `json:"aspect_ratio"`
	Character   *CharacterData `json:"character,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Clone 返回副本，图像数据共享底层数组（图像只会被整体替换，不会原地修改）
func (a *Artifact) Clone() *Artifact {
	if a == nil {
		return nil
	}
	cp := *a
	if a.Character != nil {
		ch := *a.Character
		cp.Character = &ch
	}
	return &cp
}
