// internal/models/export.go
package models

import "time"

// ExportResult ZIP 导出结果
type ExportResult struct {
	WorkspaceID string    `json:"workspace_id"`
	Source      string    `json:"source"` // item-store 或章节ID
	FileName    string    `json:"file_name"`
	ItemCount   int       `json:"item_count"`
	Content     []byte    `json:"-"`
	FilePath    string    `json:"file_path,omitempty"` // 保存到数据目录时的路径
	FileSize    int64     `json:"file_size"`
	GeneratedAt time.Time `json:"generated_at"`
}

// SavedExport 数据目录中已保存的导出文件
type SavedExport struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}
