// internal/models/workspace.go
package models

import "time"

// WorkspaceSnapshot 工作区在某一时刻的完整只读视图
type WorkspaceSnapshot struct {
	ID                string              `json:"id"`
	Items             []*Artifact         `json:"items"`
	Chapters          []*Chapter          `json:"chapters"`
	CharacterLibrary  []*Character        `json:"character_library"` // 空槽位为 null
	ActiveCharacters  []*Character        `json:"active_characters"`
	BackgroundLibrary []*Background       `json:"background_library"`
	ActiveBackground  *Background         `json:"active_background,omitempty"`
	Filters           []ActiveFilter      `json:"filters"`
	SelectionMode     bool                `json:"selection_mode"`
	SelectedItemIDs   []string            `json:"selected_item_ids"`
	PendingTransfer   *TransferDescriptor `json:"pending_transfer,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}
