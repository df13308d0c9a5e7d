// internal/models/event.go
package models

import "time"

// 工作区事件类型
const (
	EventItemsInserted      = "items_inserted"
	EventItemRemoved        = "item_removed"
	EventItemUpdated        = "item_updated"
	EventChapterCreated     = "chapter_created"
	EventChapterRenamed     = "chapter_renamed"
	EventChapterDeleted     = "chapter_deleted"
	EventItemUnfiled        = "item_unfiled"
	EventTransferArmed      = "transfer_armed"
	EventTransferCancelled  = "transfer_cancelled"
	EventTransferApplied    = "transfer_applied"
	EventLibraryChanged     = "library_changed"
	EventFiltersChanged     = "filters_changed"
	EventSelectionChanged   = "selection_changed"
	EventGenerationProgress = "generation_progress"
)

// WorkspaceEvent 工作区变更通知，推送给 WebSocket 订阅者
type WorkspaceEvent struct {
	Type        string         `json:"type"`
	WorkspaceID string         `json:"workspace_id"`
	Payload     map[string]any `json:"payload,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
}
