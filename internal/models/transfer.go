// internal/models/transfer.go
package models

// ContainerKind 容器类型
type ContainerKind string

const (
	ContainerItemStore ContainerKind = "item-store"
	ContainerChapter   ContainerKind = "chapter"
)

// ContainerRef 指向未归档列表或某个章节
type ContainerRef struct {
	Kind ContainerKind `json:"kind"`
	ID   string        `json:"id,omitempty"` // 仅章节需要
}

// ItemStoreRef 未归档列表的引用
func ItemStoreRef() ContainerRef {
	return ContainerRef{Kind: ContainerItemStore}
}

// ChapterRef 章节引用
func ChapterRef(id string) ContainerRef {
	return ContainerRef{Kind: ContainerChapter, ID: id}
}

// Valid 检查引用是否完整
func (r ContainerRef) Valid() bool {
	switch r.Kind {
	case ContainerItemStore:
		return true
	case ContainerChapter:
		return r.ID != ""
	default:
		return false
	}
}

// TransferDescriptor 一次拖拽过程中的移动描述
type TransferDescriptor struct {
	ArtifactID string       `json:"artifact_id"`
	Source     ContainerRef `json:"source"`
}

// DropResult 放置结果；未生效时 Reason 说明原因
type DropResult struct {
	Applied bool   `json:"applied"`
	Reason  string `json:"reason,omitempty"`
}

// 放置未生效的原因
const (
	DropNoPending          = "no_pending"
	DropSelf               = "self_drop"
	DropStaleSource        = "stale_source"
	DropUnknownDestination = "unknown_destination"
	DropMalformed          = "malformed"
)
