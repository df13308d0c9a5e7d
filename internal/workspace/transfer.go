// internal/workspace/transfer.go
package workspace

import (
	apperrors "github.com/Corphon/SceneBoard/internal/errors"
	"github.com/Corphon/SceneBoard/internal/models"
)

// BeginTransfer 开始一次拖拽，替换任何未完成的拖拽。
// 这里只检查描述是否完整，来源是否仍持有条目在放置时判断。
func (w *Workspace) BeginTransfer(desc models.TransferDescriptor) error {
	if desc.ArtifactID == "" || !desc.Source.Valid() {
		return apperrors.NewValidationError("拖拽描述不完整", nil)
	}

	w.lock()
	defer w.unlock()

	w.pending = &desc
	w.emit(models.EventTransferArmed, map[string]any{
		"item_id": desc.ArtifactID,
		"source":  desc.Source,
	})
	return nil
}

// CancelTransfer 放弃未完成的拖拽，不修改任何容器
func (w *Workspace) CancelTransfer() bool {
	w.lock()
	defer w.unlock()

	if w.pending == nil {
		return false
	}
	w.pending = nil
	w.emit(models.EventTransferCancelled, nil)
	return true
}

// PendingTransfer 当前未完成的拖拽
func (w *Workspace) PendingTransfer() (models.TransferDescriptor, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.pending == nil {
		return models.TransferDescriptor{}, false
	}
	return *w.pending, true
}

// Drop 消费未完成的拖拽并放到目标容器。无论结果如何都回到空闲状态。
// targetID 为目标容器中的卡片时插在其前面，否则追加到末尾。
func (w *Workspace) Drop(dest models.ContainerRef, targetID string) models.DropResult {
	w.lock()
	defer w.unlock()

	if w.pending == nil {
		return models.DropResult{Reason: models.DropNoPending}
	}
	desc := *w.pending
	w.pending = nil

	result := w.resolve(desc, dest, targetID)
	if !result.Applied {
		w.emit(models.EventTransferCancelled, map[string]any{"reason": result.Reason})
	}
	return result
}

// Move 无状态形式，描述随消息一起到达
func (w *Workspace) Move(desc models.TransferDescriptor, dest models.ContainerRef, targetID string) models.DropResult {
	if desc.ArtifactID == "" || !desc.Source.Valid() {
		return models.DropResult{Reason: models.DropMalformed}
	}

	w.lock()
	defer w.unlock()
	return w.resolve(desc, dest, targetID)
}

// resolve 先从来源取出再放入目标，两步在同一把锁内完成
func (w *Workspace) resolve(desc models.TransferDescriptor, dest models.ContainerRef, targetID string) models.DropResult {
	if targetID != "" && targetID == desc.ArtifactID {
		return models.DropResult{Reason: models.DropSelf}
	}
	if !w.containerExists(dest) {
		return models.DropResult{Reason: models.DropUnknownDestination}
	}

	item, ok := w.take(desc.Source, desc.ArtifactID)
	if !ok {
		return models.DropResult{Reason: models.DropStaleSource}
	}

	if !w.receive(dest, item, targetID) {
		// 目标已校验存在且条目刚被取出，不会走到这里；放回原处保证不丢条目
		w.receive(desc.Source, item, "")
		return models.DropResult{Reason: models.DropUnknownDestination}
	}

	if dest.Kind != models.ContainerItemStore {
		w.dropSelected(item.ID)
	}
	w.emit(models.EventTransferApplied, map[string]any{
		"item_id":     item.ID,
		"source":      desc.Source,
		"destination": dest,
		"before_id":   targetID,
	})
	return models.DropResult{Applied: true}
}

func (w *Workspace) containerExists(ref models.ContainerRef) bool {
	switch ref.Kind {
	case models.ContainerItemStore:
		return true
	case models.ContainerChapter:
		return ref.ID != "" && w.chapters.Has(ref.ID)
	default:
		return false
	}
}

func (w *Workspace) take(ref models.ContainerRef, artifactID string) (*models.Artifact, bool) {
	switch ref.Kind {
	case models.ContainerItemStore:
		return w.items.Take(artifactID)
	case models.ContainerChapter:
		return w.chapters.Take(ref.ID, artifactID)
	default:
		return nil, false
	}
}

func (w *Workspace) receive(ref models.ContainerRef, item *models.Artifact, beforeID string) bool {
	switch ref.Kind {
	case models.ContainerItemStore:
		return w.items.Receive(item, beforeID)
	case models.ContainerChapter:
		return w.chapters.Receive(ref.ID, item, beforeID)
	default:
		return false
	}
}
