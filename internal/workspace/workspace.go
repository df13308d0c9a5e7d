// internal/workspace/workspace.go
package workspace

import (
	"sync"
	"time"

	"github.com/Corphon/SceneBoard/internal/models"
	"github.com/google/uuid"
)

// Workspace 一个浏览器会话的全部看板状态。
// 所有操作在同一把锁下完成，外部只能看到操作前或操作后的状态。
type Workspace struct {
	mu sync.RWMutex

	id       string
	items    ItemStore
	chapters ChapterStore
	pending  *models.TransferDescriptor

	characters       *Slots[*models.Character]
	activeCharacters *Slots[*models.Character]
	backgrounds      *Slots[*models.Background]
	activeBackground *models.Background

	filters       []models.ActiveFilter
	selectionMode bool
	selected      []string

	createdAt time.Time
	updatedAt time.Time

	newID  func() string
	now    func() time.Time
	notify func(models.WorkspaceEvent)
	outbox []models.WorkspaceEvent
}

// Option 工作区选项
type Option func(*Workspace)

// WithIDGenerator 替换ID生成器（测试用）
func WithIDGenerator(fn func() string) Option {
	return func(w *Workspace) { w.newID = fn }
}

// WithClock 替换时钟
func WithClock(fn func() time.Time) Option {
	return func(w *Workspace) { w.now = fn }
}

// WithNotifier 每次成功变更后回调，在锁外调用
func WithNotifier(fn func(models.WorkspaceEvent)) Option {
	return func(w *Workspace) { w.notify = fn }
}

// New 创建空工作区
func New(id string, opts ...Option) *Workspace {
	w := &Workspace{
		id:               id,
		characters:       NewSlots[*models.Character](LibraryCapacity),
		activeCharacters: NewSlots[*models.Character](LibraryCapacity),
		backgrounds:      NewSlots[*models.Background](LibraryCapacity),
		filters:          []models.ActiveFilter{},
		newID:            uuid.NewString,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.createdAt = w.now()
	w.updatedAt = w.createdAt
	return w
}

// ID 工作区ID
func (w *Workspace) ID() string {
	return w.id
}

// UpdatedAt 最近一次变更时间
func (w *Workspace) UpdatedAt() time.Time {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.updatedAt
}

// NewID 生成新的条目ID
func (w *Workspace) NewID() string {
	return w.newID()
}

func (w *Workspace) lock() {
	w.mu.Lock()
}

// unlock 释放锁并派发本次操作产生的事件
func (w *Workspace) unlock() {
	events := w.outbox
	w.outbox = nil
	if len(events) > 0 {
		w.updatedAt = w.now()
	}
	w.mu.Unlock()

	if w.notify == nil {
		return
	}
	for _, event := range events {
		w.notify(event)
	}
}

// emit 记录事件，必须在持有锁时调用
func (w *Workspace) emit(eventType string, payload map[string]any) {
	w.outbox = append(w.outbox, models.WorkspaceEvent{
		Type:        eventType,
		WorkspaceID: w.id,
		Payload:     payload,
		Timestamp:   w.now(),
	})
}

// Snapshot 返回可直接序列化的完整视图
func (w *Workspace) Snapshot() *models.WorkspaceSnapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()

	snap := &models.WorkspaceSnapshot{
		ID:                w.id,
		Items:             w.items.Items(),
		Chapters:          w.chapters.List(),
		CharacterLibrary:  cloneCharacters(w.characters.Values()),
		ActiveCharacters:  cloneCharacters(w.activeCharacters.Values()),
		BackgroundLibrary: cloneBackgrounds(w.backgrounds.Values()),
		Filters:           append([]models.ActiveFilter{}, w.filters...),
		SelectionMode:     w.selectionMode,
		SelectedItemIDs:   append([]string{}, w.selected...),
		CreatedAt:         w.createdAt,
		UpdatedAt:         w.updatedAt,
	}
	if w.activeBackground != nil {
		bg := *w.activeBackground
		snap.ActiveBackground = &bg
	}
	if w.pending != nil {
		p := *w.pending
		snap.PendingTransfer = &p
	}
	return snap
}

// Items 未归档条目副本
func (w *Workspace) Items() []*models.Artifact {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.items.Items()
}

// Chapters 章节副本
func (w *Workspace) Chapters() []*models.Chapter {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.chapters.List()
}

// Chapter 单个章节副本
func (w *Workspace) Chapter(id string) (*models.Chapter, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.chapters.Get(id)
}

// FindArtifact 在未归档列表和所有章节中查找条目
func (w *Workspace) FindArtifact(id string) (*models.Artifact, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if item, ok := w.items.Find(id); ok {
		return item.Clone(), true
	}
	if item, _, ok := w.chapters.Find(id); ok {
		return item.Clone(), true
	}
	return nil, false
}

// InsertNew 新生成的条目放到未归档列表最前
func (w *Workspace) InsertNew(batch []*models.Artifact) {
	if len(batch) == 0 {
		return
	}
	w.lock()
	defer w.unlock()

	w.items.InsertNew(batch)
	ids := make([]string, len(batch))
	for i, item := range batch {
		ids[i] = item.ID
	}
	w.emit(models.EventItemsInserted, map[string]any{"item_ids": ids})
}

// RemoveItem 永久删除未归档条目
func (w *Workspace) RemoveItem(id string) bool {
	w.lock()
	defer w.unlock()

	if !w.items.Remove(id) {
		return false
	}
	w.dropSelected(id)
	w.emit(models.EventItemRemoved, map[string]any{"item_id": id})
	return true
}

// ReplaceArtifact 原地替换条目（编辑结果），条目已不存在时返回 false
func (w *Workspace) ReplaceArtifact(item *models.Artifact) bool {
	w.lock()
	defer w.unlock()

	if !w.items.Replace(item) && !w.chapters.Replace(item) {
		return false
	}
	w.emit(models.EventItemUpdated, map[string]any{"item_id": item.ID})
	return true
}

// CreateChapter 新建章节
func (w *Workspace) CreateChapter() *models.Chapter {
	w.lock()
	defer w.unlock()

	ch := w.chapters.Create(w.newID())
	w.emit(models.EventChapterCreated, map[string]any{"chapter_id": ch.ID, "name": ch.Name})
	return ch.Clone()
}

// RenameChapter 重命名章节，空名称保持原名
func (w *Workspace) RenameChapter(id, name string) (bool, error) {
	w.lock()
	defer w.unlock()

	ok, err := w.chapters.Rename(id, name)
	if err != nil || !ok {
		return ok, err
	}
	ch, _ := w.chapters.get(id)
	w.emit(models.EventChapterRenamed, map[string]any{"chapter_id": id, "name": ch.Name})
	return true, nil
}

// DeleteChapter 删除章节，条目回到未归档列表最前
func (w *Workspace) DeleteChapter(id string) (int, error) {
	w.lock()
	defer w.unlock()

	moved, err := w.chapters.Delete(id, &w.items)
	if err != nil {
		return 0, err
	}
	if w.pending != nil && w.pending.Source.Kind == models.ContainerChapter && w.pending.Source.ID == id {
		w.pending = nil
	}
	w.emit(models.EventChapterDeleted, map[string]any{"chapter_id": id, "moved": moved})
	return moved, nil
}

// UnfileItem 把章节中的条目移回未归档列表
func (w *Workspace) UnfileItem(chapterID, artifactID string) (bool, error) {
	w.lock()
	defer w.unlock()

	ok, err := w.chapters.RemoveToItemStore(chapterID, artifactID, &w.items)
	if err != nil || !ok {
		return ok, err
	}
	w.emit(models.EventItemUnfiled, map[string]any{"chapter_id": chapterID, "item_id": artifactID})
	return true, nil
}

func cloneCharacters(values []*models.Character) []*models.Character {
	out := make([]*models.Character, len(values))
	for i, c := range values {
		if c != nil {
			cp := *c
			out[i] = &cp
		}
	}
	return out
}

func cloneBackgrounds(values []*models.Background) []*models.Background {
	out := make([]*models.Background, len(values))
	for i, b := range values {
		if b != nil {
			cp := *b
			out[i] = &cp
		}
	}
	return out
}
