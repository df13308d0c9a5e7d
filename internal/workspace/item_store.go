// internal/workspace/item_store.go
package workspace

import "github.com/Corphon/SceneBoard/internal/models"

// ItemStore 尚未归档到章节的条目，最新生成的在最前。
// 不自带锁，由 Workspace 统一加锁。
type ItemStore struct {
	items []*models.Artifact
}

// InsertNew 把新生成的一批条目放到最前，批内顺序保持不变
func (s *ItemStore) InsertNew(batch []*models.Artifact) {
	if len(batch) == 0 {
		return
	}
	s.items = prepend(s.items, batch)
}

// Remove 删除条目，不存在时返回 false
func (s *ItemStore) Remove(id string) bool {
	items, _, ok := takeFrom(s.items, id)
	if ok {
		s.items = items
	}
	return ok
}

// Receive 接收一个不属于本列表的条目，插到 beforeID 之前或末尾。
// 条目已在列表中时不做任何修改并返回 false。
func (s *ItemStore) Receive(item *models.Artifact, beforeID string) bool {
	if item == nil || indexOf(s.items, item.ID) >= 0 {
		return false
	}
	s.items = insertBefore(s.items, item, beforeID)
	return true
}

// Take 移除并返回条目
func (s *ItemStore) Take(id string) (*models.Artifact, bool) {
	items, item, ok := takeFrom(s.items, id)
	if ok {
		s.items = items
	}
	return item, ok
}

// Find 查找条目
func (s *ItemStore) Find(id string) (*models.Artifact, bool) {
	idx := indexOf(s.items, id)
	if idx < 0 {
		return nil, false
	}
	return s.items[idx], true
}

// Replace 原地替换同ID条目（图像编辑）
func (s *ItemStore) Replace(item *models.Artifact) bool {
	idx := indexOf(s.items, item.ID)
	if idx < 0 {
		return false
	}
	items := make([]*models.Artifact, len(s.items))
	copy(items, s.items)
	items[idx] = item
	s.items = items
	return true
}

// Len 条目数量
func (s *ItemStore) Len() int {
	return len(s.items)
}

// Items 返回副本
func (s *ItemStore) Items() []*models.Artifact {
	return cloneItems(s.items)
}

// IDs 按顺序返回条目ID
func (s *ItemStore) IDs() []string {
	ids := make([]string, len(s.items))
	for i, item := range s.items {
		ids[i] = item.ID
	}
	return ids
}
