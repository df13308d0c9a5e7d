// internal/workspace/chapter_store.go
package workspace

import (
	"fmt"
	"strings"

	apperrors "github.com/Corphon/SceneBoard/internal/errors"
	"github.com/Corphon/SceneBoard/internal/models"
	"golang.org/x/text/unicode/norm"
)

// ChapterStore 有序章节列表
type ChapterStore struct {
	chapters []*models.Chapter
}

// DefaultChapterName 按当前章节数量生成默认名称。
// 删除章节后编号可能重复，保持原有行为。
func DefaultChapterName(count int) string {
	return fmt.Sprintf("챕터 %d", count+1)
}

// normalizeName 去除首尾空白并统一为 NFC，macOS 输入的韩文是分解形式
func normalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

func (s *ChapterStore) index(id string) int {
	for i, ch := range s.chapters {
		if ch.ID == id {
			return i
		}
	}
	return -1
}

func (s *ChapterStore) get(id string) (*models.Chapter, bool) {
	idx := s.index(id)
	if idx < 0 {
		return nil, false
	}
	return s.chapters[idx], true
}

// Create 追加一个默认名称的新章节
func (s *ChapterStore) Create(id string) *models.Chapter {
	ch := &models.Chapter{
		ID:    id,
		Name:  DefaultChapterName(len(s.chapters)),
		Items: []*models.Artifact{},
	}
	s.chapters = append(s.chapters, ch)
	return ch
}

// Rename 重命名章节。新名称去空白后为空时保留原名并返回 false
func (s *ChapterStore) Rename(id, name string) (bool, error) {
	ch, ok := s.get(id)
	if !ok {
		return false, apperrors.NewNotFoundError("章节不存在: "+id, nil)
	}
	trimmed := normalizeName(name)
	if trimmed == "" {
		return false, nil
	}
	ch.Name = trimmed
	return true, nil
}

// Delete 删除章节，其全部条目按原顺序放回未归档列表最前
func (s *ChapterStore) Delete(id string, items *ItemStore) (int, error) {
	idx := s.index(id)
	if idx < 0 {
		return 0, apperrors.NewNotFoundError("章节不存在: "+id, nil)
	}
	moved := s.chapters[idx].Items
	items.InsertNew(moved)

	chapters := make([]*models.Chapter, 0, len(s.chapters)-1)
	chapters = append(chapters, s.chapters[:idx]...)
	s.chapters = append(chapters, s.chapters[idx+1:]...)
	return len(moved), nil
}

// Has 章节是否存在
func (s *ChapterStore) Has(id string) bool {
	return s.index(id) >= 0
}

// Take 从章节中移除并返回条目
func (s *ChapterStore) Take(chapterID, artifactID string) (*models.Artifact, bool) {
	ch, ok := s.get(chapterID)
	if !ok {
		return nil, false
	}
	items, item, ok := takeFrom(ch.Items, artifactID)
	if ok {
		ch.Items = items
	}
	return item, ok
}

// Receive 把条目放入章节，规则同 ItemStore.Receive
func (s *ChapterStore) Receive(chapterID string, item *models.Artifact, beforeID string) bool {
	ch, ok := s.get(chapterID)
	if !ok || item == nil || indexOf(ch.Items, item.ID) >= 0 {
		return false
	}
	ch.Items = insertBefore(ch.Items, item, beforeID)
	return true
}

// RemoveToItemStore 把章节中的一个条目移回未归档列表最前
func (s *ChapterStore) RemoveToItemStore(chapterID, artifactID string, items *ItemStore) (bool, error) {
	if !s.Has(chapterID) {
		return false, apperrors.NewNotFoundError("章节不存在: "+chapterID, nil)
	}
	item, ok := s.Take(chapterID, artifactID)
	if !ok {
		return false, nil
	}
	items.InsertNew([]*models.Artifact{item})
	return true, nil
}

// Find 在所有章节中查找条目，返回所在章节ID
func (s *ChapterStore) Find(artifactID string) (*models.Artifact, string, bool) {
	for _, ch := range s.chapters {
		if idx := indexOf(ch.Items, artifactID); idx >= 0 {
			return ch.Items[idx], ch.ID, true
		}
	}
	return nil, "", false
}

// Replace 原地替换章节中同ID的条目
func (s *ChapterStore) Replace(item *models.Artifact) bool {
	for _, ch := range s.chapters {
		if idx := indexOf(ch.Items, item.ID); idx >= 0 {
			items := make([]*models.Artifact, len(ch.Items))
			copy(items, ch.Items)
			items[idx] = item
			ch.Items = items
			return true
		}
	}
	return false
}

// Get 返回章节副本
func (s *ChapterStore) Get(id string) (*models.Chapter, bool) {
	ch, ok := s.get(id)
	if !ok {
		return nil, false
	}
	return ch.Clone(), true
}

// List 返回全部章节副本
func (s *ChapterStore) List() []*models.Chapter {
	out := make([]*models.Chapter, len(s.chapters))
	for i, ch := range s.chapters {
		out[i] = ch.Clone()
	}
	return out
}

// Len 章节数量
func (s *ChapterStore) Len() int {
	return len(s.chapters)
}
