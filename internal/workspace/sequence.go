// internal/workspace/sequence.go
package workspace

import "github.com/Corphon/SceneBoard/internal/models"

// 有序条目序列的公共操作，未归档列表和章节共用

func indexOf(items []*models.Artifact, id string) int {
	for i, item := range items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

// takeFrom 移除并返回 id 对应的条目
func takeFrom(items []*models.Artifact, id string) ([]*models.Artifact, *models.Artifact, bool) {
	idx := indexOf(items, id)
	if idx < 0 {
		return items, nil, false
	}
	item := items[idx]
	out := make([]*models.Artifact, 0, len(items)-1)
	out = append(out, items[:idx]...)
	out = append(out, items[idx+1:]...)
	return out, item, true
}

// insertBefore 将条目插入到 beforeID 之前；beforeID 不是成员时追加到末尾
func insertBefore(items []*models.Artifact, item *models.Artifact, beforeID string) []*models.Artifact {
	out := make([]*models.Artifact, 0, len(items)+1)
	idx := -1
	if beforeID != "" {
		idx = indexOf(items, beforeID)
	}
	if idx < 0 {
		out = append(out, items...)
		return append(out, item)
	}
	out = append(out, items[:idx]...)
	out = append(out, item)
	return append(out, items[idx:]...)
}

// prepend 把一批条目按原顺序放到最前
func prepend(items []*models.Artifact, batch []*models.Artifact) []*models.Artifact {
	out := make([]*models.Artifact, 0, len(batch)+len(items))
	out = append(out, batch...)
	return append(out, items...)
}

func cloneItems(items []*models.Artifact) []*models.Artifact {
	out := make([]*models.Artifact, len(items))
	for i, item := range items {
		out[i] = item.Clone()
	}
	return out
}
