// internal/models/chapter.go
package models

// Chapter 用户命名的有序分组
type Chapter struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Items []*Artifact `json:"items"`
}

// Clone 返回章节副本，条目切片独立
func (c *Chapter) Clone() *Chapter {
	if c == nil {
		return nil
	}
	items := make([]*Artifact, len(c.Items))
	for i, item := range c.Items {
		items[i] = item.Clone()
	}
	return &Chapter{ID: c.ID, Name: c.Name, Items: items}
}
