// internal/workspace/filters.go
package workspace

import (
	apperrors "github.com/Corphon/SceneBoard/internal/errors"
	"github.com/Corphon/SceneBoard/internal/models"
)

const (
	// MaxActiveFilters 同时启用的滤镜上限
	MaxActiveFilters = 3
	// DefaultFilterIntensity 新启用滤镜的强度
	DefaultFilterIntensity = 100
)

func (w *Workspace) filterIndex(title string) int {
	for i, f := range w.filters {
		if f.Title == title {
			return i
		}
	}
	return -1
}

// ToggleFilter 启用或关闭滤镜。已满3个时启用请求不做任何事
func (w *Workspace) ToggleFilter(title string) (bool, error) {
	if _, ok := models.FindLook(title); !ok {
		return false, apperrors.NewValidationError("未知的滤镜: "+title, nil)
	}

	w.lock()
	defer w.unlock()

	if idx := w.filterIndex(title); idx >= 0 {
		w.removeFilterAt(idx)
		w.emit(models.EventFiltersChanged, map[string]any{"title": title, "active": false})
		return false, nil
	}
	if len(w.filters) >= MaxActiveFilters {
		return false, nil
	}
	w.filters = append(w.filters, models.ActiveFilter{Title: title, Intensity: DefaultFilterIntensity})
	w.emit(models.EventFiltersChanged, map[string]any{"title": title, "active": true})
	return true, nil
}

// SetFilterIntensity 调整已启用滤镜的强度，超出范围时截断到 0-100
func (w *Workspace) SetFilterIntensity(title string, intensity int) (int, error) {
	w.lock()
	defer w.unlock()

	idx := w.filterIndex(title)
	if idx < 0 {
		return 0, apperrors.NewNotFoundError("滤镜未启用: "+title, nil)
	}
	intensity = max(0, min(100, intensity))
	filters := append([]models.ActiveFilter{}, w.filters...)
	filters[idx].Intensity = intensity
	w.filters = filters

	w.emit(models.EventFiltersChanged, map[string]any{"title": title, "intensity": intensity})
	return intensity, nil
}

// RemoveFilter 关闭滤镜
func (w *Workspace) RemoveFilter(title string) bool {
	w.lock()
	defer w.unlock()

	idx := w.filterIndex(title)
	if idx < 0 {
		return false
	}
	w.removeFilterAt(idx)
	w.emit(models.EventFiltersChanged, map[string]any{"title": title, "active": false})
	return true
}

// Filters 当前启用的滤镜
func (w *Workspace) Filters() []models.ActiveFilter {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]models.ActiveFilter{}, w.filters...)
}

func (w *Workspace) removeFilterAt(idx int) {
	filters := make([]models.ActiveFilter, 0, len(w.filters)-1)
	filters = append(filters, w.filters[:idx]...)
	w.filters = append(filters, w.filters[idx+1:]...)
}
