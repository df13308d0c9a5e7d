// internal/workspace/library.go
package workspace

import (
	"fmt"

	apperrors "github.com/Corphon/SceneBoard/internal/errors"
	"github.com/Corphon/SceneBoard/internal/models"
)

// DefaultCharacterName 角色库槽位的默认名称
func DefaultCharacterName(slot int) string {
	return fmt.Sprintf("캐릭터 %d", slot+1)
}

// DefaultBackgroundName 背景库槽位的默认名称
func DefaultBackgroundName(slot int) string {
	return fmt.Sprintf("배경 %d", slot+1)
}

// ========== 角色库 ==========

// SetCharacterImage 为角色库槽位设置图像，已有角色时保留角色卡
func (w *Workspace) SetCharacterImage(slot int, image models.ImageData) (*models.Character, error) {
	w.lock()
	defer w.unlock()

	if err := w.characters.check(slot); err != nil {
		return nil, err
	}

	var ch *models.Character
	if existing, ok := w.characters.Get(slot); ok {
		cp := *existing
		cp.Image = image
		ch = &cp
	} else {
		ch = &models.Character{
			ID:    w.newID(),
			Name:  DefaultCharacterName(slot),
			Image: image,
		}
	}
	_ = w.characters.Put(slot, ch)
	w.syncActiveCharacter(ch)

	w.emit(models.EventLibraryChanged, map[string]any{"library": "characters", "slot": slot})
	out := *ch
	return &out, nil
}

// UpdateCharacterSheet 修改角色卡，角色库和激活列表同时更新
func (w *Workspace) UpdateCharacterSheet(characterID string, sheet models.CharacterSheet) (*models.Character, error) {
	w.lock()
	defer w.unlock()

	slot := w.characters.IndexOf(func(c *models.Character) bool { return c.ID == characterID })
	activeSlot := w.activeCharacters.IndexOf(func(c *models.Character) bool { return c.ID == characterID })
	if slot < 0 && activeSlot < 0 {
		return nil, apperrors.NewNotFoundError("角色不存在: "+characterID, nil)
	}

	var base *models.Character
	if slot >= 0 {
		base, _ = w.characters.Get(slot)
	} else {
		base, _ = w.activeCharacters.Get(activeSlot)
	}
	ch := *base
	if name := normalizeName(sheet.Name); name != "" {
		ch.Name = name
	}
	ch.Age = sheet.Age
	ch.Personality = sheet.Personality
	ch.Outfit = sheet.Outfit

	if slot >= 0 {
		_ = w.characters.Put(slot, &ch)
	}
	w.syncActiveCharacter(&ch)

	w.emit(models.EventLibraryChanged, map[string]any{"library": "characters", "character_id": characterID})
	out := ch
	return &out, nil
}

// syncActiveCharacter 激活列表中同ID的角色跟随更新
func (w *Workspace) syncActiveCharacter(ch *models.Character) {
	idx := w.activeCharacters.IndexOf(func(c *models.Character) bool { return c.ID == ch.ID })
	if idx >= 0 {
		cp := *ch
		_ = w.activeCharacters.Put(idx, &cp)
	}
}

// DeleteCharacter 清空角色库槽位。已激活的副本保持不变
func (w *Workspace) DeleteCharacter(slot int) (bool, error) {
	w.lock()
	defer w.unlock()

	old, err := w.characters.Clear(slot)
	if err != nil {
		return false, err
	}
	if old == nil {
		return false, nil
	}
	w.emit(models.EventLibraryChanged, map[string]any{"library": "characters", "slot": slot})
	return true, nil
}

// ActivateCharacter 把角色库中的角色加入激活列表。
// 空槽位和重复激活不做任何事；激活列表已满返回 ErrSlotFull。
func (w *Workspace) ActivateCharacter(slot int) (bool, error) {
	w.lock()
	defer w.unlock()

	if err := w.characters.check(slot); err != nil {
		return false, err
	}
	ch, ok := w.characters.Get(slot)
	if !ok {
		return false, nil
	}
	if w.activeCharacters.IndexOf(func(c *models.Character) bool { return c.ID == ch.ID }) >= 0 {
		return false, nil
	}

	cp := *ch
	activeSlot, err := w.activeCharacters.Fill(&cp)
	if err != nil {
		return false, err
	}
	w.emit(models.EventLibraryChanged, map[string]any{"library": "active_characters", "slot": activeSlot})
	return true, nil
}

// DeactivateCharacter 清空激活槽位
func (w *Workspace) DeactivateCharacter(activeSlot int) (bool, error) {
	w.lock()
	defer w.unlock()

	old, err := w.activeCharacters.Clear(activeSlot)
	if err != nil {
		return false, err
	}
	if old == nil {
		return false, nil
	}
	w.emit(models.EventLibraryChanged, map[string]any{"library": "active_characters", "slot": activeSlot})
	return true, nil
}

// ActiveCharacters 激活的角色，按槽位顺序，不含空槽位
func (w *Workspace) ActiveCharacters() []*models.Character {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]*models.Character, 0, LibraryCapacity)
	for _, c := range w.activeCharacters.Values() {
		if c != nil {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out
}

// ========== 背景库 ==========

// SetBackground 为背景库槽位设置图像
func (w *Workspace) SetBackground(slot int, image models.ImageData) (*models.Background, error) {
	w.lock()
	defer w.unlock()

	if err := w.backgrounds.check(slot); err != nil {
		return nil, err
	}

	bg := &models.Background{ID: w.newID(), Name: DefaultBackgroundName(slot), Image: image}
	if existing, ok := w.backgrounds.Get(slot); ok {
		bg.ID = existing.ID
		bg.Name = existing.Name
	}
	_ = w.backgrounds.Put(slot, bg)
	if w.activeBackground != nil && w.activeBackground.ID == bg.ID {
		cp := *bg
		w.activeBackground = &cp
	}

	w.emit(models.EventLibraryChanged, map[string]any{"library": "backgrounds", "slot": slot})
	out := *bg
	return &out, nil
}

// DeleteBackground 清空背景库槽位，若为当前背景则一并取消
func (w *Workspace) DeleteBackground(slot int) (bool, error) {
	w.lock()
	defer w.unlock()

	old, err := w.backgrounds.Clear(slot)
	if err != nil {
		return false, err
	}
	if old == nil {
		return false, nil
	}
	if w.activeBackground != nil && w.activeBackground.ID == old.ID {
		w.activeBackground = nil
	}
	w.emit(models.EventLibraryChanged, map[string]any{"library": "backgrounds", "slot": slot})
	return true, nil
}

// ActivateBackground 设为当前背景，空槽位不做任何事
func (w *Workspace) ActivateBackground(slot int) (bool, error) {
	w.lock()
	defer w.unlock()

	if err := w.backgrounds.check(slot); err != nil {
		return false, err
	}
	bg, ok := w.backgrounds.Get(slot)
	if !ok {
		return false, nil
	}
	cp := *bg
	w.activeBackground = &cp
	w.emit(models.EventLibraryChanged, map[string]any{"library": "active_background", "background_id": bg.ID})
	return true, nil
}

// DeactivateBackground 取消当前背景
func (w *Workspace) DeactivateBackground() bool {
	w.lock()
	defer w.unlock()

	if w.activeBackground == nil {
		return false
	}
	w.activeBackground = nil
	w.emit(models.EventLibraryChanged, map[string]any{"library": "active_background"})
	return true
}

// ActiveBackground 当前背景
func (w *Workspace) ActiveBackground() (*models.Background, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.activeBackground == nil {
		return nil, false
	}
	cp := *w.activeBackground
	return &cp, true
}

// ========== 多选 ==========

// ToggleSelectionMode 切换多选模式，总是清空已选条目
func (w *Workspace) ToggleSelectionMode() bool {
	w.lock()
	defer w.unlock()

	w.selectionMode = !w.selectionMode
	w.selected = nil
	w.emit(models.EventSelectionChanged, map[string]any{"selection_mode": w.selectionMode})
	return w.selectionMode
}

// ToggleSelected 切换未归档条目的选中状态，仅在多选模式下生效
func (w *Workspace) ToggleSelected(itemID string) (bool, error) {
	w.lock()
	defer w.unlock()

	if !w.selectionMode {
		return false, apperrors.NewValidationError("未处于多选模式", nil)
	}
	if _, ok := w.items.Find(itemID); !ok {
		return false, apperrors.NewNotFoundError("条目不存在: "+itemID, nil)
	}

	selected := true
	if w.isSelected(itemID) {
		w.dropSelected(itemID)
		selected = false
	} else {
		w.selected = append(w.selected, itemID)
	}
	w.emit(models.EventSelectionChanged, map[string]any{"item_id": itemID, "selected": selected})
	return selected, nil
}

// ConfirmSelection 把选中的未归档条目转为角色库中的角色。
// 空槽位不足时不做任何修改；成功后这些条目离开未归档列表并退出多选模式。
// 没有选中条目时只退出多选模式。
func (w *Workspace) ConfirmSelection() ([]*models.Character, error) {
	w.lock()
	defer w.unlock()

	if !w.selectionMode {
		return nil, apperrors.NewValidationError("未处于多选模式", nil)
	}

	// 按未归档列表顺序收集
	var moving []*models.Artifact
	for _, id := range w.items.IDs() {
		if w.isSelected(id) {
			item, _ := w.items.Find(id)
			moving = append(moving, item)
		}
	}
	if len(moving) == 0 {
		w.selectionMode = false
		w.selected = nil
		w.emit(models.EventSelectionChanged, map[string]any{"selection_mode": false})
		return []*models.Character{}, nil
	}
	if empty := w.characters.EmptyCount(); len(moving) > empty {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("角色库空位不足: 需要 %d 个，剩余 %d 个", len(moving), empty), nil)
	}

	created := make([]*models.Character, 0, len(moving))
	for _, item := range moving {
		slot, _ := w.characters.FirstEmpty()
		ch := &models.Character{
			ID:    w.newID(),
			Name:  DefaultCharacterName(slot),
			Image: item.Image,
		}
		if item.Character != nil {
			if item.Character.Name != "" {
				ch.Name = item.Character.Name
			}
			ch.Age = item.Character.Age
			ch.Personality = item.Character.Personality
			ch.Outfit = item.Character.Outfit
		}
		_ = w.characters.Put(slot, ch)
		w.items.Remove(item.ID)

		cp := *ch
		created = append(created, &cp)
	}

	w.selectionMode = false
	w.selected = nil
	w.emit(models.EventLibraryChanged, map[string]any{"library": "characters", "added": len(created)})
	w.emit(models.EventSelectionChanged, map[string]any{"selection_mode": false})
	return created, nil
}

func (w *Workspace) isSelected(id string) bool {
	for _, s := range w.selected {
		if s == id {
			return true
		}
	}
	return false
}

func (w *Workspace) dropSelected(id string) {
	for i, s := range w.selected {
		if s == id {
			w.selected = append(w.selected[:i:i], w.selected[i+1:]...)
			return
		}
	}
}
