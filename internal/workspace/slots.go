// internal/workspace/slots.go
package workspace

import (
	"fmt"

	apperrors "github.com/Corphon/SceneBoard/internal/errors"
)

// LibraryCapacity 角色库、背景库以及激活角色的槽位数
const LibraryCapacity = 5

// Slots 固定容量的槽位，空槽位为零值
type Slots[T comparable] struct {
	values []T
}

// NewSlots 创建指定容量的槽位
func NewSlots[T comparable](capacity int) *Slots[T] {
	return &Slots[T]{values: make([]T, capacity)}
}

// Cap 容量
func (s *Slots[T]) Cap() int {
	return len(s.values)
}

func (s *Slots[T]) check(index int) error {
	if index < 0 || index >= len(s.values) {
		return apperrors.NewValidationError(fmt.Sprintf("槽位索引越界: %d (容量 %d)", index, len(s.values)), nil)
	}
	return nil
}

// Put 写入指定槽位
func (s *Slots[T]) Put(index int, value T) error {
	if err := s.check(index); err != nil {
		return err
	}
	s.values[index] = value
	return nil
}

// Clear 清空指定槽位，返回原值
func (s *Slots[T]) Clear(index int) (T, error) {
	var zero T
	if err := s.check(index); err != nil {
		return zero, err
	}
	old := s.values[index]
	s.values[index] = zero
	return old, nil
}

// Get 读取槽位，空槽位返回 false
func (s *Slots[T]) Get(index int) (T, bool) {
	var zero T
	if index < 0 || index >= len(s.values) {
		return zero, false
	}
	v := s.values[index]
	return v, v != zero
}

// FirstEmpty 第一个空槽位
func (s *Slots[T]) FirstEmpty() (int, bool) {
	var zero T
	for i, v := range s.values {
		if v == zero {
			return i, true
		}
	}
	return -1, false
}

// EmptyCount 空槽位数量
func (s *Slots[T]) EmptyCount() int {
	var zero T
	n := 0
	for _, v := range s.values {
		if v == zero {
			n++
		}
	}
	return n
}

// IndexOf 返回满足条件的第一个非空槽位
func (s *Slots[T]) IndexOf(match func(T) bool) int {
	var zero T
	for i, v := range s.values {
		if v != zero && match(v) {
			return i
		}
	}
	return -1
}

// Fill 写入第一个空槽位
func (s *Slots[T]) Fill(value T) (int, error) {
	idx, ok := s.FirstEmpty()
	if !ok {
		return -1, apperrors.ErrSlotFull
	}
	s.values[idx] = value
	return idx, nil
}

// Values 返回槽位副本（含空槽位）
func (s *Slots[T]) Values() []T {
	out := make([]T, len(s.values))
	copy(out, s.values)
	return out
}
