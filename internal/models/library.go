// internal/models/library.go
package models

// Character 角色库中的参考角色
type Character struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Age         string    `json:"age"`
	Personality string    `json:"personality"`
	Outfit      string    `json:"outfit"`
	Image       ImageData `json:"image"`
}

// Background 背景库中的参考背景
type Background struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Image ImageData `json:"image"`
}

// CharacterSheet 角色卡可编辑字段
type CharacterSheet struct {
	Name        string `json:"name"`
	Age         string `json:"age"`
	Personality string `json:"personality"`
	Outfit      string `json:"outfit"`
}
