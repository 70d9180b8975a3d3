package models

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// RoleLifecycle определяет, снимается ли роль с тех, кто больше не участвует.
type RoleLifecycle string

const (
	LifecycleTemporary RoleLifecycle = "temporary"
	LifecyclePermanent RoleLifecycle = "permanent"
)

// GameRef — значение из конфигурации: ID игры или её название в исходном виде.
type GameRef string

// RoleMapping сопоставляет ID роли с игрой.
type RoleMapping map[string]GameRef

// RoleIDs возвращает ID всех ролей маппинга.
func (m RoleMapping) RoleIDs() []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	return ids
}

// UnmarshalYAML принимает и числа, и строки: значение сохраняется как есть.
func (g *GameRef) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: game reference must be a number or a string", n.Line)
	}
	*g = GameRef(n.Value)
	return nil
}
