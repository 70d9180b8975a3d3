package services

import (
	"strconv"
	"strings"

	"github.com/Dosada05/bracket-role-sync/models"
)

// RolesForGame возвращает роли, настроенные для игры. Значение маппинга
// совпадает, если оно равно названию игры (с учётом регистра) или численно
// равно её ID: "1386" и " 1386 " оба подходят к игре 1386.
func RolesForGame(gameID int, gameName string, mapping models.RoleMapping) models.RoleSet {
	roles := models.NewRoleSet()
	for roleID, ref := range mapping {
		if gameMatches(ref, gameID, gameName) {
			roles.Add(roleID)
		}
	}
	return roles
}

func gameMatches(ref models.GameRef, gameID int, gameName string) bool {
	value := string(ref)
	if gameName != "" && value == gameName {
		return true
	}
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return false
	}
	n, err := strconv.ParseFloat(trimmed, 64)
	return err == nil && n == float64(gameID)
}

// playerIndex накапливает Player по ID участника сервера в порядке первого совпадения.
type playerIndex struct {
	byID  map[string]*models.Player
	order []*models.Player
}

func newPlayerIndex() *playerIndex {
	return &playerIndex{byID: make(map[string]*models.Player)}
}

// Accumulate объединяет роли события с уже накопленными ролями участника.
func (idx *playerIndex) Accumulate(member *models.Member, p models.Participant, roles models.RoleSet) *models.Player {
	player, ok := idx.byID[member.ID]
	if !ok {
		player = &models.Player{
			Member:  member,
			RoleIDs: models.NewRoleSet(),
			Handle:  p.Handle,
			Prefix:  p.Prefix,
		}
		idx.byID[member.ID] = player
		idx.order = append(idx.order, player)
	}
	player.RoleIDs.Union(roles)
	return player
}

func (idx *playerIndex) Has(memberID string) bool {
	_, ok := idx.byID[memberID]
	return ok
}

func (idx *playerIndex) Players() []*models.Player {
	return idx.order
}
