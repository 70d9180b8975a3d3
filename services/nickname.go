package services

import (
	"strings"

	"github.com/Dosada05/bracket-role-sync/models"
	"github.com/Dosada05/bracket-role-sync/utils"
)

const (
	// NicknameThreshold — с этого значения имя считается похожим на handle.
	NicknameThreshold = 0.8
	// MaxDisplayNameLength — лимит Discord на длину ника.
	MaxDisplayNameLength = 32
	RenameReason         = "matching bracket name"
)

// NicknameScore — лучший из трёх сигналов: похожесть на bare handle,
// похожесть на full handle и вхождение bare handle в display name.
func NicknameScore(displayName, handle, fullHandle string) float64 {
	display := fold(displayName)
	bare := fold(handle)

	score := max(Similarity(display, bare), Similarity(display, fold(fullHandle)))
	if bare != "" && strings.Contains(display, bare) {
		score = 1
	}
	return score
}

// DecideNickname возвращает новое имя, если текущее не похоже на handle игрока.
func DecideNickname(p *models.Player) (string, bool) {
	if p.Handle == "" {
		return "", false
	}
	full := p.FullHandle()
	if NicknameScore(p.Member.DisplayName, p.Handle, full) >= NicknameThreshold {
		return "", false
	}
	name := utils.TruncateRunes(full, MaxDisplayNameLength)
	if name == p.Member.DisplayName {
		return "", false
	}
	return name, true
}
