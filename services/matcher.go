package services

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/Dosada05/bracket-role-sync/models"
)

// MatchMember находит участника сервера для участника турнира.
//
// Привязанный аккаунт сравнивается точно и с учётом регистра; если он найден,
// поиск по имени не выполняется. Иначе bare и full handle сравниваются без
// учёта регистра с username и display name. Побеждает первый в порядке members.
func MatchMember(members []models.Member, p models.Participant) *models.Member {
	if tag := linkedTag(p.LinkedAccountTag); tag != "" {
		for i := range members {
			if members[i].Tag == tag {
				return &members[i]
			}
		}
	}

	handle := fold(p.Handle)
	full := fold(p.FullHandle())
	if handle == "" {
		return nil
	}
	for i := range members {
		username := fold(members[i].Username)
		display := fold(members[i].DisplayName)
		if username == handle || username == full || display == handle || display == full {
			return &members[i]
		}
	}
	return nil
}

// linkedTag убирает дискриминатор "#0" аккаунтов новой системы имён.
func linkedTag(tag string) string {
	return strings.TrimSuffix(strings.TrimSpace(tag), "#0")
}

// fold приводит строку к регистронезависимой форме. cases.Caser хранит
// состояние, поэтому на каждый вызов создаётся новый.
func fold(s string) string {
	return cases.Fold().String(s)
}
