package models

// Event представляет событие турнира (одна игра — одно событие).
type Event struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	GameID   int    `json:"game_id"`
	GameName string `json:"game_name"`
}
