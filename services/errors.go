package services

import "errors"

// Фатальные ошибки запуска: любая из них прерывает синхронизацию.
var (
	ErrNoManagedRoles = errors.New("none of the configured roles exist on the server")
	ErrEmptySlug      = errors.New("tournament slug is required")
)
