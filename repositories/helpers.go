package repositories

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

const maxErrorBody = 512

// APIError — ответ внешнего API с неуспешным статусом.
type APIError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s API returned status %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s API returned status %d: %s", e.Service, e.StatusCode, e.Body)
}

func checkResponse(service string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &APIError{
		Service:    service,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}
