package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"
)

// ReportArchive сохраняет итоговые отчёты запусков. Отчёты только пишутся:
// следующий запуск их не читает.
type ReportArchive struct {
	uploader FileUploader
	prefix   string
}

func NewReportArchive(uploader FileUploader) *ReportArchive {
	return &ReportArchive{uploader: uploader, prefix: "reports"}
}

// ReportKey строит ключ вида reports/<slug>/<UTC time>.json.
func (a *ReportArchive) ReportKey(slug string, at time.Time) string {
	safe := strings.NewReplacer("/", "_", "\\", "_", " ", "_").Replace(strings.TrimSpace(slug))
	return path.Join(a.prefix, safe, at.UTC().Format("20060102T150405Z")+".json")
}

// Save кодирует report в JSON и загружает его.
func (a *ReportArchive) Save(ctx context.Context, slug string, at time.Time, report any) (*UploadResult, error) {
	body, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	return a.uploader.Upload(ctx, a.ReportKey(slug, at), "application/json", bytes.NewReader(body))
}
