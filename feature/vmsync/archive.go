package vmsync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"infra-inventory/core/storage"
	"infra-inventory/feature/vmsync/models"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// Archive stores full run reports as JSON objects.
type Archive interface {
	Store(ctx context.Context, report *models.RunReport) (string, error)
}

// ReportArchive writes reports to {bucket}/{prefix}/{yyyy-mm-dd}/{run id}.json.
type ReportArchive struct {
	client storage.Client
	bucket string
	prefix string
	logger *zap.Logger
}

// NewReportArchive creates an archive on the given bucket.
func NewReportArchive(client storage.Client, bucket, prefix string, logger *zap.Logger) *ReportArchive {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportArchive{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		logger: logger,
	}
}

// ObjectName returns the object key of a report.
func (a *ReportArchive) ObjectName(report *models.RunReport) string {
	return path.Join(a.prefix, report.StartedAt.UTC().Format(time.DateOnly), report.ID+".json")
}

// Store uploads the report and returns its object key.
func (a *ReportArchive) Store(ctx context.Context, report *models.RunReport) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report %s: %w", report.ID, err)
	}

	name := a.ObjectName(report)
	_, err = a.client.PutObject(ctx, a.bucket, name, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("upload report %s: %w", name, err)
	}
	return name, nil
}

// Load reads an archived report back.
func (a *ReportArchive) Load(ctx context.Context, startedAt time.Time, id string) (*models.RunReport, error) {
	name := a.ObjectName(&models.RunReport{ID: id, StartedAt: startedAt})
	obj, err := a.client.GetObject(ctx, a.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("download report %s: %w", name, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read report %s: %w", name, err)
	}
	var report models.RunReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", name, err)
	}
	return &report, nil
}

// Prune removes reports in date folders older than retention and returns how
// many objects were removed.
func (a *ReportArchive) Prune(ctx context.Context, now time.Time, retention time.Duration) (int, error) {
	if retention <= 0 {
		return 0, nil
	}
	cutoff := now.UTC().Add(-retention).Format(time.DateOnly)

	var expired []minio.ObjectInfo
	for obj := range a.client.ListObjects(ctx, a.bucket, minio.ListObjectsOptions{Prefix: a.prefix + "/", Recursive: true}) {
		if obj.Err != nil {
			return 0, fmt.Errorf("list archived reports: %w", obj.Err)
		}
		// Keys look like {prefix}/{yyyy-mm-dd}/{id}.json; dates compare lexically.
		day, _, _ := strings.Cut(strings.TrimPrefix(obj.Key, a.prefix+"/"), "/")
		if day < cutoff {
			expired = append(expired, obj)
		}
	}
	if len(expired) == 0 {
		return 0, nil
	}

	toDelete := make(chan minio.ObjectInfo, len(expired))
	for _, obj := range expired {
		toDelete <- obj
	}
	close(toDelete)

	removed := len(expired)
	for rerr := range a.client.RemoveObjects(ctx, a.bucket, toDelete, minio.RemoveObjectsOptions{}) {
		removed--
		a.logger.Warn("Failed to remove archived report",
			zap.String("object", rerr.ObjectName),
			zap.Error(rerr.Err),
		)
	}
	return removed, nil
}
