package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/plastinin/jobwatch/internal/config"
	"github.com/plastinin/jobwatch/internal/domain"
)

// S3Archive архив финальных снимков статуса на базе S3/MinIO
type S3Archive struct {
	client *minio.Client
	bucket string
}

// NewS3Archive создаёт новый экземпляр S3Archive
func NewS3Archive(ctx context.Context, cfg config.S3Config) (*S3Archive, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	// Проверяем/создаём bucket
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &S3Archive{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

// ArchiveKey ключ снимка: year/month/day/<task_id>-<outcome_id>.json
func ArchiveKey(outcome *domain.Outcome) string {
	t := outcome.FinishedAt.UTC()
	return path.Join(
		t.Format("2006"),
		t.Format("01"),
		t.Format("02"),
		fmt.Sprintf("%s-%s.json", path.Base(outcome.TaskID), outcome.ID),
	)
}

// Put сохраняет итог вместе со снимком и возвращает ключ
func (s *S3Archive) Put(ctx context.Context, outcome *domain.Outcome) (string, error) {
	body, err := json.Marshal(outcome)
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	key := ArchiveKey(outcome)
	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/json",
		UserMetadata: map[string]string{
			"task-id": outcome.TaskID,
			"state":   outcome.State.String(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload snapshot: %w", err)
	}

	return key, nil
}
