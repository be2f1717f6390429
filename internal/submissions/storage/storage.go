// Package storage reads submission payloads from MinIO object storage.
// The intake pipeline writes these objects; this service only reads them.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"path"

	"zaakbrug_backend/platform/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Service reads submission JSON, the rendered PDF, and uploaded
// attachments.
type Service struct {
	client            *minio.Client
	submissionsBucket string
	attachmentsBucket string
}

// New creates a MinIO-backed submission storage service.
func New(cfg config.MinIOConfig) (*Service, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, fmt.Errorf("MinIO is not configured")
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &Service{
		client:            client,
		submissionsBucket: cfg.GetMinioBucketSubmissions(),
		attachmentsBucket: cfg.GetMinioBucketAttachments(),
	}, nil
}

// GetSubmissionJSON loads and decodes the raw submission document for a
// submission key.
func (s *Service) GetSubmissionJSON(ctx context.Context, key string) (map[string]any, error) {
	data, err := s.getObject(ctx, s.submissionsBucket, key+"/submission.json")
	if err != nil {
		return nil, err
	}

	var content map[string]any
	if err := json.Unmarshal(data, &content); err != nil {
		return nil, fmt.Errorf("decode submission %s: %w", key, err)
	}
	return content, nil
}

// GetPDF loads the rendered submission PDF by its object key.
func (s *Service) GetPDF(ctx context.Context, pdfKey string) ([]byte, error) {
	return s.getObject(ctx, s.submissionsBucket, pdfKey)
}

// GetAttachment loads one uploaded attachment and returns its bytes plus a
// best-effort content type derived from the file extension.
func (s *Service) GetAttachment(ctx context.Context, submissionKey, name string) ([]byte, string, error) {
	data, err := s.getObject(ctx, s.attachmentsBucket, submissionKey+"/"+name)
	if err != nil {
		return nil, "", err
	}

	contentType := mime.TypeByExtension(path.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return data, contentType, nil
}

func (s *Service) getObject(ctx context.Context, bucket, objectKey string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s/%s: %w", bucket, objectKey, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read object %s/%s: %w", bucket, objectKey, err)
	}
	return data, nil
}
