package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/opentracing/opentracing-go"

	"github.com/permitleads/leadstack/interfaces"
	"github.com/permitleads/leadstack/internal/tracing"
	"github.com/permitleads/leadstack/services/storage/aws_client"
)

// DigestStorageService archives rendered lead digests in object storage so a
// delivery can be replayed or audited after the fact.
type DigestStorageService struct {
	client     aws_client.S3Client
	bucketName string
	cdnDomain  string
}

type StorageConfig struct {
	BucketName string
	CDNDomain  string
}

func NewStorageService(client aws_client.S3Client, config StorageConfig) interfaces.StorageService {
	return &DigestStorageService{
		client:     client,
		bucketName: config.BucketName,
		cdnDomain:  config.CDNDomain,
	}
}

// NewS3StorageService creates a StorageService backed by AWS S3.
func NewS3StorageService(awsRegion, accessKeyID, accessKeySecret, bucketName string) interfaces.StorageService {
	s3Client := aws_client.NewS3Client(&aws.Config{
		Region:      aws.String(awsRegion),
		Credentials: credentials.NewStaticCredentials(accessKeyID, accessKeySecret, ""),
	})

	return NewStorageService(s3Client, StorageConfig{
		BucketName: bucketName,
	})
}

// DigestArchiveKey builds the object key for one class run's archived digest.
func DigestArchiveKey(automationClassID string, sentAt time.Time, format string) string {
	return fmt.Sprintf("digests/%s/%s.%s", automationClassID, sentAt.UTC().Format("2006-01-02T15-04-05Z"), format)
}

func (s *DigestStorageService) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DigestStorageService.Upload")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("key", key)

	uploadInput := s3manager.UploadInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	}

	return s.client.Upload(ctx, uploadInput)
}

func (s *DigestStorageService) Download(ctx context.Context, key string) ([]byte, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DigestStorageService.Download")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("key", key)

	content, err := s.client.Download(ctx, s.bucketName, key)
	if err != nil {
		return nil, err
	}

	return []byte(content), nil
}

func (s *DigestStorageService) Delete(ctx context.Context, key string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DigestStorageService.Delete")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("key", key)

	return s.client.Delete(ctx, s.bucketName, key)
}

func (s *DigestStorageService) GetPublicURL(key string) string {
	if s.cdnDomain != "" {
		return "https://" + s.cdnDomain + "/" + key
	}
	return ""
}
