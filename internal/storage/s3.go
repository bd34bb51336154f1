package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"github.com/yourorg/market-dashboard/internal/config"
	"github.com/yourorg/market-dashboard/internal/model"
)

// S3Archive stores uploads in an S3 bucket
type S3Archive struct {
	bucket   string
	uploader *s3manager.Uploader
}

// NewS3Archive creates a new S3Archive. Static credentials are used when an
// access key is configured, otherwise the default AWS credential chain.
func NewS3Archive(cfg config.S3StorageConfig) (*S3Archive, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 archive requires a bucket")
	}

	awsCfg := &aws.Config{Region: aws.String(cfg.Region)}
	if cfg.AccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &S3Archive{
		bucket:   cfg.Bucket,
		uploader: s3manager.NewUploader(sess),
	}, nil
}

// Store uploads body as kind/<uuid>.csv
func (a *S3Archive) Store(ctx context.Context, kind model.DatasetKind, filename string, body []byte) (string, error) {
	key := objectKey(kind, filename)

	_, err := a.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file to S3: %w", err)
	}
	return key, nil
}
