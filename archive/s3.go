package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appconfig "bbgflow/config"
	"bbgflow/logger"
)

// Uploader archives downloaded artifacts to S3, partitioned by run date.
type Uploader struct {
	cfg    appconfig.S3Config
	client *s3.Client
	log    *logger.Log
}

// NewUploader builds an S3 client from the archive configuration. Static
// credentials take precedence when set; otherwise the default AWS chain
// applies.
func NewUploader(ctx context.Context, cfg appconfig.S3Config) (*Uploader, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})

	log := logger.GetLogger()
	log.WithComponent("archive").WithFields(logger.Fields{
		"bucket":     cfg.Bucket,
		"region":     cfg.Region,
		"endpoint":   cfg.Endpoint,
		"path_style": cfg.PathStyle,
	}).Info("s3 uploader initialized")

	return &Uploader{cfg: cfg, client: client, log: log}, nil
}

// ObjectKey lays artifacts out under a date partition so downstream
// catalogs can prune by day.
func ObjectKey(filename string, t time.Time) string {
	return fmt.Sprintf("bloomberg/date=%s/%s", t.UTC().Format("2006-01-02"), filename)
}

// Upload streams the file at path into the configured bucket and returns
// the object key.
func (u *Uploader) Upload(ctx context.Context, path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open artifact %s: %w", path, err)
	}
	defer file.Close()

	key := ObjectKey(filepath.Base(path), time.Now())

	if _, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(u.cfg.Bucket),
		Key:    aws.String(key),
		Body:   file,
	}); err != nil {
		return "", fmt.Errorf("failed to upload %s to s3://%s/%s: %w", path, u.cfg.Bucket, key, err)
	}

	u.log.WithComponent("archive").WithFields(logger.Fields{
		"bucket": u.cfg.Bucket,
		"key":    key,
	}).Info("artifact archived")

	return key, nil
}
