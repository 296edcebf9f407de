// Package minio stores uploaded scan images in an S3-compatible bucket and
// serves them back to vision providers, either as a stream or as a presigned
// URL.
package minio

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/monitoring/logging"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/errors"
)

// MinIOAPI is the subset of *minio.Client the image store uses.
type MinIOAPI interface {
	ListBuckets(ctx context.Context) ([]minio.BucketInfo, error)
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	SetBucketLifecycle(ctx context.Context, bucketName string, config *lifecycle.Configuration) error
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expiry time.Duration, reqParams url.Values) (*url.URL, error)
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (*minio.Object, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
}

// BucketConfig names the buckets the service writes to.
type BucketConfig struct {
	Images string `mapstructure:"images"`
	Temp   string `mapstructure:"temp"`
}

// MinIOConfig holds connection and retention settings.
type MinIOConfig struct {
	Endpoint           string        `mapstructure:"endpoint"`
	AccessKeyID        string        `mapstructure:"access_key_id"`
	SecretAccessKey    string        `mapstructure:"secret_access_key"`
	UseSSL             bool          `mapstructure:"use_ssl"`
	Region             string        `mapstructure:"region"`
	Buckets            BucketConfig  `mapstructure:"buckets"`
	PartSize           int64         `mapstructure:"part_size"`
	MaxImageSize       int64         `mapstructure:"max_image_size"`
	PresignExpiry      time.Duration `mapstructure:"presign_expiry"`
	ImageRetentionDays int           `mapstructure:"image_retention_days"`
	TempFileExpiry     int           `mapstructure:"temp_file_expiry"`
}

// MinIOClient owns the bucket layout. Object reads and writes go through
// ImageStore.
type MinIOClient struct {
	client MinIOAPI
	config *MinIOConfig
	logger logging.Logger
	mu     sync.RWMutex
	closed bool
}

// NewMinIOClient connects, verifies the endpoint answers and provisions the
// buckets with their lifecycle rules.
func NewMinIOClient(cfg *MinIOConfig, log logging.Logger) (*MinIOClient, error) {
	applyDefaults(cfg)

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorage, "failed to create minio client")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := client.ListBuckets(ctx); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeServiceUnavailable, "failed to connect to minio")
	}

	mClient := newMinIOClientWithAPI(client, cfg, log)
	if err := mClient.EnsureBuckets(ctx); err != nil {
		return nil, err
	}
	if err := mClient.SetupLifecycleRules(ctx); err != nil {
		return nil, err
	}

	log.Info("MinIO client connected", logging.String("endpoint", cfg.Endpoint), logging.Bool("ssl", cfg.UseSSL))
	return mClient, nil
}

func newMinIOClientWithAPI(api MinIOAPI, cfg *MinIOConfig, log logging.Logger) *MinIOClient {
	applyDefaults(cfg)
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &MinIOClient{client: api, config: cfg, logger: log.Named("minio")}
}

func applyDefaults(cfg *MinIOConfig) {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.PartSize == 0 {
		cfg.PartSize = 16 * 1024 * 1024
	}
	if cfg.MaxImageSize == 0 {
		cfg.MaxImageSize = 10 * 1024 * 1024
	}
	if cfg.PresignExpiry == 0 {
		cfg.PresignExpiry = 15 * time.Minute
	}
	if cfg.TempFileExpiry == 0 {
		cfg.TempFileExpiry = 1
	}
	if cfg.Buckets.Images == "" {
		cfg.Buckets.Images = "cfd-scans"
	}
	if cfg.Buckets.Temp == "" {
		cfg.Buckets.Temp = "cfd-temp"
	}
}

func (c *MinIOClient) buckets() []string {
	return []string{c.config.Buckets.Images, c.config.Buckets.Temp}
}

// EnsureBuckets creates any configured bucket that does not exist yet.
func (c *MinIOClient) EnsureBuckets(ctx context.Context) error {
	for _, bucket := range c.buckets() {
		exists, err := c.client.BucketExists(ctx, bucket)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeStorage, "failed to check bucket existence")
		}
		if exists {
			continue
		}
		if err := c.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: c.config.Region}); err != nil {
			return errors.Wrap(err, errors.ErrCodeStorage, fmt.Sprintf("failed to create bucket %s", bucket))
		}
		c.logger.Info("Created bucket", logging.String("bucket", bucket))
	}
	return nil
}

// SetupLifecycleRules expires temp objects and, when a retention is
// configured, old scan images. Failures are logged only.
func (c *MinIOClient) SetupLifecycleRules(ctx context.Context) error {
	c.setExpiry(ctx, c.config.Buckets.Temp, "temp-cleanup", c.config.TempFileExpiry)
	if c.config.ImageRetentionDays > 0 {
		c.setExpiry(ctx, c.config.Buckets.Images, "scan-image-retention", c.config.ImageRetentionDays)
	}
	return nil
}

func (c *MinIOClient) setExpiry(ctx context.Context, bucket, id string, days int) {
	cfg := lifecycle.NewConfiguration()
	cfg.Rules = []lifecycle.Rule{
		{
			ID:         id,
			Status:     "Enabled",
			Expiration: lifecycle.Expiration{Days: lifecycle.ExpirationDays(days)},
		},
	}
	if err := c.client.SetBucketLifecycle(ctx, bucket, cfg); err != nil {
		c.logger.Warn("Failed to set bucket lifecycle", logging.String("bucket", bucket), logging.Err(err))
	}
}

func (c *MinIOClient) GetClient() MinIOAPI {
	return c.client
}

// Config returns the effective configuration after defaults.
func (c *MinIOClient) Config() MinIOConfig {
	return *c.config
}

var ErrMinIOClientClosed = errors.New(errors.ErrCodeStorage, "minio client is closed")

func (c *MinIOClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *MinIOClient) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

type HealthStatus struct {
	Healthy        bool
	Latency        time.Duration
	BucketStatuses map[string]bool
	Error          string
}

// HealthCheck lists buckets and confirms every configured bucket exists.
func (c *MinIOClient) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	if c.isClosed() {
		return &HealthStatus{Error: ErrMinIOClientClosed.Error()}, ErrMinIOClientClosed
	}

	start := time.Now()
	_, err := c.client.ListBuckets(ctx)
	status := &HealthStatus{
		Healthy:        err == nil,
		Latency:        time.Since(start),
		BucketStatuses: make(map[string]bool),
	}
	if err != nil {
		status.Error = err.Error()
		return status, errors.Wrap(err, errors.ErrCodeStorage, "minio unreachable")
	}

	for _, b := range c.buckets() {
		exists, _ := c.client.BucketExists(ctx, b)
		status.BucketStatuses[b] = exists
		if !exists {
			status.Healthy = false
			status.Error = fmt.Sprintf("bucket %s missing", b)
		}
	}
	return status, nil
}

// Ping satisfies the readiness probe contract.
func (c *MinIOClient) Ping(ctx context.Context) error {
	status, err := c.HealthCheck(ctx)
	if err != nil {
		return err
	}
	if !status.Healthy {
		return errors.New(errors.ErrCodeStorage, status.Error)
	}
	return nil
}

//Personal.AI order the ending
