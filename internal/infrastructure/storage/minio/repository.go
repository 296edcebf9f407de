package minio

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/monitoring/logging"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/errors"
)

// PathScheme prefixes every image path the store hands out.
const PathScheme = "s3://"

var (
	ErrObjectNotFound = errors.New(errors.ErrCodeScanImageMissing, "scan image not found in object storage")
	ErrInvalidPath    = errors.New(errors.ErrCodeBadRequest, "image path must look like s3://bucket/key")
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/heic": true,
}

// ImageStore writes uploaded scan images and reads them back for analysis.
type ImageStore struct {
	client *MinIOClient
	logger logging.Logger
}

// NewImageStore builds the store on a connected client.
func NewImageStore(client *MinIOClient, log logging.Logger) *ImageStore {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &ImageStore{client: client, logger: log.Named("images")}
}

// NewImageStoreWithAPI builds a store over any MinIOAPI implementation.
func NewImageStoreWithAPI(api MinIOAPI, cfg *MinIOConfig, log logging.Logger) *ImageStore {
	if cfg == nil {
		cfg = &MinIOConfig{}
	}
	return NewImageStore(newMinIOClientWithAPI(api, cfg, log), log)
}

// PutImage uploads r under key in the images bucket and returns the
// s3://bucket/key path stored on the scan job.
func (s *ImageStore) PutImage(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	if s.client.isClosed() {
		return "", ErrMinIOClientClosed
	}
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" || r == nil {
		return "", errors.InvalidParam("image key and body are required")
	}
	contentType = normalizeContentType(contentType)
	if !allowedImageTypes[contentType] {
		return "", errors.New(errors.ErrCodeBadRequest, fmt.Sprintf("unsupported image content type %q", contentType))
	}
	cfg := s.client.config
	if size > cfg.MaxImageSize {
		return "", errors.New(errors.ErrCodeVisionImageTooLarge, fmt.Sprintf("image is %d bytes, limit is %d", size, cfg.MaxImageSize))
	}

	opts := minio.PutObjectOptions{ContentType: contentType}
	if size < 0 {
		opts.PartSize = uint64(cfg.PartSize)
	}

	bucket := cfg.Buckets.Images
	info, err := s.client.GetClient().PutObject(ctx, bucket, key, r, size, opts)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeStorage, "upload failed")
	}
	s.logger.Debug("stored scan image",
		logging.String("bucket", bucket),
		logging.String("key", key),
		logging.Int64("size", info.Size))
	return ObjectPath(bucket, key), nil
}

// Open streams the image at path. A missing object maps to
// ErrCodeScanImageMissing.
func (s *ImageStore) Open(ctx context.Context, path string) (io.ReadCloser, string, error) {
	bucket, key, err := ParseObjectPath(path)
	if err != nil {
		return nil, "", err
	}
	api := s.client.GetClient()

	stat, err := api.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, "", mapObjectError(err)
	}
	if stat.Size > s.client.config.MaxImageSize {
		return nil, "", errors.New(errors.ErrCodeVisionImageTooLarge, fmt.Sprintf("image is %d bytes", stat.Size))
	}

	obj, err := api.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", mapObjectError(err)
	}
	return obj, stat.ContentType, nil
}

// PresignedURL returns a time-limited GET URL for path. Zero expiry uses the
// configured default.
func (s *ImageStore) PresignedURL(ctx context.Context, path string, expiry time.Duration) (string, error) {
	bucket, key, err := ParseObjectPath(path)
	if err != nil {
		return "", err
	}
	if expiry <= 0 {
		expiry = s.client.config.PresignExpiry
	}
	u, err := s.client.GetClient().PresignedGetObject(ctx, bucket, key, expiry, nil)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeStorage, "presign failed")
	}
	return u.String(), nil
}

// Delete removes the image at path. Deleting a missing object is not an error.
func (s *ImageStore) Delete(ctx context.Context, path string) error {
	bucket, key, err := ParseObjectPath(path)
	if err != nil {
		return err
	}
	if err := s.client.GetClient().RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
		if isNoSuchKey(err) {
			return nil
		}
		return errors.Wrap(err, errors.ErrCodeStorage, "delete failed")
	}
	return nil
}

// ObjectPath renders bucket and key as s3://bucket/key.
func ObjectPath(bucket, key string) string {
	return PathScheme + bucket + "/" + key
}

// ParseObjectPath accepts s3://bucket/key or bucket/key.
func ParseObjectPath(path string) (bucket, key string, err error) {
	p := strings.TrimPrefix(strings.TrimSpace(path), PathScheme)
	parts := strings.SplitN(p, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", ErrInvalidPath
	}
	return parts[0], parts[1], nil
}

func normalizeContentType(ct string) string {
	ct = strings.ToLower(strings.TrimSpace(ct))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ct == "image/jpg" {
		return "image/jpeg"
	}
	return ct
}

func isNoSuchKey(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NoSuchBucket"
}

func mapObjectError(err error) error {
	if isNoSuchKey(err) {
		return ErrObjectNotFound.WithCause(err)
	}
	return errors.Wrap(err, errors.ErrCodeStorage, "download failed")
}

//Personal.AI order the ending
