package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/scan"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/monitoring/logging"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/errors"
)

// LocalConfig points at the on-prem analysis service.
type LocalConfig struct {
	Endpoint      string        `mapstructure:"endpoint"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxImageBytes int64         `mapstructure:"max_image_bytes"`
	// SharedStorage sends only the image path; the service reads the bucket
	// itself.
	SharedStorage bool `mapstructure:"shared_storage"`
}

// LocalProvider calls POST {endpoint}/v1/analyze.
type LocalProvider struct {
	cfg        LocalConfig
	images     ImageSource
	httpClient *http.Client
	logger     logging.Logger
}

var _ scan.VisionProvider = (*LocalProvider)(nil)

// NewLocalProvider builds the provider. images may be nil when SharedStorage
// is set.
func NewLocalProvider(cfg LocalConfig, images ImageSource, httpClient *http.Client, log logging.Logger) *LocalProvider {
	if cfg.Timeout == 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.MaxImageBytes == 0 {
		cfg.MaxImageBytes = 10 * 1024 * 1024
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &LocalProvider{cfg: cfg, images: images, httpClient: httpClient, logger: log.Named("vision.local")}
}

func (p *LocalProvider) Name() string { return "local" }

// Analyze uploads the image, or its path in shared-storage mode, and decodes
// the signature.
func (p *LocalProvider) Analyze(ctx context.Context, imagePath string) (scan.VisionSignature, error) {
	req, err := p.newRequest(ctx, imagePath)
	if err != nil {
		return scan.VisionSignature{}, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Image-Path", imagePath)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return scan.VisionSignature{}, errors.Wrap(err, errors.ErrCodeVisionUnavailable, "local vision request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return scan.VisionSignature{}, errors.Wrap(err, errors.ErrCodeVisionUnavailable, "read local vision response")
	}

	switch {
	case resp.StatusCode == http.StatusRequestEntityTooLarge:
		return scan.VisionSignature{}, errors.New(errors.ErrCodeVisionImageTooLarge, "local vision rejected the image size")
	case resp.StatusCode >= 500:
		return scan.VisionSignature{}, errors.New(errors.ErrCodeVisionUnavailable,
			fmt.Sprintf("local vision returned %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return scan.VisionSignature{}, errors.New(errors.ErrCodeVisionBadResponse,
			fmt.Sprintf("local vision returned %d: %s", resp.StatusCode, truncate(string(body), 200)))
	}

	return decodeSignature(body, p.Name())
}

func (p *LocalProvider) newRequest(ctx context.Context, imagePath string) (*http.Request, error) {
	url := p.cfg.Endpoint + "/v1/analyze"

	if p.cfg.SharedStorage || p.images == nil {
		payload, err := json.Marshal(map[string]string{"image_path": imagePath})
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "encode local vision request")
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeVisionUnavailable, "build local vision request")
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}

	rc, contentType, err := p.images.Open(ctx, imagePath)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(io.LimitReader(rc, p.cfg.MaxImageBytes+1))
	rc.Close()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorage, "read scan image")
	}
	if int64(len(data)) > p.cfg.MaxImageBytes {
		return nil, errors.New(errors.ErrCodeVisionImageTooLarge, fmt.Sprintf("image exceeds %d bytes", p.cfg.MaxImageBytes))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeVisionUnavailable, "build local vision request")
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	req.Header.Set("Content-Type", contentType)
	return req, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

//Personal.AI order the ending
