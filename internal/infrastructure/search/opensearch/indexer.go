package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/opensearch-project/opensearch-go/v3/opensearchapi"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/scan"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/monitoring/logging"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/errors"
)

var (
	ErrIndexCreationFailed = errors.New(errors.ErrCodeSearch, "index creation failed")
	ErrDocumentIndexFailed = errors.New(errors.ErrCodeSearch, "document index failed")
)

// IndexerConfig holds configuration for the HistoryIndexer.
type IndexerConfig struct {
	Index         string `mapstructure:"index"`
	Shards        int    `mapstructure:"shards"`
	Replicas      int    `mapstructure:"replicas"`
	RefreshPolicy string `mapstructure:"refresh_policy"`
}

// HistoryIndexer writes scan records into one OpenSearch index, keyed by
// job id so re-indexing a record (after a verdict, say) overwrites it.
type HistoryIndexer struct {
	client *Client
	config IndexerConfig
	logger logging.Logger
}

var _ scan.HistoryIndexer = (*HistoryIndexer)(nil)

// NewHistoryIndexer creates a HistoryIndexer.
func NewHistoryIndexer(client *Client, cfg IndexerConfig, logger logging.Logger) *HistoryIndexer {
	if cfg.Index == "" {
		cfg.Index = "cfd-scan-history"
	}
	if cfg.Shards == 0 {
		cfg.Shards = 1
	}
	if cfg.RefreshPolicy == "" {
		cfg.RefreshPolicy = "false"
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &HistoryIndexer{client: client, config: cfg, logger: logger.Named("indexer")}
}

// IndexName returns the target index.
func (i *HistoryIndexer) IndexName() string { return i.config.Index }

// EnsureIndex creates the index with its mapping. An existing index is left
// untouched.
func (i *HistoryIndexer) EnsureIndex(ctx context.Context) error {
	body, err := json.Marshal(historyIndexMapping(i.config.Shards, i.config.Replicas))
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal index mapping")
	}

	_, err = i.client.API().Indices.Create(ctx, opensearchapi.IndicesCreateReq{
		Index: i.config.Index,
		Body:  bytes.NewReader(body),
	})
	if err != nil {
		if alreadyExists(err) {
			return nil
		}
		return ErrIndexCreationFailed.WithCause(err)
	}

	i.logger.Info("Index created", logging.String("index", i.config.Index))
	return nil
}

// IndexRecord upserts one scan record.
func (i *HistoryIndexer) IndexRecord(ctx context.Context, record *scan.ScanRecord) error {
	if record == nil || record.Result == nil {
		return errors.InvalidParam("scan record with a result is required")
	}
	body, err := json.Marshal(newHistoryDocument(record))
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal document")
	}

	_, err = i.client.API().Index(ctx, opensearchapi.IndexReq{
		Index:      i.config.Index,
		DocumentID: string(record.JobID),
		Body:       bytes.NewReader(body),
		Params:     opensearchapi.IndexParams{Refresh: i.config.RefreshPolicy},
	})
	if err != nil {
		return ErrDocumentIndexFailed.WithCause(err)
	}

	i.logger.Debug("scan record indexed", logging.JobID(string(record.JobID)))
	return nil
}

func alreadyExists(err error) bool {
	return strings.Contains(err.Error(), "resource_already_exists_exception")
}

// ─────────────────────────────────────────────────────────────────────────────
// Document model
// ─────────────────────────────────────────────────────────────────────────────

type historyDocument struct {
	JobID          string     `json:"job_id"`
	TenantID       string     `json:"tenant_id"`
	UserID         string     `json:"user_id"`
	ProductID      string     `json:"product_id,omitempty"`
	ScanType       string     `json:"scan_type"`
	Status         string     `json:"status"`
	RiskScore      int        `json:"risk_score"`
	Mode           string     `json:"used_mode"`
	ViolationCodes []string   `json:"violation_codes"`
	VisionOrigin   string     `json:"vision_origin"`
	Verdict        string     `json:"verdict,omitempty"`
	VerifiedAt     *time.Time `json:"verified_at,omitempty"`
	EvaluatedAt    time.Time  `json:"evaluated_at"`
	CreatedAt      time.Time  `json:"created_at"`
}

func newHistoryDocument(r *scan.ScanRecord) historyDocument {
	doc := historyDocument{
		JobID:          string(r.JobID),
		TenantID:       string(r.TenantID),
		UserID:         string(r.UserID),
		ScanType:       string(r.ScanType),
		Status:         string(r.Result.Status),
		RiskScore:      r.Result.RiskScore,
		Mode:           string(r.Result.Mode),
		ViolationCodes: scan.Kinds(r.Result.Violations),
		VisionOrigin:   string(r.Origin),
		VerifiedAt:     r.VerifiedAt,
		EvaluatedAt:    r.Result.EvaluatedAt,
		CreatedAt:      r.CreatedAt,
	}
	if r.ProductID != nil {
		doc.ProductID = string(*r.ProductID)
	}
	if r.Verdict != nil {
		doc.Verdict = string(*r.Verdict)
	}
	return doc
}

func historyIndexMapping(shards, replicas int) map[string]any {
	keyword := map[string]any{"type": "keyword"}
	date := map[string]any{"type": "date"}
	return map[string]any{
		"settings": map[string]any{
			"number_of_shards":   shards,
			"number_of_replicas": replicas,
		},
		"mappings": map[string]any{
			"dynamic": "strict",
			"properties": map[string]any{
				"job_id":          keyword,
				"tenant_id":       keyword,
				"user_id":         keyword,
				"product_id":      keyword,
				"scan_type":       keyword,
				"status":          keyword,
				"risk_score":      map[string]any{"type": "integer"},
				"used_mode":       keyword,
				"violation_codes": keyword,
				"vision_origin":   keyword,
				"verdict":         keyword,
				"verified_at":     date,
				"evaluated_at":    date,
				"created_at":      date,
			},
		},
	}
}

//Personal.AI order the ending
