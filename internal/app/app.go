package app

import (
	"context"
	"fmt"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/application/evaluation"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/application/quota"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/application/scanjob"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/config"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/authenticity"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/category"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/profile"
	domainQuota "github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/quota"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/scan"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/database/postgres/repositories"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/database/redis"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/messaging/kafka"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/monitoring/logging"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/monitoring/prometheus"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/search/opensearch"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/storage/minio"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/vision"
)

// Role selects what a process runs.
type Role string

const (
	// RoleAPI serves HTTP and, in inline dispatch mode, processes jobs too.
	RoleAPI Role = "api"
	// RoleWorker consumes submitted jobs from Kafka.
	RoleWorker Role = "worker"
)

// Options are process-level settings that do not belong in Config.
type Options struct {
	Role Role
	// ConfigPath, when set, is watched and the detection profile reloaded
	// on change.
	ConfigPath string
	Version    string
}

// App is the wired scan pipeline.
type App struct {
	cfg    *config.Config
	opts   Options
	logger logging.Logger

	collector prometheus.MetricsCollector
	metrics   *prometheus.ScanMetrics

	infra    *Infrastructure
	profiles *profile.Store
	images   *minio.ImageStore
	indexer  *opensearch.HistoryIndexer
	jobs     scan.JobRepository
	vision   *vision.Router

	evaluator evaluation.Service
	quota     quota.Gate
	scans     scanjob.Service
	pool      *scanjob.Pool
}

// New connects the infrastructure and builds the services for opts.Role.
func New(ctx context.Context, cfg *config.Config, opts Options, logger logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	a := &App{cfg: cfg, opts: opts, logger: logger}

	if cfg.Metrics.Enabled {
		collector, err := prometheus.NewMetricsCollector(cfg.Metrics.CollectorConfig, logger)
		if err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
		a.collector = collector
		a.metrics = prometheus.NewScanMetrics(collector)
	}

	p, err := profile.New(cfg.Detection)
	if err != nil {
		return nil, fmt.Errorf("detection profile: %w", err)
	}
	a.profiles = profile.NewStore(p)

	infra, err := NewInfrastructure(ctx, cfg, opts.Role == RoleWorker, logger)
	if err != nil {
		return nil, err
	}
	a.infra = infra

	if err := a.build(ctx); err != nil {
		infra.Close(logger)
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context) error {
	cfg, conn, log := a.cfg, a.infra.Postgres, a.logger

	a.jobs = repositories.NewPostgresJobRepo(conn, log)
	history := repositories.NewPostgresHistoryRepo(conn, log)
	var products scan.ProductRepository = repositories.NewPostgresProductRepo(conn, log)
	var references scan.ReferenceRepository = repositories.NewPostgresReferenceRepo(conn, log)
	var usage domainQuota.UsageRepository = repositories.NewPostgresUsageRepo(conn, log)

	if a.infra.Redis != nil {
		cache := redis.NewRedisCache(a.infra.Redis, log)
		products = redis.NewCachedProductRepository(products, cache, cfg.Cache.ProductTTL)
		references = redis.NewCachedReferenceRepository(references, cache, cfg.Cache.ReferenceTTL)
		if cfg.Quota.UsageStore == config.UsageStoreRedis {
			usage = redis.NewUsageCounter(a.infra.Redis)
		}
	}

	var imageSource vision.ImageSource
	if a.infra.MinIO != nil {
		a.images = minio.NewImageStore(a.infra.MinIO, log)
		imageSource = a.images
	}
	a.vision = newVisionRouter(cfg.Vision, imageSource, a.metrics, log)

	if a.infra.OpenSearch != nil {
		a.indexer = opensearch.NewHistoryIndexer(a.infra.OpenSearch, cfg.OpenSearch.Indexer, log)
		if err := a.indexer.EnsureIndex(ctx); err != nil {
			log.Warn("scan history index unavailable", logging.Err(err))
		}
	}

	evaluator, err := NewEvaluator(cfg.Evaluation, a.profiles, evaluation.Dependencies{
		Products:   products,
		References: references,
		History:    history,
		Metrics:    a.metrics,
		Logger:     log,
	})
	if err != nil {
		return err
	}
	a.evaluator = evaluator

	a.quota = quota.NewGate(
		repositories.NewPostgresPlanRepo(conn, log),
		usage,
		repositories.NewPostgresAdminResolver(conn),
		a.metrics,
		log,
	)

	deps := scanjob.Dependencies{
		Jobs:      a.jobs,
		History:   history,
		Quota:     a.quota,
		Analyzer:  a.vision,
		Evaluator: a.evaluator,
		Metrics:   a.metrics,
		Logger:    log,
	}
	if a.images != nil {
		deps.Images = a.images
	}
	if a.indexer != nil {
		deps.Indexer = a.indexer
	}
	if a.infra.Producer != nil {
		deps.Events = kafka.NewOutcomePublisher(a.infra.Producer, cfg.Kafka.Topics.Names())
	}
	if a.opts.Role == RoleAPI {
		switch cfg.Dispatch.Mode {
		case config.DispatchKafka:
			deps.Dispatcher = kafka.NewJobDispatcher(a.infra.Producer, cfg.Kafka.Topics.Submitted)
		default:
			// The pool only re-enqueues leftover PENDING jobs when given a
			// repository.
			var pending scan.JobRepository
			if cfg.Worker.RecoverOnStart {
				pending = a.jobs
			}
			a.pool = scanjob.NewPool(cfg.Worker.Pool, pending, a.metrics, log)
			deps.Dispatcher = a.pool
		}
	}

	scans, err := scanjob.NewService(deps)
	if err != nil {
		return err
	}
	a.scans = scans
	return nil
}

// NewEvaluator builds the risk aggregator over the built-in authenticity
// tables and category dictionary. deps.Detector and deps.Matcher are
// filled in; repositories left nil restrict it to what the request carries.
func NewEvaluator(cfg evaluation.Config, profiles authenticity.ProfileSource, deps evaluation.Dependencies) (evaluation.Service, error) {
	deps.Detector = authenticity.NewDetector(authenticity.DefaultTables(), profiles)
	deps.Matcher = category.NewMatcher(category.DefaultDictionary())
	return evaluation.NewService(cfg, deps)
}

// newVisionRouter enables the providers cfg asks for. A disabled provider
// must reach the router as a nil interface, not a typed nil.
func newVisionRouter(cfg config.VisionConfig, images vision.ImageSource, metrics *prometheus.ScanMetrics, log logging.Logger) *vision.Router {
	var local, cloud scan.VisionProvider
	if cfg.LocalEnabled {
		local = vision.NewLocalProvider(cfg.Local, images, nil, log)
	}
	if cfg.OpenAIEnabled {
		cloud = vision.NewOpenAIProvider(cfg.OpenAI, images, log)
	}
	return vision.NewRouter(local, cloud, cfg.Router, metrics, log)
}

// Close releases the infrastructure.
func (a *App) Close() {
	a.infra.Close(a.logger)
	_ = a.logger.Sync()
}

// Profiles is the live detection profile.
func (a *App) Profiles() *profile.Store { return a.profiles }

// Scans is the job lifecycle service.
func (a *App) Scans() scanjob.Service { return a.scans }

// Quota is the quota gate.
func (a *App) Quota() quota.Gate { return a.quota }

//Personal.AI order the ending
