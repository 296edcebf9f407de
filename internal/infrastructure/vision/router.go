package vision

import (
	"context"
	"fmt"
	"time"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/application/scanjob"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/scan"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/monitoring/logging"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/monitoring/prometheus"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/errors"
)

// RouterConfig controls provider selection.
type RouterConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
	// AutoEscalate lets AUTO scans try the cloud provider after the local
	// one fails.
	AutoEscalate bool          `mapstructure:"auto_escalate"`
	Breaker      BreakerConfig `mapstructure:"breaker"`
}

// Router picks a provider per scan type:
//
//	LOCAL     -> local
//	AI_VISION -> cloud
//	AUTO      -> local, then cloud when AutoEscalate is set
//
// When every candidate fails, or none is configured, it returns a FALLBACK
// signature so evaluation can still run.
type Router struct {
	local    scan.VisionProvider
	cloud    scan.VisionProvider
	breakers map[string]*Breaker
	cfg      RouterConfig
	metrics  *prometheus.ScanMetrics
	logger   logging.Logger
}

var _ scanjob.Analyzer = (*Router)(nil)

// NewRouter wires the providers. Either may be nil.
func NewRouter(local, cloud scan.VisionProvider, cfg RouterConfig, metrics *prometheus.ScanMetrics, log logging.Logger) *Router {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	log = log.Named("vision")

	r := &Router{local: local, cloud: cloud, breakers: map[string]*Breaker{}, cfg: cfg, metrics: metrics, logger: log}
	for _, p := range []scan.VisionProvider{local, cloud} {
		if p != nil {
			r.breakers[p.Name()] = NewBreaker(p.Name(), cfg.Breaker, log)
		}
	}
	return r
}

// Analyze implements scanjob.Analyzer.
func (r *Router) Analyze(ctx context.Context, scanType scan.ScanType, imagePath string) scan.VisionSignature {
	chain := r.chain(scanType)
	log := r.logger.With(logging.String("scan_type", string(scanType)), logging.String("image_path", imagePath))

	fallbackName := "none"
	for _, p := range chain {
		fallbackName = p.Name()
		sig, err := r.call(ctx, p, imagePath)
		if err == nil {
			return sig
		}
		log.Warn("vision provider failed",
			logging.String("provider", p.Name()),
			logging.String("code", string(errors.GetCode(err))),
			logging.Err(err))
		if ctx.Err() != nil {
			break
		}
	}

	log.Warn("using fallback vision signature", logging.String("provider", fallbackName))
	r.metrics.RecordVision(fallbackName, string(scan.OriginFallback), 0)
	return scan.FallbackSignature(fallbackName)
}

// Breaker returns the breaker guarding a provider, or nil.
func (r *Router) Breaker(provider string) *Breaker {
	return r.breakers[provider]
}

func (r *Router) chain(scanType scan.ScanType) []scan.VisionProvider {
	var chain []scan.VisionProvider
	add := func(p scan.VisionProvider) {
		if p != nil {
			chain = append(chain, p)
		}
	}
	switch scanType {
	case scan.ScanTypeLocal:
		add(r.local)
	case scan.ScanTypeAIVision:
		add(r.cloud)
	default:
		add(r.local)
		if r.cfg.AutoEscalate || r.local == nil {
			add(r.cloud)
		}
	}
	return chain
}

func (r *Router) call(ctx context.Context, p scan.VisionProvider, imagePath string) (sig scan.VisionSignature, err error) {
	b := r.breakers[p.Name()]
	if err := b.Allow(); err != nil {
		return scan.VisionSignature{}, err
	}

	callCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.New(errors.ErrCodeVisionUnavailable, fmt.Sprintf("vision provider panic: %v", rec))
		}
		b.Done(err == nil)
		if err == nil {
			r.metrics.RecordVision(p.Name(), string(scan.OriginProvider), time.Since(start))
		}
	}()

	sig, err = p.Analyze(callCtx, imagePath)
	if err != nil {
		return scan.VisionSignature{}, err
	}
	sig.Origin = scan.OriginProvider
	sig.Provider = p.Name()
	if sig.Labels == nil {
		sig.Labels = []scan.Label{}
	}
	if sig.Logos == nil {
		sig.Logos = []scan.Logo{}
	}
	if sig.Colors == nil {
		sig.Colors = []scan.Color{}
	}
	if sig.Spoof == "" {
		sig.Spoof = scan.LikelihoodUnknown
	}
	return sig, nil
}

//Personal.AI order the ending
