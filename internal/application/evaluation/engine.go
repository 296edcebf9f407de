// Package evaluation is the risk aggregator: it picks an evaluation mode for
// a scan, runs the category, authenticity, reference and training components
// and folds their violations into one bounded, immutable result.
package evaluation

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/authenticity"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/category"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/identifier"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/reference"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/scan"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/training"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/monitoring/logging"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/monitoring/prometheus"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/errors"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/types/common"
)

// ─────────────────────────────────────────────────────────────────────────────
// Configuration and dependencies
// ─────────────────────────────────────────────────────────────────────────────

// Defaults for Config.
const (
	DefaultCategoryMismatchWeight = 30
	DefaultTrainingHistoryLimit   = 200
)

// Config tunes the aggregator.
type Config struct {
	CategoryMismatchWeight  int  `mapstructure:"category_mismatch_weight"`
	TrainingHistoryLimit    int  `mapstructure:"training_history_limit"`
	CompareActiveReferences bool `mapstructure:"compare_active_references"`
}

func (c *Config) applyDefaults() {
	if c.CategoryMismatchWeight <= 0 {
		c.CategoryMismatchWeight = DefaultCategoryMismatchWeight
	}
	if c.TrainingHistoryLimit <= 0 {
		c.TrainingHistoryLimit = DefaultTrainingHistoryLimit
	}
}

// Dependencies are the collaborators the engine reads from. Products,
// References and History may be nil for offline evaluation.
type Dependencies struct {
	Products   scan.ProductRepository
	References scan.ReferenceRepository
	History    scan.HistoryRepository
	Detector   *authenticity.Detector
	Matcher    *category.Matcher
	Adjuster   *training.Adjuster
	Metrics    *prometheus.ScanMetrics
	Logger     logging.Logger
	Clock      func() time.Time
}

// Request is one evaluation. Product, when set, is used as is; otherwise
// ProductID is resolved through the product repository.
type Request struct {
	TenantID    common.TenantID
	ProductID   *common.ID
	Product     *scan.ProductProfile
	ReferenceID *common.ID
	Signature   scan.VisionSignature
}

// Service evaluates scans.
type Service interface {
	Evaluate(ctx context.Context, req Request) (*scan.EvaluationResult, error)
}

type engine struct {
	cfg        Config
	products   scan.ProductRepository
	references scan.ReferenceRepository
	history    scan.HistoryRepository
	detector   *authenticity.Detector
	matcher    *category.Matcher
	adjuster   *training.Adjuster
	metrics    *prometheus.ScanMetrics
	logger     logging.Logger
	now        func() time.Time

	patterns sync.Map // pattern string -> *regexp.Regexp or error
}

// NewService builds the engine. Detector and Matcher are required.
func NewService(cfg Config, deps Dependencies) (Service, error) {
	if deps.Detector == nil {
		return nil, errors.New(errors.ErrCodeInternal, "evaluation: detector is required")
	}
	if deps.Matcher == nil {
		return nil, errors.New(errors.ErrCodeInternal, "evaluation: category matcher is required")
	}
	cfg.applyDefaults()
	if deps.Adjuster == nil {
		deps.Adjuster = training.NewAdjuster(0, 0)
	}
	if deps.Logger == nil {
		deps.Logger = logging.NewNopLogger()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return &engine{
		cfg:        cfg,
		products:   deps.Products,
		references: deps.References,
		history:    deps.History,
		detector:   deps.Detector,
		matcher:    deps.Matcher,
		adjuster:   deps.Adjuster,
		metrics:    deps.Metrics,
		logger:     deps.Logger.Named("evaluation"),
		now:        deps.Clock,
	}, nil
}

// run accumulates one evaluation's violations and debug info.
type run struct {
	req        Request
	product    *scan.ProductProfile
	detector   *authenticity.Detector
	violations []scan.Violation
	debug      map[string]any
	logger     logging.Logger
}

func (r *run) add(vs ...scan.Violation) { r.violations = append(r.violations, vs...) }

func (r *run) addReport(rep authenticity.Report) {
	r.add(rep.Violations...)
	if len(rep.Flags) == 0 {
		return
	}
	flags, _ := r.debug["flags"].(map[string]string)
	if flags == nil {
		flags = map[string]string{}
		r.debug["flags"] = flags
	}
	for k, v := range rep.Flags {
		flags[k] = v
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Evaluate
// ─────────────────────────────────────────────────────────────────────────────

// Evaluate selects a mode and produces the result:
//
//  1. no rule configuration      → UNDEFINED_CATEGORY (INDETERMINATE)
//  2. explicit reference id      → REFERENCE_COMPARE
//  3. otherwise                  → MASTER_PLUS_CLOUD
func (e *engine) Evaluate(ctx context.Context, req Request) (*scan.EvaluationResult, error) {
	start := e.now()

	product, err := e.resolveProduct(ctx, req)
	if err != nil {
		return nil, err
	}

	r := &run{
		req:      req,
		product:  product,
		detector: e.detector.Pin(),
		debug:    map[string]any{},
		logger:   e.logger.With(logging.TenantID(string(req.TenantID))),
	}
	r.debug["vision_origin"] = string(originOf(req.Signature))
	if req.Signature.IsFallback() {
		r.add(scan.NewViolation(scan.ViolationVisionFallback, 0,
			"vision provider unavailable; evaluated without image analysis",
			scan.AdjustmentEvidence{Reason: req.Signature.Provider}))
	}

	var mode scan.Mode
	switch {
	case !product.HasRules():
		mode = scan.ModeUndefinedCategory
		e.evaluateUndefined(r)
	case req.ReferenceID != nil && *req.ReferenceID != "":
		mode = scan.ModeReferenceCompare
		if err := e.evaluateReference(ctx, r); err != nil {
			return nil, err
		}
	default:
		mode = scan.ModeMasterPlusCloud
		e.evaluateMaster(ctx, r)
	}

	if mode != scan.ModeUndefinedCategory {
		e.applyTraining(ctx, r)
	}

	res, err := scan.NewEvaluationResult(mode, r.violations, r.debug, e.now())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeEvaluationFailed, "build evaluation result")
	}
	elapsed := e.now().Sub(start)
	e.metrics.RecordEvaluation(string(mode), res.RiskScore, scan.Kinds(res.Violations), elapsed)
	r.logger.Debug("scan evaluated",
		logging.String("mode", string(mode)),
		logging.Int("risk_score", res.RiskScore),
		logging.String("status", string(res.Status)),
		logging.Int("violations", len(res.Violations)),
		logging.Duration("elapsed", elapsed),
	)
	return res, nil
}

func originOf(sig scan.VisionSignature) scan.Origin {
	if sig.Origin == "" {
		return scan.OriginProvider
	}
	return sig.Origin
}

// resolveProduct returns nil when there is no product to evaluate against.
// A missing product is configuration absence, not a failure.
func (e *engine) resolveProduct(ctx context.Context, req Request) (*scan.ProductProfile, error) {
	if req.Product != nil {
		return req.Product, nil
	}
	if req.ProductID == nil || *req.ProductID == "" || e.products == nil {
		return nil, nil
	}
	p, err := e.products.GetProduct(ctx, req.TenantID, *req.ProductID)
	if err != nil {
		if errors.IsNotFound(err) {
			e.logger.Warn("product not found; evaluating without rules",
				logging.String("product_id", string(*req.ProductID)), logging.TenantID(string(req.TenantID)))
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.CodeUnknown, "load product")
	}
	return p, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Modes
// ─────────────────────────────────────────────────────────────────────────────

func (e *engine) evaluateUndefined(r *run) {
	r.add(scan.NewViolation(scan.ViolationNoRulesDefined, 0,
		"no detection rules configured for this product", nil))
	r.addReport(r.detector.Universal(r.req.Signature))
}

func (e *engine) evaluateReference(ctx context.Context, r *run) error {
	refID := *r.req.ReferenceID
	fp, err := e.loadReference(ctx, r.req.TenantID, refID)
	if err != nil {
		return err
	}
	if fp == nil {
		r.add(reference.NotFound(string(refID)))
	} else {
		cmp := reference.Compare(r.req.Signature, fp, r.product.Brand)
		r.debug["reference"] = cmp
		r.add(reference.Adjustment(cmp))
	}
	e.genericChecks(r)
	r.addReport(r.detector.Detect(authenticity.Input{
		Category:  r.product.Category,
		Brand:     r.product.Brand,
		Signature: r.req.Signature,
	}))
	r.addReport(r.detector.CheckSpoof(r.req.Signature))
	r.applyWeights()
	return nil
}

func (e *engine) loadReference(ctx context.Context, tenantID common.TenantID, id common.ID) (*scan.ReferenceFingerprint, error) {
	if e.references == nil {
		return nil, nil
	}
	fp, err := e.references.GetFingerprint(ctx, tenantID, id)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.CodeUnknown, "load reference fingerprint")
	}
	if fp != nil && !fp.Active {
		return nil, nil
	}
	return fp, nil
}

func (e *engine) evaluateMaster(ctx context.Context, r *run) {
	p, sig := r.product, r.req.Signature
	rules := p.Rules

	ids := identifier.Parse(sig.OCRText)
	r.debug["identifiers"] = ids

	e.genericChecks(r)
	r.addReport(r.detector.Baseline(p.Category))
	if rules.UseLogoCheck {
		r.addReport(r.detector.CheckLogos(p.Category, p.Brand, sig))
	}
	r.addReport(r.detector.CheckText(sig))
	r.addReport(r.detector.CheckSpoof(sig))
	if rules.UseGenericLabels {
		r.addReport(r.detector.CheckCategoryPatterns(p.Category, p.Brand, sig))
	}
	r.addReport(r.detector.Challenges(authenticity.Input{Category: p.Category, Brand: p.Brand, Signature: sig}))

	e.identifierChecks(r, ids)
	e.activeReferenceCheck(ctx, r)
	r.applyWeights()
}

// applyWeights replaces the default weight of every risk-raising violation
// with the product's override. Negative adjustments keep their value.
func (r *run) applyWeights() {
	rules := r.product.Rules
	for i, v := range r.violations {
		if v.Weight > 0 {
			r.violations[i].Weight = rules.Weight(v.Kind, v.Weight)
		}
	}
}

// genericChecks runs the label/category consistency check.
func (e *engine) genericChecks(r *run) {
	sig := r.req.Signature
	m := e.matcher.Match(r.product.Category, sig.Labels)
	r.debug["category_match"] = m
	if m.IsMatch {
		return
	}
	r.add(scan.NewViolation(scan.ViolationCategoryMismatch, e.cfg.CategoryMismatchWeight,
		m.Reason, scan.CategoryEvidence{Category: r.product.Category, Labels: sig.LabelNames()}))
}

// identifierChecks applies required identifiers and identifier patterns.
// A malformed pattern is logged and skipped.
func (e *engine) identifierChecks(r *run, ids identifier.Identifiers) {
	rules := r.product.Rules
	for _, name := range rules.RequiredIdentifiers {
		if _, ok := ids.Get(name); ok {
			continue
		}
		r.add(scan.NewViolation(scan.ViolationMissingIdentifier,
			rules.Weight(scan.ViolationMissingIdentifier, scan.DefaultMissingIdentifierWeight),
			fmt.Sprintf("required identifier %q not found", name),
			scan.IdentifierEvidence{Name: name}))
	}

	var skipped []string
	for _, name := range sortedKeys(rules.IdentifierPatterns) {
		pattern := rules.IdentifierPatterns[name]
		value, ok := ids.Get(name)
		if !ok {
			continue
		}
		re, err := e.compile(pattern)
		if err != nil {
			r.logger.Warn("skipping malformed identifier pattern",
				logging.String("identifier", name), logging.String("pattern", pattern), logging.Err(err))
			skipped = append(skipped, name)
			continue
		}
		if re.MatchString(value) {
			continue
		}
		r.add(scan.NewViolation(scan.ViolationInvalidIdentifier,
			rules.Weight(scan.ViolationInvalidIdentifier, scan.DefaultInvalidIdentifierWeight),
			fmt.Sprintf("identifier %q value %q does not match the expected format", name, value),
			scan.IdentifierEvidence{Name: name, Value: value, Pattern: pattern}))
	}
	if len(skipped) > 0 {
		r.debug["skipped_patterns"] = skipped
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (e *engine) compile(pattern string) (*regexp.Regexp, error) {
	if v, ok := e.patterns.Load(pattern); ok {
		if re, ok := v.(*regexp.Regexp); ok {
			return re, nil
		}
		return nil, v.(error)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		e.patterns.Store(pattern, err)
		return nil, err
	}
	e.patterns.Store(pattern, re)
	return re, nil
}

// activeReferenceCheck compares against the product's best active reference
// when enabled; a product with none pays the uncertainty penalty.
func (e *engine) activeReferenceCheck(ctx context.Context, r *run) {
	if !e.cfg.CompareActiveReferences || e.references == nil || r.product.ID == "" {
		return
	}
	fps, err := e.references.ListActiveFingerprints(ctx, r.req.TenantID, r.product.ID)
	if err != nil {
		r.logger.Warn("listing active references failed; skipping comparison",
			logging.String("product_id", string(r.product.ID)), logging.Err(err))
		return
	}
	cmp, ok := reference.Best(r.req.Signature, fps, r.product.Brand)
	if !ok {
		r.add(reference.NoReference())
		return
	}
	r.debug["reference"] = cmp
	r.add(reference.Adjustment(cmp))
}

// applyTraining nudges the running score using verified history. History
// failures only cost the adjustment.
func (e *engine) applyTraining(ctx context.Context, r *run) {
	if e.history == nil || r.product == nil || r.product.ID == "" {
		return
	}
	records, err := e.history.ListForProduct(ctx, r.req.TenantID, r.product.ID, e.cfg.TrainingHistoryLimit)
	if err != nil {
		r.logger.Warn("loading verified history failed; skipping training adjustment",
			logging.String("product_id", string(r.product.ID)), logging.Err(err))
		return
	}
	current := scan.ClampScore(scan.TotalWeight(r.violations))
	res := e.adjuster.Adjust(current, scan.SamplesFromRecords(records))
	r.debug["training"] = res
	if v, ok := res.Violation(); ok {
		r.add(v)
	}
}

//Personal.AI order the ending
