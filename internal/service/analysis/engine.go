package analysis

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/davidleathers/analysis-orchestrator/internal/domain/analysis"
	"github.com/davidleathers/analysis-orchestrator/internal/domain/errors"
	"github.com/davidleathers/analysis-orchestrator/internal/service/generators"
)

// Engine orchestrates analyses: admission, job tracking, caching, strategy
// dispatch, post-processing, metrics, history and monitoring rules. All
// shared state is owned by the engine instance and safe for concurrent use.
type Engine struct {
	config     Config
	logger     *zap.Logger
	clock      analysis.Clock
	generators map[analysis.Domain]generators.Generator
	correlator generators.Correlator

	strategies *strategyRegistry
	admission  *admission
	jobs       *jobTable
	cache      *resultCache
	recorder   *metricsRecorder
	history    *history
	events     *eventLog
	rules      *ruleEvaluator
}

var _ Service = (*Engine)(nil)

type engineOptions struct {
	generators    []generators.Generator
	correlator    generators.Correlator
	correlatorSet bool
	narrator      generators.Narrator
	notifier      Notifier
	collectors    []MetricsCollector
	cache         Cache
	clock         analysis.Clock
	logger        *zap.Logger
}

// Option configures an Engine
type Option func(*engineOptions)

// WithGenerators replaces the default per-domain generators. A later
// generator for the same domain wins.
func WithGenerators(gens ...generators.Generator) Option {
	return func(o *engineOptions) { o.generators = append(o.generators, gens...) }
}

// WithCorrelator replaces the cross-domain correlator; nil disables the pass.
func WithCorrelator(c generators.Correlator) Option {
	return func(o *engineOptions) {
		o.correlator = c
		o.correlatorSet = true
	}
}

// WithNarrator sets the inference boundary used by the default generators
// and correlator.
func WithNarrator(n generators.Narrator) Option {
	return func(o *engineOptions) { o.narrator = n }
}

func WithNotifier(n Notifier) Option {
	return func(o *engineOptions) { o.notifier = n }
}

// WithMetricsCollector adds a collector; it may be given more than once.
func WithMetricsCollector(c MetricsCollector) Option {
	return func(o *engineOptions) {
		if c != nil {
			o.collectors = append(o.collectors, c)
		}
	}
}

// WithCache sets the result cache backend. Caching also requires
// Config.CacheEnabled.
func WithCache(c Cache) Option {
	return func(o *engineOptions) { o.cache = c }
}

func WithClock(c analysis.Clock) Option {
	return func(o *engineOptions) { o.clock = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *engineOptions) { o.logger = l }
}

// NewEngine creates an engine with the default monitoring rules installed.
func NewEngine(cfg Config, opts ...Option) (*Engine, error) {
	o := &engineOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.clock == nil {
		o.clock = analysis.RealClock{}
	}

	cfg = cfg.clone()
	cfg.normalize()
	if cfg.ConfidenceThreshold < 0 || cfg.ConfidenceThreshold > 1 {
		return nil, errors.NewValidationError("INVALID_CONFIG", "confidence threshold must be within [0,1]")
	}

	enabled := map[analysis.Domain]bool{}
	for _, d := range cfg.enabledDomains() {
		enabled[d] = true
	}
	gens := o.generators
	if len(gens) == 0 {
		gens = generators.Defaults(o.narrator)
	}
	byDomain := make(map[analysis.Domain]generators.Generator, len(gens))
	for _, g := range gens {
		if g == nil {
			return nil, errors.NewValidationError("INVALID_GENERATOR", "generator must not be nil")
		}
		if enabled[g.Domain()] {
			byDomain[g.Domain()] = g
		}
	}

	correlator := o.correlator
	if !o.correlatorSet {
		correlator = generators.NewCouplingCorrelator(o.narrator)
	}

	e := &Engine{
		config:     cfg,
		logger:     o.logger,
		clock:      o.clock,
		generators: byDomain,
		correlator: correlator,
		strategies: newStrategyRegistry(cfg),
		admission:  newAdmission(cfg.MaxConcurrentAnalyses, cfg.MaxQueuedAnalyses),
		jobs:       newJobTable(),
		recorder:   newMetricsRecorder(cfg.MaxConcurrentAnalyses, o.collectors),
		history:    newHistory(cfg.HistorySize, cfg.HistoryTTL, o.clock),
		events:     newEventLog(cfg.MaxEvents, o.clock),
	}
	if cfg.CacheEnabled && o.cache != nil {
		e.cache = &resultCache{
			backend: o.cache,
			ttl:     cfg.CacheTTL,
			prefix:  cfg.CacheKeyPrefix,
			clock:   o.clock,
			logger:  o.logger,
		}
	}
	e.rules = &ruleEvaluator{
		rules:   make(map[string]*analysis.MonitoringRule),
		clock:   o.clock,
		events:  e.events,
		metrics: e.recorder,
		logger:  o.logger,
	}
	for _, rule := range analysis.DefaultMonitoringRules() {
		if err := e.rules.add(rule); err != nil {
			return nil, err
		}
	}
	if o.notifier != nil {
		e.rules.dispatch = newNotificationDispatcher(o.notifier, cfg.NotificationQueueSize,
			cfg.NotificationTimeout, o.logger, e.rules.notificationFailed)
	}
	return e, nil
}

// RegisterStrategy adds or replaces the strategy for an analysis type.
func (e *Engine) RegisterStrategy(t analysis.AnalysisType, s Strategy) error {
	if t == "" {
		return errors.ErrMissingType
	}
	if s == nil {
		return errors.NewValidationError("INVALID_STRATEGY", "strategy must not be nil")
	}
	e.strategies.register(t, s)
	return nil
}

type outcome struct {
	resp *analysis.Response
	err  error
}

// PerformAnalysis runs req through the pipeline and returns its response.
// Every failure marks the job failed, counts against the success rate and is
// returned; a nil response always comes with an error. Monitoring rules run
// once the job is finished and its slot released; their notifications are
// delivered asynchronously.
func (e *Engine) PerformAnalysis(ctx context.Context, req *analysis.Request) (*analysis.Response, error) {
	resp, evaluate, err := e.run(ctx, req)
	if err != nil {
		return nil, err
	}
	if evaluate {
		e.rules.evaluate(ctx, resp)
	}
	return resp, nil
}

// run holds an admission slot and a job for the duration of the analysis. It
// reports whether monitoring rules should be evaluated against the response.
func (e *Engine) run(ctx context.Context, req *analysis.Request) (*analysis.Response, bool, error) {
	start := e.clock.Now()

	if err := req.CheckEnvelope(); err != nil {
		var t analysis.AnalysisType
		if req != nil {
			t = req.Type
		}
		e.recorder.record(ctx, t, 0, err, false)
		return nil, false, err
	}

	if err := e.admission.acquire(ctx); err != nil {
		e.recorder.record(ctx, req.Type, e.clock.Now().Sub(start), err, false)
		e.logger.Warn("analysis rejected",
			zap.String("request_id", req.ID),
			zap.String("analysis_type", string(req.Type)),
			zap.Error(err),
		)
		e.events.record(analysis.Event{
			Type:      analysis.EventCapacityRejected,
			RequestID: req.ID,
			Message:   err.Error(),
		})
		return nil, false, err
	}
	defer e.admission.release()

	job := analysis.NewJob(uuid.New().String(), req, start)
	e.recorder.setActive(e.jobs.register(job))
	defer func() { e.recorder.setActive(e.jobs.remove(job.ID)) }()

	logger := e.logger.With(
		zap.String("job_id", job.ID),
		zap.String("request_id", req.ID),
		zap.String("analysis_type", string(req.Type)),
	)
	logger.Debug("analysis job registered")
	e.events.record(analysis.Event{
		Type:      analysis.EventJobStarted,
		JobID:     job.ID,
		RequestID: req.ID,
		Message:   fmt.Sprintf("%s analysis started for %s", req.Type, req.Scope),
	})

	jobCtx, cancel := e.deadline(ctx)
	defer cancel()

	signature, err := analysis.Signature(req)
	if err != nil {
		return nil, false, e.failJob(ctx, logger, job, start, errors.NewInternalError("failed to compute request signature").WithCause(err))
	}

	if cached, ok := e.cache.lookup(jobCtx, signature); ok {
		return e.completeFromCache(ctx, logger, job, start, cached), e.config.EvaluateRulesOnCacheHit, nil
	}
	e.jobs.advance(job.ID, analysis.ProgressCacheChecked)

	// Run in a worker so a stage that ignores cancellation cannot hold the
	// caller past the deadline. An abandoned worker keeps running without a
	// slot until its stages return.
	var abandoned atomic.Bool
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: errors.NewInternalError(fmt.Sprintf("analysis panicked: %v", r))}
			}
		}()
		resp, err := e.execute(jobCtx, job.ID, req, start)
		if abandoned.Load() {
			logger.Warn("analysis worker finished after its job failed",
				zap.Duration("elapsed", e.clock.Now().Sub(start)),
				zap.Error(err),
			)
		}
		done <- outcome{resp: resp, err: err}
	}()

	var out outcome
	select {
	case out = <-done:
	case <-jobCtx.Done():
		abandoned.Store(true)
		out.err = jobCtx.Err()
	}
	if out.err != nil {
		if stderrors.Is(out.err, context.DeadlineExceeded) || stderrors.Is(out.err, context.Canceled) {
			out.err = e.contextError(ctx, out.err)
		}
		return nil, false, e.failJob(ctx, logger, job, start, out.err)
	}

	resp := out.resp
	e.cache.store(ctx, signature, resp)
	e.recorder.record(ctx, req.Type, e.clock.Now().Sub(start), nil, false)
	e.jobs.complete(job.ID, resp, e.clock.Now())
	e.remember(logger, resp)
	e.events.record(analysis.Event{
		Type:       analysis.EventJobCompleted,
		JobID:      job.ID,
		RequestID:  req.ID,
		AnalysisID: resp.ID,
		Message:    fmt.Sprintf("%s analysis completed in %dms", req.Type, resp.ExecutionTime),
	})
	logger.Info("analysis completed",
		zap.String("analysis_id", resp.ID),
		zap.Int64("execution_time_ms", resp.ExecutionTime),
		zap.Float64("confidence", resp.Confidence),
		zap.Int("insights", len(resp.Insights)),
	)

	return resp, true, nil
}

// execute runs validation, dispatch and post-processing.
func (e *Engine) execute(ctx context.Context, jobID string, req *analysis.Request, start time.Time) (*analysis.Response, error) {
	inputs, err := analysis.ValidateInputs(&req.DataInputs)
	if err != nil {
		return nil, err
	}
	inputs = inputs.Filter(e.config.enabledDomains()...)
	e.jobs.advance(jobID, analysis.ProgressValidated)

	strategy, ok := e.strategies.lookup(req.Type)
	if !ok {
		return nil, errors.NewDispatchError(string(req.Type))
	}

	ctx, narratorCalls := generators.WithCallCounter(ctx)
	x := &Execution{Request: req, Inputs: inputs, engine: e}
	resp, err := strategy.Execute(ctx, x)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, errors.NewInternalError(fmt.Sprintf("strategy for %q returned no response", req.Type))
	}
	e.jobs.advance(jobID, analysis.ProgressDispatched)

	e.postProcess(resp, start)
	resp.Metadata.ProcessingStats.GeneratorCalls = int(x.generatorCalls.Load())
	resp.Metadata.ProcessingStats.NarratorCalls = narratorCalls.Load()
	e.jobs.advance(jobID, analysis.ProgressPostProcessed)
	return resp, nil
}

// postProcess applies the configured limits and output options.
func (e *Engine) postProcess(resp *analysis.Response, start time.Time) {
	elapsed := e.clock.Now().Sub(start).Milliseconds()
	resp.ExecutionTime = elapsed
	resp.Metadata.ProcessingStats.ProcessingTime = elapsed

	if len(resp.Insights) > e.config.MaxInsights {
		resp.Insights = resp.Insights[:e.config.MaxInsights]
	}
	if len(resp.Recommendations) > e.config.MaxRecommendations {
		resp.Recommendations = resp.Recommendations[:e.config.MaxRecommendations]
	}
	if !e.config.IncludeEvidence {
		for i := range resp.Insights {
			resp.Insights[i].Evidence = []string{}
		}
	}

	below := 0
	threshold := e.config.ConfidenceThreshold
	for _, i := range resp.Insights {
		if i.Confidence < threshold {
			below++
		}
	}
	for _, t := range resp.Trends {
		if t.Confidence < threshold {
			below++
		}
	}
	for _, p := range resp.Predictions {
		if p.Confidence < threshold {
			below++
		}
	}
	if below > 0 {
		resp.Metadata.Limitations = append(resp.Metadata.Limitations,
			fmt.Sprintf("%d findings fall below the confidence threshold of %.2f", below, threshold))
	}
}

func (e *Engine) completeFromCache(ctx context.Context, logger *zap.Logger, job *analysis.Job, start time.Time, resp *analysis.Response) *analysis.Response {
	e.recorder.record(ctx, job.Request.Type, e.clock.Now().Sub(start), nil, true)
	e.jobs.complete(job.ID, resp, e.clock.Now())
	e.remember(logger, resp)
	e.events.record(analysis.Event{
		Type:       analysis.EventCacheHit,
		JobID:      job.ID,
		RequestID:  job.Request.ID,
		AnalysisID: resp.ID,
		Message:    "served from result cache",
	})
	logger.Debug("analysis served from cache", zap.String("analysis_id", resp.ID))
	return resp
}

func (e *Engine) failJob(ctx context.Context, logger *zap.Logger, job *analysis.Job, start time.Time, err error) error {
	e.recorder.record(ctx, job.Request.Type, e.clock.Now().Sub(start), err, false)
	e.jobs.fail(job.ID, err, e.clock.Now())
	e.events.record(analysis.Event{
		Type:      analysis.EventJobFailed,
		JobID:     job.ID,
		RequestID: job.Request.ID,
		Message:   err.Error(),
		Data:      map[string]interface{}{"errorType": string(errors.TypeOf(err))},
	})
	logger.Warn("analysis failed", zap.String("error_type", string(errors.TypeOf(err))), zap.Error(err))
	return err
}

// remember stores a private copy of resp in the history.
func (e *Engine) remember(logger *zap.Logger, resp *analysis.Response) {
	c, err := resp.Clone()
	if err != nil {
		logger.Error("failed to copy response into history", zap.String("analysis_id", resp.ID), zap.Error(err))
		return
	}
	e.history.add(c)
}

func (e *Engine) deadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.config.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.config.Timeout)
}

// contextError maps a context failure to the error reported to the caller:
// the job deadline is a timeout, anything the caller did is internal.
func (e *Engine) contextError(parent context.Context, err error) error {
	if parent.Err() == nil && stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewTimeoutError(e.config.Timeout)
	}
	cause := parent.Err()
	if cause == nil {
		cause = err
	}
	return errors.NewInternalError("analysis cancelled").WithCause(cause)
}

// GetAnalysis returns a retained response by id
func (e *Engine) GetAnalysis(id string) (*analysis.Response, error) {
	resp, ok := e.history.get(id)
	if !ok {
		return nil, errors.NewNotFoundError(fmt.Sprintf("analysis %q", id))
	}
	return resp.Clone()
}

// GetAnalysisHistory returns retained responses, newest first
func (e *Engine) GetAnalysisHistory() []*analysis.Response {
	entries := e.history.list()
	out := make([]*analysis.Response, 0, len(entries))
	for _, r := range entries {
		c, err := r.Clone()
		if err != nil {
			e.logger.Error("failed to copy history entry", zap.String("analysis_id", r.ID), zap.Error(err))
			continue
		}
		out = append(out, c)
	}
	return out
}

func (e *Engine) GetActiveJobs() []analysis.Job {
	return e.jobs.snapshots()
}

func (e *Engine) GetMetrics() analysis.Metrics {
	return e.recorder.snapshot()
}

func (e *Engine) GetConfig() Config {
	return e.config.clone()
}

func (e *Engine) GetMonitoringRules() []analysis.MonitoringRule {
	return e.rules.list()
}

func (e *Engine) GetAnalysisEvents() []analysis.Event {
	return e.events.list()
}

func (e *Engine) AddMonitoringRule(rule analysis.MonitoringRule) error {
	if err := e.rules.add(rule); err != nil {
		return err
	}
	e.logger.Info("monitoring rule added", zap.String("rule_id", rule.ID))
	return nil
}

func (e *Engine) SetMonitoringRuleEnabled(id string, enabled bool) error {
	if err := e.rules.setEnabled(id, enabled); err != nil {
		return err
	}
	e.logger.Info("monitoring rule updated", zap.String("rule_id", id), zap.Bool("enabled", enabled))
	return nil
}

func (e *Engine) RemoveMonitoringRule(id string) error {
	if err := e.rules.remove(id); err != nil {
		return err
	}
	e.logger.Info("monitoring rule removed", zap.String("rule_id", id))
	return nil
}

// FlushNotifications waits until every queued monitoring notification has
// been attempted.
func (e *Engine) FlushNotifications(ctx context.Context) error {
	if e.rules.dispatch == nil {
		return nil
	}
	return e.rules.dispatch.flush(ctx)
}

// Close stops notification delivery after draining the queue. Analyses that
// fire rules afterwards record their notifications as failed.
func (e *Engine) Close(ctx context.Context) error {
	if e.rules.dispatch == nil {
		return nil
	}
	return e.rules.dispatch.close(ctx)
}
