package dispatch

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/webfunc/internal/cors"
	"github.com/vyrodovalexey/webfunc/internal/handler"
	"github.com/vyrodovalexey/webfunc/internal/observability"
	"github.com/vyrodovalexey/webfunc/internal/params"
	"github.com/vyrodovalexey/webfunc/internal/registry"
	"github.com/vyrodovalexey/webfunc/internal/util"
)

// Pipeline dispatches requests to the endpoints of a registry.
type Pipeline struct {
	registry *registry.Registry
	config   Config
	policy   *cors.Policy

	pre  PreEventHook
	post PostEventHook

	logger  observability.Logger
	metrics *observability.Metrics
	tracer  *observability.Tracer
	newID   func() string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = metrics
	}
}

// WithTracer sets the tracer.
func WithTracer(tracer *observability.Tracer) Option {
	return func(p *Pipeline) {
		p.tracer = tracer
	}
}

// WithPreEvent sets the hook run before CORS validation.
func WithPreEvent(hook PreEventHook) Option {
	return func(p *Pipeline) {
		p.pre = hook
	}
}

// WithPostEvent sets the hook run after every request.
func WithPostEvent(hook PostEventHook) Option {
	return func(p *Pipeline) {
		p.post = hook
	}
}

// WithIDGenerator overrides the transaction id generator.
func WithIDGenerator(gen func() string) Option {
	return func(p *Pipeline) {
		p.newID = gen
	}
}

// New creates a pipeline over reg.
func New(reg *registry.Registry, cfg Config, opts ...Option) (*Pipeline, error) {
	if reg == nil {
		return nil, errors.New("dispatch: registry is required")
	}
	normalized, err := cfg.normalized()
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		registry: reg,
		config:   normalized,
		policy:   cors.PolicyFromHeaders(normalized.Headers),
		logger:   observability.NopLogger(),
		tracer:   observability.NoopTracer(),
		newID:    func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = observability.NopLogger()
	}
	if p.tracer == nil {
		p.tracer = observability.NoopTracer()
	}

	return p, nil
}

// WithConfig returns a new pipeline using cfg and sharing everything else
// with p.
func (p *Pipeline) WithConfig(cfg Config) (*Pipeline, error) {
	normalized, err := cfg.normalized()
	if err != nil {
		return nil, err
	}
	clone := *p
	clone.config = normalized
	clone.policy = cors.PolicyFromHeaders(normalized.Headers)
	return &clone, nil
}

// Config returns a copy of the pipeline configuration.
func (p *Pipeline) Config() Config {
	cfg, _ := p.config.normalized()
	return cfg
}

// Registry returns the registry the pipeline resolves against.
func (p *Pipeline) Registry() *registry.Registry {
	return p.registry
}

// dispatchState tracks one request through the stages.
type dispatchState struct {
	p      *Pipeline
	req    *handler.Request
	res    handler.ResponseWriter
	logger observability.Logger
	span   trace.Span

	stage    Stage
	err      error
	errStage Stage
	endpoint string
}

// Dispatch runs req through the pipeline and writes at most one response to
// res.
func (p *Pipeline) Dispatch(ctx context.Context, req *handler.Request, res handler.ResponseWriter) {
	if ctx == nil {
		ctx = req.Context()
	}

	// RECEIVED
	if req.TransactionID == "" {
		req.TransactionID = p.newID()
	}
	if req.ReceivedAt.IsZero() {
		req.ReceivedAt = time.Now()
	}
	req.SetParamsName(p.config.ParamsPropName)

	ctx, span := p.tracer.StartDispatch(ctx, req.Header, req.Method, req.Path, req.TransactionID)
	defer span.End()

	ctx = util.ContextWithStartTime(ctx, req.ReceivedAt)
	req.SetContext(ctx)

	st := &dispatchState{
		p:      p,
		req:    req,
		res:    res,
		logger: p.logger.WithContext(ctx),
		span:   span,
		stage:  StageReceived,
	}

	p.metrics.IncInFlight()
	defer p.metrics.DecInFlight()

	defer func() {
		// Last line of defence: nothing escapes Dispatch.
		if r := recover(); r != nil {
			st.logger.Error("dispatch panicked outside a stage",
				observability.Any("panic", r),
				observability.String("stack", string(debug.Stack())),
			)
		}
	}()

	st.run()
}

func (st *dispatchState) run() {
	if st.preEvent() && st.corsCheck() {
		if ep, ok := st.routing(); ok {
			st.paramMerge()
			st.handlerChain(ep)
		}
	}
	st.postEvent()
	st.complete()
}

func (st *dispatchState) enter(stage Stage) {
	st.stage = stage
	st.span.AddEvent(stage.String())
}

// preEvent reports whether the pipeline should continue.
func (st *dispatchState) preEvent() bool {
	st.enter(StagePreEvent)
	if st.p.pre == nil {
		return true
	}

	if err := st.call(StagePreEvent, func() error { return st.p.pre(st.req, st.res) }); err != nil {
		st.fail(StagePreEvent, err)
		return false
	}
	return !st.res.HeadersSent()
}

func (st *dispatchState) corsCheck() bool {
	st.enter(StageCorsCheck)

	decision := cors.Validate(
		st.req.Header.Get("Origin"),
		st.req.Header.Get("Referer"),
		st.req.Method,
		st.p.policy,
	)
	if !decision.Allowed {
		st.p.metrics.RecordCorsDenied(decision.Reason.Label())
		st.logger.Warn("request rejected by cors policy",
			observability.String("origin", decision.Origin),
			observability.String("method", decision.Method),
			observability.Error(decision.Err()),
		)
		st.write(http.StatusForbidden, decision.Message())
		return false
	}

	decision.Apply(st.res.Header())
	return true
}

// routing resolves the endpoint. HEAD and OPTIONS are answered with an
// empty 200 without consulting the registry.
func (st *dispatchState) routing() (*registry.Resolution, bool) {
	st.enter(StageRouting)

	method := strings.ToUpper(st.req.Method)
	if method == http.MethodHead || method == http.MethodOptions {
		st.span.AddEvent("short_circuit")
		st.write(http.StatusOK, "")
		return nil, false
	}

	resolution, ok := st.p.registry.Resolve(strings.ToLower(st.req.Path), method)
	if !ok {
		notFound := util.NewRouteNotFoundError(method, st.req.Path)
		st.logger.Debug("no endpoint matched",
			observability.String("path", st.req.Path),
			observability.String("method", method),
		)
		st.write(http.StatusNotFound, notFound.Error())
		return nil, false
	}

	st.req.Match = resolution.Match
	st.endpoint = resolution.Match.Route
	st.req.SetContext(util.ContextWithEndpoint(st.req.Context(), st.endpoint))
	st.span.SetAttributes(attribute.String("http.route", st.endpoint))

	return resolution, true
}

func (st *dispatchState) paramMerge() {
	st.enter(StageParamMerge)

	mode := st.p.config.ParamsMode
	var body, query params.Params
	if mode == params.ModeAll || mode == params.ModeBody {
		body = st.req.BodyParams()
		query = st.req.QueryParams()
	}

	merged := params.Merge(st.req.RouteParams(), body, query, mode)
	st.req.Params().Update(merged)
}

func (st *dispatchState) handlerChain(resolution *registry.Resolution) {
	st.enter(StageHandlerChain)

	handlers := resolution.Endpoint.Handlers
	err := st.call(StageHandlerChain, func() error {
		return handler.Run(st.req, st.res, handlers, nil)
	})
	if err != nil {
		st.fail(StageHandlerChain, err)
	}
}

func (st *dispatchState) postEvent() {
	st.enter(StagePostEvent)
	if st.p.post == nil {
		return
	}

	ev := &PostEvent{
		Request:   st.req,
		Response:  st.res,
		Endpoint:  st.endpoint,
		ElapsedMs: float64(st.req.Elapsed()) / float64(time.Millisecond),
		Err:       st.err,
		ErrStage:  st.errStage,
	}

	if err := st.call(StagePostEvent, func() error { return st.p.post(ev) }); err != nil {
		herr := st.wrap(StagePostEvent, err)
		st.report(herr)
		if st.err == nil {
			st.err, st.errStage = herr, StagePostEvent
		}
		if !st.res.HeadersSent() {
			st.send(http.StatusInternalServerError, StagePostEvent.errorPrefix()+herr.Error())
		}
	}
}

func (st *dispatchState) complete() {
	st.enter(StageComplete)

	status := st.res.StatusCode()
	st.p.metrics.RecordRequest(strings.ToUpper(st.req.Method), st.endpoint, status, st.req.Elapsed())

	if st.err != nil {
		st.span.SetStatus(codes.Error, st.err.Error())
	} else if status >= http.StatusInternalServerError {
		st.span.SetStatus(codes.Error, http.StatusText(status))
	}
	st.span.SetAttributes(attribute.Int("http.response.status_code", status))

	st.logger.Debug("request dispatched",
		observability.String("method", st.req.Method),
		observability.String("path", st.req.Path),
		observability.String("endpoint", st.endpoint),
		observability.Int("status", status),
		observability.Duration("duration", st.req.Elapsed()),
	)
}

// call runs fn, converting a panic into a HandlerError.
func (st *dispatchState) call(stage Stage, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = util.NewPanicError(stage.String(), r, debug.Stack())
		}
	}()
	return fn()
}

func (st *dispatchState) wrap(stage Stage, err error) *util.HandlerError {
	var herr *util.HandlerError
	if errors.As(err, &herr) {
		return herr
	}
	return util.NewHandlerError(stage.String(), err)
}

func (st *dispatchState) report(herr *util.HandlerError) {
	fields := []observability.Field{
		observability.String("stage", herr.Stage),
		observability.Error(herr.Cause),
	}
	if len(herr.Stack) > 0 {
		fields = append(fields, observability.String("stack", string(herr.Stack)))
	}
	st.logger.Error("pipeline stage failed", fields...)
	st.p.metrics.RecordStageError(herr.Stage)
	st.span.RecordError(herr)
}

// fail records the first error and answers with a 500 unless a response
// already went out.
func (st *dispatchState) fail(stage Stage, err error) {
	herr := st.wrap(stage, err)
	st.report(herr)

	if st.err != nil {
		return
	}
	st.err, st.errStage = herr, stage
	if !st.res.HeadersSent() {
		st.send(http.StatusInternalServerError, stage.errorPrefix()+herr.Error())
	}
}

// write sends a pipeline response unless an earlier stage failed or a
// response already went out.
func (st *dispatchState) write(status int, body string) {
	if st.err != nil || st.res.HeadersSent() {
		return
	}
	st.send(status, body)
}

func (st *dispatchState) send(status int, body string) {
	var err error
	if body == "" {
		err = st.res.Status(status).End()
	} else {
		err = st.res.Status(status).Send(body)
	}
	if err != nil {
		st.logger.Warn("failed to write response",
			observability.Int("status", status),
			observability.Error(err),
		)
	}
}
