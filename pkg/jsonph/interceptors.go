package jsonph

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/fivetwenty-io/jsonplaceholder-client/internal/constants"
)

// Supported request methods.
const (
	MethodGet    = http.MethodGet
	MethodPost   = http.MethodPost
	MethodPut    = http.MethodPut
	MethodDelete = http.MethodDelete
)

// Origin records where a response came from.
type Origin string

const (
	// OriginNetwork marks a response returned by the transport.
	OriginNetwork Origin = "network"
	// OriginCache marks a response synthesised from the cache store.
	OriginCache Origin = "cache"
)

var errPathPrefix = errors.New("must start with /")

// Request describes one logical call. Interceptors that change it return a
// copy; the caller's value is never modified.
type Request struct {
	ID       string                 `json:"id"`
	Method   string                 `json:"method"`
	Path     string                 `json:"path"`
	Headers  http.Header            `json:"headers,omitempty"`
	Body     []byte                 `json:"body,omitempty"`
	Timeout  time.Duration          `json:"timeout,omitempty"`
	Metadata map[string]interface{} `json:"-"`
}

// Validate checks the descriptor before anything is dispatched.
func (r Request) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Method, validation.Required, validation.In(MethodGet, MethodPost, MethodPut, MethodDelete)),
		validation.Field(&r.Path, validation.Required, validation.By(absolutePath)),
	)
}

func absolutePath(value interface{}) error {
	path, _ := value.(string)
	if path != "" && !strings.HasPrefix(path, "/") {
		return errPathPrefix
	}

	return nil
}

// Clone returns a deep copy of the request.
func (r *Request) Clone() *Request {
	clone := *r
	clone.Headers = r.Headers.Clone()

	if r.Body != nil {
		clone.Body = append([]byte(nil), r.Body...)
	}

	if r.Metadata != nil {
		clone.Metadata = make(map[string]interface{}, len(r.Metadata))
		for key, value := range r.Metadata {
			clone.Metadata[key] = value
		}
	}

	return &clone
}

// Response is the result of a transport dispatch or a cache hit.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Origin     Origin
}

// IsSuccess reports a 2xx status.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= constants.HTTPStatusOK && r.StatusCode < constants.HTTPStatusMultipleChoices
}

// Transport performs the network call for a request. Implementations return
// a Response for every HTTP status and an error only when no response was
// received.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, req *Request) (*Response, error)

// Do implements Transport.
func (f TransportFunc) Do(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// RequestInterceptor is called before a request is sent. Returning a non-nil
// Response short-circuits the remaining request interceptors and the transport.
type RequestInterceptor func(ctx context.Context, req *Request) (*Request, *Response, error)

// ResponseInterceptor is called after a response (or failure) is produced and
// returns what the next interceptor sees.
type ResponseInterceptor func(ctx context.Context, req *Request, resp *Response, err error) (*Response, error)

// InterceptorChain manages a chain of interceptors.
type InterceptorChain struct {
	requestInterceptors  []RequestInterceptor
	responseInterceptors []ResponseInterceptor
}

// NewInterceptorChain creates a new interceptor chain.
func NewInterceptorChain() *InterceptorChain {
	return &InterceptorChain{
		requestInterceptors:  make([]RequestInterceptor, 0),
		responseInterceptors: make([]ResponseInterceptor, 0),
	}
}

// AddRequestInterceptor adds a request interceptor to the chain.
func (c *InterceptorChain) AddRequestInterceptor(interceptor RequestInterceptor) {
	c.requestInterceptors = append(c.requestInterceptors, interceptor)
}

// AddResponseInterceptor adds a response interceptor to the chain.
func (c *InterceptorChain) AddResponseInterceptor(interceptor ResponseInterceptor) {
	c.responseInterceptors = append(c.responseInterceptors, interceptor)
}

// ExecuteRequestInterceptors runs request interceptors in order until one
// fails or short-circuits with a response.
func (c *InterceptorChain) ExecuteRequestInterceptors(ctx context.Context, req *Request) (*Request, *Response, error) {
	current := req

	for _, interceptor := range c.requestInterceptors {
		next, resp, err := interceptor(ctx, current)
		if err != nil {
			return current, nil, fmt.Errorf("request interceptor failed: %w", err)
		}

		if next != nil {
			current = next
		}

		if resp != nil {
			return current, resp, nil
		}
	}

	return current, nil, nil
}

// ExecuteResponseInterceptors runs every response interceptor in order. A
// failure is passed along rather than stopping the chain.
func (c *InterceptorChain) ExecuteResponseInterceptors(ctx context.Context, req *Request, resp *Response, err error) (*Response, error) {
	for _, interceptor := range c.responseInterceptors {
		resp, err = interceptor(ctx, req, resp, err)
	}

	return resp, err
}

// Pipeline runs a request through the chain and the transport.
type Pipeline struct {
	chain     *InterceptorChain
	transport Transport
}

// NewPipeline creates a pipeline around transport.
func NewPipeline(transport Transport, chain *InterceptorChain) (*Pipeline, error) {
	if transport == nil {
		return nil, ErrTransportRequired
	}

	if chain == nil {
		chain = NewInterceptorChain()
	}

	return &Pipeline{chain: chain, transport: transport}, nil
}

// Execute performs one logical call. Invalid descriptors fail with a
// validation error before any interceptor runs.
func (p *Pipeline) Execute(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, NewValidationError("request is required", ErrInvalidRequest)
	}

	err := req.Validate()
	if err != nil {
		return nil, NewValidationError("invalid request", err)
	}

	dispatched := req.Clone()
	if dispatched.ID == "" {
		dispatched.ID = uuid.NewString()
	}

	dispatched, resp, err := p.chain.ExecuteRequestInterceptors(ctx, dispatched)
	if err == nil && resp == nil {
		resp, err = p.transport.Do(ctx, dispatched)
		if resp != nil && resp.Origin == "" {
			resp.Origin = OriginNetwork
		}
	}

	resp, err = p.chain.ExecuteResponseInterceptors(ctx, dispatched, resp, err)
	if err != nil {
		return nil, err
	}

	return resp, nil
}

// PipelineOptions selects the standard interceptors.
type PipelineOptions struct {
	// BaseURL prefixes paths in outbound log events.
	BaseURL string
	// Headers are merged into every request; per-request headers win.
	Headers http.Header
	// Logger receives request/response events. Nil disables logging.
	Logger Logger
	// Cache enables cache lookup and population for GET requests.
	Cache *CacheStore
	// Metrics records call counts and latency.
	Metrics *MetricsCollector
}

// NewStandardPipeline builds the fixed interceptor order: header merge,
// outbound log, cache lookup, transport, inbound log, cache population, error
// normalisation. Retries happen inside the transport and are not logged
// individually, so each call yields one outbound and one inbound event.
func NewStandardPipeline(transport Transport, opts PipelineOptions) (*Pipeline, error) {
	logger := opts.Logger
	if logger == nil {
		logger = NopLogger{}
	}

	chain := NewInterceptorChain()

	if opts.Metrics != nil {
		chain.AddRequestInterceptor(MetricsRequestInterceptor(opts.Metrics))
	}

	chain.AddRequestInterceptor(HeaderInterceptor(opts.Headers))
	chain.AddRequestInterceptor(LoggingInterceptor(logger, opts.BaseURL))

	if opts.Cache != nil {
		chain.AddRequestInterceptor(CacheRequestInterceptor(opts.Cache, opts.Metrics))
	}

	chain.AddResponseInterceptor(LoggingResponseInterceptor(logger))

	if opts.Cache != nil {
		chain.AddResponseInterceptor(CacheResponseInterceptor(opts.Cache))
	}

	chain.AddResponseInterceptor(ErrorNormalizationInterceptor())

	if opts.Metrics != nil {
		chain.AddResponseInterceptor(MetricsResponseInterceptor(opts.Metrics))
	}

	return NewPipeline(transport, chain)
}

// Common Interceptors

// HeaderInterceptor merges default headers into a copy of the request.
func HeaderInterceptor(headers http.Header) RequestInterceptor {
	return func(ctx context.Context, req *Request) (*Request, *Response, error) {
		if len(headers) == 0 {
			return req, nil, nil
		}

		merged := req.Clone()
		if merged.Headers == nil {
			merged.Headers = make(http.Header, len(headers))
		}

		for key, values := range headers {
			if merged.Headers.Get(key) != "" {
				continue
			}

			for _, value := range values {
				merged.Headers.Add(key, value)
			}
		}

		return merged, nil, nil
	}
}

// LoggingInterceptor logs the request as dispatched.
func LoggingInterceptor(logger Logger, baseURL string) RequestInterceptor {
	return func(ctx context.Context, req *Request) (*Request, *Response, error) {
		logger.Info("Outgoing Request", map[string]interface{}{
			"type":       "request",
			"method":     req.Method,
			"url":        baseURL + req.Path,
			"request_id": req.ID,
		})

		return req, nil, nil
	}
}

// LoggingResponseInterceptor logs exactly one inbound event: the response as
// returned, or the failure when there is none.
func LoggingResponseInterceptor(logger Logger) ResponseInterceptor {
	return func(ctx context.Context, req *Request, resp *Response, err error) (*Response, error) {
		fields := map[string]interface{}{
			"url":        req.Path,
			"request_id": req.ID,
		}

		switch {
		case resp != nil && resp.StatusCode < constants.HTTPStatusBadRequest:
			fields["type"] = "response"
			fields["status"] = resp.StatusCode
			fields["origin"] = string(resp.Origin)
			logger.Info("Incoming Response", fields)
		case resp != nil:
			fields["type"] = "error"
			fields["status"] = resp.StatusCode
			fields["message"] = fmt.Sprintf("request failed with status %d", resp.StatusCode)
			logger.Error("Request Failed", fields)
		default:
			fields["type"] = "error"
			if err != nil {
				fields["message"] = err.Error()
			}

			logger.Error("Request Failed", fields)
		}

		return resp, err
	}
}

// CacheRequestInterceptor answers GET requests from the cache store. A hit is
// returned as a 200 with OriginCache.
func CacheRequestInterceptor(store *CacheStore, metrics *MetricsCollector) RequestInterceptor {
	return func(ctx context.Context, req *Request) (*Request, *Response, error) {
		key, ok := CacheKey(req)
		if !ok {
			return req, nil, nil
		}

		body, hit := store.Get(ctx, key)
		metrics.recordCacheLookup(hit)

		if !hit {
			return req, nil, nil
		}

		headers := make(http.Header)
		headers.Set(constants.CacheHeader, constants.CacheHitValue)
		headers.Set("Content-Type", constants.DefaultContentType)

		return req, &Response{
			StatusCode: http.StatusOK,
			Headers:    headers,
			Body:       body,
			Origin:     OriginCache,
		}, nil
	}
}

// CacheResponseInterceptor stores the body of successful network GET
// responses. Cache-served responses are never written back.
func CacheResponseInterceptor(store *CacheStore) ResponseInterceptor {
	return func(ctx context.Context, req *Request, resp *Response, err error) (*Response, error) {
		if err != nil || resp == nil || resp.Origin != OriginNetwork || !resp.IsSuccess() {
			return resp, err
		}

		key, ok := CacheKey(req)
		if ok {
			store.Set(ctx, key, resp.Body, 0)
		}

		return resp, err
	}
}

// ErrorNormalizationInterceptor converts failures into *Error values.
func ErrorNormalizationInterceptor() ResponseInterceptor {
	return func(ctx context.Context, req *Request, resp *Response, err error) (*Response, error) {
		normalized := NormalizeError(req, resp, err)
		if normalized != nil {
			return nil, normalized
		}

		return resp, nil
	}
}
