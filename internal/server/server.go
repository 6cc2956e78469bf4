package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	eventbus "github.com/hanpama/jobgraph/internal/eventbus"
	events "github.com/hanpama/jobgraph/internal/events"
	executor "github.com/hanpama/jobgraph/internal/executor"
	language "github.com/hanpama/jobgraph/internal/language"
	reqid "github.com/hanpama/jobgraph/internal/reqid"
	schema "github.com/hanpama/jobgraph/internal/schema"
)

// Error codes reported for requests rejected before execution.
const (
	CodeParseFailed      = "GRAPHQL_PARSE_FAILED"
	CodeValidationFailed = "GRAPHQL_VALIDATION_FAILED"
	CodeMissingArgument  = "MISSING_ARGUMENT"
	CodeTypeMismatch     = "TYPE_MISMATCH"
	CodeBadRequest       = "BAD_REQUEST"
)

// Handler is an http.Handler that serves a GraphQL endpoint.
// It parses and validates requests, runs the executor, and formats responses
// per the GraphQL response format.
type Handler struct {
	exec      *executor.Executor
	validator *language.ValidatedSchema
	sdl       string
	opt       Options
}

type Options struct {
	// Timeout sets a default timeout if the incoming request context has none.
	// 0 means no default timeout.
	Timeout time.Duration

	// Pretty enables indented JSON responses (useful for dev).
	Pretty bool

	// MaxBodyBytes limits the size of the request body. 0 means unlimited.
	MaxBodyBytes int64

	// CORS configuration. If AllowedOrigins is empty, CORS is disabled.
	CORS CORSOptions

	// HealthCheck backs GET /healthz. Nil reports healthy unconditionally.
	HealthCheck func(context.Context) error
}

type Option func(*Options)

func WithTimeout(d time.Duration) Option { return func(o *Options) { o.Timeout = d } }
func WithPretty() Option                 { return func(o *Options) { o.Pretty = true } }
func WithMaxBodyBytes(n int64) Option    { return func(o *Options) { o.MaxBodyBytes = n } }
func WithCORS(origins ...string) Option {
	return func(o *Options) { o.CORS.AllowedOrigins = origins }
}
func WithHealthCheck(fn func(context.Context) error) Option {
	return func(o *Options) { o.HealthCheck = fn }
}

// CORSOptions holds simple CORS settings.
type CORSOptions struct {
	AllowedOrigins []string
}

// New creates a GraphQL HTTP handler for exec. Requests are validated
// against the SDL rendered from the executor's schema.
func New(exec *executor.Executor, opts ...Option) (*Handler, error) {
	sdl := schema.Render(exec.Schema())
	validator, err := language.LoadSchema("schema.graphql", sdl)
	if err != nil {
		return nil, err
	}
	op := Options{Timeout: 10 * time.Second}
	for _, f := range opts {
		f(&op)
	}
	return &Handler{exec: exec, validator: validator, sdl: sdl, opt: op}, nil
}

// Routes mounts the GraphQL endpoint at /graphql next to /schema.graphql
// and /healthz.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/graphql", h)
	mux.HandleFunc("GET /schema.graphql", h.serveSchema)
	mux.HandleFunc("GET /healthz", h.serveHealth)
	return mux
}

func (h *Handler) serveSchema(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, h.sdl)
}

func (h *Handler) serveHealth(w http.ResponseWriter, r *http.Request) {
	if h.opt.HealthCheck != nil {
		if err := h.opt.HealthCheck(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()}, h.opt.Pretty)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, h.opt.Pretty)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := ctx.Deadline(); !ok && h.opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opt.Timeout)
		defer cancel()
	}

	var rid string
	if fwd := r.Header.Get(reqid.Header); fwd != "" {
		ctx, rid = reqid.WithID(ctx, fwd)
	} else {
		ctx, rid = reqid.NewContext(ctx)
	}
	w.Header().Set(reqid.Header, rid)

	status, ops := http.StatusOK, 0
	start := time.Now()
	eventbus.Publish(ctx, events.HTTPStart{Request: r})
	defer func() {
		eventbus.Publish(ctx, events.HTTPFinish{Request: r, Status: status, Operations: ops, Duration: time.Since(start)})
	}()

	if r.Method == http.MethodOptions {
		if len(h.opt.CORS.AllowedOrigins) > 0 {
			setCORSHeaders(w, r, h.opt.CORS)
		}
		status = http.StatusNoContent
		w.WriteHeader(status)
		return
	}

	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		status = http.StatusMethodNotAllowed
		writeJSON(w, status, requestError("method not allowed"), h.opt.Pretty)
		return
	}

	req, batch, berr := parseRequest(r, h.opt.MaxBodyBytes)
	if berr != nil {
		status = http.StatusBadRequest
		if berr.Message == errBodyTooLargeMessage {
			status = http.StatusRequestEntityTooLarge
		}
		writeJSON(w, status, &executor.ExecutionResult{Errors: []executor.GraphQLError{*berr}}, h.opt.Pretty)
		return
	}

	if len(h.opt.CORS.AllowedOrigins) > 0 {
		setCORSHeaders(w, r, h.opt.CORS)
	}

	if batch != nil {
		ops = len(batch)
		out := make([]*executor.ExecutionResult, len(batch))
		for i := range batch {
			out[i] = h.executeOne(ctx, r.Method, batch[i])
		}
		writeJSON(w, status, out, h.opt.Pretty)
		return
	}

	ops = 1
	writeJSON(w, status, h.executeOne(ctx, r.Method, req), h.opt.Pretty)
}

func (h *Handler) executeOne(ctx context.Context, method string, req GraphQLRequest) *executor.ExecutionResult {
	doc, errs := language.LoadQuery(h.validator, req.Query)
	if len(errs) > 0 {
		return validationResult(errs)
	}

	opDef := executor.GetOperation(doc, req.OperationName)
	opType := ""
	if opDef != nil {
		opType = string(opDef.Operation)
	}
	// Mutations over GET would be cacheable by intermediaries.
	if method == http.MethodGet && opDef != nil && opDef.Operation == language.Mutation {
		return requestError("mutations are not allowed over GET")
	}

	start := time.Now()
	eventbus.Publish(ctx, events.GraphQLStart{Query: req.Query, OperationName: req.OperationName, OperationType: opType})
	result := h.exec.ExecuteRequest(ctx, doc, req.OperationName, req.Variables, nil)
	errList := make([]error, len(result.Errors))
	for i := range result.Errors {
		errList[i] = result.Errors[i]
	}
	eventbus.Publish(ctx, events.GraphQLFinish{
		OperationName: req.OperationName,
		OperationType: opType,
		Errors:        errList,
		Duration:      time.Since(start),
	})
	return result
}

// ------------------ Request parsing ------------------

type GraphQLRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
	Extensions    map[string]any `json:"extensions,omitempty"`
}

func parseRequest(r *http.Request, maxBody int64) (GraphQLRequest, []GraphQLRequest, *executor.GraphQLError) {
	if r.Method == http.MethodGet {
		q := r.URL.Query().Get("query")
		if q == "" {
			return GraphQLRequest{}, nil, badRequest("missing 'query'")
		}
		vars := map[string]any{}
		if v := r.URL.Query().Get("variables"); v != "" {
			if err := json.Unmarshal([]byte(v), &vars); err != nil {
				return GraphQLRequest{}, nil, badRequest("invalid 'variables' JSON")
			}
		}
		op := r.URL.Query().Get("operationName")
		return GraphQLRequest{Query: q, Variables: vars, OperationName: op}, nil, nil
	}

	// POST
	ct := r.Header.Get("Content-Type")
	if ct != "" && ct != "application/json" && !strings.HasPrefix(ct, "application/json;") {
		return GraphQLRequest{}, nil, badRequest("unsupported Content-Type")
	}
	reader := io.Reader(r.Body)
	if maxBody > 0 {
		reader = io.LimitReader(r.Body, maxBody+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return GraphQLRequest{}, nil, badRequest("failed to read body")
	}
	defer r.Body.Close()
	if maxBody > 0 && int64(len(body)) > maxBody {
		return GraphQLRequest{}, nil, badRequest(errBodyTooLargeMessage)
	}

	// Try array (batch)
	if len(body) > 0 && body[0] == '[' {
		var arr []GraphQLRequest
		if err := json.Unmarshal(body, &arr); err != nil {
			return GraphQLRequest{}, nil, badRequest("invalid JSON")
		}
		if len(arr) == 0 {
			return GraphQLRequest{}, nil, badRequest("empty batch")
		}
		return GraphQLRequest{}, arr, nil
	}
	var req GraphQLRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return GraphQLRequest{}, nil, badRequest("invalid JSON")
	}
	if req.Query == "" {
		return GraphQLRequest{}, nil, badRequest("missing 'query'")
	}
	if req.Variables == nil {
		req.Variables = map[string]any{}
	}
	return req, nil, nil
}

// ------------------ Response formatting ------------------

const errBodyTooLargeMessage = "body too large"

func badRequest(msg string) *executor.GraphQLError {
	return &executor.GraphQLError{Message: msg, Extensions: map[string]any{"code": CodeBadRequest}}
}

// requestError reports a request-level failure as a response without data.
func requestError(msg string) *executor.ExecutionResult {
	return &executor.ExecutionResult{Errors: []executor.GraphQLError{*badRequest(msg)}}
}

// validationResult converts parser and validator errors. Rules that mirror
// argument binding failures report the binder's codes.
func validationResult(errs language.ErrorList) *executor.ExecutionResult {
	out := &executor.ExecutionResult{Errors: make([]executor.GraphQLError, 0, len(errs))}
	for _, e := range errs {
		ge := executor.GraphQLError{
			Message:    e.Message,
			Extensions: map[string]any{"code": validationCode(e.Rule)},
		}
		for _, loc := range e.Locations {
			ge.Locations = append(ge.Locations, executor.Location{Line: loc.Line, Column: loc.Column})
		}
		out.Errors = append(out.Errors, ge)
	}
	return out
}

func validationCode(rule string) string {
	switch rule {
	case "":
		return CodeParseFailed
	case "ProvidedRequiredArguments":
		return CodeMissingArgument
	case "ValuesOfCorrectType":
		return CodeTypeMismatch
	}
	return CodeValidationFailed
}

func writeJSON(w http.ResponseWriter, status int, v any, pretty bool) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	_ = enc.Encode(v)
}

func setCORSHeaders(w http.ResponseWriter, r *http.Request, opts CORSOptions) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}
	allowed := false
	for _, o := range opts.AllowedOrigins {
		if o == "*" || o == origin {
			allowed = true
			break
		}
	}
	if !allowed {
		return
	}
	if contains(opts.AllowedOrigins, "*") {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	} else {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Add("Vary", "Origin")
	}
	if r.Method == http.MethodOptions {
		if hdr := r.Header.Get("Access-Control-Request-Headers"); hdr != "" {
			w.Header().Set("Access-Control-Allow-Headers", hdr)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
