package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mediajel/apidocs/internal/domain"
	"github.com/mediajel/apidocs/internal/repository"
)

const (
	defaultPlaygroundTimeout = 30 * time.Second
	// maxResponseBytes caps how much of a response body is kept.
	maxResponseBytes = 5 << 20

	// RedactedValue replaces credential header values in stored history.
	RedactedValue = "***"
)

// sensitiveHeaders are never stored verbatim. Names containing any of
// sensitiveHeaderParts are redacted as well.
var (
	sensitiveHeaders     = []string{"authorization", "proxy-authorization", "cookie", "set-cookie"}
	sensitiveHeaderParts = []string{"token", "key", "secret", "password", "session"}
)

// PlaygroundMethods are the HTTP methods the playground can send.
var PlaygroundMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete}

// PlaygroundOptions configures request execution. HistoryLimit <= 0 turns
// history recording off.
//
// AllowedHosts lists the hosts requests may target. An entry with a port
// must match host and port; an entry without one matches any port. With no
// entries every request is refused.
type PlaygroundOptions struct {
	Timeout      time.Duration
	HistoryLimit int
	AllowedHosts []string
}

type playgroundService struct {
	history  repository.RequestHistoryRepo
	client   *http.Client
	opts     PlaygroundOptions
	observer UseCaseObserver
	now      func() time.Time
}

// NewPlaygroundService returns a PlaygroundService sending requests with
// client, or a default client when nil.
func NewPlaygroundService(history repository.RequestHistoryRepo, client *http.Client, opts PlaygroundOptions, observers ...UseCaseObserver) PlaygroundService {
	if client == nil {
		client = &http.Client{}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultPlaygroundTimeout
	}
	return &playgroundService{
		history:  history,
		client:   client,
		opts:     opts,
		observer: combineObservers(observers),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *playgroundService) Execute(ctx context.Context, req HTTPRequest) (res *HTTPResult, err error) {
	fields := map[string]any{"method": req.Method}
	done := track(ctx, s.observer, "playground.execute", fields)
	defer func() { done(err) }()

	method, target, err := validateHTTPRequest(req)
	if err != nil {
		return nil, err
	}
	if !hostAllowed(target, s.opts.AllowedHosts) {
		return nil, fmt.Errorf("%w: host %q is not an allowed playground target", ErrInvalidRequest, target.Host)
	}
	fields["host"] = target.Host

	var body io.Reader
	sendBody := hasBody(method) && req.Body != ""
	if sendBody {
		body = strings.NewReader(req.Body)
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	for k, v := range req.Headers {
		if strings.TrimSpace(k) == "" {
			continue
		}
		httpReq.Header.Set(k, v)
	}

	rec := &domain.RequestRecord{
		ID:             uuid.New().String(),
		Method:         method,
		URL:            target.String(),
		RequestHeaders: RedactHeaders(req.Headers),
		CreatedAt:      s.now(),
	}
	if sendBody {
		rec.RequestBody = req.Body
	}

	start := time.Now()
	resp, sendErr := s.client.Do(httpReq)
	if sendErr != nil {
		rec.DurationMs = time.Since(start).Milliseconds()
		rec.Error = sendErr.Error()
		if err := s.record(ctx, rec); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("sending request: %w", sendErr)
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	rec.DurationMs = time.Since(start).Milliseconds()
	rec.StatusCode = resp.StatusCode
	rec.ResponseBody = string(raw)
	if readErr != nil {
		rec.Error = readErr.Error()
	}
	fields["status"] = resp.StatusCode

	if err := s.record(ctx, rec); err != nil {
		return nil, err
	}
	if readErr != nil {
		return nil, fmt.Errorf("reading response: %w", readErr)
	}

	return &HTTPResult{
		Status:     resp.StatusCode,
		StatusText: http.StatusText(resp.StatusCode),
		Headers:    flattenHeaders(resp.Header),
		Body:       string(raw),
		TimeMs:     rec.DurationMs,
	}, nil
}

// record stores rec and trims history to the configured size.
func (s *playgroundService) record(ctx context.Context, rec *domain.RequestRecord) error {
	if s.opts.HistoryLimit <= 0 {
		return nil
	}
	// The request itself may have used up the deadline.
	ctx = context.WithoutCancel(ctx)
	if err := s.history.Create(ctx, rec); err != nil {
		return err
	}
	_, err := s.history.Prune(ctx, s.opts.HistoryLimit)
	return err
}

func (s *playgroundService) History(ctx context.Context, limit int) ([]*domain.RequestRecord, error) {
	return s.history.ListRecent(ctx, limit)
}

func (s *playgroundService) ClearHistory(ctx context.Context) error {
	return s.history.Clear(ctx)
}

func validateHTTPRequest(req HTTPRequest) (string, *url.URL, error) {
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	known := false
	for _, m := range PlaygroundMethods {
		if m == method {
			known = true
			break
		}
	}
	if !known {
		return "", nil, fmt.Errorf("%w: unsupported method %q", ErrInvalidRequest, req.Method)
	}

	target, err := url.Parse(strings.TrimSpace(req.URL))
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if (target.Scheme != "http" && target.Scheme != "https") || target.Host == "" {
		return "", nil, fmt.Errorf("%w: url must be absolute http(s), got %q", ErrInvalidRequest, req.URL)
	}
	return method, target, nil
}

func hostAllowed(target *url.URL, allowed []string) bool {
	for _, entry := range allowed {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if _, _, err := net.SplitHostPort(entry); err == nil {
			if strings.EqualFold(entry, target.Host) {
				return true
			}
			continue
		}
		if strings.EqualFold(strings.Trim(entry, "[]"), target.Hostname()) {
			return true
		}
	}
	return false
}

// RedactHeaders returns a copy of headers with credential values replaced
// by RedactedValue.
func RedactHeaders(headers map[string]string) map[string]string {
	if headers == nil {
		return nil
	}
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		if sensitiveHeader(k) {
			v = RedactedValue
		}
		out[k] = v
	}
	return out
}

func sensitiveHeader(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, h := range sensitiveHeaders {
		if name == h {
			return true
		}
	}
	for _, part := range sensitiveHeaderParts {
		if strings.Contains(name, part) {
			return true
		}
	}
	return false
}

func hasBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}

// flattenHeaders joins repeated values and lowercases names.
func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, vs := range h {
		out[strings.ToLower(k)] = strings.Join(vs, ", ")
	}
	return out
}

// GraphQLAuth is the credential pair the documented API expects.
type GraphQLAuth struct {
	Token  string
	OrgKey string
}

// BuildGraphQLRequest composes a POST of query to endpoint. Variables are
// omitted when empty.
func BuildGraphQLRequest(endpoint string, auth GraphQLAuth, query string, variables any) (HTTPRequest, error) {
	body := graphQLBody{Query: query}
	if _, ok := variablesJSON(variables); ok {
		body.Variables = variables
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return HTTPRequest{}, fmt.Errorf("%w: encoding variables: %v", ErrInvalidRequest, err)
	}

	headers := map[string]string{"Content-Type": "application/json"}
	if auth.Token != "" {
		headers["Authorization"] = "Bearer " + auth.Token
	}
	if auth.OrgKey != "" {
		headers["Key"] = auth.OrgKey
	}
	return HTTPRequest{
		Method:  http.MethodPost,
		URL:     endpoint,
		Headers: headers,
		Body:    string(raw),
	}, nil
}
