// Command voice-lambda fronts the receptionist API behind API Gateway. It
// relays the session endpoints the telephony bridge uses and nothing else.
package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
)

// Turns can wait on a calendar round trip, so this sits above the API's
// CALENDAR_TIMEOUT.
const defaultUpstreamTimeout = 15 * time.Second

type config struct {
	upstreamBaseURL string
	upstreamTimeout time.Duration
}

func loadConfig() (config, error) {
	base := strings.TrimRight(strings.TrimSpace(os.Getenv("UPSTREAM_BASE_URL")), "/")
	if base == "" {
		return config{}, errors.New("UPSTREAM_BASE_URL is required")
	}
	cfg := config{upstreamBaseURL: base, upstreamTimeout: defaultUpstreamTimeout}
	if raw := strings.TrimSpace(os.Getenv("UPSTREAM_TIMEOUT")); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return config{}, fmt.Errorf("invalid UPSTREAM_TIMEOUT: %w", err)
		}
		cfg.upstreamTimeout = d
	}
	return cfg, nil
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		panic(err)
	}
	r := newRelay(cfg, &http.Client{Timeout: cfg.upstreamTimeout})
	lambda.Start(r.serve)
}

var (
	sessionPath = regexp.MustCompile(`^/v1/sessions/[A-Za-z0-9-]+$`)
	turnPath    = regexp.MustCompile(`^/v1/sessions/[A-Za-z0-9-]+/turns$`)
)

// route is the method a relayed path accepts, or "" for unknown paths.
func route(path string) string {
	switch {
	case path == "/v1/sessions", turnPath.MatchString(path):
		return http.MethodPost
	case sessionPath.MatchString(path):
		return http.MethodDelete
	case path == "/v1/availability":
		return http.MethodGet
	}
	return ""
}

// relay forwards API Gateway HTTP events to the receptionist API.
type relay struct {
	cfg    config
	client *http.Client
}

func newRelay(cfg config, client *http.Client) *relay {
	return &relay{cfg: cfg, client: client}
}

func reply(status int, body string) events.APIGatewayV2HTTPResponse {
	return events.APIGatewayV2HTTPResponse{StatusCode: status, Body: body}
}

func (r *relay) serve(ctx context.Context, evt events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	method := strings.ToUpper(strings.TrimSpace(evt.RequestContext.HTTP.Method))
	path := strings.TrimSpace(evt.RawPath)
	if path == "" {
		path = strings.TrimSpace(evt.RequestContext.HTTP.Path)
	}
	if path == "/health" || path == "/_health" {
		return reply(http.StatusOK, "ok"), nil
	}

	switch want := route(path); {
	case want == "":
		return reply(http.StatusNotFound, ""), nil
	case want != method:
		return reply(http.StatusMethodNotAllowed, ""), nil
	}

	body, err := decodeBody(evt)
	if err != nil {
		return reply(http.StatusBadRequest, "invalid body"), nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.upstreamTimeout)
	defer cancel()
	req, err := r.upstreamRequest(ctx, method, path, body, evt)
	if err != nil {
		return reply(http.StatusInternalServerError, ""), nil
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return reply(http.StatusBadGateway, "upstream error"), nil
	}
	defer resp.Body.Close()
	return toEvent(resp), nil
}

func (r *relay) upstreamRequest(ctx context.Context, method, path string, body []byte, evt events.APIGatewayV2HTTPRequest) (*http.Request, error) {
	target := r.cfg.upstreamBaseURL + path
	if qs := strings.TrimSpace(evt.RawQueryString); qs != "" {
		target += "?" + qs
	}
	var payload io.Reader
	if len(body) > 0 {
		payload = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, payload)
	if err != nil {
		return nil, err
	}

	if ct := lookup(evt.Headers, "content-type"); ct != "" {
		req.Header.Set("Content-Type", ct)
	}
	reqID := lookup(evt.Headers, "x-request-id")
	if reqID == "" {
		reqID = strings.TrimSpace(evt.RequestContext.RequestID)
	}
	if reqID != "" {
		req.Header.Set("X-Request-ID", reqID)
	}
	if ip := strings.TrimSpace(evt.RequestContext.HTTP.SourceIP); ip != "" {
		req.Header.Set("X-Real-IP", ip)
	}
	return req, nil
}

// toEvent copies status, body and the headers the bridge reads.
func toEvent(resp *http.Response) events.APIGatewayV2HTTPResponse {
	raw, _ := io.ReadAll(resp.Body)
	out := reply(resp.StatusCode, string(raw))
	out.Headers = map[string]string{}
	for _, h := range []string{"Content-Type", "Retry-After"} {
		if v := resp.Header.Get(h); v != "" {
			out.Headers[strings.ToLower(h)] = v
		}
	}
	return out
}

func decodeBody(evt events.APIGatewayV2HTTPRequest) ([]byte, error) {
	if !evt.IsBase64Encoded {
		return []byte(evt.Body), nil
	}
	return base64.StdEncoding.DecodeString(evt.Body)
}

// lookup is a case-insensitive header read; API Gateway lowercases most but
// not all of them.
func lookup(headers map[string]string, key string) string {
	for k, v := range headers {
		if strings.EqualFold(k, key) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
