package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/csheth/oeescout/internal/filters"
	"github.com/csheth/oeescout/internal/oee"
)

const (
	defaultBaseURL     = "http://localhost:8000"
	defaultHTTPTimeout = 2 * time.Minute
	maxErrorBodyBytes  = 512
)

var (
	// ErrBackend marks a request the backend rejected or could not serve.
	ErrBackend = errors.New("backend error")
	// ErrDecode marks a response whose shape could not be trusted.
	ErrDecode = errors.New("unexpected backend response")
)

// Config describes how to reach the OEE backend.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Query is a free-text question scoped by a filter selection.
type Query struct {
	Text      string
	Selection filters.Selection
}

// Answer is a successful query reply. Metrics is nil when the backend
// returned no snapshot.
type Answer struct {
	Text    string
	Metrics *oee.Metrics
}

// Backend exposes the collaborator calls the dialogue depends on.
type Backend interface {
	FetchFilterCatalog(ctx context.Context) (filters.Options, error)
	UploadDataset(ctx context.Context, filename string, data []byte) error
	SubmitQuery(ctx context.Context, q Query) (Answer, error)
	Health(ctx context.Context) error
	Name() string
}

// New builds an HTTP backend client.
func New(cfg Config) (Backend, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid backend url %q: %w", base, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid backend url %q: scheme must be http or https", base)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &httpBackend{
		base:   base,
		client: pickHTTPClient(cfg.HTTPClient),
		logger: logger.Named("api"),
	}, nil
}

func pickHTTPClient(custom *http.Client) *http.Client {
	if custom != nil {
		return custom
	}
	// Callers bound individual requests through their context.
	return &http.Client{Timeout: defaultHTTPTimeout}
}
