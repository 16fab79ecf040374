package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/csheth/oeescout/internal/filters"
	"github.com/csheth/oeescout/internal/oee"
)

type httpBackend struct {
	base   string
	client *http.Client
	logger *zap.Logger
}

func (b *httpBackend) Name() string {
	return fmt.Sprintf("OEE backend (%s)", b.base)
}

func (b *httpBackend) Health(ctx context.Context) error {
	resp, err := b.do(ctx, http.MethodGet, "/api/health", "", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (b *httpBackend) FetchFilterCatalog(ctx context.Context) (filters.Options, error) {
	resp, err := b.do(ctx, http.MethodGet, "/api/filters", "", nil)
	if err != nil {
		return filters.Options{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		DeviceIDs []scalar `json:"device_ids"`
		Locations []scalar `json:"locations"`
		Months    []scalar `json:"months"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return filters.Options{}, fmt.Errorf("%w: filters: %v", ErrDecode, err)
	}
	options := filters.Options{
		DeviceIDs: scalarStrings(payload.DeviceIDs),
		Locations: scalarStrings(payload.Locations),
		Months:    scalarStrings(payload.Months),
	}
	return options.Normalize(), nil
}

func (b *httpBackend) UploadDataset(ctx context.Context, filename string, data []byte) error {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	resp, err := b.do(ctx, http.MethodPost, "/api/upload", writer.FormDataContentType(), &body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type queryRequest struct {
	Message  string  `json:"message"`
	DeviceID *string `json:"device_id"`
	Location *string `json:"location"`
	Month    *string `json:"month"`
}

type queryResponse struct {
	Message      *string  `json:"message"`
	Error        *string  `json:"error"`
	OEE          *float64 `json:"oee"`
	Availability *float64 `json:"availability"`
	Performance  *float64 `json:"performance"`
	Quality      *float64 `json:"quality"`
}

func (b *httpBackend) SubmitQuery(ctx context.Context, q Query) (Answer, error) {
	buf, err := json.Marshal(queryRequest{
		Message:  q.Text,
		DeviceID: optional(q.Selection.DeviceID),
		Location: optional(q.Selection.Location),
		Month:    optional(q.Selection.Month),
	})
	if err != nil {
		return Answer{}, err
	}

	resp, err := b.do(ctx, http.MethodPost, "/api/query", "application/json", bytes.NewReader(buf))
	if err != nil {
		return Answer{}, err
	}
	defer resp.Body.Close()

	var parsed queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Answer{}, fmt.Errorf("%w: query: %v", ErrDecode, err)
	}
	return parsed.answer()
}

func (r queryResponse) answer() (Answer, error) {
	if r.Error != nil {
		return Answer{}, fmt.Errorf("%w: %s", ErrBackend, *r.Error)
	}
	if r.Message == nil {
		return Answer{}, fmt.Errorf("%w: query response has no message", ErrDecode)
	}
	fields := []*float64{r.OEE, r.Availability, r.Performance, r.Quality}
	present := 0
	for _, f := range fields {
		if f != nil {
			present++
		}
	}
	switch present {
	case 0:
		return Answer{Text: *r.Message}, nil
	case len(fields):
		return Answer{
			Text: *r.Message,
			Metrics: &oee.Metrics{
				OEE:          *r.OEE,
				Availability: *r.Availability,
				Performance:  *r.Performance,
				Quality:      *r.Quality,
			},
		}, nil
	default:
		return Answer{}, fmt.Errorf("%w: query response carries %d of %d metrics", ErrDecode, present, len(fields))
	}
}

// do issues the request and turns any status >= 400 into an ErrBackend error.
// The caller closes the body on success.
func (b *httpBackend) do(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, b.base+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := b.client.Do(req)
	if err != nil {
		b.logger.Debug("request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("%w: %s %s: %w", ErrBackend, method, path, err)
	}
	b.logger.Debug("request completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(started)),
	)
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, fmt.Errorf("%w: %s (%s)", ErrBackend, resp.Status, errorDetail(raw))
	}
	return resp, nil
}

// errorDetail prefers the {"detail": ...} field FastAPI-style errors carry.
func errorDetail(raw []byte) string {
	var payload struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Detail != nil {
		if s, ok := payload.Detail.(string); ok {
			return s
		}
		if encoded, err := json.Marshal(payload.Detail); err == nil {
			return string(encoded)
		}
	}
	return strings.TrimSpace(string(raw))
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// scalar accepts catalog entries encoded as JSON strings or numbers.
type scalar string

func (s *scalar) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.Equal(trimmed, []byte("null")):
		*s = ""
		return nil
	case len(trimmed) > 0 && trimmed[0] == '"':
		var v string
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return err
		}
		*s = scalar(v)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return fmt.Errorf("catalog entry must be a string or number, got %s", trimmed)
		}
		*s = scalar(n.String())
		return nil
	}
}

func scalarStrings(values []scalar) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, string(v))
	}
	return out
}
