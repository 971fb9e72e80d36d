package yomitan

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/heartmarshall/yomipv-lookup/internal/domain"
)

const (
	defaultBaseURL    = "http://127.0.0.1:19633"
	defaultMaxEntries = 10
	defaultTimeout    = 10 * time.Second

	// PrimaryPath and FallbackPath are the two ankiFields routes exposed by
	// the dictionary service, tried in this order.
	PrimaryPath  = "/ankiFields"
	FallbackPath = "/api/ankiFields"
)

var baseMarkers = []string{
	"glossary", "expression", "reading", "furigana",
	"pitch-accent-categories", "pitch-accents",
}

// Provider fetches term data from a Yomitan ankiFields endpoint.
type Provider struct {
	endpoints  []string
	maxEntries int
	httpClient *http.Client
	log        *slog.Logger
}

// NewProvider creates a Provider for the service at baseURL using the
// default primary and fallback paths. An empty baseURL means the local default.
func NewProvider(baseURL string, logger *slog.Logger) *Provider {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return NewProviderWithEndpoints(
		[]string{baseURL + PrimaryPath, baseURL + FallbackPath},
		defaultMaxEntries, defaultTimeout, logger,
	)
}

// NewProviderWithEndpoints creates a Provider that tries the given full
// URLs in order.
func NewProviderWithEndpoints(endpoints []string, maxEntries int, timeout time.Duration, logger *slog.Logger) *Provider {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Provider{
		endpoints:  endpoints,
		maxEntries: maxEntries,
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.With("adapter", "yomitan"),
	}
}

type lookupRequest struct {
	Text         string   `json:"text"`
	Type         string   `json:"type"`
	Markers      []string `json:"markers"`
	MaxEntries   int      `json:"maxEntries"`
	IncludeMedia bool     `json:"includeMedia"`
}

// Lookup fetches entries for term. Each endpoint is tried once; when every
// endpoint fails the error wraps domain.ErrServiceUnavailable.
func (p *Provider) Lookup(ctx context.Context, term string, wantFrequencies bool) (domain.LookupResult, error) {
	markers := baseMarkers
	if wantFrequencies {
		markers = append(markers[:len(markers):len(markers)], "frequencies")
	}

	payload, err := json.Marshal(lookupRequest{
		Text:         term,
		Type:         "term",
		Markers:      markers,
		MaxEntries:   p.maxEntries,
		IncludeMedia: true,
	})
	if err != nil {
		return domain.LookupResult{}, fmt.Errorf("yomitan: encode request: %w", err)
	}

	p.log.DebugContext(ctx, "yomitan request", slog.String("term", term), slog.Bool("frequencies", wantFrequencies))

	var lastErr error
	for _, endpoint := range p.endpoints {
		result, err := p.fetch(ctx, endpoint, payload)
		if err == nil {
			p.log.DebugContext(ctx, "yomitan response",
				slog.String("term", term),
				slog.String("endpoint", endpoint),
				slog.Int("entries", len(result.Entries)),
				slog.Int("media", len(result.Media)),
			)
			return result, nil
		}
		if ctx.Err() != nil {
			return domain.LookupResult{}, fmt.Errorf("yomitan: lookup %q: %w", term, ctx.Err())
		}
		p.log.WarnContext(ctx, "yomitan endpoint failed",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()),
		)
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("no endpoints configured")
	}

	return domain.LookupResult{}, fmt.Errorf("yomitan: %w: %w", domain.ErrServiceUnavailable, lastErr)
}

func (p *Provider) fetch(ctx context.Context, endpoint string, payload []byte) (domain.LookupResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return domain.LookupResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return domain.LookupResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.LookupResult{}, fmt.Errorf("%s: unexpected status %d", endpoint, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.LookupResult{}, fmt.Errorf("%s: read body: %w", endpoint, err)
	}

	result, err := decodeResponse(body)
	if err != nil {
		return domain.LookupResult{}, fmt.Errorf("%s: %w", endpoint, err)
	}
	return result, nil
}
