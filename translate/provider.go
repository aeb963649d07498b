package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Provider IDs accepted by --provider and translate.provider.
const (
	ProviderFree = "free"
	ProviderPaid = "paid"
)

const (
	freeEndpoint   = "https://translate.googleapis.com/translate_a/single"
	paidEndpoint   = "https://translation.googleapis.com/language/translate/v2"
	defaultTimeout = 30 * time.Second
)

// ErrNoAPIKey is returned by NewProvider for the paid provider without a key.
var ErrNoAPIKey = errors.New("the paid provider needs a Google API key")

// Provider translates one text between two Google language identifiers.
type Provider interface {
	Name() string
	Translate(ctx context.Context, text, sourceTag, targetTag string) (string, error)
}

// ProviderConfig configures a Google provider.
type ProviderConfig struct {
	// ID is ProviderFree or ProviderPaid. Empty means free.
	ID string
	// APIKey is required by the paid provider.
	APIKey string
	// BaseURL overrides the endpoint.
	BaseURL string
	// Proxy is an optional HTTP/HTTPS proxy URL. HTTP_PROXY and HTTPS_PROXY
	// are honored when unset.
	Proxy string
	// Timeout is the per-request timeout.
	Timeout time.Duration
}

// NewProvider returns the provider selected by cfg.ID.
func NewProvider(cfg ProviderConfig) (Provider, error) {
	switch cfg.ID {
	case "", ProviderFree:
		return NewGoogleFree(cfg), nil
	case ProviderPaid:
		if cfg.APIKey == "" {
			return nil, ErrNoAPIKey
		}
		return NewGooglePaid(cfg), nil
	}
	return nil, fmt.Errorf("unknown provider %q (want %s or %s)", cfg.ID, ProviderFree, ProviderPaid)
}

// FailureError is a translation request the provider rejected or that never
// reached it.
type FailureError struct {
	Provider string
	// Status is the HTTP status code, 0 for transport errors.
	Status  int
	Message string
	Err     error
}

func (e *FailureError) Error() string {
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *FailureError) Unwrap() error { return e.Err }

// ---------------------------------------------------------------------------
// HTTP client with proxy support
// ---------------------------------------------------------------------------

func newRestyClient(proxyURL string, timeout time.Duration) *resty.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	// resty's transport already reads HTTP_PROXY/HTTPS_PROXY.
	c := resty.New().SetTimeout(timeout)
	if proxyURL != "" {
		c.SetProxy(proxyURL)
	}
	return c
}

type errorPayload struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func responseError(provider string, rr *resty.Response) error {
	var p errorPayload
	if json.Unmarshal(rr.Body(), &p) == nil && p.Error.Message != "" {
		return &FailureError{Provider: provider, Status: rr.StatusCode(), Message: p.Error.Message}
	}
	return &FailureError{
		Provider: provider,
		Status:   rr.StatusCode(),
		Message:  "translation failed: " + rr.Status(),
	}
}

func transportError(provider string, err error) error {
	return &FailureError{Provider: provider, Message: err.Error(), Err: err}
}

// ---------------------------------------------------------------------------
// Google Translate (keyless web endpoint)
// ---------------------------------------------------------------------------

// GoogleFree calls the keyless translate_a/single endpoint.
type GoogleFree struct {
	endpoint string
	http     *resty.Client
}

// NewGoogleFree returns a keyless Google provider.
func NewGoogleFree(cfg ProviderConfig) *GoogleFree {
	endpoint := cfg.BaseURL
	if endpoint == "" {
		endpoint = freeEndpoint
	}
	return &GoogleFree{endpoint: endpoint, http: newRestyClient(cfg.Proxy, cfg.Timeout)}
}

func (g *GoogleFree) Name() string { return "google-free" }

func (g *GoogleFree) Translate(ctx context.Context, text, sourceTag, targetTag string) (string, error) {
	rr, err := g.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"client": "gtx",
			"sl":     sourceTag,
			"tl":     targetTag,
			"dt":     "t",
			"q":      text,
		}).
		Get(g.endpoint)
	if err != nil {
		return "", transportError(g.Name(), err)
	}
	if rr.IsError() {
		return "", responseError(g.Name(), rr)
	}
	out, err := parseFreeResponse(rr.Body())
	if err != nil {
		return "", &FailureError{Provider: g.Name(), Status: rr.StatusCode(), Message: err.Error(), Err: err}
	}
	return out, nil
}

// parseFreeResponse joins the translated sentences of a translate_a/single
// reply: [[["Hallo ","Hello ",...],["Welt","world",...]],null,"en",...].
func parseFreeResponse(body []byte) (string, error) {
	var raw []any
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if len(raw) == 0 {
		return "", errors.New("empty response")
	}
	sentences, ok := raw[0].([]any)
	if !ok {
		return "", errors.New("response has no sentences")
	}
	var b strings.Builder
	for _, s := range sentences {
		parts, ok := s.([]any)
		if !ok || len(parts) == 0 {
			continue
		}
		if str, ok := parts[0].(string); ok {
			b.WriteString(str)
		}
	}
	return b.String(), nil
}

// ---------------------------------------------------------------------------
// Google Cloud Translation v2 (API key)
// ---------------------------------------------------------------------------

// GooglePaid calls the Cloud Translation v2 API.
type GooglePaid struct {
	endpoint string
	apiKey   string
	http     *resty.Client
}

// NewGooglePaid returns a Cloud Translation provider.
func NewGooglePaid(cfg ProviderConfig) *GooglePaid {
	endpoint := cfg.BaseURL
	if endpoint == "" {
		endpoint = paidEndpoint
	}
	return &GooglePaid{endpoint: endpoint, apiKey: cfg.APIKey, http: newRestyClient(cfg.Proxy, cfg.Timeout)}
}

func (g *GooglePaid) Name() string { return "google-cloud" }

type paidRequest struct {
	Q      []string `json:"q"`
	Source string   `json:"source"`
	Target string   `json:"target"`
	Format string   `json:"format"`
}

type paidResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText string `json:"translatedText"`
		} `json:"translations"`
	} `json:"data"`
}

func (g *GooglePaid) Translate(ctx context.Context, text, sourceTag, targetTag string) (string, error) {
	var resp paidResponse
	rr, err := g.http.R().
		SetContext(ctx).
		SetQueryParam("key", g.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(paidRequest{Q: []string{text}, Source: sourceTag, Target: targetTag, Format: "text"}).
		SetResult(&resp).
		Post(g.endpoint)
	if err != nil {
		return "", transportError(g.Name(), err)
	}
	if rr.IsError() {
		return "", responseError(g.Name(), rr)
	}
	if len(resp.Data.Translations) == 0 {
		return "", &FailureError{Provider: g.Name(), Status: rr.StatusCode(), Message: "response has no translations"}
	}
	return resp.Data.Translations[0].TranslatedText, nil
}
