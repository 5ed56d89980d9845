// Package clinvar queries NCBI ClinVar through the E-utilities API.
package clinvar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// DefaultBaseURL is the NCBI E-utilities endpoint.
const DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

// DefaultTimeout bounds a single HTTP request.
const DefaultTimeout = 15 * time.Second

// ErrNotFound is returned when a search yields no ClinVar record.
var ErrNotFound = errors.New("no ClinVar record found")

// Lookup stages.
const (
	StageSearch  = "esearch"
	StageSummary = "esummary"
)

// LookupError describes a failed registry lookup.
type LookupError struct {
	Identifier string
	Stage      string
	Err        error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("clinvar %s for %q: %v", e.Stage, e.Identifier, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// Record holds the ClinVar fields consumed by the annotator.
type Record struct {
	UID                  string
	Title                string
	ClinicalSignificance string
	ReviewStatus         string
	Conditions           []string
}

// Client is a ClinVar E-utilities client. It is safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	retries    int
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a client for baseURL (DefaultBaseURL when empty) with a
// per-request timeout (DefaultTimeout when zero). Transport failures are
// retried once.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		retries: 1,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: zap.NewNop(),
	}
}

// SetRetries sets how many times a transport failure is retried (0 or 1).
func (c *Client) SetRetries(n int) {
	c.retries = max(0, min(n, 1))
}

// SetAPIKey sets an NCBI API key, raising the request rate limit.
func (c *Client) SetAPIKey(key string) {
	c.apiKey = key
}

// SetLogger sets the logger for retry and failure messages.
func (c *Client) SetLogger(l *zap.Logger) {
	c.logger = l
}

// Lookup resolves an HGVS identifier to a ClinVar UID and fetches its
// summary record.
func (c *Client) Lookup(ctx context.Context, identifier string) (Record, error) {
	uid, err := c.Search(ctx, identifier)
	if err != nil {
		return Record{}, err
	}
	rec, err := c.Summary(ctx, uid)
	if err != nil {
		var le *LookupError
		if errors.As(err, &le) {
			le.Identifier = identifier
		}
		return Record{}, err
	}
	return rec, nil
}

// Search returns the first ClinVar UID matching term.
func (c *Client) Search(ctx context.Context, term string) (string, error) {
	params := url.Values{
		"db":      {"clinvar"},
		"term":    {term},
		"retmode": {"json"},
	}

	var resp struct {
		ESearchResult struct {
			Count  string   `json:"count"`
			IDList []string `json:"idlist"`
		} `json:"esearchresult"`
	}
	if err := c.getJSON(ctx, "esearch.fcgi", params, &resp); err != nil {
		return "", &LookupError{Identifier: term, Stage: StageSearch, Err: err}
	}
	if len(resp.ESearchResult.IDList) == 0 || resp.ESearchResult.IDList[0] == "" {
		return "", &LookupError{Identifier: term, Stage: StageSearch, Err: ErrNotFound}
	}
	return resp.ESearchResult.IDList[0], nil
}

// Summary fetches the ESummary document for a ClinVar UID.
func (c *Client) Summary(ctx context.Context, uid string) (Record, error) {
	params := url.Values{
		"db":      {"clinvar"},
		"id":      {uid},
		"retmode": {"json"},
	}

	var resp struct {
		Result map[string]json.RawMessage `json:"result"`
	}
	if err := c.getJSON(ctx, "esummary.fcgi", params, &resp); err != nil {
		return Record{}, &LookupError{Identifier: uid, Stage: StageSummary, Err: err}
	}

	raw, ok := resp.Result[uid]
	if !ok {
		return Record{}, &LookupError{Identifier: uid, Stage: StageSummary, Err: ErrNotFound}
	}

	var doc summaryDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Record{}, &LookupError{Identifier: uid, Stage: StageSummary, Err: fmt.Errorf("decode summary: %w", err)}
	}
	rec := doc.record()
	rec.UID = uid
	return rec, nil
}

// statusError is a non-200 HTTP response.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.code, e.body)
}

// getJSON issues a GET request and decodes the JSON response into out.
// Transport errors and 5xx responses are retried up to c.retries times.
func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, out any) error {
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}
	reqURL := c.baseURL + "/" + endpoint + "?" + params.Encode()

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			c.logger.Debug("retrying ClinVar request",
				zap.String("endpoint", endpoint),
				zap.Error(lastErr))
		}

		err := c.get(ctx, reqURL, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable(ctx, err) {
			break
		}
	}
	return lastErr
}

func (c *Client) get(ctx context.Context, reqURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &statusError{code: resp.StatusCode, body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// retryable reports whether err is a transport-level failure worth one
// more attempt.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500 || se.code == http.StatusTooManyRequests
	}
	var ue *url.Error
	return errors.As(err, &ue)
}
