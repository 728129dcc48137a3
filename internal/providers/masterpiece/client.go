package masterpiece

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tryon-platform/server/internal/infra"
)

// Terminal job states persisted on the owning product record.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Fixed generation parameters sent with every job.
const (
	defaultTextureSize = 1024
	defaultSeed        = 1
)

// defaultWarmupDelay gives the provider time to index a freshly created job
// before the first status probe.
const defaultWarmupDelay = 2 * time.Second

var (
	// ErrDisabled indicates that 3D generation is switched off by configuration.
	ErrDisabled = errors.New("masterpiece: 3d generation is disabled")
	// ErrMissingBaseURL indicates that the client was configured without an API URL.
	ErrMissingBaseURL = errors.New("masterpiece: api url is required")
	// ErrMissingAPIKey indicates that the client was configured without credentials.
	ErrMissingAPIKey = errors.New("masterpiece: api key is required")
	// ErrNoGenerateEndpoint is returned when every creation candidate was exhausted.
	ErrNoGenerateEndpoint = errors.New("masterpiece: no reachable generation endpoint")
	// ErrNoStatusEndpoint is returned when no status candidate resolved for a job.
	ErrNoStatusEndpoint = errors.New("masterpiece: no reachable status endpoint")
	// ErrMalformedResponse indicates a success response without an extractable value.
	ErrMalformedResponse = errors.New("masterpiece: malformed response")
	// ErrGenerationFailed carries a failure reported by the provider itself.
	ErrGenerationFailed = errors.New("masterpiece: generation failed")
	// ErrTimeout is returned when the poll attempt budget is exhausted.
	ErrTimeout = errors.New("masterpiece: generation timed out")
	// ErrUploadRequired is returned when a mandatory asset upload yielded no reference.
	ErrUploadRequired = errors.New("masterpiece: asset upload required but failed")
)

// Options configures the Masterpiece X client.
type Options struct {
	BaseURL string
	APIKey  string
	AppID   string
	Enabled bool

	PollInterval    time.Duration
	MaxPollAttempts int
	RequestTimeout  time.Duration

	// Comma-separated endpoint path overrides, tried before the built-in
	// defaults for their role.
	GeneratePaths string
	StatusPaths   string
	AssetPaths    string

	// TryAssetUpload enables the signed-URL asset handshake before job
	// creation. ForceAssetUpload turns a failed handshake into a fatal error
	// instead of falling back to the raw image URL.
	TryAssetUpload   bool
	ForceAssetUpload bool

	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client orchestrates image-to-3D generation jobs against the Masterpiece X
// API. It holds no per-job state; every Generate call creates a fresh remote
// job, so values are safe to share across goroutines.
type Client struct {
	baseURL string
	apiKey  string
	appID   string
	enabled bool

	pollInterval    time.Duration
	maxPollAttempts int
	warmupDelay     time.Duration

	generateOverrides []string
	statusOverrides   []string
	assetOverrides    []string

	tryAssetUpload   bool
	forceAssetUpload bool

	httpClient *http.Client
	logger     *infra.Logger
}

// Result is the terminal outcome of a completed generation job.
type Result struct {
	RequestID string
	Status    string
	ModelURL  string
	Raw       map[string]any
}

// StatusResult is a point-in-time snapshot of a job, possibly non-terminal.
type StatusResult struct {
	Status   string
	ModelURL string
	Raw      map[string]any
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) (*Client, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	maxPollAttempts := opts.MaxPollAttempts
	if maxPollAttempts <= 0 {
		maxPollAttempts = 240
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Client{
		baseURL:           sanitizeBaseURL(opts.BaseURL),
		apiKey:            strings.TrimSpace(opts.APIKey),
		appID:             strings.TrimSpace(opts.AppID),
		enabled:           opts.Enabled,
		pollInterval:      pollInterval,
		maxPollAttempts:   maxPollAttempts,
		warmupDelay:       defaultWarmupDelay,
		generateOverrides: parsePathList(opts.GeneratePaths),
		statusOverrides:   parsePathList(opts.StatusPaths),
		assetOverrides:    parsePathList(opts.AssetPaths),
		tryAssetUpload:    opts.TryAssetUpload,
		forceAssetUpload:  opts.ForceAssetUpload,
		httpClient:        httpClient,
		logger:            logger,
	}, nil
}

// Enabled reports whether the client is configured to run generations.
func (c *Client) Enabled() bool {
	return c.enabled
}

func (c *Client) validate() error {
	if !c.enabled {
		return ErrDisabled
	}
	if c.baseURL == "" {
		return ErrMissingBaseURL
	}
	if c.apiKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// Generate creates a remote image-to-3D job for the given source image,
// locates a working status endpoint and polls it until the job reaches a
// terminal state or the attempt budget runs out. The call is long-running;
// callers are expected to invoke it from a background goroutine and persist
// the outcome themselves.
func (c *Client) Generate(ctx context.Context, imageURL, productID string) (*Result, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return nil, errors.New("masterpiece: image url is required")
	}

	c.logger.Info().
		Str("product_id", productID).
		Str("image_url", imageURL).
		Msg("masterpiece: starting 3d generation")

	var uploadRef string
	if c.tryAssetUpload || c.forceAssetUpload {
		uploadRef = c.uploadAsset(ctx, imageURL, productID)
		if uploadRef == "" && c.forceAssetUpload {
			return nil, ErrUploadRequired
		}
	}

	requestID, err := c.createJob(ctx, imageURL, uploadRef)
	if err != nil {
		return nil, err
	}
	c.logger.Info().Str("request_id", requestID).Msg("masterpiece: job created")

	// Give the provider a moment to index the job before probing.
	if err := sleepCtx(ctx, c.warmupDelay); err != nil {
		return nil, err
	}

	pattern, err := c.discoverStatusEndpoint(ctx, requestID)
	if err != nil {
		return nil, err
	}

	return c.poll(ctx, pattern, requestID)
}

// CheckStatus fetches the current state of an already-known job without
// creating a new one. The returned status may be non-terminal.
func (c *Client) CheckStatus(ctx context.Context, requestID string) (*StatusResult, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return nil, errors.New("masterpiece: request id is required")
	}

	for _, pattern := range c.statusEndpoints() {
		url := strings.Replace(pattern, requestIDPlaceholder, requestID, 1)
		status, body, err := c.doJSON(ctx, http.MethodGet, url, nil)
		if err != nil {
			c.logger.Warn().Err(err).Str("url", url).Msg("masterpiece: status check request failed")
			continue
		}
		if status >= 300 {
			continue
		}
		var doc map[string]any
		if err := json.Unmarshal(body, &doc); err != nil {
			return nil, fmt.Errorf("masterpiece: decode status response: %w", err)
		}
		result := &StatusResult{
			Status:   strings.ToLower(strings.TrimSpace(lookupString(doc, statusPaths))),
			ModelURL: lookupString(doc, modelURLPaths),
			Raw:      doc,
		}
		if result.Status == "" {
			result.Status = "unknown"
		}
		if state, _ := classifyStatus(result.Status); state == pollSucceeded {
			result.Status = StatusCompleted
		} else if state == pollFailed {
			result.Status = StatusFailed
		}
		return result, nil
	}
	return nil, fmt.Errorf("%w for request %s", ErrNoStatusEndpoint, requestID)
}

type createPayload struct {
	ImageURL       string `json:"imageUrl,omitempty"`
	ImageRequestID string `json:"imageRequestId,omitempty"`
	TextureSize    int    `json:"textureSize"`
	Seed           int    `json:"seed"`
}

// createJob tries each creation candidate in order until one accepts the
// request. 404/405/400 responses, 5xx responses and transport errors move on
// to the next candidate; any other error status indicates a configuration
// problem and aborts immediately.
func (c *Client) createJob(ctx context.Context, imageURL, uploadRef string) (string, error) {
	payload := createPayload{TextureSize: defaultTextureSize, Seed: defaultSeed}
	if uploadRef != "" {
		payload.ImageRequestID = uploadRef
	} else {
		payload.ImageURL = imageURL
	}

	for _, endpoint := range c.generateEndpoints() {
		c.logger.Debug().Str("url", endpoint).Msg("masterpiece: attempting job creation")
		status, body, err := c.doJSON(ctx, http.MethodPost, endpoint, payload)
		if err != nil {
			c.logger.Warn().Err(err).Str("url", endpoint).Msg("masterpiece: creation request failed")
			continue
		}
		if status == http.StatusNotFound || status == http.StatusMethodNotAllowed || status == http.StatusBadRequest || status >= 500 {
			c.logger.Warn().Int("status", status).Str("url", endpoint).Msg("masterpiece: creation endpoint rejected request")
			continue
		}
		if status >= 300 {
			return "", fmt.Errorf("masterpiece: creation request to %s returned status %d", endpoint, status)
		}

		var doc map[string]any
		if err := json.Unmarshal(body, &doc); err != nil {
			return "", fmt.Errorf("masterpiece: decode creation response: %w", err)
		}
		requestID := lookupString(doc, requestIDPaths)
		if requestID == "" {
			return "", fmt.Errorf("%w: creation succeeded but no request id in %s", ErrMalformedResponse, strings.TrimSpace(string(body)))
		}
		c.logger.Info().Str("url", endpoint).Str("request_id", requestID).Msg("masterpiece: creation endpoint selected")
		return requestID, nil
	}
	return "", ErrNoGenerateEndpoint
}

// discoverStatusEndpoint probes each status candidate once and locks in the
// first pattern that answers with a success status. The pattern is reused for
// the rest of the job's polling.
func (c *Client) discoverStatusEndpoint(ctx context.Context, requestID string) (string, error) {
	for _, pattern := range c.statusEndpoints() {
		url := strings.Replace(pattern, requestIDPlaceholder, requestID, 1)
		c.logger.Debug().Str("url", url).Msg("masterpiece: probing status endpoint")
		status, _, err := c.doJSON(ctx, http.MethodGet, url, nil)
		if err != nil {
			c.logger.Warn().Err(err).Str("url", url).Msg("masterpiece: status probe failed")
			continue
		}
		if status < 300 {
			c.logger.Info().Str("url", url).Msg("masterpiece: status endpoint found")
			return pattern, nil
		}
	}
	return "", fmt.Errorf("%w for request %s", ErrNoStatusEndpoint, requestID)
}

// poll repeatedly fetches the locked status endpoint until the job reaches a
// terminal state or the attempt budget is exhausted. 404s, 5xx responses and
// transport errors consume an attempt and continue; unknown statuses are
// assumed transient.
func (c *Client) poll(ctx context.Context, pattern, requestID string) (*Result, error) {
	statusURL := strings.Replace(pattern, requestIDPlaceholder, requestID, 1)
	for attempt := 1; attempt <= c.maxPollAttempts; attempt++ {
		if err := sleepCtx(ctx, c.pollInterval); err != nil {
			return nil, err
		}

		status, body, err := c.doJSON(ctx, http.MethodGet, statusURL, nil)
		if err != nil {
			c.logger.Warn().Err(err).Int("attempt", attempt).Str("url", statusURL).Msg("masterpiece: poll request failed")
			continue
		}
		if status == http.StatusNotFound {
			c.logger.Debug().Int("attempt", attempt).Msg("masterpiece: job not indexed yet (404), continuing")
			continue
		}
		if status >= 500 {
			c.logger.Warn().Int("status", status).Int("attempt", attempt).Msg("masterpiece: poll server error, continuing")
			continue
		}
		if status >= 300 {
			return nil, fmt.Errorf("masterpiece: poll returned status %d", status)
		}

		var doc map[string]any
		if err := json.Unmarshal(body, &doc); err != nil {
			return nil, fmt.Errorf("masterpiece: decode status response: %w", err)
		}
		reported := lookupString(doc, statusPaths)
		state, known := classifyStatus(reported)
		switch state {
		case pollSucceeded:
			modelURL := lookupString(doc, modelURLPaths)
			if modelURL == "" {
				return nil, fmt.Errorf("%w: generation completed but no model url in response", ErrMalformedResponse)
			}
			c.logger.Info().Str("request_id", requestID).Str("model_url", modelURL).Msg("masterpiece: generation completed")
			return &Result{RequestID: requestID, Status: StatusCompleted, ModelURL: modelURL, Raw: doc}, nil
		case pollFailed:
			reason := lookupString(doc, failureReasonPaths)
			if reason == "" {
				reason = "3d model generation failed"
			}
			return nil, fmt.Errorf("%w: %s", ErrGenerationFailed, reason)
		default:
			if !known {
				c.logger.Warn().Str("status", reported).Int("attempt", attempt).Msg("masterpiece: unknown status, continuing to poll")
			} else {
				c.logger.Debug().Str("status", reported).Int("attempt", attempt).Int("max", c.maxPollAttempts).Msg("masterpiece: polling")
			}
		}
	}
	return nil, fmt.Errorf("%w after %d attempts", ErrTimeout, c.maxPollAttempts)
}

// doJSON performs one authenticated request and returns the response status
// and body. Transport failures are returned as errors; HTTP error statuses
// are left to the caller to classify.
func (c *Client) doJSON(ctx context.Context, method, url string, payload any) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("masterpiece: encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return 0, nil, fmt.Errorf("masterpiece: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.appID != "" {
		req.Header.Set("X-App-Id", c.appID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("masterpiece: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("masterpiece: read response: %w", err)
	}
	return resp.StatusCode, raw, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
