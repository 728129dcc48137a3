package pixelcut

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

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("pixelcut: api key is required")

// Options configures the Pixelcut virtual try-on client.
type Options struct {
	APIKey         string
	APIURL         string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client performs HTTP calls to the Pixelcut try-on API.
type Client struct {
	apiKey     string
	apiURL     string
	httpClient *http.Client
	logger     *infra.Logger
}

type tryOnRequest struct {
	PersonImageURL  string `json:"person_image_url"`
	GarmentImageURL string `json:"garment_image_url"`
}

type tryOnResponse struct {
	ResultURL string `json:"result_url"`
	Message   string `json:"message"`
	Error     string `json:"error"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) (*Client, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	apiURL := strings.TrimRight(opts.APIURL, "/")
	if apiURL == "" {
		apiURL = "https://api.developer.pixelcut.ai/v1/try-on"
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
		apiKey:     strings.TrimSpace(opts.APIKey),
		apiURL:     apiURL,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// GenerateTryOn renders the garment image onto the person image and returns
// the hosted result URL.
func (c *Client) GenerateTryOn(ctx context.Context, personImageURL, garmentImageURL string) (string, error) {
	if !c.HasCredentials() {
		return "", ErrMissingAPIKey
	}
	if strings.TrimSpace(personImageURL) == "" || strings.TrimSpace(garmentImageURL) == "" {
		return "", errors.New("pixelcut: person and garment image urls are required")
	}

	body, err := json.Marshal(tryOnRequest{
		PersonImageURL:  personImageURL,
		GarmentImageURL: garmentImageURL,
	})
	if err != nil {
		return "", fmt.Errorf("pixelcut: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("pixelcut: build request: %w", err)
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("pixelcut: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("pixelcut: read response: %w", err)
	}

	var decoded tryOnResponse
	if resp.StatusCode >= 300 {
		if err := json.Unmarshal(raw, &decoded); err == nil {
			if decoded.Message != "" {
				return "", fmt.Errorf("pixelcut: %s", decoded.Message)
			}
			if decoded.Error != "" {
				return "", fmt.Errorf("pixelcut: %s", decoded.Error)
			}
		}
		return "", fmt.Errorf("pixelcut: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("pixelcut: decode response: %w", err)
	}
	if decoded.ResultURL == "" {
		return "", errors.New("pixelcut: empty result url")
	}

	c.logger.Debug().Str("result_url", decoded.ResultURL).Msg("pixelcut: try-on generated")
	return decoded.ResultURL, nil
}
