package cloudinary

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tryon-platform/server/internal/infra"
)

// ErrMissingCredentials indicates the client lacks cloud name, key, or secret.
var ErrMissingCredentials = errors.New("cloudinary: credentials are required")

// Options configures the Cloudinary media client.
type Options struct {
	CloudName  string
	APIKey     string
	APISecret  string
	Folder     string
	HTTPClient *http.Client
	Logger     *infra.Logger
	BaseURL    string
	Now        func() time.Time
}

// Client uploads and deletes media through the Cloudinary REST API.
type Client struct {
	cloudName  string
	apiKey     string
	apiSecret  string
	folder     string
	baseURL    string
	httpClient *http.Client
	logger     *infra.Logger
	now        func() time.Time
}

// UploadResult is the subset of the upload response the platform consumes.
type UploadResult struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) (*Client, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.cloudinary.com/v1_1"
	}
	folder := opts.Folder
	if folder == "" {
		folder = "tryon-products"
	}
	now := opts.Now
	if now == nil {
		now = time.Now
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
		cloudName:  strings.TrimSpace(opts.CloudName),
		apiKey:     strings.TrimSpace(opts.APIKey),
		apiSecret:  strings.TrimSpace(opts.APISecret),
		folder:     folder,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
		now:        now,
	}, nil
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.cloudName != "" && c.apiKey != "" && c.apiSecret != ""
}

// Upload stores the image bytes under the configured folder and returns the
// hosted URL with its public id.
func (c *Client) Upload(ctx context.Context, fileName string, data []byte) (*UploadResult, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingCredentials
	}
	if len(data) == 0 {
		return nil, errors.New("cloudinary: empty file")
	}

	timestamp := strconv.FormatInt(c.now().Unix(), 10)
	params := map[string]string{
		"folder":    c.folder,
		"timestamp": timestamp,
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range params {
		if err := mw.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("cloudinary: encode form: %w", err)
		}
	}
	if err := mw.WriteField("api_key", c.apiKey); err != nil {
		return nil, fmt.Errorf("cloudinary: encode form: %w", err)
	}
	if err := mw.WriteField("signature", c.sign(params)); err != nil {
		return nil, fmt.Errorf("cloudinary: encode form: %w", err)
	}
	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: encode form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("cloudinary: encode form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("cloudinary: encode form: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/image/upload", c.baseURL, c.cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("cloudinary: upload status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var result UploadResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("cloudinary: decode response: %w", err)
	}
	if result.SecureURL == "" || result.PublicID == "" {
		return nil, errors.New("cloudinary: incomplete upload response")
	}

	c.logger.Debug().Str("public_id", result.PublicID).Msg("cloudinary: image uploaded")
	return &result, nil
}

// Destroy removes a previously uploaded image by public id.
func (c *Client) Destroy(ctx context.Context, publicID string) error {
	if !c.HasCredentials() {
		return ErrMissingCredentials
	}
	if strings.TrimSpace(publicID) == "" {
		return errors.New("cloudinary: public id is required")
	}

	timestamp := strconv.FormatInt(c.now().Unix(), 10)
	params := map[string]string{
		"public_id": publicID,
		"timestamp": timestamp,
	}
	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}
	form.Set("api_key", c.apiKey)
	form.Set("signature", c.sign(params))

	endpoint := fmt.Sprintf("%s/%s/image/destroy", c.baseURL, c.cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("cloudinary: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("cloudinary: http request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("cloudinary: destroy status %d", resp.StatusCode)
	}
	return nil
}

// sign produces the request signature: parameters sorted by key, joined with
// ampersands, concatenated with the secret, hashed with SHA-1.
func (c *Client) sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + c.apiSecret))
	return hex.EncodeToString(sum[:])
}
