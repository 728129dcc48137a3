package masterpiece

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultImageContentType = "image/jpeg"

type sourceImage struct {
	data        []byte
	contentType string
	size        int
	fileName    string
}

// downloadImage fetches the source image so it can be re-uploaded to the
// provider's asset store.
func (c *Client) downloadImage(ctx context.Context, imageURL string) (*sourceImage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("masterpiece: build image request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("masterpiece: download image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("masterpiece: download image status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("masterpiece: read image: %w", err)
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = defaultImageContentType
	}
	return &sourceImage{
		data:        data,
		contentType: contentType,
		size:        len(data),
		fileName:    imageFileName(imageURL),
	}, nil
}

func imageFileName(imageURL string) string {
	name := imageURL
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	if idx := strings.Index(name, "?"); idx >= 0 {
		name = name[:idx]
	}
	if name == "" {
		name = fmt.Sprintf("image-%d.jpg", time.Now().UnixMilli())
	}
	return name
}

type assetCreatePayload struct {
	FileName string        `json:"fileName"`
	FileType string        `json:"fileType"`
	FileSize int           `json:"fileSize"`
	Metadata assetMetadata `json:"metadata"`
}

type assetMetadata struct {
	ProductID string `json:"productId"`
	Source    string `json:"source"`
}

// uploadAsset registers the source image with the provider through the
// signed-URL handshake: create an asset, then PUT the bytes to the returned
// upload URL. The whole path is best-effort: any failure returns an empty
// reference and the caller falls back to sending the image URL directly.
func (c *Client) uploadAsset(ctx context.Context, imageURL, productID string) string {
	img, err := c.downloadImage(ctx, imageURL)
	if err != nil {
		c.logger.Warn().Err(err).Str("image_url", imageURL).Msg("masterpiece: failed to prepare asset upload")
		return ""
	}

	payload := assetCreatePayload{
		FileName: img.fileName,
		FileType: img.contentType,
		FileSize: img.size,
		Metadata: assetMetadata{ProductID: productID, Source: "tryon-platform"},
	}

	for _, endpoint := range c.assetEndpoints() {
		c.logger.Debug().Str("url", endpoint).Msg("masterpiece: creating asset")
		status, body, err := c.doJSON(ctx, http.MethodPost, endpoint, payload)
		if err != nil {
			c.logger.Warn().Err(err).Str("url", endpoint).Msg("masterpiece: asset create request failed")
			continue
		}
		if status >= 300 {
			c.logger.Warn().Int("status", status).Str("url", endpoint).Msg("masterpiece: asset endpoint rejected request")
			continue
		}
		var doc map[string]any
		if err := json.Unmarshal(body, &doc); err != nil {
			c.logger.Warn().Err(err).Str("url", endpoint).Msg("masterpiece: decode asset response")
			continue
		}
		uploadURL := lookupString(doc, uploadURLPaths)
		assetID := lookupString(doc, assetIDPaths)
		if uploadURL == "" || assetID == "" {
			c.logger.Warn().Str("url", endpoint).Msg("masterpiece: asset response missing upload url or request id")
			continue
		}
		if err := c.putBinary(ctx, uploadURL, img); err != nil {
			c.logger.Warn().Err(err).Str("url", uploadURL).Msg("masterpiece: signed upload failed")
			continue
		}
		c.logger.Info().Str("request_id", assetID).Msg("masterpiece: asset uploaded")
		return assetID
	}
	return ""
}

// putBinary uploads the raw image bytes to the signed URL with matching
// content headers.
func (c *Client) putBinary(ctx context.Context, uploadURL string, img *sourceImage) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(img.data))
	if err != nil {
		return fmt.Errorf("masterpiece: build upload request: %w", err)
	}
	req.Header.Set("Content-Type", img.contentType)
	req.ContentLength = int64(img.size)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("masterpiece: upload request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("masterpiece: upload status %d", resp.StatusCode)
	}
	return nil
}
