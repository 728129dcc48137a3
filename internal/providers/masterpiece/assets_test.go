package masterpiece

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
)

const testImageURL = "https://cdn.example.com/products/shirt.jpg?sig=abc"

func TestUploadFallbackToDirectURL(t *testing.T) {
	var creationBody map[string]any
	tr := &handlerTransport{}
	tr.handle = func(req *http.Request, body []byte) (int, any) {
		switch {
		case req.Method == http.MethodGet && req.URL.Host == "cdn.example.com":
			return http.StatusOK, []byte{0xff, 0xd8, 0xff}
		case req.Method == http.MethodPost && strings.Contains(req.URL.Path, "/assets/create"):
			return http.StatusInternalServerError, nil
		case req.Method == http.MethodPost:
			_ = json.Unmarshal(body, &creationBody)
			return http.StatusOK, map[string]any{"requestId": "req-1"}
		case req.Method == http.MethodGet:
			return http.StatusOK, map[string]any{
				"status":  "completed",
				"outputs": map[string]any{"glb": "https://cdn.example.com/m.glb"},
			}
		}
		return http.StatusNotFound, nil
	}

	client := newPollingClient(t, tr, Options{TryAssetUpload: true})
	if _, err := client.Generate(context.Background(), testImageURL, "prod-1"); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if creationBody["imageUrl"] != testImageURL {
		t.Fatalf("creation imageUrl = %v, want direct url fallback", creationBody["imageUrl"])
	}
	if _, ok := creationBody["imageRequestId"]; ok {
		t.Fatalf("creation payload should not carry imageRequestId after failed upload")
	}
}

func TestForcedUploadFailureIsFatal(t *testing.T) {
	tr := &handlerTransport{}
	tr.handle = func(req *http.Request, body []byte) (int, any) {
		if req.Method == http.MethodGet && req.URL.Host == "cdn.example.com" {
			return http.StatusOK, []byte{0xff, 0xd8, 0xff}
		}
		return http.StatusInternalServerError, nil
	}
	client := newPollingClient(t, tr, Options{ForceAssetUpload: true})
	_, err := client.Generate(context.Background(), testImageURL, "prod-1")
	if !errors.Is(err, ErrUploadRequired) {
		t.Fatalf("err = %v, want ErrUploadRequired", err)
	}
	// No creation attempt may happen before the mandatory upload succeeds.
	for _, call := range tr.calls {
		if strings.HasPrefix(call, "POST ") && !strings.Contains(call, "/assets/create") {
			t.Fatalf("unexpected creation attempt: %s", call)
		}
	}
}

func TestAssetHandshakeUsesUploadReference(t *testing.T) {
	var creationBody map[string]any
	var assetPayload map[string]any
	putDone := false

	tr := &handlerTransport{}
	tr.handle = func(req *http.Request, body []byte) (int, any) {
		switch {
		case req.Method == http.MethodGet && req.URL.Host == "cdn.example.com":
			return http.StatusOK, []byte{0xff, 0xd8, 0xff, 0xe0}
		case req.Method == http.MethodPost && strings.Contains(req.URL.Path, "/assets/create"):
			_ = json.Unmarshal(body, &assetPayload)
			return http.StatusOK, map[string]any{
				"uploadUrl": "https://uploads.example.com/signed/asset-1",
				"requestId": "asset-1",
			}
		case req.Method == http.MethodPut:
			if req.URL.String() != "https://uploads.example.com/signed/asset-1" {
				t.Fatalf("PUT to %s, want signed url", req.URL)
			}
			if len(body) != 4 {
				t.Fatalf("uploaded %d bytes, want 4", len(body))
			}
			putDone = true
			return http.StatusOK, nil
		case req.Method == http.MethodPost:
			_ = json.Unmarshal(body, &creationBody)
			return http.StatusOK, map[string]any{"requestId": "req-1"}
		case req.Method == http.MethodGet:
			return http.StatusOK, map[string]any{
				"status":  "completed",
				"outputs": map[string]any{"glb": "https://cdn.example.com/m.glb"},
			}
		}
		return http.StatusNotFound, nil
	}

	client := newPollingClient(t, tr, Options{TryAssetUpload: true})
	if _, err := client.Generate(context.Background(), testImageURL, "prod-7"); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if !putDone {
		t.Fatalf("signed upload never happened")
	}
	if assetPayload["fileName"] != "shirt.jpg" {
		t.Fatalf("asset fileName = %v, want shirt.jpg", assetPayload["fileName"])
	}
	meta, _ := assetPayload["metadata"].(map[string]any)
	if meta["productId"] != "prod-7" {
		t.Fatalf("asset metadata productId = %v", meta["productId"])
	}
	if creationBody["imageRequestId"] != "asset-1" {
		t.Fatalf("creation imageRequestId = %v, want asset-1", creationBody["imageRequestId"])
	}
	if _, ok := creationBody["imageUrl"]; ok {
		t.Fatalf("creation payload should omit imageUrl when an upload reference exists")
	}
}

func TestImageFileNameDerivation(t *testing.T) {
	if got := imageFileName("https://cdn.example.com/a/b/photo.png?x=1"); got != "photo.png" {
		t.Fatalf("fileName = %q, want photo.png", got)
	}
	if got := imageFileName("https://cdn.example.com/a/b/"); !strings.HasPrefix(got, "image-") || !strings.HasSuffix(got, ".jpg") {
		t.Fatalf("fallback fileName = %q", got)
	}
}

func TestDownloadFailureAbortsUploadQuietly(t *testing.T) {
	var creationBody map[string]any
	tr := &handlerTransport{}
	tr.handle = func(req *http.Request, body []byte) (int, any) {
		switch {
		case req.Method == http.MethodGet && req.URL.Host == "cdn.example.com":
			return http.StatusForbidden, nil
		case req.Method == http.MethodPost && strings.Contains(req.URL.Path, "/assets/create"):
			t.Fatalf("asset create attempted after failed download")
			return 0, nil
		case req.Method == http.MethodPost:
			_ = json.Unmarshal(body, &creationBody)
			return http.StatusOK, map[string]any{"requestId": "req-1"}
		default:
			return http.StatusOK, map[string]any{
				"status":  "completed",
				"outputs": map[string]any{"glb": "https://cdn.example.com/m.glb"},
			}
		}
	}
	client := newPollingClient(t, tr, Options{TryAssetUpload: true})
	if _, err := client.Generate(context.Background(), testImageURL, "prod-1"); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if creationBody["imageUrl"] != testImageURL {
		t.Fatalf("creation imageUrl = %v", creationBody["imageUrl"])
	}
}
