package cloudinary

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

type captureTransport struct {
	lastReq *http.Request
	body    []byte
	status  int
	resp    []byte
}

func (t *captureTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.lastReq = req
	if req.Body != nil {
		b, _ := io.ReadAll(req.Body)
		t.body = b
	}
	status := t.status
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewReader(t.resp)),
		Header:     make(http.Header),
	}, nil
}

func newTestClient(t *testing.T, rt *captureTransport) *Client {
	t.Helper()
	c, err := NewClient(Options{
		CloudName:  "demo",
		APIKey:     "key",
		APISecret:  "secret",
		HTTPClient: &http.Client{Transport: rt},
		Now:        func() time.Time { return time.Unix(1700000000, 0) },
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestUpload(t *testing.T) {
	rt := &captureTransport{resp: []byte(`{"secure_url":"https://res.cloudinary.com/demo/a.jpg","public_id":"tryon-products/a"}`)}
	c := newTestClient(t, rt)

	result, err := c.Upload(context.Background(), "a.jpg", []byte("data"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if result.SecureURL != "https://res.cloudinary.com/demo/a.jpg" {
		t.Fatalf("secure url = %q", result.SecureURL)
	}
	if result.PublicID != "tryon-products/a" {
		t.Fatalf("public id = %q", result.PublicID)
	}
	if got := rt.lastReq.URL.String(); got != "https://api.cloudinary.com/v1_1/demo/image/upload" {
		t.Fatalf("url = %q", got)
	}
	body := string(rt.body)
	if !strings.Contains(body, "tryon-products") {
		t.Fatal("form is missing the upload folder")
	}
	sum := sha1.Sum([]byte("folder=tryon-products&timestamp=1700000000secret"))
	if want := hex.EncodeToString(sum[:]); !strings.Contains(body, want) {
		t.Fatalf("form is missing signature %s", want)
	}
}

func TestUploadWithoutCredentials(t *testing.T) {
	c, err := NewClient(Options{})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := c.Upload(context.Background(), "a.jpg", []byte("data")); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("err = %v, want ErrMissingCredentials", err)
	}
}

func TestUploadAPIError(t *testing.T) {
	rt := &captureTransport{status: http.StatusBadRequest, resp: []byte(`{"error":{"message":"invalid signature"}}`)}
	c := newTestClient(t, rt)

	if _, err := c.Upload(context.Background(), "a.jpg", []byte("data")); err == nil {
		t.Fatal("expected error on non-2xx status")
	}
}

func TestDestroy(t *testing.T) {
	rt := &captureTransport{resp: []byte(`{"result":"ok"}`)}
	c := newTestClient(t, rt)

	if err := c.Destroy(context.Background(), "tryon-products/a"); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if got := rt.lastReq.URL.String(); got != "https://api.cloudinary.com/v1_1/demo/image/destroy" {
		t.Fatalf("url = %q", got)
	}
	if !strings.Contains(string(rt.body), "public_id=tryon-products%2Fa") {
		t.Fatalf("form = %q, missing public_id", string(rt.body))
	}
}
