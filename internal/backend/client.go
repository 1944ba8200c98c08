package backend

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"quickbidz-storefront/internal/storefronterrors"

	"github.com/andybalholm/brotli"
)

// API is the single entry point to the auction backend.
type API interface {
	Do(ctx context.Context, req Request) (*Response, error)
}

// Request describes one call to the backend. Body is JSON-encoded when set;
// RawBody is sent as-is with ContentType (multipart uploads).
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	Body        any
	RawBody     []byte
	ContentType string
	Token       string
}

// Response is a successful backend response with its body fully read.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Client talks JSON to the backend base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a backend client. A zero timeout leaves the
// http.Client default.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Do sends the request. Non-2xx responses come back as *APIError; transport
// failures wrap storefronterrors.ErrBackendUnavailable.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	target := c.baseURL + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	contentType := "application/json"
	switch {
	case req.RawBody != nil:
		body = bytes.NewReader(req.RawBody)
		if req.ContentType != "" {
			contentType = req.ContentType
		}
	case req.Body != nil:
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("backend: encode %s %s: %w", method, req.Path, err)
		}
		body = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("backend: build %s %s: %w", method, req.Path, err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Accept-Encoding", "br, gzip")
	if req.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("backend: %s %s: %w: %w", method, req.Path, storefronterrors.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	payload, err := readBody(resp)
	if err != nil {
		return nil, fmt.Errorf("backend: read %s %s: %w: %w", method, req.Path, storefronterrors.ErrBackendUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, NewAPIError(resp.StatusCode, payload)
	}

	return &Response{Status: resp.StatusCode, Header: resp.Header.Clone(), Body: payload}, nil
}

// readBody undoes the content encodings advertised in Accept-Encoding. Setting
// that header ourselves disables net/http's transparent gzip handling.
func readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "br":
		reader = brotli.NewReader(resp.Body)
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		reader = gz
	}
	return io.ReadAll(reader)
}

// DecodeJSON unmarshals a response body into T.
func DecodeJSON[T any](resp *Response) (T, error) {
	var out T
	if resp == nil || len(resp.Body) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return out, fmt.Errorf("backend: decode %T: %w", out, err)
	}
	return out, nil
}

// StatusOf returns the backend status carried by err, or 0 when err did not
// come from a backend response.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
