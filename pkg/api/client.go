package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/N1c0zz/NeuraMind/internal/config"
	"github.com/N1c0zz/NeuraMind/internal/pkg/logger"
)

const apiKeyHeader = "X-API-Key"

// maxErrorBody bounds how much of an error response is kept for diagnostics.
const maxErrorBody = 2048

// Client is the configured transport to the NeuraMind backend. It carries
// the API key on every request and keeps two timeout profiles: a short one
// for query/answer/health/delete and a longer one for multipart uploads.
type Client struct {
	baseURL string
	apiKey  string
	short   *http.Client
	upload  *http.Client
	logger  logger.ILogger
}

func NewClient(cfg config.APIConfig, log logger.ILogger) *Client {
	if log == nil {
		log = logger.Nop{}
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.Key,
		short: &http.Client{
			Timeout: time.Duration(cfg.ShortTimeoutSecs) * time.Second,
		},
		upload: &http.Client{
			Timeout: time.Duration(cfg.UploadTimeoutSecs) * time.Second,
		},
		logger: log,
	}
}

// Health checks the backend liveness endpoint on the short profile.
func (c *Client) Health(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/health", nil, nil)
}

// doJSON performs a single JSON request on the short timeout profile and
// decodes the response into out when out is non-nil. A single attempt per
// call; retry policy, if any, belongs to the caller.
func (c *Client) doJSON(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewBuffer(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("transport", "request", map[string]interface{}{
		"method": method,
		"path":   path,
	})

	return c.do(c.short, req, out)
}

// doMultipart performs a single multipart POST on the upload timeout
// profile. fields are plain form values; the file part is streamed from r.
func (c *Client) doMultipart(ctx context.Context, path string, fields map[string]string, fileField, filename string, r io.Reader, out interface{}) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return fmt.Errorf("write form field %s: %w", k, err)
		}
	}
	part, err := writer.CreateFormFile(fileField, filename)
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return fmt.Errorf("copy file content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	c.logger.Debug("transport", "multipart request", map[string]interface{}{
		"path": path,
	})

	return c.do(c.upload, req, out)
}

func (c *Client) do(hc *http.Client, req *http.Request, out interface{}) error {
	resp, err := hc.Do(req)
	if err != nil {
		te := classify(err)
		c.logger.Warn("transport", "request failed", map[string]interface{}{
			"path": req.URL.Path,
			"kind": string(te.Kind),
		})
		return te
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return classify(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body := string(bodyBytes)
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		c.logger.Warn("transport", "non-2xx response", map[string]interface{}{
			"path":   req.URL.Path,
			"status": resp.StatusCode,
		})
		return &TransportError{Kind: KindHTTPStatus, Status: resp.StatusCode, Body: body}
	}

	c.logger.Debug("transport", "response", map[string]interface{}{
		"path":   req.URL.Path,
		"status": resp.StatusCode,
	})

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return &TransportError{Kind: KindDecode, Err: fmt.Errorf("unmarshal response: %w", err)}
	}
	return nil
}
