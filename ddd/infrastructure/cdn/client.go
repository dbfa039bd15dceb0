package cdn

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"vod-service/ddd/domain/gateway"
	"vod-service/pkg/config"
	"vod-service/pkg/errno"
	"vod-service/pkg/logger"
)

const defaultTimeout = 30 * time.Second

// Client 外部编码服务 HTTP 客户端，Bearer 鉴权
type Client struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient 创建客户端
func NewClient(cfg config.CDNConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
	}
}

var _ gateway.CDNGateway = (*Client)(nil)

// Configured 是否配置了凭证
func (c *Client) Configured() bool {
	return c.apiKey != "" && c.baseURL != ""
}

// CreateVideo POST /videos
func (c *Client) CreateVideo(ctx context.Context, name string) (*gateway.RemoteVideo, error) {
	var v gateway.RemoteVideo
	if err := c.do(ctx, http.MethodPost, "/videos", map[string]string{"name": name}, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// GetUploadSession GET /videos/{id}/upload
func (c *Client) GetUploadSession(ctx context.Context, videoID string) (*gateway.UploadSession, error) {
	var s gateway.UploadSession
	if err := c.do(ctx, http.MethodGet, "/videos/"+url.PathEscape(videoID)+"/upload", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// GetVideo GET /videos/{id}
func (c *Client) GetVideo(ctx context.Context, videoID string) (*gateway.RemoteVideo, error) {
	var v gateway.RemoteVideo
	if err := c.do(ctx, http.MethodGet, "/videos/"+url.PathEscape(videoID), nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// DeleteVideo DELETE /videos/{id}
func (c *Client) DeleteVideo(ctx context.Context, videoID string) error {
	return c.do(ctx, http.MethodDelete, "/videos/"+url.PathEscape(videoID), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	if !c.Configured() {
		return errno.NewBizError(errno.ErrCDNNotConfigured, nil)
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error("cdn request failed", map[string]interface{}{
			"method": method,
			"path":   path,
			"error":  err.Error(),
		})
		return errno.Upstream(err)
	}
	defer resp.Body.Close()
	logger.Debugf("cdn request method=%s path=%s status=%d elapsed=%s", method, path, resp.StatusCode, time.Since(start))

	if resp.StatusCode == http.StatusNotFound {
		return errno.NotFound("remote video not found: %s", path)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errno.Upstream(fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(snippet))))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return errno.Upstream(fmt.Errorf("decode response: %w", err))
	}
	return nil
}
