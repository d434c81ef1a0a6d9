// Package api implements the HTTP client for the KekUpload chunked
// blob-storage API (create/upload/finish/remove/length/download).
package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gamepowerx/kekupload-go/utils"
	"github.com/google/uuid"
)

type HTTPClientConfig struct {
	Timeout   time.Duration
	KATimeout time.Duration
	ProxyURL  string
	UserAgent string
	Headers   map[string]string
}

type Client struct {
	base   string
	client *http.Client
	config HTTPClientConfig
}

func NewClient(baseURL string, cfg HTTPClientConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.KATimeout == 0 {
		cfg.KATimeout = 60 * time.Second
	}
	transport := &http.Transport{
		IdleConnTimeout:     cfg.KATimeout,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		DisableCompression:  true,
		MaxConnsPerHost:     0,
	}
	if cfg.ProxyURL != "" {
		proxyURL, err := url.Parse(cfg.ProxyURL)
		if err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		config: cfg,
	}
}

// Request issues a single call against the remote API. A 200 response
// returns the raw body; anything else is decoded into an *APIError.
func (c *Client) Request(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	log := utils.GetLogger("api")
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+"/"+path, reader)
	if err != nil {
		return nil, fmt.Errorf("error creating %s request: %v", method, err)
	}
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	} else {
		req.Header.Set("User-Agent", "KekUpload-Go")
	}
	for k, v := range c.config.Headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/octet-stream")
	}
	log.Debug().Str("method", method).Str("path", path).Int("bodySize", len(body)).Msg("Sending request")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error executing %s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp.StatusCode, data)
	}
	return data, nil
}
