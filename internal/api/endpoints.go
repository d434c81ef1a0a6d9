package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

type createResponse struct {
	Stream string `json:"stream"`
}

type successResponse struct {
	Success bool `json:"success"`
}

type finishResponse struct {
	ID string `json:"id"`
}

type lengthResponse struct {
	Size int64 `json:"size"`
}

// CreateStream opens a new upload stream for a file extension and an
// optional display name, returning the server-issued stream token.
func (c *Client) CreateStream(ctx context.Context, ext, name string) (string, error) {
	path := "c/" + url.PathEscape(ext)
	if name != "" {
		path += "/" + url.PathEscape(name)
	}
	data, err := c.Request(ctx, http.MethodPost, path, nil)
	if err != nil {
		return "", err
	}
	var resp createResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("error decoding create response: %v", err)
	}
	if resp.Stream == "" {
		return "", errors.New("server returned empty stream token")
	}
	return resp.Stream, nil
}

// UploadChunk sends one content-addressed chunk against an open stream.
func (c *Client) UploadChunk(ctx context.Context, stream, hash string, chunk []byte) error {
	path := "u/" + url.PathEscape(stream) + "/" + url.PathEscape(hash)
	data, err := c.Request(ctx, http.MethodPost, path, chunk)
	if err != nil {
		return err
	}
	var resp successResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return fmt.Errorf("error decoding upload response: %v", err)
	}
	if !resp.Success {
		return errors.New("server rejected chunk")
	}
	return nil
}

// FinishStream finalizes a stream into a permanent artifact. The hash is
// the whole-stream digest; the server verifies it against its own.
func (c *Client) FinishStream(ctx context.Context, stream, hash string) (string, error) {
	path := "f/" + url.PathEscape(stream) + "/" + url.PathEscape(hash)
	data, err := c.Request(ctx, http.MethodPost, path, nil)
	if err != nil {
		return "", err
	}
	var resp finishResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("error decoding finish response: %v", err)
	}
	if resp.ID == "" {
		return "", errors.New("server returned empty artifact id")
	}
	return resp.ID, nil
}

// RemoveStream discards an in-progress stream without producing an artifact.
func (c *Client) RemoveStream(ctx context.Context, stream string) error {
	data, err := c.Request(ctx, http.MethodPost, "r/"+url.PathEscape(stream), nil)
	if err != nil {
		return err
	}
	var resp successResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return fmt.Errorf("error decoding remove response: %v", err)
	}
	if !resp.Success {
		return errors.New("server refused stream removal")
	}
	return nil
}

// ArtifactLength returns the total byte length of a finalized artifact.
func (c *Client) ArtifactLength(ctx context.Context, id string) (int64, error) {
	data, err := c.Request(ctx, http.MethodGet, "l/"+url.PathEscape(id), nil)
	if err != nil {
		return 0, err
	}
	var resp lengthResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return 0, fmt.Errorf("error decoding length response: %v", err)
	}
	if resp.Size < 0 {
		return 0, fmt.Errorf("server reported invalid artifact size: %d", resp.Size)
	}
	return resp.Size, nil
}

// DownloadChunk fetches a raw byte range of a finalized artifact.
func (c *Client) DownloadChunk(ctx context.Context, id string, offset, size int64) ([]byte, error) {
	path := "d/" + url.PathEscape(id) + "/" + strconv.FormatInt(offset, 10) + "/" + strconv.FormatInt(size, 10)
	return c.Request(ctx, http.MethodGet, path, nil)
}
