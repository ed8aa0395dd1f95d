// Package encoder is the client for the external video-encoding/merge
// service. The service decodes, trims, speed-changes, caption-burns and
// concatenates; this client only ships the request and takes the blob back.
package encoder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// MergeClip is one clip entry in a merge request, in output order.
type MergeClip struct {
	URL       string  `json:"url"`
	Caption   string  `json:"caption,omitempty"`
	TrimStart float64 `json:"trim_start"`
	TrimEnd   float64 `json:"trim_end"`
	Speed     float64 `json:"speed"`
}

// MergeRequest carries the ordered clip list plus global caption styling.
type MergeRequest struct {
	Clips        []MergeClip `json:"clips"`
	CaptionColor string      `json:"caption_color"`
	CaptionStyle string      `json:"caption_style"`
}

// Merger is what the assembly engine depends on.
type Merger interface {
	Merge(ctx context.Context, req MergeRequest) ([]byte, error)
}

// Client talks to the encoding service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Merge posts the request and returns the single encoded blob.
func (c *Client) Merge(ctx context.Context, req MergeRequest) ([]byte, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/merge", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("encoder unavailable: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("encoder HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(data))
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("encoder returned empty blob")
	}
	return data, nil
}
