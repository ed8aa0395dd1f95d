package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// KlingAdapter renders clips through the Kling text/image-to-video API.
type KlingAdapter struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewKlingAdapter(baseURL, apiKey string, timeout time.Duration) *KlingAdapter {
	return &KlingAdapter{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (a *KlingAdapter) ID() ID { return Kling }

type klingRequest struct {
	Prompt      string  `json:"prompt"`
	Narration   string  `json:"narration,omitempty"`
	Duration    int     `json:"duration"`
	AspectRatio string  `json:"aspect_ratio"`
	CfgScale    float64 `json:"cfg_scale"`
	Image       string  `json:"image,omitempty"`
}

type klingResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		VideoURL string `json:"video_url"`
	} `json:"data"`
}

func (a *KlingAdapter) Render(ctx context.Context, req Request, params Params) (string, error) {
	p, ok := params.(KlingParams)
	if !ok {
		return "", fmt.Errorf("%w: expected kling params, got %s", ErrInvalidParams, params.Provider())
	}
	if err := p.Validate(); err != nil {
		return "", err
	}

	body := klingRequest{
		Prompt:      req.Prompt,
		Narration:   req.Narration,
		Duration:    p.DurationSec,
		AspectRatio: p.AspectRatio,
		CfgScale:    p.CfgScale,
		Image:       req.SeedImage,
	}

	var out klingResponse
	if err := postJSON(ctx, a.httpClient, a.baseURL+"/v1/videos/generations", a.apiKey, body, &out); err != nil {
		return "", err
	}
	if out.Code != 0 {
		return "", fmt.Errorf("kling: %s", out.Message)
	}
	if out.Data.VideoURL == "" {
		return "", fmt.Errorf("kling: response carried no video url")
	}
	return out.Data.VideoURL, nil
}

// postJSON sends body as JSON with a bearer key and decodes the response into
// out. Non-2xx responses surface the upstream body verbatim.
func postJSON(ctx context.Context, client *http.Client, url, apiKey string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(data))
	}
	return json.Unmarshal(data, out)
}
