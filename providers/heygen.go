package providers

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// HeygenAdapter renders presenter-style clips. Heygen has no seed-image
// support; the request's SeedImage is ignored.
type HeygenAdapter struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewHeygenAdapter(baseURL, apiKey string, timeout time.Duration) *HeygenAdapter {
	return &HeygenAdapter{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (a *HeygenAdapter) ID() ID { return Heygen }

type heygenRequest struct {
	Prompt     string `json:"prompt"`
	Narration  string `json:"narration"`
	Resolution string `json:"resolution"`
}

type heygenResponse struct {
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
	Data struct {
		VideoURL string `json:"video_url"`
	} `json:"data"`
}

func (a *HeygenAdapter) Render(ctx context.Context, req Request, params Params) (string, error) {
	p, ok := params.(HeygenParams)
	if !ok {
		return "", fmt.Errorf("%w: expected heygen params, got %s", ErrInvalidParams, params.Provider())
	}
	if err := p.Validate(); err != nil {
		return "", err
	}

	// Narration arrives already emptied for announcer-mode scenes; it is
	// still sent as a field, not omitted.
	body := heygenRequest{
		Prompt:     req.Prompt,
		Narration:  req.Narration,
		Resolution: p.Resolution,
	}

	var out heygenResponse
	if err := postJSON(ctx, a.httpClient, a.baseURL+"/v2/video/generate", a.apiKey, body, &out); err != nil {
		return "", err
	}
	if out.Error != nil && out.Error.Message != "" {
		return "", fmt.Errorf("heygen: %s", out.Error.Message)
	}
	if out.Data.VideoURL == "" {
		return "", fmt.Errorf("heygen: response carried no video url")
	}
	return out.Data.VideoURL, nil
}
