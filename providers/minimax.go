package providers

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// MinimaxAdapter renders clips through the Minimax video generation API.
type MinimaxAdapter struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewMinimaxAdapter(baseURL, apiKey string, timeout time.Duration) *MinimaxAdapter {
	return &MinimaxAdapter{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (a *MinimaxAdapter) ID() ID { return Minimax }

type minimaxRequest struct {
	Prompt          string `json:"prompt"`
	Narration       string `json:"narration,omitempty"`
	Duration        int    `json:"duration"`
	Resolution      string `json:"resolution"`
	PromptOptimizer bool   `json:"prompt_optimizer"`
}

type minimaxResponse struct {
	BaseResp struct {
		StatusCode int    `json:"status_code"`
		StatusMsg  string `json:"status_msg"`
	} `json:"base_resp"`
	VideoURL string `json:"video_url"`
}

func (a *MinimaxAdapter) Render(ctx context.Context, req Request, params Params) (string, error) {
	p, ok := params.(MinimaxParams)
	if !ok {
		return "", fmt.Errorf("%w: expected minimax params, got %s", ErrInvalidParams, params.Provider())
	}
	if err := p.Validate(); err != nil {
		return "", err
	}

	body := minimaxRequest{
		Prompt:          req.Prompt,
		Narration:       req.Narration,
		Duration:        p.DurationSec,
		Resolution:      p.Resolution,
		PromptOptimizer: p.PromptOptimizer,
	}

	var out minimaxResponse
	if err := postJSON(ctx, a.httpClient, a.baseURL+"/v1/video_generation", a.apiKey, body, &out); err != nil {
		return "", err
	}
	if out.BaseResp.StatusCode != 0 {
		return "", fmt.Errorf("minimax: %s", out.BaseResp.StatusMsg)
	}
	if out.VideoURL == "" {
		return "", fmt.Errorf("minimax: response carried no video url")
	}
	return out.VideoURL, nil
}
