// Package providers holds the closed set of generative-video backends. Each
// adapter renders one clip per call; parameters are a tagged union keyed by
// provider id and validated before dispatch.
package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

type ID string

const (
	Kling   ID = "kling"
	Heygen  ID = "heygen"
	Minimax ID = "minimax"
)

var ErrInvalidParams = errors.New("invalid provider parameters")

// Params is the provider-specific parameter variant.
type Params interface {
	Provider() ID
	Validate() error
}

// Request carries the per-scene values captured at render time. SeedImage is
// already safe-source filtered by the orchestrator; adapters that do not
// support seeding ignore it.
type Request struct {
	Prompt    string
	Narration string
	SeedImage string
}

// Adapter is the shared render capability across providers.
type Adapter interface {
	ID() ID
	Render(ctx context.Context, req Request, params Params) (string, error)
}

// KlingParams configures a Kling render.
type KlingParams struct {
	DurationSec int     `json:"duration_sec"`
	AspectRatio string  `json:"aspect_ratio"`
	CfgScale    float64 `json:"cfg_scale"`
}

func (KlingParams) Provider() ID { return Kling }

func (p KlingParams) Validate() error {
	if p.DurationSec != 5 && p.DurationSec != 10 {
		return fmt.Errorf("%w: kling duration must be 5 or 10, got %d", ErrInvalidParams, p.DurationSec)
	}
	switch p.AspectRatio {
	case "16:9", "9:16", "1:1":
	default:
		return fmt.Errorf("%w: kling aspect ratio must be 16:9, 9:16 or 1:1, got %q", ErrInvalidParams, p.AspectRatio)
	}
	if p.CfgScale < 0 || p.CfgScale > 1 {
		return fmt.Errorf("%w: kling cfg scale must be within [0,1], got %v", ErrInvalidParams, p.CfgScale)
	}
	return nil
}

// HeygenParams configures a Heygen render. Heygen voices the narration
// itself when announcer mode is on, so the orchestrator sends an empty
// narration string in that case.
type HeygenParams struct {
	Resolution string `json:"resolution"`
}

func (HeygenParams) Provider() ID { return Heygen }

func (p HeygenParams) Validate() error {
	switch p.Resolution {
	case "720p", "1080p":
		return nil
	default:
		return fmt.Errorf("%w: heygen resolution must be 720p or 1080p, got %q", ErrInvalidParams, p.Resolution)
	}
}

// MinimaxParams configures a Minimax render. 10s clips are only available
// at 768p.
type MinimaxParams struct {
	DurationSec     int    `json:"duration_sec"`
	Resolution      string `json:"resolution"`
	PromptOptimizer bool   `json:"prompt_optimizer"`
}

func (MinimaxParams) Provider() ID { return Minimax }

func (p MinimaxParams) Validate() error {
	if p.DurationSec != 6 && p.DurationSec != 10 {
		return fmt.Errorf("%w: minimax duration must be 6 or 10, got %d", ErrInvalidParams, p.DurationSec)
	}
	switch p.Resolution {
	case "768p", "1080p":
	default:
		return fmt.Errorf("%w: minimax resolution must be 768p or 1080p, got %q", ErrInvalidParams, p.Resolution)
	}
	if p.DurationSec == 10 && p.Resolution != "768p" {
		return fmt.Errorf("%w: minimax 10s clips require 768p resolution", ErrInvalidParams)
	}
	return nil
}

// ParseParams decodes the raw variant for the given provider id.
func ParseParams(id ID, raw json.RawMessage) (Params, error) {
	switch id {
	case Kling:
		var p KlingParams
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
		}
		return p, nil
	case Heygen:
		var p HeygenParams
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
		}
		return p, nil
	case Minimax:
		var p MinimaxParams
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidParams, id)
	}
}
