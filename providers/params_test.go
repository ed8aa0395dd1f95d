package providers

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKlingParamsValidate(t *testing.T) {
	valid := KlingParams{DurationSec: 5, AspectRatio: "9:16", CfgScale: 0.5}
	assert.NoError(t, valid.Validate())

	tests := []KlingParams{
		{DurationSec: 7, AspectRatio: "9:16", CfgScale: 0.5},
		{DurationSec: 5, AspectRatio: "4:3", CfgScale: 0.5},
		{DurationSec: 5, AspectRatio: "9:16", CfgScale: 1.5},
	}
	for _, p := range tests {
		assert.ErrorIs(t, p.Validate(), ErrInvalidParams)
	}
}

func TestHeygenParamsValidate(t *testing.T) {
	assert.NoError(t, HeygenParams{Resolution: "720p"}.Validate())
	assert.NoError(t, HeygenParams{Resolution: "1080p"}.Validate())
	assert.ErrorIs(t, HeygenParams{Resolution: "480p"}.Validate(), ErrInvalidParams)
}

func TestMinimaxParamsValidate(t *testing.T) {
	assert.NoError(t, MinimaxParams{DurationSec: 6, Resolution: "1080p"}.Validate())
	assert.NoError(t, MinimaxParams{DurationSec: 10, Resolution: "768p"}.Validate())

	// 10s clips only exist at 768p; the combination is rejected at the
	// boundary, before any adapter call.
	assert.ErrorIs(t, MinimaxParams{DurationSec: 10, Resolution: "1080p"}.Validate(), ErrInvalidParams)

	assert.ErrorIs(t, MinimaxParams{DurationSec: 8, Resolution: "768p"}.Validate(), ErrInvalidParams)
	assert.ErrorIs(t, MinimaxParams{DurationSec: 6, Resolution: "720p"}.Validate(), ErrInvalidParams)
}

func TestParseParams(t *testing.T) {
	p, err := ParseParams(Kling, json.RawMessage(`{"duration_sec": 10, "aspect_ratio": "16:9", "cfg_scale": 0.7}`))
	require.NoError(t, err)
	kling, ok := p.(KlingParams)
	require.True(t, ok)
	assert.Equal(t, 10, kling.DurationSec)
	assert.Equal(t, Kling, p.Provider())

	p, err = ParseParams(Minimax, json.RawMessage(`{"duration_sec": 6, "resolution": "768p", "prompt_optimizer": true}`))
	require.NoError(t, err)
	assert.True(t, p.(MinimaxParams).PromptOptimizer)

	_, err = ParseParams(ID("runway"), json.RawMessage(`{}`))
	assert.ErrorIs(t, err, ErrInvalidParams)

	_, err = ParseParams(Heygen, json.RawMessage(`not json`))
	assert.ErrorIs(t, err, ErrInvalidParams)
}
