package processing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposePanelPromptSingleFragment(t *testing.T) {
	out, err := ComposePanelPrompt([]string{"a cat on a roof"}, LayoutHorizontal)
	require.NoError(t, err)
	assert.Equal(t, "a cat on a roof", out)
}

func TestComposePanelPromptOrdinals(t *testing.T) {
	out, err := ComposePanelPrompt([]string{"one", "two", "three", "four"}, LayoutGrid)
	require.NoError(t, err)

	assert.Equal(t, "4-panel grid layout .1st panel: one. 2nd panel: two. 3rd panel: three. 4th panel: four", out)
}

func TestComposePanelPromptLayouts(t *testing.T) {
	tests := []struct {
		layout Layout
		want   string
	}{
		{LayoutHorizontal, "2-panel horizontal layout .1st panel: a. 2nd panel: b"},
		{LayoutVertical, "2-panel vertical layout .1st panel: a. 2nd panel: b"},
		{LayoutGrid, "2-panel grid layout .1st panel: a. 2nd panel: b"},
	}
	for _, tt := range tests {
		out, err := ComposePanelPrompt([]string{"a", "b"}, tt.layout)
		require.NoError(t, err)
		assert.Equal(t, tt.want, out)
	}
}

func TestComposeScenePromptUsesSceneToken(t *testing.T) {
	out, err := ComposeScenePrompt([]string{"x", "y"}, LayoutVertical)
	require.NoError(t, err)
	assert.Equal(t, "2-scene vertical layout .1st scene: x. 2nd scene: y", out)
}

func TestComposeRejectsEmptyFragments(t *testing.T) {
	_, err := ComposePanelPrompt([]string{"ok", "   "}, LayoutHorizontal)
	assert.ErrorIs(t, err, ErrEmptyFragment)

	_, err = ComposeScenePrompt([]string{""}, LayoutHorizontal)
	assert.ErrorIs(t, err, ErrEmptyFragment)
}

func TestComposeRejectsBadInput(t *testing.T) {
	_, err := ComposePanelPrompt(nil, LayoutHorizontal)
	assert.ErrorIs(t, err, ErrNoFragments)

	_, err = ComposePanelPrompt([]string{"a", "b", "c", "d", "e"}, LayoutHorizontal)
	assert.ErrorIs(t, err, ErrTooManyFragment)

	_, err = ComposePanelPrompt([]string{"a", "b"}, Layout("diagonal"))
	assert.ErrorIs(t, err, ErrUnknownLayout)
}

func TestSingleFragmentIgnoresLayoutValidation(t *testing.T) {
	// A single-panel composition gets no framing, so the layout never
	// renders and is not validated.
	out, err := ComposePanelPrompt([]string{"solo"}, Layout("diagonal"))
	require.NoError(t, err)
	assert.Equal(t, "solo", out)
}

func TestAnnouncerPromptCarriesNarration(t *testing.T) {
	p := AnnouncerPrompt("Rain is falling")
	assert.Contains(t, p, `"Rain is falling"`)
	assert.Contains(t, p, "announcer")
}
