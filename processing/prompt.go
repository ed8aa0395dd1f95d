package processing

import (
	"errors"
	"fmt"
	"strings"
)

// Layout selects how multi-fragment compositions are framed.
type Layout string

const (
	LayoutHorizontal Layout = "horizontal"
	LayoutVertical   Layout = "vertical"
	LayoutGrid       Layout = "grid"
)

var (
	ErrEmptyFragment   = errors.New("composition fragment is empty")
	ErrNoFragments     = errors.New("no composition fragments supplied")
	ErrTooManyFragment = errors.New("at most 4 composition fragments are supported")
	ErrUnknownLayout   = errors.New("unknown layout")
)

// SeedImagePrompt replaces a scene's image prompt the moment a seed image is
// attached. The author's previous text is overwritten, not saved.
const SeedImagePrompt = "Preserve the composition of the provided image. Minimize motion, keep the camera nearly static with only subtle natural movement."

// AnnouncerPrompt builds the templated presenter prompt used while announcer
// mode is on for a scene.
func AnnouncerPrompt(narration string) string {
	return fmt.Sprintf("A professional news announcer in a broadcast studio, facing the camera and speaking clearly to the viewer: %q. Neutral lighting, steady medium shot.", narration)
}

// ComposePanelPrompt joins 1-4 fragments into a single panel-style generation
// prompt. A single fragment passes through verbatim.
func ComposePanelPrompt(fragments []string, layout Layout) (string, error) {
	return compose(fragments, layout, "panel")
}

// ComposeScenePrompt is the scene-token variant of ComposePanelPrompt.
func ComposeScenePrompt(fragments []string, layout Layout) (string, error) {
	return compose(fragments, layout, "scene")
}

func compose(fragments []string, layout Layout, token string) (string, error) {
	if len(fragments) == 0 {
		return "", ErrNoFragments
	}
	if len(fragments) > 4 {
		return "", ErrTooManyFragment
	}
	for i, f := range fragments {
		if strings.TrimSpace(f) == "" {
			return "", fmt.Errorf("%w: fragment %d", ErrEmptyFragment, i+1)
		}
	}

	if len(fragments) == 1 {
		return fragments[0], nil
	}

	layoutWord, err := layoutWord(layout)
	if err != nil {
		return "", err
	}

	parts := make([]string, len(fragments))
	for i, f := range fragments {
		parts[i] = fmt.Sprintf("%s %s: %s", ordinal(i+1), token, f)
	}

	return fmt.Sprintf("%d-%s %s .%s", len(fragments), token, layoutWord, strings.Join(parts, ". ")), nil
}

func layoutWord(layout Layout) (string, error) {
	switch layout {
	case LayoutHorizontal:
		return "horizontal layout", nil
	case LayoutVertical:
		return "vertical layout", nil
	case LayoutGrid:
		return "grid layout", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownLayout, layout)
	}
}

// ordinal renders 1-indexed position words: 1st, 2nd, 3rd, then Nth.
func ordinal(n int) string {
	switch n {
	case 1:
		return "1st"
	case 2:
		return "2nd"
	case 3:
		return "3rd"
	default:
		return fmt.Sprintf("%dth", n)
	}
}
