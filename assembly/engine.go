// Package assembly turns an ordered, user-filtered set of rendered clips
// into one merged media artifact via the external encoding service.
package assembly

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jungha-dev/newsVideo-sub000/encoder"
)

var (
	ErrNoClipsIncluded = errors.New("merge requires at least one included clip")
	ErrBadTrimWindow   = errors.New("trim window must satisfy start < end")
	ErrBadSpeed        = errors.New("speed must be positive")
	ErrUnknownStyle    = errors.New("caption style must be box or outline")
)

// ClipEdit is one clip in the assembly working set with its edit parameters.
// Freely mutable until a merge request is issued.
type ClipEdit struct {
	ClipRef   string  `json:"clip_ref"`
	Caption   string  `json:"caption,omitempty"`
	TrimStart float64 `json:"trim_start"`
	TrimEnd   float64 `json:"trim_end"`
	Speed     float64 `json:"speed"`
	Included  bool    `json:"included"`
}

// CaptionStyle selects how burned captions are framed.
type CaptionStyle string

const (
	CaptionBox     CaptionStyle = "box"
	CaptionOutline CaptionStyle = "outline"
)

// Engine validates and packages merge requests. The actual media work is
// delegated to the encoder collaborator.
type Engine struct {
	merger    encoder.Merger
	handleTTL time.Duration
	tempDir   string
}

func NewEngine(merger encoder.Merger, handleTTL time.Duration, tempDir string) *Engine {
	if handleTTL <= 0 {
		handleTTL = 60 * time.Second
	}
	return &Engine{merger: merger, handleTTL: handleTTL, tempDir: tempDir}
}

// Merge filters to included clips, validates every entry, dispatches to the
// encoder and wraps the blob in a time-bounded handle. All validation runs
// before any collaborator call.
func (e *Engine) Merge(ctx context.Context, edits []ClipEdit, captionColor string, style CaptionStyle) (*Handle, error) {
	if style != CaptionBox && style != CaptionOutline {
		return nil, fmt.Errorf("%w: got %q", ErrUnknownStyle, style)
	}

	var clips []encoder.MergeClip
	for i, edit := range edits {
		if !edit.Included {
			continue
		}
		if edit.TrimStart >= edit.TrimEnd {
			return nil, fmt.Errorf("%w: clip %d has trim (%v, %v)", ErrBadTrimWindow, i+1, edit.TrimStart, edit.TrimEnd)
		}
		speed := edit.Speed
		if speed == 0 {
			speed = 1
		}
		if speed < 0 {
			return nil, fmt.Errorf("%w: clip %d has speed %v", ErrBadSpeed, i+1, edit.Speed)
		}
		clips = append(clips, encoder.MergeClip{
			URL:       edit.ClipRef,
			Caption:   edit.Caption,
			TrimStart: edit.TrimStart,
			TrimEnd:   edit.TrimEnd,
			Speed:     speed,
		})
	}
	if len(clips) == 0 {
		return nil, ErrNoClipsIncluded
	}

	blob, err := e.merger.Merge(ctx, encoder.MergeRequest{
		Clips:        clips,
		CaptionColor: captionColor,
		CaptionStyle: string(style),
	})
	if err != nil {
		return nil, fmt.Errorf("merge clips: %w", err)
	}

	return newHandle(blob, e.handleTTL, e.tempDir)
}
