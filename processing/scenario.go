package processing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jungha-dev/newsVideo-sub000/models"
)

// ErrScenarioParse marks a completion that did not match the expected shape.
// The caller gets no partial Scenario; re-invocation is up to the user.
var ErrScenarioParse = errors.New("scenario response did not match expected shape")

// ScenarioDraft is the structured output for the scenario composition call.
type ScenarioDraft struct {
	Title   string       `json:"title" jsonschema_description:"A short, engaging title for the video."`
	Summary string       `json:"summary" jsonschema_description:"One or two sentences summarizing the video."`
	Scenes  []SceneDraft `json:"scenes" jsonschema_description:"The ordered list of scenes making up the video."`
}

// SceneDraft is a single scene inside a ScenarioDraft.
type SceneDraft struct {
	ImagePrompt string `json:"image_prompt" jsonschema_description:"A detailed text-to-video generation prompt for this scene's visuals."`
	Narration   string `json:"narration" jsonschema_description:"The spoken narration for this scene, one or two sentences."`
}

var scenarioDraftSchema = GenerateSchema[ScenarioDraft]()

// ComposeScenario turns a written brief into a Scenario with sceneCount
// scenes via the text-completion collaborator.
func ComposeScenario(ctx context.Context, completer Completer, brief string, sceneCount int, sceneDurationSec float64) (models.Scenario, error) {
	if strings.TrimSpace(brief) == "" {
		return models.Scenario{}, fmt.Errorf("brief is empty")
	}
	if sceneCount < 1 {
		return models.Scenario{}, fmt.Errorf("scene count must be at least 1, got %d", sceneCount)
	}

	prompt := fmt.Sprintf(`You are writing a short-form video scenario from a brief.

Brief:
%s

Break the video into exactly %d scenes. Each scene runs roughly %.0f seconds.
For every scene write:
- "image_prompt": a detailed visual prompt for an AI video model describing setting, subject, action and camera movement.
- "narration": the sentence or two a narrator speaks over that scene.

Also produce a short title and a one-to-two sentence summary for the whole video.`,
		brief, sceneCount, sceneDurationSec)

	raw, err := completer.Complete(ctx, CompletionRequest{
		Prompt:     prompt,
		SchemaName: "scenario_draft",
		Schema:     scenarioDraftSchema,
	})
	if err != nil {
		return models.Scenario{}, fmt.Errorf("compose scenario: %w", err)
	}

	var draft ScenarioDraft
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		return models.Scenario{}, fmt.Errorf("%w: %v", ErrScenarioParse, err)
	}
	if strings.TrimSpace(draft.Title) == "" || len(draft.Scenes) == 0 {
		return models.Scenario{}, fmt.Errorf("%w: missing title or scenes", ErrScenarioParse)
	}

	scenario := models.Scenario{
		Title:   strings.TrimSpace(draft.Title),
		Summary: strings.TrimSpace(draft.Summary),
	}
	for i, s := range draft.Scenes {
		scenario.Scenes = append(scenario.Scenes, models.Scene{
			SceneNumber: i + 1,
			ImagePrompt: strings.TrimSpace(s.ImagePrompt),
			Narration:   strings.TrimSpace(s.Narration),
		})
	}

	return scenario, nil
}
