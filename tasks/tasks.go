package tasks

import "encoding/json"

// ---
// QUEUE DEFINITIONS
// ---
const (
	// QueueClipPersist copies a scene's ephemeral provider clip into
	// durable storage and writes back persisted_clip.
	QueueClipPersist = "q_clip_persist"
)

// ---
// TASK PAYLOADS
// ---

// ClipPersistPayload is the payload for QueueClipPersist.
type ClipPersistPayload struct {
	SceneID uint   `json:"scene_id"`
	ClipURL string `json:"clip_url"`
}

// Marshal creates a JSON payload for a task.
func Marshal(payload interface{}) (string, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
