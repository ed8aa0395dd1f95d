package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"path"
	"time"

	"github.com/jungha-dev/newsVideo-sub000/models"
	"github.com/jungha-dev/newsVideo-sub000/tasks"
)

var downloadClient = &http.Client{Timeout: 120 * time.Second}

// HandleClipPersist copies a scene's ephemeral provider clip into durable
// storage. Provider URLs expire, so this runs as soon as a render succeeds.
func (p *Processor) HandleClipPersist(ctx context.Context, payload string) error {
	var task tasks.ClipPersistPayload
	if err := json.Unmarshal([]byte(payload), &task); err != nil {
		return err
	}

	log.Printf("Persisting clip for scene %d", task.SceneID)
	var scene models.Scene
	if err := p.DB.First(&scene, task.SceneID).Error; err != nil {
		return err
	}

	if scene.RenderedClip != task.ClipURL {
		// The scene was re-rendered after this task was queued; the newer
		// render has its own task.
		log.Printf("Skipping stale clip persist for scene %d", task.SceneID)
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, task.ClipURL, nil)
	if err != nil {
		return err
	}
	resp, err := downloadClient.Do(req)
	if err != nil {
		return fmt.Errorf("download clip: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download clip: HTTP %d", resp.StatusCode)
	}

	name := path.Base(req.URL.Path)
	if path.Ext(name) == "" {
		name = "clip.mp4"
	}
	ref, err := p.Store.Save(name, resp.Body)
	if err != nil {
		return fmt.Errorf("store clip: %w", err)
	}

	if err := p.DB.Model(&scene).Update("persisted_clip", ref).Error; err != nil {
		return err
	}
	log.Printf("Persisted clip for scene %d: %s", task.SceneID, ref)
	return nil
}
