// Package render fans render commands out to per-scene generation jobs and
// tracks their status. Jobs are independent: one scene failing never blocks
// or rolls back a sibling. There is no automatic retry; re-issuing a render
// for a scene overwrites that scene's job slot.
package render

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jungha-dev/newsVideo-sub000/models"
	"github.com/jungha-dev/newsVideo-sub000/processing"
	"github.com/jungha-dev/newsVideo-sub000/providers"
	"github.com/jungha-dev/newsVideo-sub000/safesource"
	"golang.org/x/sync/errgroup"
)

type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusRunning    Status = "running"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
)

// Job is the per-scene generation job record.
type Job struct {
	SceneNumber int          `json:"scene_number"`
	Provider    providers.ID `json:"provider"`
	Status      Status       `json:"status"`
	Result      string       `json:"result,omitempty"`
	Error       string       `json:"error,omitempty"`
	StartedAt   time.Time    `json:"started_at,omitempty"`
	FinishedAt  time.Time    `json:"finished_at,omitempty"`
}

// Publisher receives every job transition so callers can observe
// interleaved completions.
type Publisher interface {
	PublishJobUpdate(ctx context.Context, scenarioID uint, job Job)
}

// RedisPublisher publishes job transitions to render:status:<scenario_id>.
type RedisPublisher struct {
	RDB *redis.Client
}

func (p *RedisPublisher) PublishJobUpdate(ctx context.Context, scenarioID uint, job Job) {
	payload, err := json.Marshal(job)
	if err != nil {
		log.Printf("Error marshalling job update: %v", err)
		return
	}
	channel := jobChannel(scenarioID)
	if err := p.RDB.Publish(ctx, channel, payload).Err(); err != nil {
		log.Printf("Error publishing to %s: %v", channel, err)
	}
}

func jobChannel(scenarioID uint) string {
	return fmt.Sprintf("render:status:%d", scenarioID)
}

// Orchestrator tracks generation jobs for one scenario. Writes to the status
// table are keyed by scene number so concurrent completions never clobber a
// sibling's slot.
type Orchestrator struct {
	mu   sync.Mutex
	jobs map[int]Job

	adapters      map[providers.ID]providers.Adapter
	filter        *safesource.Filter
	publisher     Publisher
	scenarioID    uint
	maxConcurrent int
}

func NewOrchestrator(adapters []providers.Adapter, filter *safesource.Filter, publisher Publisher, scenarioID uint, maxConcurrent int) *Orchestrator {
	byID := make(map[providers.ID]providers.Adapter, len(adapters))
	for _, a := range adapters {
		byID[a.ID()] = a
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	if filter == nil {
		filter = safesource.New()
	}
	return &Orchestrator{
		jobs:          make(map[int]Job),
		adapters:      byID,
		filter:        filter,
		publisher:     publisher,
		scenarioID:    scenarioID,
		maxConcurrent: maxConcurrent,
	}
}

// RenderScene issues one generation job for the scene, overwriting any prior
// job for that scene number, and blocks until it finishes.
func (o *Orchestrator) RenderScene(ctx context.Context, scene models.Scene, params providers.Params) (Job, error) {
	if err := params.Validate(); err != nil {
		return Job{}, err
	}
	adapter, ok := o.adapters[params.Provider()]
	if !ok {
		return Job{}, providers.ErrInvalidParams
	}
	return o.renderOne(ctx, adapter, scene, params), nil
}

// RenderAll issues one job per scene concurrently under one provider's
// parameter schema. Per-scene failures land in that scene's job slot only;
// the returned slice reflects final statuses in scene order.
func (o *Orchestrator) RenderAll(ctx context.Context, sceneList []models.Scene, params providers.Params) ([]Job, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	adapter, ok := o.adapters[params.Provider()]
	if !ok {
		return nil, providers.ErrInvalidParams
	}

	var g errgroup.Group
	g.SetLimit(o.maxConcurrent)
	for _, scene := range sceneList {
		scene := scene
		g.Go(func() error {
			o.renderOne(ctx, adapter, scene, params)
			return nil
		})
	}
	// renderOne records failures per scene; Wait only synchronizes.
	_ = g.Wait()

	jobs := make([]Job, 0, len(sceneList))
	for _, scene := range sceneList {
		if job, ok := o.Job(scene.SceneNumber); ok {
			jobs = append(jobs, job)
		}
	}
	return jobs, nil
}

func (o *Orchestrator) renderOne(ctx context.Context, adapter providers.Adapter, scene models.Scene, params providers.Params) Job {
	job := Job{
		SceneNumber: scene.SceneNumber,
		Provider:    adapter.ID(),
		Status:      StatusRunning,
		StartedAt:   time.Now(),
	}
	o.setJob(ctx, job)

	req := o.buildRequest(scene, adapter.ID())
	clipURL, err := adapter.Render(ctx, req, params)

	job.FinishedAt = time.Now()
	if err != nil {
		job.Status = StatusFailed
		job.Error = err.Error()
		log.Printf("Scene %d render failed on %s: %v", scene.SceneNumber, adapter.ID(), err)
	} else {
		job.Status = StatusSucceeded
		job.Result = clipURL
		log.Printf("Scene %d rendered on %s", scene.SceneNumber, adapter.ID())
	}
	o.setJob(ctx, job)
	return job
}

// buildRequest captures the values actually sent upstream: the announcer
// substitution must appear in the payload, and an unsafe seed renders the
// scene with no seed at all.
func (o *Orchestrator) buildRequest(scene models.Scene, provider providers.ID) providers.Request {
	prompt := scene.ImagePrompt
	narration := scene.Narration
	if scene.AnnouncerMode {
		prompt = processing.AnnouncerPrompt(scene.Narration)
		if provider == providers.Heygen {
			// Heygen voices the narration itself in announcer mode.
			narration = ""
		}
	}

	seed := ""
	if scene.SeedImage != "" && o.filter.Safe(scene.SeedImage) {
		seed = scene.SeedImage
	}

	return providers.Request{
		Prompt:    prompt,
		Narration: narration,
		SeedImage: seed,
	}
}

// Job returns the current job for a scene number, if one was ever issued.
func (o *Orchestrator) Job(sceneNumber int) (Job, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	job, ok := o.jobs[sceneNumber]
	return job, ok
}

// Jobs returns a snapshot of every job slot.
func (o *Orchestrator) Jobs() []Job {
	o.mu.Lock()
	defer o.mu.Unlock()
	jobs := make([]Job, 0, len(o.jobs))
	for _, job := range o.jobs {
		jobs = append(jobs, job)
	}
	return jobs
}

// Forget drops the job slot for a scene, for when the scene itself is
// deleted from the scenario.
func (o *Orchestrator) Forget(sceneNumber int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.jobs, sceneNumber)
}

func (o *Orchestrator) setJob(ctx context.Context, job Job) {
	o.mu.Lock()
	o.jobs[job.SceneNumber] = job
	o.mu.Unlock()

	if o.publisher != nil {
		o.publisher.PublishJobUpdate(ctx, o.scenarioID, job)
	}
}
