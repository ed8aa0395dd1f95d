package render

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jungha-dev/newsVideo-sub000/models"
	"github.com/jungha-dev/newsVideo-sub000/processing"
	"github.com/jungha-dev/newsVideo-sub000/providers"
	"github.com/jungha-dev/newsVideo-sub000/safesource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAdapter renders from a canned per-prompt script and records every
// request it receives.
type fakeAdapter struct {
	id       providers.ID
	failFor  map[string]string // prompt -> error message
	resultOf func(req providers.Request) string

	mu       sync.Mutex
	requests []providers.Request
}

func (f *fakeAdapter) ID() providers.ID { return f.id }

func (f *fakeAdapter) Render(ctx context.Context, req providers.Request, params providers.Params) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if msg, ok := f.failFor[req.Prompt]; ok {
		return "", errors.New(msg)
	}
	if f.resultOf != nil {
		return f.resultOf(req), nil
	}
	return "https://clips.example.com/" + req.Prompt + ".mp4", nil
}

func (f *fakeAdapter) recorded() []providers.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]providers.Request(nil), f.requests...)
}

func klingParams() providers.KlingParams {
	return providers.KlingParams{DurationSec: 5, AspectRatio: "9:16", CfgScale: 0.5}
}

func threeScenes() []models.Scene {
	return []models.Scene{
		{SceneNumber: 1, ImagePrompt: "one", Narration: "n1"},
		{SceneNumber: 2, ImagePrompt: "two", Narration: "n2"},
		{SceneNumber: 3, ImagePrompt: "three", Narration: "n3"},
	}
}

func TestRenderAllIsolatesFailures(t *testing.T) {
	adapter := &fakeAdapter{
		id:      providers.Kling,
		failFor: map[string]string{"two": "model overloaded"},
	}
	o := NewOrchestrator([]providers.Adapter{adapter}, safesource.New(), nil, 1, 4)

	jobs, err := o.RenderAll(context.Background(), threeScenes(), klingParams())
	require.NoError(t, err)
	require.Len(t, jobs, 3)

	byScene := map[int]Job{}
	for _, j := range jobs {
		byScene[j.SceneNumber] = j
	}

	assert.Equal(t, StatusSucceeded, byScene[1].Status)
	assert.NotEmpty(t, byScene[1].Result)
	assert.Equal(t, StatusFailed, byScene[2].Status)
	assert.Contains(t, byScene[2].Error, "model overloaded")
	assert.Empty(t, byScene[2].Result)
	assert.Equal(t, StatusSucceeded, byScene[3].Status)
	assert.NotEmpty(t, byScene[3].Result)
}

func TestReissueOverwritesOnlyThatScene(t *testing.T) {
	adapter := &fakeAdapter{
		id:      providers.Kling,
		failFor: map[string]string{"two": "model overloaded"},
	}
	o := NewOrchestrator([]providers.Adapter{adapter}, safesource.New(), nil, 1, 4)

	scenes := threeScenes()
	_, err := o.RenderAll(context.Background(), scenes, klingParams())
	require.NoError(t, err)

	job1Before, _ := o.Job(1)
	job3Before, _ := o.Job(3)

	// The retry succeeds this time.
	adapter.failFor = nil
	job, err := o.RenderScene(context.Background(), scenes[1], klingParams())
	require.NoError(t, err)
	assert.Equal(t, 2, job.SceneNumber)
	assert.Equal(t, StatusSucceeded, job.Status)
	assert.Empty(t, job.Error)

	job1After, _ := o.Job(1)
	job3After, _ := o.Job(3)
	assert.Equal(t, job1Before, job1After)
	assert.Equal(t, job3Before, job3After)
}

func TestRenderAllRejectsInvalidParams(t *testing.T) {
	adapter := &fakeAdapter{id: providers.Minimax}
	o := NewOrchestrator([]providers.Adapter{adapter}, safesource.New(), nil, 1, 4)

	_, err := o.RenderAll(context.Background(), threeScenes(), providers.MinimaxParams{
		DurationSec: 10,
		Resolution:  "1080p",
	})
	assert.ErrorIs(t, err, providers.ErrInvalidParams)
	assert.Empty(t, adapter.recorded(), "no provider call may happen for invalid params")
}

func TestAnnouncerSubstitutionReachesPayload(t *testing.T) {
	adapter := &fakeAdapter{id: providers.Heygen}
	o := NewOrchestrator([]providers.Adapter{adapter}, safesource.New(), nil, 1, 4)

	scene := models.Scene{
		SceneNumber:   1,
		ImagePrompt:   processing.AnnouncerPrompt("Rain is falling"),
		Narration:     "Rain is falling",
		AnnouncerMode: true,
		PromptBackup:  "city at dawn",
	}

	job, err := o.RenderScene(context.Background(), scene, providers.HeygenParams{Resolution: "720p"})
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, job.Status)

	reqs := adapter.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, processing.AnnouncerPrompt("Rain is falling"), reqs[0].Prompt)
	// Heygen voices the narration itself in announcer mode.
	assert.Equal(t, "", reqs[0].Narration)
}

func TestAnnouncerSceneKeepsNarrationForOtherProviders(t *testing.T) {
	adapter := &fakeAdapter{id: providers.Kling}
	o := NewOrchestrator([]providers.Adapter{adapter}, safesource.New(), nil, 1, 4)

	scene := models.Scene{
		SceneNumber:   1,
		ImagePrompt:   "whatever the store holds",
		Narration:     "Rain is falling",
		AnnouncerMode: true,
	}

	_, err := o.RenderScene(context.Background(), scene, klingParams())
	require.NoError(t, err)

	reqs := adapter.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, processing.AnnouncerPrompt("Rain is falling"), reqs[0].Prompt)
	assert.Equal(t, "Rain is falling", reqs[0].Narration)
}

func TestUnsafeSeedIsStrippedNotSent(t *testing.T) {
	adapter := &fakeAdapter{id: providers.Kling}
	o := NewOrchestrator([]providers.Adapter{adapter}, safesource.New(), nil, 1, 4)

	scenes := []models.Scene{
		{SceneNumber: 1, ImagePrompt: "one", SeedImage: "http://cdn.example.com/a.jpg"},
		{SceneNumber: 2, ImagePrompt: "two", SeedImage: "https://cdn.example.com/b.jpg"},
	}

	_, err := o.RenderAll(context.Background(), scenes, klingParams())
	require.NoError(t, err)

	seeds := map[string]string{}
	for _, req := range adapter.recorded() {
		seeds[req.Prompt] = req.SeedImage
	}
	assert.Equal(t, "", seeds["one"], "insecure seed must render with no seed")
	assert.Equal(t, "https://cdn.example.com/b.jpg", seeds["two"])
}

type fakePublisher struct {
	mu     sync.Mutex
	events []Job
	ids    []uint
}

func (p *fakePublisher) PublishJobUpdate(ctx context.Context, scenarioID uint, job Job) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, job)
	p.ids = append(p.ids, scenarioID)
}

func (p *fakePublisher) published() []Job {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Job(nil), p.events...)
}

func TestEveryJobTransitionIsPublished(t *testing.T) {
	adapter := &fakeAdapter{
		id:      providers.Kling,
		failFor: map[string]string{"two": "model overloaded"},
	}
	pub := &fakePublisher{}
	o := NewOrchestrator([]providers.Adapter{adapter}, safesource.New(), pub, 7, 4)

	scenes := threeScenes()

	// Single-scene renders publish running then the terminal state, in order.
	_, err := o.RenderScene(context.Background(), scenes[0], klingParams())
	require.NoError(t, err)

	events := pub.published()
	require.Len(t, events, 2)
	assert.Equal(t, StatusRunning, events[0].Status)
	assert.Equal(t, 1, events[0].SceneNumber)
	assert.Equal(t, StatusSucceeded, events[1].Status)
	assert.NotEmpty(t, events[1].Result)
	assert.Equal(t, []uint{7, 7}, pub.ids)

	_, err = o.RenderScene(context.Background(), scenes[1], klingParams())
	require.NoError(t, err)

	events = pub.published()
	require.Len(t, events, 4)
	assert.Equal(t, StatusRunning, events[2].Status)
	assert.Equal(t, StatusFailed, events[3].Status)
	assert.Contains(t, events[3].Error, "model overloaded")
}

func TestRenderAllPublishesTwoEventsPerScene(t *testing.T) {
	adapter := &fakeAdapter{id: providers.Kling}
	pub := &fakePublisher{}
	o := NewOrchestrator([]providers.Adapter{adapter}, safesource.New(), pub, 7, 4)

	_, err := o.RenderAll(context.Background(), threeScenes(), klingParams())
	require.NoError(t, err)

	// Completion order interleaves, but every scene gets exactly one
	// running and one terminal event.
	counts := map[int]map[Status]int{}
	for _, e := range pub.published() {
		if counts[e.SceneNumber] == nil {
			counts[e.SceneNumber] = map[Status]int{}
		}
		counts[e.SceneNumber][e.Status]++
	}
	require.Len(t, counts, 3)
	for n := 1; n <= 3; n++ {
		assert.Equal(t, 1, counts[n][StatusRunning], "scene %d running events", n)
		assert.Equal(t, 1, counts[n][StatusSucceeded], "scene %d terminal events", n)
	}
}

func TestForgetDropsJobSlot(t *testing.T) {
	adapter := &fakeAdapter{id: providers.Kling}
	o := NewOrchestrator([]providers.Adapter{adapter}, safesource.New(), nil, 1, 4)

	_, err := o.RenderScene(context.Background(), models.Scene{SceneNumber: 1, ImagePrompt: "one"}, klingParams())
	require.NoError(t, err)

	o.Forget(1)
	_, ok := o.Job(1)
	assert.False(t, ok)
}
