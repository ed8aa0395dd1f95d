// Package session composes the scene store, orchestrator and assembly
// engine into the command surface for one scenario.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jungha-dev/newsVideo-sub000/assembly"
	"github.com/jungha-dev/newsVideo-sub000/models"
	"github.com/jungha-dev/newsVideo-sub000/processing"
	"github.com/jungha-dev/newsVideo-sub000/providers"
	"github.com/jungha-dev/newsVideo-sub000/render"
	"github.com/jungha-dev/newsVideo-sub000/safesource"
	"github.com/jungha-dev/newsVideo-sub000/scenes"
	"github.com/jungha-dev/newsVideo-sub000/storage"
	"github.com/jungha-dev/newsVideo-sub000/tasks"
	"github.com/jungha-dev/newsVideo-sub000/worker"
	"gorm.io/gorm"
)

var (
	ErrUnsafeSeed  = errors.New("seed image URL rejected by safe-source filter")
	ErrNotFound    = errors.New("scenario not found")
	ErrClipMissing = errors.New("clip not in working set")
)

// Deps are the collaborators shared by every session.
type Deps struct {
	DB        *gorm.DB
	Completer processing.Completer
	Adapters  []providers.Adapter
	Filter    *safesource.Filter
	Publisher render.Publisher
	Engine    *assembly.Engine
	Blobs     storage.Storage
	Queue     *worker.Processor

	MaxConcurrentRenders int
	SceneDurationSec     float64
}

// WorkingClip is one assembly working-set entry. SceneNumber is non-zero for
// clips that came out of this scenario's own renders.
type WorkingClip struct {
	SceneNumber int `json:"scene_number,omitempty"`
	assembly.ClipEdit
}

// Session is the live command surface over one scenario.
type Session struct {
	deps   Deps
	userID uint

	mu       sync.Mutex
	scenario models.Scenario
	store    *scenes.Store
	orch     *render.Orchestrator
	clips    []WorkingClip
}

func newSession(deps Deps, userID uint, scenario models.Scenario) *Session {
	return &Session{
		deps:     deps,
		userID:   userID,
		scenario: scenario,
		store:    scenes.New(scenario.Scenes),
		orch: render.NewOrchestrator(
			deps.Adapters, deps.Filter, deps.Publisher,
			scenario.ID, deps.MaxConcurrentRenders,
		),
	}
}

// Scenario returns the scenario record with the current scene sequence.
func (s *Session) Scenario() models.Scenario {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.scenario
	out.Scenes = s.store.Scenes()
	return out
}

// AddManualScene appends an author-written scene and persists the sequence.
func (s *Session) AddManualScene(ctx context.Context, scene models.Scene) error {
	s.store.Insert(scene)
	return s.saveScenes(ctx)
}

// DeleteScene removes a scene; the remaining scenes renumber and the removed
// scene's job slot is dropped.
func (s *Session) DeleteScene(ctx context.Context, sceneNumber int) error {
	if err := s.store.Delete(sceneNumber); err != nil {
		return err
	}
	s.orch.Forget(sceneNumber)
	return s.saveScenes(ctx)
}

// UpdateScene replaces a scene's content in place.
func (s *Session) UpdateScene(ctx context.Context, sceneNumber int, scene models.Scene) error {
	if err := s.store.Update(sceneNumber, scene); err != nil {
		return err
	}
	return s.saveScenes(ctx)
}

// ComposePrompt builds a composite generation prompt from ordered fragments
// and writes it onto the scene as its image prompt. A single fragment passes
// through verbatim.
func (s *Session) ComposePrompt(ctx context.Context, sceneNumber int, fragments []string, layout processing.Layout, panel bool) (string, error) {
	composer := processing.ComposeScenePrompt
	if panel {
		composer = processing.ComposePanelPrompt
	}
	prompt, err := composer(fragments, layout)
	if err != nil {
		return "", err
	}

	scene, err := s.store.Get(sceneNumber)
	if err != nil {
		return "", err
	}
	scene.ImagePrompt = prompt
	if err := s.store.Update(sceneNumber, scene); err != nil {
		return "", err
	}
	return prompt, s.saveScenes(ctx)
}

// AttachSeed validates the URL against the safe-source filter and attaches
// it, overwriting the scene's prompt with the preserve-composition template.
func (s *Session) AttachSeed(ctx context.Context, sceneNumber int, seedURL string) error {
	if !s.deps.Filter.Safe(seedURL) {
		return fmt.Errorf("%w: %s", ErrUnsafeSeed, seedURL)
	}
	if err := s.store.AttachSeed(sceneNumber, seedURL); err != nil {
		return err
	}
	return s.saveScenes(ctx)
}

// SetAnnouncer toggles announcer mode on a scene.
func (s *Session) SetAnnouncer(ctx context.Context, sceneNumber int, on bool) error {
	if err := s.store.SetAnnouncer(sceneNumber, on); err != nil {
		return err
	}
	return s.saveScenes(ctx)
}

// RenderScene issues a single scene's generation job and blocks until it
// finishes. A succeeded job records its clip, re-enters the assembly working
// set and queues durable persistence.
func (s *Session) RenderScene(ctx context.Context, sceneNumber int, params providers.Params) (render.Job, error) {
	scene, err := s.store.Get(sceneNumber)
	if err != nil {
		return render.Job{}, err
	}
	job, err := s.orch.RenderScene(ctx, scene, params)
	if err != nil {
		return render.Job{}, err
	}
	if job.Status == render.StatusSucceeded {
		if err := s.recordRender(ctx, job); err != nil {
			return job, err
		}
	}
	return job, nil
}

// RenderAll renders every scene concurrently under one provider schema.
// Partial failure is expected: succeeded scenes record their clips, failed
// scenes keep their error in the job table for manual re-issue.
func (s *Session) RenderAll(ctx context.Context, params providers.Params) ([]render.Job, error) {
	jobs, err := s.orch.RenderAll(ctx, s.store.Scenes(), params)
	if err != nil {
		return nil, err
	}
	for _, job := range jobs {
		if job.Status == render.StatusSucceeded {
			if err := s.recordRender(ctx, job); err != nil {
				return jobs, err
			}
		}
	}
	return jobs, nil
}

// Jobs returns the current job table snapshot.
func (s *Session) Jobs() []render.Job {
	return s.orch.Jobs()
}

// AddClip adds an externally supplied clip to the assembly working set.
func (s *Session) AddClip(edit assembly.ClipEdit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clips = append(s.clips, WorkingClip{ClipEdit: edit})
}

// UpdateClip replaces the working-set entry at the given position (1-based).
func (s *Session) UpdateClip(position int, edit assembly.ClipEdit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if position < 1 || position > len(s.clips) {
		return ErrClipMissing
	}
	s.clips[position-1].ClipEdit = edit
	return nil
}

// RemoveClip removes the working-set entry at the given position (1-based).
func (s *Session) RemoveClip(position int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if position < 1 || position > len(s.clips) {
		return ErrClipMissing
	}
	s.clips = append(s.clips[:position-1], s.clips[position:]...)
	return nil
}

// Clips returns the working set in order.
func (s *Session) Clips() []WorkingClip {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]WorkingClip(nil), s.clips...)
}

// Merge assembles the included working-set clips into one artifact. The
// returned handle is valid only for its bounded window; persist it for
// durability.
func (s *Session) Merge(ctx context.Context, captionColor string, style assembly.CaptionStyle) (*assembly.Handle, error) {
	s.mu.Lock()
	edits := make([]assembly.ClipEdit, len(s.clips))
	for i, c := range s.clips {
		edits[i] = c.ClipEdit
	}
	s.mu.Unlock()

	return s.deps.Engine.Merge(ctx, edits, captionColor, style)
}

// Persist copies a merge result into durable storage and returns its stable
// reference. The handle's own expiry still releases the transient copy.
func (s *Session) Persist(ctx context.Context, h *assembly.Handle, name string) (string, error) {
	f, err := h.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()
	return s.deps.Blobs.Save(name, f)
}

// recordRender writes a succeeded job's clip onto its scene, refreshes the
// working set and queues the durable copy.
func (s *Session) recordRender(ctx context.Context, job render.Job) error {
	if err := s.store.SetRenderedClip(job.SceneNumber, job.Result); err != nil {
		return err
	}
	if err := s.saveScenes(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	replaced := false
	for i := range s.clips {
		if s.clips[i].SceneNumber == job.SceneNumber {
			s.clips[i].ClipRef = job.Result
			replaced = true
			break
		}
	}
	if !replaced {
		trimEnd := s.deps.SceneDurationSec
		if trimEnd <= 0 {
			trimEnd = 5
		}
		s.clips = append(s.clips, WorkingClip{
			SceneNumber: job.SceneNumber,
			ClipEdit: assembly.ClipEdit{
				ClipRef:  job.Result,
				TrimEnd:  trimEnd,
				Speed:    1,
				Included: true,
			},
		})
	}
	s.mu.Unlock()

	scene, err := s.store.Get(job.SceneNumber)
	if err != nil {
		return err
	}
	if s.deps.Queue != nil && scene.ID != 0 {
		if err := s.deps.Queue.Enqueue(ctx, tasks.QueueClipPersist, tasks.ClipPersistPayload{
			SceneID: scene.ID,
			ClipURL: job.Result,
		}); err != nil {
			return fmt.Errorf("queue clip persistence: %w", err)
		}
	}
	return nil
}

// saveScenes writes the store's sequence through GORM, absorbing generated
// ids back into the store.
func (s *Session) saveScenes(ctx context.Context) error {
	if s.deps.DB == nil {
		return nil
	}
	current := s.store.Scenes()
	err := s.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		kept := make([]uint, 0, len(current))
		for i := range current {
			current[i].ScenarioID = s.scenario.ID
			if current[i].ID == 0 {
				if err := tx.Create(&current[i]).Error; err != nil {
					return err
				}
			} else {
				if err := tx.Save(&current[i]).Error; err != nil {
					return err
				}
			}
			kept = append(kept, current[i].ID)
		}
		return tx.Where("scenario_id = ? AND id NOT IN ?", s.scenario.ID, kept).
			Delete(&models.Scene{}).Error
	})
	if err != nil {
		return err
	}
	s.store.Replace(current)
	return nil
}
