// Package scenes owns the ordered scene collection of one scenario. Every
// mutation is a command against the store; callers never reach into shared
// state. Scene numbers stay contiguous 1..N after every insert and delete.
package scenes

import (
	"errors"
	"fmt"
	"sync"

	"github.com/jungha-dev/newsVideo-sub000/models"
	"github.com/jungha-dev/newsVideo-sub000/processing"
)

var (
	ErrLastScene     = errors.New("a scenario must retain at least one scene")
	ErrSceneNotFound = errors.New("scene not found")
)

// Store holds the scenes of one scenario. All operations are synchronous and
// atomic from the caller's point of view.
type Store struct {
	mu     sync.Mutex
	scenes []models.Scene
}

// New builds a store from an initial scene list, renumbering it 1..N.
func New(initial []models.Scene) *Store {
	s := &Store{scenes: append([]models.Scene(nil), initial...)}
	s.renumber()
	return s
}

// Insert appends a scene and renumbers the whole sequence.
func (s *Store) Insert(scene models.Scene) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scenes = append(s.scenes, scene)
	s.renumber()
}

// Delete removes the scene with the given number and renumbers. Removing the
// last remaining scene is rejected.
func (s *Store) Delete(sceneNumber int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.indexOf(sceneNumber)
	if err != nil {
		return err
	}
	if len(s.scenes) == 1 {
		return ErrLastScene
	}
	s.scenes = append(s.scenes[:idx], s.scenes[idx+1:]...)
	s.renumber()
	return nil
}

// Update replaces the scene with the given number in place. The scene number
// is preserved from the existing slot; no renumbering happens.
func (s *Store) Update(sceneNumber int, scene models.Scene) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.indexOf(sceneNumber)
	if err != nil {
		return err
	}
	scene.SceneNumber = s.scenes[idx].SceneNumber
	scene.ID = s.scenes[idx].ID
	scene.ScenarioID = s.scenes[idx].ScenarioID
	s.scenes[idx] = scene
	return nil
}

// Get returns a copy of the scene with the given number.
func (s *Store) Get(sceneNumber int) (models.Scene, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.indexOf(sceneNumber)
	if err != nil {
		return models.Scene{}, err
	}
	return s.scenes[idx], nil
}

// Scenes returns a snapshot of the current sequence in order.
func (s *Store) Scenes() []models.Scene {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Scene(nil), s.scenes...)
}

// Len returns the number of scenes.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.scenes)
}

// AttachSeed sets the scene's seed image and overwrites its image prompt
// with the preserve-composition template. The author's previous prompt is
// not saved; callers wanting it back must have kept it themselves.
func (s *Store) AttachSeed(sceneNumber int, seedURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.indexOf(sceneNumber)
	if err != nil {
		return err
	}
	s.scenes[idx].SeedImage = seedURL
	s.scenes[idx].ImagePrompt = processing.SeedImagePrompt
	return nil
}

// SetAnnouncer toggles announcer mode on a scene. Enabling saves the current
// image prompt and substitutes the templated announcer prompt built from the
// narration; disabling restores the exact saved prompt.
func (s *Store) SetAnnouncer(sceneNumber int, on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.indexOf(sceneNumber)
	if err != nil {
		return err
	}
	sc := &s.scenes[idx]
	if on == sc.AnnouncerMode {
		return nil
	}
	if on {
		sc.PromptBackup = sc.ImagePrompt
		sc.ImagePrompt = processing.AnnouncerPrompt(sc.Narration)
	} else {
		sc.ImagePrompt = sc.PromptBackup
		sc.PromptBackup = ""
	}
	sc.AnnouncerMode = on
	return nil
}

// Replace swaps the whole sequence, renumbering it 1..N. Used when persisted
// ids are absorbed back after a save.
func (s *Store) Replace(sceneList []models.Scene) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scenes = append([]models.Scene(nil), sceneList...)
	s.renumber()
}

// SetRenderedClip records the provider-origin clip URL for a scene.
func (s *Store) SetRenderedClip(sceneNumber int, clipURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.indexOf(sceneNumber)
	if err != nil {
		return err
	}
	s.scenes[idx].RenderedClip = clipURL
	return nil
}

func (s *Store) indexOf(sceneNumber int) (int, error) {
	for i := range s.scenes {
		if s.scenes[i].SceneNumber == sceneNumber {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: scene %d", ErrSceneNotFound, sceneNumber)
}

func (s *Store) renumber() {
	for i := range s.scenes {
		s.scenes[i].SceneNumber = i + 1
	}
}
