package scenes

import (
	"testing"

	"github.com/jungha-dev/newsVideo-sub000/models"
	"github.com/jungha-dev/newsVideo-sub000/processing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoScenes() []models.Scene {
	return []models.Scene{
		{ImagePrompt: "first", Narration: "n1"},
		{ImagePrompt: "second", Narration: "n2"},
	}
}

func TestNewRenumbers(t *testing.T) {
	s := New([]models.Scene{
		{SceneNumber: 7, ImagePrompt: "a"},
		{SceneNumber: 2, ImagePrompt: "b"},
	})

	got := s.Scenes()
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].SceneNumber)
	assert.Equal(t, 2, got[1].SceneNumber)
}

func TestInsertAndDeleteKeepNumbersContiguous(t *testing.T) {
	s := New(twoScenes())
	s.Insert(models.Scene{ImagePrompt: "third"})
	require.Equal(t, 3, s.Len())

	require.NoError(t, s.Delete(1))

	got := s.Scenes()
	require.Len(t, got, 2)
	assert.Equal(t, "second", got[0].ImagePrompt)
	assert.Equal(t, 1, got[0].SceneNumber)
	assert.Equal(t, "third", got[1].ImagePrompt)
	assert.Equal(t, 2, got[1].SceneNumber)
}

func TestDeleteLastSceneRejected(t *testing.T) {
	s := New([]models.Scene{{ImagePrompt: "only"}})

	err := s.Delete(1)
	assert.ErrorIs(t, err, ErrLastScene)
	assert.Equal(t, 1, s.Len())
}

func TestDeleteUnknownScene(t *testing.T) {
	s := New(twoScenes())
	assert.ErrorIs(t, s.Delete(9), ErrSceneNotFound)

	// A miss on a one-scene store is still a miss, not a last-scene refusal.
	solo := New([]models.Scene{{ImagePrompt: "only"}})
	assert.ErrorIs(t, solo.Delete(9), ErrSceneNotFound)
}

func TestUpdatePreservesNumberAndIdentity(t *testing.T) {
	s := New(twoScenes())

	require.NoError(t, s.Update(2, models.Scene{SceneNumber: 99, ImagePrompt: "replaced"}))

	got, err := s.Get(2)
	require.NoError(t, err)
	assert.Equal(t, 2, got.SceneNumber)
	assert.Equal(t, "replaced", got.ImagePrompt)
}

func TestAttachSeedOverwritesPrompt(t *testing.T) {
	s := New(twoScenes())

	require.NoError(t, s.AttachSeed(1, "https://cdn.example.com/seed.jpg"))

	got, err := s.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/seed.jpg", got.SeedImage)
	assert.Equal(t, processing.SeedImagePrompt, got.ImagePrompt)
	// The author's text is gone for good; that matches the observed
	// contract, not a bug to fix here.
	assert.NotContains(t, got.ImagePrompt, "first")
}

func TestAnnouncerToggleSavesAndRestoresPrompt(t *testing.T) {
	s := New([]models.Scene{{ImagePrompt: "city at dawn", Narration: "Rain is falling"}})

	require.NoError(t, s.SetAnnouncer(1, true))
	got, _ := s.Get(1)
	assert.True(t, got.AnnouncerMode)
	assert.Equal(t, processing.AnnouncerPrompt("Rain is falling"), got.ImagePrompt)

	// Toggling on twice is a no-op and must not clobber the backup.
	require.NoError(t, s.SetAnnouncer(1, true))

	require.NoError(t, s.SetAnnouncer(1, false))
	got, _ = s.Get(1)
	assert.False(t, got.AnnouncerMode)
	assert.Equal(t, "city at dawn", got.ImagePrompt)
}
