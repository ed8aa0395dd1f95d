package models

import "time"

type Scene struct {
	ID          uint `gorm:"primaryKey" json:"id"`
	ScenarioID  uint `gorm:"index" json:"scenario_id"`
	SceneNumber int  `gorm:"not null" json:"scene_number"`

	ImagePrompt string `gorm:"type:text" json:"image_prompt"`
	Narration   string `gorm:"type:text" json:"narration"`

	// SeedImage anchors the generation's starting frame. Attaching one
	// overwrites ImagePrompt with the preserve-composition template.
	SeedImage string `json:"seed_image,omitempty"`

	// RenderedClip is the provider-origin URL and is ephemeral; the worker
	// copies it into durable storage and fills PersistedClip.
	RenderedClip  string `json:"rendered_clip,omitempty"`
	PersistedClip string `json:"persisted_clip,omitempty"`

	// AnnouncerMode swaps ImagePrompt for a templated presenter prompt
	// built from Narration. PromptBackup holds the author's text so the
	// toggle can restore it exactly.
	AnnouncerMode bool   `gorm:"default:false" json:"announcer_mode"`
	PromptBackup  string `gorm:"type:text" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Scene) TableName() string {
	return "scenes"
}
