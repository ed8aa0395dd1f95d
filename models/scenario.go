package models

import (
	"time"
)

type Scenario struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	UserID  uint   `gorm:"not null;index" json:"user_id"`
	User    User   `gorm:"foreignKey:UserID" json:"-"`
	Title   string `gorm:"size:255;not null" json:"title"`
	Summary string `gorm:"type:text" json:"summary"`

	// Ordered by SceneNumber; renumbered 1..N after every insert/delete.
	Scenes []Scene `gorm:"foreignKey:ScenarioID" json:"scenes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Scenario) TableName() string {
	return "scenarios"
}
