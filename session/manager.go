package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/jungha-dev/newsVideo-sub000/models"
	"github.com/jungha-dev/newsVideo-sub000/processing"
	"gorm.io/gorm"
)

// Manager hands out one live Session per scenario. Jobs and the assembly
// working set live only as long as the session; discarding the scenario
// discards them.
type Manager struct {
	deps Deps

	mu       sync.Mutex
	sessions map[uint]*Session
}

func NewManager(deps Deps) *Manager {
	return &Manager{
		deps:     deps,
		sessions: make(map[uint]*Session),
	}
}

// Compose runs the text-completion collaborator over the brief, persists the
// resulting scenario under the user and returns its live session. A parse
// failure surfaces as one top-level error with no partial scenario.
func (m *Manager) Compose(ctx context.Context, userID uint, brief string, sceneCount int) (*Session, error) {
	scenario, err := processing.ComposeScenario(ctx, m.deps.Completer, brief, sceneCount, m.deps.SceneDurationSec)
	if err != nil {
		return nil, err
	}
	scenario.UserID = userID

	if m.deps.DB != nil {
		if err := m.deps.DB.WithContext(ctx).Create(&scenario).Error; err != nil {
			return nil, fmt.Errorf("save scenario: %w", err)
		}
	}

	sess := newSession(m.deps, userID, scenario)
	m.mu.Lock()
	m.sessions[scenario.ID] = sess
	m.mu.Unlock()
	return sess, nil
}

// Get returns the live session for a scenario the user owns, loading it from
// the database on first access.
func (m *Manager) Get(ctx context.Context, userID, scenarioID uint) (*Session, error) {
	m.mu.Lock()
	if sess, ok := m.sessions[scenarioID]; ok {
		m.mu.Unlock()
		if sess.userID != userID {
			return nil, ErrNotFound
		}
		return sess, nil
	}
	m.mu.Unlock()

	var scenario models.Scenario
	err := m.deps.DB.WithContext(ctx).
		Preload("Scenes", func(db *gorm.DB) *gorm.DB { return db.Order("scene_number ASC") }).
		First(&scenario, "id = ? AND user_id = ?", scenarioID, userID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	sess := newSession(m.deps, userID, scenario)
	m.mu.Lock()
	// Another request may have loaded it meanwhile; keep the first.
	if existing, ok := m.sessions[scenarioID]; ok {
		sess = existing
	} else {
		m.sessions[scenarioID] = sess
	}
	m.mu.Unlock()
	return sess, nil
}

// Discard drops the live session (jobs and working set included) and deletes
// the scenario records.
func (m *Manager) Discard(ctx context.Context, userID, scenarioID uint) error {
	sess, err := m.Get(ctx, userID, scenarioID)
	if err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.sessions, scenarioID)
	m.mu.Unlock()

	if m.deps.DB == nil {
		return nil
	}
	return m.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("scenario_id = ?", scenarioID).Delete(&models.Scene{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Scenario{}, sess.scenario.ID).Error
	})
}
