package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/wricardo/blockyard/game/engine"
	"github.com/wricardo/blockyard/game/service"
)

// SessionPersistence defines the interface for persisting sessions
type SessionPersistence interface {
	// Save persists a session to storage
	Save(session *service.Session) error

	// Load retrieves a session from storage by ID
	Load(id string) (*service.Session, error)

	// Delete removes a session from storage
	Delete(id string) error

	// ListAll returns all persisted session IDs
	ListAll() ([]string, error)

	// Exists checks if a session exists in storage
	Exists(id string) bool
}

// ConfigLoader resolves the config a persisted session was created from
type ConfigLoader interface {
	LoadConfig(name string) (*engine.WorldConfig, error)
}

// PersistedSessionData represents the JSON structure for persisted sessions
type PersistedSessionData struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	WorldState     *engine.WorldState `json:"world_state"`
}

// persistedData copies a session under its lock, so the result can be
// encoded while commands keep running
func persistedData(session *service.Session) (*PersistedSessionData, error) {
	if session == nil {
		return nil, fmt.Errorf("session cannot be nil")
	}
	data := &PersistedSessionData{
		ID:         session.ID,
		ConfigName: session.ConfigName,
		CreatedAt:  session.CreatedAt,
	}
	session.View(func(e *engine.GameEngine) {
		data.LastAccessedAt = session.LastAccessedAt
		data.WorldState = e.GetState().Clone()
	})
	return data, nil
}

// restoreSession rebuilds an engine from the named config and loads the
// persisted world into it
func restoreSession(data *PersistedSessionData, configs ConfigLoader) (*service.Session, error) {
	if data.WorldState == nil {
		return nil, fmt.Errorf("session %s has no world state", data.ID)
	}

	worldConfig, err := configs.LoadConfig(data.ConfigName)
	if err != nil {
		return nil, fmt.Errorf("failed to load config '%s': %w", data.ConfigName, err)
	}

	eng, err := engine.NewEngine(worldConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	if err := eng.SetState(data.WorldState); err != nil {
		return nil, fmt.Errorf("failed to set world state: %w", err)
	}

	return &service.Session{
		ID:             data.ID,
		ConfigName:     data.ConfigName,
		Engine:         eng,
		Config:         worldConfig,
		CreatedAt:      data.CreatedAt,
		LastAccessedAt: data.LastAccessedAt,
	}, nil
}

func decodeSessionData(raw []byte) (*PersistedSessionData, error) {
	var data PersistedSessionData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session data: %w", err)
	}
	return &data, nil
}
