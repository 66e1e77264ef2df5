package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wricardo/blockyard/game/service"
	"github.com/wricardo/blockyard/storage"
	"gorm.io/gorm"
)

// SQLPersistence implements SessionPersistence on top of GORM
type SQLPersistence struct {
	db      *gorm.DB
	configs ConfigLoader
}

// NewSQLPersistence creates a SQL-backed persistence layer, migrating the
// sessions table if needed
func NewSQLPersistence(db *gorm.DB, configs ConfigLoader) (*SQLPersistence, error) {
	if err := storage.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate sessions table: %w", err)
	}
	return &SQLPersistence{db: db, configs: configs}, nil
}

// Save upserts a session row
func (sp *SQLPersistence) Save(session *service.Session) error {
	data, err := persistedData(session)
	if err != nil {
		return err
	}

	state, err := json.Marshal(data.WorldState)
	if err != nil {
		return fmt.Errorf("failed to marshal world state: %w", err)
	}

	model := &storage.SessionModel{
		ID:             data.ID,
		ConfigName:     data.ConfigName,
		State:          string(state),
		Wood:           data.WorldState.Wood,
		MachineCount:   len(data.WorldState.Machines),
		CreatedAt:      data.CreatedAt,
		LastAccessedAt: data.LastAccessedAt,
	}

	if result := sp.db.Save(model); result.Error != nil {
		return fmt.Errorf("failed to save session: %w", result.Error)
	}
	return nil
}

// Load reads a session row and rebuilds its engine
func (sp *SQLPersistence) Load(id string) (*service.Session, error) {
	var model storage.SessionModel
	result := sp.db.Where("id = ?", id).First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to find session: %w", result.Error)
	}

	data := &PersistedSessionData{
		ID:             model.ID,
		ConfigName:     model.ConfigName,
		CreatedAt:      model.CreatedAt,
		LastAccessedAt: model.LastAccessedAt,
	}
	if err := json.Unmarshal([]byte(model.State), &data.WorldState); err != nil {
		return nil, fmt.Errorf("failed to unmarshal world state: %w", err)
	}

	return restoreSession(data, sp.configs)
}

// Delete removes a session row
func (sp *SQLPersistence) Delete(id string) error {
	result := sp.db.Where("id = ?", id).Delete(&storage.SessionModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete session: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// ListAll returns all persisted session IDs, most recently used first
func (sp *SQLPersistence) ListAll() ([]string, error) {
	var ids []string
	result := sp.db.Model(&storage.SessionModel{}).Order("last_accessed_at desc").Pluck("id", &ids)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", result.Error)
	}
	return ids, nil
}

// Exists checks if a session row exists
func (sp *SQLPersistence) Exists(id string) bool {
	var count int64
	if err := sp.db.Model(&storage.SessionModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false
	}
	return count > 0
}
