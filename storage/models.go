package storage

import "time"

// SessionModel represents the sessions table
type SessionModel struct {
	ID             string    `gorm:"column:id;primaryKey;not null"`
	ConfigName     string    `gorm:"column:config_name;not null"`
	State          string    `gorm:"column:state;type:text;not null"` // WorldState JSON
	Wood           int       `gorm:"column:wood;not null;default:0"`
	MachineCount   int       `gorm:"column:machine_count;not null;default:0"`
	CreatedAt      time.Time `gorm:"column:created_at;not null"`
	LastAccessedAt time.Time `gorm:"column:last_accessed_at;not null;index"`
}

func (SessionModel) TableName() string {
	return "sessions"
}
