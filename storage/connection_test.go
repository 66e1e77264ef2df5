package storage_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/blockyard/storage"
)

func TestNewConnection_UnsupportedDriver(t *testing.T) {
	_, err := storage.NewConnection(storage.Config{Driver: "mysql"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestNewConnection_PostgresNeedsDSN(t *testing.T) {
	_, err := storage.NewConnection(storage.Config{Driver: "postgres"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DSN")
}

func TestNewTestConnection_MigratesSessions(t *testing.T) {
	db, err := storage.NewTestConnection()
	require.NoError(t, err)
	defer storage.Close(db)

	assert.True(t, db.Migrator().HasTable(&storage.SessionModel{}))

	now := time.Now().UTC().Truncate(time.Second)
	model := storage.SessionModel{
		ID:             "ab12",
		ConfigName:     "classic",
		State:          `{"wood":2}`,
		Wood:           2,
		MachineCount:   1,
		CreatedAt:      now,
		LastAccessedAt: now,
	}
	require.NoError(t, db.Save(&model).Error)

	var found storage.SessionModel
	require.NoError(t, db.Where("id = ?", "ab12").First(&found).Error)
	assert.Equal(t, "classic", found.ConfigName)
	assert.Equal(t, 2, found.Wood)
	assert.JSONEq(t, `{"wood":2}`, found.State)
}
