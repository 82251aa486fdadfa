package database

import (
	"path/filepath"
	"testing"
	"time"

	"zapis/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerformBackup(t *testing.T) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "source.db")
	logger := zerolog.Nop()

	src, err := NewDB(dbPath, time.UTC, &logger)
	require.NoError(t, err)
	defer src.Close()

	backupDir := filepath.Join(tempDir, "backups")
	svc := NewBackupService(dbPath, config.BackupConfig{
		Enabled:       true,
		RetentionDays: 7,
		StoragePath:   backupDir,
	}, &logger)

	require.NoError(t, svc.PerformBackup())

	entries, err := filepath.Glob(filepath.Join(backupDir, "*.db"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
