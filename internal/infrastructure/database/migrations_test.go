package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationSource_FindsEmbeddedFiles(t *testing.T) {
	found, err := MigrationSource().FindMigrations()
	require.NoError(t, err)
	require.Len(t, found, 3)

	ids := []string{found[0].Id, found[1].Id, found[2].Id}
	assert.Equal(t, []string{
		"0001_create_meetings.sql",
		"0002_create_jobs.sql",
		"0003_create_chat_messages.sql",
	}, ids)

	for _, m := range found {
		assert.NotEmpty(t, m.Up, m.Id)
		assert.NotEmpty(t, m.Down, m.Id)
	}
}
