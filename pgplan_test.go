package pgplan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgplan/pgplan/database"
	"github.com/pgplan/pgplan/database/file"
)

func writeSchema(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schema.sql")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRunPlansMigration(t *testing.T) {
	current := file.NewSource(writeSchema(t, `CREATE TABLE users (id bigint);`), 0)
	desired := file.NewSource(writeSchema(t, `CREATE TABLE users (id bigint, email text);`), 0)
	output := filepath.Join(t.TempDir(), "migration.sql")

	err := Run(current, desired, &Options{Description: "add email", Output: output})
	require.NoError(t, err)

	buf, err := os.ReadFile(output)
	require.NoError(t, err)
	out := string(buf)
	assert.Contains(t, out, "-- Migration: add email")
	assert.Contains(t, out, "-- Up Migration")
	assert.Contains(t, out, "ALTER TABLE users ADD COLUMN email text;")
	assert.Contains(t, out, "-- Down Migration")
	assert.Contains(t, out, "ALTER TABLE users DROP COLUMN email;")
}

func TestRunExport(t *testing.T) {
	current := file.NewSource(writeSchema(t, `CREATE TABLE users (id bigint);`), 0)
	output := filepath.Join(t.TempDir(), "dump.sql")

	err := Run(current, nil, &Options{Export: true, Output: output})
	require.NoError(t, err)

	buf, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(buf), "CREATE TABLE users")
}

func TestRunNothingModified(t *testing.T) {
	current := file.NewSource(writeSchema(t, `CREATE TABLE users (id bigint);`), 0)
	desired := file.NewSource(writeSchema(t, `CREATE TABLE users (id bigint);`), 0)
	output := filepath.Join(t.TempDir(), "migration.sql")

	err := Run(current, desired, &Options{Output: output, Logger: database.NullLogger{}})
	require.NoError(t, err)

	_, err = os.Stat(output)
	assert.True(t, os.IsNotExist(err))
}

func TestRunRejectsInvalidSchema(t *testing.T) {
	current := file.NewSource(writeSchema(t, `
		CREATE TABLE users (id bigint);
		CREATE TABLE users (id bigint);
	`), 0)
	desired := file.NewSource(writeSchema(t, `CREATE TABLE users (id bigint);`), 0)

	err := Run(current, desired, &Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate table")
}
