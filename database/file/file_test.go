package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestExportSchemaSingleFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "schema.sql", `CREATE TABLE users (id bigint);`)

	source := NewSource(filepath.Join(dir, "schema.sql"), 0)
	s, err := source.ExportSchema()
	require.NoError(t, err)
	assert.NotNil(t, s.Tables["users"])
}

func TestExportSchemaDirectoryInFilenameOrder(t *testing.T) {
	dir := t.TempDir()
	// 02 references the table created in 01, so fold order matters.
	writeFile(t, dir, "02_indexes.sql", `CREATE INDEX idx_users_email ON users (email);`)
	writeFile(t, dir, "01_tables.sql", `CREATE TABLE users (id bigint, email text);`)
	writeFile(t, dir, "notes.txt", `not sql`)

	source := NewSource(dir, 0)
	s, err := source.ExportSchema()
	require.NoError(t, err)

	table := s.Tables["users"]
	require.NotNil(t, table)
	assert.Len(t, table.Indexes, 1)
}

func TestExportSchemaMissingPath(t *testing.T) {
	source := NewSource("/nonexistent/schema.sql", 0)
	_, err := source.ExportSchema()
	require.Error(t, err)
}
