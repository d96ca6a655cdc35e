package schema

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationRender(t *testing.T) {
	m := &Migration{
		Description: "add users table",
		Up: []Statement{
			DDL("CREATE TABLE users (\n    id bigint NOT NULL\n);"),
		},
		Down: []Statement{
			DDL("DROP TABLE IF EXISTS users CASCADE;"),
		},
	}
	generatedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, `-- Migration: add users table
-- Generated: 2024-03-01T12:00:00Z
-- Up Migration
CREATE TABLE users (
    id bigint NOT NULL
);

-- Down Migration
DROP TABLE IF EXISTS users CASCADE;
`, m.Render(generatedAt))
}

func TestMigrationRenderWarning(t *testing.T) {
	m := &Migration{
		Description: "enum change",
		Up:          []Statement{DDL("ALTER TYPE status ADD VALUE 'archived';")},
		Down:        []Statement{Warning("cannot remove value 'archived' from enum type status")},
	}
	rendered := m.Render(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	assert.Contains(t, rendered, "-- WARNING: cannot remove value 'archived' from enum type status")
}

func TestMigrationEmpty(t *testing.T) {
	assert.True(t, (&Migration{}).Empty())
	assert.False(t, (&Migration{Up: []Statement{DDL("SELECT 1;")}}).Empty())
}

func TestExportOrdersObjects(t *testing.T) {
	s := NewSchema()
	s.Add(&Table{
		Name:    "users",
		Columns: []Column{{Name: "id", TypeName: "bigint"}},
		Indexes: []Index{{Name: "idx_users_id", Columns: []string{"id"}}},
	})
	s.Add(&EnumType{Name: "status", Values: []string{"active"}})
	s.Add(&NamedSchema{Name: "app"})

	out, err := Export(s)
	require.NoError(t, err)

	schemaPos := strings.Index(out, "CREATE SCHEMA app;")
	enumPos := strings.Index(out, "CREATE TYPE status AS ENUM ('active');")
	tablePos := strings.Index(out, "CREATE TABLE users")
	indexPos := strings.Index(out, "CREATE INDEX idx_users_id ON users (id);")

	require.NotEqual(t, -1, schemaPos)
	require.NotEqual(t, -1, enumPos)
	require.NotEqual(t, -1, tablePos)
	require.NotEqual(t, -1, indexPos)
	assert.Less(t, schemaPos, enumPos)
	assert.Less(t, enumPos, tablePos)
	assert.Less(t, tablePos, indexPos)
}

func TestExportComments(t *testing.T) {
	s := NewSchema()
	s.Add(&Table{
		Name:    "users",
		Comment: "application users",
		Columns: []Column{{Name: "id", TypeName: "bigint", Comment: "surrogate key"}},
	})

	out, err := Export(s)
	require.NoError(t, err)
	assert.Contains(t, out, "COMMENT ON TABLE users IS 'application users';")
	assert.Contains(t, out, "COMMENT ON COLUMN users.id IS 'surrogate key';")
}

func TestExportSkipsImplicitTypes(t *testing.T) {
	s := NewSchema()
	s.Add(&ArrayType{Name: "_int4", ElementType: "int4"})
	s.Add(&MultirangeType{Name: "int4multirange", RangeType: "int4range"})
	s.Add(&Table{Name: "users", Columns: []Column{{Name: "id", TypeName: "bigint"}}})

	out, err := Export(s)
	require.NoError(t, err)
	assert.NotContains(t, out, "_int4")
	assert.NotContains(t, out, "int4multirange")
}
