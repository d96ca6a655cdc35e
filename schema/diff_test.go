package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statementStrings(statements []Statement) []string {
	var out []string
	for _, statement := range statements {
		out = append(out, statement.String())
	}
	return out
}

func TestDiffAddedTable(t *testing.T) {
	from := NewSchema()
	to := NewSchema()
	to.Add(&Table{
		Name: "users",
		Columns: []Column{
			{Name: "id", TypeName: "bigint"},
			{Name: "email", TypeName: "text"},
		},
		Constraints: []Constraint{
			{Type: ConstraintPrimaryKey, Columns: []string{"id"}},
		},
		Indexes: []Index{
			{Name: "idx_users_email", Columns: []string{"email"}, Unique: true},
		},
	})

	m, err := Diff(from, to)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"CREATE TABLE users (\n    id bigint NOT NULL,\n    email text NOT NULL,\n    CONSTRAINT users_pkey PRIMARY KEY (id)\n);",
		"CREATE UNIQUE INDEX idx_users_email ON users (email);",
	}, statementStrings(m.Up))
	// CASCADE takes the index down with the table.
	assert.Equal(t, []string{
		"DROP TABLE IF EXISTS users CASCADE;",
	}, statementStrings(m.Down))
}

func TestDiffRemovedObjectsAreIgnored(t *testing.T) {
	from := NewSchema()
	from.Add(&Table{Name: "legacy", Columns: []Column{{Name: "id", TypeName: "bigint"}}})
	from.Add(&View{Name: "legacy_view", Definition: "SELECT 1"})
	to := NewSchema()

	m, err := Diff(from, to)
	require.NoError(t, err)
	assert.True(t, m.Empty())
}

func TestDiffAddedColumn(t *testing.T) {
	from := NewSchema()
	from.Add(&Table{Name: "users", Columns: []Column{{Name: "id", TypeName: "bigint"}}})
	to := NewSchema()
	to.Add(&Table{
		Name: "users",
		Columns: []Column{
			{Name: "id", TypeName: "bigint"},
			{Name: "email", TypeName: "text", Nullable: true},
		},
	})

	m, err := Diff(from, to)
	require.NoError(t, err)
	assert.Equal(t, []string{"ALTER TABLE users ADD COLUMN email text;"}, statementStrings(m.Up))
	assert.Equal(t, []string{"ALTER TABLE users DROP COLUMN email;"}, statementStrings(m.Down))
}

func TestDiffColumnNullability(t *testing.T) {
	from := NewSchema()
	from.Add(&Table{Name: "users", Columns: []Column{{Name: "email", TypeName: "text", Nullable: true}}})
	to := NewSchema()
	to.Add(&Table{Name: "users", Columns: []Column{{Name: "email", TypeName: "text"}}})

	m, err := Diff(from, to)
	require.NoError(t, err)
	assert.Equal(t, []string{"ALTER TABLE users ALTER COLUMN email SET NOT NULL;"}, statementStrings(m.Up))
	assert.Equal(t, []string{"ALTER TABLE users ALTER COLUMN email DROP NOT NULL;"}, statementStrings(m.Down))
}

func TestDiffGeneratedColumnSymmetry(t *testing.T) {
	from := NewSchema()
	from.Add(&Table{Name: "orders", Columns: []Column{{Name: "total", TypeName: "numeric"}}})
	to := NewSchema()
	to.Add(&Table{Name: "orders", Columns: []Column{{Name: "total", TypeName: "numeric", Generated: "price * quantity"}}})

	m, err := Diff(from, to)
	require.NoError(t, err)
	assert.Equal(t, []string{"ALTER TABLE orders ALTER COLUMN total SET EXPRESSION AS (price * quantity);"}, statementStrings(m.Up))
	assert.Equal(t, []string{"ALTER TABLE orders ALTER COLUMN total DROP EXPRESSION;"}, statementStrings(m.Down))
}

func TestDiffSequenceAttributes(t *testing.T) {
	from := NewSchema()
	from.Add(&Sequence{Name: "order_seq"})
	to := NewSchema()
	to.Add(&Sequence{Name: "order_seq", Cache: 10, Cycle: true})

	m, err := Diff(from, to)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"ALTER SEQUENCE order_seq CACHE 10;",
		"ALTER SEQUENCE order_seq CYCLE;",
	}, statementStrings(m.Up))
	assert.Equal(t, []string{
		"ALTER SEQUENCE order_seq CACHE 1;",
		"ALTER SEQUENCE order_seq NO CYCLE;",
	}, statementStrings(m.Down))
}

func TestDiffEnumAddedValue(t *testing.T) {
	from := NewSchema()
	from.Add(&EnumType{Name: "status", Values: []string{"active", "inactive"}})
	to := NewSchema()
	to.Add(&EnumType{Name: "status", Values: []string{"active", "inactive", "archived"}})

	m, err := Diff(from, to)
	require.NoError(t, err)

	require.Len(t, m.Up, 1)
	assert.Equal(t, "ALTER TYPE status ADD VALUE 'archived';", m.Up[0].String())
	assert.True(t, m.Up[0].Executable())

	// The addition cannot be undone, so down carries a warning only.
	require.Len(t, m.Down, 1)
	assert.False(t, m.Down[0].Executable())
	assert.Contains(t, m.Down[0].String(), "-- WARNING:")
}

func TestDiffEnumRemovedValueWarnsBothWays(t *testing.T) {
	from := NewSchema()
	from.Add(&EnumType{Name: "status", Values: []string{"active", "inactive"}})
	to := NewSchema()
	to.Add(&EnumType{Name: "status", Values: []string{"active"}})

	m, err := Diff(from, to)
	require.NoError(t, err)

	require.Len(t, m.Up, 1)
	require.Len(t, m.Down, 1)
	assert.False(t, m.Up[0].Executable())
	assert.False(t, m.Down[0].Executable())
	assert.Contains(t, m.Up[0].String(), "manual intervention required")
}

func TestDiffChangedConstraintDropsAndRecreates(t *testing.T) {
	from := NewSchema()
	from.Add(&Table{
		Name:    "users",
		Columns: []Column{{Name: "age", TypeName: "integer"}},
		Constraints: []Constraint{
			{Name: "users_age_check", Type: ConstraintCheck, CheckExpression: "age > 0"},
		},
	})
	to := NewSchema()
	to.Add(&Table{
		Name:    "users",
		Columns: []Column{{Name: "age", TypeName: "integer"}},
		Constraints: []Constraint{
			{Name: "users_age_check", Type: ConstraintCheck, CheckExpression: "age >= 18"},
		},
	})

	m, err := Diff(from, to)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"ALTER TABLE users DROP CONSTRAINT IF EXISTS users_age_check;",
		"ALTER TABLE users ADD CONSTRAINT users_age_check CHECK (age >= 18);",
	}, statementStrings(m.Up))
	assert.Equal(t, []string{
		"ALTER TABLE users DROP CONSTRAINT IF EXISTS users_age_check;",
		"ALTER TABLE users ADD CONSTRAINT users_age_check CHECK (age > 0);",
	}, statementStrings(m.Down))
}

func TestDiffIsDeterministic(t *testing.T) {
	build := func() (*Schema, *Schema) {
		from := NewSchema()
		to := NewSchema()
		for _, name := range []string{"zebra", "apple", "mango"} {
			to.Add(&Table{Name: name, Columns: []Column{{Name: "id", TypeName: "bigint"}}})
		}
		return from, to
	}

	from, to := build()
	first, err := Diff(from, to)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		from, to := build()
		again, err := Diff(from, to)
		require.NoError(t, err)
		assert.Equal(t, statementStrings(first.Up), statementStrings(again.Up))
	}
}
