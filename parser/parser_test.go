package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgplan/pgplan/schema"
)

func TestParseSchemaCreateTable(t *testing.T) {
	s, err := ParseSchema(`
		CREATE TABLE users (
			id bigint PRIMARY KEY,
			email text NOT NULL,
			created_at timestamp with time zone DEFAULT now()
		);
	`)
	require.NoError(t, err)

	table := s.Tables["users"]
	require.NotNil(t, table)
	require.Len(t, table.Columns, 3)

	assert.Equal(t, "bigint", table.Columns[0].TypeName)
	assert.False(t, table.Columns[0].Nullable)
	assert.Equal(t, "text", table.Columns[1].TypeName)
	assert.False(t, table.Columns[1].Nullable)
	assert.Equal(t, "timestamp with time zone", table.Columns[2].TypeName)
	assert.True(t, table.Columns[2].Nullable)
	assert.Equal(t, "now()", table.Columns[2].Default)

	require.Len(t, table.Constraints, 1)
	assert.Equal(t, schema.ConstraintPrimaryKey, table.Constraints[0].Type)
	assert.Equal(t, []string{"id"}, table.Constraints[0].Columns)
}

func TestParseSchemaTableConstraints(t *testing.T) {
	s, err := ParseSchema(`
		CREATE TABLE posts (
			id bigint,
			user_id bigint,
			title varchar(200),
			CONSTRAINT posts_pkey PRIMARY KEY (id),
			CONSTRAINT posts_user_id_fkey FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
		);
	`)
	require.NoError(t, err)

	table := s.Tables["posts"]
	require.NotNil(t, table)
	assert.Equal(t, "character varying(200)", table.Columns[2].TypeName)

	require.Len(t, table.Constraints, 2)
	fk := table.Constraints[1]
	assert.Equal(t, schema.ConstraintForeignKey, fk.Type)
	assert.Equal(t, []string{"user_id"}, fk.Columns)
	assert.Equal(t, "users", fk.ReferencedTable)
	assert.Equal(t, []string{"id"}, fk.ReferencedColumns)
	assert.Equal(t, "CASCADE", fk.OnDelete)
	assert.Equal(t, "", fk.OnUpdate)
}

func TestParseSchemaIdentityAndGenerated(t *testing.T) {
	s, err := ParseSchema(`
		CREATE TABLE orders (
			id bigint GENERATED ALWAYS AS IDENTITY,
			price numeric(10,2),
			quantity integer,
			total numeric(10,2) GENERATED ALWAYS AS (price * quantity) STORED
		);
	`)
	require.NoError(t, err)

	table := s.Tables["orders"]
	require.NotNil(t, table)
	assert.Equal(t, "ALWAYS", table.Columns[0].Identity)
	assert.Equal(t, "numeric(10,2)", table.Columns[1].TypeName)
	assert.Equal(t, "price * quantity", table.Columns[3].Generated)
}

func TestParseSchemaEnum(t *testing.T) {
	s, err := ParseSchema(`CREATE TYPE status AS ENUM ('active', 'inactive', 'archived');`)
	require.NoError(t, err)

	enum := s.Enums["status"]
	require.NotNil(t, enum)
	assert.Equal(t, []string{"active", "inactive", "archived"}, enum.Values)
}

func TestParseSchemaSequence(t *testing.T) {
	s, err := ParseSchema(`CREATE SEQUENCE order_seq START WITH 100 INCREMENT BY 5 MAXVALUE 10000 CACHE 10 CYCLE;`)
	require.NoError(t, err)

	sequence := s.Sequences["order_seq"]
	require.NotNil(t, sequence)
	assert.Equal(t, int64(100), sequence.Start)
	assert.Equal(t, int64(5), sequence.Increment)
	require.NotNil(t, sequence.MaxValue)
	assert.Equal(t, int64(10000), *sequence.MaxValue)
	assert.Nil(t, sequence.MinValue)
	assert.Equal(t, int64(10), sequence.Cache)
	assert.True(t, sequence.Cycle)
}

func TestParseSchemaIndexAttachesToTable(t *testing.T) {
	s, err := ParseSchema(`
		CREATE TABLE users (id bigint, email text);
		CREATE UNIQUE INDEX idx_users_email ON users (email) WHERE email IS NOT NULL;
	`)
	require.NoError(t, err)

	table := s.Tables["users"]
	require.NotNil(t, table)
	require.Len(t, table.Indexes, 1)
	index := table.Indexes[0]
	assert.Equal(t, "idx_users_email", index.Name)
	assert.True(t, index.Unique)
	assert.Equal(t, []string{"email"}, index.Columns)
	assert.NotEmpty(t, index.Where)
}

func TestParseSchemaIndexOnUnknownTable(t *testing.T) {
	_, err := ParseSchema(`CREATE INDEX idx ON missing (id);`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown table "missing"`)
}

func TestParseSchemaAlterTableForeignKey(t *testing.T) {
	s, err := ParseSchema(`
		CREATE TABLE users (id bigint);
		CREATE TABLE posts (id bigint, user_id bigint);
		ALTER TABLE posts ADD CONSTRAINT posts_user_id_fkey FOREIGN KEY (user_id) REFERENCES users (id);
	`)
	require.NoError(t, err)

	fk := s.ForeignKeys["posts_user_id_fkey"]
	require.NotNil(t, fk)
	assert.Equal(t, "posts", fk.TableName)
	assert.Equal(t, []string{"user_id"}, fk.Columns)
	assert.Equal(t, "users", fk.ReferencedTable)
}

func TestParseSchemaView(t *testing.T) {
	s, err := ParseSchema(`CREATE VIEW active_users AS SELECT id, email FROM users WHERE active;`)
	require.NoError(t, err)

	view := s.Views["active_users"]
	require.NotNil(t, view)
	assert.Contains(t, view.Definition, "SELECT")
	assert.Contains(t, view.Definition, "users")
}

func TestParseSchemaComment(t *testing.T) {
	s, err := ParseSchema(`
		CREATE TABLE users (id bigint);
		COMMENT ON TABLE users IS 'application users';
		COMMENT ON COLUMN users.id IS 'surrogate key';
	`)
	require.NoError(t, err)

	table := s.Tables["users"]
	require.NotNil(t, table)
	assert.Equal(t, "application users", table.Comment)
	require.NotNil(t, table.FindColumn("id"))
	assert.Equal(t, "surrogate key", table.FindColumn("id").Comment)
}

func TestParseSchemaUnsupportedStatement(t *testing.T) {
	_, err := ParseSchema(`GRANT SELECT ON users TO app_user;`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown node in foldStmt")
}

func TestParseSchemaInvalidSQL(t *testing.T) {
	_, err := ParseSchema(`CREATE TABLE (`)
	require.Error(t, err)
}

func TestParseIntoFoldsAcrossCalls(t *testing.T) {
	s := schema.NewSchema()
	require.NoError(t, ParseInto(s, `CREATE TABLE users (id bigint);`))
	require.NoError(t, ParseInto(s, `CREATE INDEX idx_users_id ON users (id);`))

	require.NotNil(t, s.Tables["users"])
	assert.Len(t, s.Tables["users"].Indexes, 1)
}
