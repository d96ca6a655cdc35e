package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTable(t *testing.T) {
	table := &Table{
		Name: "users",
		Columns: []Column{
			{Name: "id", TypeName: "bigint", Identity: "ALWAYS"},
			{Name: "email", TypeName: "text"},
			{Name: "created_at", TypeName: "timestamp with time zone", Nullable: true, Default: "now()"},
		},
		Constraints: []Constraint{
			{Type: ConstraintPrimaryKey, Columns: []string{"id"}},
			{Name: "users_email_key", Type: ConstraintUnique, Columns: []string{"email"}},
		},
	}

	assert.Equal(t, `CREATE TABLE users (
    id bigint GENERATED ALWAYS AS IDENTITY NOT NULL,
    email text NOT NULL,
    created_at timestamp with time zone DEFAULT now(),
    CONSTRAINT users_pkey PRIMARY KEY (id),
    CONSTRAINT users_email_key UNIQUE (email)
);`, CreateTable(table))
}

func TestCreateTablePartitioned(t *testing.T) {
	table := &Table{
		Name: "events",
		Columns: []Column{
			{Name: "id", TypeName: "bigint"},
			{Name: "occurred_on", TypeName: "date"},
		},
		PartitionBy: "RANGE (occurred_on)",
	}

	assert.Equal(t, `CREATE TABLE events (
    id bigint NOT NULL,
    occurred_on date NOT NULL
) PARTITION BY RANGE (occurred_on);`, CreateTable(table))
}

func TestColumnDefinitionGenerated(t *testing.T) {
	column := Column{
		Name:      "total",
		TypeName:  "numeric(10,2)",
		Generated: "price * quantity",
	}
	assert.Equal(t, "total numeric(10,2) GENERATED ALWAYS AS (price * quantity) STORED NOT NULL", ColumnDefinition(column))
}

func TestConstraintDefinitionRawTextWins(t *testing.T) {
	table := &Table{Name: "posts"}
	constraint := Constraint{
		Name:       "posts_user_id_fkey",
		Type:       ConstraintForeignKey,
		Columns:    []string{"user_id"},
		Definition: "FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE",
	}
	assert.Equal(t,
		"CONSTRAINT posts_user_id_fkey FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE",
		ConstraintDefinition(table, constraint))
}

func TestCreateSequenceDefaults(t *testing.T) {
	sequence := &Sequence{Name: "order_seq"}
	assert.Equal(t,
		"CREATE SEQUENCE order_seq START WITH 1 INCREMENT BY 1 NO MINVALUE NO MAXVALUE CACHE 1;",
		CreateSequence(sequence))
}

func TestCreateSequenceFull(t *testing.T) {
	minValue := int64(0)
	maxValue := int64(10000)
	sequence := &Sequence{
		Name:      "order_seq",
		Start:     100,
		Increment: 5,
		MinValue:  &minValue,
		MaxValue:  &maxValue,
		Cache:     10,
		Cycle:     true,
		OwnedBy:   "orders.id",
	}
	assert.Equal(t,
		"CREATE SEQUENCE order_seq START WITH 100 INCREMENT BY 5 MINVALUE 0 MAXVALUE 10000 CACHE 10 CYCLE OWNED BY orders.id;",
		CreateSequence(sequence))
}

func TestCreateEnum(t *testing.T) {
	enum := &EnumType{Name: "status", Values: []string{"active", "inactive"}}
	assert.Equal(t, "CREATE TYPE status AS ENUM ('active', 'inactive');", CreateEnum(enum))
}

func TestCreateIndex(t *testing.T) {
	table := &Table{Name: "users"}
	tests := []struct {
		name     string
		index    Index
		expected string
	}{
		{
			name:     "plain",
			index:    Index{Name: "idx_users_email", Columns: []string{"email"}},
			expected: "CREATE INDEX idx_users_email ON users (email);",
		},
		{
			name:     "unique partial",
			index:    Index{Name: "idx_users_email", Columns: []string{"email"}, Unique: true, Where: "deleted_at IS NULL"},
			expected: "CREATE UNIQUE INDEX idx_users_email ON users (email) WHERE deleted_at IS NULL;",
		},
		{
			name:     "gin",
			index:    Index{Name: "idx_users_tags", Columns: []string{"tags"}, Method: "gin"},
			expected: "CREATE INDEX idx_users_tags ON users USING gin (tags);",
		},
		{
			name:     "btree stays implicit",
			index:    Index{Name: "idx_users_name", Columns: []string{"name"}, Method: "btree"},
			expected: "CREATE INDEX idx_users_name ON users (name);",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, CreateIndex(table, test.index))
		})
	}
}

func TestCreatePolicy(t *testing.T) {
	policy := &Policy{
		Name:      "tenant_isolation",
		TableName: "accounts",
		Command:   "SELECT",
		Roles:     []string{"app_user"},
		Using:     "tenant_id = current_setting('app.tenant_id')::uuid",
	}
	assert.Equal(t,
		"CREATE POLICY tenant_isolation ON accounts AS RESTRICTIVE FOR SELECT TO app_user USING (tenant_id = current_setting('app.tenant_id')::uuid);",
		CreatePolicy(policy))
}

func TestCreateTrigger(t *testing.T) {
	trigger := &Trigger{
		Name:      "users_updated_at",
		TableName: "users",
		Timing:    "BEFORE",
		Events:    []string{"INSERT", "UPDATE"},
		ForEach:   "ROW",
		Function:  "set_updated_at",
	}
	ddl, err := CreateTrigger(trigger)
	require.NoError(t, err)
	assert.Equal(t,
		"CREATE TRIGGER users_updated_at BEFORE INSERT OR UPDATE ON users FOR EACH ROW EXECUTE FUNCTION set_updated_at();",
		ddl)
}

func TestDropStatementsAreIdempotent(t *testing.T) {
	tests := []struct {
		name     string
		obj      Object
		expected string
	}{
		{"table", &Table{Name: "users"}, "DROP TABLE IF EXISTS users CASCADE;"},
		{"enum", &EnumType{Name: "status"}, "DROP TYPE IF EXISTS status CASCADE;"},
		{"view", &View{Name: "active_users"}, "DROP VIEW IF EXISTS active_users CASCADE;"},
		{"sequence", &Sequence{Name: "order_seq", SchemaName: "billing"}, "DROP SEQUENCE IF EXISTS billing.order_seq CASCADE;"},
		{"schema", &NamedSchema{Name: "analytics"}, "DROP SCHEMA IF EXISTS analytics CASCADE;"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			drop, err := DropObject(test.obj)
			require.NoError(t, err)
			assert.Equal(t, test.expected, drop)
		})
	}
}

func TestCreateObjectErrors(t *testing.T) {
	tests := []struct {
		name string
		obj  Object
	}{
		{"tablespace without location", &Tablespace{Name: "fast"}},
		{"server without wrapper", &Server{Name: "remote"}},
		{"range type without subtype", &RangeType{Name: "floatrange"}},
		{"domain without base type", &Domain{Name: "email"}},
		{"function without language", &Function{Name: "add", Returns: "integer"}},
		{"array type", &ArrayType{Name: "_int4"}},
		{"multirange type", &MultirangeType{Name: "int4multirange"}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := CreateObject(test.obj)
			var genErr *GenerationError
			assert.ErrorAs(t, err, &genErr)
		})
	}
}
