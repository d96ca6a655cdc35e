package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCleanSchema(t *testing.T) {
	s := NewSchema()
	s.Add(&Table{Name: "users", Columns: []Column{{Name: "id", TypeName: "bigint"}}})
	s.Add(&EnumType{Name: "status", Values: []string{"active", "inactive"}})
	assert.NoError(t, s.Validate())
}

func TestValidateDuplicateObjectName(t *testing.T) {
	s := NewSchema()
	s.Add(&Table{Name: "users"})
	s.Add(&Table{Name: "users"})

	err := s.Validate()
	require.Error(t, err)
	var schemaErr *SchemaError
	assert.ErrorAs(t, err, &schemaErr)
	assert.Contains(t, err.Error(), `duplicate table "users"`)
}

func TestValidateDuplicateColumn(t *testing.T) {
	s := NewSchema()
	s.Add(&Table{
		Name: "users",
		Columns: []Column{
			{Name: "email", TypeName: "text"},
			{Name: "email", TypeName: "text"},
		},
	})

	err := s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate column "email" in table "users"`)
}

func TestValidateDuplicateEnumValue(t *testing.T) {
	s := NewSchema()
	s.Add(&EnumType{Name: "status", Values: []string{"active", "active"}})

	err := s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate value "active" in enum type "status"`)
}

func TestValidateReportsEveryProblemAtOnce(t *testing.T) {
	s := NewSchema()
	s.Add(&Table{Name: "users"})
	s.Add(&Table{Name: "users"})
	s.Add(&EnumType{Name: "status", Values: []string{"a", "a"}})

	err := s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate table "users"`)
	assert.Contains(t, err.Error(), `duplicate value "a" in enum type "status"`)
}
