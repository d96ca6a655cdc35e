package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tableNames(order []Object) []string {
	var names []string
	for _, obj := range order {
		if obj.ObjectKind() == KindTable {
			names = append(names, obj.ObjectName())
		}
	}
	return names
}

func TestCreationOrderBuckets(t *testing.T) {
	s := NewSchema()
	s.Add(&View{Name: "active_users", Definition: "SELECT * FROM users"})
	s.Add(&Table{Name: "users", Columns: []Column{{Name: "id", TypeName: "bigint"}}})
	s.Add(&EnumType{Name: "status", Values: []string{"active"}})
	s.Add(&Sequence{Name: "order_seq"})
	s.Add(&NamedSchema{Name: "app"})

	var kinds []ObjectKind
	for _, obj := range CreationOrder(s) {
		kinds = append(kinds, obj.ObjectKind())
	}
	assert.Equal(t, []ObjectKind{KindNamedSchema, KindEnum, KindSequence, KindTable, KindView}, kinds)
}

func TestCreationOrderForeignKeyDependency(t *testing.T) {
	s := NewSchema()
	s.Add(&Table{
		Name:    "posts",
		Columns: []Column{{Name: "user_id", TypeName: "bigint"}},
		Constraints: []Constraint{
			{Type: ConstraintForeignKey, Columns: []string{"user_id"}, ReferencedTable: "users"},
		},
	})
	s.Add(&Table{Name: "users", Columns: []Column{{Name: "id", TypeName: "bigint"}}})

	assert.Equal(t, []string{"users", "posts"}, tableNames(CreationOrder(s)))
}

func TestCreationOrderRawReferencesText(t *testing.T) {
	s := NewSchema()
	s.Add(&Table{
		Name: "comments",
		Constraints: []Constraint{
			{Definition: `FOREIGN KEY (post_id) REFERENCES "posts" (id)`},
		},
	})
	s.Add(&Table{
		Name: "posts",
		Constraints: []Constraint{
			{Definition: "FOREIGN KEY (user_id) REFERENCES users (id)"},
		},
	})
	s.Add(&Table{Name: "users"})

	assert.Equal(t, []string{"users", "posts", "comments"}, tableNames(CreationOrder(s)))
}

func TestCreationOrderCycleFallsBackToNameOrder(t *testing.T) {
	s := NewSchema()
	s.Add(&Table{
		Name: "b",
		Constraints: []Constraint{
			{Type: ConstraintForeignKey, ReferencedTable: "a"},
		},
	})
	s.Add(&Table{
		Name: "a",
		Constraints: []Constraint{
			{Type: ConstraintForeignKey, ReferencedTable: "b"},
		},
	})

	// The cycle cannot be ordered, so the sort degrades to name order.
	assert.Equal(t, []string{"a", "b"}, tableNames(CreationOrder(s)))
}

func TestCreationOrderColumnTypeDependency(t *testing.T) {
	s := NewSchema()
	s.Add(&Table{Name: "addresses", Columns: []Column{{Name: "street", TypeName: "text"}}})
	s.Add(&Table{Name: "a_company", Columns: []Column{{Name: "hq", TypeName: "addresses"}}})

	assert.Equal(t, []string{"addresses", "a_company"}, tableNames(CreationOrder(s)))
}

func TestCreationOrderBuiltinTypesCarryNoEdges(t *testing.T) {
	s := NewSchema()
	s.Add(&Table{Name: "z_first", Columns: []Column{{Name: "v", TypeName: "varchar(255)"}}})
	s.Add(&Table{Name: "a_second", Columns: []Column{{Name: "n", TypeName: "numeric(10,2)"}}})

	assert.Equal(t, []string{"a_second", "z_first"}, tableNames(CreationOrder(s)))
}

func TestExtractReferences(t *testing.T) {
	refs := extractReferences(`FOREIGN KEY (a) REFERENCES users (id), FOREIGN KEY (b) references "Order Items" (id)`)
	require.Len(t, refs, 2)
	assert.Equal(t, "users", refs[0])
	assert.Equal(t, "Order Items", refs[1])
}

func TestBaseTypeName(t *testing.T) {
	assert.Equal(t, "varchar", baseTypeName("varchar(255)"))
	assert.Equal(t, "integer", baseTypeName("integer[]"))
	assert.Equal(t, "numeric", baseTypeName("NUMERIC(10,2)"))
}
