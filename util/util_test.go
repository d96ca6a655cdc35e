package util

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransformSlice(t *testing.T) {
	out := TransformSlice([]int{1, 2, 3}, strconv.Itoa)
	assert.Equal(t, []string{"1", "2", "3"}, out)
}

func TestSortedKeys(t *testing.T) {
	m := map[string]int{"zebra": 1, "apple": 2, "mango": 3}
	assert.Equal(t, []string{"apple", "mango", "zebra"}, SortedKeys(m))
	assert.Empty(t, SortedKeys(map[string]int{}))
}

func TestBuildPostgresConstraintName(t *testing.T) {
	assert.Equal(t, "users_email_key", BuildPostgresConstraintName("users", "email", "key"))
}

func TestBuildPostgresConstraintNameTruncation(t *testing.T) {
	longTable := "very_long_table_name_that_exceeds_postgres_limits_for_sure"
	name := BuildPostgresConstraintName(longTable, "column_name", "fkey")
	assert.LessOrEqual(t, len(name), 63)
	assert.Contains(t, name, "_fkey")
}
