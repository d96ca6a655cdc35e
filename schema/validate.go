package schema

import (
	"fmt"
	"strings"

	"github.com/pgplan/pgplan/util"
)

// Validate scans the whole snapshot and reports every structural problem at
// once instead of failing on the first: object-name collisions recorded while
// folding, duplicate column/constraint/index names inside tables, and
// duplicate enum labels. A nil return means the snapshot is usable.
func (s *Schema) Validate() error {
	problems := append([]string{}, s.collisions...)

	for _, name := range util.SortedKeys(s.Tables) {
		table := s.Tables[name]
		problems = append(problems, validateTable(table)...)
	}

	for _, name := range util.SortedKeys(s.Enums) {
		enum := s.Enums[name]
		seen := map[string]bool{}
		for _, value := range enum.Values {
			if seen[value] {
				problems = append(problems, fmt.Sprintf("duplicate value %q in enum type %q", value, enum.Name))
			}
			seen[value] = true
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return schemaErrorf("Schema validation failed:\n%s", strings.Join(problems, "\n"))
}

func validateTable(table *Table) []string {
	var problems []string

	columns := map[string]bool{}
	for _, column := range table.Columns {
		if columns[column.Name] {
			problems = append(problems, fmt.Sprintf("duplicate column %q in table %q", column.Name, table.Name))
		}
		columns[column.Name] = true
	}

	constraints := map[string]bool{}
	for _, constraint := range table.Constraints {
		if constraint.Name == "" {
			continue
		}
		if constraints[constraint.Name] {
			problems = append(problems, fmt.Sprintf("duplicate constraint %q in table %q", constraint.Name, table.Name))
		}
		constraints[constraint.Name] = true
	}

	indexes := map[string]bool{}
	for _, index := range table.Indexes {
		if indexes[index.Name] {
			problems = append(problems, fmt.Sprintf("duplicate index %q in table %q", index.Name, table.Name))
		}
		indexes[index.Name] = true
	}

	return problems
}
