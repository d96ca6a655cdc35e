package schema

import (
	"regexp"
	"strings"

	"github.com/pgplan/pgplan/util"
)

// referencesPattern matches "REFERENCES <table>" inside raw constraint text.
// Loose by design: constraint definitions re-ingested from plain SQL are the
// only place table references survive as text.
var referencesPattern = regexp.MustCompile(`(?i)\bREFERENCES\s+(?:"([^"]+)"|([A-Za-z_][A-Za-z0-9_$]*))`)

// builtinTypes covers the PostgreSQL built-in type names (and common aliases)
// that a column can carry without depending on another object. Anything else
// is resolved against same-named tables when building the table graph.
var builtinTypes = map[string]bool{
	"bigint": true, "bigserial": true, "bit": true, "bool": true,
	"boolean": true, "box": true, "bytea": true, "char": true,
	"character": true, "character varying": true, "cidr": true, "circle": true,
	"date": true, "daterange": true, "decimal": true, "double precision": true,
	"float4": true, "float8": true, "inet": true, "int": true, "int2": true,
	"int4": true, "int4range": true, "int8": true, "int8range": true,
	"integer": true, "interval": true, "json": true, "jsonb": true,
	"line": true, "lseg": true, "macaddr": true, "macaddr8": true,
	"money": true, "numeric": true, "numrange": true, "path": true,
	"pg_lsn": true, "point": true, "polygon": true, "real": true,
	"serial": true, "serial2": true, "serial4": true, "serial8": true,
	"smallint": true, "smallserial": true, "text": true, "time": true,
	"timestamp": true, "timestamptz": true, "timetz": true, "tsquery": true,
	"tsrange": true, "tstzrange": true, "tsvector": true, "uuid": true,
	"varbit": true, "varchar": true, "xml": true,
}

// CreationOrder produces a total order over every object in the snapshot such
// that creating objects in that order never references something not yet
// created, as far as the category buckets and the table graph can tell. It
// never fails: a cyclic table graph degrades to the tables' name order.
//
// Non-table kinds are ordered solely by their bucket's position, which can be
// wrong in adversarial cases (a view calling a function is created before the
// function's bucket). Within a bucket objects are sorted by name.
func CreationOrder(s *Schema) []Object {
	var order []Object

	appendSorted(&order, s.Schemas)
	appendSorted(&order, s.Extensions)
	appendSorted(&order, s.Roles)
	appendSorted(&order, s.Tablespaces)
	appendSorted(&order, s.Servers)
	appendSorted(&order, s.BaseTypes)
	appendSorted(&order, s.Enums)
	appendSorted(&order, s.Domains)
	appendSorted(&order, s.CompositeTypes)
	appendSorted(&order, s.RangeTypes)
	appendSorted(&order, s.ArrayTypes)
	appendSorted(&order, s.MultirangeTypes)
	appendSorted(&order, s.Collations)

	appendSorted(&order, s.Sequences)
	for _, table := range sortTablesByDependencies(s) {
		order = append(order, table)
	}
	appendSorted(&order, s.ForeignKeys)
	appendSorted(&order, s.Views)
	appendSorted(&order, s.MaterializedViews)

	appendSorted(&order, s.Publications)
	appendSorted(&order, s.Subscriptions)
	appendSorted(&order, s.Policies)
	appendSorted(&order, s.Rules)
	appendSorted(&order, s.Functions)
	appendSorted(&order, s.Procedures)
	appendSorted(&order, s.EventTriggers)
	appendSorted(&order, s.Triggers)
	appendSorted(&order, s.ConstraintTriggers)

	return order
}

func appendSorted[T Object](order *[]Object, m map[string]T) {
	for _, name := range util.SortedKeys(m) {
		*order = append(*order, m[name])
	}
}

// sortTablesByDependencies orders tables so that referenced tables come
// before referencing ones. Edges come from foreign key constraints (both
// structured fields and REFERENCES text in raw definitions) and from column
// types naming another table (composite row types). On a cycle the sort
// degrades to name order without failing.
func sortTablesByDependencies(s *Schema) []*Table {
	tables := make([]*Table, 0, len(s.Tables))
	for _, name := range util.SortedKeys(s.Tables) {
		tables = append(tables, s.Tables[name])
	}
	if len(tables) <= 1 {
		return tables
	}

	dependencies := make(map[string][]string)
	for _, table := range tables {
		var deps []string
		for _, dep := range tableDependencies(s, table) {
			if dep != table.Name {
				deps = append(deps, dep)
			}
		}
		dependencies[table.Name] = deps
	}

	sorted := topologicalSort(tables, dependencies, func(t *Table) string {
		return t.Name
	})

	// Cyclic foreign keys: keep the unsorted enumeration rather than fail.
	if len(sorted) == 0 {
		return tables
	}
	return sorted
}

func tableDependencies(s *Schema, table *Table) []string {
	seen := map[string]bool{}
	var deps []string
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			deps = append(deps, name)
		}
	}

	for _, column := range table.Columns {
		typeName := baseTypeName(column.TypeName)
		if builtinTypes[typeName] {
			continue
		}
		// A non-builtin column type only counts when a same-named table
		// exists; everything else (enums, domains, extensions) lives in an
		// earlier bucket already.
		if _, ok := s.Tables[typeName]; ok {
			add(typeName)
		}
	}

	for _, constraint := range table.Constraints {
		if constraint.ReferencedTable != "" {
			if _, ok := s.Tables[constraint.ReferencedTable]; ok {
				add(constraint.ReferencedTable)
			}
			continue
		}
		for _, referenced := range extractReferences(constraint.Definition) {
			if _, ok := s.Tables[referenced]; ok {
				add(referenced)
			}
		}
	}

	return deps
}

// extractReferences pulls referenced table names out of raw constraint text.
func extractReferences(definition string) []string {
	if definition == "" {
		return nil
	}
	var names []string
	for _, match := range referencesPattern.FindAllStringSubmatch(definition, -1) {
		if match[1] != "" {
			names = append(names, match[1])
		} else {
			names = append(names, match[2])
		}
	}
	return names
}

// baseTypeName strips array markers and type modifiers, so "varchar(255)[]"
// resolves the same as "varchar".
func baseTypeName(typeName string) string {
	name := strings.TrimSpace(strings.ToLower(typeName))
	name = strings.TrimSuffix(name, "[]")
	if i := strings.IndexByte(name, '('); i >= 0 {
		j := strings.IndexByte(name[i:], ')')
		if j >= 0 {
			name = name[:i] + name[i+j+1:]
		} else {
			name = name[:i]
		}
		name = strings.TrimSpace(name)
	}
	return name
}
