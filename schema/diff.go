package schema

import (
	"github.com/pgplan/pgplan/util"
)

// Diff compares two snapshots and produces the statements transforming `from`
// into `to`, with the paired inverses. Comparison is name-keyed per kind:
//
//   - Added objects get a CREATE in up and the matching idempotent DROP in
//     down.
//   - Of the objects present in both, only tables, sequences and enum types
//     are compared attribute-by-attribute. A same-named view, function or
//     trigger with a changed body yields no statement; widening this is a
//     product decision, not an implementation detail.
//   - Objects removed from `to` yield no statement at all. The planner never
//     drops something it did not create.
//
// Array and multirange types are skipped entirely: PostgreSQL creates and
// drops them implicitly with their element type.
func Diff(from, to *Schema) (*Migration, error) {
	m := &Migration{}

	if err := diffKind(m, from.Schemas, to.Schemas); err != nil {
		return nil, err
	}
	if err := diffKind(m, from.Extensions, to.Extensions); err != nil {
		return nil, err
	}
	if err := diffKind(m, from.Roles, to.Roles); err != nil {
		return nil, err
	}
	if err := diffKind(m, from.Tablespaces, to.Tablespaces); err != nil {
		return nil, err
	}
	if err := diffKind(m, from.Servers, to.Servers); err != nil {
		return nil, err
	}
	if err := diffKind(m, from.BaseTypes, to.BaseTypes); err != nil {
		return nil, err
	}
	if err := diffEnums(m, from, to); err != nil {
		return nil, err
	}
	if err := diffKind(m, from.Domains, to.Domains); err != nil {
		return nil, err
	}
	if err := diffKind(m, from.CompositeTypes, to.CompositeTypes); err != nil {
		return nil, err
	}
	if err := diffKind(m, from.RangeTypes, to.RangeTypes); err != nil {
		return nil, err
	}
	if err := diffKind(m, from.Collations, to.Collations); err != nil {
		return nil, err
	}
	if err := diffSequences(m, from, to); err != nil {
		return nil, err
	}
	if err := diffTables(m, from, to); err != nil {
		return nil, err
	}
	if err := diffKind(m, from.ForeignKeys, to.ForeignKeys); err != nil {
		return nil, err
	}
	if err := diffKind(m, from.Views, to.Views); err != nil {
		return nil, err
	}
	if err := diffKind(m, from.MaterializedViews, to.MaterializedViews); err != nil {
		return nil, err
	}
	if err := diffKind(m, from.Publications, to.Publications); err != nil {
		return nil, err
	}
	if err := diffKind(m, from.Subscriptions, to.Subscriptions); err != nil {
		return nil, err
	}
	if err := diffKind(m, from.Policies, to.Policies); err != nil {
		return nil, err
	}
	if err := diffKind(m, from.Rules, to.Rules); err != nil {
		return nil, err
	}
	if err := diffKind(m, from.Functions, to.Functions); err != nil {
		return nil, err
	}
	if err := diffKind(m, from.Procedures, to.Procedures); err != nil {
		return nil, err
	}
	if err := diffKind(m, from.EventTriggers, to.EventTriggers); err != nil {
		return nil, err
	}
	if err := diffKind(m, from.Triggers, to.Triggers); err != nil {
		return nil, err
	}
	if err := diffKind(m, from.ConstraintTriggers, to.ConstraintTriggers); err != nil {
		return nil, err
	}

	return m, nil
}

// diffKind handles the added case shared by every kind without an
// attribute-level sub-diff.
func diffKind[T Object](m *Migration, fromMap, toMap map[string]T) error {
	for _, name := range util.SortedKeys(toMap) {
		if _, ok := fromMap[name]; ok {
			continue
		}
		obj := toMap[name]
		create, err := CreateObject(obj)
		if err != nil {
			return err
		}
		drop, err := DropObject(obj)
		if err != nil {
			return err
		}
		m.Up = append(m.Up, DDL(create))
		m.Down = append(m.Down, DDL(drop))
	}
	return nil
}

func diffTables(m *Migration, from, to *Schema) error {
	for _, name := range util.SortedKeys(to.Tables) {
		table := to.Tables[name]
		oldTable, exists := from.Tables[name]
		if !exists {
			m.Up = append(m.Up, DDL(CreateTable(table)))
			for _, index := range table.Indexes {
				m.Up = append(m.Up, DDL(CreateIndex(table, index)))
			}
			// CASCADE takes the indexes down with the table.
			m.Down = append(m.Down, DDL(DropTable(table)))
			continue
		}
		up, down := AlterTable(oldTable, table)
		m.Up = append(m.Up, up...)
		m.Down = append(m.Down, down...)
	}
	return nil
}

func diffSequences(m *Migration, from, to *Schema) error {
	for _, name := range util.SortedKeys(to.Sequences) {
		sequence := to.Sequences[name]
		oldSequence, exists := from.Sequences[name]
		if !exists {
			m.Up = append(m.Up, DDL(CreateSequence(sequence)))
			m.Down = append(m.Down, DDL(DropSequence(sequence)))
			continue
		}
		up, down := AlterSequence(oldSequence, sequence)
		m.Up = append(m.Up, up...)
		m.Down = append(m.Down, down...)
	}
	return nil
}

func diffEnums(m *Migration, from, to *Schema) error {
	for _, name := range util.SortedKeys(to.Enums) {
		enum := to.Enums[name]
		oldEnum, exists := from.Enums[name]
		if !exists {
			m.Up = append(m.Up, DDL(CreateEnum(enum)))
			m.Down = append(m.Down, DDL(DropType(enum.SchemaName, enum.Name)))
			continue
		}
		up, down := AlterEnum(oldEnum, enum)
		m.Up = append(m.Up, up...)
		m.Down = append(m.Down, down...)
	}
	return nil
}
