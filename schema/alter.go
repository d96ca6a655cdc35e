package schema

import (
	"fmt"
)

// AlterTable compares two versions of a table and renders one independent
// ALTER per differing attribute, paired with its inverse. Changed constraints
// and indexes are dropped and recreated, never modified in place.
func AlterTable(old, new *Table) (up, down []Statement) {
	tableName := qualifiedName(new.SchemaName, new.Name)

	oldColumns := map[string]Column{}
	for _, column := range old.Columns {
		oldColumns[column.Name] = column
	}
	newColumns := map[string]Column{}
	for _, column := range new.Columns {
		newColumns[column.Name] = column
	}

	for _, column := range new.Columns {
		if _, ok := oldColumns[column.Name]; !ok {
			up = append(up, DDL(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s;", tableName, ColumnDefinition(column))))
			down = append(down, DDL(fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s;", tableName, QuoteIdent(column.Name))))
		}
	}
	for _, column := range old.Columns {
		if _, ok := newColumns[column.Name]; !ok {
			// The inverse restores the original definition in full, identity
			// and generation expression included.
			up = append(up, DDL(fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s;", tableName, QuoteIdent(column.Name))))
			down = append(down, DDL(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s;", tableName, ColumnDefinition(column))))
		}
	}
	for _, newColumn := range new.Columns {
		if oldColumn, ok := oldColumns[newColumn.Name]; ok {
			columnUp, columnDown := alterColumn(tableName, oldColumn, newColumn)
			up = append(up, columnUp...)
			down = append(down, columnDown...)
		}
	}

	constraintUp, constraintDown := alterConstraints(old, new, tableName)
	up = append(up, constraintUp...)
	down = append(down, constraintDown...)

	indexUp, indexDown := alterIndexes(old, new)
	up = append(up, indexUp...)
	down = append(down, indexDown...)

	return up, down
}

// alterColumn emits one ALTER and its inverse per differing column field:
// type, nullability, default, identity and generation expression.
func alterColumn(tableName string, old, new Column) (up, down []Statement) {
	column := QuoteIdent(new.Name)
	alter := func(clause string) DDL {
		return DDL(fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s %s;", tableName, column, clause))
	}

	if old.TypeName != new.TypeName {
		up = append(up, alter("TYPE "+new.TypeName))
		down = append(down, alter("TYPE "+old.TypeName))
	}

	if old.Nullable != new.Nullable {
		if new.Nullable {
			up = append(up, alter("DROP NOT NULL"))
			down = append(down, alter("SET NOT NULL"))
		} else {
			up = append(up, alter("SET NOT NULL"))
			down = append(down, alter("DROP NOT NULL"))
		}
	}

	if old.Default != new.Default {
		if new.Default == "" {
			up = append(up, alter("DROP DEFAULT"))
		} else {
			up = append(up, alter("SET DEFAULT "+new.Default))
		}
		if old.Default == "" {
			down = append(down, alter("DROP DEFAULT"))
		} else {
			down = append(down, alter("SET DEFAULT "+old.Default))
		}
	}

	if old.Identity != new.Identity {
		switch {
		case old.Identity == "":
			up = append(up, alter(fmt.Sprintf("ADD GENERATED %s AS IDENTITY", new.Identity)))
			down = append(down, alter("DROP IDENTITY IF EXISTS"))
		case new.Identity == "":
			up = append(up, alter("DROP IDENTITY IF EXISTS"))
			down = append(down, alter(fmt.Sprintf("ADD GENERATED %s AS IDENTITY", old.Identity)))
		default:
			up = append(up, alter("SET GENERATED "+new.Identity))
			down = append(down, alter("SET GENERATED "+old.Identity))
		}
	}

	if old.Generated != new.Generated {
		switch {
		case new.Generated == "":
			up = append(up, alter("DROP EXPRESSION"))
			down = append(down, alter(fmt.Sprintf("SET EXPRESSION AS (%s)", old.Generated)))
		case old.Generated == "":
			up = append(up, alter(fmt.Sprintf("SET EXPRESSION AS (%s)", new.Generated)))
			down = append(down, alter("DROP EXPRESSION"))
		default:
			up = append(up, alter(fmt.Sprintf("SET EXPRESSION AS (%s)", new.Generated)))
			down = append(down, alter(fmt.Sprintf("SET EXPRESSION AS (%s)", old.Generated)))
		}
	}

	return up, down
}

func alterConstraints(old, new *Table, tableName string) (up, down []Statement) {
	oldByName := map[string]Constraint{}
	for _, constraint := range old.Constraints {
		oldByName[constraintName(old, constraint)] = constraint
	}
	newByName := map[string]Constraint{}
	for _, constraint := range new.Constraints {
		newByName[constraintName(new, constraint)] = constraint
	}

	addConstraint := func(t *Table, c Constraint) DDL {
		return DDL(fmt.Sprintf("ALTER TABLE %s ADD %s;", tableName, ConstraintDefinition(t, c)))
	}
	dropConstraint := func(name string) DDL {
		return DDL(fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT IF EXISTS %s;", tableName, QuoteIdent(name)))
	}

	for _, constraint := range new.Constraints {
		name := constraintName(new, constraint)
		oldConstraint, existed := oldByName[name]
		if !existed {
			up = append(up, addConstraint(new, constraint))
			down = append(down, dropConstraint(name))
			continue
		}
		// A changed constraint is dropped and recreated, compared on its
		// rendered definition.
		if ConstraintDefinition(old, oldConstraint) != ConstraintDefinition(new, constraint) {
			up = append(up, dropConstraint(name), addConstraint(new, constraint))
			down = append(down, dropConstraint(name), addConstraint(old, oldConstraint))
		}
	}
	for _, constraint := range old.Constraints {
		name := constraintName(old, constraint)
		if _, kept := newByName[name]; !kept {
			up = append(up, dropConstraint(name))
			down = append(down, addConstraint(old, constraint))
		}
	}

	return up, down
}

func alterIndexes(old, new *Table) (up, down []Statement) {
	oldByName := map[string]Index{}
	for _, index := range old.Indexes {
		oldByName[index.Name] = index
	}
	newByName := map[string]Index{}
	for _, index := range new.Indexes {
		newByName[index.Name] = index
	}

	for _, index := range new.Indexes {
		oldIndex, existed := oldByName[index.Name]
		if !existed {
			up = append(up, DDL(CreateIndex(new, index)))
			down = append(down, DDL(DropIndex(index)))
			continue
		}
		if CreateIndex(old, oldIndex) != CreateIndex(new, index) {
			up = append(up, DDL(DropIndex(oldIndex)), DDL(CreateIndex(new, index)))
			down = append(down, DDL(DropIndex(index)), DDL(CreateIndex(old, oldIndex)))
		}
	}
	for _, index := range old.Indexes {
		if _, kept := newByName[index.Name]; !kept {
			up = append(up, DDL(DropIndex(index)))
			down = append(down, DDL(CreateIndex(old, index)))
		}
	}

	return up, down
}

// AlterSequence emits one ALTER SEQUENCE per differing field. Absent optional
// bounds render as NO MINVALUE / NO MAXVALUE.
func AlterSequence(old, new *Sequence) (up, down []Statement) {
	name := qualifiedName(new.SchemaName, new.Name)
	alter := func(clause string) DDL {
		return DDL(fmt.Sprintf("ALTER SEQUENCE %s %s;", name, clause))
	}

	if startOrDefault(old) != startOrDefault(new) {
		up = append(up, alter(fmt.Sprintf("START WITH %d", startOrDefault(new))))
		down = append(down, alter(fmt.Sprintf("START WITH %d", startOrDefault(old))))
	}
	if incrementOrDefault(old) != incrementOrDefault(new) {
		up = append(up, alter(fmt.Sprintf("INCREMENT BY %d", incrementOrDefault(new))))
		down = append(down, alter(fmt.Sprintf("INCREMENT BY %d", incrementOrDefault(old))))
	}
	if !int64PtrEqual(old.MinValue, new.MinValue) {
		up = append(up, alter(minValueClause(new.MinValue)))
		down = append(down, alter(minValueClause(old.MinValue)))
	}
	if !int64PtrEqual(old.MaxValue, new.MaxValue) {
		up = append(up, alter(maxValueClause(new.MaxValue)))
		down = append(down, alter(maxValueClause(old.MaxValue)))
	}
	if cacheOrDefault(old) != cacheOrDefault(new) {
		up = append(up, alter(fmt.Sprintf("CACHE %d", cacheOrDefault(new))))
		down = append(down, alter(fmt.Sprintf("CACHE %d", cacheOrDefault(old))))
	}
	if old.Cycle != new.Cycle {
		up = append(up, alter(cycleClause(new.Cycle)))
		down = append(down, alter(cycleClause(old.Cycle)))
	}

	return up, down
}

func minValueClause(v *int64) string {
	if v == nil {
		return "NO MINVALUE"
	}
	return fmt.Sprintf("MINVALUE %d", *v)
}

func maxValueClause(v *int64) string {
	if v == nil {
		return "NO MAXVALUE"
	}
	return fmt.Sprintf("MAXVALUE %d", *v)
}

func cycleClause(cycle bool) string {
	if cycle {
		return "CYCLE"
	}
	return "NO CYCLE"
}

func int64PtrEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// AlterEnum handles the backend's one-way enum surface: labels can be
// appended but never removed or reordered. An added label emits ADD VALUE in
// up with a warning in down, since the addition cannot be undone. A removed
// label emits warnings in both directions and never SQL.
func AlterEnum(old, new *EnumType) (up, down []Statement) {
	name := qualifiedName(new.SchemaName, new.Name)

	oldValues := map[string]bool{}
	for _, value := range old.Values {
		oldValues[value] = true
	}
	newValues := map[string]bool{}
	for _, value := range new.Values {
		newValues[value] = true
	}

	for _, value := range new.Values {
		if !oldValues[value] {
			up = append(up, DDL(fmt.Sprintf("ALTER TYPE %s ADD VALUE %s;", name, StringConstant(value))))
			down = append(down, Warning(fmt.Sprintf("cannot remove value %s from enum type %s; PostgreSQL does not support dropping enum values", StringConstant(value), name)))
		}
	}
	for _, value := range old.Values {
		if !newValues[value] {
			warning := Warning(fmt.Sprintf("value %s should be removed from enum type %s, but PostgreSQL does not support dropping enum values; manual intervention required", StringConstant(value), name))
			up = append(up, warning)
			down = append(down, warning)
		}
	}

	return up, down
}
