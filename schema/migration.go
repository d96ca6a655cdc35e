package schema

import (
	"fmt"
	"strings"
	"time"
)

// Migration is a pair of forward statements and their inverses. It is a
// freshly allocated output value; it is never folded back into a Schema.
type Migration struct {
	Description string
	Up          []Statement
	Down        []Statement
}

// Empty reports whether the migration contains no statement in either
// direction.
func (m *Migration) Empty() bool {
	return len(m.Up) == 0 && len(m.Down) == 0
}

// Render produces the migration file text. The caller supplies the
// generation time so rendering stays deterministic under test.
func (m *Migration) Render(generatedAt time.Time) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("-- Migration: %s\n", m.Description))
	sb.WriteString(fmt.Sprintf("-- Generated: %s\n", generatedAt.Format(time.RFC3339)))
	sb.WriteString("-- Up Migration\n")
	sb.WriteString(renderStatements(m.Up))
	sb.WriteString("\n\n-- Down Migration\n")
	sb.WriteString(renderStatements(m.Down))
	sb.WriteString("\n")
	return sb.String()
}

func renderStatements(statements []Statement) string {
	lines := make([]string, len(statements))
	for i, statement := range statements {
		lines[i] = statement.String()
	}
	return strings.Join(lines, "\n")
}

// Export renders a whole snapshot as one declarative SQL file in creation
// order, with a trailing block of COMMENT ON statements. Comments come last
// because they may reference objects created anywhere in the order.
func Export(s *Schema) (string, error) {
	var statements []string
	for _, obj := range CreationOrder(s) {
		switch obj.ObjectKind() {
		case KindArrayType, KindMultirangeType:
			// Created implicitly with their element/range type.
			continue
		}
		create, err := CreateObject(obj)
		if err != nil {
			return "", err
		}
		statements = append(statements, create)

		switch o := obj.(type) {
		case *Table:
			for _, index := range o.Indexes {
				statements = append(statements, CreateIndex(o, index))
			}
		case *MaterializedView:
			for _, index := range o.Indexes {
				statements = append(statements, createMaterializedViewIndex(o, index))
			}
		}
	}

	comments := commentStatements(s)

	var sb strings.Builder
	sb.WriteString(strings.Join(statements, "\n\n"))
	if len(comments) > 0 {
		sb.WriteString("\n\n")
		sb.WriteString(strings.Join(comments, "\n"))
	}
	sb.WriteString("\n")
	return sb.String(), nil
}

func createMaterializedViewIndex(o *MaterializedView, idx Index) string {
	table := &Table{Name: o.Name, SchemaName: o.SchemaName}
	return CreateIndex(table, idx)
}

// commentStatements collects COMMENT ON for every commented object, walking
// the same creation order so output stays deterministic.
func commentStatements(s *Schema) []string {
	var comments []string
	add := func(target, comment string) {
		if comment != "" {
			comments = append(comments, fmt.Sprintf("COMMENT ON %s IS %s;", target, StringConstant(comment)))
		}
	}

	for _, obj := range CreationOrder(s) {
		switch o := obj.(type) {
		case *NamedSchema:
			add("SCHEMA "+QuoteIdent(o.Name), o.Comment)
		case *Extension:
			add("EXTENSION "+QuoteIdent(o.Name), o.Comment)
		case *Role:
			add("ROLE "+QuoteIdent(o.Name), o.Comment)
		case *Tablespace:
			add("TABLESPACE "+QuoteIdent(o.Name), o.Comment)
		case *Server:
			add("SERVER "+QuoteIdent(o.Name), o.Comment)
		case *BaseType:
			add("TYPE "+qualifiedName(o.SchemaName, o.Name), o.Comment)
		case *EnumType:
			add("TYPE "+qualifiedName(o.SchemaName, o.Name), o.Comment)
		case *Domain:
			add("DOMAIN "+qualifiedName(o.SchemaName, o.Name), o.Comment)
		case *CompositeType:
			add("TYPE "+qualifiedName(o.SchemaName, o.Name), o.Comment)
		case *RangeType:
			add("TYPE "+qualifiedName(o.SchemaName, o.Name), o.Comment)
		case *Collation:
			add("COLLATION "+qualifiedName(o.SchemaName, o.Name), o.Comment)
		case *Sequence:
			add("SEQUENCE "+qualifiedName(o.SchemaName, o.Name), o.Comment)
		case *Table:
			add("TABLE "+qualifiedName(o.SchemaName, o.Name), o.Comment)
			for _, column := range o.Columns {
				add(fmt.Sprintf("COLUMN %s.%s", qualifiedName(o.SchemaName, o.Name), QuoteIdent(column.Name)), column.Comment)
			}
			for _, index := range o.Indexes {
				add("INDEX "+QuoteIdent(index.Name), index.Comment)
			}
		case *View:
			add("VIEW "+qualifiedName(o.SchemaName, o.Name), o.Comment)
		case *MaterializedView:
			add("MATERIALIZED VIEW "+qualifiedName(o.SchemaName, o.Name), o.Comment)
		case *Publication:
			add("PUBLICATION "+QuoteIdent(o.Name), o.Comment)
		case *Subscription:
			add("SUBSCRIPTION "+QuoteIdent(o.Name), o.Comment)
		case *Policy:
			add(fmt.Sprintf("POLICY %s ON %s", QuoteIdent(o.Name), QuoteIdent(o.TableName)), o.Comment)
		case *Rule:
			add(fmt.Sprintf("RULE %s ON %s", QuoteIdent(o.Name), QuoteIdent(o.TableName)), o.Comment)
		case *Function:
			add("FUNCTION "+functionSignature(o.SchemaName, o.Name, o.Arguments), o.Comment)
		case *Procedure:
			add("PROCEDURE "+functionSignature(o.SchemaName, o.Name, o.Arguments), o.Comment)
		case *EventTrigger:
			add("EVENT TRIGGER "+QuoteIdent(o.Name), o.Comment)
		case *Trigger:
			add(fmt.Sprintf("TRIGGER %s ON %s", QuoteIdent(o.Name), QuoteIdent(o.TableName)), o.Comment)
		case *ConstraintTrigger:
			add(fmt.Sprintf("TRIGGER %s ON %s", QuoteIdent(o.Name), QuoteIdent(o.TableName)), o.Comment)
		}
	}
	return comments
}
