package schema

import (
	"fmt"
	"strings"

	"github.com/pgplan/pgplan/util"
)

const indent = "    "

// The generator renders one object value into canonical DDL text. It is pure:
// identical input always renders byte-identical output, since generated SQL
// is diffed and tested textually. Every Drop* uses IF EXISTS ... CASCADE so
// a migration can be reapplied idempotently.

// CreateObject renders the CREATE statement for any object kind. It returns
// a GenerationError for objects PostgreSQL cannot create explicitly or whose
// required sub-fields are missing, rather than emitting invalid SQL.
func CreateObject(obj Object) (string, error) {
	switch o := obj.(type) {
	case *NamedSchema:
		return CreateNamedSchema(o), nil
	case *Extension:
		return CreateExtension(o), nil
	case *Role:
		return CreateRole(o), nil
	case *Tablespace:
		return CreateTablespace(o)
	case *Server:
		return CreateServer(o)
	case *BaseType:
		return CreateBaseType(o), nil
	case *EnumType:
		return CreateEnum(o), nil
	case *Domain:
		return CreateDomain(o)
	case *CompositeType:
		return CreateCompositeType(o), nil
	case *RangeType:
		return CreateRangeType(o)
	case *ArrayType:
		return "", generationErrorf("array type %q cannot be created explicitly; PostgreSQL derives it from its element type", o.Name)
	case *MultirangeType:
		return "", generationErrorf("multirange type %q cannot be created explicitly; PostgreSQL derives it from its range type", o.Name)
	case *Collation:
		return CreateCollation(o), nil
	case *Sequence:
		return CreateSequence(o), nil
	case *Table:
		return CreateTable(o), nil
	case *ForeignKeyConstraint:
		return CreateForeignKey(o), nil
	case *View:
		return CreateView(o), nil
	case *MaterializedView:
		return CreateMaterializedView(o), nil
	case *Publication:
		return CreatePublication(o), nil
	case *Subscription:
		return CreateSubscription(o)
	case *Policy:
		return CreatePolicy(o), nil
	case *Rule:
		return CreateRule(o), nil
	case *Function:
		return CreateFunction(o)
	case *Procedure:
		return CreateProcedure(o)
	case *EventTrigger:
		return CreateEventTrigger(o)
	case *Trigger:
		return CreateTrigger(o)
	case *ConstraintTrigger:
		return CreateConstraintTrigger(o)
	default:
		return "", generationErrorf("unexpected object type in CreateObject: %#v", obj)
	}
}

// DropObject renders the DROP statement for any object kind.
func DropObject(obj Object) (string, error) {
	switch o := obj.(type) {
	case *NamedSchema:
		return DropNamedSchema(o), nil
	case *Extension:
		return DropExtension(o), nil
	case *Role:
		return DropRole(o), nil
	case *Tablespace:
		return fmt.Sprintf("DROP TABLESPACE IF EXISTS %s;", QuoteIdent(o.Name)), nil
	case *Server:
		return fmt.Sprintf("DROP SERVER IF EXISTS %s CASCADE;", QuoteIdent(o.Name)), nil
	case *BaseType:
		return DropType(o.SchemaName, o.Name), nil
	case *EnumType:
		return DropType(o.SchemaName, o.Name), nil
	case *Domain:
		return DropDomain(o), nil
	case *CompositeType:
		return DropType(o.SchemaName, o.Name), nil
	case *RangeType:
		return DropType(o.SchemaName, o.Name), nil
	case *ArrayType:
		return "", generationErrorf("array type %q cannot be dropped explicitly", o.Name)
	case *MultirangeType:
		return "", generationErrorf("multirange type %q cannot be dropped explicitly", o.Name)
	case *Collation:
		return fmt.Sprintf("DROP COLLATION IF EXISTS %s CASCADE;", qualifiedName(o.SchemaName, o.Name)), nil
	case *Sequence:
		return DropSequence(o), nil
	case *Table:
		return DropTable(o), nil
	case *ForeignKeyConstraint:
		return DropForeignKey(o), nil
	case *View:
		return DropView(o), nil
	case *MaterializedView:
		return DropMaterializedView(o), nil
	case *Publication:
		return fmt.Sprintf("DROP PUBLICATION IF EXISTS %s;", QuoteIdent(o.Name)), nil
	case *Subscription:
		return fmt.Sprintf("DROP SUBSCRIPTION IF EXISTS %s;", QuoteIdent(o.Name)), nil
	case *Policy:
		return DropPolicy(o), nil
	case *Rule:
		return DropRule(o), nil
	case *Function:
		return DropFunction(o), nil
	case *Procedure:
		return DropProcedure(o), nil
	case *EventTrigger:
		return fmt.Sprintf("DROP EVENT TRIGGER IF EXISTS %s CASCADE;", QuoteIdent(o.Name)), nil
	case *Trigger:
		return DropTrigger(o.Name, o.TableName), nil
	case *ConstraintTrigger:
		return DropTrigger(o.Name, o.TableName), nil
	default:
		return "", generationErrorf("unexpected object type in DropObject: %#v", obj)
	}
}

func CreateNamedSchema(o *NamedSchema) string {
	var sb strings.Builder
	sb.WriteString("CREATE SCHEMA ")
	sb.WriteString(QuoteIdent(o.Name))
	if o.Owner != "" {
		sb.WriteString(" AUTHORIZATION ")
		sb.WriteString(QuoteIdent(o.Owner))
	}
	sb.WriteString(";")
	return sb.String()
}

func DropNamedSchema(o *NamedSchema) string {
	return fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE;", QuoteIdent(o.Name))
}

func CreateExtension(o *Extension) string {
	var sb strings.Builder
	sb.WriteString("CREATE EXTENSION ")
	sb.WriteString(QuoteIdent(o.Name))
	if o.SchemaName != "" {
		sb.WriteString(" SCHEMA ")
		sb.WriteString(QuoteIdent(o.SchemaName))
	}
	if o.Version != "" {
		sb.WriteString(" VERSION ")
		sb.WriteString(StringConstant(o.Version))
	}
	sb.WriteString(";")
	return sb.String()
}

func DropExtension(o *Extension) string {
	return fmt.Sprintf("DROP EXTENSION IF EXISTS %s CASCADE;", QuoteIdent(o.Name))
}

func CreateRole(o *Role) string {
	var sb strings.Builder
	sb.WriteString("CREATE ROLE ")
	sb.WriteString(QuoteIdent(o.Name))
	var attrs []string
	if o.Superuser {
		attrs = append(attrs, "SUPERUSER")
	}
	if o.CreateDB {
		attrs = append(attrs, "CREATEDB")
	}
	if o.CreateRole {
		attrs = append(attrs, "CREATEROLE")
	}
	if o.Login {
		attrs = append(attrs, "LOGIN")
	}
	if len(attrs) > 0 {
		sb.WriteString(" WITH ")
		sb.WriteString(strings.Join(attrs, " "))
	}
	sb.WriteString(";")
	return sb.String()
}

func DropRole(o *Role) string {
	return fmt.Sprintf("DROP ROLE IF EXISTS %s;", QuoteIdent(o.Name))
}

func CreateTablespace(o *Tablespace) (string, error) {
	if o.Location == "" {
		return "", generationErrorf("tablespace %q has no location", o.Name)
	}
	var sb strings.Builder
	sb.WriteString("CREATE TABLESPACE ")
	sb.WriteString(QuoteIdent(o.Name))
	if o.Owner != "" {
		sb.WriteString(" OWNER ")
		sb.WriteString(QuoteIdent(o.Owner))
	}
	sb.WriteString(" LOCATION ")
	sb.WriteString(StringConstant(o.Location))
	sb.WriteString(";")
	return sb.String(), nil
}

func CreateServer(o *Server) (string, error) {
	if o.Wrapper == "" {
		return "", generationErrorf("server %q has no foreign data wrapper", o.Name)
	}
	var sb strings.Builder
	sb.WriteString("CREATE SERVER ")
	sb.WriteString(QuoteIdent(o.Name))
	sb.WriteString(" FOREIGN DATA WRAPPER ")
	sb.WriteString(QuoteIdent(o.Wrapper))
	if len(o.Options) > 0 {
		var opts []string
		for _, key := range util.SortedKeys(o.Options) {
			opts = append(opts, fmt.Sprintf("%s %s", key, StringConstant(o.Options[key])))
		}
		sb.WriteString(" OPTIONS (")
		sb.WriteString(strings.Join(opts, ", "))
		sb.WriteString(")")
	}
	sb.WriteString(";")
	return sb.String(), nil
}

// CreateBaseType renders a shell type when no I/O functions are given, which
// is the only portable way to pre-declare a type the planner does not model
// in full.
func CreateBaseType(o *BaseType) string {
	name := qualifiedName(o.SchemaName, o.Name)
	if o.InputFunction == "" || o.OutputFunction == "" {
		return fmt.Sprintf("CREATE TYPE %s;", name)
	}
	return fmt.Sprintf("CREATE TYPE %s (INPUT = %s, OUTPUT = %s);",
		name, QuoteIdent(o.InputFunction), QuoteIdent(o.OutputFunction))
}

func CreateEnum(o *EnumType) string {
	values := util.TransformSlice(o.Values, StringConstant)
	return fmt.Sprintf("CREATE TYPE %s AS ENUM (%s);",
		qualifiedName(o.SchemaName, o.Name), strings.Join(values, ", "))
}

func DropType(schemaName, name string) string {
	return fmt.Sprintf("DROP TYPE IF EXISTS %s CASCADE;", qualifiedName(schemaName, name))
}

func CreateDomain(o *Domain) (string, error) {
	if o.TypeName == "" {
		return "", generationErrorf("domain %q has no underlying type", o.Name)
	}
	var sb strings.Builder
	sb.WriteString("CREATE DOMAIN ")
	sb.WriteString(qualifiedName(o.SchemaName, o.Name))
	sb.WriteString(" AS ")
	sb.WriteString(o.TypeName)
	if o.Default != "" {
		sb.WriteString(" DEFAULT ")
		sb.WriteString(o.Default)
	}
	if o.NotNull {
		sb.WriteString(" NOT NULL")
	}
	for _, check := range o.CheckConstraints {
		sb.WriteString(" CHECK (")
		sb.WriteString(check)
		sb.WriteString(")")
	}
	sb.WriteString(";")
	return sb.String(), nil
}

func DropDomain(o *Domain) string {
	return fmt.Sprintf("DROP DOMAIN IF EXISTS %s CASCADE;", qualifiedName(o.SchemaName, o.Name))
}

func CreateCompositeType(o *CompositeType) string {
	fields := util.TransformSlice(o.Fields, func(f CompositeField) string {
		return fmt.Sprintf("%s %s", QuoteIdent(f.Name), f.TypeName)
	})
	return fmt.Sprintf("CREATE TYPE %s AS (%s);",
		qualifiedName(o.SchemaName, o.Name), strings.Join(fields, ", "))
}

func CreateRangeType(o *RangeType) (string, error) {
	if o.Subtype == "" {
		return "", generationErrorf("range type %q has no subtype", o.Name)
	}
	var sb strings.Builder
	sb.WriteString("CREATE TYPE ")
	sb.WriteString(qualifiedName(o.SchemaName, o.Name))
	sb.WriteString(" AS RANGE (SUBTYPE = ")
	sb.WriteString(o.Subtype)
	if o.Collation != "" {
		sb.WriteString(", COLLATION = ")
		sb.WriteString(QuoteIdent(o.Collation))
	}
	if o.Canonical != "" {
		sb.WriteString(", CANONICAL = ")
		sb.WriteString(QuoteIdent(o.Canonical))
	}
	sb.WriteString(");")
	return sb.String(), nil
}

func CreateCollation(o *Collation) string {
	var sb strings.Builder
	sb.WriteString("CREATE COLLATION ")
	sb.WriteString(qualifiedName(o.SchemaName, o.Name))
	sb.WriteString(" (LOCALE = ")
	sb.WriteString(StringConstant(o.Locale))
	if o.Provider != "" {
		sb.WriteString(", PROVIDER = ")
		sb.WriteString(o.Provider)
	}
	sb.WriteString(");")
	return sb.String()
}

func CreateSequence(o *Sequence) string {
	var sb strings.Builder
	sb.WriteString("CREATE SEQUENCE ")
	sb.WriteString(qualifiedName(o.SchemaName, o.Name))
	if o.DataType != "" {
		sb.WriteString(" AS ")
		sb.WriteString(o.DataType)
	}
	sb.WriteString(fmt.Sprintf(" START WITH %d", startOrDefault(o)))
	sb.WriteString(fmt.Sprintf(" INCREMENT BY %d", incrementOrDefault(o)))
	if o.MinValue != nil {
		sb.WriteString(fmt.Sprintf(" MINVALUE %d", *o.MinValue))
	} else {
		sb.WriteString(" NO MINVALUE")
	}
	if o.MaxValue != nil {
		sb.WriteString(fmt.Sprintf(" MAXVALUE %d", *o.MaxValue))
	} else {
		sb.WriteString(" NO MAXVALUE")
	}
	sb.WriteString(fmt.Sprintf(" CACHE %d", cacheOrDefault(o)))
	if o.Cycle {
		sb.WriteString(" CYCLE")
	}
	if o.OwnedBy != "" {
		sb.WriteString(" OWNED BY ")
		sb.WriteString(o.OwnedBy)
	}
	sb.WriteString(";")
	return sb.String()
}

func DropSequence(o *Sequence) string {
	return fmt.Sprintf("DROP SEQUENCE IF EXISTS %s CASCADE;", qualifiedName(o.SchemaName, o.Name))
}

func startOrDefault(o *Sequence) int64 {
	if o.Start == 0 {
		return 1
	}
	return o.Start
}

func incrementOrDefault(o *Sequence) int64 {
	if o.Increment == 0 {
		return 1
	}
	return o.Increment
}

func cacheOrDefault(o *Sequence) int64 {
	if o.Cache == 0 {
		return 1
	}
	return o.Cache
}

func CreateTable(t *Table) string {
	var sb strings.Builder
	sb.WriteString("CREATE TABLE ")
	sb.WriteString(qualifiedName(t.SchemaName, t.Name))
	sb.WriteString(" (\n")

	var defs []string
	for _, column := range t.Columns {
		defs = append(defs, indent+ColumnDefinition(column))
	}
	for _, constraint := range t.Constraints {
		defs = append(defs, indent+ConstraintDefinition(t, constraint))
	}
	sb.WriteString(strings.Join(defs, ",\n"))
	sb.WriteString("\n)")

	if len(t.Inherits) > 0 {
		parents := util.TransformSlice(t.Inherits, QuoteIdent)
		sb.WriteString(" INHERITS (")
		sb.WriteString(strings.Join(parents, ", "))
		sb.WriteString(")")
	}
	if t.PartitionBy != "" {
		sb.WriteString(" PARTITION BY ")
		sb.WriteString(t.PartitionBy)
	}
	if len(t.StorageParameters) > 0 {
		var params []string
		for _, key := range util.SortedKeys(t.StorageParameters) {
			params = append(params, fmt.Sprintf("%s = %s", key, t.StorageParameters[key]))
		}
		sb.WriteString(" WITH (")
		sb.WriteString(strings.Join(params, ", "))
		sb.WriteString(")")
	}
	sb.WriteString(";")
	return sb.String()
}

func DropTable(t *Table) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE;", qualifiedName(t.SchemaName, t.Name))
}

// ColumnDefinition renders the full column clause used in CREATE TABLE and
// ADD COLUMN, including identity, generated expression, default and NOT NULL.
func ColumnDefinition(c Column) string {
	var sb strings.Builder
	sb.WriteString(QuoteIdent(c.Name))
	sb.WriteString(" ")
	sb.WriteString(c.TypeName)
	if c.Collation != "" {
		sb.WriteString(" COLLATE ")
		sb.WriteString(QuoteIdent(c.Collation))
	}
	if c.Generated != "" {
		sb.WriteString(" GENERATED ALWAYS AS (")
		sb.WriteString(c.Generated)
		sb.WriteString(") STORED")
	}
	if c.Identity != "" {
		sb.WriteString(" GENERATED ")
		sb.WriteString(c.Identity)
		sb.WriteString(" AS IDENTITY")
	}
	if c.Default != "" {
		sb.WriteString(" DEFAULT ")
		sb.WriteString(c.Default)
	}
	if !c.Nullable {
		sb.WriteString(" NOT NULL")
	}
	return sb.String()
}

// ConstraintDefinition renders a table constraint clause. Raw text retained
// by the source wins; otherwise the clause is built from structured fields.
// Unnamed constraints get a name following PostgreSQL's convention so they
// can be dropped symmetrically later.
func ConstraintDefinition(t *Table, c Constraint) string {
	var sb strings.Builder
	name := constraintName(t, c)
	if name != "" {
		sb.WriteString("CONSTRAINT ")
		sb.WriteString(QuoteIdent(name))
		sb.WriteString(" ")
	}
	if c.Definition != "" {
		sb.WriteString(c.Definition)
		return sb.String()
	}

	switch c.Type {
	case ConstraintPrimaryKey:
		sb.WriteString("PRIMARY KEY (")
		sb.WriteString(joinIdents(c.Columns))
		sb.WriteString(")")
	case ConstraintUnique:
		sb.WriteString("UNIQUE (")
		sb.WriteString(joinIdents(c.Columns))
		sb.WriteString(")")
	case ConstraintCheck:
		sb.WriteString("CHECK (")
		sb.WriteString(c.CheckExpression)
		sb.WriteString(")")
	case ConstraintForeignKey:
		sb.WriteString("FOREIGN KEY (")
		sb.WriteString(joinIdents(c.Columns))
		sb.WriteString(") REFERENCES ")
		sb.WriteString(QuoteIdent(c.ReferencedTable))
		if len(c.ReferencedColumns) > 0 {
			sb.WriteString(" (")
			sb.WriteString(joinIdents(c.ReferencedColumns))
			sb.WriteString(")")
		}
		if c.OnDelete != "" {
			sb.WriteString(" ON DELETE ")
			sb.WriteString(c.OnDelete)
		}
		if c.OnUpdate != "" {
			sb.WriteString(" ON UPDATE ")
			sb.WriteString(c.OnUpdate)
		}
	default:
		sb.WriteString(string(c.Type))
	}
	if c.Deferrable {
		sb.WriteString(" DEFERRABLE")
	}
	if c.InitiallyDeferred {
		sb.WriteString(" INITIALLY DEFERRED")
	}
	return sb.String()
}

func constraintName(t *Table, c Constraint) string {
	if c.Name != "" {
		return c.Name
	}
	column := ""
	if len(c.Columns) > 0 {
		column = strings.Join(c.Columns, "_")
	}
	switch c.Type {
	case ConstraintPrimaryKey:
		// Primary keys carry no column segment: users_pkey, not users__pkey.
		return t.Name + "_pkey"
	case ConstraintForeignKey:
		return util.BuildPostgresConstraintName(t.Name, column, "fkey")
	case ConstraintUnique:
		return util.BuildPostgresConstraintName(t.Name, column, "key")
	case ConstraintCheck:
		return util.BuildPostgresConstraintName(t.Name, column, "check")
	}
	return ""
}

func joinIdents(names []string) string {
	return strings.Join(util.TransformSlice(names, QuoteIdent), ", ")
}

// CreateIndex renders the CREATE INDEX statement for an index on the table.
func CreateIndex(t *Table, idx Index) string {
	var sb strings.Builder
	sb.WriteString("CREATE ")
	if idx.Unique {
		sb.WriteString("UNIQUE ")
	}
	sb.WriteString("INDEX ")
	sb.WriteString(QuoteIdent(idx.Name))
	sb.WriteString(" ON ")
	sb.WriteString(qualifiedName(t.SchemaName, t.Name))
	if idx.Method != "" && !strings.EqualFold(idx.Method, "btree") {
		sb.WriteString(" USING ")
		sb.WriteString(idx.Method)
	}
	sb.WriteString(" (")
	sb.WriteString(joinIdents(idx.Columns))
	sb.WriteString(")")
	if idx.Where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(idx.Where)
	}
	sb.WriteString(";")
	return sb.String()
}

func DropIndex(idx Index) string {
	return fmt.Sprintf("DROP INDEX IF EXISTS %s CASCADE;", QuoteIdent(idx.Name))
}

func CreateForeignKey(o *ForeignKeyConstraint) string {
	var sb strings.Builder
	sb.WriteString("ALTER TABLE ")
	sb.WriteString(QuoteIdent(o.TableName))
	sb.WriteString(" ADD CONSTRAINT ")
	sb.WriteString(QuoteIdent(o.Name))
	sb.WriteString(" FOREIGN KEY (")
	sb.WriteString(joinIdents(o.Columns))
	sb.WriteString(") REFERENCES ")
	sb.WriteString(QuoteIdent(o.ReferencedTable))
	if len(o.ReferencedColumns) > 0 {
		sb.WriteString(" (")
		sb.WriteString(joinIdents(o.ReferencedColumns))
		sb.WriteString(")")
	}
	if o.OnDelete != "" {
		sb.WriteString(" ON DELETE ")
		sb.WriteString(o.OnDelete)
	}
	if o.OnUpdate != "" {
		sb.WriteString(" ON UPDATE ")
		sb.WriteString(o.OnUpdate)
	}
	sb.WriteString(";")
	return sb.String()
}

func DropForeignKey(o *ForeignKeyConstraint) string {
	return fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT IF EXISTS %s CASCADE;",
		QuoteIdent(o.TableName), QuoteIdent(o.Name))
}

func CreateView(o *View) string {
	return fmt.Sprintf("CREATE VIEW %s AS %s;",
		qualifiedName(o.SchemaName, o.Name), strings.TrimSuffix(strings.TrimSpace(o.Definition), ";"))
}

func DropView(o *View) string {
	return fmt.Sprintf("DROP VIEW IF EXISTS %s CASCADE;", qualifiedName(o.SchemaName, o.Name))
}

func CreateMaterializedView(o *MaterializedView) string {
	var sb strings.Builder
	sb.WriteString("CREATE MATERIALIZED VIEW ")
	sb.WriteString(qualifiedName(o.SchemaName, o.Name))
	sb.WriteString(" AS ")
	sb.WriteString(strings.TrimSuffix(strings.TrimSpace(o.Definition), ";"))
	if !o.WithData {
		sb.WriteString(" WITH NO DATA")
	}
	sb.WriteString(";")
	return sb.String()
}

func DropMaterializedView(o *MaterializedView) string {
	return fmt.Sprintf("DROP MATERIALIZED VIEW IF EXISTS %s CASCADE;", qualifiedName(o.SchemaName, o.Name))
}

func CreatePublication(o *Publication) string {
	var sb strings.Builder
	sb.WriteString("CREATE PUBLICATION ")
	sb.WriteString(QuoteIdent(o.Name))
	if o.AllTables {
		sb.WriteString(" FOR ALL TABLES")
	} else if len(o.Tables) > 0 {
		sb.WriteString(" FOR TABLE ")
		sb.WriteString(joinIdents(o.Tables))
	}
	sb.WriteString(";")
	return sb.String()
}

func CreateSubscription(o *Subscription) (string, error) {
	if o.Connection == "" || len(o.Publications) == 0 {
		return "", generationErrorf("subscription %q needs a connection and at least one publication", o.Name)
	}
	return fmt.Sprintf("CREATE SUBSCRIPTION %s CONNECTION %s PUBLICATION %s;",
		QuoteIdent(o.Name), StringConstant(o.Connection), joinIdents(o.Publications)), nil
}

func CreatePolicy(o *Policy) string {
	var sb strings.Builder
	sb.WriteString("CREATE POLICY ")
	sb.WriteString(QuoteIdent(o.Name))
	sb.WriteString(" ON ")
	sb.WriteString(QuoteIdent(o.TableName))
	if !o.Permissive {
		sb.WriteString(" AS RESTRICTIVE")
	}
	if o.Command != "" {
		sb.WriteString(" FOR ")
		sb.WriteString(o.Command)
	}
	if len(o.Roles) > 0 {
		sb.WriteString(" TO ")
		sb.WriteString(joinIdents(o.Roles))
	}
	if o.Using != "" {
		sb.WriteString(" USING (")
		sb.WriteString(o.Using)
		sb.WriteString(")")
	}
	if o.WithCheck != "" {
		sb.WriteString(" WITH CHECK (")
		sb.WriteString(o.WithCheck)
		sb.WriteString(")")
	}
	sb.WriteString(";")
	return sb.String()
}

func DropPolicy(o *Policy) string {
	return fmt.Sprintf("DROP POLICY IF EXISTS %s ON %s;", QuoteIdent(o.Name), QuoteIdent(o.TableName))
}

func CreateRule(o *Rule) string {
	var sb strings.Builder
	sb.WriteString("CREATE RULE ")
	sb.WriteString(QuoteIdent(o.Name))
	sb.WriteString(" AS ON ")
	sb.WriteString(o.Event)
	sb.WriteString(" TO ")
	sb.WriteString(QuoteIdent(o.TableName))
	sb.WriteString(" DO ")
	if o.Instead {
		sb.WriteString("INSTEAD ")
	}
	sb.WriteString(strings.TrimSuffix(strings.TrimSpace(o.Action), ";"))
	sb.WriteString(";")
	return sb.String()
}

func DropRule(o *Rule) string {
	return fmt.Sprintf("DROP RULE IF EXISTS %s ON %s CASCADE;", QuoteIdent(o.Name), QuoteIdent(o.TableName))
}

func functionSignature(schemaName, name string, args []FunctionArg) string {
	argTypes := util.TransformSlice(args, func(a FunctionArg) string {
		return a.TypeName
	})
	return fmt.Sprintf("%s(%s)", qualifiedName(schemaName, name), strings.Join(argTypes, ", "))
}

func functionArguments(args []FunctionArg) string {
	rendered := util.TransformSlice(args, func(a FunctionArg) string {
		var parts []string
		if a.Mode != "" && a.Mode != "IN" {
			parts = append(parts, a.Mode)
		}
		if a.Name != "" {
			parts = append(parts, QuoteIdent(a.Name))
		}
		parts = append(parts, a.TypeName)
		if a.Default != "" {
			parts = append(parts, "DEFAULT", a.Default)
		}
		return strings.Join(parts, " ")
	})
	return strings.Join(rendered, ", ")
}

func CreateFunction(o *Function) (string, error) {
	if o.Returns == "" || o.Language == "" {
		return "", generationErrorf("function %q needs a return type and a language", o.Name)
	}
	var sb strings.Builder
	sb.WriteString("CREATE FUNCTION ")
	sb.WriteString(qualifiedName(o.SchemaName, o.Name))
	sb.WriteString("(")
	sb.WriteString(functionArguments(o.Arguments))
	sb.WriteString(") RETURNS ")
	sb.WriteString(o.Returns)
	sb.WriteString(" LANGUAGE ")
	sb.WriteString(o.Language)
	if o.Volatility != "" {
		sb.WriteString(" ")
		sb.WriteString(o.Volatility)
	}
	sb.WriteString(" AS $function$")
	sb.WriteString(o.Body)
	sb.WriteString("$function$;")
	return sb.String(), nil
}

func DropFunction(o *Function) string {
	return fmt.Sprintf("DROP FUNCTION IF EXISTS %s CASCADE;", functionSignature(o.SchemaName, o.Name, o.Arguments))
}

func CreateProcedure(o *Procedure) (string, error) {
	if o.Language == "" {
		return "", generationErrorf("procedure %q needs a language", o.Name)
	}
	var sb strings.Builder
	sb.WriteString("CREATE PROCEDURE ")
	sb.WriteString(qualifiedName(o.SchemaName, o.Name))
	sb.WriteString("(")
	sb.WriteString(functionArguments(o.Arguments))
	sb.WriteString(") LANGUAGE ")
	sb.WriteString(o.Language)
	sb.WriteString(" AS $procedure$")
	sb.WriteString(o.Body)
	sb.WriteString("$procedure$;")
	return sb.String(), nil
}

func DropProcedure(o *Procedure) string {
	return fmt.Sprintf("DROP PROCEDURE IF EXISTS %s CASCADE;", functionSignature(o.SchemaName, o.Name, o.Arguments))
}

func CreateEventTrigger(o *EventTrigger) (string, error) {
	if o.Function == "" {
		return "", generationErrorf("event trigger %q has no function", o.Name)
	}
	var sb strings.Builder
	sb.WriteString("CREATE EVENT TRIGGER ")
	sb.WriteString(QuoteIdent(o.Name))
	sb.WriteString(" ON ")
	sb.WriteString(o.Event)
	if len(o.Tags) > 0 {
		tags := util.TransformSlice(o.Tags, StringConstant)
		sb.WriteString(" WHEN TAG IN (")
		sb.WriteString(strings.Join(tags, ", "))
		sb.WriteString(")")
	}
	sb.WriteString(" EXECUTE FUNCTION ")
	sb.WriteString(QuoteIdent(o.Function))
	sb.WriteString("();")
	return sb.String(), nil
}

func CreateTrigger(o *Trigger) (string, error) {
	if o.Function == "" {
		return "", generationErrorf("trigger %q has no function", o.Name)
	}
	var sb strings.Builder
	sb.WriteString("CREATE TRIGGER ")
	sb.WriteString(QuoteIdent(o.Name))
	sb.WriteString(" ")
	sb.WriteString(o.Timing)
	sb.WriteString(" ")
	sb.WriteString(strings.Join(o.Events, " OR "))
	sb.WriteString(" ON ")
	sb.WriteString(QuoteIdent(o.TableName))
	if o.ForEach != "" {
		sb.WriteString(" FOR EACH ")
		sb.WriteString(o.ForEach)
	}
	if o.When != "" {
		sb.WriteString(" WHEN (")
		sb.WriteString(o.When)
		sb.WriteString(")")
	}
	sb.WriteString(" EXECUTE FUNCTION ")
	sb.WriteString(QuoteIdent(o.Function))
	sb.WriteString("(")
	sb.WriteString(strings.Join(o.Arguments, ", "))
	sb.WriteString(");")
	return sb.String(), nil
}

func CreateConstraintTrigger(o *ConstraintTrigger) (string, error) {
	if o.Function == "" {
		return "", generationErrorf("constraint trigger %q has no function", o.Name)
	}
	var sb strings.Builder
	sb.WriteString("CREATE CONSTRAINT TRIGGER ")
	sb.WriteString(QuoteIdent(o.Name))
	sb.WriteString(" ")
	sb.WriteString(o.Timing)
	sb.WriteString(" ")
	sb.WriteString(strings.Join(o.Events, " OR "))
	sb.WriteString(" ON ")
	sb.WriteString(QuoteIdent(o.TableName))
	if o.Deferrable {
		sb.WriteString(" DEFERRABLE")
	}
	if o.InitiallyDeferred {
		sb.WriteString(" INITIALLY DEFERRED")
	}
	sb.WriteString(" FOR EACH ROW EXECUTE FUNCTION ")
	sb.WriteString(QuoteIdent(o.Function))
	sb.WriteString("();")
	return sb.String(), nil
}

func DropTrigger(name, tableName string) string {
	return fmt.Sprintf("DROP TRIGGER IF EXISTS %s ON %s CASCADE;", QuoteIdent(name), QuoteIdent(tableName))
}
