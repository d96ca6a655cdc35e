// Package parser folds declarative SQL into a schema snapshot using
// PostgreSQL's own parser via pg_query_go. No tokenizing happens here; the
// package only maps parse-tree nodes onto the schema object model.
package parser

import (
	"fmt"
	"os"
	"strings"

	"github.com/k0kubun/pp/v3"
	pgquery "github.com/pganalyze/pg_query_go/v2"
	"github.com/pgplan/pgplan/schema"
	"github.com/pgplan/pgplan/util"
)

var debugParseTree = os.Getenv("PGPLAN_DEBUG") != ""

// Trigger timing and event bits, as encoded by the PostgreSQL parser.
const (
	triggerTypeRow      = 1 << 0
	triggerTypeBefore   = 1 << 1
	triggerTypeInsert   = 1 << 2
	triggerTypeDelete   = 1 << 3
	triggerTypeUpdate   = 1 << 4
	triggerTypeTruncate = 1 << 5
	triggerTypeInstead  = 1 << 6
)

// ParseSchema parses SQL text and folds every statement into a fresh
// snapshot.
func ParseSchema(sql string) (*schema.Schema, error) {
	s := schema.NewSchema()
	if err := ParseInto(s, sql); err != nil {
		return nil, err
	}
	return s, nil
}

// ParseInto folds the statements in sql into an existing snapshot. Loading a
// directory of .sql files calls this once per file against one aggregate.
func ParseInto(s *schema.Schema, sql string) error {
	result, err := pgquery.Parse(sql)
	if err != nil {
		return err
	}
	if debugParseTree {
		pp.Println(result.Stmts)
	}
	for _, rawStmt := range result.Stmts {
		if err := foldStmt(s, rawStmt.Stmt); err != nil {
			return err
		}
	}
	return nil
}

func foldStmt(s *schema.Schema, node *pgquery.Node) error {
	switch stmt := node.Node.(type) {
	case *pgquery.Node_CreateSchemaStmt:
		return foldCreateSchema(s, stmt.CreateSchemaStmt)
	case *pgquery.Node_CreateExtensionStmt:
		return foldCreateExtension(s, stmt.CreateExtensionStmt)
	case *pgquery.Node_CreateRoleStmt:
		return foldCreateRole(s, stmt.CreateRoleStmt)
	case *pgquery.Node_CreateStmt:
		return foldCreateTable(s, stmt.CreateStmt)
	case *pgquery.Node_CreateEnumStmt:
		return foldCreateEnum(s, stmt.CreateEnumStmt)
	case *pgquery.Node_CompositeTypeStmt:
		return foldCompositeType(s, stmt.CompositeTypeStmt)
	case *pgquery.Node_CreateRangeStmt:
		return foldCreateRange(s, stmt.CreateRangeStmt)
	case *pgquery.Node_CreateDomainStmt:
		return foldCreateDomain(s, stmt.CreateDomainStmt)
	case *pgquery.Node_CreateSeqStmt:
		return foldCreateSequence(s, stmt.CreateSeqStmt)
	case *pgquery.Node_ViewStmt:
		return foldCreateView(s, stmt.ViewStmt)
	case *pgquery.Node_CreateTableAsStmt:
		return foldCreateTableAs(s, stmt.CreateTableAsStmt)
	case *pgquery.Node_IndexStmt:
		return foldCreateIndex(s, stmt.IndexStmt)
	case *pgquery.Node_CreateFunctionStmt:
		return foldCreateFunction(s, stmt.CreateFunctionStmt)
	case *pgquery.Node_CreateTrigStmt:
		return foldCreateTrigger(s, stmt.CreateTrigStmt)
	case *pgquery.Node_CreatePolicyStmt:
		return foldCreatePolicy(s, stmt.CreatePolicyStmt)
	case *pgquery.Node_RuleStmt:
		return foldCreateRule(s, stmt.RuleStmt)
	case *pgquery.Node_CreatePublicationStmt:
		return foldCreatePublication(s, stmt.CreatePublicationStmt)
	case *pgquery.Node_CreateSubscriptionStmt:
		return foldCreateSubscription(s, stmt.CreateSubscriptionStmt)
	case *pgquery.Node_CreateEventTrigStmt:
		return foldCreateEventTrigger(s, stmt.CreateEventTrigStmt)
	case *pgquery.Node_DefineStmt:
		return foldDefineStmt(s, stmt.DefineStmt)
	case *pgquery.Node_AlterTableStmt:
		return foldAlterTable(s, stmt.AlterTableStmt)
	case *pgquery.Node_CommentStmt:
		return foldComment(s, stmt.CommentStmt)
	default:
		return fmt.Errorf("unknown node in foldStmt: %#v", stmt)
	}
}

func foldCreateSchema(s *schema.Schema, stmt *pgquery.CreateSchemaStmt) error {
	obj := &schema.NamedSchema{Name: stmt.Schemaname}
	if stmt.Authrole != nil {
		obj.Owner = stmt.Authrole.Rolename
	}
	s.Add(obj)
	return nil
}

func foldCreateExtension(s *schema.Schema, stmt *pgquery.CreateExtensionStmt) error {
	obj := &schema.Extension{Name: stmt.Extname}
	for _, option := range stmt.Options {
		defElem, ok := option.Node.(*pgquery.Node_DefElem)
		if !ok {
			continue
		}
		switch defElem.DefElem.Defname {
		case "schema":
			obj.SchemaName, _ = stringArg(defElem.DefElem.Arg)
		case "new_version":
			obj.Version, _ = stringArg(defElem.DefElem.Arg)
		}
	}
	s.Add(obj)
	return nil
}

func foldCreateRole(s *schema.Schema, stmt *pgquery.CreateRoleStmt) error {
	obj := &schema.Role{Name: stmt.Role}
	for _, option := range stmt.Options {
		defElem, ok := option.Node.(*pgquery.Node_DefElem)
		if !ok {
			continue
		}
		enabled := boolArg(defElem.DefElem.Arg)
		switch defElem.DefElem.Defname {
		case "canlogin":
			obj.Login = enabled
		case "superuser":
			obj.Superuser = enabled
		case "createdb":
			obj.CreateDB = enabled
		case "createrole":
			obj.CreateRole = enabled
		}
	}
	s.Add(obj)
	return nil
}

func foldCreateTable(s *schema.Schema, stmt *pgquery.CreateStmt) error {
	table := &schema.Table{
		Name:       stmt.Relation.Relname,
		SchemaName: schemaNameOf(stmt.Relation),
	}

	for _, elt := range stmt.TableElts {
		switch node := elt.Node.(type) {
		case *pgquery.Node_ColumnDef:
			column, err := parseColumnDef(node.ColumnDef)
			if err != nil {
				return err
			}
			table.Columns = append(table.Columns, *column)
			lifted, err := inlineConstraints(node.ColumnDef)
			if err != nil {
				return err
			}
			table.Constraints = append(table.Constraints, lifted...)
		case *pgquery.Node_Constraint:
			constraint, err := parseTableConstraint(node.Constraint)
			if err != nil {
				return err
			}
			table.Constraints = append(table.Constraints, *constraint)
		default:
			return fmt.Errorf("unknown node in foldCreateTable: %#v", node)
		}
	}

	for _, inh := range stmt.InhRelations {
		if rangeVar, ok := inh.Node.(*pgquery.Node_RangeVar); ok {
			table.Inherits = append(table.Inherits, rangeVar.RangeVar.Relname)
		}
	}

	if stmt.Partspec != nil {
		partitionBy, err := parsePartitionSpec(stmt.Partspec)
		if err != nil {
			return err
		}
		table.PartitionBy = partitionBy
	}

	s.Add(table)
	return nil
}

func parseColumnDef(columnDef *pgquery.ColumnDef) (*schema.Column, error) {
	typeName, err := parseTypeName(columnDef.TypeName)
	if err != nil {
		return nil, err
	}

	column := &schema.Column{
		Name:     columnDef.Colname,
		TypeName: typeName,
		Nullable: true,
	}
	if columnDef.CollClause != nil {
		column.Collation = lastString(columnDef.CollClause.Collname)
	}

	for _, constraintNode := range columnDef.Constraints {
		constraint, ok := constraintNode.Node.(*pgquery.Node_Constraint)
		if !ok {
			return nil, fmt.Errorf("unknown node in parseColumnDef: %#v", constraintNode.Node)
		}
		c := constraint.Constraint
		switch c.Contype {
		case pgquery.ConstrType_CONSTR_NOTNULL:
			column.Nullable = false
		case pgquery.ConstrType_CONSTR_NULL:
			column.Nullable = true
		case pgquery.ConstrType_CONSTR_DEFAULT:
			expr, err := deparseExpr(c.RawExpr)
			if err != nil {
				return nil, err
			}
			column.Default = expr
		case pgquery.ConstrType_CONSTR_IDENTITY:
			column.Identity = identityKind(c.GeneratedWhen)
			column.Nullable = false
		case pgquery.ConstrType_CONSTR_GENERATED:
			expr, err := deparseExpr(c.RawExpr)
			if err != nil {
				return nil, err
			}
			column.Generated = expr
		case pgquery.ConstrType_CONSTR_PRIMARY:
			column.Nullable = false
		case pgquery.ConstrType_CONSTR_UNIQUE, pgquery.ConstrType_CONSTR_CHECK,
			pgquery.ConstrType_CONSTR_FOREIGN:
			// Inline single-column constraints are kept on the column in the
			// source but modeled as table constraints here.
		default:
			return nil, fmt.Errorf("unknown constraint type in parseColumnDef: %v", c.Contype)
		}
	}

	return column, nil
}

// inlineConstraints lifts single-column PRIMARY KEY / UNIQUE / CHECK /
// REFERENCES clauses off a column definition into table-level constraints.
func inlineConstraints(columnDef *pgquery.ColumnDef) ([]schema.Constraint, error) {
	var constraints []schema.Constraint
	for _, constraintNode := range columnDef.Constraints {
		constraint, ok := constraintNode.Node.(*pgquery.Node_Constraint)
		if !ok {
			continue
		}
		c := constraint.Constraint
		switch c.Contype {
		case pgquery.ConstrType_CONSTR_PRIMARY:
			constraints = append(constraints, schema.Constraint{
				Name:    c.Conname,
				Type:    schema.ConstraintPrimaryKey,
				Columns: []string{columnDef.Colname},
			})
		case pgquery.ConstrType_CONSTR_UNIQUE:
			constraints = append(constraints, schema.Constraint{
				Name:    c.Conname,
				Type:    schema.ConstraintUnique,
				Columns: []string{columnDef.Colname},
			})
		case pgquery.ConstrType_CONSTR_CHECK:
			expr, err := deparseExpr(c.RawExpr)
			if err != nil {
				return nil, err
			}
			constraints = append(constraints, schema.Constraint{
				Name:            c.Conname,
				Type:            schema.ConstraintCheck,
				Columns:         []string{columnDef.Colname},
				CheckExpression: expr,
			})
		case pgquery.ConstrType_CONSTR_FOREIGN:
			fk, err := parseForeignKey(c)
			if err != nil {
				return nil, err
			}
			fk.Columns = []string{columnDef.Colname}
			constraints = append(constraints, *fk)
		}
	}
	return constraints, nil
}

func parseTableConstraint(c *pgquery.Constraint) (*schema.Constraint, error) {
	switch c.Contype {
	case pgquery.ConstrType_CONSTR_PRIMARY:
		return &schema.Constraint{
			Name:    c.Conname,
			Type:    schema.ConstraintPrimaryKey,
			Columns: stringList(c.Keys),
		}, nil
	case pgquery.ConstrType_CONSTR_UNIQUE:
		return &schema.Constraint{
			Name:    c.Conname,
			Type:    schema.ConstraintUnique,
			Columns: stringList(c.Keys),
		}, nil
	case pgquery.ConstrType_CONSTR_CHECK:
		expr, err := deparseExpr(c.RawExpr)
		if err != nil {
			return nil, err
		}
		return &schema.Constraint{
			Name:            c.Conname,
			Type:            schema.ConstraintCheck,
			CheckExpression: expr,
		}, nil
	case pgquery.ConstrType_CONSTR_FOREIGN:
		return parseForeignKey(c)
	default:
		return nil, fmt.Errorf("unknown constraint type in parseTableConstraint: %v", c.Contype)
	}
}

func parseForeignKey(c *pgquery.Constraint) (*schema.Constraint, error) {
	constraint := &schema.Constraint{
		Name:              c.Conname,
		Type:              schema.ConstraintForeignKey,
		Columns:           stringList(c.FkAttrs),
		ReferencedTable:   c.Pktable.Relname,
		ReferencedColumns: stringList(c.PkAttrs),
		OnDelete:          referentialAction(c.FkDelAction),
		OnUpdate:          referentialAction(c.FkUpdAction),
		Deferrable:        c.Deferrable,
		InitiallyDeferred: c.Initdeferred,
	}
	return constraint, nil
}

// referentialAction decodes the parser's single-character action codes.
func referentialAction(code string) string {
	switch code {
	case "c":
		return "CASCADE"
	case "r":
		return "RESTRICT"
	case "n":
		return "SET NULL"
	case "d":
		return "SET DEFAULT"
	default:
		// "a" (NO ACTION) is the default and renders as nothing.
		return ""
	}
}

func identityKind(generatedWhen string) string {
	if generatedWhen == "a" {
		return "ALWAYS"
	}
	return "BY DEFAULT"
}

func parsePartitionSpec(spec *pgquery.PartitionSpec) (string, error) {
	var columns []string
	for _, param := range spec.PartParams {
		elem, ok := param.Node.(*pgquery.Node_PartitionElem)
		if !ok {
			return "", fmt.Errorf("unknown node in parsePartitionSpec: %#v", param.Node)
		}
		if elem.PartitionElem.Name == "" {
			return "", fmt.Errorf("unsupported expression partition key in parsePartitionSpec")
		}
		columns = append(columns, elem.PartitionElem.Name)
	}
	return fmt.Sprintf("%s (%s)", strings.ToUpper(spec.Strategy), strings.Join(columns, ", ")), nil
}

func foldCreateEnum(s *schema.Schema, stmt *pgquery.CreateEnumStmt) error {
	var values []string
	for _, val := range stmt.Vals {
		str, ok := val.Node.(*pgquery.Node_String_)
		if !ok {
			return fmt.Errorf("unknown node in foldCreateEnum: %#v", val.Node)
		}
		values = append(values, str.String_.Str)
	}
	name, schemaName := splitQualifiedName(stmt.TypeName)
	s.Add(&schema.EnumType{Name: name, SchemaName: schemaName, Values: values})
	return nil
}

func foldCompositeType(s *schema.Schema, stmt *pgquery.CompositeTypeStmt) error {
	obj := &schema.CompositeType{
		Name:       stmt.Typevar.Relname,
		SchemaName: schemaNameOf(stmt.Typevar),
	}
	for _, colNode := range stmt.Coldeflist {
		columnDef, ok := colNode.Node.(*pgquery.Node_ColumnDef)
		if !ok {
			return fmt.Errorf("unknown node in foldCompositeType: %#v", colNode.Node)
		}
		typeName, err := parseTypeName(columnDef.ColumnDef.TypeName)
		if err != nil {
			return err
		}
		obj.Fields = append(obj.Fields, schema.CompositeField{
			Name:     columnDef.ColumnDef.Colname,
			TypeName: typeName,
		})
	}
	s.Add(obj)
	return nil
}

func foldCreateRange(s *schema.Schema, stmt *pgquery.CreateRangeStmt) error {
	name, schemaName := splitQualifiedName(stmt.TypeName)
	obj := &schema.RangeType{Name: name, SchemaName: schemaName}
	for _, param := range stmt.Params {
		defElem, ok := param.Node.(*pgquery.Node_DefElem)
		if !ok {
			continue
		}
		switch defElem.DefElem.Defname {
		case "subtype":
			if typeName, ok := defElem.DefElem.Arg.Node.(*pgquery.Node_TypeName); ok {
				subtype, err := parseTypeName(typeName.TypeName)
				if err != nil {
					return err
				}
				obj.Subtype = subtype
			}
		case "collation":
			obj.Collation, _ = stringArg(defElem.DefElem.Arg)
		case "canonical":
			obj.Canonical, _ = stringArg(defElem.DefElem.Arg)
		}
	}
	s.Add(obj)
	return nil
}

func foldCreateDomain(s *schema.Schema, stmt *pgquery.CreateDomainStmt) error {
	typeName, err := parseTypeName(stmt.TypeName)
	if err != nil {
		return err
	}
	name, schemaName := splitQualifiedName(stmt.Domainname)
	obj := &schema.Domain{Name: name, SchemaName: schemaName, TypeName: typeName}

	for _, constraintNode := range stmt.Constraints {
		constraint, ok := constraintNode.Node.(*pgquery.Node_Constraint)
		if !ok {
			return fmt.Errorf("unknown node in foldCreateDomain: %#v", constraintNode.Node)
		}
		c := constraint.Constraint
		switch c.Contype {
		case pgquery.ConstrType_CONSTR_NOTNULL:
			obj.NotNull = true
		case pgquery.ConstrType_CONSTR_DEFAULT:
			expr, err := deparseExpr(c.RawExpr)
			if err != nil {
				return err
			}
			obj.Default = expr
		case pgquery.ConstrType_CONSTR_CHECK:
			expr, err := deparseExpr(c.RawExpr)
			if err != nil {
				return err
			}
			obj.CheckConstraints = append(obj.CheckConstraints, expr)
		default:
			return fmt.Errorf("unknown constraint type in foldCreateDomain: %v", c.Contype)
		}
	}
	s.Add(obj)
	return nil
}

func foldCreateSequence(s *schema.Schema, stmt *pgquery.CreateSeqStmt) error {
	obj := &schema.Sequence{
		Name:       stmt.Sequence.Relname,
		SchemaName: schemaNameOf(stmt.Sequence),
		Start:      1,
		Increment:  1,
		Cache:      1,
	}
	for _, option := range stmt.Options {
		defElem, ok := option.Node.(*pgquery.Node_DefElem)
		if !ok {
			continue
		}
		switch defElem.DefElem.Defname {
		case "as":
			if typeName, ok := defElem.DefElem.Arg.Node.(*pgquery.Node_TypeName); ok {
				dataType, err := parseTypeName(typeName.TypeName)
				if err != nil {
					return err
				}
				obj.DataType = dataType
			}
		case "start":
			obj.Start = intArg(defElem.DefElem.Arg)
		case "increment":
			obj.Increment = intArg(defElem.DefElem.Arg)
		case "minvalue":
			if defElem.DefElem.Arg != nil {
				value := intArg(defElem.DefElem.Arg)
				obj.MinValue = &value
			}
		case "maxvalue":
			if defElem.DefElem.Arg != nil {
				value := intArg(defElem.DefElem.Arg)
				obj.MaxValue = &value
			}
		case "cache":
			obj.Cache = intArg(defElem.DefElem.Arg)
		case "cycle":
			obj.Cycle = boolArg(defElem.DefElem.Arg)
		case "owned_by":
			if list, ok := defElem.DefElem.Arg.Node.(*pgquery.Node_List); ok {
				parts := stringList(list.List.Items)
				if len(parts) == 2 {
					obj.OwnedBy = parts[0] + "." + parts[1]
				}
			}
		}
	}
	s.Add(obj)
	return nil
}

func foldCreateView(s *schema.Schema, stmt *pgquery.ViewStmt) error {
	definition, err := deparseStmt(stmt.Query)
	if err != nil {
		return err
	}
	s.Add(&schema.View{
		Name:       stmt.View.Relname,
		SchemaName: schemaNameOf(stmt.View),
		Definition: definition,
	})
	return nil
}

func foldCreateTableAs(s *schema.Schema, stmt *pgquery.CreateTableAsStmt) error {
	if stmt.Relkind != pgquery.ObjectType_OBJECT_MATVIEW {
		return fmt.Errorf("unsupported CREATE TABLE AS in foldCreateTableAs: %v", stmt.Relkind)
	}
	definition, err := deparseStmt(stmt.Query)
	if err != nil {
		return err
	}
	s.Add(&schema.MaterializedView{
		Name:       stmt.Into.Rel.Relname,
		SchemaName: schemaNameOf(stmt.Into.Rel),
		Definition: definition,
		WithData:   !stmt.Into.SkipData,
	})
	return nil
}

func foldCreateIndex(s *schema.Schema, stmt *pgquery.IndexStmt) error {
	index := schema.Index{
		Name:   stmt.Idxname,
		Unique: stmt.Unique,
		Method: stmt.AccessMethod,
	}
	for _, param := range stmt.IndexParams {
		elem, ok := param.Node.(*pgquery.Node_IndexElem)
		if !ok {
			return fmt.Errorf("unknown node in foldCreateIndex: %#v", param.Node)
		}
		if elem.IndexElem.Name != "" {
			index.Columns = append(index.Columns, elem.IndexElem.Name)
			continue
		}
		expr, err := deparseExpr(elem.IndexElem.Expr)
		if err != nil {
			return err
		}
		index.Columns = append(index.Columns, expr)
	}
	if stmt.WhereClause != nil {
		where, err := deparseExpr(stmt.WhereClause)
		if err != nil {
			return err
		}
		index.Where = where
	}

	tableName := stmt.Relation.Relname
	if table, ok := s.Tables[tableName]; ok {
		table.Indexes = append(table.Indexes, index)
		return nil
	}
	if matview, ok := s.MaterializedViews[tableName]; ok {
		matview.Indexes = append(matview.Indexes, index)
		return nil
	}
	return fmt.Errorf("unknown table %q in foldCreateIndex", tableName)
}

func foldCreateFunction(s *schema.Schema, stmt *pgquery.CreateFunctionStmt) error {
	name, schemaName := splitQualifiedName(stmt.Funcname)

	var arguments []schema.FunctionArg
	for _, paramNode := range stmt.Parameters {
		param, ok := paramNode.Node.(*pgquery.Node_FunctionParameter)
		if !ok {
			return fmt.Errorf("unknown node in foldCreateFunction: %#v", paramNode.Node)
		}
		typeName, err := parseTypeName(param.FunctionParameter.ArgType)
		if err != nil {
			return err
		}
		arg := schema.FunctionArg{
			Name:     param.FunctionParameter.Name,
			TypeName: typeName,
			Mode:     parameterMode(param.FunctionParameter.Mode),
		}
		if param.FunctionParameter.Defexpr != nil {
			defaultExpr, err := deparseExpr(param.FunctionParameter.Defexpr)
			if err != nil {
				return err
			}
			arg.Default = defaultExpr
		}
		arguments = append(arguments, arg)
	}

	var language, body, volatility string
	for _, option := range stmt.Options {
		defElem, ok := option.Node.(*pgquery.Node_DefElem)
		if !ok {
			continue
		}
		switch defElem.DefElem.Defname {
		case "language":
			language, _ = stringArg(defElem.DefElem.Arg)
		case "as":
			if list, ok := defElem.DefElem.Arg.Node.(*pgquery.Node_List); ok {
				body = strings.Join(stringList(list.List.Items), "\n")
			}
		case "volatility":
			volatility, _ = stringArg(defElem.DefElem.Arg)
		}
	}

	if stmt.IsProcedure {
		s.Add(&schema.Procedure{
			Name:       name,
			SchemaName: schemaName,
			Arguments:  arguments,
			Language:   language,
			Body:       body,
		})
		return nil
	}

	returns, err := parseTypeName(stmt.ReturnType)
	if err != nil {
		return err
	}
	s.Add(&schema.Function{
		Name:       name,
		SchemaName: schemaName,
		Arguments:  arguments,
		Returns:    returns,
		Language:   language,
		Body:       body,
		Volatility: strings.ToUpper(volatility),
	})
	return nil
}

func parameterMode(mode pgquery.FunctionParameterMode) string {
	switch mode {
	case pgquery.FunctionParameterMode_FUNC_PARAM_OUT:
		return "OUT"
	case pgquery.FunctionParameterMode_FUNC_PARAM_INOUT:
		return "INOUT"
	case pgquery.FunctionParameterMode_FUNC_PARAM_VARIADIC:
		return "VARIADIC"
	default:
		return ""
	}
}

func foldCreateTrigger(s *schema.Schema, stmt *pgquery.CreateTrigStmt) error {
	timing := "AFTER"
	if stmt.Timing&triggerTypeBefore != 0 {
		timing = "BEFORE"
	} else if stmt.Timing&triggerTypeInstead != 0 {
		timing = "INSTEAD OF"
	}

	var events []string
	if stmt.Events&triggerTypeInsert != 0 {
		events = append(events, "INSERT")
	}
	if stmt.Events&triggerTypeUpdate != 0 {
		events = append(events, "UPDATE")
	}
	if stmt.Events&triggerTypeDelete != 0 {
		events = append(events, "DELETE")
	}
	if stmt.Events&triggerTypeTruncate != 0 {
		events = append(events, "TRUNCATE")
	}

	forEach := "STATEMENT"
	if stmt.Row {
		forEach = "ROW"
	}

	when := ""
	if stmt.WhenClause != nil {
		expr, err := deparseExpr(stmt.WhenClause)
		if err != nil {
			return err
		}
		when = expr
	}

	functionName := lastString(stmt.Funcname)

	if stmt.Isconstraint {
		s.Add(&schema.ConstraintTrigger{
			Name:              stmt.Trigname,
			TableName:         stmt.Relation.Relname,
			Timing:            timing,
			Events:            events,
			Deferrable:        stmt.Deferrable,
			InitiallyDeferred: stmt.Initdeferred,
			Function:          functionName,
		})
		return nil
	}

	s.Add(&schema.Trigger{
		Name:      stmt.Trigname,
		TableName: stmt.Relation.Relname,
		Timing:    timing,
		Events:    events,
		ForEach:   forEach,
		When:      when,
		Function:  functionName,
		Arguments: stringList(stmt.Args),
	})
	return nil
}

func foldCreatePolicy(s *schema.Schema, stmt *pgquery.CreatePolicyStmt) error {
	policy := &schema.Policy{
		Name:       stmt.PolicyName,
		TableName:  stmt.Table.Relname,
		Permissive: stmt.Permissive,
	}
	if stmt.CmdName != "" && stmt.CmdName != "all" {
		policy.Command = strings.ToUpper(stmt.CmdName)
	}
	for _, roleNode := range stmt.Roles {
		if role, ok := roleNode.Node.(*pgquery.Node_RoleSpec); ok {
			if role.RoleSpec.Rolename != "" {
				policy.Roles = append(policy.Roles, role.RoleSpec.Rolename)
			}
		}
	}
	if stmt.Qual != nil {
		using, err := deparseExpr(stmt.Qual)
		if err != nil {
			return err
		}
		policy.Using = using
	}
	if stmt.WithCheck != nil {
		withCheck, err := deparseExpr(stmt.WithCheck)
		if err != nil {
			return err
		}
		policy.WithCheck = withCheck
	}
	s.Add(policy)
	return nil
}

func foldCreateRule(s *schema.Schema, stmt *pgquery.RuleStmt) error {
	event := ""
	switch stmt.Event {
	case pgquery.CmdType_CMD_SELECT:
		event = "SELECT"
	case pgquery.CmdType_CMD_INSERT:
		event = "INSERT"
	case pgquery.CmdType_CMD_UPDATE:
		event = "UPDATE"
	case pgquery.CmdType_CMD_DELETE:
		event = "DELETE"
	default:
		return fmt.Errorf("unknown event in foldCreateRule: %v", stmt.Event)
	}

	action := "NOTHING"
	if len(stmt.Actions) > 0 {
		var actions []string
		for _, actionNode := range stmt.Actions {
			text, err := deparseStmt(actionNode)
			if err != nil {
				return err
			}
			actions = append(actions, text)
		}
		action = strings.Join(actions, "; ")
	}

	s.Add(&schema.Rule{
		Name:      stmt.Rulename,
		TableName: stmt.Relation.Relname,
		Event:     event,
		Instead:   stmt.Instead,
		Action:    action,
	})
	return nil
}

func foldCreatePublication(s *schema.Schema, stmt *pgquery.CreatePublicationStmt) error {
	publication := &schema.Publication{
		Name:      stmt.Pubname,
		AllTables: stmt.ForAllTables,
	}
	for _, tableNode := range stmt.Tables {
		if rangeVar, ok := tableNode.Node.(*pgquery.Node_RangeVar); ok {
			publication.Tables = append(publication.Tables, rangeVar.RangeVar.Relname)
		}
	}
	s.Add(publication)
	return nil
}

func foldCreateSubscription(s *schema.Schema, stmt *pgquery.CreateSubscriptionStmt) error {
	s.Add(&schema.Subscription{
		Name:         stmt.Subname,
		Connection:   stmt.Conninfo,
		Publications: stringList(stmt.Publication),
	})
	return nil
}

func foldCreateEventTrigger(s *schema.Schema, stmt *pgquery.CreateEventTrigStmt) error {
	s.Add(&schema.EventTrigger{
		Name:     stmt.Trigname,
		Event:    stmt.Eventname,
		Function: lastString(stmt.Funcname),
	})
	return nil
}

// foldDefineStmt handles the CREATE commands the parser expresses as generic
// definitions. Only collations are modeled; anything else is unsupported.
func foldDefineStmt(s *schema.Schema, stmt *pgquery.DefineStmt) error {
	if stmt.Kind != pgquery.ObjectType_OBJECT_COLLATION {
		return fmt.Errorf("unsupported object kind in foldDefineStmt: %v", stmt.Kind)
	}
	name, schemaName := splitQualifiedName(stmt.Defnames)
	collation := &schema.Collation{Name: name, SchemaName: schemaName}
	for _, defNode := range stmt.Definition {
		defElem, ok := defNode.Node.(*pgquery.Node_DefElem)
		if !ok {
			continue
		}
		switch defElem.DefElem.Defname {
		case "locale", "lc_collate":
			collation.Locale, _ = stringArg(defElem.DefElem.Arg)
		case "provider":
			collation.Provider, _ = stringArg(defElem.DefElem.Arg)
		}
	}
	s.Add(collation)
	return nil
}

// foldAlterTable folds ALTER TABLE ... ADD CONSTRAINT into either a table
// constraint or, for foreign keys, a standalone object so creation can be
// ordered after both endpoint tables.
func foldAlterTable(s *schema.Schema, stmt *pgquery.AlterTableStmt) error {
	tableName := stmt.Relation.Relname
	for _, cmdNode := range stmt.Cmds {
		cmd, ok := cmdNode.Node.(*pgquery.Node_AlterTableCmd)
		if !ok {
			return fmt.Errorf("unknown node in foldAlterTable: %#v", cmdNode.Node)
		}
		if cmd.AlterTableCmd.Subtype != pgquery.AlterTableType_AT_AddConstraint {
			return fmt.Errorf("unsupported ALTER TABLE subtype in foldAlterTable: %v", cmd.AlterTableCmd.Subtype)
		}
		constraintNode, ok := cmd.AlterTableCmd.Def.Node.(*pgquery.Node_Constraint)
		if !ok {
			return fmt.Errorf("unknown node in foldAlterTable: %#v", cmd.AlterTableCmd.Def.Node)
		}
		c := constraintNode.Constraint

		if c.Contype == pgquery.ConstrType_CONSTR_FOREIGN {
			fk, err := parseForeignKey(c)
			if err != nil {
				return err
			}
			name := fk.Name
			if name == "" {
				name = util.BuildPostgresConstraintName(tableName, strings.Join(fk.Columns, "_"), "fkey")
			}
			s.Add(&schema.ForeignKeyConstraint{
				Name:              name,
				TableName:         tableName,
				Columns:           fk.Columns,
				ReferencedTable:   fk.ReferencedTable,
				ReferencedColumns: fk.ReferencedColumns,
				OnDelete:          fk.OnDelete,
				OnUpdate:          fk.OnUpdate,
			})
			continue
		}

		table, exists := s.Tables[tableName]
		if !exists {
			return fmt.Errorf("unknown table %q in foldAlterTable", tableName)
		}
		constraint, err := parseTableConstraint(c)
		if err != nil {
			return err
		}
		table.Constraints = append(table.Constraints, *constraint)
	}
	return nil
}

func foldComment(s *schema.Schema, stmt *pgquery.CommentStmt) error {
	switch stmt.Objtype {
	case pgquery.ObjectType_OBJECT_TABLE:
		name := lastString(objectNames(stmt.Object))
		if table, ok := s.Tables[name]; ok {
			table.Comment = stmt.Comment
		}
	case pgquery.ObjectType_OBJECT_COLUMN:
		names := listStrings(stmt.Object)
		if len(names) >= 2 {
			tableName := names[len(names)-2]
			columnName := names[len(names)-1]
			if table, ok := s.Tables[tableName]; ok {
				if column := table.FindColumn(columnName); column != nil {
					column.Comment = stmt.Comment
				}
			}
		}
	case pgquery.ObjectType_OBJECT_VIEW:
		name := lastString(objectNames(stmt.Object))
		if view, ok := s.Views[name]; ok {
			view.Comment = stmt.Comment
		}
	case pgquery.ObjectType_OBJECT_MATVIEW:
		name := lastString(objectNames(stmt.Object))
		if matview, ok := s.MaterializedViews[name]; ok {
			matview.Comment = stmt.Comment
		}
	case pgquery.ObjectType_OBJECT_SEQUENCE:
		name := lastString(objectNames(stmt.Object))
		if sequence, ok := s.Sequences[name]; ok {
			sequence.Comment = stmt.Comment
		}
	case pgquery.ObjectType_OBJECT_TYPE:
		name := lastString(objectNames(stmt.Object))
		if enum, ok := s.Enums[name]; ok {
			enum.Comment = stmt.Comment
		} else if composite, ok := s.CompositeTypes[name]; ok {
			composite.Comment = stmt.Comment
		}
	case pgquery.ObjectType_OBJECT_SCHEMA:
		name := lastString(objectNames(stmt.Object))
		if namedSchema, ok := s.Schemas[name]; ok {
			namedSchema.Comment = stmt.Comment
		}
	case pgquery.ObjectType_OBJECT_EXTENSION:
		name := lastString(objectNames(stmt.Object))
		if extension, ok := s.Extensions[name]; ok {
			extension.Comment = stmt.Comment
		}
	default:
		// Comments on unmodeled object kinds are dropped rather than failing
		// the whole fold.
	}
	return nil
}

// objectNames extracts the name parts from a CommentStmt object node, which
// is either a bare string, a qualified-name list or a TypeName.
func objectNames(node *pgquery.Node) []*pgquery.Node {
	switch n := node.Node.(type) {
	case *pgquery.Node_List:
		return n.List.Items
	case *pgquery.Node_TypeName:
		return n.TypeName.Names
	case *pgquery.Node_String_:
		return []*pgquery.Node{node}
	default:
		return nil
	}
}

func listStrings(node *pgquery.Node) []string {
	return stringList(objectNames(node))
}
