package parser

import (
	"fmt"
	"strconv"
	"strings"

	pgquery "github.com/pganalyze/pg_query_go/v2"
)

// deparseStmt renders a single statement node back to SQL text.
func deparseStmt(node *pgquery.Node) (string, error) {
	result := &pgquery.ParseResult{
		Stmts: []*pgquery.RawStmt{{Stmt: node}},
	}
	return pgquery.Deparse(result)
}

// deparseExpr renders a bare expression node to SQL text. The deparser only
// accepts whole statements, so the expression is wrapped in a synthetic
// single-target SELECT and the keyword stripped afterwards.
func deparseExpr(node *pgquery.Node) (string, error) {
	target := &pgquery.Node{Node: &pgquery.Node_ResTarget{
		ResTarget: &pgquery.ResTarget{Val: node},
	}}
	selectStmt := &pgquery.Node{Node: &pgquery.Node_SelectStmt{
		SelectStmt: &pgquery.SelectStmt{TargetList: []*pgquery.Node{target}},
	}}
	sql, err := deparseStmt(selectStmt)
	if err != nil {
		return "", err
	}
	return strings.TrimPrefix(sql, "SELECT "), nil
}

// typeAliases maps the pg_catalog internal names the parser produces to the
// spellings used in declarative SQL.
var typeAliases = map[string]string{
	"bool":        "boolean",
	"bpchar":      "character",
	"float4":      "real",
	"float8":      "double precision",
	"int2":        "smallint",
	"int4":        "integer",
	"int8":        "bigint",
	"timestamptz": "timestamp with time zone",
	"timetz":      "time with time zone",
	"varchar":     "character varying",
}

// parseTypeName renders a parse-tree type reference as the text the generator
// will emit, resolving pg_catalog aliases and keeping array bounds and type
// modifiers.
func parseTypeName(typeName *pgquery.TypeName) (string, error) {
	if typeName == nil {
		return "", fmt.Errorf("missing type name in parseTypeName")
	}

	names := stringList(typeName.Names)
	if len(names) == 0 {
		return "", fmt.Errorf("empty type name in parseTypeName")
	}

	name := names[len(names)-1]
	if names[0] == "pg_catalog" {
		if alias, ok := typeAliases[name]; ok {
			name = alias
		}
	} else if len(names) > 1 && names[0] != "public" {
		name = names[0] + "." + name
	}

	if len(typeName.Typmods) > 0 {
		var mods []string
		for _, mod := range typeName.Typmods {
			constant, ok := mod.Node.(*pgquery.Node_AConst)
			if !ok {
				return "", fmt.Errorf("unknown node in parseTypeName typmod: %#v", mod.Node)
			}
			integer, ok := constant.AConst.Val.Node.(*pgquery.Node_Integer)
			if !ok {
				return "", fmt.Errorf("unknown node in parseTypeName typmod: %#v", constant.AConst.Val.Node)
			}
			mods = append(mods, strconv.FormatInt(int64(integer.Integer.Ival), 10))
		}
		name += "(" + strings.Join(mods, ",") + ")"
	}

	for range typeName.ArrayBounds {
		name += "[]"
	}
	if typeName.Setof {
		name = "SETOF " + name
	}
	return name, nil
}

// stringList extracts the values of a list of string nodes, skipping anything
// else.
func stringList(nodes []*pgquery.Node) []string {
	var values []string
	for _, node := range nodes {
		if str, ok := node.Node.(*pgquery.Node_String_); ok {
			values = append(values, str.String_.Str)
		}
	}
	return values
}

func lastString(nodes []*pgquery.Node) string {
	values := stringList(nodes)
	if len(values) == 0 {
		return ""
	}
	return values[len(values)-1]
}

// splitQualifiedName splits a qualified-name node list into the object name
// and its schema. The default schema stays implicit.
func splitQualifiedName(nodes []*pgquery.Node) (name, schemaName string) {
	values := stringList(nodes)
	if len(values) == 0 {
		return "", ""
	}
	name = values[len(values)-1]
	if len(values) > 1 && values[len(values)-2] != "public" {
		schemaName = values[len(values)-2]
	}
	return name, schemaName
}

func schemaNameOf(rangeVar *pgquery.RangeVar) string {
	if rangeVar.Schemaname == "public" {
		return ""
	}
	return rangeVar.Schemaname
}

// stringArg reads a DefElem argument that should be a string.
func stringArg(arg *pgquery.Node) (string, bool) {
	if arg == nil {
		return "", false
	}
	if str, ok := arg.Node.(*pgquery.Node_String_); ok {
		return str.String_.Str, true
	}
	return "", false
}

// intArg reads a DefElem argument that should be an integer. Values beyond
// int32 come through as float nodes.
func intArg(arg *pgquery.Node) int64 {
	if arg == nil {
		return 0
	}
	switch n := arg.Node.(type) {
	case *pgquery.Node_Integer:
		return int64(n.Integer.Ival)
	case *pgquery.Node_Float:
		value, err := strconv.ParseInt(n.Float.Str, 10, 64)
		if err != nil {
			return 0
		}
		return value
	default:
		return 0
	}
}

// boolArg reads a DefElem argument used as a flag. A missing argument means
// the bare option was given, which enables it.
func boolArg(arg *pgquery.Node) bool {
	if arg == nil {
		return true
	}
	switch n := arg.Node.(type) {
	case *pgquery.Node_Integer:
		return n.Integer.Ival != 0
	case *pgquery.Node_String_:
		return n.String_.Str == "true" || n.String_.Str == "on"
	default:
		return false
	}
}
