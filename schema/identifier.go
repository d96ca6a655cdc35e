package schema

import "strings"

// reservedKeywords is the fixed set of identifiers that always need quoting,
// taken from the PostgreSQL reserved keyword list. Matching is
// case-insensitive.
var reservedKeywords = map[string]bool{
	"all": true, "analyse": true, "analyze": true, "and": true, "any": true,
	"array": true, "as": true, "asc": true, "asymmetric": true, "both": true,
	"case": true, "cast": true, "check": true, "collate": true, "column": true,
	"constraint": true, "create": true, "current_catalog": true,
	"current_date": true, "current_role": true, "current_time": true,
	"current_timestamp": true, "current_user": true, "default": true,
	"deferrable": true, "desc": true, "distinct": true, "do": true,
	"else": true, "end": true, "except": true, "false": true, "fetch": true,
	"for": true, "foreign": true, "from": true, "grant": true, "group": true,
	"having": true, "in": true, "initially": true, "intersect": true,
	"into": true, "lateral": true, "leading": true, "limit": true,
	"localtime": true, "localtimestamp": true, "not": true, "null": true,
	"offset": true, "on": true, "only": true, "or": true, "order": true,
	"placing": true, "primary": true, "references": true, "returning": true,
	"select": true, "session_user": true, "some": true, "symmetric": true,
	"table": true, "then": true, "to": true, "trailing": true, "true": true,
	"union": true, "unique": true, "user": true, "using": true,
	"variadic": true, "when": true, "where": true, "window": true, "with": true,
}

// QuoteIdent wraps an identifier in double quotes when it contains characters
// outside [A-Za-z0-9_], starts with a digit, or matches a reserved keyword
// case-insensitively. Embedded double quotes are doubled. Plain snake_case
// identifiers pass through unchanged so generated SQL stays readable.
func QuoteIdent(name string) string {
	if needsQuoting(name) {
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	}
	return name
}

func needsQuoting(name string) bool {
	if name == "" {
		return true
	}
	if name[0] >= '0' && name[0] <= '9' {
		return true
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' {
			continue
		}
		return true
	}
	return reservedKeywords[strings.ToLower(name)]
}

// qualifiedName renders schema.name with each part quoted independently.
// An empty schema yields the bare object name.
func qualifiedName(schemaName, name string) string {
	if schemaName == "" {
		return QuoteIdent(name)
	}
	return QuoteIdent(schemaName) + "." + QuoteIdent(name)
}

// StringConstant renders a SQL string literal with embedded single quotes
// doubled.
func StringConstant(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
