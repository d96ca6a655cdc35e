package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuoteIdentPlain(t *testing.T) {
	assert.Equal(t, "users", QuoteIdent("users"))
	assert.Equal(t, "created_at", QuoteIdent("created_at"))
	assert.Equal(t, "v2", QuoteIdent("v2"))
}

func TestQuoteIdentReservedKeyword(t *testing.T) {
	assert.Equal(t, `"user"`, QuoteIdent("user"))
	assert.Equal(t, `"order"`, QuoteIdent("order"))
	assert.Equal(t, `"Select"`, QuoteIdent("Select"))
}

func TestQuoteIdentSpecialCharacters(t *testing.T) {
	assert.Equal(t, `"2fast"`, QuoteIdent("2fast"))
	assert.Equal(t, `"weird name"`, QuoteIdent("weird name"))
	assert.Equal(t, `"quo""ted"`, QuoteIdent(`quo"ted`))
	assert.Equal(t, `""`, QuoteIdent(""))
}

func TestStringConstantSimple(t *testing.T) {
	assert.Equal(t, "''", StringConstant(""))
	assert.Equal(t, "'hello world'", StringConstant("hello world"))
}

func TestStringConstantContainingSingleQuote(t *testing.T) {
	assert.Equal(t, "'it''s here'", StringConstant("it's here"))
	assert.Equal(t, "''''", StringConstant("'"))
}
