package schema

import "fmt"

// SchemaError reports a structural or semantic problem with a snapshot,
// principally duplicate object names within one kind.
type SchemaError struct {
	msg string
}

func (e *SchemaError) Error() string {
	return e.msg
}

func schemaErrorf(format string, args ...any) *SchemaError {
	return &SchemaError{msg: fmt.Sprintf(format, args...)}
}

// GenerationError reports a generator-level failure: the input object cannot
// be rendered as syntactically valid SQL. The generator raises this instead
// of emitting broken statements.
type GenerationError struct {
	msg string
}

func (e *GenerationError) Error() string {
	return e.msg
}

func generationErrorf(format string, args ...any) *GenerationError {
	return &GenerationError{msg: fmt.Sprintf(format, args...)}
}
