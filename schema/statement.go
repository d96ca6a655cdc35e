package schema

// Statement is one entry in a migration's up or down list. Executable
// statements carry SQL; warnings carry advisory text that renders as a SQL
// comment and must never be executed.
type Statement interface {
	String() string
	Executable() bool
}

// DDL is an executable SQL statement, including its trailing semicolon.
type DDL string

func (d DDL) String() string {
	return string(d)
}

func (d DDL) Executable() bool {
	return true
}

// Warning is a non-executable advisory emitted where the backend cannot
// express an operation, e.g. removing an enum label.
type Warning string

func (w Warning) String() string {
	return "-- WARNING: " + string(w)
}

func (w Warning) Executable() bool {
	return false
}
