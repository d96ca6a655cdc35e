// Package schema holds the object model for a PostgreSQL schema snapshot and
// the planning components operating on it: the creation-order resolver, the
// snapshot differ and the DDL generator.
package schema

import "fmt"

// ObjectKind enumerates every schema-object category the planner understands.
type ObjectKind int

const (
	KindNamedSchema ObjectKind = iota
	KindExtension
	KindRole
	KindTablespace
	KindServer
	KindBaseType
	KindEnum
	KindDomain
	KindCompositeType
	KindRangeType
	KindArrayType
	KindMultirangeType
	KindCollation
	KindSequence
	KindTable
	KindForeignKeyConstraint
	KindView
	KindMaterializedView
	KindPublication
	KindSubscription
	KindPolicy
	KindRule
	KindFunction
	KindProcedure
	KindEventTrigger
	KindTrigger
	KindConstraintTrigger
)

var objectKindNames = map[ObjectKind]string{
	KindNamedSchema:          "schema",
	KindExtension:            "extension",
	KindRole:                 "role",
	KindTablespace:           "tablespace",
	KindServer:               "server",
	KindBaseType:             "type",
	KindEnum:                 "enum type",
	KindDomain:               "domain",
	KindCompositeType:        "composite type",
	KindRangeType:            "range type",
	KindArrayType:            "array type",
	KindMultirangeType:       "multirange type",
	KindCollation:            "collation",
	KindSequence:             "sequence",
	KindTable:                "table",
	KindForeignKeyConstraint: "foreign key constraint",
	KindView:                 "view",
	KindMaterializedView:     "materialized view",
	KindPublication:          "publication",
	KindSubscription:         "subscription",
	KindPolicy:               "policy",
	KindRule:                 "rule",
	KindFunction:             "function",
	KindProcedure:            "procedure",
	KindEventTrigger:         "event trigger",
	KindTrigger:              "trigger",
	KindConstraintTrigger:    "constraint trigger",
}

func (k ObjectKind) String() string {
	if name, ok := objectKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ObjectKind(%d)", int(k))
}

// Object is implemented by every schema-object value. ObjectName returns the
// unqualified name used as the map key within the object's kind.
type Object interface {
	ObjectKind() ObjectKind
	ObjectName() string
}

type NamedSchema struct {
	Name    string
	Owner   string
	Comment string
}

type Extension struct {
	Name       string
	SchemaName string
	Version    string
	Comment    string
}

type Role struct {
	Name       string
	Login      bool
	Superuser  bool
	CreateDB   bool
	CreateRole bool
	Comment    string
}

type Tablespace struct {
	Name     string
	Owner    string
	Location string
	Comment  string
}

type Server struct {
	Name    string
	Wrapper string
	Options map[string]string
	Comment string
}

// BaseType is a shell or low-level type created with CREATE TYPE name (...).
// Enum, composite and range types are separate kinds.
type BaseType struct {
	Name           string
	SchemaName     string
	InputFunction  string
	OutputFunction string
	Comment        string
}

type EnumType struct {
	Name       string
	SchemaName string
	Values     []string
	Comment    string
}

type Domain struct {
	Name             string
	SchemaName       string
	TypeName         string
	NotNull          bool
	Default          string
	CheckConstraints []string
	Comment          string
}

type CompositeType struct {
	Name       string
	SchemaName string
	Fields     []CompositeField
	Comment    string
}

type CompositeField struct {
	Name     string
	TypeName string
}

type RangeType struct {
	Name       string
	SchemaName string
	Subtype    string
	Collation  string
	Canonical  string
	Comment    string
}

// ArrayType and MultirangeType only ever come from introspection; PostgreSQL
// creates both implicitly alongside their element/range type.
type ArrayType struct {
	Name        string
	SchemaName  string
	ElementType string
	Comment     string
}

type MultirangeType struct {
	Name       string
	SchemaName string
	RangeType  string
	Comment    string
}

type Collation struct {
	Name       string
	SchemaName string
	Locale     string
	Provider   string
	Comment    string
}

type Sequence struct {
	Name       string
	SchemaName string
	DataType   string
	Start      int64
	Increment  int64
	MinValue   *int64
	MaxValue   *int64
	Cache      int64
	Cycle      bool
	OwnedBy    string // "table.column", empty when not owned
	Comment    string
}

type Table struct {
	Name              string
	SchemaName        string
	Columns           []Column
	Constraints       []Constraint
	Indexes           []Index
	Inherits          []string
	PartitionBy       string
	StorageParameters map[string]string
	Comment           string
}

type Column struct {
	Name      string
	TypeName  string
	Nullable  bool
	Default   string
	Identity  string // "", "ALWAYS" or "BY DEFAULT"
	Generated string // generation expression, empty when not generated
	Collation string
	Comment   string
}

type ConstraintType string

const (
	ConstraintPrimaryKey ConstraintType = "PRIMARY KEY"
	ConstraintForeignKey ConstraintType = "FOREIGN KEY"
	ConstraintUnique     ConstraintType = "UNIQUE"
	ConstraintCheck      ConstraintType = "CHECK"
	ConstraintExclude    ConstraintType = "EXCLUDE"
)

type Constraint struct {
	Name              string
	Type              ConstraintType
	Columns           []string
	CheckExpression   string
	ReferencedTable   string
	ReferencedColumns []string
	OnDelete          string
	OnUpdate          string
	Deferrable        bool
	InitiallyDeferred bool
	// Definition holds raw constraint text when the source retained it, e.g.
	// "FOREIGN KEY (user_id) REFERENCES users (id)". The resolver scans it
	// for REFERENCES when the structured fields are absent.
	Definition string
}

type Index struct {
	Name    string
	Columns []string
	Unique  bool
	Method  string
	Where   string
	Comment string
}

// ForeignKeyConstraint is a standalone foreign key added outside the owning
// table's definition (ALTER TABLE ... ADD CONSTRAINT). It gets its own bucket
// after tables so both endpoints exist when it is created.
type ForeignKeyConstraint struct {
	Name              string
	TableName         string
	Columns           []string
	ReferencedTable   string
	ReferencedColumns []string
	OnDelete          string
	OnUpdate          string
}

type View struct {
	Name       string
	SchemaName string
	Definition string
	Comment    string
}

type MaterializedView struct {
	Name       string
	SchemaName string
	Definition string
	Indexes    []Index
	WithData   bool
	Comment    string
}

type Publication struct {
	Name      string
	AllTables bool
	Tables    []string
	Comment   string
}

type Subscription struct {
	Name         string
	Connection   string
	Publications []string
	Comment      string
}

type Policy struct {
	Name       string
	TableName  string
	Command    string // "", ALL, SELECT, INSERT, UPDATE, DELETE
	Permissive bool
	Roles      []string
	Using      string
	WithCheck  string
	Comment    string
}

type Rule struct {
	Name      string
	TableName string
	Event     string
	Instead   bool
	Action    string
	Comment   string
}

type FunctionArg struct {
	Name     string
	TypeName string
	Mode     string // "", IN, OUT, INOUT, VARIADIC
	Default  string
}

type Function struct {
	Name       string
	SchemaName string
	Arguments  []FunctionArg
	Returns    string
	Language   string
	Body       string
	Volatility string
	Comment    string
}

type Procedure struct {
	Name       string
	SchemaName string
	Arguments  []FunctionArg
	Language   string
	Body       string
	Comment    string
}

type EventTrigger struct {
	Name     string
	Event    string
	Tags     []string
	Function string
	Comment  string
}

type Trigger struct {
	Name      string
	TableName string
	Timing    string // BEFORE, AFTER, INSTEAD OF
	Events    []string
	ForEach   string // ROW or STATEMENT
	When      string
	Function  string
	Arguments []string
	Comment   string
}

type ConstraintTrigger struct {
	Name              string
	TableName         string
	Timing            string
	Events            []string
	Deferrable        bool
	InitiallyDeferred bool
	Function          string
	Comment           string
}

func (o *NamedSchema) ObjectKind() ObjectKind          { return KindNamedSchema }
func (o *NamedSchema) ObjectName() string              { return o.Name }
func (o *Extension) ObjectKind() ObjectKind            { return KindExtension }
func (o *Extension) ObjectName() string                { return o.Name }
func (o *Role) ObjectKind() ObjectKind                 { return KindRole }
func (o *Role) ObjectName() string                     { return o.Name }
func (o *Tablespace) ObjectKind() ObjectKind           { return KindTablespace }
func (o *Tablespace) ObjectName() string               { return o.Name }
func (o *Server) ObjectKind() ObjectKind               { return KindServer }
func (o *Server) ObjectName() string                   { return o.Name }
func (o *BaseType) ObjectKind() ObjectKind             { return KindBaseType }
func (o *BaseType) ObjectName() string                 { return o.Name }
func (o *EnumType) ObjectKind() ObjectKind             { return KindEnum }
func (o *EnumType) ObjectName() string                 { return o.Name }
func (o *Domain) ObjectKind() ObjectKind               { return KindDomain }
func (o *Domain) ObjectName() string                   { return o.Name }
func (o *CompositeType) ObjectKind() ObjectKind        { return KindCompositeType }
func (o *CompositeType) ObjectName() string            { return o.Name }
func (o *RangeType) ObjectKind() ObjectKind            { return KindRangeType }
func (o *RangeType) ObjectName() string                { return o.Name }
func (o *ArrayType) ObjectKind() ObjectKind            { return KindArrayType }
func (o *ArrayType) ObjectName() string                { return o.Name }
func (o *MultirangeType) ObjectKind() ObjectKind       { return KindMultirangeType }
func (o *MultirangeType) ObjectName() string           { return o.Name }
func (o *Collation) ObjectKind() ObjectKind            { return KindCollation }
func (o *Collation) ObjectName() string                { return o.Name }
func (o *Sequence) ObjectKind() ObjectKind             { return KindSequence }
func (o *Sequence) ObjectName() string                 { return o.Name }
func (o *Table) ObjectKind() ObjectKind                { return KindTable }
func (o *Table) ObjectName() string                    { return o.Name }
func (o *ForeignKeyConstraint) ObjectKind() ObjectKind { return KindForeignKeyConstraint }
func (o *ForeignKeyConstraint) ObjectName() string     { return o.Name }
func (o *View) ObjectKind() ObjectKind                 { return KindView }
func (o *View) ObjectName() string                     { return o.Name }
func (o *MaterializedView) ObjectKind() ObjectKind     { return KindMaterializedView }
func (o *MaterializedView) ObjectName() string         { return o.Name }
func (o *Publication) ObjectKind() ObjectKind          { return KindPublication }
func (o *Publication) ObjectName() string              { return o.Name }
func (o *Subscription) ObjectKind() ObjectKind         { return KindSubscription }
func (o *Subscription) ObjectName() string             { return o.Name }
func (o *Policy) ObjectKind() ObjectKind               { return KindPolicy }
func (o *Policy) ObjectName() string                   { return o.Name }
func (o *Rule) ObjectKind() ObjectKind                 { return KindRule }
func (o *Rule) ObjectName() string                     { return o.Name }
func (o *Function) ObjectKind() ObjectKind             { return KindFunction }
func (o *Function) ObjectName() string                 { return o.Name }
func (o *Procedure) ObjectKind() ObjectKind            { return KindProcedure }
func (o *Procedure) ObjectName() string                { return o.Name }
func (o *EventTrigger) ObjectKind() ObjectKind         { return KindEventTrigger }
func (o *EventTrigger) ObjectName() string             { return o.Name }
func (o *Trigger) ObjectKind() ObjectKind              { return KindTrigger }
func (o *Trigger) ObjectName() string                  { return o.Name }
func (o *ConstraintTrigger) ObjectKind() ObjectKind    { return KindConstraintTrigger }
func (o *ConstraintTrigger) ObjectName() string        { return o.Name }

// Schema is an immutable snapshot of every object in a database. Each kind
// has its own map keyed by unqualified object name; the optional SchemaName
// on an object qualifies generated SQL but is not part of the key, so two
// same-kind, same-name objects in different named schemas collide. Collisions
// are recorded rather than rejected and surfaced by Validate.
type Schema struct {
	Schemas            map[string]*NamedSchema
	Extensions         map[string]*Extension
	Roles              map[string]*Role
	Tablespaces        map[string]*Tablespace
	Servers            map[string]*Server
	BaseTypes          map[string]*BaseType
	Enums              map[string]*EnumType
	Domains            map[string]*Domain
	CompositeTypes     map[string]*CompositeType
	RangeTypes         map[string]*RangeType
	ArrayTypes         map[string]*ArrayType
	MultirangeTypes    map[string]*MultirangeType
	Collations         map[string]*Collation
	Sequences          map[string]*Sequence
	Tables             map[string]*Table
	ForeignKeys        map[string]*ForeignKeyConstraint
	Views              map[string]*View
	MaterializedViews  map[string]*MaterializedView
	Publications       map[string]*Publication
	Subscriptions      map[string]*Subscription
	Policies           map[string]*Policy
	Rules              map[string]*Rule
	Functions          map[string]*Function
	Procedures         map[string]*Procedure
	EventTriggers      map[string]*EventTrigger
	Triggers           map[string]*Trigger
	ConstraintTriggers map[string]*ConstraintTrigger

	collisions []string
}

func NewSchema() *Schema {
	return &Schema{
		Schemas:            map[string]*NamedSchema{},
		Extensions:         map[string]*Extension{},
		Roles:              map[string]*Role{},
		Tablespaces:        map[string]*Tablespace{},
		Servers:            map[string]*Server{},
		BaseTypes:          map[string]*BaseType{},
		Enums:              map[string]*EnumType{},
		Domains:            map[string]*Domain{},
		CompositeTypes:     map[string]*CompositeType{},
		RangeTypes:         map[string]*RangeType{},
		ArrayTypes:         map[string]*ArrayType{},
		MultirangeTypes:    map[string]*MultirangeType{},
		Collations:         map[string]*Collation{},
		Sequences:          map[string]*Sequence{},
		Tables:             map[string]*Table{},
		ForeignKeys:        map[string]*ForeignKeyConstraint{},
		Views:              map[string]*View{},
		MaterializedViews:  map[string]*MaterializedView{},
		Publications:       map[string]*Publication{},
		Subscriptions:      map[string]*Subscription{},
		Policies:           map[string]*Policy{},
		Rules:              map[string]*Rule{},
		Functions:          map[string]*Function{},
		Procedures:         map[string]*Procedure{},
		EventTriggers:      map[string]*EventTrigger{},
		Triggers:           map[string]*Trigger{},
		ConstraintTriggers: map[string]*ConstraintTrigger{},
	}
}

// Add folds one object into the snapshot. A second object of the same kind
// and name overwrites the first and records a collision for Validate.
func (s *Schema) Add(obj Object) {
	name := obj.ObjectName()
	switch o := obj.(type) {
	case *NamedSchema:
		addObject(s, s.Schemas, name, o)
	case *Extension:
		addObject(s, s.Extensions, name, o)
	case *Role:
		addObject(s, s.Roles, name, o)
	case *Tablespace:
		addObject(s, s.Tablespaces, name, o)
	case *Server:
		addObject(s, s.Servers, name, o)
	case *BaseType:
		addObject(s, s.BaseTypes, name, o)
	case *EnumType:
		addObject(s, s.Enums, name, o)
	case *Domain:
		addObject(s, s.Domains, name, o)
	case *CompositeType:
		addObject(s, s.CompositeTypes, name, o)
	case *RangeType:
		addObject(s, s.RangeTypes, name, o)
	case *ArrayType:
		addObject(s, s.ArrayTypes, name, o)
	case *MultirangeType:
		addObject(s, s.MultirangeTypes, name, o)
	case *Collation:
		addObject(s, s.Collations, name, o)
	case *Sequence:
		addObject(s, s.Sequences, name, o)
	case *Table:
		addObject(s, s.Tables, name, o)
	case *ForeignKeyConstraint:
		addObject(s, s.ForeignKeys, name, o)
	case *View:
		addObject(s, s.Views, name, o)
	case *MaterializedView:
		addObject(s, s.MaterializedViews, name, o)
	case *Publication:
		addObject(s, s.Publications, name, o)
	case *Subscription:
		addObject(s, s.Subscriptions, name, o)
	case *Policy:
		addObject(s, s.Policies, name, o)
	case *Rule:
		addObject(s, s.Rules, name, o)
	case *Function:
		addObject(s, s.Functions, name, o)
	case *Procedure:
		addObject(s, s.Procedures, name, o)
	case *EventTrigger:
		addObject(s, s.EventTriggers, name, o)
	case *Trigger:
		addObject(s, s.Triggers, name, o)
	case *ConstraintTrigger:
		addObject(s, s.ConstraintTriggers, name, o)
	default:
		panic(fmt.Sprintf("unexpected object type in Schema.Add: %#v", obj))
	}
}

func addObject[T Object](s *Schema, m map[string]T, name string, obj T) {
	if _, ok := m[name]; ok {
		s.collisions = append(s.collisions, fmt.Sprintf("duplicate %s %q", obj.ObjectKind(), name))
	}
	m[name] = obj
}

// FindColumn returns the column with the given name, or nil.
func (t *Table) FindColumn(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// FindConstraint returns the constraint with the given name, or nil.
func (t *Table) FindConstraint(name string) *Constraint {
	for i := range t.Constraints {
		if t.Constraints[i].Name == name {
			return &t.Constraints[i]
		}
	}
	return nil
}

// FindIndex returns the index with the given name, or nil.
func (t *Table) FindIndex(name string) *Index {
	for i := range t.Indexes {
		if t.Indexes[i].Name == name {
			return &t.Indexes[i]
		}
	}
	return nil
}
