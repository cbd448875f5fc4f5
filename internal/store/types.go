package store

import (
	"sort"
	"strings"
)

// Type is the inferred shape of a state value. It is a closed union of
// Primitive, *Record and *Array.
type Type interface {
	String() string

	// Equivalent reports structural equivalence. Field sources are not
	// part of a type's identity.
	Equivalent(other Type) bool

	// AsRecord returns the structural record view of the type, or nil when
	// the type has no fields to descend into.
	AsRecord() *Record

	isType()
}

// Primitive is a leaf type identified by name ("string", "number", "Date"...).
type Primitive struct {
	Name string
}

// Common primitives produced by inference.
var (
	TypeAny       = Primitive{Name: "any"}
	TypeString    = Primitive{Name: "string"}
	TypeNumber    = Primitive{Name: "number"}
	TypeBoolean   = Primitive{Name: "boolean"}
	TypeNull      = Primitive{Name: "null"}
	TypeUndefined = Primitive{Name: "undefined"}
	TypeFunction  = Primitive{Name: "function"}
)

func (p Primitive) String() string    { return p.Name }
func (p Primitive) AsRecord() *Record { return nil }
func (Primitive) isType()             {}

func (p Primitive) Equivalent(other Type) bool {
	o, ok := other.(Primitive)
	return ok && o.Name == p.Name
}

// FieldSignature is one named field of a record together with every place it
// is declared.
type FieldSignature struct {
	Name    string     `json:"name"`
	Type    Type       `json:"-"`
	Sources []Location `json:"sources"`
}

// Record is an object shape.
type Record struct {
	Fields []*FieldSignature
}

// NewRecord builds a record, merging fields that share a name so that every
// declaration of a repeated key lands in one signature.
func NewRecord(fields ...*FieldSignature) *Record {
	r := &Record{}
	for _, f := range fields {
		if existing := r.FindField(f.Name); existing != nil {
			existing.Sources = append(existing.Sources, f.Sources...)
			existing.Type = f.Type
			continue
		}
		r.Fields = append(r.Fields, f)
	}
	return r
}

// FindField returns the signature for name, or nil.
func (r *Record) FindField(name string) *FieldSignature {
	for _, f := range r.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func (r *Record) AsRecord() *Record { return r }
func (*Record) isType()             {}

func (r *Record) String() string {
	names := make([]string, 0, len(r.Fields))
	for _, f := range r.Fields {
		t := "any"
		if f.Type != nil {
			t = f.Type.String()
		}
		names = append(names, f.Name+": "+t)
	}
	sort.Strings(names)
	return "{" + strings.Join(names, ", ") + "}"
}

func (r *Record) Equivalent(other Type) bool {
	o, ok := other.(*Record)
	if !ok || len(o.Fields) != len(r.Fields) {
		return false
	}
	for _, f := range r.Fields {
		of := o.FindField(f.Name)
		if of == nil || !Equivalent(f.Type, of.Type) {
			return false
		}
	}
	return true
}

// Array is a list of elements of one type.
type Array struct {
	Elem Type
}

func (a *Array) AsRecord() *Record { return nil }
func (*Array) isType()             {}

func (a *Array) String() string {
	if a.Elem == nil {
		return "any[]"
	}
	return a.Elem.String() + "[]"
}

func (a *Array) Equivalent(other Type) bool {
	o, ok := other.(*Array)
	return ok && Equivalent(a.Elem, o.Elem)
}

// Equivalent compares two possibly-nil types. Two nil types are equivalent;
// a nil and a non-nil type are not.
func Equivalent(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equivalent(b)
}
