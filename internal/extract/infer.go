package extract

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/dusk-indust/storeresolve/internal/store"
)

// record infers the shape of an object literal. Each field's source is the
// location of its key.
func (x *extraction) record(obj *tree_sitter.Node, depth int) *store.Record {
	var fields []*store.FieldSignature
	for i := uint(0); i < obj.NamedChildCount(); i++ {
		c := obj.NamedChild(i)
		if c == nil {
			continue
		}
		switch c.Kind() {
		case "pair":
			keyNode := c.ChildByFieldName("key")
			name := x.propertyKey(keyNode)
			if name == "" {
				continue
			}
			fields = append(fields, &store.FieldSignature{
				Name:    name,
				Type:    x.infer(c.ChildByFieldName("value"), depth+1),
				Sources: []store.Location{x.loc.at(keyNode)},
			})

		case "shorthand_property_identifier":
			fields = append(fields, &store.FieldSignature{
				Name:    x.text(c),
				Type:    x.infer(c, depth+1),
				Sources: []store.Location{x.loc.at(c)},
			})

		case "method_definition":
			nameNode := c.ChildByFieldName("name")
			name := x.propertyKey(nameNode)
			if name == "" {
				continue
			}
			fields = append(fields, &store.FieldSignature{
				Name:    name,
				Type:    store.TypeFunction,
				Sources: []store.Location{x.loc.at(nameNode)},
			})

		case "spread_element":
			if c.NamedChildCount() == 0 || depth > maxDepth {
				continue
			}
			if spread := x.resolveObject(c.NamedChild(0), depth+1); spread != nil {
				fields = append(fields, x.record(spread, depth+1).Fields...)
			}
		}
	}
	return store.NewRecord(fields...)
}

// infer derives a structural type for an expression. Unknown expressions are
// typed any.
func (x *extraction) infer(value *tree_sitter.Node, depth int) store.Type {
	v := unwrap(value)
	if v == nil || depth > maxDepth {
		return store.TypeAny
	}

	switch v.Kind() {
	case "object":
		return x.record(v, depth+1)
	case "array":
		elem := store.Type(store.TypeAny)
		for i := uint(0); i < v.NamedChildCount(); i++ {
			if c := v.NamedChild(i); c != nil && c.Kind() != "comment" {
				elem = x.infer(c, depth+1)
				break
			}
		}
		return &store.Array{Elem: elem}
	case "string", "template_string":
		return store.TypeString
	case "number":
		return store.TypeNumber
	case "true", "false":
		return store.TypeBoolean
	case "null":
		return store.TypeNull
	case "undefined":
		return store.TypeUndefined
	case "arrow_function", "function", "function_expression", "generator_function":
		return store.TypeFunction
	case "new_expression":
		if ctor := v.ChildByFieldName("constructor"); ctor != nil {
			return store.Primitive{Name: x.text(ctor)}
		}
	case "unary_expression":
		if op := v.ChildByFieldName("operator"); op != nil {
			switch x.text(op) {
			case "!":
				return store.TypeBoolean
			case "-", "+", "~":
				return store.TypeNumber
			case "typeof":
				return store.TypeString
			}
		}
	case "identifier", "shorthand_property_identifier":
		name := x.text(v)
		if name == "undefined" {
			return store.TypeUndefined
		}
		if init, ok := x.consts[name]; ok {
			return x.infer(init, depth+1)
		}
	}
	return store.TypeAny
}
