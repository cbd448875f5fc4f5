package extract

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/dusk-indust/storeresolve/internal/store"
)

// maxDepth bounds identifier chasing and nesting during inference.
const maxDepth = 32

// moduleKeys are the option names that mark an object literal as a store
// module.
var moduleKeys = map[string]bool{
	"state":      true,
	"modules":    true,
	"namespaced": true,
	"getters":    true,
	"mutations":  true,
	"actions":    true,
}

// storeConstructors are the callees whose first argument is a root store
// options object.
var storeConstructors = map[string]bool{
	"Vuex.Store":  true,
	"Store":       true,
	"createStore": true,
}

// extraction holds the state of one pass over one parsed block.
type extraction struct {
	source []byte
	loc    locator
	res    *FileResult

	// consts maps top-level const/let/var names to their initializers.
	consts map[string]*tree_sitter.Node
}

func newExtraction(source []byte, loc locator, res *FileResult) *extraction {
	return &extraction{
		source: source,
		loc:    loc,
		res:    res,
		consts: make(map[string]*tree_sitter.Node),
	}
}

func (x *extraction) run(root *tree_sitter.Node) {
	x.collectTopLevel(root)

	for name, value := range x.consts {
		if obj := unwrap(value); obj != nil && obj.Kind() == "object" && x.isModuleObject(obj) {
			x.res.Locals[name] = x.module(obj, 0)
		}
	}

	cursor := root.Walk()
	defer cursor.Close()
	x.walk(cursor)
}

// collectTopLevel records declarations, imports and the default export.
func (x *extraction) collectTopLevel(root *tree_sitter.Node) {
	var defaultValue *tree_sitter.Node

	for i := uint(0); i < root.NamedChildCount(); i++ {
		stmt := root.NamedChild(i)
		if stmt == nil {
			continue
		}
		switch stmt.Kind() {
		case "lexical_declaration", "variable_declaration":
			x.collectDeclarators(stmt, false)

		case "export_statement":
			if decl := stmt.ChildByFieldName("declaration"); decl != nil {
				switch decl.Kind() {
				case "lexical_declaration", "variable_declaration":
					x.collectDeclarators(decl, true)
				}
				continue
			}
			if isDefaultExport(stmt) {
				defaultValue = stmt.ChildByFieldName("value")
				if defaultValue == nil && stmt.NamedChildCount() > 0 {
					defaultValue = stmt.NamedChild(stmt.NamedChildCount() - 1)
				}
			}

		case "import_statement":
			x.collectImport(stmt)
		}
	}

	if defaultValue != nil {
		if obj := x.resolveObject(defaultValue, 0); obj != nil && x.isModuleObject(obj) {
			x.res.DefaultExport = x.module(obj, 0)
		}
	}
}

func (x *extraction) collectDeclarators(decl *tree_sitter.Node, exported bool) {
	for i := uint(0); i < decl.NamedChildCount(); i++ {
		d := decl.NamedChild(i)
		if d == nil || d.Kind() != "variable_declarator" {
			continue
		}
		nameNode := d.ChildByFieldName("name")
		value := d.ChildByFieldName("value")
		if nameNode == nil || value == nil || nameNode.Kind() != "identifier" {
			continue
		}
		name := x.text(nameNode)
		x.consts[name] = value
		if exported {
			x.res.Exported[name] = true
		}
	}
}

func (x *extraction) collectImport(stmt *tree_sitter.Node) {
	src := stmt.ChildByFieldName("source")
	if src == nil {
		return
	}
	specifier := unquote(x.text(src))
	if specifier == "" {
		return
	}

	for i := uint(0); i < stmt.NamedChildCount(); i++ {
		clause := stmt.NamedChild(i)
		if clause == nil || clause.Kind() != "import_clause" {
			continue
		}
		for j := uint(0); j < clause.NamedChildCount(); j++ {
			part := clause.NamedChild(j)
			if part == nil {
				continue
			}
			switch part.Kind() {
			case "identifier":
				x.res.Imports[x.text(part)] = ImportRef{Specifier: specifier, Name: "default"}
			case "named_imports":
				x.collectNamedImports(part, specifier)
			}
		}
	}
}

func (x *extraction) collectNamedImports(named *tree_sitter.Node, specifier string) {
	for i := uint(0); i < named.NamedChildCount(); i++ {
		spec := named.NamedChild(i)
		if spec == nil || spec.Kind() != "import_specifier" {
			continue
		}
		nameNode := spec.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		local := x.text(nameNode)
		if alias := spec.ChildByFieldName("alias"); alias != nil {
			local = x.text(alias)
		}
		x.res.Imports[local] = ImportRef{Specifier: specifier, Name: x.text(nameNode)}
	}
}

func isDefaultExport(stmt *tree_sitter.Node) bool {
	for i := uint(0); i < stmt.ChildCount(); i++ {
		if c := stmt.Child(i); c != nil && c.Kind() == "default" {
			return true
		}
	}
	return false
}

// walk finds store constructors and state references anywhere in the tree.
func (x *extraction) walk(cursor *tree_sitter.TreeCursor) {
	node := cursor.Node()

	switch node.Kind() {
	case "new_expression":
		x.extractStore(node, node.ChildByFieldName("constructor"))

	case "call_expression":
		fn := node.ChildByFieldName("function")
		x.extractStore(node, fn)
		x.extractMapState(node, fn)

	case "member_expression":
		x.extractStateChain(node)
	}

	if cursor.GotoFirstChild() {
		x.walk(cursor)
		for cursor.GotoNextSibling() {
			x.walk(cursor)
		}
		cursor.GotoParent()
	}
}

func (x *extraction) extractStore(call, callee *tree_sitter.Node) {
	if callee == nil || !storeConstructors[x.text(callee)] {
		return
	}
	arg := firstArgument(call)
	if arg == nil {
		return
	}
	if obj := x.resolveObject(arg, 0); obj != nil {
		x.res.Stores = append(x.res.Stores, x.module(obj, 0))
	}
}

// isModuleObject reports whether obj has at least one store option key.
func (x *extraction) isModuleObject(obj *tree_sitter.Node) bool {
	for i := uint(0); i < obj.NamedChildCount(); i++ {
		c := obj.NamedChild(i)
		if c == nil {
			continue
		}
		var key string
		switch c.Kind() {
		case "pair":
			key = x.propertyKey(c.ChildByFieldName("key"))
		case "method_definition":
			key = x.propertyKey(c.ChildByFieldName("name"))
		case "shorthand_property_identifier":
			key = x.text(c)
		}
		if moduleKeys[key] {
			return true
		}
	}
	return false
}

// module converts a store options object into a ModuleDecl.
func (x *extraction) module(obj *tree_sitter.Node, depth int) *ModuleDecl {
	m := &ModuleDecl{Source: x.loc.at(obj)}
	if depth > maxDepth {
		return m
	}

	for i := uint(0); i < obj.NamedChildCount(); i++ {
		c := obj.NamedChild(i)
		if c == nil {
			continue
		}
		switch c.Kind() {
		case "pair":
			value := c.ChildByFieldName("value")
			switch x.propertyKey(c.ChildByFieldName("key")) {
			case "namespaced":
				if v := unwrap(value); v != nil {
					m.Namespaced = v.Kind() == "true"
				}
			case "state":
				m.State = x.stateDecls(value, depth)
			case "modules":
				m.Modules = x.moduleRefs(value, depth)
			}

		case "method_definition":
			if x.propertyKey(c.ChildByFieldName("name")) == "state" {
				m.State = x.stateDecls(returnedValue(c.ChildByFieldName("body")), depth)
			}

		case "shorthand_property_identifier":
			switch x.text(c) {
			case "state":
				m.State = x.stateDecls(c, depth)
			case "modules":
				m.Modules = x.moduleRefs(c, depth)
			}
		}
	}
	return m
}

func (x *extraction) stateDecls(value *tree_sitter.Node, depth int) []StateDecl {
	obj := x.resolveObject(value, depth)
	if obj == nil {
		return nil
	}
	rec := x.record(obj, depth+1)
	out := make([]StateDecl, 0, len(rec.Fields))
	for _, f := range rec.Fields {
		out = append(out, StateDecl{Name: f.Name, Source: f.Sources[0], Type: f.Type})
	}
	return out
}

func (x *extraction) moduleRefs(value *tree_sitter.Node, depth int) []ModuleRef {
	obj := x.resolveObject(value, depth)
	if obj == nil {
		return nil
	}

	var refs []ModuleRef
	for i := uint(0); i < obj.NamedChildCount(); i++ {
		c := obj.NamedChild(i)
		if c == nil {
			continue
		}
		var ref ModuleRef
		var target *tree_sitter.Node
		switch c.Kind() {
		case "pair":
			keyNode := c.ChildByFieldName("key")
			ref = ModuleRef{Key: x.propertyKey(keyNode), Source: x.loc.at(keyNode)}
			target = unwrap(c.ChildByFieldName("value"))
		case "shorthand_property_identifier":
			ref = ModuleRef{Key: x.text(c), Source: x.loc.at(c)}
			target = c
		default:
			continue
		}
		if ref.Key == "" || target == nil {
			continue
		}

		if obj := x.resolveObject(target, depth+1); obj != nil {
			ref.Inline = x.module(obj, depth+1)
		} else if isIdentifier(target) {
			ref.Ident = x.text(target)
		} else {
			continue
		}
		refs = append(refs, ref)
	}
	return refs
}

// resolveObject finds the object literal that value evaluates to: the value
// itself, the object a function returns, or the initializer of a same-file
// binding.
func (x *extraction) resolveObject(value *tree_sitter.Node, depth int) *tree_sitter.Node {
	if depth > maxDepth {
		return nil
	}
	v := unwrap(value)
	if v == nil {
		return nil
	}
	switch v.Kind() {
	case "object":
		return v
	case "arrow_function":
		body := v.ChildByFieldName("body")
		if body != nil && body.Kind() == "statement_block" {
			return x.resolveObject(returnedValue(body), depth+1)
		}
		return x.resolveObject(body, depth+1)
	case "function", "function_expression":
		return x.resolveObject(returnedValue(v.ChildByFieldName("body")), depth+1)
	case "identifier", "shorthand_property_identifier":
		if init, ok := x.consts[x.text(v)]; ok {
			return x.resolveObject(init, depth+1)
		}
	}
	return nil
}

// returnedValue returns the expression of the first top-level return
// statement in a function body.
func returnedValue(body *tree_sitter.Node) *tree_sitter.Node {
	if body == nil {
		return nil
	}
	for i := uint(0); i < body.NamedChildCount(); i++ {
		stmt := body.NamedChild(i)
		if stmt != nil && stmt.Kind() == "return_statement" && stmt.NamedChildCount() > 0 {
			return stmt.NamedChild(0)
		}
	}
	return nil
}

// unwrap strips parentheses and TypeScript-only expression wrappers.
func unwrap(n *tree_sitter.Node) *tree_sitter.Node {
	for n != nil {
		switch n.Kind() {
		case "parenthesized_expression", "as_expression", "satisfies_expression", "non_null_expression":
			n = n.NamedChild(0)
		case "type_assertion":
			if n.NamedChildCount() == 0 {
				return nil
			}
			n = n.NamedChild(n.NamedChildCount() - 1)
		default:
			return n
		}
	}
	return nil
}

func firstArgument(call *tree_sitter.Node) *tree_sitter.Node {
	args := call.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() == 0 {
		return nil
	}
	return args.NamedChild(0)
}

func isIdentifier(n *tree_sitter.Node) bool {
	switch n.Kind() {
	case "identifier", "shorthand_property_identifier":
		return true
	}
	return false
}

// propertyKey returns the static name of an object key, or "" for computed
// keys.
func (x *extraction) propertyKey(key *tree_sitter.Node) string {
	if key == nil {
		return ""
	}
	switch key.Kind() {
	case "property_identifier", "identifier", "number", "private_property_identifier":
		return x.text(key)
	case "string":
		return unquote(x.text(key))
	}
	return ""
}

func (x *extraction) text(n *tree_sitter.Node) string {
	return n.Utf8Text(x.source)
}

func unquote(s string) string {
	return strings.Trim(s, "\"'`")
}

// moduleName joins a namespace and a module key, tolerating the trailing
// separator that mapState namespaces often carry.
func moduleName(ns, key string) string {
	return store.AppendSegment(strings.TrimSuffix(ns, store.Separator), key)
}
