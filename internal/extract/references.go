package extract

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/dusk-indust/storeresolve/internal/store"
)

// storeRoots are the receivers whose ".state" starts a state path.
var storeRoots = map[string]bool{
	"$store": true,
	"store":  true,
}

type chainSegment struct {
	name string
	node *tree_sitter.Node
}

// extractStateChain records one reference per path segment of
// "$store.state.a.b..." chains. Only the outermost member expression of a
// chain is processed so each segment is reported once.
func (x *extraction) extractStateChain(node *tree_sitter.Node) {
	parent := node.Parent()
	if parent != nil && parent.Kind() == "member_expression" && sameSpan(parent.ChildByFieldName("object"), node) {
		return
	}

	segments := x.flattenMember(node)
	if len(segments) == 0 {
		return
	}
	// A trailing method call is not part of the state path.
	if parent != nil && parent.Kind() == "call_expression" && sameSpan(parent.ChildByFieldName("function"), node) {
		segments = segments[:len(segments)-1]
	}

	start := -1
	for i := 0; i+1 < len(segments); i++ {
		if storeRoots[segments[i].name] && segments[i+1].name == "state" {
			start = i + 2
			break
		}
	}
	if start < 0 {
		return
	}

	qualified := ""
	for _, seg := range segments[start:] {
		qualified = store.AppendSegment(qualified, seg.name)
		x.res.References = append(x.res.References, Reference{
			Name:          seg.name,
			QualifiedName: qualified,
			Location:      x.loc.at(seg.node),
		})
	}
}

// flattenMember turns a.b.c into [a b c]. It returns nil when the chain has a
// computed access or a base that is not an identifier or "this".
func (x *extraction) flattenMember(node *tree_sitter.Node) []chainSegment {
	var rev []chainSegment
	cur := node
	for cur != nil && cur.Kind() == "member_expression" {
		prop := cur.ChildByFieldName("property")
		if prop == nil || prop.Kind() != "property_identifier" {
			return nil
		}
		rev = append(rev, chainSegment{name: x.text(prop), node: prop})
		cur = unwrap(cur.ChildByFieldName("object"))
	}
	if cur == nil {
		return nil
	}
	switch cur.Kind() {
	case "identifier", "this":
		rev = append(rev, chainSegment{name: x.text(cur), node: cur})
	default:
		return nil
	}

	out := make([]chainSegment, len(rev))
	for i, seg := range rev {
		out[len(rev)-1-i] = seg
	}
	return out
}

// extractMapState records references from mapState helpers:
//
//	mapState(['count'])
//	mapState('cart', ['items'])
//	mapState('cart', { list: 'items' })
func (x *extraction) extractMapState(call, fn *tree_sitter.Node) {
	if fn == nil {
		return
	}
	switch fn.Kind() {
	case "identifier":
		if x.text(fn) != "mapState" {
			return
		}
	case "member_expression":
		prop := fn.ChildByFieldName("property")
		if prop == nil || x.text(prop) != "mapState" {
			return
		}
	default:
		return
	}

	args := call.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() == 0 {
		return
	}

	ns := ""
	mapArg := unwrap(args.NamedChild(0))
	if mapArg != nil && mapArg.Kind() == "string" {
		ns = unquote(x.text(mapArg))
		if args.NamedChildCount() < 2 {
			return
		}
		mapArg = unwrap(args.NamedChild(1))
	}
	if mapArg == nil {
		return
	}

	switch mapArg.Kind() {
	case "array":
		for i := uint(0); i < mapArg.NamedChildCount(); i++ {
			el := mapArg.NamedChild(i)
			if el == nil || el.Kind() != "string" {
				continue
			}
			x.addMapped(ns, unquote(x.text(el)), unquote(x.text(el)), el)
		}
	case "object":
		for i := uint(0); i < mapArg.NamedChildCount(); i++ {
			pair := mapArg.NamedChild(i)
			if pair == nil || pair.Kind() != "pair" {
				continue
			}
			value := unwrap(pair.ChildByFieldName("value"))
			if value == nil || value.Kind() != "string" {
				continue
			}
			x.addMapped(ns, x.propertyKey(pair.ChildByFieldName("key")), unquote(x.text(value)), value)
		}
	}
}

func (x *extraction) addMapped(ns, name, path string, at *tree_sitter.Node) {
	if path == "" {
		return
	}
	if name == "" {
		name = path
	}
	x.res.References = append(x.res.References, Reference{
		Name:          name,
		QualifiedName: moduleName(ns, path),
		Location:      x.loc.at(at),
	})
}

func sameSpan(a, b *tree_sitter.Node) bool {
	if a == nil || b == nil {
		return false
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte()
}
