package resolve

import (
	"hash/maphash"
	"slices"
	"strings"

	"github.com/dusk-indust/storeresolve/internal/store"
)

// Kind is the syntactic kind of an implicit symbol.
type Kind string

const KindProperty Kind = "property"

// stateElementTag distinguishes StateElement keys from keys of other implicit
// symbol kinds hashed with the same seed.
const stateElementTag = "vuex.state"

var hashSeed = maphash.MakeSeed()

// Env is what a StateElement needs from its host.
type Env struct {
	Lookup  store.Lookup
	Counter store.Counter
}

// Key is the identity tuple a StateElement hashes on. It excludes the
// inferred type and the qualified name.
type Key struct {
	Tag      string
	Name     string
	Provider store.Location
	Kind     Kind
}

// StateElement is one reference to a qualified store state path. It resolves
// lazily to the locations that define the path and caches the result until
// the host's modification counter advances.
type StateElement struct {
	name               string
	qualifiedStoreName string
	provider           store.Location
	kind               Kind
	typ                store.Type
	lookup             store.Lookup

	candidates *Cell[[]store.Location]
}

// New creates a StateElement declared at provider. typ may be nil.
func New(name, qualifiedStoreName string, provider store.Location, typ store.Type, env Env) *StateElement {
	e := &StateElement{
		name:               name,
		qualifiedStoreName: qualifiedStoreName,
		provider:           provider,
		kind:               KindProperty,
		typ:                typ,
		lookup:             env.Lookup,
	}
	e.candidates = NewCell(env.Counter, e.resolve)
	return e
}

func (e *StateElement) Name() string               { return e.name }
func (e *StateElement) QualifiedStoreName() string { return e.qualifiedStoreName }
func (e *StateElement) Provider() store.Location   { return e.provider }
func (e *StateElement) Kind() Kind                 { return e.kind }
func (e *StateElement) Type() store.Type           { return e.typ }

// Candidates returns the locations defining the element's qualified name, in
// location order. An unresolvable name yields an empty result.
func (e *StateElement) Candidates() []store.Location {
	return slices.Clone(e.candidates.Get())
}

// TextRange returns the provider's range while it still points into live
// source.
func (e *StateElement) TextRange() (store.Range, bool) {
	if e.lookup == nil || !e.lookup.Contains(e.provider) {
		return store.Range{}, false
	}
	return e.provider.Range, true
}

// Key returns the identity tuple used by Hash.
func (e *StateElement) Key() Key {
	return Key{Tag: stateElementTag, Name: e.name, Provider: e.provider, Kind: e.kind}
}

// Hash covers Key. It ignores the type and the qualified name, so elements
// with equivalent types hash alike, but it includes the display name, which
// Equal does not compare: two equal elements reached under different names
// hash apart. Use identityHash to bucket by Equal.
func (e *StateElement) Hash() uint64 {
	return maphash.Comparable(hashSeed, e.Key())
}

// identity holds the fields Equal compares exactly.
type identity struct {
	qualifiedStoreName string
	provider           store.Location
	kind               Kind
}

// identityHash is consistent with Equal.
func (e *StateElement) identityHash() uint64 {
	return maphash.Comparable(hashSeed, identity{e.qualifiedStoreName, e.provider, e.kind})
}

// Equal treats two occurrences naming the same path from the same provider as
// one symbol. Types must both be absent or structurally equivalent.
func (e *StateElement) Equal(other *StateElement) bool {
	if e == other {
		return true
	}
	if e == nil || other == nil {
		return false
	}
	return other.qualifiedStoreName == e.qualifiedStoreName &&
		other.provider == e.provider &&
		other.kind == e.kind &&
		store.Equivalent(other.typ, e.typ)
}

// IsEquivalentTo reports whether loc is the element's provider or one of the
// locations it resolves to.
func (e *StateElement) IsEquivalentTo(loc store.Location) bool {
	if loc == e.provider {
		return true
	}
	return slices.Contains(e.candidates.Get(), loc)
}

func (e *StateElement) resolve() []store.Location {
	target := e.qualifiedStoreName
	if !store.ValidName(target) || e.lookup == nil {
		return nil
	}
	ctx := e.lookup.ContextFor(e.provider)
	if ctx == nil {
		return nil
	}

	result := make(map[store.Location]struct{})

	ctx.VisitSymbols(store.SelectState, func(qualifiedName string, entry *store.StateEntry) {
		if qualifiedName == target {
			result[entry.Source] = struct{}{}
		}
	})

	ctx.Visit(func(qualifiedName string, c *store.Container) {
		if qualifiedName == target {
			result[c.Source] = struct{}{}
			return
		}
		prefix := store.AppendSegment(qualifiedName, "")
		if !strings.HasPrefix(target, prefix) || len(target) <= len(prefix) {
			return
		}
		if sig := descend(c, store.Segments(target[len(prefix):])); sig != nil {
			for _, src := range sig.Sources {
				result[src] = struct{}{}
			}
		}
	})

	return store.SortedSet(result)
}

// descend follows segments from a container's state into nested record
// fields. It returns nil as soon as a segment has no matching field or an
// intermediate type is not a record.
func descend(c *store.Container, segments []string) *store.FieldSignature {
	sig := c.StateSignature(segments[0])
	for _, seg := range segments[1:] {
		if sig == nil || sig.Type == nil {
			return nil
		}
		rec := sig.Type.AsRecord()
		if rec == nil {
			return nil
		}
		sig = rec.FindField(seg)
	}
	return sig
}
