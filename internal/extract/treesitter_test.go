package extract

import (
	"context"
	"os"
	"testing"

	"github.com/dusk-indust/storeresolve/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// readFixture reads a test fixture file relative to the project root.
// Tests run from internal/extract/, so the relative path is ../../testdata/...
func readFixture(t *testing.T, relPath string) []byte {
	t.Helper()
	data, err := os.ReadFile("../../testdata/fixtures/vuex_project/" + relPath)
	require.NoError(t, err, "reading fixture %s", relPath)
	return data
}

func parse(t *testing.T, path string, src []byte) *FileResult {
	t.Helper()
	p := NewTreeSitterParser()
	defer p.Close()
	res, err := p.Parse(context.Background(), path, src)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func findState(decls []StateDecl, name string) *StateDecl {
	for i := range decls {
		if decls[i].Name == name {
			return &decls[i]
		}
	}
	return nil
}

func findModule(refs []ModuleRef, key string) *ModuleRef {
	for i := range refs {
		if refs[i].Key == key {
			return &refs[i]
		}
	}
	return nil
}

func findRef(refs []Reference, qualifiedName string) *Reference {
	for i := range refs {
		if refs[i].QualifiedName == qualifiedName {
			return &refs[i]
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

func TestParse_StoreIndex(t *testing.T) {
	res := parse(t, "src/store/index.ts", readFixture(t, "src/store/index.ts"))

	assert.Equal(t, LangTypeScript, res.Language)
	assert.Greater(t, res.LOC, 30)
	require.Len(t, res.Stores, 1)
	root := res.Stores[0]

	count := findState(root.State, "count")
	require.NotNil(t, count)
	assert.Equal(t, store.TypeNumber, count.Type)
	assert.Equal(t, 24, count.Source.StartLine)
	assert.Equal(t, "src/store/index.ts", count.Source.File)

	tags := findState(root.State, "tags")
	require.NotNil(t, tags)
	assert.True(t, (&store.Array{Elem: store.TypeString}).Equivalent(tags.Type))

	t.Run("imported modules stay identifiers", func(t *testing.T) {
		cart := findModule(root.Modules, "cart")
		require.NotNil(t, cart)
		assert.Equal(t, "cart", cart.Ident)
		assert.Nil(t, cart.Inline)
		assert.Equal(t, 28, cart.Source.StartLine)

		products := findModule(root.Modules, "products")
		require.NotNil(t, products)
		assert.Equal(t, "products", products.Ident)
	})

	t.Run("same-file const module is inlined", func(t *testing.T) {
		user := findModule(root.Modules, "user")
		require.NotNil(t, user)
		require.NotNil(t, user.Inline)
		assert.True(t, user.Inline.Namespaced)

		profile := findState(user.Inline.State, "profile")
		require.NotNil(t, profile)
		require.NotNil(t, profile.Type.AsRecord())
		address := profile.Type.AsRecord().FindField("address")
		require.NotNil(t, address)
		city := address.Type.AsRecord().FindField("city")
		require.NotNil(t, city)
		assert.Equal(t, store.TypeString, city.Type)
		require.Len(t, city.Sources, 1)
		assert.Equal(t, 14, city.Sources[0].StartLine)

		loggedIn := findState(user.Inline.State, "loggedIn")
		require.NotNil(t, loggedIn)
		assert.Equal(t, store.TypeBoolean, loggedIn.Type)
	})

	t.Run("state method", func(t *testing.T) {
		settings := findModule(root.Modules, "settings")
		require.NotNil(t, settings)
		require.NotNil(t, settings.Inline)
		assert.False(t, settings.Inline.Namespaced)
		theme := findState(settings.Inline.State, "theme")
		require.NotNil(t, theme)
		assert.Equal(t, 33, theme.Source.StartLine)
	})

	assert.Equal(t, ImportRef{Specifier: "./modules/cart", Name: "default"}, res.Imports["cart"])
	assert.Equal(t, ImportRef{Specifier: "./modules/products", Name: "products"}, res.Imports["products"])
	assert.Contains(t, res.Locals, "user")
	assert.False(t, res.Exported["user"])
	assert.Nil(t, res.DefaultExport, "default export is a store, not a module object")
}

func TestParse_DefaultExportModule(t *testing.T) {
	res := parse(t, "src/store/modules/cart.ts", readFixture(t, "src/store/modules/cart.ts"))

	assert.Empty(t, res.Stores)
	mod := res.DefaultExport
	require.NotNil(t, mod)
	assert.True(t, mod.Namespaced)

	items := findState(mod.State, "items")
	require.NotNil(t, items)
	assert.Equal(t, 9, items.Source.StartLine)
	assert.Nil(t, items.Type.AsRecord())

	status := findState(mod.State, "checkoutStatus")
	require.NotNil(t, status)
	assert.Equal(t, store.TypeNull, status.Type)

	checkout := findModule(mod.Modules, "checkout")
	require.NotNil(t, checkout)
	require.NotNil(t, checkout.Inline)
	step := findState(checkout.Inline.State, "step")
	require.NotNil(t, step)
	assert.Equal(t, store.TypeNumber, step.Type)
}

func TestParse_ExportedConstModule(t *testing.T) {
	res := parse(t, "src/store/modules/products.js", readFixture(t, "src/store/modules/products.js"))

	assert.Equal(t, LangJavaScript, res.Language)
	require.Contains(t, res.Locals, "products")
	assert.True(t, res.Exported["products"])
	assert.NotNil(t, findState(res.Locals["products"].State, "all"))
}

func TestParse_VueComponentReferences(t *testing.T) {
	res := parse(t, "src/components/Cart.vue", readFixture(t, "src/components/Cart.vue"))

	assert.Equal(t, LangVue, res.Language)
	assert.Empty(t, res.Stores)

	items := findRef(res.References, "cart/items")
	require.NotNil(t, items)
	assert.Equal(t, "items", items.Name)
	assert.Equal(t, "src/components/Cart.vue", items.Location.File)
	assert.Equal(t, 10, items.Location.StartLine)
	assert.Equal(t, 26, items.Location.StartColumn)

	assert.NotNil(t, findRef(res.References, "cart/checkoutStatus"))

	total := findRef(res.References, "count")
	require.NotNil(t, total)
	assert.Equal(t, "total", total.Name)
	assert.Equal(t, 11, total.Location.StartLine)

	for _, qn := range []string{"user", "user/profile", "user/profile/address", "user/profile/address/city"} {
		ref := findRef(res.References, qn)
		require.NotNil(t, ref, "reference %s", qn)
		assert.Equal(t, 13, ref.Location.StartLine)
	}
	city := findRef(res.References, "user/profile/address/city")
	assert.Equal(t, "city", city.Name)

	src := readFixture(t, "src/components/Cart.vue")
	assert.Equal(t, "city", string(src[city.Location.StartByte:city.Location.EndByte]))
}

// ---------------------------------------------------------------------------
// Inline sources
// ---------------------------------------------------------------------------

func TestParse_CreateStoreWithTypeWrappers(t *testing.T) {
	src := []byte(`import { createStore } from 'vuex'

const state = {
  ready: false as boolean,
  when: new Date(),
  ...{ extra: 1 },
}

export const store = createStore({
  state: () => state,
} satisfies object)
`)
	res := parse(t, "store.ts", src)
	require.Len(t, res.Stores, 1)

	ready := findState(res.Stores[0].State, "ready")
	require.NotNil(t, ready)
	assert.Equal(t, store.TypeBoolean, ready.Type)

	when := findState(res.Stores[0].State, "when")
	require.NotNil(t, when)
	assert.Equal(t, store.Primitive{Name: "Date"}, when.Type)

	assert.NotNil(t, findState(res.Stores[0].State, "extra"), "spread fields are merged")
}

func TestParse_StoreChainReferences(t *testing.T) {
	src := []byte(`export function useCart(store) {
  store.state.cart.items.push('x')
  return store.state.cart.total + store.getters.count
}
`)
	res := parse(t, "use.js", src)

	var names []string
	for _, r := range res.References {
		names = append(names, r.QualifiedName)
	}
	assert.ElementsMatch(t, []string{"cart", "cart/items", "cart", "cart/total"}, names,
		"method calls and getters are not state paths")
}

func TestParse_MapStateForms(t *testing.T) {
	src := []byte(`import Vuex from 'vuex'
export default {
  computed: {
    ...Vuex.mapState('shop/cart/', ['items']),
    ...mapState({ n: 'count', fn: state => state.x }),
    ...mapState(['a', 'b']),
  },
}
`)
	res := parse(t, "c.js", src)

	assert.NotNil(t, findRef(res.References, "shop/cart/items"))
	n := findRef(res.References, "count")
	require.NotNil(t, n)
	assert.Equal(t, "n", n.Name)
	assert.NotNil(t, findRef(res.References, "a"))
	assert.NotNil(t, findRef(res.References, "b"))
	assert.Len(t, res.References, 4)
}

func TestParse_UnsupportedExtension(t *testing.T) {
	p := NewTreeSitterParser()
	_, err := p.Parse(context.Background(), "main.go", []byte("package main"))
	assert.Error(t, err)
}

func TestSupportedExtensions(t *testing.T) {
	exts := NewTreeSitterParser().SupportedExtensions()
	assert.Contains(t, exts, ".vue")
	assert.Contains(t, exts, ".ts")
	assert.IsNonDecreasing(t, exts)
}

func TestScriptBlocks(t *testing.T) {
	src := []byte("<template></template>\n<script setup lang=\"tsx\">const a = 1</script>\n<script>\nexport default {}\n</script>\n")
	blocks := scriptBlocks(src)
	require.Len(t, blocks, 2)

	assert.Equal(t, LangTSX, blocks[0].lang)
	assert.Equal(t, "const a = 1", string(blocks[0].content))
	assert.Equal(t, 1, blocks[0].line)
	assert.Equal(t, len(`<script setup lang="tsx">`), blocks[0].col)

	assert.Equal(t, LangTypeScript, blocks[1].lang)
	assert.Equal(t, "\nexport default {}\n", string(blocks[1].content))
	assert.Equal(t, string(src[blocks[1].start:blocks[1].start+len(blocks[1].content)]), string(blocks[1].content))
}
