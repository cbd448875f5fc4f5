//go:build cgo

package mcptools

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dusk-indust/storeresolve/internal/index"
	"github.com/dusk-indust/storeresolve/internal/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// fixtureAbsPath returns the absolute path to the vuex_project test fixture
// directory. Tests run from internal/mcptools/, so the relative path is
// ../../testdata/fixtures/vuex_project.
func fixtureAbsPath(t *testing.T) string {
	t.Helper()
	abs, err := filepath.Abs("../../testdata/fixtures/vuex_project")
	require.NoError(t, err)
	return abs
}

// newIndexedService returns a service with the fixture already indexed.
func newIndexedService(t *testing.T) *StoreService {
	t.Helper()
	svc := NewStoreService(index.NewMemStore(), workspace.Options{
		Aliases: map[string]string{"@/": "src/"},
	})
	_, _, err := svc.IndexWorkspace(context.Background(), nil, IndexWorkspaceInput{RootPath: fixtureAbsPath(t)})
	require.NoError(t, err)
	t.Cleanup(func() {
		if ws, err := svc.Workspace(); err == nil {
			_ = ws.Close()
		}
	})
	return svc
}

// ---------------------------------------------------------------------------
// index_workspace
// ---------------------------------------------------------------------------

func TestIndexWorkspace_Validation(t *testing.T) {
	svc := NewStoreService(index.NewMemStore(), workspace.Options{})
	ctx := context.Background()

	_, _, err := svc.IndexWorkspace(ctx, nil, IndexWorkspaceInput{})
	assert.Error(t, err)

	_, _, err = svc.IndexWorkspace(ctx, nil, IndexWorkspaceInput{RootPath: filepath.Join(fixtureAbsPath(t), "storeresolve.yml")})
	assert.Error(t, err)

	_, err = svc.Workspace()
	assert.ErrorIs(t, err, ErrNoWorkspace)
}

func TestIndexWorkspace_ExcludeOverride(t *testing.T) {
	svc := newIndexedService(t)

	_, out, err := svc.IndexWorkspace(context.Background(), nil, IndexWorkspaceInput{
		RootPath:    fixtureAbsPath(t),
		ExcludeDirs: []string{"components"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, out.Stats.Files)
	assert.Equal(t, 0, out.Stats.References)
}

// ---------------------------------------------------------------------------
// resolve_state / find_definition / find_usages
// ---------------------------------------------------------------------------

func TestResolveState(t *testing.T) {
	svc := newIndexedService(t)
	ctx := context.Background()

	_, out, err := svc.ResolveState(ctx, nil, ResolveStateInput{QualifiedName: "cart/checkout/step"})
	require.NoError(t, err)
	require.Len(t, out.Definitions, 1)
	assert.Equal(t, 15, out.Definitions[0].StartLine)
	assert.Equal(t, int64(0), out.Revision)

	_, out, err = svc.ResolveState(ctx, nil, ResolveStateInput{QualifiedName: "cart/nothing"})
	require.NoError(t, err, "unresolved is not an error")
	assert.NotNil(t, out.Definitions)
	assert.Empty(t, out.Definitions)

	_, _, err = svc.ResolveState(ctx, nil, ResolveStateInput{})
	assert.Error(t, err)
}

func TestFindDefinition(t *testing.T) {
	svc := newIndexedService(t)
	ctx := context.Background()

	_, out, err := svc.FindDefinition(ctx, nil, FindDefinitionInput{File: "src/components/Cart.vue", Line: 13, Column: 54})
	require.NoError(t, err)
	require.True(t, out.Found)
	assert.Equal(t, "user/profile/address/city", out.QualifiedName)
	require.NotNil(t, out.Reference)
	assert.Equal(t, 13, out.Reference.StartLine)
	require.Len(t, out.Definitions, 1)
	assert.Equal(t, 14, out.Definitions[0].StartLine)

	_, out, err = svc.FindDefinition(ctx, nil, FindDefinitionInput{File: "src/components/Cart.vue", Line: 1, Column: 1})
	require.NoError(t, err)
	assert.False(t, out.Found)

	_, _, err = svc.FindDefinition(ctx, nil, FindDefinitionInput{File: "src/components/Cart.vue"})
	assert.Error(t, err)
}

func TestFindUsages(t *testing.T) {
	svc := newIndexedService(t)

	_, out, err := svc.FindUsages(context.Background(), nil, FindUsagesInput{QualifiedName: "cart/checkoutStatus"})
	require.NoError(t, err)
	require.Equal(t, 1, out.Total)
	assert.Equal(t, "src/components/Cart.vue", out.Usages[0].Location.File)
}

// ---------------------------------------------------------------------------
// query_state / list_containers
// ---------------------------------------------------------------------------

func TestQueryState(t *testing.T) {
	svc := newIndexedService(t)
	ctx := context.Background()

	_, out, err := svc.QueryState(ctx, nil, QueryStateInput{Query: "ADDRESS"})
	assert.NoError(t, err)
	assert.Equal(t, 0, out.Total, "nested record fields are not indexed as state entries")

	_, out, err = svc.QueryState(ctx, nil, QueryStateInput{Query: "profile"})
	require.NoError(t, err)
	require.Equal(t, 1, out.Total)
	assert.Equal(t, "user/profile", out.States[0].QualifiedName)

	_, out, err = svc.QueryState(ctx, nil, QueryStateInput{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Total)
}

func TestListContainers(t *testing.T) {
	svc := newIndexedService(t)

	_, out, err := svc.ListContainers(context.Background(), nil, ListContainersInput{})
	require.NoError(t, err)
	require.Len(t, out.Containers, 6)
	assert.Equal(t, "", out.Containers[0].Name)
	assert.Equal(t, []string{"count", "tags"}, out.Containers[0].State)

	empty := NewStoreService(index.NewMemStore(), workspace.Options{})
	_, _, err = empty.ListContainers(context.Background(), nil, ListContainersInput{})
	assert.ErrorIs(t, err, ErrNoWorkspace)
}

// ---------------------------------------------------------------------------
// update_file / remove_file
// ---------------------------------------------------------------------------

func TestUpdateFile_Validation(t *testing.T) {
	ctx := context.Background()

	empty := NewStoreService(index.NewMemStore(), workspace.Options{})
	_, _, err := empty.UpdateFile(ctx, nil, UpdateFileInput{File: "src/store/index.ts"})
	assert.ErrorIs(t, err, ErrNoWorkspace)

	svc := newIndexedService(t)
	for _, file := range []string{"", "../outside.ts", "/etc/passwd"} {
		_, _, err := svc.UpdateFile(ctx, nil, UpdateFileInput{File: file})
		assert.Error(t, err, file)
		_, _, err = svc.RemoveFile(ctx, nil, RemoveFileInput{File: file})
		assert.Error(t, err, file)
	}

	_, _, err = svc.UpdateFile(ctx, nil, UpdateFileInput{File: "src/missing.ts"})
	assert.Error(t, err, "not on disk and no content")

	ws, err := svc.Workspace()
	require.NoError(t, err)
	assert.Equal(t, int64(0), ws.Revision())
}

func TestUpdateFile_Content(t *testing.T) {
	svc := newIndexedService(t)
	ctx := context.Background()

	content := "export default {\n  namespaced: true,\n  state: { items: [] },\n}\n"
	_, out, err := svc.UpdateFile(ctx, nil, UpdateFileInput{File: "./src/store/modules/cart.ts", Content: &content})
	require.NoError(t, err)
	assert.Equal(t, "src/store/modules/cart.ts", out.File)
	assert.Equal(t, int64(1), out.Revision)

	_, resolved, err := svc.ResolveState(ctx, nil, ResolveStateInput{QualifiedName: "cart/items"})
	require.NoError(t, err)
	require.Len(t, resolved.Definitions, 1)
	assert.Equal(t, 3, resolved.Definitions[0].StartLine)

	_, resolved, err = svc.ResolveState(ctx, nil, ResolveStateInput{QualifiedName: "cart/checkout/step"})
	require.NoError(t, err)
	assert.Empty(t, resolved.Definitions)
}

func TestRemoveFile(t *testing.T) {
	svc := newIndexedService(t)
	ctx := context.Background()

	_, out, err := svc.RemoveFile(ctx, nil, RemoveFileInput{File: "src/store/modules/products.js"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.Revision)
	assert.Equal(t, 3, out.Stats.Files)

	_, resolved, err := svc.ResolveState(ctx, nil, ResolveStateInput{QualifiedName: "products/all"})
	require.NoError(t, err)
	assert.Empty(t, resolved.Definitions)

	_, out, err = svc.RemoveFile(ctx, nil, RemoveFileInput{File: "src/store/modules/products.js"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.Revision, "unknown file")
}
