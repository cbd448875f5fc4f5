package mcptools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/dusk-indust/storeresolve/internal/index"
	"github.com/dusk-indust/storeresolve/internal/store"
	"github.com/dusk-indust/storeresolve/internal/workspace"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ErrNoWorkspace is returned by tools that need an indexed project.
var ErrNoWorkspace = errors.New("no workspace indexed; call index_workspace first")

// StoreService holds the workspace and index used by MCP tool handlers.
type StoreService struct {
	index index.Store
	opts  workspace.Options

	mu sync.RWMutex
	ws *workspace.Workspace
}

// NewStoreService creates a StoreService backed by idx. opts are the
// defaults applied when index_workspace opens a project.
func NewStoreService(idx index.Store, opts workspace.Options) *StoreService {
	return &StoreService{index: idx, opts: opts}
}

// SetWorkspace installs an already opened workspace.
func (s *StoreService) SetWorkspace(ws *workspace.Workspace) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ws = ws
}

// Workspace returns the current workspace, or ErrNoWorkspace.
func (s *StoreService) Workspace() (*workspace.Workspace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ws == nil {
		return nil, ErrNoWorkspace
	}
	return s.ws, nil
}

// IndexWorkspace parses a project, assembles its stores and populates the
// index. A previously indexed workspace is replaced.
func (s *StoreService) IndexWorkspace(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IndexWorkspaceInput,
) (*mcp.CallToolResult, IndexWorkspaceOutput, error) {
	if input.RootPath == "" {
		return nil, IndexWorkspaceOutput{}, fmt.Errorf("rootPath is required")
	}

	if err := s.index.InitSchema(ctx); err != nil {
		return nil, IndexWorkspaceOutput{}, fmt.Errorf("init schema: %w", err)
	}

	opts := s.opts
	opts.Index = s.index
	if len(input.ExcludeDirs) > 0 {
		opts.ExcludeDirs = input.ExcludeDirs
	}
	if len(input.Aliases) > 0 {
		opts.Aliases = input.Aliases
	}

	ws, err := workspace.Open(ctx, input.RootPath, opts)
	if err != nil {
		return nil, IndexWorkspaceOutput{}, fmt.Errorf("open workspace: %w", err)
	}

	s.mu.Lock()
	prev := s.ws
	s.ws = ws
	s.mu.Unlock()
	if prev != nil {
		_ = prev.Close()
	}

	return nil, IndexWorkspaceOutput{Stats: ws.Stats()}, nil
}

// ResolveState returns the definitions of a qualified state path.
func (s *StoreService) ResolveState(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ResolveStateInput,
) (*mcp.CallToolResult, ResolveStateOutput, error) {
	if input.QualifiedName == "" {
		return nil, ResolveStateOutput{}, fmt.Errorf("qualifiedName is required")
	}
	ws, err := s.Workspace()
	if err != nil {
		return nil, ResolveStateOutput{}, err
	}

	e := ws.NewElement(input.QualifiedName)
	return nil, ResolveStateOutput{
		QualifiedName: input.QualifiedName,
		Definitions:   nonNil(e.Candidates()),
		Revision:      ws.Revision(),
	}, nil
}

// FindDefinition resolves the state reference at a source position.
func (s *StoreService) FindDefinition(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input FindDefinitionInput,
) (*mcp.CallToolResult, FindDefinitionOutput, error) {
	if input.File == "" {
		return nil, FindDefinitionOutput{}, fmt.Errorf("file is required")
	}
	if input.Line <= 0 || input.Column <= 0 {
		return nil, FindDefinitionOutput{}, fmt.Errorf("line and column must be positive")
	}
	ws, err := s.Workspace()
	if err != nil {
		return nil, FindDefinitionOutput{}, err
	}

	e := ws.ElementAt(input.File, input.Line, input.Column)
	if e == nil {
		return nil, FindDefinitionOutput{Definitions: []store.Location{}}, nil
	}
	ref := e.Provider()
	return nil, FindDefinitionOutput{
		Found:         true,
		Name:          e.Name(),
		QualifiedName: e.QualifiedStoreName(),
		Reference:     &ref,
		Definitions:   nonNil(e.Candidates()),
	}, nil
}

// FindUsages lists reference sites of a qualified state path.
func (s *StoreService) FindUsages(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input FindUsagesInput,
) (*mcp.CallToolResult, FindUsagesOutput, error) {
	if input.QualifiedName == "" {
		return nil, FindUsagesOutput{}, fmt.Errorf("qualifiedName is required")
	}
	ws, err := s.Workspace()
	if err != nil {
		return nil, FindUsagesOutput{}, err
	}

	usages := ws.Usages(input.QualifiedName)
	if usages == nil {
		usages = []workspace.Usage{}
	}
	return nil, FindUsagesOutput{Usages: usages, Total: len(usages)}, nil
}

// QueryState searches indexed state entries by qualified name.
func (s *StoreService) QueryState(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryStateInput,
) (*mcp.CallToolResult, QueryStateOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}

	states, err := s.index.QueryState(ctx, input.Query, limit)
	if err != nil {
		return nil, QueryStateOutput{}, fmt.Errorf("query state: %w", err)
	}
	if states == nil {
		states = []index.StateRecord{}
	}
	return nil, QueryStateOutput{States: states, Total: len(states)}, nil
}

// ListContainers returns every store module of the workspace.
func (s *StoreService) ListContainers(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ ListContainersInput,
) (*mcp.CallToolResult, ListContainersOutput, error) {
	ws, err := s.Workspace()
	if err != nil {
		return nil, ListContainersOutput{}, err
	}

	containers := ws.Containers()
	if containers == nil {
		containers = []workspace.ContainerInfo{}
	}
	return nil, ListContainersOutput{Containers: containers}, nil
}

// UpdateFile re-parses one file of the workspace and advances its revision,
// so cached resolutions are recomputed on next use.
func (s *StoreService) UpdateFile(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input UpdateFileInput,
) (*mcp.CallToolResult, FileChangeOutput, error) {
	ws, rel, err := s.workspaceFile(input.File)
	if err != nil {
		return nil, FileChangeOutput{}, err
	}

	var source []byte
	if input.Content != nil {
		source = []byte(*input.Content)
	} else {
		source, err = os.ReadFile(filepath.Join(ws.Root(), filepath.FromSlash(rel)))
		if err != nil {
			return nil, FileChangeOutput{}, fmt.Errorf("read %s: %w", rel, err)
		}
	}

	if err := ws.Update(ctx, rel, source); err != nil {
		return nil, FileChangeOutput{}, fmt.Errorf("update %s: %w", rel, err)
	}
	return nil, FileChangeOutput{File: rel, Revision: ws.Revision(), Stats: ws.Stats()}, nil
}

// RemoveFile drops one file from the workspace. Removing a file the
// workspace does not hold leaves the revision unchanged.
func (s *StoreService) RemoveFile(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RemoveFileInput,
) (*mcp.CallToolResult, FileChangeOutput, error) {
	ws, rel, err := s.workspaceFile(input.File)
	if err != nil {
		return nil, FileChangeOutput{}, err
	}

	if err := ws.Remove(ctx, rel); err != nil {
		return nil, FileChangeOutput{}, fmt.Errorf("remove %s: %w", rel, err)
	}
	return nil, FileChangeOutput{File: rel, Revision: ws.Revision(), Stats: ws.Stats()}, nil
}

// workspaceFile validates a project relative path and returns it in slash
// form along with the current workspace.
func (s *StoreService) workspaceFile(file string) (*workspace.Workspace, string, error) {
	if file == "" {
		return nil, "", fmt.Errorf("file is required")
	}
	if !filepath.IsLocal(filepath.FromSlash(file)) {
		return nil, "", fmt.Errorf("file must be a path inside the project: %s", file)
	}
	ws, err := s.Workspace()
	if err != nil {
		return nil, "", err
	}
	return ws, filepath.ToSlash(filepath.Clean(filepath.FromSlash(file))), nil
}

func nonNil(locs []store.Location) []store.Location {
	if locs == nil {
		return []store.Location{}
	}
	return locs
}
