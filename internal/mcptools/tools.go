package mcptools

import (
	"github.com/dusk-indust/storeresolve/internal/index"
	"github.com/dusk-indust/storeresolve/internal/store"
	"github.com/dusk-indust/storeresolve/internal/workspace"
)

// --- MCP Tool Input Types ---
// These structs define the JSON schema for each MCP tool's input.
// The MCP Go SDK auto-generates JSON schemas from struct tags.

// IndexWorkspaceInput is the input for the index_workspace MCP tool.
type IndexWorkspaceInput struct {
	RootPath    string            `json:"rootPath" jsonschema:"the absolute path to the project to index"`
	ExcludeDirs []string          `json:"excludeDirs,omitempty" jsonschema:"directory names to skip in addition to .git and node_modules"`
	Aliases     map[string]string `json:"aliases,omitempty" jsonschema:"import prefix to directory mappings (e.g. @/ to src/)"`
}

// IndexWorkspaceOutput is the result of the index_workspace MCP tool.
type IndexWorkspaceOutput struct {
	Stats workspace.Stats `json:"stats"`
}

// ResolveStateInput is the input for the resolve_state MCP tool.
type ResolveStateInput struct {
	QualifiedName string `json:"qualifiedName" jsonschema:"slash separated state path such as cart/items or user/profile/name"`
}

// ResolveStateOutput is the result of the resolve_state MCP tool.
type ResolveStateOutput struct {
	QualifiedName string           `json:"qualifiedName"`
	Definitions   []store.Location `json:"definitions"`
	Revision      int64            `json:"revision"`
}

// FindDefinitionInput is the input for the find_definition MCP tool.
type FindDefinitionInput struct {
	File   string `json:"file" jsonschema:"project relative path of the referencing file"`
	Line   int    `json:"line" jsonschema:"1-based line of the reference"`
	Column int    `json:"column" jsonschema:"1-based column of the reference"`
}

// FindDefinitionOutput is the result of the find_definition MCP tool.
type FindDefinitionOutput struct {
	Found         bool             `json:"found"`
	Name          string           `json:"name,omitempty"`
	QualifiedName string           `json:"qualifiedName,omitempty"`
	Reference     *store.Location  `json:"reference,omitempty"`
	Definitions   []store.Location `json:"definitions"`
}

// FindUsagesInput is the input for the find_usages MCP tool.
type FindUsagesInput struct {
	QualifiedName string `json:"qualifiedName" jsonschema:"slash separated state path"`
}

// FindUsagesOutput is the result of the find_usages MCP tool.
type FindUsagesOutput struct {
	Usages []workspace.Usage `json:"usages"`
	Total  int               `json:"total"`
}

// QueryStateInput is the input for the query_state MCP tool.
type QueryStateInput struct {
	Query string `json:"query" jsonschema:"case-insensitive substring of the qualified state name"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results (default: 20)"`
}

// QueryStateOutput is the result of the query_state MCP tool.
type QueryStateOutput struct {
	States []index.StateRecord `json:"states"`
	Total  int                 `json:"total"`
}

// ListContainersInput is the input for the list_containers MCP tool.
type ListContainersInput struct{}

// ListContainersOutput is the result of the list_containers MCP tool.
type ListContainersOutput struct {
	Containers []workspace.ContainerInfo `json:"containers"`
}

// UpdateFileInput is the input for the update_file MCP tool.
type UpdateFileInput struct {
	File    string  `json:"file" jsonschema:"project relative path of the changed file"`
	Content *string `json:"content,omitempty" jsonschema:"new file content; read from disk when omitted"`
}

// RemoveFileInput is the input for the remove_file MCP tool.
type RemoveFileInput struct {
	File string `json:"file" jsonschema:"project relative path of the deleted file"`
}

// FileChangeOutput is the result of the update_file and remove_file MCP tools.
type FileChangeOutput struct {
	File     string          `json:"file"`
	Revision int64           `json:"revision"`
	Stats    workspace.Stats `json:"stats"`
}
