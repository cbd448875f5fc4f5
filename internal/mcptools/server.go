package mcptools

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewMCPServer creates an MCP server with the store resolution tools registered.
func NewMCPServer(svc *StoreService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "storeresolve",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "index_workspace",
		Description: "Parse a JavaScript/TypeScript/Vue project, assemble its Vuex store trees and populate the state index. Replaces any previously indexed project.",
	}, svc.IndexWorkspace)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "resolve_state",
		Description: "Resolve a qualified store path such as cart/items or user/profile/address to the source locations defining it. Unresolvable paths return no definitions.",
	}, svc.ResolveState)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_definition",
		Description: "Find the store state referenced at a file position (mapState entry or $store.state chain) and return its definitions.",
	}, svc.FindDefinition)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_usages",
		Description: "List the mapState and $store.state references that resolve to the definitions of a qualified store path.",
	}, svc.FindUsages)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "query_state",
		Description: "Search indexed state entries by case-insensitive substring of their qualified name.",
	}, svc.QueryState)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_containers",
		Description: "List every store and store module with its namespacing, file and state keys.",
	}, svc.ListContainers)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_file",
		Description: "Re-parse one project file after an edit, from the given content or from disk. Advances the workspace revision so later resolutions reflect the change.",
	}, svc.UpdateFile)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "remove_file",
		Description: "Drop a deleted file from the workspace and advance the revision.",
	}, svc.RemoveFile)

	return server
}

// RunMCPServer starts an HTTP server exposing the MCP tools.
func RunMCPServer(ctx context.Context, svc *StoreService, addr string) error {
	server := NewMCPServer(svc)

	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// RunMCPServerStdio serves the MCP tools on stdio, blocking until stdin is
// closed or the context is cancelled.
func RunMCPServerStdio(ctx context.Context, svc *StoreService) error {
	return NewMCPServer(svc).Run(ctx, &mcp.StdioTransport{})
}
