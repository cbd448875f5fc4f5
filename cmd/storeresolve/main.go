package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/dusk-indust/storeresolve/internal/config"
	"github.com/dusk-indust/storeresolve/internal/export"
	"github.com/dusk-indust/storeresolve/internal/index"
	"github.com/dusk-indust/storeresolve/internal/mcptools"
	"github.com/dusk-indust/storeresolve/internal/store"
	"github.com/dusk-indust/storeresolve/internal/workspace"
)

// CLI flags parsed from command line.
type cliFlags struct {
	ProjectRoot string
	Addr        string
	Stdio       bool
	Verbose     bool
	Version     bool
}

// version is set by goreleaser at build time.
var version = "dev"

const usage = `usage: storeresolve [flags] <command> [args]

commands:
  resolve <name>               definitions of a qualified state path
  definition <file:line:col>   definitions of the reference at a position
  usages <name>                references resolving to a state path
  containers                   every store and module
  query <pattern> [limit]      search indexed state entries
  stats                        workspace counts
  export                       dump the state index as JSON
  diagram                      Mermaid diagram of the module tree
  serve-mcp                    serve the MCP tools (HTTP, or stdio with -stdio)
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	var flags cliFlags

	fs := flag.NewFlagSet("storeresolve", flag.ContinueOnError)
	fs.StringVar(&flags.ProjectRoot, "project-root", ".", "path to the target project")
	fs.StringVar(&flags.Addr, "addr", "", "listen address for serve-mcp (default from config or :8765)")
	fs.BoolVar(&flags.Stdio, "stdio", false, "serve-mcp on stdin/stdout instead of HTTP")
	fs.BoolVar(&flags.Verbose, "verbose", false, "enable verbose output")
	fs.BoolVar(&flags.Version, "version", false, "print version and exit")
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if flags.Version {
		fmt.Fprintln(out, version)
		return nil
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return errors.New("no command given")
	}
	cmd, cmdArgs := rest[0], rest[1:]

	root, err := filepath.Abs(flags.ProjectRoot)
	if err != nil {
		return fmt.Errorf("resolve project root: %w", err)
	}
	cfg, err := config.Load(root)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if flags.Verbose {
		cfg.Verbose = true
	}

	idx, err := openIndex(cfg.ResolvedIndexPath(root))
	if err != nil {
		return err
	}
	defer idx.Close()
	if err := idx.InitSchema(ctx); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}

	opts := workspace.Options{
		ExcludeDirs: cfg.ExcludeDirs,
		Aliases:     cfg.Aliases,
		Parallelism: cfg.Parallelism,
		Verbose:     cfg.Verbose,
		Index:       idx,
	}
	ws, err := workspace.Open(ctx, root, opts)
	if err != nil {
		return err
	}
	defer ws.Close()

	switch cmd {
	case "resolve":
		name, err := oneArg(cmd, cmdArgs)
		if err != nil {
			return err
		}
		e := ws.NewElement(name)
		return writeJSON(out, mcptools.ResolveStateOutput{
			QualifiedName: name,
			Definitions:   definitions(e.Candidates()),
			Revision:      ws.Revision(),
		})

	case "definition":
		pos, err := oneArg(cmd, cmdArgs)
		if err != nil {
			return err
		}
		file, line, col, err := parsePosition(pos)
		if err != nil {
			return err
		}
		res := mcptools.FindDefinitionOutput{Definitions: []store.Location{}}
		if e := ws.ElementAt(file, line, col); e != nil {
			ref := e.Provider()
			res = mcptools.FindDefinitionOutput{
				Found:         true,
				Name:          e.Name(),
				QualifiedName: e.QualifiedStoreName(),
				Reference:     &ref,
				Definitions:   definitions(e.Candidates()),
			}
		}
		return writeJSON(out, res)

	case "usages":
		name, err := oneArg(cmd, cmdArgs)
		if err != nil {
			return err
		}
		usages := ws.Usages(name)
		if usages == nil {
			usages = []workspace.Usage{}
		}
		return writeJSON(out, mcptools.FindUsagesOutput{Usages: usages, Total: len(usages)})

	case "containers":
		return writeJSON(out, mcptools.ListContainersOutput{Containers: ws.Containers()})

	case "query":
		return runQuery(ctx, idx, cmdArgs, out)

	case "stats":
		return writeJSON(out, ws.Stats())

	case "export":
		data, err := export.ExportIndex(ctx, idx, root)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		return writeJSON(out, data)

	case "diagram":
		mermaid, err := export.GenerateMermaid(ctx, idx)
		if err != nil {
			return err
		}
		_, err = io.WriteString(out, mermaid)
		return err

	case "serve-mcp":
		svc := mcptools.NewStoreService(idx, opts)
		svc.SetWorkspace(ws)
		if flags.Stdio {
			return mcptools.RunMCPServerStdio(ctx, svc)
		}
		addr := flags.Addr
		if addr == "" {
			addr = cfg.MCPAddr
		}
		if addr == "" {
			addr = ":8765"
		}
		if cfg.Verbose {
			fmt.Fprintf(os.Stderr, "serving MCP on %s\n", addr)
		}
		return mcptools.RunMCPServer(ctx, svc, addr)

	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func runQuery(ctx context.Context, idx index.Store, args []string, out io.Writer) error {
	if len(args) == 0 || len(args) > 2 {
		return errors.New("query takes <pattern> [limit]")
	}
	limit := 20
	if len(args) == 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid limit %q: %w", args[1], err)
		}
		limit = n
	}
	states, err := idx.QueryState(ctx, args[0], limit)
	if err != nil {
		return fmt.Errorf("query state: %w", err)
	}
	return writeJSON(out, mcptools.QueryStateOutput{States: states, Total: len(states)})
}

func oneArg(cmd string, args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%s takes exactly one argument", cmd)
	}
	return args[0], nil
}

// parsePosition splits "path/to/file.vue:12:7". The file part may itself
// contain colons.
func parsePosition(s string) (file string, line, col int, err error) {
	parts := strings.Split(s, ":")
	if len(parts) < 3 {
		return "", 0, 0, fmt.Errorf("position %q is not file:line:col", s)
	}
	n := len(parts)
	line, err = strconv.Atoi(parts[n-2])
	if err != nil || line <= 0 {
		return "", 0, 0, fmt.Errorf("invalid line in %q", s)
	}
	col, err = strconv.Atoi(parts[n-1])
	if err != nil || col <= 0 {
		return "", 0, 0, fmt.Errorf("invalid column in %q", s)
	}
	return filepath.ToSlash(strings.Join(parts[:n-2], ":")), line, col, nil
}

// definitions keeps unresolved results as [] rather than null in output.
func definitions(locs []store.Location) []store.Location {
	if locs == nil {
		return []store.Location{}
	}
	return locs
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
