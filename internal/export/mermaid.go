package export

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dusk-indust/storeresolve/internal/index"
	"github.com/dusk-indust/storeresolve/internal/store"
)

// GenerateMermaid produces a Mermaid graph TD diagram of the store module
// tree. Containers are grouped by the file that defines them, and each
// module nesting becomes an arrow from parent to child.
func GenerateMermaid(ctx context.Context, st index.Store) (string, error) {
	containers, err := st.ListContainers(ctx)
	if err != nil {
		return "", fmt.Errorf("list containers: %w", err)
	}

	// Build node → ID mapping for Mermaid (alphanumeric only).
	nodeIDs := make(map[string]string)
	nextID := 0
	getID := func(key string) string {
		if id, ok := nodeIDs[key]; ok {
			return id
		}
		id := fmt.Sprintf("N%d", nextID)
		nextID++
		nodeIDs[key] = id
		return id
	}

	byFile := make(map[string][]index.ContainerRecord)
	known := make(map[string]bool, len(containers))
	for _, c := range containers {
		byFile[c.File] = append(byFile[c.File], c)
		known[c.Name] = true
	}
	files := make([]string, 0, len(byFile))
	for f := range byFile {
		files = append(files, f)
	}
	sort.Strings(files)

	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, f := range files {
		sb.WriteString(fmt.Sprintf("  subgraph %s[\"%s\"]\n", getID("file:"+f), shortPath(f)))
		for _, c := range byFile[f] {
			sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", getID(c.Name), label(c)))
		}
		sb.WriteString("  end\n")
	}

	for _, c := range containers {
		if c.Name == "" {
			continue
		}
		parent := parentName(c.Name)
		if !known[parent] {
			continue
		}
		sb.WriteString(fmt.Sprintf("  %s --> %s\n", getID(parent), getID(c.Name)))
	}

	return sb.String(), nil
}

func label(c index.ContainerRecord) string {
	name := c.Name
	if name == "" {
		name = "(root)"
	}
	if c.Namespaced {
		name += " [ns]"
	}
	return fmt.Sprintf("%s: %d state", name, c.StateCount)
}

func parentName(name string) string {
	if i := strings.LastIndex(name, store.Separator); i >= 0 {
		return name[:i]
	}
	return ""
}

// shortPath returns the last 2 path segments for readability.
func shortPath(path string) string {
	parts := strings.Split(filepath.ToSlash(path), "/")
	if len(parts) <= 2 {
		return path
	}
	return strings.Join(parts[len(parts)-2:], "/")
}
