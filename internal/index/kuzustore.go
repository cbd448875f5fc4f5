//go:build cgo

package index

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"

	kuzu "github.com/kuzudb/go-kuzu"
)

// KuzuStore implements the Store interface using KuzuDB as the graph backend.
// It requires CGO because the go-kuzu driver wraps KuzuDB's C library.
type KuzuStore struct {
	db   *kuzu.Database
	conn *kuzu.Connection
}

// Compile-time check that KuzuStore satisfies Store.
var _ Store = (*KuzuStore)(nil)

// NewKuzuStore creates a KuzuStore backed by an in-memory KuzuDB instance.
func NewKuzuStore() (*KuzuStore, error) {
	return openKuzu(":memory:")
}

// NewKuzuFileStore creates a KuzuStore backed by a file-based KuzuDB at the
// given path, so an index survives across runs.
func NewKuzuFileStore(dbPath string) (*KuzuStore, error) {
	// KuzuDB creates the leaf itself; the parent has to exist.
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("kuzu: create parent directory: %w", err)
	}
	return openKuzu(dbPath)
}

func openKuzu(path string) (*KuzuStore, error) {
	cfg := kuzu.DefaultSystemConfig()
	db, err := kuzu.OpenDatabase(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("kuzu: open database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuStore{db: db, conn: conn}, nil
}

// Close releases the KuzuDB connection and database.
func (s *KuzuStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
	return nil
}

// ---------- Schema setup ----------

// ddlStatements defines the Cypher DDL executed by InitSchema.
// Node tables must precede relationship tables.
var ddlStatements = []string{
	`CREATE NODE TABLE IF NOT EXISTS Container(
		id STRING,
		name STRING,
		namespaced BOOLEAN,
		file STRING,
		line INT64,
		state_count INT64,
		PRIMARY KEY(id)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS State(
		id STRING,
		name STRING,
		container STRING,
		type STRING,
		file STRING,
		line INT64,
		col INT64,
		PRIMARY KEY(id)
	)`,
	`CREATE REL TABLE IF NOT EXISTS HAS_MODULE(FROM Container TO Container)`,
	`CREATE REL TABLE IF NOT EXISTS HOLDS(FROM Container TO State)`,
}

// InitSchema creates all node and relationship tables if they do not exist.
func (s *KuzuStore) InitSchema(_ context.Context) error {
	for _, stmt := range ddlStatements {
		res, err := s.conn.Query(stmt)
		if err != nil {
			return fmt.Errorf("kuzu: init schema: %w", err)
		}
		res.Close()
	}
	return nil
}

// Reset deletes every node and its relationships.
func (s *KuzuStore) Reset(_ context.Context) error {
	for _, table := range []string{"State", "Container"} {
		// Table name is a fixed internal constant, not user input.
		if _, err := s.query(fmt.Sprintf("MATCH (n:%s) DETACH DELETE n", table), nil); err != nil {
			return fmt.Errorf("kuzu: reset %s: %w", table, err)
		}
	}
	return nil
}

// ---------- Write operations ----------

// AddContainer inserts a Container node.
func (s *KuzuStore) AddContainer(_ context.Context, rec ContainerRecord) error {
	return s.exec(
		`CREATE (c:Container {
			id: $id,
			name: $name,
			namespaced: $ns,
			file: $file,
			line: $line,
			state_count: $sc
		})`,
		map[string]any{
			"id":   containerID(rec.Name),
			"name": rec.Name,
			"ns":   rec.Namespaced,
			"file": rec.File,
			"line": int64(rec.Line),
			"sc":   int64(rec.StateCount),
		},
	)
}

// AddState inserts a State node and links it to its owning container.
func (s *KuzuStore) AddState(_ context.Context, rec StateRecord) error {
	err := s.exec(
		`CREATE (s:State {
			id: $id,
			name: $name,
			container: $container,
			type: $type,
			file: $file,
			line: $line,
			col: $col
		})`,
		map[string]any{
			"id":        rec.QualifiedName,
			"name":      rec.Name,
			"container": rec.Container,
			"type":      rec.Type,
			"file":      rec.File,
			"line":      int64(rec.Line),
			"col":       int64(rec.Column),
		},
	)
	if err != nil {
		return err
	}
	return s.exec(
		`MATCH (c:Container {id: $src}), (s:State {id: $dst})
		 CREATE (c)-[:HOLDS]->(s)`,
		map[string]any{"src": containerID(rec.Container), "dst": rec.QualifiedName},
	)
}

// LinkModule inserts a HAS_MODULE edge between two containers.
func (s *KuzuStore) LinkModule(_ context.Context, parent, child string) error {
	return s.exec(
		`MATCH (a:Container {id: $src}), (b:Container {id: $dst})
		 CREATE (a)-[:HAS_MODULE]->(b)`,
		map[string]any{"src": containerID(parent), "dst": containerID(child)},
	)
}

// ---------- Read operations ----------

// GetContainer retrieves a single Container node by name, or nil if not found.
func (s *KuzuStore) GetContainer(_ context.Context, name string) (*ContainerRecord, error) {
	rows, err := s.query(
		`MATCH (c:Container {id: $id})
		 RETURN c.name, c.namespaced, c.file, c.line, c.state_count`,
		map[string]any{"id": containerID(name)},
	)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rowToContainer(rows[0]), nil
}

// ListContainers returns every Container node ordered by name.
func (s *KuzuStore) ListContainers(_ context.Context) ([]ContainerRecord, error) {
	rows, err := s.query(
		`MATCH (c:Container)
		 RETURN c.name, c.namespaced, c.file, c.line, c.state_count
		 ORDER BY c.name`,
		nil,
	)
	if err != nil {
		return nil, err
	}
	out := make([]ContainerRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, *rowToContainer(r))
	}
	return out, nil
}

// QueryState returns State nodes whose qualified name contains the query,
// case-insensitively. A limit <= 0 returns all matches.
func (s *KuzuStore) QueryState(_ context.Context, queryStr string, limit int) ([]StateRecord, error) {
	lim := int64(limit)
	if limit <= 0 {
		lim = math.MaxInt32
	}
	rows, err := s.query(
		`MATCH (s:State) WHERE lower(s.id) CONTAINS lower($q)
		 RETURN s.id, s.container, s.name, s.type, s.file, s.line, s.col
		 ORDER BY s.id
		 LIMIT $lim`,
		map[string]any{
			"q":   queryStr,
			"lim": lim,
		},
	)
	if err != nil {
		return nil, err
	}
	out := make([]StateRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, StateRecord{
			QualifiedName: toString(r[0]),
			Container:     toString(r[1]),
			Name:          toString(r[2]),
			Type:          toString(r[3]),
			File:          toString(r[4]),
			Line:          toInt(r[5]),
			Column:        toInt(r[6]),
		})
	}
	return out, nil
}

// ---------- Stats ----------

// Stats returns counts of node and module-edge tables.
func (s *KuzuStore) Stats(_ context.Context) (*Stats, error) {
	containers, err := s.count("MATCH (n:Container) RETURN count(n)")
	if err != nil {
		return nil, err
	}
	states, err := s.count("MATCH (n:State) RETURN count(n)")
	if err != nil {
		return nil, err
	}
	modules, err := s.count("MATCH ()-[r:HAS_MODULE]->() RETURN count(r)")
	if err != nil {
		return nil, err
	}
	return &Stats{
		ContainerCount: containers,
		StateCount:     states,
		ModuleCount:    modules,
	}, nil
}

// ---------- Internal helpers ----------

// exec runs a parameterized Cypher statement that produces no result rows.
func (s *KuzuStore) exec(cypher string, params map[string]any) error {
	stmt, err := s.conn.Prepare(cypher)
	if err != nil {
		return fmt.Errorf("kuzu: prepare: %w", err)
	}
	defer stmt.Close()

	res, err := s.conn.Execute(stmt, params)
	if err != nil {
		return fmt.Errorf("kuzu: execute: %w", err)
	}
	res.Close()
	return nil
}

// query runs a Cypher statement and collects all result rows. Each row is a
// []any slice with values in column order.
func (s *KuzuStore) query(cypher string, params map[string]any) ([][]any, error) {
	var res *kuzu.QueryResult
	var err error

	if len(params) == 0 {
		res, err = s.conn.Query(cypher)
	} else {
		var stmt *kuzu.PreparedStatement
		stmt, err = s.conn.Prepare(cypher)
		if err != nil {
			return nil, fmt.Errorf("kuzu: prepare: %w", err)
		}
		defer stmt.Close()
		res, err = s.conn.Execute(stmt, params)
	}
	if err != nil {
		return nil, fmt.Errorf("kuzu: query: %w", err)
	}
	defer res.Close()

	var rows [][]any
	for res.HasNext() {
		tuple, err := res.Next()
		if err != nil {
			return nil, fmt.Errorf("kuzu: next: %w", err)
		}
		vals, err := tuple.GetAsSlice()
		if err != nil {
			return nil, fmt.Errorf("kuzu: row values: %w", err)
		}
		rows = append(rows, vals)
	}
	return rows, nil
}

func (s *KuzuStore) count(cypher string) (int, error) {
	rows, err := s.query(cypher, nil)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, nil
	}
	return toInt(rows[0][0]), nil
}

// containerID keys containers so the root store's empty name is still a
// usable primary key.
func containerID(name string) string {
	return "store:" + name
}

// rowToContainer converts a 5-column result row into a ContainerRecord.
// Column order: name, namespaced, file, line, state_count.
func rowToContainer(r []any) *ContainerRecord {
	return &ContainerRecord{
		Name:       toString(r[0]),
		Namespaced: toBool(r[1]),
		File:       toString(r[2]),
		Line:       toInt(r[3]),
		StateCount: toInt(r[4]),
	}
}

// ---------- Type coercion helpers ----------
// KuzuDB returns typed Go values (int64, float64, bool, string).

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func toInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case int32:
		return int(n)
	case uint64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func toBool(v any) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return false
}
