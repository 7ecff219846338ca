package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"

	_ "github.com/lib/pq"

	"github.com/matzehuels/placetree/pkg/errors"
	"github.com/matzehuels/placetree/pkg/hierarchy"
)

//go:embed migrations/*.sql
var migrations embed.FS

// PostgresStore keeps one row per location in the locations table. The
// position column holds the snapshot order.
type PostgresStore struct {
	db *sql.DB
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NewPostgresStore connects to dsn and applies pending migrations.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres store: empty connection url")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s := &PostgresStore{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) Snapshot(ctx context.Context) ([]hierarchy.Node, error) {
	return readRows(ctx, s.db)
}

func (s *PostgresStore) Move(ctx context.Context, intent hierarchy.Intent) ([]hierarchy.Node, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin move: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `LOCK TABLE locations IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return nil, fmt.Errorf("lock locations: %w", err)
	}
	nodes, err := readRows(ctx, tx)
	if err != nil {
		return nil, err
	}
	out, err := apply(ctx, nodes, intent)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `UPDATE locations SET parent_id = $2 WHERE id = $1`,
		intent.LocationID, nullString(intent.ParentID)); err != nil {
		return nil, fmt.Errorf("update parent of %s: %w", intent.LocationID, err)
	}
	for _, c := range positionChanges(nodes, out) {
		if _, err := tx.ExecContext(ctx, `UPDATE locations SET position = $2 WHERE id = $1`, c.id, c.position); err != nil {
			return nil, fmt.Errorf("update position of %s: %w", c.id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit move: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Replace(ctx context.Context, nodes []hierarchy.Node) error {
	if err := hierarchy.Validate(nodes); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM locations`); err != nil {
		return fmt.Errorf("clear locations: %w", err)
	}
	for i, n := range nodes {
		if err := insertRow(ctx, tx, i, n); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error { return s.db.Close() }

// =============================================================================
// Rows
// =============================================================================

func readRows(ctx context.Context, q querier) ([]hierarchy.Node, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, parent_id, is_explicit_root, meta, entity_ids, modules
		FROM locations ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("query locations: %w", err)
	}
	defer rows.Close()

	var nodes []hierarchy.Node
	for rows.Next() {
		var (
			r                     record
			parent                sql.NullString
			meta, entity, modules []byte
		)
		if err := rows.Scan(&r.ID, &r.Name, &parent, &r.ExplicitRoot, &meta, &entity, &modules); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		r.ParentID = parent.String
		if err := decodeColumns(&r, meta, entity, modules); err != nil {
			return nil, err
		}
		nodes = append(nodes, r.node())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read locations: %w", err)
	}
	if err := hierarchy.Validate(nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

func insertRow(ctx context.Context, q querier, position int, n hierarchy.Node) error {
	meta, entity, modules, err := encodeColumns(toRecord(n))
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO locations (id, position, name, parent_id, is_explicit_root, meta, entity_ids, modules)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		n.ID, position, n.Name, nullString(n.ParentID), n.ExplicitRoot, meta, entity, modules)
	if err != nil {
		return fmt.Errorf("insert location %q: %w", n.ID, err)
	}
	return nil
}

// encodeColumns renders the opaque payloads as JSONB values. Empty payloads
// are stored as NULL.
func encodeColumns(r record) (meta, entity, modules []byte, err error) {
	enc := func(empty bool, v any) ([]byte, error) {
		if empty {
			return nil, nil
		}
		data, err := json.Marshal(v)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "encode location %q", r.ID)
		}
		return data, nil
	}
	if meta, err = enc(len(r.Meta) == 0, r.Meta); err != nil {
		return
	}
	if entity, err = enc(len(r.EntityIDs) == 0, r.EntityIDs); err != nil {
		return
	}
	modules, err = enc(len(r.Modules) == 0, r.Modules)
	return
}

func decodeColumns(r *record, meta, entity, modules []byte) error {
	dec := func(data []byte, v any) error {
		if len(data) == 0 {
			return nil
		}
		if err := json.Unmarshal(data, v); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode location %q", r.ID)
		}
		return nil
	}
	if err := dec(meta, &r.Meta); err != nil {
		return err
	}
	if err := dec(entity, &r.EntityIDs); err != nil {
		return err
	}
	return dec(modules, &r.Modules)
}

type positionChange struct {
	id       string
	position int
}

// positionChanges lists the nodes whose index differs between before and
// after. A move shifts only the span between the old and new block.
func positionChanges(before, after []hierarchy.Node) []positionChange {
	old := make(map[string]int, len(before))
	for i, n := range before {
		old[n.ID] = i
	}
	var out []positionChange
	for i, n := range after {
		if p, ok := old[n.ID]; !ok || p != i {
			out = append(out, positionChange{id: n.ID, position: i})
		}
	}
	return out
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// =============================================================================
// Migrations
// =============================================================================

// migrate applies each embedded migration once, recording it in
// schema_migrations.
func (s *PostgresStore) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT NOW()
		)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	files, err := fs.ReadDir(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	for _, f := range files {
		if err := s.runMigration(ctx, f.Name()); err != nil {
			return fmt.Errorf("migration %s: %w", f.Name(), err)
		}
	}
	return nil
}

func (s *PostgresStore) runMigration(ctx context.Context, name string) error {
	var applied bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, name).Scan(&applied)
	if err != nil || applied {
		return err
	}

	content, err := migrations.ReadFile(path.Join("migrations", name))
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, string(content)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, name); err != nil {
		return err
	}
	return tx.Commit()
}

var _ Store = (*PostgresStore)(nil)
