// Package library persists reference outlines and generated outlines in a
// SQLite database.
//
// References keep their insertion order: listing and "first reference"
// semantics follow the order in which references were added.
package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a reference or outline does not exist.
var ErrNotFound = errors.New("not found")

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS reference_outlines (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		filename TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL DEFAULT 'text',
		content TEXT NOT NULL,
		embedding TEXT NOT NULL DEFAULT '[]',
		created_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS generated_outlines (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		objectives TEXT NOT NULL DEFAULT '',
		total_duration INTEGER NOT NULL,
		specification TEXT NOT NULL DEFAULT '{}',
		content TEXT NOT NULL,
		reference_id TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
}

// Store provides access to the outline library.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// Open opens (creating if needed) the database at path and applies the
// schema. A nil logger disables logging.
func Open(ctx context.Context, path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("create library directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection: serializes writers and keeps :memory: databases shared.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, logger: logger, now: time.Now}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	s.updateGauges(ctx)

	logger.Debug("library opened", zap.String("path", path))
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		return fmt.Errorf("set busy timeout: %w", err)
	}
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// AddReference stores ref and returns it with ID and CreatedAt assigned.
// An ID already set on ref is kept.
func (s *Store) AddReference(ctx context.Context, ref Reference) (Reference, error) {
	if ref.ID == "" {
		ref.ID = uuid.NewString()
	}
	if ref.Source == "" {
		ref.Source = "text"
	}
	ref.CreatedAt = s.now().UTC()

	embedding, err := json.Marshal(nonNilVector(ref.Embedding))
	if err != nil {
		return Reference{}, fmt.Errorf("encode embedding: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reference_outlines (id, title, description, filename, source, content, embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, ref.ID, ref.Title, ref.Description, ref.Filename, ref.Source, ref.Content, string(embedding), ref.CreatedAt.UnixNano())
	if err != nil {
		return Reference{}, fmt.Errorf("insert reference: %w", err)
	}

	s.updateGauges(ctx)
	s.logger.Debug("reference stored", zap.String("reference_id", ref.ID), zap.String("title", ref.Title))
	return ref, nil
}

const referenceColumns = `id, title, description, filename, source, content, embedding, created_at`

// GetReference returns the reference with id.
func (s *Store) GetReference(ctx context.Context, id string) (Reference, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+referenceColumns+` FROM reference_outlines WHERE id = ?`, id)
	ref, err := scanReference(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Reference{}, fmt.Errorf("reference %s: %w", id, ErrNotFound)
	}
	return ref, err
}

// ListReferences returns every reference in insertion order.
func (s *Store) ListReferences(ctx context.Context) ([]Reference, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+referenceColumns+` FROM reference_outlines ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("query references: %w", err)
	}
	defer rows.Close()

	refs := []Reference{}
	for rows.Next() {
		ref, err := scanReference(rows)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// GetReferences returns the references with ids in the order given. Unknown
// ids are skipped.
func (s *Store) GetReferences(ctx context.Context, ids []string) ([]Reference, error) {
	refs := make([]Reference, 0, len(ids))
	for _, id := range ids {
		ref, err := s.GetReference(ctx, id)
		if errors.Is(err, ErrNotFound) {
			s.logger.Debug("skipping unknown reference", zap.String("reference_id", id))
			continue
		}
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// DeleteReference removes the reference with id.
func (s *Store) DeleteReference(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reference_outlines WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete reference: %w", err)
	}
	if err := requireRow(res, "reference", id); err != nil {
		return err
	}
	s.updateGauges(ctx)
	return nil
}

// SaveOutline stores a generated outline and returns it with ID and
// timestamps assigned.
func (s *Store) SaveOutline(ctx context.Context, o Outline) (Outline, error) {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	now := s.now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now

	spec := string(o.Specification)
	if spec == "" {
		spec = "{}"
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO generated_outlines (id, title, objectives, total_duration, specification, content, reference_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, o.ID, o.Title, o.Objectives, o.TotalDuration, spec, o.Content, o.ReferenceID, now.UnixNano(), now.UnixNano())
	if err != nil {
		return Outline{}, fmt.Errorf("insert outline: %w", err)
	}

	s.updateGauges(ctx)
	s.logger.Debug("outline stored", zap.String("outline_id", o.ID), zap.String("title", o.Title))
	return o, nil
}

const outlineColumns = `id, title, objectives, total_duration, specification, content, reference_id, created_at, updated_at`

// GetOutline returns the generated outline with id.
func (s *Store) GetOutline(ctx context.Context, id string) (Outline, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+outlineColumns+` FROM generated_outlines WHERE id = ?`, id)
	o, err := scanOutline(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Outline{}, fmt.Errorf("outline %s: %w", id, ErrNotFound)
	}
	return o, err
}

// ListOutlines returns generated outlines, newest first.
func (s *Store) ListOutlines(ctx context.Context) ([]Outline, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+outlineColumns+` FROM generated_outlines ORDER BY seq DESC`)
	if err != nil {
		return nil, fmt.Errorf("query outlines: %w", err)
	}
	defer rows.Close()

	outlines := []Outline{}
	for rows.Next() {
		o, err := scanOutline(rows)
		if err != nil {
			return nil, err
		}
		outlines = append(outlines, o)
	}
	return outlines, rows.Err()
}

// UpdateOutlineContent replaces the text of a generated outline.
func (s *Store) UpdateOutlineContent(ctx context.Context, id, content string) (Outline, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE generated_outlines SET content = ?, updated_at = ? WHERE id = ?`,
		content, s.now().UTC().UnixNano(), id)
	if err != nil {
		return Outline{}, fmt.Errorf("update outline: %w", err)
	}
	if err := requireRow(res, "outline", id); err != nil {
		return Outline{}, err
	}
	return s.GetOutline(ctx, id)
}

// DeleteOutline removes the generated outline with id.
func (s *Store) DeleteOutline(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM generated_outlines WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete outline: %w", err)
	}
	if err := requireRow(res, "outline", id); err != nil {
		return err
	}
	s.updateGauges(ctx)
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReference(row scanner) (Reference, error) {
	var ref Reference
	var embedding string
	var createdAt int64
	if err := row.Scan(&ref.ID, &ref.Title, &ref.Description, &ref.Filename,
		&ref.Source, &ref.Content, &embedding, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Reference{}, err
		}
		return Reference{}, fmt.Errorf("scan reference: %w", err)
	}
	if err := json.Unmarshal([]byte(embedding), &ref.Embedding); err != nil {
		return Reference{}, fmt.Errorf("decode embedding of %s: %w", ref.ID, err)
	}
	ref.CreatedAt = time.Unix(0, createdAt).UTC()
	return ref, nil
}

func scanOutline(row scanner) (Outline, error) {
	var o Outline
	var spec string
	var createdAt, updatedAt int64
	if err := row.Scan(&o.ID, &o.Title, &o.Objectives, &o.TotalDuration, &spec,
		&o.Content, &o.ReferenceID, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Outline{}, err
		}
		return Outline{}, fmt.Errorf("scan outline: %w", err)
	}
	o.Specification = json.RawMessage(spec)
	o.CreatedAt = time.Unix(0, createdAt).UTC()
	o.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return o, nil
}

func requireRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %s: rows affected: %w", kind, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}

func (s *Store) updateGauges(ctx context.Context) {
	var refs, outlines int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reference_outlines`).Scan(&refs); err != nil {
		s.logger.Warn("count references", zap.Error(err))
		return
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM generated_outlines`).Scan(&outlines); err != nil {
		s.logger.Warn("count outlines", zap.Error(err))
		return
	}
	ReferencesTotal.Set(float64(refs))
	OutlinesTotal.Set(float64(outlines))
}

func nonNilVector(v []float32) []float32 {
	if v == nil {
		return []float32{}
	}
	return v
}
