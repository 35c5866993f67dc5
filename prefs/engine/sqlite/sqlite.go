// Package sqlite is a prefs.Engine backed by a SQLite database. Several
// suites can share one database file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pnewell/skip-foundation/prefs"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS preferences (
	suite TEXT NOT NULL,
	key   TEXT NOT NULL,
	kind  TEXT NOT NULL,
	value TEXT NOT NULL,
	PRIMARY KEY (suite, key)
)`

// Engine stores one suite's preferences as rows of (suite, key, kind,
// value). Change notifications cover commits made through this Engine only.
type Engine struct {
	prefs.Broadcaster

	db     *sql.DB
	suite  string
	logger *zap.Logger
}

var _ prefs.Engine = (*Engine)(nil)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for commit diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Open opens the database at path and binds the engine to suite.
func Open(path, suite string, opts ...Option) (*Engine, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite: path is required")
	}
	if strings.TrimSpace(suite) == "" {
		return nil, fmt.Errorf("sqlite: suite is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// SQLite has a single writer; one connection keeps commits serialized.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: create schema: %w", err)
	}

	e := &Engine{db: db, suite: suite, logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e, nil
}

// Close releases the database handle.
func (e *Engine) Close() error {
	if e == nil || e.db == nil {
		return nil
	}
	return e.db.Close()
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (e *Engine) Get(ctx context.Context, key string) (prefs.Value, bool, error) {
	return get(ctx, e.db, e.suite, key)
}

func get(ctx context.Context, q querier, suite, key string) (prefs.Value, bool, error) {
	var kind, text string
	err := q.QueryRowContext(ctx,
		`SELECT kind, value FROM preferences WHERE suite = ? AND key = ?`,
		suite, key,
	).Scan(&kind, &text)
	if errors.Is(err, sql.ErrNoRows) {
		return prefs.Value{}, false, nil
	}
	if err != nil {
		return prefs.Value{}, false, fmt.Errorf("sqlite: get %q: %w", key, err)
	}
	value, err := prefs.DecodeText(kind, text)
	if err != nil {
		return prefs.Value{}, false, fmt.Errorf("sqlite: get %q: %w", key, err)
	}
	return value, true, nil
}

func (e *Engine) All(ctx context.Context) (map[string]prefs.Value, error) {
	rows, err := e.db.QueryContext(ctx,
		`SELECT key, kind, value FROM preferences WHERE suite = ?`, e.suite)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list: %w", err)
	}
	defer rows.Close()

	out := map[string]prefs.Value{}
	for rows.Next() {
		var key, kind, text string
		if err := rows.Scan(&key, &kind, &text); err != nil {
			return nil, fmt.Errorf("sqlite: scan: %w", err)
		}
		value, err := prefs.DecodeText(kind, text)
		if err != nil {
			return nil, fmt.Errorf("sqlite: entry %q: %w", key, err)
		}
		out[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list: %w", err)
	}
	return out, nil
}

func (e *Engine) Edit() prefs.Editor {
	return prefs.NewBatch(e.commit)
}

func (e *Engine) commit(ctx context.Context, edits []prefs.Edit) error {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var changed []string
	for _, edit := range edits {
		existing, ok, err := get(ctx, tx, e.suite, edit.Key)
		if err != nil {
			return err
		}
		if edit.Remove {
			if !ok {
				continue
			}
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM preferences WHERE suite = ? AND key = ?`, e.suite, edit.Key); err != nil {
				return fmt.Errorf("sqlite: remove %q: %w", edit.Key, err)
			}
			changed = append(changed, edit.Key)
			continue
		}
		if ok && existing.Equal(edit.Value) {
			continue
		}
		kind, text, err := prefs.EncodeText(edit.Value)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO preferences (suite, key, kind, value) VALUES (?, ?, ?, ?)
ON CONFLICT (suite, key) DO UPDATE SET kind = excluded.kind, value = excluded.value`,
			e.suite, edit.Key, kind, text); err != nil {
			return fmt.Errorf("sqlite: put %q: %w", edit.Key, err)
		}
		changed = append(changed, edit.Key)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	if len(changed) > 0 {
		e.logger.Debug("sqlite: committed", zap.String("suite", e.suite), zap.Strings("keys", changed))
	}
	e.Notify(changed...)
	return nil
}
