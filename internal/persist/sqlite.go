package persist

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/l1jgo/armory/internal/item"
	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

// SQLiteStore is the single-file inventory store.
type SQLiteStore struct {
	db  *sql.DB
	log *zap.Logger
}

// OpenSQLite opens (creating if needed) the database at path and applies
// the SQLite migrations.
func OpenSQLite(ctx context.Context, path string, log *zap.Logger) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("empty sqlite path")
	}
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, p := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	} {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite pragma: %w", err)
		}
	}
	if err := RunMigrations(ctx, db, "sqlite3"); err != nil {
		_ = db.Close()
		return nil, err
	}

	log.Info("sqlite store opened", zap.String("path", path))
	return &SQLiteStore{db: db, log: log}, nil
}

func (s *SQLiteStore) LoadInventory(ctx context.Context, actor string) ([]item.Stack, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT slot, item_id, quantity FROM inventory_stacks
		 WHERE actor_id = ? ORDER BY slot`, actor,
	)
	if err != nil {
		return nil, fmt.Errorf("load inventory %s: %w", actor, err)
	}
	defer rows.Close()

	var rs []slotRow
	for rows.Next() {
		var r slotRow
		if err := rows.Scan(&r.slot, &r.itemID, &r.quantity); err != nil {
			return nil, fmt.Errorf("scan inventory %s: %w", actor, err)
		}
		rs = append(rs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load inventory %s: %w", actor, err)
	}
	return fromRows(rs), nil
}

func (s *SQLiteStore) SaveInventory(ctx context.Context, actor string, stacks []item.Stack) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save inventory %s: begin: %w", actor, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM inventory_stacks WHERE actor_id = ?`, actor); err != nil {
		return fmt.Errorf("save inventory %s: delete: %w", actor, err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO inventory_stacks (actor_id, slot, item_id, quantity) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("save inventory %s: prepare: %w", actor, err)
	}
	defer stmt.Close()
	for _, r := range toRows(stacks) {
		if _, err := stmt.ExecContext(ctx, actor, r.slot, r.itemID, r.quantity); err != nil {
			return fmt.Errorf("save inventory %s: insert: %w", actor, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save inventory %s: commit: %w", actor, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
