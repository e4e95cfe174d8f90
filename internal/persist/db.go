package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/l1jgo/armory/internal/config"
	"github.com/l1jgo/armory/internal/item"
	"go.uber.org/zap"
)

// DB is the Postgres inventory store over a pgx connection pool.
type DB struct {
	Pool *pgxpool.Pool
	log  *zap.Logger
}

func NewDB(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*DB, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	}
	poolCfg.MinConns = int32(cfg.MaxIdleConns)
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to db: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return &DB{Pool: pool, log: log}, nil
}

// Migrate applies the Postgres migrations.
func (db *DB) Migrate(ctx context.Context) error {
	sqlDB := stdlib.OpenDBFromPool(db.Pool)
	defer sqlDB.Close()
	return RunMigrations(ctx, sqlDB, "postgres")
}

// LoadInventory returns an actor's slots ordered by index.
func (db *DB) LoadInventory(ctx context.Context, actor string) ([]item.Stack, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT slot, item_id, quantity FROM inventory_stacks
		 WHERE actor_id = $1 ORDER BY slot`, actor,
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

// SaveInventory replaces all slots of an actor (delete + batch insert).
func (db *DB) SaveInventory(ctx context.Context, actor string, stacks []item.Stack) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("save inventory %s: begin: %w", actor, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM inventory_stacks WHERE actor_id = $1`, actor); err != nil {
		return fmt.Errorf("save inventory %s: delete: %w", actor, err)
	}

	batch := &pgx.Batch{}
	for _, r := range toRows(stacks) {
		batch.Queue(
			`INSERT INTO inventory_stacks (actor_id, slot, item_id, quantity) VALUES ($1, $2, $3, $4)`,
			actor, r.slot, r.itemID, r.quantity,
		)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("save inventory %s: insert: %w", actor, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("save inventory %s: commit: %w", actor, err)
	}
	return nil
}

func (db *DB) Close() error {
	db.Pool.Close()
	return nil
}

type slotRow struct {
	slot     int
	itemID   string
	quantity int
}

// toRows flattens slots, trailing empty slots dropped.
func toRows(stacks []item.Stack) []slotRow {
	end := len(stacks)
	for end > 0 && stacks[end-1].IsEmpty() {
		end--
	}
	rows := make([]slotRow, 0, end)
	for i, s := range stacks[:end] {
		if s.IsEmpty() {
			rows = append(rows, slotRow{slot: i})
			continue
		}
		rows = append(rows, slotRow{slot: i, itemID: string(s.ID), quantity: s.Quantity})
	}
	return rows
}

// fromRows rebuilds the slot list; gaps become empty slots.
func fromRows(rows []slotRow) []item.Stack {
	n := 0
	for _, r := range rows {
		if r.slot+1 > n {
			n = r.slot + 1
		}
	}
	out := make([]item.Stack, n)
	for _, r := range rows {
		if r.slot < 0 || r.itemID == "" || r.quantity <= 0 {
			continue
		}
		out[r.slot] = item.Stack{ID: item.ID(r.itemID), Quantity: r.quantity}
	}
	return out
}
