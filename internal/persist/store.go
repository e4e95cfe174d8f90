package persist

import (
	"context"
	"fmt"
	"sync"

	"github.com/l1jgo/armory/internal/config"
	"github.com/l1jgo/armory/internal/item"
	"go.uber.org/zap"
)

// Store persists each actor's inventory slots. Empty slots are stored so
// indices survive a reload.
type Store interface {
	LoadInventory(ctx context.Context, actor string) ([]item.Stack, error)
	SaveInventory(ctx context.Context, actor string, stacks []item.Stack) error
	Close() error
}

// Open connects the store selected by cfg.Storage.Backend and applies its
// migrations.
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (Store, error) {
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		return NewMemoryStore(), nil
	case config.BackendSQLite:
		return OpenSQLite(ctx, cfg.Database.SQLitePath, log)
	case config.BackendPostgres:
		db, err := NewDB(ctx, cfg.Database, log)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// MemoryStore keeps inventories in process memory. Used when persistence is
// disabled and in tests.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string][]item.Stack
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]item.Stack)}
}

func (s *MemoryStore) LoadInventory(_ context.Context, actor string) ([]item.Stack, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]item.Stack(nil), s.data[actor]...), nil
}

func (s *MemoryStore) SaveInventory(_ context.Context, actor string, stacks []item.Stack) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[actor] = append([]item.Stack(nil), stacks...)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
