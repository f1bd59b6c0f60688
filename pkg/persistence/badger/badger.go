package badger

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	badgerdb "github.com/dgraph-io/badger/v3"
	"go.uber.org/zap"

	"github.com/harbour-fi/ramp-go/pkg/persistence"
)

const (
	keyAddresses         = "addresses"
	keySchemaVersion     = "metadata:schema_version"
	currentSchemaVersion = "v1"

	gcInterval = 5 * time.Minute
)

// BadgerAddressStore keeps the address book in an embedded Badger database,
// for a CLI that should remember addresses across runs without a server.
type BadgerAddressStore struct {
	db       *badgerdb.DB
	logger   *zap.Logger
	gcCancel context.CancelFunc
	gcWg     sync.WaitGroup
	mu       sync.RWMutex
	closed   bool

	// serializes read-modify-write of the address list
	writeMu sync.Mutex
}

var _ persistence.IAddressStore = (*BadgerAddressStore)(nil)

// NewBadgerAddressStore opens (or creates) the database at dataPath with
// synchronous writes and starts value log GC in the background.
func NewBadgerAddressStore(dataPath string, logger *zap.Logger) (*BadgerAddressStore, error) {
	absPath, err := filepath.Abs(dataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	opts := badgerdb.DefaultOptions(absPath)
	opts.Logger = newBadgerLogger(logger)
	opts.SyncWrites = true
	opts.CompactL0OnClose = true
	opts.NumVersionsToKeep = 1

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database at %s: %w", absPath, err)
	}

	bs := &BadgerAddressStore{
		db:     db,
		logger: logger,
	}
	if err := bs.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	bs.gcCancel = cancel
	bs.gcWg.Add(1)
	go bs.runGC(ctx)

	logger.Sugar().Infow("Badger address store initialized", "path", absPath)
	return bs, nil
}

func (b *BadgerAddressStore) initSchema() error {
	return b.db.Update(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(keySchemaVersion))
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return txn.Set([]byte(keySchemaVersion), []byte(currentSchemaVersion))
		}
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}

		existing, err := item.ValueCopy(nil)
		if err != nil {
			return fmt.Errorf("failed to read schema version value: %w", err)
		}
		if string(existing) != currentSchemaVersion {
			return fmt.Errorf("unsupported schema version: %s (expected: %s)", existing, currentSchemaVersion)
		}
		return nil
	})
}

func (b *BadgerAddressStore) runGC(ctx context.Context) {
	defer b.gcWg.Done()

	ticker := time.NewTicker(gcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			err := b.db.RunValueLogGC(0.5)
			if err != nil && !errors.Is(err, badgerdb.ErrNoRewrite) {
				b.logger.Sugar().Warnw("Badger GC error", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (b *BadgerAddressStore) AddAddresses(addresses []string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return persistence.ErrStoreClosed
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	err := b.db.Update(func(txn *badgerdb.Txn) error {
		existing, err := loadAddresses(txn)
		if err != nil {
			return err
		}
		data, err := persistence.MarshalAddresses(persistence.MergeAddresses(existing, addresses))
		if err != nil {
			return err
		}
		return txn.Set([]byte(keyAddresses), data)
	})
	if err != nil {
		return fmt.Errorf("failed to add addresses: %w", err)
	}
	return nil
}

func (b *BadgerAddressStore) ListAddresses() ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, persistence.ErrStoreClosed
	}

	var addresses []string
	err := b.db.View(func(txn *badgerdb.Txn) error {
		var err error
		addresses, err = loadAddresses(txn)
		return err
	})
	if err != nil {
		return nil, err
	}
	return addresses, nil
}

func loadAddresses(txn *badgerdb.Txn) ([]string, error) {
	item, err := txn.Get([]byte(keyAddresses))
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read addresses: %w", err)
	}
	data, err := item.ValueCopy(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read addresses value: %w", err)
	}
	return persistence.UnmarshalAddresses(data)
}

func (b *BadgerAddressStore) ClearAddresses() error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return persistence.ErrStoreClosed
	}

	err := b.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Delete([]byte(keyAddresses))
	})
	if err != nil {
		return fmt.Errorf("failed to clear addresses: %w", err)
	}
	return nil
}

func (b *BadgerAddressStore) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	if b.gcCancel != nil {
		b.gcCancel()
	}
	b.gcWg.Wait()

	if err := b.db.Close(); err != nil {
		return fmt.Errorf("failed to close badger database: %w", err)
	}
	b.logger.Sugar().Info("Badger address store closed")
	return nil
}

func (b *BadgerAddressStore) HealthCheck() error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return persistence.ErrStoreClosed
	}

	return b.db.View(func(txn *badgerdb.Txn) error {
		_, err := txn.Get([]byte(keySchemaVersion))
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return fmt.Errorf("schema version not found - database may be corrupted")
		}
		return err
	})
}
