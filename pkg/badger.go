package brain

import (
	"context"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
)

// BadgerKV persists records in an embedded badger database, so that
// populated keys survive between runs.
type BadgerKV struct {
	db *badger.DB
}

// OpenBadgerKV opens (or creates) a badger database at path. An empty path
// opens an in-memory database.
func OpenBadgerKV(path string, logger Logger, verbosity int) (*BadgerKV, error) {
	if logger == nil {
		logger = nopLogger{}
	}
	opts := badger.DefaultOptions(path).WithLogger(badgerLogger{logger: logger, verbosity: verbosity})
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerKV{db: db}, nil
}

func (b *BadgerKV) Get(_ context.Context, key string) ([]byte, error) {
	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return value, err
}

func (b *BadgerKV) Has(_ context.Context, key string) (bool, error) {
	err := b.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Insert checks and writes in one transaction; a concurrent insert of the
// same key makes one of the two commits fail with a conflict, reported as
// ErrExists.
func (b *BadgerKV) Insert(_ context.Context, key string, value []byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		if err == nil {
			return fmt.Errorf("%s: %w", key, ErrExists)
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set([]byte(key), value)
	})
	if errors.Is(err, badger.ErrConflict) {
		return fmt.Errorf("%s: %w", key, ErrExists)
	}
	return err
}

func (b *BadgerKV) Scan(ctx context.Context, prefix string, fn func(key string, value []byte) error) error {
	return b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if err := fn(string(item.KeyCopy(nil)), value); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *BadgerKV) Close() error {
	return b.db.Close()
}
