package brain

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// KV is the persistence layer behind a Store. Inserts never overwrite: a
// second insert of the same key fails with ErrExists.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Has(ctx context.Context, key string) (bool, error)
	Insert(ctx context.Context, key string, value []byte) error
	// Scan calls fn for every key with the given prefix in ascending key
	// order.
	Scan(ctx context.Context, prefix string, fn func(key string, value []byte) error) error
	Close() error
}

// Store holds the computed records of every pipeline stage.
type Store struct {
	kv KV
}

func NewStore(kv KV) *Store {
	return &Store{kv: kv}
}

// OpenStore opens the backend selected in the configuration. The caller
// owns the returned store and must Close it.
func OpenStore(ctx context.Context, config Configuration, logger Logger) (*Store, error) {
	switch config.StoreBackend {
	case MemoryBackend:
		return NewStore(NewMemoryKV()), nil
	case BadgerBackend:
		kv, err := OpenBadgerKV(config.StorePath, logger, config.Verbosity)
		if err != nil {
			return nil, fmt.Errorf("error opening badger store %s: %w", config.StorePath, err)
		}
		return NewStore(kv), nil
	case MySQLBackend:
		db, err := ConnectToDatabase(config.User, config.Passwd, config.Host, config.Port, config.DBName)
		if err != nil {
			return nil, fmt.Errorf("error connecting to database: %w", err)
		}
		kv := NewSQLKV(db)
		if err := kv.CreateTable(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return NewStore(kv), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", config.StoreBackend)
	}
}

func (s *Store) Close() error {
	return s.kv.Close()
}

func (s *Store) InsertRaster(ctx context.Context, r SpikeRaster) error {
	payload, err := encodeRaster(r)
	if err != nil {
		return err
	}
	return s.kv.Insert(ctx, r.Key.String(), payload)
}

func (s *Store) HasRaster(ctx context.Context, key RasterKey) (bool, error) {
	return s.kv.Has(ctx, key.String())
}

func (s *Store) Raster(ctx context.Context, key RasterKey) (SpikeRaster, error) {
	payload, err := s.kv.Get(ctx, key.String())
	if err != nil {
		return SpikeRaster{}, err
	}
	return decodeRaster(key, payload)
}

// RasterKeys lists the populated raster keys of a session.
func (s *Store) RasterKeys(ctx context.Context, session SessionKey) ([]RasterKey, error) {
	var keys []RasterKey
	err := s.kv.Scan(ctx, tablePrefix(rasterTable, session), func(k string, _ []byte) error {
		key, err := ParseRasterKey(k)
		if err != nil {
			return err
		}
		keys = append(keys, key)
		return nil
	})
	return keys, err
}

func (s *Store) InsertRate(ctx context.Context, r Rate) error {
	payload, err := encodeRate(r)
	if err != nil {
		return err
	}
	return s.kv.Insert(ctx, r.Key.String(), payload)
}

func (s *Store) HasRate(ctx context.Context, key RateKey) (bool, error) {
	return s.kv.Has(ctx, key.String())
}

func (s *Store) Rate(ctx context.Context, key RateKey) (Rate, error) {
	payload, err := s.kv.Get(ctx, key.String())
	if err != nil {
		return Rate{}, err
	}
	return decodeRate(key, payload)
}

// RateKeys lists the populated rate keys of a session.
func (s *Store) RateKeys(ctx context.Context, session SessionKey) ([]RateKey, error) {
	var keys []RateKey
	err := s.kv.Scan(ctx, tablePrefix(rateTable, session), func(k string, _ []byte) error {
		key, err := ParseRateKey(k)
		if err != nil {
			return err
		}
		keys = append(keys, key)
		return nil
	})
	return keys, err
}

// PsthRates returns every stored rate sharing neuron, block and filter with
// the PSTH key.
func (s *Store) PsthRates(ctx context.Context, key PsthKey) ([]Rate, error) {
	var rates []Rate
	err := s.kv.Scan(ctx, key.RatePrefix(), func(k string, payload []byte) error {
		rateKey, err := ParseRateKey(k)
		if err != nil {
			return err
		}
		rate, err := decodeRate(rateKey, payload)
		if err != nil {
			return err
		}
		rates = append(rates, rate)
		return nil
	})
	return rates, err
}

func (s *Store) InsertPsth(ctx context.Context, p Psth) error {
	payload, err := encodePsth(p)
	if err != nil {
		return err
	}
	return s.kv.Insert(ctx, p.Key.String(), payload)
}

func (s *Store) HasPsth(ctx context.Context, key PsthKey) (bool, error) {
	return s.kv.Has(ctx, key.String())
}

func (s *Store) Psth(ctx context.Context, key PsthKey) (Psth, error) {
	payload, err := s.kv.Get(ctx, key.String())
	if err != nil {
		return Psth{}, err
	}
	return decodePsth(key, payload)
}

// Psths returns every stored PSTH of a session.
func (s *Store) Psths(ctx context.Context, session SessionKey) ([]Psth, error) {
	var psths []Psth
	err := s.kv.Scan(ctx, tablePrefix(psthTable, session), func(k string, payload []byte) error {
		key, err := ParsePsthKey(k)
		if err != nil {
			return err
		}
		psth, err := decodePsth(key, payload)
		if err != nil {
			return err
		}
		psths = append(psths, psth)
		return nil
	})
	return psths, err
}

// MemoryKV keeps records in a map. It is used for dry runs and tests.
type MemoryKV struct {
	mu      sync.RWMutex
	records map[string][]byte
	closed  bool
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{records: make(map[string][]byte)}
}

var errClosed = errors.New("store is closed")

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, errClosed
	}
	value, ok := m.records[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return append([]byte(nil), value...), nil
}

func (m *MemoryKV) Has(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return false, errClosed
	}
	_, ok := m.records[key]
	return ok, nil
}

func (m *MemoryKV) Insert(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errClosed
	}
	if _, ok := m.records[key]; ok {
		return fmt.Errorf("%s: %w", key, ErrExists)
	}
	m.records[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryKV) Scan(ctx context.Context, prefix string, fn func(key string, value []byte) error) error {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return errClosed
	}
	keys := make([]string, 0)
	for k := range m.records {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	values := make([][]byte, len(keys))
	for i, k := range keys {
		values[i] = m.records[k]
	}
	m.mu.RUnlock()

	for i, k := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(k, values[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *MemoryKV) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
