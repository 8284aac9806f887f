package brain

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestKVs(t *testing.T) map[string]KV {
	t.Helper()
	badgerKV, err := OpenBadgerKV("", nil, 0)
	require.NoError(t, err)
	kvs := map[string]KV{
		"memory": NewMemoryKV(),
		"badger": badgerKV,
	}
	t.Cleanup(func() {
		for _, kv := range kvs {
			kv.Close()
		}
	})
	return kvs
}

func TestKVInsertOnly(t *testing.T) {
	ctx := context.Background()
	for name, kv := range openTestKVs(t) {
		t.Run(name, func(t *testing.T) {
			ok, err := kv.Has(ctx, "a")
			require.NoError(t, err)
			assert.False(t, ok)

			_, err = kv.Get(ctx, "a")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, kv.Insert(ctx, "a", []byte{1}))
			err = kv.Insert(ctx, "a", []byte{2})
			assert.ErrorIs(t, err, ErrExists)

			value, err := kv.Get(ctx, "a")
			require.NoError(t, err)
			assert.Equal(t, []byte{1}, value)
		})
	}
}

func TestKVConcurrentInsert(t *testing.T) {
	ctx := context.Background()
	for name, kv := range openTestKVs(t) {
		t.Run(name, func(t *testing.T) {
			var wg sync.WaitGroup
			errs := make([]error, 8)
			for i := range errs {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					errs[i] = kv.Insert(ctx, "shared", []byte{byte(i)})
				}(i)
			}
			wg.Wait()

			inserted := 0
			for _, err := range errs {
				if err == nil {
					inserted++
					continue
				}
				assert.ErrorIs(t, err, ErrExists)
			}
			assert.Equal(t, 1, inserted)
		})
	}
}

func TestKVScan(t *testing.T) {
	ctx := context.Background()
	for name, kv := range openTestKVs(t) {
		t.Run(name, func(t *testing.T) {
			for _, key := range []string{"p/2", "p/1", "q/1", "p/10", "pp/1"} {
				require.NoError(t, kv.Insert(ctx, key, []byte(key)))
			}
			var keys []string
			err := kv.Scan(ctx, "p/", func(key string, value []byte) error {
				assert.Equal(t, key, string(value))
				keys = append(keys, key)
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, []string{"p/1", "p/10", "p/2"}, keys)
		})
	}
}

func TestStoreRecords(t *testing.T) {
	ctx := context.Background()
	for name, kv := range openTestKVs(t) {
		t.Run(name, func(t *testing.T) {
			store := NewStore(kv)
			rasterKey := RasterKey{SessionKey: testSession, NeuronID: 1, BlockID: 2, Trial: 3, AlignmentParamsID: 1}
			raster := SpikeRaster{Key: rasterKey, GoodTrial: true, BehaviorQualityParamsID: 4, Raster: []bool{false, true, true}}
			require.NoError(t, store.InsertRaster(ctx, raster))
			assert.ErrorIs(t, store.InsertRaster(ctx, raster), ErrExists)

			gotRaster, err := store.Raster(ctx, rasterKey)
			require.NoError(t, err)
			assert.Equal(t, raster, gotRaster)

			rateKeys := []RateKey{
				{RasterKey: rasterKey, FilterParamsID: 1},
				{RasterKey: RasterKey{SessionKey: testSession, NeuronID: 1, BlockID: 2, Trial: 4, AlignmentParamsID: 1}, FilterParamsID: 1},
				{RasterKey: rasterKey, FilterParamsID: 2},
			}
			for i, key := range rateKeys {
				rate := Rate{Key: key, GoodTrial: i%2 == 0, BehaviorQualityParamsID: 4, Rate: []float64{float64(i), 1.5}}
				require.NoError(t, store.InsertRate(ctx, rate))
			}

			has, err := store.HasRate(ctx, rateKeys[1])
			require.NoError(t, err)
			assert.True(t, has)

			rates, err := store.PsthRates(ctx, rateKeys[0].Psth())
			require.NoError(t, err)
			require.Len(t, rates, 2)
			assert.Equal(t, []float64{0, 1.5}, rates[0].Rate)
			assert.True(t, rates[0].GoodTrial)
			assert.Equal(t, []float64{1, 1.5}, rates[1].Rate)
			assert.False(t, rates[1].GoodTrial)

			psth := Psth{Key: rateKeys[0].Psth(), Psth: []float64{0.5, 1.5}}
			require.NoError(t, store.InsertPsth(ctx, psth))
			psths, err := store.Psths(ctx, testSession)
			require.NoError(t, err)
			assert.Equal(t, []Psth{psth}, psths)

			rasterKeys, err := store.RasterKeys(ctx, testSession)
			require.NoError(t, err)
			assert.Equal(t, []RasterKey{rasterKey}, rasterKeys)

			allRates, err := store.RateKeys(ctx, testSession)
			require.NoError(t, err)
			assert.Len(t, allRates, 3)

			other, err := store.Psths(ctx, SessionKey{Subject: "other", SessionDate: "2021-03-18"})
			require.NoError(t, err)
			assert.Empty(t, other)
		})
	}
}

func TestMemoryKVClosed(t *testing.T) {
	kv := NewMemoryKV()
	require.NoError(t, kv.Close())
	assert.Error(t, kv.Insert(context.Background(), "a", nil))
}

func TestOpenStoreMemory(t *testing.T) {
	config := DefaultConfiguration()
	config.StoreBackend = MemoryBackend
	store, err := OpenStore(context.Background(), config, nil)
	require.NoError(t, err)
	assert.NoError(t, store.Close())

	config.StoreBackend = "redis"
	_, err = OpenStore(context.Background(), config, nil)
	assert.Error(t, err)
}
