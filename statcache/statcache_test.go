package statcache

import (
	"context"
	"encoding/binary"
	"hash/crc32"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/fidgo/stats"
)

func samplePopulation(t *testing.T) *stats.Population {
	t.Helper()

	acc := stats.NewAccumulator()
	require.NoError(t, acc.Ingest([][]float32{
		{1, 2, 3},
		{4, 5, 6},
		{7, 8, 10},
	}))
	pop, err := acc.Finalize()
	require.NoError(t, err)
	return pop
}

func assertPopulationEqual(t *testing.T, want, got *stats.Population) {
	t.Helper()

	assert.Equal(t, want.N, got.N)
	assert.Equal(t, want.Mean, got.Mean)
	dim := want.Dimension()
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			assert.Equal(t, want.Cov.At(i, j), got.Cov.At(i, j))
		}
	}
}

func TestEncodeDecode(t *testing.T) {
	pop := samplePopulation(t)

	for _, c := range []Compression{CompressionNone, CompressionZstd, CompressionLZ4} {
		t.Run(c.String(), func(t *testing.T) {
			data, err := Encode(pop, c)
			require.NoError(t, err)

			got, err := Decode(data)
			require.NoError(t, err)
			assertPopulationEqual(t, pop, got)
		})
	}
}

func TestEncode_Validation(t *testing.T) {
	_, err := Encode(nil, CompressionNone)
	assert.Error(t, err)

	_, err = Encode(&stats.Population{Mean: []float64{1}, Cov: mat.NewSymDense(1, nil)}, CompressionNone)
	assert.Error(t, err, "N=0 must not encode")

	_, err = Encode(samplePopulation(t), Compression(99))
	assert.Error(t, err)
}

func TestDecode_Corrupt(t *testing.T) {
	data, err := Encode(samplePopulation(t), CompressionZstd)
	require.NoError(t, err)

	t.Run("BadMagic", func(t *testing.T) {
		bad := append([]byte(nil), data...)
		bad[0] = 'X'
		_, err := Decode(bad)
		assert.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("FlippedPayloadByte", func(t *testing.T) {
		bad := append([]byte(nil), data...)
		bad[len(bad)/2] ^= 0xFF
		_, err := Decode(bad)
		assert.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("Truncated", func(t *testing.T) {
		_, err := Decode(data[:4])
		assert.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("UnknownVersion", func(t *testing.T) {
		bad := append([]byte(nil), data...)
		bad[4] = 0xFE
		// Re-seal the checksum so only the version check can fire.
		body := bad[:len(bad)-footerSize]
		binary.LittleEndian.PutUint32(bad[len(bad)-footerSize:], crc32.Checksum(body, crc32cTable))
		_, err := Decode(bad)
		assert.ErrorIs(t, err, ErrCorrupt)
	})
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	pop := samplePopulation(t)

	_, err := Load(ctx, store, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, Save(ctx, store, "ref", pop, CompressionZstd))

	got, err := Load(ctx, store, "ref")
	require.NoError(t, err)
	assertPopulationEqual(t, pop, got)

	require.NoError(t, store.Delete(ctx, "ref"))
	_, err = Load(ctx, store, "ref")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting a missing snapshot is not an error.
	assert.NoError(t, store.Delete(ctx, "ref"))
}

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	pop := samplePopulation(t)

	_, err = Load(ctx, store, "missing.fids")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, Save(ctx, store, "ref.fids", pop, CompressionLZ4))

	got, err := Load(ctx, store, "ref.fids")
	require.NoError(t, err)
	assertPopulationEqual(t, pop, got)

	// Overwrite must replace, not append.
	require.NoError(t, Save(ctx, store, "ref.fids", pop, CompressionNone))
	got, err = Load(ctx, store, "ref.fids")
	require.NoError(t, err)
	assertPopulationEqual(t, pop, got)

	require.NoError(t, store.Delete(ctx, "ref.fids"))
	assert.NoError(t, store.Delete(ctx, "ref.fids"))
}
