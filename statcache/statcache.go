package statcache

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"math"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/fidgo/stats"
)

// ErrNotFound is returned when a snapshot does not exist in a Store.
var ErrNotFound = errors.New("statcache: snapshot not found")

// ErrCorrupt is returned when a snapshot fails structural or checksum
// validation. Snapshot selection is a breaking-change boundary: bytes
// written by a newer format version do not decode.
var ErrCorrupt = errors.New("statcache: corrupt snapshot")

// Store is an abstraction for snapshot persistence.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the named snapshot bytes, or ErrNotFound.
	Get(ctx context.Context, name string) ([]byte, error)
	// Put writes the named snapshot atomically, replacing any previous
	// version.
	Put(ctx context.Context, name string, data []byte) error
	// Delete removes the named snapshot. Deleting a missing snapshot is
	// not an error.
	Delete(ctx context.Context, name string) error
}

// Compression selects the payload compression for saved snapshots.
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionZstd
	CompressionLZ4
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(c))
	}
}

var magic = [4]byte{'F', 'I', 'D', 'S'}

const (
	formatVersion = 1
	headerSize    = 4 + 1 + 1 // magic, version, compression
	footerSize    = 4         // CRC32-C over header+payload
)

var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// Save encodes pop and writes it to the store under name.
func Save(ctx context.Context, s Store, name string, pop *stats.Population, c Compression) error {
	data, err := Encode(pop, c)
	if err != nil {
		return err
	}
	return s.Put(ctx, name, data)
}

// Load reads the named snapshot from the store and decodes it.
func Load(ctx context.Context, s Store, name string) (*stats.Population, error) {
	data, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Encode serializes a finalized population into the snapshot format.
func Encode(pop *stats.Population, c Compression) ([]byte, error) {
	if pop == nil || pop.N < 1 {
		return nil, errors.New("statcache: population must be finalized with N >= 1")
	}
	dim := pop.Dimension()

	// dim, n, mean, then the packed upper triangle of the covariance.
	payload := make([]byte, 0, 4+8+8*dim+8*dim*(dim+1)/2)
	payload = binary.LittleEndian.AppendUint32(payload, uint32(dim))
	payload = binary.LittleEndian.AppendUint64(payload, uint64(pop.N))
	for _, v := range pop.Mean {
		payload = binary.LittleEndian.AppendUint64(payload, math.Float64bits(v))
	}
	for i := 0; i < dim; i++ {
		for j := i; j < dim; j++ {
			payload = binary.LittleEndian.AppendUint64(payload, math.Float64bits(pop.Cov.At(i, j)))
		}
	}

	payload, err := compress(payload, c)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, headerSize+len(payload)+footerSize)
	out = append(out, magic[:]...)
	out = append(out, formatVersion, byte(c))
	out = append(out, payload...)
	out = binary.LittleEndian.AppendUint32(out, crc32.Checksum(out, crc32cTable))

	return out, nil
}

// Decode deserializes a snapshot produced by Encode.
func Decode(data []byte) (*stats.Population, error) {
	if len(data) < headerSize+footerSize || !bytes.Equal(data[:4], magic[:]) {
		return nil, fmt.Errorf("%w: bad magic", ErrCorrupt)
	}
	body, footer := data[:len(data)-footerSize], data[len(data)-footerSize:]
	if binary.LittleEndian.Uint32(footer) != crc32.Checksum(body, crc32cTable) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}
	if body[4] != formatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, body[4])
	}

	payload, err := decompress(body[headerSize:], Compression(body[5]))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	if len(payload) < 4+8 {
		return nil, fmt.Errorf("%w: truncated payload", ErrCorrupt)
	}
	dim := int(binary.LittleEndian.Uint32(payload))
	n := int(binary.LittleEndian.Uint64(payload[4:]))
	want := 4 + 8 + 8*dim + 8*dim*(dim+1)/2
	if dim < 1 || n < 1 || len(payload) != want {
		return nil, fmt.Errorf("%w: inconsistent geometry", ErrCorrupt)
	}

	off := 4 + 8
	mean := make([]float64, dim)
	for i := range mean {
		mean[i] = math.Float64frombits(binary.LittleEndian.Uint64(payload[off:]))
		off += 8
	}
	cov := mat.NewSymDense(dim, nil)
	for i := 0; i < dim; i++ {
		for j := i; j < dim; j++ {
			cov.SetSym(i, j, math.Float64frombits(binary.LittleEndian.Uint64(payload[off:])))
			off += 8
		}
	}

	return &stats.Population{Mean: mean, Cov: cov, N: n}, nil
}

func compress(payload []byte, c Compression) ([]byte, error) {
	switch c {
	case CompressionNone:
		return payload, nil
	case CompressionZstd:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}
		defer enc.Close()
		return enc.EncodeAll(payload, nil), nil
	case CompressionLZ4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(payload); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("statcache: unsupported compression: %v", c)
	}
}

func decompress(payload []byte, c Compression) ([]byte, error) {
	switch c {
	case CompressionNone:
		return payload, nil
	case CompressionZstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		return dec.DecodeAll(payload, nil)
	case CompressionLZ4:
		return io.ReadAll(lz4.NewReader(bytes.NewReader(payload)))
	default:
		return nil, fmt.Errorf("statcache: unsupported compression: %v", c)
	}
}
