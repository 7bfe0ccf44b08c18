// Package vector provides a brute-force vector index with flat binary persistence.
package vector

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
)

// ErrDimensionMismatch is returned when a vector's length disagrees with the
// index dimension.
var ErrDimensionMismatch = errors.New("dimension mismatch")

// FlatIndex is a brute-force nearest-neighbor index over squared Euclidean
// distance. Vectors are addressed by insertion position. The index has no
// internal locking; callers serialize access.
type FlatIndex struct {
	dimension int
	vectors   [][]float32
}

// Match is one search hit: the position of a stored vector and its squared
// Euclidean distance from the query.
type Match struct {
	Position int
	Distance float64
}

// NewFlatIndex creates an empty index with the given dimension.
func NewFlatIndex(dimension int) (*FlatIndex, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("dimension must be positive, got %d", dimension)
	}
	return &FlatIndex{
		dimension: dimension,
		vectors:   make([][]float32, 0),
	}, nil
}

// Add appends a copy of vec to the index.
func (ix *FlatIndex) Add(vec []float32) error {
	if len(vec) != ix.dimension {
		return fmt.Errorf("%w: got %d, expected %d", ErrDimensionMismatch, len(vec), ix.dimension)
	}
	cp := make([]float32, ix.dimension)
	copy(cp, vec)
	ix.vectors = append(ix.vectors, cp)
	return nil
}

// Search returns the min(k, Size) nearest vectors by squared Euclidean
// distance, nearest first. Equal distances keep insertion order.
func (ix *FlatIndex) Search(query []float32, k int) ([]Match, error) {
	if len(query) != ix.dimension {
		return nil, fmt.Errorf("%w: got %d, expected %d", ErrDimensionMismatch, len(query), ix.dimension)
	}
	if k <= 0 || len(ix.vectors) == 0 {
		return nil, nil
	}
	matches := make([]Match, len(ix.vectors))
	for i, vec := range ix.vectors {
		matches[i] = Match{Position: i, Distance: squaredL2(query, vec)}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Distance < matches[j].Distance })
	if k > len(matches) {
		k = len(matches)
	}
	return matches[:k], nil
}

// Size returns the number of stored vectors.
func (ix *FlatIndex) Size() int {
	return len(ix.vectors)
}

// Dimension returns the configured vector length.
func (ix *FlatIndex) Dimension() int {
	return ix.dimension
}

// Save writes the index to path, creating parent directories as needed.
// Format: dimension (uint32 LE), count (uint32 LE), then count*dimension
// float32 values.
func (ix *FlatIndex) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	defer f.Close()
	if err := binary.Write(f, binary.LittleEndian, uint32(ix.dimension)); err != nil {
		return fmt.Errorf("write dimension: %w", err)
	}
	if err := binary.Write(f, binary.LittleEndian, uint32(len(ix.vectors))); err != nil {
		return fmt.Errorf("write count: %w", err)
	}
	for _, vec := range ix.vectors {
		if _, err := f.Write(float32SliceToBytes(vec)); err != nil {
			return fmt.Errorf("write vector: %w", err)
		}
	}
	return nil
}

// Load replaces the index contents with the artifact at path. The file's
// dimension must match the index's. Missing, truncated, or malformed files
// return an error and leave the index unchanged.
func (ix *FlatIndex) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()

	var dim, count uint32
	if err := binary.Read(f, binary.LittleEndian, &dim); err != nil {
		return fmt.Errorf("read dimension: %w", err)
	}
	if int(dim) != ix.dimension {
		return fmt.Errorf("dimension mismatch: file has %d, index expects %d", dim, ix.dimension)
	}
	if err := binary.Read(f, binary.LittleEndian, &count); err != nil {
		return fmt.Errorf("read count: %w", err)
	}
	// Reject counts the file cannot actually hold before allocating.
	if info, err := f.Stat(); err == nil {
		want := int64(8) + int64(count)*int64(ix.dimension)*4
		if info.Size() != want {
			return fmt.Errorf("index file size %d does not match count %d", info.Size(), count)
		}
	}

	vectors := make([][]float32, 0, count)
	buf := make([]byte, ix.dimension*4)
	for i := uint32(0); i < count; i++ {
		if _, err := io.ReadFull(f, buf); err != nil {
			return fmt.Errorf("read vector %d: %w", i, err)
		}
		vectors = append(vectors, bytesToFloat32Slice(buf))
	}
	ix.vectors = vectors
	return nil
}

// squaredL2 returns the squared Euclidean distance between a and b,
// accumulated in float64.
func squaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

func float32SliceToBytes(s []float32) []byte {
	const size = 4
	out := make([]byte, len(s)*size)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	const size = 4
	out := make([]float32, len(b)/size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out
}
