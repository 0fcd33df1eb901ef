package flat

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/finsightlabs/finsight/internal/core/domain"
)

const (
	vectorFileSuffix  = ".vec"
	passageFileSuffix = ".passages.json"
)

// Index is a flat in-process cosine index. Vectors are L2-normalized
// on the way in, so inner product equals cosine similarity. The first
// successful Add fixes the dimensionality for the index lifetime.
type Index struct {
	dir string

	mu       sync.RWMutex
	dim      int
	vectors  [][]float32
	passages []domain.Passage
}

func New(dir string) *Index {
	return &Index{dir: dir}
}

func (ix *Index) Add(passages []domain.Passage, vectors [][]float32) error {
	if len(passages) != len(vectors) {
		return domain.WrapError(
			domain.ErrDimensionMismatch,
			"index add",
			fmt.Errorf("passages/vectors count mismatch: %d/%d", len(passages), len(vectors)),
		)
	}
	if len(passages) == 0 {
		return nil
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	dim := ix.dim
	if dim == 0 {
		dim = len(vectors[0])
	}
	for _, v := range vectors {
		if len(v) != dim {
			return domain.WrapError(
				domain.ErrDimensionMismatch,
				"index add",
				fmt.Errorf("vector dim %d, index dim %d", len(v), dim),
			)
		}
	}

	for i, v := range vectors {
		ix.vectors = append(ix.vectors, normalize(v))
		ix.passages = append(ix.passages, passages[i])
	}
	ix.dim = dim
	return nil
}

func (ix *Index) Search(query []float32, k int) ([]domain.RetrievedPassage, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if len(ix.vectors) == 0 {
		slog.Warn("vector_search_empty_index")
		return nil, nil
	}
	if len(query) != ix.dim {
		return nil, domain.WrapError(
			domain.ErrDimensionMismatch,
			"index search",
			fmt.Errorf("query dim %d, index dim %d", len(query), ix.dim),
		)
	}
	if k <= 0 {
		return nil, nil
	}
	if k > len(ix.vectors) {
		k = len(ix.vectors)
	}

	normalized := normalize(query)
	results := make([]domain.RetrievedPassage, len(ix.vectors))
	for i, v := range ix.vectors {
		results[i] = domain.RetrievedPassage{
			Passage: ix.passages[i],
			Score:   float64(dot(normalized, v)),
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results[:k], nil
}

func (ix *Index) Count() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.vectors)
}

func (ix *Index) Clear() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.dim = 0
	ix.vectors = nil
	ix.passages = nil
}

// passageFile carries the vector checksum so Load can tell a matched
// pair from files left by two different Save calls.
type passageFile struct {
	VectorChecksum uint32           `json:"vector_checksum"`
	Passages       []domain.Passage `json:"passages"`
}

// Save writes the vector file and the passage file under one id prefix.
// Each file goes through temp-write-then-rename, and both carry the
// same vector checksum: a crash between the two renames leaves a pair
// that Load rejects instead of silently combining old and new halves.
func (ix *Index) Save(id string) error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if err := os.MkdirAll(ix.dir, 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}

	vectorData := ix.encodeVectors()
	passageData, err := json.Marshal(passageFile{
		VectorChecksum: vectorChecksum(vectorData),
		Passages:       ix.passages,
	})
	if err != nil {
		return fmt.Errorf("marshal passages: %w", err)
	}

	if err := writeAtomic(ix.passagePath(id), passageData); err != nil {
		return fmt.Errorf("write passage file: %w", err)
	}
	if err := writeAtomic(ix.vectorPath(id), vectorData); err != nil {
		return fmt.Errorf("write vector file: %w", err)
	}
	return nil
}

// Load replaces the index contents from a persisted pair. A missing
// vector or passage file reports domain.ErrNotFound.
func (ix *Index) Load(id string) error {
	vectorData, err := os.ReadFile(ix.vectorPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return domain.WrapError(domain.ErrNotFound, "load index", err)
		}
		return fmt.Errorf("read vector file: %w", err)
	}
	passageData, err := os.ReadFile(ix.passagePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return domain.WrapError(domain.ErrNotFound, "load index", err)
		}
		return fmt.Errorf("read passage file: %w", err)
	}

	dim, vectors, err := decodeVectors(vectorData)
	if err != nil {
		return fmt.Errorf("decode vector file: %w", err)
	}
	var pf passageFile
	if err := json.Unmarshal(passageData, &pf); err != nil {
		return fmt.Errorf("unmarshal passages: %w", err)
	}
	if pf.VectorChecksum != vectorChecksum(vectorData) {
		return fmt.Errorf("torn index pair: passage file references a different vector file")
	}
	if len(pf.Passages) != len(vectors) {
		return fmt.Errorf("corrupt index pair: %d passages, %d vectors", len(pf.Passages), len(vectors))
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.dim = dim
	ix.vectors = vectors
	ix.passages = pf.Passages
	return nil
}

func vectorChecksum(vectorData []byte) uint32 {
	return crc32.ChecksumIEEE(vectorData)
}

func (ix *Index) vectorPath(id string) string {
	return filepath.Join(ix.dir, id+vectorFileSuffix)
}

func (ix *Index) passagePath(id string) string {
	return filepath.Join(ix.dir, id+passageFileSuffix)
}

func (ix *Index) encodeVectors() []byte {
	buf := make([]byte, 8, 8+len(ix.vectors)*ix.dim*4)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(ix.dim))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(ix.vectors)))
	for _, v := range ix.vectors {
		for _, f := range v {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
		}
	}
	return buf
}

func decodeVectors(data []byte) (int, [][]float32, error) {
	if len(data) < 8 {
		return 0, nil, fmt.Errorf("vector file too short: %d bytes", len(data))
	}
	dim := int(binary.LittleEndian.Uint32(data[0:4]))
	count := int(binary.LittleEndian.Uint32(data[4:8]))
	expected := 8 + dim*count*4
	if len(data) != expected {
		return 0, nil, fmt.Errorf("vector file size %d, expected %d", len(data), expected)
	}

	vectors := make([][]float32, count)
	offset := 8
	for i := 0; i < count; i++ {
		v := make([]float32, dim)
		for j := 0; j < dim; j++ {
			v[j] = math.Float32frombits(binary.LittleEndian.Uint32(data[offset : offset+4]))
			offset += 4
		}
		vectors[i] = v
	}
	return dim, vectors, nil
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func normalize(v []float32) []float32 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	norm := math.Sqrt(sum)
	out := make([]float32, len(v))
	if norm == 0 {
		copy(out, v)
		return out
	}
	for i, f := range v {
		out[i] = float32(float64(f) / norm)
	}
	return out
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
