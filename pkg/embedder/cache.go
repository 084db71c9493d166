package embedder

import (
	"context"
	"crypto/sha1"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"
)

// CacheStats counts cache lookups.
type CacheStats struct {
	Hits   int64
	Misses int64
}

// CachedEmbedder stores vectors in badger keyed by model and text so repeated
// runs over the same corpus only pay for new texts.
type CachedEmbedder struct {
	client  Client
	db      *badger.DB
	modelID string
	hits    atomic.Int64
	misses  atomic.Int64
}

// NewCachedEmbedder opens (or creates) a badger cache in dir. An empty dir
// keeps the cache in memory for the lifetime of the process.
func NewCachedEmbedder(client Client, dir, modelID string) (*CachedEmbedder, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedding cache: %w", err)
	}
	return &CachedEmbedder{client: client, db: db, modelID: modelID}, nil
}

// Embed returns cached vectors where available and embeds the rest in one call.
func (c *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	missing := make(map[string][]int)
	var order []string

	err := c.db.View(func(txn *badger.Txn) error {
		for i, text := range texts {
			item, err := txn.Get(c.key(text))
			if errors.Is(err, badger.ErrKeyNotFound) {
				if _, seen := missing[text]; !seen {
					order = append(order, text)
				}
				missing[text] = append(missing[text], i)
				continue
			}
			if err != nil {
				return err
			}
			raw, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			vec, err := decodeVector(raw)
			if err != nil {
				return err
			}
			out[i] = vec
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read embedding cache: %w", err)
	}

	c.hits.Add(int64(len(texts) - countPositions(missing)))
	c.misses.Add(int64(countPositions(missing)))
	if len(order) == 0 {
		return out, nil
	}

	fresh, err := c.client.Embed(ctx, order)
	if err != nil {
		return nil, err
	}
	if err := checkCount(order, fresh); err != nil {
		return nil, err
	}

	wb := c.db.NewWriteBatch()
	defer wb.Cancel()
	for j, text := range order {
		for _, pos := range missing[text] {
			out[pos] = fresh[j]
		}
		if err := wb.Set(c.key(text), encodeVector(fresh[j])); err != nil {
			return nil, fmt.Errorf("failed to write embedding cache: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return nil, fmt.Errorf("failed to flush embedding cache: %w", err)
	}

	return out, nil
}

// EmbedSingle implements Client
func (c *CachedEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	return embedSingle(ctx, c, text)
}

// Stats returns hit and miss counts since the cache was opened.
func (c *CachedEmbedder) Stats() CacheStats {
	return CacheStats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}

// Dimensions implements Client
func (c *CachedEmbedder) Dimensions() int {
	return c.client.Dimensions()
}

// Close closes the cache and the wrapped client.
func (c *CachedEmbedder) Close() error {
	dbErr := c.db.Close()
	if err := c.client.Close(); err != nil {
		return err
	}
	return dbErr
}

func (c *CachedEmbedder) key(text string) []byte {
	h := sha1.Sum([]byte(c.modelID + "|" + text))
	return h[:]
}

func countPositions(m map[string][]int) int {
	n := 0
	for _, positions := range m {
		n += len(positions)
	}
	return n
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4+len(v)*4)
	binary.LittleEndian.PutUint32(buf[:4], uint32(len(v)))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[4+i*4:], math.Float32bits(x))
	}
	return buf
}

func decodeVector(data []byte) ([]float32, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("cache entry too small")
	}
	length := int(binary.LittleEndian.Uint32(data[:4]))
	data = data[4:]
	if len(data) != length*4 {
		return nil, fmt.Errorf("cache entry length mismatch")
	}
	vec := make([]float32, length)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
