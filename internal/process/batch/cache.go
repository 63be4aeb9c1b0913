package batch

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/haimeda/statement-scorer/internal/core/domain"
	"github.com/haimeda/statement-scorer/internal/core/embeddings"
	scorerrors "github.com/haimeda/statement-scorer/internal/core/errors"
	"github.com/haimeda/statement-scorer/internal/platform/observability"
	"github.com/haimeda/statement-scorer/internal/platform/worker"
)

// Encoder call kinds, used as metric labels.
const (
	encodeKindStatement = "statement"
	encodeKindWord      = "word"
)

// DefaultBatchSize is the number of texts per encoder call.
const DefaultBatchSize = 32

// EmbeddingCache holds the sentence embedding of every unique statement of a batch
// and memoizes word embeddings requested while scoring it.
type EmbeddingCache struct {
	encoder   embeddings.Encoder
	batchSize int

	index   map[string]int
	vectors [][]float32
	calls   int

	mu        sync.Mutex
	words     map[string]*wordEntry
	wordCalls int
}

type wordEntry struct {
	done chan struct{}
	vec  []float32
	err  error
}

// BuildCache encodes the unique statements of pairs, in first-seen order, in chunks
// of batchSize. Any encoder failure fails the build.
func BuildCache(ctx context.Context, enc embeddings.Encoder, pairs []domain.Pair, batchSize int) (*EmbeddingCache, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	c := &EmbeddingCache{
		encoder:   enc,
		batchSize: batchSize,
		index:     make(map[string]int),
		words:     make(map[string]*wordEntry),
	}

	unique := make([]string, 0, len(pairs))

	for _, p := range pairs {
		for _, text := range [2]string{p.First.Text, p.Second.Text} {
			if _, ok := c.index[text]; ok {
				continue
			}

			c.index[text] = len(unique)
			unique = append(unique, text)
		}
	}

	vectors, calls, err := encodeChunked(ctx, enc, unique, batchSize)
	c.calls = calls

	observability.EncoderCalls.WithLabelValues(encodeKindStatement).Add(float64(calls))
	observability.UniqueStatements.Observe(float64(len(unique)))

	if err != nil {
		return nil, encodeError("encode statements", err)
	}

	c.vectors = vectors

	return c, nil
}

// Statement returns the cached embedding of text.
func (c *EmbeddingCache) Statement(text string) ([]float32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, ok := c.index[text]
	if !ok || i >= len(c.vectors) {
		return nil, fmt.Errorf("%w: %q", scorerrors.ErrMissingEmbedding, text)
	}

	return c.vectors[i], nil
}

// Unique returns the number of unique statements encoded.
func (c *EmbeddingCache) Unique() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.index)
}

// EncoderCalls returns the number of encoder calls made while building the cache.
func (c *EmbeddingCache) EncoderCalls() int {
	return c.calls
}

// WordEncoderCalls returns the number of encoder calls made for word vectors.
func (c *EmbeddingCache) WordEncoderCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.wordCalls
}

// Vectors returns one embedding per word, in order. Words not yet known are claimed
// under the lock and encoded together; callers needing a word claimed by another
// goroutine wait for it. Each word is encoded at most once per cache.
func (c *EmbeddingCache) Vectors(ctx context.Context, words []string) ([][]float32, error) {
	entries := make([]*wordEntry, len(words))

	var (
		claimed        []string
		claimedEntries []*wordEntry
	)

	c.mu.Lock()

	for i, w := range words {
		if e, ok := c.words[w]; ok {
			entries[i] = e
			continue
		}

		e := &wordEntry{done: make(chan struct{})}
		c.words[w] = e
		entries[i] = e
		claimed = append(claimed, w)
		claimedEntries = append(claimedEntries, e)
	}

	c.mu.Unlock()

	if len(claimed) > 0 {
		c.encodeWords(ctx, claimed, claimedEntries)
	}

	out := make([][]float32, len(words))

	for i, e := range entries {
		select {
		case <-e.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		if e.err != nil {
			return nil, e.err
		}

		out[i] = e.vec
	}

	return out, nil
}

// encodeWords resolves every claimed entry. Entries are closed on every exit path so
// waiters never block on a word whose encoding failed.
func (c *EmbeddingCache) encodeWords(ctx context.Context, words []string, entries []*wordEntry) {
	var (
		vectors [][]float32
		err     error
	)

	defer func() {
		if r := recover(); r != nil {
			vectors = nil
			err = panicError("encode words", r)
		}

		for i, e := range entries {
			if err != nil {
				e.err = encodeError("encode words", err)
			} else {
				e.vec = vectors[i]
			}

			close(e.done)
		}
	}()

	vectors, calls, err := encodeChunked(ctx, c.encoder, words, c.batchSize)

	c.mu.Lock()
	c.wordCalls += calls
	c.mu.Unlock()

	observability.EncoderCalls.WithLabelValues(encodeKindWord).Add(float64(calls))
}

// Clear drops every cached vector. The cache answers ErrMissingEmbedding afterwards.
func (c *EmbeddingCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.index = map[string]int{}
	c.vectors = nil
	c.words = map[string]*wordEntry{}
}

// encodeChunked encodes texts in chunks of size. A panicking encoder is reported as a
// KindPanic error.
func encodeChunked(ctx context.Context, enc embeddings.Encoder, texts []string, size int) (out [][]float32, calls int, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, panicError("encode", r)
		}
	}()

	out = make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += size {
		end := min(start+size, len(texts))

		calls++

		vectors, err := enc.Encode(ctx, texts[start:end])
		if err != nil {
			return nil, calls, err
		}

		if len(vectors) != end-start {
			return nil, calls, fmt.Errorf("%w: got %d vectors for %d texts", embeddings.ErrVectorCountMismatch, len(vectors), end-start)
		}

		out = append(out, vectors...)
	}

	return out, calls, nil
}

func panicError(op string, r any) error {
	return scorerrors.New(scorerrors.KindPanic, op, &worker.PanicError{Value: r, Stack: debug.Stack()})
}

// encodeError tags err as an encoder failure unless it already carries a panic.
func encodeError(op string, err error) error {
	if scorerrors.KindOf(err) == scorerrors.KindPanic {
		return err
	}

	return scorerrors.New(scorerrors.KindEncoder, op, err)
}
