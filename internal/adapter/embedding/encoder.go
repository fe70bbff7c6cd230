package embedding

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"rag-quiz/internal/cache"
	"rag-quiz/internal/domain"
	"rag-quiz/internal/logger"
	"rag-quiz/internal/util"

	"github.com/tmc/langchaingo/embeddings"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Loader builds the underlying embedding model. It runs at most once per Encoder.
type Loader func(ctx context.Context) (embeddings.Embedder, error)

const (
	probeText   = "embedding probe"
	loadTimeout = 2 * time.Minute
)

// Options configure an Encoder.
type Options struct {
	Dimension int
	// Namespace and Model scope cache keys, e.g. "ollama" and "nomic-embed-text".
	Namespace string
	Model     string
	Cache     domain.Cache
	CacheTTL  time.Duration
}

// Encoder is the process-wide embedder. The model is loaded lazily on first
// use; if loading fails the Encoder stays degraded and returns zero vectors.
type Encoder struct {
	load Loader
	opts Options

	mu       sync.Mutex
	loaded   atomic.Bool
	embedder embeddings.Embedder

	sfGroup singleflight.Group
}

// NewEncoder returns an Encoder that defers calling load until the first Encode.
func NewEncoder(load Loader, opts Options) *Encoder {
	if opts.Dimension <= 0 {
		opts.Dimension = domain.EmbeddingDimension
	}
	return &Encoder{load: load, opts: opts}
}

func (e *Encoder) Dimension() int {
	return e.opts.Dimension
}

// Degraded reports whether the model failed to load. It is false before the first use.
func (e *Encoder) Degraded() bool {
	return e.loaded.Load() && e.model() == nil
}

func (e *Encoder) model() embeddings.Embedder {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.embedder
}

// ensureLoaded returns the loaded model or nil when degraded. Concurrent
// first callers block on the mutex while one of them loads.
func (e *Encoder) ensureLoaded(ctx context.Context) embeddings.Embedder {
	if e.loaded.Load() {
		return e.model()
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loaded.Load() {
		return e.embedder
	}

	// A cancelled request must not leave the process permanently degraded.
	loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
	defer cancel()

	l := logger.Get()
	emb, err := e.load(loadCtx)
	if err == nil {
		var probe []float32
		probe, err = emb.EmbedQuery(loadCtx, probeText)
		if err == nil && len(probe) != e.opts.Dimension {
			err = fmt.Errorf("model returned %d dimensions, want %d", len(probe), e.opts.Dimension)
		}
	}
	if err != nil {
		l.Warn("Embedding model unavailable, encoder degraded to zero vectors",
			zap.String("namespace", e.opts.Namespace),
			zap.String("model", e.opts.Model),
			zap.Error(err))
		e.embedder = nil
	} else {
		l.Info("Embedding model loaded",
			zap.String("namespace", e.opts.Namespace),
			zap.String("model", e.opts.Model),
			zap.Int("dimension", e.opts.Dimension))
		e.embedder = emb
	}
	e.loaded.Store(true)
	return e.embedder
}

// Encode returns a vector of length Dimension for text. Failures yield a zero vector.
func (e *Encoder) Encode(ctx context.Context, text string) []float32 {
	if strings.TrimSpace(text) == "" {
		return util.ZeroVector(e.opts.Dimension)
	}
	emb := e.ensureLoaded(ctx)
	if emb == nil {
		return util.ZeroVector(e.opts.Dimension)
	}

	key := e.cacheKey(text)
	if vec, ok := e.fromCache(ctx, key); ok {
		return vec
	}

	res, err, _ := e.sfGroup.Do(key, func() (interface{}, error) {
		vec, err := emb.EmbedQuery(ctx, text)
		if err != nil {
			return nil, err
		}
		if !util.IsValidVector(vec, e.opts.Dimension) {
			return nil, errMalformed
		}
		e.toCache(ctx, key, vec)
		return vec, nil
	})
	if err != nil {
		logger.Get().Warn("Embedding failed, using zero vector",
			zap.Int("text_len", len(text)),
			zap.Error(err))
		return util.ZeroVector(e.opts.Dimension)
	}
	return res.([]float32)
}

var errMalformed = errors.New("embedding has wrong length or non-finite values")

// EncodeBatch encodes texts in order. Cached items are served from the cache;
// the rest go to the model in one call, falling back to per-item calls when
// the batch call fails. Each failing item becomes a zero vector.
func (e *Encoder) EncodeBatch(ctx context.Context, texts []string) [][]float32 {
	out := make([][]float32, len(texts))
	emb := e.ensureLoaded(ctx)
	if emb == nil {
		for i := range out {
			out[i] = util.ZeroVector(e.opts.Dimension)
		}
		return out
	}

	var pending []int
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			out[i] = util.ZeroVector(e.opts.Dimension)
			continue
		}
		if vec, ok := e.fromCache(ctx, e.cacheKey(text)); ok {
			out[i] = vec
			continue
		}
		pending = append(pending, i)
	}
	if len(pending) == 0 {
		return out
	}

	batch := make([]string, len(pending))
	for j, i := range pending {
		batch[j] = texts[i]
	}

	vecs, err := emb.EmbedDocuments(ctx, batch)
	if err != nil || len(vecs) != len(batch) {
		logger.Get().Warn("Batch embedding failed, encoding items one by one",
			zap.Int("batch_size", len(batch)),
			zap.Int("returned", len(vecs)),
			zap.Error(err))
		for _, i := range pending {
			out[i] = e.Encode(ctx, texts[i])
		}
		return out
	}

	for j, i := range pending {
		if !util.IsValidVector(vecs[j], e.opts.Dimension) {
			logger.Get().Warn("Malformed embedding in batch, using zero vector",
				zap.Int("index", i),
				zap.Int("length", len(vecs[j])))
			out[i] = util.ZeroVector(e.opts.Dimension)
			continue
		}
		out[i] = vecs[j]
		e.toCache(ctx, e.cacheKey(texts[i]), vecs[j])
	}
	return out
}

func (e *Encoder) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return cache.GenerateCacheKey("embedding", e.opts.Namespace, hex.EncodeToString(sum[:]), e.opts.Model, strconv.Itoa(e.opts.Dimension))
}

func (e *Encoder) fromCache(ctx context.Context, key string) ([]float32, bool) {
	if e.opts.Cache == nil {
		return nil, false
	}
	data, err := e.opts.Cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			logger.Get().Debug("Embedding cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var vec []float32
	if err := gob.NewDecoder(bytes.NewReader([]byte(data))).Decode(&vec); err != nil {
		logger.Get().Debug("Failed to decode cached embedding", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if !util.IsValidVector(vec, e.opts.Dimension) {
		return nil, false
	}
	return vec, true
}

// toCache stores vec unless it is the zero sentinel.
func (e *Encoder) toCache(ctx context.Context, key string, vec []float32) {
	if e.opts.Cache == nil || util.IsZeroVector(vec) {
		return
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(vec); err != nil {
		logger.Get().Debug("Failed to encode embedding for cache", zap.Error(err))
		return
	}
	if err := e.opts.Cache.Set(ctx, key, buf.String(), e.opts.CacheTTL); err != nil {
		logger.Get().Debug("Embedding cache write failed", zap.String("key", key), zap.Error(err))
	}
}

var _ domain.Encoder = (*Encoder)(nil)
