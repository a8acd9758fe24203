package index

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/patrickmn/go-cache"
	chromem "github.com/philippgille/chromem-go"
	"github.com/secmon-lab/folio/pkg/domain/interfaces"
	"github.com/secmon-lab/folio/pkg/domain/model"
	"github.com/secmon-lab/folio/pkg/utils/logging"
	"github.com/secmon-lab/folio/pkg/utils/metrics"
)

const (
	// DefaultK is the number of units returned to the agent per query
	DefaultK = 3

	// DefaultDimension matches OpenAI text-embedding-3-small
	DefaultDimension = 1536

	// MessageUnavailable is returned by Query while no snapshot is installed
	MessageUnavailable = "The document index is not available."

	// MessageNoResult is returned by Query when nothing matched
	MessageNoResult = "No relevant information found."

	// ResultSeparator joins unit texts in Query output
	ResultSeparator = "\n---\n"

	collectionName = "portfolio"
)

var (
	ErrIndexUnavailable = goerr.New("index is not available")
	ErrEmbedding        = goerr.New("failed to generate embedding")
)

// Hit is one search result
type Hit struct {
	ID         string
	Text       string
	Similarity float32
	Metadata   map[string]string
}

// Stats describes the installed snapshot
type Stats struct {
	Available bool
	Units     int
	BuiltAt   time.Time
}

// snapshot is an immutable, fully built index. It is never modified after
// it has been installed.
type snapshot struct {
	collection *chromem.Collection
	units      int
	builtAt    time.Time
}

// Index is a semantic search index over retrievable units. Readers always
// see a complete snapshot: Rebuild builds the next snapshot off to the side
// and installs it with a single atomic pointer swap.
type Index struct {
	llmClient   gollem.LLMClient
	dimension   int
	concurrency int
	metrics     *metrics.Metrics

	current   atomic.Pointer[snapshot]
	rebuildMu sync.Mutex

	queryCache *cache.Cache
}

var _ interfaces.ContextRetriever = &Index{}

type Option func(*Index)

// WithDimension sets the embedding dimension requested from the LLM
func WithDimension(dim int) Option {
	return func(x *Index) {
		x.dimension = dim
	}
}

// WithConcurrency sets how many goroutines insert documents into a snapshot
func WithConcurrency(n int) Option {
	return func(x *Index) {
		x.concurrency = n
	}
}

// WithQueryCacheTTL sets how long query embeddings are cached. Zero disables
// the cache.
func WithQueryCacheTTL(ttl time.Duration) Option {
	return func(x *Index) {
		if ttl <= 0 {
			x.queryCache = nil
			return
		}
		x.queryCache = cache.New(ttl, 2*ttl)
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(x *Index) {
		x.metrics = m
	}
}

// New creates an empty index. Query reports MessageUnavailable until the
// first successful Rebuild with at least one unit.
func New(llmClient gollem.LLMClient, opts ...Option) (*Index, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required for embeddings")
	}

	x := &Index{
		llmClient:   llmClient,
		dimension:   DefaultDimension,
		concurrency: 4,
		queryCache:  cache.New(10*time.Minute, 20*time.Minute),
	}
	for _, opt := range opts {
		opt(x)
	}

	if x.dimension <= 0 {
		return nil, goerr.New("embedding dimension must be positive", goerr.V("dimension", x.dimension))
	}
	if x.concurrency <= 0 {
		x.concurrency = 1
	}

	return x, nil
}

// Rebuild replaces the installed snapshot with one built from units. An
// empty units slice installs the empty state. On failure the previous
// snapshot stays installed. Queries are never blocked by a rebuild.
func (x *Index) Rebuild(ctx context.Context, units []*model.RetrievableUnit) error {
	x.rebuildMu.Lock()
	defer x.rebuildMu.Unlock()

	logger := logging.From(ctx)
	start := time.Now()

	if len(units) == 0 {
		x.current.Store(nil)
		x.metrics.ObserveRebuild(0, time.Since(start), nil)
		logger.Warn("No units to index, index is now unavailable")
		return nil
	}

	next, err := x.build(ctx, units)
	if err != nil {
		x.metrics.ObserveRebuild(0, time.Since(start), err)
		return goerr.Wrap(err, "failed to build index snapshot", goerr.V("units", len(units)))
	}

	x.current.Store(next)
	x.metrics.ObserveRebuild(next.units, time.Since(start), nil)
	logger.Info("Index snapshot installed",
		"units", next.units,
		"duration", time.Since(start).String(),
	)

	return nil
}

func (x *Index) build(ctx context.Context, units []*model.RetrievableUnit) (*snapshot, error) {
	texts := make([]string, len(units))
	for i, u := range units {
		if err := u.Validate(); err != nil {
			return nil, goerr.Wrap(err, "invalid retrievable unit")
		}
		texts[i] = u.Text
	}

	vectors, err := x.embed(ctx, texts)
	if err != nil {
		return nil, err
	}

	db := chromem.NewDB()
	collection, err := db.CreateCollection(collectionName, nil, x.embeddingFunc())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create collection")
	}

	docs := make([]chromem.Document, len(units))
	for i, u := range units {
		metadata := make(map[string]string, len(u.Metadata)+2)
		for k, v := range u.Metadata {
			metadata[k] = v
		}
		metadata["source"] = u.SourceKind.String()
		metadata["title"] = u.Title

		docs[i] = chromem.Document{
			ID:        u.ID,
			Metadata:  metadata,
			Embedding: vectors[i],
			Content:   u.Text,
		}
	}

	if err := collection.AddDocuments(ctx, docs, x.concurrency); err != nil {
		return nil, goerr.Wrap(err, "failed to add documents to collection")
	}

	return &snapshot{
		collection: collection,
		units:      collection.Count(),
		builtAt:    time.Now().UTC(),
	}, nil
}

// Search returns up to k hits for text, best match first. It returns
// ErrIndexUnavailable when no snapshot is installed.
func (x *Index) Search(ctx context.Context, text string, k int) ([]*Hit, error) {
	snap := x.current.Load()
	if snap == nil {
		return nil, ErrIndexUnavailable
	}
	if k <= 0 || snap.units == 0 {
		return []*Hit{}, nil
	}
	if k > snap.units {
		k = snap.units
	}

	vector, err := x.embedQuery(ctx, text)
	if err != nil {
		return nil, err
	}

	results, err := snap.collection.QueryEmbedding(ctx, vector, k, nil, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query collection", goerr.V("k", k))
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].ID < results[j].ID
	})

	hits := make([]*Hit, len(results))
	for i, r := range results {
		hits[i] = &Hit{
			ID:         r.ID,
			Text:       r.Content,
			Similarity: r.Similarity,
			Metadata:   r.Metadata,
		}
	}
	return hits, nil
}

// Query returns the texts of the top k units joined by ResultSeparator, or
// one of the sentinel messages. Only embedding or search failures are
// returned as errors.
func (x *Index) Query(ctx context.Context, text string, k int) (string, error) {
	hits, err := x.Search(ctx, text, k)
	if errors.Is(err, ErrIndexUnavailable) {
		return MessageUnavailable, nil
	}
	if err != nil {
		return "", err
	}
	if len(hits) == 0 {
		return MessageNoResult, nil
	}

	texts := make([]string, len(hits))
	for i, h := range hits {
		texts[i] = h.Text
	}
	return strings.Join(texts, ResultSeparator), nil
}

// Stats describes the installed snapshot
func (x *Index) Stats() Stats {
	snap := x.current.Load()
	if snap == nil {
		return Stats{}
	}
	return Stats{
		Available: true,
		Units:     snap.units,
		BuiltAt:   snap.builtAt,
	}
}

func (x *Index) embeddingFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return x.embedQuery(ctx, text)
	}
}

func (x *Index) embedQuery(ctx context.Context, text string) ([]float32, error) {
	if x.queryCache != nil {
		if v, ok := x.queryCache.Get(text); ok {
			return v.([]float32), nil
		}
	}

	vectors, err := x.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}

	if x.queryCache != nil {
		x.queryCache.Set(text, vectors[0], cache.DefaultExpiration)
	}
	return vectors[0], nil
}

func (x *Index) embed(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings, err := x.llmClient.GenerateEmbedding(ctx, x.dimension, texts)
	if err != nil {
		return nil, goerr.Wrap(ErrEmbedding, err.Error(), goerr.V("count", len(texts)))
	}
	if len(embeddings) != len(texts) {
		return nil, goerr.Wrap(ErrEmbedding, "embedding count mismatch",
			goerr.V("expected", len(texts)),
			goerr.V("actual", len(embeddings)),
		)
	}

	vectors := make([][]float32, len(embeddings))
	for i, e := range embeddings {
		if len(e) == 0 {
			return nil, goerr.Wrap(ErrEmbedding, "empty embedding returned", goerr.V("index", i))
		}
		v := make([]float32, len(e))
		for j, f := range e {
			v[j] = float32(f)
		}
		vectors[i] = v
	}
	return vectors, nil
}
