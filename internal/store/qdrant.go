package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/ynaka-dev/docqa/internal/document"
	"github.com/ynaka-dev/docqa/internal/embedding"
)

// upsertBatchSize is the number of points sent per upsert request.
const upsertBatchSize = 100

// Qdrant is a fragment store backed by a Qdrant collection with cosine
// distance. Persistence across processes is an implementation detail
// behind the Store contract.
type Qdrant struct {
	client     *qdrant.Client
	provider   embedding.Provider
	collection string
}

// NewQdrant connects to Qdrant over gRPC and validates health with
// exponential backoff, failing fast if the server is unreachable.
func NewQdrant(provider embedding.Provider, host string, port int, collection string) (*Qdrant, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}

	s := &Qdrant{
		client:     client,
		provider:   provider,
		collection: collection,
	}

	if err := s.healthCheckWithRetry(context.Background()); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return s, nil
}

// healthCheckWithRetry performs health checks with exponential backoff.
// Initial interval 500ms, max interval 10s, max elapsed 30s.
func (s *Qdrant) healthCheckWithRetry(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		return s.Health(ctx)
	}, backoff.WithContext(b, ctx))
}

// Health performs a single health check against Qdrant.
func (s *Qdrant) Health(ctx context.Context) error {
	result, err := s.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}
	return nil
}

// Close closes the Qdrant client connection.
func (s *Qdrant) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// collectionExists reports whether the store's collection is present.
func (s *Qdrant) collectionExists(ctx context.Context) (bool, error) {
	collections, err := s.client.ListCollections(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: list collections: %v", ErrStoreUnavailable, err)
	}
	for _, name := range collections {
		if name == s.collection {
			return true, nil
		}
	}
	return false, nil
}

// createCollection creates the collection with cosine-distance vectors
// sized to the embedding provider.
func (s *Qdrant) createCollection(ctx context.Context) error {
	err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(s.provider.Dimension()),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("%w: create collection: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// ReplaceAll implements Store. All embeddings are computed before the old
// collection is dropped, so an embedding failure leaves it untouched.
// The recreate-then-upsert sequence exposes a brief empty window instead
// of a half-replaced index.
func (s *Qdrant) ReplaceAll(ctx context.Context, chunks []document.Chunk) error {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	var vectors [][]float32
	if len(texts) > 0 {
		var err error
		vectors, err = s.provider.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrEmbedding, err)
		}
		if len(vectors) != len(chunks) {
			return fmt.Errorf("%w: expected %d vectors, got %d", ErrEmbedding, len(chunks), len(vectors))
		}
	}

	exists, err := s.collectionExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		if err := s.client.DeleteCollection(ctx, s.collection); err != nil {
			return fmt.Errorf("%w: delete collection: %v", ErrStoreUnavailable, err)
		}
	}
	if err := s.createCollection(ctx); err != nil {
		return err
	}

	for i := 0; i < len(chunks); i += upsertBatchSize {
		end := min(i+upsertBatchSize, len(chunks))

		points := make([]*qdrant.PointStruct, 0, end-i)
		for j := i; j < end; j++ {
			points = append(points, &qdrant.PointStruct{
				Id:      qdrant.NewIDUUID(uuid.New().String()),
				Vectors: qdrant.NewVectors(vectors[j]...),
				Payload: qdrant.NewValueMap(map[string]any{
					"text":   chunks[j].Text,
					"source": chunks[j].Source,
					"page":   chunks[j].Page,
					"seq":    j,
				}),
			})
		}

		if err := s.upsertWithRetry(ctx, points); err != nil {
			return fmt.Errorf("%w: upsert batch %d-%d: %v", ErrStoreUnavailable, i, end, err)
		}
	}

	return nil
}

// upsertWithRetry performs an upsert with exponential backoff.
func (s *Qdrant) upsertWithRetry(ctx context.Context, points []*qdrant.PointStruct) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: s.collection,
			Points:         points,
		})
		return err
	}, backoff.WithContext(b, ctx))
}

// Query implements Store.
func (s *Qdrant) Query(ctx context.Context, query string, topK int) ([]RetrievalResult, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	exists, err := s.collectionExists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return []RetrievalResult{}, nil
	}

	vector, err := s.provider.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbedding, err)
	}

	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: query: %v", ErrStoreUnavailable, err)
	}

	type scored struct {
		result RetrievalResult
		seq    int64
	}
	matches := make([]scored, 0, len(points))
	for _, p := range points {
		payload := p.Payload
		matches = append(matches, scored{
			result: RetrievalResult{
				Text:   payload["text"].GetStringValue(),
				Source: payload["source"].GetStringValue(),
				Score:  clampScore(float64(p.Score)),
			},
			seq: payload["seq"].GetIntegerValue(),
		})
	}

	// Qdrant does not define ordering for equal scores; enforce
	// insertion order ourselves.
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].result.Score != matches[j].result.Score {
			return matches[i].result.Score > matches[j].result.Score
		}
		return matches[i].seq < matches[j].seq
	})

	results := make([]RetrievalResult, len(matches))
	for i, m := range matches {
		results[i] = m.result
	}
	return results, nil
}

// Info implements Store.
func (s *Qdrant) Info(ctx context.Context) (Info, error) {
	exists, err := s.collectionExists(ctx)
	if err != nil {
		return Info{}, err
	}
	if !exists {
		return Info{Count: 0}, nil
	}

	collection, err := s.client.GetCollectionInfo(ctx, s.collection)
	if err != nil {
		return Info{}, fmt.Errorf("%w: get collection: %v", ErrStoreUnavailable, err)
	}
	return Info{Count: int(collection.GetPointsCount())}, nil
}

// Clear implements Store. Deleting a collection that does not exist is
// not an error.
func (s *Qdrant) Clear(ctx context.Context) error {
	exists, err := s.collectionExists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	if err := s.client.DeleteCollection(ctx, s.collection); err != nil {
		return fmt.Errorf("%w: delete collection: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// clampScore keeps Qdrant's cosine score inside the [0,1] contract.
func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
