package vectorstore

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/index"
	"github.com/milvus-io/milvus/client/v2/milvusclient"

	"embedpipe/internal/contextutil"
)

// Field names for collections managed by MilvusStore. Milvus collections are
// strictly typed, so the payload keys that Qdrant stores as free-form JSON
// become fixed schema fields here.
const (
	milvusFieldID       = "id"
	milvusFieldTitle    = "title"
	milvusFieldText     = "text"
	milvusFieldCategory = "category"
	milvusFieldChunk    = "chunk_index"
	milvusFieldDocID    = "document_id"
	milvusFieldVector   = "vector"
)

// MilvusStore implements VectorStore using Milvus.
type MilvusStore struct {
	client *milvusclient.Client
}

// NewMilvusStore creates a new Milvus vector store client.
// addr should be in the format "host:port" (e.g., "localhost:19530").
func NewMilvusStore(ctx context.Context, addr string) (*MilvusStore, error) {
	client, err := milvusclient.New(ctx, &milvusclient.ClientConfig{
		Address: addr,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Milvus: %w", err)
	}

	return &MilvusStore{
		client: client,
	}, nil
}

// Upsert inserts or updates points in the collection.
func (s *MilvusStore) Upsert(ctx context.Context, collection string, points []Point) error {
	logger := contextutil.LoggerFromContext(ctx)

	if len(points) == 0 {
		return nil
	}

	ids := make([]string, len(points))
	titles := make([]string, len(points))
	texts := make([]string, len(points))
	categories := make([]string, len(points))
	chunkIndexes := make([]int64, len(points))
	docIDs := make([]string, len(points))
	vectors := make([][]float32, len(points))

	for i, point := range points {
		ids[i] = point.ID
		titles[i] = metaString(point.Meta, milvusFieldTitle)
		texts[i] = metaString(point.Meta, milvusFieldText)
		categories[i] = metaString(point.Meta, milvusFieldCategory)
		chunkIndexes[i] = metaInt64(point.Meta, milvusFieldChunk)
		docIDs[i] = metaString(point.Meta, milvusFieldDocID)
		vectors[i] = point.Vec
	}

	dim := len(points[0].Vec)
	_, err := s.client.Upsert(ctx, milvusclient.NewColumnBasedInsertOption(collection,
		column.NewColumnVarChar(milvusFieldID, ids),
		column.NewColumnVarChar(milvusFieldTitle, titles),
		column.NewColumnVarChar(milvusFieldText, texts),
		column.NewColumnVarChar(milvusFieldCategory, categories),
		column.NewColumnInt64(milvusFieldChunk, chunkIndexes),
		column.NewColumnVarChar(milvusFieldDocID, docIDs),
		column.NewColumnFloatVector(milvusFieldVector, dim, vectors),
	))
	if err != nil {
		logger.ErrorContext(ctx, "failed to upsert points", "collection", collection, "count", len(points), "error", err)
		return fmt.Errorf("failed to upsert points: %w", err)
	}

	logger.DebugContext(ctx, "upserted points", "collection", collection, "count", len(points))
	return nil
}

// buildMilvusFilterExpr translates the generic filter map into a Milvus
// boolean expression. Only category and document_id are recognized; empty
// values are skipped so a blank filter never excludes everything.
func buildMilvusFilterExpr(filters map[string]any) string {
	if len(filters) == 0 {
		return ""
	}

	exprs := make([]string, 0, len(filters))

	if category, ok := filters["category"]; ok {
		if str := fmt.Sprintf("%v", category); str != "" {
			exprs = append(exprs, fmt.Sprintf("%s == %s", milvusFieldCategory, strconv.Quote(str)))
		}
	}

	if docID, ok := filters["document_id"]; ok {
		if str := fmt.Sprintf("%v", docID); str != "" {
			exprs = append(exprs, fmt.Sprintf("%s == %s", milvusFieldDocID, strconv.Quote(str)))
		}
	}

	return strings.Join(exprs, " and ")
}

// Search performs a similarity search with optional filters.
func (s *MilvusStore) Search(ctx context.Context, collection string, query []float32, k int, filters map[string]any) ([]SearchResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0")
	}

	searchOpt := milvusclient.NewSearchOption(collection, k, []entity.Vector{entity.FloatVector(query)}).
		WithANNSField(milvusFieldVector).
		WithOutputFields(milvusFieldTitle, milvusFieldText, milvusFieldCategory, milvusFieldChunk, milvusFieldDocID)
	if expr := buildMilvusFilterExpr(filters); expr != "" {
		searchOpt = searchOpt.WithFilter(expr)
	}

	resultSets, err := s.client.Search(ctx, searchOpt)
	if err != nil {
		logger.ErrorContext(ctx, "failed to search points", "collection", collection, "k", k, "error", err)
		return nil, fmt.Errorf("failed to search points: %w", err)
	}

	results := make([]SearchResult, 0, k)
	for _, rs := range resultSets {
		for i := 0; i < rs.ResultCount; i++ {
			pointID, err := rs.IDs.GetAsString(i)
			if err != nil {
				continue
			}

			meta := make(map[string]any, 5)
			for _, name := range []string{milvusFieldTitle, milvusFieldText, milvusFieldCategory, milvusFieldDocID} {
				col := rs.GetColumn(name)
				if col == nil {
					continue
				}
				if val, err := col.GetAsString(i); err == nil {
					meta[name] = val
				}
			}
			if col := rs.GetColumn(milvusFieldChunk); col != nil {
				if chunkIndex, err := col.GetAsInt64(i); err == nil {
					meta[milvusFieldChunk] = chunkIndex
				}
			}

			score := float32(0)
			if i < len(rs.Scores) {
				score = rs.Scores[i]
			}

			results = append(results, SearchResult{
				PointID: pointID,
				Score:   score,
				Meta:    meta,
			})
		}
	}

	logger.DebugContext(ctx, "search completed", "collection", collection, "k", k, "results", len(results))
	return results, nil
}

// Delete removes points by their IDs.
func (s *MilvusStore) Delete(ctx context.Context, collection string, ids []string) error {
	logger := contextutil.LoggerFromContext(ctx)

	if len(ids) == 0 {
		return nil
	}

	_, err := s.client.Delete(ctx, milvusclient.NewDeleteOption(collection).
		WithStringIDs(milvusFieldID, ids))
	if err != nil {
		logger.ErrorContext(ctx, "failed to delete points", "collection", collection, "count", len(ids), "error", err)
		return fmt.Errorf("failed to delete points: %w", err)
	}

	logger.DebugContext(ctx, "deleted points", "collection", collection, "count", len(ids))
	return nil
}

// CollectionExists checks if a collection exists.
func (s *MilvusStore) CollectionExists(ctx context.Context, collection string) (bool, error) {
	exists, err := s.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(collection))
	if err != nil {
		return false, fmt.Errorf("failed to check collection existence: %w", err)
	}
	return exists, nil
}

// EnsureCollection ensures a collection exists with the specified vector size.
// If the collection exists, validates that the vector size matches.
// If it doesn't exist, creates it with an HNSW index on the vector field.
// The collection is loaded into memory either way; Milvus requires that
// before it will serve searches.
func (s *MilvusStore) EnsureCollection(ctx context.Context, collection string, vectorSize int) error {
	logger := contextutil.LoggerFromContext(ctx)

	exists, err := s.CollectionExists(ctx, collection)
	if err != nil {
		return err
	}

	if !exists {
		logger.InfoContext(ctx, "creating collection", "collection", collection, "vector_size", vectorSize)

		schema := &entity.Schema{
			CollectionName: collection,
			Description:    "Document chunk vectors",
			Fields: []*entity.Field{
				{
					Name:       milvusFieldID,
					DataType:   entity.FieldTypeVarChar,
					PrimaryKey: true,
					AutoID:     false,
					TypeParams: map[string]string{
						"max_length": "64",
					},
				},
				{
					Name:     milvusFieldTitle,
					DataType: entity.FieldTypeVarChar,
					TypeParams: map[string]string{
						"max_length": "1024",
					},
				},
				{
					Name:     milvusFieldText,
					DataType: entity.FieldTypeVarChar,
					TypeParams: map[string]string{
						"max_length": "65535",
					},
				},
				{
					Name:     milvusFieldCategory,
					DataType: entity.FieldTypeVarChar,
					TypeParams: map[string]string{
						"max_length": "255",
					},
				},
				{
					Name:     milvusFieldChunk,
					DataType: entity.FieldTypeInt64,
				},
				{
					Name:     milvusFieldDocID,
					DataType: entity.FieldTypeVarChar,
					TypeParams: map[string]string{
						"max_length": "64",
					},
				},
				{
					Name:     milvusFieldVector,
					DataType: entity.FieldTypeFloatVector,
					TypeParams: map[string]string{
						"dim": fmt.Sprintf("%d", vectorSize),
					},
				},
			},
		}

		createOpt := milvusclient.NewCreateCollectionOption(collection, schema).WithShardNum(2)
		if err := s.client.CreateCollection(ctx, createOpt); err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}

		idx := index.NewHNSWIndex(entity.COSINE, 16, 200)
		indexOpt := milvusclient.NewCreateIndexOption(collection, milvusFieldVector, idx)
		if _, err := s.client.CreateIndex(ctx, indexOpt); err != nil {
			return fmt.Errorf("failed to create vector index: %w", err)
		}

		logger.InfoContext(ctx, "collection created", "collection", collection, "vector_size", vectorSize)
	} else {
		desc, err := s.client.DescribeCollection(ctx, milvusclient.NewDescribeCollectionOption(collection))
		if err != nil {
			return fmt.Errorf("failed to describe collection: %w", err)
		}

		actualSize := milvusVectorSize(desc.Schema)
		if actualSize == 0 {
			return fmt.Errorf("could not determine collection vector size")
		}
		if actualSize != vectorSize {
			return fmt.Errorf("collection vector size mismatch: expected %d, got %d", vectorSize, actualSize)
		}

		logger.InfoContext(ctx, "collection validated", "collection", collection, "vector_size", vectorSize)
	}

	loadOpt := milvusclient.NewLoadCollectionOption(collection)
	if _, err := s.client.LoadCollection(ctx, loadOpt); err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}

	return nil
}

// GetCollectionInfo returns information about a collection including point count.
func (s *MilvusStore) GetCollectionInfo(ctx context.Context, collection string) (*CollectionInfo, error) {
	desc, err := s.client.DescribeCollection(ctx, milvusclient.NewDescribeCollectionOption(collection))
	if err != nil {
		return nil, fmt.Errorf("failed to describe collection: %w", err)
	}

	queryOpt := milvusclient.NewQueryOption(collection).
		WithOutputFields("count(*)")
	rs, err := s.client.Query(ctx, queryOpt)
	if err != nil {
		return nil, fmt.Errorf("failed to count points: %w", err)
	}

	pointsCount := 0
	if col := rs.GetColumn("count(*)"); col != nil && col.Len() > 0 {
		if n, err := col.GetAsInt64(0); err == nil {
			pointsCount = int(n)
		}
	}

	// A successful count query implies the collection is loaded.
	return &CollectionInfo{
		VectorSize:  milvusVectorSize(desc.Schema),
		PointsCount: pointsCount,
		Status:      "loaded",
	}, nil
}

// milvusVectorSize digs the vector dimension out of the collection schema,
// returning 0 when the vector field or its dim param is missing.
func milvusVectorSize(schema *entity.Schema) int {
	if schema == nil {
		return 0
	}
	for _, field := range schema.Fields {
		if field.Name != milvusFieldVector {
			continue
		}
		if dim, ok := field.TypeParams["dim"]; ok {
			if parsed, err := strconv.Atoi(dim); err == nil {
				return parsed
			}
		}
	}
	return 0
}

// metaString reads a string payload value, tolerating missing keys and
// non-string values.
func metaString(meta map[string]any, key string) string {
	if meta == nil {
		return ""
	}
	v, ok := meta[key]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

// metaInt64 reads an integer payload value, tolerating missing keys and the
// numeric types a JSON round-trip can produce.
func metaInt64(meta map[string]any, key string) int64 {
	if meta == nil {
		return 0
	}
	switch v := meta[key].(type) {
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	default:
		return 0
	}
}
