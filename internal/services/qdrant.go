package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"alfredoptarigan/profile-matcher/internal/apperrors"
)

// Point is a vector with its id and payload, independent of the store client.
type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

type ScoredPoint struct {
	ID      string
	Score   float64
	Payload map[string]any
}

// FieldMatch matches points whose payload field equals any of the given
// keywords or integers.
type FieldMatch struct {
	Key      string
	Keywords []string
	Integers []int64
}

// PointFilter is a conjunction of field matches.
type PointFilter struct {
	Must []FieldMatch
}

func (f *PointFilter) Empty() bool {
	return f == nil || len(f.Must) == 0
}

type VectorStore interface {
	EnsureCollections(ctx context.Context) error
	Upsert(ctx context.Context, collection string, points []Point) error
	Search(ctx context.Context, collection string, vector []float32, filter *PointFilter, limit int) ([]ScoredPoint, error)
	Health(ctx context.Context) error
}

// CollectionSpec describes a collection and its payload indexes.
type CollectionSpec struct {
	Name    string
	Indexes map[string]qdrant.FieldType
}

func SkillsCollectionSpec(name string) CollectionSpec {
	return CollectionSpec{
		Name: name,
		Indexes: map[string]qdrant.FieldType{
			"cv_id":              qdrant.FieldType_FieldTypeKeyword,
			"res_id":             qdrant.FieldType_FieldTypeInteger,
			"section_type":       qdrant.FieldType_FieldTypeKeyword,
			"normalized_skills":  qdrant.FieldType_FieldTypeKeyword,
			"skill_domain":       qdrant.FieldType_FieldTypeKeyword,
			"seniority_bucket":   qdrant.FieldType_FieldTypeKeyword,
			"dictionary_version": qdrant.FieldType_FieldTypeKeyword,
			"created_at":         qdrant.FieldType_FieldTypeDatetime,
		},
	}
}

func ExperienceCollectionSpec(name string) CollectionSpec {
	return CollectionSpec{
		Name: name,
		Indexes: map[string]qdrant.FieldType{
			"cv_id":            qdrant.FieldType_FieldTypeKeyword,
			"res_id":           qdrant.FieldType_FieldTypeInteger,
			"section_type":     qdrant.FieldType_FieldTypeKeyword,
			"related_skills":   qdrant.FieldType_FieldTypeKeyword,
			"experience_years": qdrant.FieldType_FieldTypeInteger,
			"created_at":       qdrant.FieldType_FieldTypeDatetime,
		},
	}
}

// QdrantService is the Qdrant-backed VectorStore; Close releases the gRPC
// connection.
type QdrantService interface {
	VectorStore
	Close() error
}

type qdrantService struct {
	client      *qdrant.Client
	collections []CollectionSpec
	vectorSize  uint64
	logger      *zap.Logger
}

func NewQdrantService(urlStr, apiKey string, vectorSize int, collections []CollectionSpec, logger *zap.Logger) (QdrantService, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsed.Hostname()
	useTLS := parsed.Scheme == "https"

	// gRPC port
	port := 6334
	if p := parsed.Port(); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &qdrantService{
		client:      client,
		collections: collections,
		vectorSize:  uint64(vectorSize),
		logger:      logger.Named("qdrant"),
	}, nil
}

// EnsureCollections creates missing collections and payload indexes. It is
// safe to call repeatedly.
func (q *qdrantService) EnsureCollections(ctx context.Context) error {
	for _, spec := range q.collections {
		exists, err := q.client.CollectionExists(ctx, spec.Name)
		if err != nil {
			return apperrors.Transient(apperrors.CodeVectorStoreFailed, err, "failed to check collection %s", spec.Name)
		}

		if !exists {
			err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
				CollectionName: spec.Name,
				VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
					Size:     q.vectorSize,
					Distance: qdrant.Distance_Cosine,
				}),
			})
			if err != nil {
				return apperrors.Transient(apperrors.CodeVectorStoreFailed, err, "failed to create collection %s", spec.Name)
			}
			q.logger.Info("collection created", zap.String("collection", spec.Name), zap.Uint64("vector_size", q.vectorSize))
		}

		if err := q.ensureIndexes(ctx, spec); err != nil {
			return err
		}
	}

	return nil
}

func (q *qdrantService) ensureIndexes(ctx context.Context, spec CollectionSpec) error {
	info, err := q.client.GetCollectionInfo(ctx, spec.Name)
	if err != nil {
		return apperrors.Transient(apperrors.CodeVectorStoreFailed, err, "failed to read collection %s", spec.Name)
	}

	for field, fieldType := range spec.Indexes {
		if _, ok := info.GetPayloadSchema()[field]; ok {
			continue
		}
		_, err := q.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: spec.Name,
			FieldName:      field,
			FieldType:      fieldType.Enum(),
			Wait:           qdrant.PtrOf(true),
		})
		if err != nil {
			return apperrors.Transient(apperrors.CodeVectorStoreFailed, err, "failed to index %s.%s", spec.Name, field)
		}
		q.logger.Debug("payload index created", zap.String("collection", spec.Name), zap.String("field", field))
	}

	return nil
}

// Upsert writes points by id, replacing any existing point with the same id.
func (q *qdrantService) Upsert(ctx context.Context, collection string, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	structs := make([]*qdrant.PointStruct, 0, len(points))
	for _, p := range points {
		payload, err := qdrant.TryValueMap(toValueInput(p.Payload))
		if err != nil {
			return apperrors.Internal(err, "invalid payload for point %s", p.ID)
		}
		structs = append(structs, &qdrant.PointStruct{
			Id:      qdrant.NewID(p.ID),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: payload,
		})
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Wait:           qdrant.PtrOf(true),
		Points:         structs,
	})
	if err != nil {
		return apperrors.Transient(apperrors.CodeVectorStoreFailed, err, "failed to upsert %d points into %s", len(points), collection)
	}

	return nil
}

func (q *qdrantService) Search(ctx context.Context, collection string, vector []float32, filter *PointFilter, limit int) ([]ScoredPoint, error) {
	result, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(vector...),
		Filter:         buildFilter(filter),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, apperrors.Transient(apperrors.CodeVectorStoreFailed, err, "failed to query %s", collection)
	}

	points := make([]ScoredPoint, 0, len(result))
	for _, p := range result {
		payload := make(map[string]any, len(p.GetPayload()))
		for key, value := range p.GetPayload() {
			payload[key] = fromValue(value)
		}
		points = append(points, ScoredPoint{
			ID:      p.GetId().GetUuid(),
			Score:   float64(p.GetScore()),
			Payload: payload,
		})
	}

	return points, nil
}

func (q *qdrantService) Health(ctx context.Context) error {
	if _, err := q.client.HealthCheck(ctx); err != nil {
		return apperrors.Transient(apperrors.CodeVectorStoreFailed, err, "qdrant health check failed")
	}
	return nil
}

func (q *qdrantService) Close() error {
	return q.client.Close()
}

func buildFilter(filter *PointFilter) *qdrant.Filter {
	if filter.Empty() {
		return nil
	}

	conditions := make([]*qdrant.Condition, 0, len(filter.Must))
	for _, m := range filter.Must {
		switch {
		case len(m.Integers) > 0:
			conditions = append(conditions, qdrant.NewMatchInts(m.Key, m.Integers...))
		case len(m.Keywords) > 0:
			conditions = append(conditions, qdrant.NewMatchKeywords(m.Key, m.Keywords...))
		}
	}
	if len(conditions) == 0 {
		return nil
	}

	return &qdrant.Filter{Must: conditions}
}

// toValueInput converts typed slices to []any, the only list form the value
// map accepts.
func toValueInput(payload map[string]any) map[string]any {
	out := make(map[string]any, len(payload))
	for key, value := range payload {
		switch v := value.(type) {
		case []string:
			list := make([]any, len(v))
			for i, s := range v {
				list[i] = s
			}
			out[key] = list
		case []int64:
			list := make([]any, len(v))
			for i, n := range v {
				list[i] = n
			}
			out[key] = list
		default:
			out[key] = value
		}
	}
	return out
}

func fromValue(v *qdrant.Value) any {
	switch kind := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	case *qdrant.Value_ListValue:
		values := kind.ListValue.GetValues()
		list := make([]any, 0, len(values))
		for _, item := range values {
			list = append(list, fromValue(item))
		}
		return list
	case *qdrant.Value_StructValue:
		fields := kind.StructValue.GetFields()
		m := make(map[string]any, len(fields))
		for key, item := range fields {
			m[key] = fromValue(item)
		}
		return m
	}
	return nil
}
