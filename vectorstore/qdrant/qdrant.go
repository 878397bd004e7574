// Package qdrant implements vectorstore.Store backed by a Qdrant instance
// over gRPC.
package qdrant

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/poiesic/corpus/vectorstore"
)

// Store writes embedding vectors to Qdrant collections.
type Store struct {
	conn       *grpc.ClientConn
	vectorSize uint64
	logger     *slog.Logger
}

var _ vectorstore.Store = (*Store)(nil)

// NewStore connects to a Qdrant instance at host:port. vectorSize is the
// dimensionality used when a collection has to be created.
func NewStore(host, port string, vectorSize uint64) (*Store, error) {
	url := host + ":" + port
	conn, err := grpc.Dial(url, grpc.WithInsecure())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", vectorstore.ErrStoreUnavailable, err)
	}
	return &Store{
		conn:       conn,
		vectorSize: vectorSize,
		logger:     slog.Default().With("component", "qdrant-store"),
	}, nil
}

// Close tears down the gRPC connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// ensureCollection creates the collection if it does not exist yet.
func (s *Store) ensureCollection(ctx context.Context, collection string) error {
	collections := qdrant.NewCollectionsClient(s.conn)
	_, err := collections.Get(ctx, &qdrant.GetCollectionInfoRequest{
		CollectionName: collection,
	})
	if err == nil {
		return nil
	}

	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.NotFound {
		return fmt.Errorf("failed to check collection: %w", err)
	}

	s.logger.Info("creating collection", "collection", collection)
	_, err = collections.Create(ctx, &qdrant.CreateCollection{
		CollectionName: collection,
		VectorsConfig: &qdrant.VectorsConfig{
			Config: &qdrant.VectorsConfig_Params{
				Params: &qdrant.VectorParams{
					Size:     s.vectorSize,
					Distance: qdrant.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

// Add implements vectorstore.Store.
func (s *Store) Add(ctx context.Context, collection string, records []vectorstore.Record) error {
	if len(records) == 0 {
		return nil
	}

	if err := s.ensureCollection(ctx, collection); err != nil {
		return err
	}

	points := make([]*qdrant.PointStruct, 0, len(records))
	for _, record := range records {
		payload := make(map[string]*qdrant.Value, len(record.Metadata))
		for k, v := range record.Metadata {
			payload[k] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: v}}
		}
		points = append(points, &qdrant.PointStruct{
			Id: &qdrant.PointId{
				PointIdOptions: &qdrant.PointId_Uuid{Uuid: uuid.NewString()},
			},
			Vectors: &qdrant.Vectors{
				VectorsOptions: &qdrant.Vectors_Vector{
					Vector: &qdrant.Vector{Data: record.Vector},
				},
			},
			Payload: payload,
		})
	}

	s.logger.Debug("upserting points", "collection", collection, "count", len(points))
	pointsClient := qdrant.NewPointsClient(s.conn)
	_, err := pointsClient.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert points: %w", err)
	}
	return nil
}

// DeleteByFilter implements vectorstore.Store.
func (s *Store) DeleteByFilter(ctx context.Context, collection string, filter vectorstore.Filter) error {
	conditions := make([]*qdrant.Condition, 0, len(filter))
	for k, v := range filter {
		conditions = append(conditions, &qdrant.Condition{
			ConditionOneOf: &qdrant.Condition_Field{
				Field: &qdrant.FieldCondition{
					Key: k,
					Match: &qdrant.Match{
						MatchValue: &qdrant.Match_Keyword{Keyword: v},
					},
				},
			},
		})
	}

	s.logger.Debug("deleting points by filter", "collection", collection, "conditions", len(conditions))
	pointsClient := qdrant.NewPointsClient(s.conn)
	_, err := pointsClient.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: &qdrant.Filter{Must: conditions},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete points: %w", err)
	}
	return nil
}
