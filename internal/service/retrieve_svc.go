package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/paperbase/paperbase/internal/model"
)

// DefaultRetrieveLimit is the top-K when the caller does not ask for one.
const DefaultRetrieveLimit = 5

// RetrievedUnit is one similarity hit returned to the orchestrator.
type RetrievedUnit struct {
	UnitID       uuid.UUID `json:"unit_id"`
	SourceFileID uuid.UUID `json:"source_file_id"`
	Content      string    `json:"content"`
	Score        float64   `json:"score"`
}

// RetrieveService finds the READY units most similar to a query, strictly
// inside the caller-supplied source scope.
type RetrieveService struct {
	embed  *EmbedService
	units  UnitStore
	logger *slog.Logger
}

func NewRetrieveService(embed *EmbedService, units UnitStore) *RetrieveService {
	return &RetrieveService{
		embed:  embed,
		units:  units,
		logger: slog.Default().With("component", "retrieve"),
	}
}

// Retrieve returns at most limit hits. An empty or absent scope returns no
// results: a missing UI selection must never widen the search to the
// owner's whole corpus. A failed query embedding also returns no results,
// because retrieval is an enhancement to generation, not a dependency.
func (s *RetrieveService) Retrieve(ctx context.Context, ownerID uuid.UUID, query string, allowedSourceIDs []uuid.UUID, limit int) ([]RetrievedUnit, error) {
	if len(allowedSourceIDs) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultRetrieveLimit
	}

	embedded := s.embed.Embed(ctx, query, 0)
	if embedded.Status != model.EmbeddingStatusReady {
		s.logger.Warn("query embedding failed, returning no context", "error", embedded.LastError)
		return nil, nil
	}

	candidates := limit * 10
	if candidates < 50 {
		candidates = 50
	}

	results, err := s.units.SearchSimilar(ctx, ownerID, allowedSourceIDs,
		pgvector.NewVector(embedded.Vector), candidates)
	if err != nil {
		return nil, err
	}

	// The scope is a hard invariant; re-check it here instead of trusting
	// the index filter alone.
	allowed := make(map[uuid.UUID]bool, len(allowedSourceIDs))
	for _, id := range allowedSourceIDs {
		allowed[id] = true
	}

	hits := make([]RetrievedUnit, 0, limit)
	for _, r := range results {
		if !allowed[r.Unit.SourceFileID] {
			continue
		}
		hits = append(hits, RetrievedUnit{
			UnitID:       r.Unit.ID,
			SourceFileID: r.Unit.SourceFileID,
			Content:      r.Unit.Content,
			// Cosine distance to similarity.
			Score: 1 - r.Distance,
		})
		if len(hits) == limit {
			break
		}
	}
	return hits, nil
}
