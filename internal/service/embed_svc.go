package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/paperbase/paperbase/internal/model"
)

// Failure reasons recorded on units.
const (
	ReasonEmptyText   = "EMPTY_TEXT"
	ReasonDimMismatch = "DIM_MISMATCH"
)

// EmbedResult is the outcome of one embedding attempt.
type EmbedResult struct {
	Status    model.EmbeddingStatus
	Dims      int
	Vector    []float32
	Attempts  int
	LastError string
}

// EmbedService is the embedding gateway: it owns the unit status lifecycle
// PENDING -> PROCESSING -> READY|FAILED and the attempt bookkeeping.
type EmbedService struct {
	embedder Embedder
	units    UnitStore
	logger   *slog.Logger
}

func NewEmbedService(embedder Embedder, units UnitStore) *EmbedService {
	return &EmbedService{
		embedder: embedder,
		units:    units,
		logger:   slog.Default().With("component", "embed"),
	}
}

// Embed converts text to a vector. attempts always comes back as
// priorAttempts+1, whatever the outcome, so retry accounting survives
// FAILED -> retry cycles.
func (s *EmbedService) Embed(ctx context.Context, text string, priorAttempts int) EmbedResult {
	attempts := priorAttempts + 1

	if strings.TrimSpace(text) == "" {
		return EmbedResult{
			Status:    model.EmbeddingStatusFailed,
			Attempts:  attempts,
			LastError: ReasonEmptyText,
		}
	}

	vector, err := s.embedder.EmbedContent(ctx, text)
	if err != nil {
		return EmbedResult{
			Status:    model.EmbeddingStatusFailed,
			Attempts:  attempts,
			LastError: err.Error(),
		}
	}

	// A wrong-size vector is never truncated or padded; silent reshaping
	// would corrupt the similarity geometry of the whole index.
	if len(vector) != model.ExpectedDims {
		return EmbedResult{
			Status:    model.EmbeddingStatusFailed,
			Attempts:  attempts,
			LastError: fmt.Sprintf("%s: expected %d dims, got %d", ReasonDimMismatch, model.ExpectedDims, len(vector)),
		}
	}

	return EmbedResult{
		Status:   model.EmbeddingStatusReady,
		Dims:     model.ExpectedDims,
		Vector:   vector,
		Attempts: attempts,
	}
}

// ProcessUnit runs one unit through the gateway and persists every state
// transition. A failure marks the unit FAILED and is not propagated: one
// unit never blocks its siblings or the enclosing ingestion.
func (s *EmbedService) ProcessUnit(ctx context.Context, unit *model.Unit) {
	now := time.Now()
	unit.EmbeddingStatus = model.EmbeddingStatusProcessing
	unit.LastAttemptAt = &now
	if err := s.units.Update(ctx, unit); err != nil {
		s.logger.Warn("failed to mark unit processing", "unit_id", unit.ID, "error", err)
		return
	}

	result := s.Embed(ctx, unit.Content, unit.Attempts)

	unit.EmbeddingStatus = result.Status
	unit.Attempts = result.Attempts
	unit.LastError = result.LastError
	if result.Status == model.EmbeddingStatusReady {
		unit.EmbeddingDims = result.Dims
		unit.Embedding = pgvector.NewVector(result.Vector)
	}

	if err := s.units.Update(ctx, unit); err != nil {
		s.logger.Warn("failed to persist embedding result", "unit_id", unit.ID, "error", err)
		return
	}

	if result.Status == model.EmbeddingStatusFailed {
		s.logger.Warn("unit embedding failed",
			"unit_id", unit.ID, "attempts", result.Attempts, "error", result.LastError)
	}
}

// SweepFailed retries up to batch FAILED units across the whole store,
// skipping units whose text is empty since those can never embed.
func (s *EmbedService) SweepFailed(ctx context.Context, batch int) (recovered int, err error) {
	failed, err := s.units.FindFailed(ctx, batch)
	if err != nil {
		return 0, err
	}

	for i := range failed {
		unit := &failed[i]
		if unit.LastError == ReasonEmptyText {
			continue
		}
		s.ProcessUnit(ctx, unit)
		if unit.EmbeddingStatus == model.EmbeddingStatusReady {
			recovered++
		}
	}
	return recovered, nil
}

// RunSweeper periodically sweeps FAILED units until ctx is cancelled.
func (s *EmbedService) RunSweeper(ctx context.Context, interval time.Duration, batch int) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			recovered, err := s.SweepFailed(ctx, batch)
			if err != nil {
				s.logger.Warn("re-embed sweep failed", "error", err)
				continue
			}
			if recovered > 0 {
				s.logger.Info("re-embed sweep recovered units", "recovered", recovered)
			}
		}
	}
}

// ReembedFile retries every FAILED unit of the file, pacing repeat attempts
// per unit with exponential backoff. Units that stay FAILED keep their
// incremented attempt counters for the next sweep.
func (s *EmbedService) ReembedFile(ctx context.Context, ownerID, fileID uuid.UUID) (retried, recovered int, err error) {
	failed, err := s.units.FindFailedBySourceFile(ctx, ownerID, fileID)
	if err != nil {
		return 0, 0, err
	}

	for i := range failed {
		unit := &failed[i]
		retried++

		operation := func() error {
			s.ProcessUnit(ctx, unit)
			if unit.EmbeddingStatus != model.EmbeddingStatusReady {
				// Empty text will never embed; retrying is pointless.
				if unit.LastError == ReasonEmptyText {
					return backoff.Permanent(fmt.Errorf("unit %s: %s", unit.ID, unit.LastError))
				}
				return fmt.Errorf("unit %s still %s", unit.ID, unit.EmbeddingStatus)
			}
			return nil
		}

		b := backoff.NewExponentialBackOff()
		b.InitialInterval = 500 * time.Millisecond
		b.MaxInterval = 10 * time.Second
		b.MaxElapsedTime = 30 * time.Second

		if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err == nil {
			recovered++
		}
	}

	return retried, recovered, nil
}
