package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/paperbase/paperbase/internal/model"
	"github.com/paperbase/paperbase/internal/transform"
)

// IngestService runs the upload pipeline: transform the document, persist
// the file node and its units, then push every unit through the embedding
// gateway with a bounded worker pool.
type IngestService struct {
	tree        *TreeService
	embed       *EmbedService
	units       UnitStore
	items       ItemStore
	transformer *transform.Transformer
	workers     int
	logger      *slog.Logger
}

func NewIngestService(tree *TreeService, embed *EmbedService, items ItemStore, units UnitStore, transformer *transform.Transformer, workers int) *IngestService {
	if workers <= 0 {
		workers = 1
	}
	return &IngestService{
		tree:        tree,
		embed:       embed,
		units:       units,
		items:       items,
		transformer: transformer,
		workers:     workers,
		logger:      slog.Default().With("component", "ingest"),
	}
}

// Ingest persists the uploaded document and returns the file node. The file
// succeeds even when some units end up FAILED; per-unit embedding state is
// recorded on the units themselves.
func (s *IngestService) Ingest(ctx context.Context, ownerID uuid.UUID, parentID *uuid.UUID, filename, mediaType string, data []byte) (*model.Item, error) {
	// Transform first: a parse failure must not leave a half-ingested file
	// node behind.
	result, err := s.transformer.Transform(data, mediaType, filename)
	if err != nil {
		return nil, err
	}

	file, err := s.tree.CreateFileNode(ctx, ownerID, parentID, filename, mediaType, data)
	if err != nil {
		return nil, err
	}

	file.NormalizedText = result.Text
	if len(result.Structured) > 0 {
		file.Structured = model.JSONMap(result.Structured)
	}
	if len(result.Warnings) > 0 {
		file.ExtractWarnings = model.StringArray(result.Warnings)
	}
	if err := s.items.Update(ctx, file); err != nil {
		return nil, err
	}

	units := make([]model.Unit, 0, len(result.Units))
	for i, draft := range result.Units {
		units = append(units, model.Unit{
			OwnerID:         ownerID,
			SourceFileID:    file.ID,
			SequenceIndex:   i,
			Content:         draft.Content,
			Metadata:        model.JSONMap(draft.Metadata),
			EmbeddingStatus: model.EmbeddingStatusPending,
			EmbeddingDims:   model.ExpectedDims,
		})
	}
	if err := s.units.CreateBatch(ctx, units); err != nil {
		return nil, err
	}

	s.embedAll(ctx, units)

	s.logger.Info("file ingested",
		"file_id", file.ID, "owner_id", ownerID, "units", len(units))
	return file, nil
}

// embedAll fans units out over a bounded worker pool. Units are
// independent: one failure never blocks or rolls back its siblings.
func (s *IngestService) embedAll(ctx context.Context, units []model.Unit) {
	if len(units) == 0 {
		return
	}

	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup

	for i := range units {
		wg.Add(1)
		sem <- struct{}{}
		go func(unit *model.Unit) {
			defer wg.Done()
			defer func() { <-sem }()
			s.embed.ProcessUnit(ctx, unit)
		}(&units[i])
	}

	wg.Wait()
}

// ListFiles returns the owner's live files, newest first.
func (s *IngestService) ListFiles(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]model.Item, int64, error) {
	return s.items.FindFiles(ctx, ownerID, limit, offset)
}

// ListUnits returns the units of one file in sequence order.
func (s *IngestService) ListUnits(ctx context.Context, ownerID, fileID uuid.UUID) ([]model.Unit, error) {
	return s.units.FindBySourceFile(ctx, ownerID, fileID)
}
