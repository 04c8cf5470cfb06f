package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/paperbase/paperbase/internal/model"
	"github.com/paperbase/paperbase/internal/repository"
)

// ItemStore is the node persistence surface the services consume. The gorm
// ItemRepository satisfies it; tests use in-memory fakes.
type ItemStore interface {
	Create(ctx context.Context, item *model.Item) error
	Update(ctx context.Context, item *model.Item) error
	FindByID(ctx context.Context, ownerID, id uuid.UUID) (*model.Item, error)
	FindChildren(ctx context.Context, ownerID uuid.UUID, parentID *uuid.UUID) ([]model.Item, error)
	CountChildren(ctx context.Context, ownerID, parentID uuid.UUID) (int64, error)
	StorageKeyExists(ctx context.Context, ownerID uuid.UUID, key string) (bool, error)
	UpdateParent(ctx context.Context, id uuid.UUID, parentID *uuid.UUID) error
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) error
	FindFiles(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]model.Item, int64, error)
}

// UnitStore is the unit persistence surface.
type UnitStore interface {
	CreateBatch(ctx context.Context, units []model.Unit) error
	Update(ctx context.Context, unit *model.Unit) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Unit, error)
	FindBySourceFile(ctx context.Context, ownerID, fileID uuid.UUID) ([]model.Unit, error)
	FindFailedBySourceFile(ctx context.Context, ownerID, fileID uuid.UUID) ([]model.Unit, error)
	FindFailed(ctx context.Context, limit int) ([]model.Unit, error)
	DeleteBySourceFiles(ctx context.Context, fileIDs []uuid.UUID) error
	SearchSimilar(ctx context.Context, ownerID uuid.UUID, sourceFileIDs []uuid.UUID, query pgvector.Vector, candidates int) ([]repository.SearchResult, error)
}

// Embedder turns text into a fixed-dimension vector.
type Embedder interface {
	EmbedContent(ctx context.Context, text string) ([]float32, error)
}

// Generator produces answer text for a prompt.
type Generator interface {
	GenerateContent(ctx context.Context, prompt, systemRules string) (string, error)
}
