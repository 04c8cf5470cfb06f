package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/paperbase/paperbase/internal/model"
)

type UnitRepository struct {
	db *gorm.DB
}

func NewUnitRepository(db *gorm.DB) *UnitRepository {
	return &UnitRepository{db: db}
}

func (r *UnitRepository) CreateBatch(ctx context.Context, units []model.Unit) error {
	if len(units) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&units).Error
}

func (r *UnitRepository) Update(ctx context.Context, unit *model.Unit) error {
	return r.db.WithContext(ctx).Save(unit).Error
}

func (r *UnitRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Unit, error) {
	var unit model.Unit
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&unit).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

func (r *UnitRepository) FindBySourceFile(ctx context.Context, ownerID, fileID uuid.UUID) ([]model.Unit, error) {
	var units []model.Unit
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND source_file_id = ?", ownerID, fileID).
		Order("sequence_index ASC").
		Find(&units).Error
	return units, err
}

// FindFailedBySourceFile returns the FAILED units of one file, for the
// on-demand re-embed path.
func (r *UnitRepository) FindFailedBySourceFile(ctx context.Context, ownerID, fileID uuid.UUID) ([]model.Unit, error) {
	var units []model.Unit
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND source_file_id = ? AND embedding_status = ?",
			ownerID, fileID, model.EmbeddingStatusFailed).
		Order("sequence_index ASC").
		Find(&units).Error
	return units, err
}

// DeleteBySourceFiles soft-deletes every unit owned by the given files.
func (r *UnitRepository) DeleteBySourceFiles(ctx context.Context, fileIDs []uuid.UUID) error {
	if len(fileIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("source_file_id IN ?", fileIDs).
		Delete(&model.Unit{}).Error
}

// FindFailed returns up to limit FAILED units across all owners, least
// recently attempted first, for the background sweep.
func (r *UnitRepository) FindFailed(ctx context.Context, limit int) ([]model.Unit, error) {
	var units []model.Unit
	err := r.db.WithContext(ctx).
		Where("embedding_status = ?", model.EmbeddingStatusFailed).
		Order("last_attempt_at ASC NULLS FIRST").
		Limit(limit).
		Find(&units).Error
	return units, err
}

// SearchResult is one similarity hit with its cosine distance.
type SearchResult struct {
	model.Unit
	Distance float64 `gorm:"column:distance"`
}

// SearchSimilar scans READY units of ownerID restricted to the given source
// files, ordered by cosine distance to the query vector. candidates bounds
// the scanned pool; the caller trims to its final top-K.
func (r *UnitRepository) SearchSimilar(ctx context.Context, ownerID uuid.UUID, sourceFileIDs []uuid.UUID, query pgvector.Vector, candidates int) ([]SearchResult, error) {
	var results []SearchResult
	err := r.db.WithContext(ctx).
		Table("units").
		Select("*, embedding <=> ? AS distance", query).
		Where("owner_id = ?", ownerID).
		Where("source_file_id IN ?", sourceFileIDs).
		Where("embedding_status = ?", model.EmbeddingStatusReady).
		Where("deleted_at IS NULL").
		Order("distance ASC").
		Limit(candidates).
		Find(&results).Error
	return results, err
}
