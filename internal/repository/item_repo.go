package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/paperbase/paperbase/internal/model"
)

type ItemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

func (r *ItemRepository) Create(ctx context.Context, item *model.Item) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *ItemRepository) Update(ctx context.Context, item *model.Item) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// FindByID returns the owner's node or nil when it does not exist.
func (r *ItemRepository) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*model.Item, error) {
	var item model.Item
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FindChildren returns the direct children of parentID (nil for the root
// level) sorted by (kind, name).
func (r *ItemRepository) FindChildren(ctx context.Context, ownerID uuid.UUID, parentID *uuid.UUID) ([]model.Item, error) {
	var items []model.Item
	query := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("kind ASC, name ASC")

	if parentID == nil {
		query = query.Where("parent_id IS NULL")
	} else {
		query = query.Where("parent_id = ?", *parentID)
	}

	err := query.Find(&items).Error
	return items, err
}

func (r *ItemRepository) CountChildren(ctx context.Context, ownerID, parentID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Item{}).
		Where("owner_id = ? AND parent_id = ?", ownerID, parentID).
		Count(&count).Error
	return count, err
}

// StorageKeyExists reports whether any live node of the owner already uses
// the given blob key. Keys are immutable once assigned, so this check at
// create time is enough to keep them collision-free.
func (r *ItemRepository) StorageKeyExists(ctx context.Context, ownerID uuid.UUID, key string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Item{}).
		Where("owner_id = ? AND storage_key = ?", ownerID, key).
		Count(&count).Error
	return count > 0, err
}

func (r *ItemRepository) UpdateParent(ctx context.Context, id uuid.UUID, parentID *uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Item{}).
		Where("id = ?", id).
		Update("parent_id", parentID).Error
}

// DeleteByIDs soft-deletes the given nodes in one statement.
func (r *ItemRepository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&model.Item{}).Error
}

// FindFiles returns the owner's live file nodes, newest first.
func (r *ItemRepository) FindFiles(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]model.Item, int64, error) {
	var items []model.Item
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Item{}).
		Where("owner_id = ? AND kind = ?", ownerID, model.ItemKindFile)

	query.Count(&total)
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&items).Error
	return items, total, err
}
