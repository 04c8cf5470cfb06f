package model

import (
	"github.com/google/uuid"
)

type ItemKind string

const (
	ItemKindFolder ItemKind = "folder"
	ItemKindFile   ItemKind = "file"
)

// Item is one node of the per-owner folder/file tree. ParentID is a weak
// reference: nil means the node sits at the root of the owner's tree.
type Item struct {
	BaseModel
	OwnerID  uuid.UUID  `gorm:"type:uuid;not null;index:idx_items_owner_parent" json:"owner_id"`
	Kind     ItemKind   `gorm:"size:20;not null;index" json:"kind"`
	Name     string     `gorm:"size:500;not null" json:"name"`
	ParentID *uuid.UUID `gorm:"type:uuid;index:idx_items_owner_parent" json:"parent_id,omitempty"`

	// File-only fields. Folders never carry these.
	MediaType       string  `gorm:"size:100" json:"media_type,omitempty"`
	SizeBytes       int64   `gorm:"default:0" json:"size_bytes,omitempty"`
	StorageProvider string  `gorm:"size:20" json:"storage_provider,omitempty"`
	StorageKey      string  `gorm:"size:1000" json:"storage_key,omitempty"`
	StorageURI      string  `gorm:"size:2000" json:"storage_uri,omitempty"`
	NormalizedText  string      `gorm:"type:text" json:"-"`
	Structured      JSONMap     `gorm:"type:jsonb" json:"structured,omitempty"`
	ExtractWarnings StringArray `gorm:"type:jsonb" json:"extract_warnings,omitempty"`

	// Relations
	Parent   *Item   `gorm:"foreignKey:ParentID" json:"-"`
	Children []*Item `gorm:"-" json:"children,omitempty"`

	// Computed for folder listings
	ChildCount int64 `gorm:"-" json:"child_count,omitempty"`
}

func (Item) TableName() string {
	return "items"
}

func (i *Item) IsFolder() bool {
	return i.Kind == ItemKindFolder
}
