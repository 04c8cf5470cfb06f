package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

type EmbeddingStatus string

const (
	EmbeddingStatusPending    EmbeddingStatus = "PENDING"
	EmbeddingStatusProcessing EmbeddingStatus = "PROCESSING"
	EmbeddingStatusReady      EmbeddingStatus = "READY"
	EmbeddingStatusFailed     EmbeddingStatus = "FAILED"
)

// ExpectedDims is the fixed dimensionality of the embedding space. Vectors
// of any other length are rejected, never truncated or padded.
const ExpectedDims = 3072

// Unit is one embeddable text chunk. It belongs to exactly one file Item
// and dies with it.
type Unit struct {
	BaseModel
	OwnerID       uuid.UUID `gorm:"type:uuid;not null;index:idx_units_owner_source" json:"owner_id"`
	SourceFileID  uuid.UUID `gorm:"type:uuid;not null;index:idx_units_owner_source" json:"source_file_id"`
	SequenceIndex int       `gorm:"default:0" json:"sequence_index"`
	Content       string    `gorm:"type:text;not null" json:"content"`
	Metadata      JSONMap   `gorm:"type:jsonb" json:"metadata,omitempty"`

	EmbeddingStatus EmbeddingStatus `gorm:"size:20;not null;default:'PENDING';index" json:"embedding_status"`
	EmbeddingDims   int             `gorm:"default:3072" json:"embedding_dims"`
	Embedding       pgvector.Vector `gorm:"type:vector(3072)" json:"-"`
	Attempts        int             `gorm:"default:0" json:"attempts"`
	LastAttemptAt   *time.Time      `json:"last_attempt_at,omitempty"`
	LastError       string          `gorm:"type:text" json:"last_error,omitempty"`

	SourceFile *Item `gorm:"foreignKey:SourceFileID" json:"-"`
}

func (Unit) TableName() string {
	return "units"
}
