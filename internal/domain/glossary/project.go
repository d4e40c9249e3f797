package glossary

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Project struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string    `gorm:"column:name;not null;uniqueIndex" json:"name"`
	DocumentRoot string    `gorm:"column:document_root" json:"document_root,omitempty"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}

func (Project) TableName() string { return "project" }

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type DocumentSource string

const (
	DocumentSourceUpload     DocumentSource = "upload"
	DocumentSourceFilesystem DocumentSource = "filesystem"
)

// Document is pipeline input. Runs read documents but never delete them.
type Document struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_document_project_name" json:"project_id"`
	Name      string         `gorm:"column:name;not null;uniqueIndex:idx_document_project_name" json:"name"`
	Content   string         `gorm:"column:content;type:text;not null" json:"content"`
	Source    DocumentSource `gorm:"column:source;not null" json:"source"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
}

func (Document) TableName() string { return "document" }

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
