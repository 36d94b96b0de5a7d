package postgres

import (
	"time"

	"github.com/kailas-cloud/triage/internal/domain/knowledge"
	repo "github.com/kailas-cloud/triage/internal/repository/knowledge"
)

// entryRow is the table representation of a knowledge entry.
type entryRow struct {
	ID               string    `gorm:"primaryKey;type:text"`
	AuthorName       string    `gorm:"type:varchar(255);not null"`
	Facility         string    `gorm:"type:varchar(255);not null;index"`
	Specialty        string    `gorm:"type:varchar(255);not null;index"`
	Provider         *string   `gorm:"type:varchar(255)"`
	KnowledgeType    string    `gorm:"type:varchar(32);not null;index"`
	IsContinuityCare bool      `gorm:"not null;default:false"`
	Description      string    `gorm:"type:text;not null"`
	Status           string    `gorm:"type:varchar(16);not null;index:idx_knowledge_status_created,priority:1"`
	CreatedAt        time.Time `gorm:"not null;index:idx_knowledge_status_created,priority:2"`
}

func (entryRow) TableName() string { return repo.Table }

func toRow(e knowledge.Entry) entryRow {
	return entryRow{
		ID:               e.ID(),
		AuthorName:       e.AuthorName(),
		Facility:         e.Facility(),
		Specialty:        e.Specialty(),
		Provider:         e.Provider(),
		KnowledgeType:    string(e.Type()),
		IsContinuityCare: e.IsContinuityCare(),
		Description:      e.Description(),
		Status:           string(e.Status()),
		CreatedAt:        e.CreatedAt().UTC(),
	}
}

func (r entryRow) toDomain() knowledge.Entry {
	return knowledge.Reconstruct(knowledge.Params{
		ID:          r.ID,
		AuthorName:  r.AuthorName,
		Facility:    r.Facility,
		Specialty:   r.Specialty,
		Provider:    r.Provider,
		Type:        knowledge.Type(r.KnowledgeType),
		Continuity:  r.IsContinuityCare,
		Description: r.Description,
		Status:      knowledge.Status(r.Status),
		CreatedAt:   r.CreatedAt.UTC(),
	})
}
