package repository

import (
	"context"

	"competencymap/internal/domain"
)

// MappingStore persists question to competency mappings keyed by question id
type MappingStore interface {
	FindMapping(ctx context.Context, questionID int64) (*domain.Mapping, error)
	// UpsertMapping creates the mapping or overwrites its competency id
	UpsertMapping(ctx context.Context, questionID, competencyID int64) (*domain.Mapping, error)
	// RemoveMapping is a no-op when no mapping exists
	RemoveMapping(ctx context.Context, questionID int64) error
}

// CompetencyCatalog reads the host competency framework
type CompetencyCatalog interface {
	GetCompetency(ctx context.Context, id int64) (*domain.Competency, error)
	// ListCompetencies returns all competencies ordered by short name
	ListCompetencies(ctx context.Context) ([]domain.Competency, error)
}

// QuestionReader reads the host question bank
type QuestionReader interface {
	GetQuestion(ctx context.Context, id int64) (*domain.Question, error)
}
