package service

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"competencymap/internal/domain"
	"competencymap/internal/repository"
)

// MappingService provides the question to competency mapping operations
type MappingService struct {
	store     repository.MappingStore
	catalog   repository.CompetencyCatalog
	questions repository.QuestionReader
	eventBus  *EventBus
	noneLabel string
	logger    *zap.Logger
}

// Options configures a MappingService
type Options struct {
	// NoneLabel labels the "no competency" selector entry
	NoneLabel string
	EventBus  *EventBus
	Logger    *zap.Logger
}

// NewMappingService creates a new mapping service
func NewMappingService(store repository.MappingStore, catalog repository.CompetencyCatalog, questions repository.QuestionReader, opts Options) *MappingService {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.NoneLabel == "" {
		opts.NoneLabel = "None"
	}
	return &MappingService{
		store:     store,
		catalog:   catalog,
		questions: questions,
		eventBus:  opts.EventBus,
		noneLabel: opts.NoneLabel,
		logger:    opts.Logger,
	}
}

// NoneLabel returns the label used for "no competency"
func (s *MappingService) NoneLabel() string {
	return s.noneLabel
}

// Question returns the question or an error wrapping domain.ErrNotFound
func (s *MappingService) Question(ctx context.Context, questionID int64) (*domain.Question, error) {
	q, err := s.questions.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, fmt.Errorf("question %d: %w", questionID, domain.ErrNotFound)
	}
	return q, nil
}

// GetMapping returns the raw mapping row for a question, or nil
func (s *MappingService) GetMapping(ctx context.Context, questionID int64) (*domain.Mapping, error) {
	return s.store.FindMapping(ctx, questionID)
}

// GetCompetencyForQuestion resolves the competency mapped to a question.
// It returns nil when the question has no mapping or when the mapped
// competency no longer exists in the catalog.
func (s *MappingService) GetCompetencyForQuestion(ctx context.Context, questionID int64) (*domain.Competency, error) {
	mapping, err := s.store.FindMapping(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if mapping == nil {
		return nil, nil
	}

	competency, err := s.catalog.GetCompetency(ctx, mapping.CompetencyID)
	if err != nil {
		return nil, err
	}
	if competency == nil {
		s.logger.Warn("Mapping references missing competency",
			zap.Int64("question_id", questionID),
			zap.Int64("competency_id", mapping.CompetencyID),
		)
		return nil, nil
	}
	return competency, nil
}

// SetCompetencyForQuestion maps the question to competencyID, or removes
// the mapping when competencyID is domain.NoCompetency (or negative)
func (s *MappingService) SetCompetencyForQuestion(ctx context.Context, questionID, competencyID int64) error {
	if competencyID <= domain.NoCompetency {
		if err := s.store.RemoveMapping(ctx, questionID); err != nil {
			return err
		}
		s.logger.Info("Cleared competency mapping", zap.Int64("question_id", questionID))
		s.publish(ctx, EventMappingCleared, questionID, domain.NoCompetency)
		return nil
	}

	mapping, err := s.store.UpsertMapping(ctx, questionID, competencyID)
	if err != nil {
		return err
	}
	s.logger.Info("Set competency mapping",
		zap.Int64("mapping_id", mapping.ID),
		zap.Int64("question_id", questionID),
		zap.Int64("competency_id", competencyID),
	)
	s.publish(ctx, EventMappingSet, questionID, competencyID)
	return nil
}

// ListCompetencyOptions returns the selector entries: the "none" sentinel
// first, then every competency ordered by short name. Short names compare
// bytewise, so empty ones sort first; equal names are ordered by id.
func (s *MappingService) ListCompetencyOptions(ctx context.Context) ([]domain.CompetencyOption, error) {
	competencies, err := s.catalog.ListCompetencies(ctx)
	if err != nil {
		return nil, err
	}

	sorted := make([]domain.Competency, len(competencies))
	copy(sorted, competencies)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].ShortName != sorted[j].ShortName {
			return sorted[i].ShortName < sorted[j].ShortName
		}
		return sorted[i].ID < sorted[j].ID
	})

	options := make([]domain.CompetencyOption, 0, len(sorted)+1)
	options = append(options, domain.NoneOption(s.noneLabel))
	for _, c := range sorted {
		if c.ID == domain.NoCompetency {
			continue
		}
		options = append(options, c.Option())
	}
	return options, nil
}

// CompetencyDisplay returns the column text for a question: the mapped
// competency's short name, or the "none" label
func (s *MappingService) CompetencyDisplay(ctx context.Context, questionID int64) (string, *domain.Competency, error) {
	competency, err := s.GetCompetencyForQuestion(ctx, questionID)
	if err != nil {
		return "", nil, err
	}
	if competency == nil {
		return s.noneLabel, nil, nil
	}
	if competency.ShortName == "" {
		return competency.Label(), competency, nil
	}
	return competency.ShortName, competency, nil
}

// publish tags the event with the question's context so subscribers can
// filter by capability
func (s *MappingService) publish(ctx context.Context, eventType EventType, questionID, competencyID int64) {
	if s.eventBus == nil {
		return
	}

	payload := MappingEventPayload{QuestionID: questionID, CompetencyID: competencyID}
	if s.questions != nil {
		q, err := s.questions.GetQuestion(ctx, questionID)
		switch {
		case err != nil:
			s.logger.Warn("Failed to read question context for event", zap.Int64("question_id", questionID), zap.Error(err))
		case q != nil:
			payload.ContextID = q.ContextID
		}
	}

	s.eventBus.Publish(Event{Type: eventType, Payload: payload})
}
