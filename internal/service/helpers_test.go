package service

import (
	"context"

	"competencymap/internal/domain"
	"competencymap/internal/repository/sqlstore"
)

func seedCompetency(s *sqlstore.Store, c domain.Competency) error {
	return s.InsertCompetency(context.Background(), c)
}

func seedQuestion(s *sqlstore.Store, q domain.Question) error {
	return s.InsertQuestion(context.Background(), q)
}

func countMappings(s *sqlstore.Store, questionID int64) (int, error) {
	return s.CountMappings(context.Background(), questionID)
}

type stubStore struct {
	err   error
	calls int
}

func (s *stubStore) FindMapping(ctx context.Context, questionID int64) (*domain.Mapping, error) {
	s.calls++
	return nil, s.err
}

func (s *stubStore) UpsertMapping(ctx context.Context, questionID, competencyID int64) (*domain.Mapping, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Mapping{ID: 1, QuestionID: questionID, CompetencyID: competencyID}, nil
}

func (s *stubStore) RemoveMapping(ctx context.Context, questionID int64) error {
	s.calls++
	return s.err
}

type stubCatalog struct {
	list []domain.Competency
	err  error
}

func (c *stubCatalog) GetCompetency(ctx context.Context, id int64) (*domain.Competency, error) {
	if c.err != nil {
		return nil, c.err
	}
	for _, comp := range c.list {
		if comp.ID == id {
			return &comp, nil
		}
	}
	return nil, nil
}

func (c *stubCatalog) ListCompetencies(ctx context.Context) ([]domain.Competency, error) {
	return c.list, c.err
}
