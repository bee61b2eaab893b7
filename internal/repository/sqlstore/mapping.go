package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"competencymap/internal/domain"
)

// FindMapping returns the mapping for a question, or nil if none exists
func (s *Store) FindMapping(ctx context.Context, questionID int64) (*domain.Mapping, error) {
	m := &domain.Mapping{}
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT id, question_id, competency_id
		FROM question_competency WHERE question_id = ?
	`), questionID).Scan(&m.ID, &m.QuestionID, &m.CompetencyID)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.NewStorageError("find mapping", err)
	}
	return m, nil
}

// UpsertMapping inserts the mapping or overwrites the competency of the
// existing row. The unique index on question_id turns a racing insert into
// an update, so a question never ends up with two rows.
func (s *Store) UpsertMapping(ctx context.Context, questionID, competencyID int64) (*domain.Mapping, error) {
	m := &domain.Mapping{}
	err := s.db.QueryRowContext(ctx, s.rebind(`
		INSERT INTO question_competency (question_id, competency_id, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(question_id) DO UPDATE SET
			competency_id = excluded.competency_id,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id, question_id, competency_id
	`), questionID, competencyID).Scan(&m.ID, &m.QuestionID, &m.CompetencyID)

	if err != nil {
		return nil, domain.NewStorageError("upsert mapping", err)
	}
	return m, nil
}

// RemoveMapping deletes the mapping for a question if there is one
func (s *Store) RemoveMapping(ctx context.Context, questionID int64) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM question_competency WHERE question_id = ?`), questionID)
	if err != nil {
		return domain.NewStorageError("remove mapping", err)
	}
	return nil
}
