package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"competencymap/internal/domain"
)

// GetQuestion retrieves a question by ID, or nil if it does not exist
func (s *Store) GetQuestion(ctx context.Context, id int64) (*domain.Question, error) {
	var (
		name      sql.NullString
		contextID int64
		courseID  sql.NullInt64
	)

	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT name, context_id, course_id FROM question WHERE id = ?
	`), id).Scan(&name, &contextID, &courseID)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.NewStorageError("query question", err)
	}

	return &domain.Question{
		ID:        id,
		Name:      nullToString(name),
		ContextID: contextID,
		CourseID:  nullToInt64(courseID),
	}, nil
}
