package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"competencymap/internal/domain"
)

// InsertCompetency writes a competency row into the host table.
// Used by the seed command on standalone installations.
func (s *Store) InsertCompetency(ctx context.Context, c domain.Competency) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO competency (id, shortname, idnumber) VALUES (?, ?, ?)
	`), c.ID, c.ShortName, stringToNull(c.IDNumber))
	if err != nil {
		return fmt.Errorf("failed to insert competency %d: %w", c.ID, err)
	}
	return nil
}

// InsertQuestion writes a question row into the host table
func (s *Store) InsertQuestion(ctx context.Context, q domain.Question) error {
	var courseID sql.NullInt64
	if q.CourseID > 0 {
		courseID = sql.NullInt64{Int64: q.CourseID, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO question (id, name, context_id, course_id) VALUES (?, ?, ?, ?)
	`), q.ID, q.Name, q.ContextID, courseID)
	if err != nil {
		return fmt.Errorf("failed to insert question %d: %w", q.ID, err)
	}
	return nil
}

// CountMappings returns the number of mapping rows for a question
func (s *Store) CountMappings(ctx context.Context, questionID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT COUNT(*) FROM question_competency WHERE question_id = ?
	`), questionID).Scan(&n)
	if err != nil {
		return 0, domain.NewStorageError("count mappings", err)
	}
	return n, nil
}
