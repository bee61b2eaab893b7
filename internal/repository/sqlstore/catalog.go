package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"competencymap/internal/domain"
)

// GetCompetency retrieves a single competency by ID
func (s *Store) GetCompetency(ctx context.Context, id int64) (*domain.Competency, error) {
	var shortName, idNumber sql.NullString

	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT shortname, idnumber FROM competency WHERE id = ?
	`), id).Scan(&shortName, &idNumber)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.NewStorageError("query competency", err)
	}

	return &domain.Competency{
		ID:        id,
		ShortName: nullToString(shortName),
		IDNumber:  nullToString(idNumber),
	}, nil
}

// ListCompetencies returns all competencies ordered by short name.
// NULL short names are treated as empty strings so both dialects sort them
// first.
func (s *Store) ListCompetencies(ctx context.Context) ([]domain.Competency, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, shortname, idnumber
		FROM competency
		ORDER BY COALESCE(shortname, '') ASC, id ASC
	`)
	if err != nil {
		return nil, domain.NewStorageError("query competencies", err)
	}
	defer rows.Close()

	var competencies []domain.Competency
	for rows.Next() {
		var (
			id                  int64
			shortName, idNumber sql.NullString
		)
		if err := rows.Scan(&id, &shortName, &idNumber); err != nil {
			return nil, domain.NewStorageError("scan competency", err)
		}
		competencies = append(competencies, domain.Competency{
			ID:        id,
			ShortName: nullToString(shortName),
			IDNumber:  nullToString(idNumber),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError("iterate competencies", err)
	}
	return competencies, nil
}
