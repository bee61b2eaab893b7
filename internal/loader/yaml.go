// Package loader reads host fixture files for standalone installations.
//
// A fixture file provides the question and competency rows a real host
// would own, so the edit page can be exercised against a bare SQLite
// database:
//
//	version: "1"
//	competencies:
//	  - {id: 7, shortname: COMM, idnumber: C-01}
//	questions:
//	  - {id: 42, name: "Capital of Italy", context_id: 15, course_id: 3}
package loader

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"competencymap/internal/domain"
)

// FixtureYAML represents the YAML file structure
type FixtureYAML struct {
	Version      string           `yaml:"version"`
	Competencies []CompetencyYAML `yaml:"competencies"`
	Questions    []QuestionYAML   `yaml:"questions"`
}

// CompetencyYAML represents a competency row
type CompetencyYAML struct {
	ID        int64  `yaml:"id"`
	ShortName string `yaml:"shortname"`
	IDNumber  string `yaml:"idnumber,omitempty"`
}

// QuestionYAML represents a question row
type QuestionYAML struct {
	ID        int64  `yaml:"id"`
	Name      string `yaml:"name"`
	ContextID int64  `yaml:"context_id"`
	CourseID  int64  `yaml:"course_id,omitempty"`
}

// Seeder writes host rows
type Seeder interface {
	InsertCompetency(ctx context.Context, c domain.Competency) error
	InsertQuestion(ctx context.Context, q domain.Question) error
}

// LoadFile reads and validates a fixture file
func LoadFile(path string) (*FixtureYAML, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixture: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes and validates a fixture document
func Parse(r io.Reader) (*FixtureYAML, error) {
	var fixture FixtureYAML
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fixture); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	if err := fixture.Validate(); err != nil {
		return nil, err
	}
	return &fixture, nil
}

// Validate checks ids are positive and unique and that every question has
// a permission context
func (f *FixtureYAML) Validate() error {
	seen := make(map[int64]bool)
	for _, c := range f.Competencies {
		if c.ID <= 0 {
			return fmt.Errorf("competency %q: id must be positive", c.ShortName)
		}
		if seen[c.ID] {
			return fmt.Errorf("competency %d: duplicate id", c.ID)
		}
		seen[c.ID] = true
	}

	seen = make(map[int64]bool)
	for _, q := range f.Questions {
		if q.ID <= 0 {
			return fmt.Errorf("question %q: id must be positive", q.Name)
		}
		if seen[q.ID] {
			return fmt.Errorf("question %d: duplicate id", q.ID)
		}
		if q.ContextID <= 0 {
			return fmt.Errorf("question %d: context_id is required", q.ID)
		}
		seen[q.ID] = true
	}
	return nil
}

// Apply writes every row through the seeder
func (f *FixtureYAML) Apply(ctx context.Context, s Seeder) error {
	for _, c := range f.Competencies {
		if err := s.InsertCompetency(ctx, domain.Competency{ID: c.ID, ShortName: c.ShortName, IDNumber: c.IDNumber}); err != nil {
			return err
		}
	}
	for _, q := range f.Questions {
		if err := s.InsertQuestion(ctx, domain.Question{ID: q.ID, Name: q.Name, ContextID: q.ContextID, CourseID: q.CourseID}); err != nil {
			return err
		}
	}
	return nil
}
