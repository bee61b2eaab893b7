// Package repository defines the data access interfaces for competencymap.
//
// MappingStore owns the question_competency table. CompetencyCatalog and
// QuestionReader are read-only views over tables the host application owns.
// The sqlstore subpackage implements all three on database/sql for SQLite
// and PostgreSQL.
//
// Lookups return (nil, nil) when a row does not exist. Every persistence
// failure is returned as a *domain.StorageError.
package repository
