// Package domain defines the core types for competencymap.
//
// A Mapping links one question from the host question bank to one competency
// from the host competency framework. Questions and competencies are owned by
// the host; this package only carries read-only projections of them
// (Question, Competency) next to the Mapping record that competencymap owns.
//
// # Core Types
//
// Mapping is the persisted association, unique per question id.
//
// Competency is the catalog row a mapping resolves to.
//
// CompetencyOption is a selector entry derived from a Competency. Its label
// falls back to "ID {n}" when the short name is empty and carries the
// external identifier in parentheses when one is set.
//
// Question carries the fields needed for the must-exist lookup, the
// permission context and the return location of the edit page.
//
// # Errors
//
// ErrNotFound, ErrUnauthenticated and ErrUnauthorized are sentinels checked
// with errors.Is. StorageError wraps every persistence failure and is
// matched with errors.As.
package domain
