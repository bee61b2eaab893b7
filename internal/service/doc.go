// Package service implements the mapping manager.
//
// MappingService sits between the presentation layer (edit page, question
// bank column, CLI) and the repositories. It resolves a question to its
// competency, creates/updates/clears the single mapping row of a question,
// and builds the competency selector.
//
// Storage failures are returned unchanged as *domain.StorageError; nothing
// is retried here. A mapping that points at a competency the catalog no
// longer has is reported as "no competency" and logged at WARN.
//
// Successful mutations are published on the EventBus so connected clients
// can refresh their question bank column.
package service
