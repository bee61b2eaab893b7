// Package handler implements the HTTP layer of competencymap.
//
// # Handlers
//
// MappingHandler serves the competency edit page and the JSON API for
// reading and changing a question's competency.
//
// Middleware provides panic recovery, CORS, request logging and session
// lookup.
//
// # Edit Page
//
// GET /question/competency/edit?id={questionID} renders a form with the
// competency selector. Posting the form with save and a valid sesskey stores
// the selection and redirects (303) back to the question bank with a notice.
//
// # API
//
// Errors are returned as JSON with an {error, details} body. Domain errors
// map to status codes in one place (statusFor): not found 404, no session
// 401, missing capability 403, storage failure 500.
//
// # Server-Sent Events
//
// The /events endpoint streams mapping changes to connected clients.
package handler
