package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"competencymap/internal/auth"
	"competencymap/internal/domain"
	"competencymap/internal/lang"
	"competencymap/internal/service"
)

// EditPath is the route of the competency edit page
const EditPath = "/question/competency/edit"

// Pinger reports whether the backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// MappingHandler handles the edit page and the mapping API
type MappingHandler struct {
	svc     *service.MappingService
	auth    *auth.Authenticator
	strings *lang.Strings
	health  Pinger
	baseURL string
	logger  *zap.Logger
}

// NewMappingHandler creates a new mapping handler
func NewMappingHandler(svc *service.MappingService, authenticator *auth.Authenticator, strs *lang.Strings, logger *zap.Logger) *MappingHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if strs == nil {
		strs = lang.MustLoad(lang.DefaultLang)
	}
	return &MappingHandler{
		svc:     svc,
		auth:    authenticator,
		strings: strs,
		logger:  logger,
	}
}

// SetHealthCheck sets the dependency checked by /healthz
func (h *MappingHandler) SetHealthCheck(p Pinger) {
	h.health = p
}

// SetBaseURL prefixes the edit links returned by the API
func (h *MappingHandler) SetBaseURL(baseURL string) {
	h.baseURL = strings.TrimSuffix(baseURL, "/")
}

// Register adds the handler's routes to mux
func (h *MappingHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET "+EditPath, h.EditPage)
	mux.HandleFunc("POST "+EditPath, h.EditPage)

	mux.HandleFunc("GET /api/questions/{id}/competency", h.GetCompetency)
	mux.HandleFunc("PUT /api/questions/{id}/competency", h.SetCompetency)
	mux.HandleFunc("DELETE /api/questions/{id}/competency", h.ClearCompetency)
	mux.HandleFunc("GET /api/competencies/options", h.ListOptions)

	mux.HandleFunc("GET /healthz", h.Healthz)
}

// ErrorResponse is the JSON body of an error
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as a JSON error. Server errors are logged and their
// details withheld from the client.
func (h *MappingHandler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(msg,
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		h.writeError(w, msg, "", status)
		return
	}
	h.writeError(w, msg, err.Error(), status)
}

func (h *MappingHandler) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Warn("Failed to encode JSON", zap.Error(err))
	}
}

func (h *MappingHandler) writeError(w http.ResponseWriter, error, details string, statusCode int) {
	h.writeJSON(w, ErrorResponse{Error: error, Details: details}, statusCode)
}

// parseID parses a positive question or competency id
func parseID(raw string) (int64, error) {
	if raw == "" {
		return 0, errors.New("id is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

// EditURL returns the edit page link for a question
func EditURL(questionID int64) string {
	return EditPath + "?id=" + strconv.FormatInt(questionID, 10)
}

// returnURL picks where to send the user after saving: the caller's local
// path if given, otherwise the question bank of the question's course
func returnURL(requested string, q *domain.Question) string {
	if isLocalPath(requested) {
		return requested
	}
	if q.InCourse() {
		return "/question/edit.php?courseid=" + strconv.FormatInt(q.CourseID, 10)
	}
	return "/question/edit.php"
}

// isLocalPath accepts same-origin paths only. Control characters are
// rejected because browsers strip them, turning "/\t/host" into "//host".
func isLocalPath(p string) bool {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.Contains(p, "\\") {
		return false
	}
	for i := 0; i < len(p); i++ {
		if p[i] < 0x20 || p[i] == 0x7f {
			return false
		}
	}
	u, err := url.Parse(p)
	if err != nil {
		return false
	}
	return u.Scheme == "" && u.Host == "" && strings.HasPrefix(u.Path, "/") && !strings.HasPrefix(u.Path, "//")
}

// withNotice appends the notice query parameter to a local URL
func withNotice(target, notice string) string {
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	q := u.Query()
	q.Set("notice", notice)
	u.RawQuery = q.Encode()
	return u.String()
}
