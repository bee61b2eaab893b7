package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"competencymap/internal/auth"
	"competencymap/internal/domain"
	"competencymap/internal/lang"
)

// SessKeyHeader carries the sesskey on cookie-authenticated API calls
const SessKeyHeader = "X-Sesskey"

// maxBodyBytes bounds API request bodies
const maxBodyBytes = 1 << 16

// CompetencyResponse is the column view of a question's competency.
// Title and EditLabel are the localized column heading and edit link text.
type CompetencyResponse struct {
	QuestionID int64              `json:"question_id"`
	Competency *domain.Competency `json:"competency"`
	Display    string             `json:"display"`
	Title      string             `json:"title"`
	EditURL    string             `json:"edit_url"`
	EditLabel  string             `json:"edit_label"`
}

// SetCompetencyRequest is the body of PUT /api/questions/{id}/competency
type SetCompetencyRequest struct {
	CompetencyID int64 `json:"competency_id"`
}

// GetCompetency returns the competency mapped to a question
func (h *MappingHandler) GetCompetency(w http.ResponseWriter, r *http.Request) {
	question, _, ok := h.authorize(w, r, auth.CapViewAll)
	if !ok {
		return
	}

	display, competency, err := h.svc.CompetencyDisplay(r.Context(), question.ID)
	if err != nil {
		h.fail(w, r, "Failed to get competency", err)
		return
	}

	h.writeJSON(w, CompetencyResponse{
		QuestionID: question.ID,
		Competency: competency,
		Display:    display,
		Title:      h.strings.Get(lang.KeyColumnTitle),
		EditURL:    h.baseURL + EditURL(question.ID),
		EditLabel:  h.strings.Get(lang.KeyEdit),
	}, http.StatusOK)
}

// SetCompetency maps a question to a competency; competency_id 0 clears it
func (h *MappingHandler) SetCompetency(w http.ResponseWriter, r *http.Request) {
	question, session, ok := h.authorize(w, r, auth.CapEditAll)
	if !ok || !h.checkSessKey(w, r, session) {
		return
	}

	var req SetCompetencyRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}
	if err := json.Unmarshal(body, &req); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}
	if req.CompetencyID < 0 {
		h.writeError(w, "Invalid competency ID", fmt.Sprintf("%d", req.CompetencyID), http.StatusBadRequest)
		return
	}

	if err := h.svc.SetCompetencyForQuestion(r.Context(), question.ID, req.CompetencyID); err != nil {
		h.fail(w, r, "Failed to set competency", err)
		return
	}

	mapping, err := h.svc.GetMapping(r.Context(), question.ID)
	if err != nil {
		h.fail(w, r, "Failed to get mapping", err)
		return
	}
	if mapping == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.writeJSON(w, mapping, http.StatusOK)
}

// ClearCompetency removes a question's mapping
func (h *MappingHandler) ClearCompetency(w http.ResponseWriter, r *http.Request) {
	question, session, ok := h.authorize(w, r, auth.CapEditAll)
	if !ok || !h.checkSessKey(w, r, session) {
		return
	}

	if err := h.svc.SetCompetencyForQuestion(r.Context(), question.ID, domain.NoCompetency); err != nil {
		h.fail(w, r, "Failed to clear competency", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListOptions returns the competency selector entries
func (h *MappingHandler) ListOptions(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())
	if session == nil {
		h.fail(w, r, "Authentication required", domain.ErrUnauthenticated)
		return
	}

	options, err := h.svc.ListCompetencyOptions(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to list competencies", err)
		return
	}
	h.writeJSON(w, options, http.StatusOK)
}

// Healthz reports whether the store is reachable
func (h *MappingHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.health.Ping(ctx); err != nil {
			h.fail(w, r, "Store unavailable", domain.NewStorageError("ping", err))
			return
		}
	}
	h.writeJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// authorize resolves the {id} question and checks capability in its
// context. It writes the error response and returns false on failure.
func (h *MappingHandler) authorize(w http.ResponseWriter, r *http.Request, capability string) (*domain.Question, *auth.Session, bool) {
	questionID, err := parseID(r.PathValue("id"))
	if err != nil {
		h.writeError(w, "Invalid question ID", err.Error(), http.StatusBadRequest)
		return nil, nil, false
	}

	question, err := h.svc.Question(r.Context(), questionID)
	if err != nil {
		h.fail(w, r, "Question not available", err)
		return nil, nil, false
	}

	session := auth.SessionFromContext(r.Context())
	if err := auth.Require(session, question.ContextID, capability); err != nil {
		h.fail(w, r, "Access denied", err)
		return nil, nil, false
	}
	return question, session, true
}

// checkSessKey requires cookie sessions to echo their sesskey
func (h *MappingHandler) checkSessKey(w http.ResponseWriter, r *http.Request, session *auth.Session) bool {
	if session.ViaBearer || h.auth.VerifySessKey(session, r.Header.Get(SessKeyHeader)) {
		return true
	}
	h.writeError(w, "Invalid sesskey", "", http.StatusForbidden)
	return false
}
