package handler

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"competencymap/internal/auth"
	"competencymap/internal/domain"
	"competencymap/internal/lang"
)

//go:embed templates/edit.html
var templateFS embed.FS

var editTemplate = template.Must(template.ParseFS(templateFS, "templates/edit.html"))

type editOption struct {
	ID       int64
	Label    string
	Selected bool
}

type editPage struct {
	Lang            string
	Title           string
	Heading         string
	Action          string
	SessKey         string
	QuestionID      int64
	ReturnURL       string
	CompetencyLabel string
	SaveLabel       string
	Options         []editOption
}

// EditPage renders the competency form and, when it is submitted with
// save, stores the selection and redirects back to the question bank
func (h *MappingHandler) EditPage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	questionID, err := parseID(r.Form.Get("id"))
	if err != nil {
		http.Error(w, "Invalid question ID: "+err.Error(), http.StatusBadRequest)
		return
	}

	question, err := h.svc.Question(r.Context(), questionID)
	if err != nil {
		h.pageError(w, r, "Question not available", err)
		return
	}

	session := auth.SessionFromContext(r.Context())
	if err := auth.Require(session, question.ContextID, auth.CapEditAll); err != nil {
		h.pageError(w, r, "Access denied", err)
		return
	}

	requestedReturn := r.Form.Get("returnurl")
	if !isLocalPath(requestedReturn) {
		requestedReturn = ""
	}

	if r.Method == http.MethodPost && r.PostForm.Has("save") {
		if !session.ViaBearer && !h.auth.VerifySessKey(session, r.PostForm.Get("sesskey")) {
			http.Error(w, "Invalid sesskey", http.StatusForbidden)
			return
		}

		competencyID, err := parseCompetencyID(r.PostForm.Get("competencyid"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if err := h.svc.SetCompetencyForQuestion(r.Context(), questionID, competencyID); err != nil {
			h.pageError(w, r, "Failed to save competency", err)
			return
		}

		target := withNotice(returnURL(requestedReturn, question), h.strings.Get(lang.KeyEditSaved))
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}

	h.renderEditPage(w, r, session, question, requestedReturn)
}

func (h *MappingHandler) renderEditPage(w http.ResponseWriter, r *http.Request, session *auth.Session, question *domain.Question, requestedReturn string) {
	current, err := h.svc.GetCompetencyForQuestion(r.Context(), question.ID)
	if err != nil {
		h.pageError(w, r, "Failed to load competency", err)
		return
	}
	selected := domain.NoCompetency
	if current != nil {
		selected = current.ID
	}

	options, err := h.svc.ListCompetencyOptions(r.Context())
	if err != nil {
		h.pageError(w, r, "Failed to load competencies", err)
		return
	}

	page := editPage{
		Lang:            h.strings.Code(),
		Title:           h.strings.Get(lang.KeyEditPageTitle),
		Heading:         question.Name,
		Action:          EditPath,
		SessKey:         h.auth.SessKey(session),
		QuestionID:      question.ID,
		ReturnURL:       requestedReturn,
		CompetencyLabel: h.strings.Get(lang.KeyCompetency),
		SaveLabel:       h.strings.Get(lang.KeySaveChanges),
		Options:         make([]editOption, 0, len(options)),
	}
	for _, o := range options {
		page.Options = append(page.Options, editOption{ID: o.ID, Label: o.Label, Selected: o.ID == selected})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := editTemplate.Execute(w, page); err != nil {
		h.logger.Error("Failed to render edit page", zap.Int64("question_id", question.ID), zap.Error(err))
	}
}

// parseCompetencyID reads the selector value. An empty value means none.
func parseCompetencyID(raw string) (int64, error) {
	if raw == "" {
		return domain.NoCompetency, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return 0, errors.New("invalid competency ID " + strconv.Quote(raw))
	}
	return id, nil
}

func (h *MappingHandler) pageError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(msg, zap.String("path", r.URL.Path), zap.Error(err))
	}
	http.Error(w, msg, status)
}
