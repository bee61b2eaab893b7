package domain

import "strconv"

// NoCompetency is the competency id that clears a mapping
const NoCompetency int64 = 0

// Mapping links a question to a competency
type Mapping struct {
	ID           int64 `json:"id"`
	QuestionID   int64 `json:"question_id"`
	CompetencyID int64 `json:"competency_id"`
}

// Competency is a read-only projection of a competency framework entry
type Competency struct {
	ID        int64  `json:"id"`
	ShortName string `json:"shortname"`
	IDNumber  string `json:"idnumber,omitempty"`
}

// CompetencyOption is a single entry of the competency selector
type CompetencyOption struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
}

// Question is a read-only projection of a question bank entry
type Question struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ContextID int64  `json:"context_id"`
	CourseID  int64  `json:"course_id,omitempty"` // 0 when not in a course context
}

// InCourse reports whether the question belongs to a course context
func (q *Question) InCourse() bool {
	return q != nil && q.CourseID > 0
}

// Label returns the selector label for the competency.
// Empty short names fall back to "ID {n}"; a non-empty idnumber is appended
// in parentheses.
func (c Competency) Label() string {
	label := c.ShortName
	if label == "" {
		label = "ID " + strconv.FormatInt(c.ID, 10)
	}
	if c.IDNumber != "" {
		label += " (" + c.IDNumber + ")"
	}
	return label
}

// Option converts the competency into a selector entry
func (c Competency) Option() CompetencyOption {
	return CompetencyOption{ID: c.ID, Label: c.Label()}
}

// NoneOption returns the sentinel "no competency" option
func NoneOption(label string) CompetencyOption {
	return CompetencyOption{ID: NoCompetency, Label: label}
}
