package domain

import (
	"time"
)

// Candidate approval states.
const (
	ApprovalOnProgress = "OnProgress"
	ApprovalAccepted   = "Accepted"
	ApprovalRejected   = "Rejected"
)

// IsDecision reports whether the given approval value is a terminal decision.
func IsDecision(approval string) bool {
	return approval == ApprovalAccepted || approval == ApprovalRejected
}

// Candidate represents an applicant going through the recruitment process.
// Scores are nullable: they are filled in as the candidate completes each
// stage, and Average is recomputed from whichever scores are present.
type Candidate struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	StudentID    string     `json:"student_id"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone,omitempty"`
	Gender       string     `json:"gender,omitempty"`
	Religion     string     `json:"religion,omitempty"`
	Faculty      string     `json:"faculty,omitempty"`
	StudyProgram string     `json:"study_program,omitempty"`
	Image        string     `json:"image,omitempty"`
	Cohort       string     `json:"cohort,omitempty"`
	LK1          *float64   `json:"lk1,omitempty"`
	LK2          *float64   `json:"lk2,omitempty"`
	SC           *float64   `json:"sc,omitempty"`
	Activity     *float64   `json:"activity,omitempty"`
	Average      *float64   `json:"average,omitempty"`
	Approval     string     `json:"approval"`
	Description  string     `json:"description,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DecidedAt    *time.Time `json:"decided_at,omitempty"`
}

// CandidateSummary is the trimmed projection returned by list endpoints.
type CandidateSummary struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	StudentID    string `json:"student_id"`
	StudyProgram string `json:"study_program,omitempty"`
	Cohort       string `json:"cohort,omitempty"`
	Approval     string `json:"approval"`
}
