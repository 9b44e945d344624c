package models

import "fmt"

// Stage identifies where in the orchestration pipeline a failure occurred.
type Stage string

const (
	StageTokenAcquisition     Stage = "token_acquisition"
	StageIdentifierAllocation Stage = "identifier_allocation"
	StageRegistration         Stage = "registration"
	StageCourseBinding        Stage = "course_binding"
)

// EnrollmentRequest is the immutable input to the enrollment orchestrator.
type EnrollmentRequest struct {
	Name          string   `json:"nome"`
	Email         string   `json:"email"`
	Whatsapp      string   `json:"whatsapp"`
	Courses       []string `json:"cursos"`
	TransactionID string   `json:"transaction_id"`
}

// StudentCode is the institutional student identifier: a fixed prefix plus a
// zero-padded sequence number. Once assigned to a directory record it never
// changes.
type StudentCode struct {
	Prefix   string
	Sequence int
}

// String renders the wire form of the code, e.g. prefix 20254158 and
// sequence 21 become "20254158021".
func (c StudentCode) String() string {
	return fmt.Sprintf("%s%03d", c.Prefix, c.Sequence)
}

// EnrollmentOutcome is the terminal result of one orchestration run. A failed
// outcome after a successful registration still carries the student id and
// code so the caller can retry binding alone.
type EnrollmentOutcome struct {
	Succeeded   bool   `json:"succeeded"`
	StudentID   string `json:"student_id,omitempty"`
	Code        string `json:"code,omitempty"`
	OfferingIDs []int  `json:"offering_ids,omitempty"`
	FailedStage Stage  `json:"failed_stage,omitempty"`
	Reason      string `json:"reason,omitempty"`
	// Attempts counts the student-creation calls consumed by the
	// registration loop.
	Attempts int `json:"attempts,omitempty"`
}

// Registered reports whether a student record exists in the directory,
// regardless of binding success.
func (o EnrollmentOutcome) Registered() bool {
	return o.StudentID != ""
}

// StudentProfile is the fixed-shape payload the directory expects when
// creating a student. Address and document fields are institutional
// placeholders; the generated code doubles as the document identifier.
type StudentProfile struct {
	Name     string
	Email    string
	Whatsapp string
	Code     string
	Password string
}
