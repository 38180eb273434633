package models

import "time"

// LeadStatus is the intake state of a prospective-student application
type LeadStatus string

const (
	LeadStatusSubmitted LeadStatus = "Submitted"
	LeadStatusReviewed  LeadStatus = "Reviewed"
	LeadStatusContacted LeadStatus = "Contacted"
	LeadStatusClosed    LeadStatus = "Closed"
)

// IsValid reports whether s is a known lead status
func (s LeadStatus) IsValid() bool {
	switch s {
	case LeadStatusSubmitted, LeadStatusReviewed, LeadStatusContacted, LeadStatusClosed:
		return true
	}
	return false
}

// Lead is a prospective student identified by email
type Lead struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// StatusHistoryEntry is one append-only record of an application status change
type StatusHistoryEntry struct {
	Status    LeadStatus `json:"status"`
	ChangedAt time.Time  `json:"changedAt"`
	ChangedBy *int       `json:"changedBy,omitempty"`
}

// Application is an information request of a lead for a course
type Application struct {
	ID            int                  `json:"id"`
	LeadID        int                  `json:"leadId"`
	LeadName      string               `json:"leadName,omitempty"`
	LeadEmail     string               `json:"leadEmail,omitempty"`
	CourseID      int                  `json:"courseId"`
	CourseTitle   string               `json:"courseTitle,omitempty"`
	Status        LeadStatus           `json:"status"`
	Notes         string               `json:"notes,omitempty"`
	StatusHistory []StatusHistoryEntry `json:"statusHistory"`
	CreatedAt     time.Time            `json:"createdAt"`
}

// SubmitApplicationRequest is the public "request info" form
type SubmitApplicationRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"max=30"`
	CourseID int    `json:"courseId" validate:"required,gt=0"`
}

// UpdateApplicationStatusRequest changes an application status
type UpdateApplicationStatusRequest struct {
	Status LeadStatus `json:"status"`
	Notes  string     `json:"notes" validate:"max=2000"`
}
