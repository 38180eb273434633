package models

import "time"

// ApplicationStatus is the review state of an instructor application
type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "pending"
	ApplicationStatusApproved ApplicationStatus = "approved"
	ApplicationStatusRejected ApplicationStatus = "rejected"
)

// InstructorApplication is a request to become an instructor
type InstructorApplication struct {
	ID        int               `json:"id"`
	UserID    int               `json:"userId"`
	UserName  string            `json:"userName,omitempty"`
	UserEmail string            `json:"userEmail,omitempty"`
	Status    ApplicationStatus `json:"status"`
	Bio       string            `json:"bio"`
	Expertise StringList        `json:"expertise"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// Socials holds instructor social links
type Socials struct {
	Twitter  string `json:"twitter,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
}

// InstructorProfile is the public profile of an instructor
type InstructorProfile struct {
	ID        int        `json:"id"`
	UserID    int        `json:"userId"`
	UserName  string     `json:"userName,omitempty"`
	UserEmail string     `json:"userEmail,omitempty"`
	Bio       string     `json:"bio"`
	Expertise StringList `json:"expertise"`
	Website   string     `json:"website,omitempty"`
	Socials   Socials    `json:"socials"`
}

// ApplyInstructorRequest submits an instructor application
type ApplyInstructorRequest struct {
	Bio       string   `json:"bio" validate:"required,min=10,max=2000"`
	Expertise []string `json:"expertise" validate:"required,min=1,dive,required"`
}

// ReviewApplicationRequest approves or rejects an instructor application
type ReviewApplicationRequest struct {
	Status ApplicationStatus `json:"status"`
}

// UpdateProfileRequest updates the caller's instructor profile
type UpdateProfileRequest struct {
	Bio       *string  `json:"bio,omitempty" validate:"omitempty,max=2000"`
	Expertise []string `json:"expertise,omitempty"`
	Website   *string  `json:"website,omitempty" validate:"omitempty,url"`
	Socials   *Socials `json:"socials,omitempty"`
}
