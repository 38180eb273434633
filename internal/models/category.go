package models

import "time"

// Category represents a course category
type Category struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CategoryRequest creates or updates a category
type CategoryRequest struct {
	Name        string `json:"name" validate:"omitempty,min=2,max=100"`
	Description string `json:"description" validate:"max=500"`
}

// CategoryWithCourses is a category together with its published courses
type CategoryWithCourses struct {
	Category *Category `json:"category"`
	Courses  []Course  `json:"courses"`
}
