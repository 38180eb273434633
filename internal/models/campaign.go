package models

import "time"

// CourseRef is a course reference resolved with its title
type CourseRef struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

// Campaign represents a time-boxed promotion of featured courses
type Campaign struct {
	ID              int         `json:"id"`
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	StartDate       time.Time   `json:"startDate"`
	EndDate         time.Time   `json:"endDate"`
	IsActive        bool        `json:"isActive"`
	FeaturedCourses []CourseRef `json:"featuredCourses"`
	CreatedAt       time.Time   `json:"createdAt"`
}

// FeaturedCourseIDs returns the ids of the featured courses
func (c *Campaign) FeaturedCourseIDs() []int {
	ids := make([]int, 0, len(c.FeaturedCourses))
	for _, ref := range c.FeaturedCourses {
		ids = append(ids, ref.ID)
	}
	return ids
}

// CreateCampaignRequest represents a request to create a campaign
type CreateCampaignRequest struct {
	Title           string     `json:"title" validate:"required,min=3,max=200"`
	Description     string     `json:"description" validate:"required,min=10"`
	StartDate       *time.Time `json:"startDate" validate:"required"`
	EndDate         *time.Time `json:"endDate" validate:"required"`
	IsActive        *bool      `json:"isActive"`
	FeaturedCourses []int      `json:"featuredCourses" validate:"dive,gt=0"`
}

// UpdateCampaignRequest represents a partial campaign update
type UpdateCampaignRequest struct {
	Title           *string    `json:"title,omitempty" validate:"omitempty,min=3,max=200"`
	Description     *string    `json:"description,omitempty" validate:"omitempty,min=10"`
	StartDate       *time.Time `json:"startDate,omitempty"`
	EndDate         *time.Time `json:"endDate,omitempty"`
	IsActive        *bool      `json:"isActive,omitempty"`
	FeaturedCourses []int      `json:"featuredCourses,omitempty" validate:"omitempty,dive,gt=0"`
}
