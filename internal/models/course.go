package models

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Level represents the difficulty level of a course
type Level string

const (
	LevelBeginner     Level = "Beginner"
	LevelIntermediate Level = "Intermediate"
	LevelAdvanced     Level = "Advanced"
)

// IsValid reports whether l is a known level
func (l Level) IsValid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

// Lecture is a single lesson inside a section
type Lecture struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Duration int    `json:"duration"`
	VideoURL string `json:"videoUrl,omitempty"`
	Content  string `json:"content,omitempty"`
	IsFree   bool   `json:"isFree"`
	Order    int    `json:"order"`
}

// Section groups ordered lectures of a course
type Section struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Order       int       `json:"order"`
	Lectures    []Lecture `json:"lectures"`
}

// CategoryRef is a category reference resolved with its name
type CategoryRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Course represents a course together with its embedded sections and lectures
type Course struct {
	ID                  int             `json:"id"`
	Title               string          `json:"title"`
	Description         string          `json:"description"`
	ShortDescription    string          `json:"shortDescription,omitempty"`
	InstructorID        *int            `json:"instructorId"`
	InstructorName      string          `json:"instructorName,omitempty"`
	Categories          []CategoryRef   `json:"categories"`
	Price               decimal.Decimal `json:"price"`
	DiscountedPrice     decimal.Decimal `json:"discountedPrice"`
	DiscountPercentage  int             `json:"discountPercentage"`
	DiscountEndDate     *time.Time      `json:"discountEndDate,omitempty"`
	CoverImage          string          `json:"coverImage"`
	IsPublished         bool            `json:"isPublished"`
	Level               Level           `json:"level"`
	Language            string          `json:"language"`
	Tags                StringList      `json:"tags"`
	Requirements        StringList      `json:"requirements"`
	LearningOutcomes    StringList      `json:"learningOutcomes"`
	CertificateIncluded bool            `json:"certificateIncluded"`
	IsFeatured          bool            `json:"isFeatured"`
	Sections            Sections        `json:"sections"`
	TotalDuration       int             `json:"totalDuration"`
	TotalLectures       int             `json:"totalLectures"`
	EnrollmentCount     int             `json:"enrollmentCount"`
	Rating              float64         `json:"rating"`
	ReviewCount         int             `json:"reviewCount"`
	CreatedAt           time.Time       `json:"createdAt"`
	UpdatedAt           time.Time       `json:"updatedAt"`
}

// CategoryIDs returns the ids of the course categories
func (c *Course) CategoryIDs() []int {
	ids := make([]int, 0, len(c.Categories))
	for _, ref := range c.Categories {
		ids = append(ids, ref.ID)
	}
	return ids
}

// RecalculateTotals recomputes totalLectures and totalDuration from the sections.
// It also keeps sections and lectures sorted by their order.
func (c *Course) RecalculateTotals() {
	totalLectures, totalDuration := 0, 0
	slices.SortStableFunc(c.Sections, func(a, b Section) int { return a.Order - b.Order })
	for i := range c.Sections {
		lectures := c.Sections[i].Lectures
		slices.SortStableFunc(lectures, func(a, b Lecture) int { return a.Order - b.Order })
		totalLectures += len(lectures)
		for _, l := range lectures {
			totalDuration += l.Duration
		}
	}
	c.TotalLectures = totalLectures
	c.TotalDuration = totalDuration
}

// FindSection returns the index of the section with the given id, or -1
func (c *Course) FindSection(sectionID string) int {
	return slices.IndexFunc(c.Sections, func(s Section) bool { return s.ID == sectionID })
}

// FindLecture returns the index of the lecture inside a section, or -1
func (s *Section) FindLecture(lectureID string) int {
	return slices.IndexFunc(s.Lectures, func(l Lecture) bool { return l.ID == lectureID })
}

// HasLecture reports whether any section of the course contains the lecture
func (c *Course) HasLecture(lectureID string) bool {
	for i := range c.Sections {
		if c.Sections[i].FindLecture(lectureID) >= 0 {
			return true
		}
	}
	return false
}

// CalculateDiscountedPrice applies the course discount while it is running
func (c *Course) CalculateDiscountedPrice(now time.Time) decimal.Decimal {
	if c.DiscountPercentage <= 0 {
		return c.Price
	}
	if c.DiscountEndDate != nil && !now.Before(*c.DiscountEndDate) {
		return c.Price
	}
	return ApplyDiscount(c.Price, DiscountTypePercentage, decimal.NewFromInt(int64(c.DiscountPercentage)))
}

// IsOwnedBy reports whether userID is the course instructor
func (c *Course) IsOwnedBy(userID int) bool {
	return c.InstructorID != nil && *c.InstructorID == userID
}

// CreateCourseRequest represents a request to create a course.
// It is filled from multipart form fields.
type CreateCourseRequest struct {
	InstructorID        int             `json:"-"`
	Title               string          `json:"title" validate:"required,min=3,max=200"`
	Description         string          `json:"description" validate:"required,min=10"`
	ShortDescription    string          `json:"shortDescription" validate:"max=200"`
	Categories          []int           `json:"categories" validate:"required,min=1,dive,gt=0"`
	Price               decimal.Decimal `json:"price"`
	Level               Level           `json:"level" validate:"omitempty,oneof=Beginner Intermediate Advanced"`
	Language            string          `json:"language"`
	Tags                []string        `json:"tags"`
	Requirements        []string        `json:"requirements"`
	LearningOutcomes    []string        `json:"learningOutcomes"`
	CertificateIncluded bool            `json:"certificateIncluded"`
	DiscountPercentage  int             `json:"discountPercentage" validate:"min=0,max=100"`
	DiscountEndDate     *time.Time      `json:"discountEndDate"`
}

// UpdateCourseRequest represents a partial course update
type UpdateCourseRequest struct {
	Title               *string          `json:"title,omitempty" validate:"omitempty,min=3,max=200"`
	Description         *string          `json:"description,omitempty" validate:"omitempty,min=10"`
	ShortDescription    *string          `json:"shortDescription,omitempty" validate:"omitempty,max=200"`
	Categories          []int            `json:"categories,omitempty" validate:"omitempty,min=1,dive,gt=0"`
	Price               *decimal.Decimal `json:"price,omitempty"`
	Level               *Level           `json:"level,omitempty" validate:"omitempty,oneof=Beginner Intermediate Advanced"`
	Language            *string          `json:"language,omitempty"`
	Tags                []string         `json:"tags,omitempty"`
	Requirements        []string         `json:"requirements,omitempty"`
	LearningOutcomes    []string         `json:"learningOutcomes,omitempty"`
	CertificateIncluded *bool            `json:"certificateIncluded,omitempty"`
	IsFeatured          *bool            `json:"isFeatured,omitempty"`
	DiscountPercentage  *int             `json:"discountPercentage,omitempty" validate:"omitempty,min=0,max=100"`
	DiscountEndDate     *time.Time       `json:"discountEndDate,omitempty"`
}

// CourseFilter holds list filters for published courses
type CourseFilter struct {
	CategoryID *int
	Level      *Level
	Search     string
	Page       int
	Count      int
}

// SectionRequest creates or updates a section
type SectionRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description"`
	Order       *int    `json:"order" validate:"omitempty,min=0"`
}

// LectureRequest creates or updates a lecture
type LectureRequest struct {
	Title    *string `json:"title" validate:"omitempty,min=1,max=200"`
	Duration *int    `json:"duration" validate:"omitempty,min=0"`
	VideoURL *string `json:"videoUrl" validate:"omitempty,url"`
	Content  *string `json:"content"`
	IsFree   *bool   `json:"isFree"`
	Order    *int    `json:"order" validate:"omitempty,min=0"`
}
