package services

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/yowaacademy/backend/internal/apperrors"
	"github.com/yowaacademy/backend/internal/models"
)

// Sections and lectures are mutated in memory and saved as one aggregate

// AddSection appends a section to a course
func (s *courseService) AddSection(ctx context.Context, actor *models.User, courseID int, req *models.SectionRequest) (*models.Course, error) {
	course, err := s.getManaged(ctx, actor, courseID)
	if err != nil {
		return nil, err
	}

	if req.Title == nil || strings.TrimSpace(*req.Title) == "" {
		return nil, apperrors.Validation("section title is required")
	}

	section := models.Section{
		ID:       uuid.NewString(),
		Title:    strings.TrimSpace(*req.Title),
		Order:    len(course.Sections),
		Lectures: []models.Lecture{},
	}
	if req.Description != nil {
		section.Description = *req.Description
	}
	if req.Order != nil {
		section.Order = *req.Order
	}
	course.Sections = append(course.Sections, section)

	return s.saveSections(ctx, course)
}

// UpdateSection changes the provided fields of a section
func (s *courseService) UpdateSection(ctx context.Context, actor *models.User, courseID int, sectionID string, req *models.SectionRequest) (*models.Course, error) {
	course, err := s.getManaged(ctx, actor, courseID)
	if err != nil {
		return nil, err
	}

	idx := course.FindSection(sectionID)
	if idx < 0 {
		return nil, apperrors.NotFound("section not found")
	}
	section := &course.Sections[idx]

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, apperrors.Validation("section title must not be empty")
		}
		section.Title = title
	}
	if req.Description != nil {
		section.Description = *req.Description
	}
	if req.Order != nil {
		section.Order = *req.Order
	}

	return s.saveSections(ctx, course)
}

// DeleteSection removes a section with all its lectures
func (s *courseService) DeleteSection(ctx context.Context, actor *models.User, courseID int, sectionID string) (*models.Course, error) {
	course, err := s.getManaged(ctx, actor, courseID)
	if err != nil {
		return nil, err
	}

	idx := course.FindSection(sectionID)
	if idx < 0 {
		return nil, apperrors.NotFound("section not found")
	}
	course.Sections = slices.Delete(course.Sections, idx, idx+1)

	return s.saveSections(ctx, course)
}

// AddLecture appends a lecture to a section
func (s *courseService) AddLecture(ctx context.Context, actor *models.User, courseID int, sectionID string, req *models.LectureRequest) (*models.Course, error) {
	course, err := s.getManaged(ctx, actor, courseID)
	if err != nil {
		return nil, err
	}

	idx := course.FindSection(sectionID)
	if idx < 0 {
		return nil, apperrors.NotFound("section not found")
	}
	section := &course.Sections[idx]

	if req.Title == nil || strings.TrimSpace(*req.Title) == "" {
		return nil, apperrors.Validation("lecture title is required")
	}

	lecture := models.Lecture{
		ID:    uuid.NewString(),
		Title: strings.TrimSpace(*req.Title),
		Order: len(section.Lectures),
	}
	if err := applyLectureFields(&lecture, req); err != nil {
		return nil, err
	}
	section.Lectures = append(section.Lectures, lecture)

	return s.saveSections(ctx, course)
}

// UpdateLecture changes the provided fields of a lecture
func (s *courseService) UpdateLecture(ctx context.Context, actor *models.User, courseID int, sectionID, lectureID string, req *models.LectureRequest) (*models.Course, error) {
	course, err := s.getManaged(ctx, actor, courseID)
	if err != nil {
		return nil, err
	}

	sectionIdx := course.FindSection(sectionID)
	if sectionIdx < 0 {
		return nil, apperrors.NotFound("section not found")
	}
	section := &course.Sections[sectionIdx]

	lectureIdx := section.FindLecture(lectureID)
	if lectureIdx < 0 {
		return nil, apperrors.NotFound("lecture not found")
	}
	lecture := &section.Lectures[lectureIdx]

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, apperrors.Validation("lecture title must not be empty")
		}
		lecture.Title = title
	}
	if err := applyLectureFields(lecture, req); err != nil {
		return nil, err
	}

	return s.saveSections(ctx, course)
}

// DeleteLecture removes a lecture from a section
func (s *courseService) DeleteLecture(ctx context.Context, actor *models.User, courseID int, sectionID, lectureID string) (*models.Course, error) {
	course, err := s.getManaged(ctx, actor, courseID)
	if err != nil {
		return nil, err
	}

	sectionIdx := course.FindSection(sectionID)
	if sectionIdx < 0 {
		return nil, apperrors.NotFound("section not found")
	}
	section := &course.Sections[sectionIdx]

	lectureIdx := section.FindLecture(lectureID)
	if lectureIdx < 0 {
		return nil, apperrors.NotFound("lecture not found")
	}
	section.Lectures = slices.Delete(section.Lectures, lectureIdx, lectureIdx+1)

	return s.saveSections(ctx, course)
}

func (s *courseService) saveSections(ctx context.Context, course *models.Course) (*models.Course, error) {
	course.RecalculateTotals()
	if err := s.repo.UpdateSections(ctx, course); err != nil {
		return nil, err
	}
	course.DiscountedPrice = course.CalculateDiscountedPrice(s.now())
	return course, nil
}

func applyLectureFields(lecture *models.Lecture, req *models.LectureRequest) error {
	if req.Duration != nil {
		if *req.Duration < 0 {
			return apperrors.Validation("lecture duration must not be negative")
		}
		lecture.Duration = *req.Duration
	}
	if req.VideoURL != nil {
		lecture.VideoURL = strings.TrimSpace(*req.VideoURL)
	}
	if req.Content != nil {
		lecture.Content = *req.Content
	}
	if req.IsFree != nil {
		lecture.IsFree = *req.IsFree
	}
	if req.Order != nil {
		lecture.Order = *req.Order
	}
	return nil
}
