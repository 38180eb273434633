package models

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus represents the payment outcome of an enrollment
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// PaymentMethod tags how an enrollment was paid
type PaymentMethod string

const (
	PaymentMethodCreditCard   PaymentMethod = "credit_card"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCrypto       PaymentMethod = "crypto"
	PaymentMethodCoupon       PaymentMethod = "coupon"
	PaymentMethodTest         PaymentMethod = "test"
	PaymentMethodMidtrans     PaymentMethod = "midtrans"
	PaymentMethodFree         PaymentMethod = "free"
)

// Enrollment records a student's registration in a course
type Enrollment struct {
	ID                int             `json:"id"`
	UserID            int             `json:"userId"`
	CourseID          int             `json:"courseId"`
	CourseTitle       string          `json:"courseTitle,omitempty"`
	PaymentStatus     PaymentStatus   `json:"paymentStatus"`
	PaymentAmount     decimal.Decimal `json:"paymentAmount"`
	PaymentMethod     PaymentMethod   `json:"paymentMethod"`
	PaymentDate       *time.Time      `json:"paymentDate,omitempty"`
	Progress          int             `json:"progress"`
	CompletedLectures StringList      `json:"completedLectures"`
	LastAccessedAt    time.Time       `json:"lastAccessedAt"`
	CompletedAt       *time.Time      `json:"completedAt,omitempty"`
	Rating            *int            `json:"rating,omitempty"`
	Review            string          `json:"review,omitempty"`
	IsActive          bool            `json:"isActive"`
	EnrolledAt        time.Time       `json:"enrolledAt"`
}

// MarkLectureCompleted records a completed lecture and recomputes progress.
// Progress is the floored share of the course's current lectures that are completed,
// so lectures deleted after completion no longer count. completedAt is set once when it reaches 100.
// It returns false when the lecture was already completed.
func (e *Enrollment) MarkLectureCompleted(lectureID string, course *Course, now time.Time) bool {
	e.LastAccessedAt = now
	if slices.Contains(e.CompletedLectures, lectureID) {
		return false
	}
	e.CompletedLectures = append(e.CompletedLectures, lectureID)

	completed := 0
	for _, id := range e.CompletedLectures {
		if course.HasLecture(id) {
			completed++
		}
	}
	e.Progress = CalculateProgress(completed, course.TotalLectures)
	if e.Progress == 100 && e.CompletedAt == nil {
		completedAt := now
		e.CompletedAt = &completedAt
	}
	return true
}

// CalculateProgress returns completed/total as a 0-100 percentage
func CalculateProgress(completed, total int) int {
	if total <= 0 || completed <= 0 {
		return 0
	}
	if completed >= total {
		return 100
	}
	return completed * 100 / total
}

// ReviewRequest rates a course the user is enrolled in
type ReviewRequest struct {
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
	Review string `json:"review" validate:"max=1000"`
}
