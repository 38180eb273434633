package services

import (
	"context"
	"io"
	"time"

	"github.com/yowaacademy/backend/internal/apperrors"
	"github.com/yowaacademy/backend/internal/models"
	"github.com/yowaacademy/backend/internal/payment"
	"github.com/yowaacademy/backend/internal/storage"
)

// mockUserRepository is a mock implementation of UserRepository
type mockUserRepository struct {
	user            *models.User
	err             error
	exists          bool
	existsErr       error
	createErr       error
	created         *models.User
	users           []models.User
	enrolledIDs     []int
	addEnrolledErr  error
	addEnrolled     [][2]int
	updateAvatarErr error
	avatar          string
	deleteErr       error
	deletedID       int
}

func (m *mockUserRepository) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	user.ID = 1
	m.created = user
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	user := *m.user
	user.PasswordHash = ""
	return &user, nil
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	user := *m.user
	return &user, nil
}

func (m *mockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return m.exists, m.existsErr
}

func (m *mockUserRepository) GetAll(ctx context.Context) ([]models.User, error) {
	return m.users, m.err
}

func (m *mockUserRepository) GetEnrolledCourseIDs(ctx context.Context, userID int) ([]int, error) {
	return m.enrolledIDs, nil
}

func (m *mockUserRepository) AddEnrolledCourse(ctx context.Context, userID, courseID int) error {
	m.addEnrolled = append(m.addEnrolled, [2]int{userID, courseID})
	return m.addEnrolledErr
}

func (m *mockUserRepository) UpdateAvatar(ctx context.Context, userID int, avatar string) error {
	if m.updateAvatarErr != nil {
		return m.updateAvatarErr
	}
	m.avatar = avatar
	return nil
}

func (m *mockUserRepository) Delete(ctx context.Context, id int) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deletedID = id
	return nil
}

// mockUserTokenRepository is a mock implementation of UserTokenRepository
type mockUserTokenRepository struct {
	token     *models.UserToken
	getErr    error
	createErr error
	updateErr error
	created   []*models.UserToken
	updated   string
	deleted   []string
}

func (m *mockUserTokenRepository) Create(ctx context.Context, userToken *models.UserToken) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, userToken)
	return nil
}

func (m *mockUserTokenRepository) GetByToken(ctx context.Context, token string) (*models.UserToken, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.token, nil
}

func (m *mockUserTokenRepository) UpdateToken(ctx context.Context, oldToken, newToken string, userID int) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updated = newToken
	return nil
}

func (m *mockUserTokenRepository) DeleteByToken(ctx context.Context, token string) error {
	m.deleted = append(m.deleted, token)
	return nil
}

// mockImageStore is a mock implementation of ImageStore
type mockImageStore struct {
	url       string
	saveErr   error
	removeErr error
	saved     []storage.ImageKind
	removed   []string
}

func (m *mockImageStore) Save(ctx context.Context, r io.Reader, filename, contentType string, kind storage.ImageKind) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	m.saved = append(m.saved, kind)
	return m.url, nil
}

func (m *mockImageStore) Remove(ctx context.Context, url string) error {
	m.removed = append(m.removed, url)
	return m.removeErr
}

// mockNotifier records sent notifications
type mockNotifier struct {
	welcome    int
	enrollment int
	reviewed   []models.ApplicationStatus
	leads      []string
}

func (m *mockNotifier) Welcome(ctx context.Context, user *models.User) {
	m.welcome++
}

func (m *mockNotifier) EnrollmentConfirmed(ctx context.Context, user *models.User, enrollment *models.Enrollment) {
	m.enrollment++
}

func (m *mockNotifier) InstructorReviewed(ctx context.Context, app *models.InstructorApplication) {
	m.reviewed = append(m.reviewed, app.Status)
}

func (m *mockNotifier) LeadAcknowledged(ctx context.Context, lead *models.Lead, courseTitle string) {
	m.leads = append(m.leads, lead.Email)
}

// mockCategoryRepository is a mock implementation of CategoryRepository
type mockCategoryRepository struct {
	category   *models.Category
	err        error
	categories []models.Category
	missing    []int
	createErr  error
	updateErr  error
	deleteErr  error
	deleted    bool
}

func (m *mockCategoryRepository) Create(ctx context.Context, category *models.Category) error {
	if m.createErr != nil {
		return m.createErr
	}
	category.ID = 1
	return nil
}

func (m *mockCategoryRepository) GetByID(ctx context.Context, id int) (*models.Category, error) {
	if m.err != nil {
		return nil, m.err
	}
	category := *m.category
	return &category, nil
}

func (m *mockCategoryRepository) GetAll(ctx context.Context) ([]models.Category, error) {
	return m.categories, m.err
}

func (m *mockCategoryRepository) Update(ctx context.Context, category *models.Category) error {
	return m.updateErr
}

func (m *mockCategoryRepository) Delete(ctx context.Context, id int) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = true
	return nil
}

func (m *mockCategoryRepository) GetMissingIDs(ctx context.Context, ids []int) ([]int, error) {
	return m.missing, nil
}

// mockCourseRepository is a mock implementation of CourseRepository
type mockCourseRepository struct {
	course              *models.Course
	err                 error
	existing            map[int]bool
	titleExists         bool
	courses             []models.Course
	createErr           error
	created             *models.Course
	updateErr           error
	updated             *models.Course
	sectionsErr         error
	sectionsSaved       *models.Course
	published           *bool
	deleteErr           error
	deleted             bool
	recountErr          error
	recounted           []int
	ratingErr           error
	ratingRecalculated  int
	instructorFilter    *bool
	categoryCount       int
	publishedByCategory []models.Course
}

func (m *mockCourseRepository) Create(ctx context.Context, course *models.Course) error {
	if m.createErr != nil {
		return m.createErr
	}
	course.ID = 10
	m.created = course
	return nil
}

func (m *mockCourseRepository) GetByID(ctx context.Context, id int) (*models.Course, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.course == nil {
		return nil, apperrors.NotFound("course not found")
	}
	course := *m.course
	course.Sections = cloneSections(m.course.Sections)
	return &course, nil
}

func (m *mockCourseRepository) Exists(ctx context.Context, id int) (bool, error) {
	return m.existing[id], m.err
}

func (m *mockCourseRepository) ExistsByTitle(ctx context.Context, title string, excludeID int) (bool, error) {
	return m.titleExists, nil
}

func (m *mockCourseRepository) GetPublished(ctx context.Context, filter models.CourseFilter) ([]models.Course, error) {
	return m.courses, m.err
}

func (m *mockCourseRepository) GetByInstructor(ctx context.Context, instructorID int, published *bool) ([]models.Course, error) {
	m.instructorFilter = published
	return m.courses, m.err
}

func (m *mockCourseRepository) GetPublishedByCategory(ctx context.Context, categoryID int) ([]models.Course, error) {
	return m.publishedByCategory, m.err
}

func (m *mockCourseRepository) CountByCategory(ctx context.Context, categoryID int) (int, error) {
	return m.categoryCount, nil
}

func (m *mockCourseRepository) GetAll(ctx context.Context) ([]models.Course, error) {
	return m.courses, m.err
}

func (m *mockCourseRepository) Update(ctx context.Context, course *models.Course) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updated = course
	return nil
}

func (m *mockCourseRepository) UpdateSections(ctx context.Context, course *models.Course) error {
	if m.sectionsErr != nil {
		return m.sectionsErr
	}
	m.sectionsSaved = course
	return nil
}

func (m *mockCourseRepository) SetPublished(ctx context.Context, id int, published bool) error {
	m.published = &published
	return nil
}

func (m *mockCourseRepository) Delete(ctx context.Context, id int) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = true
	return nil
}

func (m *mockCourseRepository) RecountEnrollments(ctx context.Context, courseID int) error {
	m.recounted = append(m.recounted, courseID)
	return m.recountErr
}

func (m *mockCourseRepository) RecalculateRating(ctx context.Context, courseID int) error {
	m.ratingRecalculated++
	return m.ratingErr
}

func cloneSections(sections models.Sections) models.Sections {
	if sections == nil {
		return nil
	}
	cloned := make(models.Sections, len(sections))
	for i, s := range sections {
		cloned[i] = s
		cloned[i].Lectures = append([]models.Lecture(nil), s.Lectures...)
	}
	return cloned
}

// mockEnrollmentRepository is a mock implementation of EnrollmentRepository.
// Create enforces the (user, course) uniqueness of the real table.
type mockEnrollmentRepository struct {
	keys          map[[2]int]bool
	createErr     error
	created       []*models.Enrollment
	enrollment    *models.Enrollment
	getErr        error
	enrollments   []models.Enrollment
	progressErr   error
	progressSaved *models.Enrollment
	reviewErr     error
	reviewRating  int
	reviewText    string
}

func (m *mockEnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if m.createErr != nil {
		return m.createErr
	}
	if m.keys == nil {
		m.keys = make(map[[2]int]bool)
	}
	key := [2]int{enrollment.UserID, enrollment.CourseID}
	if m.keys[key] {
		return apperrors.AlreadyEnrolled("already enrolled in this course")
	}
	m.keys[key] = true
	enrollment.ID = len(m.created) + 1
	m.created = append(m.created, enrollment)
	return nil
}

func (m *mockEnrollmentRepository) GetByUserAndCourse(ctx context.Context, userID, courseID int) (*models.Enrollment, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	enrollment := *m.enrollment
	enrollment.CompletedLectures = append(models.StringList(nil), m.enrollment.CompletedLectures...)
	return &enrollment, nil
}

func (m *mockEnrollmentRepository) GetByUser(ctx context.Context, userID int) ([]models.Enrollment, error) {
	return m.enrollments, m.getErr
}

func (m *mockEnrollmentRepository) UpdateProgress(ctx context.Context, enrollment *models.Enrollment) error {
	if m.progressErr != nil {
		return m.progressErr
	}
	m.progressSaved = enrollment
	return nil
}

func (m *mockEnrollmentRepository) UpdateReview(ctx context.Context, enrollmentID, rating int, review string) error {
	if m.reviewErr != nil {
		return m.reviewErr
	}
	m.reviewRating, m.reviewText = rating, review
	return nil
}

// mockPaymentIntentRepository is a mock implementation of PaymentIntentRepository
type mockPaymentIntentRepository struct {
	intent    *models.PaymentIntent
	getErr    error
	createErr error
	created   *models.PaymentIntent
	statuses  []models.IntentStatus
	claimLost bool
}

func (m *mockPaymentIntentRepository) Create(ctx context.Context, intent *models.PaymentIntent) error {
	if m.createErr != nil {
		return m.createErr
	}
	intent.ID = 1
	m.created = intent
	return nil
}

func (m *mockPaymentIntentRepository) GetByToken(ctx context.Context, token string) (*models.PaymentIntent, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	intent := *m.intent
	return &intent, nil
}

func (m *mockPaymentIntentRepository) CompletePending(ctx context.Context, id int, status models.IntentStatus) (bool, error) {
	if m.claimLost || m.intent == nil || m.intent.Status != models.IntentStatusPending {
		return false, nil
	}
	m.statuses = append(m.statuses, status)
	m.intent.Status = status
	return true, nil
}

// mockGateway is a mock implementation of payment.Gateway
type mockGateway struct {
	checkout    *payment.Checkout
	createErr   error
	result      *payment.Result
	retrieveErr error
	request     *payment.CheckoutRequest
	created     int
}

func (m *mockGateway) Name() string {
	return "test"
}

func (m *mockGateway) CreateCheckout(ctx context.Context, req payment.CheckoutRequest) (*payment.Checkout, error) {
	m.created++
	m.request = &req
	if m.createErr != nil {
		return nil, m.createErr
	}
	return m.checkout, nil
}

func (m *mockGateway) RetrievePayment(ctx context.Context, orderID string) (*payment.Result, error) {
	if m.retrieveErr != nil {
		return nil, m.retrieveErr
	}
	return m.result, nil
}

// mockCouponRepository is a mock implementation of CouponRepository
type mockCouponRepository struct {
	coupon    *models.Coupon
	err       error
	exists    bool
	coupons   []models.Coupon
	createErr error
	created   *models.Coupon
	updateErr error
	updated   *models.Coupon
	deleted   bool
}

func (m *mockCouponRepository) Create(ctx context.Context, coupon *models.Coupon) error {
	if m.createErr != nil {
		return m.createErr
	}
	coupon.ID = 1
	m.created = coupon
	return nil
}

func (m *mockCouponRepository) GetByID(ctx context.Context, id int) (*models.Coupon, error) {
	if m.err != nil {
		return nil, m.err
	}
	coupon := *m.coupon
	return &coupon, nil
}

func (m *mockCouponRepository) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	return m.GetByID(ctx, 0)
}

func (m *mockCouponRepository) ExistsByCode(ctx context.Context, code string, excludeID int) (bool, error) {
	return m.exists, nil
}

func (m *mockCouponRepository) GetAll(ctx context.Context) ([]models.Coupon, error) {
	return m.coupons, m.err
}

func (m *mockCouponRepository) Update(ctx context.Context, coupon *models.Coupon) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updated = coupon
	return nil
}

func (m *mockCouponRepository) Delete(ctx context.Context, id int) error {
	m.deleted = true
	return nil
}

// mockCampaignRepository is a mock implementation of CampaignRepository
type mockCampaignRepository struct {
	campaign  *models.Campaign
	err       error
	campaigns []models.Campaign
	createErr error
	created   *models.Campaign
	updated   *models.Campaign
}

func (m *mockCampaignRepository) Create(ctx context.Context, campaign *models.Campaign) error {
	if m.createErr != nil {
		return m.createErr
	}
	campaign.ID = 1
	m.created = campaign
	return nil
}

func (m *mockCampaignRepository) GetByID(ctx context.Context, id int) (*models.Campaign, error) {
	if m.err != nil {
		return nil, m.err
	}
	campaign := *m.campaign
	return &campaign, nil
}

func (m *mockCampaignRepository) GetActive(ctx context.Context) ([]models.Campaign, error) {
	return m.campaigns, m.err
}

func (m *mockCampaignRepository) Update(ctx context.Context, campaign *models.Campaign) error {
	m.updated = campaign
	return nil
}

func (m *mockCampaignRepository) Delete(ctx context.Context, id int) error {
	return m.err
}

// mockInstructorRepository is a mock implementation of InstructorRepository
type mockInstructorRepository struct {
	app            *models.InstructorApplication
	appErr         error
	exists         bool
	createErr      error
	created        *models.InstructorApplication
	apps           []models.InstructorApplication
	approveErr     error
	approved       bool
	rejected       bool
	profile        *models.InstructorProfile
	profileErr     error
	profiles       []models.InstructorProfile
	updatedProfile *models.InstructorProfile
	deleteErr      error
	deletedProfile *models.InstructorProfile
}

func (m *mockInstructorRepository) CreateApplication(ctx context.Context, app *models.InstructorApplication) error {
	if m.createErr != nil {
		return m.createErr
	}
	app.ID = 1
	m.created = app
	return nil
}

func (m *mockInstructorRepository) ExistsApplicationForUser(ctx context.Context, userID int) (bool, error) {
	return m.exists, nil
}

func (m *mockInstructorRepository) GetApplicationByID(ctx context.Context, id int) (*models.InstructorApplication, error) {
	if m.appErr != nil {
		return nil, m.appErr
	}
	app := *m.app
	return &app, nil
}

func (m *mockInstructorRepository) GetApplicationByUser(ctx context.Context, userID int) (*models.InstructorApplication, error) {
	return m.GetApplicationByID(ctx, 0)
}

func (m *mockInstructorRepository) GetApplications(ctx context.Context) ([]models.InstructorApplication, error) {
	return m.apps, m.appErr
}

func (m *mockInstructorRepository) Approve(ctx context.Context, app *models.InstructorApplication) error {
	if m.approveErr != nil {
		return m.approveErr
	}
	m.approved = true
	app.Status = models.ApplicationStatusApproved
	return nil
}

func (m *mockInstructorRepository) Reject(ctx context.Context, app *models.InstructorApplication) error {
	m.rejected = true
	app.Status = models.ApplicationStatusRejected
	return nil
}

func (m *mockInstructorRepository) GetProfiles(ctx context.Context) ([]models.InstructorProfile, error) {
	return m.profiles, m.profileErr
}

func (m *mockInstructorRepository) GetProfileByID(ctx context.Context, id int) (*models.InstructorProfile, error) {
	if m.profileErr != nil {
		return nil, m.profileErr
	}
	profile := *m.profile
	return &profile, nil
}

func (m *mockInstructorRepository) GetProfileByUser(ctx context.Context, userID int) (*models.InstructorProfile, error) {
	return m.GetProfileByID(ctx, 0)
}

func (m *mockInstructorRepository) UpdateProfile(ctx context.Context, profile *models.InstructorProfile) error {
	m.updatedProfile = profile
	return nil
}

func (m *mockInstructorRepository) DeleteProfile(ctx context.Context, profile *models.InstructorProfile) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deletedProfile = profile
	return nil
}

// mockLeadRepository is a mock implementation of LeadRepository
type mockLeadRepository struct {
	lead    *models.Lead
	getErr  error
	created *models.Lead
	updated *models.Lead
}

func (m *mockLeadRepository) GetByEmail(ctx context.Context, email string) (*models.Lead, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	lead := *m.lead
	return &lead, nil
}

func (m *mockLeadRepository) Create(ctx context.Context, lead *models.Lead) error {
	lead.ID = 5
	m.created = lead
	return nil
}

func (m *mockLeadRepository) UpdateContact(ctx context.Context, lead *models.Lead) error {
	m.updated = lead
	return nil
}

// mockApplicationRepository is a mock implementation of ApplicationRepository
type mockApplicationRepository struct {
	app          *models.Application
	getErr       error
	apps         []models.Application
	created      *models.Application
	updateErr    error
	updateStatus models.LeadStatus
	updateNotes  *string
	changedBy    int
}

func (m *mockApplicationRepository) Create(ctx context.Context, app *models.Application) error {
	app.ID = 7
	m.created = app
	return nil
}

func (m *mockApplicationRepository) GetByID(ctx context.Context, id int) (*models.Application, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	app := *m.app
	return &app, nil
}

func (m *mockApplicationRepository) GetAll(ctx context.Context) ([]models.Application, error) {
	return m.apps, m.getErr
}

func (m *mockApplicationRepository) UpdateStatus(ctx context.Context, id int, status models.LeadStatus, notes *string, changedBy int, now time.Time) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updateStatus, m.updateNotes, m.changedBy = status, notes, changedBy
	return nil
}

// mockExpirer is a mock implementation of CouponExpirer and CampaignExpirer
type mockExpirer struct {
	count int64
	err   error
}

func (m *mockExpirer) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	return m.count, m.err
}

func (m *mockExpirer) DeactivateEnded(ctx context.Context, now time.Time) (int64, error) {
	return m.count, m.err
}

func fixedNow() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func intPtr(i int) *int {
	return &i
}

func strPtr(s string) *string {
	return &s
}
