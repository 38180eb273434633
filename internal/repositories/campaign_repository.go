package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yowaacademy/backend/internal/apperrors"
	"github.com/yowaacademy/backend/internal/models"
	"go.uber.org/zap"
)

const campaignSelect = `
	SELECT id, title, description, start_date, end_date, is_active, created_at
	FROM campaigns
`

// campaignRepository implements CampaignRepository
type campaignRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCampaignRepository creates a new campaign repository
func NewCampaignRepository(db *sql.DB, logger *zap.Logger) *campaignRepository {
	return &campaignRepository{
		db:     db,
		logger: logger,
	}
}

func scanCampaign(row rowScanner) (*models.Campaign, error) {
	var campaign models.Campaign
	err := row.Scan(
		&campaign.ID,
		&campaign.Title,
		&campaign.Description,
		&campaign.StartDate,
		&campaign.EndDate,
		&campaign.IsActive,
		&campaign.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	campaign.FeaturedCourses = []models.CourseRef{}
	return &campaign, nil
}

// Create inserts a campaign with its featured course links
func (r *campaignRepository) Create(ctx context.Context, campaign *models.Campaign) error {
	query := `
		INSERT INTO campaigns (title, description, start_date, end_date, is_active)
		VALUES (?, ?, ?, ?, ?)
	`

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, query,
			campaign.Title, campaign.Description, campaign.StartDate, campaign.EndDate, campaign.IsActive,
		)
		if err != nil {
			return fmt.Errorf("failed to create campaign: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		campaign.ID = int(id)

		return insertCampaignCourses(ctx, tx, campaign.ID, campaign.FeaturedCourseIDs())
	})
	if err != nil {
		r.logger.Error("failed to create campaign", zap.Error(err))
	}
	return err
}

func insertCampaignCourses(ctx context.Context, tx *sql.Tx, campaignID int, courseIDs []int) error {
	if len(courseIDs) == 0 {
		return nil
	}

	values := make([]string, 0, len(courseIDs))
	args := make([]any, 0, len(courseIDs)*3)
	for i, courseID := range courseIDs {
		values = append(values, "(?, ?, ?)")
		args = append(args, campaignID, courseID, i)
	}

	query := `INSERT IGNORE INTO campaign_courses (campaign_id, course_id, position) VALUES ` + strings.Join(values, ", ")
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to link campaign courses: %w", err)
	}
	return nil
}

// GetByID retrieves a campaign with featured course titles
func (r *campaignRepository) GetByID(ctx context.Context, id int) (*models.Campaign, error) {
	campaign, err := scanCampaign(r.db.QueryRowContext(ctx, campaignSelect+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("campaign not found")
	}
	if err != nil {
		r.logger.Error("failed to get campaign", zap.Error(err), zap.Int("campaign_id", id))
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}

	if err := r.attachCourses(ctx, []*models.Campaign{campaign}); err != nil {
		return nil, err
	}
	return campaign, nil
}

// GetActive retrieves active campaigns ordered by start date
func (r *campaignRepository) GetActive(ctx context.Context) ([]models.Campaign, error) {
	rows, err := r.db.QueryContext(ctx, campaignSelect+`
		WHERE is_active = 1
		ORDER BY start_date, id
	`)
	if err != nil {
		r.logger.Error("failed to query campaigns", zap.Error(err))
		return nil, fmt.Errorf("failed to query campaigns: %w", err)
	}
	defer rows.Close()

	var list []*models.Campaign
	for rows.Next() {
		campaign, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}
		list = append(list, campaign)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating campaigns: %w", err)
	}

	if err := r.attachCourses(ctx, list); err != nil {
		return nil, err
	}

	campaigns := make([]models.Campaign, 0, len(list))
	for _, campaign := range list {
		campaigns = append(campaigns, *campaign)
	}
	return campaigns, nil
}

func (r *campaignRepository) attachCourses(ctx context.Context, campaigns []*models.Campaign) error {
	if len(campaigns) == 0 {
		return nil
	}

	byID := make(map[int]*models.Campaign, len(campaigns))
	ids := make([]int, 0, len(campaigns))
	for _, campaign := range campaigns {
		byID[campaign.ID] = campaign
		ids = append(ids, campaign.ID)
	}

	query := fmt.Sprintf(`
		SELECT cc.campaign_id, c.id, c.title
		FROM campaign_courses cc
		JOIN courses c ON c.id = cc.course_id
		WHERE cc.campaign_id IN (%s)
		ORDER BY cc.position
	`, placeholders(len(ids)))

	rows, err := r.db.QueryContext(ctx, query, intArgs(ids)...)
	if err != nil {
		return fmt.Errorf("failed to query campaign courses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			campaignID int
			ref        models.CourseRef
		)
		if err := rows.Scan(&campaignID, &ref.ID, &ref.Title); err != nil {
			return fmt.Errorf("failed to scan campaign course: %w", err)
		}
		if campaign, ok := byID[campaignID]; ok {
			campaign.FeaturedCourses = append(campaign.FeaturedCourses, ref)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating campaign courses: %w", err)
	}
	return nil
}

// Update persists campaign fields and replaces the featured course links
func (r *campaignRepository) Update(ctx context.Context, campaign *models.Campaign) error {
	query := `
		UPDATE campaigns
		SET title = ?, description = ?, start_date = ?, end_date = ?, is_active = ?
		WHERE id = ?
	`

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, query,
			campaign.Title, campaign.Description, campaign.StartDate, campaign.EndDate, campaign.IsActive, campaign.ID,
		); err != nil {
			return fmt.Errorf("failed to update campaign: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM campaign_courses WHERE campaign_id = ?`, campaign.ID); err != nil {
			return fmt.Errorf("failed to unlink campaign courses: %w", err)
		}
		return insertCampaignCourses(ctx, tx, campaign.ID, campaign.FeaturedCourseIDs())
	})
	if err != nil {
		r.logger.Error("failed to update campaign", zap.Error(err), zap.Int("campaign_id", campaign.ID))
	}
	return err
}

// Delete removes a campaign
func (r *campaignRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM campaigns WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("failed to delete campaign", zap.Error(err), zap.Int("campaign_id", id))
		return fmt.Errorf("failed to delete campaign: %w", err)
	}
	return checkAffected(result, apperrors.NotFound("campaign not found"))
}

// DeactivateEnded turns off active campaigns whose end date has passed and returns how many changed
func (r *campaignRepository) DeactivateEnded(ctx context.Context, now time.Time) (int64, error) {
	query := `UPDATE campaigns SET is_active = 0 WHERE is_active = 1 AND end_date <= ?`

	result, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate ended campaigns: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}
