package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/yowaacademy/backend/internal/apperrors"
	"github.com/yowaacademy/backend/internal/models"
	"go.uber.org/zap"
)

const couponSelect = `
	SELECT id, code, discount_type, discount_value, expiry_date, is_active, usage_limit, times_used, description, created_at
	FROM discount_coupons
`

// couponRepository implements CouponRepository
type couponRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCouponRepository creates a new coupon repository
func NewCouponRepository(db *sql.DB, logger *zap.Logger) *couponRepository {
	return &couponRepository{
		db:     db,
		logger: logger,
	}
}

func scanCoupon(row rowScanner) (*models.Coupon, error) {
	var coupon models.Coupon
	err := row.Scan(
		&coupon.ID,
		&coupon.Code,
		&coupon.DiscountType,
		&coupon.DiscountValue,
		&coupon.ExpiryDate,
		&coupon.IsActive,
		&coupon.UsageLimit,
		&coupon.TimesUsed,
		&coupon.Description,
		&coupon.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

// Create inserts a new coupon
func (r *couponRepository) Create(ctx context.Context, coupon *models.Coupon) error {
	query := `
		INSERT INTO discount_coupons (code, discount_type, discount_value, expiry_date, is_active, usage_limit, description)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		coupon.Code, coupon.DiscountType, coupon.DiscountValue, coupon.ExpiryDate,
		coupon.IsActive, coupon.UsageLimit, coupon.Description,
	)
	if err != nil {
		if isDuplicateEntry(err) {
			return apperrors.AlreadyExists("coupon code already exists")
		}
		r.logger.Error("failed to create coupon", zap.Error(err))
		return fmt.Errorf("failed to create coupon: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	coupon.ID = int(id)
	return nil
}

// GetByID retrieves a coupon by ID
func (r *couponRepository) GetByID(ctx context.Context, id int) (*models.Coupon, error) {
	coupon, err := scanCoupon(r.db.QueryRowContext(ctx, couponSelect+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("coupon not found")
	}
	if err != nil {
		r.logger.Error("failed to get coupon", zap.Error(err), zap.Int("coupon_id", id))
		return nil, fmt.Errorf("failed to get coupon: %w", err)
	}
	return coupon, nil
}

// GetByCode retrieves a coupon by its normalized code
func (r *couponRepository) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	coupon, err := scanCoupon(r.db.QueryRowContext(ctx, couponSelect+` WHERE code = ?`, code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("coupon not found")
	}
	if err != nil {
		r.logger.Error("failed to get coupon by code", zap.Error(err))
		return nil, fmt.Errorf("failed to get coupon by code: %w", err)
	}
	return coupon, nil
}

// ExistsByCode checks if another coupon already uses the code
func (r *couponRepository) ExistsByCode(ctx context.Context, code string, excludeID int) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM discount_coupons WHERE code = ? AND id <> ?)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, code, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check coupon code: %w", err)
	}
	return exists, nil
}

// GetAll retrieves all coupons, newest first
func (r *couponRepository) GetAll(ctx context.Context) ([]models.Coupon, error) {
	rows, err := r.db.QueryContext(ctx, couponSelect+` ORDER BY created_at DESC, id DESC`)
	if err != nil {
		r.logger.Error("failed to query coupons", zap.Error(err))
		return nil, fmt.Errorf("failed to query coupons: %w", err)
	}
	defer rows.Close()

	coupons := make([]models.Coupon, 0)
	for rows.Next() {
		coupon, err := scanCoupon(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan coupon: %w", err)
		}
		coupons = append(coupons, *coupon)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating coupons: %w", err)
	}

	return coupons, nil
}

// Update persists every editable coupon column
func (r *couponRepository) Update(ctx context.Context, coupon *models.Coupon) error {
	query := `
		UPDATE discount_coupons
		SET code = ?, discount_type = ?, discount_value = ?, expiry_date = ?, is_active = ?, usage_limit = ?, description = ?
		WHERE id = ?
	`

	if _, err := r.db.ExecContext(ctx, query,
		coupon.Code, coupon.DiscountType, coupon.DiscountValue, coupon.ExpiryDate,
		coupon.IsActive, coupon.UsageLimit, coupon.Description, coupon.ID,
	); err != nil {
		if isDuplicateEntry(err) {
			return apperrors.AlreadyExists("coupon code already exists")
		}
		r.logger.Error("failed to update coupon", zap.Error(err), zap.Int("coupon_id", coupon.ID))
		return fmt.Errorf("failed to update coupon: %w", err)
	}
	return nil
}

// Delete removes a coupon
func (r *couponRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM discount_coupons WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("failed to delete coupon", zap.Error(err), zap.Int("coupon_id", id))
		return fmt.Errorf("failed to delete coupon: %w", err)
	}
	return checkAffected(result, apperrors.NotFound("coupon not found"))
}

// DeactivateExpired turns off active coupons whose expiry has passed and returns how many changed
func (r *couponRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `UPDATE discount_coupons SET is_active = 0 WHERE is_active = 1 AND expiry_date <= ?`

	result, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate expired coupons: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}
