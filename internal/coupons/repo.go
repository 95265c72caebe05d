package coupons

import (
	"context"
	"errors"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists coupons. Codes are matched uppercase.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindActiveByCode returns nil when no active coupon carries the code.
func (r *Repository) FindActiveByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.db.WithContext(ctx).
		Where("code = ? AND status = ?", normalizeCode(code), enums.CouponStatusActive).
		First(&coupon).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load coupon")
	}
	return &coupon, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&coupon).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Coupon not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load coupon")
	}
	return &coupon, nil
}

// List returns newest first, optionally filtered by status and a case-insensitive code fragment.
func (r *Repository) List(ctx context.Context, status *enums.CouponStatus, search string) ([]models.Coupon, error) {
	query := r.db.WithContext(ctx).Model(&models.Coupon{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	if term := strings.TrimSpace(search); term != "" {
		query = query.Where("code LIKE ?", "%"+strings.ToUpper(term)+"%")
	}
	var rows []models.Coupon
	if err := query.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list coupons")
	}
	return rows, nil
}

func (r *Repository) Create(ctx context.Context, coupon *models.Coupon) error {
	coupon.Code = normalizeCode(coupon.Code)
	if err := r.db.WithContext(ctx).Create(coupon).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return pkgerrors.New(pkgerrors.CodeConflict, "Coupon code already exists")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create coupon")
	}
	return nil
}

// editableColumns excludes used_count, which only IncrementUsage writes.
var editableColumns = []string{
	"code",
	"description",
	"discount_type",
	"value",
	"min_purchase",
	"max_discount",
	"usage_limit",
	"valid_from",
	"valid_until",
	"status",
	"updated_at",
}

// Save writes the admin-editable columns. A usage limit below the redemptions recorded at
// write time is rejected.
func (r *Repository) Save(ctx context.Context, coupon *models.Coupon) error {
	coupon.Code = normalizeCode(coupon.Code)
	query := r.db.WithContext(ctx).Model(coupon).Select(editableColumns)
	if coupon.UsageLimit != nil {
		query = query.Where("used_count <= ?", *coupon.UsageLimit)
	}
	res := query.Updates(coupon)
	if res.Error != nil {
		if db.IsUniqueViolation(res.Error, "") {
			return pkgerrors.New(pkgerrors.CodeConflict, "Coupon code already exists")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "update coupon")
	}
	if res.RowsAffected > 0 {
		return nil
	}
	current, err := r.FindByID(ctx, coupon.ID)
	if err != nil {
		return err
	}
	coupon.UsedCount = current.UsedCount
	return pkgerrors.New(pkgerrors.CodeValidation, "Usage limit cannot be below the number of times the coupon was used")
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Coupon{})
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "delete coupon")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "Coupon not found")
	}
	return nil
}

// IncrementUsage bumps used_count in one statement, refusing to pass usage_limit.
// It reports whether a row was updated.
func (r *Repository) IncrementUsage(ctx context.Context, code string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Coupon{}).
		Where("code = ? AND (usage_limit IS NULL OR used_count < usage_limit)", normalizeCode(code)).
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if res.Error != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "increment coupon usage")
	}
	return res.RowsAffected > 0, nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
