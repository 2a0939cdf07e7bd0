package repository

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/permitleads/leadstack/interfaces"
	"github.com/permitleads/leadstack/internal/models"
	"github.com/permitleads/leadstack/internal/tracing"
	"github.com/permitleads/leadstack/internal/utils"
)

const pqUniqueViolation = "23505"

// GormLeadRepository is the durable lead ledger. The unique index on
// (automation_class_id, permit_id) is what makes Reserve atomic: the insert
// and the "was this already sent" check are a single statement.
type GormLeadRepository struct {
	db *gorm.DB
}

func NewLeadRepository(db *gorm.DB) interfaces.LeadRepository {
	return &GormLeadRepository{db: db}
}

// Reserve records the pair with INSERT ... ON CONFLICT DO NOTHING. Exactly
// one of any number of concurrent callers observes RowsAffected == 1.
func (r *GormLeadRepository) Reserve(ctx context.Context, lead *models.Lead) (bool, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "GormLeadRepository.Reserve")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if lead == nil || lead.AutomationClassID == "" || lead.ClientID == "" || lead.PermitID == "" {
		return false, ErrInvalidInput
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "automation_class_id"}, {Name: "permit_id"}},
		DoNothing: true,
	}).Create(lead)
	if result.Error != nil {
		var pqErr *pq.Error
		if errors.As(result.Error, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return false, nil
		}
		tracing.TraceErr(span, result.Error)
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *GormLeadRepository) CountToday(ctx context.Context, classID string) (int, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "GormLeadRepository.CountToday")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if classID == "" {
		return 0, ErrInvalidInput
	}

	var count int64
	result := r.db.WithContext(ctx).Model(&models.Lead{}).
		Where("automation_class_id = ? AND sent_at >= ?", classID, utils.StartOfDay(time.Now())).
		Count(&count)
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return 0, result.Error
	}
	return int(count), nil
}

func (r *GormLeadRepository) ListByClass(ctx context.Context, classID string, limit, offset int) ([]*models.Lead, int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "GormLeadRepository.ListByClass")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if classID == "" {
		return nil, 0, ErrInvalidInput
	}

	query := r.db.WithContext(ctx).Model(&models.Lead{}).Where("automation_class_id = ?", classID)

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 25
	}
	if offset < 0 {
		offset = 0
	}

	var leads []*models.Lead
	result := query.Order("sent_at DESC").Limit(limit).Offset(offset).Find(&leads)
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return nil, 0, result.Error
	}
	return leads, totalCount, nil
}

func (r *GormLeadRepository) ExistsForPermit(ctx context.Context, classID, permitID string) (bool, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "GormLeadRepository.ExistsForPermit")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if classID == "" || permitID == "" {
		return false, ErrInvalidInput
	}

	var count int64
	result := r.db.WithContext(ctx).Model(&models.Lead{}).
		Where("automation_class_id = ? AND permit_id = ?", classID, permitID).
		Count(&count)
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return false, result.Error
	}
	return count > 0, nil
}
