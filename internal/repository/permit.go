package repository

import (
	"context"
	"errors"
	"time"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/permitleads/leadstack/interfaces"
	"github.com/permitleads/leadstack/internal/enum"
	"github.com/permitleads/leadstack/internal/models"
	"github.com/permitleads/leadstack/internal/tracing"
)

// GormPermitRepository implements PermitRepository using GORM
type GormPermitRepository struct {
	db *gorm.DB
}

func NewPermitRepository(db *gorm.DB) interfaces.PermitRepository {
	return &GormPermitRepository{db: db}
}

// IngestBatch inserts scraped permits, skipping rows already present for the
// same (city, permit_number). Permits are immutable once ingested.
func (r *GormPermitRepository) IngestBatch(ctx context.Context, permits []*models.Permit) (int, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "GormPermitRepository.IngestBatch")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if len(permits) == 0 {
		return 0, nil
	}

	inserted := 0
	for _, permit := range permits {
		if permit == nil || permit.City == "" || permit.PermitNumber == "" {
			continue
		}
		if permit.Status == "" {
			permit.Status = enum.PermitStatusActive
		}
		permit.CreatedAt = time.Now()
		permit.UpdatedAt = permit.CreatedAt

		result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "city"}, {Name: "permit_number"}},
			DoNothing: true,
		}).Create(permit)
		if result.Error != nil {
			tracing.TraceErr(span, result.Error)
			return inserted, result.Error
		}
		inserted += int(result.RowsAffected)
	}
	return inserted, nil
}

func (r *GormPermitRepository) GetByID(ctx context.Context, id string) (*models.Permit, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "GormPermitRepository.GetByID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if id == "" {
		return nil, ErrInvalidInput
	}

	var permit models.Permit
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&permit)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrPermitNotFound
		}
		tracing.TraceErr(span, result.Error)
		return nil, result.Error
	}
	return &permit, nil
}

// ListActive returns the evaluation feed in ingestion order.
func (r *GormPermitRepository) ListActive(ctx context.Context) ([]*models.Permit, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "GormPermitRepository.ListActive")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var permits []*models.Permit
	result := r.db.WithContext(ctx).
		Where("status = ?", enum.PermitStatusActive).
		Order("created_at ASC, id ASC").
		Find(&permits)
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return nil, result.Error
	}
	return permits, nil
}

func (r *GormPermitRepository) List(ctx context.Context, filters interfaces.PermitFilters, limit, offset int) ([]*models.Permit, int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "GormPermitRepository.List")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	query := r.db.WithContext(ctx).Model(&models.Permit{})

	if filters.City != "" {
		query = query.Where("city = ?", filters.City)
	}
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	if filters.WorkClass != "" {
		query = query.Where("work_class = ?", filters.WorkClass)
	}
	if filters.Search != "" {
		like := "%" + filters.Search + "%"
		query = query.Where("permit_number ILIKE ? OR description ILIKE ? OR contractor_name ILIKE ?", like, like, like)
	}

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

	var permits []*models.Permit
	result := query.Order("issued_date DESC NULLS LAST, created_at DESC").
		Limit(limit).Offset(offset).Find(&permits)
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return nil, 0, result.Error
	}
	return permits, totalCount, nil
}

func (r *GormPermitRepository) UpdateStatus(ctx context.Context, id string, status enum.PermitStatus) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "GormPermitRepository.UpdateStatus")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if id == "" || status == "" {
		return ErrInvalidInput
	}

	result := r.db.WithContext(ctx).Model(&models.Permit{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPermitNotFound
	}
	return nil
}

func (r *GormPermitRepository) CountByCity(ctx context.Context) (map[string]int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "GormPermitRepository.CountByCity")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	type cityCount struct {
		City  string
		Count int64
	}
	var counts []cityCount
	result := r.db.WithContext(ctx).Model(&models.Permit{}).
		Select("city, count(*) as count").
		Group("city").
		Scan(&counts)
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return nil, result.Error
	}

	byCity := make(map[string]int64, len(counts))
	for _, c := range counts {
		byCity[c.City] = c.Count
	}
	return byCity, nil
}
