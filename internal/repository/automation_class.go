package repository

import (
	"context"
	"errors"
	"time"

	"github.com/opentracing/opentracing-go"
	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/permitleads/leadstack/interfaces"
	"github.com/permitleads/leadstack/internal/enum"
	"github.com/permitleads/leadstack/internal/models"
	"github.com/permitleads/leadstack/internal/tracing"
)

// GormAutomationClassRepository implements AutomationClassRepository using GORM
type GormAutomationClassRepository struct {
	db *gorm.DB
}

func NewAutomationClassRepository(db *gorm.DB) interfaces.AutomationClassRepository {
	return &GormAutomationClassRepository{db: db}
}

// Create rejects invalid rule configurations synchronously; nothing
// malformed ever reaches evaluation.
func (r *GormAutomationClassRepository) Create(ctx context.Context, class *models.AutomationClass) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "GormAutomationClassRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if class == nil || class.ClientID == "" || class.Name == "" {
		return ErrInvalidInput
	}
	if err := class.RuleSet().Validate(); err != nil {
		return pkgerrors.Wrap(ErrInvalidRules, err.Error())
	}
	if class.Status == "" {
		class.Status = enum.ClassStatusActive
	}

	class.CreatedAt = time.Now()
	class.UpdatedAt = class.CreatedAt

	result := r.db.WithContext(ctx).Create(class)
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
	}
	return result.Error
}

func (r *GormAutomationClassRepository) GetByID(ctx context.Context, id string) (*models.AutomationClass, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "GormAutomationClassRepository.GetByID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if id == "" {
		return nil, ErrInvalidInput
	}

	var class models.AutomationClass
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&class)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrClassNotFound
		}
		tracing.TraceErr(span, result.Error)
		return nil, result.Error
	}
	return &class, nil
}

func (r *GormAutomationClassRepository) ListActive(ctx context.Context) ([]*models.AutomationClass, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "GormAutomationClassRepository.ListActive")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var classes []*models.AutomationClass
	result := r.db.WithContext(ctx).
		Where("status = ?", enum.ClassStatusActive).
		Order("created_at ASC").
		Find(&classes)
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return nil, result.Error
	}
	return classes, nil
}

func (r *GormAutomationClassRepository) ListByClient(ctx context.Context, clientID string) ([]*models.AutomationClass, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "GormAutomationClassRepository.ListByClient")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if clientID == "" {
		return nil, ErrInvalidInput
	}

	var classes []*models.AutomationClass
	result := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("created_at ASC").
		Find(&classes)
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return nil, result.Error
	}
	return classes, nil
}

func (r *GormAutomationClassRepository) Update(ctx context.Context, class *models.AutomationClass) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "GormAutomationClassRepository.Update")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if class == nil || class.ID == "" {
		return ErrInvalidInput
	}
	if err := class.RuleSet().Validate(); err != nil {
		return pkgerrors.Wrap(ErrInvalidRules, err.Error())
	}

	var exists models.AutomationClass
	result := r.db.WithContext(ctx).Where("id = ?", class.ID).First(&exists)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return ErrClassNotFound
		}
		tracing.TraceErr(span, result.Error)
		return result.Error
	}

	class.UpdatedAt = time.Now()

	updateResult := r.db.WithContext(ctx).Model(&models.AutomationClass{}).
		Where("id = ?", class.ID).
		Updates(map[string]interface{}{
			"name":              class.Name,
			"description":       class.Description,
			"status":            class.Status,
			"filter_rules":      class.FilterRules,
			"exclusion_rules":   class.ExclusionRules,
			"distribution_rule": class.Distribution,
			"email_template":    class.EmailTemplate,
			"updated_at":        class.UpdatedAt,
		})
	if updateResult.Error != nil {
		tracing.TraceErr(span, updateResult.Error)
	}
	return updateResult.Error
}

func (r *GormAutomationClassRepository) SetStatus(ctx context.Context, id string, status enum.ClassStatus) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "GormAutomationClassRepository.SetStatus")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if id == "" || status == "" {
		return ErrInvalidInput
	}

	result := r.db.WithContext(ctx).Model(&models.AutomationClass{}).
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
		return ErrClassNotFound
	}
	return nil
}

func (r *GormAutomationClassRepository) Delete(ctx context.Context, id string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "GormAutomationClassRepository.Delete")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if id == "" {
		return ErrInvalidInput
	}

	result := r.db.WithContext(ctx).Delete(&models.AutomationClass{}, "id = ?", id)
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrClassNotFound
	}
	return nil
}

func (r *GormAutomationClassRepository) RecordRun(ctx context.Context, id string, ranAt time.Time, leadsSentToday int) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "GormAutomationClassRepository.RecordRun")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if id == "" {
		return ErrInvalidInput
	}

	result := r.db.WithContext(ctx).Model(&models.AutomationClass{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_run_at":      ranAt,
			"leads_sent_today": leadsSentToday,
			"updated_at":       time.Now(),
		})
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrClassNotFound
	}
	return nil
}

func (r *GormAutomationClassRepository) ResetDailyCounters(ctx context.Context) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "GormAutomationClassRepository.ResetDailyCounters")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	err := r.db.WithContext(ctx).Model(&models.AutomationClass{}).
		Where("leads_sent_today <> 0").
		Update("leads_sent_today", 0).Error
	if err != nil {
		tracing.TraceErr(span, err)
	}
	return err
}
