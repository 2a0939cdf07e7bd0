package repository

import (
	"context"
	"errors"
	"time"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/permitleads/leadstack/interfaces"
	"github.com/permitleads/leadstack/internal/enum"
	"github.com/permitleads/leadstack/internal/models"
	"github.com/permitleads/leadstack/internal/tracing"
)

// GormClientRepository implements ClientRepository using GORM
type GormClientRepository struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) interfaces.ClientRepository {
	return &GormClientRepository{db: db}
}

func (r *GormClientRepository) Create(ctx context.Context, client *models.Client) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "GormClientRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if client == nil || client.Name == "" || client.Email == "" {
		return ErrInvalidInput
	}
	if client.Status == "" {
		client.Status = enum.ClientStatusActive
	}

	client.CreatedAt = time.Now()
	client.UpdatedAt = client.CreatedAt

	result := r.db.WithContext(ctx).Create(client)
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
	}
	return result.Error
}

func (r *GormClientRepository) GetByID(ctx context.Context, id string) (*models.Client, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "GormClientRepository.GetByID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if id == "" {
		return nil, ErrInvalidInput
	}

	var client models.Client
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&client)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		tracing.TraceErr(span, result.Error)
		return nil, result.Error
	}
	return &client, nil
}

func (r *GormClientRepository) List(ctx context.Context, status enum.ClientStatus, limit, offset int) ([]*models.Client, int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "GormClientRepository.List")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	query := r.db.WithContext(ctx).Model(&models.Client{})
	if status != "" {
		query = query.Where("status = ?", status)
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

	var clients []*models.Client
	result := query.Order("name ASC").Limit(limit).Offset(offset).Find(&clients)
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return nil, 0, result.Error
	}
	return clients, totalCount, nil
}

func (r *GormClientRepository) Update(ctx context.Context, client *models.Client) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "GormClientRepository.Update")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if client == nil || client.ID == "" {
		return ErrInvalidInput
	}

	var exists models.Client
	result := r.db.WithContext(ctx).Where("id = ?", client.ID).First(&exists)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return ErrClientNotFound
		}
		tracing.TraceErr(span, result.Error)
		return result.Error
	}

	client.UpdatedAt = time.Now()

	updateResult := r.db.WithContext(ctx).Model(&models.Client{}).
		Where("id = ?", client.ID).
		Updates(map[string]interface{}{
			"name":       client.Name,
			"company":    client.Company,
			"email":      client.Email,
			"phone":      client.Phone,
			"address":    client.Address,
			"city":       client.City,
			"state":      client.State,
			"zip_code":   client.ZipCode,
			"country":    client.Country,
			"status":     client.Status,
			"updated_at": client.UpdatedAt,
		})
	if updateResult.Error != nil {
		tracing.TraceErr(span, updateResult.Error)
	}
	return updateResult.Error
}

// Delete soft-deletes the client and deactivates its automation classes in
// one transaction, so an orphaned class can never keep producing leads.
func (r *GormClientRepository) Delete(ctx context.Context, id string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "GormClientRepository.Delete")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if id == "" {
		return ErrInvalidInput
	}

	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		tracing.TraceErr(span, tx.Error)
		return tx.Error
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Model(&models.AutomationClass{}).
		Where("client_id = ?", id).
		Updates(map[string]interface{}{
			"status":     enum.ClassStatusInactive,
			"updated_at": time.Now(),
		}).Error; err != nil {
		tx.Rollback()
		tracing.TraceErr(span, err)
		return err
	}

	result := tx.Delete(&models.Client{}, "id = ?", id)
	if result.Error != nil {
		tx.Rollback()
		tracing.TraceErr(span, result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		return ErrClientNotFound
	}

	return tx.Commit().Error
}
