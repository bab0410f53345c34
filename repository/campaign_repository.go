package repository

import (
	"context"
	"errors"
	"time"

	"github.com/heraldhq/herald/models"
	"github.com/heraldhq/herald/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CampaignRepositoryImpl implements the CampaignRepository interface
type CampaignRepositoryImpl struct {
	*BaseRepository[models.Campaign, models.CampaignFilter]
}

// NewCampaignRepository creates a new campaign repository
func NewCampaignRepository(db *gorm.DB) CampaignRepository {
	return &CampaignRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Campaign, models.CampaignFilter](db),
	}
}

// ByIDAndOrg retrieves a campaign by ID scoped to an organization
func (r *CampaignRepositoryImpl) ByIDAndOrg(ctx context.Context, id, organizationID uuid.UUID) (*models.Campaign, error) {
	db := r.getDB(ctx)

	var campaign models.Campaign
	err := db.Where("id = ? AND organization_id = ?", id, organizationID).
		First(&campaign).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &campaign, nil
}

// Update updates a campaign
func (r *CampaignRepositoryImpl) Update(ctx context.Context, campaign models.Campaign) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	now := utils.UTCNow()
	campaign.UpdatedAt = &now

	err = db.Save(&campaign).Error
	if err != nil {
		return err
	}

	return nil
}

// ListDue retrieves scheduled campaigns whose scheduled time has passed,
// oldest first so long-overdue campaigns are processed before fresh ones.
// A non-nil organizationID narrows the run to one tenant.
func (r *CampaignRepositoryImpl) ListDue(ctx context.Context, now time.Time, organizationID *uuid.UUID) ([]*models.Campaign, error) {
	db := r.getDB(ctx)

	query := db.Where("status = ? AND scheduled_at IS NOT NULL AND scheduled_at <= ?",
		models.CampaignStatusScheduled, now)
	if organizationID != nil {
		query = query.Where("organization_id = ?", *organizationID)
	}

	var campaigns []*models.Campaign
	err := query.Order("scheduled_at ASC").
		Find(&campaigns).Error
	if err != nil {
		return nil, err
	}

	return campaigns, nil
}

// TransitionStatus conditionally moves a campaign from one status to another.
// The WHERE clause on the current status makes the update a no-op when another
// worker already moved the campaign; the caller inspects the returned flag.
func (r *CampaignRepositoryImpl) TransitionStatus(ctx context.Context, id uuid.UUID, from, to models.CampaignStatus, sentAt *time.Time) (bool, error) {
	db := r.getDB(ctx)

	updates := map[string]any{
		"status":     to,
		"updated_at": utils.UTCNow(),
	}
	if sentAt != nil {
		updates["sent_at"] = *sentAt
	}

	result := db.Model(&models.Campaign{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

// ByFilter retrieves campaigns based on filter criteria
func (r *CampaignRepositoryImpl) ByFilter(ctx context.Context, filter models.CampaignFilter, orderBy string, limit, offset int) ([]*models.Campaign, error) {
	db := r.getDB(ctx)

	var campaigns []*models.Campaign
	query := r.applyFilter(db, filter)

	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&campaigns).Error
	if err != nil {
		return nil, err
	}

	return campaigns, nil
}

// Count returns the number of campaigns matching the filter
func (r *CampaignRepositoryImpl) Count(ctx context.Context, filter models.CampaignFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.Campaign{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any campaign matching the filter exists
func (r *CampaignRepositoryImpl) Exists(ctx context.Context, filter models.CampaignFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *CampaignRepositoryImpl) applyFilter(db *gorm.DB, filter models.CampaignFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.OrganizationID != nil {
		db = db.Where("organization_id = ?", *filter.OrganizationID)
	}
	if filter.Status != nil {
		db = db.Where("status = ?", *filter.Status)
	}
	if filter.Name != nil {
		db = db.Where("name ILIKE ?", "%"+*filter.Name+"%")
	}
	if filter.CreatedBy != nil {
		db = db.Where("created_by = ?", *filter.CreatedBy)
	}
	if filter.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		db = db.Where("created_at < ?", *filter.CreatedBefore)
	}
	if filter.ScheduledAfter != nil {
		db = db.Where("scheduled_at > ?", *filter.ScheduledAfter)
	}
	if filter.ScheduledBefore != nil {
		db = db.Where("scheduled_at < ?", *filter.ScheduledBefore)
	}

	return db
}
