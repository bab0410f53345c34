package repository

import (
	"context"
	"errors"

	"github.com/heraldhq/herald/models"
	"github.com/heraldhq/herald/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TargetRuleRepositoryImpl implements the TargetRuleRepository interface
type TargetRuleRepositoryImpl struct {
	*BaseRepository[models.CampaignTargetRule, models.TargetRuleFilter]
}

// NewTargetRuleRepository creates a new target rule repository
func NewTargetRuleRepository(db *gorm.DB) TargetRuleRepository {
	return &TargetRuleRepositoryImpl{
		BaseRepository: NewBaseRepository[models.CampaignTargetRule, models.TargetRuleFilter](db),
	}
}

// ByCampaignID retrieves the target rule row for a campaign, nil when absent
func (r *TargetRuleRepositoryImpl) ByCampaignID(ctx context.Context, campaignID uuid.UUID) (*models.CampaignTargetRule, error) {
	db := r.getDB(ctx)

	var rule models.CampaignTargetRule
	err := db.Where("campaign_id = ?", campaignID).First(&rule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &rule, nil
}

// Upsert inserts the rule row or updates the existing one for the campaign.
// The unique index on campaign_id makes the conflict target safe under
// concurrent writers.
func (r *TargetRuleRepositoryImpl) Upsert(ctx context.Context, rule *models.CampaignTargetRule) error {
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
	rule.UpdatedAt = &now

	err = db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "campaign_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"include_tags",
			"exclude_tags",
			"exclude_countries",
			"exclude_unsubscribed",
			"exclude_inactive",
			"exclude_bounced",
			"updated_at",
		}),
	}).Create(rule).Error
	if err != nil {
		return err
	}

	return nil
}

// ByFilter retrieves target rules based on filter criteria
func (r *TargetRuleRepositoryImpl) ByFilter(ctx context.Context, filter models.TargetRuleFilter, orderBy string, limit, offset int) ([]*models.CampaignTargetRule, error) {
	db := r.getDB(ctx)

	var rules []*models.CampaignTargetRule
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

	err := query.Find(&rules).Error
	if err != nil {
		return nil, err
	}

	return rules, nil
}

// Count returns the number of target rules matching the filter
func (r *TargetRuleRepositoryImpl) Count(ctx context.Context, filter models.TargetRuleFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.CampaignTargetRule{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any target rule matching the filter exists
func (r *TargetRuleRepositoryImpl) Exists(ctx context.Context, filter models.TargetRuleFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *TargetRuleRepositoryImpl) applyFilter(db *gorm.DB, filter models.TargetRuleFilter) *gorm.DB {
	if filter.CampaignID != nil {
		db = db.Where("campaign_id = ?", *filter.CampaignID)
	}
	if filter.OrganizationID != nil {
		db = db.Where("organization_id = ?", *filter.OrganizationID)
	}

	return db
}
