package repository

import (
	"context"
	"time"

	"github.com/heraldhq/herald/models"
	"github.com/heraldhq/herald/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// bulkInsertBatchSize is the number of recipient rows written per INSERT
const bulkInsertBatchSize = 500

// RecipientRepositoryImpl implements the RecipientRepository interface
type RecipientRepositoryImpl struct {
	*BaseRepository[models.CampaignRecipient, models.RecipientFilter]
}

// NewRecipientRepository creates a new recipient repository
func NewRecipientRepository(db *gorm.DB) RecipientRepository {
	return &RecipientRepositoryImpl{
		BaseRepository: NewBaseRepository[models.CampaignRecipient, models.RecipientFilter](db),
	}
}

// ContactIDsByCampaign returns contact IDs already targeted by the campaign
func (r *RecipientRepositoryImpl) ContactIDsByCampaign(ctx context.Context, campaignID uuid.UUID) ([]uuid.UUID, error) {
	db := r.getDB(ctx)

	var ids []uuid.UUID
	err := db.Model(&models.CampaignRecipient{}).
		Where("campaign_id = ?", campaignID).
		Pluck("contact_id", &ids).Error
	if err != nil {
		return nil, err
	}

	return ids, nil
}

// CountByCampaign counts recipient rows for a campaign
func (r *RecipientRepositoryImpl) CountByCampaign(ctx context.Context, campaignID uuid.UUID) (int64, error) {
	filter := models.RecipientFilter{CampaignID: &campaignID}
	return r.Count(ctx, filter)
}

// BulkInsertPending inserts pending recipient rows in batches. A batch that
// trips the unique (campaign_id, contact_id) constraint is retried row by row
// so concurrent generation runs lose only the rows that already exist.
func (r *RecipientRepositoryImpl) BulkInsertPending(ctx context.Context, recipients []*models.CampaignRecipient) (*BulkInsertResult, error) {
	result := &BulkInsertResult{}
	if len(recipients) == 0 {
		return result, nil
	}

	db := r.getDB(ctx)

	for start := 0; start < len(recipients); start += bulkInsertBatchSize {
		end := min(start+bulkInsertBatchSize, len(recipients))
		batch := recipients[start:end]

		err := db.Create(&batch).Error
		if err == nil {
			result.Inserted += len(batch)
			continue
		}
		if !isDuplicateKey(err) {
			return result, err
		}

		// Fall back to per-row inserts so only the conflicting rows are lost
		for _, rec := range batch {
			rowErr := db.Create(rec).Error
			switch {
			case rowErr == nil:
				result.Inserted++
			case isDuplicateKey(rowErr):
				result.DuplicateSkipped++
			default:
				result.Failed++
			}
		}
	}

	return result, nil
}

// BouncedContactIDs returns distinct contact IDs with a bounced recipient row
// in any of the organization's campaigns
func (r *RecipientRepositoryImpl) BouncedContactIDs(ctx context.Context, organizationID uuid.UUID) ([]uuid.UUID, error) {
	db := r.getDB(ctx)

	var ids []uuid.UUID
	err := db.Model(&models.CampaignRecipient{}).
		Distinct("contact_id").
		Where("organization_id = ? AND status = ?", organizationID, models.RecipientStatusBounced).
		Pluck("contact_id", &ids).Error
	if err != nil {
		return nil, err
	}

	return ids, nil
}

// MarkBounced flags the (campaign, contact) recipient row as bounced and
// stamps bounced_at. Returns the updated row, or nil when the pair has no
// recipient row; it never creates one.
func (r *RecipientRepositoryImpl) MarkBounced(ctx context.Context, campaignID, contactID, organizationID uuid.UUID) (*models.CampaignRecipient, error) {
	db := r.getDB(ctx)

	result := db.Model(&models.CampaignRecipient{}).
		Where("campaign_id = ? AND contact_id = ? AND organization_id = ?",
			campaignID, contactID, organizationID).
		Updates(map[string]any{
			"status":     models.RecipientStatusBounced,
			"bounced_at": utils.UTCNow(),
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}

	var recipient models.CampaignRecipient
	err := db.Where("campaign_id = ? AND contact_id = ?", campaignID, contactID).
		First(&recipient).Error
	if err != nil {
		return nil, err
	}

	return &recipient, nil
}

// BulkMarkBounced applies the bounce update to many contacts of one campaign
// in batches. A failed batch is skipped so the rest of the set still lands;
// the returned count covers rows actually updated.
func (r *RecipientRepositoryImpl) BulkMarkBounced(ctx context.Context, campaignID uuid.UUID, contactIDs []uuid.UUID, organizationID uuid.UUID) (int64, error) {
	if len(contactIDs) == 0 {
		return 0, nil
	}

	db := r.getDB(ctx)

	var updated int64
	var firstErr error
	for start := 0; start < len(contactIDs); start += bulkInsertBatchSize {
		end := min(start+bulkInsertBatchSize, len(contactIDs))
		batch := contactIDs[start:end]

		result := db.Model(&models.CampaignRecipient{}).
			Where("campaign_id = ? AND organization_id = ? AND contact_id IN ?",
				campaignID, organizationID, batch).
			Updates(map[string]any{
				"status":     models.RecipientStatusBounced,
				"bounced_at": utils.UTCNow(),
			})
		if result.Error != nil {
			if firstErr == nil {
				firstErr = result.Error
			}
			continue
		}
		updated += result.RowsAffected
	}

	if updated == 0 && firstErr != nil {
		return 0, firstErr
	}

	return updated, nil
}

// MarkSent flags the given pending recipient rows as sent
func (r *RecipientRepositoryImpl) MarkSent(ctx context.Context, ids []uuid.UUID, sentAt time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	db := r.getDB(ctx)

	result := db.Model(&models.CampaignRecipient{}).
		Where("id IN ? AND status = ?", ids, models.RecipientStatusPending).
		Updates(map[string]any{
			"status":  models.RecipientStatusSent,
			"sent_at": sentAt,
		})
	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}

// AnalyticsCounts aggregates recipient rows by status for a campaign
func (r *RecipientRepositoryImpl) AnalyticsCounts(ctx context.Context, campaignID uuid.UUID) (*models.RecipientCounts, error) {
	db := r.getDB(ctx)

	type row struct {
		Status models.RecipientStatus
		Count  int64
	}
	var rows []row
	err := db.Model(&models.CampaignRecipient{}).
		Select("status, COUNT(*) AS count").
		Where("campaign_id = ?", campaignID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := &models.RecipientCounts{}
	for _, r := range rows {
		counts.Total += r.Count
		switch r.Status {
		case models.RecipientStatusPending:
			counts.Pending = r.Count
		case models.RecipientStatusSent:
			counts.Sent = r.Count
		case models.RecipientStatusDelivered:
			counts.Delivered = r.Count
		case models.RecipientStatusOpened:
			counts.Opened = r.Count
		case models.RecipientStatusClicked:
			counts.Clicked = r.Count
		case models.RecipientStatusBounced:
			counts.Bounced = r.Count
		}
	}

	return counts, nil
}

// ByFilter retrieves recipients based on filter criteria
func (r *RecipientRepositoryImpl) ByFilter(ctx context.Context, filter models.RecipientFilter, orderBy string, limit, offset int) ([]*models.CampaignRecipient, error) {
	db := r.getDB(ctx)

	var recipients []*models.CampaignRecipient
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

	err := query.Find(&recipients).Error
	if err != nil {
		return nil, err
	}

	return recipients, nil
}

// Count returns the number of recipients matching the filter
func (r *RecipientRepositoryImpl) Count(ctx context.Context, filter models.RecipientFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.CampaignRecipient{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any recipient matching the filter exists
func (r *RecipientRepositoryImpl) Exists(ctx context.Context, filter models.RecipientFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *RecipientRepositoryImpl) applyFilter(db *gorm.DB, filter models.RecipientFilter) *gorm.DB {
	if filter.CampaignID != nil {
		db = db.Where("campaign_id = ?", *filter.CampaignID)
	}
	if filter.ContactID != nil {
		db = db.Where("contact_id = ?", *filter.ContactID)
	}
	if filter.OrganizationID != nil {
		db = db.Where("organization_id = ?", *filter.OrganizationID)
	}
	if filter.Status != nil {
		db = db.Where("status = ?", *filter.Status)
	}

	return db
}
