// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/heraldhq/herald/models"
	"github.com/google/uuid"
)

type txContextKeyType string

// TxContextKey is the context key used to carry an active transaction
const TxContextKey txContextKeyType = "db_transaction"

// Repository defines the base interface for all repositories
type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uuid.UUID) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// CampaignRepository defines operations for campaign management
type CampaignRepository interface {
	Repository[models.Campaign, models.CampaignFilter]
	ByIDAndOrg(ctx context.Context, id, organizationID uuid.UUID) (*models.Campaign, error)
	Update(ctx context.Context, campaign models.Campaign) error
	ListDue(ctx context.Context, now time.Time, organizationID *uuid.UUID) ([]*models.Campaign, error)
	// TransitionStatus performs a conditional status update guarded by the
	// expected current status. It reports whether a row was actually updated,
	// which is how concurrent runners detect that another worker won the race.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to models.CampaignStatus, sentAt *time.Time) (bool, error)
}

// TargetRuleRepository defines operations for campaign target rules
type TargetRuleRepository interface {
	Repository[models.CampaignTargetRule, models.TargetRuleFilter]
	ByCampaignID(ctx context.Context, campaignID uuid.UUID) (*models.CampaignTargetRule, error)
	Upsert(ctx context.Context, rule *models.CampaignTargetRule) error
}

// RecipientRepository defines operations for campaign recipients
type RecipientRepository interface {
	Repository[models.CampaignRecipient, models.RecipientFilter]
	ContactIDsByCampaign(ctx context.Context, campaignID uuid.UUID) ([]uuid.UUID, error)
	CountByCampaign(ctx context.Context, campaignID uuid.UUID) (int64, error)
	// BulkInsertPending inserts pending recipient rows, tolerating rows that
	// already exist for the (campaign, contact) pair.
	BulkInsertPending(ctx context.Context, recipients []*models.CampaignRecipient) (*BulkInsertResult, error)
	// BouncedContactIDs returns contact IDs with at least one bounced
	// recipient row anywhere in the organization.
	BouncedContactIDs(ctx context.Context, organizationID uuid.UUID) ([]uuid.UUID, error)
	// MarkBounced flags the (campaign, contact) recipient row as bounced and
	// stamps bounced_at. Returns nil when the pair has no recipient row; it
	// never creates one.
	MarkBounced(ctx context.Context, campaignID, contactID, organizationID uuid.UUID) (*models.CampaignRecipient, error)
	// BulkMarkBounced applies the bounce update to many contacts of one
	// campaign in batches, skipping failed batches, and returns the number of
	// rows actually updated.
	BulkMarkBounced(ctx context.Context, campaignID uuid.UUID, contactIDs []uuid.UUID, organizationID uuid.UUID) (int64, error)
	MarkSent(ctx context.Context, ids []uuid.UUID, sentAt time.Time) (int64, error)
	AnalyticsCounts(ctx context.Context, campaignID uuid.UUID) (*models.RecipientCounts, error)
}

// ContactRepository defines read operations over the organization's audience
type ContactRepository interface {
	ByID(ctx context.Context, id uuid.UUID) (*models.Contact, error)
	// EligibleContactIDs returns contacts matching the resolved targeting
	// filter. Bounce subtraction is not applied here; callers subtract the
	// bounce set themselves.
	EligibleContactIDs(ctx context.Context, filter models.ContactFilter) ([]uuid.UUID, error)
	ByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Contact, error)
}

// BulkInsertResult summarizes the outcome of a bulk recipient insert
type BulkInsertResult struct {
	Inserted         int
	DuplicateSkipped int
	Failed           int
}
