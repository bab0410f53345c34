package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/heraldhq/herald/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RecipientStatus represents the delivery status of a campaign recipient
type RecipientStatus string

const (
	RecipientStatusPending   RecipientStatus = "pending"
	RecipientStatusSent      RecipientStatus = "sent"
	RecipientStatusDelivered RecipientStatus = "delivered"
	RecipientStatusBounced   RecipientStatus = "bounced"
	RecipientStatusOpened    RecipientStatus = "opened"
	RecipientStatusClicked   RecipientStatus = "clicked"
)

// String returns the string representation of the status
func (s RecipientStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s RecipientStatus) Valid() bool {
	switch s {
	case RecipientStatusPending, RecipientStatusSent, RecipientStatusDelivered,
		RecipientStatusBounced, RecipientStatusOpened, RecipientStatusClicked:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for RecipientStatus
func (s *RecipientStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = RecipientStatus(v)
	case []byte:
		*s = RecipientStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into RecipientStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for RecipientStatus
func (s RecipientStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid RecipientStatus: %s", s)
	}
	return string(s), nil
}

// CampaignRecipient records that a contact is targeted by a campaign.
// The (campaign_id, contact_id) pair is unique: a contact is targeted by a
// given campaign at most once regardless of how many generation runs happen.
type CampaignRecipient struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CampaignID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uk_campaign_recipients_campaign_contact;index:idx_campaign_recipients_campaign_id" json:"campaign_id"`
	ContactID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uk_campaign_recipients_campaign_contact" json:"contact_id"`
	OrganizationID uuid.UUID       `gorm:"type:uuid;not null;index:idx_campaign_recipients_organization_id" json:"organization_id"`
	Status         RecipientStatus `gorm:"type:text;not null;default:'pending';index:idx_campaign_recipients_status" json:"status"`

	SentAt      *time.Time `json:"sent_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	OpenedAt    *time.Time `json:"opened_at,omitempty"`
	ClickedAt   *time.Time `json:"clicked_at,omitempty"`
	BouncedAt   *time.Time `json:"bounced_at,omitempty"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_campaign_recipients_created_at" json:"created_at"`
}

// TableName returns the table name for the model
func (CampaignRecipient) TableName() string {
	return "campaign_recipients"
}

// BeforeCreate is called before creating a new record
func (r *CampaignRecipient) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Status == "" {
		r.Status = RecipientStatusPending
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = utils.UTCNow()
	}
	return nil
}

// RecipientCounts aggregates recipient rows by delivery outcome for one campaign
type RecipientCounts struct {
	Total     int64 `json:"total"`
	Pending   int64 `json:"pending"`
	Sent      int64 `json:"sent"`
	Delivered int64 `json:"delivered"`
	Opened    int64 `json:"opened"`
	Clicked   int64 `json:"clicked"`
	Bounced   int64 `json:"bounced"`
}

// RecipientFilter represents filter criteria for campaign recipients
type RecipientFilter struct {
	CampaignID     *uuid.UUID       `json:"campaign_id,omitempty"`
	ContactID      *uuid.UUID       `json:"contact_id,omitempty"`
	OrganizationID *uuid.UUID       `json:"organization_id,omitempty"`
	Status         *RecipientStatus `json:"status,omitempty"`
}
