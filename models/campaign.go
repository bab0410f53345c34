package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/heraldhq/herald/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CampaignStatus represents the status of a campaign
type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "draft"
	CampaignStatusScheduled CampaignStatus = "scheduled"
	CampaignStatusSending   CampaignStatus = "sending"
	CampaignStatusSent      CampaignStatus = "sent"
	CampaignStatusPaused    CampaignStatus = "paused"
)

// String returns the string representation of the status
func (s CampaignStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignStatusDraft, CampaignStatusScheduled,
		CampaignStatusSending, CampaignStatusSent,
		CampaignStatusPaused:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for CampaignStatus
func (s *CampaignStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = CampaignStatus(v)
	case []byte:
		*s = CampaignStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into CampaignStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for CampaignStatus
func (s CampaignStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid CampaignStatus: %s", s)
	}
	return string(s), nil
}

// Campaign represents an outbound email campaign scoped to one organization
type Campaign struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	OrganizationID uuid.UUID      `gorm:"type:uuid;not null;index:idx_campaigns_organization_id" json:"organization_id"`
	Name           string         `gorm:"type:text;not null" json:"name"`
	Status         CampaignStatus `gorm:"type:text;not null;default:'draft';index:idx_campaigns_status" json:"status"`
	ScheduledAt    *time.Time     `gorm:"index:idx_campaigns_scheduled_at" json:"scheduled_at,omitempty"`
	SentAt         *time.Time     `json:"sent_at,omitempty"`
	CreatedBy      uuid.UUID      `gorm:"type:uuid;not null" json:"created_by"`
	CreatedAt      time.Time      `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_campaigns_created_at" json:"created_at"`
	UpdatedAt      *time.Time     `json:"updated_at,omitempty"`
}

// TableName returns the table name for the model
func (Campaign) TableName() string {
	return "campaigns"
}

// BeforeCreate is called before creating a new record
func (c *Campaign) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Status == "" {
		c.Status = CampaignStatusDraft
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (c *Campaign) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	c.UpdatedAt = &now
	return nil
}

// IsEditable checks if the campaign can still be modified through the API
func (c *Campaign) IsEditable() bool {
	return c.Status == CampaignStatusDraft ||
		c.Status == CampaignStatusScheduled ||
		c.Status == CampaignStatusPaused
}

// CanTransitionTo checks if the campaign can transition to the given status
func (c *Campaign) CanTransitionTo(newStatus CampaignStatus) bool {
	switch c.Status {
	case CampaignStatusDraft:
		return newStatus == CampaignStatusScheduled ||
			newStatus == CampaignStatusPaused
	case CampaignStatusScheduled:
		return newStatus == CampaignStatusDraft ||
			newStatus == CampaignStatusSending ||
			newStatus == CampaignStatusPaused
	case CampaignStatusPaused:
		return newStatus == CampaignStatusDraft ||
			newStatus == CampaignStatusScheduled
	case CampaignStatusSending:
		return newStatus == CampaignStatusSent
	default:
		// sent is terminal
		return false
	}
}

// IsDue reports whether the campaign should be picked up by the automation runner
func (c *Campaign) IsDue(now time.Time) bool {
	return c.Status == CampaignStatusScheduled &&
		c.ScheduledAt != nil &&
		!c.ScheduledAt.After(now)
}

// CampaignFilter represents filter criteria for campaigns
type CampaignFilter struct {
	ID              *uuid.UUID      `json:"id,omitempty"`
	OrganizationID  *uuid.UUID      `json:"organization_id,omitempty"`
	Status          *CampaignStatus `json:"status,omitempty"`
	Name            *string         `json:"name,omitempty"`
	CreatedBy       *uuid.UUID      `json:"created_by,omitempty"`
	CreatedAfter    *time.Time      `json:"created_after,omitempty"`
	CreatedBefore   *time.Time      `json:"created_before,omitempty"`
	ScheduledAfter  *time.Time      `json:"scheduled_after,omitempty"`
	ScheduledBefore *time.Time      `json:"scheduled_before,omitempty"`
}
