package models

import (
	"time"

	"github.com/heraldhq/herald/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Contact is a member of an organization's audience. Contact lifecycle
// (import, normalization, deduplication) is owned elsewhere; this core only
// reads contacts when resolving campaign eligibility.
type Contact struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	OrganizationID uuid.UUID  `gorm:"type:uuid;not null;index:idx_contacts_organization_id" json:"organization_id"`
	Email          *string    `gorm:"type:text;index:idx_contacts_email" json:"email,omitempty"`
	FirstName      *string    `gorm:"type:text" json:"first_name,omitempty"`
	LastName       *string    `gorm:"type:text" json:"last_name,omitempty"`
	Country        *string    `gorm:"type:text" json:"country,omitempty"`
	IsActive       bool       `gorm:"not null;default:true" json:"is_active"`
	IsSubscribed   bool       `gorm:"not null;default:true" json:"is_subscribed"`
	DeletedAt      *time.Time `gorm:"index:idx_contacts_deleted_at" json:"deleted_at,omitempty"`
	CreatedAt      time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

// TableName returns the table name for the model
func (Contact) TableName() string {
	return "contacts"
}

// BeforeCreate is called before creating a new record
func (c *Contact) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = utils.UTCNow()
	}
	return nil
}

// ContactFilter represents filter criteria for eligibility queries.
// ExcludeCountries must already be normalized (lower-cased, trimmed).
type ContactFilter struct {
	OrganizationID   *uuid.UUID `json:"organization_id,omitempty"`
	IsActive         *bool      `json:"is_active,omitempty"`
	IsSubscribed     *bool      `json:"is_subscribed,omitempty"`
	ExcludeCountries []string   `json:"exclude_countries,omitempty"`
	RequireEmail     bool       `json:"require_email,omitempty"`
}
