package models

import (
	"strings"
	"time"

	"github.com/heraldhq/herald/utils"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// CampaignTargetRule holds the declarative targeting filter for a campaign.
// At most one row exists per campaign; a missing row is equivalent to the
// defaults returned by DefaultTargetRules.
type CampaignTargetRule struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CampaignID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_campaign_target_rules_campaign_id" json:"campaign_id"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index:idx_campaign_target_rules_organization_id" json:"organization_id"`

	IncludeTags      pq.StringArray `gorm:"type:text[]" json:"include_tags,omitempty"`
	ExcludeTags      pq.StringArray `gorm:"type:text[]" json:"exclude_tags,omitempty"`
	ExcludeCountries pq.StringArray `gorm:"type:text[]" json:"exclude_countries,omitempty"`

	// Stored nullable so that "not set" can fall back to the defaults.
	ExcludeUnsubscribed *bool `json:"exclude_unsubscribed,omitempty"`
	ExcludeInactive     *bool `json:"exclude_inactive,omitempty"`
	ExcludeBounced      *bool `json:"exclude_bounced,omitempty"`

	CreatedAt time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// TableName returns the table name for the model
func (CampaignTargetRule) TableName() string {
	return "campaign_target_rules"
}

// BeforeCreate is called before creating a new record
func (r *CampaignTargetRule) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (r *CampaignTargetRule) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	r.UpdatedAt = &now
	return nil
}

// TargetRuleFilter represents filter criteria for campaign target rules
type TargetRuleFilter struct {
	CampaignID     *uuid.UUID `json:"campaign_id,omitempty"`
	OrganizationID *uuid.UUID `json:"organization_id,omitempty"`
}

// EffectiveTargetRule is a fully-resolved rule set with all defaults applied.
// Tag lists are carried along but are not evaluated when resolving the
// audience; only activity, subscription, country and bounce filters apply.
type EffectiveTargetRule struct {
	IncludeTags         []string
	ExcludeTags         []string
	ExcludeCountries    []string
	ExcludeUnsubscribed bool
	ExcludeInactive     bool
	ExcludeBounced      bool
}

// DefaultTargetRules returns the rule set applied when a campaign has no
// target-rules row.
func DefaultTargetRules() EffectiveTargetRule {
	return EffectiveTargetRule{
		ExcludeUnsubscribed: true,
		ExcludeInactive:     true,
		ExcludeBounced:      false,
	}
}

// Effective resolves the (possibly nil) stored rule row into a concrete rule
// set, filling unset booleans with their defaults and normalizing the country
// list to lower-cased, trimmed codes.
func (r *CampaignTargetRule) Effective() EffectiveTargetRule {
	eff := DefaultTargetRules()
	if r == nil {
		return eff
	}
	if r.ExcludeUnsubscribed != nil {
		eff.ExcludeUnsubscribed = *r.ExcludeUnsubscribed
	}
	if r.ExcludeInactive != nil {
		eff.ExcludeInactive = *r.ExcludeInactive
	}
	if r.ExcludeBounced != nil {
		eff.ExcludeBounced = *r.ExcludeBounced
	}
	eff.IncludeTags = []string(r.IncludeTags)
	eff.ExcludeTags = []string(r.ExcludeTags)
	eff.ExcludeCountries = NormalizeCountryCodes(r.ExcludeCountries)
	return eff
}

// NormalizeCountryCodes lower-cases and trims each code, dropping entries that
// are empty after normalization. Returns nil when nothing remains.
func NormalizeCountryCodes(codes []string) []string {
	var out []string
	for _, c := range codes {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		out = append(out, c)
	}
	return out
}
