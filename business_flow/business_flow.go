// Package businessflow contains the business logic for the application.
package businessflow

import (
	"time"

	"github.com/heraldhq/herald/app/dto"
	"github.com/heraldhq/herald/models"
	"github.com/google/uuid"
)

const RequestIDKey = "X-Request-ID"

// AuthContext identifies the caller of a flow. Every flow operation is
// scoped to the caller's organization; flows never trust IDs from payloads.
type AuthContext struct {
	OrganizationID uuid.UUID `json:"organization_id"`
	UserID         uuid.UUID `json:"user_id"`
}

// ClientMetadata holds client-related information for audit logging
type ClientMetadata struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
	RequestID string `json:"request_id,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// ToCampaignDTO converts a campaign model to its API representation
func ToCampaignDTO(campaign models.Campaign) dto.CampaignDTO {
	out := dto.CampaignDTO{
		ID:             campaign.ID.String(),
		OrganizationID: campaign.OrganizationID.String(),
		Name:           campaign.Name,
		Status:         campaign.Status.String(),
		CreatedBy:      campaign.CreatedBy.String(),
		CreatedAt:      campaign.CreatedAt.Format(time.RFC3339),
	}
	if campaign.ScheduledAt != nil {
		out.ScheduledAt = campaign.ScheduledAt.UTC().Format(time.RFC3339)
	}
	if campaign.SentAt != nil {
		out.SentAt = campaign.SentAt.UTC().Format(time.RFC3339)
	}
	if campaign.UpdatedAt != nil {
		out.UpdatedAt = campaign.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return out
}

// ToTargetRuleDTO converts a target rule row to its API representation
func ToTargetRuleDTO(rule *models.CampaignTargetRule) dto.TargetRuleDTO {
	eff := rule.Effective()
	out := dto.TargetRuleDTO{
		IncludeTags:         eff.IncludeTags,
		ExcludeTags:         eff.ExcludeTags,
		ExcludeCountries:    eff.ExcludeCountries,
		ExcludeUnsubscribed: eff.ExcludeUnsubscribed,
		ExcludeInactive:     eff.ExcludeInactive,
		ExcludeBounced:      eff.ExcludeBounced,
	}
	if rule != nil {
		out.CampaignID = rule.CampaignID.String()
	}
	return out
}

// ToRecipientDTO converts a recipient row to its API representation
func ToRecipientDTO(rec models.CampaignRecipient, contact *models.Contact) dto.RecipientDTO {
	out := dto.RecipientDTO{
		ID:         rec.ID.String(),
		CampaignID: rec.CampaignID.String(),
		ContactID:  rec.ContactID.String(),
		Status:     rec.Status.String(),
		CreatedAt:  rec.CreatedAt.Format(time.RFC3339),
	}
	if rec.SentAt != nil {
		out.SentAt = rec.SentAt.UTC().Format(time.RFC3339)
	}
	if rec.BouncedAt != nil {
		out.BouncedAt = rec.BouncedAt.UTC().Format(time.RFC3339)
	}
	if contact != nil {
		if contact.Email != nil {
			out.Email = *contact.Email
		}
		if contact.FirstName != nil {
			out.FirstName = *contact.FirstName
		}
		if contact.LastName != nil {
			out.LastName = *contact.LastName
		}
		if contact.Country != nil {
			out.Country = *contact.Country
		}
	}
	return out
}
